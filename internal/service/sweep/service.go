package sweep

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rmaulana/rh-tracker-api/internal/model"
	"github.com/rmaulana/rh-tracker-api/internal/repository"
	"github.com/rmaulana/rh-tracker-api/internal/rh"
	"github.com/rmaulana/rh-tracker-api/internal/service/notification"
	"github.com/rmaulana/rh-tracker-api/pkg/logger"
	"github.com/rmaulana/rh-tracker-api/pkg/messaging"
	"github.com/rmaulana/rh-tracker-api/pkg/metrics"
)

const toastChannel = "notifications"

// Service walks products, recomputes lifecycle status from their dates,
// persists transitions, and hands items needing attention to the notifier.
// Full-fleet and per-owner sweeps share the same per-item logic; scope is
// purely a pre-filter on the input set.
type Service struct {
	productRepo repository.ProductRepository
	notifier    notification.Service
	broker      messaging.Broker
	cal         rh.Calendar
	logger      *logger.Logger
	metrics     *metrics.Metrics
	now         func() time.Time
}

func NewService(
	productRepo repository.ProductRepository,
	notifier notification.Service,
	broker messaging.Broker,
	cal rh.Calendar,
	log *logger.Logger,
	m *metrics.Metrics,
) *Service {
	return &Service{
		productRepo: productRepo,
		notifier:    notifier,
		broker:      broker,
		cal:         cal,
		logger:      log,
		metrics:     m,
		now:         time.Now,
	}
}

// RunFull sweeps every product in the system. Used by the periodic trigger.
func (s *Service) RunFull(ctx context.Context) (*model.SweepReport, error) {
	s.metrics.SweepRuns.WithLabelValues("full").Inc()

	products, err := s.productRepo.ListForSweep(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load products for sweep: %w", err)
	}
	return s.run(ctx, products), nil
}

// RunForOwner sweeps only one owner's products. Used by the interactive
// per-user trigger.
func (s *Service) RunForOwner(ctx context.Context, ownerID uuid.UUID) (*model.SweepReport, error) {
	s.metrics.SweepRuns.WithLabelValues("owner").Inc()

	products, err := s.productRepo.ListForSweepByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load products for sweep: %w", err)
	}
	return s.run(ctx, products), nil
}

func (s *Service) run(ctx context.Context, products []*model.ProductWithOwner) *model.SweepReport {
	timer := prometheus.NewTimer(s.metrics.SweepDuration)
	defer timer.ObserveDuration()

	asOf := s.now()
	report := &model.SweepReport{}

	for _, item := range products {
		s.metrics.SweepItemsChecked.Inc()
		s.sweepOne(ctx, item, asOf, report)
	}

	report.TotalNotifications = report.WarningSent + report.ExpiredSent
	return report
}

// sweepOne applies the per-item rules. Individual failures are collected
// into the report and never abort the remaining items.
func (s *Service) sweepOne(ctx context.Context, item *model.ProductWithOwner, asOf time.Time, report *model.SweepReport) {
	newStatus := s.cal.ComputeStatus(asOf, item.RHDate, item.ExpirationDate)

	// Status tracks ground truth independent of notification delivery.
	if newStatus != item.Status {
		if err := s.productRepo.UpdateStatus(ctx, item.ID, newStatus); err != nil {
			report.Errors = append(report.Errors,
				fmt.Sprintf("gagal memperbarui status untuk produk %s: %v", item.Name, err))
		} else {
			report.StatusUpdated++
			s.metrics.StatusTransitions.WithLabelValues(string(newStatus)).Inc()
			s.publishAlert(ctx, item, newStatus)
		}
		item.Status = newStatus
	}

	typ, needsAttention := model.TypeForStatus(newStatus)
	if !needsAttention {
		return
	}

	due, err := s.notifier.IsDue(ctx, item.ID, typ, asOf)
	if err != nil {
		report.Errors = append(report.Errors,
			fmt.Sprintf("gagal memeriksa log notifikasi untuk produk %s: %v", item.Name, err))
		return
	}
	if !due {
		return
	}

	res := s.notifier.Dispatch(ctx, &item.Product, item.OwnerWhatsApp, item.UserID, typ)
	if res.Sent && res.Logged {
		switch typ {
		case model.NotificationWarningRH:
			report.WarningSent++
		case model.NotificationExpiredRH:
			report.ExpiredSent++
		}
		return
	}
	if res.Error != "" {
		report.Errors = append(report.Errors,
			fmt.Sprintf("gagal mengirim notifikasi untuk produk %s: %s", item.Name, res.Error))
	}
}

func (s *Service) publishAlert(ctx context.Context, item *model.ProductWithOwner, status model.ProductStatus) {
	if s.broker == nil {
		return
	}
	if status == model.ProductStatusSafe {
		return
	}
	toast := &model.Toast{
		Kind:   model.ToastProductAlert,
		UserID: item.UserID.String(),
		Product: &model.ProductDigest{
			ID:             item.ID,
			Name:           item.Name,
			Quantity:       item.Quantity,
			RHDate:         item.RHDate,
			ExpirationDate: item.ExpirationDate,
		},
		Status:   status,
		Severity: string(status),
	}
	if err := s.broker.Publish(ctx, toastChannel, toast); err != nil {
		s.logger.Warn("failed to publish product alert", "error", err.Error())
	}
}
