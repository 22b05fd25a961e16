package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rmaulana/rh-tracker-api/internal/model"
	"github.com/rmaulana/rh-tracker-api/internal/repository"
	"github.com/rmaulana/rh-tracker-api/internal/rh"
	"github.com/rmaulana/rh-tracker-api/internal/whatsapp"
	apperrors "github.com/rmaulana/rh-tracker-api/pkg/errors"
	"github.com/rmaulana/rh-tracker-api/pkg/logger"
	"github.com/rmaulana/rh-tracker-api/pkg/messaging"
	"github.com/rmaulana/rh-tracker-api/pkg/metrics"
)

const toastChannel = "notifications"

// DispatchResult reports one dispatch attempt. Sent means the message was
// delivered; Logged means the daily record was persisted. Logged is false
// when another dispatch won the day's unique slot first.
type DispatchResult struct {
	Sent   bool
	Logged bool
	Error  string
}

// ManualReport summarizes a user-triggered send to all admin/staff users.
type ManualReport struct {
	SentCount int      `json:"sent_count"`
	Errors    []string `json:"errors,omitempty"`
}

type Service interface {
	// IsDue reports whether (productID, typ) has not yet been notified on
	// asOf's calendar day. Advisory: the insert's unique index is the
	// authority under concurrency.
	IsDue(ctx context.Context, productID uuid.UUID, typ model.NotificationType, asOf time.Time) (bool, error)
	Dispatch(ctx context.Context, product *model.Product, whatsappNumber string, ownerID uuid.UUID, typ model.NotificationType) *DispatchResult
	SendManual(ctx context.Context, requesterID, productID uuid.UUID, typ model.NotificationType) (*ManualReport, error)
}

type service struct {
	repo        repository.NotificationRepository
	productRepo repository.ProductRepository
	userRepo    repository.UserRepository
	sender      whatsapp.Sender
	broker      messaging.Broker
	cal         rh.Calendar
	logger      *logger.Logger
	metrics     *metrics.Metrics
	now         func() time.Time
}

func NewService(
	repo repository.NotificationRepository,
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
	sender whatsapp.Sender,
	broker messaging.Broker,
	cal rh.Calendar,
	log *logger.Logger,
	m *metrics.Metrics,
) Service {
	return &service{
		repo:        repo,
		productRepo: productRepo,
		userRepo:    userRepo,
		sender:      sender,
		broker:      broker,
		cal:         cal,
		logger:      log,
		metrics:     m,
		now:         time.Now,
	}
}

func (s *service) IsDue(ctx context.Context, productID uuid.UUID, typ model.NotificationType, asOf time.Time) (bool, error) {
	_, err := s.repo.FindSince(ctx, productID, typ, s.cal.StartOfDay(asOf))
	if errors.Is(err, repository.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return false, nil
}

// Dispatch composes the message, sends it, and records the send. The record
// is written only after a confirmed delivery, so a failed send leaves no
// trace and the next sweep retries naturally.
func (s *service) Dispatch(ctx context.Context, product *model.Product, whatsappNumber string, ownerID uuid.UUID, typ model.NotificationType) *DispatchResult {
	message := s.composeMessage(typ, product)

	sendRes, err := s.sender.Send(ctx, whatsappNumber, message)
	if err != nil {
		s.metrics.NotificationErrors.WithLabelValues(string(typ)).Inc()
		return &DispatchResult{Error: err.Error()}
	}
	if !sendRes.Success {
		s.metrics.NotificationErrors.WithLabelValues(string(typ)).Inc()
		return &DispatchResult{Error: sendRes.Error}
	}

	sentAt := s.now()
	log := &model.NotificationLog{
		ProductID:      product.ID,
		Type:           typ,
		SentAt:         sentAt,
		SentOn:         s.cal.StartOfDay(sentAt),
		WhatsAppNumber: whatsappNumber,
		Message:        message,
		UserID:         ownerID,
	}

	if err := s.repo.Insert(ctx, log); err != nil {
		if errors.Is(err, repository.ErrDuplicateNotification) {
			// A concurrent dispatch already holds today's slot.
			return &DispatchResult{Sent: true}
		}
		s.logger.Error(err, "notification delivered but not recorded",
			"product_id", product.ID.String(), "type", string(typ))
		return &DispatchResult{Sent: true, Error: fmt.Sprintf("failed to record notification: %v", err)}
	}

	s.metrics.NotificationsSent.WithLabelValues(string(typ)).Inc()
	s.publishToast(ctx, product, whatsappNumber, ownerID)

	return &DispatchResult{Sent: true, Logged: true}
}

// SendManual delivers a notification for one product to every admin and
// staff user. It does not consult IsDue first, but every success is logged,
// so a manual send still suppresses the same day's automatic one.
func (s *service) SendManual(ctx context.Context, requesterID, productID uuid.UUID, typ model.NotificationType) (*ManualReport, error) {
	product, err := s.productRepo.GetForUser(ctx, productID, requesterID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("product", err)
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	users, err := s.userRepo.ListByRoles(ctx, model.UserRoleAdmin, model.UserRoleStaff)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	report := &ManualReport{}
	for _, user := range users {
		res := s.Dispatch(ctx, product, user.WhatsApp, user.ID, typ)
		if res.Sent {
			report.SentCount++
			continue
		}
		report.Errors = append(report.Errors,
			fmt.Sprintf("gagal mengirim ke %s (%s): %s", user.Username, user.WhatsApp, res.Error))
	}
	return report, nil
}

func (s *service) composeMessage(typ model.NotificationType, product *model.Product) string {
	switch typ {
	case model.NotificationExpiredRH:
		return fmt.Sprintf(`🚨 PERINGATAN RH

Produk: %s
Jumlah: %d item
Tanggal Kadaluarsa: %s
Status: JATUH RH (KADALUARSA)

Produk tidak boleh dijual. Segera lakukan penarikan dari rak.`,
			product.Name,
			product.Quantity,
			rh.FormatDate(product.ExpirationDate),
		)
	default:
		return fmt.Sprintf(`⚠️ NOTIFIKASI RH

Produk: %s
Jumlah: %d item
Tanggal Kadaluarsa: %s
Tanggal RH: %s
Status: WAJIB RETUR (H-%d)

Segera lakukan retur sebelum tanggal kadaluarsa.`,
			product.Name,
			product.Quantity,
			rh.FormatDate(product.ExpirationDate),
			rh.FormatDate(product.RHDate),
			product.RHDaysBefore,
		)
	}
}

func (s *service) publishToast(ctx context.Context, product *model.Product, number string, ownerID uuid.UUID) {
	if s.broker == nil {
		return
	}
	toast := &model.Toast{
		Kind:   model.ToastWhatsAppSent,
		UserID: ownerID.String(),
		Product: &model.ProductDigest{
			ID:             product.ID,
			Name:           product.Name,
			Quantity:       product.Quantity,
			RHDate:         product.RHDate,
			ExpirationDate: product.ExpirationDate,
		},
		Status: product.Status,
		SentTo: number,
	}
	if err := s.broker.Publish(ctx, toastChannel, toast); err != nil {
		s.logger.Warn("failed to publish toast", "error", err.Error())
	}
}
