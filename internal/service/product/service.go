package product

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/rmaulana/rh-tracker-api/internal/model"
	"github.com/rmaulana/rh-tracker-api/internal/repository"
	"github.com/rmaulana/rh-tracker-api/internal/rh"
	"github.com/rmaulana/rh-tracker-api/internal/service/notification"
	apperrors "github.com/rmaulana/rh-tracker-api/pkg/errors"
	"github.com/rmaulana/rh-tracker-api/pkg/logger"
	"github.com/rmaulana/rh-tracker-api/pkg/messaging"
	"github.com/rmaulana/rh-tracker-api/pkg/metrics"
)

const (
	dateLayout   = "2006-01-02"
	toastChannel = "notifications"

	statsCacheTTL = 30 * time.Second
)

type Service interface {
	Create(ctx context.Context, userID uuid.UUID, req *model.CreateProductRequest) (*model.Product, error)
	Get(ctx context.Context, id, userID uuid.UUID) (*model.Product, error)
	Update(ctx context.Context, id, userID uuid.UUID, req *model.UpdateProductRequest) (*model.Product, error)
	Delete(ctx context.Context, id, userID uuid.UUID) error
	List(ctx context.Context, filters *model.ProductFilters) ([]*model.Product, *model.Pagination, error)
	Statistics(ctx context.Context, userID uuid.UUID) (*model.Statistics, error)
}

type service struct {
	repo     repository.ProductRepository
	userRepo repository.UserRepository
	notifier notification.Service
	broker   messaging.Broker
	cal      rh.Calendar
	cache    *gocache.Cache
	logger   *logger.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewService(
	repo repository.ProductRepository,
	userRepo repository.UserRepository,
	notifier notification.Service,
	broker messaging.Broker,
	cal rh.Calendar,
	log *logger.Logger,
	m *metrics.Metrics,
) Service {
	return &service{
		repo:     repo,
		userRepo: userRepo,
		notifier: notifier,
		broker:   broker,
		cal:      cal,
		cache:    gocache.New(statsCacheTTL, 2*statsCacheTTL),
		logger:   log,
		metrics:  m,
		now:      time.Now,
	}
}

// Create stores a new product. The RH date is derived from the expiration
// date unless the request carries an explicit one, and the initial status is
// computed immediately so a product entered past its dates alerts right away.
func (s *service) Create(ctx context.Context, userID uuid.UUID, req *model.CreateProductRequest) (*model.Product, error) {
	expirationDate, err := s.parseDate(req.ExpirationDate)
	if err != nil {
		return nil, apperrors.BadRequest("invalid expiration_date, expected YYYY-MM-DD", err)
	}

	leadDays := model.DefaultRHDaysBefore
	if req.RHDaysBefore != nil {
		if *req.RHDaysBefore < 0 {
			return nil, apperrors.BadRequest("rh_days_before must not be negative", nil)
		}
		leadDays = *req.RHDaysBefore
	}

	rhDate := rh.DeriveRHDate(expirationDate, leadDays)
	if req.RHDate != "" {
		rhDate, err = s.parseDate(req.RHDate)
		if err != nil {
			return nil, apperrors.BadRequest("invalid rh_date, expected YYYY-MM-DD", err)
		}
	}

	product := &model.Product{
		Name:           req.Name,
		Quantity:       req.Quantity,
		ExpirationDate: expirationDate,
		RHDaysBefore:   leadDays,
		RHDate:         rhDate,
		Status:         s.cal.ComputeStatus(s.now(), rhDate, expirationDate),
		UserID:         userID,
	}

	if err := s.repo.Create(ctx, product); err != nil {
		s.metrics.DatabaseOperations.WithLabelValues("product_create", "error").Inc()
		return nil, apperrors.Internal(err)
	}
	s.metrics.DatabaseOperations.WithLabelValues("product_create", "success").Inc()
	s.invalidateStats(userID)

	s.publishToast(ctx, &model.Toast{
		Kind:    model.ToastNewProduct,
		UserID:  userID.String(),
		Product: s.digest(product),
		Status:  product.Status,
	})

	// A product already in warning or expired territory gets an immediate
	// best-effort notification; failure never fails the create.
	s.notifyIfAlerting(ctx, product)

	return product, nil
}

func (s *service) Get(ctx context.Context, id, userID uuid.UUID) (*model.Product, error) {
	product, err := s.repo.GetForUser(ctx, id, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("product", err)
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return product, nil
}

// Update applies the provided fields, then re-derives the RH date and status
// when any date input changed. An explicit rh_date in the request wins over
// derivation.
func (s *service) Update(ctx context.Context, id, userID uuid.UUID, req *model.UpdateProductRequest) (*model.Product, error) {
	product, err := s.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	previousStatus := product.Status

	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Quantity != nil {
		product.Quantity = *req.Quantity
	}

	datesChanged := false
	if req.ExpirationDate != nil {
		expirationDate, err := s.parseDate(*req.ExpirationDate)
		if err != nil {
			return nil, apperrors.BadRequest("invalid expiration_date, expected YYYY-MM-DD", err)
		}
		product.ExpirationDate = expirationDate
		datesChanged = true
	}
	if req.RHDaysBefore != nil {
		if *req.RHDaysBefore < 0 {
			return nil, apperrors.BadRequest("rh_days_before must not be negative", nil)
		}
		product.RHDaysBefore = *req.RHDaysBefore
		datesChanged = true
	}
	if datesChanged {
		product.RHDate = rh.DeriveRHDate(product.ExpirationDate, product.RHDaysBefore)
	}
	if req.RHDate != nil {
		rhDate, err := s.parseDate(*req.RHDate)
		if err != nil {
			return nil, apperrors.BadRequest("invalid rh_date, expected YYYY-MM-DD", err)
		}
		product.RHDate = rhDate
		datesChanged = true
	}

	if datesChanged {
		product.Status = s.cal.ComputeStatus(s.now(), product.RHDate, product.ExpirationDate)
	}

	if err := s.repo.Update(ctx, product); err != nil {
		s.metrics.DatabaseOperations.WithLabelValues("product_update", "error").Inc()
		return nil, apperrors.Internal(err)
	}
	s.metrics.DatabaseOperations.WithLabelValues("product_update", "success").Inc()
	s.invalidateStats(userID)

	if product.Status != previousStatus {
		s.metrics.StatusTransitions.WithLabelValues(string(product.Status)).Inc()
		s.notifyIfAlerting(ctx, product)
	}

	return product, nil
}

func (s *service) Delete(ctx context.Context, id, userID uuid.UUID) error {
	err := s.repo.Delete(ctx, id, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound("product", err)
	}
	if err != nil {
		return apperrors.Internal(err)
	}
	s.invalidateStats(userID)
	return nil
}

func (s *service) List(ctx context.Context, filters *model.ProductFilters) ([]*model.Product, *model.Pagination, error) {
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.Limit < 1 || filters.Limit > 100 {
		filters.Limit = 20
	}

	products, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, nil, apperrors.Internal(err)
	}

	pages := total / int64(filters.Limit)
	if total%int64(filters.Limit) != 0 {
		pages++
	}
	return products, &model.Pagination{
		Page:  filters.Page,
		Limit: filters.Limit,
		Total: total,
		Pages: pages,
	}, nil
}

// Statistics aggregates the user's inventory by status. Results are cached
// briefly since dashboards poll this endpoint.
func (s *service) Statistics(ctx context.Context, userID uuid.UUID) (*model.Statistics, error) {
	cacheKey := "stats:" + userID.String()
	if cached, ok := s.cache.Get(cacheKey); ok {
		return cached.(*model.Statistics), nil
	}

	products, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	stats := s.aggregate(products)
	s.cache.Set(cacheKey, stats, statsCacheTTL)
	return stats, nil
}

func (s *service) aggregate(products []*model.Product) *model.Statistics {
	now := s.now()
	stats := &model.Statistics{
		UpcomingRH:  []model.ProductDigest{},
		ExpiredList: []model.ProductDigest{},
	}
	summary := &stats.Summary

	for _, p := range products {
		summary.TotalProducts++
		summary.TotalQuantity += p.Quantity

		digest := *s.digest(p)
		digest.DaysUntilRH = s.cal.DaysUntil(now, p.RHDate)

		switch p.Status {
		case model.ProductStatusSafe:
			summary.Safe.Count++
			summary.Safe.Quantity += p.Quantity
		case model.ProductStatusWarning:
			summary.Warning.Count++
			summary.Warning.Quantity += p.Quantity
			stats.UpcomingRH = append(stats.UpcomingRH, digest)
		case model.ProductStatusExpired:
			summary.Expired.Count++
			summary.Expired.Quantity += p.Quantity
			stats.ExpiredList = append(stats.ExpiredList, digest)
		}
	}

	if summary.TotalProducts > 0 {
		summary.Safe.Percentage = summary.Safe.Count * 100 / summary.TotalProducts
		summary.Warning.Percentage = summary.Warning.Count * 100 / summary.TotalProducts
		summary.Expired.Percentage = summary.Expired.Count * 100 / summary.TotalProducts
	}

	sort.Slice(stats.UpcomingRH, func(i, j int) bool {
		return stats.UpcomingRH[i].ExpirationDate.Before(stats.UpcomingRH[j].ExpirationDate)
	})
	sort.Slice(stats.ExpiredList, func(i, j int) bool {
		return stats.ExpiredList[i].ExpirationDate.Before(stats.ExpiredList[j].ExpirationDate)
	})

	return stats
}

// notifyIfAlerting sends the owner an immediate WhatsApp notification when a
// product is created or edited into an alerting state. No dedup pre-check:
// the log insert's unique slot still caps it at one per day.
func (s *service) notifyIfAlerting(ctx context.Context, product *model.Product) {
	typ, ok := model.TypeForStatus(product.Status)
	if !ok || s.notifier == nil {
		return
	}

	owner, err := s.userRepo.Get(ctx, product.UserID)
	if err != nil {
		s.logger.Warn("failed to load owner for immediate notification",
			"product_id", product.ID.String(), "error", err.Error())
		return
	}

	res := s.notifier.Dispatch(ctx, product, owner.WhatsApp, owner.ID, typ)
	if res.Error != "" {
		s.logger.Warn("immediate notification failed",
			"product_id", product.ID.String(), "error", res.Error)
	}
}

func (s *service) parseDate(value string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, value, s.cal.Location())
}

func (s *service) digest(p *model.Product) *model.ProductDigest {
	return &model.ProductDigest{
		ID:             p.ID,
		Name:           p.Name,
		Quantity:       p.Quantity,
		RHDate:         p.RHDate,
		ExpirationDate: p.ExpirationDate,
	}
}

func (s *service) invalidateStats(userID uuid.UUID) {
	s.cache.Delete("stats:" + userID.String())
}

func (s *service) publishToast(ctx context.Context, toast *model.Toast) {
	if s.broker == nil {
		return
	}
	if err := s.broker.Publish(ctx, toastChannel, toast); err != nil {
		s.logger.Warn("failed to publish toast", "error", err.Error())
	}
}
