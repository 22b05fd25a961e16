package product

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmaulana/rh-tracker-api/internal/model"
	"github.com/rmaulana/rh-tracker-api/internal/repository"
	"github.com/rmaulana/rh-tracker-api/internal/rh"
	"github.com/rmaulana/rh-tracker-api/internal/service/notification"
	"github.com/rmaulana/rh-tracker-api/pkg/logger"
	"github.com/rmaulana/rh-tracker-api/pkg/metrics"
)

var testMetrics = metrics.New("test_product")

type fakeProductRepo struct {
	repository.ProductRepository
	stored []*model.Product
}

func (f *fakeProductRepo) Create(_ context.Context, p *model.Product) error {
	p.ID = uuid.New()
	f.stored = append(f.stored, p)
	return nil
}

func (f *fakeProductRepo) GetForUser(_ context.Context, id, userID uuid.UUID) (*model.Product, error) {
	for _, p := range f.stored {
		if p.ID == id && p.UserID == userID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeProductRepo) Update(_ context.Context, p *model.Product) error {
	for i, existing := range f.stored {
		if existing.ID == p.ID {
			f.stored[i] = p
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeProductRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]*model.Product, error) {
	var out []*model.Product
	for _, p := range f.stored {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeUserRepo struct {
	repository.UserRepository
	user *model.User
}

func (f *fakeUserRepo) Get(_ context.Context, id uuid.UUID) (*model.User, error) {
	if f.user == nil || f.user.ID != id {
		return nil, repository.ErrNotFound
	}
	return f.user, nil
}

type fakeNotifier struct {
	dispatched []model.NotificationType
}

func (f *fakeNotifier) IsDue(context.Context, uuid.UUID, model.NotificationType, time.Time) (bool, error) {
	return true, nil
}

func (f *fakeNotifier) Dispatch(_ context.Context, _ *model.Product, _ string, _ uuid.UUID, typ model.NotificationType) *notification.DispatchResult {
	f.dispatched = append(f.dispatched, typ)
	return &notification.DispatchResult{Sent: true, Logged: true}
}

func (f *fakeNotifier) SendManual(context.Context, uuid.UUID, uuid.UUID, model.NotificationType) (*notification.ManualReport, error) {
	return &notification.ManualReport{}, nil
}

func newTestService(repo *fakeProductRepo, userRepo *fakeUserRepo, notifier *fakeNotifier, now time.Time, t *testing.T) *service {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Jakarta")
	require.NoError(t, err)

	svc := NewService(repo, userRepo, notifier, nil, rh.NewCalendar(loc), logger.NewLogger(nil), testMetrics).(*service)
	svc.now = func() time.Time { return now }
	return svc
}

func TestCreateDerivesRHDateAndStatus(t *testing.T) {
	loc, _ := time.LoadLocation("Asia/Jakarta")
	now := time.Date(2025, time.March, 1, 10, 0, 0, 0, loc)
	owner := &model.User{ID: uuid.New(), WhatsApp: "628123456789"}
	repo := &fakeProductRepo{}
	svc := newTestService(repo, &fakeUserRepo{user: owner}, &fakeNotifier{}, now, t)

	created, err := svc.Create(context.Background(), owner.ID, &model.CreateProductRequest{
		Name:           "Susu UHT",
		ExpirationDate: "2025-03-24",
		Quantity:       10,
	})
	require.NoError(t, err)

	assert.Equal(t, model.DefaultRHDaysBefore, created.RHDaysBefore)
	assert.Equal(t, time.Date(2025, time.March, 10, 0, 0, 0, 0, loc), created.RHDate)
	assert.Equal(t, model.ProductStatusSafe, created.Status)
	require.Len(t, repo.stored, 1)
}

func TestCreateExplicitRHDateWins(t *testing.T) {
	loc, _ := time.LoadLocation("Asia/Jakarta")
	now := time.Date(2025, time.March, 1, 10, 0, 0, 0, loc)
	owner := &model.User{ID: uuid.New(), WhatsApp: "628123456789"}
	svc := newTestService(&fakeProductRepo{}, &fakeUserRepo{user: owner}, &fakeNotifier{}, now, t)

	lead := 7
	created, err := svc.Create(context.Background(), owner.ID, &model.CreateProductRequest{
		Name:           "Roti",
		ExpirationDate: "2025-03-24",
		Quantity:       3,
		RHDaysBefore:   &lead,
		RHDate:         "2025-03-05",
	})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.March, 5, 0, 0, 0, 0, loc), created.RHDate)
	assert.Equal(t, 7, created.RHDaysBefore)
}

func TestCreateAlreadyAlertingNotifiesImmediately(t *testing.T) {
	loc, _ := time.LoadLocation("Asia/Jakarta")
	now := time.Date(2025, time.March, 20, 10, 0, 0, 0, loc)
	owner := &model.User{ID: uuid.New(), WhatsApp: "628123456789"}
	notifier := &fakeNotifier{}
	svc := newTestService(&fakeProductRepo{}, &fakeUserRepo{user: owner}, notifier, now, t)

	created, err := svc.Create(context.Background(), owner.ID, &model.CreateProductRequest{
		Name:           "Yogurt",
		ExpirationDate: "2025-03-24",
		Quantity:       5,
	})
	require.NoError(t, err)

	assert.Equal(t, model.ProductStatusWarning, created.Status)
	assert.Equal(t, []model.NotificationType{model.NotificationWarningRH}, notifier.dispatched)
}

func TestCreateRejectsBadInput(t *testing.T) {
	owner := &model.User{ID: uuid.New()}
	svc := newTestService(&fakeProductRepo{}, &fakeUserRepo{user: owner}, &fakeNotifier{}, time.Now(), t)

	_, err := svc.Create(context.Background(), owner.ID, &model.CreateProductRequest{
		Name:           "X",
		ExpirationDate: "24-03-2025",
		Quantity:       1,
	})
	assert.Error(t, err, "wrong date layout")

	negative := -1
	_, err = svc.Create(context.Background(), owner.ID, &model.CreateProductRequest{
		Name:           "X",
		ExpirationDate: "2025-03-24",
		Quantity:       1,
		RHDaysBefore:   &negative,
	})
	assert.Error(t, err, "negative lead days")
}

func TestUpdateRederivesDatesAndStatus(t *testing.T) {
	loc, _ := time.LoadLocation("Asia/Jakarta")
	now := time.Date(2025, time.March, 12, 10, 0, 0, 0, loc)
	owner := &model.User{ID: uuid.New(), WhatsApp: "628123456789"}
	repo := &fakeProductRepo{}
	notifier := &fakeNotifier{}
	svc := newTestService(repo, &fakeUserRepo{user: owner}, notifier, now, t)

	created, err := svc.Create(context.Background(), owner.ID, &model.CreateProductRequest{
		Name:           "Keju",
		ExpirationDate: "2025-04-30",
		Quantity:       4,
	})
	require.NoError(t, err)
	require.Equal(t, model.ProductStatusSafe, created.Status)

	// Pull the expiration into warning territory.
	newExp := "2025-03-24"
	updated, err := svc.Update(context.Background(), created.ID, owner.ID, &model.UpdateProductRequest{
		ExpirationDate: &newExp,
	})
	require.NoError(t, err)

	assert.Equal(t, time.Date(2025, time.March, 10, 0, 0, 0, 0, loc), updated.RHDate)
	assert.Equal(t, model.ProductStatusWarning, updated.Status)
	assert.Contains(t, notifier.dispatched, model.NotificationWarningRH)
}

func TestUpdateWithoutDatesKeepsStatus(t *testing.T) {
	loc, _ := time.LoadLocation("Asia/Jakarta")
	now := time.Date(2025, time.March, 1, 10, 0, 0, 0, loc)
	owner := &model.User{ID: uuid.New(), WhatsApp: "628123456789"}
	repo := &fakeProductRepo{}
	svc := newTestService(repo, &fakeUserRepo{user: owner}, &fakeNotifier{}, now, t)

	created, err := svc.Create(context.Background(), owner.ID, &model.CreateProductRequest{
		Name:           "Mentega",
		ExpirationDate: "2025-03-24",
		Quantity:       2,
	})
	require.NoError(t, err)

	qty := 9
	updated, err := svc.Update(context.Background(), created.ID, owner.ID, &model.UpdateProductRequest{Quantity: &qty})
	require.NoError(t, err)

	assert.Equal(t, 9, updated.Quantity)
	assert.Equal(t, created.RHDate, updated.RHDate)
	assert.Equal(t, created.Status, updated.Status)
}

func TestStatisticsAggregation(t *testing.T) {
	loc, _ := time.LoadLocation("Asia/Jakarta")
	now := time.Date(2025, time.March, 12, 10, 0, 0, 0, loc)
	owner := &model.User{ID: uuid.New(), WhatsApp: "628123456789"}
	repo := &fakeProductRepo{}
	svc := newTestService(repo, &fakeUserRepo{user: owner}, &fakeNotifier{}, now, t)

	add := func(name, exp string, qty int) {
		_, err := svc.Create(context.Background(), owner.ID, &model.CreateProductRequest{
			Name: name, ExpirationDate: exp, Quantity: qty,
		})
		require.NoError(t, err)
	}
	add("Aman", "2025-05-01", 10)    // safe
	add("Warning", "2025-03-20", 5)  // rh date 06-03, warning
	add("Expired", "2025-03-10", 2)  // expired

	stats, err := svc.Statistics(context.Background(), owner.ID)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Summary.TotalProducts)
	assert.Equal(t, 17, stats.Summary.TotalQuantity)
	assert.Equal(t, 1, stats.Summary.Safe.Count)
	assert.Equal(t, 1, stats.Summary.Warning.Count)
	assert.Equal(t, 1, stats.Summary.Expired.Count)
	assert.Equal(t, 33, stats.Summary.Warning.Percentage)
	require.Len(t, stats.UpcomingRH, 1)
	assert.Equal(t, "Warning", stats.UpcomingRH[0].Name)
	require.Len(t, stats.ExpiredList, 1)
	assert.Equal(t, "Expired", stats.ExpiredList[0].Name)
}
