package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmaulana/rh-tracker-api/internal/model"
	"github.com/rmaulana/rh-tracker-api/internal/repository"
	"github.com/rmaulana/rh-tracker-api/internal/rh"
	"github.com/rmaulana/rh-tracker-api/internal/whatsapp"
	"github.com/rmaulana/rh-tracker-api/pkg/logger"
	"github.com/rmaulana/rh-tracker-api/pkg/metrics"
)

// promauto registers into the default registry, so the package shares one
// metrics instance across tests.
var testMetrics = metrics.New("test_notification")

type fakeNotificationRepo struct {
	logs      []*model.NotificationLog
	insertErr error
	findErr   error
}

func (f *fakeNotificationRepo) FindSince(_ context.Context, productID uuid.UUID, typ model.NotificationType, since time.Time) (*model.NotificationLog, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	for _, l := range f.logs {
		if l.ProductID == productID && l.Type == typ && !l.SentAt.Before(since) {
			return l, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeNotificationRepo) Insert(_ context.Context, log *model.NotificationLog) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	for _, l := range f.logs {
		if l.ProductID == log.ProductID && l.Type == log.Type && l.SentOn.Equal(log.SentOn) {
			return repository.ErrDuplicateNotification
		}
	}
	log.ID = uuid.New()
	f.logs = append(f.logs, log)
	return nil
}

func (f *fakeNotificationRepo) CountSentSince(_ context.Context, since time.Time) (int, error) {
	n := 0
	for _, l := range f.logs {
		if !l.SentAt.Before(since) {
			n++
		}
	}
	return n, nil
}

type fakeProductRepo struct {
	repository.ProductRepository
	product *model.Product
}

func (f *fakeProductRepo) GetForUser(_ context.Context, id, _ uuid.UUID) (*model.Product, error) {
	if f.product == nil || f.product.ID != id {
		return nil, repository.ErrNotFound
	}
	return f.product, nil
}

type fakeUserRepo struct {
	repository.UserRepository
	users []*model.User
}

func (f *fakeUserRepo) ListByRoles(_ context.Context, _ ...model.UserRole) ([]*model.User, error) {
	return f.users, nil
}

type fakeSender struct {
	sent    []string
	result  *whatsapp.SendResult
	sendErr error
}

func (f *fakeSender) Send(_ context.Context, phoneNumber, _ string) (*whatsapp.SendResult, error) {
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.sent = append(f.sent, phoneNumber)
	if f.result != nil {
		return f.result, nil
	}
	return &whatsapp.SendResult{Success: true, MessageID: "msg-1"}, nil
}

func testCalendar(t *testing.T) rh.Calendar {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Jakarta")
	require.NoError(t, err)
	return rh.NewCalendar(loc)
}

func testProduct() *model.Product {
	exp := time.Date(2025, time.March, 24, 0, 0, 0, 0, time.UTC)
	return &model.Product{
		ID:             uuid.New(),
		Name:           "Susu UHT 1L",
		Quantity:       12,
		ExpirationDate: exp,
		RHDaysBefore:   14,
		RHDate:         exp.AddDate(0, 0, -14),
		Status:         model.ProductStatusWarning,
		UserID:         uuid.New(),
	}
}

func newTestService(repo *fakeNotificationRepo, sender *fakeSender, now time.Time, t *testing.T) *service {
	svc := NewService(
		repo,
		&fakeProductRepo{},
		&fakeUserRepo{},
		sender,
		nil,
		testCalendar(t),
		logger.NewLogger(nil),
		testMetrics,
	).(*service)
	svc.now = func() time.Time { return now }
	return svc
}

func TestDispatchSuccessRecordsLog(t *testing.T) {
	repo := &fakeNotificationRepo{}
	sender := &fakeSender{}
	now := time.Date(2025, time.March, 12, 9, 0, 0, 0, time.UTC)
	svc := newTestService(repo, sender, now, t)
	product := testProduct()

	res := svc.Dispatch(context.Background(), product, "628123456789", product.UserID, model.NotificationWarningRH)

	assert.True(t, res.Sent)
	assert.True(t, res.Logged)
	assert.Empty(t, res.Error)
	require.Len(t, repo.logs, 1)
	assert.Equal(t, product.ID, repo.logs[0].ProductID)
	assert.Equal(t, model.NotificationWarningRH, repo.logs[0].Type)
	assert.Contains(t, repo.logs[0].Message, "WAJIB RETUR")
	assert.Contains(t, repo.logs[0].Message, "H-14")
}

func TestDispatchFailureLeavesNoRecord(t *testing.T) {
	repo := &fakeNotificationRepo{}
	sender := &fakeSender{sendErr: errors.New("connection refused")}
	now := time.Date(2025, time.March, 12, 9, 0, 0, 0, time.UTC)
	svc := newTestService(repo, sender, now, t)
	product := testProduct()

	res := svc.Dispatch(context.Background(), product, "628123456789", product.UserID, model.NotificationWarningRH)

	assert.False(t, res.Sent)
	assert.Contains(t, res.Error, "connection refused")
	assert.Empty(t, repo.logs, "a failed send must not be recorded")
}

func TestDispatchAPIRefusalLeavesNoRecord(t *testing.T) {
	repo := &fakeNotificationRepo{}
	sender := &fakeSender{result: &whatsapp.SendResult{Success: false, Error: "invalid recipient"}}
	now := time.Date(2025, time.March, 12, 9, 0, 0, 0, time.UTC)
	svc := newTestService(repo, sender, now, t)

	res := svc.Dispatch(context.Background(), testProduct(), "628123456789", uuid.New(), model.NotificationWarningRH)

	assert.False(t, res.Sent)
	assert.Equal(t, "invalid recipient", res.Error)
	assert.Empty(t, repo.logs)
}

func TestDispatchDuplicateSlotIsSentButNotLogged(t *testing.T) {
	now := time.Date(2025, time.March, 12, 9, 0, 0, 0, time.UTC)
	product := testProduct()
	cal := testCalendar(t)
	repo := &fakeNotificationRepo{logs: []*model.NotificationLog{{
		ProductID: product.ID,
		Type:      model.NotificationWarningRH,
		SentAt:    now.Add(-time.Hour),
		SentOn:    cal.StartOfDay(now),
	}}}
	svc := newTestService(repo, &fakeSender{}, now, t)

	res := svc.Dispatch(context.Background(), product, "628123456789", product.UserID, model.NotificationWarningRH)

	assert.True(t, res.Sent)
	assert.False(t, res.Logged, "losing the day's unique slot must not count as logged")
	assert.Len(t, repo.logs, 1)
}

func TestIsDue(t *testing.T) {
	now := time.Date(2025, time.March, 12, 9, 0, 0, 0, time.UTC)
	product := testProduct()
	cal := testCalendar(t)

	t.Run("no log yet", func(t *testing.T) {
		svc := newTestService(&fakeNotificationRepo{}, &fakeSender{}, now, t)
		due, err := svc.IsDue(context.Background(), product.ID, model.NotificationWarningRH, now)
		require.NoError(t, err)
		assert.True(t, due)
	})

	t.Run("already sent today", func(t *testing.T) {
		repo := &fakeNotificationRepo{logs: []*model.NotificationLog{{
			ProductID: product.ID,
			Type:      model.NotificationWarningRH,
			SentAt:    now.Add(-2 * time.Hour),
			SentOn:    cal.StartOfDay(now),
		}}}
		svc := newTestService(repo, &fakeSender{}, now, t)
		due, err := svc.IsDue(context.Background(), product.ID, model.NotificationWarningRH, now)
		require.NoError(t, err)
		assert.False(t, due)
	})

	t.Run("sent yesterday is due again", func(t *testing.T) {
		yesterday := now.AddDate(0, 0, -1)
		repo := &fakeNotificationRepo{logs: []*model.NotificationLog{{
			ProductID: product.ID,
			Type:      model.NotificationWarningRH,
			SentAt:    yesterday,
			SentOn:    cal.StartOfDay(yesterday),
		}}}
		svc := newTestService(repo, &fakeSender{}, now, t)
		due, err := svc.IsDue(context.Background(), product.ID, model.NotificationWarningRH, now)
		require.NoError(t, err)
		assert.True(t, due)
	})

	t.Run("other type is independent", func(t *testing.T) {
		repo := &fakeNotificationRepo{logs: []*model.NotificationLog{{
			ProductID: product.ID,
			Type:      model.NotificationWarningRH,
			SentAt:    now.Add(-time.Hour),
			SentOn:    cal.StartOfDay(now),
		}}}
		svc := newTestService(repo, &fakeSender{}, now, t)
		due, err := svc.IsDue(context.Background(), product.ID, model.NotificationExpiredRH, now)
		require.NoError(t, err)
		assert.True(t, due)
	})
}

func TestSendManualReachesAllStaffWithoutDedupPreCheck(t *testing.T) {
	now := time.Date(2025, time.March, 12, 9, 0, 0, 0, time.UTC)
	product := testProduct()
	cal := testCalendar(t)

	// Today's slot is already taken, a manual send still goes out.
	repo := &fakeNotificationRepo{logs: []*model.NotificationLog{{
		ProductID: product.ID,
		Type:      model.NotificationWarningRH,
		SentAt:    now.Add(-time.Hour),
		SentOn:    cal.StartOfDay(now),
	}}}
	sender := &fakeSender{}
	svc := newTestService(repo, sender, now, t)
	svc.productRepo = &fakeProductRepo{product: product}
	svc.userRepo = &fakeUserRepo{users: []*model.User{
		{ID: uuid.New(), Username: "admin", WhatsApp: "628111111111", Role: model.UserRoleAdmin},
		{ID: uuid.New(), Username: "kasir", WhatsApp: "628222222222", Role: model.UserRoleStaff},
	}}

	report, err := svc.SendManual(context.Background(), product.UserID, product.ID, model.NotificationWarningRH)

	require.NoError(t, err)
	assert.Equal(t, 2, report.SentCount)
	assert.Empty(t, report.Errors)
	assert.Equal(t, []string{"628111111111", "628222222222"}, sender.sent)
}

func TestSendManualCollectsPerUserErrors(t *testing.T) {
	now := time.Date(2025, time.March, 12, 9, 0, 0, 0, time.UTC)
	product := testProduct()
	sender := &fakeSender{sendErr: errors.New("timeout")}
	svc := newTestService(&fakeNotificationRepo{}, sender, now, t)
	svc.productRepo = &fakeProductRepo{product: product}
	svc.userRepo = &fakeUserRepo{users: []*model.User{
		{ID: uuid.New(), Username: "admin", WhatsApp: "628111111111", Role: model.UserRoleAdmin},
	}}

	report, err := svc.SendManual(context.Background(), product.UserID, product.ID, model.NotificationWarningRH)

	require.NoError(t, err)
	assert.Zero(t, report.SentCount)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "gagal mengirim ke admin")
	assert.Contains(t, report.Errors[0], "timeout")
}

func TestSendManualUnknownProduct(t *testing.T) {
	now := time.Date(2025, time.March, 12, 9, 0, 0, 0, time.UTC)
	svc := newTestService(&fakeNotificationRepo{}, &fakeSender{}, now, t)
	svc.productRepo = &fakeProductRepo{}

	_, err := svc.SendManual(context.Background(), uuid.New(), uuid.New(), model.NotificationWarningRH)
	assert.Error(t, err)
}

func TestComposeMessageExpired(t *testing.T) {
	now := time.Date(2025, time.March, 25, 9, 0, 0, 0, time.UTC)
	svc := newTestService(&fakeNotificationRepo{}, &fakeSender{}, now, t)
	product := testProduct()

	msg := svc.composeMessage(model.NotificationExpiredRH, product)
	assert.Contains(t, msg, "PERINGATAN RH")
	assert.Contains(t, msg, "JATUH RH (KADALUARSA)")
	assert.Contains(t, msg, "24-03-2025")
	assert.Contains(t, msg, product.Name)
}
