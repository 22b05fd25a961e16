package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/rmaulana/rh-tracker-api/internal/model"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("record not found")

// ErrDuplicateNotification is returned by NotificationRepository.Insert when
// a log row for the same (product, type, day) already exists. Callers treat
// it as "already notified today", not as a failure.
var ErrDuplicateNotification = errors.New("notification already logged for this day")

type (
	ProductRepository interface {
		Create(ctx context.Context, product *model.Product) error
		Get(ctx context.Context, id uuid.UUID) (*model.Product, error)
		GetForUser(ctx context.Context, id, userID uuid.UUID) (*model.Product, error)
		Update(ctx context.Context, product *model.Product) error
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.ProductStatus) error
		Delete(ctx context.Context, id, userID uuid.UUID) error
		List(ctx context.Context, filters *model.ProductFilters) ([]*model.Product, int64, error)
		ListByUser(ctx context.Context, userID uuid.UUID) ([]*model.Product, error)
		ListForSweep(ctx context.Context) ([]*model.ProductWithOwner, error)
		ListForSweepByOwner(ctx context.Context, ownerID uuid.UUID) ([]*model.ProductWithOwner, error)
		CountByStatus(ctx context.Context, status model.ProductStatus) (int, error)
	}

	NotificationRepository interface {
		// FindSince returns the first log row for (productID, type) sent at or
		// after since, or ErrNotFound. This pre-read is advisory; the unique
		// index enforced by Insert is what makes dedup correct under
		// concurrent sweeps.
		FindSince(ctx context.Context, productID uuid.UUID, typ model.NotificationType, since time.Time) (*model.NotificationLog, error)
		Insert(ctx context.Context, log *model.NotificationLog) error
		CountSentSince(ctx context.Context, since time.Time) (int, error)
	}

	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByUsername(ctx context.Context, username string) (*model.User, error)
		ListByRoles(ctx context.Context, roles ...model.UserRole) ([]*model.User, error)
	}
)
