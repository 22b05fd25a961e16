package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/rmaulana/rh-tracker-api/internal/model"
	"github.com/rmaulana/rh-tracker-api/internal/repository"
)

const pqUniqueViolation = "23505"

type notificationRepository struct {
	*BaseRepository
}

func NewNotificationRepository(base *BaseRepository) repository.NotificationRepository {
	return &notificationRepository{BaseRepository: base}
}

func (r *notificationRepository) FindSince(ctx context.Context, productID uuid.UUID, typ model.NotificationType, since time.Time) (*model.NotificationLog, error) {
	query := `
		SELECT id, product_id, type, sent_at, sent_on, whatsapp_number, message, user_id
		FROM notification_logs
		WHERE product_id = $1 AND type = $2 AND sent_at >= $3
		ORDER BY sent_at ASC
		LIMIT 1
	`
	var log model.NotificationLog
	err := r.db.GetContext(ctx, &log, query, productID, typ, since)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find notification log: %w", err)
	}
	return &log, nil
}

// Insert appends a log row. The unique index on (product_id, type, sent_on)
// rejects a second row for the same day; that case surfaces as
// ErrDuplicateNotification so callers can treat it as already-notified.
func (r *notificationRepository) Insert(ctx context.Context, log *model.NotificationLog) error {
	query := `
		INSERT INTO notification_logs (
			id, product_id, type, sent_at, sent_on, whatsapp_number, message, user_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	log.ID = uuid.New()

	_, err := r.db.ExecContext(ctx, query,
		log.ID,
		log.ProductID,
		log.Type,
		log.SentAt,
		log.SentOn,
		log.WhatsAppNumber,
		log.Message,
		log.UserID,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return repository.ErrDuplicateNotification
		}
		return fmt.Errorf("failed to insert notification log: %w", err)
	}
	return nil
}

func (r *notificationRepository) CountSentSince(ctx context.Context, since time.Time) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM notification_logs WHERE sent_at >= $1`, since)
	if err != nil {
		return 0, fmt.Errorf("failed to count notification logs: %w", err)
	}
	return count, nil
}
