package postgres

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/rmaulana/rh-tracker-api/internal/config"
)

func NewDB(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Name,
		cfg.SSLMode,
	)

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// Migrate creates the schema if it does not exist. The unique index on
// (product_id, type, sent_on) makes the daily dedup check-then-insert
// atomic: overlapping sweeps race to the insert and exactly one wins.
func Migrate(db *sqlx.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		whatsapp TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'staff',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE TABLE IF NOT EXISTS products (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		quantity INTEGER NOT NULL CHECK (quantity > 0),
		expiration_date DATE NOT NULL,
		rh_days_before INTEGER NOT NULL DEFAULT 14,
		rh_date DATE NOT NULL,
		status TEXT NOT NULL DEFAULT 'safe',
		user_id UUID NOT NULL REFERENCES users(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE INDEX IF NOT EXISTS products_user_status_idx ON products (user_id, status);

	CREATE TABLE IF NOT EXISTS notification_logs (
		id UUID PRIMARY KEY,
		product_id UUID NOT NULL REFERENCES products(id) ON DELETE CASCADE,
		type TEXT NOT NULL,
		sent_at TIMESTAMPTZ NOT NULL,
		sent_on DATE NOT NULL,
		whatsapp_number TEXT NOT NULL,
		message TEXT NOT NULL,
		user_id UUID NOT NULL REFERENCES users(id)
	);
	CREATE UNIQUE INDEX IF NOT EXISTS notification_logs_daily_key
		ON notification_logs (product_id, type, sent_on);
	`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
