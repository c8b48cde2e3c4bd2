package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq" // database/sql driver

	"herald/internal/platform/config"
)

// schema is the DDL for the record stores. The unique indexes on event_id
// carry the pipeline's at-most-once guarantee; everything else is plumbing.
const schema = `
CREATE TABLE IF NOT EXISTS notifications (
	id         uuid PRIMARY KEY,
	event_id   text NOT NULL,
	user_id    text NOT NULL,
	type       text NOT NULL,
	payload    jsonb,
	status     text NOT NULL,
	created_at timestamptz NOT NULL DEFAULT now()
);
CREATE UNIQUE INDEX IF NOT EXISTS notifications_event_id_key ON notifications (event_id);
CREATE INDEX IF NOT EXISTS notifications_user_id_idx ON notifications (user_id);

CREATE TABLE IF NOT EXISTS audit_logs (
	id          uuid PRIMARY KEY,
	event_id    text NOT NULL,
	user_id     text NOT NULL,
	type        text NOT NULL,
	payload     jsonb,
	created_at  timestamptz NOT NULL,
	ingested_at timestamptz NOT NULL DEFAULT now()
);
CREATE UNIQUE INDEX IF NOT EXISTS audit_logs_event_id_key ON audit_logs (event_id);
CREATE INDEX IF NOT EXISTS audit_logs_user_id_idx ON audit_logs (user_id);
`

// Open connects to PostgreSQL and verifies connectivity. Returns nil if the
// DSN is empty (Postgres not configured).
func Open(ctx context.Context, cfg config.PostgresConfig) (*sql.DB, error) {
	if cfg.DSN == "" {
		return nil, nil
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}
	return db, nil
}

// Migrate applies the embedded schema. Idempotent; safe to run at every
// startup.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
