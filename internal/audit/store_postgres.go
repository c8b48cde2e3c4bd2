package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"herald/pkg/sentinel"
)

const uniqueViolation = "23505"

// PostgresStore persists audit records in PostgreSQL. Inserts only; the
// unique index on event_id makes replays a reported no-op.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed audit store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, record *Record) error {
	if record == nil {
		return fmt.Errorf("audit record is required")
	}
	id := record.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	query := `
		INSERT INTO audit_logs (id, event_id, user_id, type, payload, created_at, ingested_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
	`
	_, err := s.db.ExecContext(ctx, query,
		id,
		record.EventID,
		record.UserID,
		record.Type,
		nullJSON(record.Payload),
		record.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("create audit %s: %w", record.EventID, sentinel.ErrDuplicateKey)
		}
		return fmt.Errorf("create audit %s: %w", record.EventID, err)
	}
	return nil
}

func nullJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}
