package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"herald/internal/notify/models"
	"herald/pkg/sentinel"
)

// uniqueViolation is the Postgres error code for a unique constraint hit.
const uniqueViolation = "23505"

// PostgresStore persists notification records in PostgreSQL. The unique
// index on event_id is the authoritative at-most-once gate for the whole
// pipeline, so Create deliberately avoids ON CONFLICT: the dispatcher needs
// to observe the duplicate, not have it silently absorbed.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed notification store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, record *models.NotificationRecord) error {
	if record == nil {
		return fmt.Errorf("notification record is required")
	}
	id := record.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	query := `
		INSERT INTO notifications (id, event_id, user_id, type, payload, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
	`
	_, err := s.db.ExecContext(ctx, query,
		id,
		record.EventID,
		record.UserID,
		record.Type,
		nullJSON(record.Payload),
		string(record.Status),
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("create notification %s: %w", record.EventID, sentinel.ErrDuplicateKey)
		}
		return fmt.Errorf("create notification %s: %w", record.EventID, err)
	}
	return nil
}

func (s *PostgresStore) UpdateStatusByEventID(ctx context.Context, eventID string, status models.Status) error {
	// The status predicate keeps terminal records immutable without a
	// read-modify-write round trip.
	query := `
		UPDATE notifications
		SET status = $2
		WHERE event_id = $1 AND status = 'pending'
	`
	res, err := s.db.ExecContext(ctx, query, eventID, string(status))
	if err != nil {
		return fmt.Errorf("update notification %s: %w", eventID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update notification %s: %w", eventID, err)
	}
	if affected == 0 {
		if _, findErr := s.FindByEventID(ctx, eventID); findErr != nil {
			return findErr
		}
		return fmt.Errorf("update notification %s: record already terminal", eventID)
	}
	return nil
}

func (s *PostgresStore) FindByEventID(ctx context.Context, eventID string) (*models.NotificationRecord, error) {
	query := `
		SELECT id, event_id, user_id, type, payload, status, created_at
		FROM notifications
		WHERE event_id = $1
	`
	var (
		record  models.NotificationRecord
		payload []byte
		status  string
	)
	err := s.db.QueryRowContext(ctx, query, eventID).Scan(
		&record.ID,
		&record.EventID,
		&record.UserID,
		&record.Type,
		&payload,
		&status,
		&record.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find notification %s: %w", eventID, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find notification %s: %w", eventID, err)
	}
	record.Payload = payload
	record.Status = models.Status(status)
	return &record, nil
}

func (s *PostgresStore) List(ctx context.Context, filter ListFilter) ([]*models.NotificationRecord, error) {
	query := `
		SELECT id, event_id, user_id, type, payload, status, created_at
		FROM notifications
	`
	var (
		conds []string
		args  []any
	)
	if filter.UserID != "" {
		args = append(args, filter.UserID)
		conds = append(conds, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var records []*models.NotificationRecord
	for rows.Next() {
		var (
			record  models.NotificationRecord
			payload []byte
			status  string
		)
		if err := rows.Scan(
			&record.ID,
			&record.EventID,
			&record.UserID,
			&record.Type,
			&payload,
			&status,
			&record.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("list notifications: %w", err)
		}
		record.Payload = payload
		record.Status = models.Status(status)
		records = append(records, &record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return records, nil
}

func nullJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}
