// Package store persists notification records. Implementations must enforce
// a unique constraint on EventID and report violations as
// sentinel.ErrDuplicateKey so the dispatcher can tell a duplicate from a
// genuine write failure.
package store

import (
	"context"

	"herald/internal/notify/models"
)

// ListFilter narrows a List query. Zero values mean no constraint; a zero
// Limit falls back to DefaultListLimit.
type ListFilter struct {
	UserID string
	Status models.Status
	Limit  int
}

// DefaultListLimit caps List results when the caller sets no limit.
const DefaultListLimit = 50

// NotificationStore is interface-driven so the dispatcher stays testable
// against the in-memory implementation while production runs on Postgres.
type NotificationStore interface {
	// Create inserts a new record. Returns sentinel.ErrDuplicateKey when a
	// record with the same EventID already exists.
	Create(ctx context.Context, record *models.NotificationRecord) error

	// UpdateStatusByEventID moves the record for eventID to status. Illegal
	// transitions (out of a terminal status) are rejected; a missing record
	// returns sentinel.ErrNotFound.
	UpdateStatusByEventID(ctx context.Context, eventID string, status models.Status) error

	// FindByEventID returns the record for eventID, or sentinel.ErrNotFound.
	FindByEventID(ctx context.Context, eventID string) (*models.NotificationRecord, error)

	// List returns records matching filter, newest first.
	List(ctx context.Context, filter ListFilter) ([]*models.NotificationRecord, error)
}
