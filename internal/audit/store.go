// Package audit durably records every ingested event. The recorder shares
// the pipeline's idempotency discipline (unique event_id) but none of its
// delivery machinery: its only obligation is an append-only trail.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Record is one audit entry. CreatedAt is copied from the event, not store
// time; IngestedAt is store-assigned. Records are never updated or deleted.
type Record struct {
	ID         uuid.UUID
	EventID    string
	UserID     string
	Type       string
	Payload    json.RawMessage
	CreatedAt  time.Time
	IngestedAt time.Time
}

// Store persists audit records, append-only, unique on EventID. Create
// returns sentinel.ErrDuplicateKey on a repeat EventID.
type Store interface {
	Create(ctx context.Context, record *Record) error
}
