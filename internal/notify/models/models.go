// Package models holds the notification domain types shared by the
// dispatcher and its stores.
package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Status is the delivery state of a notification record.
type Status string

const (
	// StatusPending marks a record persisted but not yet pushed.
	StatusPending Status = "pending"
	// StatusSent marks a record whose realtime push succeeded.
	StatusSent Status = "sent"
	// StatusFailed marks a record that was throttled or whose push failed.
	StatusFailed Status = "failed"
)

// IsValid reports whether s is one of the known statuses.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusSent, StatusFailed:
		return true
	}
	return false
}

// IsTerminal reports whether a record in this status may never change again.
func (s Status) IsTerminal() bool {
	return s == StatusSent || s == StatusFailed
}

// CanTransitionTo enforces the record lifecycle: pending may move to either
// terminal status, terminal statuses are final. Creation-time statuses
// (pending for the normal path, failed for throttled events) are checked by
// the store, not here.
func (s Status) CanTransitionTo(next Status) bool {
	if !next.IsValid() || s.IsTerminal() {
		return false
	}
	return s == StatusPending && next.IsTerminal()
}

// NotificationRecord is the durable trace of one dispatched event. EventID
// carries a unique constraint in every store implementation; that constraint
// is the pipeline's authoritative at-most-once gate.
type NotificationRecord struct {
	ID        uuid.UUID
	EventID   string
	UserID    string
	Type      string
	Payload   json.RawMessage
	Status    Status
	CreatedAt time.Time
}
