package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event is a user-triggered occurrence flowing through the pipeline. The
// EventID is the sole idempotency key: two events carrying the same EventID
// are the same logical event regardless of every other field.
type Event struct {
	EventID   string          `json:"eventId"`
	UserID    string          `json:"userId"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt string          `json:"createdAt,omitempty"` // RFC 3339
}

// Normalize fills the ingress-defaulted fields so downstream consumers can
// rely on them being present. It does not touch caller-supplied values.
func (e *Event) Normalize(now time.Time) {
	if e.EventID == "" {
		e.EventID = uuid.NewString()
	}
	if e.CreatedAt == "" {
		e.CreatedAt = now.UTC().Format(time.RFC3339)
	}
}

// Validate reports whether the event carries the fields the pipeline needs.
// Consumers tolerate malformed events (they drop them); the producer rejects
// them up front.
func (e Event) Validate() error {
	if e.UserID == "" {
		return fmt.Errorf("event %q: userId is required", e.EventID)
	}
	if e.Type == "" {
		return fmt.Errorf("event %q: type is required", e.EventID)
	}
	return nil
}

// Marshal encodes the event for the wire (Kafka records, dead letters).
func Marshal(e Event) ([]byte, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event %s: %w", e.EventID, err)
	}
	return b, nil
}

// Unmarshal decodes a wire representation back into an Event.
func Unmarshal(data []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return Event{}, fmt.Errorf("unmarshal event: %w", err)
	}
	return e, nil
}
