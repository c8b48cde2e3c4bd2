package audit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"herald/internal/event"
	"herald/pkg/sentinel"
)

// Recorder consumes the event stream alongside the notification dispatcher
// and appends one audit record per logical event. Unlike the dispatcher it
// re-raises genuine persistence failures: redelivery by the transport is the
// correct recovery path for a consumer whose only job is durable recording.
type Recorder struct {
	store  Store
	logger *slog.Logger
	clock  func() time.Time
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Recorder) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithClock overrides the time source for testability.
func WithClock(clock func() time.Time) Option {
	return func(r *Recorder) {
		if clock != nil {
			r.clock = clock
		}
	}
}

// NewRecorder constructs a Recorder over the given store.
func NewRecorder(store Store, opts ...Option) (*Recorder, error) {
	if store == nil {
		return nil, fmt.Errorf("audit store is required")
	}
	r := &Recorder{
		store:  store,
		logger: slog.Default(),
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Handle persists an audit record for the event. A duplicate event is logged
// and dropped; any other failure propagates so the delivery layer redelivers.
func (r *Recorder) Handle(ctx context.Context, e event.Event) error {
	record := &Record{
		EventID:   e.EventID,
		UserID:    e.UserID,
		Type:      e.Type,
		Payload:   e.Payload,
		CreatedAt: r.eventTime(e),
	}

	if err := r.store.Create(ctx, record); err != nil {
		if errors.Is(err, sentinel.ErrDuplicateKey) {
			r.logger.Warn("duplicate audit event ignored", "event_id", e.EventID)
			return nil
		}
		r.logger.Error("failed to save audit record", "event_id", e.EventID, "error", err)
		return fmt.Errorf("audit event %s: %w", e.EventID, err)
	}

	r.logger.Debug("audit record saved", "event_id", e.EventID)
	return nil
}

// eventTime parses the event's createdAt, defaulting to now when absent or
// unparsable.
func (r *Recorder) eventTime(e event.Event) time.Time {
	if e.CreatedAt != "" {
		if ts, err := time.Parse(time.RFC3339, e.CreatedAt); err == nil {
			return ts
		}
		r.logger.Warn("unparsable event createdAt, using ingest time",
			"event_id", e.EventID, "created_at", e.CreatedAt)
	}
	return r.clock()
}
