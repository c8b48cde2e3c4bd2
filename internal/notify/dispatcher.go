// Package notify contains the notification dispatch pipeline: the consumer
// that turns an at-least-once delivered event into a deduplicated,
// rate-limited, durably tracked realtime push, with explicit dead-lettering
// on terminal failure.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"herald/internal/dlq"
	"herald/internal/event"
	"herald/internal/fanout"
	"herald/internal/idempotency"
	"herald/internal/notify/metrics"
	"herald/internal/notify/models"
	"herald/internal/notify/store"
	"herald/pkg/sentinel"
)

// PushEventName is the event name delivered to realtime subscribers.
const PushEventName = "notification"

// pushPayload is what the user's realtime channel receives.
type pushPayload struct {
	EventID   string          `json:"eventId"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt string          `json:"createdAt"`
}

// Dispatcher orchestrates one event delivery end to end: advisory dedup,
// per-user rate limit, authoritative persistence, realtime fanout, terminal
// status. It never returns an error to its caller; expected failures are
// logged and dead-lettered, and the durable transport's redelivery plus the
// store's unique constraint make retries safe.
type Dispatcher struct {
	store   store.NotificationStore
	deduper *idempotency.Deduper
	limiter *idempotency.Limiter
	fanout  fanout.Fanout
	sink    dlq.Sink
	logger  *slog.Logger
	clock   func() time.Time

	dedupTTL   time.Duration
	rateLimit  int64
	rateWindow time.Duration
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithClock overrides the time source for testability.
func WithClock(clock func() time.Time) Option {
	return func(d *Dispatcher) {
		if clock != nil {
			d.clock = clock
		}
	}
}

// WithDedupTTL overrides how long processed-event markers live.
func WithDedupTTL(ttl time.Duration) Option {
	return func(d *Dispatcher) {
		if ttl > 0 {
			d.dedupTTL = ttl
		}
	}
}

// WithRateLimit overrides the per-user notification cap.
func WithRateLimit(limit int64, window time.Duration) Option {
	return func(d *Dispatcher) {
		if limit > 0 {
			d.rateLimit = limit
		}
		if window > 0 {
			d.rateWindow = window
		}
	}
}

// NewDispatcher wires the pipeline. All four collaborators are required; the
// dedup and rate-limit tiers share the one idempotency store.
func NewDispatcher(
	notifications store.NotificationStore,
	idem idempotency.Store,
	push fanout.Fanout,
	sink dlq.Sink,
	opts ...Option,
) (*Dispatcher, error) {
	if notifications == nil {
		return nil, fmt.Errorf("notification store is required")
	}
	if idem == nil {
		return nil, fmt.Errorf("idempotency store is required")
	}
	if push == nil {
		return nil, fmt.Errorf("fanout is required")
	}
	if sink == nil {
		return nil, fmt.Errorf("dead-letter sink is required")
	}

	d := &Dispatcher{
		store:      notifications,
		fanout:     push,
		sink:       sink,
		logger:     slog.Default(),
		clock:      time.Now,
		dedupTTL:   idempotency.DefaultDedupTTL,
		rateLimit:  idempotency.DefaultRateLimit,
		rateWindow: idempotency.DefaultRateWindow,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.deduper = idempotency.NewDeduper(idem, d.dedupTTL)
	d.limiter = idempotency.NewLimiter(idem, d.rateLimit, d.rateWindow)
	return d, nil
}

// Handle processes one delivered event. It is safe to invoke concurrently
// for the same or different events: exclusivity is delegated entirely to the
// idempotency store's atomic operations and the record store's unique
// constraint, never to in-process locks.
func (d *Dispatcher) Handle(ctx context.Context, e event.Event) error {
	// Malformed events are dropped, not retried: redelivery cannot grow the
	// missing fields back.
	if e.EventID == "" || e.UserID == "" {
		d.logger.Warn("dropping event with missing eventId or userId",
			"event_id", e.EventID, "user_id", e.UserID, "type", e.Type)
		metrics.DispatchTotal.WithLabelValues("dropped").Inc()
		return nil
	}

	// Advisory dedup tier. A hit is trusted; a store failure is not a
	// verdict, so processing continues and the unique constraint below
	// remains the authority.
	seen, err := d.deduper.Seen(ctx, e.EventID)
	if err != nil {
		d.logger.Error("dedup check failed, continuing", "event_id", e.EventID, "error", err)
		metrics.AdvisoryFailures.WithLabelValues("dedup").Inc()
	} else if seen {
		d.logger.Debug("duplicate event skipped", "event_id", e.EventID)
		metrics.DedupHits.Inc()
		metrics.DispatchTotal.WithLabelValues("duplicate").Inc()
		return nil
	}

	// Rate limit tier, same open-fail posture: an unreachable counter never
	// blocks delivery.
	allowed, err := d.limiter.Allow(ctx, e.UserID)
	if err != nil {
		d.logger.Error("rate limit check failed, continuing", "user_id", e.UserID, "error", err)
		metrics.AdvisoryFailures.WithLabelValues("rate_limit").Inc()
		allowed = true
	}
	if !allowed {
		d.recordThrottled(ctx, e)
		metrics.DispatchTotal.WithLabelValues("throttled").Inc()
		return nil
	}

	// Authoritative at-most-once gate: exactly one concurrent delivery of an
	// eventId gets past this insert.
	record := &models.NotificationRecord{
		EventID: e.EventID,
		UserID:  e.UserID,
		Type:    e.Type,
		Payload: e.Payload,
		Status:  models.StatusPending,
	}
	if err := d.store.Create(ctx, record); err != nil {
		if errors.Is(err, sentinel.ErrDuplicateKey) {
			d.logger.Debug("event already persisted by another delivery", "event_id", e.EventID)
			metrics.DispatchTotal.WithLabelValues("duplicate").Inc()
			return nil
		}
		d.logger.Error("failed to persist notification", "event_id", e.EventID, "error", err)
		d.sink.Send(ctx, e, dlq.ReasonPersistFailed)
		metrics.DispatchTotal.WithLabelValues("dead_lettered").Inc()
		return nil
	}

	if err := d.push(ctx, e); err != nil {
		d.logger.Error("realtime fanout failed", "event_id", e.EventID, "user_id", e.UserID, "error", err)
		d.settle(ctx, e.EventID, models.StatusFailed)
		d.sink.Send(ctx, e, dlq.ReasonRealtimeSendFailed)
		metrics.DispatchTotal.WithLabelValues("failed").Inc()
		return nil
	}

	d.settle(ctx, e.EventID, models.StatusSent)
	metrics.DispatchTotal.WithLabelValues("sent").Inc()
	return nil
}

// recordThrottled persists the throttled event straight to failed, skipping
// pending: there will be no fanout attempt to settle later. The write is
// best-effort; a duplicate means a retry of an event we already recorded.
func (d *Dispatcher) recordThrottled(ctx context.Context, e event.Event) {
	d.logger.Warn("rate limit exceeded, recording as failed", "event_id", e.EventID, "user_id", e.UserID)

	record := &models.NotificationRecord{
		EventID: e.EventID,
		UserID:  e.UserID,
		Type:    e.Type,
		Payload: e.Payload,
		Status:  models.StatusFailed,
	}
	if err := d.store.Create(ctx, record); err != nil && !errors.Is(err, sentinel.ErrDuplicateKey) {
		d.logger.Error("failed to persist throttled notification", "event_id", e.EventID, "error", err)
	}
}

func (d *Dispatcher) push(ctx context.Context, e event.Event) error {
	createdAt := e.CreatedAt
	if createdAt == "" {
		createdAt = d.clock().UTC().Format(time.RFC3339)
	}

	start := d.clock()
	err := d.fanout.SendToUser(ctx, e.UserID, PushEventName, pushPayload{
		EventID:   e.EventID,
		Type:      e.Type,
		Payload:   e.Payload,
		CreatedAt: createdAt,
	})
	// Both readings come from the injected clock so the latency observed
	// under a test clock stays coherent.
	elapsed := d.clock().Sub(start)
	metrics.FanoutDurationMs.Observe(float64(elapsed.Microseconds()) / 1000.0)
	return err
}

// settle moves the pending record to its terminal status. Once pending is
// durable the record must reach a terminal state through this branch; a
// failed update is logged but never rolls back the fanout or re-triggers
// delivery.
func (d *Dispatcher) settle(ctx context.Context, eventID string, status models.Status) {
	if err := d.store.UpdateStatusByEventID(ctx, eventID, status); err != nil {
		d.logger.Error("failed to update notification status",
			"event_id", eventID, "status", string(status), "error", err)
	}
}
