// Package dlq records events the dispatcher could not complete, tagged with
// a reason code, for offline inspection and replay. The sink is best-effort
// observability, not a correctness mechanism: its own failures are swallowed.
package dlq

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"herald/internal/event"
)

// deadLetters counts events routed to the sink, by reason.
var deadLetters = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "herald_dead_letters_total",
	Help: "Events routed to the dead-letter sink, by reason",
}, []string{"reason"})

// Reason classifies why an event was dead-lettered.
type Reason string

const (
	// ReasonPersistFailed marks events whose pending record could not be
	// durably created.
	ReasonPersistFailed Reason = "persist_failed"
	// ReasonRealtimeSendFailed marks events whose realtime push failed after
	// the record was persisted.
	ReasonRealtimeSendFailed Reason = "realtime_send_failed"
)

// Sink accepts dead letters. Send never returns an error and must not block
// the caller beyond a bounded enqueue.
type Sink interface {
	Send(ctx context.Context, e event.Event, reason Reason)
}
