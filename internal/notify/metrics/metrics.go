package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DispatchTotal counts handled events by terminal outcome:
	// sent, failed, throttled, duplicate, dropped, dead_lettered.
	DispatchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "herald_dispatch_total",
		Help: "Events handled by the notification dispatcher, by outcome",
	}, []string{"outcome"})

	// DedupHits counts events short-circuited by the advisory dedup marker.
	DedupHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "herald_dedup_hits_total",
		Help: "Events skipped because their dedup marker was already set",
	})

	// AdvisoryFailures counts idempotency-store failures absorbed by the
	// open-fail policy, by layer (dedup, rate_limit).
	AdvisoryFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "herald_advisory_failures_total",
		Help: "Idempotency store failures tolerated under the open-fail policy",
	}, []string{"layer"})

	// FanoutDurationMs observes realtime push latency in milliseconds.
	FanoutDurationMs = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "herald_fanout_duration_ms",
		Help:    "Latency of realtime fanout sends in milliseconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100},
	})
)
