// Package idempotency provides the shared key-value discipline the pipeline
// leans on for dedup markers and rate counters. The store is advisory by
// design: callers treat failures as "check passed" and rely on the record
// stores' unique constraints for the authoritative guarantee.
package idempotency

import (
	"context"
	"time"
)

// Store is a key-value store with per-key TTL and atomic increments.
// Increment must be atomic across concurrent callers; the rate limiter
// depends on it.
type Store interface {
	// Get returns the value for key, or sentinel.ErrNotFound if absent.
	Get(ctx context.Context, key string) (string, error)

	// SetWithTTL stores value under key, expiring after ttl.
	SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error

	// Increment atomically adds one to the integer at key (creating it at
	// zero first) and returns the post-increment value.
	Increment(ctx context.Context, key string) (int64, error)

	// Expire attaches a TTL to an existing key.
	Expire(ctx context.Context, key string, ttl time.Duration) error
}
