package idempotency

import (
	"context"
	"fmt"
	"time"
)

const (
	rateKeyPrefix = "notify:rate:"

	// DefaultRateLimit and DefaultRateWindow cap notifications per user at
	// five per rolling minute.
	DefaultRateLimit  = 5
	DefaultRateWindow = 60 * time.Second
)

// Limiter enforces a per-user rolling window over the shared store: INCR the
// user's counter, attach the window TTL on the first hit, throttle past the
// limit. State lives entirely in the store so the count is correct across
// concurrent dispatcher instances.
type Limiter struct {
	store  Store
	limit  int64
	window time.Duration
}

// NewLimiter builds a limiter. Non-positive limit or window fall back to the
// defaults.
func NewLimiter(store Store, limit int64, window time.Duration) *Limiter {
	if limit <= 0 {
		limit = DefaultRateLimit
	}
	if window <= 0 {
		window = DefaultRateWindow
	}
	return &Limiter{store: store, limit: limit, window: window}
}

// Allow consumes one slot from userID's window and reports whether the user
// is still under the limit. Store failures surface as errors; the caller
// decides whether to fail open.
func (l *Limiter) Allow(ctx context.Context, userID string) (bool, error) {
	key := rateKeyPrefix + userID

	count, err := l.store.Increment(ctx, key)
	if err != nil {
		return false, fmt.Errorf("rate increment: %w", err)
	}
	if count == 1 {
		if err := l.store.Expire(ctx, key, l.window); err != nil {
			return false, fmt.Errorf("rate window: %w", err)
		}
	}
	return count <= l.limit, nil
}
