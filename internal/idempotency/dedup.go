package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"herald/pkg/sentinel"
)

const (
	dedupKeyPrefix = "notify:d:"
	dedupMarker    = "1"

	// DefaultDedupTTL keeps markers around long enough to cover transport
	// redelivery windows.
	DefaultDedupTTL = 24 * time.Hour
)

// Deduper records which event IDs have already been seen, with a TTL. It is
// the fast advisory tier of the two-tier dedup design: a hit is trusted, a
// miss or a store failure is not, and the record store's unique constraint
// remains the authoritative gate.
type Deduper struct {
	store Store
	ttl   time.Duration
}

// NewDeduper builds a deduper over the shared store. A non-positive ttl
// falls back to DefaultDedupTTL.
func NewDeduper(store Store, ttl time.Duration) *Deduper {
	if ttl <= 0 {
		ttl = DefaultDedupTTL
	}
	return &Deduper{store: store, ttl: ttl}
}

// Seen reports whether eventID has a live marker, and sets the marker if it
// does not. A store failure on either step surfaces as an error so the
// caller can apply its open-fail policy; seen is false in that case.
func (d *Deduper) Seen(ctx context.Context, eventID string) (bool, error) {
	key := dedupKeyPrefix + eventID

	_, err := d.store.Get(ctx, key)
	switch {
	case err == nil:
		return true, nil
	case !errors.Is(err, sentinel.ErrNotFound):
		return false, fmt.Errorf("dedup lookup: %w", err)
	}

	if err := d.store.SetWithTTL(ctx, key, dedupMarker, d.ttl); err != nil {
		return false, fmt.Errorf("dedup mark: %w", err)
	}
	return false, nil
}
