package idempotency

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiterAllow(t *testing.T) {
	ctx := context.Background()

	t.Run("allows up to the limit then throttles", func(t *testing.T) {
		l := NewLimiter(NewInMemory(), 5, time.Minute)

		for i := range 5 {
			allowed, err := l.Allow(ctx, "u1")
			require.NoError(t, err)
			assert.True(t, allowed, "request %d should pass", i+1)
		}

		allowed, err := l.Allow(ctx, "u1")
		require.NoError(t, err)
		assert.False(t, allowed)
	})

	t.Run("windows are per user", func(t *testing.T) {
		l := NewLimiter(NewInMemory(), 1, time.Minute)

		allowed, err := l.Allow(ctx, "u1")
		require.NoError(t, err)
		assert.True(t, allowed)

		allowed, err = l.Allow(ctx, "u2")
		require.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("window elapses and the counter resets", func(t *testing.T) {
		store := NewInMemory()
		now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		store.SetClock(func() time.Time { return now })
		l := NewLimiter(store, 1, time.Minute)

		allowed, err := l.Allow(ctx, "u1")
		require.NoError(t, err)
		assert.True(t, allowed)

		allowed, err = l.Allow(ctx, "u1")
		require.NoError(t, err)
		assert.False(t, allowed)

		now = now.Add(61 * time.Second)
		allowed, err = l.Allow(ctx, "u1")
		require.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("store failure surfaces for the caller to fail open", func(t *testing.T) {
		l := NewLimiter(failingStore{}, 5, time.Minute)

		_, err := l.Allow(ctx, "u1")
		assert.Error(t, err)
	})
}
