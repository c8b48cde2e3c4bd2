//go:build integration

package idempotency_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"herald/internal/idempotency"
	"herald/pkg/sentinel"
	"herald/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *idempotency.RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.store = idempotency.NewRedis(s.redis.Client)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisStoreSuite) TestGetSetWithTTL() {
	ctx := context.Background()

	_, err := s.store.Get(ctx, "missing")
	s.ErrorIs(err, sentinel.ErrNotFound)

	s.Require().NoError(s.store.SetWithTTL(ctx, "notify:d:e1", "1", time.Minute))
	val, err := s.store.Get(ctx, "notify:d:e1")
	s.NoError(err)
	s.Equal("1", val)

	ttl, err := s.redis.Client.TTL(ctx, "notify:d:e1").Result()
	s.NoError(err)
	s.InDelta(time.Minute.Seconds(), ttl.Seconds(), 5)
}

func (s *RedisStoreSuite) TestIncrementIsAtomic() {
	ctx := context.Background()

	const workers = 50
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.Increment(ctx, "notify:rate:u1")
			s.NoError(err)
		}()
	}
	wg.Wait()

	n, err := s.store.Increment(ctx, "notify:rate:u1")
	s.NoError(err)
	s.Equal(int64(workers+1), n)
}

func (s *RedisStoreSuite) TestExpireAttachesWindow() {
	ctx := context.Background()

	_, err := s.store.Increment(ctx, "notify:rate:u1")
	s.Require().NoError(err)
	s.Require().NoError(s.store.Expire(ctx, "notify:rate:u1", time.Minute))

	ttl, err := s.redis.Client.TTL(ctx, "notify:rate:u1").Result()
	s.NoError(err)
	s.Greater(ttl, time.Duration(0))
}

func (s *RedisStoreSuite) TestDeduperAndLimiterOverRedis() {
	ctx := context.Background()

	deduper := idempotency.NewDeduper(s.store, time.Hour)
	seen, err := deduper.Seen(ctx, "e1")
	s.NoError(err)
	s.False(seen)
	seen, err = deduper.Seen(ctx, "e1")
	s.NoError(err)
	s.True(seen)

	limiter := idempotency.NewLimiter(s.store, 5, time.Minute)
	for range 5 {
		allowed, err := limiter.Allow(ctx, "u1")
		s.NoError(err)
		s.True(allowed)
	}
	allowed, err := limiter.Allow(ctx, "u1")
	s.NoError(err)
	s.False(allowed)
}
