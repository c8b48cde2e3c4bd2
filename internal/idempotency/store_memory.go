package idempotency

import (
	"context"
	"strconv"
	"sync"
	"time"

	"herald/pkg/sentinel"
)

// InMemoryStore implements Store for tests and single-process deployments.
// Expiry is lazy: stale entries are dropped on access.
type InMemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	clock   func() time.Time
}

type memoryEntry struct {
	value     string
	counter   int64
	expiresAt time.Time // zero means no TTL
}

// NewInMemory creates an empty in-memory store.
func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		entries: make(map[string]*memoryEntry),
		clock:   time.Now,
	}
}

// SetClock overrides the time source so TTL behavior is testable without
// sleeping.
func (s *InMemoryStore) SetClock(clock func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock = clock
}

func (s *InMemoryStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.live(key)
	if entry == nil {
		return "", sentinel.ErrNotFound
	}
	return entry.value, nil
}

func (s *InMemoryStore) SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = &memoryEntry{
		value:     value,
		expiresAt: s.clock().Add(ttl),
	}
	return nil
}

func (s *InMemoryStore) Increment(ctx context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.live(key)
	if entry == nil {
		entry = &memoryEntry{}
		s.entries[key] = entry
	}
	entry.counter++
	entry.value = strconv.FormatInt(entry.counter, 10)
	return entry.counter, nil
}

func (s *InMemoryStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry := s.live(key); entry != nil {
		entry.expiresAt = s.clock().Add(ttl)
	}
	return nil
}

// live returns the entry for key, dropping it first if expired. Caller holds
// the lock.
func (s *InMemoryStore) live(key string) *memoryEntry {
	entry, ok := s.entries[key]
	if !ok {
		return nil
	}
	if !entry.expiresAt.IsZero() && s.clock().After(entry.expiresAt) {
		delete(s.entries, key)
		return nil
	}
	return entry
}
