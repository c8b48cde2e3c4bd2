package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"herald/pkg/sentinel"
)

// InMemoryStore implements Store for tests and local runs.
type InMemoryStore struct {
	mu      sync.RWMutex
	byEvent map[string]*Record
}

// NewInMemory creates an empty in-memory audit store.
func NewInMemory() *InMemoryStore {
	return &InMemoryStore{byEvent: make(map[string]*Record)}
}

func (s *InMemoryStore) Create(ctx context.Context, record *Record) error {
	if record == nil {
		return fmt.Errorf("audit record is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEvent[record.EventID]; exists {
		return fmt.Errorf("create audit %s: %w", record.EventID, sentinel.ErrDuplicateKey)
	}

	stored := *record
	if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}
	stored.IngestedAt = time.Now()
	s.byEvent[record.EventID] = &stored
	return nil
}

// FindByEventID returns the record for eventID, or sentinel.ErrNotFound.
// Test helper; the production read path is out of scope here.
func (s *InMemoryStore) FindByEventID(eventID string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.byEvent[eventID]
	if !ok {
		return nil, fmt.Errorf("find audit %s: %w", eventID, sentinel.ErrNotFound)
	}
	copied := *record
	return &copied, nil
}

// Len reports the number of stored records.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byEvent)
}
