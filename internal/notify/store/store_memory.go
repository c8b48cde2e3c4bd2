package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"herald/internal/notify/models"
	"herald/pkg/sentinel"
)

// InMemoryStore implements NotificationStore for tests and local runs. The
// map key doubles as the unique constraint on EventID.
type InMemoryStore struct {
	mu      sync.RWMutex
	byEvent map[string]*models.NotificationRecord
}

// NewInMemory creates an empty in-memory notification store.
func NewInMemory() *InMemoryStore {
	return &InMemoryStore{byEvent: make(map[string]*models.NotificationRecord)}
}

func (s *InMemoryStore) Create(ctx context.Context, record *models.NotificationRecord) error {
	if record == nil {
		return fmt.Errorf("notification record is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEvent[record.EventID]; exists {
		return fmt.Errorf("create notification %s: %w", record.EventID, sentinel.ErrDuplicateKey)
	}

	stored := *record
	if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}
	s.byEvent[record.EventID] = &stored
	return nil
}

func (s *InMemoryStore) UpdateStatusByEventID(ctx context.Context, eventID string, status models.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.byEvent[eventID]
	if !ok {
		return fmt.Errorf("update notification %s: %w", eventID, sentinel.ErrNotFound)
	}
	if !record.Status.CanTransitionTo(status) {
		return fmt.Errorf("update notification %s: illegal transition %s -> %s", eventID, record.Status, status)
	}
	record.Status = status
	return nil
}

func (s *InMemoryStore) FindByEventID(ctx context.Context, eventID string) (*models.NotificationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.byEvent[eventID]
	if !ok {
		return nil, fmt.Errorf("find notification %s: %w", eventID, sentinel.ErrNotFound)
	}
	copied := *record
	return &copied, nil
}

func (s *InMemoryStore) List(ctx context.Context, filter ListFilter) ([]*models.NotificationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}

	matched := make([]*models.NotificationRecord, 0, len(s.byEvent))
	for _, record := range s.byEvent {
		if filter.UserID != "" && record.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && record.Status != filter.Status {
			continue
		}
		copied := *record
		matched = append(matched, &copied)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// Len reports the number of stored records. Test helper.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byEvent)
}
