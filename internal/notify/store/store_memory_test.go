package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"herald/internal/notify/models"
	"herald/pkg/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemory()
}

func (s *InMemoryStoreSuite) TestCreate() {
	ctx := context.Background()

	s.Run("assigns id and created_at", func() {
		err := s.store.Create(ctx, &models.NotificationRecord{
			EventID: "e1", UserID: "u1", Type: "LOGIN", Status: models.StatusPending,
		})
		s.Require().NoError(err)

		record, err := s.store.FindByEventID(ctx, "e1")
		s.Require().NoError(err)
		s.NotEmpty(record.ID)
		s.False(record.CreatedAt.IsZero())
	})

	s.Run("duplicate eventId reported as ErrDuplicateKey", func() {
		err := s.store.Create(ctx, &models.NotificationRecord{
			EventID: "e1", UserID: "u2", Type: "LOGIN", Status: models.StatusPending,
		})
		s.ErrorIs(err, sentinel.ErrDuplicateKey)
	})

	s.Run("nil record rejected", func() {
		s.Error(s.store.Create(ctx, nil))
	})
}

func (s *InMemoryStoreSuite) TestCreateConcurrentSameEventID() {
	ctx := context.Background()

	const writers = 20
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.store.Create(ctx, &models.NotificationRecord{
				EventID: "e-race", UserID: "u1", Type: "LOGIN", Status: models.StatusPending,
			})
		}()
	}
	wg.Wait()
	close(errs)

	var created, duplicates int
	for err := range errs {
		switch {
		case err == nil:
			created++
		default:
			s.ErrorIs(err, sentinel.ErrDuplicateKey)
			duplicates++
		}
	}
	s.Equal(1, created)
	s.Equal(writers-1, duplicates)
}

func (s *InMemoryStoreSuite) TestUpdateStatusByEventID() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, &models.NotificationRecord{
		EventID: "e1", UserID: "u1", Type: "LOGIN", Status: models.StatusPending,
	}))

	s.Run("pending moves to sent", func() {
		s.NoError(s.store.UpdateStatusByEventID(ctx, "e1", models.StatusSent))
		record, err := s.store.FindByEventID(ctx, "e1")
		s.Require().NoError(err)
		s.Equal(models.StatusSent, record.Status)
	})

	s.Run("terminal record is immutable", func() {
		s.Error(s.store.UpdateStatusByEventID(ctx, "e1", models.StatusFailed))
	})

	s.Run("missing record reported as ErrNotFound", func() {
		err := s.store.UpdateStatusByEventID(ctx, "nope", models.StatusSent)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *InMemoryStoreSuite) TestList() {
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	seed := []struct {
		eventID string
		userID  string
		status  models.Status
		offset  time.Duration
	}{
		{"e1", "u1", models.StatusSent, 0},
		{"e2", "u1", models.StatusFailed, time.Minute},
		{"e3", "u2", models.StatusSent, 2 * time.Minute},
	}
	for _, r := range seed {
		s.Require().NoError(s.store.Create(ctx, &models.NotificationRecord{
			EventID:   r.eventID,
			UserID:    r.userID,
			Type:      "LOGIN",
			Status:    r.status,
			CreatedAt: base.Add(r.offset),
		}))
	}

	eventIDs := func(records []*models.NotificationRecord) []string {
		ids := make([]string, 0, len(records))
		for _, r := range records {
			ids = append(ids, r.EventID)
		}
		return ids
	}

	s.Run("unfiltered, newest first", func() {
		records, err := s.store.List(ctx, ListFilter{})
		s.Require().NoError(err)
		s.Equal([]string{"e3", "e2", "e1"}, eventIDs(records))
	})

	s.Run("by user", func() {
		records, err := s.store.List(ctx, ListFilter{UserID: "u1"})
		s.Require().NoError(err)
		s.Equal([]string{"e2", "e1"}, eventIDs(records))
	})

	s.Run("by status", func() {
		records, err := s.store.List(ctx, ListFilter{Status: models.StatusFailed})
		s.Require().NoError(err)
		s.Equal([]string{"e2"}, eventIDs(records))
	})

	s.Run("limit truncates after ordering", func() {
		records, err := s.store.List(ctx, ListFilter{Limit: 2})
		s.Require().NoError(err)
		s.Equal([]string{"e3", "e2"}, eventIDs(records))
	})
}

func (s *InMemoryStoreSuite) TestFindByEventIDReturnsCopy() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, &models.NotificationRecord{
		EventID: "e1", UserID: "u1", Type: "LOGIN", Status: models.StatusPending,
	}))

	record, err := s.store.FindByEventID(ctx, "e1")
	s.Require().NoError(err)
	record.Status = models.StatusFailed

	fresh, err := s.store.FindByEventID(ctx, "e1")
	s.Require().NoError(err)
	s.Equal(models.StatusPending, fresh.Status)
}
