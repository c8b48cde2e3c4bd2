//go:build integration

package audit_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"herald/internal/audit"
	"herald/internal/event"
	"herald/internal/platform/postgres"
	"herald/pkg/sentinel"
	"herald/pkg/testutil/containers"
)

type PostgresAuditSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *audit.PostgresStore
}

func TestPostgresAuditSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresAuditSuite))
}

func (s *PostgresAuditSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	s.Require().NoError(postgres.Migrate(context.Background(), s.pg.DB))
	s.store = audit.NewPostgres(s.pg.DB)
}

func (s *PostgresAuditSuite) SetupTest() {
	_, err := s.pg.DB.Exec("TRUNCATE audit_logs")
	s.Require().NoError(err)
}

func (s *PostgresAuditSuite) TestCreate() {
	ctx := context.Background()

	err := s.store.Create(ctx, &audit.Record{
		EventID:   "e1",
		UserID:    "u1",
		Type:      "LOGIN",
		Payload:   []byte(`{}`),
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	s.Require().NoError(err)

	var count int
	s.Require().NoError(s.pg.DB.QueryRow("SELECT count(*) FROM audit_logs WHERE event_id = 'e1'").Scan(&count))
	s.Equal(1, count)
}

func (s *PostgresAuditSuite) TestCreateDuplicateReported() {
	ctx := context.Background()
	record := &audit.Record{
		EventID:   "e1",
		UserID:    "u1",
		Type:      "LOGIN",
		CreatedAt: time.Now().UTC(),
	}

	s.Require().NoError(s.store.Create(ctx, record))
	err := s.store.Create(ctx, record)
	s.ErrorIs(err, sentinel.ErrDuplicateKey)
}

// The end-to-end idempotency check: the recorder over the real store treats a
// replay as a no-op and keeps one row.
func (s *PostgresAuditSuite) TestRecorderOverPostgres() {
	ctx := context.Background()

	recorder, err := audit.NewRecorder(s.store)
	s.Require().NoError(err)

	e := event.Event{EventID: "e-replay", UserID: "u1", Type: "LOGIN"}
	for range 3 {
		s.NoError(recorder.Handle(ctx, e))
	}

	var count int
	s.Require().NoError(s.pg.DB.QueryRow("SELECT count(*) FROM audit_logs WHERE event_id = 'e-replay'").Scan(&count))
	s.Equal(1, count)
}
