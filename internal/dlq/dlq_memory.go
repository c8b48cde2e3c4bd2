package dlq

import (
	"context"
	"sync"

	"herald/internal/event"
)

// Letter is one recorded dead letter, kept for assertions.
type Letter struct {
	Event  event.Event
	Reason Reason
}

// InMemorySink implements Sink for tests and local runs.
type InMemorySink struct {
	mu      sync.Mutex
	letters []Letter
}

// NewInMemory creates an empty in-memory sink.
func NewInMemory() *InMemorySink {
	return &InMemorySink{}
}

func (s *InMemorySink) Send(ctx context.Context, e event.Event, reason Reason) {
	deadLetters.WithLabelValues(string(reason)).Inc()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.letters = append(s.letters, Letter{Event: e, Reason: reason})
}

// Letters returns a copy of everything recorded so far.
func (s *InMemorySink) Letters() []Letter {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Letter, len(s.letters))
	copy(out, s.letters)
	return out
}

// Len reports the number of recorded letters.
func (s *InMemorySink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.letters)
}
