package fanout

import (
	"context"
	"sync"
)

// Sent is one delivered in-memory notification, kept for assertions.
type Sent struct {
	UserID  string
	Event   string
	Payload any
}

// InMemoryHub implements Fanout for tests. It records every send and can be
// told to fail so callers' failure branches are exercisable.
type InMemoryHub struct {
	mu   sync.Mutex
	sent []Sent
	fail error
}

// NewInMemoryHub creates an empty hub.
func NewInMemoryHub() *InMemoryHub {
	return &InMemoryHub{}
}

// FailWith makes every subsequent send return err. Pass nil to heal.
func (h *InMemoryHub) FailWith(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.fail = err
}

func (h *InMemoryHub) SendToUser(ctx context.Context, userID, eventName string, payload any) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.fail != nil {
		return h.fail
	}
	h.sent = append(h.sent, Sent{UserID: userID, Event: eventName, Payload: payload})
	return nil
}

// SentTo returns the notifications delivered to userID, in order.
func (h *InMemoryHub) SentTo(userID string) []Sent {
	h.mu.Lock()
	defer h.mu.Unlock()

	var out []Sent
	for _, s := range h.sent {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out
}

// Len reports the total number of delivered notifications.
func (h *InMemoryHub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sent)
}
