package event

import (
	"context"
	"log/slog"
	"sync"
)

// Handler consumes a single event delivery. The bus promises at-least-once,
// unordered delivery; handlers own their idempotency.
type Handler interface {
	Handle(ctx context.Context, e Event) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, e Event) error

func (f HandlerFunc) Handle(ctx context.Context, e Event) error { return f(ctx, e) }

// Bus is the in-process event fanout: every published event is delivered to
// every subscribed handler on its own goroutine. It backs the HTTP producer
// and tests; the Kafka consumer feeds the same Handler interface so the two
// transports are interchangeable from a consumer's point of view.
type Bus struct {
	mu       sync.RWMutex
	handlers []Handler
	wg       sync.WaitGroup
	logger   *slog.Logger
}

// NewBus constructs an empty bus. A nil logger falls back to slog.Default.
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{logger: logger}
}

// Subscribe registers a handler for all subsequent publishes.
func (b *Bus) Subscribe(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

// Publish delivers the event to every subscriber concurrently and returns
// immediately. Handler errors are logged, not propagated: a handler that
// needs redelivery gets it from the durable transport, not from the local
// bus.
func (b *Bus) Publish(ctx context.Context, e Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	for _, h := range handlers {
		b.wg.Add(1)
		go func(h Handler) {
			defer b.wg.Done()
			if err := h.Handle(ctx, e); err != nil {
				b.logger.Error("event handler failed",
					"event_id", e.EventID,
					"user_id", e.UserID,
					"error", err,
				)
			}
		}(h)
	}
}

// Wait blocks until all in-flight deliveries have completed. Used by tests
// and by graceful shutdown.
func (b *Bus) Wait() {
	b.wg.Wait()
}
