// Package source adapts the durable Kafka transport onto the pipeline's
// Handler interface. Delivery is at-least-once with no ordering guarantee;
// both consumers own their idempotency.
package source

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"herald/internal/event"
)

// Consumer polls the events topic and feeds every record to the audit
// recorder and the notification dispatcher. Offsets are committed only after
// the recorder has durably processed the batch; the dispatcher settles its
// own failures and never holds a commit back.
type Consumer struct {
	client   *kgo.Client
	recorder event.Handler
	dispatch event.Handler
	logger   *slog.Logger
}

// New wires a consumer. A nil logger falls back to slog.Default.
func New(client *kgo.Client, recorder, dispatch event.Handler, logger *slog.Logger) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{client: client, recorder: recorder, dispatch: dispatch, logger: logger}
}

// Run polls until ctx is cancelled. A recorder failure aborts the loop
// without committing, so the supervisor restarts consumption from the last
// committed offset and the failed events are redelivered.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		fetches := c.client.PollFetches(ctx)
		if err := ctx.Err(); err != nil {
			return err
		}
		if errs := fetches.Errors(); len(errs) > 0 {
			for _, fe := range errs {
				c.logger.Error("fetch error", "topic", fe.Topic, "partition", fe.Partition, "error", fe.Err)
			}
		}

		var handleErr error
		fetches.EachRecord(func(record *kgo.Record) {
			if handleErr != nil {
				return
			}
			handleErr = c.handle(ctx, record)
		})
		if handleErr != nil {
			return handleErr
		}

		if err := c.client.CommitUncommittedOffsets(ctx); err != nil {
			c.logger.Error("offset commit failed", "error", err)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, record *kgo.Record) error {
	e, err := event.Unmarshal(record.Value)
	if err != nil {
		// Poison record: committing past it is the only way forward.
		c.logger.Error("undecodable event record skipped",
			"topic", record.Topic, "partition", record.Partition, "offset", record.Offset, "error", err)
		return nil
	}

	// The two consumers are independent; the dispatcher's Handle contract
	// never returns an error.
	if err := c.dispatch.Handle(ctx, e); err != nil {
		c.logger.Error("dispatcher returned unexpected error", "event_id", e.EventID, "error", err)
	}

	if err := c.recorder.Handle(ctx, e); err != nil {
		return fmt.Errorf("audit record %s at %s[%d]@%d: %w",
			e.EventID, record.Topic, record.Partition, record.Offset, err)
	}
	return nil
}
