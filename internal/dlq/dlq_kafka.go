package dlq

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"herald/internal/event"
)

// deadLetter is the record body: the original event plus the reason it
// landed here, so a replayer needs nothing else.
type deadLetter struct {
	event.Event
	Reason Reason `json:"dlqReason"`
}

// KafkaSink publishes dead letters to a Kafka topic, keyed by user so a
// user's letters stay on one partition. Produce errors are logged and
// counted, never surfaced: losing a dead letter must not fail a dispatch.
type KafkaSink struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// NewKafka constructs a Kafka-backed sink. A nil logger falls back to
// slog.Default.
func NewKafka(client *kgo.Client, topic string, logger *slog.Logger) *KafkaSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &KafkaSink{client: client, topic: topic, logger: logger}
}

// newDeadLetterRecord builds the produce record: keyed by user, body carrying
// the original event plus the reason.
func newDeadLetterRecord(topic string, e event.Event, reason Reason) (*kgo.Record, error) {
	body, err := json.Marshal(deadLetter{Event: e, Reason: reason})
	if err != nil {
		return nil, err
	}
	return &kgo.Record{
		Topic: topic,
		Key:   []byte(e.UserID),
		Value: body,
	}, nil
}

func (s *KafkaSink) Send(ctx context.Context, e event.Event, reason Reason) {
	deadLetters.WithLabelValues(string(reason)).Inc()

	record, err := newDeadLetterRecord(s.topic, e, reason)
	if err != nil {
		s.logger.Error("dead letter marshal failed", "event_id", e.EventID, "error", err)
		return
	}

	s.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			s.logger.Error("dead letter produce failed",
				"event_id", e.EventID,
				"reason", string(reason),
				"error", err,
			)
		}
	})
}
