package dlq

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"herald/internal/event"
)

// A replayer consuming the dead-letter topic must be able to reconstruct the
// original event and see why it landed there, so the record carries the event
// fields inline plus the reason, keyed by user for per-user partition
// affinity.
func TestNewDeadLetterRecord(t *testing.T) {
	e := event.Event{
		EventID:   "e1",
		UserID:    "u1",
		Type:      "ORDER_CREATED",
		Payload:   json.RawMessage(`{"orderId":"o1"}`),
		CreatedAt: "2024-01-01T00:00:00Z",
	}

	record, err := newDeadLetterRecord("user-events-dlq", e, ReasonRealtimeSendFailed)
	require.NoError(t, err)

	assert.Equal(t, "user-events-dlq", record.Topic)
	assert.Equal(t, []byte("u1"), record.Key)

	var body struct {
		event.Event
		Reason string `json:"dlqReason"`
	}
	require.NoError(t, json.Unmarshal(record.Value, &body))
	assert.Equal(t, "realtime_send_failed", body.Reason)
	assert.Equal(t, "e1", body.EventID)
	assert.Equal(t, "ORDER_CREATED", body.Type)
	assert.JSONEq(t, `{"orderId":"o1"}`, string(body.Payload))
	assert.Equal(t, "2024-01-01T00:00:00Z", body.CreatedAt)
}

func TestInMemorySinkRecordsReasons(t *testing.T) {
	sink := NewInMemory()

	ctx := context.Background()
	sink.Send(ctx, event.Event{EventID: "e1", UserID: "u1"}, ReasonPersistFailed)
	sink.Send(ctx, event.Event{EventID: "e2", UserID: "u1"}, ReasonRealtimeSendFailed)

	letters := sink.Letters()
	require.Len(t, letters, 2)
	assert.Equal(t, ReasonPersistFailed, letters[0].Reason)
	assert.Equal(t, ReasonRealtimeSendFailed, letters[1].Reason)
}
