package event

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	t.Run("fills missing fields", func(t *testing.T) {
		e := Event{UserID: "u1", Type: "LOGIN"}
		e.Normalize(now)
		assert.NotEmpty(t, e.EventID)
		assert.Equal(t, "2024-05-01T08:00:00Z", e.CreatedAt)
	})

	t.Run("keeps caller-supplied values", func(t *testing.T) {
		e := Event{EventID: "e1", UserID: "u1", Type: "LOGIN", CreatedAt: "2024-01-01T00:00:00Z"}
		e.Normalize(now)
		assert.Equal(t, "e1", e.EventID)
		assert.Equal(t, "2024-01-01T00:00:00Z", e.CreatedAt)
	})
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Event{UserID: "u1", Type: "LOGIN"}.Validate())
	assert.Error(t, Event{Type: "LOGIN"}.Validate())
	assert.Error(t, Event{UserID: "u1"}.Validate())
}

func TestMarshalRoundTrip(t *testing.T) {
	e := Event{
		EventID:   "e1",
		UserID:    "u1",
		Type:      "ORDER_CREATED",
		Payload:   json.RawMessage(`{"orderId":"o1","amount":99.99}`),
		CreatedAt: "2024-01-01T00:00:00Z",
	}

	data, err := Marshal(e)
	require.NoError(t, err)

	got, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, e.EventID, got.EventID)
	assert.Equal(t, e.UserID, got.UserID)
	assert.JSONEq(t, string(e.Payload), string(got.Payload))
}

func TestUnmarshalRejectsGarbage(t *testing.T) {
	_, err := Unmarshal([]byte("not json"))
	assert.Error(t, err)
}
