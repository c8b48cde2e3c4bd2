package fanout

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const userChannelPrefix = "notify:user:"

// message is the wire envelope published to a user's channel. Edge servers
// holding the user's websocket subscribe to the channel and forward the
// payload.
type message struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

// RedisFanout publishes notifications over Redis PUB/SUB, one channel per
// user. Publishing to a channel with no subscribers succeeds; presence is
// the edge's concern, not the dispatcher's.
type RedisFanout struct {
	client *redis.Client
}

// NewRedis constructs a Redis-backed fanout. The client lifecycle is managed
// by the caller.
func NewRedis(client *redis.Client) *RedisFanout {
	return &RedisFanout{client: client}
}

func (f *RedisFanout) SendToUser(ctx context.Context, userID, eventName string, payload any) error {
	body, err := json.Marshal(message{Event: eventName, Payload: payload})
	if err != nil {
		return fmt.Errorf("marshal fanout message: %w", err)
	}
	if err := f.client.Publish(ctx, userChannelPrefix+userID, body).Err(); err != nil {
		return fmt.Errorf("publish to user %s: %w", userID, err)
	}
	return nil
}

// Channel returns the PUB/SUB channel name for a user, for edge subscribers.
func Channel(userID string) string {
	return userChannelPrefix + userID
}
