// Package fanout pushes realtime notifications to users. Delivery is
// fire-and-forget from the dispatcher's point of view, but the send outcome
// is synchronous so the caller can settle the record's terminal status.
package fanout

import "context"

// Fanout addresses a push channel by opaque user ID. There is no delivery
// receipt beyond call success.
type Fanout interface {
	SendToUser(ctx context.Context, userID, eventName string, payload any) error
}
