// Package upstream defines the capability set the bridge consumes from a live
// chat platform: a connect/disconnect lifecycle, typed event subscriptions,
// and an explicit error taxonomy that decouples retry policy from
// platform-specific failure shapes.
package upstream

import (
	"context"

	"github.com/onnwee/pickaxe-bridge/event"
)

// Client is one session against a live chat platform. Handlers must be
// registered before Connect and are invoked synchronously on the client's
// event loop; they must not block.
//
// Connect blocks for the life of the session. A nil return means the stream
// ended without error (the platform may resume later); a non-nil return is a
// terminal session failure, ideally an *Error carrying a Category. Either way
// the session object is spent: the bridge discards it and builds a fresh one
// through the Factory before reconnecting.
type Client interface {
	OnConnect(func())
	OnComment(func(event.Comment))
	OnGift(func(event.Gift))
	OnLike(func(event.Like))
	OnDisconnect(func(reason string))

	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	RoomID() string
}

// Factory builds a fresh client for each connection attempt.
type Factory func() (Client, error)
