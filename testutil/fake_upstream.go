// Package testutil provides shared test doubles for the bridge and its
// collaborators.
package testutil

import (
	"context"
	"sync"

	"github.com/onnwee/pickaxe-bridge/event"
)

// FakeUpstream is a scripted upstream client. Tests register it through a
// factory, wait for Ready, emit events, then Fail or End the session.
type FakeUpstream struct {
	Room string

	mu           sync.Mutex
	onConnect    func()
	onComment    func(event.Comment)
	onGift       func(event.Gift)
	onLike       func(event.Like)
	onDisconnect func(string)

	ready        chan struct{}
	terminate    chan error
	disconnected bool
}

// NewFakeUpstream builds a scripted client reporting room as its session id.
func NewFakeUpstream(room string) *FakeUpstream {
	return &FakeUpstream{
		Room:      room,
		ready:     make(chan struct{}),
		terminate: make(chan error, 1),
	}
}

func (f *FakeUpstream) OnConnect(fn func())              { f.onConnect = fn }
func (f *FakeUpstream) OnComment(fn func(event.Comment)) { f.onComment = fn }
func (f *FakeUpstream) OnGift(fn func(event.Gift))       { f.onGift = fn }
func (f *FakeUpstream) OnLike(fn func(event.Like))       { f.onLike = fn }
func (f *FakeUpstream) OnDisconnect(fn func(string))     { f.onDisconnect = fn }

func (f *FakeUpstream) RoomID() string { return f.Room }

// Connect reports readiness, fires the connect handler, and blocks until the
// session is scripted to end.
func (f *FakeUpstream) Connect(ctx context.Context) error {
	if f.onConnect != nil {
		f.onConnect()
	}
	close(f.ready)
	select {
	case err := <-f.terminate:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Disconnect records that the bridge closed the session.
func (f *FakeUpstream) Disconnect(context.Context) error {
	f.mu.Lock()
	f.disconnected = true
	f.mu.Unlock()
	return nil
}

// Disconnected reports whether Disconnect was called.
func (f *FakeUpstream) Disconnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.disconnected
}

// Ready is closed once Connect is running and events can be emitted.
func (f *FakeUpstream) Ready() <-chan struct{} { return f.ready }

// EmitComment delivers a comment on the session's event loop.
func (f *FakeUpstream) EmitComment(e event.Comment) {
	if f.onComment != nil {
		f.onComment(e)
	}
}

// EmitGift delivers a gift.
func (f *FakeUpstream) EmitGift(e event.Gift) {
	if f.onGift != nil {
		f.onGift(e)
	}
}

// EmitLike delivers a like burst.
func (f *FakeUpstream) EmitLike(e event.Like) {
	if f.onLike != nil {
		f.onLike(e)
	}
}

// Fail ends the session with err; also fires the disconnect handler the way
// real adapters do.
func (f *FakeUpstream) Fail(err error) {
	if f.onDisconnect != nil && err != nil {
		f.onDisconnect(err.Error())
	}
	f.terminate <- err
}

// End finishes the session cleanly (stream ended).
func (f *FakeUpstream) End() { f.terminate <- nil }
