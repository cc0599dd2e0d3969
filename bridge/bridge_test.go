package bridge

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/onnwee/pickaxe-bridge/command"
	"github.com/onnwee/pickaxe-bridge/event"
	"github.com/onnwee/pickaxe-bridge/testutil"
	"github.com/onnwee/pickaxe-bridge/upstream"
)

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// sequenceFactory hands out pre-built fakes one per connection attempt.
type sequenceFactory struct {
	mu    sync.Mutex
	fakes []*testutil.FakeUpstream
	next  int
}

func (s *sequenceFactory) factory() (upstream.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := s.fakes[s.next]
	if s.next < len(s.fakes)-1 {
		s.next++
	}
	return f, nil
}

func (s *sequenceFactory) attempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}

func testConfig() Config {
	return Config{
		AutoReconnect: true,
		RetryDelay:    10 * time.Millisecond,
		BackoffBase:   10 * time.Millisecond,
		BackoffCap:    40 * time.Millisecond,
	}
}

func TestBridgePipelineEnqueuesCommands(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fake := testutil.NewFakeUpstream("room-1")
	seq := &sequenceFactory{fakes: []*testutil.FakeUpstream{fake}}
	qs := command.NewQueues()
	b := New(testConfig(), seq.factory, qs)
	b.Start(ctx)

	<-fake.Ready()
	waitFor(t, "connected state", func() bool { return b.State() == StateConnected })
	if b.RoomID() != "room-1" {
		t.Errorf("RoomID() = %q, want room-1", b.RoomID())
	}

	fake.EmitComment(event.Comment{
		User: event.Author{ID: "7", DisplayName: "miner"},
		Text: "please drop tnt and go fast",
		ID:   "c-1",
	})

	waitFor(t, "tnt request", func() bool { return qs.Queue(command.TNT).Len() == 1 })
	if qs.Queue(command.FastSlow).Len() != 1 {
		t.Errorf("FastSlow depth = %d, want 1", qs.Queue(command.FastSlow).Len())
	}
	r, _ := qs.Queue(command.TNT).PopNext()
	if r.AuthorID != "7" || r.Highlight != "tnt" {
		t.Errorf("queued request = %+v, want author 7 highlight tnt", r)
	}
}

func TestBridgeSkipsDuplicates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fake := testutil.NewFakeUpstream("room-1")
	seq := &sequenceFactory{fakes: []*testutil.FakeUpstream{fake}}
	qs := command.NewQueues()
	b := New(testConfig(), seq.factory, qs)
	b.Start(ctx)
	<-fake.Ready()

	msg := event.Comment{User: event.Author{ID: "1", DisplayName: "v"}, Text: "tnt", ID: "dup-1"}
	fake.EmitComment(msg)
	fake.EmitComment(msg) // replay

	waitFor(t, "first request", func() bool { return qs.Queue(command.TNT).Len() >= 1 })
	time.Sleep(20 * time.Millisecond)
	if got := qs.Queue(command.TNT).Len(); got != 1 {
		t.Errorf("TNT depth after replay = %d, want 1", got)
	}
}

func TestBridgeProcessesUnkeyedEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fake := testutil.NewFakeUpstream("room-1")
	seq := &sequenceFactory{fakes: []*testutil.FakeUpstream{fake}}
	qs := command.NewQueues()
	b := New(testConfig(), seq.factory, qs)
	b.Start(ctx)
	<-fake.Ready()

	// No id, no author, no text that could synthesize a key for the author —
	// still classified, twice (fail-open: cannot deduplicate).
	fake.EmitGift(event.Gift{Quantity: 1})
	fake.EmitGift(event.Gift{Quantity: 1})

	waitFor(t, "both gifts classified", func() bool { return qs.Queue(command.TNT).Len() == 2 })
}

func TestBridgeReconnectsAfterFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first := testutil.NewFakeUpstream("room-1")
	second := testutil.NewFakeUpstream("room-2")
	seq := &sequenceFactory{fakes: []*testutil.FakeUpstream{first, second}}
	b := New(testConfig(), seq.factory, command.NewQueues())
	b.Start(ctx)

	<-first.Ready()
	first.Fail(upstream.Errorf(upstream.CategoryOffline, "room closed"))

	<-second.Ready()
	waitFor(t, "reconnected", func() bool { return b.State() == StateConnected && b.RoomID() == "room-2" })
	if seq.attempts() != 1 {
		t.Errorf("factory advanced %d times, want 1", seq.attempts())
	}
}

func TestBridgeReconnectsAfterCleanStreamEnd(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first := testutil.NewFakeUpstream("room-1")
	second := testutil.NewFakeUpstream("room-1")
	seq := &sequenceFactory{fakes: []*testutil.FakeUpstream{first, second}}
	b := New(testConfig(), seq.factory, command.NewQueues())
	b.Start(ctx)

	<-first.Ready()
	first.End()
	<-second.Ready()
	waitFor(t, "reconnected after clean end", func() bool { return b.State() == StateConnected })
}

func TestBridgeStopsWhenAutoReconnectDisabled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fake := testutil.NewFakeUpstream("room-1")
	seq := &sequenceFactory{fakes: []*testutil.FakeUpstream{fake}}
	cfg := testConfig()
	cfg.AutoReconnect = false
	b := New(cfg, seq.factory, command.NewQueues())
	b.Start(ctx)

	<-fake.Ready()
	fake.End()

	select {
	case <-b.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("bridge did not stop after clean end with auto-reconnect off")
	}
	if b.State() != StateDisconnected {
		t.Errorf("state = %v, want disconnected", b.State())
	}
}

func TestBridgeShutdownPreservesQueuedWork(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	fake := testutil.NewFakeUpstream("room-1")
	seq := &sequenceFactory{fakes: []*testutil.FakeUpstream{fake}}
	qs := command.NewQueues()
	b := New(testConfig(), seq.factory, qs)
	b.Start(ctx)
	<-fake.Ready()

	fake.EmitComment(event.Comment{User: event.Author{ID: "9", DisplayName: "v"}, Text: "big", ID: "b-1"})
	waitFor(t, "big request", func() bool { return qs.Queue(command.Big).Len() == 1 })

	cancel()
	select {
	case <-b.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("bridge did not stop on context cancel")
	}
	if !fake.Disconnected() {
		t.Errorf("upstream client was not told to disconnect on shutdown")
	}
	// In-flight work already enqueued survives for the consumer.
	if qs.Queue(command.Big).Len() != 1 {
		t.Errorf("queued work lost on shutdown")
	}
}

type recordingSinks struct {
	mu       sync.Mutex
	triggers []string
	contribs int
}

func (r *recordingSinks) MarkTriggered(tag string) {
	r.mu.Lock()
	r.triggers = append(r.triggers, tag)
	r.mu.Unlock()
}

func (r *recordingSinks) RecordContribution(authorID, displayName string, count int) {
	r.mu.Lock()
	r.contribs += count
	r.mu.Unlock()
}

func TestBridgeNotifiesSinks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fake := testutil.NewFakeUpstream("room-1")
	seq := &sequenceFactory{fakes: []*testutil.FakeUpstream{fake}}
	sinks := &recordingSinks{}
	cfg := testConfig()
	cfg.Triggers = sinks
	cfg.Contributions = sinks
	qs := command.NewQueues()
	b := New(cfg, seq.factory, qs)
	b.Start(ctx)
	<-fake.Ready()

	fake.EmitGift(event.Gift{
		User:      event.Author{ID: "5", DisplayName: "gifter"},
		GiftName:  "Rose",
		CoinValue: 10,
		CoinKnown: true,
		ID:        "g-1",
	})

	waitFor(t, "gift classified", func() bool { return qs.Queue(command.MegaTNT).Len() == 1 })
	sinks.mu.Lock()
	defer sinks.mu.Unlock()
	if len(sinks.triggers) != 2 {
		t.Errorf("triggers = %v, want tnt and megatnt flashes", sinks.triggers)
	}
	if sinks.contribs != 10 {
		t.Errorf("recorded contributions = %d, want 10 (5 TNT + 5 MegaTNT)", sinks.contribs)
	}
}
