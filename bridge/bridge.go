// Package bridge owns the upstream session lifecycle and the event pipeline:
// it keeps a connection alive across unpredictable disconnects, deduplicates
// replayed events, classifies them into command requests, and enqueues those
// for the simulation to drain on its own cadence.
package bridge

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/onnwee/pickaxe-bridge/classify"
	"github.com/onnwee/pickaxe-bridge/command"
	"github.com/onnwee/pickaxe-bridge/dedupe"
	"github.com/onnwee/pickaxe-bridge/event"
	"github.com/onnwee/pickaxe-bridge/telemetry"
	"github.com/onnwee/pickaxe-bridge/upstream"
)

const tracerName = "pickaxe-bridge"

// State is the connection manager's current phase. It is mutated only by the
// bridge's own run loop and connect callback; everyone else just reads it.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateBackoff
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateBackoff:
		return "backoff"
	default:
		return "disconnected"
	}
}

// TriggerSink receives a one-way notification when a highlighted command is
// enqueued, used by the presentation layer to flash a UI affordance.
type TriggerSink interface {
	MarkTriggered(tag string)
}

// ContributionSink receives leaderboard bookkeeping. Implementations must not
// block; the bridge calls this from its event loop.
type ContributionSink interface {
	RecordContribution(authorID, displayName string, count int)
}

// Config carries the bridge's tuning. Zero values fall back to the defaults
// the upstream platforms were tuned against.
type Config struct {
	AutoReconnect  bool
	DedupCapacity  int
	LikeBundleSize int
	HealthInterval time.Duration
	// BackoffBase/BackoffCap shape the exponential backoff used for
	// rate-limit and signing failures; RetryDelay is the flat delay for
	// everything else.
	BackoffBase time.Duration
	BackoffCap  time.Duration
	RetryDelay  time.Duration

	// Optional one-way sinks.
	Triggers      TriggerSink
	Contributions ContributionSink
}

func (c Config) withDefaults() Config {
	if c.DedupCapacity <= 0 {
		c.DedupCapacity = dedupe.DefaultCapacity
	}
	if c.LikeBundleSize <= 0 {
		c.LikeBundleSize = classify.DefaultLikeBundle
	}
	if c.HealthInterval <= 0 {
		c.HealthInterval = 15 * time.Second
	}
	if c.BackoffBase <= 0 {
		c.BackoffBase = 5 * time.Second
	}
	if c.BackoffCap <= 0 {
		c.BackoffCap = 60 * time.Second
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = 15 * time.Second
	}
	return c
}

// Bridge wires a fresh upstream client per session into the command queues.
type Bridge struct {
	cfg        Config
	factory    upstream.Factory
	queues     *command.Queues
	classifier *classify.Classifier

	// One dedup window per event category, mirroring how platforms replay
	// each category independently.
	seenComments *dedupe.SeenCache
	seenGifts    *dedupe.SeenCache
	seenLikes    *dedupe.SeenCache

	state       atomic.Int32
	attempts    atomic.Int32
	lastComment atomic.Int64 // unix nanos, 0 = never
	lastGift    atomic.Int64

	roomID atomic.Value // string

	done chan struct{}
}

// New builds a bridge around factory, enqueueing onto queues.
func New(cfg Config, factory upstream.Factory, queues *command.Queues) *Bridge {
	cfg = cfg.withDefaults()
	b := &Bridge{
		cfg:          cfg,
		factory:      factory,
		queues:       queues,
		seenComments: dedupe.New(cfg.DedupCapacity),
		seenGifts:    dedupe.New(cfg.DedupCapacity),
		seenLikes:    dedupe.New(cfg.DedupCapacity),
		done:         make(chan struct{}),
	}
	b.classifier = classify.New(queues, cfg.LikeBundleSize)
	b.roomID.Store("")
	return b
}

// Start launches the connection loop and the health reporter. It returns
// immediately; the bridge runs until ctx is canceled. Events already enqueued
// survive shutdown for the consumer to drain.
func (b *Bridge) Start(ctx context.Context) {
	go b.run(ctx)
	go b.healthLoop(ctx)
}

// Done is closed once the connection loop has fully stopped.
func (b *Bridge) Done() <-chan struct{} { return b.done }

// State returns the connection manager's current phase.
func (b *Bridge) State() State { return State(b.state.Load()) }

// RoomID returns the upstream room/session identifier, empty when unknown.
func (b *Bridge) RoomID() string {
	s, _ := b.roomID.Load().(string)
	return s
}

// Queues returns the queue set the simulation drains.
func (b *Bridge) Queues() *command.Queues { return b.queues }

// LastCommentAge returns time since the last comment, false if none yet.
func (b *Bridge) LastCommentAge() (time.Duration, bool) { return ageOf(&b.lastComment) }

// LastGiftAge returns time since the last gift, false if none yet.
func (b *Bridge) LastGiftAge() (time.Duration, bool) { return ageOf(&b.lastGift) }

func ageOf(v *atomic.Int64) (time.Duration, bool) {
	ns := v.Load()
	if ns == 0 {
		return 0, false
	}
	return time.Since(time.Unix(0, ns)), true
}

func (b *Bridge) setState(s State) {
	b.state.Store(int32(s))
	telemetry.SetConnectionState(int(s))
}

// run is the connection manager: it holds the session alive, classifies
// terminal failures, and re-enters connecting after the computed delay. The
// loop itself is the re-entrancy guard; at most one pending restart exists
// because the next attempt is only scheduled from here.
func (b *Bridge) run(ctx context.Context) {
	defer close(b.done)
	defer b.setState(StateDisconnected)

	for {
		b.setState(StateConnecting)
		err := b.session(ctx)
		if ctx.Err() != nil {
			slog.Info("bridge shutting down", slog.String("room", b.RoomID()))
			return
		}

		reason := "stream ended"
		if err != nil {
			reason = upstream.Classify(err).String()
		}
		if !b.cfg.AutoReconnect {
			slog.Info("auto-reconnect disabled; bridge stopping", slog.String("reason", reason))
			return
		}

		delay := b.retryDelay(err)
		telemetry.CountReconnect(reason)
		if err != nil {
			slog.Error("upstream session failed; reconnecting",
				slog.String("reason", reason),
				slog.Duration("delay", delay),
				slog.Any("err", err))
		} else {
			slog.Warn("upstream session ended without error; stream may resume",
				slog.Duration("delay", delay))
		}

		b.setState(StateBackoff)
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

// session builds a fresh client, wires handlers, and blocks until the session
// is over. The client object is spent afterwards and never reused.
func (b *Bridge) session(ctx context.Context) error {
	client, err := b.factory()
	if err != nil {
		return err
	}

	client.OnConnect(func() {
		b.attempts.Store(0)
		b.setState(StateConnected)
		b.roomID.Store(client.RoomID())
		slog.Info("connected to upstream", slog.String("room", client.RoomID()))
	})
	client.OnComment(func(e event.Comment) { b.handleComment(ctx, e) })
	client.OnGift(func(e event.Gift) { b.handleGift(ctx, e) })
	client.OnLike(func(e event.Like) { b.handleLike(ctx, e) })
	client.OnDisconnect(func(reason string) {
		slog.Warn("disconnected from upstream",
			slog.String("room", client.RoomID()),
			slog.String("reason", reason))
	})

	err = client.Connect(ctx)
	if ctx.Err() != nil {
		// Give the platform a short, independent window to close cleanly.
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if derr := client.Disconnect(dctx); derr != nil {
			slog.Debug("upstream close during shutdown", slog.Any("err", derr))
		}
	}
	return err
}

// retryDelay picks the delay before the next attempt. Rate-limit and signing
// failures grow an exponential backoff; everything else retries after a flat
// delay without growing it.
func (b *Bridge) retryDelay(err error) time.Duration {
	if err != nil && upstream.Classify(err) == upstream.CategoryRateLimited {
		return b.nextBackoff()
	}
	return b.cfg.RetryDelay
}

func (b *Bridge) nextBackoff() time.Duration {
	attempt := b.attempts.Add(1)
	delay := b.cfg.BackoffBase << (attempt - 1)
	if delay <= 0 || delay > b.cfg.BackoffCap {
		delay = b.cfg.BackoffCap
	}
	return delay
}

func (b *Bridge) handleComment(ctx context.Context, e event.Comment) {
	b.lastComment.Store(time.Now().UnixNano())
	if b.duplicate(b.seenComments, e) {
		return
	}
	b.process(ctx, e)
}

func (b *Bridge) handleGift(ctx context.Context, e event.Gift) {
	b.lastGift.Store(time.Now().UnixNano())
	if b.duplicate(b.seenGifts, e) {
		return
	}
	b.process(ctx, e)
}

func (b *Bridge) handleLike(ctx context.Context, e event.Like) {
	if b.duplicate(b.seenLikes, e) {
		return
	}
	b.process(ctx, e)
}

// duplicate reports whether ev was already seen. Events without a resolvable
// key are never treated as duplicates: losing a legitimate event is worse
// than occasionally processing a replay.
func (b *Bridge) duplicate(cache *dedupe.SeenCache, ev event.Event) bool {
	key, ok := event.Key(ev)
	if !ok {
		return false
	}
	if cache.Add(key) {
		return false
	}
	telemetry.CountDuplicate()
	slog.Debug("skipping duplicate event",
		slog.String("type", ev.Type().String()),
		slog.String("key", key))
	return true
}

func (b *Bridge) process(ctx context.Context, ev event.Event) {
	telemetry.CountEvent(ev.Type().String())
	_, span := telemetry.StartSpan(ctx, tracerName, "bridge.process",
		attribute.String("event.type", ev.Type().String()),
		attribute.String("event.author", ev.Author().ID))
	defer span.End()

	for _, r := range b.classifier.Classify(ev) {
		b.queues.Push(r)
		telemetry.CountCommand(r.Kind.String())
		slog.Info("queued command",
			slog.String("kind", r.Kind.String()),
			slog.String("author", r.DisplayName),
			slog.Int("count", r.Count),
			slog.String("priority", r.Priority.String()))
		if b.cfg.Triggers != nil && r.Highlight != "" {
			b.cfg.Triggers.MarkTriggered(r.Highlight)
		}
		if b.cfg.Contributions != nil {
			b.cfg.Contributions.RecordContribution(r.AuthorID, r.DisplayName, r.Count)
		}
	}
}
