package bridge

import (
	"context"
	"log/slog"
	"time"

	"github.com/onnwee/pickaxe-bridge/telemetry"
)

// healthLoop logs connection state and queue depths on a fixed period. Purely
// observational: it never mutates bridge state.
func (b *Bridge) healthLoop(ctx context.Context) {
	ticker := time.NewTicker(b.cfg.HealthInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.reportHealth()
		}
	}
}

func (b *Bridge) reportHealth() {
	depths := b.queues.Depths()
	attrs := []any{
		slog.String("state", b.State().String()),
		slog.String("room", b.RoomID()),
	}
	for kind, n := range depths {
		telemetry.SetQueueDepth(kind.String(), n)
		attrs = append(attrs, slog.Int("queued_"+kind.String(), n))
	}
	attrs = append(attrs,
		slog.String("last_comment", formatAge(b.LastCommentAge())),
		slog.String("last_gift", formatAge(b.LastGiftAge())),
	)
	slog.Info("bridge health", attrs...)
}

func formatAge(d time.Duration, ok bool) string {
	if !ok {
		return "never"
	}
	return d.Truncate(time.Second).String()
}
