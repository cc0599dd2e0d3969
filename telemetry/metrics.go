// Package telemetry provides Prometheus metrics, OpenTelemetry tracing setup,
// and correlation-id aware logging helpers.
package telemetry

import (
	"context"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// Counters
	EventsReceived    *prometheus.CounterVec // label: type (comment|gift|like)
	DuplicatesSkipped prometheus.Counter
	CommandsEnqueued  *prometheus.CounterVec // label: kind
	Reconnects        *prometheus.CounterVec // label: reason

	// Gauges
	QueueDepth      *prometheus.GaugeVec // label: kind
	ConnectionState prometheus.Gauge     // 0=disconnected 1=connecting 2=connected 3=backoff
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		EventsReceived = promauto.NewCounterVec(prometheus.CounterOpts{Name: "bridge_events_received_total", Help: "Upstream events received, by type"}, []string{"type"})
		DuplicatesSkipped = promauto.NewCounter(prometheus.CounterOpts{Name: "bridge_duplicate_events_total", Help: "Events skipped by the dedup cache"})
		CommandsEnqueued = promauto.NewCounterVec(prometheus.CounterOpts{Name: "bridge_commands_enqueued_total", Help: "Command requests enqueued, by kind"}, []string{"kind"})
		Reconnects = promauto.NewCounterVec(prometheus.CounterOpts{Name: "bridge_reconnects_total", Help: "Reconnect attempts scheduled, by failure reason"}, []string{"reason"})
		QueueDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{Name: "bridge_queue_depth", Help: "Pending command requests, by kind"}, []string{"kind"})
		ConnectionState = promauto.NewGauge(prometheus.GaugeOpts{Name: "bridge_connection_state", Help: "Upstream connection state (0=disconnected 1=connecting 2=connected 3=backoff)"})
	})
}

// CountEvent bumps the received counter for an event type.
func CountEvent(eventType string) {
	if EventsReceived != nil {
		EventsReceived.WithLabelValues(eventType).Inc()
	}
}

// CountDuplicate bumps the dedup-skip counter.
func CountDuplicate() {
	if DuplicatesSkipped != nil {
		DuplicatesSkipped.Inc()
	}
}

// CountCommand bumps the enqueued counter for a command kind.
func CountCommand(kind string) {
	if CommandsEnqueued != nil {
		CommandsEnqueued.WithLabelValues(kind).Inc()
	}
}

// CountReconnect bumps the reconnect counter for a failure reason.
func CountReconnect(reason string) {
	if Reconnects != nil {
		Reconnects.WithLabelValues(reason).Inc()
	}
}

// SetQueueDepth records the current depth of one queue.
func SetQueueDepth(kind string, n int) {
	if QueueDepth != nil {
		QueueDepth.WithLabelValues(kind).Set(float64(n))
	}
}

// SetConnectionState records the bridge's connection state as a gauge value.
func SetConnectionState(state int) {
	if ConnectionState != nil {
		ConnectionState.Set(float64(state))
	}
}

// Correlation ID helpers ----------------------------------------------------

type corrKeyType struct{}

var corrKey corrKeyType

// WithCorrelation returns a new context embedding the correlation id.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, corrKey, id)
}

// GetCorrelation returns the correlation id or empty string.
func GetCorrelation(ctx context.Context) string {
	if s, ok := ctx.Value(corrKey).(string); ok {
		return s
	}
	return ""
}

// LoggerWithCorr returns a logger with a corr attribute if one is present.
func LoggerWithCorr(ctx context.Context) *slog.Logger {
	if id := GetCorrelation(ctx); id != "" {
		return slog.Default().With(slog.String("corr", id))
	}
	return slog.Default()
}
