package bridge

import (
	"errors"
	"testing"
	"time"

	"github.com/onnwee/pickaxe-bridge/command"
	"github.com/onnwee/pickaxe-bridge/upstream"
)

func newBackoffBridge() *Bridge {
	return New(Config{
		BackoffBase: 5 * time.Second,
		BackoffCap:  60 * time.Second,
		RetryDelay:  15 * time.Second,
	}, nil, command.NewQueues())
}

func TestBackoffMonotonicity(t *testing.T) {
	b := newBackoffBridge()
	rateErr := upstream.Errorf(upstream.CategoryRateLimited, "sign gateway")

	want := []time.Duration{
		5 * time.Second, 10 * time.Second, 20 * time.Second,
		40 * time.Second, 60 * time.Second, 60 * time.Second, 60 * time.Second,
	}
	for i, w := range want {
		if got := b.retryDelay(rateErr); got != w {
			t.Errorf("attempt %d delay = %v, want %v", i+1, got, w)
		}
	}
}

func TestBackoffResetOnSuccess(t *testing.T) {
	b := newBackoffBridge()
	rateErr := upstream.Errorf(upstream.CategoryRateLimited, "sign gateway")

	b.retryDelay(rateErr)
	b.retryDelay(rateErr)
	if got := b.retryDelay(rateErr); got != 20*time.Second {
		t.Fatalf("third delay = %v, want 20s", got)
	}

	// A successful connect resets the counter.
	b.attempts.Store(0)
	if got := b.retryDelay(rateErr); got != 5*time.Second {
		t.Errorf("delay after success = %v, want 5s", got)
	}
}

func TestFlatDelayCategories(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"offline", upstream.Errorf(upstream.CategoryOffline, "room closed")},
		{"already connected", upstream.Errorf(upstream.CategoryAlreadyConnected, "dup session")},
		{"generic", errors.New("boom")},
		{"stream ended", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newBackoffBridge()
			// Repeated flat-delay failures must not grow the backoff.
			for i := 0; i < 3; i++ {
				if got := b.retryDelay(tt.err); got != 15*time.Second {
					t.Errorf("delay = %v, want flat 15s", got)
				}
			}
			if got := b.attempts.Load(); got != 0 {
				t.Errorf("flat-delay failures grew backoff attempts to %d", got)
			}
		})
	}
}
