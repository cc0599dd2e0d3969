// Package hud tracks presentation-layer trigger flashes. The simulation's
// overlay polls Active to decide which indicators to light up.
package hud

import (
	"sync"
	"time"
)

// DefaultFlashWindow is how long a trigger stays lit after firing.
const DefaultFlashWindow = 3 * time.Second

// Flasher remembers the last time each trigger tag fired. It is safe for
// concurrent use; the bridge marks from its event loop while HTTP handlers
// read.
type Flasher struct {
	mu     sync.Mutex
	window time.Duration
	fired  map[string]time.Time
	now    func() time.Time
}

// New builds a flasher. A window of zero or below falls back to
// DefaultFlashWindow.
func New(window time.Duration) *Flasher {
	if window <= 0 {
		window = DefaultFlashWindow
	}
	return &Flasher{
		window: window,
		fired:  make(map[string]time.Time),
		now:    time.Now,
	}
}

// MarkTriggered records that tag fired just now.
func (f *Flasher) MarkTriggered(tag string) {
	f.mu.Lock()
	f.fired[tag] = f.now()
	f.mu.Unlock()
}

// Active returns the tags whose flash window has not elapsed yet.
func (f *Flasher) Active() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	cutoff := f.now().Add(-f.window)
	var out []string
	for tag, at := range f.fired {
		if at.After(cutoff) {
			out = append(out, tag)
		}
	}
	return out
}

// LastFired returns when tag last fired, false if it never has.
func (f *Flasher) LastFired(tag string) (time.Time, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	at, ok := f.fired[tag]
	return at, ok
}
