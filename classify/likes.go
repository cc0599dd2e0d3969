package classify

import "sync"

// DefaultLikeBundle is how many accumulated likes collapse into one emitted
// command.
const DefaultLikeBundle = 5

// LikeAccumulator tracks pending like counts per author. The pending value is
// always below the bundle size; crossing it converts whole bundles into
// emitted commands and keeps only the remainder.
type LikeAccumulator struct {
	mu      sync.Mutex
	bundle  int
	pending map[string]int
}

// NewLikeAccumulator builds an accumulator with the given bundle size
// (values below 1 fall back to DefaultLikeBundle).
func NewLikeAccumulator(bundle int) *LikeAccumulator {
	if bundle < 1 {
		bundle = DefaultLikeBundle
	}
	return &LikeAccumulator{bundle: bundle, pending: make(map[string]int)}
}

// Add credits count likes (at least 1) to authorID and returns how many full
// bundles that completes. The remainder stays pending for the author.
func (a *LikeAccumulator) Add(authorID string, count int) int {
	if count < 1 {
		count = 1
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	total := a.pending[authorID] + count
	bundles := total / a.bundle
	a.pending[authorID] = total % a.bundle
	return bundles
}

// Pending returns the author's current remainder.
func (a *LikeAccumulator) Pending(authorID string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pending[authorID]
}

// BundleSize returns the configured bundle size.
func (a *LikeAccumulator) BundleSize() int { return a.bundle }
