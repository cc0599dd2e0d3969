// Package dedupe tracks recently seen event keys with bounded memory usage.
package dedupe

import "sync"

// DefaultCapacity matches the upstream history window we care about; anything
// replayed from further back than this is accepted as a fresh event.
const DefaultCapacity = 2000

// SeenCache is an insertion-ordered set with a fixed maximum size. When a new
// key pushes the cache past capacity, the oldest resident key is evicted.
// Safe for concurrent use.
type SeenCache struct {
	mu    sync.Mutex
	max   int
	order []string
	index map[string]struct{}
}

// New returns a cache holding at most max keys. A non-positive max falls back
// to DefaultCapacity.
func New(max int) *SeenCache {
	if max <= 0 {
		max = DefaultCapacity
	}
	return &SeenCache{max: max, index: make(map[string]struct{}, max)}
}

// Add records key and reports whether it was newly added. A false return means
// the key is already resident and the caller should treat the event as a
// duplicate.
func (c *SeenCache) Add(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.index[key]; ok {
		return false
	}

	c.index[key] = struct{}{}
	c.order = append(c.order, key)

	if len(c.order) > c.max {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.index, oldest)
	}
	return true
}

// Len returns the number of resident keys.
func (c *SeenCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.order)
}
