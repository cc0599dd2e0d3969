package command

import "sync"

// Queue is a lock-guarded FIFO of requests with gift-priority pops. Appends
// never block; growth is unbounded and the consumer is expected to keep up
// (depths are exported for observability).
type Queue struct {
	mu    sync.Mutex
	items []Request
}

// Push appends r, normalizing Count to at least 1.
func (q *Queue) Push(r Request) {
	if r.Count < 1 {
		r.Count = 1
	}
	q.mu.Lock()
	q.items = append(q.items, r)
	q.mu.Unlock()
}

// PopNext removes and returns the first gift-priority entry if one exists,
// otherwise the FIFO head. Same-priority entries keep arrival order.
func (q *Queue) PopNext() (Request, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return Request{}, false
	}
	idx := 0
	for i, r := range q.items {
		if r.Priority == PriorityGift {
			idx = i
			break
		}
	}
	r := q.items[idx]
	q.items = append(q.items[:idx], q.items[idx+1:]...)
	return r, true
}

// Empty reports whether the queue has no pending requests.
func (q *Queue) Empty() bool { return q.Len() == 0 }

// Len returns the number of pending requests.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// HasAuthor reports whether any pending request belongs to authorID. Used for
// per-author gating of commands that must not stack while queued.
func (q *Queue) HasAuthor(authorID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, r := range q.items {
		if r.AuthorID == authorID {
			return true
		}
	}
	return false
}

// Queues is the fixed set of five queues the simulation drains.
type Queues struct {
	byKind map[Kind]*Queue
}

// NewQueues builds the five-queue set.
func NewQueues() *Queues {
	qs := &Queues{byKind: make(map[Kind]*Queue, len(Kinds()))}
	for _, k := range Kinds() {
		qs.byKind[k] = &Queue{}
	}
	return qs
}

// Queue returns the queue for kind k.
func (qs *Queues) Queue(k Kind) *Queue { return qs.byKind[k] }

// Push routes r onto the queue for its kind.
func (qs *Queues) Push(r Request) { qs.byKind[r.Kind].Push(r) }

// HasPending reports whether authorID already has a request queued for kind k.
func (qs *Queues) HasPending(k Kind, authorID string) bool {
	return qs.byKind[k].HasAuthor(authorID)
}

// Depths snapshots the current length of every queue.
func (qs *Queues) Depths() map[Kind]int {
	out := make(map[Kind]int, len(qs.byKind))
	for k, q := range qs.byKind {
		out[k] = q.Len()
	}
	return out
}
