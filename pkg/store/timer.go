package store

import (
	"container/heap"
	"time"
)

// timerKind distinguishes the two actions the registry can fire.
type timerKind uint8

const (
	timerExpireKey     timerKind = iota // evict a string key at its deadline
	timerWaiterTimeout                  // fail a blocking pop at its deadline
)

// timerEntry is one pending action in the deadline-ordered registry. The
// index field tracks the entry's heap position so it can be cancelled by
// handle in O(log n).
type timerEntry struct {
	at    time.Time
	w     *waiter
	key   string
	index int
	kind  timerKind
}

// timerHeap is a min-heap of pending timers ordered by deadline.
type timerHeap []*timerEntry

func (h timerHeap) Len() int           { return len(h) }
func (h timerHeap) Less(i, j int) bool { return h[i].at.Before(h[j].at) }

func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x interface{}) {
	e := x.(*timerEntry)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *timerHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

// scheduleLocked registers an action to fire at its deadline and wakes the
// timer goroutine in case the new deadline is now the earliest. Caller
// holds the store lock.
func (s *Store) scheduleLocked(at time.Time, kind timerKind, key string, w *waiter) *timerEntry {
	e := &timerEntry{at: at, kind: kind, key: key, w: w}
	heap.Push(&s.timers, e)
	select {
	case s.kick <- struct{}{}:
	default:
	}
	return e
}

// cancelTimerLocked removes a pending entry by handle so it never fires.
// Safe to call on an entry that already fired. Caller holds the store lock.
func (s *Store) cancelTimerLocked(e *timerEntry) {
	if e.index >= 0 {
		heap.Remove(&s.timers, e.index)
	}
}
