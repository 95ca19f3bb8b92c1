package store

import "time"

// popSide selects which end of a list a blocking pop takes from.
type popSide uint8

const (
	popLeft popSide = iota
	popRight
)

// waiter is one suspended blocking pop. It is resolved exactly once: a push
// sends the element on ch, a timeout (or store close) closes ch. Both paths
// remove the waiter from its list's queue and from the timer registry under
// the store lock before signalling, so double delivery is impossible.
type waiter struct {
	ch    chan string
	timer *timerEntry
	side  popSide
}

// listEntry holds a list's elements and its FIFO queue of pending blocking
// pops. The queue never carries data, only suspended requests.
type listEntry struct {
	elems   []string
	waiters []*waiter
}

// listLocked returns the list at key, auto-creating it. Caller holds the
// store lock.
func (s *Store) listLocked(key string) *listEntry {
	l, ok := s.lists[key]
	if !ok {
		l = &listEntry{}
		s.lists[key] = l
	}
	return l
}

// RPush appends values to the tail of the list at key, creating it if
// absent, then hands elements to any pending waiters in FIFO order.
// Returns the list length immediately after the append.
func (s *Store) RPush(key string, values ...string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := s.listLocked(key)
	l.elems = append(l.elems, values...)
	n := len(l.elems)
	s.drainWaitersLocked(l)
	return n
}

// LPush prepends values to the head of the list at key in reverse argument
// order, so the first argument ends up frontmost. Returns the list length
// immediately after the insert.
func (s *Store) LPush(key string, values ...string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := s.listLocked(key)
	elems := make([]string, 0, len(values)+len(l.elems))
	for i := len(values) - 1; i >= 0; i-- {
		elems = append(elems, values[i])
	}
	l.elems = append(elems, l.elems...)
	n := len(l.elems)
	s.drainWaitersLocked(l)
	return n
}

// drainWaitersLocked matches available elements with pending waiters, one
// element per waiter, oldest waiter first. A delivered waiter's timeout is
// removed from the registry in the same critical section.
func (s *Store) drainWaitersLocked(l *listEntry) {
	for len(l.elems) > 0 && len(l.waiters) > 0 {
		w := l.waiters[0]
		l.waiters = l.waiters[1:]

		var v string
		if w.side == popRight {
			v = l.elems[len(l.elems)-1]
			l.elems = l.elems[:len(l.elems)-1]
		} else {
			v = l.elems[0]
			l.elems = l.elems[1:]
		}

		if w.timer != nil {
			s.cancelTimerLocked(w.timer)
			w.timer = nil
		}
		w.ch <- v
	}
}

// LPopOne removes and returns the front element of the list at key.
func (s *Store) LPopOne(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.lists[key]
	if !ok || len(l.elems) == 0 {
		return "", false
	}
	v := l.elems[0]
	l.elems = l.elems[1:]
	return v, true
}

// LPop removes and returns up to count elements from the front of the list
// at key. A missing or empty list yields an empty slice.
func (s *Store) LPop(key string, count int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.lists[key]
	if !ok || len(l.elems) == 0 || count <= 0 {
		return []string{}
	}
	if count > len(l.elems) {
		count = len(l.elems)
	}
	popped := make([]string, count)
	copy(popped, l.elems[:count])
	l.elems = l.elems[count:]
	return popped
}

// LLen returns the length of the list at key, 0 if absent.
func (s *Store) LLen(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.lists[key]
	if !ok {
		return 0
	}
	return len(l.elems)
}

// LRange returns the inclusive slice [start, stop] of the list at key.
// Negative indices count from the end (-1 is the last element); out-of-range
// bounds are clamped. A missing or empty list, or a start past the end,
// yields an empty slice.
func (s *Store) LRange(key string, start, stop int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.lists[key]
	if !ok || len(l.elems) == 0 {
		return []string{}
	}
	n := len(l.elems)

	if start < 0 {
		start += n
		if start < 0 {
			start = 0
		}
	}
	if stop < 0 {
		stop += n
	}
	if start >= n || start > stop {
		return []string{}
	}
	if stop >= n {
		stop = n - 1
	}

	out := make([]string, stop-start+1)
	copy(out, l.elems[start:stop+1])
	return out
}

// BLPop pops the front element of the list at key, suspending the calling
// goroutine until an element is available or timeout elapses. A timeout of
// 0 waits indefinitely. Returns ok=false on timeout or store close.
func (s *Store) BLPop(key string, timeout time.Duration) (string, bool) {
	return s.blockingPop(key, timeout, popLeft)
}

// BRPop is BLPop taking from the tail of the list.
func (s *Store) BRPop(key string, timeout time.Duration) (string, bool) {
	return s.blockingPop(key, timeout, popRight)
}

func (s *Store) blockingPop(key string, timeout time.Duration, side popSide) (string, bool) {
	s.mu.Lock()

	if s.closed {
		s.mu.Unlock()
		return "", false
	}

	if l, ok := s.lists[key]; ok && len(l.elems) > 0 {
		var v string
		if side == popRight {
			v = l.elems[len(l.elems)-1]
			l.elems = l.elems[:len(l.elems)-1]
		} else {
			v = l.elems[0]
			l.elems = l.elems[1:]
		}
		s.mu.Unlock()
		return v, true
	}

	l := s.listLocked(key)
	w := &waiter{ch: make(chan string, 1), side: side}
	l.waiters = append(l.waiters, w)
	if timeout > 0 {
		w.timer = s.scheduleLocked(time.Now().Add(timeout), timerWaiterTimeout, key, w)
	}
	s.mu.Unlock()

	v, ok := <-w.ch
	return v, ok
}
