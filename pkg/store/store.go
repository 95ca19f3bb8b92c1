// Package store provides the in-memory data engine for the RespKV server.
//
// The store owns three independent keyspaces with Redis-compatible
// semantics, all guarded by a single mutex:
//
//   - Strings: key-value pairs with optional millisecond expiry
//   - Lists: ordered sequences with blocking pop support (BLPOP/BRPOP)
//   - Streams: append-only entry logs with monotonically increasing IDs
//
// Expiry is both lazy and active: a read past the deadline evicts the key
// on the spot, and a background timer evicts keys nobody reads. The same
// deadline-ordered timer registry drives blocking-pop timeouts, so a waiter
// is resolved exactly once, by a push or by its deadline, never both.
//
// Example usage:
//
//	st := store.New()
//	defer st.Close()
//
//	st.Set("session", "abc123", 50*time.Millisecond)
//	value, ok := st.Get("session")
//
//	st.RPush("jobs", "job1", "job2")
//	elem, ok := st.BLPop("jobs", time.Second)
//
// All operations are safe for concurrent use from many goroutines. BLPop
// and BRPop suspend only the calling goroutine.
package store

import (
	"container/heap"
	"sync"
	"time"
)

// stringEntry is one record in the string keyspace. A zero deadline means
// the key never expires.
type stringEntry struct {
	value    string
	deadline time.Time
}

// Store is the authoritative owner of all keyspaces and the timer registry.
// Every mutation and read is serialized through mu; the timer goroutine runs
// under the same lock when it fires entries.
type Store struct {
	mu      sync.Mutex
	strings map[string]stringEntry
	lists   map[string]*listEntry
	streams map[string][]StreamEntry

	// expiries tracks the scheduled expiry timer per string key so an
	// overwriting SET can replace it.
	expiries map[string]*timerEntry

	timers timerHeap
	kick   chan struct{}
	done   chan struct{}
	closed bool
}

// New creates an empty Store and starts its timer goroutine.
func New() *Store {
	s := &Store{
		strings:  make(map[string]stringEntry),
		lists:    make(map[string]*listEntry),
		streams:  make(map[string][]StreamEntry),
		expiries: make(map[string]*timerEntry),
		kick:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	go s.runTimers()
	return s
}

// Close stops the timer goroutine and releases every parked waiter with a
// not-delivered result, as on timeout. Close is idempotent.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true

	for _, l := range s.lists {
		for _, w := range l.waiters {
			if w.timer != nil {
				s.cancelTimerLocked(w.timer)
				w.timer = nil
			}
			close(w.ch)
		}
		l.waiters = nil
	}
	close(s.done)
}

// Set stores a string value at key, unconditionally overwriting any prior
// entry (last writer wins). A positive ttl sets an absolute deadline
// now+ttl and schedules an expiry timer, replacing any timer scheduled for
// the previous entry; ttl 0 stores the value without expiry.
func (s *Store) Set(key, value string, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.expiries[key]; ok {
		s.cancelTimerLocked(old)
		delete(s.expiries, key)
	}

	entry := stringEntry{value: value}
	if ttl > 0 {
		entry.deadline = time.Now().Add(ttl)
		s.expiries[key] = s.scheduleLocked(entry.deadline, timerExpireKey, key, nil)
	}
	s.strings[key] = entry
}

// Get returns the string value at key. An entry whose deadline has passed
// is evicted during the call and reported as absent; eviction and the
// negative result are atomic under the store lock, so no concurrent reader
// observes the expired value.
func (s *Store) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.strings[key]
	if !ok {
		return "", false
	}
	if s.stringExpiredLocked(entry) {
		s.evictStringLocked(key)
		return "", false
	}
	return entry.value, true
}

// Type classifies key across the keyspaces. Because a name is not enforced
// unique across keyspaces, precedence is fixed: list, then string, then
// stream, then "none". An expired string counts as absent.
func (s *Store) Type(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if l, ok := s.lists[key]; ok && len(l.elems) > 0 {
		return "list"
	}
	if entry, ok := s.strings[key]; ok {
		if s.stringExpiredLocked(entry) {
			s.evictStringLocked(key)
		} else {
			return "string"
		}
	}
	if entries, ok := s.streams[key]; ok && len(entries) > 0 {
		return "stream"
	}
	return "none"
}

func (s *Store) stringExpiredLocked(entry stringEntry) bool {
	return !entry.deadline.IsZero() && !time.Now().Before(entry.deadline)
}

// evictStringLocked removes an expired string entry and its pending timer.
func (s *Store) evictStringLocked(key string) {
	delete(s.strings, key)
	if t, ok := s.expiries[key]; ok {
		s.cancelTimerLocked(t)
		delete(s.expiries, key)
	}
}

// fireLocked applies one due timer entry. Called by the timer goroutine
// with the store lock held.
func (s *Store) fireLocked(e *timerEntry) {
	switch e.kind {
	case timerExpireKey:
		entry, ok := s.strings[e.key]
		if !ok {
			delete(s.expiries, e.key)
			return
		}
		// The entry may have been overwritten since this timer was
		// scheduled; only evict if its own deadline has passed.
		if s.stringExpiredLocked(entry) {
			delete(s.strings, e.key)
			delete(s.expiries, e.key)
		}
	case timerWaiterTimeout:
		l, ok := s.lists[e.key]
		if !ok {
			return
		}
		for i, w := range l.waiters {
			if w == e.w {
				l.waiters = append(l.waiters[:i], l.waiters[i+1:]...)
				w.timer = nil
				close(w.ch)
				return
			}
		}
	}
}

// runTimers is the registry loop: fire every due entry, then sleep until
// the earliest remaining deadline, a new earlier deadline (kick), or Close.
func (s *Store) runTimers() {
	timer := time.NewTimer(time.Hour)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		s.mu.Lock()
		now := time.Now()
		for s.timers.Len() > 0 && !s.timers[0].at.After(now) {
			e := heap.Pop(&s.timers).(*timerEntry)
			s.fireLocked(e)
		}
		var next time.Time
		pending := s.timers.Len() > 0
		if pending {
			next = s.timers[0].at
		}
		s.mu.Unlock()

		if !pending {
			select {
			case <-s.kick:
			case <-s.done:
				return
			}
			continue
		}

		timer.Reset(time.Until(next))
		select {
		case <-timer.C:
		case <-s.kick:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		case <-s.done:
			timer.Stop()
			return
		}
	}
}
