package store

import (
	"errors"
	"testing"
	"time"
)

func mustXAdd(t *testing.T, s *Store, key, id string) EntryID {
	t.Helper()
	got, err := s.XAdd(key, id, []string{"f", "v"})
	if err != nil {
		t.Fatalf("XAdd(%q, %q) failed: %v", key, id, err)
	}
	return got
}

func TestXAddExplicitIDs(t *testing.T) {
	s := New()
	defer s.Close()

	if id := mustXAdd(t, s, "s", "5-1"); id.String() != "5-1" {
		t.Errorf("Expected 5-1, got %s", id)
	}

	// Equal ID is rejected, nothing is appended.
	if _, err := s.XAdd("s", "5-1", []string{"f", "v"}); !errors.Is(err, ErrIDTooSmall) {
		t.Errorf("Expected ErrIDTooSmall for duplicate ID, got %v", err)
	}
	if _, err := s.XAdd("s", "4-9", []string{"f", "v"}); !errors.Is(err, ErrIDTooSmall) {
		t.Errorf("Expected ErrIDTooSmall for smaller millis, got %v", err)
	}
	if n := s.XLen("s"); n != 1 {
		t.Errorf("Rejected XAdd must not mutate the stream, length %d", n)
	}

	if id := mustXAdd(t, s, "s", "5-2"); id.String() != "5-2" {
		t.Errorf("Expected 5-2, got %s", id)
	}
	if id := mustXAdd(t, s, "s", "6-0"); id.String() != "6-0" {
		t.Errorf("Expected 6-0, got %s", id)
	}
}

func TestXAddReservedID(t *testing.T) {
	s := New()
	defer s.Close()

	if _, err := s.XAdd("s", "0-0", []string{"f", "v"}); !errors.Is(err, ErrIDReserved) {
		t.Errorf("Expected ErrIDReserved for 0-0 on empty stream, got %v", err)
	}
}

func TestXAddAutoSequence(t *testing.T) {
	s := New()
	defer s.Close()

	// On an empty stream the top item is the 0-0 sentinel, so 0-* yields 0-1.
	if id := mustXAdd(t, s, "s", "0-*"); id.String() != "0-1" {
		t.Errorf("Expected 0-1, got %s", id)
	}

	mustXAdd(t, s, "s", "5-1")
	if id := mustXAdd(t, s, "s", "5-*"); id.String() != "5-2" {
		t.Errorf("Expected 5-2, got %s", id)
	}
	if id := mustXAdd(t, s, "s", "7-*"); id.String() != "7-0" {
		t.Errorf("Expected fresh millis to start at sequence 0, got %s", id)
	}
	if _, err := s.XAdd("s", "6-*", []string{"f", "v"}); !errors.Is(err, ErrIDTooSmall) {
		t.Errorf("Expected ErrIDTooSmall for stale millis, got %v", err)
	}
}

func TestXAddFullyAutoID(t *testing.T) {
	s := New()
	defer s.Close()

	before := uint64(time.Now().UnixMilli())
	first := mustXAdd(t, s, "s", "*")
	if first.Ms < before {
		t.Errorf("Auto ID millis %d predate the call at %d", first.Ms, before)
	}

	second := mustXAdd(t, s, "s", "*")
	if !first.Less(second) {
		t.Errorf("Auto IDs must be strictly increasing: %s then %s", first, second)
	}
}

func TestXAddMalformedIDs(t *testing.T) {
	s := New()
	defer s.Close()

	for _, id := range []string{"5", "abc", "5-x", "x-5", "-", "5-", "-1-2"} {
		if _, err := s.XAdd("s", id, []string{"f", "v"}); !errors.Is(err, ErrBadEntryID) {
			t.Errorf("ID %q: expected ErrBadEntryID, got %v", id, err)
		}
	}
}

func TestXAddPreservesFieldOrder(t *testing.T) {
	s := New()
	defer s.Close()

	fields := []string{"b", "2", "a", "1", "c", "3"}
	mustXAddFields(t, s, "s", "1-1", fields)

	s.mu.Lock()
	got := s.streams["s"][0].Fields
	s.mu.Unlock()

	if len(got) != len(fields) {
		t.Fatalf("Expected %d field strings, got %d", len(fields), len(got))
	}
	for i := range fields {
		if got[i] != fields[i] {
			t.Errorf("Field %d: expected %q, got %q", i, fields[i], got[i])
		}
	}
}

func mustXAddFields(t *testing.T, s *Store, key, id string, fields []string) {
	t.Helper()
	if _, err := s.XAdd(key, id, fields); err != nil {
		t.Fatalf("XAdd(%q, %q) failed: %v", key, id, err)
	}
}

func TestEntryIDOrdering(t *testing.T) {
	cases := []struct {
		a, b EntryID
		less bool
	}{
		{EntryID{1, 0}, EntryID{2, 0}, true},
		{EntryID{1, 5}, EntryID{2, 0}, true},
		{EntryID{2, 0}, EntryID{2, 1}, true},
		{EntryID{2, 1}, EntryID{2, 1}, false},
		{EntryID{3, 0}, EntryID{2, 9}, false},
	}
	for _, tc := range cases {
		if got := tc.a.Less(tc.b); got != tc.less {
			t.Errorf("%s < %s: expected %t, got %t", tc.a, tc.b, tc.less, got)
		}
	}
}
