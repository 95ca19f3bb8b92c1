package store

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// Stream ID errors. The texts (minus the wire "ERR " prefix) match what
// Redis clients expect to see from XADD.
var (
	// ErrBadEntryID reports an unparsable entry ID argument.
	ErrBadEntryID = errors.New("Invalid stream ID specified as stream command argument")

	// ErrIDTooSmall reports an ID that does not exceed the stream's top item.
	ErrIDTooSmall = errors.New("The ID specified in XADD is equal or smaller than the target stream top item")

	// ErrIDReserved reports the reserved 0-0 ID, which is never a valid
	// entry ID.
	ErrIDReserved = errors.New("The ID specified in XADD must be greater than 0-0")
)

// EntryID identifies a stream entry as a (milliseconds, sequence) pair,
// totally ordered lexicographically. The zero value is the reserved
// sentinel 0-0, which precedes every real entry.
type EntryID struct {
	Ms  uint64
	Seq uint64
}

// String formats the ID in the wire form "ms-seq".
func (id EntryID) String() string {
	return strconv.FormatUint(id.Ms, 10) + "-" + strconv.FormatUint(id.Seq, 10)
}

// Less reports whether id orders strictly before other.
func (id EntryID) Less(other EntryID) bool {
	if id.Ms != other.Ms {
		return id.Ms < other.Ms
	}
	return id.Seq < other.Seq
}

// StreamEntry is one immutable record in a stream: its ID and an ordered
// flat sequence of field, value, field, value, ... strings.
type StreamEntry struct {
	ID     EntryID
	Fields []string
}

// XAdd appends an entry to the stream at key, creating the stream if
// absent. rawID is "*" for a fully auto-generated ID, "<ms>-*" for an
// auto-generated sequence within an explicit millisecond, or "<ms>-<seq>".
// The resulting ID must strictly exceed the stream's current top item;
// violations return ErrIDTooSmall or ErrIDReserved and leave the stream
// unchanged. Returns the ID actually assigned.
func (s *Store) XAdd(key, rawID string, fields []string) (EntryID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	last := EntryID{} // reserved sentinel 0-0 for an empty stream
	if entries := s.streams[key]; len(entries) > 0 {
		last = entries[len(entries)-1].ID
	}

	id, err := nextEntryID(last, rawID)
	if err != nil {
		return EntryID{}, err
	}

	entry := StreamEntry{ID: id, Fields: append([]string(nil), fields...)}
	s.streams[key] = append(s.streams[key], entry)
	return id, nil
}

// XLen returns the number of entries in the stream at key.
func (s *Store) XLen(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.streams[key])
}

// nextEntryID resolves a requested ID against the stream's top item,
// enforcing strict monotonic growth.
func nextEntryID(last EntryID, rawID string) (EntryID, error) {
	if rawID == "*" {
		now := uint64(time.Now().UnixMilli())
		if now > last.Ms {
			return EntryID{Ms: now}, nil
		}
		// Clock at or behind the top item: stay monotonic.
		return EntryID{Ms: last.Ms, Seq: last.Seq + 1}, nil
	}

	msPart, seqPart, ok := strings.Cut(rawID, "-")
	if !ok {
		return EntryID{}, ErrBadEntryID
	}
	ms, err := strconv.ParseUint(msPart, 10, 64)
	if err != nil {
		return EntryID{}, ErrBadEntryID
	}

	if seqPart == "*" {
		switch {
		case ms < last.Ms:
			return EntryID{}, ErrIDTooSmall
		case ms == last.Ms:
			return EntryID{Ms: ms, Seq: last.Seq + 1}, nil
		default:
			return EntryID{Ms: ms}, nil
		}
	}

	seq, err := strconv.ParseUint(seqPart, 10, 64)
	if err != nil {
		return EntryID{}, ErrBadEntryID
	}
	id := EntryID{Ms: ms, Seq: seq}
	if id == (EntryID{}) {
		return EntryID{}, ErrIDReserved
	}
	if !last.Less(id) {
		return EntryID{}, ErrIDTooSmall
	}
	return id, nil
}
