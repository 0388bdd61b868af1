// Package eviction removes entries from a store by policy.
//
// Two passes are provided. ExpireStale drops entries whose TTL has elapsed.
// EnforceCapacity drops least-recently-used entries until the store fits its
// entry and memory ceilings. Callers must hold whatever lock guards the store.
package eviction

import (
	"time"

	"github.com/discochess/kvcache/internal/store"
)

// Reason identifies why an entry was evicted.
type Reason int

const (
	// Expired means the entry's TTL elapsed.
	Expired Reason = iota
	// Capacity means the entry was dropped to satisfy a limit.
	Capacity
)

// String returns the reason name.
func (r Reason) String() string {
	switch r {
	case Expired:
		return "expired"
	case Capacity:
		return "capacity"
	default:
		return "unknown"
	}
}

// Limits are the ceilings enforced by the capacity pass.
// A non-positive field disables that ceiling.
type Limits struct {
	MaxEntries int
	MaxMemory  int64
}

// Exceeded reports whether s is over either ceiling.
func (l Limits) Exceeded(s store.Store) bool {
	if l.MaxEntries > 0 && s.Len() > l.MaxEntries {
		return true
	}
	if l.MaxMemory > 0 && s.Size() > l.MaxMemory {
		return true
	}
	return false
}

// Func is called once for every evicted entry.
type Func func(e *store.Entry, reason Reason)

// ExpireStale removes every entry that is expired at now and returns how many
// were removed. Removal order is unspecified.
func ExpireStale(s store.Store, now time.Time, onEvict Func) int {
	removed := 0
	for _, e := range s.Entries() {
		if !e.Expired(now) {
			continue
		}
		if _, ok := s.Remove(e.Key); ok {
			removed++
			if onEvict != nil {
				onEvict(e, Expired)
			}
		}
	}
	return removed
}

// EnforceCapacity evicts least-recently-used entries until s is within limits
// and returns how many were removed. An entry that alone exceeds MaxMemory is
// not special-cased: it is evicted once it is the oldest remaining entry.
func EnforceCapacity(s store.Store, limits Limits, onEvict Func) int {
	removed := 0
	for limits.Exceeded(s) {
		oldest, ok := s.Oldest()
		if !ok {
			break
		}
		s.Remove(oldest.Key)
		removed++
		if onEvict != nil {
			onEvict(oldest, Capacity)
		}
	}
	return removed
}
