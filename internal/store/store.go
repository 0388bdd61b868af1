// Package store defines the entry store that backs the cache.
package store

import "time"

// Entry is a single cached value and its bookkeeping.
type Entry struct {
	Key            string
	Value          any
	CreatedAt      time.Time
	ExpiresAt      time.Time
	LastAccessedAt time.Time
	Size           int64
}

// Expired reports whether the entry is logically absent at now.
// An entry expires at, not after, its ExpiresAt instant.
func (e *Entry) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// Store defines the interface for entry stores.
// Implementations are not required to be safe for concurrent use; the cache
// serializes every call under its own lock.
type Store interface {
	// Get returns the entry for key and marks it most recently used.
	Get(key string) (*Entry, bool)

	// Peek returns the entry for key without touching its recency.
	Peek(key string) (*Entry, bool)

	// Put inserts or replaces the entry for e.Key and marks it most recently used.
	Put(e *Entry)

	// Remove deletes the entry for key. Returns false if it was absent.
	Remove(key string) (*Entry, bool)

	// Oldest returns the least recently used entry.
	Oldest() (*Entry, bool)

	// Entries returns all entries from least to most recently used.
	Entries() []*Entry

	// Len returns the number of entries.
	Len() int

	// Size returns the sum of Size over all entries.
	Size() int64

	// Purge removes every entry.
	Purge()
}
