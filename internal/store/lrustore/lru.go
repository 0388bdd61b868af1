// Package lrustore implements a recency-ordered entry store.
package lrustore

import (
	"math"

	"github.com/hashicorp/golang-lru/v2/simplelru"

	"github.com/discochess/kvcache/internal/store"
)

// Compile-time check that Store implements store.Store.
var _ store.Store = (*Store)(nil)

// Store keeps entries in least-recently-used order.
// It never evicts on its own; capacity is enforced by the caller.
type Store struct {
	lru  *simplelru.LRU[string, *store.Entry]
	size int64
}

// New creates an empty store.
func New() *Store {
	// The underlying list is unbounded here; a size of MaxInt never triggers
	// its built-in eviction.
	l, err := simplelru.NewLRU[string, *store.Entry](math.MaxInt, nil)
	if err != nil {
		// Only returned for a non-positive size.
		panic(err)
	}
	return &Store{lru: l}
}

// Get retrieves an entry and marks it most recently used.
func (s *Store) Get(key string) (*store.Entry, bool) {
	return s.lru.Get(key)
}

// Peek retrieves an entry without changing its recency.
func (s *Store) Peek(key string) (*store.Entry, bool) {
	return s.lru.Peek(key)
}

// Put inserts or replaces an entry.
func (s *Store) Put(e *store.Entry) {
	if old, ok := s.lru.Peek(e.Key); ok {
		s.size -= old.Size
		// Remove first so a replaced key is ordered as a fresh insertion.
		s.lru.Remove(e.Key)
	}
	s.lru.Add(e.Key, e)
	s.size += e.Size
}

// Remove deletes an entry.
func (s *Store) Remove(key string) (*store.Entry, bool) {
	e, ok := s.lru.Peek(key)
	if !ok {
		return nil, false
	}
	s.lru.Remove(key)
	s.size -= e.Size
	return e, true
}

// Oldest returns the least recently used entry.
func (s *Store) Oldest() (*store.Entry, bool) {
	_, e, ok := s.lru.GetOldest()
	return e, ok
}

// Entries returns a snapshot of all entries, least recently used first.
func (s *Store) Entries() []*store.Entry {
	keys := s.lru.Keys()
	entries := make([]*store.Entry, 0, len(keys))
	for _, k := range keys {
		if e, ok := s.lru.Peek(k); ok {
			entries = append(entries, e)
		}
	}
	return entries
}

// Len returns the number of entries.
func (s *Store) Len() int {
	return s.lru.Len()
}

// Size returns the summed size estimate of all entries.
func (s *Store) Size() int64 {
	return s.size
}

// Purge removes all entries.
func (s *Store) Purge() {
	s.lru.Purge()
	s.size = 0
}
