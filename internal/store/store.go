package store

import (
	"sync"

	"github.com/zdemat/interceptor/pkg/types"
)

// Store is a thread-safe, append-only record collection for a single run.
// A record's identity is the full field tuple, so re-delivery of an
// already-seen record is a no-op. Growth is unbounded, there is no removal
// and no eviction for the lifetime of the run.
type Store struct {
	mu       sync.RWMutex
	records  []types.Record
	seen     map[types.Key]struct{}
	maxFrame int
}

// New creates an empty Store.
func New() *Store {
	return &Store{seen: make(map[types.Key]struct{})}
}

// Append adds the records that have not been seen before, preserving their
// arrival order, and returns how many were actually added.
func (s *Store) Append(records []types.Record) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for _, r := range records {
		k := r.Key()
		if _, dup := s.seen[k]; dup {
			continue
		}
		s.seen[k] = struct{}{}
		s.records = append(s.records, r)
		if r.FrameIdx > s.maxFrame || len(s.records) == 1 {
			s.maxFrame = r.FrameIdx
		}
		added++
	}
	return added
}

// All returns a copy of the full history in arrival order.
func (s *Store) All() []types.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Record, len(s.records))
	copy(out, s.records)
	return out
}

// Len returns the number of records held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// MaxFrame returns the largest frame index seen so far. The boolean is false
// while the store is empty.
func (s *Store) MaxFrame() (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.records) == 0 {
		return 0, false
	}
	return s.maxFrame, true
}
