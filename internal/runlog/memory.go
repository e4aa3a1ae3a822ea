package runlog

import (
	"context"
	"sync"
)

// MemoryStore keeps records in memory for quick inspection.
type MemoryStore struct {
	mu      sync.Mutex
	records []Record
}

// NewMemoryStore creates an empty store optionally pre-sizing storage.
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity < 0 {
		capacity = 0
	}
	return &MemoryStore{records: make([]Record, 0, capacity)}
}

// Save appends rec.
func (s *MemoryStore) Save(_ context.Context, rec Record) error {
	s.mu.Lock()
	s.records = append(s.records, rec)
	s.mu.Unlock()
	return nil
}

// Snapshot returns a copy of the saved records.
func (s *MemoryStore) Snapshot() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

// Reset clears all stored records.
func (s *MemoryStore) Reset() {
	s.mu.Lock()
	s.records = s.records[:0]
	s.mu.Unlock()
}

func (s *MemoryStore) Close() error { return nil }
