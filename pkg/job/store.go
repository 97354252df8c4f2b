package job

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound is returned when a job id has no recorded terminal state.
var ErrNotFound = errors.New("job not found")

// Store persists terminal job records. RecordJob is called exactly once
// per job, at its terminal transition; the record must not be mutated
// afterwards.
type Store interface {
	RecordJob(ctx context.Context, rec *Record) error
	GetJob(ctx context.Context, id string) (*Record, error)
}

// MemoryStore keeps terminal records in memory. It is the default when
// no database is configured, and the test double everywhere else.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]*Record
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]*Record)}
}

// RecordJob stores the terminal record.
func (s *MemoryStore) RecordJob(_ context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[rec.ID] = rec
	return nil
}

// GetJob returns the terminal record for id, or ErrNotFound.
func (s *MemoryStore) GetJob(_ context.Context, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return rec, nil
}
