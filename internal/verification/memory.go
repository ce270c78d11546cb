package verification

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps verification records in a process-local map. It is the
// default backend for single-instance deployments; a restart simply
// invalidates all outstanding codes.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]Record
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

// Save inserts or overwrites the record under its key.
func (s *MemoryStore) Save(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[rec.Key] = rec
	return nil
}

// Get returns a copy of the record for the key.
func (s *MemoryStore) Get(_ context.Context, key string) (Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[key]
	return rec, ok, nil
}

// Consume runs the whole validation decision under the store mutex so
// concurrent submissions for the same key serialize. Only one caller can see
// StatusValid for a record.
func (s *MemoryStore) Consume(_ context.Context, key, submitted string, now time.Time, maxAttempts int) (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[key]
	if !ok {
		return StatusNotFound, nil
	}

	if now.After(rec.ExpiresAt) {
		delete(s.records, key)
		return StatusExpired, nil
	}

	if rec.Attempts >= maxAttempts {
		delete(s.records, key)
		return StatusLocked, nil
	}

	if submitted != rec.Code {
		rec.Attempts++
		s.records[key] = rec
		return StatusMismatch, nil
	}

	// Single use: a matched code consumes the record.
	delete(s.records, key)
	return StatusValid, nil
}

// Delete removes the record for the key.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, key)
	return nil
}

// SweepExpired removes records whose expiry is at or before now.
func (s *MemoryStore) SweepExpired(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, rec := range s.records {
		if now.After(rec.ExpiresAt) {
			delete(s.records, key)
			removed++
		}
	}
	return removed, nil
}

// Len reports the number of outstanding records.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.records)
}
