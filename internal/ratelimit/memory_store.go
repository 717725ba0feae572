package ratelimit

import (
	"context"
	"sync"
	"time"
)

type record struct {
	count   int
	resetAt time.Time
}

// MemoryStore is the process-local counter store
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]*record
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an in-memory counter store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*record)}
}

// Hit increments the counter for key under a single lock. A missing or
// expired record starts a fresh window at count 1; a full window denies
// without incrementing.
func (s *MemoryStore) Hit(_ context.Context, key string, now time.Time, window time.Duration, max int) (Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[key]
	if !ok || now.After(r.resetAt) {
		resetAt := now.Add(window)
		s.records[key] = &record{count: 1, resetAt: resetAt}
		return Decision{Allowed: true, ResetAt: resetAt}, nil
	}

	if r.count >= max {
		return Decision{Allowed: false, ResetAt: r.resetAt}, nil
	}
	r.count++
	return Decision{Allowed: true, ResetAt: r.resetAt}, nil
}

// Len reports the number of tracked clients
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
