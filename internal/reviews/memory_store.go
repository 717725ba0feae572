package reviews

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps reviews in memory for demo mode
type MemoryStore struct {
	mu      sync.RWMutex
	reviews map[int64]*Review
	nextID  int64
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory review store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{reviews: make(map[int64]*Review), nextID: 1}
}

// Create stores a review, assigning an ID
func (s *MemoryStore) Create(_ context.Context, r *Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = s.nextID
	s.nextID++
	cp := *r
	s.reviews[r.ID] = &cp
	return nil
}

// ListByBusiness returns reviews for one business, newest first
func (s *MemoryStore) ListByBusiness(_ context.Context, businessID int64) ([]*Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Review
	for _, r := range s.reviews {
		if r.BusinessID == businessID {
			cp := *r
			out = append(out, &cp)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

// List returns every review, newest first
func (s *MemoryStore) List(_ context.Context) ([]*Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Review, 0, len(s.reviews))
	for _, r := range s.reviews {
		cp := *r
		out = append(out, &cp)
	}
	sortNewestFirst(out)
	return out, nil
}

// Count returns the number of reviews
func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.reviews), nil
}

// Reset clears all reviews
func (s *MemoryStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reviews = make(map[int64]*Review)
	s.nextID = 1
}

func sortNewestFirst(rs []*Review) {
	sort.Slice(rs, func(i, j int) bool {
		if !rs[i].CreatedAt.Equal(rs[j].CreatedAt) {
			return rs[i].CreatedAt.After(rs[j].CreatedAt)
		}
		return rs[i].ID > rs[j].ID
	})
}
