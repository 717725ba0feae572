package favorites

import (
	"context"
	"sort"
	"sync"
)

type pairKey struct {
	profileID  int64
	businessID int64
}

// MemoryStore keeps favorites in memory for demo mode
type MemoryStore struct {
	mu        sync.RWMutex
	favorites map[pairKey]*Favorite
	nextID    int64
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory favorites store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{favorites: make(map[pairKey]*Favorite), nextID: 1}
}

// Create stores a favorite, rejecting duplicates
func (s *MemoryStore) Create(_ context.Context, f *Favorite) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pairKey{f.ProfileID, f.BusinessID}
	if _, exists := s.favorites[key]; exists {
		return ErrAlreadyFavorited
	}
	f.ID = s.nextID
	s.nextID++
	cp := *f
	s.favorites[key] = &cp
	return nil
}

// Delete removes a favorite
func (s *MemoryStore) Delete(_ context.Context, profileID, businessID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pairKey{profileID, businessID}
	if _, exists := s.favorites[key]; !exists {
		return ErrNotFound
	}
	delete(s.favorites, key)
	return nil
}

// ListByProfile returns the profile's favorites, newest first
func (s *MemoryStore) ListByProfile(_ context.Context, profileID int64) ([]*Favorite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Favorite
	for _, f := range s.favorites {
		if f.ProfileID == profileID {
			cp := *f
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

// CountByBusiness returns favorite counts keyed by business ID
func (s *MemoryStore) CountByBusiness(_ context.Context) (map[int64]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[int64]int)
	for _, f := range s.favorites {
		counts[f.BusinessID]++
	}
	return counts, nil
}

// Reset clears all favorites
func (s *MemoryStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.favorites = make(map[pairKey]*Favorite)
	s.nextID = 1
}
