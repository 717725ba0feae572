package deals

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rvahub/localspot/internal/directory"
)

// MemoryStore keeps deals in memory for demo mode. The active listing
// joins against the directory store the same way Postgres joins tables.
type MemoryStore struct {
	mu         sync.RWMutex
	deals      map[int64]*Deal
	nextID     int64
	businesses directory.Store
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory deal store
func NewMemoryStore(businesses directory.Store) *MemoryStore {
	return &MemoryStore{deals: make(map[int64]*Deal), nextID: 1, businesses: businesses}
}

// Create stores a deal, assigning an ID
func (s *MemoryStore) Create(_ context.Context, d *Deal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d.ID = s.nextID
	s.nextID++
	cp := *d
	s.deals[d.ID] = &cp
	return nil
}

// Get retrieves a deal by ID
func (s *MemoryStore) Get(_ context.Context, id int64) (*Deal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.deals[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *d
	return &cp, nil
}

// Update saves changes to an existing deal
func (s *MemoryStore) Update(_ context.Context, d *Deal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.deals[d.ID]; !ok {
		return ErrNotFound
	}
	cp := *d
	s.deals[d.ID] = &cp
	return nil
}

// Delete removes a deal
func (s *MemoryStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.deals[id]; !ok {
		return ErrNotFound
	}
	delete(s.deals, id)
	return nil
}

// List returns every deal ordered by ID
func (s *MemoryStore) List(_ context.Context) ([]*Deal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Deal, 0, len(s.deals))
	for _, d := range s.deals {
		cp := *d
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ListActive returns live deals joined with business data, latest expiry
// first and open-ended deals last
func (s *MemoryStore) ListActive(ctx context.Context, now time.Time) ([]*ActiveDeal, error) {
	s.mu.RLock()
	var live []*Deal
	for _, d := range s.deals {
		if d.Active(now) {
			cp := *d
			live = append(live, &cp)
		}
	}
	s.mu.RUnlock()

	sort.Slice(live, func(i, j int) bool {
		a, b := live[i].ExpiresOn, live[j].ExpiresOn
		switch {
		case a == nil && b == nil:
			return live[i].ID < live[j].ID
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})

	out := make([]*ActiveDeal, 0, len(live))
	for _, d := range live {
		b, err := s.businesses.Get(ctx, d.BusinessID)
		if errors.Is(err, directory.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, &ActiveDeal{
			Deal:         *d,
			BusinessName: b.Name,
			Category:     b.Category,
			Neighborhood: b.Neighborhood,
			Address:      b.Address,
		})
	}
	return out, nil
}

// Count returns the number of deals
func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.deals), nil
}

// Reset clears all deals
func (s *MemoryStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deals = make(map[int64]*Deal)
	s.nextID = 1
}
