package directory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an in-memory implementation of Store for demo mode and tests
type MemoryStore struct {
	mu         sync.RWMutex
	businesses map[int64]*Business
	nextID     int64
}

// NewMemoryStore creates a new in-memory business store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		businesses: make(map[int64]*Business),
		nextID:     1,
	}
}

// Compile-time interface check
var _ Store = (*MemoryStore)(nil)

// Create persists a new business, assigning an ID
func (m *MemoryStore) Create(ctx context.Context, b *Business) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if b.ID == 0 {
		b.ID = m.nextID
		m.nextID++
	} else if b.ID >= m.nextID {
		m.nextID = b.ID + 1
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}
	copy := *b
	m.businesses[b.ID] = &copy
	return nil
}

// Get retrieves a business by ID
func (m *MemoryStore) Get(ctx context.Context, id int64) (*Business, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.businesses[id]
	if !ok {
		return nil, ErrNotFound
	}
	copy := *b
	return &copy, nil
}

// List returns businesses matching the options
func (m *MemoryStore) List(ctx context.Context, opts ListOptions) ([]*Business, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Business
	search := strings.ToLower(opts.Search)
	for _, b := range m.businesses {
		if opts.Category != "" && b.Category != opts.Category {
			continue
		}
		if opts.Neighborhood != "" && b.Neighborhood != opts.Neighborhood {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(b.Name), search) {
			continue
		}
		copy := *b
		out = append(out, &copy)
	}

	switch opts.Sort {
	case "newest":
		sort.Slice(out, func(i, j int) bool {
			if out[i].CreatedAt.Equal(out[j].CreatedAt) {
				return out[i].ID > out[j].ID
			}
			return out[i].CreatedAt.After(out[j].CreatedAt)
		})
	default: // name
		sort.Slice(out, func(i, j int) bool {
			return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
		})
	}

	if opts.Offset > 0 {
		if opts.Offset >= len(out) {
			return []*Business{}, nil
		}
		out = out[opts.Offset:]
	}
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

// Update saves changes to an existing business
func (m *MemoryStore) Update(ctx context.Context, b *Business) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.businesses[b.ID]
	if !ok {
		return ErrNotFound
	}
	b.CreatedAt = existing.CreatedAt
	copy := *b
	m.businesses[b.ID] = &copy
	return nil
}

// Delete removes a business
func (m *MemoryStore) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.businesses[id]; !ok {
		return ErrNotFound
	}
	delete(m.businesses, id)
	return nil
}

// Count returns the number of businesses
func (m *MemoryStore) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.businesses), nil
}

// Reset clears all businesses (demo reset)
func (m *MemoryStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.businesses = make(map[int64]*Business)
	m.nextID = 1
}
