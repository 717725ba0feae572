package profiles

import (
	"context"
	"strings"
	"sync"
)

// MemoryStore keeps profiles in memory for demo mode
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[int64]*Profile
	byNick   map[string]int64
	nextID   int64
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory profile store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles: make(map[int64]*Profile),
		byNick:   make(map[string]int64),
		nextID:   1,
	}
}

// Create stores a profile. Nickname uniqueness is case-insensitive.
func (s *MemoryStore) Create(_ context.Context, p *Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(p.Nickname)
	if _, taken := s.byNick[key]; taken {
		return ErrNicknameTaken
	}
	p.ID = s.nextID
	s.nextID++
	cp := *p
	s.profiles[p.ID] = &cp
	s.byNick[key] = p.ID
	return nil
}

// Get retrieves a profile by ID
func (s *MemoryStore) Get(_ context.Context, id int64) (*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

// GetByNickname retrieves a profile by nickname, case-insensitively
func (s *MemoryStore) GetByNickname(_ context.Context, nickname string) (*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byNick[strings.ToLower(nickname)]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s.profiles[id]
	return &cp, nil
}

// Count returns the number of profiles
func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.profiles), nil
}

// Reset clears all profiles
func (s *MemoryStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles = make(map[int64]*Profile)
	s.byNick = make(map[string]int64)
	s.nextID = 1
}
