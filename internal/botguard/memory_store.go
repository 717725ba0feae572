package botguard

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is the process-local challenge store. Expiry is checked on
// Take; a background sweep clears tokens that were never verified.
type MemoryStore struct {
	mu         sync.Mutex
	challenges map[string]Challenge
	stop       chan struct{}
	stopOnce   sync.Once
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates a challenge store. sweepInterval <= 0 disables
// the background sweep; Take still enforces expiry.
func NewMemoryStore(sweepInterval time.Duration) *MemoryStore {
	s := &MemoryStore{
		challenges: make(map[string]Challenge),
		stop:       make(chan struct{}),
	}
	if sweepInterval > 0 {
		go s.sweepLoop(sweepInterval)
	}
	return s
}

// Put stores a challenge under its token
func (s *MemoryStore) Put(_ context.Context, c Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.challenges[c.Token] = c
	return nil
}

// Take removes and returns the challenge for token. The removal happens
// under the lock so concurrent verifications cannot both succeed.
func (s *MemoryStore) Take(_ context.Context, token string) (Challenge, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.challenges[token]
	if ok {
		delete(s.challenges, token)
	}
	return c, ok, nil
}

// Len reports the number of pending challenges
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.challenges)
}

// Stop terminates the background sweep
func (s *MemoryStore) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *MemoryStore) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case now := <-ticker.C:
			s.sweep(now)
		}
	}
}

func (s *MemoryStore) sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, c := range s.challenges {
		if now.After(c.ExpiresAt) {
			delete(s.challenges, token)
		}
	}
}
