// Package favorites tracks which businesses a profile has saved
package favorites

import (
	"context"
	"errors"
	"time"
)

var (
	ErrAlreadyFavorited = errors.New("already favorited")
	ErrNotFound         = errors.New("favorite not found")
)

// Favorite links a profile to a business
type Favorite struct {
	ID         int64     `json:"id"`
	ProfileID  int64     `json:"profileId"`
	BusinessID int64     `json:"businessId"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Store persists favorites. Create must reject duplicates of the same
// profile/business pair with ErrAlreadyFavorited.
type Store interface {
	Create(ctx context.Context, f *Favorite) error
	Delete(ctx context.Context, profileID, businessID int64) error
	ListByProfile(ctx context.Context, profileID int64) ([]*Favorite, error)
	CountByBusiness(ctx context.Context) (map[int64]int, error)
}

// Service wraps the favorite store
type Service struct {
	store Store
}

// NewService creates a favorites service
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Store exposes the underlying store
func (s *Service) Store() Store {
	return s.store
}

// Add saves a favorite for the profile
func (s *Service) Add(ctx context.Context, profileID, businessID int64) error {
	return s.store.Create(ctx, &Favorite{
		ProfileID:  profileID,
		BusinessID: businessID,
		CreatedAt:  time.Now(),
	})
}

// Remove deletes a favorite. Removing a favorite that does not exist is
// not an error, matching the idempotent delete the UI expects.
func (s *Service) Remove(ctx context.Context, profileID, businessID int64) error {
	err := s.store.Delete(ctx, profileID, businessID)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

// ListByProfile returns the profile's favorites, newest first
func (s *Service) ListByProfile(ctx context.Context, profileID int64) ([]*Favorite, error) {
	return s.store.ListByProfile(ctx, profileID)
}
