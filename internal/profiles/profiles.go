// Package profiles manages lightweight visitor profiles. A profile is
// just a unique nickname tied to a long-lived cookie; there are no
// passwords and no personal data.
package profiles

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rvahub/localspot/internal/validation"
)

var (
	ErrNotFound      = errors.New("profile not found")
	ErrNicknameTaken = errors.New("nickname already taken")
	ErrInvalidInput  = errors.New("invalid profile data")
)

// Profile is a visitor identity
type Profile struct {
	ID        int64     `json:"id"`
	Nickname  string    `json:"nickname"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store persists profiles. Create must fail with ErrNicknameTaken when
// the nickname exists, matching the unique constraint in Postgres.
type Store interface {
	Create(ctx context.Context, p *Profile) error
	Get(ctx context.Context, id int64) (*Profile, error)
	GetByNickname(ctx context.Context, nickname string) (*Profile, error)
	Count(ctx context.Context) (int, error)
}

// Service validates and persists profiles
type Service struct {
	store Store
}

// NewService creates a profile service
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Store exposes the underlying store
func (s *Service) Store() Store {
	return s.store
}

// Create validates the nickname and persists a new profile
func (s *Service) Create(ctx context.Context, nickname string) (*Profile, error) {
	p := &Profile{Nickname: validation.SanitizeString(nickname, 100), CreatedAt: time.Now()}
	if errs := Validate(p); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, errs.Error())
	}
	if err := s.store.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Get retrieves a profile by ID
func (s *Service) Get(ctx context.Context, id int64) (*Profile, error) {
	return s.store.Get(ctx, id)
}

// Validate checks the nickname charset and limits
func Validate(p *Profile) validation.ValidationErrors {
	return validation.Validate(
		validation.Required("nickname", p.Nickname),
		validation.MaxLength("nickname", p.Nickname, 100),
		validation.ValidNickname("nickname", p.Nickname),
	)
}
