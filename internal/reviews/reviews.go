// Package reviews manages visitor reviews of businesses
package reviews

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rvahub/localspot/internal/validation"
)

var (
	ErrNotFound     = errors.New("review not found")
	ErrInvalidInput = errors.New("invalid review data")
)

// Review is one visitor review. Display fields are stored raw and
// HTML-escaped on the way out.
type Review struct {
	ID          int64     `json:"id"`
	BusinessID  int64     `json:"businessId"`
	Rating      int       `json:"rating"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	DisplayName string    `json:"displayName"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Escaped returns a copy safe to render in HTML contexts
func (r Review) Escaped() Review {
	r.Title = validation.EscapeHTML(r.Title)
	r.Body = validation.EscapeHTML(r.Body)
	r.DisplayName = validation.EscapeHTML(r.DisplayName)
	return r
}

// Store persists reviews
type Store interface {
	Create(ctx context.Context, r *Review) error
	ListByBusiness(ctx context.Context, businessID int64) ([]*Review, error)
	List(ctx context.Context) ([]*Review, error)
	Count(ctx context.Context) (int, error)
}

// BusinessChecker reports whether a business exists. Satisfied by the
// directory store.
type BusinessChecker interface {
	Exists(ctx context.Context, businessID int64) (bool, error)
}

// Service validates and persists reviews
type Service struct {
	store      Store
	businesses BusinessChecker
}

// NewService creates a review service
func NewService(store Store, businesses BusinessChecker) *Service {
	return &Service{store: store, businesses: businesses}
}

// Store exposes the underlying store for read-side consumers
func (s *Service) Store() Store {
	return s.store
}

// Create validates the review and persists it. The business must exist.
func (s *Service) Create(ctx context.Context, r *Review) (*Review, error) {
	if errs := Validate(r); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, errs.Error())
	}

	ok, err := s.businesses.Exists(ctx, r.BusinessID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}

	r.Title = validation.SanitizeString(r.Title, 200)
	r.Body = validation.SanitizeString(r.Body, 2000)
	r.DisplayName = validation.SanitizeString(r.DisplayName, 100)
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	if err := s.store.Create(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// ListByBusiness returns a business's reviews with display fields escaped
func (s *Service) ListByBusiness(ctx context.Context, businessID int64) ([]Review, error) {
	raw, err := s.store.ListByBusiness(ctx, businessID)
	if err != nil {
		return nil, err
	}
	out := make([]Review, 0, len(raw))
	for _, r := range raw {
		out = append(out, r.Escaped())
	}
	return out, nil
}

// Validate checks review fields against the form limits
func Validate(r *Review) validation.ValidationErrors {
	errs := validation.Validate(
		validation.IntRange("rating", r.Rating, 1, 5),
		validation.Required("title", r.Title),
		validation.MaxLength("title", r.Title, 200),
		validation.Required("body", r.Body),
		validation.MaxLength("body", r.Body, 2000),
		validation.Required("displayName", r.DisplayName),
		validation.MaxLength("displayName", r.DisplayName, 100),
	)
	if r.BusinessID <= 0 {
		errs = append(errs, validation.ValidationError{Field: "businessId", Message: "must be a positive id"})
	}
	return errs
}
