// Package deals manages time-limited offers attached to businesses
package deals

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rvahub/localspot/internal/validation"
)

var (
	ErrNotFound     = errors.New("deal not found")
	ErrInvalidInput = errors.New("invalid deal data")
)

// Deal is an offer published by a business. A nil ExpiresOn means the
// deal runs until deactivated.
type Deal struct {
	ID          int64      `json:"id"`
	BusinessID  int64      `json:"businessId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	CouponCode  string     `json:"couponCode,omitempty"`
	ExpiresOn   *time.Time `json:"expiresOn,omitempty"`
	IsActive    bool       `json:"isActive"`
}

// Active reports whether the deal is live at t
func (d Deal) Active(t time.Time) bool {
	if !d.IsActive {
		return false
	}
	return d.ExpiresOn == nil || d.ExpiresOn.After(t)
}

// ActiveDeal is a live deal joined with its business display data
type ActiveDeal struct {
	Deal
	BusinessName string `json:"businessName"`
	Category     string `json:"category"`
	Neighborhood string `json:"neighborhood"`
	Address      string `json:"address"`
}

// Store persists deals
type Store interface {
	Create(ctx context.Context, d *Deal) error
	Get(ctx context.Context, id int64) (*Deal, error)
	Update(ctx context.Context, d *Deal) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]*Deal, error)
	ListActive(ctx context.Context, now time.Time) ([]*ActiveDeal, error)
	Count(ctx context.Context) (int, error)
}

// Service validates and persists deals
type Service struct {
	store Store
}

// NewService creates a deals service
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Store exposes the underlying store
func (s *Service) Store() Store {
	return s.store
}

// Create validates and persists a deal
func (s *Service) Create(ctx context.Context, d *Deal) (*Deal, error) {
	if errs := Validate(d); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, errs.Error())
	}
	normalize(d)
	if err := s.store.Create(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Update validates and saves changes to a deal
func (s *Service) Update(ctx context.Context, d *Deal) (*Deal, error) {
	if errs := Validate(d); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, errs.Error())
	}
	normalize(d)
	if err := s.store.Update(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Delete removes a deal
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.store.Delete(ctx, id)
}

// ListActive returns live deals joined with business data, soonest
// expiry last (mirroring the deals page ordering).
func (s *Service) ListActive(ctx context.Context) ([]*ActiveDeal, error) {
	return s.store.ListActive(ctx, time.Now())
}

// Validate checks deal fields against the form limits
func Validate(d *Deal) validation.ValidationErrors {
	errs := validation.Validate(
		validation.Required("title", d.Title),
		validation.MaxLength("title", d.Title, 200),
		validation.Required("description", d.Description),
		validation.MaxLength("description", d.Description, 2000),
		validation.MaxLength("couponCode", d.CouponCode, 100),
	)
	if d.BusinessID <= 0 {
		errs = append(errs, validation.ValidationError{Field: "businessId", Message: "must be a positive id"})
	}
	return errs
}

func normalize(d *Deal) {
	d.Title = validation.SanitizeString(d.Title, 200)
	d.Description = validation.SanitizeString(d.Description, 2000)
	d.CouponCode = validation.SanitizeString(d.CouponCode, 100)
}
