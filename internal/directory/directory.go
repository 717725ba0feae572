// Package directory manages the business records at the heart of Localspot:
// CRUD for admins, browse/search for visitors, and the aggregate signal
// snapshots consumed by the recommendation scorer.
package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rvahub/localspot/internal/validation"
)

var (
	ErrNotFound     = errors.New("business not found")
	ErrInvalidInput = errors.New("invalid business data")
)

// Business is a directory listing.
type Business struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Category     string    `json:"category"`
	Neighborhood string    `json:"neighborhood"`
	Address      string    `json:"address"`
	Phone        string    `json:"phone,omitempty"`
	Website      string    `json:"website,omitempty"`
	Description  string    `json:"description,omitempty"`
	TagsCSV      string    `json:"tagsCsv,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Tags returns the business's tags parsed from the comma-separated field:
// lowercased, trimmed, empties dropped.
func (b *Business) Tags() []string {
	return ParseTags(b.TagsCSV)
}

// ParseTags splits a comma-separated tag field into normalized tags.
func ParseTags(csv string) []string {
	if csv == "" {
		return nil
	}
	parts := strings.Split(strings.ToLower(csv), ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// Signal is the read-only aggregate snapshot of one business used for
// scoring: current rating average, review count, and active-deal flag.
type Signal struct {
	ID             int64    `json:"id"`
	Name           string   `json:"name"`
	Category       string   `json:"category"`
	Neighborhood   string   `json:"neighborhood"`
	Address        string   `json:"address"`
	TagsCSV        string   `json:"tagsCsv,omitempty"`
	Tags           []string `json:"tags,omitempty"`
	AvgRating      float64  `json:"avgRating"`
	ReviewCount    int      `json:"reviewCount"`
	HasActiveDeals bool     `json:"hasActiveDeals"`
}

// ListOptions filter and order business listings.
type ListOptions struct {
	Category     string // exact match
	Neighborhood string // exact match
	Search       string // case-insensitive name substring
	Sort         string // "name" (default), "newest"; handlers also accept "rating" and "reviews"
	Limit        int
	Offset       int
}

// SignalFilter narrows the aggregate snapshot by hard equality filters.
// Empty fields mean no constraint.
type SignalFilter struct {
	Category     string
	Neighborhood string
}

// Store persists businesses.
type Store interface {
	Create(ctx context.Context, b *Business) error
	Get(ctx context.Context, id int64) (*Business, error)
	List(ctx context.Context, opts ListOptions) ([]*Business, error)
	Update(ctx context.Context, b *Business) error
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int, error)
}

// SignalSource produces aggregate signal snapshots for scoring and reports.
// The Postgres store computes these in SQL; demo mode uses a server-level
// adapter over the in-memory stores.
type SignalSource interface {
	Signals(ctx context.Context, filter SignalFilter) ([]Signal, error)
}

// Service wraps a Store with input validation.
type Service struct {
	store Store
}

// NewService creates a new directory service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Store exposes the underlying store for read-side handlers.
func (s *Service) Store() Store {
	return s.store
}

// Get retrieves a single business.
func (s *Service) Get(ctx context.Context, id int64) (*Business, error) {
	return s.store.Get(ctx, id)
}

// List returns businesses matching the options.
func (s *Service) List(ctx context.Context, opts ListOptions) ([]*Business, error) {
	return s.store.List(ctx, opts)
}

// Create validates and persists a new business.
func (s *Service) Create(ctx context.Context, b *Business) (*Business, error) {
	if errs := ValidateBusiness(b); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, errs.Error())
	}
	normalize(b)
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}
	if err := s.store.Create(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// Update validates and saves changes to an existing business.
func (s *Service) Update(ctx context.Context, b *Business) (*Business, error) {
	if errs := ValidateBusiness(b); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, errs.Error())
	}
	normalize(b)
	if err := s.store.Update(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// Delete removes a business and (via FK cascade) its reviews, favorites, and deals.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.store.Delete(ctx, id)
}

// ValidateBusiness checks field presence and limits, mirroring the admin form.
func ValidateBusiness(b *Business) validation.ValidationErrors {
	return validation.Validate(
		validation.Required("name", b.Name),
		validation.MaxLength("name", b.Name, 200),
		validation.Required("category", b.Category),
		validation.MaxLength("category", b.Category, 100),
		validation.Required("neighborhood", b.Neighborhood),
		validation.MaxLength("neighborhood", b.Neighborhood, 100),
		validation.Required("address", b.Address),
		validation.MaxLength("address", b.Address, 500),
		validation.MaxLength("phone", b.Phone, 20),
		validation.ValidURL("website", b.Website),
		validation.MaxLength("website", b.Website, 500),
		validation.MaxLength("description", b.Description, 2000),
		validation.MaxLength("tagsCsv", b.TagsCSV, 500),
	)
}

func normalize(b *Business) {
	b.Name = validation.SanitizeString(b.Name, 200)
	b.Category = validation.SanitizeString(b.Category, 100)
	b.Neighborhood = validation.SanitizeString(b.Neighborhood, 100)
	b.Address = validation.SanitizeString(b.Address, 500)
	b.Phone = validation.SanitizeString(b.Phone, 20)
	b.Website = validation.SanitizeString(b.Website, 500)
	b.Description = validation.SanitizeString(b.Description, 2000)
	b.TagsCSV = validation.SanitizeString(b.TagsCSV, 500)
}
