// Package reports generates the analytics reports exposed on the reports
// page and the admin CSV exports. Aggregation runs in-process over the
// domain stores so memory and Postgres deployments produce identical
// results.
package reports

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/rvahub/localspot/internal/deals"
	"github.com/rvahub/localspot/internal/directory"
	"github.com/rvahub/localspot/internal/favorites"
	"github.com/rvahub/localspot/internal/reviews"
)

// Filters narrows a report. Zero values mean no constraint.
type Filters struct {
	Category        string     `json:"category,omitempty"`
	Neighborhood    string     `json:"neighborhood,omitempty"`
	StartDate       *time.Time `json:"startDate,omitempty"`
	EndDate         *time.Time `json:"endDate,omitempty"`
	MinReviews      int        `json:"minReviews,omitempty"`
	ExpiryWindow    int        `json:"expiryWindow,omitempty"`
	ActiveDealsOnly bool       `json:"activeDealsOnly,omitempty"`
}

// RatedBusiness is a row in the top-rated and most-reviewed reports
type RatedBusiness struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Category     string  `json:"category"`
	Neighborhood string  `json:"neighborhood"`
	AvgRating    float64 `json:"avgRating"`
	ReviewCount  int     `json:"reviewCount"`
}

// CategoryCount is a row in the category distribution report
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// ExpiringDeal is a row in the expiring-deals report
type ExpiringDeal struct {
	DealID       int64      `json:"dealId"`
	DealTitle    string     `json:"dealTitle"`
	CouponCode   string     `json:"couponCode,omitempty"`
	ExpiresOn    *time.Time `json:"expiresOn,omitempty"`
	IsActive     bool       `json:"isActive"`
	BusinessID   int64      `json:"businessId"`
	BusinessName string     `json:"businessName"`
	Category     string     `json:"category"`
	Neighborhood string     `json:"neighborhood"`
}

// FavoritedBusiness is a row in the most-favorited report
type FavoritedBusiness struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Category      string `json:"category"`
	Neighborhood  string `json:"neighborhood"`
	FavoriteCount int    `json:"favoriteCount"`
}

// Service builds reports from the domain stores
type Service struct {
	businesses directory.Store
	reviews    reviews.Store
	deals      deals.Store
	favorites  favorites.Store
	now        func() time.Time
}

// NewService creates a report service
func NewService(businesses directory.Store, reviewStore reviews.Store, dealStore deals.Store, favoriteStore favorites.Store) *Service {
	return &Service{
		businesses: businesses,
		reviews:    reviewStore,
		deals:      dealStore,
		favorites:  favoriteStore,
		now:        time.Now,
	}
}

// ratingStats aggregates reviews per business inside the optional date range
func (s *Service) ratingStats(ctx context.Context, f Filters) (map[int64]struct {
	sum   int
	count int
}, error) {
	all, err := s.reviews.List(ctx)
	if err != nil {
		return nil, err
	}
	stats := make(map[int64]struct {
		sum   int
		count int
	})
	for _, r := range all {
		if f.StartDate != nil && r.CreatedAt.Before(*f.StartDate) {
			continue
		}
		if f.EndDate != nil && r.CreatedAt.After(*f.EndDate) {
			continue
		}
		st := stats[r.BusinessID]
		st.sum += r.Rating
		st.count++
		stats[r.BusinessID] = st
	}
	return stats, nil
}

func (s *Service) filteredBusinesses(ctx context.Context, f Filters) ([]*directory.Business, error) {
	return s.businesses.List(ctx, directory.ListOptions{
		Category:     f.Category,
		Neighborhood: f.Neighborhood,
	})
}

// TopRated returns businesses ranked by average rating. Ratings within
// 0.01 of each other tie-break on review count.
func (s *Service) TopRated(ctx context.Context, f Filters) ([]RatedBusiness, error) {
	rows, err := s.ratedRows(ctx, f)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if math.Abs(rows[i].AvgRating-rows[j].AvgRating) < 0.01 {
			return rows[i].ReviewCount > rows[j].ReviewCount
		}
		return rows[i].AvgRating > rows[j].AvgRating
	})
	return rows, nil
}

// MostReviewed returns businesses ranked by review count
func (s *Service) MostReviewed(ctx context.Context, f Filters) ([]RatedBusiness, error) {
	rows, err := s.ratedRows(ctx, f)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].ReviewCount > rows[j].ReviewCount
	})
	return rows, nil
}

func (s *Service) ratedRows(ctx context.Context, f Filters) ([]RatedBusiness, error) {
	businesses, err := s.filteredBusinesses(ctx, f)
	if err != nil {
		return nil, err
	}
	stats, err := s.ratingStats(ctx, f)
	if err != nil {
		return nil, err
	}

	rows := make([]RatedBusiness, 0, len(businesses))
	for _, b := range businesses {
		st := stats[b.ID]
		if st.count < f.MinReviews {
			continue
		}
		avg := 0.0
		if st.count > 0 {
			avg = float64(st.sum) / float64(st.count)
		}
		rows = append(rows, RatedBusiness{
			ID:           b.ID,
			Name:         b.Name,
			Category:     b.Category,
			Neighborhood: b.Neighborhood,
			AvgRating:    avg,
			ReviewCount:  st.count,
		})
	}
	return rows, nil
}

// CategoryDistribution counts businesses per category, optionally within
// one neighborhood
func (s *Service) CategoryDistribution(ctx context.Context, f Filters) ([]CategoryCount, error) {
	businesses, err := s.businesses.List(ctx, directory.ListOptions{Neighborhood: f.Neighborhood})
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, b := range businesses {
		counts[b.Category]++
	}
	out := make([]CategoryCount, 0, len(counts))
	for category, n := range counts {
		out = append(out, CategoryCount{Category: category, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out, nil
}

// ExpiringDeals lists active deals whose expiry falls inside the window
// (default 7 days). Open-ended deals never expire so they are excluded.
func (s *Service) ExpiringDeals(ctx context.Context, f Filters) ([]ExpiringDeal, error) {
	window := f.ExpiryWindow
	if window <= 0 {
		window = 7
	}
	cutoff := s.now().AddDate(0, 0, window)

	allDeals, err := s.deals.List(ctx)
	if err != nil {
		return nil, err
	}

	var out []ExpiringDeal
	for _, d := range allDeals {
		if !d.IsActive || d.ExpiresOn == nil || d.ExpiresOn.After(cutoff) {
			continue
		}
		b, err := s.businesses.Get(ctx, d.BusinessID)
		if err != nil {
			continue
		}
		if f.Category != "" && b.Category != f.Category {
			continue
		}
		if f.Neighborhood != "" && b.Neighborhood != f.Neighborhood {
			continue
		}
		out = append(out, ExpiringDeal{
			DealID:       d.ID,
			DealTitle:    d.Title,
			CouponCode:   d.CouponCode,
			ExpiresOn:    d.ExpiresOn,
			IsActive:     d.IsActive,
			BusinessID:   b.ID,
			BusinessName: b.Name,
			Category:     b.Category,
			Neighborhood: b.Neighborhood,
		})
	}
	return out, nil
}

// MostFavorited lists businesses with at least one favorite, ranked by
// favorite count
func (s *Service) MostFavorited(ctx context.Context, f Filters) ([]FavoritedBusiness, error) {
	businesses, err := s.filteredBusinesses(ctx, f)
	if err != nil {
		return nil, err
	}
	counts, err := s.favorites.CountByBusiness(ctx)
	if err != nil {
		return nil, err
	}

	var out []FavoritedBusiness
	for _, b := range businesses {
		n := counts[b.ID]
		if n == 0 {
			continue
		}
		out = append(out, FavoritedBusiness{
			ID:            b.ID,
			Name:          b.Name,
			Category:      b.Category,
			Neighborhood:  b.Neighborhood,
			FavoriteCount: n,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].FavoriteCount > out[j].FavoriteCount })
	return out, nil
}
