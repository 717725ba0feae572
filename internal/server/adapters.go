package server

import (
	"context"
	"errors"
	"time"

	"github.com/rvahub/localspot/internal/deals"
	"github.com/rvahub/localspot/internal/directory"
	"github.com/rvahub/localspot/internal/reviews"
)

// -----------------------------------------------------------------------------
// Store Adapters (demo mode)
// -----------------------------------------------------------------------------

// businessChecker adapts directory.Store to reviews.BusinessChecker
type businessChecker struct {
	store directory.Store
}

func (b *businessChecker) Exists(ctx context.Context, businessID int64) (bool, error) {
	_, err := b.store.Get(ctx, businessID)
	if errors.Is(err, directory.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// memorySignalSource aggregates the in-memory stores into the signal
// snapshots the scorer consumes. The Postgres store computes the same
// aggregation in SQL; demo mode walks the stores instead.
type memorySignalSource struct {
	businesses directory.Store
	reviews    reviews.Store
	deals      deals.Store
}

var _ directory.SignalSource = (*memorySignalSource)(nil)

func (m *memorySignalSource) Signals(ctx context.Context, filter directory.SignalFilter) ([]directory.Signal, error) {
	businesses, err := m.businesses.List(ctx, directory.ListOptions{
		Category:     filter.Category,
		Neighborhood: filter.Neighborhood,
	})
	if err != nil {
		return nil, err
	}

	active, err := m.deals.ListActive(ctx, time.Now())
	if err != nil {
		return nil, err
	}
	hasDeals := make(map[int64]bool, len(active))
	for _, d := range active {
		hasDeals[d.BusinessID] = true
	}

	out := make([]directory.Signal, 0, len(businesses))
	for _, b := range businesses {
		revs, err := m.reviews.ListByBusiness(ctx, b.ID)
		if err != nil {
			return nil, err
		}
		var avg float64
		if len(revs) > 0 {
			var sum int
			for _, r := range revs {
				sum += r.Rating
			}
			avg = float64(sum) / float64(len(revs))
		}
		out = append(out, directory.Signal{
			ID:             b.ID,
			Name:           b.Name,
			Category:       b.Category,
			Neighborhood:   b.Neighborhood,
			Address:        b.Address,
			TagsCSV:        b.TagsCSV,
			Tags:           b.Tags(),
			AvgRating:      avg,
			ReviewCount:    len(revs),
			HasActiveDeals: hasDeals[b.ID],
		})
	}
	return out, nil
}
