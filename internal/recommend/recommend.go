// Package recommend ranks businesses against search filters. The scorer is
// pure: it never filters, never touches storage, and ties keep input order.
package recommend

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rvahub/localspot/internal/directory"
	"github.com/rvahub/localspot/internal/query"
)

// ScoredResult is one ranked business with the reasons that contributed.
// The reason order follows rule evaluation order and is part of the contract.
type ScoredResult struct {
	BusinessID int64    `json:"businessId"`
	Score      float64  `json:"score"`
	Reasons    []string `json:"reasons"`
}

// Score ranks signals against filters, descending by score. The sort is
// stable so equal scores keep their input order. Hard filters on category
// and neighborhood are the caller's job; Score only ranks what it is given.
func Score(filters query.Filters, signals []directory.Signal) []ScoredResult {
	scored := make([]ScoredResult, 0, len(signals))
	for _, s := range signals {
		scored = append(scored, scoreOne(filters, s))
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return scored
}

func scoreOne(filters query.Filters, s directory.Signal) ScoredResult {
	var score float64
	var reasons []string

	// Rating base
	score += s.AvgRating * 10
	if s.AvgRating >= 4 {
		reasons = append(reasons, fmt.Sprintf("highly rated (%.1f stars)", s.AvgRating))
	}

	// Review count tiers
	if s.ReviewCount >= 10 {
		score += 20
		reasons = append(reasons, fmt.Sprintf("well-reviewed (%d reviews)", s.ReviewCount))
	} else if s.ReviewCount >= 5 {
		score += 10
		reasons = append(reasons, fmt.Sprintf("established (%d reviews)", s.ReviewCount))
	}

	// Deals. The branches are exclusive: a deals-only search weighs an
	// active deal heavier than a deal found incidentally.
	if s.HasActiveDeals && filters.DealsOnly {
		score += 30
		reasons = append(reasons, "has active deals")
	} else if s.HasActiveDeals {
		score += 15
		reasons = append(reasons, "offers deals")
	}

	// Tag overlap. A requested tag matches when it appears as a substring
	// of any business tag, so "coffee" matches "coffee roaster".
	if len(filters.Tags) > 0 && len(s.Tags) > 0 {
		var matched []string
		for _, want := range filters.Tags {
			w := strings.ToLower(want)
			for _, have := range s.Tags {
				if strings.Contains(have, w) {
					matched = append(matched, want)
					break
				}
			}
		}
		if len(matched) > 0 {
			score += float64(len(matched)) * 10
			reasons = append(reasons, "matches your preferences: "+strings.Join(matched, ", "))
		}
	}

	// Budget. Only the low tier scores today; medium and high carry no
	// price signal until businesses record price data.
	if filters.Budget == query.BudgetLow {
		tagText := strings.ToLower(s.TagsCSV)
		if strings.Contains(tagText, "affordable") ||
			strings.Contains(tagText, "cheap") ||
			strings.Contains(tagText, "budget") {
			score += 15
			reasons = append(reasons, "affordable pricing")
		}
	}

	return ScoredResult{BusinessID: s.ID, Score: score, Reasons: reasons}
}
