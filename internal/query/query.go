// Package query turns free-text search input into normalized finder filters.
//
// Parsing is a fixed-vocabulary keyword scan, not NLP: each dimension has an
// ordered trigger list and the first hit wins. The ordering is part of the
// contract: callers and tests depend on "cheap upscale" resolving to low.
package query

import (
	"strings"
)

// Budget levels recognized in queries.
const (
	BudgetLow    = "low"
	BudgetMedium = "medium"
	BudgetHigh   = "high"
)

// Filters is the normalized output of Parse and the input to the scorer.
// A zero field means "no constraint on that dimension", never "match nothing".
type Filters struct {
	Category     string   `json:"category,omitempty"`
	Neighborhood string   `json:"neighborhood,omitempty"`
	Budget       string   `json:"budget,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	DealsOnly    bool     `json:"dealsOnly,omitempty"`
}

// categoryTrigger maps a trigger word to its category bucket. Scanned in
// order; the first word found in the query decides the category.
type categoryTrigger struct {
	word     string
	category string
	// addTag is appended to Filters.Tags when this trigger fires ("coffee"
	// implies both the Food & Dining category and a coffee preference).
	addTag string
}

var categoryTriggers = []categoryTrigger{
	{word: "food", category: "Food & Dining"},
	{word: "restaurant", category: "Food & Dining"},
	{word: "retail", category: "Retail"},
	{word: "service", category: "Services"},
	{word: "coffee", category: "Food & Dining", addTag: "coffee"},
	{word: "shop", category: "Retail"},
	{word: "store", category: "Retail"},
}

// neighborhoods is the gazetteer of known Richmond neighborhoods, matched as
// substrings and title-cased on output.
var neighborhoods = []string{
	"carytown",
	"short pump",
	"the fan",
	"shockoe",
	"downtown",
	"scott's addition",
	"museum district",
	"church hill",
	"jackson ward",
	"oregon hill",
	"west end",
}

// budgetTriggers are evaluated in priority order: low before high before
// medium, so a query with several hints resolves to the earliest list.
var budgetTriggers = []struct {
	level string
	words []string
}{
	{BudgetLow, []string{"cheap", "affordable", "budget"}},
	{BudgetHigh, []string{"expensive", "upscale"}},
	{BudgetMedium, []string{"moderate", "mid"}},
}

var dealWords = []string{"deal", "coupon", "discount"}

// tagKeywords maps a preference tag to the query words that imply it. Order
// fixes the tag accumulation order in Filters.Tags.
var tagKeywords = []struct {
	tag   string
	words []string
}{
	{"family", []string{"family", "family-friendly", "kids"}},
	{"quiet", []string{"quiet", "peaceful", "calm"}},
	{"study", []string{"study", "wifi", "work"}},
	{"coffee", []string{"coffee", "cafe", "espresso"}},
	{"outdoor", []string{"outdoor", "patio", "terrace"}},
}

// Parse converts a free-text query into Filters. It is pure and
// deterministic: same input, same output. Unknown words are ignored and an
// empty query yields zero Filters.
func Parse(q string) Filters {
	lower := strings.ToLower(q)
	var f Filters

	for _, t := range categoryTriggers {
		if strings.Contains(lower, t.word) {
			f.Category = t.category
			if t.addTag != "" {
				f.Tags = append(f.Tags, t.addTag)
			}
			break
		}
	}

	for _, hood := range neighborhoods {
		if strings.Contains(lower, hood) {
			f.Neighborhood = titleCase(hood)
			break
		}
	}

	for _, bt := range budgetTriggers {
		if containsAny(lower, bt.words) {
			f.Budget = bt.level
			break
		}
	}

	if containsAny(lower, dealWords) {
		f.DealsOnly = true
	}

	// Keyword tags replace the category-triggered tag rather than appending.
	// Safe because the "coffee" category trigger always co-fires with the
	// "coffee" keyword tag, and it keeps tag order fixed to the table above.
	var tags []string
	for _, tk := range tagKeywords {
		if containsAny(lower, tk.words) {
			tags = append(tags, tk.tag)
		}
	}
	if len(tags) > 0 {
		f.Tags = tags
	}

	return f
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// titleCase capitalizes the first letter of each whitespace-delimited word.
func titleCase(s string) string {
	words := strings.Split(s, " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
