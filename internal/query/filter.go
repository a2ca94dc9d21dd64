// Package query turns raw request parameters into the filter, sort chain and
// page window the job stores execute. Parsing is permissive: a value that
// cannot be understood is treated as absent and never fails the request.
package query

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/weiawesome/labor-market/internal/domain"
)

// FromSearch builds the filter of a search request.
func FromSearch(req domain.SearchJobsRequest) domain.JobFilter {
	return buildFilter(req.Query, req.Category, req.Location, req.BudgetMin, req.BudgetMax, req.Duration)
}

// FromListing builds the filter of a listing request. The listing "search"
// parameter plays the role of the free-text query.
func FromListing(req domain.ListJobsRequest) domain.JobFilter {
	return buildFilter(req.Search, req.Category, req.Location, req.BudgetMin, req.BudgetMax, req.Duration)
}

func buildFilter(q, category, location, budgetMin, budgetMax, duration string) domain.JobFilter {
	return domain.JobFilter{
		Query:     strings.TrimSpace(q),
		Category:  strings.TrimSpace(category),
		Location:  strings.TrimSpace(location),
		BudgetMin: ParseBound(budgetMin),
		BudgetMax: ParseBound(budgetMax),
		Duration:  strings.TrimSpace(duration),
	}
}

// ParseBound parses a budget bound. Empty, non-numeric, NaN and infinite
// values yield nil.
func ParseBound(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// EscapeLike escapes s for use inside a LIKE pattern with ESCAPE '!'.
func EscapeLike(s string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return r.Replace(s)
}

// Terms splits a free-text query into lower-cased search terms. Tokens with
// no letter or digit are dropped.
func Terms(q string) []string {
	fields := strings.Fields(strings.ToLower(q))
	terms := fields[:0]
	for _, f := range fields {
		if strings.IndexFunc(f, isWordRune) >= 0 {
			terms = append(terms, f)
		}
	}
	return terms
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
