package query

import (
	"strings"

	"github.com/weiawesome/labor-market/internal/domain"
)

// ParseSortMode maps a raw sort_by value to a mode. Unknown and empty
// values fall back to relevance.
func ParseSortMode(s string) domain.SortMode {
	switch m := domain.SortMode(strings.ToLower(strings.TrimSpace(s))); m {
	case domain.SortDate, domain.SortBudgetHigh, domain.SortBudgetLow:
		return m
	default:
		return domain.SortRelevance
	}
}

// ResolveSort returns the tie-break chain of a sort mode. Relevance branches
// on whether a free-text query is present: with a query the score leads,
// without one promoted postings lead and recency breaks ties. Every chain
// ends with the id so the order is total and pages never overlap.
func ResolveSort(mode domain.SortMode, hasQuery bool) []domain.SortKey {
	var chain []domain.SortKey
	switch mode {
	case domain.SortDate:
		chain = []domain.SortKey{{Field: domain.SortFieldCreatedAt, Desc: true}}
	case domain.SortBudgetHigh:
		chain = []domain.SortKey{{Field: domain.SortFieldBudget, Desc: true}}
	case domain.SortBudgetLow:
		chain = []domain.SortKey{{Field: domain.SortFieldBudget, Desc: false}}
	default:
		if hasQuery {
			chain = []domain.SortKey{
				{Field: domain.SortFieldScore, Desc: true},
				{Field: domain.SortFieldFeatured, Desc: true},
				{Field: domain.SortFieldUrgent, Desc: true},
			}
		} else {
			chain = promotedChain()
		}
	}
	return append(chain, domain.SortKey{Field: domain.SortFieldID, Desc: false})
}

// ListingSort is the fixed order of the plain listing path. It is the
// relevance chain without a query.
func ListingSort() []domain.SortKey {
	return ResolveSort(domain.SortRelevance, false)
}

func promotedChain() []domain.SortKey {
	return []domain.SortKey{
		{Field: domain.SortFieldFeatured, Desc: true},
		{Field: domain.SortFieldUrgent, Desc: true},
		{Field: domain.SortFieldCreatedAt, Desc: true},
	}
}
