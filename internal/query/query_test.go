package query_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/labor-market/internal/domain"
	"github.com/weiawesome/labor-market/internal/query"
)

// ── filters ────────────────────────────────────────────────────────────────

func TestParseBound(t *testing.T) {
	cases := map[string]*float64{
		"":      nil,
		"   ":   nil,
		"abc":   nil,
		"12abc": nil,
		"NaN":   nil,
		"Inf":   nil,
		"-Inf":  nil,
		"500":   ptr(500),
		" 2.5 ": ptr(2.5),
		"0":     ptr(0),
		"-10":   ptr(-10),
	}
	for in, want := range cases {
		got := query.ParseBound(in)
		if want == nil {
			assert.Nil(t, got, "input %q", in)
			continue
		}
		require.NotNil(t, got, "input %q", in)
		assert.Equal(t, *want, *got, "input %q", in)
	}
}

func TestFromSearch(t *testing.T) {
	f := query.FromSearch(domain.SearchJobsRequest{
		Query:     "  deep cleaning ",
		Category:  "cleaning",
		Location:  " Mumbai ",
		BudgetMin: "100",
		BudgetMax: "not-a-number",
		Duration:  "one_time",
		SortBy:    "date",
	})

	assert.Equal(t, "deep cleaning", f.Query)
	assert.True(t, f.HasQuery())
	assert.Equal(t, "cleaning", f.Category)
	assert.Equal(t, "Mumbai", f.Location)
	require.NotNil(t, f.BudgetMin)
	assert.Equal(t, 100.0, *f.BudgetMin)
	assert.Nil(t, f.BudgetMax, "malformed bound is ignored")
	assert.Equal(t, "one_time", f.Duration)
}

func TestFromListing_SearchIsTheQuery(t *testing.T) {
	f := query.FromListing(domain.ListJobsRequest{Search: "painter"})
	assert.Equal(t, "painter", f.Query)

	f = query.FromListing(domain.ListJobsRequest{Search: "   "})
	assert.False(t, f.HasQuery())
}

func TestFromSearch_UnknownCategoryKept(t *testing.T) {
	f := query.FromSearch(domain.SearchJobsRequest{Category: "astronaut"})
	assert.Equal(t, "astronaut", f.Category, "unknown categories match nothing instead of being dropped")
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, "plain", query.EscapeLike("plain"))
	assert.Equal(t, "100!%", query.EscapeLike("100%"))
	assert.Equal(t, "a!_b", query.EscapeLike("a_b"))
	assert.Equal(t, "wow!!", query.EscapeLike("wow!"))
}

func TestTerms(t *testing.T) {
	assert.Equal(t, []string{"deep", "cleaning"}, query.Terms("  Deep\tCLEANING "))
	assert.Empty(t, query.Terms(""))
}

func TestTerms_DropsPunctuationOnly(t *testing.T) {
	assert.Empty(t, query.Terms(`" "," [ ]`))
	assert.Equal(t, []string{"mumbai\",\"maharashtra", "c++", "2bhk"}, query.Terms(`Mumbai","Maharashtra - C++ 2BHK ...`))
}

// ── sort ───────────────────────────────────────────────────────────────────

func TestParseSortMode(t *testing.T) {
	assert.Equal(t, domain.SortRelevance, query.ParseSortMode(""))
	assert.Equal(t, domain.SortRelevance, query.ParseSortMode("popularity"))
	assert.Equal(t, domain.SortDate, query.ParseSortMode("date"))
	assert.Equal(t, domain.SortBudgetHigh, query.ParseSortMode("BUDGET_HIGH"))
	assert.Equal(t, domain.SortBudgetLow, query.ParseSortMode(" budget_low "))
}

func TestResolveSort(t *testing.T) {
	id := domain.SortKey{Field: domain.SortFieldID}
	cases := []struct {
		name     string
		mode     domain.SortMode
		hasQuery bool
		want     []domain.SortKey
	}{
		{
			name: "relevance with query", mode: domain.SortRelevance, hasQuery: true,
			want: []domain.SortKey{
				{Field: domain.SortFieldScore, Desc: true},
				{Field: domain.SortFieldFeatured, Desc: true},
				{Field: domain.SortFieldUrgent, Desc: true},
				id,
			},
		},
		{
			name: "relevance without query", mode: domain.SortRelevance,
			want: []domain.SortKey{
				{Field: domain.SortFieldFeatured, Desc: true},
				{Field: domain.SortFieldUrgent, Desc: true},
				{Field: domain.SortFieldCreatedAt, Desc: true},
				id,
			},
		},
		{
			name: "date", mode: domain.SortDate, hasQuery: true,
			want: []domain.SortKey{{Field: domain.SortFieldCreatedAt, Desc: true}, id},
		},
		{
			name: "budget high", mode: domain.SortBudgetHigh,
			want: []domain.SortKey{{Field: domain.SortFieldBudget, Desc: true}, id},
		},
		{
			name: "budget low", mode: domain.SortBudgetLow,
			want: []domain.SortKey{{Field: domain.SortFieldBudget, Desc: false}, id},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, query.ResolveSort(tc.mode, tc.hasQuery))
		})
	}
}

func TestListingSortMatchesRelevanceWithoutQuery(t *testing.T) {
	assert.Equal(t, query.ResolveSort(domain.SortRelevance, false), query.ListingSort())
}

// ── pagination ─────────────────────────────────────────────────────────────

func TestLimitsPage(t *testing.T) {
	l := query.DefaultLimits
	cases := []struct {
		page, limit string
		want        domain.Page
	}{
		{"", "", domain.Page{Number: 1, Limit: 10}},
		{"3", "20", domain.Page{Number: 3, Limit: 20}},
		{"0", "-5", domain.Page{Number: 1, Limit: 10}},
		{"abc", "x", domain.Page{Number: 1, Limit: 10}},
		{"2", "1000", domain.Page{Number: 2, Limit: 100}},
		{"99999999999", "10", domain.Page{Number: 1_000_000, Limit: 10}},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, l.Page(tc.page, tc.limit), "page=%q limit=%q", tc.page, tc.limit)
	}
}

func TestLimitsPage_ZeroValueUsesDefaults(t *testing.T) {
	var l query.Limits
	assert.Equal(t, domain.Page{Number: 1, Limit: 10}, l.Page("", ""))
}

func TestPageOffset(t *testing.T) {
	assert.Equal(t, 0, domain.Page{Number: 1, Limit: 10}.Offset())
	assert.Equal(t, 20, domain.Page{Number: 3, Limit: 10}.Offset())
}

func TestPages(t *testing.T) {
	assert.Equal(t, 0, query.Pages(0, 10))
	assert.Equal(t, 1, query.Pages(1, 10))
	assert.Equal(t, 1, query.Pages(10, 10))
	assert.Equal(t, 2, query.Pages(11, 10))
	assert.Equal(t, 0, query.Pages(5, 0))
}

func TestResult(t *testing.T) {
	r := query.Result(nil, 25, domain.Page{Number: 2, Limit: 10})
	assert.NotNil(t, r.Jobs)
	assert.Equal(t, int64(25), r.Total)
	assert.Equal(t, 2, r.Page)
	assert.Equal(t, 3, r.Pages)
	assert.True(t, r.HasNext)
	assert.True(t, r.HasPrev)

	last := query.Result(nil, 25, domain.Page{Number: 3, Limit: 10})
	assert.False(t, last.HasNext)

	beyond := query.Result(nil, 25, domain.Page{Number: 9, Limit: 10})
	assert.Empty(t, beyond.Jobs)
	assert.Equal(t, 3, beyond.Pages)
	assert.False(t, beyond.HasNext)
}

func ptr(f float64) *float64 { return &f }
