package domain

// ListJobsRequest holds the raw query of the listing endpoint. Every field
// is bound as a string so malformed values degrade to "absent" instead of
// failing the bind.
type ListJobsRequest struct {
	Page      string `form:"page"`
	Limit     string `form:"limit"`
	Category  string `form:"category"`
	Location  string `form:"location"`
	Search    string `form:"search"`
	BudgetMin string `form:"budget_min"`
	BudgetMax string `form:"budget_max"`
	Duration  string `form:"duration"`
}

// SearchJobsRequest holds the raw query of the search endpoint.
type SearchJobsRequest struct {
	Query     string `form:"q"`
	Category  string `form:"category"`
	Location  string `form:"location"`
	BudgetMin string `form:"budget_min"`
	BudgetMax string `form:"budget_max"`
	Duration  string `form:"duration"`
	SortBy    string `form:"sort_by"`
	Page      string `form:"page"`
	Limit     string `form:"limit"`
}

// EmployerJobsRequest holds the raw query of the employer job list.
type EmployerJobsRequest struct {
	Page  string `form:"page"`
	Limit string `form:"limit"`
}

// JobFilter is the conjunctive predicate over active postings. The count
// and the page query are both built from the same JobFilter value; the
// active-status constraint is implied and applied by every store.
type JobFilter struct {
	// Query is the free-text query; empty means no text constraint and no score.
	Query string
	// Category is matched exactly; an unknown value simply matches nothing.
	Category string
	// Location is a case-insensitive literal substring of the city.
	Location string
	// BudgetMin and BudgetMax are inclusive bounds on the budget amount.
	BudgetMin *float64
	BudgetMax *float64
	Duration  string
}

// HasQuery reports whether the filter carries a free-text query.
func (f JobFilter) HasQuery() bool {
	return f.Query != ""
}

// SortMode selects one of the public orderings.
type SortMode string

const (
	SortRelevance  SortMode = "relevance"
	SortDate       SortMode = "date"
	SortBudgetHigh SortMode = "budget_high"
	SortBudgetLow  SortMode = "budget_low"
)

// SortField is a sortable attribute of a posting.
type SortField string

const (
	SortFieldScore     SortField = "score"
	SortFieldFeatured  SortField = "featured"
	SortFieldUrgent    SortField = "urgent"
	SortFieldCreatedAt SortField = "created_at"
	SortFieldBudget    SortField = "budget_amount"
	SortFieldID        SortField = "id"
)

// SortKey is one element of a tie-break chain.
type SortKey struct {
	Field SortField
	Desc  bool
}

// Page is a resolved page window.
type Page struct {
	Number int
	Limit  int
}

// Offset is the number of postings skipped before this page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Limit
}

// JobQuery is what the search engine sends to a JobStore.
type JobQuery struct {
	Filter JobFilter
	Sort   []SortKey
	Page   Page
}

// ListJobsResponse is the data of the listing endpoint.
type ListJobsResponse struct {
	Jobs    []JobResponse `json:"jobs"`
	Total   int64         `json:"total"`
	Page    int           `json:"page"`
	Pages   int           `json:"pages"`
	HasNext bool          `json:"hasNext"`
	HasPrev bool          `json:"hasPrev"`
}

// SearchFilters echoes the filters a search was called with.
type SearchFilters struct {
	Category  string `json:"category,omitempty"`
	Location  string `json:"location,omitempty"`
	BudgetMin string `json:"budget_min,omitempty"`
	BudgetMax string `json:"budget_max,omitempty"`
	Duration  string `json:"duration,omitempty"`
	SortBy    string `json:"sort_by"`
}

// SearchJobsResponse is the data of the search endpoint.
type SearchJobsResponse struct {
	ListJobsResponse
	Filters SearchFilters `json:"filters"`
}
