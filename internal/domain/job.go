// Package domain holds the job posting types, their storage models and the status graph.
package domain

import (
	"time"
)

// Category is the closed set of job categories.
type Category string

const (
	CategoryConstruction  Category = "construction"
	CategoryCleaning      Category = "cleaning"
	CategoryDelivery      Category = "delivery"
	CategoryCooking       Category = "cooking"
	CategoryGardening     Category = "gardening"
	CategoryPlumbing      Category = "plumbing"
	CategoryElectrical    Category = "electrical"
	CategoryPainting      Category = "painting"
	CategoryCarpentry     Category = "carpentry"
	CategoryMoving        Category = "moving"
	CategorySecurity      Category = "security"
	CategoryBabysitting   Category = "babysitting"
	CategoryElderlyCare   Category = "elderly_care"
	CategoryTutoring      Category = "tutoring"
	CategoryDataEntry     Category = "data_entry"
	CategoryPhotography   Category = "photography"
	CategoryEventPlanning Category = "event_planning"
	CategoryMaintenance   Category = "maintenance"
	CategoryOther         Category = "other"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryConstruction, CategoryCleaning, CategoryDelivery, CategoryCooking,
	CategoryGardening, CategoryPlumbing, CategoryElectrical, CategoryPainting,
	CategoryCarpentry, CategoryMoving, CategorySecurity, CategoryBabysitting,
	CategoryElderlyCare, CategoryTutoring, CategoryDataEntry, CategoryPhotography,
	CategoryEventPlanning, CategoryMaintenance, CategoryOther,
}

// Duration is how long the engagement lasts.
type Duration string

const (
	DurationOneTime   Duration = "one_time"
	DurationTemporary Duration = "temporary"
	DurationPermanent Duration = "permanent"
	DurationContract  Duration = "contract"
)

// BudgetType is the billing period of a budget amount.
type BudgetType string

const (
	BudgetHourly  BudgetType = "hourly"
	BudgetDaily   BudgetType = "daily"
	BudgetWeekly  BudgetType = "weekly"
	BudgetMonthly BudgetType = "monthly"
	BudgetFixed   BudgetType = "fixed"
)

// Visibility controls where a posting is shown.
type Visibility string

const (
	VisibilityPublic   Visibility = "public"
	VisibilityPrivate  Visibility = "private"
	VisibilityFeatured Visibility = "featured"
)

// Defaults applied to new postings.
const (
	DefaultCurrency        = "INR"
	DefaultCountry         = "India"
	DefaultMaxApplications = 50
	DefaultExperience      = "entry"
)

// Job is a single job posting.
type Job struct {
	ID          string   `json:"id"`
	EmployerID  string   `json:"employer_id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    Category `json:"category"`

	Requirements     []string `json:"requirements"`
	Responsibilities []string `json:"responsibilities"`
	Skills           []string `json:"skills"`
	Benefits         []string `json:"benefits"`
	Tags             []string `json:"tags"`
	Experience       string   `json:"experience"`

	Location Location `json:"location"`
	Budget   Budget   `json:"budget"`

	Duration            Duration   `json:"duration"`
	StartDate           *time.Time `json:"start_date,omitempty"`
	EndDate             *time.Time `json:"end_date,omitempty"`
	ApplicationDeadline *time.Time `json:"application_deadline,omitempty"`
	MaxApplications     int        `json:"max_applications"`

	Status     JobStatus  `json:"status"`
	Visibility Visibility `json:"visibility"`
	Featured   bool       `json:"featured"`
	Urgent     bool       `json:"urgent"`

	ApplicationsCount int `json:"applications_count"`
	ViewsCount        int `json:"views_count"`

	// SearchKeywords is derived by DeriveSearchKeywords and never set by callers.
	SearchKeywords []string `json:"search_keywords"`

	// Score is the text relevance score; only set on results of a free-text query.
	Score float64 `json:"score,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Location is where the work happens.
type Location struct {
	Address     Address     `json:"address"`
	Coordinates Coordinates `json:"coordinates"`
	IsRemote    bool        `json:"is_remote"`
}

// Address is a postal address.
type Address struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zip_code,omitempty"`
	Country string `json:"country"`
}

// Coordinates is a lat/lng pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Budget is what the employer offers.
type Budget struct {
	Amount   float64    `json:"amount"`
	Currency string     `json:"currency"`
	Type     BudgetType `json:"type"`
}

// RefreshSearchKeywords recomputes SearchKeywords from the job's own fields.
// Every write path calls it after changing title, description, skills,
// category or location.
func (j *Job) RefreshSearchKeywords() {
	j.SearchKeywords = DeriveSearchKeywords(
		j.Title,
		j.Description,
		j.Skills,
		string(j.Category),
		j.Location.Address.City,
		j.Location.Address.State,
	)
}

// IsExpired reports whether the posting has outlived its application
// deadline, or has no deadline and is older than maxAge.
func (j *Job) IsExpired(now time.Time, maxAge time.Duration) bool {
	if j.ApplicationDeadline != nil {
		return now.After(*j.ApplicationDeadline)
	}
	return j.CreatedAt.Before(now.Add(-maxAge))
}

// EmployerSummary is the public projection of an employer attached to job results.
type EmployerSummary struct {
	ID                 string  `json:"id"`
	FirstName          string  `json:"first_name"`
	LastName           string  `json:"last_name"`
	CompanyName        string  `json:"company_name,omitempty"`
	AverageRating      float64 `json:"average_rating"`
	TotalReviews       int     `json:"total_reviews"`
	IsVerifiedEmployer bool    `json:"is_verified_employer"`
}

// JobResponse is a job with its employer joined. Employer is null when the
// employer record is missing.
type JobResponse struct {
	Job
	Employer *EmployerSummary `json:"employer"`
}
