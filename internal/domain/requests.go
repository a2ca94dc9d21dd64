package domain

import (
	"time"
)

// AddressInput is the address part of a job write request.
type AddressInput struct {
	Street  string `json:"street"`
	City    string `json:"city" binding:"required,max=100"`
	State   string `json:"state" binding:"required,max=100"`
	ZipCode string `json:"zip_code"`
	Country string `json:"country"`
}

// LocationInput is the location part of a job write request.
type LocationInput struct {
	Address     AddressInput `json:"address"`
	Coordinates Coordinates  `json:"coordinates"`
	IsRemote    bool         `json:"is_remote"`
}

// BudgetInput is the budget part of a job write request.
type BudgetInput struct {
	Amount   float64 `json:"amount" binding:"required,gt=0"`
	Currency string  `json:"currency" binding:"omitempty,len=3"`
	Type     string  `json:"type" binding:"required,oneof=hourly daily weekly monthly fixed"`
}

// CreateJobRequest represents a create job request.
type CreateJobRequest struct {
	Title            string   `json:"title" binding:"required,min=1,max=100"`
	Description      string   `json:"description" binding:"required,min=1,max=2000"`
	Category         string   `json:"category" binding:"required,oneof=construction cleaning delivery cooking gardening plumbing electrical painting carpentry moving security babysitting elderly_care tutoring data_entry photography event_planning maintenance other"`
	Requirements     []string `json:"requirements"`
	Responsibilities []string `json:"responsibilities"`
	Skills           []string `json:"skills"`
	Benefits         []string `json:"benefits"`
	Tags             []string `json:"tags"`
	Experience       string   `json:"experience" binding:"omitempty,oneof=entry 1-2_years 3-5_years 5+_years"`

	Location LocationInput `json:"location"`
	Budget   BudgetInput   `json:"budget"`

	Duration            string     `json:"duration" binding:"required,oneof=one_time temporary permanent contract"`
	StartDate           *time.Time `json:"start_date"`
	EndDate             *time.Time `json:"end_date"`
	ApplicationDeadline *time.Time `json:"application_deadline"`
	MaxApplications     int        `json:"max_applications" binding:"omitempty,min=1"`

	Status     string `json:"status" binding:"omitempty,oneof=draft active"`
	Visibility string `json:"visibility" binding:"omitempty,oneof=public private featured"`
	Featured   bool   `json:"featured"`
	Urgent     bool   `json:"urgent"`
}

// UpdateJobRequest represents a partial update. Nil fields are left as they are.
type UpdateJobRequest struct {
	Title            *string  `json:"title" binding:"omitempty,min=1,max=100"`
	Description      *string  `json:"description" binding:"omitempty,min=1,max=2000"`
	Category         *string  `json:"category" binding:"omitempty,oneof=construction cleaning delivery cooking gardening plumbing electrical painting carpentry moving security babysitting elderly_care tutoring data_entry photography event_planning maintenance other"`
	Requirements     []string `json:"requirements"`
	Responsibilities []string `json:"responsibilities"`
	Skills           []string `json:"skills"`
	Benefits         []string `json:"benefits"`
	Tags             []string `json:"tags"`
	Experience       *string  `json:"experience" binding:"omitempty,oneof=entry 1-2_years 3-5_years 5+_years"`

	Location *LocationInput `json:"location"`
	Budget   *BudgetInput   `json:"budget"`

	Duration            *string    `json:"duration" binding:"omitempty,oneof=one_time temporary permanent contract"`
	StartDate           *time.Time `json:"start_date"`
	EndDate             *time.Time `json:"end_date"`
	ApplicationDeadline *time.Time `json:"application_deadline"`
	MaxApplications     *int       `json:"max_applications" binding:"omitempty,min=1"`

	Status     *string `json:"status" binding:"omitempty,oneof=draft active paused filled cancelled expired"`
	Visibility *string `json:"visibility" binding:"omitempty,oneof=public private featured"`
	Featured   *bool   `json:"featured"`
	Urgent     *bool   `json:"urgent"`
}

// ToJob builds a new posting from the request with defaults applied.
func (r *CreateJobRequest) ToJob(id, employerID string, now time.Time) *Job {
	j := &Job{
		ID:                  id,
		EmployerID:          employerID,
		Title:               r.Title,
		Description:         r.Description,
		Category:            Category(r.Category),
		Requirements:        nonNil(r.Requirements),
		Responsibilities:    nonNil(r.Responsibilities),
		Skills:              nonNil(r.Skills),
		Benefits:            nonNil(r.Benefits),
		Tags:                nonNil(r.Tags),
		Experience:          orDefault(r.Experience, DefaultExperience),
		Location:            r.Location.toLocation(),
		Budget:              r.Budget.toBudget(),
		Duration:            Duration(r.Duration),
		StartDate:           r.StartDate,
		EndDate:             r.EndDate,
		ApplicationDeadline: r.ApplicationDeadline,
		MaxApplications:     r.MaxApplications,
		Status:              JobStatus(orDefault(r.Status, string(JobStatusDraft))),
		Visibility:          Visibility(orDefault(r.Visibility, string(VisibilityPublic))),
		Featured:            r.Featured,
		Urgent:              r.Urgent,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if j.MaxApplications == 0 {
		j.MaxApplications = DefaultMaxApplications
	}
	j.RefreshSearchKeywords()
	return j
}

// Apply copies every set field onto j and refreshes its keywords. Status is
// not applied here; the caller validates and applies the transition.
func (r *UpdateJobRequest) Apply(j *Job, now time.Time) {
	if r.Title != nil {
		j.Title = *r.Title
	}
	if r.Description != nil {
		j.Description = *r.Description
	}
	if r.Category != nil {
		j.Category = Category(*r.Category)
	}
	if r.Requirements != nil {
		j.Requirements = r.Requirements
	}
	if r.Responsibilities != nil {
		j.Responsibilities = r.Responsibilities
	}
	if r.Skills != nil {
		j.Skills = r.Skills
	}
	if r.Benefits != nil {
		j.Benefits = r.Benefits
	}
	if r.Tags != nil {
		j.Tags = r.Tags
	}
	if r.Experience != nil {
		j.Experience = *r.Experience
	}
	if r.Location != nil {
		j.Location = r.Location.toLocation()
	}
	if r.Budget != nil {
		j.Budget = r.Budget.toBudget()
	}
	if r.Duration != nil {
		j.Duration = Duration(*r.Duration)
	}
	if r.StartDate != nil {
		j.StartDate = r.StartDate
	}
	if r.EndDate != nil {
		j.EndDate = r.EndDate
	}
	if r.ApplicationDeadline != nil {
		j.ApplicationDeadline = r.ApplicationDeadline
	}
	if r.MaxApplications != nil {
		j.MaxApplications = *r.MaxApplications
	}
	if r.Visibility != nil {
		j.Visibility = Visibility(*r.Visibility)
	}
	if r.Featured != nil {
		j.Featured = *r.Featured
	}
	if r.Urgent != nil {
		j.Urgent = *r.Urgent
	}
	j.UpdatedAt = now
	j.RefreshSearchKeywords()
}

func (l LocationInput) toLocation() Location {
	return Location{
		Address: Address{
			Street:  l.Address.Street,
			City:    l.Address.City,
			State:   l.Address.State,
			ZipCode: l.Address.ZipCode,
			Country: orDefault(l.Address.Country, DefaultCountry),
		},
		Coordinates: l.Coordinates,
		IsRemote:    l.IsRemote,
	}
}

func (b BudgetInput) toBudget() Budget {
	return Budget{
		Amount:   b.Amount,
		Currency: orDefault(b.Currency, DefaultCurrency),
		Type:     BudgetType(b.Type),
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
