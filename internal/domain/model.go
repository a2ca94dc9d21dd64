package domain

import (
	"strings"
	"time"

	"github.com/weiawesome/labor-market/pkg/database"
)

// JobModel is the GORM model for jobs table.
type JobModel struct {
	ID          string `gorm:"type:varchar(36);primaryKey"`
	EmployerID  string `gorm:"type:varchar(36);index;not null"`
	Title       string `gorm:"type:varchar(100);not null"`
	Description string `gorm:"type:text;not null"`
	Category    string `gorm:"type:varchar(32);index;not null"`

	Requirements     database.StringArray `gorm:"type:text"`
	Responsibilities database.StringArray `gorm:"type:text"`
	Skills           database.StringArray `gorm:"type:text"`
	Benefits         database.StringArray `gorm:"type:text"`
	Tags             database.StringArray `gorm:"type:text"`
	Experience       string               `gorm:"type:varchar(20);default:'entry'"`

	Street    string  `gorm:"type:varchar(200)"`
	City      string  `gorm:"type:varchar(100);index"`
	State     string  `gorm:"type:varchar(100)"`
	ZipCode   string  `gorm:"type:varchar(20)"`
	Country   string  `gorm:"type:varchar(100);default:'India'"`
	Latitude  float64 `gorm:"default:0"`
	Longitude float64 `gorm:"default:0"`
	IsRemote  bool    `gorm:"default:false"`

	BudgetAmount   float64 `gorm:"index;not null"`
	BudgetCurrency string  `gorm:"type:varchar(8);default:'INR'"`
	BudgetType     string  `gorm:"type:varchar(16);not null"`

	Duration            string `gorm:"type:varchar(16);index;not null"`
	StartDate           *time.Time
	EndDate             *time.Time
	ApplicationDeadline *time.Time
	MaxApplications     int `gorm:"default:50"`

	Status     string `gorm:"type:varchar(16);index;not null;default:'draft'"`
	Visibility string `gorm:"type:varchar(16);default:'public'"`
	Featured   bool   `gorm:"index;default:false"`
	Urgent     bool   `gorm:"default:false"`

	ApplicationsCount int `gorm:"default:0"`
	ViewsCount        int `gorm:"default:0"`

	SearchKeywords database.StringArray `gorm:"type:text"`
	// KeywordsText is SearchKeywords joined by spaces, for LIKE matching.
	KeywordsText string `gorm:"type:text"`

	// Score is filled only by text-search selects.
	Score float64 `gorm:"->;-:migration"`

	CreatedAt time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName specifies the table name for JobModel.
func (JobModel) TableName() string {
	return "jobs"
}

// ToDomain converts JobModel to domain Job.
func (m *JobModel) ToDomain() *Job {
	return &Job{
		ID:               m.ID,
		EmployerID:       m.EmployerID,
		Title:            m.Title,
		Description:      m.Description,
		Category:         Category(m.Category),
		Requirements:     []string(m.Requirements),
		Responsibilities: []string(m.Responsibilities),
		Skills:           []string(m.Skills),
		Benefits:         []string(m.Benefits),
		Tags:             []string(m.Tags),
		Experience:       m.Experience,
		Location: Location{
			Address: Address{
				Street:  m.Street,
				City:    m.City,
				State:   m.State,
				ZipCode: m.ZipCode,
				Country: m.Country,
			},
			Coordinates: Coordinates{Lat: m.Latitude, Lng: m.Longitude},
			IsRemote:    m.IsRemote,
		},
		Budget: Budget{
			Amount:   m.BudgetAmount,
			Currency: m.BudgetCurrency,
			Type:     BudgetType(m.BudgetType),
		},
		Duration:            Duration(m.Duration),
		StartDate:           m.StartDate,
		EndDate:             m.EndDate,
		ApplicationDeadline: m.ApplicationDeadline,
		MaxApplications:     m.MaxApplications,
		Status:              JobStatus(m.Status),
		Visibility:          Visibility(m.Visibility),
		Featured:            m.Featured,
		Urgent:              m.Urgent,
		ApplicationsCount:   m.ApplicationsCount,
		ViewsCount:          m.ViewsCount,
		SearchKeywords:      []string(m.SearchKeywords),
		Score:               m.Score,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}
}

// JobToModel converts domain Job to JobModel.
func JobToModel(j *Job) *JobModel {
	return &JobModel{
		ID:                  j.ID,
		EmployerID:          j.EmployerID,
		Title:               j.Title,
		Description:         j.Description,
		Category:            string(j.Category),
		Requirements:        database.StringArray(j.Requirements),
		Responsibilities:    database.StringArray(j.Responsibilities),
		Skills:              database.StringArray(j.Skills),
		Benefits:            database.StringArray(j.Benefits),
		Tags:                database.StringArray(j.Tags),
		Experience:          j.Experience,
		Street:              j.Location.Address.Street,
		City:                j.Location.Address.City,
		State:               j.Location.Address.State,
		ZipCode:             j.Location.Address.ZipCode,
		Country:             j.Location.Address.Country,
		Latitude:            j.Location.Coordinates.Lat,
		Longitude:           j.Location.Coordinates.Lng,
		IsRemote:            j.Location.IsRemote,
		BudgetAmount:        j.Budget.Amount,
		BudgetCurrency:      j.Budget.Currency,
		BudgetType:          string(j.Budget.Type),
		Duration:            string(j.Duration),
		StartDate:           j.StartDate,
		EndDate:             j.EndDate,
		ApplicationDeadline: j.ApplicationDeadline,
		MaxApplications:     j.MaxApplications,
		Status:              string(j.Status),
		Visibility:          string(j.Visibility),
		Featured:            j.Featured,
		Urgent:              j.Urgent,
		ApplicationsCount:   j.ApplicationsCount,
		ViewsCount:          j.ViewsCount,
		SearchKeywords:      database.StringArray(j.SearchKeywords),
		KeywordsText:        strings.Join(j.SearchKeywords, " "),
		CreatedAt:           j.CreatedAt,
		UpdatedAt:           j.UpdatedAt,
	}
}

// EmployerModel is a read-only view of the users table owned by the user
// directory. Only the columns needed for the public summary are mapped.
type EmployerModel struct {
	ID                 string  `gorm:"type:varchar(36);primaryKey"`
	FirstName          string  `gorm:"type:varchar(50)"`
	LastName           string  `gorm:"type:varchar(50)"`
	CompanyName        string  `gorm:"type:varchar(100)"`
	AverageRating      float64 `gorm:"default:0"`
	TotalReviews       int     `gorm:"default:0"`
	IsVerifiedEmployer bool    `gorm:"default:false"`
	Role               string  `gorm:"type:varchar(16)"`
}

// TableName specifies the table name for EmployerModel.
func (EmployerModel) TableName() string {
	return "users"
}

// ToSummary converts EmployerModel to the public summary.
func (m *EmployerModel) ToSummary() *EmployerSummary {
	return &EmployerSummary{
		ID:                 m.ID,
		FirstName:          m.FirstName,
		LastName:           m.LastName,
		CompanyName:        m.CompanyName,
		AverageRating:      m.AverageRating,
		TotalReviews:       m.TotalReviews,
		IsVerifiedEmployer: m.IsVerifiedEmployer,
	}
}
