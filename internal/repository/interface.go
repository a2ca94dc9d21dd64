package repository

import (
	"context"
	"errors"
	"time"

	"github.com/weiawesome/labor-market/internal/domain"
)

var (
	ErrJobNotFound = errors.New("job not found")
)

// JobStore is the read path the search engine runs against. Count and Find
// receive the same filter; stores always restrict both to active postings.
type JobStore interface {
	Count(ctx context.Context, filter domain.JobFilter) (int64, error)
	Find(ctx context.Context, q domain.JobQuery) ([]domain.Job, error)
}

// ViewCounter increments job view counters.
type ViewCounter interface {
	IncrementViews(ctx context.Context, ids ...string) error
}

// JobRepository defines the interface for job persistence.
type JobRepository interface {
	JobStore
	ViewCounter
	Create(ctx context.Context, job *domain.Job) error
	GetByID(ctx context.Context, id string) (*domain.Job, error)
	Update(ctx context.Context, job *domain.Job) error
	Delete(ctx context.Context, id string) error
	ListByEmployer(ctx context.Context, employerID string, page domain.Page) ([]domain.Job, int64, error)
	// ExpireStale marks active postings expired and returns their ids.
	ExpireStale(ctx context.Context, now time.Time, maxAge time.Duration) ([]string, error)
	// EachBatch walks every posting in primary key order.
	EachBatch(ctx context.Context, batchSize int, fn func(jobs []domain.Job) error) error
}

// EmployerRepository reads employer summaries from the user directory.
type EmployerRepository interface {
	// BatchGet returns the summaries found; missing ids are absent from the map.
	BatchGet(ctx context.Context, ids []string) (map[string]*domain.EmployerSummary, error)
}

// JobIndex is a search index over postings that can also serve as a JobStore.
type JobIndex interface {
	JobStore
	EnsureIndex(ctx context.Context) error
	Index(ctx context.Context, job *domain.Job) error
	Remove(ctx context.Context, id string) error
	BulkIndex(ctx context.Context, jobs []domain.Job) error
}
