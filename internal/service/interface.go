package service

import (
	"context"
	"errors"

	"github.com/weiawesome/labor-market/internal/domain"
)

var (
	ErrJobNotFound             = errors.New("job not found")
	ErrNotJobOwner             = errors.New("not the owner of this job")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrIndexDisabled           = errors.New("search index is not enabled")
)

// SearchService is the read path over active postings.
type SearchService interface {
	ListJobs(ctx context.Context, req domain.ListJobsRequest) (*domain.ListJobsResponse, error)
	SearchJobs(ctx context.Context, req domain.SearchJobsRequest) (*domain.SearchJobsResponse, error)
}

// JobService defines the interface for job business logic.
type JobService interface {
	GetJob(ctx context.Context, jobID string) (*domain.JobResponse, error)
	ListEmployerJobs(ctx context.Context, employerID string, req domain.EmployerJobsRequest) (*domain.ListJobsResponse, error)
	CreateJob(ctx context.Context, employerID string, req *domain.CreateJobRequest) (*domain.JobResponse, error)
	UpdateJob(ctx context.Context, employerID, jobID string, req *domain.UpdateJobRequest) (*domain.JobResponse, error)
	DeleteJob(ctx context.Context, employerID, jobID string) error
	// ExpireStaleJobs returns the number of postings it expired.
	ExpireStaleJobs(ctx context.Context) (int, error)
	// ReindexAll rebuilds the search index and returns the documents written.
	ReindexAll(ctx context.Context) (int, error)
}
