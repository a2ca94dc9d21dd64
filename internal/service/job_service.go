package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/weiawesome/labor-market/internal/audit"
	"github.com/weiawesome/labor-market/internal/domain"
	"github.com/weiawesome/labor-market/internal/query"
	"github.com/weiawesome/labor-market/internal/repository"
	"github.com/weiawesome/labor-market/internal/views"
	"github.com/weiawesome/labor-market/pkg/log"
)

const (
	reindexBatchSize = 500

	// systemActor is the audit user id of scheduled writes.
	systemActor = "system"
)

// JobServiceOptions configures the job service.
type JobServiceOptions struct {
	Limits query.Limits
	// MaxAge is how long a posting without a deadline stays active.
	MaxAge time.Duration
	// Index is kept in sync after every write; nil disables indexing.
	Index repository.JobIndex
}

type jobServiceImpl struct {
	repo      repository.JobRepository
	employers repository.EmployerRepository
	recorder  views.Recorder
	index     repository.JobIndex
	limits    query.Limits
	maxAge    time.Duration
	now       func() time.Time
	newID     func() string
}

// NewJobService creates a new job service.
func NewJobService(
	repo repository.JobRepository,
	employers repository.EmployerRepository,
	recorder views.Recorder,
	opts JobServiceOptions,
) JobService {
	if recorder == nil {
		recorder = views.NopRecorder{}
	}
	return &jobServiceImpl{
		repo:      repo,
		employers: employers,
		recorder:  recorder,
		index:     opts.Index,
		limits:    opts.Limits,
		maxAge:    opts.MaxAge,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
}

func (s *jobServiceImpl) GetJob(ctx context.Context, jobID string) (*domain.JobResponse, error) {
	job, err := s.get(ctx, jobID)
	if err != nil {
		return nil, err
	}

	s.recorder.Record(ctx, job.ID)
	return s.withEmployer(ctx, job), nil
}

func (s *jobServiceImpl) ListEmployerJobs(ctx context.Context, employerID string, req domain.EmployerJobsRequest) (*domain.ListJobsResponse, error) {
	page := s.limits.Page(req.Page, req.Limit)

	jobs, total, err := s.repo.ListByEmployer(ctx, employerID, page)
	if err != nil {
		return nil, fmt.Errorf("failed to list employer jobs: %w", err)
	}

	summaries := lookupEmployers(ctx, s.employers, []string{employerID})
	out := make([]domain.JobResponse, len(jobs))
	for i := range jobs {
		out[i] = domain.JobResponse{Job: jobs[i], Employer: summaries[jobs[i].EmployerID]}
	}

	resp := query.Result(out, total, page)
	return &resp, nil
}

func (s *jobServiceImpl) CreateJob(ctx context.Context, employerID string, req *domain.CreateJobRequest) (*domain.JobResponse, error) {
	job := req.ToJob(s.newID(), employerID, s.now())

	if err := s.repo.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	s.syncIndex(ctx, job)
	audit.Log(ctx, audit.ActionCreateJob, employerID, job.ID, "job created")

	return s.withEmployer(ctx, job), nil
}

func (s *jobServiceImpl) UpdateJob(ctx context.Context, employerID, jobID string, req *domain.UpdateJobRequest) (*domain.JobResponse, error) {
	job, err := s.owned(ctx, employerID, jobID)
	if err != nil {
		return nil, err
	}

	from := job.Status
	to := from
	if req.Status != nil {
		to = domain.JobStatus(*req.Status)
		if !domain.CanTransition(from, to) {
			return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, from, to)
		}
	}

	req.Apply(job, s.now())
	job.Status = to

	if err := s.repo.Update(ctx, job); err != nil {
		if errors.Is(err, repository.ErrJobNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to update job: %w", err)
	}

	s.syncIndex(ctx, job)
	if from != to {
		audit.LogWithDetail(ctx, audit.ActionUpdateJob, employerID, job.ID,
			fmt.Sprintf("status=%s->%s", from, to), "job updated")
	} else {
		audit.Log(ctx, audit.ActionUpdateJob, employerID, job.ID, "job updated")
	}

	return s.withEmployer(ctx, job), nil
}

func (s *jobServiceImpl) DeleteJob(ctx context.Context, employerID, jobID string) error {
	job, err := s.owned(ctx, employerID, jobID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, job.ID); err != nil {
		if errors.Is(err, repository.ErrJobNotFound) {
			return ErrJobNotFound
		}
		return fmt.Errorf("failed to delete job: %w", err)
	}

	if s.index != nil {
		if err := s.index.Remove(ctx, job.ID); err != nil {
			l := log.Ctx(ctx)
			l.Warn().Err(err).Str(log.FieldJobID, job.ID).Msg("failed to remove job from index")
		}
	}
	audit.Log(ctx, audit.ActionDeleteJob, employerID, job.ID, "job deleted")
	return nil
}

func (s *jobServiceImpl) ExpireStaleJobs(ctx context.Context) (int, error) {
	ids, err := s.repo.ExpireStale(ctx, s.now(), s.maxAge)
	if err != nil {
		return 0, fmt.Errorf("failed to expire jobs: %w", err)
	}

	for _, id := range ids {
		audit.Log(ctx, audit.ActionExpireJob, systemActor, id, "job expired")
		if s.index == nil {
			continue
		}
		job, err := s.repo.GetByID(ctx, id)
		if err != nil {
			l := log.Ctx(ctx)
			l.Warn().Err(err).Str(log.FieldJobID, id).Msg("failed to load expired job")
			continue
		}
		s.syncIndex(ctx, job)
	}
	return len(ids), nil
}

func (s *jobServiceImpl) ReindexAll(ctx context.Context) (int, error) {
	if s.index == nil {
		return 0, ErrIndexDisabled
	}
	if err := s.index.EnsureIndex(ctx); err != nil {
		return 0, fmt.Errorf("failed to ensure index: %w", err)
	}

	total := 0
	err := s.repo.EachBatch(ctx, reindexBatchSize, func(jobs []domain.Job) error {
		if err := s.index.BulkIndex(ctx, jobs); err != nil {
			return err
		}
		total += len(jobs)
		return nil
	})
	if err != nil {
		return total, fmt.Errorf("failed to reindex jobs: %w", err)
	}
	return total, nil
}

func (s *jobServiceImpl) get(ctx context.Context, jobID string) (*domain.Job, error) {
	job, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, repository.ErrJobNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return job, nil
}

func (s *jobServiceImpl) owned(ctx context.Context, employerID, jobID string) (*domain.Job, error) {
	job, err := s.get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.EmployerID != employerID {
		return nil, ErrNotJobOwner
	}
	return job, nil
}

func (s *jobServiceImpl) withEmployer(ctx context.Context, job *domain.Job) *domain.JobResponse {
	summaries := lookupEmployers(ctx, s.employers, []string{job.EmployerID})
	return &domain.JobResponse{Job: *job, Employer: summaries[job.EmployerID]}
}

// syncIndex writes the posting to the search index. Failures are logged and
// never fail the write.
func (s *jobServiceImpl) syncIndex(ctx context.Context, job *domain.Job) {
	if s.index == nil {
		return
	}
	if err := s.index.Index(ctx, job); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Str(log.FieldJobID, job.ID).Msg("failed to index job")
	}
}
