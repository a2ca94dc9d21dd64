package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/weiawesome/labor-market/internal/domain"
	"github.com/weiawesome/labor-market/internal/query"
	"github.com/weiawesome/labor-market/internal/repository"
	"github.com/weiawesome/labor-market/internal/service"
	"github.com/weiawesome/labor-market/pkg/database"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.New(&database.Config{
		Driver:       "sqlite",
		FilePath:     fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
		MaxOpenConns: 1,
		LogLevel:     "silent",
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db, &domain.JobModel{}, &domain.EmployerModel{}))
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

type fakeIndex struct {
	fakeStore
	mu      sync.Mutex
	docs    map[string]domain.Job
	ensured int
	failOn  error
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{docs: map[string]domain.Job{}}
}

func (f *fakeIndex) EnsureIndex(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ensured++
	return nil
}

func (f *fakeIndex) Index(_ context.Context, j *domain.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOn != nil {
		return f.failOn
	}
	f.docs[j.ID] = *j
	return nil
}

func (f *fakeIndex) Remove(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.docs, id)
	return nil
}

func (f *fakeIndex) BulkIndex(_ context.Context, jobs []domain.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, j := range jobs {
		f.docs[j.ID] = j
	}
	return nil
}

func (f *fakeIndex) doc(id string) (domain.Job, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.docs[id]
	return j, ok
}

type jobFixture struct {
	repo  *repository.GormJobRepository
	index *fakeIndex
	rec   *fakeRecorder
	svc   service.JobService
}

func newJobFixture(t *testing.T) *jobFixture {
	db := newTestDB(t)
	require.NoError(t, db.Create(&domain.EmployerModel{
		ID: "emp-1", FirstName: "Asha", LastName: "Rao", Role: "employer", IsVerifiedEmployer: true,
	}).Error)

	f := &jobFixture{
		repo:  repository.NewGormJobRepository(db),
		index: newFakeIndex(),
		rec:   &fakeRecorder{},
	}
	f.svc = service.NewJobService(f.repo, repository.NewGormEmployerRepository(db), f.rec, service.JobServiceOptions{
		Limits: query.DefaultLimits,
		MaxAge: 30 * 24 * time.Hour,
		Index:  f.index,
	})
	return f
}

func createRequest() *domain.CreateJobRequest {
	return &domain.CreateJobRequest{
		Title:       "House Painter",
		Description: "Paint two bedrooms",
		Category:    "painting",
		Skills:      []string{"Wall Putty"},
		Location: domain.LocationInput{
			Address: domain.AddressInput{City: "Pune", State: "Maharashtra"},
		},
		Budget:   domain.BudgetInput{Amount: 4000, Type: "fixed"},
		Duration: "one_time",
	}
}

func strPtr(s string) *string { return &s }

func TestCreateJob_AppliesDefaults(t *testing.T) {
	f := newJobFixture(t)

	resp, err := f.svc.CreateJob(context.Background(), "emp-1", createRequest())
	require.NoError(t, err)

	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "emp-1", resp.EmployerID)
	assert.Equal(t, domain.JobStatusDraft, resp.Status)
	assert.Equal(t, domain.DefaultCurrency, resp.Budget.Currency)
	assert.Equal(t, domain.DefaultCountry, resp.Location.Address.Country)
	assert.Equal(t, domain.DefaultMaxApplications, resp.MaxApplications)
	assert.Contains(t, resp.SearchKeywords, "painter")
	assert.Contains(t, resp.SearchKeywords, "wall putty")
	require.NotNil(t, resp.Employer)
	assert.Equal(t, "Rao", resp.Employer.LastName)

	_, indexed := f.index.doc(resp.ID)
	assert.True(t, indexed)
}

func TestCreateJob_IndexFailureDoesNotFailWrite(t *testing.T) {
	f := newJobFixture(t)
	f.index.failOn = errors.New("es down")

	resp, err := f.svc.CreateJob(context.Background(), "emp-1", createRequest())
	require.NoError(t, err)

	_, err = f.repo.GetByID(context.Background(), resp.ID)
	assert.NoError(t, err)
}

func TestGetJob(t *testing.T) {
	f := newJobFixture(t)
	created, err := f.svc.CreateJob(context.Background(), "emp-1", createRequest())
	require.NoError(t, err)

	got, err := f.svc.GetJob(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Title, got.Title)
	assert.Equal(t, [][]string{{created.ID}}, f.rec.recorded())

	_, err = f.svc.GetJob(context.Background(), "missing")
	assert.ErrorIs(t, err, service.ErrJobNotFound)
}

func TestUpdateJob_Ownership(t *testing.T) {
	f := newJobFixture(t)
	created, err := f.svc.CreateJob(context.Background(), "emp-1", createRequest())
	require.NoError(t, err)

	_, err = f.svc.UpdateJob(context.Background(), "emp-2", created.ID, &domain.UpdateJobRequest{Title: strPtr("x")})
	assert.ErrorIs(t, err, service.ErrNotJobOwner)

	_, err = f.svc.UpdateJob(context.Background(), "emp-1", "missing", &domain.UpdateJobRequest{})
	assert.ErrorIs(t, err, service.ErrJobNotFound)
}

func TestUpdateJob_StatusTransitions(t *testing.T) {
	f := newJobFixture(t)
	created, err := f.svc.CreateJob(context.Background(), "emp-1", createRequest())
	require.NoError(t, err)

	_, err = f.svc.UpdateJob(context.Background(), "emp-1", created.ID, &domain.UpdateJobRequest{Status: strPtr("paused")})
	assert.ErrorIs(t, err, service.ErrInvalidStatusTransition, "draft cannot pause")

	updated, err := f.svc.UpdateJob(context.Background(), "emp-1", created.ID, &domain.UpdateJobRequest{
		Status: strPtr("active"),
		Title:  strPtr("Interior Painter"),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusActive, updated.Status)
	assert.Contains(t, updated.SearchKeywords, "interior")
	assert.NotContains(t, updated.SearchKeywords, "house")

	doc, ok := f.index.doc(created.ID)
	require.True(t, ok)
	assert.Equal(t, domain.JobStatusActive, doc.Status)

	for _, step := range []string{"paused", "active", "filled"} {
		_, err = f.svc.UpdateJob(context.Background(), "emp-1", created.ID, &domain.UpdateJobRequest{Status: strPtr(step)})
		require.NoError(t, err, step)
	}

	_, err = f.svc.UpdateJob(context.Background(), "emp-1", created.ID, &domain.UpdateJobRequest{Status: strPtr("active")})
	assert.ErrorIs(t, err, service.ErrInvalidStatusTransition, "filled is terminal")

	_, err = f.svc.UpdateJob(context.Background(), "emp-1", created.ID, &domain.UpdateJobRequest{Status: strPtr("filled")})
	assert.NoError(t, err, "same status is a no-op")
}

func TestDeleteJob(t *testing.T) {
	f := newJobFixture(t)
	created, err := f.svc.CreateJob(context.Background(), "emp-1", createRequest())
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.DeleteJob(context.Background(), "emp-2", created.ID), service.ErrNotJobOwner)
	require.NoError(t, f.svc.DeleteJob(context.Background(), "emp-1", created.ID))

	_, indexed := f.index.doc(created.ID)
	assert.False(t, indexed)
	assert.ErrorIs(t, f.svc.DeleteJob(context.Background(), "emp-1", created.ID), service.ErrJobNotFound)
}

func TestListEmployerJobs_HidesDrafts(t *testing.T) {
	f := newJobFixture(t)
	draft, err := f.svc.CreateJob(context.Background(), "emp-1", createRequest())
	require.NoError(t, err)

	req := createRequest()
	req.Status = "active"
	active, err := f.svc.CreateJob(context.Background(), "emp-1", req)
	require.NoError(t, err)

	resp, err := f.svc.ListEmployerJobs(context.Background(), "emp-1", domain.EmployerJobsRequest{})
	require.NoError(t, err)

	require.Len(t, resp.Jobs, 1)
	assert.Equal(t, active.ID, resp.Jobs[0].ID)
	assert.NotEqual(t, draft.ID, resp.Jobs[0].ID)
	assert.Equal(t, int64(1), resp.Total)
	require.NotNil(t, resp.Jobs[0].Employer)
}

func TestExpireStaleJobs(t *testing.T) {
	f := newJobFixture(t)
	now := time.Now().UTC()
	past := now.Add(-time.Hour)

	fresh := &domain.Job{ID: "fresh", EmployerID: "emp-1", Status: domain.JobStatusActive, CreatedAt: now, UpdatedAt: now}
	old := &domain.Job{ID: "old", EmployerID: "emp-1", Status: domain.JobStatusActive,
		CreatedAt: now.Add(-60 * 24 * time.Hour), UpdatedAt: now}
	deadline := &domain.Job{ID: "deadline", EmployerID: "emp-1", Status: domain.JobStatusActive,
		ApplicationDeadline: &past, CreatedAt: now, UpdatedAt: now}
	for _, j := range []*domain.Job{fresh, old, deadline} {
		require.NoError(t, f.repo.Create(context.Background(), j))
	}

	n, err := f.svc.ExpireStaleJobs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := f.repo.GetByID(context.Background(), "fresh")
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusActive, got.Status)

	doc, ok := f.index.doc("old")
	require.True(t, ok)
	assert.Equal(t, domain.JobStatusExpired, doc.Status)
}

func TestReindexAll(t *testing.T) {
	f := newJobFixture(t)
	for i := 0; i < 3; i++ {
		_, err := f.svc.CreateJob(context.Background(), "emp-1", createRequest())
		require.NoError(t, err)
	}
	f.index.docs = map[string]domain.Job{}

	n, err := f.svc.ReindexAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 1, f.index.ensured)
	assert.Len(t, f.index.docs, 3)
}

func TestReindexAll_Disabled(t *testing.T) {
	db := newTestDB(t)
	svc := service.NewJobService(repository.NewGormJobRepository(db), nil, nil, service.JobServiceOptions{})

	_, err := svc.ReindexAll(context.Background())
	assert.ErrorIs(t, err, service.ErrIndexDisabled)
}
