package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/labor-market/internal/domain"
	"github.com/weiawesome/labor-market/internal/handler"
	"github.com/weiawesome/labor-market/internal/service"
	"github.com/weiawesome/labor-market/pkg/jwt"
	"github.com/weiawesome/labor-market/pkg/middleware"
	"github.com/weiawesome/labor-market/pkg/response"
)

type fakeSearch struct {
	list   domain.ListJobsRequest
	search domain.SearchJobsRequest
	err    error
}

func (f *fakeSearch) ListJobs(_ context.Context, req domain.ListJobsRequest) (*domain.ListJobsResponse, error) {
	f.list = req
	if f.err != nil {
		return nil, f.err
	}
	return &domain.ListJobsResponse{Jobs: []domain.JobResponse{}, Page: 1}, nil
}

func (f *fakeSearch) SearchJobs(_ context.Context, req domain.SearchJobsRequest) (*domain.SearchJobsResponse, error) {
	f.search = req
	if f.err != nil {
		return nil, f.err
	}
	return &domain.SearchJobsResponse{
		ListJobsResponse: domain.ListJobsResponse{Jobs: []domain.JobResponse{}, Page: 1},
		Filters:          domain.SearchFilters{SortBy: "relevance"},
	}, nil
}

type fakeJobs struct {
	service.JobService
	employerID string
	jobID      string
	err        error
}

func (f *fakeJobs) GetJob(_ context.Context, id string) (*domain.JobResponse, error) {
	f.jobID = id
	if f.err != nil {
		return nil, f.err
	}
	return &domain.JobResponse{Job: domain.Job{ID: id}}, nil
}

func (f *fakeJobs) ListEmployerJobs(_ context.Context, employerID string, _ domain.EmployerJobsRequest) (*domain.ListJobsResponse, error) {
	f.employerID = employerID
	return &domain.ListJobsResponse{Jobs: []domain.JobResponse{}, Page: 1}, nil
}

func (f *fakeJobs) CreateJob(_ context.Context, employerID string, req *domain.CreateJobRequest) (*domain.JobResponse, error) {
	f.employerID = employerID
	if f.err != nil {
		return nil, f.err
	}
	return &domain.JobResponse{Job: domain.Job{ID: "new", EmployerID: employerID, Title: req.Title}}, nil
}

func (f *fakeJobs) UpdateJob(_ context.Context, employerID, jobID string, _ *domain.UpdateJobRequest) (*domain.JobResponse, error) {
	f.employerID, f.jobID = employerID, jobID
	if f.err != nil {
		return nil, f.err
	}
	return &domain.JobResponse{Job: domain.Job{ID: jobID}}, nil
}

func (f *fakeJobs) DeleteJob(_ context.Context, employerID, jobID string) error {
	f.employerID, f.jobID = employerID, jobID
	return f.err
}

type testServer struct {
	router *gin.Engine
	search *fakeSearch
	jobs   *fakeJobs
	tokens *jwt.Manager
}

func newTestServer(t *testing.T) *testServer {
	gin.SetMode(gin.TestMode)

	tokens, err := jwt.NewManager("test-secret", "labor-market", time.Hour)
	require.NoError(t, err)

	s := &testServer{
		router: gin.New(),
		search: &fakeSearch{},
		jobs:   &fakeJobs{},
		tokens: tokens,
	}
	handler.NewHandler(s.search, s.jobs, middleware.NewAuthMiddleware(tokens)).RegisterRoutes(s.router)
	return s
}

func (s *testServer) token(t *testing.T, userID string, roles ...string) string {
	t.Helper()
	tok, err := s.tokens.GenerateAccessToken(userID, userID+"@example.com", userID, roles)
	require.NoError(t, err)
	return tok
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, response.Response) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var resp response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w, resp
}

func validCreateBody() map[string]interface{} {
	return map[string]interface{}{
		"title":       "Electrician",
		"description": "Rewire a flat",
		"category":    "electrical",
		"duration":    "one_time",
		"location":    map[string]interface{}{"address": map[string]string{"city": "Delhi", "state": "Delhi"}},
		"budget":      map[string]interface{}{"amount": 2500, "type": "fixed"},
	}
}

func TestListJobs_MalformedParamsStillSucceed(t *testing.T) {
	s := newTestServer(t)

	w, resp := s.do(t, http.MethodGet, "/api/v1/jobs?page=abc&limit=-4&budget_min=cheap&search=cook", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, "abc", s.search.list.Page)
	assert.Equal(t, "cook", s.search.list.Search)
	assert.Equal(t, "cheap", s.search.list.BudgetMin)
}

func TestSearchJobs_BindsQuery(t *testing.T) {
	s := newTestServer(t)

	w, resp := s.do(t, http.MethodGet, "/api/v1/jobs/search?q=tile+setter&sort_by=budget_low&location=Pune", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, "tile setter", s.search.search.Query)
	assert.Equal(t, "budget_low", s.search.search.SortBy)
	assert.Equal(t, "Pune", s.search.search.Location)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, data, "filters")
	assert.Contains(t, data, "hasNext")
}

func TestSearchJobs_StoreFailureIs500(t *testing.T) {
	s := newTestServer(t)
	s.search.err = errors.New("pq: connection refused")

	w, resp := s.do(t, http.MethodGet, "/api/v1/jobs/search?q=x", "", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, response.CodeInternal, resp.Error.Code)
	assert.NotContains(t, resp.Error.Message, "pq")
}

func TestGetJob(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.do(t, http.MethodGet, "/api/v1/jobs/job-9", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "job-9", s.jobs.jobID)

	s.jobs.err = service.ErrJobNotFound
	w, resp := s.do(t, http.MethodGet, "/api/v1/jobs/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, response.CodeNotFound, resp.Error.Code)
}

func TestListEmployerJobs_Route(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.do(t, http.MethodGet, "/api/v1/jobs/employer/emp-7?page=2", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "emp-7", s.jobs.employerID)
}

func TestCreateJob_Auth(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.do(t, http.MethodPost, "/api/v1/jobs", "", validCreateBody())
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = s.do(t, http.MethodPost, "/api/v1/jobs", "not-a-token", validCreateBody())
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = s.do(t, http.MethodPost, "/api/v1/jobs", s.token(t, "u-1", "worker"), validCreateBody())
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCreateJob(t *testing.T) {
	s := newTestServer(t)
	tok := s.token(t, "emp-1", "employer")

	w, resp := s.do(t, http.MethodPost, "/api/v1/jobs", tok, validCreateBody())
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, "emp-1", s.jobs.employerID)

	body := validCreateBody()
	body["category"] = "astronaut"
	w, resp = s.do(t, http.MethodPost, "/api/v1/jobs", tok, body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, response.CodeBadRequest, resp.Error.Code)
}

func TestUpdateJob_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"ok", nil, http.StatusOK},
		{"missing", service.ErrJobNotFound, http.StatusNotFound},
		{"not owner", service.ErrNotJobOwner, http.StatusForbidden},
		{"bad transition", fmt.Errorf("%w: draft -> paused", service.ErrInvalidStatusTransition), http.StatusBadRequest},
		{"store down", errors.New("db down"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			s.jobs.err = tt.err

			w, _ := s.do(t, http.MethodPut, "/api/v1/jobs/job-1", s.token(t, "emp-1", "employer"),
				map[string]interface{}{"status": "paused"})
			assert.Equal(t, tt.code, w.Code)
			assert.Equal(t, "job-1", s.jobs.jobID)
		})
	}
}

func TestUpdateJob_RejectsUnknownStatus(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.do(t, http.MethodPut, "/api/v1/jobs/job-1", s.token(t, "emp-1", "employer"),
		map[string]interface{}{"status": "archived"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, s.jobs.jobID)
}

func TestDeleteJob(t *testing.T) {
	s := newTestServer(t)

	w, resp := s.do(t, http.MethodDelete, "/api/v1/jobs/job-1", s.token(t, "emp-1", "employer"), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "job deleted successfully", resp.Message)
	assert.Equal(t, "emp-1", s.jobs.employerID)
}
