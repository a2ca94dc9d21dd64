package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/weiawesome/labor-market/internal/domain"
	"github.com/weiawesome/labor-market/internal/service"
	"github.com/weiawesome/labor-market/pkg/log"
	"github.com/weiawesome/labor-market/pkg/middleware"
	"github.com/weiawesome/labor-market/pkg/response"
)

// RoleEmployer is required for every job write.
const RoleEmployer = "employer"

// Handler handles HTTP requests for the job service.
type Handler struct {
	searchService  service.SearchService
	jobService     service.JobService
	authMiddleware *middleware.AuthMiddleware
}

// NewHandler creates a new HTTP handler.
func NewHandler(searchService service.SearchService, jobService service.JobService, authMiddleware *middleware.AuthMiddleware) *Handler {
	return &Handler{
		searchService:  searchService,
		jobService:     jobService,
		authMiddleware: authMiddleware,
	}
}

// RegisterRoutes registers all routes.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		jobs := api.Group("/jobs")
		{
			// Public routes
			jobs.GET("", h.ListJobs)
			jobs.GET("/search", h.SearchJobs)
			jobs.GET("/employer/:employerId", h.ListEmployerJobs)
			jobs.GET("/:id", h.GetJob)

			// Employer routes
			write := jobs.Group("")
			write.Use(h.authMiddleware.RequireAuth(), h.authMiddleware.RequireRole(RoleEmployer))
			{
				write.POST("", h.CreateJob)
				write.PUT("/:id", h.UpdateJob)
				write.DELETE("/:id", h.DeleteJob)
			}
		}
	}
}

// ListJobs handles the public listing. Malformed query values are ignored.
func (h *Handler) ListJobs(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	var req domain.ListJobsRequest
	_ = c.ShouldBindQuery(&req)

	result, err := h.searchService.ListJobs(ctx, req)
	if err != nil {
		l.Error().Err(err).Msg("list jobs failed")
		response.InternalError(c, "failed to fetch jobs")
		return
	}

	response.Success(c, result)
}

// SearchJobs handles full-text search.
func (h *Handler) SearchJobs(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	var req domain.SearchJobsRequest
	_ = c.ShouldBindQuery(&req)

	result, err := h.searchService.SearchJobs(ctx, req)
	if err != nil {
		l.Error().Err(err).Str(log.FieldQuery, req.Query).Msg("search failed")
		response.InternalError(c, "search failed")
		return
	}

	response.Success(c, result)
}

// GetJob returns a single job.
func (h *Handler) GetJob(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	jobID := c.Param("id")

	job, err := h.jobService.GetJob(ctx, jobID)
	if err != nil {
		if errors.Is(err, service.ErrJobNotFound) {
			response.NotFound(c, "job not found")
			return
		}
		l.Error().Err(err).Str(log.FieldJobID, jobID).Msg("get job failed")
		response.InternalError(c, "failed to fetch job")
		return
	}

	response.Success(c, job)
}

// ListEmployerJobs returns an employer's published jobs.
func (h *Handler) ListEmployerJobs(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	employerID := c.Param("employerId")

	var req domain.EmployerJobsRequest
	_ = c.ShouldBindQuery(&req)

	result, err := h.jobService.ListEmployerJobs(ctx, employerID, req)
	if err != nil {
		l.Error().Err(err).Str(log.FieldEmployerID, employerID).Msg("list employer jobs failed")
		response.InternalError(c, "failed to fetch employer jobs")
		return
	}

	response.Success(c, result)
}

// CreateJob creates a job owned by the caller.
func (h *Handler) CreateJob(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	userID := middleware.GetUserID(c)
	if userID == "" {
		response.Unauthorized(c, "unauthorized")
		return
	}

	var req domain.CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid create job request")
		response.BadRequest(c, err.Error())
		return
	}

	job, err := h.jobService.CreateJob(ctx, userID, &req)
	if err != nil {
		l.Error().Err(err).Str(log.FieldUserID, userID).Msg("create job failed")
		response.InternalError(c, "failed to create job")
		return
	}

	response.Created(c, job)
}

// UpdateJob applies a partial update to a job owned by the caller.
func (h *Handler) UpdateJob(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	userID := middleware.GetUserID(c)
	if userID == "" {
		response.Unauthorized(c, "unauthorized")
		return
	}
	jobID := c.Param("id")

	var req domain.UpdateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid update job request")
		response.BadRequest(c, err.Error())
		return
	}

	job, err := h.jobService.UpdateJob(ctx, userID, jobID, &req)
	if err != nil {
		h.writeError(c, err, "update job failed", "failed to update job")
		return
	}

	response.Success(c, job)
}

// DeleteJob deletes a job owned by the caller.
func (h *Handler) DeleteJob(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		response.Unauthorized(c, "unauthorized")
		return
	}

	if err := h.jobService.DeleteJob(c.Request.Context(), userID, c.Param("id")); err != nil {
		h.writeError(c, err, "delete job failed", "failed to delete job")
		return
	}

	response.Message(c, "job deleted successfully")
}

func (h *Handler) writeError(c *gin.Context, err error, logMsg, userMsg string) {
	switch {
	case errors.Is(err, service.ErrJobNotFound):
		response.NotFound(c, "job not found")
	case errors.Is(err, service.ErrNotJobOwner):
		response.Forbidden(c, "not authorized to modify this job")
	case errors.Is(err, service.ErrInvalidStatusTransition):
		response.BadRequest(c, err.Error())
	default:
		l := log.Ctx(c.Request.Context())
		l.Error().Err(err).Str(log.FieldJobID, c.Param("id")).Msg(logMsg)
		response.InternalError(c, userMsg)
	}
}
