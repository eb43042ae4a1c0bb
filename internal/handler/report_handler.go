package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/internship-tracker-api/internal/dto"
	"github.com/noah-isme/internship-tracker-api/internal/models"
	"github.com/noah-isme/internship-tracker-api/internal/service"
	appErrors "github.com/noah-isme/internship-tracker-api/pkg/errors"
	"github.com/noah-isme/internship-tracker-api/pkg/response"
)

type projectionLister interface {
	List(ctx context.Context, scope models.Scope, entity models.ReportEntity, filter models.ProjectionFilter) (interface{}, error)
}

type reportExporter interface {
	Export(ctx context.Context, scope models.Scope, entity models.ReportEntity, filter models.ProjectionFilter, format models.ReportFormat) (*service.RenderedExport, error)
}

type reportJobService interface {
	CreateJob(ctx context.Context, req dto.ReportRequest, scope models.Scope, actorID string) (*dto.ReportJobResponse, error)
	GetStatus(ctx context.Context, id string, actorID string, role models.UserRole) (*dto.ReportStatusResponse, error)
	ListJobs(ctx context.Context, actorID string) ([]dto.ReportStatusResponse, error)
	ResolveDownload(ctx context.Context, token string) (*service.ReportDownload, error)
}

// ReportHandler exposes scoped projections, synchronous exports and the
// asynchronous export queue. jobs is nil when reports are disabled.
type ReportHandler struct {
	projection projectionLister
	exporter   reportExporter
	jobs       reportJobService
}

// NewReportHandler constructs handler.
func NewReportHandler(projection projectionLister, exporter reportExporter, jobs reportJobService) *ReportHandler {
	return &ReportHandler{projection: projection, exporter: exporter, jobs: jobs}
}

// List godoc
// @Summary Scoped report rows
// @Description Rows the caller may see, ordered by date desc then identifier
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param entity path string true "attendance, leaves or journals"
// @Param date query string false "Date (YYYY-MM-DD)"
// @Param status query string false "Journal status filter"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /reports/{entity} [get]
func (h *ReportHandler) List(c *gin.Context) {
	_, scope, ok := currentCaller(c)
	if !ok {
		return
	}
	entity, filter, _, ok := parseProjectionRequest(c)
	if !ok {
		return
	}
	rows, err := h.projection.List(c.Request.Context(), scope, entity, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// Export godoc
// @Summary Export scoped report rows
// @Tags Reports
// @Produce application/pdf
// @Produce text/csv
// @Security BearerAuth
// @Param entity path string true "attendance, leaves or journals"
// @Param date query string false "Date (YYYY-MM-DD)"
// @Param status query string false "Journal status filter"
// @Param format query string false "pdf (default) or csv"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /reports/{entity}/export [get]
func (h *ReportHandler) Export(c *gin.Context) {
	_, scope, ok := currentCaller(c)
	if !ok {
		return
	}
	entity, filter, format, ok := parseProjectionRequest(c)
	if !ok {
		return
	}
	rendered, err := h.exporter.Export(c.Request.Context(), scope, entity, filter, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, rendered.Filename, rendered.ContentType, rendered.Data)
}

// CreateJob godoc
// @Summary Queue an export
// @Tags Reports
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.ReportRequest true "Report request"
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /reports/jobs [post]
func (h *ReportHandler) CreateJob(c *gin.Context) {
	if !h.jobsEnabled(c) {
		return
	}
	claims, scope, ok := currentCaller(c)
	if !ok {
		return
	}
	var req dto.ReportRequest
	if !bindJSON(c, &req, "invalid report payload") {
		return
	}
	job, err := h.jobs.CreateJob(c.Request.Context(), req, scope, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, job)
}

// ListJobs godoc
// @Summary Own export jobs
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /reports/jobs [get]
func (h *ReportHandler) ListJobs(c *gin.Context) {
	if !h.jobsEnabled(c) {
		return
	}
	claims, _, ok := currentCaller(c)
	if !ok {
		return
	}
	jobs, err := h.jobs.ListJobs(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, jobs, nil)
}

// JobStatus godoc
// @Summary Export job status
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /reports/jobs/{id} [get]
func (h *ReportHandler) JobStatus(c *gin.Context) {
	if !h.jobsEnabled(c) {
		return
	}
	claims, _, ok := currentCaller(c)
	if !ok {
		return
	}
	status, err := h.jobs.GetStatus(c.Request.Context(), c.Param("id"), claims.UserID, claims.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// Download godoc
// @Summary Download a finished export
// @Tags Reports
// @Produce application/pdf
// @Produce text/csv
// @Param token path string true "Signed token"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Router /export/{token} [get]
func (h *ReportHandler) Download(c *gin.Context) {
	if !h.jobsEnabled(c) {
		return
	}
	download, err := h.jobs.ResolveDownload(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.File.Close()

	info, err := download.File.Stat()
	if err != nil {
		response.Error(c, appErrors.Internal(err, "failed to read export file"))
		return
	}
	c.DataFromReader(http.StatusOK, info.Size(), download.Format.ContentType(), download.File, map[string]string{
		"Cache-Control":       "no-store",
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", download.Filename),
	})
}

func (h *ReportHandler) jobsEnabled(c *gin.Context) bool {
	if h.jobs == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrFeatureDisabled, "reports are disabled"))
		return false
	}
	return true
}

func parseProjectionRequest(c *gin.Context) (models.ReportEntity, models.ProjectionFilter, models.ReportFormat, bool) {
	entity := models.ReportEntity(strings.ToLower(c.Param("entity")))
	if !entity.Valid() {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "unknown report entity"))
		return "", models.ProjectionFilter{}, "", false
	}
	var query dto.ProjectionQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Invalid(err, "invalid report query"))
		return "", models.ProjectionFilter{}, "", false
	}
	filter, err := service.ParseFilter(query.Date, query.Status)
	if err != nil {
		response.Error(c, err)
		return "", models.ProjectionFilter{}, "", false
	}
	return entity, filter, models.ReportFormat(strings.ToLower(strings.TrimSpace(query.Format))), true
}
