package handler

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/internship-tracker-api/internal/dto"
	"github.com/noah-isme/internship-tracker-api/internal/models"
	"github.com/noah-isme/internship-tracker-api/internal/service"
	appErrors "github.com/noah-isme/internship-tracker-api/pkg/errors"
)

type fakeProjection struct {
	rows       interface{}
	err        error
	lastScope  models.Scope
	lastEntity models.ReportEntity
	lastFilter models.ProjectionFilter
}

func (f *fakeProjection) List(_ context.Context, scope models.Scope, entity models.ReportEntity, filter models.ProjectionFilter) (interface{}, error) {
	f.lastScope, f.lastEntity, f.lastFilter = scope, entity, filter
	return f.rows, f.err
}

type fakeExporter struct {
	rendered   *service.RenderedExport
	err        error
	lastFormat models.ReportFormat
}

func (f *fakeExporter) Export(_ context.Context, _ models.Scope, _ models.ReportEntity, _ models.ProjectionFilter, format models.ReportFormat) (*service.RenderedExport, error) {
	f.lastFormat = format
	return f.rendered, f.err
}

type reportServiceMock struct {
	createResp  *dto.ReportJobResponse
	createErr   error
	statusResp  *dto.ReportStatusResponse
	statusErr   error
	download    *service.ReportDownload
	downloadErr error
	lastScope   models.Scope
}

func (m *reportServiceMock) CreateJob(_ context.Context, _ dto.ReportRequest, scope models.Scope, _ string) (*dto.ReportJobResponse, error) {
	m.lastScope = scope
	return m.createResp, m.createErr
}

func (m *reportServiceMock) GetStatus(context.Context, string, string, models.UserRole) (*dto.ReportStatusResponse, error) {
	return m.statusResp, m.statusErr
}

func (m *reportServiceMock) ListJobs(context.Context, string) ([]dto.ReportStatusResponse, error) {
	return []dto.ReportStatusResponse{}, nil
}

func (m *reportServiceMock) ResolveDownload(context.Context, string) (*service.ReportDownload, error) {
	return m.download, m.downloadErr
}

func TestReportHandlerListParsesFilter(t *testing.T) {
	projection := &fakeProjection{rows: []models.JournalReportRow{}}
	handler := NewReportHandler(projection, &fakeExporter{}, nil)

	c, w := newGinContext(http.MethodGet, "/reports/journals?date=2026-03-02&status=pending", nil)
	c.Params = append(c.Params, ginParam("entity", "journals"))
	scope := authenticate(c, "stu-1", models.RoleStudent)

	handler.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, scope, projection.lastScope)
	assert.Equal(t, models.ReportEntityJournals, projection.lastEntity)
	require.NotNil(t, projection.lastFilter.Date)
	require.NotNil(t, projection.lastFilter.Status)
	assert.Equal(t, models.ReviewPending, *projection.lastFilter.Status)
}

func TestReportHandlerListRejectsBadInput(t *testing.T) {
	handler := NewReportHandler(&fakeProjection{}, &fakeExporter{}, nil)

	c, w := newGinContext(http.MethodGet, "/reports/grades", nil)
	c.Params = append(c.Params, ginParam("entity", "grades"))
	authenticate(c, "adm-1", models.RoleAdmin)
	handler.List(c)
	assert.Equal(t, http.StatusNotFound, w.Code)

	c, w = newGinContext(http.MethodGet, "/reports/attendance?date=02-03-2026", nil)
	c.Params = append(c.Params, ginParam("entity", "attendance"))
	authenticate(c, "adm-1", models.RoleAdmin)
	handler.List(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReportHandlerExportStreamsAttachment(t *testing.T) {
	exporter := &fakeExporter{rendered: &service.RenderedExport{
		Filename:    "attendance_2026-03-02_20260302_090000.csv",
		ContentType: "text/csv",
		Data:        []byte("NIM,Name\n"),
	}}
	handler := NewReportHandler(&fakeProjection{}, exporter, nil)

	c, w := newGinContext(http.MethodGet, "/reports/attendance/export?format=CSV", nil)
	c.Params = append(c.Params, ginParam("entity", "attendance"))
	authenticate(c, "adm-1", models.RoleAdmin)

	handler.Export(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.ReportFormatCSV, exporter.lastFormat)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attendance_2026-03-02")
	assert.Equal(t, "NIM,Name\n", w.Body.String())
}

func TestReportHandlerJobsDisabled(t *testing.T) {
	handler := NewReportHandler(&fakeProjection{}, &fakeExporter{}, nil)
	c, w := newGinContext(http.MethodPost, "/reports/jobs", []byte(`{"type":"attendance"}`))
	authenticate(c, "adm-1", models.RoleAdmin)

	handler.CreateJob(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, appErrors.ErrFeatureDisabled.Code, decodeEnvelope(t, w).Error.Code)
}

func TestReportHandlerCreateJob(t *testing.T) {
	jobs := &reportServiceMock{createResp: &dto.ReportJobResponse{ID: "job-1", Status: models.ReportStatusQueued}}
	handler := NewReportHandler(&fakeProjection{}, &fakeExporter{}, jobs)

	payload := mustJSON(t, dto.ReportRequest{Type: models.ReportTypeAttendance, Format: models.ReportFormatCSV})
	c, w := newGinContext(http.MethodPost, "/reports/jobs", payload)
	authenticate(c, "sup-1", models.RoleSupervisor)

	handler.CreateJob(c)

	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, models.ScopeSupervised, jobs.lastScope.Kind)
}

func TestReportHandlerJobStatus(t *testing.T) {
	jobs := &reportServiceMock{statusErr: appErrors.Clone(appErrors.ErrForbidden, "not your job")}
	handler := NewReportHandler(&fakeProjection{}, &fakeExporter{}, jobs)

	c, w := newGinContext(http.MethodGet, "/reports/jobs/job-1", nil)
	c.Params = append(c.Params, ginParam("id", "job-1"))
	authenticate(c, "sup-2", models.RoleSupervisor)

	handler.JobStatus(c)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestReportHandlerDownload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journals.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b\n"), 0o644))
	file, err := os.Open(path)
	require.NoError(t, err)

	jobs := &reportServiceMock{download: &service.ReportDownload{File: file, Filename: "journals.csv", Format: models.ReportFormatCSV}}
	handler := NewReportHandler(&fakeProjection{}, &fakeExporter{}, jobs)
	c, w := newGinContext(http.MethodGet, "/export/token", nil)
	c.Params = append(c.Params, ginParam("token", "token"))

	handler.Download(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "a,b\n", w.Body.String())
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
}
