package service

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/internship-tracker-api/internal/dto"
	"github.com/noah-isme/internship-tracker-api/internal/models"
	"github.com/noah-isme/internship-tracker-api/internal/repository"
	appErrors "github.com/noah-isme/internship-tracker-api/pkg/errors"
	"github.com/noah-isme/internship-tracker-api/pkg/jobs"
)

type reportRepoStub struct {
	jobs map[string]*models.ReportJob
}

func newReportRepoStub() *reportRepoStub {
	return &reportRepoStub{jobs: map[string]*models.ReportJob{}}
}

func (r *reportRepoStub) Create(ctx context.Context, job *models.ReportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	r.jobs[job.ID] = job
	return nil
}

func (r *reportRepoStub) GetByID(ctx context.Context, id string) (*models.ReportJob, error) {
	job, ok := r.jobs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return job, nil
}

func (r *reportRepoStub) ListByCreator(ctx context.Context, userID string, limit int) ([]models.ReportJob, error) {
	var out []models.ReportJob
	for _, job := range r.jobs {
		if job.CreatedBy == userID {
			out = append(out, *job)
		}
	}
	return out, nil
}

func (r *reportRepoStub) Update(ctx context.Context, id string, params repository.UpdateReportJobParams) error {
	job, ok := r.jobs[id]
	if !ok {
		return errors.New("not found")
	}
	if params.Status != nil {
		job.Status = *params.Status
	}
	if params.Progress != nil {
		job.Progress = *params.Progress
	}
	if params.ResultURL != nil {
		job.ResultURL = params.ResultURL
	}
	if params.ErrorMessage != nil {
		job.ErrorMessage = params.ErrorMessage
	}
	if params.FinishedAt != nil {
		job.FinishedAt = params.FinishedAt
	}
	return nil
}

func (r *reportRepoStub) ListUnfinished(ctx context.Context, limit int) ([]models.ReportJob, error) {
	var pending []models.ReportJob
	for _, job := range r.jobs {
		if job.Status == models.ReportStatusQueued || job.Status == models.ReportStatusProcessing {
			pending = append(pending, *job)
		}
	}
	return pending, nil
}

func (r *reportRepoStub) ListExpired(ctx context.Context, cutoff time.Time, limit int) ([]models.ReportJob, error) {
	var expired []models.ReportJob
	for _, job := range r.jobs {
		if job.Status == models.ReportStatusFinished && job.ResultURL != nil && job.FinishedAt != nil && job.FinishedAt.Before(cutoff) {
			expired = append(expired, *job)
		}
	}
	return expired, nil
}

func (r *reportRepoStub) ClearResult(ctx context.Context, id string) error {
	if job, ok := r.jobs[id]; ok {
		job.ResultURL = nil
	}
	return nil
}

type queueStub struct {
	jobs []jobs.Job
	err  error
}

func (q *queueStub) Enqueue(job jobs.Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

type jobCounter struct{ outcomes []string }

func (c *jobCounter) RecordReportJob(entity, outcome string) {
	c.outcomes = append(c.outcomes, entity+":"+outcome)
}

func newReportServiceForTest(t *testing.T) (*ReportService, *reportRepoStub, *queueStub, *ExportService) {
	t.Helper()
	repo := newReportRepoStub()
	queue := &queueStub{}
	exportSvc, _, _ := newExportServiceForTest(t)
	service := NewReportService(repo, nil, queue, exportSvc, zap.NewNop(), ReportServiceConfig{
		ResultTTL:       time.Hour,
		CleanupInterval: time.Hour,
		MaxRetries:      3,
	})
	return service, repo, queue, exportSvc
}

func TestReportServiceCreateJobStoresScope(t *testing.T) {
	svc, repo, queue, _ := newReportServiceForTest(t)
	scope := models.Scope{Kind: models.ScopeSupervised, SupervisorID: "p1", LegacyName: "Dr. Rina"}
	status := "approved"

	resp, err := svc.CreateJob(context.Background(), dto.ReportRequest{
		Type:   models.ReportTypeJournals,
		Status: &status,
	}, scope, "p1")
	require.NoError(t, err)
	require.NotEmpty(t, resp.ID)
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, models.ReportStatusQueued, resp.Status)

	stored := repo.jobs[resp.ID]
	require.NotNil(t, stored)
	assert.Equal(t, scope, stored.Params.Scope)
	assert.Equal(t, models.ReportFormatPDF, stored.Params.Format)
	assert.Equal(t, "APPROVED", *stored.Params.Status)
}

func TestReportServiceCreateJobRules(t *testing.T) {
	svc, _, queue, _ := newReportServiceForTest(t)
	ctx := context.Background()

	_, err := svc.CreateJob(ctx, dto.ReportRequest{Type: models.ReportTypeAttendance}, models.Scope{Kind: models.ScopeSelf, UserID: "s1"}, "s1")
	assertAppError(t, err, appErrors.ErrForbidden)

	_, err = svc.CreateJob(ctx, dto.ReportRequest{Type: "grades"}, models.Scope{Kind: models.ScopeAll}, "a1")
	assertAppError(t, err, appErrors.ErrValidation)

	bad := "2026/03/02"
	_, err = svc.CreateJob(ctx, dto.ReportRequest{Type: models.ReportTypeAttendance, Date: &bad}, models.Scope{Kind: models.ScopeAll}, "a1")
	assertAppError(t, err, appErrors.ErrValidation)
	assert.Empty(t, queue.jobs)
}

func TestReportServiceGetStatusOwnership(t *testing.T) {
	svc, repo, _, _ := newReportServiceForTest(t)
	repo.jobs["job-1"] = &models.ReportJob{
		ID:        "job-1",
		Type:      models.ReportTypeAttendance,
		Params:    models.ReportJobParams{Format: models.ReportFormatCSV},
		Status:    models.ReportStatusFinished,
		Progress:  100,
		CreatedBy: "p1",
	}

	resp, err := svc.GetStatus(context.Background(), "job-1", "p1", models.RoleSupervisor)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusFinished, resp.Status)
	assert.Equal(t, 100, resp.Progress)

	_, err = svc.GetStatus(context.Background(), "job-1", "a1", models.RoleAdmin)
	require.NoError(t, err)

	_, err = svc.GetStatus(context.Background(), "job-1", "p2", models.RoleSupervisor)
	assertAppError(t, err, appErrors.ErrForbidden)

	_, err = svc.GetStatus(context.Background(), "missing", "p1", models.RoleSupervisor)
	assertAppError(t, err, appErrors.ErrNotFound)

	list, err := svc.ListJobs(context.Background(), "p1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestReportServiceResolveDownload(t *testing.T) {
	svc, repo, _, exportSvc := newReportServiceForTest(t)
	job := &models.ReportJob{
		ID:        "job-download",
		Type:      models.ReportTypeAttendance,
		Params:    models.ReportJobParams{Format: models.ReportFormatCSV, Scope: models.Scope{Kind: models.ScopeAll}},
		Status:    models.ReportStatusFinished,
		Progress:  100,
		CreatedBy: "a1",
	}
	repo.jobs[job.ID] = job
	result, err := exportSvc.Generate(context.Background(), job)
	require.NoError(t, err)
	job.ResultURL = &result.URL

	download, err := svc.ResolveDownload(context.Background(), result.Token)
	require.NoError(t, err)
	assert.Equal(t, filepath.Base(result.RelativePath), download.Filename)
	download.File.Close()

	_, err = svc.ResolveDownload(context.Background(), "garbage")
	assertAppError(t, err, appErrors.ErrForbidden)
}

func TestReportServiceCleanupClearsExpiredResults(t *testing.T) {
	svc, repo, _, exportSvc := newReportServiceForTest(t)
	job := &models.ReportJob{
		ID:        "job-old",
		Type:      models.ReportTypeAttendance,
		Params:    models.ReportJobParams{Format: models.ReportFormatCSV, Scope: models.Scope{Kind: models.ScopeAll}},
		Status:    models.ReportStatusFinished,
		CreatedBy: "a1",
	}
	result, err := exportSvc.Generate(context.Background(), job)
	require.NoError(t, err)
	finished := time.Now().Add(-2 * time.Hour)
	job.ResultURL = &result.URL
	job.FinishedAt = &finished
	repo.jobs[job.ID] = job

	svc.cleanupExpired(context.Background())

	assert.Nil(t, repo.jobs[job.ID].ResultURL)
	_, err = exportSvc.Open(result.RelativePath)
	assert.Error(t, err)
}

func TestReportServiceRecoverPendingJobs(t *testing.T) {
	svc, repo, queue, _ := newReportServiceForTest(t)
	repo.jobs["q1"] = &models.ReportJob{ID: "q1", Type: models.ReportTypeLeaves, Status: models.ReportStatusQueued}
	repo.jobs["p1"] = &models.ReportJob{ID: "p1", Type: models.ReportTypeJournals, Status: models.ReportStatusProcessing}
	repo.jobs["f1"] = &models.ReportJob{ID: "f1", Type: models.ReportTypeLeaves, Status: models.ReportStatusFinished}

	svc.RecoverPendingJobs(context.Background())
	require.Len(t, queue.jobs, 2)
	ids := []string{queue.jobs[0].ID, queue.jobs[1].ID}
	assert.ElementsMatch(t, []string{"q1", "p1"}, ids)
}

func TestReportServiceCreateJobMarksUnqueuedJobFailed(t *testing.T) {
	svc, repo, queue, _ := newReportServiceForTest(t)
	queue.err = jobs.ErrNotStarted

	_, err := svc.CreateJob(context.Background(), dto.ReportRequest{Type: models.ReportTypeLeaves}, models.Scope{Kind: models.ScopeAll}, "a1")
	assertAppError(t, err, appErrors.ErrInternal)

	require.Len(t, repo.jobs, 1)
	for _, job := range repo.jobs {
		assert.Equal(t, models.ReportStatusFailed, job.Status)
		assert.Equal(t, 100, job.Progress)
		require.NotNil(t, job.FinishedAt)
	}
}

func TestTokenOf(t *testing.T) {
	assert.Equal(t, "abc.def.ghi", tokenOf("/api/v1/export/abc.def.ghi"))
	assert.Equal(t, "plain", tokenOf("plain"))
	assert.Equal(t, "", tokenOf(""))
}
