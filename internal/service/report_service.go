package service

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/internship-tracker-api/internal/dto"
	"github.com/noah-isme/internship-tracker-api/internal/models"
	"github.com/noah-isme/internship-tracker-api/internal/repository"
	appErrors "github.com/noah-isme/internship-tracker-api/pkg/errors"
	"github.com/noah-isme/internship-tracker-api/pkg/jobs"
	"github.com/noah-isme/internship-tracker-api/pkg/middleware/requestid"
)

type reportJobStore interface {
	Create(ctx context.Context, job *models.ReportJob) error
	GetByID(ctx context.Context, id string) (*models.ReportJob, error)
	ListByCreator(ctx context.Context, userID string, limit int) ([]models.ReportJob, error)
	Update(ctx context.Context, id string, params repository.UpdateReportJobParams) error
	ListUnfinished(ctx context.Context, limit int) ([]models.ReportJob, error)
	ListExpired(ctx context.Context, cutoff time.Time, limit int) ([]models.ReportJob, error)
	ClearResult(ctx context.Context, id string) error
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type reportJobRecorder interface {
	RecordReportJob(entity, outcome string)
}

type exportGenerator interface {
	Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error)
}

// ReportService accepts export requests from reviewers and tracks them
// through the queue to a signed download.
type ReportService struct {
	repo      reportJobStore
	validator *validator.Validate
	queue     jobDispatcher
	exporter  *ExportService
	logger    *zap.Logger
	cfg       ReportServiceConfig
	now       func() time.Time
}

type ReportServiceConfig struct {
	ResultTTL       time.Duration
	CleanupInterval time.Duration
	MaxRetries      int
}

const (
	recentJobsLimit = 20
	recoverBatch    = 50
	cleanupBatch    = 100
)

// ReportDownload is an opened export ready to stream.
type ReportDownload struct {
	File      *os.File
	Filename  string
	Format    models.ReportFormat
	ExpiresAt time.Time
}

func NewReportService(repo reportJobStore, validate *validator.Validate, queue jobDispatcher, exporter *ExportService, logger *zap.Logger, cfg ReportServiceConfig) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	return &ReportService{
		repo:      repo,
		validator: validate,
		queue:     queue,
		exporter:  exporter,
		logger:    logger,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateJob stores a QUEUED job carrying the creator's scope and hands it to
// the queue. Only scopes that oversee other users may export.
func (s *ReportService) CreateJob(ctx context.Context, req dto.ReportRequest, scope models.Scope, actorID string) (*dto.ReportJobResponse, error) {
	if !scope.Oversees() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only admins and supervisors can export reports")
	}
	req = normalizeReportRequest(req)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid report request")
	}

	job := &models.ReportJob{
		Type:      req.Type,
		Params:    models.ReportJobParams{Date: req.Date, Status: req.Status, Format: req.Format, Scope: scope},
		Status:    models.ReportStatusQueued,
		Progress:  progressQueued,
		CreatedBy: actorID,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Unavailable(err, "failed to create report job")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: string(job.Type)}); err != nil {
		if markErr := s.repo.Update(ctx, job.ID, failed("failed to enqueue job", s.now()).params()); markErr != nil {
			s.logger.Warn("failed to mark unqueued job", zap.String("job_id", job.ID), zap.Error(markErr))
		}
		return nil, appErrors.Internal(err, "failed to enqueue report job")
	}

	s.logger.Info("report job queued",
		zap.String("job_id", job.ID),
		zap.String("type", string(job.Type)),
		zap.String("scope", string(scope.Kind)),
		zap.String("request_id", requestid.FromContext(ctx)),
	)
	return &dto.ReportJobResponse{ID: job.ID, Status: job.Status, Progress: job.Progress}, nil
}

func normalizeReportRequest(req dto.ReportRequest) dto.ReportRequest {
	if req.Format == "" {
		req.Format = models.ReportFormatPDF
	}
	if req.Status != nil {
		upper := strings.ToUpper(strings.TrimSpace(*req.Status))
		req.Status = &upper
	}
	return req
}

// GetStatus reports job progress. Admins see every job, others only their own.
func (s *ReportService) GetStatus(ctx context.Context, id string, actorID string, role models.UserRole) (*dto.ReportStatusResponse, error) {
	job, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if role != models.RoleAdmin && job.CreatedBy != actorID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "report job belongs to another user")
	}
	return statusResponse(job), nil
}

// ListJobs returns the caller's latest jobs.
func (s *ReportService) ListJobs(ctx context.Context, actorID string) ([]dto.ReportStatusResponse, error) {
	records, err := s.repo.ListByCreator(ctx, actorID, recentJobsLimit)
	if err != nil {
		return nil, appErrors.Unavailable(err, "failed to list report jobs")
	}
	out := make([]dto.ReportStatusResponse, len(records))
	for i := range records {
		out[i] = *statusResponse(&records[i])
	}
	return out, nil
}

func (s *ReportService) load(ctx context.Context, id string) (*models.ReportJob, error) {
	job, err := s.repo.GetByID(ctx, id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, appErrors.Clone(appErrors.ErrNotFound, "report job not found")
	case err != nil:
		return nil, appErrors.Unavailable(err, "failed to load report job")
	}
	return job, nil
}

func statusResponse(job *models.ReportJob) *dto.ReportStatusResponse {
	resp := &dto.ReportStatusResponse{
		ID:         job.ID,
		Type:       job.Type,
		Format:     job.Params.Format,
		Status:     job.Status,
		Progress:   job.Progress,
		ResultURL:  job.ResultURL,
		CreatedAt:  job.CreatedAt,
		FinishedAt: job.FinishedAt,
	}
	if job.ErrorMessage != nil && *job.ErrorMessage != "" {
		resp.Error = job.ErrorMessage
	}
	return resp
}

// ResolveDownload checks a signed token against its job and opens the file.
// The token must be the job's current result; a cleared or replaced result
// invalidates older links.
func (s *ReportService) ResolveDownload(ctx context.Context, token string) (*ReportDownload, error) {
	jobID, relPath, expiresAt, err := s.exporter.ParseToken(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	job, err := s.load(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != models.ReportStatusFinished || job.ResultURL == nil || tokenOf(*job.ResultURL) != token {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "download link is no longer valid")
	}
	file, err := s.exporter.Open(relPath)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to open export file")
	}
	return &ReportDownload{
		File:      file,
		Filename:  filepath.Base(relPath),
		Format:    job.Params.Format,
		ExpiresAt: expiresAt,
	}, nil
}

// RecoverPendingJobs puts QUEUED and PROCESSING jobs left by a previous
// process back on the queue.
func (s *ReportService) RecoverPendingJobs(ctx context.Context) {
	pending, err := s.repo.ListUnfinished(ctx, recoverBatch)
	if err != nil {
		s.logger.Warn("failed to recover queued report jobs", zap.Error(err))
		return
	}
	count := 0
	for _, job := range pending {
		err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: string(job.Type)})
		switch {
		case err == nil:
			count++
		case errors.Is(err, jobs.ErrDuplicate):
		default:
			s.logger.Warn("failed to requeue pending job", zap.String("job_id", job.ID), zap.Error(err))
		}
	}
	if count > 0 {
		s.logger.Info("requeued pending report jobs", zap.Int("count", count))
	}
}

// StartCleanup sweeps expired results every CleanupInterval until ctx ends.
func (s *ReportService) StartCleanup(ctx context.Context) {
	if s.cfg.CleanupInterval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(s.cfg.CleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.cleanupExpired(ctx)
			}
		}
	}()
}

// cleanupExpired drops result files older than ResultTTL and clears their
// links, then removes any orphaned files from storage.
func (s *ReportService) cleanupExpired(ctx context.Context) {
	cutoff := s.now().Add(-s.cfg.ResultTTL)
	total := 0
	for {
		batch, err := s.repo.ListExpired(ctx, cutoff, cleanupBatch)
		if err != nil {
			s.logger.Warn("cleanup list failed", zap.Error(err))
			return
		}
		cleared := 0
		for _, job := range batch {
			if s.expireResult(ctx, job) {
				cleared++
			}
		}
		total += cleared
		if len(batch) < cleanupBatch || cleared == 0 {
			break
		}
	}
	orphans, err := s.exporter.Cleanup(s.cfg.ResultTTL)
	if err != nil {
		s.logger.Warn("filesystem cleanup failed", zap.Error(err))
	}
	if total > 0 || len(orphans) > 0 {
		s.logger.Info("expired report results removed", zap.Int("jobs", total), zap.Int("files", len(orphans)))
	}
}

func (s *ReportService) expireResult(ctx context.Context, job models.ReportJob) bool {
	if job.ResultURL != nil {
		if _, relPath, _, err := s.exporter.ParseToken(tokenOf(*job.ResultURL), true); err == nil {
			if err := s.exporter.Delete(relPath); err != nil {
				s.logger.Warn("cleanup delete failed", zap.String("job_id", job.ID), zap.Error(err))
			}
		}
	}
	if err := s.repo.ClearResult(ctx, job.ID); err != nil {
		s.logger.Warn("cleanup clear failed", zap.String("job_id", job.ID), zap.Error(err))
		return false
	}
	return true
}

// tokenOf returns the last path segment of a download URL.
func tokenOf(url string) string {
	return url[strings.LastIndex(url, "/")+1:]
}
