package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/internship-tracker-api/internal/models"
	"github.com/noah-isme/internship-tracker-api/internal/repository"
	"github.com/noah-isme/internship-tracker-api/pkg/jobs"
)

// Progress checkpoints written while a job runs.
const (
	progressQueued  = 0
	progressStarted = 10
	progressDone    = 100
)

// transition builds the column update moving a report job into a new state.
type transition struct {
	status   models.ReportStatus
	progress int
	url      *string
	message  *string
	finished *time.Time
}

func (t transition) params() repository.UpdateReportJobParams {
	return repository.UpdateReportJobParams{
		Status:       &t.status,
		Progress:     &t.progress,
		ResultURL:    t.url,
		ErrorMessage: t.message,
		FinishedAt:   t.finished,
	}
}

func started() transition {
	return transition{status: models.ReportStatusProcessing, progress: progressStarted}
}

func requeued(cause error) transition {
	msg := cause.Error()
	return transition{status: models.ReportStatusQueued, progress: progressQueued, message: &msg}
}

func failed(cause string, at time.Time) transition {
	return transition{status: models.ReportStatusFailed, progress: progressDone, message: &cause, finished: &at}
}

func finished(url string, at time.Time) transition {
	none := ""
	return transition{status: models.ReportStatusFinished, progress: progressDone, url: &url, message: &none, finished: &at}
}

// ReportWorker renders queued report jobs. It is the jobs.Handler of the
// report queue.
type ReportWorker struct {
	repo       reportJobStore
	exporter   exportGenerator
	metrics    reportJobRecorder
	logger     *zap.Logger
	maxRetries int
	now        func() time.Time
}

func NewReportWorker(repo reportJobStore, exporter exportGenerator, metrics reportJobRecorder, maxRetries int, logger *zap.Logger) *ReportWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &ReportWorker{
		repo:       repo,
		exporter:   exporter,
		metrics:    metrics,
		logger:     logger.With(zap.String("component", "report_worker")),
		maxRetries: maxRetries,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Handle runs one attempt of the job. A failed attempt returns its error so
// the queue schedules a retry; the attempt that exhausts maxRetries marks the
// job FAILED instead of QUEUED.
func (w *ReportWorker) Handle(ctx context.Context, job jobs.Job) error {
	record, err := w.repo.GetByID(ctx, job.ID)
	if err != nil {
		return fmt.Errorf("load report job %s: %w", job.ID, err)
	}
	if record.Status.Done() {
		w.logger.Debug("skipping completed report job", zap.String("job_id", job.ID), zap.String("status", string(record.Status)))
		return nil
	}
	if err := w.move(ctx, job.ID, started()); err != nil {
		return err
	}

	result, genErr := w.exporter.Generate(ctx, record)
	if genErr != nil {
		next := requeued(genErr)
		if job.Attempt >= w.maxRetries {
			next = failed(genErr.Error(), w.now())
		}
		if err := w.move(ctx, job.ID, next); err != nil {
			w.logger.Warn("failed to record job failure", zap.String("job_id", job.ID), zap.Error(err))
		}
		if next.status == models.ReportStatusFailed {
			w.count(record, "failed")
		}
		return genErr
	}

	if err := w.move(ctx, job.ID, finished(result.URL, w.now())); err != nil {
		w.logger.Warn("failed to mark job finished", zap.String("job_id", job.ID), zap.Error(err))
		return err
	}
	w.count(record, "finished")
	w.logger.Info("report job finished", zap.String("job_id", job.ID), zap.String("type", string(record.Type)), zap.Int("attempt", job.Attempt))
	return nil
}

func (w *ReportWorker) move(ctx context.Context, id string, t transition) error {
	if err := w.repo.Update(ctx, id, t.params()); err != nil {
		return fmt.Errorf("move report job %s to %s: %w", id, t.status, err)
	}
	return nil
}

func (w *ReportWorker) count(job *models.ReportJob, outcome string) {
	if w.metrics != nil {
		w.metrics.RecordReportJob(string(job.Type), outcome)
	}
}
