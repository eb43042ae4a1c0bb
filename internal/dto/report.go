package dto

import (
	"time"

	"github.com/noah-isme/internship-tracker-api/internal/models"
)

// ReportRequest is the body of POST /reports/jobs. Date narrows attendance and
// leave exports to one day; Status filters leaves and journals.
type ReportRequest struct {
	Type   models.ReportType   `json:"type" validate:"required,oneof=attendance leaves journals"`
	Date   *string             `json:"date,omitempty" validate:"omitempty,yyyymmdd"`
	Status *string             `json:"status,omitempty" validate:"omitempty,oneof=PENDING APPROVED REJECTED"`
	Format models.ReportFormat `json:"format" validate:"omitempty,oneof=csv pdf"`
}

// ReportJobResponse acknowledges a queued job.
type ReportJobResponse struct {
	ID       string              `json:"id"`
	Status   models.ReportStatus `json:"status"`
	Progress int                 `json:"progress"`
}

// ReportStatusResponse describes a job for polling clients. ResultURL is set
// once the file is ready and cleared again when it expires.
type ReportStatusResponse struct {
	ID         string              `json:"id"`
	Type       models.ReportType   `json:"type"`
	Format     models.ReportFormat `json:"format"`
	Status     models.ReportStatus `json:"status"`
	Progress   int                 `json:"progress"`
	ResultURL  *string             `json:"result_url,omitempty"`
	Error      *string             `json:"error,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
	FinishedAt *time.Time          `json:"finished_at,omitempty"`
}

// ProjectionQuery is the query string of GET /reports/:entity and its export.
type ProjectionQuery struct {
	Date   string `form:"date" validate:"omitempty,yyyymmdd"`
	Status string `form:"status" validate:"omitempty,oneof=PENDING APPROVED REJECTED"`
	Format string `form:"format" validate:"omitempty,oneof=csv pdf"`
}
