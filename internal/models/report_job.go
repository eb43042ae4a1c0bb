package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ReportType is the dataset an asynchronous export covers.
type ReportType string

const (
	ReportTypeAttendance ReportType = "attendance"
	ReportTypeLeaves     ReportType = "leaves"
	ReportTypeJournals   ReportType = "journals"
)

// Entity maps the job type onto its projection.
func (t ReportType) Entity() ReportEntity {
	return ReportEntity(t)
}

// ReportFormat is the file format of an export.
type ReportFormat string

const (
	ReportFormatCSV ReportFormat = "csv"
	ReportFormatPDF ReportFormat = "pdf"
)

// Valid reports whether f is a known format.
func (f ReportFormat) Valid() bool {
	return f == ReportFormatCSV || f == ReportFormatPDF
}

// ContentType is the MIME type served for f. Unknown formats are treated as PDF.
func (f ReportFormat) ContentType() string {
	if f == ReportFormatCSV {
		return "text/csv"
	}
	return "application/pdf"
}

// ReportStatus is the lifecycle state of a job: QUEUED, then PROCESSING, then
// FINISHED or FAILED. A failed attempt with retries left goes back to QUEUED.
type ReportStatus string

const (
	ReportStatusQueued     ReportStatus = "QUEUED"
	ReportStatusProcessing ReportStatus = "PROCESSING"
	ReportStatusFinished   ReportStatus = "FINISHED"
	ReportStatusFailed     ReportStatus = "FAILED"
)

// Done reports whether s is terminal.
func (s ReportStatus) Done() bool {
	return s == ReportStatusFinished || s == ReportStatusFailed
}

// ReportJob is one row of report_jobs.
type ReportJob struct {
	ID           string          `db:"id" json:"id"`
	Type         ReportType      `db:"type" json:"type"`
	Params       ReportJobParams `db:"params" json:"params"`
	Status       ReportStatus    `db:"status" json:"status"`
	Progress     int             `db:"progress" json:"progress"`
	ResultURL    *string         `db:"result_url" json:"result_url,omitempty"`
	CreatedBy    string          `db:"created_by" json:"created_by"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	FinishedAt   *time.Time      `db:"finished_at" json:"finished_at,omitempty"`
	ErrorMessage *string         `db:"error_message" json:"error_message,omitempty"`
}

// ReportJobParams is stored as JSONB. Scope is the creator's visibility at
// request time, so the worker exports exactly what the creator could see.
type ReportJobParams struct {
	Date   *string      `json:"date,omitempty"`
	Status *string      `json:"status,omitempty"`
	Format ReportFormat `json:"format"`
	Scope  Scope        `json:"scope"`
}

// Value implements driver.Valuer.
func (p ReportJobParams) Value() (driver.Value, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal report job params: %w", err)
	}
	return data, nil
}

// Scan implements sql.Scanner. NULL and empty payloads yield zero params.
func (p *ReportJobParams) Scan(value interface{}) error {
	*p = ReportJobParams{}
	var data []byte
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("scan report job params: unsupported type %T", value)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, p); err != nil {
		return fmt.Errorf("scan report job params: %w", err)
	}
	return nil
}
