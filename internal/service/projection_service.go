package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/internship-tracker-api/internal/models"
	appErrors "github.com/noah-isme/internship-tracker-api/pkg/errors"
	"github.com/noah-isme/internship-tracker-api/pkg/export"
)

type projectionRepository interface {
	Attendance(ctx context.Context, scope models.Scope, filter models.ProjectionFilter) ([]models.AttendanceReportRow, error)
	Leaves(ctx context.Context, scope models.Scope, filter models.ProjectionFilter) ([]models.LeaveReportRow, error)
	Journals(ctx context.Context, scope models.Scope, filter models.ProjectionFilter) ([]models.JournalReportRow, error)
}

type queryObserver interface {
	ObserveDBQuery(label string, duration time.Duration)
}

// ProjectionService materialises scoped report rows and export datasets.
type ProjectionService struct {
	repo     projectionRepository
	metrics  queryObserver
	logger   *zap.Logger
	location *time.Location
}

// NewProjectionService constructs a ProjectionService. Times in datasets are
// rendered in loc.
func NewProjectionService(repo projectionRepository, metrics queryObserver, logger *zap.Logger, loc *time.Location) *ProjectionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &ProjectionService{repo: repo, metrics: metrics, logger: logger, location: loc}
}

// ParseFilter builds a projection filter from raw query values.
func ParseFilter(rawDate, rawStatus string) (models.ProjectionFilter, error) {
	var filter models.ProjectionFilter
	if strings.TrimSpace(rawDate) != "" {
		date, err := parseDate(rawDate)
		if err != nil {
			return filter, err
		}
		filter.Date = &date
	}
	if strings.TrimSpace(rawStatus) != "" {
		status := models.ReviewStatus(strings.ToUpper(strings.TrimSpace(rawStatus)))
		if status != models.ReviewPending && !status.Decision() {
			return filter, appErrors.Clone(appErrors.ErrValidation, "status must be PENDING, APPROVED or REJECTED")
		}
		filter.Status = &status
	}
	return filter, nil
}

// Attendance lists attendance rows visible under scope.
func (s *ProjectionService) Attendance(ctx context.Context, scope models.Scope, filter models.ProjectionFilter) ([]models.AttendanceReportRow, error) {
	start := time.Now()
	rows, err := s.repo.Attendance(ctx, scope, filter)
	s.observe(models.ReportEntityAttendance, start)
	if err != nil {
		return nil, appErrors.Unavailable(err, "failed to load attendance report")
	}
	out := make([]models.AttendanceReportRow, 0, len(rows))
	for _, row := range rows {
		if ownedInScope(scope, row.UserID) {
			out = append(out, row)
		}
	}
	return out, nil
}

// Leaves lists leave rows visible under scope.
func (s *ProjectionService) Leaves(ctx context.Context, scope models.Scope, filter models.ProjectionFilter) ([]models.LeaveReportRow, error) {
	start := time.Now()
	rows, err := s.repo.Leaves(ctx, scope, filter)
	s.observe(models.ReportEntityLeaves, start)
	if err != nil {
		return nil, appErrors.Unavailable(err, "failed to load leave report")
	}
	out := make([]models.LeaveReportRow, 0, len(rows))
	for _, row := range rows {
		if ownedInScope(scope, row.UserID) {
			out = append(out, row)
		}
	}
	return out, nil
}

// Journals lists journal rows visible under scope.
func (s *ProjectionService) Journals(ctx context.Context, scope models.Scope, filter models.ProjectionFilter) ([]models.JournalReportRow, error) {
	start := time.Now()
	rows, err := s.repo.Journals(ctx, scope, filter)
	s.observe(models.ReportEntityJournals, start)
	if err != nil {
		return nil, appErrors.Unavailable(err, "failed to load journal report")
	}
	out := make([]models.JournalReportRow, 0, len(rows))
	for _, row := range rows {
		if ownedInScope(scope, row.UserID) {
			out = append(out, row)
		}
	}
	return out, nil
}

// List dispatches on entity and returns the matching row slice.
func (s *ProjectionService) List(ctx context.Context, scope models.Scope, entity models.ReportEntity, filter models.ProjectionFilter) (interface{}, error) {
	switch entity {
	case models.ReportEntityAttendance:
		return s.Attendance(ctx, scope, filter)
	case models.ReportEntityLeaves:
		return s.Leaves(ctx, scope, filter)
	case models.ReportEntityJournals:
		return s.Journals(ctx, scope, filter)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown report entity")
	}
}

// Dataset renders the projection into tabular export content.
func (s *ProjectionService) Dataset(ctx context.Context, scope models.Scope, entity models.ReportEntity, filter models.ProjectionFilter) (export.Dataset, string, error) {
	title := reportTitle(entity, filter)
	switch entity {
	case models.ReportEntityAttendance:
		rows, err := s.Attendance(ctx, scope, filter)
		if err != nil {
			return export.Dataset{}, "", err
		}
		data := export.Dataset{Headers: []string{"NIM", "Name", "Date", "Check In", "Check Out", "Status"}}
		for _, row := range rows {
			checkOut := "-"
			if row.CheckOutTime != nil {
				checkOut = row.CheckOutTime.In(s.location).Format("15:04")
			}
			data.Rows = append(data.Rows, map[string]string{
				"NIM":       row.Identifier,
				"Name":      row.FullName,
				"Date":      row.Date.Format(DateLayout),
				"Check In":  row.CheckInTime.In(s.location).Format("15:04"),
				"Check Out": checkOut,
				"Status":    string(row.Status),
			})
		}
		return data, title, nil
	case models.ReportEntityLeaves:
		rows, err := s.Leaves(ctx, scope, filter)
		if err != nil {
			return export.Dataset{}, "", err
		}
		data := export.Dataset{Headers: []string{"NIM", "Name", "Date", "Reason", "Status"}}
		for _, row := range rows {
			data.Rows = append(data.Rows, map[string]string{
				"NIM":    row.Identifier,
				"Name":   row.FullName,
				"Date":   row.Date.Format(DateLayout),
				"Reason": row.Reason,
				"Status": string(row.Status),
			})
		}
		return data, title, nil
	case models.ReportEntityJournals:
		rows, err := s.Journals(ctx, scope, filter)
		if err != nil {
			return export.Dataset{}, "", err
		}
		data := export.Dataset{Headers: []string{"NIM", "Name", "Date", "Activity", "Hours", "Status"}}
		for _, row := range rows {
			data.Rows = append(data.Rows, map[string]string{
				"NIM":      row.Identifier,
				"Name":     row.FullName,
				"Date":     row.Date.Format(DateLayout),
				"Activity": row.Activity,
				"Hours":    strconv.FormatFloat(row.HoursWorked, 'f', -1, 64),
				"Status":   string(row.Status),
			})
		}
		return data, title, nil
	default:
		return export.Dataset{}, "", appErrors.Clone(appErrors.ErrValidation, "unknown report entity")
	}
}

func (s *ProjectionService) observe(entity models.ReportEntity, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("projection_"+string(entity), time.Since(start))
	}
}

// ownedInScope guards SELF scopes against rows of other users.
func ownedInScope(scope models.Scope, ownerID string) bool {
	if scope.Kind != models.ScopeSelf {
		return true
	}
	return scope.UserID != "" && scope.UserID == ownerID
}

func reportTitle(entity models.ReportEntity, filter models.ProjectionFilter) string {
	var name string
	switch entity {
	case models.ReportEntityAttendance:
		name = "Attendance Report"
	case models.ReportEntityLeaves:
		name = "Leave Report"
	case models.ReportEntityJournals:
		name = "Journal Report"
	default:
		name = "Report"
	}
	if filter.Date != nil {
		return fmt.Sprintf("%s %s", name, filter.Date.Format(DateLayout))
	}
	return name
}
