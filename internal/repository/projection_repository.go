package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/internship-tracker-api/internal/models"
)

// ProjectionRepository reads denormalised rows for listing and export.
type ProjectionRepository struct {
	db *sqlx.DB
}

// NewProjectionRepository constructs the repository.
func NewProjectionRepository(db *sqlx.DB) *ProjectionRepository {
	return &ProjectionRepository{db: db}
}

// Attendance returns attendance rows visible under scope ordered by date DESC, identifier ASC.
func (r *ProjectionRepository) Attendance(ctx context.Context, scope models.Scope, filter models.ProjectionFilter) ([]models.AttendanceReportRow, error) {
	where, args := projectionWhere(scope, filter, "a", false)
	query := fmt.Sprintf(`SELECT a.user_id, u.identifier, u.full_name, a.date, a.check_in_time, a.check_out_time, a.status
FROM attendance_records a
JOIN users u ON u.id = a.user_id
LEFT JOIN profiles p ON p.user_id = a.user_id
WHERE %s
ORDER BY a.date DESC, u.identifier ASC`, where)
	var rows []models.AttendanceReportRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("project attendance: %w", err)
	}
	return rows, nil
}

// Leaves returns leave rows visible under scope ordered by date DESC, identifier ASC.
func (r *ProjectionRepository) Leaves(ctx context.Context, scope models.Scope, filter models.ProjectionFilter) ([]models.LeaveReportRow, error) {
	where, args := projectionWhere(scope, filter, "l", true)
	query := fmt.Sprintf(`SELECT l.id, l.user_id, u.identifier, u.full_name, l.date, l.reason, l.status
FROM leave_requests l
JOIN users u ON u.id = l.user_id
LEFT JOIN profiles p ON p.user_id = l.user_id
WHERE %s
ORDER BY l.date DESC, u.identifier ASC`, where)
	var rows []models.LeaveReportRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("project leaves: %w", err)
	}
	return rows, nil
}

// Journals returns journal rows visible under scope ordered by date DESC, identifier ASC.
func (r *ProjectionRepository) Journals(ctx context.Context, scope models.Scope, filter models.ProjectionFilter) ([]models.JournalReportRow, error) {
	where, args := projectionWhere(scope, filter, "j", true)
	query := fmt.Sprintf(`SELECT j.id, j.user_id, u.identifier, u.full_name, j.date, j.activity, j.description, j.hours_worked, j.status, j.comment
FROM journal_entries j
JOIN users u ON u.id = j.user_id
LEFT JOIN profiles p ON p.user_id = j.user_id
WHERE %s
ORDER BY j.date DESC, u.identifier ASC, j.created_at DESC`, where)
	var rows []models.JournalReportRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("project journals: %w", err)
	}
	return rows, nil
}

func projectionWhere(scope models.Scope, filter models.ProjectionFilter, alias string, hasStatus bool) (string, []interface{}) {
	args := []interface{}{}
	conditions := []string{scopeClause(scope, alias+".user_id", "p", &args)}
	if filter.Date != nil {
		args = append(args, *filter.Date)
		conditions = append(conditions, fmt.Sprintf("%s.date = $%d", alias, len(args)))
	}
	if hasStatus && filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, fmt.Sprintf("%s.status = $%d", alias, len(args)))
	}
	return strings.Join(conditions, " AND "), args
}
