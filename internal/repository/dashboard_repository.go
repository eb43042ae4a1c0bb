package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/internship-tracker-api/internal/models"
)

// DashboardRepository aggregates counters for the role dashboards.
type DashboardRepository struct {
	db *sqlx.DB
}

// NewDashboardRepository constructs the repository.
func NewDashboardRepository(db *sqlx.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

// JournalStats is the journal totals of a single student.
type JournalStats struct {
	Total      int     `db:"total"`
	Approved   int     `db:"approved"`
	TotalHours float64 `db:"total_hours"`
}

// StudentJournalStats sums the journals of the user.
func (r *DashboardRepository) StudentJournalStats(ctx context.Context, userID string) (*JournalStats, error) {
	const query = `SELECT COUNT(*) AS total,
    COUNT(*) FILTER (WHERE status = 'APPROVED') AS approved,
    COALESCE(SUM(hours_worked), 0) AS total_hours
FROM journal_entries WHERE user_id = $1`
	var stats JournalStats
	if err := r.db.GetContext(ctx, &stats, query, userID); err != nil {
		return nil, fmt.Errorf("student journal stats: %w", err)
	}
	return &stats, nil
}

// CountStudents counts active students visible under scope.
func (r *DashboardRepository) CountStudents(ctx context.Context, scope models.Scope) (int, error) {
	args := []interface{}{}
	clause := scopeClause(scope, "u.id", "p", &args)
	query := fmt.Sprintf(`SELECT COUNT(*) FROM users u LEFT JOIN profiles p ON p.user_id = u.id
WHERE u.role = 'STUDENT' AND u.active = TRUE AND %s`, clause)
	return r.count(ctx, "count students", query, args)
}

// CountJournals counts journals with the status visible under scope.
func (r *DashboardRepository) CountJournals(ctx context.Context, scope models.Scope, status models.ReviewStatus) (int, error) {
	args := []interface{}{status}
	clause := scopeClause(scope, "j.user_id", "p", &args)
	query := fmt.Sprintf(`SELECT COUNT(*) FROM journal_entries j LEFT JOIN profiles p ON p.user_id = j.user_id
WHERE j.status = $1 AND %s`, clause)
	return r.count(ctx, "count journals", query, args)
}

// CountLeaves counts leave requests with the status visible under scope.
func (r *DashboardRepository) CountLeaves(ctx context.Context, scope models.Scope, status models.ReviewStatus) (int, error) {
	args := []interface{}{status}
	clause := scopeClause(scope, "l.user_id", "p", &args)
	query := fmt.Sprintf(`SELECT COUNT(*) FROM leave_requests l LEFT JOIN profiles p ON p.user_id = l.user_id
WHERE l.status = $1 AND %s`, clause)
	return r.count(ctx, "count leaves", query, args)
}

// CountCheckIns counts attendance records on the date visible under scope.
func (r *DashboardRepository) CountCheckIns(ctx context.Context, scope models.Scope, date time.Time) (int, error) {
	args := []interface{}{date}
	clause := scopeClause(scope, "a.user_id", "p", &args)
	query := fmt.Sprintf(`SELECT COUNT(*) FROM attendance_records a LEFT JOIN profiles p ON p.user_id = a.user_id
WHERE a.date = $1 AND %s`, clause)
	return r.count(ctx, "count check-ins", query, args)
}

// RecentJournals returns the newest journals visible under scope, optionally
// narrowed to one status.
func (r *DashboardRepository) RecentJournals(ctx context.Context, scope models.Scope, status *models.ReviewStatus, limit int) ([]models.JournalSummary, error) {
	args := []interface{}{}
	where := scopeClause(scope, "j.user_id", "p", &args)
	if status != nil {
		args = append(args, *status)
		where += fmt.Sprintf(" AND j.status = $%d", len(args))
	}
	args = append(args, limit)
	query := fmt.Sprintf(`SELECT j.id, j.user_id, u.identifier, u.full_name, j.date, j.activity, j.status
FROM journal_entries j
JOIN users u ON u.id = j.user_id
LEFT JOIN profiles p ON p.user_id = j.user_id
WHERE %s
ORDER BY j.date DESC, j.created_at DESC
LIMIT $%d`, where, len(args))
	var rows []models.JournalSummary
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("recent journals: %w", err)
	}
	return rows, nil
}

func (r *DashboardRepository) count(ctx context.Context, op, query string, args []interface{}) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, query, args...); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return total, nil
}
