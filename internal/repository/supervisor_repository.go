package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/internship-tracker-api/internal/models"
)

const displayNameExpr = "COALESCE(NULLIF(u.full_name, ''), u.identifier)"

// SupervisorRepository answers supervisor to student linkage questions.
type SupervisorRepository struct {
	db *sqlx.DB
}

// NewSupervisorRepository constructs the repository.
func NewSupervisorRepository(db *sqlx.DB) *SupervisorRepository {
	return &SupervisorRepository{db: db}
}

// IsLinked reports whether studentID is supervised by supervisorID, falling
// back to the legacy name when legacyName is set.
func (r *SupervisorRepository) IsLinked(ctx context.Context, supervisorID, legacyName, studentID string) (bool, error) {
	args := []interface{}{studentID}
	clause := supervisedClause(supervisorID, legacyName, "p", &args)
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM profiles p WHERE p.user_id = $1 AND %s)`, clause)
	var linked bool
	if err := r.db.GetContext(ctx, &linked, query, args...); err != nil {
		return false, fmt.Errorf("check supervisor link: %w", err)
	}
	return linked, nil
}

// LinkedStudents lists the students linked to the supervisor ordered by identifier.
func (r *SupervisorRepository) LinkedStudents(ctx context.Context, supervisorID, legacyName string) ([]models.LinkedStudent, error) {
	args := []interface{}{}
	clause := supervisedClause(supervisorID, legacyName, "p", &args)
	query := fmt.Sprintf(`SELECT u.id, u.identifier, u.full_name, u.email, p.university, p.major, p.division, u.active
FROM users u
JOIN profiles p ON p.user_id = u.id
WHERE u.role = 'STUDENT' AND %s
ORDER BY u.identifier ASC`, clause)
	var students []models.LinkedStudent
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, fmt.Errorf("list linked students: %w", err)
	}
	return students, nil
}

// ListSupervisors returns every supervisor with the number of linked students.
// With legacyNameMatch, profiles that carry no supervisor id but name the
// supervisor are counted too.
func (r *SupervisorRepository) ListSupervisors(ctx context.Context, legacyNameMatch bool) ([]models.SupervisorOverview, error) {
	join := "p.supervisor_id = u.id"
	if legacyNameMatch {
		join = "(p.supervisor_id = u.id OR (p.supervisor_id IS NULL AND p.supervisor_name = " + displayNameExpr + "))"
	}
	query := fmt.Sprintf(`SELECT u.id, u.identifier, u.full_name, u.email, u.active, COUNT(DISTINCT p.user_id) AS total_students
FROM users u
LEFT JOIN profiles p ON %s
WHERE u.role = 'SUPERVISOR'
GROUP BY u.id, u.identifier, u.full_name, u.email, u.active
ORDER BY u.full_name ASC`, join)
	var supervisors []models.SupervisorOverview
	if err := r.db.SelectContext(ctx, &supervisors, query); err != nil {
		return nil, fmt.Errorf("list supervisors: %w", err)
	}
	return supervisors, nil
}

// DisplayName returns the stored name used for legacy linkage, falling back
// to the identifier when the full name is blank. Unknown ids yield sql.ErrNoRows.
func (r *SupervisorRepository) DisplayName(ctx context.Context, supervisorID string) (string, error) {
	query := `SELECT ` + displayNameExpr + ` FROM users u WHERE u.id = $1`
	var name string
	if err := r.db.GetContext(ctx, &name, query, supervisorID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", err
		}
		return "", fmt.Errorf("load supervisor name: %w", err)
	}
	return name, nil
}

// Summary counts linked students and their journal review states.
func (r *SupervisorRepository) Summary(ctx context.Context, supervisorID, legacyName string) (*models.SupervisorSummary, error) {
	args := []interface{}{}
	clause := supervisedClause(supervisorID, legacyName, "p", &args)
	query := fmt.Sprintf(`SELECT
    COUNT(DISTINCT p.user_id) AS total_students,
    COUNT(j.id) FILTER (WHERE j.status = 'PENDING') AS pending_journals,
    COUNT(j.id) FILTER (WHERE j.status = 'APPROVED') AS approved_journals
FROM profiles p
LEFT JOIN journal_entries j ON j.user_id = p.user_id
WHERE %s`, clause)
	var summary models.SupervisorSummary
	if err := r.db.GetContext(ctx, &summary, query, args...); err != nil {
		return nil, fmt.Errorf("supervisor summary: %w", err)
	}
	summary.SupervisorID = supervisorID
	return &summary, nil
}
