package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/internship-tracker-api/internal/models"
	"github.com/noah-isme/internship-tracker-api/pkg/database"
)

const leaveColumns = `id, user_id, date, reason, status, reviewer_id, comment, reviewed_at, created_at, updated_at`

// LeaveRepository persists leave requests.
type LeaveRepository struct {
	db *sqlx.DB
}

// NewLeaveRepository constructs the repository.
func NewLeaveRepository(db *sqlx.DB) *LeaveRepository {
	return &LeaveRepository{db: db}
}

// FindByUserDate returns the leave of the user for the date or sql.ErrNoRows.
func (r *LeaveRepository) FindByUserDate(ctx context.Context, userID string, date time.Time) (*models.LeaveRequest, error) {
	query := `SELECT ` + leaveColumns + ` FROM leave_requests WHERE user_id = $1 AND date = $2`
	var leave models.LeaveRequest
	if err := r.db.GetContext(ctx, &leave, query, userID, date); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find leave: %w", err)
	}
	return &leave, nil
}

// FindByID returns a leave request or sql.ErrNoRows.
func (r *LeaveRepository) FindByID(ctx context.Context, id string) (*models.LeaveRequest, error) {
	query := `SELECT ` + leaveColumns + ` FROM leave_requests WHERE id = $1`
	var leave models.LeaveRequest
	if err := r.db.GetContext(ctx, &leave, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find leave by id: %w", err)
	}
	return &leave, nil
}

// Create inserts a pending leave under the user-date advisory lock. It fails
// with ErrAttendanceExists when the user already checked in on the date and
// ErrLeaveExists on a duplicate request.
func (r *LeaveRepository) Create(ctx context.Context, leave *models.LeaveRequest) error {
	if leave.ID == "" {
		leave.ID = uuid.NewString()
	}
	if leave.Status == "" {
		leave.Status = models.ReviewPending
	}
	now := time.Now().UTC()
	leave.CreatedAt = now
	leave.UpdatedAt = now

	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := lockUserDate(ctx, tx, leave.UserID, leave.Date); err != nil {
			return err
		}
		checkedIn, err := existsForUserDate(ctx, tx, "attendance_records", leave.UserID, leave.Date)
		if err != nil {
			return err
		}
		if checkedIn {
			return ErrAttendanceExists
		}

		const insert = `INSERT INTO leave_requests (id, user_id, date, reason, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (user_id, date) DO NOTHING RETURNING id`
		var id string
		err = tx.QueryRowxContext(ctx, insert, leave.ID, leave.UserID, leave.Date, leave.Reason, leave.Status, leave.CreatedAt, leave.UpdatedAt).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrLeaveExists
		}
		if err != nil {
			return fmt.Errorf("insert leave: %w", err)
		}
		return nil
	})
}

// Review resolves a pending leave. ErrLeaveResolved is returned when the
// leave is no longer pending.
func (r *LeaveRepository) Review(ctx context.Context, id string, status models.ReviewStatus, reviewerID string, comment *string, at time.Time) (*models.LeaveRequest, error) {
	query := `UPDATE leave_requests SET status = $2, reviewer_id = $3, comment = $4, reviewed_at = $5, updated_at = $5
WHERE id = $1 AND status = 'PENDING'
RETURNING ` + leaveColumns
	var leave models.LeaveRequest
	if err := r.db.GetContext(ctx, &leave, query, id, status, reviewerID, comment, at); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLeaveResolved
		}
		return nil, fmt.Errorf("review leave: %w", err)
	}
	return &leave, nil
}

// History returns the latest leave requests of the user, newest first.
func (r *LeaveRepository) History(ctx context.Context, userID string, limit int) ([]models.LeaveRequest, error) {
	query := `SELECT ` + leaveColumns + ` FROM leave_requests WHERE user_id = $1 ORDER BY date DESC LIMIT $2`
	var leaves []models.LeaveRequest
	if err := r.db.SelectContext(ctx, &leaves, query, userID, limit); err != nil {
		return nil, fmt.Errorf("leave history: %w", err)
	}
	return leaves, nil
}
