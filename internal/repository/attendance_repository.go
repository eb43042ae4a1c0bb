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

const attendanceColumns = `id, user_id, date, check_in_time, check_out_time, status, created_at, updated_at`

// AttendanceRepository persists per-day attendance records.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// FindByUserDate returns the record of the user for the date or sql.ErrNoRows.
func (r *AttendanceRepository) FindByUserDate(ctx context.Context, userID string, date time.Time) (*models.AttendanceRecord, error) {
	query := `SELECT ` + attendanceColumns + ` FROM attendance_records WHERE user_id = $1 AND date = $2`
	var record models.AttendanceRecord
	if err := r.db.GetContext(ctx, &record, query, userID, date); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find attendance: %w", err)
	}
	return &record, nil
}

// Create inserts the check-in under a per user-date advisory lock. It fails with
// ErrLeaveExists when a leave request covers the date and ErrAttendanceExists on
// a duplicate check-in.
func (r *AttendanceRepository) Create(ctx context.Context, record *models.AttendanceRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	record.CreatedAt = now
	record.UpdatedAt = now

	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := lockUserDate(ctx, tx, record.UserID, record.Date); err != nil {
			return err
		}
		onLeave, err := existsForUserDate(ctx, tx, "leave_requests", record.UserID, record.Date)
		if err != nil {
			return err
		}
		if onLeave {
			return ErrLeaveExists
		}

		const insert = `INSERT INTO attendance_records (id, user_id, date, check_in_time, check_out_time, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, NULL, $5, $6, $7)
ON CONFLICT (user_id, date) DO NOTHING RETURNING id`
		var id string
		err = tx.QueryRowxContext(ctx, insert, record.ID, record.UserID, record.Date, record.CheckInTime, record.Status, record.CreatedAt, record.UpdatedAt).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrAttendanceExists
		}
		if err != nil {
			return fmt.Errorf("insert attendance: %w", err)
		}
		return nil
	})
}

// CheckOut sets the check-out time on an open record. ErrAlreadyCheckedOut is
// returned when no open record matched.
func (r *AttendanceRepository) CheckOut(ctx context.Context, userID string, date, at time.Time) (*models.AttendanceRecord, error) {
	query := `UPDATE attendance_records SET check_out_time = $3, updated_at = $4
WHERE user_id = $1 AND date = $2 AND check_out_time IS NULL
RETURNING ` + attendanceColumns
	var record models.AttendanceRecord
	if err := r.db.GetContext(ctx, &record, query, userID, date, at, time.Now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAlreadyCheckedOut
		}
		return nil, fmt.Errorf("check out attendance: %w", err)
	}
	return &record, nil
}

// History returns the latest records of the user, newest first.
func (r *AttendanceRepository) History(ctx context.Context, userID string, limit int) ([]models.AttendanceRecord, error) {
	query := `SELECT ` + attendanceColumns + ` FROM attendance_records WHERE user_id = $1 ORDER BY date DESC LIMIT $2`
	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, userID, limit); err != nil {
		return nil, fmt.Errorf("attendance history: %w", err)
	}
	return records, nil
}

// lockUserDate serialises attendance and leave writes for one user-date cell
// until the transaction ends.
func lockUserDate(ctx context.Context, tx *sqlx.Tx, userID string, date time.Time) error {
	key := userID + ":" + date.Format("2006-01-02")
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
		return fmt.Errorf("lock user date: %w", err)
	}
	return nil
}

func existsForUserDate(ctx context.Context, tx *sqlx.Tx, table, userID string, date time.Time) (bool, error) {
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE user_id = $1 AND date = $2)`, table)
	var exists bool
	if err := tx.GetContext(ctx, &exists, query, userID, date); err != nil {
		return false, fmt.Errorf("check %s: %w", table, err)
	}
	return exists, nil
}
