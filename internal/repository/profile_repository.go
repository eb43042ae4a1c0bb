package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/internship-tracker-api/internal/models"
)

const profileColumns = `user_id, phone, address, university, faculty, major, cohort_year, gpa, credits, birth_date, start_date, end_date, division, supervisor_id, supervisor_name, photo_path, created_at, updated_at`

// ProfileRepository persists extended user profiles.
type ProfileRepository struct {
	db *sqlx.DB
}

// NewProfileRepository constructs the repository.
func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Get returns the profile of a user or sql.ErrNoRows.
func (r *ProfileRepository) Get(ctx context.Context, userID string) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE user_id = $1`
	var profile models.Profile
	if err := r.db.GetContext(ctx, &profile, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &profile, nil
}

// Upsert stores the self-editable profile fields. Supervisor linkage and the
// photo are left untouched on update.
func (r *ProfileRepository) Upsert(ctx context.Context, profile *models.Profile) (*models.Profile, error) {
	now := time.Now().UTC()
	profile.CreatedAt = now
	profile.UpdatedAt = now
	query := `INSERT INTO profiles (user_id, phone, address, university, faculty, major, cohort_year, gpa, credits, birth_date, start_date, end_date, division, created_at, updated_at)
VALUES (:user_id, :phone, :address, :university, :faculty, :major, :cohort_year, :gpa, :credits, :birth_date, :start_date, :end_date, :division, :created_at, :updated_at)
ON CONFLICT (user_id) DO UPDATE SET
    phone = EXCLUDED.phone,
    address = EXCLUDED.address,
    university = EXCLUDED.university,
    faculty = EXCLUDED.faculty,
    major = EXCLUDED.major,
    cohort_year = EXCLUDED.cohort_year,
    gpa = EXCLUDED.gpa,
    credits = EXCLUDED.credits,
    birth_date = EXCLUDED.birth_date,
    start_date = EXCLUDED.start_date,
    end_date = EXCLUDED.end_date,
    division = EXCLUDED.division,
    updated_at = EXCLUDED.updated_at
RETURNING ` + profileColumns
	rows, err := r.db.NamedQueryContext(ctx, query, profile)
	if err != nil {
		return nil, fmt.Errorf("upsert profile: %w", err)
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("upsert profile: %w", err)
		}
		return nil, fmt.Errorf("upsert profile: no row returned")
	}
	var stored models.Profile
	if err := rows.StructScan(&stored); err != nil {
		return nil, fmt.Errorf("scan profile: %w", err)
	}
	return &stored, nil
}

// SetPhoto records the stored photo path, creating the profile if needed.
// It returns the previous path, if any.
func (r *ProfileRepository) SetPhoto(ctx context.Context, userID, path string) (*string, error) {
	const query = `WITH previous AS (SELECT photo_path FROM profiles WHERE user_id = $1)
INSERT INTO profiles (user_id, photo_path, created_at, updated_at) VALUES ($1, $2, $3, $3)
ON CONFLICT (user_id) DO UPDATE SET photo_path = EXCLUDED.photo_path, updated_at = EXCLUDED.updated_at
RETURNING (SELECT photo_path FROM previous)`
	var previous sql.NullString
	if err := r.db.QueryRowxContext(ctx, query, userID, path, time.Now().UTC()).Scan(&previous); err != nil {
		return nil, fmt.Errorf("set profile photo: %w", err)
	}
	if !previous.Valid {
		return nil, nil
	}
	return &previous.String, nil
}

// AssignSupervisor links (or with nil unlinks) the student to a supervisor.
// Clearing the link also clears the legacy name so it cannot re-match.
func (r *ProfileRepository) AssignSupervisor(ctx context.Context, studentID string, supervisorID *string) error {
	const query = `INSERT INTO profiles (user_id, supervisor_id, created_at, updated_at) VALUES ($1, $2, $3, $3)
ON CONFLICT (user_id) DO UPDATE SET supervisor_id = EXCLUDED.supervisor_id, supervisor_name = NULL, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.ExecContext(ctx, query, studentID, supervisorID, time.Now().UTC()); err != nil {
		return fmt.Errorf("assign supervisor: %w", err)
	}
	return nil
}
