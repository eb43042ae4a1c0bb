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
)

const journalColumns = `id, user_id, date, activity, description, hours_worked, obstacles, next_plan, status, comment, reviewer_id, reviewed_at, created_at, updated_at`

// JournalRepository persists journal entries.
type JournalRepository struct {
	db *sqlx.DB
}

// NewJournalRepository constructs the repository.
func NewJournalRepository(db *sqlx.DB) *JournalRepository {
	return &JournalRepository{db: db}
}

// Create inserts a new entry. Several entries per day are allowed.
func (r *JournalRepository) Create(ctx context.Context, entry *models.JournalEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Status == "" {
		entry.Status = models.ReviewPending
	}
	now := time.Now().UTC()
	entry.CreatedAt = now
	entry.UpdatedAt = now

	const query = `INSERT INTO journal_entries (id, user_id, date, activity, description, hours_worked, obstacles, next_plan, status, created_at, updated_at)
VALUES (:id, :user_id, :date, :activity, :description, :hours_worked, :obstacles, :next_plan, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("create journal: %w", err)
	}
	return nil
}

// FindByID returns an entry or sql.ErrNoRows.
func (r *JournalRepository) FindByID(ctx context.Context, id string) (*models.JournalEntry, error) {
	query := `SELECT ` + journalColumns + ` FROM journal_entries WHERE id = $1`
	var entry models.JournalEntry
	if err := r.db.GetContext(ctx, &entry, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find journal: %w", err)
	}
	return &entry, nil
}

// ListByUser returns the entries of a user, newest first.
func (r *JournalRepository) ListByUser(ctx context.Context, userID string) ([]models.JournalEntry, error) {
	query := `SELECT ` + journalColumns + ` FROM journal_entries WHERE user_id = $1 ORDER BY date DESC, created_at DESC`
	var entries []models.JournalEntry
	if err := r.db.SelectContext(ctx, &entries, query, userID); err != nil {
		return nil, fmt.Errorf("list journals: %w", err)
	}
	return entries, nil
}

// Review overwrites the review outcome of an entry. Missing entries return sql.ErrNoRows.
func (r *JournalRepository) Review(ctx context.Context, id string, status models.ReviewStatus, reviewerID string, comment *string, at time.Time) (*models.JournalEntry, error) {
	query := `UPDATE journal_entries SET status = $2, comment = $3, reviewer_id = $4, reviewed_at = $5, updated_at = $5
WHERE id = $1
RETURNING ` + journalColumns
	var entry models.JournalEntry
	if err := r.db.GetContext(ctx, &entry, query, id, status, comment, reviewerID, at); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("review journal: %w", err)
	}
	return &entry, nil
}
