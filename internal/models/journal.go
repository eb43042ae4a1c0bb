package models

import "time"

// JournalEntry is a daily activity report submitted by a student.
type JournalEntry struct {
	ID          string       `db:"id" json:"id"`
	UserID      string       `db:"user_id" json:"user_id"`
	Date        time.Time    `db:"date" json:"date"`
	Activity    string       `db:"activity" json:"activity"`
	Description string       `db:"description" json:"description"`
	HoursWorked float64      `db:"hours_worked" json:"hours_worked"`
	Obstacles   *string      `db:"obstacles" json:"obstacles,omitempty"`
	NextPlan    *string      `db:"next_plan" json:"next_plan,omitempty"`
	Status      ReviewStatus `db:"status" json:"status"`
	Comment     *string      `db:"comment" json:"comment,omitempty"`
	ReviewerID  *string      `db:"reviewer_id" json:"reviewer_id,omitempty"`
	ReviewedAt  *time.Time   `db:"reviewed_at" json:"reviewed_at,omitempty"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at" json:"updated_at"`
}

// JournalSummary is the short form used by dashboards.
type JournalSummary struct {
	ID         string       `db:"id" json:"id"`
	UserID     string       `db:"user_id" json:"user_id"`
	Identifier string       `db:"identifier" json:"identifier,omitempty"`
	FullName   string       `db:"full_name" json:"full_name,omitempty"`
	Date       time.Time    `db:"date" json:"date"`
	Activity   string       `db:"activity" json:"activity"`
	Status     ReviewStatus `db:"status" json:"status"`
}
