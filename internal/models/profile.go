package models

import "time"

// Profile holds the extended internship attributes of a user.
type Profile struct {
	UserID         string     `db:"user_id" json:"user_id"`
	Phone          *string    `db:"phone" json:"phone,omitempty"`
	Address        *string    `db:"address" json:"address,omitempty"`
	University     *string    `db:"university" json:"university,omitempty"`
	Faculty        *string    `db:"faculty" json:"faculty,omitempty"`
	Major          *string    `db:"major" json:"major,omitempty"`
	CohortYear     *int       `db:"cohort_year" json:"cohort_year,omitempty"`
	GPA            *float64   `db:"gpa" json:"gpa,omitempty"`
	Credits        *int       `db:"credits" json:"credits,omitempty"`
	BirthDate      *time.Time `db:"birth_date" json:"birth_date,omitempty"`
	StartDate      *time.Time `db:"start_date" json:"start_date,omitempty"`
	EndDate        *time.Time `db:"end_date" json:"end_date,omitempty"`
	Division       *string    `db:"division" json:"division,omitempty"`
	SupervisorID   *string    `db:"supervisor_id" json:"supervisor_id,omitempty"`
	SupervisorName *string    `db:"supervisor_name" json:"supervisor_name,omitempty"`
	PhotoPath      *string    `db:"photo_path" json:"photo_path,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// StudentDetail is the admin lookup of a student by identifier.
type StudentDetail struct {
	User       User     `json:"user"`
	Profile    *Profile `json:"profile,omitempty"`
	Supervisor *User    `json:"supervisor,omitempty"`
}

// LinkedStudent is a student row as seen from a supervisor.
type LinkedStudent struct {
	ID         string  `db:"id" json:"id"`
	Identifier string  `db:"identifier" json:"identifier"`
	FullName   string  `db:"full_name" json:"full_name"`
	Email      *string `db:"email" json:"email,omitempty"`
	University *string `db:"university" json:"university,omitempty"`
	Major      *string `db:"major" json:"major,omitempty"`
	Division   *string `db:"division" json:"division,omitempty"`
	Active     bool    `db:"active" json:"active"`
}

// SupervisorOverview lists a supervisor with the number of linked students.
type SupervisorOverview struct {
	ID            string  `db:"id" json:"id"`
	Identifier    string  `db:"identifier" json:"identifier"`
	FullName      string  `db:"full_name" json:"full_name"`
	Email         *string `db:"email" json:"email,omitempty"`
	Active        bool    `db:"active" json:"active"`
	TotalStudents int     `db:"total_students" json:"total_students"`
}

// SupervisorSummary aggregates journal review counters for one supervisor.
type SupervisorSummary struct {
	SupervisorID     string `db:"-" json:"supervisor_id"`
	TotalStudents    int    `db:"total_students" json:"total_students"`
	PendingJournals  int    `db:"pending_journals" json:"pending_journals"`
	ApprovedJournals int    `db:"approved_journals" json:"approved_journals"`
}
