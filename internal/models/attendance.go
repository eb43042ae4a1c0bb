package models

import "time"

// AttendanceStatus classifies a check-in against the late cutoff.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "PRESENT"
	AttendanceLate    AttendanceStatus = "LATE"
)

// AttendanceRecord is the single attendance row of a user for one calendar date.
type AttendanceRecord struct {
	ID           string           `db:"id" json:"id"`
	UserID       string           `db:"user_id" json:"user_id"`
	Date         time.Time        `db:"date" json:"date"`
	CheckInTime  time.Time        `db:"check_in_time" json:"check_in_time"`
	CheckOutTime *time.Time       `db:"check_out_time" json:"check_out_time,omitempty"`
	Status       AttendanceStatus `db:"status" json:"status"`
	CreatedAt    time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time        `db:"updated_at" json:"updated_at"`
}

// ReviewStatus is shared by leave requests and journal entries.
type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "PENDING"
	ReviewApproved ReviewStatus = "APPROVED"
	ReviewRejected ReviewStatus = "REJECTED"
)

// Decision reports whether the status is an allowed review outcome.
func (s ReviewStatus) Decision() bool {
	return s == ReviewApproved || s == ReviewRejected
}

// LeaveRequest excuses a user from attendance on one calendar date.
type LeaveRequest struct {
	ID         string       `db:"id" json:"id"`
	UserID     string       `db:"user_id" json:"user_id"`
	Date       time.Time    `db:"date" json:"date"`
	Reason     string       `db:"reason" json:"reason"`
	Status     ReviewStatus `db:"status" json:"status"`
	ReviewerID *string      `db:"reviewer_id" json:"reviewer_id,omitempty"`
	Comment    *string      `db:"comment" json:"comment,omitempty"`
	ReviewedAt *time.Time   `db:"reviewed_at" json:"reviewed_at,omitempty"`
	CreatedAt  time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time    `db:"updated_at" json:"updated_at"`
}

// DayState enumerates the per user-date attendance states.
type DayState string

const (
	DayNotCheckedIn DayState = "NOT_CHECKED_IN"
	DayCheckedIn    DayState = "CHECKED_IN"
	DayOnLeave      DayState = "ON_LEAVE"
)

// DayStatus is the resolved state of a user for one date. At most one of
// Attendance and Leave is set, matching State.
type DayStatus struct {
	Date       string            `json:"date"`
	State      DayState          `json:"state"`
	Attendance *AttendanceRecord `json:"attendance,omitempty"`
	Leave      *LeaveRequest     `json:"leave,omitempty"`
}
