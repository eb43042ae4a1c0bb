package models

import "time"

// ReportEntity names a projection that can be listed and exported.
type ReportEntity string

const (
	ReportEntityAttendance ReportEntity = "attendance"
	ReportEntityLeaves     ReportEntity = "leaves"
	ReportEntityJournals   ReportEntity = "journals"
)

// Valid reports whether the entity has a projection.
func (e ReportEntity) Valid() bool {
	switch e {
	case ReportEntityAttendance, ReportEntityLeaves, ReportEntityJournals:
		return true
	default:
		return false
	}
}

// ProjectionFilter narrows a projection.
type ProjectionFilter struct {
	Date   *time.Time
	Status *ReviewStatus
}

// AttendanceReportRow is one denormalised attendance row.
type AttendanceReportRow struct {
	UserID       string           `db:"user_id" json:"user_id"`
	Identifier   string           `db:"identifier" json:"identifier"`
	FullName     string           `db:"full_name" json:"full_name"`
	Date         time.Time        `db:"date" json:"date"`
	CheckInTime  time.Time        `db:"check_in_time" json:"check_in_time"`
	CheckOutTime *time.Time       `db:"check_out_time" json:"check_out_time,omitempty"`
	Status       AttendanceStatus `db:"status" json:"status"`
}

// LeaveReportRow is one denormalised leave row.
type LeaveReportRow struct {
	ID         string       `db:"id" json:"id"`
	UserID     string       `db:"user_id" json:"user_id"`
	Identifier string       `db:"identifier" json:"identifier"`
	FullName   string       `db:"full_name" json:"full_name"`
	Date       time.Time    `db:"date" json:"date"`
	Reason     string       `db:"reason" json:"reason"`
	Status     ReviewStatus `db:"status" json:"status"`
}

// JournalReportRow is one denormalised journal row.
type JournalReportRow struct {
	ID          string       `db:"id" json:"id"`
	UserID      string       `db:"user_id" json:"user_id"`
	Identifier  string       `db:"identifier" json:"identifier"`
	FullName    string       `db:"full_name" json:"full_name"`
	Date        time.Time    `db:"date" json:"date"`
	Activity    string       `db:"activity" json:"activity"`
	Description string       `db:"description" json:"description"`
	HoursWorked float64      `db:"hours_worked" json:"hours_worked"`
	Status      ReviewStatus `db:"status" json:"status"`
	Comment     *string      `db:"comment" json:"comment,omitempty"`
}
