package dto

import "github.com/noah-isme/internship-tracker-api/internal/models"

// StudentDashboardResponse summarises a student's own journals and today's state.
type StudentDashboardResponse struct {
	TotalJournals    int                     `json:"total_journals"`
	ApprovedJournals int                     `json:"approved_journals"`
	TotalHours       float64                 `json:"total_hours"`
	LatestJournals   []models.JournalSummary `json:"latest_journals"`
	Today            models.DayStatus        `json:"today"`
}

// AdminDashboardResponse summarises the whole program for administrators.
type AdminDashboardResponse struct {
	TotalStudents   int                     `json:"total_students"`
	PendingJournals int                     `json:"pending_journals"`
	PendingLeaves   int                     `json:"pending_leaves"`
	PresentToday    int                     `json:"present_today"`
	PendingReviews  []models.JournalSummary `json:"pending_reviews"`
}

// SupervisorDashboardResponse summarises the students linked to a supervisor.
type SupervisorDashboardResponse struct {
	TotalStudents    int                     `json:"total_students"`
	PendingJournals  int                     `json:"pending_journals"`
	ApprovedJournals int                     `json:"approved_journals"`
	PendingReviews   []models.JournalSummary `json:"pending_reviews"`
}
