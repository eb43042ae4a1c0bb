package dto

// SubmitJournalRequest is the body of POST /journals.
type SubmitJournalRequest struct {
	Date        string   `json:"date" validate:"required,yyyymmdd"`
	Activity    string   `json:"activity" validate:"required,notblank,max=255"`
	Description string   `json:"description" validate:"required,notblank"`
	HoursWorked *float64 `json:"hours_worked" validate:"required,gt=0,lte=24"`
	Obstacles   *string  `json:"obstacles,omitempty"`
	NextPlan    *string  `json:"next_plan,omitempty"`
}
