package dto

// LeaveRequestPayload is the body of POST /leaves.
type LeaveRequestPayload struct {
	Date   string `json:"date" validate:"required,yyyymmdd"`
	Reason string `json:"reason" validate:"required,notblank,max=1000"`
}

// ReviewRequest is the body of the leave and journal review routes.
type ReviewRequest struct {
	Decision string  `json:"decision" validate:"required"`
	Comment  *string `json:"comment,omitempty" validate:"omitempty,max=2000"`
}
