package dto

// UpdateProfileRequest is the body of PUT /profile/me. Supervisor linkage and
// the photo are managed through their own routes.
type UpdateProfileRequest struct {
	Phone      *string  `json:"phone" validate:"omitempty,max=32"`
	Address    *string  `json:"address" validate:"omitempty,max=500"`
	University *string  `json:"university" validate:"omitempty,max=255"`
	Faculty    *string  `json:"faculty" validate:"omitempty,max=255"`
	Major      *string  `json:"major" validate:"omitempty,max=255"`
	CohortYear *int     `json:"cohort_year" validate:"omitempty,gte=1950,lte=2100"`
	GPA        *float64 `json:"gpa" validate:"omitempty,gte=0,lte=4"`
	Credits    *int     `json:"credits" validate:"omitempty,gte=0"`
	BirthDate  *string  `json:"birth_date" validate:"omitempty,yyyymmdd"`
	StartDate  *string  `json:"start_date" validate:"omitempty,yyyymmdd"`
	EndDate    *string  `json:"end_date" validate:"omitempty,yyyymmdd"`
	Division   *string  `json:"division" validate:"omitempty,max=255"`
}
