package service

import (
	"errors"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"

	appErrors "github.com/noah-isme/internship-tracker-api/pkg/errors"
)

// DateLayout is the calendar date wire format.
const DateLayout = "2006-01-02"

// NewValidator returns a validator with the project specific tags registered.
//
//	yyyymmdd   string parses as a calendar date
//	notblank   string has non-whitespace content
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("yyyymmdd", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(DateLayout, fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

// validationError maps validator failures to a VALIDATION_ERROR whose Fields
// name each offending field in snake_case with the tag that failed.
func validationError(err error, message string) error {
	appErr := appErrors.Invalid(err, message)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return appErr
	}
	for _, fe := range verrs {
		appErr = appErr.WithField(snakeCase(fe.Field()), fe.Tag())
	}
	return appErr
}

// snakeCase converts a Go field name such as SupervisorID to supervisor_id.
func snakeCase(name string) string {
	runes := []rune(name)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) {
			prevLower := i > 0 && (unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1]))
			nextLower := i > 0 && i+1 < len(runes) && unicode.IsUpper(runes[i-1]) && unicode.IsLower(runes[i+1])
			if prevLower || nextLower {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

// parseDate parses a YYYY-MM-DD value as midnight UTC.
func parseDate(raw string) (time.Time, error) {
	date, err := time.Parse(DateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, validationError(err, "date must use YYYY-MM-DD")
	}
	return date, nil
}

// calendarDate truncates t to its calendar date in loc, expressed as midnight UTC.
func calendarDate(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func optionalString(raw string) *string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
