package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/internship-tracker-api/pkg/errors"
)

func TestNewValidatorCustomTags(t *testing.T) {
	v := NewValidator()
	type payload struct {
		Date   string `validate:"required,yyyymmdd"`
		Reason string `validate:"notblank"`
	}
	assert.NoError(t, v.Struct(payload{Date: "2024-05-01", Reason: "medical"}))
	assert.Error(t, v.Struct(payload{Date: "01/05/2024", Reason: "medical"}))
	assert.Error(t, v.Struct(payload{Date: "2024-05-01", Reason: "   "}))
}

func TestCalendarDateUsesLocation(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*3600)
	instant := time.Date(2024, 4, 30, 18, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), calendarDate(instant, jakarta))
	assert.Equal(t, time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC), calendarDate(instant, nil))
}

func TestParseDate(t *testing.T) {
	date, err := parseDate(" 2024-05-01 ")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), date)

	_, err = parseDate("2024-13-01")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestValidationErrorListsFields(t *testing.T) {
	type payload struct {
		SupervisorID string  `validate:"required"`
		HoursWorked  float64 `validate:"gt=0"`
	}
	err := validationError(NewValidator().Struct(payload{}), "invalid payload")

	appErr := appErrors.FromError(err)
	assert.Equal(t, "invalid payload", appErr.Message)
	assert.Equal(t, map[string]string{"supervisor_id": "required", "hours_worked": "gt"}, appErr.Fields)
}

func TestSnakeCase(t *testing.T) {
	cases := map[string]string{
		"SupervisorID": "supervisor_id",
		"HoursWorked":  "hours_worked",
		"NewPassword":  "new_password",
		"HTTPStatus":   "http_status",
		"Date":         "date",
		"Address2Line": "address2_line",
	}
	for in, want := range cases {
		assert.Equal(t, want, snakeCase(in), in)
	}
}

func TestValidationErrorKeepsPlainErrors(t *testing.T) {
	appErr := appErrors.FromError(validationError(errors.New("bad json"), "invalid payload"))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Nil(t, appErr.Fields)
}
