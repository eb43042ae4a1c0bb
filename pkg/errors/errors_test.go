package errors

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromErrorKeepsTypedErrors(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", Clone(ErrConflict, "already checked in"))

	appErr := FromError(wrapped)
	assert.Equal(t, ErrConflict.Code, appErr.Code)
	assert.Equal(t, http.StatusConflict, appErr.Status)
	assert.Equal(t, "already checked in", appErr.Message)
}

func TestFromErrorFallsBackToInternal(t *testing.T) {
	appErr := FromError(fmt.Errorf("boom"))
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Nil(t, FromError(nil))
}

func TestUnavailableWrapsCause(t *testing.T) {
	err := Unavailable(sql.ErrConnDone, "failed to load attendance")
	assert.Equal(t, http.StatusServiceUnavailable, err.Status)
	assert.ErrorIs(t, err, sql.ErrConnDone)
	assert.True(t, Is(err, ErrUnavailable))
	assert.False(t, Is(err, ErrNotFound))
}

func TestCloneDoesNotMutateOriginal(t *testing.T) {
	clone := Clone(ErrNotFound, "journal entry not found")
	assert.Equal(t, "resource not found", ErrNotFound.Message)
	assert.Equal(t, "journal entry not found", clone.Message)
}

func TestFromErrorMapsTimeouts(t *testing.T) {
	appErr := FromError(fmt.Errorf("query attendance: %w", context.DeadlineExceeded))
	assert.Equal(t, ErrUnavailable.Code, appErr.Code)
	assert.ErrorIs(t, appErr, context.DeadlineExceeded)
}

func TestWithFieldCopiesFields(t *testing.T) {
	base := Invalid(nil, "invalid leave request")
	first := base.WithField("date", "yyyymmdd")
	second := first.WithField("reason", "required")

	assert.Nil(t, base.Fields)
	assert.Len(t, first.Fields, 1)
	assert.Equal(t, map[string]string{"date": "yyyymmdd", "reason": "required"}, second.Fields)
	assert.Equal(t, http.StatusBadRequest, second.Status)
}
