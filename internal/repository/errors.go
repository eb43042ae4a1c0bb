package repository

import (
	"errors"

	"github.com/lib/pq"
)

var (
	// ErrAttendanceExists is returned when the user already has an attendance record for the date.
	ErrAttendanceExists = errors.New("attendance already recorded for date")
	// ErrLeaveExists is returned when the user already has a leave request for the date.
	ErrLeaveExists = errors.New("leave already requested for date")
	// ErrAlreadyCheckedOut is returned when the attendance record already carries a check-out.
	ErrAlreadyCheckedOut = errors.New("attendance already checked out")
	// ErrLeaveResolved is returned when reviewing a leave that is no longer pending.
	ErrLeaveResolved = errors.New("leave request already reviewed")
	// ErrDuplicateIdentifier is returned on a users.identifier unique violation.
	ErrDuplicateIdentifier = errors.New("identifier already registered")
	// ErrDuplicateEmail is returned on a users.email unique violation.
	ErrDuplicateEmail = errors.New("email already registered")
)

const (
	pqUniqueViolation = "23505"

	usersIdentifierKey = "users_identifier_key"
	usersEmailKey      = "users_email_key"
)

// uniqueViolation returns the violated constraint name for Postgres unique errors.
func uniqueViolation(err error) (string, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
		return pqErr.Constraint, true
	}
	return "", false
}

func mapUserConstraint(err error) error {
	constraint, ok := uniqueViolation(err)
	if !ok {
		return nil
	}
	switch constraint {
	case usersEmailKey:
		return ErrDuplicateEmail
	default:
		return ErrDuplicateIdentifier
	}
}
