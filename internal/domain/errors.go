package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSeatTaken means another Booked reservation already holds the
	// (flight, date, seat) triple. Expected under concurrency, the
	// caller should re-prompt seat selection.
	ErrSeatTaken = errors.New("seat is already booked for this flight and date")

	ErrReservationNotFound = errors.New("reservation not found")

	ErrFlightNotFound = errors.New("flight not found")

	// ErrCheckedIn guards checked-in reservations against seat, meal
	// and baggage changes.
	ErrCheckedIn = errors.New("reservation is already checked in")

	// ErrNotBooked means the reservation is cancelled and can no longer
	// be modified.
	ErrNotBooked = errors.New("reservation is not active")

	ErrAlreadyCheckedIn = errors.New("already checked in")

	ErrNameMismatch = errors.New("last name does not match booking")
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	msgs := make([]string, 0, len(v))
	for _, e := range v {
		msgs = append(msgs, e.Error())
	}
	return fmt.Sprintf("validation failed: [%s]", strings.Join(msgs, "; "))
}

// IsValidation reports whether err is a field-level validation error.
func IsValidation(err error) bool {
	var single ValidationError
	var many ValidationErrors
	return errors.As(err, &single) || errors.As(err, &many)
}
