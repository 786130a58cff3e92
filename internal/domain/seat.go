package domain

import (
	"fmt"
	"regexp"
)

// Cabin layout: rows A-D, seats 1-15.
const (
	seatRows       = "ABCD"
	seatsPerRow    = 15
	CabinSeatCount = len(seatRows) * seatsPerRow
)

var seatPattern = regexp.MustCompile(`^[A-D](1[0-5]|[1-9])$`)

// ParseSeat validates a seat code against the cabin grammar and returns
// it unchanged. Anything outside A1..D15 is a validation error.
func ParseSeat(code string) (string, error) {
	if !seatPattern.MatchString(code) {
		return "", ValidationError{Field: "seat", Message: fmt.Sprintf("invalid seat %q, expected row A-D and number 1-15", code)}
	}
	return code, nil
}

// AllSeats enumerates every seat code in the cabin, row by row.
func AllSeats() []string {
	seats := make([]string, 0, CabinSeatCount)
	for _, row := range seatRows {
		for n := 1; n <= seatsPerRow; n++ {
			seats = append(seats, fmt.Sprintf("%c%d", row, n))
		}
	}
	return seats
}
