package domain

import (
	"math/rand"
	"time"
)

type ReservationStatus string

const (
	ReservationStatusBooked    ReservationStatus = "Booked"
	ReservationStatusCancelled ReservationStatus = "Cancelled"
)

type Reservation struct {
	ID           int64
	UserID       int64
	FullName     string
	Email        string
	Passport     string
	FlightID     int64
	Seat         string
	MealOption   int64
	ExtraBaggage int
	TotalPrice   int64
	ReservedDate string
	Status       ReservationStatus
	PNR          string
	CheckedIn    bool
	BoardingPass string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

const pnrAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewPNR generates a 6-character booking reference. Uniqueness is
// enforced by the database, callers retry on the rare collision.
func NewPNR() string {
	b := make([]byte, 6)
	for i := range b {
		b[i] = pnrAlphabet[rand.Intn(len(pnrAlphabet))]
	}
	return string(b)
}
