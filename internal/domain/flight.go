package domain

import "time"

type Flight struct {
	ID            int64
	FlightNumber  string
	Origin        string
	Destination   string
	BasePrice     int64
	DepartureTime time.Time
	ArrivalTime   time.Time
	AircraftType  string
	SeatCapacity  int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
