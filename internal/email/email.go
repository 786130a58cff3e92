package email

import (
	"context"
	"fmt"

	"github.com/jdelmundo/flightreserve/internal/kafka"
)

type Sender struct{}

func NewSender() *Sender {
	return &Sender{}
}

func (s *Sender) Send(ctx context.Context, event kafka.ReservationEvent) error {
	fmt.Printf("send email to %s about %s for flight %d seat %s on %s (PNR %s)\n",
		event.Email, event.Type, event.FlightID, event.Seat, event.ReservedDate, event.PNR)
	return nil
}
