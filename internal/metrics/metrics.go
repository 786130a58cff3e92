package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	ReservationsCreated   prometheus.Counter
	SeatConflicts         prometheus.Counter
	ReservationsCancelled prometheus.Counter
	ReservationsUpdated   prometheus.Counter
	CheckIns              prometheus.Counter
	TransientRetries      prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		ReservationsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "flightreserve_reservations_created_total",
			Help: "Total number of reservations created",
		}),

		SeatConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "flightreserve_seat_conflicts_total",
			Help: "Total number of booking attempts rejected because the seat was taken",
		}),

		ReservationsCancelled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "flightreserve_reservations_cancelled_total",
			Help: "Total number of reservations cancelled",
		}),

		ReservationsUpdated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "flightreserve_reservations_updated_total",
			Help: "Total number of reservations updated",
		}),

		CheckIns: promauto.NewCounter(prometheus.CounterOpts{
			Name: "flightreserve_checkins_total",
			Help: "Total number of successful check-ins",
		}),

		TransientRetries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "flightreserve_transient_retries_total",
			Help: "Total number of storage retries after transient errors",
		}),
	}
}
