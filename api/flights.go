package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jdelmundo/flightreserve/internal/service/flights"
	"github.com/jdelmundo/flightreserve/internal/service/reservation"
)

type FlightHandler struct {
	flights      flights.FlightUseCase
	reservations reservation.ReservationUseCase
}

func NewFlightHandler(flightSvc flights.FlightUseCase, reservationSvc reservation.ReservationUseCase) *FlightHandler {
	return &FlightHandler{flights: flightSvc, reservations: reservationSvc}
}

func (h *FlightHandler) Register(router *gin.RouterGroup) {
	router.GET("/", h.list)
	router.GET("/:id", h.get)
	router.GET("/:id/seats", h.seatMap)
}

func (h *FlightHandler) list(c *gin.Context) {
	flights, err := h.flights.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, flights)
}

func (h *FlightHandler) get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	flight, err := h.flights.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, flight)
}

// seatMap renders per-seat availability for a flight on a given date
// (?date=YYYY-MM-DD). true means the seat is free.
func (h *FlightHandler) seatMap(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	seats, err := h.reservations.SeatMap(c.Request.Context(), id, c.Query("date"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"flight_id": id, "date": c.Query("date"), "seats": seats})
}
