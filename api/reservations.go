package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jdelmundo/flightreserve/internal/domain"
	"github.com/jdelmundo/flightreserve/internal/service/reservation"
)

type ReservationHandler struct {
	service reservation.ReservationUseCase
}

type createReservationRequest struct {
	FlightID     int64  `json:"flight_id"`
	FullName     string `json:"full_name"`
	Email        string `json:"email"`
	Passport     string `json:"passport"`
	Seat         string `json:"seat"`
	MealOption   int64  `json:"meal_option"`
	ExtraBaggage int    `json:"extra_baggage"`
	ReservedDate string `json:"reserved_date"`
}

type updateReservationRequest struct {
	Seat         *string `json:"seat"`
	MealOption   *int64  `json:"meal_option"`
	ExtraBaggage *int    `json:"extra_baggage"`
}

type checkInRequest struct {
	PNR      string `json:"pnr"`
	LastName string `json:"last_name"`
}

type reservationResponse struct {
	ID           int64  `json:"id"`
	PNR          string `json:"pnr"`
	FlightID     int64  `json:"flight_id"`
	Seat         string `json:"seat"`
	ReservedDate string `json:"reserved_date"`
	FullName     string `json:"full_name"`
	Email        string `json:"email"`
	MealOption   int64  `json:"meal_option"`
	ExtraBaggage int    `json:"extra_baggage"`
	TotalPrice   int64  `json:"total_price"`
	Status       string `json:"status"`
	CheckedIn    bool   `json:"checked_in"`
	BoardingPass string `json:"boarding_pass,omitempty"`
}

func NewReservationHandler(service reservation.ReservationUseCase) *ReservationHandler {
	return &ReservationHandler{service: service}
}

func (h *ReservationHandler) Register(router *gin.RouterGroup) {
	router.POST("/", h.create)
	router.GET("/", h.list)
	router.POST("/:id/update", h.update)
	router.POST("/:id/cancel", h.cancel)
}

func (h *ReservationHandler) RegisterCheckIn(router *gin.RouterGroup) {
	router.POST("/checkin", h.checkIn)
}

func (h *ReservationHandler) create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req createReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.service.CreateReservation(c.Request.Context(), reservation.CreateReservationInput{
		UserID:       userID,
		FlightID:     req.FlightID,
		FullName:     req.FullName,
		Email:        req.Email,
		Passport:     req.Passport,
		Seat:         req.Seat,
		MealOption:   req.MealOption,
		ExtraBaggage: req.ExtraBaggage,
		ReservedDate: req.ReservedDate,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toReservationResponse(res))
}

func (h *ReservationHandler) list(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	reservations, err := h.service.ListReservations(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]reservationResponse, 0, len(reservations))
	for i := range reservations {
		out = append(out, toReservationResponse(&reservations[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (h *ReservationHandler) update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid reservation id"})
		return
	}

	var req updateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.service.UpdateReservation(c.Request.Context(), userID, id, reservation.UpdateReservationInput{
		Seat:         req.Seat,
		MealOption:   req.MealOption,
		ExtraBaggage: req.ExtraBaggage,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toReservationResponse(res))
}

func (h *ReservationHandler) cancel(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid reservation id"})
		return
	}

	res, err := h.service.CancelReservation(c.Request.Context(), userID, id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toReservationResponse(res))
}

func (h *ReservationHandler) checkIn(c *gin.Context) {
	var req checkInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.service.CheckIn(c.Request.Context(), reservation.CheckInInput{
		PNR:      req.PNR,
		LastName: req.LastName,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"passenger":     res.FullName,
			"seat":          res.Seat,
			"boarding_pass": res.BoardingPass,
		},
	})
}

// currentUserID resolves the caller's identity from the X-User-ID header
// set by the auth layer in front of this service. Identity is always per
// request; there is no process-wide current user.
func currentUserID(c *gin.Context) (int64, bool) {
	raw := c.GetHeader("X-User-ID")
	if raw == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing user identity"})
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid user identity"})
		return 0, false
	}
	return id, true
}

// writeError maps the domain error taxonomy to HTTP statuses. Seat
// conflicts get their own status so the client can re-prompt seat
// selection instead of showing a generic failure.
func writeError(c *gin.Context, err error) {
	var fieldErrs domain.ValidationErrors
	if errors.As(err, &fieldErrs) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": fieldErrs})
		return
	}
	var fieldErr domain.ValidationError
	if errors.As(err, &fieldErr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": domain.ValidationErrors{fieldErr}})
		return
	}

	switch {
	case errors.Is(err, domain.ErrSeatTaken):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "seat_taken"})
	case errors.Is(err, domain.ErrReservationNotFound), errors.Is(err, domain.ErrFlightNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrCheckedIn), errors.Is(err, domain.ErrAlreadyCheckedIn), errors.Is(err, domain.ErrNotBooked):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNameMismatch):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "temporary failure, please retry"})
	}
}

func toReservationResponse(res *domain.Reservation) reservationResponse {
	return reservationResponse{
		ID:           res.ID,
		PNR:          res.PNR,
		FlightID:     res.FlightID,
		Seat:         res.Seat,
		ReservedDate: res.ReservedDate,
		FullName:     res.FullName,
		Email:        res.Email,
		MealOption:   res.MealOption,
		ExtraBaggage: res.ExtraBaggage,
		TotalPrice:   res.TotalPrice,
		Status:       string(res.Status),
		CheckedIn:    res.CheckedIn,
		BoardingPass: res.BoardingPass,
	}
}
