package reservation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jdelmundo/flightreserve/internal/domain"
	"github.com/jdelmundo/flightreserve/internal/kafka"
	"github.com/jdelmundo/flightreserve/internal/metrics"
	"github.com/jdelmundo/flightreserve/internal/repository"
)

type ReservationUseCase interface {
	CreateReservation(ctx context.Context, input CreateReservationInput) (*domain.Reservation, error)
	SeatMap(ctx context.Context, flightID int64, date string) (map[string]bool, error)
	UpdateReservation(ctx context.Context, userID, reservationID int64, input UpdateReservationInput) (*domain.Reservation, error)
	CancelReservation(ctx context.Context, userID, reservationID int64) (*domain.Reservation, error)
	ListReservations(ctx context.Context, userID int64) ([]domain.Reservation, error)
	CheckIn(ctx context.Context, input CheckInInput) (*domain.Reservation, error)
}

type Cache interface {
	GetSeatMap(ctx context.Context, flightID int64, date string) (map[string]bool, error)
	SetSeatMap(ctx context.Context, flightID int64, date string, seats map[string]bool) error
	InvalidateSeatMap(ctx context.Context, flightID int64, date string) error
	AcquireSeatHold(ctx context.Context, flightID int64, date, seat string, ttl time.Duration) (bool, error)
	ReleaseSeatHold(ctx context.Context, flightID int64, date, seat string) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type ReservationService struct {
	reservations       repository.ReservationRepository
	flights            repository.FlightRepository
	cache              Cache
	producer           Producer
	metrics            *metrics.Metrics
	log                *slog.Logger
	validate           *validator.Validate
	reservationsTopic  string
	notificationsTopic string
	holdTTL            time.Duration
	createRetries      int
}

type CreateReservationInput struct {
	UserID       int64  `json:"-" validate:"required"`
	FlightID     int64  `json:"flight_id" validate:"required"`
	FullName     string `json:"full_name" validate:"required"`
	Email        string `json:"email" validate:"required,email"`
	Passport     string `json:"passport" validate:"required"`
	Seat         string `json:"seat" validate:"required,seat"`
	MealOption   int64  `json:"meal_option" validate:"gte=0"`
	ExtraBaggage int    `json:"extra_baggage" validate:"baggage"`
	ReservedDate string `json:"reserved_date" validate:"required,datetime=2006-01-02"`
}

// UpdateReservationInput carries the mutable fields; nil means keep the
// current value.
type UpdateReservationInput struct {
	Seat         *string `json:"seat"`
	MealOption   *int64  `json:"meal_option"`
	ExtraBaggage *int    `json:"extra_baggage"`
}

type CheckInInput struct {
	PNR      string `json:"pnr" validate:"required,len=6"`
	LastName string `json:"last_name" validate:"required"`
}

type ReservationServiceOption func(*ReservationService)

func WithNotificationsTopic(topic string) ReservationServiceOption {
	return func(s *ReservationService) {
		s.notificationsTopic = topic
	}
}

func WithMetrics(m *metrics.Metrics) ReservationServiceOption {
	return func(s *ReservationService) {
		s.metrics = m
	}
}

func NewReservationService(
	reservations repository.ReservationRepository,
	flights repository.FlightRepository,
	cache Cache,
	producer Producer,
	log *slog.Logger,
	reservationsTopic string,
	holdTTL time.Duration,
	createRetries int,
	opts ...ReservationServiceOption,
) *ReservationService {
	if log == nil {
		log = slog.Default()
	}
	if createRetries < 1 {
		createRetries = 1
	}

	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("seat", func(fl validator.FieldLevel) bool {
		_, err := domain.ParseSeat(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("baggage", func(fl validator.FieldLevel) bool {
		_, err := domain.BaggageSurcharge(int(fl.Field().Int()))
		return err == nil
	})

	service := &ReservationService{
		reservations:      reservations,
		flights:           flights,
		cache:             cache,
		producer:          producer,
		log:               log,
		validate:          v,
		reservationsTopic: reservationsTopic,
		holdTTL:           holdTTL,
		createRetries:     createRetries,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// CreateReservation books a seat for a flight/date. The availability
// check and the insert are a single atomic step: the insert races on the
// partial unique index over (flight_id, reserved_date, seat) and the
// loser gets domain.ErrSeatTaken. There is no separate check-then-insert
// anywhere on this path.
func (s *ReservationService) CreateReservation(ctx context.Context, input CreateReservationInput) (*domain.Reservation, error) {
	if err := s.validateStruct(input); err != nil {
		return nil, err
	}

	flight, err := s.flights.GetByID(ctx, input.FlightID)
	if err != nil {
		return nil, err
	}

	total, err := domain.ComputeTotal(flight.BasePrice, input.MealOption, input.ExtraBaggage)
	if err != nil {
		return nil, err
	}

	// Advisory fast path: a short Redis hold rejects the obvious loser
	// before it reaches Postgres. The index remains the authority, so a
	// cache outage only loses the shortcut, never the invariant.
	held := false
	if s.cache != nil {
		ok, err := s.cache.AcquireSeatHold(ctx, input.FlightID, input.ReservedDate, input.Seat, s.holdTTL)
		if err != nil {
			s.log.Warn("seat hold unavailable, relying on storage constraint", "error", err)
		} else if !ok {
			s.countSeatConflict()
			return nil, domain.ErrSeatTaken
		} else {
			held = true
		}
	}

	res := &domain.Reservation{
		UserID:       input.UserID,
		FullName:     input.FullName,
		Email:        input.Email,
		Passport:     input.Passport,
		FlightID:     input.FlightID,
		Seat:         input.Seat,
		MealOption:   input.MealOption,
		ExtraBaggage: input.ExtraBaggage,
		TotalPrice:   total,
		ReservedDate: input.ReservedDate,
		PNR:          domain.NewPNR(),
	}

	if err := s.createWithRetry(ctx, res); err != nil {
		if held {
			_ = s.cache.ReleaseSeatHold(ctx, input.FlightID, input.ReservedDate, input.Seat)
		}
		if errors.Is(err, domain.ErrSeatTaken) {
			s.countSeatConflict()
		}
		return nil, err
	}

	if s.cache != nil {
		_ = s.cache.InvalidateSeatMap(ctx, input.FlightID, input.ReservedDate)
	}
	if s.metrics != nil {
		s.metrics.ReservationsCreated.Inc()
	}
	if err := s.publish(ctx, "reservation_created", res); err != nil {
		s.log.Warn("failed to publish reservation_created", "pnr", res.PNR, "error", err)
	}
	return res, nil
}

// createWithRetry retries the insert on transient storage errors only,
// a bounded number of times. A seat conflict is terminal, never retried:
// the seat will not become free by asking again.
func (s *ReservationService) createWithRetry(ctx context.Context, res *domain.Reservation) error {
	var lastErr error
	for attempt := 1; attempt <= s.createRetries; attempt++ {
		err := s.reservations.Create(ctx, res)
		if err == nil {
			return nil
		}
		if errors.Is(err, domain.ErrSeatTaken) {
			return err
		}
		if repository.IsPNRConflict(err) {
			res.PNR = domain.NewPNR()
			lastErr = err
			continue
		}
		if !repository.IsTransient(err) {
			return err
		}
		lastErr = err
		if attempt == s.createRetries {
			break
		}
		if s.metrics != nil {
			s.metrics.TransientRetries.Inc()
		}
		s.log.Warn("transient storage error, retrying create", "attempt", attempt, "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * 100 * time.Millisecond):
		}
	}
	return fmt.Errorf("create reservation failed after %d attempts: %w", s.createRetries, lastErr)
}

// SeatMap reports availability per seat (true = free) for a flight/date.
// It fails closed: any storage error propagates instead of rendering
// seats as free.
func (s *ReservationService) SeatMap(ctx context.Context, flightID int64, date string) (map[string]bool, error) {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, domain.ValidationError{Field: "date", Message: "date must be formatted as YYYY-MM-DD"}
	}
	if _, err := s.flights.GetByID(ctx, flightID); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if cached, err := s.cache.GetSeatMap(ctx, flightID, date); err == nil && cached != nil {
			return cached, nil
		}
	}

	booked, err := s.reservations.BookedSeats(ctx, flightID, date)
	if err != nil {
		return nil, fmt.Errorf("load booked seats: %w", err)
	}

	seats := make(map[string]bool, domain.CabinSeatCount)
	for _, seat := range domain.AllSeats() {
		seats[seat] = true
	}
	for _, seat := range booked {
		seats[seat] = false
	}

	if s.cache != nil {
		_ = s.cache.SetSeatMap(ctx, flightID, date, seats)
	}
	return seats, nil
}

// UpdateReservation changes seat, meal or baggage. A seat change goes
// through the same index-enforced claim as create; the reservation's own
// row is the one being updated and so never conflicts with itself.
func (s *ReservationService) UpdateReservation(ctx context.Context, userID, reservationID int64, input UpdateReservationInput) (*domain.Reservation, error) {
	current, err := s.getOwned(ctx, userID, reservationID)
	if err != nil {
		return nil, err
	}
	if current.Status != domain.ReservationStatusBooked {
		return nil, domain.ErrNotBooked
	}
	if current.CheckedIn {
		return nil, domain.ErrCheckedIn
	}

	seat := current.Seat
	if input.Seat != nil {
		if seat, err = domain.ParseSeat(*input.Seat); err != nil {
			return nil, err
		}
	}
	meal := current.MealOption
	if input.MealOption != nil {
		meal = *input.MealOption
	}
	baggage := current.ExtraBaggage
	if input.ExtraBaggage != nil {
		baggage = *input.ExtraBaggage
	}

	flight, err := s.flights.GetByID(ctx, current.FlightID)
	if err != nil {
		return nil, err
	}
	total, err := domain.ComputeTotal(flight.BasePrice, meal, baggage)
	if err != nil {
		return nil, err
	}

	seatChanged := seat != current.Seat
	held := false
	if seatChanged && s.cache != nil {
		ok, err := s.cache.AcquireSeatHold(ctx, current.FlightID, current.ReservedDate, seat, s.holdTTL)
		if err != nil {
			s.log.Warn("seat hold unavailable, relying on storage constraint", "error", err)
		} else if !ok {
			s.countSeatConflict()
			return nil, domain.ErrSeatTaken
		} else {
			held = true
		}
	}

	updated, err := s.reservations.Update(ctx, reservationID, seat, meal, baggage, total)
	if err != nil {
		if held {
			_ = s.cache.ReleaseSeatHold(ctx, current.FlightID, current.ReservedDate, seat)
		}
		if errors.Is(err, domain.ErrSeatTaken) {
			s.countSeatConflict()
		}
		return nil, err
	}

	if s.cache != nil {
		_ = s.cache.InvalidateSeatMap(ctx, updated.FlightID, updated.ReservedDate)
		if seatChanged {
			_ = s.cache.ReleaseSeatHold(ctx, current.FlightID, current.ReservedDate, current.Seat)
		}
	}
	if s.metrics != nil {
		s.metrics.ReservationsUpdated.Inc()
	}
	if err := s.publish(ctx, "reservation_updated", updated); err != nil {
		s.log.Warn("failed to publish reservation_updated", "pnr", updated.PNR, "error", err)
	}
	return updated, nil
}

// CancelReservation soft-cancels: the status flip removes the row from
// the partial index, which frees the triple for rebooking while the PNR
// and audit trail survive. Idempotent.
func (s *ReservationService) CancelReservation(ctx context.Context, userID, reservationID int64) (*domain.Reservation, error) {
	current, err := s.getOwned(ctx, userID, reservationID)
	if err != nil {
		return nil, err
	}
	if current.Status == domain.ReservationStatusCancelled {
		return current, nil
	}

	updated, err := s.reservations.UpdateStatus(ctx, reservationID, domain.ReservationStatusCancelled)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		_ = s.cache.InvalidateSeatMap(ctx, updated.FlightID, updated.ReservedDate)
		_ = s.cache.ReleaseSeatHold(ctx, updated.FlightID, updated.ReservedDate, updated.Seat)
	}
	if s.metrics != nil {
		s.metrics.ReservationsCancelled.Inc()
	}
	if err := s.publish(ctx, "reservation_cancelled", updated); err != nil {
		s.log.Warn("failed to publish reservation_cancelled", "pnr", updated.PNR, "error", err)
	}
	return updated, nil
}

func (s *ReservationService) ListReservations(ctx context.Context, userID int64) ([]domain.Reservation, error) {
	return s.reservations.ListByUser(ctx, userID)
}

// CheckIn finds a reservation by PNR, verifies the passenger last name
// and issues a boarding pass. A checked-in reservation refuses further
// seat, meal and baggage changes.
func (s *ReservationService) CheckIn(ctx context.Context, input CheckInInput) (*domain.Reservation, error) {
	if err := s.validateStruct(input); err != nil {
		return nil, err
	}

	current, err := s.reservations.GetByPNR(ctx, strings.ToUpper(strings.TrimSpace(input.PNR)))
	if err != nil {
		return nil, err
	}
	if current.Status != domain.ReservationStatusBooked {
		return nil, domain.ErrNotBooked
	}
	if current.CheckedIn {
		return nil, domain.ErrAlreadyCheckedIn
	}

	storedName := strings.ToLower(current.FullName)
	inputName := strings.ToLower(strings.TrimSpace(input.LastName))
	if !strings.Contains(storedName, inputName) {
		return nil, domain.ErrNameMismatch
	}

	flight, err := s.flights.GetByID(ctx, current.FlightID)
	if err != nil {
		return nil, err
	}

	boardingPass := fmt.Sprintf("BP-%s-%s", flight.FlightNumber, current.Seat)
	updated, err := s.reservations.SetCheckedIn(ctx, current.ID, boardingPass)
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.CheckIns.Inc()
	}
	if err := s.publish(ctx, "reservation_checked_in", updated); err != nil {
		s.log.Warn("failed to publish reservation_checked_in", "pnr", updated.PNR, "error", err)
	}
	return updated, nil
}

// getOwned loads a reservation and hides other users' rows behind
// not-found, so IDs cannot be probed. Identity is always an argument,
// never process state.
func (s *ReservationService) getOwned(ctx context.Context, userID, reservationID int64) (*domain.Reservation, error) {
	current, err := s.reservations.GetByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if current.UserID != userID {
		return nil, domain.ErrReservationNotFound
	}
	return current, nil
}

func (s *ReservationService) countSeatConflict() {
	if s.metrics != nil {
		s.metrics.SeatConflicts.Inc()
	}
}

func (s *ReservationService) publish(ctx context.Context, eventType string, res *domain.Reservation) error {
	if s.producer == nil || s.reservationsTopic == "" {
		return nil
	}
	event := kafka.ReservationEvent{
		Type:         eventType,
		PNR:          res.PNR,
		FlightID:     res.FlightID,
		Seat:         res.Seat,
		ReservedDate: res.ReservedDate,
		Email:        res.Email,
		FullName:     res.FullName,
		Status:       string(res.Status),
		TotalPrice:   res.TotalPrice,
	}
	if err := s.producer.Publish(ctx, s.reservationsTopic, res.PNR, event); err != nil {
		return err
	}
	if s.notificationsTopic != "" {
		return s.producer.Publish(ctx, s.notificationsTopic, res.PNR, event)
	}
	return nil
}

func (s *ReservationService) validateStruct(v interface{}) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}

	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		return err
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := make(domain.ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, domain.ValidationError{
			Field:   strings.ToLower(fe.Field()),
			Message: messageForTag(fe),
		})
	}
	return out
}

func messageForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "seat":
		return "must be a seat between A1 and D15"
	case "baggage":
		return "must be one of 2, 5, 10, 15 or 20 kg"
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "len":
		return fmt.Sprintf("must be exactly %s characters", fe.Param())
	case "datetime":
		return "must be formatted as YYYY-MM-DD"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

var _ ReservationUseCase = (*ReservationService)(nil)
