package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jdelmundo/flightreserve/internal/domain"
)

const bookedSeatIndex = "reservations_booked_seat_idx"

type ReservationRepository interface {
	Create(ctx context.Context, res *domain.Reservation) error
	GetByID(ctx context.Context, id int64) (*domain.Reservation, error)
	GetByPNR(ctx context.Context, pnr string) (*domain.Reservation, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Reservation, error)
	BookedSeats(ctx context.Context, flightID int64, reservedDate string) ([]string, error)
	Update(ctx context.Context, id int64, seat string, mealOption int64, extraBaggage int, totalPrice int64) (*domain.Reservation, error)
	UpdateStatus(ctx context.Context, id int64, status domain.ReservationStatus) (*domain.Reservation, error)
	SetCheckedIn(ctx context.Context, id int64, boardingPass string) (*domain.Reservation, error)
}

type PGReservationRepository struct {
	db *pgxpool.Pool
}

func NewReservationRepository(db *pgxpool.Pool) ReservationRepository {
	return &PGReservationRepository{db: db}
}

const reservationColumns = `id, user_id, full_name, email, passport, flight_id, seat, meal_option, extra_baggage, total_price, to_char(reserved_date, 'YYYY-MM-DD'), status, pnr, checked_in, boarding_pass, created_at, updated_at`

func scanReservation(row pgx.Row) (*domain.Reservation, error) {
	var r domain.Reservation
	if err := row.Scan(&r.ID, &r.UserID, &r.FullName, &r.Email, &r.Passport, &r.FlightID, &r.Seat, &r.MealOption, &r.ExtraBaggage, &r.TotalPrice, &r.ReservedDate, &r.Status, &r.PNR, &r.CheckedIn, &r.BoardingPass, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

// Create inserts a Booked reservation. The partial unique index on
// (flight_id, reserved_date, seat) where status = 'Booked' is the
// race-resolution point: a concurrent claim of the same triple fails
// here with a unique violation, which surfaces as domain.ErrSeatTaken.
func (r *PGReservationRepository) Create(ctx context.Context, res *domain.Reservation) error {
	res.Status = domain.ReservationStatusBooked
	err := r.db.QueryRow(ctx, `INSERT INTO reservations (user_id, full_name, email, passport, flight_id, seat, meal_option, extra_baggage, total_price, reserved_date, status, pnr)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, checked_in, boarding_pass, created_at, updated_at`,
		res.UserID, res.FullName, res.Email, res.Passport, res.FlightID, res.Seat, res.MealOption, res.ExtraBaggage, res.TotalPrice, res.ReservedDate, res.Status, res.PNR).
		Scan(&res.ID, &res.CheckedIn, &res.BoardingPass, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return mapSeatConflict(err)
	}
	return nil
}

func (r *PGReservationRepository) GetByID(ctx context.Context, id int64) (*domain.Reservation, error) {
	row := r.db.QueryRow(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id=$1`, id)
	res, err := scanReservation(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrReservationNotFound
	}
	return res, err
}

func (r *PGReservationRepository) GetByPNR(ctx context.Context, pnr string) (*domain.Reservation, error) {
	row := r.db.QueryRow(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE pnr=$1`, pnr)
	res, err := scanReservation(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrReservationNotFound
	}
	return res, err
}

func (r *PGReservationRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Reservation, error) {
	rows, err := r.db.Query(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE user_id=$1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reservations := make([]domain.Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, *res)
	}
	return reservations, rows.Err()
}

func (r *PGReservationRepository) BookedSeats(ctx context.Context, flightID int64, reservedDate string) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT seat FROM reservations WHERE flight_id=$1 AND reserved_date=$2 AND status=$3`, flightID, reservedDate, domain.ReservationStatusBooked)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var seats []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		seats = append(seats, s)
	}
	return seats, rows.Err()
}

// Update rewrites the mutable reservation fields. A seat change races
// on the same partial index as Create; the row being updated cannot
// conflict with itself, so only other Booked rows block the move.
func (r *PGReservationRepository) Update(ctx context.Context, id int64, seat string, mealOption int64, extraBaggage int, totalPrice int64) (*domain.Reservation, error) {
	row := r.db.QueryRow(ctx, `UPDATE reservations SET seat=$1, meal_option=$2, extra_baggage=$3, total_price=$4, updated_at=now() WHERE id=$5 RETURNING `+reservationColumns, seat, mealOption, extraBaggage, totalPrice, id)
	res, err := scanReservation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrReservationNotFound
		}
		return nil, mapSeatConflict(err)
	}
	return res, nil
}

func (r *PGReservationRepository) UpdateStatus(ctx context.Context, id int64, status domain.ReservationStatus) (*domain.Reservation, error) {
	row := r.db.QueryRow(ctx, `UPDATE reservations SET status=$1, updated_at=now() WHERE id=$2 RETURNING `+reservationColumns, status, id)
	res, err := scanReservation(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrReservationNotFound
	}
	return res, err
}

func (r *PGReservationRepository) SetCheckedIn(ctx context.Context, id int64, boardingPass string) (*domain.Reservation, error) {
	row := r.db.QueryRow(ctx, `UPDATE reservations SET checked_in=true, boarding_pass=$1, updated_at=now() WHERE id=$2 RETURNING `+reservationColumns, boardingPass, id)
	res, err := scanReservation(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrReservationNotFound
	}
	return res, err
}

func mapSeatConflict(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == bookedSeatIndex {
		return domain.ErrSeatTaken
	}
	return err
}

// IsPNRConflict reports a collision on the generated booking reference.
// The caller regenerates the PNR and retries; the seat itself is fine.
func IsPNRConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "reservations_pnr_key"
}

// IsTransient reports whether a storage error is worth a bounded retry.
// Conflict and not-found outcomes are terminal and never land here.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, domain.ErrSeatTaken) || errors.Is(err, domain.ErrReservationNotFound) || errors.Is(err, domain.ErrFlightNotFound) {
		return false
	}
	if pgconn.SafeToRetry(err) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}

var _ ReservationRepository = (*PGReservationRepository)(nil)
