package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jdelmundo/flightreserve/internal/domain"
	"github.com/jdelmundo/flightreserve/internal/service/reservation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockReservationUseCase struct {
	mock.Mock
}

func (m *MockReservationUseCase) CreateReservation(ctx context.Context, input reservation.CreateReservationInput) (*domain.Reservation, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}

func (m *MockReservationUseCase) SeatMap(ctx context.Context, flightID int64, date string) (map[string]bool, error) {
	args := m.Called(ctx, flightID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]bool), args.Error(1)
}

func (m *MockReservationUseCase) UpdateReservation(ctx context.Context, userID, reservationID int64, input reservation.UpdateReservationInput) (*domain.Reservation, error) {
	args := m.Called(ctx, userID, reservationID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}

func (m *MockReservationUseCase) CancelReservation(ctx context.Context, userID, reservationID int64) (*domain.Reservation, error) {
	args := m.Called(ctx, userID, reservationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}

func (m *MockReservationUseCase) ListReservations(ctx context.Context, userID int64) ([]domain.Reservation, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.Reservation), args.Error(1)
}

func (m *MockReservationUseCase) CheckIn(ctx context.Context, input reservation.CheckInInput) (*domain.Reservation, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}

func testRouter(service reservation.ReservationUseCase) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := NewReservationHandler(service)
	handler.Register(router.Group("/api/reservations"))
	handler.RegisterCheckIn(router.Group("/api"))
	return router
}

func bookedReservation() *domain.Reservation {
	return &domain.Reservation{
		ID:           1,
		UserID:       7,
		FullName:     "Juan Dela Cruz",
		Email:        "juan@example.com",
		Passport:     "P1234567",
		FlightID:     4,
		Seat:         "A1",
		MealOption:   200,
		ExtraBaggage: 10,
		TotalPrice:   4700,
		ReservedDate: "2026-09-15",
		Status:       domain.ReservationStatusBooked,
		PNR:          "X4T9QZ",
	}
}

func TestReservationHandler_Create(t *testing.T) {
	mockService := &MockReservationUseCase{}
	router := testRouter(mockService)

	mockService.On("CreateReservation", mock.Anything, mock.AnythingOfType("reservation.CreateReservationInput")).Return(bookedReservation(), nil).Once()

	body, _ := json.Marshal(map[string]interface{}{
		"flight_id":     4,
		"full_name":     "Juan Dela Cruz",
		"email":         "juan@example.com",
		"passport":      "P1234567",
		"seat":          "A1",
		"meal_option":   200,
		"extra_baggage": 10,
		"reserved_date": "2026-09-15",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/reservations/", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "7")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp reservationResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "X4T9QZ", resp.PNR)
	assert.Equal(t, int64(4700), resp.TotalPrice)
	assert.Equal(t, "Booked", resp.Status)
	mockService.AssertExpectations(t)
}

func TestReservationHandler_Create_MissingIdentity(t *testing.T) {
	mockService := &MockReservationUseCase{}
	router := testRouter(mockService)

	req := httptest.NewRequest(http.MethodPost, "/api/reservations/", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	mockService.AssertNotCalled(t, "CreateReservation", mock.Anything, mock.Anything)
}

func TestReservationHandler_Create_SeatTaken(t *testing.T) {
	mockService := &MockReservationUseCase{}
	router := testRouter(mockService)

	mockService.On("CreateReservation", mock.Anything, mock.Anything).Return(nil, domain.ErrSeatTaken).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/reservations/", bytes.NewReader([]byte(`{"flight_id":4,"seat":"A1"}`)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "7")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)

	var resp map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "seat_taken", resp["code"])
}

func TestReservationHandler_Create_ValidationError(t *testing.T) {
	mockService := &MockReservationUseCase{}
	router := testRouter(mockService)

	mockService.On("CreateReservation", mock.Anything, mock.Anything).
		Return(nil, domain.ValidationErrors{{Field: "seat", Message: "must be a seat between A1 and D15"}}).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/reservations/", bytes.NewReader([]byte(`{"flight_id":4,"seat":"Z99"}`)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "7")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "seat")
}

func TestReservationHandler_Cancel(t *testing.T) {
	mockService := &MockReservationUseCase{}
	router := testRouter(mockService)

	cancelled := bookedReservation()
	cancelled.Status = domain.ReservationStatusCancelled
	mockService.On("CancelReservation", mock.Anything, int64(7), int64(1)).Return(cancelled, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/reservations/1/cancel", nil)
	req.Header.Set("X-User-ID", "7")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Cancelled")
	mockService.AssertExpectations(t)
}

func TestReservationHandler_Update_NotFound(t *testing.T) {
	mockService := &MockReservationUseCase{}
	router := testRouter(mockService)

	mockService.On("UpdateReservation", mock.Anything, int64(7), int64(42), mock.Anything).Return(nil, domain.ErrReservationNotFound).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/reservations/42/update", bytes.NewReader([]byte(`{"seat":"B2"}`)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "7")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReservationHandler_CheckIn(t *testing.T) {
	mockService := &MockReservationUseCase{}
	router := testRouter(mockService)

	checked := bookedReservation()
	checked.CheckedIn = true
	checked.BoardingPass = "BP-PR101-A1"
	mockService.On("CheckIn", mock.Anything, reservation.CheckInInput{PNR: "X4T9QZ", LastName: "Dela Cruz"}).Return(checked, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/checkin", bytes.NewReader([]byte(`{"pnr":"X4T9QZ","last_name":"Dela Cruz"}`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "BP-PR101-A1")
	mockService.AssertExpectations(t)
}
