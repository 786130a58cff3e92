package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jdelmundo/flightreserve/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockFlightUseCase struct {
	mock.Mock
}

func (m *MockFlightUseCase) List(ctx context.Context) ([]domain.Flight, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Flight), args.Error(1)
}

func (m *MockFlightUseCase) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func flightTestRouter(flightSvc *MockFlightUseCase, reservationSvc *MockReservationUseCase) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := NewFlightHandler(flightSvc, reservationSvc)
	handler.Register(router.Group("/api/flights"))
	return router
}

func TestFlightHandler_List(t *testing.T) {
	mockFlights := &MockFlightUseCase{}
	router := flightTestRouter(mockFlights, &MockReservationUseCase{})

	flights := []domain.Flight{{ID: 4, FlightNumber: "PR101", Origin: "MNL", Destination: "CEB", BasePrice: 3500}}
	mockFlights.On("List", mock.Anything).Return(flights, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/flights/", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "PR101")
	mockFlights.AssertExpectations(t)
}

func TestFlightHandler_Get_NotFound(t *testing.T) {
	mockFlights := &MockFlightUseCase{}
	router := flightTestRouter(mockFlights, &MockReservationUseCase{})

	mockFlights.On("GetByID", mock.Anything, int64(99)).Return(nil, domain.ErrFlightNotFound).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/flights/99", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFlightHandler_SeatMap(t *testing.T) {
	mockFlights := &MockFlightUseCase{}
	mockReservations := &MockReservationUseCase{}
	router := flightTestRouter(mockFlights, mockReservations)

	seats := map[string]bool{"A1": false, "B2": true}
	mockReservations.On("SeatMap", mock.Anything, int64(4), "2026-09-15").Return(seats, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/flights/4/seats?date=2026-09-15", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		FlightID int64           `json:"flight_id"`
		Date     string          `json:"date"`
		Seats    map[string]bool `json:"seats"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Seats["A1"])
	assert.True(t, resp.Seats["B2"])
	mockReservations.AssertExpectations(t)
}

func TestFlightHandler_SeatMap_FailsClosed(t *testing.T) {
	mockFlights := &MockFlightUseCase{}
	mockReservations := &MockReservationUseCase{}
	router := flightTestRouter(mockFlights, mockReservations)

	mockReservations.On("SeatMap", mock.Anything, int64(4), "2026-09-15").Return(nil, assert.AnError).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/flights/4/seats?date=2026-09-15", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	// storage trouble must never render an all-free seat map
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
