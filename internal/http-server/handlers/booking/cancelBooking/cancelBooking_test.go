package cancelBooking

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"bookingFlow/internal/http-server/handlers/booking/cancelBooking/mocks"
	"bookingFlow/internal/http-server/middleware/mwauth"
	"bookingFlow/internal/lib/logger/handlers/slogdiscard"
	"bookingFlow/internal/models"
	"bookingFlow/internal/orchestrator"
)

func TestCancelBookingHandler(t *testing.T) {
	t.Parallel()

	logger := slogdiscard.NewDiscardLogger()

	owned := &models.Booking{
		ID:      "b1",
		EventID: "ev1",
		UserID:  "user123",
		Status:  models.StatusReserved,
	}

	testCases := []struct {
		name           string
		bookingID      string
		userID         string
		mockSetup      func(m *mocks.BookingCanceller)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:      "Success",
			bookingID: "b1",
			userID:    "user123",
			mockSetup: func(m *mocks.BookingCanceller) {
				m.On("Booking", mock.Anything, "b1").Return(owned, nil)
				m.On("CancelBooking", mock.Anything, "b1").Return(nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"status":"OK"}`,
		},
		{
			name:      "Booking not found",
			bookingID: "missing",
			userID:    "user123",
			mockSetup: func(m *mocks.BookingCanceller) {
				m.On("Booking", mock.Anything, "missing").Return(nil, orchestrator.ErrBookingNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"status":"Error","error":"booking not found"}`,
		},
		{
			name:      "Foreign booking is hidden",
			bookingID: "b1",
			userID:    "someone-else",
			mockSetup: func(m *mocks.BookingCanceller) {
				m.On("Booking", mock.Anything, "b1").Return(owned, nil)
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"status":"Error","error":"booking not found"}`,
		},
		{
			name:      "Already confirmed",
			bookingID: "b1",
			userID:    "user123",
			mockSetup: func(m *mocks.BookingCanceller) {
				m.On("Booking", mock.Anything, "b1").Return(owned, nil)
				m.On("CancelBooking", mock.Anything, "b1").
					Return(orchestrator.ErrInvalidStateTransition)
			},
			expectedStatus: http.StatusConflict,
			expectedBody:   `{"status":"Error","error":"booking can no longer be cancelled"}`,
		},
		{
			name:      "Internal server error",
			bookingID: "b1",
			userID:    "user123",
			mockSetup: func(m *mocks.BookingCanceller) {
				m.On("Booking", mock.Anything, "b1").Return(owned, nil)
				m.On("CancelBooking", mock.Anything, "b1").Return(errors.New("database error"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"status":"Error","error":"failed to cancel booking"}`,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			mockCanceller := mocks.NewBookingCanceller(t)
			tc.mockSetup(mockCanceller)

			handler := New(logger, mockCanceller)

			req, err := http.NewRequest(http.MethodDelete, "/api/v1/bookings/"+tc.bookingID, nil)
			require.NoError(t, err)

			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", tc.bookingID)

			ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
			ctx = mwauth.WithUser(ctx, tc.userID, "token")
			req = req.WithContext(ctx)

			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tc.expectedStatus, rr.Code, "Status code mismatch")
			assert.JSONEq(t, tc.expectedBody, rr.Body.String(), "Response body mismatch")
		})
	}
}
