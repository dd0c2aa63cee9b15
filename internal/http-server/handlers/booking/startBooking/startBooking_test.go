package startBooking

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"bookingFlow/internal/http-server/handlers/booking/startBooking/mocks"
	"bookingFlow/internal/http-server/middleware/mwauth"
	"bookingFlow/internal/lib/logger/handlers/slogdiscard"
	"bookingFlow/internal/models"
	"bookingFlow/internal/orchestrator"
)

func TestStartBookingHandler(t *testing.T) {
	t.Parallel()

	logger := slogdiscard.NewDiscardLogger()

	testCases := []struct {
		name           string
		userID         string
		requestBody    string
		mockSetup      func(m *mocks.BookingStarter)
		expectedStatus int
		expectedBody   string
		checkBody      func(t *testing.T, body string)
	}{
		{
			name:        "Success",
			userID:      "user123",
			requestBody: `{"event_id": "ev1", "quantity": 2}`,
			mockSetup: func(m *mocks.BookingStarter) {
				m.On("StartBooking", mock.Anything, "ev1", "user123", 2).
					Return(&models.Booking{
						ID:          "b1",
						EventID:     "ev1",
						UserID:      "user123",
						Quantity:    2,
						TotalAmount: 100,
						Status:      models.StatusReserved,
					}, nil)
			},
			expectedStatus: http.StatusCreated,
			checkBody: func(t *testing.T, body string) {
				assert.Contains(t, body, `"status":"OK"`)
				assert.Contains(t, body, `"id":"b1"`)
				assert.Contains(t, body, `"status":"reserved"`)
			},
		},
		{
			name:           "No authenticated user",
			userID:         "",
			requestBody:    `{"event_id": "ev1", "quantity": 2}`,
			mockSetup:      func(m *mocks.BookingStarter) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"status":"Error","error":"authorization required"}`,
		},
		{
			name:           "Invalid JSON",
			userID:         "user123",
			requestBody:    `invalid json`,
			mockSetup:      func(m *mocks.BookingStarter) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"status":"Error","error":"failed to decode request"}`,
		},
		{
			name:           "Missing event_id",
			userID:         "user123",
			requestBody:    `{"quantity": 2}`,
			mockSetup:      func(m *mocks.BookingStarter) {},
			expectedStatus: http.StatusBadRequest,
			checkBody: func(t *testing.T, body string) {
				assert.Contains(t, body, `"status":"Error"`)
				assert.Contains(t, body, "EventID")
			},
		},
		{
			name:           "Zero quantity",
			userID:         "user123",
			requestBody:    `{"event_id": "ev1", "quantity": 0}`,
			mockSetup:      func(m *mocks.BookingStarter) {},
			expectedStatus: http.StatusBadRequest,
			checkBody: func(t *testing.T, body string) {
				assert.Contains(t, body, `"status":"Error"`)
				assert.Contains(t, body, "Quantity")
			},
		},
		{
			name:        "Not enough tickets",
			userID:      "user123",
			requestBody: `{"event_id": "ev1", "quantity": 50}`,
			mockSetup: func(m *mocks.BookingStarter) {
				m.On("StartBooking", mock.Anything, "ev1", "user123", 50).
					Return(nil, orchestrator.ErrBookingDenied)
			},
			expectedStatus: http.StatusConflict,
			expectedBody:   `{"status":"Error","error":"not enough tickets available"}`,
		},
		{
			name:        "Event not found",
			userID:      "user123",
			requestBody: `{"event_id": "missing", "quantity": 1}`,
			mockSetup: func(m *mocks.BookingStarter) {
				m.On("StartBooking", mock.Anything, "missing", "user123", 1).
					Return(nil, orchestrator.ErrEventNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"status":"Error","error":"event not found"}`,
		},
		{
			name:        "Internal server error",
			userID:      "user123",
			requestBody: `{"event_id": "ev1", "quantity": 2}`,
			mockSetup: func(m *mocks.BookingStarter) {
				m.On("StartBooking", mock.Anything, "ev1", "user123", 2).
					Return(nil, errors.New("database error"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"status":"Error","error":"failed to create booking"}`,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			mockStarter := mocks.NewBookingStarter(t)
			tc.mockSetup(mockStarter)

			handler := New(logger, mockStarter)

			req, err := http.NewRequest(http.MethodPost, "/api/v1/bookings", bytes.NewBufferString(tc.requestBody))
			require.NoError(t, err)

			if tc.userID != "" {
				req = req.WithContext(mwauth.WithUser(req.Context(), tc.userID, "token"))
			}

			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tc.expectedStatus, rr.Code, "Status code mismatch")

			if tc.expectedBody != "" {
				assert.JSONEq(t, tc.expectedBody, rr.Body.String(), "Response body mismatch")
			} else if tc.checkBody != nil {
				tc.checkBody(t, rr.Body.String())
			}
		})
	}
}
