package getUserBookings

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"bookingFlow/internal/http-server/middleware/mwauth"
	"bookingFlow/internal/lib/api/response"
	"bookingFlow/internal/lib/logger/sl"
	"bookingFlow/internal/models"
)

type BookingsResponse struct {
	response.Response
	Bookings []models.Booking `json:"bookings"`
}

//go:generate go run github.com/vektra/mockery/v2@v2.51.1 --name=BookingsProvider
type BookingsProvider interface {
	UserBookings(ctx context.Context, userID string) ([]models.Booking, error)
}

func New(log *slog.Logger, provider BookingsProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.booking.getUserBookings.New"

		log = log.With(slog.String("op", op))

		userID := mwauth.UserID(r.Context())

		bookings, err := provider.UserBookings(r.Context(), userID)
		if err != nil {
			log.Error("failed to get bookings", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to get bookings"))
			return
		}

		if bookings == nil {
			bookings = []models.Booking{}
		}

		render.JSON(w, r, BookingsResponse{
			Response: response.OK(),
			Bookings: bookings,
		})
	}
}
