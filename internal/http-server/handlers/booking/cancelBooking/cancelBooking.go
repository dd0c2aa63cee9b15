package cancelBooking

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"bookingFlow/internal/http-server/middleware/mwauth"
	"bookingFlow/internal/lib/api/response"
	"bookingFlow/internal/lib/logger/sl"
	"bookingFlow/internal/models"
	"bookingFlow/internal/orchestrator"
)

type CancelResponse struct {
	response.Response
}

//go:generate go run github.com/vektra/mockery/v2@v2.51.1 --name=BookingCanceller
type BookingCanceller interface {
	Booking(ctx context.Context, bookingID string) (*models.Booking, error)
	CancelBooking(ctx context.Context, bookingID string) error
}

func New(log *slog.Logger, booking BookingCanceller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.booking.cancelBooking.New"

		log = log.With(slog.String("op", op))

		bookingID := chi.URLParam(r, "id")
		if bookingID == "" {
			log.Error("booking id is required")
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("booking id is required"))
			return
		}

		log = log.With(slog.String("booking_id", bookingID))

		existing, err := booking.Booking(r.Context(), bookingID)
		if err != nil || existing.UserID != mwauth.UserID(r.Context()) {
			if err != nil {
				log.Error("failed to get booking", sl.Err(err))
			} else {
				log.Warn("booking belongs to another user")
			}
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("booking not found"))
			return
		}

		if err = booking.CancelBooking(r.Context(), bookingID); err != nil {
			log.Error("failed to cancel booking", sl.Err(err))

			switch {
			case errors.Is(err, orchestrator.ErrBookingNotFound):
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.Error("booking not found"))
			case errors.Is(err, orchestrator.ErrInvalidStateTransition):
				render.Status(r, http.StatusConflict)
				render.JSON(w, r, response.Error("booking can no longer be cancelled"))
			default:
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.Error("failed to cancel booking"))
			}
			return
		}

		log.Info("booking cancelled")

		render.JSON(w, r, CancelResponse{Response: response.OK()})
	}
}
