package confirmBooking

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

type ConfirmResponse struct {
	response.Response
	Booking *models.Booking `json:"booking"`
	Tickets []models.Ticket `json:"tickets"`
}

//go:generate go run github.com/vektra/mockery/v2@v2.51.1 --name=BookingConfirmer
type BookingConfirmer interface {
	Booking(ctx context.Context, bookingID string) (*models.Booking, error)
	ConfirmBooking(ctx context.Context, bookingID string) (*models.Booking, []models.Ticket, error)
}

func New(log *slog.Logger, booking BookingConfirmer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.booking.confirmBooking.New"

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

		confirmed, tickets, err := booking.ConfirmBooking(r.Context(), bookingID)
		if err != nil {
			log.Error("failed to confirm booking", sl.Err(err))

			switch {
			case errors.Is(err, orchestrator.ErrBookingNotFound):
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.Error("booking not found"))
			case errors.Is(err, orchestrator.ErrInvalidStateTransition):
				render.Status(r, http.StatusConflict)
				render.JSON(w, r, response.Error("booking cannot be confirmed in its current status"))
			case errors.Is(err, orchestrator.ErrIssuance):
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.Error("ticket issuance failed, booking marked as failed"))
			default:
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.Error("failed to confirm booking"))
			}
			return
		}

		log.Info("booking confirmed", slog.Int("tickets", len(tickets)))

		responseOK(w, r, confirmed, tickets)
	}
}

func responseOK(w http.ResponseWriter, r *http.Request, booking *models.Booking, tickets []models.Ticket) {
	render.JSON(w, r, ConfirmResponse{
		Response: response.OK(),
		Booking:  booking,
		Tickets:  tickets,
	})
}
