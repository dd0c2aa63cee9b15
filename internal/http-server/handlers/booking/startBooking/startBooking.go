package startBooking

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"bookingFlow/internal/http-server/middleware/mwauth"
	"bookingFlow/internal/lib/api/response"
	"bookingFlow/internal/lib/logger/sl"
	"bookingFlow/internal/models"
	"bookingFlow/internal/orchestrator"
)

type BookingRequest struct {
	EventID  string `json:"event_id" validate:"required"`
	Quantity int    `json:"quantity" validate:"required,min=1"`
}

type BookingResponse struct {
	response.Response
	Booking *models.Booking `json:"booking"`
}

//go:generate go run github.com/vektra/mockery/v2@v2.51.1 --name=BookingStarter
type BookingStarter interface {
	StartBooking(ctx context.Context, eventID, userID string, quantity int) (*models.Booking, error)
}

func New(log *slog.Logger, booking BookingStarter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.booking.startBooking.New"

		log = log.With(slog.String("op", op))

		userID := mwauth.UserID(r.Context())
		if userID == "" {
			log.Error("no authenticated user on request")
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error("authorization required"))
			return
		}

		var req BookingRequest

		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			log.Error("failed to decode request body", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("failed to decode request"))
			return
		}

		log.Info("request body decoded", slog.Any("request", req))

		if err = validator.New().Struct(req); err != nil {
			var validateErr validator.ValidationErrors
			if errors.As(err, &validateErr) {
				log.Error("invalid request", sl.Err(err))
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.ValidationError(validateErr))
				return
			}
		}

		created, err := booking.StartBooking(r.Context(), req.EventID, userID, req.Quantity)
		if err != nil {
			log.Error("failed to start booking", sl.Err(err))

			switch {
			case errors.Is(err, orchestrator.ErrBookingDenied):
				render.Status(r, http.StatusConflict)
				render.JSON(w, r, response.Error("not enough tickets available"))
			case errors.Is(err, orchestrator.ErrEventNotFound):
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.Error("event not found"))
			default:
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.Error("failed to create booking"))
			}
			return
		}

		log.Info("booking created",
			slog.String("booking_id", created.ID),
			slog.String("user_id", userID),
		)

		responseOK(w, r, created)
	}
}

func responseOK(w http.ResponseWriter, r *http.Request, booking *models.Booking) {
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, BookingResponse{
		Response: response.OK(),
		Booking:  booking,
	})
}
