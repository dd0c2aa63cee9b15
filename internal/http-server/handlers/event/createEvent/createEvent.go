package createEvent

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"bookingFlow/internal/lib/api/response"
	"bookingFlow/internal/lib/logger/sl"
	"bookingFlow/internal/models"
)

type EventRequest struct {
	Title        string    `json:"title" validate:"required"`
	Venue        string    `json:"venue" validate:"required"`
	EventDate    time.Time `json:"event_date" validate:"required"`
	Price        float64   `json:"price" validate:"required"`
	TotalTickets int       `json:"total_tickets" validate:"required,min=1"`
}

type EventResponse struct {
	response.Response
	Event *models.Event `json:"event"`
}

//go:generate go run github.com/vektra/mockery/v2@v2.51.1 --name=EventCreator
type EventCreator interface {
	CreateEvent(ctx context.Context, event *models.Event) (*models.Event, error)
}

func New(log *slog.Logger, creator EventCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.event.createEvent.New"

		log = log.With(
			slog.String("op", op),
		)

		var req EventRequest

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
			errors.As(err, &validateErr)

			log.Error("invalid request", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ValidationError(validateErr))

			return
		}

		created, err := creator.CreateEvent(r.Context(), &models.Event{
			Title:            req.Title,
			Venue:            req.Venue,
			EventDate:        req.EventDate,
			Price:            req.Price,
			TotalTickets:     req.TotalTickets,
			AvailableTickets: req.TotalTickets,
		})
		if err != nil {
			log.Error("failed to add event", sl.Err(err))
			render.Status(r, http.StatusBadGateway)
			render.JSON(w, r, response.Error("failed to add event"))

			return
		}

		log.Info("event added", slog.String("id", created.ID))

		responseOK(w, r, created)
	}
}

func responseOK(w http.ResponseWriter, r *http.Request, event *models.Event) {
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, EventResponse{
		Response: response.OK(),
		Event:    event,
	})
}
