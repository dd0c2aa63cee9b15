package getAllEvents

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"bookingFlow/internal/lib/api/response"
	"bookingFlow/internal/lib/logger/sl"
	"bookingFlow/internal/models"
)

type EventsResponse struct {
	response.Response
	Events []models.Event `json:"events"`
}

//go:generate go run github.com/vektra/mockery/v2@v2.51.1 --name=EventsProvider
type EventsProvider interface {
	Events(ctx context.Context) ([]models.Event, error)
}

func New(log *slog.Logger, provider EventsProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.event.getAllEvents.New"

		log = log.With(slog.String("op", op))

		events, err := provider.Events(r.Context())
		if err != nil {
			log.Error("failed to get events", sl.Err(err))
			render.Status(r, http.StatusBadGateway)
			render.JSON(w, r, response.Error("failed to get events"))
			return
		}

		if events == nil {
			events = []models.Event{}
		}

		render.JSON(w, r, EventsResponse{
			Response: response.OK(),
			Events:   events,
		})
	}
}
