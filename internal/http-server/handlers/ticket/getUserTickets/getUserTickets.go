package getUserTickets

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"bookingFlow/internal/http-server/middleware/mwauth"
	"bookingFlow/internal/lib/api/response"
	"bookingFlow/internal/lib/logger/sl"
	"bookingFlow/internal/models"
)

type TicketsResponse struct {
	response.Response
	Tickets []models.Ticket `json:"tickets"`
}

//go:generate go run github.com/vektra/mockery/v2@v2.51.1 --name=TicketsProvider
type TicketsProvider interface {
	UserTickets(ctx context.Context, userID string) ([]models.Ticket, error)
}

func New(log *slog.Logger, provider TicketsProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ticket.getUserTickets.New"

		log = log.With(slog.String("op", op))

		userID := chi.URLParam(r, "userId")
		if userID == "" {
			log.Error("user id is required")
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("user id is required"))
			return
		}

		if userID != mwauth.UserID(r.Context()) {
			render.Status(r, http.StatusForbidden)
			render.JSON(w, r, response.Error("tickets belong to another user"))
			return
		}

		tickets, err := provider.UserTickets(r.Context(), userID)
		if err != nil {
			log.Error("failed to get tickets", sl.Err(err))
			render.Status(r, http.StatusBadGateway)
			render.JSON(w, r, response.Error("failed to get tickets"))
			return
		}

		if tickets == nil {
			tickets = []models.Ticket{}
		}

		render.JSON(w, r, TicketsResponse{
			Response: response.OK(),
			Tickets:  tickets,
		})
	}
}
