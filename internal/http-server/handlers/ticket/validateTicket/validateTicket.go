package validateTicket

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"bookingFlow/internal/lib/api/response"
	"bookingFlow/internal/lib/logger/sl"
	"bookingFlow/internal/models"
)

type ValidateResponse struct {
	response.Response
	Valid  bool           `json:"valid"`
	Ticket *models.Ticket `json:"ticket,omitempty"`
}

//go:generate go run github.com/vektra/mockery/v2@v2.51.1 --name=TicketValidator
type TicketValidator interface {
	ValidateTicket(ctx context.Context, code string) (*models.Ticket, bool, error)
}

func New(log *slog.Logger, tickets TicketValidator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ticket.validateTicket.New"

		log = log.With(slog.String("op", op))

		code := chi.URLParam(r, "code")
		if code == "" {
			log.Error("ticket code is required")
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("ticket code is required"))
			return
		}

		ticket, valid, err := tickets.ValidateTicket(r.Context(), code)
		if err != nil {
			log.Error("failed to validate ticket", sl.Err(err))
			render.Status(r, http.StatusBadGateway)
			render.JSON(w, r, response.Error("failed to validate ticket"))
			return
		}

		render.JSON(w, r, ValidateResponse{
			Response: response.OK(),
			Valid:    valid,
			Ticket:   ticket,
		})
	}
}
