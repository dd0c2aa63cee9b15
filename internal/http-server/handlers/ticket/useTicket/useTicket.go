package useTicket

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

type UseResponse struct {
	response.Response
	Ticket *models.Ticket `json:"ticket"`
}

//go:generate go run github.com/vektra/mockery/v2@v2.51.1 --name=TicketUser
type TicketUser interface {
	UseTicket(ctx context.Context, code string) (*models.Ticket, error)
}

func New(log *slog.Logger, tickets TicketUser) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ticket.useTicket.New"

		log = log.With(slog.String("op", op))

		code := chi.URLParam(r, "code")
		if code == "" {
			log.Error("ticket code is required")
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("ticket code is required"))
			return
		}

		ticket, err := tickets.UseTicket(r.Context(), code)
		if err != nil {
			log.Error("failed to use ticket", sl.Err(err))
			render.Status(r, http.StatusBadGateway)
			render.JSON(w, r, response.Error("failed to use ticket"))
			return
		}

		log.Info("ticket used", slog.String("code", code))

		render.JSON(w, r, UseResponse{
			Response: response.OK(),
			Ticket:   ticket,
		})
	}
}
