package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"bookingFlow/internal/clients/auth"
	"bookingFlow/internal/clients/events"
	"bookingFlow/internal/clients/ticketing"
	"bookingFlow/internal/config"
	"bookingFlow/internal/http-server/handlers/booking/cancelBooking"
	"bookingFlow/internal/http-server/handlers/booking/confirmBooking"
	"bookingFlow/internal/http-server/handlers/booking/getBooking"
	"bookingFlow/internal/http-server/handlers/booking/getUserBookings"
	"bookingFlow/internal/http-server/handlers/booking/startBooking"
	"bookingFlow/internal/http-server/handlers/event/createEvent"
	"bookingFlow/internal/http-server/handlers/event/getAllEvents"
	"bookingFlow/internal/http-server/handlers/event/getEventInfo"
	"bookingFlow/internal/http-server/handlers/ticket/getUserTickets"
	"bookingFlow/internal/http-server/handlers/ticket/useTicket"
	"bookingFlow/internal/http-server/handlers/ticket/validateTicket"
	"bookingFlow/internal/http-server/middleware/mwauth"
	"bookingFlow/internal/http-server/middleware/mwlogger"
	"bookingFlow/internal/lib/logger/handlers/slogpretty"
	"bookingFlow/internal/lib/logger/sl"
	"bookingFlow/internal/orchestrator"
	"bookingFlow/internal/payment"
	"bookingFlow/internal/storage/postgres"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)

	log.Info("Starting booking flow", slog.String("env", cfg.Env))
	log.Debug("Debug messages are enabled")

	storage, err := postgres.InitDB(&cfg.Database)
	if err != nil {
		log.Error("failed to init storage", sl.Err(err))
		os.Exit(1)
	}

	authClient := auth.New(cfg.Services.AuthURL, cfg.Services.Timeout)
	eventsClient := events.New(cfg.Services.EventsURL, cfg.Services.Timeout, cfg.Services.RetryAttempts)
	ticketingClient := ticketing.New(cfg.Services.TicketingURL, cfg.Services.Timeout)

	orch := orchestrator.New(
		log,
		eventsClient,
		eventsClient,
		storage,
		ticketingClient,
		payment.NewAutoApprove(log),
		cfg.Services.RetryAttempts,
	)

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(mwlogger.New(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/events", getAllEvents.New(log, eventsClient))
		r.Get("/events/{id}", getEventInfo.New(log, eventsClient))
		r.Post("/events", createEvent.New(log, eventsClient))

		r.Group(func(r chi.Router) {
			r.Use(mwauth.New(log, authClient))

			r.Post("/bookings", startBooking.New(log, orch))
			r.Get("/bookings", getUserBookings.New(log, orch))
			r.Get("/bookings/{id}", getBooking.New(log, orch))
			r.Put("/bookings/{id}/confirm", confirmBooking.New(log, orch))
			r.Delete("/bookings/{id}", cancelBooking.New(log, orch))

			r.Get("/tickets/user/{userId}", getUserTickets.New(log, ticketingClient))
			r.Get("/tickets/{code}/validate", validateTicket.New(log, ticketingClient))
			r.Put("/tickets/{code}/use", useTicket.New(log, ticketingClient))
		})
	})

	log.Info("starting server", slog.String("address", cfg.HTTPServer.Address))

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGTERM, syscall.SIGINT, os.Interrupt)

	done := make(chan struct{})
	defer close(done)

	go func() {
		ticker := time.NewTicker(cfg.Booking.SweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := orch.CancelExpired(context.Background(), cfg.Booking.PaymentDeadline); err != nil {
					log.Error("failed to cancel expired bookings", sl.Err(err))
				}
			case <-done:
				return
			}
		}
	}()

	go func() {
		if err = srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("failed to start server", sl.Err(err))
			stop <- syscall.SIGTERM
		}
	}()

	sign := <-stop

	log.Info("application stopping", slog.String("signal", sign.String()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err = srv.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to shutdown server", sl.Err(err))
	}

	log.Info("application stopped")

	if err = storage.Close(); err != nil {
		log.Error("failed to close postgres connection", sl.Err(err))
	}

	log.Info("postgres connection closed")
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = setupPrettySlog()
	case envDev:
		log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}

	return log
}

func setupPrettySlog() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	h := opts.NewPrettyHandler(os.Stdout)

	return slog.New(h)
}
