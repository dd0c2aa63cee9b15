// Package orchestrator drives a booking through reservation, payment and
// ticket issuance across the independently owned inventory, booking and
// ticketing stores.
//
// Atomicity across the stores is a compensating-transaction workflow: every
// step that changes remote state has a matching undo (release for reserve,
// discard for partially minted tickets), and no booking status transition is
// applied before the corresponding remote call's outcome is known. The
// booking record itself is the unit of exclusion: transitions go through a
// conditional status update, so two agents can never drive the same booking
// through conflicting transitions.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"bookingFlow/internal/lib/logger/sl"
	"bookingFlow/internal/models"
)

// ReservationToken is an opaque handle for a provisional inventory
// deduction, consumed by either Commit or Release.
type ReservationToken string

//go:generate go run github.com/vektra/mockery/v2@v2.51.1 --name=Ledger
type Ledger interface {
	// Reserve atomically checks and decrements availability. Concurrent
	// reservations for the same event serialize; losers get
	// ErrInsufficientInventory rather than overselling.
	Reserve(ctx context.Context, eventID string, quantity int) (ReservationToken, error)
	// Release reverses a prior reservation. Idempotent.
	Release(ctx context.Context, token ReservationToken) error
	// Commit finalizes a reservation as permanent.
	Commit(ctx context.Context, token ReservationToken) error
}

//go:generate go run github.com/vektra/mockery/v2@v2.51.1 --name=Catalog
type Catalog interface {
	Event(ctx context.Context, eventID string) (*models.Event, error)
}

//go:generate go run github.com/vektra/mockery/v2@v2.51.1 --name=BookingStore
type BookingStore interface {
	SaveBooking(ctx context.Context, b *models.Booking) error
	Booking(ctx context.Context, id string) (*models.Booking, error)
	UserBookings(ctx context.Context, userID string) ([]models.Booking, error)
	// UpdateStatus transitions a booking from one status to another as an
	// atomic conditional write, returning ErrStatusConflict if the booking
	// is no longer in the expected status.
	UpdateStatus(ctx context.Context, id string, from, to models.BookingStatus) error
	ExpiredBookings(ctx context.Context, olderThan time.Time) ([]models.Booking, error)
}

//go:generate go run github.com/vektra/mockery/v2@v2.51.1 --name=TicketIssuer
type TicketIssuer interface {
	// Issue mints quantity tickets for the booking. The booking id doubles
	// as the idempotency key: a retried Issue must not mint duplicates.
	Issue(ctx context.Context, b *models.Booking) ([]models.Ticket, error)
	// BookingTickets returns the tickets already minted for the booking.
	BookingTickets(ctx context.Context, b *models.Booking) ([]models.Ticket, error)
	// Discard removes partially minted tickets during compensation.
	Discard(ctx context.Context, tickets []models.Ticket) error
}

//go:generate go run github.com/vektra/mockery/v2@v2.51.1 --name=PaymentGateway
type PaymentGateway interface {
	Charge(ctx context.Context, b *models.Booking) error
}

type Orchestrator struct {
	log           *slog.Logger
	catalog       Catalog
	ledger        Ledger
	store         BookingStore
	issuer        TicketIssuer
	payments      PaymentGateway
	retryAttempts int
}

func New(
	log *slog.Logger,
	catalog Catalog,
	ledger Ledger,
	store BookingStore,
	issuer TicketIssuer,
	payments PaymentGateway,
	retryAttempts int,
) *Orchestrator {
	if retryAttempts < 1 {
		retryAttempts = 1
	}

	return &Orchestrator{
		log:           log,
		catalog:       catalog,
		ledger:        ledger,
		store:         store,
		issuer:        issuer,
		payments:      payments,
		retryAttempts: retryAttempts,
	}
}

// StartBooking reserves inventory and creates a booking record in status
// reserved, with the total amount frozen at reservation time. The
// availability pre-check is advisory; the ledger re-checks atomically.
// Reservation and record creation are atomic as a pair: if the record
// cannot be saved the reservation is released.
func (o *Orchestrator) StartBooking(ctx context.Context, eventID, userID string, quantity int) (*models.Booking, error) {
	const op = "orchestrator.StartBooking"

	log := o.log.With(slog.String("op", op), slog.String("event_id", eventID), slog.String("user_id", userID))

	if quantity < 1 {
		return nil, fmt.Errorf("%s: quantity must be at least 1: %w", op, ErrBookingDenied)
	}

	event, err := o.catalog.Event(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to load event: %w", op, err)
	}

	if quantity > event.AvailableTickets {
		return nil, fmt.Errorf("%s: %w", op, ErrBookingDenied)
	}

	token, err := o.ledger.Reserve(ctx, eventID, quantity)
	if err != nil {
		if errors.Is(err, ErrInsufficientInventory) {
			return nil, fmt.Errorf("%s: %w", op, ErrBookingDenied)
		}

		return nil, fmt.Errorf("%s: failed to reserve inventory: %w", op, err)
	}

	booking := &models.Booking{
		ID:               uuid.NewString(),
		EventID:          eventID,
		UserID:           userID,
		Quantity:         quantity,
		TotalAmount:      float64(quantity) * event.Price,
		Status:           models.StatusReserved,
		ReservationToken: string(token),
		CreatedAt:        time.Now().UTC(),
	}

	if err = o.store.SaveBooking(ctx, booking); err != nil {
		if relErr := o.ledger.Release(ctx, token); relErr != nil {
			log.Error("failed to release reservation after store failure, manual reconciliation required",
				slog.String("token", string(token)), sl.Err(relErr))
		}

		return nil, fmt.Errorf("%s: failed to save booking: %w", op, err)
	}

	log.Info("booking reserved",
		slog.String("booking_id", booking.ID),
		slog.Int("quantity", quantity),
		slog.Float64("total_amount", booking.TotalAmount))

	return booking, nil
}

// ConfirmBooking takes a reserved booking through payment and ticket
// issuance. Idempotent: confirming an already confirmed booking returns the
// existing ticket set without re-issuing. Of two racing confirms only one
// passes the reserved -> awaiting_payment transition; the loser observes the
// winner's outcome.
func (o *Orchestrator) ConfirmBooking(ctx context.Context, bookingID string) (*models.Booking, []models.Ticket, error) {
	const op = "orchestrator.ConfirmBooking"

	log := o.log.With(slog.String("op", op), slog.String("booking_id", bookingID))

	booking, err := o.store.Booking(ctx, bookingID)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	if booking.Status == models.StatusConfirmed {
		return o.confirmedOutcome(ctx, op, booking)
	}

	if booking.Status != models.StatusReserved {
		return nil, nil, fmt.Errorf("%s: booking is %s: %w", op, booking.Status, ErrInvalidStateTransition)
	}

	if err = o.store.UpdateStatus(ctx, bookingID, models.StatusReserved, models.StatusAwaitingPayment); err != nil {
		if errors.Is(err, ErrStatusConflict) {
			// Lost the race. Re-read: if the winner already confirmed,
			// return its outcome instead of failing.
			current, getErr := o.store.Booking(ctx, bookingID)
			if getErr == nil && current.Status == models.StatusConfirmed {
				return o.confirmedOutcome(ctx, op, current)
			}

			return nil, nil, fmt.Errorf("%s: %w", op, ErrInvalidStateTransition)
		}

		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	booking.Status = models.StatusAwaitingPayment

	if err = o.payments.Charge(ctx, booking); err != nil {
		log.Error("payment failed, cancelling booking", sl.Err(err))

		o.rollback(ctx, booking, models.StatusAwaitingPayment, models.StatusCancelled, nil)

		return nil, nil, fmt.Errorf("%s: payment failed: %w", op, err)
	}

	// Point of no return: from here the booking ends confirmed or failed,
	// never cancelled.
	if err = o.store.UpdateStatus(ctx, bookingID, models.StatusAwaitingPayment, models.StatusIssuingTickets); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	booking.Status = models.StatusIssuingTickets

	tickets, err := o.issueTickets(ctx, booking)
	if err != nil || !distinctCodes(tickets, booking.Quantity) {
		if err != nil {
			log.Error("ticket issuance failed", sl.Err(err))
		} else {
			log.Error("issuer returned an incomplete or duplicated ticket set",
				slog.Int("got", len(tickets)), slog.Int("want", booking.Quantity))
		}

		o.rollback(ctx, booking, models.StatusIssuingTickets, models.StatusFailed, tickets)

		return nil, nil, fmt.Errorf("%s: %w", op, ErrIssuance)
	}

	if err = o.store.UpdateStatus(ctx, bookingID, models.StatusIssuingTickets, models.StatusConfirmed); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	booking.Status = models.StatusConfirmed

	if err = o.ledger.Commit(ctx, ReservationToken(booking.ReservationToken)); err != nil {
		log.Error("failed to commit reservation, manual reconciliation required", sl.Err(err))
	}

	log.Info("booking confirmed", slog.Int("tickets", len(tickets)))

	return booking, tickets, nil
}

// CancelBooking cancels a booking and releases its reservation. Legal only
// while the booking is reserved or awaiting payment.
func (o *Orchestrator) CancelBooking(ctx context.Context, bookingID string) error {
	const op = "orchestrator.CancelBooking"

	log := o.log.With(slog.String("op", op), slog.String("booking_id", bookingID))

	booking, err := o.store.Booking(ctx, bookingID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if !booking.Status.Cancellable() {
		return fmt.Errorf("%s: booking is %s: %w", op, booking.Status, ErrInvalidStateTransition)
	}

	if err = o.store.UpdateStatus(ctx, bookingID, booking.Status, models.StatusCancelled); err != nil {
		if errors.Is(err, ErrStatusConflict) {
			return fmt.Errorf("%s: %w", op, ErrInvalidStateTransition)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	if err = o.ledger.Release(ctx, ReservationToken(booking.ReservationToken)); err != nil {
		log.Error("failed to release reservation, manual reconciliation required", sl.Err(err))
	}

	log.Info("booking cancelled")

	return nil
}

// CancelExpired sweeps bookings stuck in reserved or awaiting_payment past
// the payment deadline through the normal cancellation path. Bookings that
// progressed concurrently are skipped.
func (o *Orchestrator) CancelExpired(ctx context.Context, deadline time.Duration) error {
	const op = "orchestrator.CancelExpired"

	expired, err := o.store.ExpiredBookings(ctx, time.Now().UTC().Add(-deadline))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	for _, b := range expired {
		if err = o.CancelBooking(ctx, b.ID); err != nil && !errors.Is(err, ErrInvalidStateTransition) {
			o.log.Error("failed to cancel expired booking",
				slog.String("op", op), slog.String("booking_id", b.ID), sl.Err(err))
		}
	}

	if len(expired) > 0 {
		o.log.Info("expired bookings swept", slog.String("op", op), slog.Int("count", len(expired)))
	}

	return nil
}

func (o *Orchestrator) Booking(ctx context.Context, bookingID string) (*models.Booking, error) {
	return o.store.Booking(ctx, bookingID)
}

func (o *Orchestrator) UserBookings(ctx context.Context, userID string) ([]models.Booking, error) {
	return o.store.UserBookings(ctx, userID)
}

// confirmedOutcome returns the existing result of an already confirmed
// booking: the booking itself plus the tickets minted for it.
func (o *Orchestrator) confirmedOutcome(ctx context.Context, op string, booking *models.Booking) (*models.Booking, []models.Ticket, error) {
	tickets, err := o.issuer.BookingTickets(ctx, booking)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: failed to load issued tickets: %w", op, err)
	}

	return booking, tickets, nil
}

// issueTickets calls the issuer with bounded retries. A transient failure is
// ambiguous: the request may have landed, so existing tickets are queried
// before retrying. The booking id is the idempotency key either way, so a
// retried Issue never duplicates tickets.
func (o *Orchestrator) issueTickets(ctx context.Context, booking *models.Booking) ([]models.Ticket, error) {
	var lastErr error

	for attempt := 1; attempt <= o.retryAttempts; attempt++ {
		tickets, err := o.issuer.Issue(ctx, booking)
		if err == nil {
			return tickets, nil
		}

		if !errors.Is(err, ErrTransient) {
			return nil, err
		}

		lastErr = err

		existing, qErr := o.issuer.BookingTickets(ctx, booking)
		if qErr == nil && len(existing) == booking.Quantity {
			return existing, nil
		}
	}

	return nil, lastErr
}

// rollback compensates a booking that cannot reach confirmed: discards any
// partially minted tickets, releases the reservation and moves the booking
// to its terminal status. Compensation failures have no further automatic
// remedy and are logged for manual reconciliation.
func (o *Orchestrator) rollback(ctx context.Context, booking *models.Booking, from, to models.BookingStatus, partial []models.Ticket) {
	log := o.log.With(slog.String("booking_id", booking.ID))

	if to == models.StatusFailed && len(partial) == 0 {
		// The failed Issue call may still have minted tickets. A partial
		// set must never stay attached to a non-confirmed booking.
		if stray, err := o.issuer.BookingTickets(ctx, booking); err == nil {
			partial = stray
		}
	}

	if len(partial) > 0 {
		if err := o.issuer.Discard(ctx, partial); err != nil {
			log.Error("failed to discard partial tickets, manual reconciliation required", sl.Err(err))
		}
	}

	if err := o.ledger.Release(ctx, ReservationToken(booking.ReservationToken)); err != nil {
		log.Error("failed to release reservation, manual reconciliation required", sl.Err(err))
	}

	if err := o.store.UpdateStatus(ctx, booking.ID, from, to); err != nil {
		log.Error("failed to finalize booking status", slog.String("to", string(to)), sl.Err(err))

		return
	}

	booking.Status = to
}

// distinctCodes reports whether tickets holds exactly want tickets, each
// with a unique non-empty code.
func distinctCodes(tickets []models.Ticket, want int) bool {
	if len(tickets) != want {
		return false
	}

	seen := make(map[string]struct{}, len(tickets))

	for _, t := range tickets {
		if t.Code == "" {
			return false
		}

		if _, ok := seen[t.Code]; ok {
			return false
		}

		seen[t.Code] = struct{}{}
	}

	return true
}
