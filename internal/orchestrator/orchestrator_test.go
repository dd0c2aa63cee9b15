package orchestrator_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"bookingFlow/internal/lib/logger/handlers/slogdiscard"
	"bookingFlow/internal/models"
	"bookingFlow/internal/orchestrator"
	"bookingFlow/internal/orchestrator/mocks"
	"bookingFlow/internal/payment"
	"bookingFlow/internal/storage/memory"
)

func newEvent(id string, price float64, available int) *models.Event {
	return &models.Event{
		ID:               id,
		Title:            "Concert",
		Venue:            "Arena",
		EventDate:        time.Now().Add(24 * time.Hour),
		Price:            price,
		TotalTickets:     available,
		AvailableTickets: available,
	}
}

// newTestOrchestrator wires the orchestrator against the in-memory
// collaborators with an auto-approving payment gateway.
func newTestOrchestrator(events ...*models.Event) (*orchestrator.Orchestrator, *memory.Ledger, *memory.BookingStore, *memory.Issuer) {
	log := slogdiscard.NewDiscardLogger()
	ledger := memory.NewLedger(events...)
	store := memory.NewBookingStore()
	issuer := memory.NewIssuer()

	orch := orchestrator.New(log, ledger, ledger, store, issuer, payment.NewAutoApprove(log), 3)

	return orch, ledger, store, issuer
}

func available(t *testing.T, ledger *memory.Ledger, eventID string) int {
	t.Helper()

	event, err := ledger.Event(context.Background(), eventID)
	require.NoError(t, err)

	return event.AvailableTickets
}

func TestStartBooking_Success(t *testing.T) {
	t.Parallel()

	orch, ledger, _, _ := newTestOrchestrator(newEvent("ev1", 50, 10))

	booking, err := orch.StartBooking(context.Background(), "ev1", "user1", 4)
	require.NoError(t, err)

	assert.Equal(t, models.StatusReserved, booking.Status)
	assert.Equal(t, 4, booking.Quantity)
	assert.Equal(t, float64(200), booking.TotalAmount)
	assert.Equal(t, 6, available(t, ledger, "ev1"))
}

func TestStartBooking_Denied(t *testing.T) {
	t.Parallel()

	orch, ledger, store, _ := newTestOrchestrator(newEvent("ev1", 50, 3))

	_, err := orch.StartBooking(context.Background(), "ev1", "user1", 5)
	require.ErrorIs(t, err, orchestrator.ErrBookingDenied)

	assert.Equal(t, 3, available(t, ledger, "ev1"))

	bookings, err := store.UserBookings(context.Background(), "user1")
	require.NoError(t, err)
	assert.Empty(t, bookings)
}

func TestStartBooking_InvalidQuantity(t *testing.T) {
	t.Parallel()

	orch, _, _, _ := newTestOrchestrator(newEvent("ev1", 50, 3))

	_, err := orch.StartBooking(context.Background(), "ev1", "user1", 0)
	require.ErrorIs(t, err, orchestrator.ErrBookingDenied)
}

func TestStartBooking_UnknownEvent(t *testing.T) {
	t.Parallel()

	orch, _, _, _ := newTestOrchestrator(newEvent("ev1", 50, 3))

	_, err := orch.StartBooking(context.Background(), "missing", "user1", 1)
	require.ErrorIs(t, err, orchestrator.ErrEventNotFound)
}

func TestStartBooking_ReleasesReservationOnStoreFailure(t *testing.T) {
	t.Parallel()

	log := slogdiscard.NewDiscardLogger()
	ledger := memory.NewLedger(newEvent("ev1", 50, 10))

	store := mocks.NewBookingStore(t)
	store.On("SaveBooking", mock.Anything, mock.Anything).Return(errors.New("db down"))

	orch := orchestrator.New(log, ledger, ledger, store, memory.NewIssuer(), payment.NewAutoApprove(log), 3)

	_, err := orch.StartBooking(context.Background(), "ev1", "user1", 4)
	require.Error(t, err)

	// Reservation and record creation are atomic as a pair.
	assert.Equal(t, 10, available(t, ledger, "ev1"))
}

func TestConfirmBooking_IssuesTickets(t *testing.T) {
	t.Parallel()

	orch, ledger, _, _ := newTestOrchestrator(newEvent("ev1", 50, 10))

	booking, err := orch.StartBooking(context.Background(), "ev1", "user1", 3)
	require.NoError(t, err)

	confirmed, tickets, err := orch.ConfirmBooking(context.Background(), booking.ID)
	require.NoError(t, err)

	assert.Equal(t, models.StatusConfirmed, confirmed.Status)
	require.Len(t, tickets, 3)

	codes := make(map[string]struct{})
	for _, ticket := range tickets {
		assert.Equal(t, booking.ID, ticket.BookingID)
		assert.Equal(t, models.TicketValid, ticket.Status)
		assert.NotEmpty(t, ticket.Code)
		codes[ticket.Code] = struct{}{}
	}
	assert.Len(t, codes, 3, "ticket codes must be distinct")

	// Committed reservation stays deducted.
	assert.Equal(t, 7, available(t, ledger, "ev1"))
}

func TestConfirmBooking_Idempotent(t *testing.T) {
	t.Parallel()

	orch, ledger, _, _ := newTestOrchestrator(newEvent("ev1", 50, 10))

	booking, err := orch.StartBooking(context.Background(), "ev1", "user1", 2)
	require.NoError(t, err)

	_, first, err := orch.ConfirmBooking(context.Background(), booking.ID)
	require.NoError(t, err)

	_, second, err := orch.ConfirmBooking(context.Background(), booking.ID)
	require.NoError(t, err)

	require.Len(t, second, 2)
	assert.ElementsMatch(t, first, second, "second confirm must return the same ticket set")
	assert.Equal(t, 8, available(t, ledger, "ev1"), "no double decrement")
}

func TestConfirmBooking_CompensatesOnIssuanceFailure(t *testing.T) {
	t.Parallel()

	log := slogdiscard.NewDiscardLogger()
	ledger := memory.NewLedger(newEvent("ev1", 50, 10))
	store := memory.NewBookingStore()

	issuer := mocks.NewTicketIssuer(t)
	issuer.On("Issue", mock.Anything, mock.Anything).Return(nil, errors.New("printer on fire"))
	issuer.On("BookingTickets", mock.Anything, mock.Anything).Return(nil, nil)

	orch := orchestrator.New(log, ledger, ledger, store, issuer, payment.NewAutoApprove(log), 3)

	booking, err := orch.StartBooking(context.Background(), "ev1", "user1", 4)
	require.NoError(t, err)
	require.Equal(t, 6, available(t, ledger, "ev1"))

	_, _, err = orch.ConfirmBooking(context.Background(), booking.ID)
	require.ErrorIs(t, err, orchestrator.ErrIssuance)

	failed, err := store.Booking(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, failed.Status)

	// Compensation restores the pre-reservation availability.
	assert.Equal(t, 10, available(t, ledger, "ev1"))
}

func TestConfirmBooking_DiscardsPartialTickets(t *testing.T) {
	t.Parallel()

	log := slogdiscard.NewDiscardLogger()
	ledger := memory.NewLedger(newEvent("ev1", 50, 10))
	store := memory.NewBookingStore()

	partial := []models.Ticket{{ID: "t1", Code: "AAAA", Status: models.TicketValid}}

	issuer := mocks.NewTicketIssuer(t)
	issuer.On("Issue", mock.Anything, mock.Anything).Return(nil, errors.New("minting failed halfway"))
	issuer.On("BookingTickets", mock.Anything, mock.Anything).Return(partial, nil)
	issuer.On("Discard", mock.Anything, partial).Return(nil)

	orch := orchestrator.New(log, ledger, ledger, store, issuer, payment.NewAutoApprove(log), 3)

	booking, err := orch.StartBooking(context.Background(), "ev1", "user1", 3)
	require.NoError(t, err)

	_, _, err = orch.ConfirmBooking(context.Background(), booking.ID)
	require.ErrorIs(t, err, orchestrator.ErrIssuance)

	assert.Equal(t, 10, available(t, ledger, "ev1"))
	issuer.AssertCalled(t, "Discard", mock.Anything, partial)
}

func TestConfirmBooking_RecoversFromAmbiguousIssuance(t *testing.T) {
	t.Parallel()

	log := slogdiscard.NewDiscardLogger()
	ledger := memory.NewLedger(newEvent("ev1", 50, 10))
	store := memory.NewBookingStore()

	minted := []models.Ticket{
		{ID: "t1", Code: "AAAA", Status: models.TicketValid},
		{ID: "t2", Code: "BBBB", Status: models.TicketValid},
	}

	// The generate call times out, but the tickets were minted. The
	// orchestrator must find them instead of failing or re-issuing.
	issuer := mocks.NewTicketIssuer(t)
	issuer.On("Issue", mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("timeout: %w", orchestrator.ErrTransient)).Once()
	issuer.On("BookingTickets", mock.Anything, mock.Anything).Return(minted, nil).Once()

	orch := orchestrator.New(log, ledger, ledger, store, issuer, payment.NewAutoApprove(log), 3)

	booking, err := orch.StartBooking(context.Background(), "ev1", "user1", 2)
	require.NoError(t, err)

	confirmed, tickets, err := orch.ConfirmBooking(context.Background(), booking.ID)
	require.NoError(t, err)

	assert.Equal(t, models.StatusConfirmed, confirmed.Status)
	assert.ElementsMatch(t, minted, tickets)
	assert.Equal(t, 8, available(t, ledger, "ev1"))
}

func TestConfirmBooking_PaymentDeclinedCancels(t *testing.T) {
	t.Parallel()

	log := slogdiscard.NewDiscardLogger()
	ledger := memory.NewLedger(newEvent("ev1", 50, 10))
	store := memory.NewBookingStore()

	gateway := mocks.NewPaymentGateway(t)
	gateway.On("Charge", mock.Anything, mock.Anything).Return(errors.New("card declined"))

	orch := orchestrator.New(log, ledger, ledger, store, memory.NewIssuer(), gateway, 3)

	booking, err := orch.StartBooking(context.Background(), "ev1", "user1", 4)
	require.NoError(t, err)

	_, _, err = orch.ConfirmBooking(context.Background(), booking.ID)
	require.Error(t, err)

	cancelled, err := store.Booking(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)
	assert.Equal(t, 10, available(t, ledger, "ev1"))
}

func TestConfirmBooking_LosingRacerGetsWinnersOutcome(t *testing.T) {
	t.Parallel()

	log := slogdiscard.NewDiscardLogger()

	reserved := &models.Booking{
		ID:       "b1",
		EventID:  "ev1",
		UserID:   "user1",
		Quantity: 2,
		Status:   models.StatusReserved,
	}
	winner := &models.Booking{
		ID:       "b1",
		EventID:  "ev1",
		UserID:   "user1",
		Quantity: 2,
		Status:   models.StatusConfirmed,
	}
	tickets := []models.Ticket{
		{ID: "t1", Code: "AAAA"},
		{ID: "t2", Code: "BBBB"},
	}

	store := mocks.NewBookingStore(t)
	store.On("Booking", mock.Anything, "b1").Return(reserved, nil).Once()
	// The conditional write loses to a concurrent confirm...
	store.On("UpdateStatus", mock.Anything, "b1", models.StatusReserved, models.StatusAwaitingPayment).
		Return(orchestrator.ErrStatusConflict).Once()
	// ...and the re-read observes the winner's terminal state.
	store.On("Booking", mock.Anything, "b1").Return(winner, nil).Once()

	issuer := mocks.NewTicketIssuer(t)
	issuer.On("BookingTickets", mock.Anything, winner).Return(tickets, nil).Once()

	orch := orchestrator.New(log, mocks.NewCatalog(t), mocks.NewLedger(t), store, issuer, mocks.NewPaymentGateway(t), 3)

	confirmed, got, err := orch.ConfirmBooking(context.Background(), "b1")
	require.NoError(t, err)

	assert.Equal(t, models.StatusConfirmed, confirmed.Status)
	assert.ElementsMatch(t, tickets, got)
	issuer.AssertNotCalled(t, "Issue", mock.Anything, mock.Anything)
}

func TestCancelBooking(t *testing.T) {
	t.Parallel()

	orch, ledger, store, _ := newTestOrchestrator(newEvent("ev1", 50, 10))

	booking, err := orch.StartBooking(context.Background(), "ev1", "user1", 4)
	require.NoError(t, err)
	require.Equal(t, 6, available(t, ledger, "ev1"))

	require.NoError(t, orch.CancelBooking(context.Background(), booking.ID))

	cancelled, err := store.Booking(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)
	assert.Equal(t, 10, available(t, ledger, "ev1"))

	// Cancelling again is an invalid transition.
	err = orch.CancelBooking(context.Background(), booking.ID)
	assert.ErrorIs(t, err, orchestrator.ErrInvalidStateTransition)
}

func TestCancelBooking_ConfirmedIsFinal(t *testing.T) {
	t.Parallel()

	orch, ledger, _, _ := newTestOrchestrator(newEvent("ev1", 50, 10))

	booking, err := orch.StartBooking(context.Background(), "ev1", "user1", 2)
	require.NoError(t, err)

	_, _, err = orch.ConfirmBooking(context.Background(), booking.ID)
	require.NoError(t, err)

	err = orch.CancelBooking(context.Background(), booking.ID)
	assert.ErrorIs(t, err, orchestrator.ErrInvalidStateTransition)
	assert.Equal(t, 8, available(t, ledger, "ev1"), "committed reservation must stay deducted")
}

func TestCancelExpired(t *testing.T) {
	t.Parallel()

	orch, ledger, store, _ := newTestOrchestrator(newEvent("ev1", 50, 10))

	booking, err := orch.StartBooking(context.Background(), "ev1", "user1", 4)
	require.NoError(t, err)

	// Fresh bookings survive the sweep.
	require.NoError(t, orch.CancelExpired(context.Background(), time.Hour))

	current, err := store.Booking(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusReserved, current.Status)

	// With a zero deadline everything reserved is overdue.
	require.NoError(t, orch.CancelExpired(context.Background(), 0))

	swept, err := store.Booking(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, swept.Status)
	assert.Equal(t, 10, available(t, ledger, "ev1"))
}

func TestConcurrentStartBooking_NeverOversells(t *testing.T) {
	t.Parallel()

	const capacity = 10
	const callers = 25

	orch, ledger, _, _ := newTestOrchestrator(newEvent("ev1", 50, capacity))

	var wg sync.WaitGroup
	results := make(chan error, callers)

	for n := 0; n < callers; n++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := orch.StartBooking(context.Background(), "ev1", fmt.Sprintf("user%d", n), 1)
			results <- err
		}(n)
	}

	wg.Wait()
	close(results)

	var succeeded, denied int
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, orchestrator.ErrBookingDenied):
			denied++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, capacity, succeeded)
	assert.Equal(t, callers-capacity, denied)
	assert.Equal(t, 0, available(t, ledger, "ev1"))
}

func TestBookingScenario(t *testing.T) {
	t.Parallel()

	orch, ledger, _, _ := newTestOrchestrator(newEvent("ev1", 100, 10))
	ctx := context.Background()

	bookingA, err := orch.StartBooking(ctx, "ev1", "alice", 6)
	require.NoError(t, err)
	assert.Equal(t, 4, available(t, ledger, "ev1"))

	_, err = orch.StartBooking(ctx, "ev1", "bob", 5)
	require.ErrorIs(t, err, orchestrator.ErrBookingDenied)
	assert.Equal(t, 4, available(t, ledger, "ev1"))

	_, err = orch.StartBooking(ctx, "ev1", "carol", 4)
	require.NoError(t, err)
	assert.Equal(t, 0, available(t, ledger, "ev1"))

	confirmed, tickets, err := orch.ConfirmBooking(ctx, bookingA.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, confirmed.Status)
	require.Len(t, tickets, 6)

	codes := make(map[string]struct{})
	for _, ticket := range tickets {
		codes[ticket.Code] = struct{}{}
	}
	assert.Len(t, codes, 6)
}
