// Package memory holds in-memory implementations of the orchestrator's
// collaborator contracts. They back the workflow tests and local runs
// without the remote services.
package memory

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"bookingFlow/internal/models"
	"bookingFlow/internal/orchestrator"
)

// Ledger is an in-memory inventory ledger. Reservations are serialized by a
// mutex: concurrent Reserve calls for the same event never both succeed when
// their combined quantity exceeds remaining availability.
type Ledger struct {
	mu           sync.Mutex
	events       map[string]*models.Event
	reservations map[orchestrator.ReservationToken]*reservation
}

type reservation struct {
	eventID  string
	quantity int
	released bool
	consumed bool
}

func NewLedger(events ...*models.Event) *Ledger {
	l := &Ledger{
		events:       make(map[string]*models.Event),
		reservations: make(map[orchestrator.ReservationToken]*reservation),
	}

	for _, e := range events {
		l.events[e.ID] = e
	}

	return l
}

func (l *Ledger) Event(_ context.Context, eventID string) (*models.Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	event, ok := l.events[eventID]
	if !ok {
		return nil, orchestrator.ErrEventNotFound
	}

	copied := *event

	return &copied, nil
}

func (l *Ledger) Reserve(_ context.Context, eventID string, quantity int) (orchestrator.ReservationToken, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	event, ok := l.events[eventID]
	if !ok {
		return "", orchestrator.ErrEventNotFound
	}

	if event.AvailableTickets < quantity {
		return "", orchestrator.ErrInsufficientInventory
	}

	event.AvailableTickets -= quantity

	token := orchestrator.ReservationToken(uuid.NewString())
	l.reservations[token] = &reservation{eventID: eventID, quantity: quantity}

	return token, nil
}

func (l *Ledger) Release(_ context.Context, token orchestrator.ReservationToken) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	r, ok := l.reservations[token]
	if !ok || r.released || r.consumed {
		return nil
	}

	r.released = true
	l.events[r.eventID].AvailableTickets += r.quantity

	return nil
}

func (l *Ledger) Commit(_ context.Context, token orchestrator.ReservationToken) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	r, ok := l.reservations[token]
	if !ok {
		return fmt.Errorf("unknown reservation token %q", token)
	}

	r.consumed = true

	return nil
}

// BookingStore is an in-memory booking record store with the same
// conditional-update semantics as the postgres implementation.
type BookingStore struct {
	mu       sync.Mutex
	bookings map[string]*models.Booking
}

func NewBookingStore() *BookingStore {
	return &BookingStore{bookings: make(map[string]*models.Booking)}
}

func (s *BookingStore) SaveBooking(_ context.Context, b *models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.bookings[b.ID]; ok {
		return fmt.Errorf("booking %s already exists", b.ID)
	}

	copied := *b
	s.bookings[b.ID] = &copied

	return nil
}

func (s *BookingStore) Booking(_ context.Context, id string) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[id]
	if !ok {
		return nil, orchestrator.ErrBookingNotFound
	}

	copied := *b

	return &copied, nil
}

func (s *BookingStore) UserBookings(_ context.Context, userID string) ([]models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var bookings []models.Booking
	for _, b := range s.bookings {
		if b.UserID == userID {
			bookings = append(bookings, *b)
		}
	}

	sort.Slice(bookings, func(i, j int) bool {
		return bookings[i].CreatedAt.After(bookings[j].CreatedAt)
	})

	return bookings, nil
}

func (s *BookingStore) UpdateStatus(_ context.Context, id string, from, to models.BookingStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[id]
	if !ok {
		return orchestrator.ErrBookingNotFound
	}

	if b.Status != from {
		return orchestrator.ErrStatusConflict
	}

	b.Status = to
	b.Version++

	return nil
}

func (s *BookingStore) ExpiredBookings(_ context.Context, olderThan time.Time) ([]models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var bookings []models.Booking
	for _, b := range s.bookings {
		if b.Status.Cancellable() && b.CreatedAt.Before(olderThan) {
			bookings = append(bookings, *b)
		}
	}

	return bookings, nil
}

// Issuer mints tickets in memory, deduplicating by booking id the way the
// remote ticketing service does with idempotency keys.
type Issuer struct {
	mu      sync.Mutex
	tickets map[string][]models.Ticket
}

func NewIssuer() *Issuer {
	return &Issuer{tickets: make(map[string][]models.Ticket)}
}

func (i *Issuer) Issue(_ context.Context, b *models.Booking) ([]models.Ticket, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if existing, ok := i.tickets[b.ID]; ok {
		return existing, nil
	}

	tickets := make([]models.Ticket, 0, b.Quantity)
	for n := 0; n < b.Quantity; n++ {
		code, err := generateCode(16)
		if err != nil {
			return nil, fmt.Errorf("failed to generate ticket code: %w", err)
		}

		tickets = append(tickets, models.Ticket{
			ID:        uuid.NewString(),
			BookingID: b.ID,
			EventID:   b.EventID,
			UserID:    b.UserID,
			Code:      code,
			Status:    models.TicketValid,
			CreatedAt: time.Now().UTC(),
		})
	}

	i.tickets[b.ID] = tickets

	return tickets, nil
}

func (i *Issuer) BookingTickets(_ context.Context, b *models.Booking) ([]models.Ticket, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	return i.tickets[b.ID], nil
}

func (i *Issuer) Discard(_ context.Context, tickets []models.Ticket) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	for _, t := range tickets {
		delete(i.tickets, t.BookingID)
	}

	return nil
}

// generateCode returns an uppercase hex string from n random bytes. The code
// space is large enough to make collisions practically impossible.
func generateCode(n int) (string, error) {
	byt := make([]byte, n)

	if _, err := rand.Read(byt); err != nil {
		return "", err
	}

	return strings.ToUpper(hex.EncodeToString(byt)), nil
}
