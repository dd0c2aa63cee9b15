package models

import "time"

type BookingStatus string

const (
	StatusReserved        BookingStatus = "reserved"
	StatusAwaitingPayment BookingStatus = "awaiting_payment"
	StatusIssuingTickets  BookingStatus = "issuing_tickets"
	StatusConfirmed       BookingStatus = "confirmed"
	StatusFailed          BookingStatus = "failed"
	StatusCancelled       BookingStatus = "cancelled"
)

// Terminal reports whether no further transitions are allowed from s.
func (s BookingStatus) Terminal() bool {
	return s == StatusConfirmed || s == StatusFailed || s == StatusCancelled
}

// Cancellable reports whether a booking in status s may still be cancelled.
// Once issuance has started the booking can only end up confirmed or failed.
func (s BookingStatus) Cancellable() bool {
	return s == StatusReserved || s == StatusAwaitingPayment
}

type Booking struct {
	ID               string        `json:"id"`
	EventID          string        `json:"event_id"`
	UserID           string        `json:"user_id"`
	Quantity         int           `json:"quantity"`
	TotalAmount      float64       `json:"total_amount"`
	Status           BookingStatus `json:"status"`
	ReservationToken string        `json:"-"`
	Version          int           `json:"-"`
	CreatedAt        time.Time     `json:"created_at"`
}
