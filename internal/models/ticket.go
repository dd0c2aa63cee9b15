package models

import "time"

type TicketStatus string

const (
	TicketValid   TicketStatus = "valid"
	TicketUsed    TicketStatus = "used"
	TicketExpired TicketStatus = "expired"
)

type Ticket struct {
	ID        string       `json:"id"`
	BookingID string       `json:"booking_id"`
	EventID   string       `json:"event_id"`
	UserID    string       `json:"user_id"`
	Code      string       `json:"code"`
	Status    TicketStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
}
