package models

import "time"

type Event struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Venue            string    `json:"venue"`
	EventDate        time.Time `json:"event_date"`
	Price            float64   `json:"price"`
	TotalTickets     int       `json:"total_tickets"`
	AvailableTickets int       `json:"available_tickets"`
}
