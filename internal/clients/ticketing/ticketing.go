// Package ticketing is the client for the ticketing collaborator and the
// orchestrator's ticket issuer. Issuance carries the booking id as an
// idempotency key so a retried generate call never mints duplicates.
package ticketing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"bookingFlow/internal/http-server/middleware/mwauth"
	"bookingFlow/internal/models"
	"bookingFlow/internal/orchestrator"
)

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

type generateRequest struct {
	BookingID string `json:"booking_id"`
	EventID   string `json:"event_id"`
	UserID    string `json:"user_id"`
	Quantity  int    `json:"quantity"`
}

type ticketsEnvelope struct {
	Tickets []models.Ticket `json:"tickets"`
}

type ticketEnvelope struct {
	Ticket models.Ticket `json:"ticket"`
}

type validateEnvelope struct {
	Valid  bool          `json:"valid"`
	Ticket models.Ticket `json:"ticket"`
}

// Issue asks the ticketing service to mint tickets for the booking.
func (c *Client) Issue(ctx context.Context, b *models.Booking) ([]models.Ticket, error) {
	const op = "clients.ticketing.Issue"

	in := generateRequest{
		BookingID: b.ID,
		EventID:   b.EventID,
		UserID:    b.UserID,
		Quantity:  b.Quantity,
	}

	var body ticketsEnvelope
	if err := c.do(ctx, http.MethodPost, "/tickets/generate", b.ID, in, &body); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return body.Tickets, nil
}

// BookingTickets lists the user's tickets and keeps the ones minted for the
// booking. Used to resolve ambiguous issuance outcomes before retrying.
func (c *Client) BookingTickets(ctx context.Context, b *models.Booking) ([]models.Ticket, error) {
	const op = "clients.ticketing.BookingTickets"

	all, err := c.UserTickets(ctx, b.UserID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var tickets []models.Ticket
	for _, t := range all {
		if t.BookingID == b.ID {
			tickets = append(tickets, t)
		}
	}

	return tickets, nil
}

// Discard deletes partially minted tickets during compensation.
func (c *Client) Discard(ctx context.Context, tickets []models.Ticket) error {
	const op = "clients.ticketing.Discard"

	for _, t := range tickets {
		if err := c.do(ctx, http.MethodDelete, "/tickets/"+t.ID, "", nil, nil); err != nil {
			return fmt.Errorf("%s: ticket %s: %w", op, t.ID, err)
		}
	}

	return nil
}

func (c *Client) UserTickets(ctx context.Context, userID string) ([]models.Ticket, error) {
	const op = "clients.ticketing.UserTickets"

	var body ticketsEnvelope
	if err := c.do(ctx, http.MethodGet, "/tickets/user/"+userID, "", nil, &body); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return body.Tickets, nil
}

func (c *Client) ValidateTicket(ctx context.Context, code string) (*models.Ticket, bool, error) {
	const op = "clients.ticketing.ValidateTicket"

	var body validateEnvelope
	if err := c.do(ctx, http.MethodGet, "/tickets/"+code+"/validate", "", nil, &body); err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	return &body.Ticket, body.Valid, nil
}

func (c *Client) UseTicket(ctx context.Context, code string) (*models.Ticket, error) {
	const op = "clients.ticketing.UseTicket"

	var body ticketEnvelope
	if err := c.do(ctx, http.MethodPut, "/tickets/"+code+"/use", "", nil, &body); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &body.Ticket, nil
}

func (c *Client) do(ctx context.Context, method, path, idempotencyKey string, in, out interface{}) error {
	var reqBody io.Reader

	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	// Ticketing calls are made on behalf of the authenticated caller.
	if token := mwauth.Token(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", orchestrator.ErrTransient, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("ticket not found")
	case resp.StatusCode >= http.StatusInternalServerError:
		return fmt.Errorf("%w: ticketing service returned %d", orchestrator.ErrTransient, resp.StatusCode)
	case resp.StatusCode >= http.StatusBadRequest:
		return fmt.Errorf("ticketing service returned %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}

	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
