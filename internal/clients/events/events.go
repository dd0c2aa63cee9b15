// Package events is the client for the event-catalog collaborator. Besides
// the catalog reads it adapts the catalog's GET/PUT contract into the
// orchestrator's inventory ledger: reserve, release and commit with
// client-side reservation tokens.
package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"bookingFlow/internal/models"
	"bookingFlow/internal/orchestrator"
)

// errConflict is the catalog's rejection of a stale write. The losing caller
// re-reads and retries.
var errConflict = errors.New("concurrent event update")

type Client struct {
	baseURL       string
	http          *http.Client
	retryAttempts int

	mu           sync.Mutex
	reservations map[orchestrator.ReservationToken]*reservation
}

type reservation struct {
	eventID  string
	quantity int
	released bool
	consumed bool
}

func New(baseURL string, timeout time.Duration, retryAttempts int) *Client {
	if retryAttempts < 1 {
		retryAttempts = 1
	}

	return &Client{
		baseURL:       baseURL,
		http:          &http.Client{Timeout: timeout},
		retryAttempts: retryAttempts,
		reservations:  make(map[orchestrator.ReservationToken]*reservation),
	}
}

type eventEnvelope struct {
	Event models.Event `json:"event"`
}

type eventsEnvelope struct {
	Events []models.Event `json:"events"`
}

func (c *Client) Event(ctx context.Context, eventID string) (*models.Event, error) {
	const op = "clients.events.Event"

	var body eventEnvelope
	if err := c.do(ctx, http.MethodGet, "/events/"+eventID, nil, &body); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &body.Event, nil
}

func (c *Client) Events(ctx context.Context) ([]models.Event, error) {
	const op = "clients.events.Events"

	var body eventsEnvelope
	if err := c.do(ctx, http.MethodGet, "/events", nil, &body); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return body.Events, nil
}

func (c *Client) CreateEvent(ctx context.Context, event *models.Event) (*models.Event, error) {
	const op = "clients.events.CreateEvent"

	var body eventEnvelope
	if err := c.do(ctx, http.MethodPost, "/events", event, &body); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &body.Event, nil
}

func (c *Client) updateEvent(ctx context.Context, event *models.Event) error {
	return c.do(ctx, http.MethodPut, "/events/"+event.ID, event, nil)
}

// Reserve deducts quantity from the event's availability through a bounded
// read-modify-write loop. The availability check is re-validated on every
// attempt; a rejected write is never assumed to have gone through.
func (c *Client) Reserve(ctx context.Context, eventID string, quantity int) (orchestrator.ReservationToken, error) {
	const op = "clients.events.Reserve"

	for attempt := 1; attempt <= c.retryAttempts; attempt++ {
		event, err := c.Event(ctx, eventID)
		if err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}

		if event.AvailableTickets < quantity {
			return "", fmt.Errorf("%s: %w", op, orchestrator.ErrInsufficientInventory)
		}

		event.AvailableTickets -= quantity

		err = c.updateEvent(ctx, event)
		if errors.Is(err, errConflict) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}

		token := orchestrator.ReservationToken(uuid.NewString())

		c.mu.Lock()
		c.reservations[token] = &reservation{eventID: eventID, quantity: quantity}
		c.mu.Unlock()

		return token, nil
	}

	return "", fmt.Errorf("%s: gave up after %d conflicting attempts: %w", op, c.retryAttempts, orchestrator.ErrTransient)
}

// Release re-credits a reservation's deduction. Idempotent: the token is
// marked spent before the availability is given back, so releasing twice is
// a no-op.
func (c *Client) Release(ctx context.Context, token orchestrator.ReservationToken) error {
	const op = "clients.events.Release"

	c.mu.Lock()
	r, ok := c.reservations[token]
	if !ok || r.released || r.consumed {
		c.mu.Unlock()
		return nil
	}
	r.released = true
	c.mu.Unlock()

	for attempt := 1; attempt <= c.retryAttempts; attempt++ {
		event, err := c.Event(ctx, r.eventID)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		event.AvailableTickets += r.quantity

		err = c.updateEvent(ctx, event)
		if errors.Is(err, errConflict) {
			continue
		}
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		return nil
	}

	return fmt.Errorf("%s: gave up after %d conflicting attempts: %w", op, c.retryAttempts, orchestrator.ErrTransient)
}

// Commit marks the token consumed. The deduction already happened at reserve
// time, so no ledger state changes beyond retiring the token.
func (c *Client) Commit(_ context.Context, token orchestrator.ReservationToken) error {
	const op = "clients.events.Commit"

	c.mu.Lock()
	defer c.mu.Unlock()

	r, ok := c.reservations[token]
	if !ok {
		return fmt.Errorf("%s: unknown reservation token", op)
	}

	if r.released {
		return fmt.Errorf("%s: reservation was already released", op)
	}

	r.consumed = true

	return nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
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

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", orchestrator.ErrTransient, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return orchestrator.ErrEventNotFound
	case resp.StatusCode == http.StatusConflict:
		return errConflict
	case resp.StatusCode >= http.StatusInternalServerError:
		return fmt.Errorf("%w: event service returned %d", orchestrator.ErrTransient, resp.StatusCode)
	case resp.StatusCode >= http.StatusBadRequest:
		return fmt.Errorf("event service returned %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}

	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
