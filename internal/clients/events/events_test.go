package events

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookingFlow/internal/models"
	"bookingFlow/internal/orchestrator"
)

// catalogStub imitates the event catalog's GET/PUT surface, rejecting every
// write whose availability does not match the stored value with 409.
type catalogStub struct {
	mu       sync.Mutex
	events   map[string]*models.Event
	conflict int
	puts     int
}

func newCatalogStub(events ...*models.Event) *catalogStub {
	s := &catalogStub{events: make(map[string]*models.Event)}
	for _, e := range events {
		s.events[e.ID] = e
	}

	return s
}

func (s *catalogStub) handler() http.Handler {
	mux := chi.NewRouter()

	mux.Get("/events/{id}", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()

		event, ok := s.events[chi.URLParam(r, "id")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		json.NewEncoder(w).Encode(eventEnvelope{Event: *event})
	})

	mux.Put("/events/{id}", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()

		s.puts++

		event, ok := s.events[chi.URLParam(r, "id")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		if s.conflict > 0 {
			s.conflict--
			w.WriteHeader(http.StatusConflict)
			return
		}

		var updated models.Event
		if err := json.NewDecoder(r.Body).Decode(&updated); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		*event = updated
		json.NewEncoder(w).Encode(eventEnvelope{Event: *event})
	})

	return mux
}

func (s *catalogStub) available(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.events[id].AvailableTickets
}

func newTestClient(t *testing.T, stub *catalogStub) *Client {
	t.Helper()

	srv := httptest.NewServer(stub.handler())
	t.Cleanup(srv.Close)

	return New(srv.URL, 5*time.Second, 3)
}

func TestReserve(t *testing.T) {
	t.Parallel()

	stub := newCatalogStub(&models.Event{ID: "ev1", TotalTickets: 10, AvailableTickets: 10})
	client := newTestClient(t, stub)

	token, err := client.Reserve(context.Background(), "ev1", 4)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, 6, stub.available("ev1"))
}

func TestReserve_Insufficient(t *testing.T) {
	t.Parallel()

	stub := newCatalogStub(&models.Event{ID: "ev1", TotalTickets: 10, AvailableTickets: 3})
	client := newTestClient(t, stub)

	_, err := client.Reserve(context.Background(), "ev1", 5)
	require.ErrorIs(t, err, orchestrator.ErrInsufficientInventory)
	assert.Equal(t, 3, stub.available("ev1"))
}

func TestReserve_UnknownEvent(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, newCatalogStub())

	_, err := client.Reserve(context.Background(), "missing", 1)
	require.ErrorIs(t, err, orchestrator.ErrEventNotFound)
}

func TestReserve_RetriesOnConflict(t *testing.T) {
	t.Parallel()

	stub := newCatalogStub(&models.Event{ID: "ev1", TotalTickets: 10, AvailableTickets: 10})
	stub.conflict = 2

	client := newTestClient(t, stub)

	_, err := client.Reserve(context.Background(), "ev1", 4)
	require.NoError(t, err)
	assert.Equal(t, 6, stub.available("ev1"))
	assert.Equal(t, 3, stub.puts, "two rejected writes plus the accepted one")
}

func TestReserve_GivesUpAfterRepeatedConflicts(t *testing.T) {
	t.Parallel()

	stub := newCatalogStub(&models.Event{ID: "ev1", TotalTickets: 10, AvailableTickets: 10})
	stub.conflict = 10

	client := newTestClient(t, stub)

	_, err := client.Reserve(context.Background(), "ev1", 4)
	require.ErrorIs(t, err, orchestrator.ErrTransient)
	assert.Equal(t, 10, stub.available("ev1"))
}

func TestRelease_Idempotent(t *testing.T) {
	t.Parallel()

	stub := newCatalogStub(&models.Event{ID: "ev1", TotalTickets: 10, AvailableTickets: 10})
	client := newTestClient(t, stub)

	token, err := client.Reserve(context.Background(), "ev1", 4)
	require.NoError(t, err)
	require.Equal(t, 6, stub.available("ev1"))

	require.NoError(t, client.Release(context.Background(), token))
	assert.Equal(t, 10, stub.available("ev1"))

	// A second release must not re-credit again.
	require.NoError(t, client.Release(context.Background(), token))
	assert.Equal(t, 10, stub.available("ev1"))
}

func TestRelease_UnknownTokenIsNoop(t *testing.T) {
	t.Parallel()

	stub := newCatalogStub(&models.Event{ID: "ev1", TotalTickets: 10, AvailableTickets: 10})
	client := newTestClient(t, stub)

	require.NoError(t, client.Release(context.Background(), orchestrator.ReservationToken("bogus")))
	assert.Equal(t, 10, stub.available("ev1"))
}

func TestCommit(t *testing.T) {
	t.Parallel()

	stub := newCatalogStub(&models.Event{ID: "ev1", TotalTickets: 10, AvailableTickets: 10})
	client := newTestClient(t, stub)

	token, err := client.Reserve(context.Background(), "ev1", 4)
	require.NoError(t, err)

	require.NoError(t, client.Commit(context.Background(), token))

	// The deduction stays; a release after commit is a no-op.
	require.NoError(t, client.Release(context.Background(), token))
	assert.Equal(t, 6, stub.available("ev1"))
}

func TestCommit_AfterReleaseFails(t *testing.T) {
	t.Parallel()

	stub := newCatalogStub(&models.Event{ID: "ev1", TotalTickets: 10, AvailableTickets: 10})
	client := newTestClient(t, stub)

	token, err := client.Reserve(context.Background(), "ev1", 4)
	require.NoError(t, err)

	require.NoError(t, client.Release(context.Background(), token))

	err = client.Commit(context.Background(), token)
	require.Error(t, err)
}
