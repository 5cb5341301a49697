package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boxoffice/internal/middleware"
	"boxoffice/internal/models"
	"boxoffice/internal/service"
)

type stubGateway struct {
	authURL    string
	verifyConf *models.PaymentConfirmation
	verifyErr  error
}

func (g *stubGateway) Initialize(ctx context.Context, email string, amount decimal.Decimal, meta models.PaymentMetadata) (string, error) {
	return g.authURL, nil
}

func (g *stubGateway) Verify(ctx context.Context, reference string) (*models.PaymentConfirmation, error) {
	return g.verifyConf, g.verifyErr
}

type fixture struct {
	router   *gin.Engine
	store    *memStore
	gateway  *stubGateway
	event    models.Event
	freeGA   models.Section
	freeGrid models.Section
	pricedGA models.Section
}

func intPtr(v int) *int { return &v }

func newTestRouter(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := newMemStore()
	gateway := &stubGateway{authURL: "https://pay.example/redirect"}

	event := models.Event{ID: "ev-1", Name: "Concert", Location: "Arena"}
	store.events[event.ID] = event

	freeGA := models.Section{
		ID: "sec-free", EventID: event.ID, Name: "Lawn",
		Price: decimal.Zero, Capacity: 5,
	}
	freeGrid := models.Section{
		ID: "sec-grid", EventID: event.ID, Name: "Stalls",
		Price: decimal.Zero, Capacity: 25, IsReserved: true,
		GridRows: intPtr(5), GridCols: intPtr(5),
	}
	pricedGA := models.Section{
		ID: "sec-paid", EventID: event.ID, Name: "VIP",
		Price: decimal.NewFromInt(100), Capacity: 10,
	}
	store.sections[freeGA.ID] = freeGA
	store.sections[freeGrid.ID] = freeGrid
	store.sections[pricedGA.ID] = pricedGA

	services := service.NewServices(store, nil, nil, gateway)
	h := NewHandlers(services, nil)

	router := gin.New()
	api := router.Group("/api")
	api.GET("/events", h.ListEvents)
	api.GET("/events/:id/sections", h.ListSections)

	authed := api.Group("")
	authed.Use(middleware.Identity())
	authed.POST("/bookings", h.CreateBooking)
	authed.GET("/tickets", h.ListTickets)
	authed.DELETE("/tickets/:id", h.CancelTicket)
	authed.POST("/payments/initiate", h.InitiatePayment)

	api.GET("/payments/callback", h.PaymentCallback)

	return &fixture{
		router: router, store: store, gateway: gateway,
		event: event, freeGA: freeGA, freeGrid: freeGrid, pricedGA: pricedGA,
	}
}

func (f *fixture) do(method, path string, body interface{}, userID string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-Id", userID)
		req.Header.Set("X-User-Name", "User "+userID)
		req.Header.Set("X-User-Email", userID+"@example.com")
	}

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
}

func TestCreateBookingFreeSection(t *testing.T) {
	f := newTestRouter(t)

	w := f.do(http.MethodPost, "/api/bookings", models.BookTicketsRequest{
		EventID: f.event.ID, SectionID: f.freeGA.ID, Quantity: 2,
	}, "u1")

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp models.BookTicketsResponse
	decode(t, w, &resp)
	assert.Len(t, resp.TicketIDs, 2)
}

func TestCreateBookingPricedSectionRequiresPayment(t *testing.T) {
	f := newTestRouter(t)

	w := f.do(http.MethodPost, "/api/bookings", models.BookTicketsRequest{
		EventID: f.event.ID, SectionID: f.pricedGA.ID, Quantity: 1,
	}, "u1")

	require.Equal(t, http.StatusPaymentRequired, w.Code, w.Body.String())
	var resp map[string]interface{}
	decode(t, w, &resp)
	assert.Equal(t, "https://pay.example/redirect", resp["authorization_url"])
	assert.Empty(t, f.store.tickets)
}

func TestCreateBookingUnauthorized(t *testing.T) {
	f := newTestRouter(t)

	w := f.do(http.MethodPost, "/api/bookings", models.BookTicketsRequest{
		EventID: f.event.ID, SectionID: f.freeGA.ID, Quantity: 1,
	}, "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateBookingBindingError(t *testing.T) {
	f := newTestRouter(t)

	w := f.do(http.MethodPost, "/api/bookings", map[string]interface{}{
		"event_id": f.event.ID,
	}, "u1")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateBookingIncompleteSeat(t *testing.T) {
	f := newTestRouter(t)

	w := f.do(http.MethodPost, "/api/bookings", map[string]interface{}{
		"event_id":   f.event.ID,
		"section_id": f.freeGrid.ID,
		"seats":      []map[string]int{{"row": 2}},
	}, "u1")

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "row and col")
}

func TestCreateBookingSeatConflict(t *testing.T) {
	f := newTestRouter(t)

	body := models.BookTicketsRequest{
		EventID: f.event.ID, SectionID: f.freeGrid.ID,
		Seats: []models.SeatRequest{{Row: intPtr(2), Col: intPtr(3)}},
	}

	w := f.do(http.MethodPost, "/api/bookings", body, "u1")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = f.do(http.MethodPost, "/api/bookings", body, "u2")
	require.Equal(t, http.StatusConflict, w.Code)

	var resp struct {
		Conflict struct {
			Row int `json:"row"`
			Col int `json:"col"`
		} `json:"conflict"`
	}
	decode(t, w, &resp)
	assert.Equal(t, 2, resp.Conflict.Row)
	assert.Equal(t, 3, resp.Conflict.Col)
}

func TestCreateBookingCapacityExceeded(t *testing.T) {
	f := newTestRouter(t)

	w := f.do(http.MethodPost, "/api/bookings", models.BookTicketsRequest{
		EventID: f.event.ID, SectionID: f.freeGA.ID, Quantity: 5,
	}, "u1")
	require.Equal(t, http.StatusCreated, w.Code)

	w = f.do(http.MethodPost, "/api/bookings", models.BookTicketsRequest{
		EventID: f.event.ID, SectionID: f.freeGA.ID, Quantity: 1,
	}, "u2")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCreateBookingUnknownSection(t *testing.T) {
	f := newTestRouter(t)

	w := f.do(http.MethodPost, "/api/bookings", models.BookTicketsRequest{
		EventID: f.event.ID, SectionID: "sec-none", Quantity: 1,
	}, "u1")

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListTickets(t *testing.T) {
	f := newTestRouter(t)

	w := f.do(http.MethodPost, "/api/bookings", models.BookTicketsRequest{
		EventID: f.event.ID, SectionID: f.freeGA.ID, Quantity: 2,
	}, "u1")
	require.Equal(t, http.StatusCreated, w.Code)

	w = f.do(http.MethodGet, "/api/tickets", nil, "u1")
	require.Equal(t, http.StatusOK, w.Code)

	var tickets []models.Ticket
	decode(t, w, &tickets)
	assert.Len(t, tickets, 2)

	w = f.do(http.MethodGet, "/api/tickets", nil, "u2")
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &tickets)
	assert.Empty(t, tickets)
}

func TestCancelTicket(t *testing.T) {
	f := newTestRouter(t)

	w := f.do(http.MethodPost, "/api/bookings", models.BookTicketsRequest{
		EventID: f.event.ID, SectionID: f.freeGA.ID, Quantity: 1,
	}, "u1")
	require.Equal(t, http.StatusCreated, w.Code)

	var resp models.BookTicketsResponse
	decode(t, w, &resp)
	ticketID := resp.TicketIDs[0]

	// Someone else cannot cancel it.
	w = f.do(http.MethodDelete, "/api/tickets/"+ticketID, nil, "u2")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(http.MethodDelete, "/api/tickets/"+ticketID, nil, "u1")
	assert.Equal(t, http.StatusOK, w.Code)

	// Cancelling again is a 404.
	w = f.do(http.MethodDelete, "/api/tickets/"+ticketID, nil, "u1")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestInitiatePaymentPricedSection(t *testing.T) {
	f := newTestRouter(t)

	w := f.do(http.MethodPost, "/api/payments/initiate", models.InitiatePaymentRequest{
		EventID: f.event.ID, SectionID: f.pricedGA.ID, Quantity: 2,
	}, "u1")

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp models.InitiatePaymentResponse
	decode(t, w, &resp)
	assert.Equal(t, "https://pay.example/redirect", resp.AuthorizationURL)
	assert.Empty(t, resp.TicketIDs)
}

func TestPaymentCallbackIdempotent(t *testing.T) {
	f := newTestRouter(t)

	f.gateway.verifyConf = &models.PaymentConfirmation{
		Reference: "ref-1",
		EventID:   f.event.ID,
		SectionID: f.pricedGA.ID,
		Quantity:  2,
		Holder:    models.Holder{ID: "u1", Name: "User u1", Email: "u1@example.com"},
		Amount:    decimal.NewFromInt(200),
	}

	w := f.do(http.MethodGet, "/api/payments/callback?reference=ref-1", nil, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var first models.ReconcileResponse
	decode(t, w, &first)
	assert.False(t, first.AlreadyProcessed)
	assert.Len(t, first.TicketIDs, 2)

	// The provider retries the redirect.
	w = f.do(http.MethodGet, "/api/payments/callback?reference=ref-1", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var second models.ReconcileResponse
	decode(t, w, &second)
	assert.True(t, second.AlreadyProcessed)
	assert.ElementsMatch(t, first.TicketIDs, second.TicketIDs)

	assert.Len(t, f.store.tickets, 2)
}

func TestPaymentCallbackAmountMismatch(t *testing.T) {
	f := newTestRouter(t)

	f.gateway.verifyConf = &models.PaymentConfirmation{
		Reference: "ref-short",
		EventID:   f.event.ID,
		SectionID: f.pricedGA.ID,
		Quantity:  2,
		Holder:    models.Holder{ID: "u1"},
		Amount:    decimal.NewFromInt(100),
	}

	w := f.do(http.MethodGet, "/api/payments/callback?reference=ref-short", nil, "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Empty(t, f.store.tickets)
	require.Len(t, f.store.failures, 1)
	assert.Equal(t, "ref-short", f.store.failures[0].Reference)
}

func TestPaymentCallbackMissingReference(t *testing.T) {
	f := newTestRouter(t)

	w := f.do(http.MethodGet, "/api/payments/callback", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListEvents(t *testing.T) {
	f := newTestRouter(t)

	w := f.do(http.MethodGet, "/api/events", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.ListEventsResponse
	decode(t, w, &resp)
	require.Len(t, resp, 1)
	assert.Equal(t, f.event.ID, resp[0].ID)
}

func TestListEventsInvalidPaging(t *testing.T) {
	f := newTestRouter(t)

	w := f.do(http.MethodGet, "/api/events?page=0", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodGet, "/api/events?pageSize=500", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListSections(t *testing.T) {
	f := newTestRouter(t)

	w := f.do(http.MethodPost, "/api/bookings", models.BookTicketsRequest{
		EventID: f.event.ID, SectionID: f.freeGrid.ID,
		Seats: []models.SeatRequest{{Row: intPtr(1), Col: intPtr(1)}},
	}, "u1")
	require.Equal(t, http.StatusCreated, w.Code)

	w = f.do(http.MethodGet, fmt.Sprintf("/api/events/%s/sections", f.event.ID), nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp []models.SectionAvailability
	decode(t, w, &resp)
	require.Len(t, resp, 3)

	for _, availability := range resp {
		if availability.Section.ID == f.freeGrid.ID {
			assert.Equal(t, 1, availability.Sold)
			assert.Equal(t, 24, availability.Remaining)
			assert.Equal(t, []models.Seat{{Row: 1, Col: 1}}, availability.Claimed)
		}
	}
}

func TestListSectionsUnknownEvent(t *testing.T) {
	f := newTestRouter(t)

	w := f.do(http.MethodGet, "/api/events/ev-none/sections", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
