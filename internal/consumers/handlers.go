package consumers

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/nats-io/stan.go"

	"boxoffice/internal/cache"
	"boxoffice/internal/models"
	"boxoffice/internal/repository"
)

type Handlers struct {
	store       *repository.Store
	cacheClient *cache.Client
}

func NewHandlers(store *repository.Store, cacheClient *cache.Client) *Handlers {
	return &Handlers{
		store:       store,
		cacheClient: cacheClient,
	}
}

func (h *Handlers) HandleTicketsBooked(m *stan.Msg) {
	var event models.TicketsBookedEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal tickets booked event", "error", err)
		return
	}

	slog.Info("Processing tickets booked event",
		"event_id", event.EventID, "section_id", event.SectionID,
		"holder_id", event.HolderID, "quantity", event.Quantity)

	h.invalidate(event.EventID)

	m.Ack()
}

func (h *Handlers) HandleTicketCancelled(m *stan.Msg) {
	var event models.TicketCancelledEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal ticket cancelled event", "error", err)
		return
	}

	slog.Info("Processing ticket cancelled event",
		"ticket_id", event.TicketID, "event_id", event.EventID)

	h.invalidate(event.EventID)

	m.Ack()
}

func (h *Handlers) HandlePaymentReconciled(m *stan.Msg) {
	var event models.PaymentReconciledEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal payment reconciled event", "error", err)
		return
	}

	slog.Info("Payment reconciled",
		"reference", event.Reference, "event_id", event.EventID,
		"tickets", len(event.TicketIDs))

	h.invalidate(event.EventID)

	m.Ack()
}

// HandleReconciliationFailed escalates payments that were captured but could
// not be converted into tickets. The durable record already exists; this log
// line is what pages an operator.
func (h *Handlers) HandleReconciliationFailed(m *stan.Msg) {
	var event models.ReconciliationFailedEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal reconciliation failed event", "error", err)
		return
	}

	eventName := event.EventID
	if ev, err := h.store.GetEvent(context.Background(), event.EventID); err == nil && ev != nil {
		eventName = ev.Name
	}

	slog.Error("RECONCILIATION FAILURE: captured payment needs manual resolution",
		"reference", event.Reference,
		"event", eventName,
		"section_id", event.SectionID,
		"quantity", event.Quantity,
		"reason", event.Reason)

	m.Ack()
}

func (h *Handlers) invalidate(eventID string) {
	if h.cacheClient == nil {
		return
	}
	if err := h.cacheClient.InvalidateEvent(context.Background(), eventID); err != nil {
		slog.Warn("Failed to invalidate cache", "event_id", eventID, "error", err)
	}
}
