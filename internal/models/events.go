package models

import "time"

// NATS Event Types
const (
	EventTicketsBooked        = "ticket.booked"
	EventTicketCancelled      = "ticket.cancelled"
	EventPaymentReconciled    = "payment.reconciled"
	EventReconciliationFailed = "payment.reconciliation_failed"
)

// TicketsBookedEvent is published after a booking transaction commits
type TicketsBookedEvent struct {
	TicketIDs []string  `json:"ticket_ids"`
	EventID   string    `json:"event_id"`
	SectionID string    `json:"section_id"`
	HolderID  string    `json:"holder_id"`
	Quantity  int       `json:"quantity"`
	Timestamp time.Time `json:"timestamp"`
}

// TicketCancelledEvent is published after a cancellation commits
type TicketCancelledEvent struct {
	TicketID  string    `json:"ticket_id"`
	EventID   string    `json:"event_id"`
	SectionID string    `json:"section_id"`
	HolderID  string    `json:"holder_id"`
	Timestamp time.Time `json:"timestamp"`
}

// PaymentReconciledEvent is published when a verified payment has been
// converted into committed tickets
type PaymentReconciledEvent struct {
	Reference string    `json:"reference"`
	TicketIDs []string  `json:"ticket_ids"`
	EventID   string    `json:"event_id"`
	SectionID string    `json:"section_id"`
	Timestamp time.Time `json:"timestamp"`
}

// ReconciliationFailedEvent is published when a verified payment could not
// be converted into tickets. Consumers escalate it for refund or manual
// resolution; retrying will not free the seats.
type ReconciliationFailedEvent struct {
	Reference string    `json:"reference"`
	EventID   string    `json:"event_id"`
	SectionID string    `json:"section_id"`
	Quantity  int       `json:"quantity"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}
