package service

import (
	"context"

	"github.com/shopspring/decimal"

	"boxoffice/internal/models"
)

// Tx is the set of storage operations available inside one atomic unit.
// Everything performed through a Tx commits together or not at all.
//
// GetSectionForUpdate must lock the section row for the remainder of the
// transaction, so concurrent bookings against the same section serialize:
// the capacity count and seat-conflict scan that follow are then evaluated
// against a state no other booking can change before this one commits.
type Tx interface {
	// GetSectionForUpdate returns the section and locks it, or nil when it
	// does not exist.
	GetSectionForUpdate(ctx context.Context, sectionID string) (*models.Section, error)

	// CountPaidTickets returns the number of PAID tickets in the section as
	// seen by this transaction.
	CountPaidTickets(ctx context.Context, sectionID string) (int, error)

	// FirstSeatConflict returns the first requested seat already held by a
	// PAID ticket, or nil when all are free.
	FirstSeatConflict(ctx context.Context, sectionID string, seats []models.Seat) (*models.Seat, error)

	InsertTicket(ctx context.Context, ticket *models.Ticket) error

	// GetTicketForUpdate returns the ticket and locks it, or nil when it
	// does not exist.
	GetTicketForUpdate(ctx context.Context, ticketID string) (*models.Ticket, error)

	DeleteTicket(ctx context.Context, ticketID string) error

	// GetReconciliation returns the reconciliation record for a payment
	// reference, or nil when the reference has not been processed.
	GetReconciliation(ctx context.Context, reference string) (*models.Reconciliation, error)

	// InsertReconciliation records a processed reference. It returns
	// apperrors.ErrAlreadyProcessed when the unique constraint on the
	// reference fires.
	InsertReconciliation(ctx context.Context, rec *models.Reconciliation) error

	TicketsByPaymentRef(ctx context.Context, reference string) ([]models.Ticket, error)
}

// Store is the storage boundary of the engine. The postgres implementation
// lives in internal/repository; tests substitute an in-memory one.
type Store interface {
	// WithTx runs fn atomically. Implementations must guarantee that two
	// transactions touching the same section serialize, retrying internally
	// on provably transient conflicts and surfacing
	// apperrors.ErrTransient once the retry budget is spent.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	GetEvent(ctx context.Context, eventID string) (*models.Event, error)
	ListEvents(ctx context.Context, page, pageSize int) ([]models.Event, error)
	GetSection(ctx context.Context, sectionID string) (*models.Section, error)
	ListSections(ctx context.Context, eventID string) ([]models.Section, error)

	// CountPaidTickets and ClaimedSeats feed the advisory availability
	// read-model; the Coordinator never trusts them for admission.
	CountPaidTickets(ctx context.Context, sectionID string) (int, error)
	ClaimedSeats(ctx context.Context, sectionID string) ([]models.Seat, error)

	TicketsByHolder(ctx context.Context, holderID string) ([]models.Ticket, error)
	TicketsByPaymentRef(ctx context.Context, reference string) ([]models.Ticket, error)

	// InsertReconciliationFailure records an operator escalation outside the
	// (rolled back) booking transaction.
	InsertReconciliationFailure(ctx context.Context, failure *models.ReconciliationFailure) error
}

// Publisher decouples services from the concrete NATS client. A nil
// Publisher disables event publishing.
type Publisher interface {
	Publish(subject string, data interface{}) error
}

// EventSearcher is implemented by the Elasticsearch catalog index.
type EventSearcher interface {
	Search(ctx context.Context, query, date string, page, pageSize int) ([]models.Event, error)
}

// PaymentGateway is the external payment provider boundary. Initialize
// starts a provider transaction carrying the booking metadata (quantity is
// always explicit there; it is never reconstructed from the amount) and
// returns the authorization URL. Verify resolves a provider reference into
// the verified-payment fact, or an error when the payment did not succeed.
type PaymentGateway interface {
	Initialize(ctx context.Context, email string, amount decimal.Decimal, meta models.PaymentMetadata) (string, error)
	Verify(ctx context.Context, reference string) (*models.PaymentConfirmation, error)
}
