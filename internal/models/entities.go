package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Ticket statuses. The engine only ever writes PAID; PENDING is reachable
// solely when a payment provider reports a pending transaction, and such
// tickets never count against capacity.
const (
	TicketStatusPaid      = "PAID"
	TicketStatusPending   = "PENDING"
	TicketStatusCancelled = "CANCELLED"
)

// Event is a read-only input from the engine's perspective; authoring and
// editing belong to an external collaborator.
type Event struct {
	ID          string    `json:"id" db:"id"`
	OrganizerID string    `json:"organizer_id" db:"organizer_id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description,omitempty" db:"description"`
	Date        time.Time `json:"date" db:"date"`
	Location    string    `json:"location" db:"location"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Section is a sellable subdivision of an event. For reserved sections
// capacity equals GridRows*GridCols and both grid fields are set; for
// general admission both are nil.
type Section struct {
	ID         string          `json:"id" db:"id"`
	EventID    string          `json:"event_id" db:"event_id"`
	Name       string          `json:"name" db:"name"`
	Price      decimal.Decimal `json:"price" db:"price"`
	Capacity   int             `json:"capacity" db:"capacity"`
	IsReserved bool            `json:"is_reserved" db:"is_reserved"`
	GridRows   *int            `json:"rows,omitempty" db:"grid_rows"`
	GridCols   *int            `json:"cols,omitempty" db:"grid_cols"`
}

// Holder identifies the person a ticket belongs to. Display metadata is
// snapshotted onto the ticket at booking time and immutable afterwards.
type Holder struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Seat is a (row, col) coordinate within a reserved section's grid,
// zero-based and bounded by the section's GridRows/GridCols.
type Seat struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Ticket is the unit of sale. Row/Col are both nil for general admission
// and both set for reserved sections. PaymentRef links tickets issued by
// the reconciliation path to their provider reference.
type Ticket struct {
	ID          string    `json:"id" db:"id"`
	EventID     string    `json:"event_id" db:"event_id"`
	SectionID   string    `json:"section_id" db:"section_id"`
	HolderID    string    `json:"holder_id" db:"holder_id"`
	HolderName  string    `json:"holder_name" db:"holder_name"`
	HolderEmail string    `json:"holder_email" db:"holder_email"`
	Row         *int      `json:"row,omitempty" db:"row_number"`
	Col         *int      `json:"col,omitempty" db:"col_number"`
	Status      string    `json:"status" db:"status"`
	PaymentRef  *string   `json:"payment_ref,omitempty" db:"payment_ref"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// PaymentConfirmation is the externally verified payment fact consumed by
// the reconciliation handler. Reference is the provider-issued idempotency
// key: the same reference must never produce two disjoint ticket sets.
// Quantity is always explicit; it is never derived from Amount.
type PaymentConfirmation struct {
	Reference string
	EventID   string
	SectionID string
	Quantity  int
	Seats     []Seat
	Holder    Holder
	Amount    decimal.Decimal
}

// PaymentMetadata travels to the payment provider at initiation and comes
// back inside the verified transaction. It is the contract that makes the
// confirmation payload self-describing: quantity and seats are explicit.
type PaymentMetadata struct {
	EventID     string `json:"event_id"`
	SectionID   string `json:"section_id"`
	Quantity    int    `json:"quantity"`
	Seats       []Seat `json:"seats,omitempty"`
	HolderID    string `json:"holder_id"`
	HolderName  string `json:"holder_name"`
	HolderEmail string `json:"holder_email"`
}

// Reconciliation records a processed payment reference. The unique
// constraint on Reference is what collapses duplicate confirmation
// deliveries into a single effect.
type Reconciliation struct {
	ID        string    `json:"id" db:"id"`
	Reference string    `json:"reference" db:"reference"`
	EventID   string    `json:"event_id" db:"event_id"`
	SectionID string    `json:"section_id" db:"section_id"`
	Quantity  int       `json:"quantity" db:"quantity"`
	HolderID  string    `json:"holder_id" db:"holder_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ReconciliationFailure is an operator escalation: the provider verified a
// payment but no tickets could be issued (seats taken, capacity gone,
// amount mismatch). Money changed hands, so these are never dropped.
type ReconciliationFailure struct {
	ID        string    `json:"id" db:"id"`
	Reference string    `json:"reference" db:"reference"`
	EventID   string    `json:"event_id" db:"event_id"`
	SectionID string    `json:"section_id" db:"section_id"`
	Quantity  int       `json:"quantity" db:"quantity"`
	HolderID  string    `json:"holder_id" db:"holder_id"`
	Reason    string    `json:"reason" db:"reason"`
	Detail    string    `json:"detail" db:"detail"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// SectionAvailability is a read-model snapshot for the section listing
// endpoint. It is derived outside the booking transaction and therefore
// only advisory; the Coordinator re-checks inside the transaction.
type SectionAvailability struct {
	Section   Section `json:"section"`
	Sold      int     `json:"sold"`
	Remaining int     `json:"remaining"`
	Claimed   []Seat  `json:"claimed_seats,omitempty"`
}
