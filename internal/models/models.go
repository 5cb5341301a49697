package models

// SeatRequest is a client-supplied seat selection. Row and Col are pointers
// so a pair with a missing coordinate can be told apart from seat (0, 0)
// and rejected instead of silently defaulting.
type SeatRequest struct {
	Row *int `json:"row"`
	Col *int `json:"col"`
}

// BookTicketsRequest - POST /api/bookings
// Seats must be present for reserved sections; Quantity for general
// admission. Supplying both (or neither) is rejected by the service.
type BookTicketsRequest struct {
	EventID   string        `json:"event_id" binding:"required"`
	SectionID string        `json:"section_id" binding:"required"`
	Quantity  int           `json:"quantity"`
	Seats     []SeatRequest `json:"seats"`
}

// BookTicketsResponse - created ticket identifiers
type BookTicketsResponse struct {
	TicketIDs []string `json:"ticket_ids"`
}

// InitiatePaymentRequest - POST /api/payments/initiate
type InitiatePaymentRequest struct {
	EventID   string        `json:"event_id" binding:"required"`
	SectionID string        `json:"section_id" binding:"required"`
	Quantity  int           `json:"quantity"`
	Seats     []SeatRequest `json:"seats"`
}

// InitiatePaymentResponse - either the gateway authorization URL or, for
// free sections, the tickets booked directly.
type InitiatePaymentResponse struct {
	AuthorizationURL string   `json:"authorization_url,omitempty"`
	TicketIDs        []string `json:"ticket_ids,omitempty"`
}

// ReconcileResponse - GET /api/payments/callback
type ReconcileResponse struct {
	Reference        string   `json:"reference"`
	TicketIDs        []string `json:"ticket_ids"`
	AlreadyProcessed bool     `json:"already_processed"`
}

// ListEventsResponseItem - element of the event catalog listing
type ListEventsResponseItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Date     string `json:"date"`
	Location string `json:"location"`
}

// ListEventsResponse - event catalog listing
type ListEventsResponse []ListEventsResponseItem
