package handlers

import (
	"context"
	"sync"

	apperrors "boxoffice/internal/errors"
	"boxoffice/internal/models"
	"boxoffice/internal/service"
)

// memStore is a minimal in-memory service.Store for driving the HTTP layer
// end to end without postgres.
type memStore struct {
	mu              sync.Mutex
	events          map[string]models.Event
	sections        map[string]models.Section
	tickets         map[string]models.Ticket
	reconciliations map[string]models.Reconciliation
	failures        []models.ReconciliationFailure
}

func newMemStore() *memStore {
	return &memStore{
		events:          make(map[string]models.Event),
		sections:        make(map[string]models.Section),
		tickets:         make(map[string]models.Ticket),
		reconciliations: make(map[string]models.Reconciliation),
	}
}

func (m *memStore) WithTx(ctx context.Context, fn func(tx service.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	savedTickets := make(map[string]models.Ticket, len(m.tickets))
	for id, t := range m.tickets {
		savedTickets[id] = t
	}
	savedRecs := make(map[string]models.Reconciliation, len(m.reconciliations))
	for ref, r := range m.reconciliations {
		savedRecs[ref] = r
	}

	if err := fn(&memTx{store: m}); err != nil {
		m.tickets = savedTickets
		m.reconciliations = savedRecs
		return err
	}
	return nil
}

func (m *memStore) GetEvent(ctx context.Context, eventID string) (*models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if event, ok := m.events[eventID]; ok {
		return &event, nil
	}
	return nil, nil
}

func (m *memStore) ListEvents(ctx context.Context, page, pageSize int) ([]models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	events := make([]models.Event, 0, len(m.events))
	for _, event := range m.events {
		events = append(events, event)
	}
	return events, nil
}

func (m *memStore) GetSection(ctx context.Context, sectionID string) (*models.Section, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if section, ok := m.sections[sectionID]; ok {
		return &section, nil
	}
	return nil, nil
}

func (m *memStore) ListSections(ctx context.Context, eventID string) ([]models.Section, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sections []models.Section
	for _, section := range m.sections {
		if section.EventID == eventID {
			sections = append(sections, section)
		}
	}
	return sections, nil
}

func (m *memStore) CountPaidTickets(ctx context.Context, sectionID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.countPaidLocked(sectionID), nil
}

func (m *memStore) ClaimedSeats(ctx context.Context, sectionID string) ([]models.Seat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var seats []models.Seat
	for _, t := range m.tickets {
		if t.SectionID == sectionID && t.Status == models.TicketStatusPaid && t.Row != nil {
			seats = append(seats, models.Seat{Row: *t.Row, Col: *t.Col})
		}
	}
	return seats, nil
}

func (m *memStore) TicketsByHolder(ctx context.Context, holderID string) ([]models.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var tickets []models.Ticket
	for _, t := range m.tickets {
		if t.HolderID == holderID {
			tickets = append(tickets, t)
		}
	}
	return tickets, nil
}

func (m *memStore) TicketsByPaymentRef(ctx context.Context, reference string) ([]models.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ticketsByRefLocked(reference), nil
}

func (m *memStore) InsertReconciliationFailure(ctx context.Context, failure *models.ReconciliationFailure) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = append(m.failures, *failure)
	return nil
}

func (m *memStore) countPaidLocked(sectionID string) int {
	count := 0
	for _, t := range m.tickets {
		if t.SectionID == sectionID && t.Status == models.TicketStatusPaid {
			count++
		}
	}
	return count
}

func (m *memStore) ticketsByRefLocked(reference string) []models.Ticket {
	var tickets []models.Ticket
	for _, t := range m.tickets {
		if t.PaymentRef != nil && *t.PaymentRef == reference {
			tickets = append(tickets, t)
		}
	}
	return tickets
}

type memTx struct {
	store *memStore
}

func (tx *memTx) GetSectionForUpdate(ctx context.Context, sectionID string) (*models.Section, error) {
	if section, ok := tx.store.sections[sectionID]; ok {
		return &section, nil
	}
	return nil, nil
}

func (tx *memTx) CountPaidTickets(ctx context.Context, sectionID string) (int, error) {
	return tx.store.countPaidLocked(sectionID), nil
}

func (tx *memTx) FirstSeatConflict(ctx context.Context, sectionID string, seats []models.Seat) (*models.Seat, error) {
	claimed := make(map[models.Seat]bool)
	for _, t := range tx.store.tickets {
		if t.SectionID == sectionID && t.Status == models.TicketStatusPaid && t.Row != nil {
			claimed[models.Seat{Row: *t.Row, Col: *t.Col}] = true
		}
	}
	for _, seat := range seats {
		if claimed[seat] {
			s := seat
			return &s, nil
		}
	}
	return nil, nil
}

func (tx *memTx) InsertTicket(ctx context.Context, ticket *models.Ticket) error {
	tx.store.tickets[ticket.ID] = *ticket
	return nil
}

func (tx *memTx) GetTicketForUpdate(ctx context.Context, ticketID string) (*models.Ticket, error) {
	if ticket, ok := tx.store.tickets[ticketID]; ok {
		return &ticket, nil
	}
	return nil, nil
}

func (tx *memTx) DeleteTicket(ctx context.Context, ticketID string) error {
	delete(tx.store.tickets, ticketID)
	return nil
}

func (tx *memTx) GetReconciliation(ctx context.Context, reference string) (*models.Reconciliation, error) {
	if rec, ok := tx.store.reconciliations[reference]; ok {
		return &rec, nil
	}
	return nil, nil
}

func (tx *memTx) InsertReconciliation(ctx context.Context, rec *models.Reconciliation) error {
	if _, exists := tx.store.reconciliations[rec.Reference]; exists {
		return apperrors.ErrAlreadyProcessed
	}
	tx.store.reconciliations[rec.Reference] = *rec
	return nil
}

func (tx *memTx) TicketsByPaymentRef(ctx context.Context, reference string) ([]models.Ticket, error) {
	return tx.store.ticketsByRefLocked(reference), nil
}
