package service

import (
	"context"
	"sync"

	apperrors "boxoffice/internal/errors"
	"boxoffice/internal/models"
)

// fakeStore is an in-memory Store. WithTx runs callbacks under one mutex,
// which gives the same serializability the postgres implementation gets from
// section locks, and restores a snapshot when the callback fails so aborted
// transactions leave no trace.
type fakeStore struct {
	mu              sync.Mutex
	events          map[string]models.Event
	sections        map[string]models.Section
	tickets         map[string]models.Ticket
	reconciliations map[string]models.Reconciliation
	failures        []models.ReconciliationFailure
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		events:          make(map[string]models.Event),
		sections:        make(map[string]models.Section),
		tickets:         make(map[string]models.Ticket),
		reconciliations: make(map[string]models.Reconciliation),
	}
}

func (f *fakeStore) addEvent(event models.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events[event.ID] = event
}

func (f *fakeStore) addSection(section models.Section) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sections[section.ID] = section
}

func (f *fakeStore) ticketCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tickets)
}

func (f *fakeStore) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	savedTickets := make(map[string]models.Ticket, len(f.tickets))
	for id, t := range f.tickets {
		savedTickets[id] = t
	}
	savedRecs := make(map[string]models.Reconciliation, len(f.reconciliations))
	for ref, r := range f.reconciliations {
		savedRecs[ref] = r
	}

	if err := fn(&fakeTx{store: f}); err != nil {
		f.tickets = savedTickets
		f.reconciliations = savedRecs
		return err
	}
	return nil
}

func (f *fakeStore) GetEvent(ctx context.Context, eventID string) (*models.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if event, ok := f.events[eventID]; ok {
		return &event, nil
	}
	return nil, nil
}

func (f *fakeStore) ListEvents(ctx context.Context, page, pageSize int) ([]models.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	events := make([]models.Event, 0, len(f.events))
	for _, event := range f.events {
		events = append(events, event)
	}
	return events, nil
}

func (f *fakeStore) GetSection(ctx context.Context, sectionID string) (*models.Section, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if section, ok := f.sections[sectionID]; ok {
		return &section, nil
	}
	return nil, nil
}

func (f *fakeStore) ListSections(ctx context.Context, eventID string) ([]models.Section, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var sections []models.Section
	for _, section := range f.sections {
		if section.EventID == eventID {
			sections = append(sections, section)
		}
	}
	return sections, nil
}

func (f *fakeStore) CountPaidTickets(ctx context.Context, sectionID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.countPaidLocked(sectionID), nil
}

func (f *fakeStore) ClaimedSeats(ctx context.Context, sectionID string) ([]models.Seat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var seats []models.Seat
	for _, t := range f.tickets {
		if t.SectionID == sectionID && t.Status == models.TicketStatusPaid && t.Row != nil {
			seats = append(seats, models.Seat{Row: *t.Row, Col: *t.Col})
		}
	}
	return seats, nil
}

func (f *fakeStore) TicketsByHolder(ctx context.Context, holderID string) ([]models.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var tickets []models.Ticket
	for _, t := range f.tickets {
		if t.HolderID == holderID {
			tickets = append(tickets, t)
		}
	}
	return tickets, nil
}

func (f *fakeStore) TicketsByPaymentRef(ctx context.Context, reference string) ([]models.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ticketsByRefLocked(reference), nil
}

func (f *fakeStore) InsertReconciliationFailure(ctx context.Context, failure *models.ReconciliationFailure) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures = append(f.failures, *failure)
	return nil
}

func (f *fakeStore) countPaidLocked(sectionID string) int {
	count := 0
	for _, t := range f.tickets {
		if t.SectionID == sectionID && t.Status == models.TicketStatusPaid {
			count++
		}
	}
	return count
}

func (f *fakeStore) ticketsByRefLocked(reference string) []models.Ticket {
	var tickets []models.Ticket
	for _, t := range f.tickets {
		if t.PaymentRef != nil && *t.PaymentRef == reference {
			tickets = append(tickets, t)
		}
	}
	return tickets
}

// fakeTx operates on the store directly; WithTx already holds the mutex.
type fakeTx struct {
	store *fakeStore
}

func (tx *fakeTx) GetSectionForUpdate(ctx context.Context, sectionID string) (*models.Section, error) {
	if section, ok := tx.store.sections[sectionID]; ok {
		return &section, nil
	}
	return nil, nil
}

func (tx *fakeTx) CountPaidTickets(ctx context.Context, sectionID string) (int, error) {
	return tx.store.countPaidLocked(sectionID), nil
}

func (tx *fakeTx) FirstSeatConflict(ctx context.Context, sectionID string, seats []models.Seat) (*models.Seat, error) {
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

func (tx *fakeTx) InsertTicket(ctx context.Context, ticket *models.Ticket) error {
	tx.store.tickets[ticket.ID] = *ticket
	return nil
}

func (tx *fakeTx) GetTicketForUpdate(ctx context.Context, ticketID string) (*models.Ticket, error) {
	if ticket, ok := tx.store.tickets[ticketID]; ok {
		return &ticket, nil
	}
	return nil, nil
}

func (tx *fakeTx) DeleteTicket(ctx context.Context, ticketID string) error {
	delete(tx.store.tickets, ticketID)
	return nil
}

func (tx *fakeTx) GetReconciliation(ctx context.Context, reference string) (*models.Reconciliation, error) {
	if rec, ok := tx.store.reconciliations[reference]; ok {
		return &rec, nil
	}
	return nil, nil
}

func (tx *fakeTx) InsertReconciliation(ctx context.Context, rec *models.Reconciliation) error {
	if _, exists := tx.store.reconciliations[rec.Reference]; exists {
		return apperrors.ErrAlreadyProcessed
	}
	tx.store.reconciliations[rec.Reference] = *rec
	return nil
}

func (tx *fakeTx) TicketsByPaymentRef(ctx context.Context, reference string) ([]models.Ticket, error) {
	return tx.store.ticketsByRefLocked(reference), nil
}

// fakePublisher records published messages.
type fakePublisher struct {
	mu       sync.Mutex
	subjects []string
	payloads []interface{}
}

func (p *fakePublisher) Publish(subject string, data interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subject)
	p.payloads = append(p.payloads, data)
	return nil
}

func (p *fakePublisher) published(subject string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	count := 0
	for _, s := range p.subjects {
		if s == subject {
			count++
		}
	}
	return count
}
