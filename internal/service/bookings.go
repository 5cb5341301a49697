package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	apperrors "boxoffice/internal/errors"
	"boxoffice/internal/logger"
	"boxoffice/internal/metrics"
	"boxoffice/internal/models"
)

// BookingService is the only writer of ticket state. Every admission
// decision it makes happens inside one storage transaction with the target
// section locked, so concurrent requests against a section behave as if
// applied one at a time.
type BookingService struct {
	store     Store
	publisher Publisher
}

func NewBookingService(store Store, publisher Publisher) *BookingService {
	return &BookingService{store: store, publisher: publisher}
}

// BookIntent is a validated booking request. Seats is empty for general
// admission; for reserved sections Quantity equals len(Seats). PaymentRef
// is set when the booking is driven by payment reconciliation.
type BookIntent struct {
	EventID    string
	SectionID  string
	Holder     models.Holder
	Quantity   int
	Seats      []models.Seat
	PaymentRef *string
}

func (in *BookIntent) validate() error {
	if in.EventID == "" || in.SectionID == "" {
		return fmt.Errorf("%w: event and section are required", apperrors.ErrInvalidRequest)
	}
	if in.Holder.ID == "" {
		return fmt.Errorf("%w: holder identity is required", apperrors.ErrInvalidRequest)
	}

	if len(in.Seats) > 0 {
		if in.Quantity != 0 && in.Quantity != len(in.Seats) {
			return fmt.Errorf("%w: quantity %d does not match %d requested seats",
				apperrors.ErrInvalidRequest, in.Quantity, len(in.Seats))
		}
		in.Quantity = len(in.Seats)

		seen := make(map[models.Seat]struct{}, len(in.Seats))
		for _, seat := range in.Seats {
			if seat.Row < 0 || seat.Col < 0 {
				return fmt.Errorf("%w: seat coordinates must be non-negative", apperrors.ErrInvalidRequest)
			}
			if _, dup := seen[seat]; dup {
				return fmt.Errorf("%w: seat %d-%d requested twice", apperrors.ErrInvalidRequest, seat.Row, seat.Col)
			}
			seen[seat] = struct{}{}
		}
		return nil
	}

	if in.Quantity < 1 {
		return fmt.Errorf("%w: quantity must be at least 1", apperrors.ErrInvalidRequest)
	}
	return nil
}

// Book atomically checks capacity (and, for reserved sections, seat
// availability) and creates the tickets, or fails with nothing created.
// CapacityExceeded and SeatTaken are final answers; the engine never
// substitutes seats.
func (s *BookingService) Book(ctx context.Context, intent BookIntent) ([]models.Ticket, error) {
	if err := intent.validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	var tickets []models.Ticket

	err := s.store.WithTx(ctx, func(tx Tx) error {
		section, err := tx.GetSectionForUpdate(ctx, intent.SectionID)
		if err != nil {
			return fmt.Errorf("failed to load section: %w", err)
		}
		if section == nil || section.EventID != intent.EventID {
			return fmt.Errorf("section %s: %w", intent.SectionID, apperrors.ErrNotFound)
		}

		tickets, err = s.bookLocked(ctx, tx, section, intent)
		return err
	})

	metrics.ObserveBooking(time.Since(start), err)
	if err != nil {
		return nil, err
	}

	s.publishBooked(ctx, intent, tickets)
	return tickets, nil
}

// bookLocked runs the admission checks and ticket inserts against a section
// already locked by the surrounding transaction. The reconciliation handler
// shares this path so direct and payment-confirmed bookings cannot diverge.
func (s *BookingService) bookLocked(ctx context.Context, tx Tx, section *models.Section, intent BookIntent) ([]models.Ticket, error) {
	if section.IsReserved {
		if len(intent.Seats) == 0 {
			return nil, fmt.Errorf("%w: section %s requires explicit seats", apperrors.ErrInvalidRequest, section.ID)
		}
		for _, seat := range intent.Seats {
			if seat.Row >= *section.GridRows || seat.Col >= *section.GridCols {
				return nil, fmt.Errorf("%w: seat %d-%d outside %dx%d grid",
					apperrors.ErrInvalidRequest, seat.Row, seat.Col, *section.GridRows, *section.GridCols)
			}
		}
	} else if len(intent.Seats) > 0 {
		return nil, fmt.Errorf("%w: section %s is general admission", apperrors.ErrInvalidRequest, section.ID)
	}

	sold, err := tx.CountPaidTickets(ctx, section.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count sold tickets: %w", err)
	}
	if sold+intent.Quantity > section.Capacity {
		return nil, fmt.Errorf("section %s has %d of %d sold: %w",
			section.ID, sold, section.Capacity, apperrors.ErrCapacityExceeded)
	}

	if section.IsReserved {
		conflict, err := tx.FirstSeatConflict(ctx, section.ID, intent.Seats)
		if err != nil {
			return nil, fmt.Errorf("failed to check seat conflicts: %w", err)
		}
		if conflict != nil {
			return nil, &apperrors.SeatTakenError{Row: conflict.Row, Col: conflict.Col}
		}
	}

	now := time.Now().UTC()
	tickets := make([]models.Ticket, 0, intent.Quantity)
	for i := 0; i < intent.Quantity; i++ {
		ticket := models.Ticket{
			ID:          uuid.New().String(),
			EventID:     section.EventID,
			SectionID:   section.ID,
			HolderID:    intent.Holder.ID,
			HolderName:  intent.Holder.Name,
			HolderEmail: intent.Holder.Email,
			Status:      models.TicketStatusPaid,
			PaymentRef:  intent.PaymentRef,
			CreatedAt:   now,
		}
		if section.IsReserved {
			seat := intent.Seats[i]
			row, col := seat.Row, seat.Col
			ticket.Row = &row
			ticket.Col = &col
		}
		if err := tx.InsertTicket(ctx, &ticket); err != nil {
			return nil, fmt.Errorf("failed to insert ticket: %w", err)
		}
		tickets = append(tickets, ticket)
	}

	return tickets, nil
}

// Cancel removes one ticket owned by the requester, atomically freeing its
// capacity slot and seat for the next booking. Cancelling an unknown or
// already-cancelled ticket yields NotFound.
func (s *BookingService) Cancel(ctx context.Context, ticketID, requesterID string) error {
	if ticketID == "" {
		return fmt.Errorf("%w: ticket id is required", apperrors.ErrInvalidRequest)
	}
	if requesterID == "" {
		return fmt.Errorf("%w: requester identity is required", apperrors.ErrInvalidRequest)
	}

	var cancelled models.Ticket

	err := s.store.WithTx(ctx, func(tx Tx) error {
		ticket, err := tx.GetTicketForUpdate(ctx, ticketID)
		if err != nil {
			return fmt.Errorf("failed to load ticket: %w", err)
		}
		if ticket == nil {
			return fmt.Errorf("ticket %s: %w", ticketID, apperrors.ErrNotFound)
		}
		if ticket.HolderID != requesterID {
			return fmt.Errorf("ticket %s: %w", ticketID, apperrors.ErrForbidden)
		}

		if err := tx.DeleteTicket(ctx, ticketID); err != nil {
			return fmt.Errorf("failed to delete ticket: %w", err)
		}
		cancelled = *ticket
		return nil
	})

	metrics.CountCancellation(err)
	if err != nil {
		return err
	}

	if s.publisher != nil {
		event := models.TicketCancelledEvent{
			TicketID:  cancelled.ID,
			EventID:   cancelled.EventID,
			SectionID: cancelled.SectionID,
			HolderID:  cancelled.HolderID,
			Timestamp: time.Now(),
		}
		if err := s.publisher.Publish(models.EventTicketCancelled, event); err != nil {
			logger.WithContext(ctx).Error("Failed to publish ticket cancelled event",
				"error", err,
				"ticket_id", cancelled.ID,
				"event_type", models.EventTicketCancelled)
		}
	}

	return nil
}

// ListTickets returns the requester's tickets.
func (s *BookingService) ListTickets(ctx context.Context, holderID string) ([]models.Ticket, error) {
	if holderID == "" {
		return nil, fmt.Errorf("%w: holder identity is required", apperrors.ErrInvalidRequest)
	}
	tickets, err := s.store.TicketsByHolder(ctx, holderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	return tickets, nil
}

func (s *BookingService) publishBooked(ctx context.Context, intent BookIntent, tickets []models.Ticket) {
	if s.publisher == nil {
		return
	}

	ids := make([]string, len(tickets))
	for i, t := range tickets {
		ids[i] = t.ID
	}

	event := models.TicketsBookedEvent{
		TicketIDs: ids,
		EventID:   intent.EventID,
		SectionID: intent.SectionID,
		HolderID:  intent.Holder.ID,
		Quantity:  len(tickets),
		Timestamp: time.Now(),
	}
	if err := s.publisher.Publish(models.EventTicketsBooked, event); err != nil {
		logger.WithContext(ctx).Error("Failed to publish tickets booked event",
			"error", err,
			"section_id", intent.SectionID,
			"event_type", models.EventTicketsBooked)
	}
}
