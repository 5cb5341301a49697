package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	apperrors "boxoffice/internal/errors"
	"boxoffice/internal/logger"
	"boxoffice/internal/metrics"
	"boxoffice/internal/models"
)

// Failure reasons recorded for operator follow-up.
const (
	FailureReasonCapacity = "CAPACITY_EXCEEDED"
	FailureReasonSeat     = "SEAT_TAKEN"
	FailureReasonAmount   = "AMOUNT_MISMATCH"
	FailureReasonRequest  = "INVALID_REQUEST"
)

// PaymentService converts externally verified payments into committed
// tickets, exactly once per payment reference. It also owns the initiation
// path: free bookings go straight to the Coordinator, paid ones to the
// provider with self-describing metadata.
type PaymentService struct {
	store     Store
	publisher Publisher
	bookings  *BookingService
	gateway   PaymentGateway
}

func NewPaymentService(store Store, publisher Publisher, bookings *BookingService, gateway PaymentGateway) *PaymentService {
	return &PaymentService{store: store, publisher: publisher, bookings: bookings, gateway: gateway}
}

// InitiateResult is either a redirect to the provider or, for free
// sections, the tickets booked directly.
type InitiateResult struct {
	AuthorizationURL string
	Tickets          []models.Ticket
}

// Initiate starts the purchase. The engine does not move money itself: for
// a non-zero total it hands the provider the amount and the metadata later
// consumed by Reconcile, and the booking happens only when the verified
// payment comes back.
func (s *PaymentService) Initiate(ctx context.Context, intent BookIntent) (*InitiateResult, error) {
	if err := intent.validate(); err != nil {
		return nil, err
	}

	section, err := s.store.GetSection(ctx, intent.SectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load section: %w", err)
	}
	if section == nil || section.EventID != intent.EventID {
		return nil, fmt.Errorf("section %s: %w", intent.SectionID, apperrors.ErrNotFound)
	}

	total := section.Price.Mul(decimal.NewFromInt(int64(intent.Quantity)))
	if total.IsZero() {
		tickets, err := s.bookings.Book(ctx, intent)
		if err != nil {
			return nil, err
		}
		return &InitiateResult{Tickets: tickets}, nil
	}

	if s.gateway == nil {
		return nil, fmt.Errorf("payment gateway is not configured")
	}

	meta := models.PaymentMetadata{
		EventID:     intent.EventID,
		SectionID:   intent.SectionID,
		Quantity:    intent.Quantity,
		Seats:       intent.Seats,
		HolderID:    intent.Holder.ID,
		HolderName:  intent.Holder.Name,
		HolderEmail: intent.Holder.Email,
	}

	authURL, err := s.gateway.Initialize(ctx, intent.Holder.Email, total, meta)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize payment: %w", err)
	}
	return &InitiateResult{AuthorizationURL: authURL}, nil
}

// HandleCallback verifies the provider reference and reconciles it. The
// HTTP delivery may repeat; Reconcile collapses the duplicates.
func (s *PaymentService) HandleCallback(ctx context.Context, reference string) (*ReconcileResult, error) {
	if reference == "" {
		return nil, fmt.Errorf("%w: payment reference is required", apperrors.ErrInvalidRequest)
	}
	if s.gateway == nil {
		return nil, fmt.Errorf("payment gateway is not configured")
	}

	conf, err := s.gateway.Verify(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("failed to verify payment %s: %w", reference, err)
	}

	return s.Reconcile(ctx, *conf)
}

// ReconcileResult carries the ticket set of the logical payment. When the
// reference had been processed before, AlreadyProcessed is true and Tickets
// holds the originally issued set.
type ReconcileResult struct {
	Tickets          []models.Ticket
	AlreadyProcessed bool
}

// Reconcile drives the Coordinator for a verified payment. The idempotency
// check, the reconciliation record and the ticket inserts share one
// transaction with the section row locked, so two concurrent deliveries of
// the same reference cannot both pass the not-yet-processed check.
//
// A business rejection after a verified payment (seats taken, capacity
// gone, amount mismatch) is recorded as a reconciliation failure and
// surfaced to the caller; retrying will not free the seats.
func (s *PaymentService) Reconcile(ctx context.Context, conf models.PaymentConfirmation) (*ReconcileResult, error) {
	if conf.Reference == "" {
		return nil, fmt.Errorf("%w: payment reference is required", apperrors.ErrInvalidRequest)
	}

	intent := BookIntent{
		EventID:    conf.EventID,
		SectionID:  conf.SectionID,
		Holder:     conf.Holder,
		Quantity:   conf.Quantity,
		Seats:      conf.Seats,
		PaymentRef: &conf.Reference,
	}
	if err := intent.validate(); err != nil {
		// Money already moved; even a malformed confirmation is escalated.
		metrics.CountReconciliation(err)
		s.recordFailure(ctx, conf, conf.Quantity, err)
		return nil, err
	}

	var result ReconcileResult

	err := s.store.WithTx(ctx, func(tx Tx) error {
		section, err := tx.GetSectionForUpdate(ctx, conf.SectionID)
		if err != nil {
			return fmt.Errorf("failed to load section: %w", err)
		}
		if section == nil || section.EventID != conf.EventID {
			return fmt.Errorf("section %s: %w", conf.SectionID, apperrors.ErrNotFound)
		}

		// The section lock serializes same-reference deliveries; by the
		// time a duplicate gets here, the first delivery has committed.
		existing, err := tx.GetReconciliation(ctx, conf.Reference)
		if err != nil {
			return fmt.Errorf("failed to check payment reference: %w", err)
		}
		if existing != nil {
			tickets, err := tx.TicketsByPaymentRef(ctx, conf.Reference)
			if err != nil {
				return fmt.Errorf("failed to load reconciled tickets: %w", err)
			}
			result = ReconcileResult{Tickets: tickets, AlreadyProcessed: true}
			return nil
		}

		expected := section.Price.Mul(decimal.NewFromInt(int64(intent.Quantity)))
		if !conf.Amount.Equal(expected) {
			return fmt.Errorf("%w: got %s, expected %s",
				apperrors.ErrAmountMismatch, conf.Amount, expected)
		}

		rec := models.Reconciliation{
			ID:        uuid.New().String(),
			Reference: conf.Reference,
			EventID:   conf.EventID,
			SectionID: conf.SectionID,
			Quantity:  intent.Quantity,
			HolderID:  conf.Holder.ID,
			CreatedAt: time.Now().UTC(),
		}
		if err := tx.InsertReconciliation(ctx, &rec); err != nil {
			return fmt.Errorf("failed to record payment reference: %w", err)
		}

		tickets, err := s.bookings.bookLocked(ctx, tx, section, intent)
		if err != nil {
			return err
		}
		result = ReconcileResult{Tickets: tickets}
		return nil
	})

	metrics.CountReconciliation(err)

	switch {
	case err == nil:
	case errors.Is(err, apperrors.ErrAlreadyProcessed):
		// Unique-constraint backstop fired under a concurrent delivery that
		// slipped past the section lock. The winner committed; return its tickets.
		tickets, readErr := s.store.TicketsByPaymentRef(ctx, conf.Reference)
		if readErr != nil {
			return nil, fmt.Errorf("failed to load reconciled tickets: %w", readErr)
		}
		result = ReconcileResult{Tickets: tickets, AlreadyProcessed: true}
	case errors.Is(err, apperrors.ErrCapacityExceeded),
		errors.Is(err, apperrors.ErrSeatTaken),
		errors.Is(err, apperrors.ErrAmountMismatch),
		errors.Is(err, apperrors.ErrInvalidRequest):
		s.recordFailure(ctx, conf, intent.Quantity, err)
		return nil, err
	default:
		return nil, err
	}

	if !result.AlreadyProcessed && s.publisher != nil {
		ids := make([]string, len(result.Tickets))
		for i, t := range result.Tickets {
			ids[i] = t.ID
		}
		event := models.PaymentReconciledEvent{
			Reference: conf.Reference,
			TicketIDs: ids,
			EventID:   conf.EventID,
			SectionID: conf.SectionID,
			Timestamp: time.Now(),
		}
		if err := s.publisher.Publish(models.EventPaymentReconciled, event); err != nil {
			logger.WithContext(ctx).Error("Failed to publish payment reconciled event",
				"error", err,
				"reference", conf.Reference,
				"event_type", models.EventPaymentReconciled)
		}
	}

	return &result, nil
}

// recordFailure persists the escalation and notifies consumers. The payment
// was verified but no tickets were issued; this must reach an operator even
// if the message broker is down, hence the durable row first.
func (s *PaymentService) recordFailure(ctx context.Context, conf models.PaymentConfirmation, quantity int, cause error) {
	failure := models.ReconciliationFailure{
		ID:        uuid.New().String(),
		Reference: conf.Reference,
		EventID:   conf.EventID,
		SectionID: conf.SectionID,
		Quantity:  quantity,
		HolderID:  conf.Holder.ID,
		Reason:    failureReason(cause),
		Detail:    cause.Error(),
		CreatedAt: time.Now().UTC(),
	}

	if err := s.store.InsertReconciliationFailure(ctx, &failure); err != nil {
		logger.WithContext(ctx).Error("Failed to record reconciliation failure",
			"error", err,
			"reference", conf.Reference,
			"reason", failure.Reason)
	}

	if s.publisher != nil {
		event := models.ReconciliationFailedEvent{
			Reference: conf.Reference,
			EventID:   conf.EventID,
			SectionID: conf.SectionID,
			Quantity:  quantity,
			Reason:    failure.Reason,
			Timestamp: time.Now(),
		}
		if err := s.publisher.Publish(models.EventReconciliationFailed, event); err != nil {
			logger.WithContext(ctx).Error("Failed to publish reconciliation failed event",
				"error", err,
				"reference", conf.Reference,
				"event_type", models.EventReconciliationFailed)
		}
	}
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrCapacityExceeded):
		return FailureReasonCapacity
	case errors.Is(err, apperrors.ErrSeatTaken):
		return FailureReasonSeat
	case errors.Is(err, apperrors.ErrAmountMismatch):
		return FailureReasonAmount
	default:
		return FailureReasonRequest
	}
}
