package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for the booking and reconciliation engine. Services wrap
// these with fmt.Errorf("...: %w", err); the HTTP layer maps them to status
// codes and callers branch with errors.Is.
var (
	// ErrNotFound - unknown event, section or ticket. Not retryable.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidRequest - malformed seat list, out-of-bounds coordinates,
	// duplicate seats within one request. Client bug, not retryable.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrCapacityExceeded - the section has no room for the requested
	// quantity. A final answer for the request, never retried.
	ErrCapacityExceeded = errors.New("section capacity exceeded")

	// ErrSeatTaken is the matching target for SeatTakenError values.
	ErrSeatTaken = errors.New("seat already taken")

	// ErrForbidden - the requester does not own the ticket.
	ErrForbidden = errors.New("operation is forbidden for user")

	// ErrAmountMismatch - the verified payment amount does not cover the
	// requested tickets. Escalated like any post-payment rejection.
	ErrAmountMismatch = errors.New("verified amount mismatch")

	// ErrTransient - store-level contention or timeout after the bounded
	// retry budget. Nothing partial was committed; the whole operation is
	// safe to retry.
	ErrTransient = errors.New("transient store error")

	// ErrAlreadyProcessed - the payment reference was reconciled before.
	// Not a failure: callers receive the originally issued tickets.
	ErrAlreadyProcessed = errors.New("payment reference already processed")
)

// SeatTakenError reports the first conflicting seat of a reserved-section
// booking. The whole request fails; no seats are claimed.
type SeatTakenError struct {
	Row int
	Col int
}

func (e *SeatTakenError) Error() string {
	return fmt.Sprintf("seat %d-%d is already taken", e.Row, e.Col)
}

// Is lets errors.Is(err, ErrSeatTaken) match wrapped SeatTakenError values.
func (e *SeatTakenError) Is(target error) bool {
	return target == ErrSeatTaken
}
