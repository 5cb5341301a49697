package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	apperrors "boxoffice/internal/errors"
)

// Postgres SQLSTATE codes this package cares about.
const (
	sqlstateSerializationFailure = "40001"
	sqlstateDeadlockDetected     = "40P01"
	sqlstateUniqueViolation      = "23505"
)

const (
	txMaxAttempts = 3
	txBackoff     = 25 * time.Millisecond
)

// WithTx runs fn inside a serializable transaction. Commit and rollback are
// all-or-nothing: if fn returns an error or the commit fails, no statement
// issued through the transaction is visible to anyone.
//
// Serialization failures and deadlocks are retried up to txMaxAttempts with
// a fresh transaction each time; that is safe precisely because nothing
// committed. After the budget is spent the error is surfaced as
// apperrors.ErrTransient. Business errors from fn are returned as-is and
// never retried.
func (db *DB) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	var lastErr error

	for attempt := 1; attempt <= txMaxAttempts; attempt++ {
		err := db.runTx(ctx, fn)
		if err == nil {
			return nil
		}
		if !IsSerializationFailure(err) {
			return err
		}

		lastErr = err
		if attempt < txMaxAttempts {
			slog.Warn("Serialization conflict, retrying transaction",
				"attempt", attempt, "max_attempts", txMaxAttempts, "error", err)
			select {
			case <-time.After(time.Duration(attempt) * txBackoff):
			case <-ctx.Done():
				return fmt.Errorf("%w: %v", apperrors.ErrTransient, ctx.Err())
			}
		}
	}

	return fmt.Errorf("%w: transaction failed after %d attempts: %v",
		apperrors.ErrTransient, txMaxAttempts, lastErr)
}

func (db *DB) runTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// IsSerializationFailure reports whether err is a store-level conflict that
// is provably transient (SQLSTATE 40001/40P01).
func IsSerializationFailure(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		code := string(pqErr.Code)
		return code == sqlstateSerializationFailure || code == sqlstateDeadlockDetected
	}
	return false
}

// IsUniqueViolation reports whether err is a unique-constraint violation on
// the named constraint. An empty constraint matches any unique violation.
func IsUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	if string(pqErr.Code) != sqlstateUniqueViolation {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}
