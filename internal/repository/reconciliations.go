package repository

import (
	"context"
	"database/sql"
	"fmt"

	"boxoffice/internal/database"
	apperrors "boxoffice/internal/errors"
	"boxoffice/internal/models"
)

// reconciliationReferenceConstraint backs the idempotency contract: one
// ticket set per payment reference, ever.
const reconciliationReferenceConstraint = "payment_reconciliations_reference_key"

func (t *storeTx) GetReconciliation(ctx context.Context, reference string) (*models.Reconciliation, error) {
	query := `
		SELECT id, reference, event_id, section_id, quantity, holder_id, created_at
		FROM payment_reconciliations
		WHERE reference = $1`

	rec := &models.Reconciliation{}
	err := t.tx.QueryRowContext(ctx, query, reference).Scan(
		&rec.ID,
		&rec.Reference,
		&rec.EventID,
		&rec.SectionID,
		&rec.Quantity,
		&rec.HolderID,
		&rec.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (t *storeTx) InsertReconciliation(ctx context.Context, rec *models.Reconciliation) error {
	query := `
		INSERT INTO payment_reconciliations (id, reference, event_id, section_id, quantity, holder_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := t.tx.ExecContext(ctx, query,
		rec.ID,
		rec.Reference,
		rec.EventID,
		rec.SectionID,
		rec.Quantity,
		rec.HolderID,
		rec.CreatedAt,
	)
	if database.IsUniqueViolation(err, reconciliationReferenceConstraint) {
		return fmt.Errorf("reference %s: %w", rec.Reference, apperrors.ErrAlreadyProcessed)
	}
	return err
}

func (s *Store) InsertReconciliationFailure(ctx context.Context, failure *models.ReconciliationFailure) error {
	query := `
		INSERT INTO reconciliation_failures (id, reference, event_id, section_id, quantity, holder_id, reason, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := s.db.ExecContext(ctx, query,
		failure.ID,
		failure.Reference,
		failure.EventID,
		failure.SectionID,
		failure.Quantity,
		failure.HolderID,
		failure.Reason,
		failure.Detail,
		failure.CreatedAt,
	)
	return err
}
