package repository

import (
	"context"
	"database/sql"

	"boxoffice/internal/database"
	"boxoffice/internal/service"
)

// Store is the postgres implementation of service.Store. All mutation goes
// through WithTx; the remaining methods are read paths executed outside the
// booking transaction.
type Store struct {
	db *database.DB
}

func NewStore(db *database.DB) *Store {
	return &Store{db: db}
}

// WithTx delegates to the database layer's serializable runner and hands
// the callback a transaction-scoped view of the store. The handle is
// acquired and released here on every exit path; callers never see *sql.Tx.
func (s *Store) WithTx(ctx context.Context, fn func(tx service.Tx) error) error {
	return s.db.WithTx(ctx, func(sqlTx *sql.Tx) error {
		return fn(&storeTx{tx: sqlTx})
	})
}

// storeTx implements service.Tx over one *sql.Tx.
type storeTx struct {
	tx *sql.Tx
}
