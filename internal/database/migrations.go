package database

import (
	"fmt"
	"log/slog"
)

func (db *DB) RunMigrations() error {
	slog.Info("Running database migrations...")

	migrations := []string{
		createEventsTable,
		createSectionsTable,
		createTicketsTable,
		createTicketsSeatIndex,
		createTicketsHolderIndex,
		createReconciliationsTable,
		createReconciliationFailuresTable,
	}

	for i, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	slog.Info("All migrations completed successfully")
	return nil
}

const createEventsTable = `
CREATE TABLE IF NOT EXISTS events (
    id UUID PRIMARY KEY,
    organizer_id VARCHAR(255) NOT NULL,
    name VARCHAR(500) NOT NULL,
    description TEXT,
    date TIMESTAMP NOT NULL,
    location VARCHAR(500) NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT NOW()
);`

// capacity == grid_rows*grid_cols is enforced for reserved sections; the
// grid is fixed at creation and not separately adjustable.
const createSectionsTable = `
CREATE TABLE IF NOT EXISTS sections (
    id UUID PRIMARY KEY,
    event_id UUID NOT NULL REFERENCES events(id) ON DELETE CASCADE,
    name VARCHAR(255) NOT NULL,
    price DECIMAL(12,2) NOT NULL DEFAULT 0,
    capacity INTEGER NOT NULL CHECK (capacity >= 1),
    is_reserved BOOLEAN NOT NULL DEFAULT FALSE,
    grid_rows INTEGER,
    grid_cols INTEGER,

    CHECK (NOT is_reserved OR (grid_rows > 0 AND grid_cols > 0 AND capacity = grid_rows * grid_cols)),
    CHECK (is_reserved OR (grid_rows IS NULL AND grid_cols IS NULL))
);`

const createTicketsTable = `
CREATE TABLE IF NOT EXISTS tickets (
    id UUID PRIMARY KEY,
    event_id UUID NOT NULL REFERENCES events(id) ON DELETE CASCADE,
    section_id UUID NOT NULL REFERENCES sections(id) ON DELETE CASCADE,
    holder_id VARCHAR(255) NOT NULL,
    holder_name VARCHAR(255) NOT NULL,
    holder_email VARCHAR(255) NOT NULL,
    row_number INTEGER,
    col_number INTEGER,
    status VARCHAR(20) NOT NULL DEFAULT 'PAID',
    payment_ref VARCHAR(255),
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),

    CHECK (status IN ('PAID', 'PENDING', 'CANCELLED')),
    CHECK ((row_number IS NULL) = (col_number IS NULL))
);`

// Storage-level backstop for seat exclusivity. The Coordinator's locked
// conflict scan is the primary guard; this index makes a double claim
// impossible even if a future caller bypasses it.
const createTicketsSeatIndex = `
CREATE UNIQUE INDEX IF NOT EXISTS tickets_section_seat_idx
ON tickets (section_id, row_number, col_number)
WHERE row_number IS NOT NULL AND status = 'PAID';`

const createTicketsHolderIndex = `
CREATE INDEX IF NOT EXISTS tickets_holder_idx ON tickets (holder_id);`

// reference UNIQUE is the idempotency barrier: two concurrent deliveries of
// the same confirmation cannot both insert their reconciliation row, so at
// most one ticket set per reference ever commits.
const createReconciliationsTable = `
CREATE TABLE IF NOT EXISTS payment_reconciliations (
    id UUID PRIMARY KEY,
    reference VARCHAR(255) NOT NULL,
    event_id UUID NOT NULL,
    section_id UUID NOT NULL,
    quantity INTEGER NOT NULL,
    holder_id VARCHAR(255) NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),

    CONSTRAINT payment_reconciliations_reference_key UNIQUE (reference)
);`

const createReconciliationFailuresTable = `
CREATE TABLE IF NOT EXISTS reconciliation_failures (
    id UUID PRIMARY KEY,
    reference VARCHAR(255) NOT NULL,
    event_id UUID NOT NULL,
    section_id UUID NOT NULL,
    quantity INTEGER NOT NULL,
    holder_id VARCHAR(255) NOT NULL,
    reason VARCHAR(50) NOT NULL,
    detail TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL DEFAULT NOW()
);`
