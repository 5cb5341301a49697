package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"boxoffice/internal/models"
)

const ticketColumns = `id, event_id, section_id, holder_id, holder_name, holder_email,
	       row_number, col_number, status, payment_ref, created_at`

func (t *storeTx) CountPaidTickets(ctx context.Context, sectionID string) (int, error) {
	return countPaidTickets(ctx, t.tx, sectionID)
}

func (s *Store) CountPaidTickets(ctx context.Context, sectionID string) (int, error) {
	return countPaidTickets(ctx, s.db, sectionID)
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

func countPaidTickets(ctx context.Context, q querier, sectionID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM tickets WHERE section_id = $1 AND status = 'PAID'`
	err := q.QueryRowContext(ctx, query, sectionID).Scan(&count)
	return count, err
}

// FirstSeatConflict scans the requested seats against PAID tickets of the
// section in one round trip using a row-value IN list.
func (t *storeTx) FirstSeatConflict(ctx context.Context, sectionID string, seats []models.Seat) (*models.Seat, error) {
	if len(seats) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(seats))
	args := make([]interface{}, 0, len(seats)*2+1)
	args = append(args, sectionID)
	for i, seat := range seats {
		placeholders[i] = fmt.Sprintf("($%d, $%d)", len(args)+1, len(args)+2)
		args = append(args, seat.Row, seat.Col)
	}

	query := fmt.Sprintf(`
		SELECT row_number, col_number
		FROM tickets
		WHERE section_id = $1 AND status = 'PAID'
		  AND (row_number, col_number) IN (%s)
		ORDER BY row_number, col_number
		LIMIT 1`, strings.Join(placeholders, ", "))

	seat := &models.Seat{}
	err := t.tx.QueryRowContext(ctx, query, args...).Scan(&seat.Row, &seat.Col)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return seat, nil
}

func (t *storeTx) InsertTicket(ctx context.Context, ticket *models.Ticket) error {
	query := `
		INSERT INTO tickets (id, event_id, section_id, holder_id, holder_name, holder_email,
		                     row_number, col_number, status, payment_ref, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := t.tx.ExecContext(ctx, query,
		ticket.ID,
		ticket.EventID,
		ticket.SectionID,
		ticket.HolderID,
		ticket.HolderName,
		ticket.HolderEmail,
		ticket.Row,
		ticket.Col,
		ticket.Status,
		ticket.PaymentRef,
		ticket.CreatedAt,
	)
	return err
}

func (t *storeTx) GetTicketForUpdate(ctx context.Context, ticketID string) (*models.Ticket, error) {
	if uuid.Validate(ticketID) != nil {
		return nil, nil
	}

	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id = $1 FOR UPDATE`

	ticket := &models.Ticket{}
	err := t.tx.QueryRowContext(ctx, query, ticketID).Scan(
		&ticket.ID,
		&ticket.EventID,
		&ticket.SectionID,
		&ticket.HolderID,
		&ticket.HolderName,
		&ticket.HolderEmail,
		&ticket.Row,
		&ticket.Col,
		&ticket.Status,
		&ticket.PaymentRef,
		&ticket.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

func (t *storeTx) DeleteTicket(ctx context.Context, ticketID string) error {
	_, err := t.tx.ExecContext(ctx, `DELETE FROM tickets WHERE id = $1`, ticketID)
	return err
}

func (t *storeTx) TicketsByPaymentRef(ctx context.Context, reference string) ([]models.Ticket, error) {
	return ticketsByPaymentRef(ctx, t.tx, reference)
}

func (s *Store) TicketsByPaymentRef(ctx context.Context, reference string) ([]models.Ticket, error) {
	return ticketsByPaymentRef(ctx, s.db, reference)
}

func ticketsByPaymentRef(ctx context.Context, q querier, reference string) ([]models.Ticket, error) {
	query := `SELECT ` + ticketColumns + `
		FROM tickets
		WHERE payment_ref = $1
		ORDER BY created_at, id`

	rows, err := q.QueryContext(ctx, query, reference)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTickets(rows)
}

func (s *Store) TicketsByHolder(ctx context.Context, holderID string) ([]models.Ticket, error) {
	query := `SELECT ` + ticketColumns + `
		FROM tickets
		WHERE holder_id = $1
		ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, holderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTickets(rows)
}

func (s *Store) ClaimedSeats(ctx context.Context, sectionID string) ([]models.Seat, error) {
	query := `
		SELECT row_number, col_number
		FROM tickets
		WHERE section_id = $1 AND status = 'PAID' AND row_number IS NOT NULL
		ORDER BY row_number, col_number`

	rows, err := s.db.QueryContext(ctx, query, sectionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var seats []models.Seat
	for rows.Next() {
		var seat models.Seat
		if err := rows.Scan(&seat.Row, &seat.Col); err != nil {
			return nil, err
		}
		seats = append(seats, seat)
	}

	return seats, rows.Err()
}

func scanTickets(rows *sql.Rows) ([]models.Ticket, error) {
	var tickets []models.Ticket
	for rows.Next() {
		var ticket models.Ticket
		err := rows.Scan(
			&ticket.ID,
			&ticket.EventID,
			&ticket.SectionID,
			&ticket.HolderID,
			&ticket.HolderName,
			&ticket.HolderEmail,
			&ticket.Row,
			&ticket.Col,
			&ticket.Status,
			&ticket.PaymentRef,
			&ticket.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, ticket)
	}
	return tickets, rows.Err()
}
