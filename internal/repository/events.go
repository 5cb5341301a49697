package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"boxoffice/internal/models"
)

const eventColumns = `id, organizer_id, name, description, date, location, created_at`

func (s *Store) GetEvent(ctx context.Context, eventID string) (*models.Event, error) {
	if uuid.Validate(eventID) != nil {
		return nil, nil
	}

	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`

	event := &models.Event{}
	err := s.db.QueryRowContext(ctx, query, eventID).Scan(
		&event.ID,
		&event.OrganizerID,
		&event.Name,
		&event.Description,
		&event.Date,
		&event.Location,
		&event.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return event, nil
}

func (s *Store) ListEvents(ctx context.Context, page, pageSize int) ([]models.Event, error) {
	query := `SELECT ` + eventColumns + `
		FROM events
		ORDER BY date
		LIMIT $1 OFFSET $2`

	offset := 0
	if page > 1 {
		offset = (page - 1) * pageSize
	}

	rows, err := s.db.QueryContext(ctx, query, pageSize, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var event models.Event
		err := rows.Scan(
			&event.ID,
			&event.OrganizerID,
			&event.Name,
			&event.Description,
			&event.Date,
			&event.Location,
			&event.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	return events, rows.Err()
}
