package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"boxoffice/internal/models"
)

const sectionColumns = `id, event_id, name, price, capacity, is_reserved, grid_rows, grid_cols`

// GetSectionForUpdate loads the section and locks its row until the
// transaction ends. Every booking and reconciliation for the section takes
// this lock first, which is what serializes them.
func (t *storeTx) GetSectionForUpdate(ctx context.Context, sectionID string) (*models.Section, error) {
	if uuid.Validate(sectionID) != nil {
		return nil, nil
	}

	query := `SELECT ` + sectionColumns + ` FROM sections WHERE id = $1 FOR UPDATE`
	return scanSection(t.tx.QueryRowContext(ctx, query, sectionID))
}

func (s *Store) GetSection(ctx context.Context, sectionID string) (*models.Section, error) {
	if uuid.Validate(sectionID) != nil {
		return nil, nil
	}

	query := `SELECT ` + sectionColumns + ` FROM sections WHERE id = $1`
	return scanSection(s.db.QueryRowContext(ctx, query, sectionID))
}

func (s *Store) ListSections(ctx context.Context, eventID string) ([]models.Section, error) {
	if uuid.Validate(eventID) != nil {
		return nil, nil
	}

	query := `SELECT ` + sectionColumns + ` FROM sections WHERE event_id = $1 ORDER BY name`
	rows, err := s.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sections []models.Section
	for rows.Next() {
		var section models.Section
		err := rows.Scan(
			&section.ID,
			&section.EventID,
			&section.Name,
			&section.Price,
			&section.Capacity,
			&section.IsReserved,
			&section.GridRows,
			&section.GridCols,
		)
		if err != nil {
			return nil, err
		}
		sections = append(sections, section)
	}

	return sections, rows.Err()
}

func scanSection(row *sql.Row) (*models.Section, error) {
	section := &models.Section{}
	err := row.Scan(
		&section.ID,
		&section.EventID,
		&section.Name,
		&section.Price,
		&section.Capacity,
		&section.IsReserved,
		&section.GridRows,
		&section.GridCols,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return section, nil
}
