package service

import (
	"context"
	"fmt"

	apperrors "boxoffice/internal/errors"
	"boxoffice/internal/models"
)

// EventService serves the read-only event catalog. Events and sections are
// authored elsewhere; this engine only reads them.
type EventService struct {
	store    Store
	searcher EventSearcher
}

func NewEventService(store Store, searcher EventSearcher) *EventService {
	return &EventService{store: store, searcher: searcher}
}

// List returns catalog entries, going through the search index when a query
// or date filter is present and the index is configured.
func (s *EventService) List(ctx context.Context, query, date string, page, pageSize int) (models.ListEventsResponse, error) {
	var (
		events []models.Event
		err    error
	)

	if s.searcher != nil && (query != "" || date != "") {
		events, err = s.searcher.Search(ctx, query, date, page, pageSize)
	} else {
		events, err = s.store.ListEvents(ctx, page, pageSize)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	result := make(models.ListEventsResponse, len(events))
	for i, event := range events {
		result[i] = models.ListEventsResponseItem{
			ID:       event.ID,
			Name:     event.Name,
			Date:     event.Date.Format("2006-01-02"),
			Location: event.Location,
		}
	}
	return result, nil
}

// Sections returns the event's sections with an advisory availability
// snapshot: sold counts and, for reserved sections, the claimed seat map.
// Admission is always re-checked inside the booking transaction.
func (s *EventService) Sections(ctx context.Context, eventID string) ([]models.SectionAvailability, error) {
	event, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, fmt.Errorf("event %s: %w", eventID, apperrors.ErrNotFound)
	}

	sections, err := s.store.ListSections(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sections: %w", err)
	}

	result := make([]models.SectionAvailability, 0, len(sections))
	for _, section := range sections {
		sold, err := s.store.CountPaidTickets(ctx, section.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count sold tickets: %w", err)
		}

		availability := models.SectionAvailability{
			Section:   section,
			Sold:      sold,
			Remaining: section.Capacity - sold,
		}
		if section.IsReserved {
			claimed, err := s.store.ClaimedSeats(ctx, section.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to load claimed seats: %w", err)
			}
			availability.Claimed = claimed
		}
		result = append(result, availability)
	}

	return result, nil
}
