package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	apperrors "asyncaccess/internal/errors"
	"asyncaccess/internal/logger"
	"asyncaccess/internal/messaging"
	"asyncaccess/internal/models"
	"asyncaccess/internal/search"
)

// EventService handles event lifecycle outside the booking flow: creation,
// listing, approval and deletion. Deletion goes through the inventory
// cascade so booking rows and counters never drift.
type EventService struct {
	events    EventStore
	inventory *InventoryService
	search    *search.Client
	nats      *messaging.NATSClient
}

func NewEventService(events EventStore, inventory *InventoryService, searchClient *search.Client, natsClient *messaging.NATSClient) *EventService {
	return &EventService{
		events:    events,
		inventory: inventory,
		search:    searchClient,
		nats:      natsClient,
	}
}

// Create inserts a new event in pending status with zero booked tickets.
// Only admin approval makes it bookable.
func (s *EventService) Create(ctx context.Context, organizerID int64, req *models.CreateEventRequest) (*models.Event, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, fmt.Errorf("title is required: %w", apperrors.ErrInvalidState)
	}
	if req.TotalTickets <= 0 {
		return nil, fmt.Errorf("total tickets must be positive: %w", apperrors.ErrInvalidState)
	}

	eventDate, err := time.Parse(time.RFC3339, req.EventDate)
	if err != nil {
		return nil, fmt.Errorf("invalid event date: %w", apperrors.ErrInvalidState)
	}

	event := &models.Event{
		OrganizerID:  organizerID,
		Title:        req.Title,
		Description:  req.Description,
		EventDate:    eventDate,
		TicketPrice:  req.TicketPrice,
		TotalTickets: req.TotalTickets,
		Status:       models.EventStatusPending,
	}

	if err := s.events.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	s.indexEvent(ctx, event)
	return event, nil
}

// ListPublic returns approved events, optionally filtered by a title query.
// The Elasticsearch index serves the query path when configured; otherwise
// the database does.
func (s *EventService) ListPublic(ctx context.Context, query string) ([]models.ListEventsResponseItem, error) {
	var events []models.Event

	if s.search != nil && query != "" {
		ids, err := s.search.SearchEventIDs(ctx, query)
		if err != nil {
			logger.WithContext(ctx).Error("Search failed, falling back to database",
				"error", err, "query", query)
			ids = nil
		}
		if ids != nil {
			for _, id := range ids {
				event, err := s.events.GetByID(ctx, id)
				if err != nil {
					return nil, fmt.Errorf("failed to get event: %w", err)
				}
				if event != nil && event.Status == models.EventStatusApproved {
					events = append(events, *event)
				}
			}
			return toEventList(events), nil
		}
	}

	events, err := s.events.ListApproved(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return toEventList(events), nil
}

func toEventList(events []models.Event) []models.ListEventsResponseItem {
	result := make([]models.ListEventsResponseItem, len(events))
	for i, event := range events {
		result[i] = models.ListEventsResponseItem{
			ID:               event.ID,
			Title:            event.Title,
			EventDate:        event.EventDate,
			TicketPrice:      event.TicketPrice,
			AvailableTickets: event.AvailableTickets(),
		}
	}
	return result
}

// ListByOrganizer returns the organizer's own events, all statuses.
func (s *EventService) ListByOrganizer(ctx context.Context, organizerID int64) ([]models.Event, error) {
	events, err := s.events.ListByOrganizer(ctx, organizerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizer events: %w", err)
	}
	return events, nil
}

// UpdateStatus moves an event between lifecycle states (admin operation).
func (s *EventService) UpdateStatus(ctx context.Context, eventID int64, status string) (*models.Event, error) {
	switch status {
	case models.EventStatusPending, models.EventStatusApproved, models.EventStatusRejected:
	default:
		return nil, fmt.Errorf("unknown status %q: %w", status, apperrors.ErrInvalidState)
	}

	updated, err := s.events.UpdateStatus(ctx, eventID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to update event status: %w", err)
	}
	if !updated {
		return nil, fmt.Errorf("event %d: %w", eventID, apperrors.ErrNotFound)
	}

	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	s.indexEvent(ctx, event)
	return event, nil
}

// Delete removes an event after cascading release of all its bookings.
// Organizers may delete their own events, admins any event.
func (s *EventService) Delete(ctx context.Context, eventID int64, requester *models.User) (*models.EventCascadeResult, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, fmt.Errorf("event %d: %w", eventID, apperrors.ErrNotFound)
	}
	if requester.Role != models.RoleAdmin && event.OrganizerID != requester.ID {
		return nil, apperrors.ErrForbidden
	}

	result, err := s.inventory.CascadeReleaseForEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	if _, err := s.events.Delete(ctx, eventID); err != nil {
		return nil, fmt.Errorf("failed to delete event: %w", err)
	}

	if s.search != nil {
		if err := s.search.DeleteEvent(ctx, eventID); err != nil {
			logger.WithContext(ctx).Error("Failed to remove event from search index",
				"error", err, "event_id", eventID)
		}
	}

	if err := s.nats.Publish(models.EventEventDeleted, models.EventDeletedEvent{
		EventID:         eventID,
		BookingsDeleted: result.DeletedBookingCount,
		Timestamp:       time.Now(),
	}); err != nil {
		logger.WithContext(ctx).Error("Failed to publish event deleted event",
			"error", err, "event_id", eventID)
	}

	return result, nil
}

func (s *EventService) indexEvent(ctx context.Context, event *models.Event) {
	if s.search == nil || event == nil {
		return
	}
	if err := s.search.IndexEvent(ctx, event); err != nil {
		logger.WithContext(ctx).Error("Failed to index event",
			"error", err, "event_id", event.ID)
	}
}
