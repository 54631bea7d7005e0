package consumers

import (
	"context"
	"encoding/json"
	"log/slog"

	"asyncaccess/internal/models"
	"asyncaccess/internal/repository"
	"asyncaccess/internal/search"

	"github.com/nats-io/stan.go"
)

// Handlers reacts to inventory state changes published by the API. The only
// side effect here is keeping the search read model in step; counters are
// never touched from this side.
type Handlers struct {
	repos  *repository.Repositories
	search *search.Client
}

func NewHandlers(repos *repository.Repositories, searchClient *search.Client) *Handlers {
	return &Handlers{
		repos:  repos,
		search: searchClient,
	}
}

func (h *Handlers) HandleBookingReserved(msg *stan.Msg) {
	var event models.BookingReservedEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		slog.Error("Failed to unmarshal booking reserved event", "error", err)
		return
	}

	slog.Info("Booking reserved",
		"booking_id", event.BookingID,
		"event_id", event.EventID,
		"user_id", event.UserID,
		"tickets", event.NumberOfTickets)

	h.reindexEvent(event.EventID)
}

func (h *Handlers) HandleBookingCancelled(msg *stan.Msg) {
	var event models.BookingCancelledEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		slog.Error("Failed to unmarshal booking cancelled event", "error", err)
		return
	}

	slog.Info("Booking cancelled",
		"booking_id", event.BookingID,
		"event_id", event.EventID,
		"tickets", event.NumberOfTickets,
		"reason", event.Reason)

	h.reindexEvent(event.EventID)
}

func (h *Handlers) HandleEventDeleted(msg *stan.Msg) {
	var event models.EventDeletedEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		slog.Error("Failed to unmarshal event deleted event", "error", err)
		return
	}

	slog.Info("Event deleted",
		"event_id", event.EventID,
		"bookings_deleted", event.BookingsDeleted)

	if h.search == nil {
		return
	}
	if err := h.search.DeleteEvent(context.Background(), event.EventID); err != nil {
		slog.Error("Failed to remove deleted event from search index",
			"error", err, "event_id", event.EventID)
	}
}

func (h *Handlers) HandleUserPurged(msg *stan.Msg) {
	var event models.UserPurgedEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		slog.Error("Failed to unmarshal user purged event", "error", err)
		return
	}

	slog.Info("User purged",
		"user_id", event.UserID,
		"role", event.Role,
		"events_updated", event.EventsUpdated,
		"events_deleted", event.EventsDeleted,
		"bookings_deleted", event.BookingsDeleted)
}

// reindexEvent refreshes the event document so search results reflect the
// current counters. An event that vanished between the message and the read
// is skipped; the event.deleted handler covers it.
func (h *Handlers) reindexEvent(eventID int64) {
	if h.search == nil {
		return
	}

	ctx := context.Background()
	event, err := h.repos.Events.GetByID(ctx, eventID)
	if err != nil {
		slog.Error("Failed to load event for reindex", "error", err, "event_id", eventID)
		return
	}
	if event == nil {
		return
	}

	if err := h.search.IndexEvent(ctx, event); err != nil {
		slog.Error("Failed to reindex event", "error", err, "event_id", eventID)
	}
}
