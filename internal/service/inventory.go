package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"asyncaccess/internal/database"
	apperrors "asyncaccess/internal/errors"
	"asyncaccess/internal/logger"
	"asyncaccess/internal/messaging"
	"asyncaccess/internal/metrics"
	"asyncaccess/internal/models"
	"asyncaccess/internal/repository"
)

// maxTxRetries bounds internal retries on transient storage contention
// (serialization failures, deadlocks). Domain errors are never retried.
const maxTxRetries = 3

// InventoryService owns every transition of an event's booked-ticket
// counter. Reserve, Release and the cascade operations are the only code
// paths that touch the counter; deletion handlers call in here instead of
// mutating it inline.
type InventoryService struct {
	store    repository.InventoryStore
	bookings BookingStore
	events   EventStore
	nats     *messaging.NATSClient

	releaseUnapproved bool
}

func NewInventoryService(store repository.InventoryStore, bookings BookingStore, events EventStore, natsClient *messaging.NATSClient, opts Options) *InventoryService {
	return &InventoryService{
		store:             store,
		bookings:          bookings,
		events:            events,
		nats:              natsClient,
		releaseUnapproved: opts.CascadeReleaseUnapproved,
	}
}

func (s *InventoryService) withRetry(ctx context.Context, fn func(tx repository.InventoryTx) error) error {
	var err error
	for attempt := 1; attempt <= maxTxRetries; attempt++ {
		err = s.store.WithTx(ctx, fn)
		if err == nil || !database.IsRetryableError(err) {
			return err
		}
		logger.WithContext(ctx).Warn("Retrying inventory transaction",
			"attempt", attempt, "error", err)
	}
	return err
}

// Reserve creates a confirmed booking for requested tickets and consumes
// them from the event ledger. Both writes commit in one transaction; the
// event row is locked for the duration of the check-and-update, so
// concurrent reservations against the same event cannot oversell.
func (s *InventoryService) Reserve(ctx context.Context, userID, eventID int64, requested int) (*models.Booking, error) {
	if requested <= 0 {
		return nil, fmt.Errorf("number of tickets must be positive: %w", apperrors.ErrInvalidState)
	}

	var booking *models.Booking
	err := s.withRetry(ctx, func(tx repository.InventoryTx) error {
		booking = nil

		event, err := tx.GetEventForUpdate(ctx, eventID)
		if err != nil {
			return fmt.Errorf("failed to get event: %w", err)
		}
		if event == nil {
			return fmt.Errorf("event %d: %w", eventID, apperrors.ErrNotFound)
		}
		if event.Status != models.EventStatusApproved {
			return fmt.Errorf("event is not accepting bookings: %w", apperrors.ErrInvalidState)
		}

		active, err := tx.HasActiveBooking(ctx, userID, eventID)
		if err != nil {
			return fmt.Errorf("failed to check active booking: %w", err)
		}
		if active {
			return apperrors.ErrConflict
		}

		if requested > event.AvailableTickets() {
			return apperrors.ErrInsufficientInventory
		}

		// The storage layer re-evaluates the capacity guard inside the
		// UPDATE itself; a false return here means we lost a race despite
		// the row lock, so treat it the same as the check above.
		ok, err := tx.TakeTickets(ctx, eventID, requested)
		if err != nil {
			return fmt.Errorf("failed to update booked tickets: %w", err)
		}
		if !ok {
			return apperrors.ErrInsufficientInventory
		}

		booking = &models.Booking{
			UserID:          userID,
			EventID:         eventID,
			NumberOfTickets: requested,
			TotalPrice:      int64(requested) * event.TicketPrice,
			Status:          models.BookingStatusConfirmed,
		}
		if err := tx.InsertBooking(ctx, booking); err != nil {
			return fmt.Errorf("failed to create booking: %w", err)
		}
		return nil
	})
	if err != nil {
		metrics.ReservationsTotal.WithLabelValues(outcomeLabel(err)).Inc()
		return nil, err
	}

	metrics.ReservationsTotal.WithLabelValues("success").Inc()
	metrics.TicketsReserved.Add(float64(requested))

	if err := s.nats.Publish(models.EventBookingReserved, models.BookingReservedEvent{
		BookingID:       booking.ID,
		EventID:         booking.EventID,
		UserID:          booking.UserID,
		NumberOfTickets: booking.NumberOfTickets,
		Timestamp:       time.Now(),
	}); err != nil {
		logger.WithContext(ctx).Error("Failed to publish booking reserved event",
			"error", err, "booking_id", booking.ID)
	}

	return booking, nil
}

// Release cancels a booking owned by requestingUserID and returns its
// tickets to the event ledger. Cancelling an already-cancelled booking is
// rejected; the counter only ever moves once per booking. When the event no
// longer exists the counter update is skipped but the booking is still
// cancelled.
func (s *InventoryService) Release(ctx context.Context, bookingID, requestingUserID int64) (*models.Booking, error) {
	var booking *models.Booking
	err := s.withRetry(ctx, func(tx repository.InventoryTx) error {
		booking = nil

		b, err := tx.GetBookingForUpdate(ctx, bookingID)
		if err != nil {
			return fmt.Errorf("failed to get booking: %w", err)
		}
		if b == nil {
			return fmt.Errorf("booking %d: %w", bookingID, apperrors.ErrNotFound)
		}
		if b.UserID != requestingUserID {
			return apperrors.ErrForbidden
		}
		if b.Status == models.BookingStatusCancelled {
			return fmt.Errorf("booking already cancelled: %w", apperrors.ErrInvalidState)
		}

		if b.Status == models.BookingStatusConfirmed {
			returned, err := tx.ReturnTickets(ctx, b.EventID, b.NumberOfTickets)
			if err != nil {
				return fmt.Errorf("failed to return tickets: %w", err)
			}
			if !returned {
				logger.WithContext(ctx).Warn("Event missing during release, skipping counter update",
					"booking_id", b.ID, "event_id", b.EventID)
			}
		}

		if err := tx.SetBookingStatus(ctx, b.ID, models.BookingStatusCancelled); err != nil {
			return fmt.Errorf("failed to cancel booking: %w", err)
		}
		b.Status = models.BookingStatusCancelled
		booking = b
		return nil
	})
	if err != nil {
		metrics.ReleasesTotal.WithLabelValues(outcomeLabel(err)).Inc()
		return nil, err
	}

	metrics.ReleasesTotal.WithLabelValues("success").Inc()
	metrics.TicketsReleased.Add(float64(booking.NumberOfTickets))

	if err := s.nats.Publish(models.EventBookingCancelled, models.BookingCancelledEvent{
		BookingID:       booking.ID,
		EventID:         booking.EventID,
		NumberOfTickets: booking.NumberOfTickets,
		Reason:          "user cancellation",
		Timestamp:       time.Now(),
	}); err != nil {
		logger.WithContext(ctx).Error("Failed to publish booking cancelled event",
			"error", err, "booking_id", booking.ID)
	}

	return booking, nil
}

// CascadeReleaseForEvent deletes every booking referencing the event, any
// status. The counter is not touched: the event row itself is removed by
// the caller right after.
func (s *InventoryService) CascadeReleaseForEvent(ctx context.Context, eventID int64) (*models.EventCascadeResult, error) {
	result := &models.EventCascadeResult{}
	err := s.withRetry(ctx, func(tx repository.InventoryTx) error {
		event, err := tx.GetEventForUpdate(ctx, eventID)
		if err != nil {
			return fmt.Errorf("failed to get event: %w", err)
		}
		if event == nil {
			return fmt.Errorf("event %d: %w", eventID, apperrors.ErrNotFound)
		}

		deleted, err := tx.DeleteBookingsForEvent(ctx, eventID)
		if err != nil {
			return fmt.Errorf("failed to delete bookings: %w", err)
		}
		result.DeletedBookingCount = deleted
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.CascadeBookingsDeleted.Add(float64(result.DeletedBookingCount))
	return result, nil
}

// CascadeReleaseForUser releases everything a deleted user holds.
//
// For organizers: bookings referencing any of their events are purged and
// the events themselves deleted, all in one transaction.
//
// For regular users: each confirmed booking's tickets are returned to its
// event in a transaction of its own, best effort — a failure on one event
// never blocks cleanup of the rest — and the registry rows are then deleted.
// Counters of events that are missing or no longer approved are left alone
// unless the service was configured otherwise.
func (s *InventoryService) CascadeReleaseForUser(ctx context.Context, userID int64, role string) (*models.UserCascadeResult, error) {
	if role == models.RoleOrganizer {
		return s.cascadeOrganizer(ctx, userID)
	}
	return s.cascadeUser(ctx, userID)
}

func (s *InventoryService) cascadeOrganizer(ctx context.Context, organizerID int64) (*models.UserCascadeResult, error) {
	result := &models.UserCascadeResult{}
	err := s.withRetry(ctx, func(tx repository.InventoryTx) error {
		result.EventsDeleted = 0
		result.BookingsDeleted = 0

		ids, err := tx.EventIDsForOrganizer(ctx, organizerID)
		if err != nil {
			return fmt.Errorf("failed to list organizer events: %w", err)
		}

		for _, eventID := range ids {
			deleted, err := tx.DeleteBookingsForEvent(ctx, eventID)
			if err != nil {
				return fmt.Errorf("failed to delete bookings for event %d: %w", eventID, err)
			}
			result.BookingsDeleted += deleted

			if _, err := tx.DeleteEvent(ctx, eventID); err != nil {
				return fmt.Errorf("failed to delete event %d: %w", eventID, err)
			}
			result.EventsDeleted++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.CascadeBookingsDeleted.Add(float64(result.BookingsDeleted))
	return result, nil
}

func (s *InventoryService) cascadeUser(ctx context.Context, userID int64) (*models.UserCascadeResult, error) {
	var confirmed []models.Booking
	err := s.withRetry(ctx, func(tx repository.InventoryTx) error {
		var err error
		confirmed, err = tx.ConfirmedBookingsForUser(ctx, userID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list confirmed bookings: %w", err)
	}

	result := &models.UserCascadeResult{}
	for _, b := range confirmed {
		booking := b
		err := s.withRetry(ctx, func(tx repository.InventoryTx) error {
			event, err := tx.GetEventForUpdate(ctx, booking.EventID)
			if err != nil {
				return fmt.Errorf("failed to get event: %w", err)
			}
			if event == nil {
				return nil
			}
			if event.Status != models.EventStatusApproved && !s.releaseUnapproved {
				return nil
			}

			returned, err := tx.ReturnTickets(ctx, booking.EventID, booking.NumberOfTickets)
			if err != nil {
				return fmt.Errorf("failed to return tickets: %w", err)
			}
			if returned {
				result.EventsUpdated++
				metrics.TicketsReleased.Add(float64(booking.NumberOfTickets))
			}
			return nil
		})
		if err != nil {
			// Best effort: log and keep going, the user's data must still
			// be cleaned up.
			logger.WithContext(ctx).Error("Failed to release tickets during user cascade",
				"error", err, "booking_id", booking.ID, "event_id", booking.EventID)
		}
	}

	err = s.withRetry(ctx, func(tx repository.InventoryTx) error {
		deleted, err := tx.DeleteBookingsForUser(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to delete bookings: %w", err)
		}
		result.BookingsDeleted = deleted
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.CascadeBookingsDeleted.Add(float64(result.BookingsDeleted))
	return result, nil
}

// ListBookingsForUser returns the user's bookings with the embedded event
// projection. An empty result is reported as not found.
func (s *InventoryService) ListBookingsForUser(ctx context.Context, userID int64) ([]models.ListBookingsResponseItem, error) {
	items, err := s.bookings.ListByUserWithEvent(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("no bookings for user %d: %w", userID, apperrors.ErrNotFound)
	}
	return items, nil
}

// GetAvailability returns the event's remaining capacity, never negative.
func (s *InventoryService) GetAvailability(ctx context.Context, eventID int64) (int, error) {
	available, found, err := s.events.GetAvailability(ctx, eventID)
	if err != nil {
		return 0, fmt.Errorf("failed to get availability: %w", err)
	}
	if !found {
		return 0, fmt.Errorf("event %d: %w", eventID, apperrors.ErrNotFound)
	}
	return available, nil
}

func outcomeLabel(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return "not_found"
	case errors.Is(err, apperrors.ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, apperrors.ErrConflict):
		return "conflict"
	case errors.Is(err, apperrors.ErrInsufficientInventory):
		return "insufficient_inventory"
	case errors.Is(err, apperrors.ErrForbidden):
		return "forbidden"
	default:
		return "error"
	}
}
