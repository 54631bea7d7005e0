package models

import "time"

// NATS subjects for inventory state changes
const (
	EventBookingReserved  = "booking.reserved"
	EventBookingCancelled = "booking.cancelled"
	EventEventDeleted     = "event.deleted"
	EventUserPurged       = "user.purged"
)

// BookingReservedEvent is published after a reservation commits.
type BookingReservedEvent struct {
	BookingID       int64     `json:"booking_id"`
	EventID         int64     `json:"event_id"`
	UserID          int64     `json:"user_id"`
	NumberOfTickets int       `json:"number_of_tickets"`
	Timestamp       time.Time `json:"timestamp"`
}

// BookingCancelledEvent is published after a release commits.
type BookingCancelledEvent struct {
	BookingID       int64     `json:"booking_id"`
	EventID         int64     `json:"event_id"`
	NumberOfTickets int       `json:"number_of_tickets"`
	Reason          string    `json:"reason"`
	Timestamp       time.Time `json:"timestamp"`
}

// EventDeletedEvent is published after an event and its bookings are purged.
type EventDeletedEvent struct {
	EventID         int64     `json:"event_id"`
	BookingsDeleted int64     `json:"bookings_deleted"`
	Timestamp       time.Time `json:"timestamp"`
}

// UserPurgedEvent is published after a user's bookings (and, for organizers,
// events) are purged.
type UserPurgedEvent struct {
	UserID          int64     `json:"user_id"`
	Role            string    `json:"role"`
	EventsUpdated   int64     `json:"events_updated"`
	EventsDeleted   int64     `json:"events_deleted"`
	BookingsDeleted int64     `json:"bookings_deleted"`
	Timestamp       time.Time `json:"timestamp"`
}
