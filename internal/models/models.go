package models

import "time"

// CreateEventRequest is the payload for creating an event. New events start
// in pending status with zero booked tickets.
type CreateEventRequest struct {
	Title        string  `json:"title" binding:"required"`
	Description  *string `json:"description,omitempty"`
	EventDate    string  `json:"event_date" binding:"required"` // RFC 3339
	TicketPrice  int64   `json:"ticket_price" binding:"min=0"`
	TotalTickets int     `json:"total_tickets" binding:"required,min=1"`
}

// CreateEventResponse carries the id of the created event.
type CreateEventResponse struct {
	ID int64 `json:"id"`
}

// UpdateEventStatusRequest moves an event between lifecycle states.
type UpdateEventStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending approved rejected"`
}

// ListEventsResponseItem is one element of the public event list.
type ListEventsResponseItem struct {
	ID               int64     `json:"id"`
	Title            string    `json:"title"`
	EventDate        time.Time `json:"event_date"`
	TicketPrice      int64     `json:"ticket_price"`
	AvailableTickets int       `json:"available_tickets"`
}

// CreateBookingRequest is the payload for reserving tickets.
type CreateBookingRequest struct {
	EventID         int64 `json:"event_id" binding:"required"`
	NumberOfTickets int   `json:"number_of_tickets" binding:"required,min=1"`
}

// CancelBookingRequest is the payload for releasing a booking.
type CancelBookingRequest struct {
	BookingID int64 `json:"booking_id" binding:"required"`
}

// BookingEventInfo is the minimal event projection embedded in booking
// listings.
type BookingEventInfo struct {
	Title     string    `json:"title"`
	EventDate time.Time `json:"event_date"`
}

// ListBookingsResponseItem is one element of a user's booking list.
type ListBookingsResponseItem struct {
	ID              int64            `json:"id"`
	EventID         int64            `json:"event_id"`
	NumberOfTickets int              `json:"number_of_tickets"`
	TotalPrice      int64            `json:"total_price"`
	Status          string           `json:"status"`
	CreatedAt       time.Time        `json:"created_at"`
	Event           BookingEventInfo `json:"event"`
}

// AvailabilityResponse reports remaining capacity for one event.
type AvailabilityResponse struct {
	EventID          int64 `json:"event_id"`
	AvailableTickets int   `json:"available_tickets"`
}

// EventCascadeResult reports the outcome of deleting an event's bookings.
type EventCascadeResult struct {
	DeletedBookingCount int64 `json:"deleted_booking_count"`
}

// UserCascadeResult reports the outcome of releasing a deleted user's data.
// EventsUpdated/BookingsDeleted are set for role=user; EventsDeleted and
// BookingsDeleted for role=organizer.
type UserCascadeResult struct {
	EventsUpdated   int64 `json:"events_updated,omitempty"`
	EventsDeleted   int64 `json:"events_deleted,omitempty"`
	BookingsDeleted int64 `json:"bookings_deleted"`
}
