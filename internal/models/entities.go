package models

import (
	"time"
)

// User roles
const (
	RoleUser      = "user"
	RoleOrganizer = "organizer"
	RoleAdmin     = "admin"
)

// Event lifecycle statuses. Only approved events accept reservations.
const (
	EventStatusPending  = "pending"
	EventStatusApproved = "approved"
	EventStatusRejected = "rejected"
)

// Booking statuses. PENDING is reserved for future async payment flows;
// the reservation path creates bookings directly as CONFIRMED. CANCELLED
// is terminal.
const (
	BookingStatusPending   = "PENDING"
	BookingStatusConfirmed = "CONFIRMED"
	BookingStatusCancelled = "CANCELLED"
)

// User represents an account in the system
type User struct {
	ID           int64     `json:"id" db:"user_id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         string    `json:"role" db:"role"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Event is the per-event ticket ledger. BookedTickets is mutated only by
// the inventory service; TotalTickets only by organizer/admin edits.
// Invariant: 0 <= BookedTickets <= TotalTickets after every committed
// operation.
type Event struct {
	ID            int64     `json:"id" db:"id"`
	OrganizerID   int64     `json:"organizer_id" db:"organizer_id"`
	Title         string    `json:"title" db:"title"`
	Description   *string   `json:"description" db:"description"`
	EventDate     time.Time `json:"event_date" db:"event_date"`
	TicketPrice   int64     `json:"ticket_price" db:"ticket_price"` // cents
	TotalTickets  int       `json:"total_tickets" db:"total_tickets"`
	BookedTickets int       `json:"booked_tickets" db:"booked_tickets"`
	Status        string    `json:"status" db:"status"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// AvailableTickets returns the remaining capacity, clamped at zero for
// display even if the counters were ever inconsistent.
func (e *Event) AvailableTickets() int {
	if avail := e.TotalTickets - e.BookedTickets; avail > 0 {
		return avail
	}
	return 0
}

// Booking is one registry entry: an intent to hold NumberOfTickets against
// one event for one user. TotalPrice is a snapshot taken at reserve time
// and is not recomputed if the event price changes later.
type Booking struct {
	ID              int64     `json:"id" db:"id"`
	UserID          int64     `json:"user_id" db:"user_id"`
	EventID         int64     `json:"event_id" db:"event_id"`
	NumberOfTickets int       `json:"number_of_tickets" db:"number_of_tickets"`
	TotalPrice      int64     `json:"total_price" db:"total_price"` // cents
	Status          string    `json:"status" db:"status"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// Active reports whether the booking still holds tickets against its event.
func (b *Booking) Active() bool {
	return b.Status != BookingStatusCancelled
}
