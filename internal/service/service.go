package service

import (
	"context"

	"asyncaccess/internal/messaging"
	"asyncaccess/internal/models"
	"asyncaccess/internal/repository"
	"asyncaccess/internal/search"
)

// EventStore is the event persistence surface the services need. Both the
// Postgres repository and the in-memory store satisfy it.
type EventStore interface {
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id int64) (*models.Event, error)
	ListApproved(ctx context.Context, query string) ([]models.Event, error)
	ListByOrganizer(ctx context.Context, organizerID int64) ([]models.Event, error)
	UpdateStatus(ctx context.Context, id int64, status string) (bool, error)
	GetAvailability(ctx context.Context, id int64) (int, bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

// BookingStore is the booking read surface for queries outside the
// transactional inventory path.
type BookingStore interface {
	GetByID(ctx context.Context, id int64) (*models.Booking, error)
	ListByUserWithEvent(ctx context.Context, userID int64) ([]models.ListBookingsResponseItem, error)
}

// UserStore is the user persistence surface.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Delete(ctx context.Context, id int64) error
}

type Services struct {
	Inventory *InventoryService
	Events    *EventService
	Users     *UserService
}

// Options carries the policy knobs the services read from configuration.
type Options struct {
	// CascadeReleaseUnapproved makes the user-deletion cascade decrement
	// booked counters even on events that are not currently approved.
	CascadeReleaseUnapproved bool
}

func NewServices(repos *repository.Repositories, natsClient *messaging.NATSClient, searchClient *search.Client, opts Options) *Services {
	inventory := NewInventoryService(repos.Inventory, repos.Bookings, repos.Events, natsClient, opts)
	events := NewEventService(repos.Events, inventory, searchClient, natsClient)
	users := NewUserService(repos.Users, inventory, natsClient)

	return &Services{
		Inventory: inventory,
		Events:    events,
		Users:     users,
	}
}
