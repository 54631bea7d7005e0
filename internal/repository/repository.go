package repository

import (
	"asyncaccess/internal/database"
)

type Repositories struct {
	Users     *UserRepository
	Events    *EventRepository
	Bookings  *BookingRepository
	Inventory InventoryStore
}

func NewRepositories(db *database.DB) *Repositories {
	return &Repositories{
		Users:     NewUserRepository(db),
		Events:    NewEventRepository(db),
		Bookings:  NewBookingRepository(db),
		Inventory: NewSQLInventoryStore(db),
	}
}
