package database

import (
	"fmt"
	"log/slog"
)

func (db *DB) RunMigrations() error {
	slog.Info("Running database migrations...")

	migrations := []string{
		createUsersTable,
		createEventsTable,
		createBookingsTable,
		createBookingEventIndex,
		createBookingUserIndex,
		createActiveBookingUniqueIndex,
	}

	for i, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	slog.Info("All migrations completed successfully")
	return nil
}

const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
    user_id SERIAL PRIMARY KEY,
    email VARCHAR(255) UNIQUE NOT NULL,
    password_hash VARCHAR(64) NOT NULL,
    role VARCHAR(20) NOT NULL DEFAULT 'user',
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),

    CHECK (role IN ('user', 'organizer', 'admin'))
);`

const createEventsTable = `
CREATE TABLE IF NOT EXISTS events (
    id SERIAL PRIMARY KEY,
    organizer_id INTEGER NOT NULL REFERENCES users(user_id),
    title VARCHAR(500) NOT NULL,
    description TEXT,
    event_date TIMESTAMP NOT NULL,
    ticket_price BIGINT NOT NULL DEFAULT 0,
    total_tickets INTEGER NOT NULL DEFAULT 0,
    booked_tickets INTEGER NOT NULL DEFAULT 0,
    status VARCHAR(20) NOT NULL DEFAULT 'pending',
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW(),

    CHECK (status IN ('pending', 'approved', 'rejected')),
    CHECK (total_tickets >= 0),
    CHECK (booked_tickets >= 0 AND booked_tickets <= total_tickets)
);`

const createBookingsTable = `
CREATE TABLE IF NOT EXISTS bookings (
    id SERIAL PRIMARY KEY,
    user_id INTEGER NOT NULL REFERENCES users(user_id),
    event_id INTEGER NOT NULL REFERENCES events(id),
    number_of_tickets INTEGER NOT NULL,
    total_price BIGINT NOT NULL DEFAULT 0,
    status VARCHAR(20) NOT NULL DEFAULT 'CONFIRMED',
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW(),

    CHECK (number_of_tickets > 0),
    CHECK (status IN ('PENDING', 'CONFIRMED', 'CANCELLED'))
);`

const createBookingEventIndex = `
CREATE INDEX IF NOT EXISTS bookings_event_id_idx ON bookings (event_id);`

const createBookingUserIndex = `
CREATE INDEX IF NOT EXISTS bookings_user_id_idx ON bookings (user_id);`

// Backs the duplicate-active-booking guard: at most one non-cancelled
// booking per (user, event), enforced by the database even if two requests
// race past the application-level check.
const createActiveBookingUniqueIndex = `
CREATE UNIQUE INDEX IF NOT EXISTS bookings_active_user_event_idx
ON bookings (user_id, event_id) WHERE status <> 'CANCELLED';`
