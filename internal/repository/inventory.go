package repository

import (
	"context"
	"database/sql"
	"fmt"

	"asyncaccess/internal/database"
	"asyncaccess/internal/models"
)

// InventoryTx is the set of primitives the inventory service composes inside
// one transaction. GetEventForUpdate and GetBookingForUpdate take row locks,
// so a reserve and a release racing on the same event serialize at the
// storage layer.
type InventoryTx interface {
	GetEventForUpdate(ctx context.Context, eventID int64) (*models.Event, error)
	HasActiveBooking(ctx context.Context, userID, eventID int64) (bool, error)
	InsertBooking(ctx context.Context, booking *models.Booking) error
	GetBookingForUpdate(ctx context.Context, bookingID int64) (*models.Booking, error)
	SetBookingStatus(ctx context.Context, bookingID int64, status string) error

	// TakeTickets increments booked_tickets by n only if the result stays
	// within total_tickets; it reports false when capacity would be
	// exceeded. ReturnTickets decrements by n clamped at zero and reports
	// false when the event no longer exists.
	TakeTickets(ctx context.Context, eventID int64, n int) (bool, error)
	ReturnTickets(ctx context.Context, eventID int64, n int) (bool, error)

	ConfirmedBookingsForUser(ctx context.Context, userID int64) ([]models.Booking, error)
	DeleteBookingsForEvent(ctx context.Context, eventID int64) (int64, error)
	DeleteBookingsForUser(ctx context.Context, userID int64) (int64, error)
	EventIDsForOrganizer(ctx context.Context, organizerID int64) ([]int64, error)
	DeleteEvent(ctx context.Context, eventID int64) (bool, error)
}

// InventoryStore runs a function within a single storage transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
type InventoryStore interface {
	WithTx(ctx context.Context, fn func(tx InventoryTx) error) error
}

// SQLInventoryStore is the Postgres-backed InventoryStore.
type SQLInventoryStore struct {
	db *database.DB
}

func NewSQLInventoryStore(db *database.DB) *SQLInventoryStore {
	return &SQLInventoryStore{db: db}
}

func (s *SQLInventoryStore) WithTx(ctx context.Context, fn func(tx InventoryTx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&sqlInventoryTx{tx: tx}); err != nil {
		return err
	}

	return tx.Commit()
}

type sqlInventoryTx struct {
	tx *sql.Tx
}

func (t *sqlInventoryTx) GetEventForUpdate(ctx context.Context, eventID int64) (*models.Event, error) {
	event := &models.Event{}
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1 FOR UPDATE`

	err := scanEvent(t.tx.QueryRowContext(ctx, query, eventID), event)
	if err == sql.ErrNoRows {
		return nil, nil
	}

	return event, err
}

func (t *sqlInventoryTx) HasActiveBooking(ctx context.Context, userID, eventID int64) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS(
			SELECT 1 FROM bookings
			WHERE user_id = $1 AND event_id = $2 AND status <> 'CANCELLED'
		)`

	err := t.tx.QueryRowContext(ctx, query, userID, eventID).Scan(&exists)
	return exists, err
}

func (t *sqlInventoryTx) InsertBooking(ctx context.Context, booking *models.Booking) error {
	query := `
		INSERT INTO bookings (user_id, event_id, number_of_tickets, total_price, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	return t.tx.QueryRowContext(ctx, query,
		booking.UserID,
		booking.EventID,
		booking.NumberOfTickets,
		booking.TotalPrice,
		booking.Status,
	).Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)
}

func (t *sqlInventoryTx) GetBookingForUpdate(ctx context.Context, bookingID int64) (*models.Booking, error) {
	booking := &models.Booking{}
	query := `
		SELECT id, user_id, event_id, number_of_tickets, total_price, status,
		       created_at, updated_at
		FROM bookings
		WHERE id = $1
		FOR UPDATE`

	err := t.tx.QueryRowContext(ctx, query, bookingID).Scan(
		&booking.ID,
		&booking.UserID,
		&booking.EventID,
		&booking.NumberOfTickets,
		&booking.TotalPrice,
		&booking.Status,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return booking, err
}

func (t *sqlInventoryTx) SetBookingStatus(ctx context.Context, bookingID int64, status string) error {
	_, err := t.tx.ExecContext(ctx,
		`UPDATE bookings SET status = $1, updated_at = NOW() WHERE id = $2`,
		status, bookingID)
	return err
}

func (t *sqlInventoryTx) TakeTickets(ctx context.Context, eventID int64, n int) (bool, error) {
	// The capacity guard is evaluated by Postgres inside the same UPDATE,
	// so even without the caller's row lock this can never oversell.
	res, err := t.tx.ExecContext(ctx, `
		UPDATE events
		SET booked_tickets = booked_tickets + $2, updated_at = NOW()
		WHERE id = $1 AND booked_tickets + $2 <= total_tickets`,
		eventID, n)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	return affected > 0, err
}

func (t *sqlInventoryTx) ReturnTickets(ctx context.Context, eventID int64, n int) (bool, error) {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE events
		SET booked_tickets = GREATEST(booked_tickets - $2, 0), updated_at = NOW()
		WHERE id = $1`,
		eventID, n)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	return affected > 0, err
}

func (t *sqlInventoryTx) ConfirmedBookingsForUser(ctx context.Context, userID int64) ([]models.Booking, error) {
	query := `
		SELECT id, user_id, event_id, number_of_tickets, total_price, status,
		       created_at, updated_at
		FROM bookings
		WHERE user_id = $1 AND status = 'CONFIRMED'
		ORDER BY id`

	rows, err := t.tx.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []models.Booking
	for rows.Next() {
		var b models.Booking
		err := rows.Scan(
			&b.ID,
			&b.UserID,
			&b.EventID,
			&b.NumberOfTickets,
			&b.TotalPrice,
			&b.Status,
			&b.CreatedAt,
			&b.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}

	return bookings, rows.Err()
}

func (t *sqlInventoryTx) DeleteBookingsForEvent(ctx context.Context, eventID int64) (int64, error) {
	res, err := t.tx.ExecContext(ctx, `DELETE FROM bookings WHERE event_id = $1`, eventID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (t *sqlInventoryTx) DeleteBookingsForUser(ctx context.Context, userID int64) (int64, error) {
	res, err := t.tx.ExecContext(ctx, `DELETE FROM bookings WHERE user_id = $1`, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (t *sqlInventoryTx) EventIDsForOrganizer(ctx context.Context, organizerID int64) ([]int64, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT id FROM events WHERE organizer_id = $1 ORDER BY id`, organizerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

func (t *sqlInventoryTx) DeleteEvent(ctx context.Context, eventID int64) (bool, error) {
	res, err := t.tx.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, eventID)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	return affected > 0, err
}
