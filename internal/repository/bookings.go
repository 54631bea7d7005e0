package repository

import (
	"context"
	"database/sql"

	"asyncaccess/internal/database"
	"asyncaccess/internal/models"
)

type BookingRepository struct {
	db *database.DB
}

func NewBookingRepository(db *database.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*models.Booking, error) {
	booking := &models.Booking{}
	query := `
		SELECT id, user_id, event_id, number_of_tickets, total_price, status,
		       created_at, updated_at
		FROM bookings
		WHERE id = $1`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
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

// ListByUserWithEvent returns the user's bookings joined with the minimal
// event projection the booking list embeds.
func (r *BookingRepository) ListByUserWithEvent(ctx context.Context, userID int64) ([]models.ListBookingsResponseItem, error) {
	query := `
		SELECT b.id, b.event_id, b.number_of_tickets, b.total_price, b.status,
		       b.created_at, e.title, e.event_date
		FROM bookings b
		JOIN events e ON e.id = b.event_id
		WHERE b.user_id = $1
		ORDER BY b.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.ListBookingsResponseItem
	for rows.Next() {
		var item models.ListBookingsResponseItem
		err := rows.Scan(
			&item.ID,
			&item.EventID,
			&item.NumberOfTickets,
			&item.TotalPrice,
			&item.Status,
			&item.CreatedAt,
			&item.Event.Title,
			&item.Event.EventDate,
		)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return items, rows.Err()
}
