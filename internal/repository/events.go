package repository

import (
	"context"
	"database/sql"

	"asyncaccess/internal/database"
	"asyncaccess/internal/models"
)

type EventRepository struct {
	db *database.DB
}

func NewEventRepository(db *database.DB) *EventRepository {
	return &EventRepository{db: db}
}

const eventColumns = `id, organizer_id, title, description, event_date, ticket_price,
	       total_tickets, booked_tickets, status, created_at, updated_at`

func scanEvent(row interface{ Scan(...interface{}) error }, event *models.Event) error {
	return row.Scan(
		&event.ID,
		&event.OrganizerID,
		&event.Title,
		&event.Description,
		&event.EventDate,
		&event.TicketPrice,
		&event.TotalTickets,
		&event.BookedTickets,
		&event.Status,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
}

func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	query := `
		INSERT INTO events (organizer_id, title, description, event_date, ticket_price,
		                    total_tickets, booked_tickets, status)
		VALUES ($1, $2, $3, $4, $5, $6, 0, $7)
		RETURNING id, created_at, updated_at`

	return r.db.QueryRowContext(ctx, query,
		event.OrganizerID,
		event.Title,
		event.Description,
		event.EventDate,
		event.TicketPrice,
		event.TotalTickets,
		event.Status,
	).Scan(&event.ID, &event.CreatedAt, &event.UpdatedAt)
}

func (r *EventRepository) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	event := &models.Event{}
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`

	err := scanEvent(r.db.QueryRowContext(ctx, query, id), event)
	if err == sql.ErrNoRows {
		return nil, nil
	}

	return event, err
}

// ListApproved returns approved events, newest first. When query is
// non-empty it filters by a case-insensitive title match; callers with an
// Elasticsearch index configured use that instead.
func (r *EventRepository) ListApproved(ctx context.Context, query string) ([]models.Event, error) {
	sqlQuery := `SELECT ` + eventColumns + ` FROM events WHERE status = 'approved'`
	var args []interface{}

	if query != "" {
		sqlQuery += ` AND title ILIKE '%' || $1 || '%'`
		args = append(args, query)
	}

	sqlQuery += ` ORDER BY event_date ASC`

	rows, err := r.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var event models.Event
		if err := scanEvent(rows, &event); err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	return events, rows.Err()
}

func (r *EventRepository) ListByOrganizer(ctx context.Context, organizerID int64) ([]models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE organizer_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, organizerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var event models.Event
		if err := scanEvent(rows, &event); err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	return events, rows.Err()
}

func (r *EventRepository) UpdateStatus(ctx context.Context, id int64, status string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE events SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	return n > 0, err
}

// Delete removes the event row. Bookings referencing it must already be
// purged via the inventory cascade.
func (r *EventRepository) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	return n > 0, err
}

// GetAvailability returns total - booked for the event, clamped at zero.
// The second return value is false when the event does not exist.
func (r *EventRepository) GetAvailability(ctx context.Context, id int64) (int, bool, error) {
	var available int
	query := `SELECT GREATEST(total_tickets - booked_tickets, 0) FROM events WHERE id = $1`

	err := r.db.QueryRowContext(ctx, query, id).Scan(&available)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}

	return available, true, nil
}
