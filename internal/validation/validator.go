// Package validation audits the ticket ledger against the booking registry.
// It reads live data and reports drift; it never repairs anything.
package validation

import (
	"context"
	"fmt"
	"log/slog"

	"asyncaccess/internal/database"
)

// Issue is one detected inconsistency.
type Issue struct {
	EventID int64
	Detail  string
}

// Report is the outcome of one audit run.
type Report struct {
	EventsChecked int
	Issues        []Issue
}

func (r *Report) OK() bool {
	return len(r.Issues) == 0
}

// LedgerChecker cross-checks every event's counters against its bookings.
type LedgerChecker struct {
	db *database.DB
}

func NewLedgerChecker(db *database.DB) *LedgerChecker {
	return &LedgerChecker{db: db}
}

// Check audits all events. For each event the booked counter must sit
// within [0, total] and equal the sum of tickets held by non-cancelled
// bookings. Bookings pointing at missing events are reported too.
func (c *LedgerChecker) Check(ctx context.Context) (*Report, error) {
	report := &Report{}

	rows, err := c.db.QueryContext(ctx, `
		SELECT e.id, e.total_tickets, e.booked_tickets,
		       COALESCE(SUM(b.number_of_tickets) FILTER (WHERE b.status <> 'CANCELLED'), 0)
		FROM events e
		LEFT JOIN bookings b ON b.event_id = e.id
		GROUP BY e.id, e.total_tickets, e.booked_tickets
		ORDER BY e.id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var eventID int64
		var total, booked, held int
		if err := rows.Scan(&eventID, &total, &booked, &held); err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}
		report.EventsChecked++

		if booked < 0 || booked > total {
			report.Issues = append(report.Issues, Issue{
				EventID: eventID,
				Detail:  fmt.Sprintf("booked_tickets %d outside [0, %d]", booked, total),
			})
		}
		if booked != held {
			report.Issues = append(report.Issues, Issue{
				EventID: eventID,
				Detail:  fmt.Sprintf("booked_tickets %d, active bookings hold %d", booked, held),
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating events: %w", err)
	}

	orphans, err := c.orphanedBookings(ctx)
	if err != nil {
		return nil, err
	}
	report.Issues = append(report.Issues, orphans...)

	return report, nil
}

func (c *LedgerChecker) orphanedBookings(ctx context.Context) ([]Issue, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT b.id, b.event_id
		FROM bookings b
		LEFT JOIN events e ON e.id = b.event_id
		WHERE e.id IS NULL AND b.status <> 'CANCELLED'
		ORDER BY b.id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query orphaned bookings: %w", err)
	}
	defer rows.Close()

	var issues []Issue
	for rows.Next() {
		var bookingID, eventID int64
		if err := rows.Scan(&bookingID, &eventID); err != nil {
			return nil, fmt.Errorf("failed to scan booking row: %w", err)
		}
		issues = append(issues, Issue{
			EventID: eventID,
			Detail:  fmt.Sprintf("active booking %d references missing event %d", bookingID, eventID),
		})
	}
	return issues, rows.Err()
}

// Log writes the report through the structured logger.
func (r *Report) Log() {
	if r.OK() {
		slog.Info("Ledger audit passed", "events_checked", r.EventsChecked)
		return
	}
	for _, issue := range r.Issues {
		slog.Error("Ledger inconsistency", "event_id", issue.EventID, "detail", issue.Detail)
	}
	slog.Error("Ledger audit failed",
		"events_checked", r.EventsChecked, "issues", len(r.Issues))
}
