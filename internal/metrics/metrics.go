// Package metrics holds the Prometheus collectors for the inventory core
// and the HTTP layer.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ReservationsTotal counts Reserve calls by outcome: success, not_found,
	// invalid_state, conflict, insufficient_inventory, error.
	ReservationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "asyncaccess_reservations_total",
		Help: "Reserve operations by outcome",
	}, []string{"outcome"})

	// ReleasesTotal counts Release calls by outcome: success, not_found,
	// forbidden, invalid_state, error.
	ReleasesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "asyncaccess_releases_total",
		Help: "Release operations by outcome",
	}, []string{"outcome"})

	// TicketsReserved counts tickets taken from event ledgers.
	TicketsReserved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "asyncaccess_tickets_reserved_total",
		Help: "Tickets successfully reserved",
	})

	// TicketsReleased counts tickets returned to event ledgers.
	TicketsReleased = promauto.NewCounter(prometheus.CounterOpts{
		Name: "asyncaccess_tickets_released_total",
		Help: "Tickets returned by cancellations and cascades",
	})

	// CascadeBookingsDeleted counts registry rows purged by cascade release.
	CascadeBookingsDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "asyncaccess_cascade_bookings_deleted_total",
		Help: "Booking rows deleted by cascade release",
	})

	// RequestDuration observes HTTP request latency.
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "asyncaccess_http_request_duration_seconds",
		Help:    "HTTP request latency by method, route and status",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// Handler returns the /metrics scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
