// Package errors defines the domain error taxonomy for the inventory core.
// Services wrap these with call-site context via fmt.Errorf and %w; handlers
// unwrap them with errors.Is to pick HTTP status codes.
package errors

import "errors"

// ErrNotFound is returned when a referenced entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrInvalidState is returned when the operation is not permitted in the
// entity's current lifecycle state (event not accepting bookings, booking
// already cancelled).
var ErrInvalidState = errors.New("invalid state")

// ErrConflict is returned when the user already holds an active booking for
// the event.
var ErrConflict = errors.New("active booking already exists")

// ErrInsufficientInventory is returned when the requested quantity exceeds
// the event's remaining availability.
var ErrInsufficientInventory = errors.New("insufficient tickets available")

// ErrForbidden is returned when the caller does not own the target resource.
var ErrForbidden = errors.New("operation is forbidden for user")

// IsDomain reports whether err belongs to the taxonomy above. Anything else
// is an internal storage or infrastructure failure.
func IsDomain(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInvalidState) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrInsufficientInventory) ||
		errors.Is(err, ErrForbidden)
}
