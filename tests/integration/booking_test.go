package integration

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookingFlow(t *testing.T) {
	e := setup(t)

	eventID := e.newApprovedEvent(t, 20)
	defer e.client.DeleteEvent(t, e.organizer, eventID)

	booking, status := e.client.CreateBooking(t, e.user, eventID, 3)
	require.Equal(t, http.StatusCreated, status)
	require.NotNil(t, booking)
	assert.Equal(t, "CONFIRMED", booking.Status)
	assert.Equal(t, int64(3000), booking.TotalPrice)

	assert.Equal(t, 17, e.client.GetAvailability(t, e.user, eventID))

	items, status := e.client.ListBookings(t, e.user)
	require.Equal(t, http.StatusOK, status)
	found := false
	for _, item := range items {
		if item.ID == booking.ID {
			found = true
			assert.Equal(t, 3, item.NumberOfTickets)
		}
	}
	assert.True(t, found, "created booking missing from list")

	status = e.client.CancelBooking(t, e.user, booking.ID)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, 20, e.client.GetAvailability(t, e.user, eventID))

	// A second cancellation must not move the counter again
	status = e.client.CancelBooking(t, e.user, booking.ID)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, 20, e.client.GetAvailability(t, e.user, eventID))
}

func TestBookingDuplicateRejected(t *testing.T) {
	e := setup(t)

	eventID := e.newApprovedEvent(t, 20)
	defer e.client.DeleteEvent(t, e.organizer, eventID)

	booking, status := e.client.CreateBooking(t, e.user, eventID, 2)
	require.Equal(t, http.StatusCreated, status)

	_, status = e.client.CreateBooking(t, e.user, eventID, 1)
	assert.Equal(t, http.StatusConflict, status)

	// After cancelling, booking the same event again is allowed
	require.Equal(t, http.StatusOK, e.client.CancelBooking(t, e.user, booking.ID))
	booking, status = e.client.CreateBooking(t, e.user, eventID, 1)
	require.Equal(t, http.StatusCreated, status)
	e.client.CancelBooking(t, e.user, booking.ID)
}

func TestBookingOversellRejected(t *testing.T) {
	e := setup(t)

	eventID := e.newApprovedEvent(t, 5)
	defer e.client.DeleteEvent(t, e.organizer, eventID)

	_, status := e.client.CreateBooking(t, e.user, eventID, 6)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, 5, e.client.GetAvailability(t, e.user, eventID))
}

func TestBookingUnknownEvent(t *testing.T) {
	e := setup(t)

	_, status := e.client.CreateBooking(t, e.user, 99999999, 1)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestEventDeleteCascadesBookings(t *testing.T) {
	e := setup(t)

	eventID := e.newApprovedEvent(t, 20)

	_, status := e.client.CreateBooking(t, e.user, eventID, 2)
	require.Equal(t, http.StatusCreated, status)

	result := e.client.DeleteEvent(t, e.organizer, eventID)
	assert.Equal(t, int64(1), result.DeletedBookingCount)
}
