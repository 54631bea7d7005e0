package integration

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthEndpoint(t *testing.T) {
	e := setup(t)

	resp, err := http.Get(e.client.BaseURL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestEventLifecycle(t *testing.T) {
	e := setup(t)

	eventID := e.newApprovedEvent(t, 25)

	events := e.client.ListEvents(t, e.user)
	AssertEventExists(t, events, eventID)

	available := e.client.GetAvailability(t, e.user, eventID)
	assert.Equal(t, 25, available)

	result := e.client.DeleteEvent(t, e.organizer, eventID)
	assert.Equal(t, int64(0), result.DeletedBookingCount)

	events = e.client.ListEvents(t, e.user)
	for _, event := range events {
		assert.NotEqual(t, eventID, event.ID, "deleted event still listed")
	}
}

func TestAuthRequired(t *testing.T) {
	e := setup(t)

	resp, err := http.Get(e.client.BaseURL + "/api/events")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRoleEnforcement(t *testing.T) {
	e := setup(t)

	eventID := e.newApprovedEvent(t, 10)
	defer e.client.DeleteEvent(t, e.organizer, eventID)

	// A regular user may not approve events
	resp := e.client.makeRequest(t, "PATCH",
		"/api/events/1/status", e.user, map[string]string{"status": "approved"})
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
