package integration

import (
	"os"
	"testing"
	"time"

	"asyncaccess/internal/models"
)

// env reads the deployment under test. INTEGRATION_BASE_URL gates the whole
// suite; the credential variables must point at pre-provisioned accounts
// with the matching roles (the generator command creates suitable ones).
type env struct {
	client    *TestClient
	user      Credentials
	organizer Credentials
	admin     Credentials
}

func setup(t *testing.T) *env {
	t.Helper()

	baseURL := os.Getenv("INTEGRATION_BASE_URL")
	if baseURL == "" {
		t.Skip("INTEGRATION_BASE_URL not set, skipping integration tests")
	}

	e := &env{
		client:    NewTestClient(baseURL),
		user:      credsFromEnv(t, "INTEGRATION_USER"),
		organizer: credsFromEnv(t, "INTEGRATION_ORGANIZER"),
		admin:     credsFromEnv(t, "INTEGRATION_ADMIN"),
	}
	return e
}

func credsFromEnv(t *testing.T, prefix string) Credentials {
	t.Helper()
	email := os.Getenv(prefix + "_EMAIL")
	password := os.Getenv(prefix + "_PASSWORD")
	if email == "" || password == "" {
		t.Skipf("%s_EMAIL / %s_PASSWORD not set, skipping", prefix, prefix)
	}
	return Credentials{Email: email, Password: password}
}

// newApprovedEvent creates and approves a fresh event for one test run.
func (e *env) newApprovedEvent(t *testing.T, total int) int64 {
	t.Helper()
	id := e.client.CreateEvent(t, e.organizer, models.CreateEventRequest{
		Title:        "Integration Event " + time.Now().Format("150405.000"),
		EventDate:    time.Now().Add(72 * time.Hour).Format(time.RFC3339),
		TicketPrice:  1000,
		TotalTickets: total,
	})
	e.client.ApproveEvent(t, e.admin, id)
	return id
}

// AssertEventExists checks that an event shows up in the public list.
func AssertEventExists(t *testing.T, events []models.ListEventsResponseItem, eventID int64) {
	t.Helper()
	for _, event := range events {
		if event.ID == eventID {
			return
		}
	}
	t.Fatalf("Event with ID %d not found in events list", eventID)
}
