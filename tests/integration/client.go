package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"asyncaccess/internal/models"
)

// Credentials identifies one test account on the target deployment.
type Credentials struct {
	Email    string
	Password string
}

// TestClient drives the HTTP API of a running instance.
type TestClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewTestClient(baseURL string) *TestClient {
	return &TestClient{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *TestClient) makeRequest(t *testing.T, method, path string, creds Credentials, body interface{}) *http.Response {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, reqBody)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}
	req.SetBasicAuth(creds.Email, creds.Password)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}
	return resp
}

func decode(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
}

// CreateEvent creates an event as the given organizer and returns its ID.
func (c *TestClient) CreateEvent(t *testing.T, creds Credentials, req models.CreateEventRequest) int64 {
	resp := c.makeRequest(t, "POST", "/api/events", creds, req)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST /api/events: expected 201, got %d", resp.StatusCode)
	}
	var created models.CreateEventResponse
	decode(t, resp, &created)
	return created.ID
}

// ApproveEvent moves the event to approved status as the given admin.
func (c *TestClient) ApproveEvent(t *testing.T, creds Credentials, eventID int64) {
	path := fmt.Sprintf("/api/events/%d/status", eventID)
	resp := c.makeRequest(t, "PATCH", path, creds, models.UpdateEventStatusRequest{
		Status: models.EventStatusApproved,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("PATCH %s: expected 200, got %d", path, resp.StatusCode)
	}
	resp.Body.Close()
}

// ListEvents returns the public event list.
func (c *TestClient) ListEvents(t *testing.T, creds Credentials) []models.ListEventsResponseItem {
	resp := c.makeRequest(t, "GET", "/api/events", creds, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /api/events: expected 200, got %d", resp.StatusCode)
	}
	var events []models.ListEventsResponseItem
	decode(t, resp, &events)
	return events
}

// GetAvailability returns the event's remaining tickets.
func (c *TestClient) GetAvailability(t *testing.T, creds Credentials, eventID int64) int {
	path := fmt.Sprintf("/api/events/%d/availability", eventID)
	resp := c.makeRequest(t, "GET", path, creds, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s: expected 200, got %d", path, resp.StatusCode)
	}
	var avail models.AvailabilityResponse
	decode(t, resp, &avail)
	return avail.AvailableTickets
}

// CreateBooking reserves tickets and returns the booking or the status code
// on failure.
func (c *TestClient) CreateBooking(t *testing.T, creds Credentials, eventID int64, tickets int) (*models.Booking, int) {
	resp := c.makeRequest(t, "POST", "/api/bookings", creds, models.CreateBookingRequest{
		EventID:         eventID,
		NumberOfTickets: tickets,
	})
	if resp.StatusCode != http.StatusCreated {
		resp.Body.Close()
		return nil, resp.StatusCode
	}
	var booking models.Booking
	decode(t, resp, &booking)
	return &booking, resp.StatusCode
}

// CancelBooking releases a booking and returns the status code.
func (c *TestClient) CancelBooking(t *testing.T, creds Credentials, bookingID int64) int {
	resp := c.makeRequest(t, "PATCH", "/api/bookings/cancel", creds, models.CancelBookingRequest{
		BookingID: bookingID,
	})
	resp.Body.Close()
	return resp.StatusCode
}

// ListBookings returns the caller's bookings; nil with 404 when there are
// none.
func (c *TestClient) ListBookings(t *testing.T, creds Credentials) ([]models.ListBookingsResponseItem, int) {
	resp := c.makeRequest(t, "GET", "/api/bookings", creds, nil)
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, resp.StatusCode
	}
	var items []models.ListBookingsResponseItem
	decode(t, resp, &items)
	return items, resp.StatusCode
}

// DeleteEvent removes an event and returns the cascade result.
func (c *TestClient) DeleteEvent(t *testing.T, creds Credentials, eventID int64) models.EventCascadeResult {
	path := fmt.Sprintf("/api/events/%d", eventID)
	resp := c.makeRequest(t, "DELETE", path, creds, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("DELETE %s: expected 200, got %d", path, resp.StatusCode)
	}
	var result models.EventCascadeResult
	decode(t, resp, &result)
	return result
}
