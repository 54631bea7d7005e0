package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	apperrors "asyncaccess/internal/errors"
	"asyncaccess/internal/middleware"
	"asyncaccess/internal/models"
	"asyncaccess/internal/repository"
	"asyncaccess/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	router *gin.Engine
	store  *repository.MemoryStore
}

// authAs stands in for BasicAuth in tests: the user is injected directly
// into the request context.
func authAs(userID int64, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(
			middleware.ContextWithUser(c.Request.Context(), userID, role))
		c.Next()
	}
}

func setupEnv(userID int64, role string) *testEnv {
	gin.SetMode(gin.TestMode)

	store := repository.NewMemoryStore()
	inventory := service.NewInventoryService(store, store.Bookings(), store.Events(), nil, service.Options{})
	services := &service.Services{
		Inventory: inventory,
		Events:    service.NewEventService(store.Events(), inventory, nil, nil),
		Users:     service.NewUserService(store.Users(), inventory, nil),
	}
	h := NewHandlers(services)

	r := gin.New()
	api := r.Group("/api")
	api.Use(authAs(userID, role))
	{
		events := api.Group("/events")
		{
			events.GET("", h.ListEvents)
			events.POST("", h.CreateEvent)
			events.GET("/:id/availability", h.GetAvailability)
			events.PATCH("/:id/status", h.UpdateEventStatus)
			events.DELETE("/:id", h.DeleteEvent)
		}

		bookings := api.Group("/bookings")
		{
			bookings.POST("", h.CreateBooking)
			bookings.GET("", h.ListBookings)
			bookings.PATCH("/cancel", h.CancelBooking)
		}

		api.DELETE("/users/:id", h.DeleteUser)
	}

	return &testEnv{router: r, store: store}
}

func (e *testEnv) seedEvent(t *testing.T, organizerID int64, total int, status string) *models.Event {
	t.Helper()
	event := &models.Event{
		OrganizerID:  organizerID,
		Title:        "Jazz Night",
		EventDate:    time.Now().Add(48 * time.Hour),
		TicketPrice:  1500,
		TotalTickets: total,
		Status:       status,
	}
	require.NoError(t, e.store.Events().Create(context.Background(), event))
	return event
}

func (e *testEnv) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestCreateBooking(t *testing.T) {
	env := setupEnv(2, models.RoleUser)
	event := env.seedEvent(t, 1, 10, models.EventStatusApproved)

	w := env.do("POST", "/api/bookings", models.CreateBookingRequest{
		EventID:         event.ID,
		NumberOfTickets: 3,
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	var booking models.Booking
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &booking))
	assert.Equal(t, models.BookingStatusConfirmed, booking.Status)
	assert.Equal(t, int64(4500), booking.TotalPrice)
}

func TestCreateBookingErrors(t *testing.T) {
	env := setupEnv(2, models.RoleUser)
	event := env.seedEvent(t, 1, 5, models.EventStatusApproved)
	pending := env.seedEvent(t, 1, 5, models.EventStatusPending)

	// Unknown event
	w := env.do("POST", "/api/bookings", models.CreateBookingRequest{EventID: 999, NumberOfTickets: 1})
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Not yet approved
	w = env.do("POST", "/api/bookings", models.CreateBookingRequest{EventID: pending.ID, NumberOfTickets: 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// More than remain
	w = env.do("POST", "/api/bookings", models.CreateBookingRequest{EventID: event.ID, NumberOfTickets: 6})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Second active booking for the same event
	w = env.do("POST", "/api/bookings", models.CreateBookingRequest{EventID: event.ID, NumberOfTickets: 2})
	require.Equal(t, http.StatusCreated, w.Code)
	w = env.do("POST", "/api/bookings", models.CreateBookingRequest{EventID: event.ID, NumberOfTickets: 1})
	assert.Equal(t, http.StatusConflict, w.Code)

	// Malformed body
	w = env.do("POST", "/api/bookings", map[string]any{"event_id": event.ID})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCancelBooking(t *testing.T) {
	env := setupEnv(2, models.RoleUser)
	event := env.seedEvent(t, 1, 10, models.EventStatusApproved)

	w := env.do("POST", "/api/bookings", models.CreateBookingRequest{EventID: event.ID, NumberOfTickets: 4})
	require.Equal(t, http.StatusCreated, w.Code)
	var booking models.Booking
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &booking))

	w = env.do("PATCH", "/api/bookings/cancel", models.CancelBookingRequest{BookingID: booking.ID})
	assert.Equal(t, http.StatusOK, w.Code)

	// Cancelling again is rejected
	w = env.do("PATCH", "/api/bookings/cancel", models.CancelBookingRequest{BookingID: booking.ID})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Unknown booking
	w = env.do("PATCH", "/api/bookings/cancel", models.CancelBookingRequest{BookingID: 999})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do("GET", "/api/events/"+strconv.FormatInt(event.ID, 10)+"/availability", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var avail models.AvailabilityResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &avail))
	assert.Equal(t, 10, avail.AvailableTickets)
}

func TestCancelBookingForbidden(t *testing.T) {
	owner := setupEnv(2, models.RoleUser)
	event := owner.seedEvent(t, 1, 10, models.EventStatusApproved)

	w := owner.do("POST", "/api/bookings", models.CreateBookingRequest{EventID: event.ID, NumberOfTickets: 1})
	require.Equal(t, http.StatusCreated, w.Code)
	var booking models.Booking
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &booking))

	// Same store, different authenticated user
	other := &testEnv{store: owner.store}
	gin.SetMode(gin.TestMode)
	inventory := service.NewInventoryService(owner.store, owner.store.Bookings(), owner.store.Events(), nil, service.Options{})
	services := &service.Services{
		Inventory: inventory,
		Events:    service.NewEventService(owner.store.Events(), inventory, nil, nil),
		Users:     service.NewUserService(owner.store.Users(), inventory, nil),
	}
	h := NewHandlers(services)
	r := gin.New()
	r.PATCH("/api/bookings/cancel", authAs(3, models.RoleUser), h.CancelBooking)
	other.router = r

	w = other.do("PATCH", "/api/bookings/cancel", models.CancelBookingRequest{BookingID: booking.ID})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestListBookings(t *testing.T) {
	env := setupEnv(2, models.RoleUser)
	event := env.seedEvent(t, 1, 10, models.EventStatusApproved)

	// No bookings yet
	w := env.do("GET", "/api/bookings", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do("POST", "/api/bookings", models.CreateBookingRequest{EventID: event.ID, NumberOfTickets: 2})
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do("GET", "/api/bookings", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var items []models.ListBookingsResponseItem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
	require.Len(t, items, 1)
	assert.Equal(t, "Jazz Night", items[0].Event.Title)
	assert.Equal(t, 2, items[0].NumberOfTickets)
}

func TestGetAvailability(t *testing.T) {
	env := setupEnv(2, models.RoleUser)
	event := env.seedEvent(t, 1, 10, models.EventStatusApproved)

	w := env.do("GET", "/api/events/"+strconv.FormatInt(event.ID, 10)+"/availability", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var avail models.AvailabilityResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &avail))
	assert.Equal(t, 10, avail.AvailableTickets)

	w = env.do("GET", "/api/events/999/availability", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do("GET", "/api/events/abc/availability", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateEvent(t *testing.T) {
	env := setupEnv(7, models.RoleOrganizer)

	w := env.do("POST", "/api/events", models.CreateEventRequest{
		Title:        "Open Air",
		EventDate:    time.Now().Add(72 * time.Hour).Format(time.RFC3339),
		TicketPrice:  3000,
		TotalTickets: 200,
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	var resp models.CreateEventResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.ID)

	// New events are pending, so the public list is still empty
	w = env.do("GET", "/api/events", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var list []models.ListEventsResponseItem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Empty(t, list)
}

func TestUpdateEventStatus(t *testing.T) {
	env := setupEnv(9, models.RoleAdmin)
	event := env.seedEvent(t, 1, 10, models.EventStatusPending)

	w := env.do("PATCH", "/api/events/"+strconv.FormatInt(event.ID, 10)+"/status",
		models.UpdateEventStatusRequest{Status: models.EventStatusApproved})
	assert.Equal(t, http.StatusOK, w.Code)

	var updated models.Event
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, models.EventStatusApproved, updated.Status)

	w = env.do("PATCH", "/api/events/999/status",
		models.UpdateEventStatusRequest{Status: models.EventStatusApproved})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do("PATCH", "/api/events/"+strconv.FormatInt(event.ID, 10)+"/status",
		map[string]string{"status": "bogus"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteEvent(t *testing.T) {
	env := setupEnv(7, models.RoleOrganizer)
	event := env.seedEvent(t, 7, 10, models.EventStatusApproved)

	// Book as another user through a service bound to the same store
	inventory := service.NewInventoryService(env.store, env.store.Bookings(), env.store.Events(), nil, service.Options{})
	_, err := inventory.Reserve(context.Background(), 2, event.ID, 3)
	require.NoError(t, err)

	w := env.do("DELETE", "/api/events/"+strconv.FormatInt(event.ID, 10), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var result models.EventCascadeResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, int64(1), result.DeletedBookingCount)

	gone, err := env.store.Events().GetByID(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestDeleteEventForbidden(t *testing.T) {
	env := setupEnv(7, models.RoleOrganizer)
	event := env.seedEvent(t, 8, 10, models.EventStatusApproved)

	w := env.do("DELETE", "/api/events/"+strconv.FormatInt(event.ID, 10), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestDeleteUser(t *testing.T) {
	env := setupEnv(9, models.RoleAdmin)
	event := env.seedEvent(t, 1, 10, models.EventStatusApproved)

	user := &models.User{Email: "user@example.com", Role: models.RoleUser}
	require.NoError(t, env.store.Users().Create(context.Background(), user))

	inventory := service.NewInventoryService(env.store, env.store.Bookings(), env.store.Events(), nil, service.Options{})
	_, err := inventory.Reserve(context.Background(), user.ID, event.ID, 4)
	require.NoError(t, err)

	w := env.do("DELETE", "/api/users/"+strconv.FormatInt(user.ID, 10), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var result models.UserCascadeResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, int64(1), result.EventsUpdated)
	assert.Equal(t, int64(1), result.BookingsDeleted)

	after, err := env.store.Events().GetByID(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, after.BookedTickets)

	w = env.do("DELETE", "/api/users/999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStatusForError(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, StatusForError(apperrors.ErrNotFound))
	assert.Equal(t, http.StatusBadRequest, StatusForError(apperrors.ErrInvalidState))
	assert.Equal(t, http.StatusBadRequest, StatusForError(apperrors.ErrInsufficientInventory))
	assert.Equal(t, http.StatusConflict, StatusForError(apperrors.ErrConflict))
	assert.Equal(t, http.StatusForbidden, StatusForError(apperrors.ErrForbidden))
	assert.Equal(t, http.StatusInternalServerError, StatusForError(assert.AnError))
}
