package handlers

import (
	"net/http"
	"strconv"

	"asyncaccess/internal/middleware"
	"asyncaccess/internal/models"

	"github.com/gin-gonic/gin"
)

// CreateEvent - POST /api/events
// Creates a pending event owned by the authenticated organizer.
func (h *Handlers) CreateEvent(c *gin.Context) {
	var req models.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	organizerID, ok := middleware.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	event, err := h.services.Events.Create(c.Request.Context(), organizerID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.CreateEventResponse{ID: event.ID})
}

// ListEvents - GET /api/events
// Public list of approved events, optional title query.
func (h *Handlers) ListEvents(c *gin.Context) {
	query := c.Query("query")

	events, err := h.services.Events.ListPublic(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, events)
}

// ListMyEvents - GET /api/events/my
// Events owned by the authenticated organizer, all statuses.
func (h *Handlers) ListMyEvents(c *gin.Context) {
	organizerID, ok := middleware.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	events, err := h.services.Events.ListByOrganizer(c.Request.Context(), organizerID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, events)
}

// UpdateEventStatus - PATCH /api/events/:id/status
// Admin approval gate.
func (h *Handlers) UpdateEventStatus(c *gin.Context) {
	eventID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	var req models.UpdateEventStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event, err := h.services.Events.UpdateStatus(c.Request.Context(), eventID, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, event)
}

// DeleteEvent - DELETE /api/events/:id
// Cascades release of the event's bookings, then removes the event.
func (h *Handlers) DeleteEvent(c *gin.Context) {
	eventID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	userID, ok := middleware.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	role, _ := middleware.UserRoleFromContext(c.Request.Context())

	requester := &models.User{ID: userID, Role: role}

	result, err := h.services.Events.Delete(c.Request.Context(), eventID, requester)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
