package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kevinhe012597/calendar-analytics/internal/dto"
)

// listEvents handles GET /api/events
// @Summary List events
// @Description List events across the current user's active calendars
// @Tags events
// @Produce json
// @Param startDate query string false "Keep events starting at or after this RFC 3339 instant" example:"2025-01-06T00:00:00Z"
// @Param endDate query string false "Keep events ending at or before this RFC 3339 instant" example:"2025-01-13T00:00:00Z"
// @Success 200 {array} domain.CalendarEvent
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/events [get]
func (h *Handler) listEvents(c *gin.Context) {
	var query dto.ListEventsQuery

	if err := c.ShouldBindQuery(&query); err != nil {
		h.badRequest(c, "Invalid event range", err)
		return
	}

	user := currentUser(c)
	events, err := h.eventService.ListForUser(c.Request.Context(), user.ID, eventQuery(query))
	if err != nil {
		h.respondError(c, "Failed to list events", err, zap.String("user_id", user.ID))
		return
	}

	c.JSON(http.StatusOK, events)
}

// createEvent handles POST /api/events
// @Summary Create an event
// @Description Classify and store an event
// @Tags events
// @Accept json
// @Produce json
// @Param event body dto.CreateEventRequest true "Event data"
// @Success 201 {object} domain.CalendarEvent
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/events [post]
func (h *Handler) createEvent(c *gin.Context) {
	var req dto.CreateEventRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid event request", err)
		return
	}

	user := currentUser(c)
	event, err := h.eventService.Create(c.Request.Context(), user.ID, &req)
	if err != nil {
		h.respondError(c, "Failed to create event", err,
			zap.String("calendar_id", req.CalendarID),
			zap.String("user_id", user.ID))
		return
	}

	h.log.Info("Event created",
		zap.String("event_id", event.ID),
		zap.String("category", string(event.Category)))

	c.JSON(http.StatusCreated, event)
}

// updateEvent handles PUT /api/events/:id
// @Summary Update an event
// @Description Change the fields present in the body, re-classifying when the text changed
// @Tags events
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param event body dto.UpdateEventRequest true "Fields to change"
// @Success 200 {object} domain.CalendarEvent
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/events/{id} [put]
func (h *Handler) updateEvent(c *gin.Context) {
	var req dto.UpdateEventRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid event update request", err)
		return
	}

	user := currentUser(c)
	eventID := c.Param("id")
	event, err := h.eventService.Update(c.Request.Context(), user.ID, eventID, &req)
	if err != nil {
		h.respondError(c, "Failed to update event", err, zap.String("event_id", eventID))
		return
	}

	c.JSON(http.StatusOK, event)
}

// deleteEvent handles DELETE /api/events/:id
// @Summary Delete an event
// @Tags events
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} dto.SuccessResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/events/{id} [delete]
func (h *Handler) deleteEvent(c *gin.Context) {
	user := currentUser(c)
	eventID := c.Param("id")

	if err := h.eventService.Delete(c.Request.Context(), user.ID, eventID); err != nil {
		h.respondError(c, "Failed to delete event", err, zap.String("event_id", eventID))
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true})
}

// classify handles POST /api/classify
// @Summary Classify text
// @Description Classify a title and description without storing anything
// @Tags events
// @Accept json
// @Produce json
// @Param event body dto.ClassifyRequest true "Text to classify"
// @Success 200 {object} domain.Classification
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/classify [post]
func (h *Handler) classify(c *gin.Context) {
	var req dto.ClassifyRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid classify request", err)
		return
	}

	c.JSON(http.StatusOK, h.eventService.Classify(c.Request.Context(), &req))
}
