package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kevinhe012597/calendar-analytics/internal/dto"
	"github.com/kevinhe012597/calendar-analytics/internal/repository"
)

// listCalendars handles GET /api/calendars
// @Summary List calendars
// @Description List the active calendars of the current user
// @Tags calendars
// @Produce json
// @Success 200 {array} domain.Calendar
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/calendars [get]
func (h *Handler) listCalendars(c *gin.Context) {
	user := currentUser(c)

	calendars, err := h.calendarService.List(c.Request.Context(), user.ID)
	if err != nil {
		h.respondError(c, "Failed to list calendars", err, zap.String("user_id", user.ID))
		return
	}

	c.JSON(http.StatusOK, calendars)
}

// createCalendar handles POST /api/calendars
// @Summary Create a calendar
// @Tags calendars
// @Accept json
// @Produce json
// @Param calendar body dto.CreateCalendarRequest true "Calendar data"
// @Success 201 {object} domain.Calendar
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/calendars [post]
func (h *Handler) createCalendar(c *gin.Context) {
	var req dto.CreateCalendarRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid calendar request", err)
		return
	}

	user := currentUser(c)
	calendar, err := h.calendarService.Create(c.Request.Context(), user.ID, &req)
	if err != nil {
		h.respondError(c, "Failed to create calendar", err, zap.String("user_id", user.ID))
		return
	}

	c.JSON(http.StatusCreated, calendar)
}

// updateCalendar handles PUT /api/calendars/:id
// @Summary Update a calendar
// @Description Change the fields present in the body
// @Tags calendars
// @Accept json
// @Produce json
// @Param id path string true "Calendar ID"
// @Param calendar body dto.UpdateCalendarRequest true "Fields to change"
// @Success 200 {object} domain.Calendar
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/calendars/{id} [put]
func (h *Handler) updateCalendar(c *gin.Context) {
	var req dto.UpdateCalendarRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid calendar update request", err)
		return
	}

	user := currentUser(c)
	calendarID := c.Param("id")
	calendar, err := h.calendarService.Update(c.Request.Context(), user.ID, calendarID, &req)
	if err != nil {
		h.respondError(c, "Failed to update calendar", err, zap.String("calendar_id", calendarID))
		return
	}

	c.JSON(http.StatusOK, calendar)
}

// deleteCalendar handles DELETE /api/calendars/:id
// @Summary Delete a calendar
// @Description Deactivate a calendar; its events stay stored
// @Tags calendars
// @Produce json
// @Param id path string true "Calendar ID"
// @Success 200 {object} dto.SuccessResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/calendars/{id} [delete]
func (h *Handler) deleteCalendar(c *gin.Context) {
	user := currentUser(c)
	calendarID := c.Param("id")

	if err := h.calendarService.Delete(c.Request.Context(), user.ID, calendarID); err != nil {
		h.respondError(c, "Failed to delete calendar", err, zap.String("calendar_id", calendarID))
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true})
}

// listCalendarEvents handles GET /api/calendars/:id/events
// @Summary List calendar events
// @Tags calendars
// @Produce json
// @Param id path string true "Calendar ID"
// @Param startDate query string false "Keep events starting at or after this RFC 3339 instant" example:"2025-01-06T00:00:00Z"
// @Param endDate query string false "Keep events ending at or before this RFC 3339 instant" example:"2025-01-13T00:00:00Z"
// @Success 200 {array} domain.CalendarEvent
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/calendars/{id}/events [get]
func (h *Handler) listCalendarEvents(c *gin.Context) {
	var query dto.ListEventsQuery

	if err := c.ShouldBindQuery(&query); err != nil {
		h.badRequest(c, "Invalid event range", err)
		return
	}

	user := currentUser(c)
	calendarID := c.Param("id")
	events, err := h.eventService.ListForCalendar(c.Request.Context(), user.ID, calendarID, eventQuery(query))
	if err != nil {
		h.respondError(c, "Failed to list calendar events", err, zap.String("calendar_id", calendarID))
		return
	}

	c.JSON(http.StatusOK, events)
}

// importCalendar handles POST /api/calendars/:id/import
// @Summary Import an ICS feed
// @Description Fetch a feed by URL or read it inline and upsert its occurrences
// @Tags calendars
// @Accept json
// @Produce json
// @Param id path string true "Calendar ID"
// @Param feed body dto.ImportCalendarRequest true "Feed URL or inline ICS"
// @Success 200 {object} dto.ImportResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/calendars/{id}/import [post]
func (h *Handler) importCalendar(c *gin.Context) {
	var req dto.ImportCalendarRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid import request", err)
		return
	}

	user := currentUser(c)
	calendarID := c.Param("id")
	response, err := h.importService.Import(c.Request.Context(), user.ID, calendarID, &req)
	if err != nil {
		h.respondError(c, "Failed to import calendar", err, zap.String("calendar_id", calendarID))
		return
	}

	c.JSON(http.StatusOK, response)
}

func eventQuery(query dto.ListEventsQuery) repository.EventQuery {
	return repository.EventQuery{
		From: query.StartDate,
		To:   query.EndDate,
	}
}
