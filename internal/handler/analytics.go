package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kevinhe012597/calendar-analytics/internal/dto"
)

// getAnalytics handles GET /api/analytics
// @Summary Get analytics
// @Description Hours per category and per weekday over the analytics window
// @Tags analytics
// @Produce json
// @Success 200 {object} analytics.Snapshot
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/analytics [get]
func (h *Handler) getAnalytics(c *gin.Context) {
	user := currentUser(c)

	snapshot, err := h.analyticsService.GetSnapshot(c.Request.Context(), user.ID)
	if err != nil {
		h.respondError(c, "Failed to compute analytics", err, zap.String("user_id", user.ID))
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// getHistory handles GET /api/analytics/history
// @Summary Get analytics history
// @Description Hours from the change history, optionally grouped by category or day
// @Tags analytics
// @Produce json
// @Param from query int true "Start timestamp (Unix epoch)" example:"1735689600"
// @Param to query int true "End timestamp (Unix epoch)" example:"1738368000"
// @Param group_by query string false "Field to group by (category, day)" Enums(category, day) example:"category"
// @Success 200 {object} dto.GetHistoryResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /api/analytics/history [get]
func (h *Handler) getHistory(c *gin.Context) {
	var req dto.GetHistoryRequest

	if err := c.ShouldBindQuery(&req); err != nil {
		h.badRequest(c, "Invalid history request", err)
		return
	}

	user := currentUser(c)
	response, err := h.analyticsService.GetHistory(c.Request.Context(), user.ID, &req)
	if err != nil {
		h.respondError(c, "Failed to get history", err,
			zap.Int64("from", req.From),
			zap.Int64("to", req.To),
			zap.String("group_by", req.GroupBy))
		return
	}

	h.log.Info("History retrieved",
		zap.String("user_id", user.ID),
		zap.Float64("total_hours", response.TotalHours),
		zap.Uint64("events_count", response.EventsCount))

	c.JSON(http.StatusOK, response)
}
