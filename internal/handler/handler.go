package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/kevinhe012597/calendar-analytics/docs"
	"github.com/kevinhe012597/calendar-analytics/internal/dto"
	"github.com/kevinhe012597/calendar-analytics/internal/repository"
	"github.com/kevinhe012597/calendar-analytics/internal/service"
)

// Services bundles the services the HTTP API dispatches to
type Services struct {
	Calendars service.CalendarServicer
	Events    service.EventServicer
	Analytics service.AnalyticsServicer
	Sessions  service.SessionServicer
	Imports   service.ImportServicer
}

// HealthChecker reports whether a backend is reachable
type HealthChecker interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	calendarService  service.CalendarServicer
	eventService     service.EventServicer
	analyticsService service.AnalyticsServicer
	sessionService   service.SessionServicer
	importService    service.ImportServicer
	health           HealthChecker
	secureCookies    bool
	router           *gin.Engine
	log              *zap.Logger
}

func NewHandler(services Services, health HealthChecker, secureCookies bool, log *zap.Logger) *Handler {
	h := &Handler{
		calendarService:  services.Calendars,
		eventService:     services.Events,
		analyticsService: services.Analytics,
		sessionService:   services.Sessions,
		importService:    services.Imports,
		health:           health,
		secureCookies:    secureCookies,
		router:           gin.Default(),
		log:              log,
	}

	h.registerRoutes()

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.router.GET("/health", h.healthCheck)
	h.router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := h.router.Group("/api", h.requireSession)

	api.GET("/me", h.getCurrentUser)

	api.GET("/calendars", h.listCalendars)
	api.POST("/calendars", h.createCalendar)
	api.PUT("/calendars/:id", h.updateCalendar)
	api.DELETE("/calendars/:id", h.deleteCalendar)
	api.GET("/calendars/:id/events", h.listCalendarEvents)
	api.POST("/calendars/:id/import", h.importCalendar)

	api.GET("/events", h.listEvents)
	api.POST("/events", h.createEvent)
	api.PUT("/events/:id", h.updateEvent)
	api.DELETE("/events/:id", h.deleteEvent)

	api.POST("/classify", h.classify)

	api.GET("/analytics", h.getAnalytics)
	api.GET("/analytics/history", h.getHistory)
}

// healthCheck handles GET /health
// @Summary Health check
// @Description Check that the service and its event store are reachable
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /health [get]
func (h *Handler) healthCheck(c *gin.Context) {
	if err := h.health.Ping(c.Request.Context()); err != nil {
		h.log.Error("Health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unavailable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// badRequest rejects a request that could not be bound
func (h *Handler) badRequest(c *gin.Context, msg string, err error) {
	h.log.Warn(msg, zap.Error(err))
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{
		Error:   "validation_error",
		Message: err.Error(),
	})
}

// respondError maps service errors onto status codes
func (h *Handler) respondError(c *gin.Context, msg string, err error, fields ...zap.Field) {
	fields = append(fields, zap.Error(err))

	switch {
	case errors.Is(err, service.ErrValidation):
		h.log.Warn(msg, fields...)
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{
			Error:   "not_found",
			Message: "resource not found",
		})
	case errors.Is(err, service.ErrHistoryUnavailable):
		c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{
			Error:   "unavailable",
			Message: err.Error(),
		})
	default:
		h.log.Error(msg, fields...)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
	}
}
