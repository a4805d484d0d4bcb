package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kevinhe012597/calendar-analytics/internal/domain"
	"github.com/kevinhe012597/calendar-analytics/internal/dto"
)

const (
	sessionCookie  = "session_id"
	currentUserKey = "current_user"
)

// requireSession resolves the session cookie to a user, issuing a new
// session cookie when the client has none that is valid
func (h *Handler) requireSession(c *gin.Context) {
	token, _ := c.Cookie(sessionCookie)

	resolved, err := h.sessionService.Resolve(c.Request.Context(), token)
	if err != nil {
		h.log.Error("Failed to resolve session", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "internal_error",
			Message: "failed to resolve session",
		})
		return
	}

	if resolved.Issued {
		maxAge := int(time.Until(resolved.Session.ExpiresAt).Seconds())
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(sessionCookie, resolved.Session.Token, maxAge, "/", "", h.secureCookies, true)
	}

	c.Set(currentUserKey, resolved.User)
	c.Next()
}

func currentUser(c *gin.Context) *domain.User {
	return c.MustGet(currentUserKey).(*domain.User)
}

// getCurrentUser handles GET /api/me
// @Summary Current user
// @Description Return the user behind the session cookie
// @Tags session
// @Produce json
// @Success 200 {object} domain.User
// @Router /api/me [get]
func (h *Handler) getCurrentUser(c *gin.Context) {
	c.JSON(http.StatusOK, currentUser(c))
}
