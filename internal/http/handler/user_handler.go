package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/andeslabs/bancora/internal/http/middleware"
	"github.com/andeslabs/bancora/internal/service"
)

// UserHandler exposes the authenticated user profile.
type UserHandler struct {
	sessions *service.SessionService
}

// NewUserHandler wires the handler.
func NewUserHandler(sessions *service.SessionService) *UserHandler {
	return &UserHandler{sessions: sessions}
}

// Me returns the profile of the authenticated user.
func (h *UserHandler) Me(c *gin.Context) {
	subject, ok := middleware.Subject(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Invalid authentication credentials"})
		return
	}

	user, err := h.sessions.CurrentUser(c.Request.Context(), subject)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newUserResponse(user))
}
