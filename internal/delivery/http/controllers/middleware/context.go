package middleware

import (
	"EduForge/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	ClientIDCtx    = "client_id"
	ClientRolesCtx = "client_roles"
	ClientUserCtx  = "client_user"
	RequestIDCtx   = "request_id"
)

// ClientID returns the id stored by AuthMiddleware.
func ClientID(c *gin.Context) (uuid.UUID, bool) {
	raw, exists := c.Get(ClientIDCtx)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := raw.(uuid.UUID)
	return id, ok
}

// Client returns the authenticated user without the password hash.
func Client(c *gin.Context) (models.User, bool) {
	raw, exists := c.Get(ClientUserCtx)
	if !exists {
		return models.User{}, false
	}
	user, ok := raw.(models.User)
	return user, ok
}

func RequestID(c *gin.Context) string {
	return c.GetString(RequestIDCtx)
}
