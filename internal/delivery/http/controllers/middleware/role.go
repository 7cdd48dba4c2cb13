package middleware

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
)

// RequireRoles lets the request through when the client holds any of
// allowedRoles. It must run after AuthMiddleware.
func RequireRoles(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, exists := c.Get(ClientRolesCtx)
		if !exists {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "roles not found"})
			return
		}
		roles, ok := raw.([]string)
		if !ok {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "invalid roles format"})
			return
		}
		if slices.ContainsFunc(roles, func(r string) bool { return slices.Contains(allowedRoles, r) }) {
			c.Next()
			return
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient permissions", "required_roles": allowedRoles})
	}
}
