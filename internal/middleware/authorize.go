package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"catatuang/api/internal/roles"
)

// RequireCapability gates a route on the live session's role holding
// the capability. The role is resolved on every request; a session
// installed after a re-login carries its own role snapshot.
func RequireCapability(capability roles.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := CurrentSession(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		if !roles.Can(sess.Role, capability) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}

		c.Next()
	}
}
