package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// AdminGate decides whether a client address holds admin privilege.
type AdminGate interface {
	IsAdmin(ctx context.Context, addr string) (bool, error)
}

const isAdminKey = "isAdmin"

// AdminOnly admits only requests whose ClientAddr is an active admin. A gate
// failure is answered with 500 and never treated as a grant.
func AdminOnly(gate AdminGate) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := gate.IsAdmin(c.Request.Context(), ClientAddr(c))
		if err != nil {
			LoggerFrom(c).Error().Err(err).Msg("admin gate lookup failed")
			abortJSON(c, http.StatusInternalServerError, "internal_error", "internal server error")
			return
		}
		if !ok {
			abortJSON(c, http.StatusForbidden, "forbidden", "admin privileges required")
			return
		}
		c.Set(isAdminKey, true)
		c.Next()
	}
}

func abortJSON(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"request_id": c.Writer.Header().Get(requestIDHeader),
		"code":       code,
		"message":    msg,
	})
}
