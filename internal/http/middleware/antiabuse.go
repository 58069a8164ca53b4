package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-messenger-backend/internal/guard"
)

// ClientAddr resolves the client network address: the first X-Forwarded-For
// entry, then X-Real-IP, then gin's ClientIP. Forwarding headers are taken at
// face value, so the result is only as trustworthy as the proxy in front.
func ClientAddr(c *gin.Context) string {
	if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if xr := strings.TrimSpace(c.GetHeader("X-Real-IP")); xr != "" {
		return xr
	}
	return c.ClientIP()
}

var guardMessages = map[string]string{
	guard.CodeRateLimitExceeded: "too many requests; address temporarily blocked",
	guard.CodeRateLimitMinute:   "per-minute request limit exceeded",
	guard.CodeIPBlocked:         "address blocked for suspicious activity",
}

// AntiAbuse runs every request through g. Admitted requests carry the
// X-RateLimit-* quota headers; rejected ones get 429 with Retry-After and a
// body that adds retry_after (seconds) to the usual error envelope.
//
// addrFn defaults to ClientAddr.
func AntiAbuse(g *guard.Guard, addrFn func(*gin.Context) string) gin.HandlerFunc {
	if addrFn == nil {
		addrFn = ClientAddr
	}
	return func(c *gin.Context) {
		d := g.Check(addrFn(c), time.Now())
		if d.Allowed() {
			h := c.Writer.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			h.Set("X-RateLimit-Reset", d.Reset.UTC().Format(time.RFC3339))
			c.Next()
			return
		}

		secs := d.RetryAfterSeconds()
		c.Header("Retry-After", strconv.Itoa(secs))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"request_id":  c.Writer.Header().Get(requestIDHeader),
			"code":        d.Code,
			"message":     guardMessages[d.Code],
			"retry_after": secs,
		})
	}
}
