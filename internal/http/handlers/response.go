// Package handlers provides the HTTP handlers of the messenger API: chats,
// message history, administration and the WebSocket upgrade.
//
// Every failure is written as an ErrorResponse with a stable code:
//
//	HTTP/1.1 404 Not Found
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "chat_not_found",
//	  "message": "chat not found"
//	}
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-messenger-backend/internal/http/middleware"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"chat_not_found"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"chat not found"`
}

// RateLimitResponse is the 429 body written by the abuse guard.
type RateLimitResponse struct {
	RequestID  string `json:"request_id,omitempty"`
	Code       string `json:"code" example:"RATE_LIMIT_MINUTE"`
	Message    string `json:"message" example:"per-minute request limit exceeded"`
	RetryAfter int    `json:"retry_after" example:"60"`
}

// SuccessResponse acknowledges an operation without a resource body.
type SuccessResponse struct {
	Success bool `json:"success" example:"true"`
}

// fail aborts with an ErrorResponse. 5xx responses are logged with the
// request-scoped logger.
func fail(c *gin.Context, status int, code, msg string) {
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
	})
}

// failErr classifies a service error and writes it. The cause of an
// unclassified error is logged but not returned to the client.
func failErr(c *gin.Context, err error) {
	status, code, msg := classify(err)
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().Err(err).Msg("request failed")
	}
	fail(c, status, code, msg)
}

// Fail is the exported variant of fail for use by the router.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
