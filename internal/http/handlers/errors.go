// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Codes are lowercase snake_case and stable; clients branch on them. The
// abuse guard uses its own upper-case reason codes (RATE_LIMIT_EXCEEDED,
// RATE_LIMIT_MINUTE, IP_BLOCKED) which are emitted by middleware, not here.
package handlers

import (
	"errors"
	"net/http"

	"github.com/tbourn/go-messenger-backend/internal/services"
)

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeForbidden    = "forbidden"
	ErrCodeNotFound     = "not_found"
	ErrCodeConflict     = "conflict"
	ErrCodeRateLimited  = "too_many_requests"
	ErrCodeInternal     = "internal_error"

	// Domain-specific:
	ErrCodeInvalidInput          = "invalid_input"
	ErrCodeUserNotFound          = "user_not_found"
	ErrCodeChatNotFound          = "chat_not_found"
	ErrCodeNoChatsSelected       = "no_chats_selected"
	ErrCodeAdminExists           = "admin_exists"
	ErrCodeAdminNotFound         = "admin_not_found"
	ErrCodeCountryAlreadyBlocked = "country_already_blocked"
	ErrCodeCountryNotFound       = "country_not_found"
	ErrCodeMethodNotAllowed      = "method_not_allowed"
)

// serviceErrors maps service sentinels to their HTTP status and code. The
// sentinel's own text is used as the message.
var serviceErrors = []struct {
	err    error
	status int
	code   string
}{
	{services.ErrInvalidParticipant, http.StatusBadRequest, ErrCodeInvalidInput},
	{services.ErrNoChatsSelected, http.StatusBadRequest, ErrCodeNoChatsSelected},
	{services.ErrInvalidAdmin, http.StatusBadRequest, ErrCodeInvalidInput},
	{services.ErrInvalidCountry, http.StatusBadRequest, ErrCodeInvalidInput},
	{services.ErrAdminExists, http.StatusBadRequest, ErrCodeAdminExists},
	{services.ErrCountryAlreadyBlocked, http.StatusBadRequest, ErrCodeCountryAlreadyBlocked},
	{services.ErrUserNotFound, http.StatusNotFound, ErrCodeUserNotFound},
	{services.ErrChatNotFound, http.StatusNotFound, ErrCodeChatNotFound},
	{services.ErrAdminNotFound, http.StatusNotFound, ErrCodeAdminNotFound},
	{services.ErrCountryNotFound, http.StatusNotFound, ErrCodeCountryNotFound},
}

// classify returns the response for err. Unknown errors become 500
// internal_error with a generic message so store details never leak.
func classify(err error) (status int, code, msg string) {
	for _, m := range serviceErrors {
		if errors.Is(err, m.err) {
			return m.status, m.code, m.err.Error()
		}
	}
	return http.StatusInternalServerError, ErrCodeInternal, "internal server error"
}
