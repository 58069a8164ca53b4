// Package services defines the business logic for chats, message history and
// administration. This file centralizes common service-level error values so
// that they can be consistently returned by service methods and checked by
// callers.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer.
package services

import "errors"

// Chat-related errors.
var (
	// ErrChatNotFound indicates that the requested chat does not exist or is not
	// accessible to the current user.
	ErrChatNotFound = errors.New("chat not found")

	// ErrInvalidParticipant is returned when a chat is requested with a missing
	// counterpart or with the caller themself.
	ErrInvalidParticipant = errors.New("participant must be another user")

	// ErrUserNotFound is returned when the requested counterpart does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrNoChatsSelected is returned by a selective delete without chat IDs.
	ErrNoChatsSelected = errors.New("no chats selected")
)

// Administration errors.
var (
	// ErrInvalidAdmin is returned when an admin is missing its address or name,
	// or the address does not parse.
	ErrInvalidAdmin = errors.New("admin requires a valid ip and a name")

	// ErrAdminExists is returned when an active admin already uses the address.
	ErrAdminExists = errors.New("admin with this ip already exists")

	// ErrAdminNotFound is returned when deactivating an unknown admin.
	ErrAdminNotFound = errors.New("admin not found")

	// ErrInvalidCountry is returned for a malformed country code or missing name.
	ErrInvalidCountry = errors.New("country requires a 2-3 letter code and a name")

	// ErrCountryAlreadyBlocked is returned when the code is already blocked.
	ErrCountryAlreadyBlocked = errors.New("country is already blocked")

	// ErrCountryNotFound is returned when unblocking an unknown entry.
	ErrCountryNotFound = errors.New("blocked country not found")
)
