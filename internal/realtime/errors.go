package realtime

import "errors"

// Errors returned by Engine operations and reported to clients as error
// events. Store failures are passed through wrapped and surface as
// internal_error.
var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrContentTooLong   = errors.New("content too long")
	ErrUserNotFound     = errors.New("user not found")
	ErrChatNotFound     = errors.New("chat not found")
	ErrMessageNotFound  = errors.New("message not found")
	ErrNotParticipant   = errors.New("not a chat participant")
	ErrAlreadyAnnounced = errors.New("connection already announced as another user")
	ErrNotAnnounced     = errors.New("presence not announced")
	ErrForbidden        = errors.New("identity does not match the authenticated user")
	ErrThrottled        = errors.New("too many events")
	ErrUnknownEvent     = errors.New("unknown event")
)

// Error codes carried by error events.
const (
	CodeInvalidInput    = "invalid_input"
	CodeContentTooLong  = "content_too_long"
	CodeUserNotFound    = "user_not_found"
	CodeChatNotFound    = "chat_not_found"
	CodeMessageNotFound = "message_not_found"
	CodeForbidden       = "forbidden"
	CodeNotAnnounced    = "not_announced"
	CodeTooManyRequests = "too_many_requests"
	CodeUnknownEvent    = "unknown_event"
	CodeInternal        = "internal_error"
)

// ErrorCode maps err to the code sent to clients.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return CodeInvalidInput
	case errors.Is(err, ErrContentTooLong):
		return CodeContentTooLong
	case errors.Is(err, ErrUserNotFound):
		return CodeUserNotFound
	case errors.Is(err, ErrChatNotFound):
		return CodeChatNotFound
	case errors.Is(err, ErrMessageNotFound):
		return CodeMessageNotFound
	case errors.Is(err, ErrNotParticipant), errors.Is(err, ErrForbidden), errors.Is(err, ErrAlreadyAnnounced):
		return CodeForbidden
	case errors.Is(err, ErrNotAnnounced):
		return CodeNotAnnounced
	case errors.Is(err, ErrThrottled):
		return CodeTooManyRequests
	case errors.Is(err, ErrUnknownEvent):
		return CodeUnknownEvent
	default:
		return CodeInternal
	}
}

// isClientError reports whether err is a policy or validation rejection as
// opposed to a store or transport failure.
func isClientError(err error) bool {
	return ErrorCode(err) != CodeInternal
}
