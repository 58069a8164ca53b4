package realtime

import (
	"encoding/json"

	"github.com/tbourn/go-messenger-backend/internal/domain"
)

// Event names on the wire.
const (
	// client -> server
	EventAnnouncePresence = "announce-presence"
	EventSendMessage      = "send-message"
	EventMarkRead         = "mark-read"

	// server -> client
	EventPresenceChanged = "presence-changed"
	EventNewMessage      = "new-message"
	EventReadReceipt     = "read-receipt"
	EventError           = "error"
)

// Event is an outbound frame: {"event": "<name>", "data": {...}}.
type Event struct {
	Name string `json:"event"`
	Data any    `json:"data"`
}

// Envelope is an inbound frame whose payload is decoded per event.
type Envelope struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data"`
}

// AnnouncePayload is the data of announce-presence.
type AnnouncePayload struct {
	UserID string `json:"userId"`
}

// SendMessageInput is the data of send-message.
type SendMessageInput struct {
	ChatID   string             `json:"chatId"`
	SenderID string             `json:"senderId"`
	Content  string             `json:"content"`
	Type     domain.MessageType `json:"type,omitempty"`
}

// MarkReadPayload is the data of mark-read.
type MarkReadPayload struct {
	MessageID string `json:"messageId"`
	ReaderID  string `json:"readerId"`
}

// PresencePayload is the data of presence-changed.
type PresencePayload struct {
	UserID   string `json:"userId"`
	IsOnline bool   `json:"isOnline"`
}

// ReadReceiptPayload is the data of read-receipt.
type ReadReceiptPayload struct {
	MessageID string `json:"messageId"`
	ReaderID  string `json:"readerId"`
}

// ErrorPayload is the data of error.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func presenceEvent(userID string, online bool) Event {
	return Event{Name: EventPresenceChanged, Data: PresencePayload{UserID: userID, IsOnline: online}}
}

func errorEvent(err error) Event {
	code := ErrorCode(err)
	msg := err.Error()
	if code == CodeInternal {
		msg = "internal error"
	}
	return Event{Name: EventError, Data: ErrorPayload{Code: code, Message: msg}}
}
