// Package domain defines the persistence models for users, chats, messages,
// admins and blocked countries. These types are mapped with GORM and form the
// core data layer of the messenger backend. JSON names follow the realtime
// wire format consumed by clients (camelCase).
package domain

import (
	"sort"
	"time"
)

// MessageType enumerates the kinds of content a message can carry. Content is
// always an opaque string: raw text, or a reference to uploaded media.
type MessageType string

const (
	MessageText  MessageType = "text"
	MessageImage MessageType = "image"
	MessageVideo MessageType = "video"
	MessageAudio MessageType = "audio"
)

// Valid reports whether t is one of the known message types.
func (t MessageType) Valid() bool {
	switch t {
	case MessageText, MessageImage, MessageVideo, MessageAudio:
		return true
	}
	return false
}

// MessageStatus is the server-authoritative delivery status of a message.
//
// StatusDelivered is part of the wire contract but no handler assigns it;
// messages move straight from sent to read. "sending" and "failed" exist only
// on clients and are never persisted.
type MessageStatus string

const (
	StatusSent      MessageStatus = "sent"
	StatusDelivered MessageStatus = "delivered"
	StatusRead      MessageStatus = "read"
)

// User is a registered account. Presence fields (IsOnline, LastSeen) are
// mutated only by the realtime delivery engine on connect/disconnect.
//
// Fields:
//   - ID: UUID primary key.
//   - Email / Username: unique login identifiers.
//   - PasswordHash: credential hash, never serialized.
//   - Nickname: display name.
//   - IsOnline: presence flag.
//   - LastSeen: time of the last disconnect; nil while online.
type User struct {
	ID             string     `json:"id"             gorm:"type:char(36);primaryKey"`
	Email          string     `json:"email"          gorm:"type:varchar(255);not null;uniqueIndex"`
	Username       string     `json:"username"       gorm:"type:varchar(64);not null;uniqueIndex"`
	PasswordHash   string     `json:"-"              gorm:"type:varchar(255);not null"`
	Nickname       string     `json:"nickname"       gorm:"type:varchar(255)"`
	Avatar         *string    `json:"avatar"`
	RegistrationIP string     `json:"-"              gorm:"type:varchar(64)"`
	IsOnline       bool       `json:"isOnline"       gorm:"not null;default:false;index"`
	LastSeen       *time.Time `json:"lastSeen"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// MessageSnapshot is the denormalized copy of a message stored on its chat
// as lastMessage. It mirrors the Message wire shape without GORM mapping.
type MessageSnapshot struct {
	ID        string        `json:"id"`
	ChatID    string        `json:"chatId"`
	SenderID  string        `json:"senderId"`
	Content   string        `json:"content"`
	Type      MessageType   `json:"type"`
	Timestamp time.Time     `json:"timestamp"`
	Status    MessageStatus `json:"status"`
	ReadBy    []string      `json:"readBy"`
}

// Chat is a one-to-one conversation between exactly two users.
//
// The participant pair is stored canonically (ParticipantLo < ParticipantHi)
// under a unique index, so at most one chat exists per unordered pair.
// Participants keeps the creation order for clients.
type Chat struct {
	ID            string           `json:"id"           gorm:"type:char(36);primaryKey"`
	Participants  []string         `json:"participants" gorm:"serializer:json;type:text;not null"`
	ParticipantLo string           `json:"-"            gorm:"type:char(36);not null;uniqueIndex:ux_chat_pair,priority:1;index:idx_chat_lo"`
	ParticipantHi string           `json:"-"            gorm:"type:char(36);not null;uniqueIndex:ux_chat_pair,priority:2;index:idx_chat_hi"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
	LastMessage   *MessageSnapshot `json:"lastMessage"  gorm:"serializer:json;type:text"`
}

// TableName returns the database table name for Chat.
func (Chat) TableName() string { return "chats" }

// HasParticipant reports whether userID is one of the chat's two members.
func (c *Chat) HasParticipant(userID string) bool {
	return userID != "" && (c.ParticipantLo == userID || c.ParticipantHi == userID)
}

// PairKey returns the canonical (sorted) representation of a participant pair.
func PairKey(a, b string) (lo, hi string) {
	p := []string{a, b}
	sort.Strings(p)
	return p[0], p[1]
}

// Message is a single message within a chat.
//
// ReadBy always contains the sender and only ever grows. Messages are never
// mutated except to add a reader, and are deleted only together with their chat.
type Message struct {
	ID        string        `json:"id"        gorm:"type:char(36);primaryKey"`
	ChatID    string        `json:"chatId"    gorm:"type:char(36);not null;index:idx_chat_msgs,priority:1"`
	SenderID  string        `json:"senderId"  gorm:"type:char(36);not null;index"`
	Content   string        `json:"content"   gorm:"type:text;not null"`
	Type      MessageType   `json:"type"      gorm:"type:varchar(16);not null;default:'text'"`
	CreatedAt time.Time     `json:"timestamp" gorm:"index:idx_chat_msgs,priority:2"`
	Status    MessageStatus `json:"status"    gorm:"type:varchar(16);not null;default:'sent'"`
	ReadBy    []string      `json:"readBy"    gorm:"serializer:json;type:text;not null"`
}

// TableName returns the database table name for Message.
func (Message) TableName() string { return "messages" }

// HasReader reports whether userID already acknowledged the message.
func (m *Message) HasReader(userID string) bool {
	for _, r := range m.ReadBy {
		if r == userID {
			return true
		}
	}
	return false
}

// Snapshot returns the denormalized copy stored on the owning chat.
func (m *Message) Snapshot() *MessageSnapshot {
	return &MessageSnapshot{
		ID:        m.ID,
		ChatID:    m.ChatID,
		SenderID:  m.SenderID,
		Content:   m.Content,
		Type:      m.Type,
		Timestamp: m.CreatedAt,
		Status:    m.Status,
		ReadBy:    append([]string(nil), m.ReadBy...),
	}
}

// Admin grants administrator privilege to requests originating from an exact
// network address. Admins are soft-deleted by clearing Active.
type Admin struct {
	ID        string    `json:"id"        gorm:"type:char(36);primaryKey"`
	IP        string    `json:"ip"        gorm:"type:varchar(64);not null;uniqueIndex"`
	Name      string    `json:"name"      gorm:"type:varchar(255);not null"`
	Active    bool      `json:"active"    gorm:"not null"`
	CreatedAt time.Time `json:"createdAt"`
	CreatedBy string    `json:"createdBy,omitempty" gorm:"type:varchar(64)"`
}

// TableName returns the database table name for Admin.
func (Admin) TableName() string { return "admins" }

// BlockedCountry is a country whose inbound traffic the geo-filter may deny.
type BlockedCountry struct {
	ID        string    `json:"id"        gorm:"type:char(36);primaryKey"`
	Code      string    `json:"code"      gorm:"type:varchar(8);not null;uniqueIndex"`
	Name      string    `json:"name"      gorm:"type:varchar(255);not null"`
	BlockedAt time.Time `json:"blockedAt"`
	BlockedBy string    `json:"blockedBy" gorm:"type:varchar(64)"`
}

// TableName returns the database table name for BlockedCountry.
func (BlockedCountry) TableName() string { return "blocked_countries" }
