// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Message
// model.
//
// Functions take a *gorm.DB that is usually the transaction handle handed out
// by Store.Update; callers attach the context with db.WithContext.
package repo

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-messenger-backend/internal/domain"
)

// CreateMessage inserts a new message with status sent and the sender as its
// only reader.
func CreateMessage(db *gorm.DB, chatID, senderID, content string, typ domain.MessageType) (*domain.Message, error) {
	m := &domain.Message{
		ID:        uuid.NewString(),
		ChatID:    chatID,
		SenderID:  senderID,
		Content:   content,
		Type:      typ,
		CreatedAt: time.Now().UTC(),
		Status:    domain.StatusSent,
		ReadBy:    []string{senderID},
	}
	return m, db.Create(m).Error
}

// GetMessage fetches a message by ID, or ErrNotFound.
func GetMessage(db *gorm.DB, id string) (*domain.Message, error) {
	var m domain.Message
	if err := db.Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// SaveMessageReadBy persists the reader set and status of m.
func SaveMessageReadBy(db *gorm.DB, m *domain.Message) error {
	res := db.Model(&domain.Message{}).
		Where("id = ?", m.ID).
		Select("read_by", "status").
		Updates(&domain.Message{ReadBy: m.ReadBy, Status: m.Status})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListMessages returns the messages of a chat in chronological order. A
// non-positive limit returns all of them.
func ListMessages(db *gorm.DB, chatID string, limit int) ([]domain.Message, error) {
	var out []domain.Message
	q := db.Where("chat_id = ?", chatID).Order("created_at ASC, id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

// CountMessages returns the number of messages in a chat.
func CountMessages(db *gorm.DB, chatID string) (int64, error) {
	var total int64
	err := db.Raw("SELECT COUNT(*) FROM messages WHERE chat_id = ?", chatID).Scan(&total).Error
	return total, err
}

// ListMessagesPage returns one page of a chat's messages in chronological order.
func ListMessagesPage(db *gorm.DB, chatID string, offset, limit int) ([]domain.Message, error) {
	var out []domain.Message
	err := db.
		Where("chat_id = ?", chatID).
		Order("created_at ASC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// DeleteMessagesByChat removes every message belonging to the given chats.
func DeleteMessagesByChat(db *gorm.DB, chatIDs []string) (int64, error) {
	if len(chatIDs) == 0 {
		return 0, nil
	}
	res := db.Where("chat_id IN ?", chatIDs).Delete(&domain.Message{})
	return res.RowsAffected, res.Error
}
