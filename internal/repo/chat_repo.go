// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Chat model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions opened by Store.Update. They follow the
// "thin repository" approach: no business logic, only CRUD persistence and
// query composition.
//
// Error semantics:
//   - When a chat is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
//
// Usage:
//
//	err := store.Update(ctx, func(tx *gorm.DB) error {
//	    c, err := repo.FindChatByPair(ctx, tx, a, b)
//	    if errors.Is(err, repo.ErrNotFound) {
//	        c, err = repo.CreateChat(ctx, tx, a, b)
//	    }
//	    return err
//	}, repo.Chats)
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-messenger-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// participantScope restricts a chats query to rows userID takes part in.
func participantScope(userID string) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		return q.Where("participant_lo = ? OR participant_hi = ?", userID, userID)
	}
}

// FindChatByPair returns the chat between a and b regardless of argument
// order, or ErrNotFound.
func FindChatByPair(ctx context.Context, db *gorm.DB, a, b string) (*domain.Chat, error) {
	lo, hi := domain.PairKey(a, b)
	var c domain.Chat
	err := db.WithContext(ctx).
		Where("participant_lo = ? AND participant_hi = ?", lo, hi).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateChat inserts a new chat between creator and other. Participants keep
// the given order; the canonical pair columns are derived from it.
// Callers must look up the pair first (see FindChatByPair); a duplicate pair
// fails on the unique index.
func CreateChat(ctx context.Context, db *gorm.DB, creator, other string) (*domain.Chat, error) {
	lo, hi := domain.PairKey(creator, other)
	now := time.Now().UTC()
	c := &domain.Chat{
		ID:            uuid.NewString(),
		Participants:  []string{creator, other},
		ParticipantLo: lo,
		ParticipantHi: hi,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

// GetChat fetches a single chat by its ID. If the record does not exist, it
// returns ErrNotFound.
func GetChat(ctx context.Context, db *gorm.DB, id string) (*domain.Chat, error) {
	var c domain.Chat
	if err := db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// ListChatsForUser returns every chat userID participates in, most recently
// active first.
func ListChatsForUser(ctx context.Context, db *gorm.DB, userID string) ([]domain.Chat, error) {
	var out []domain.Chat
	err := db.WithContext(ctx).
		Scopes(participantScope(userID)).
		Order("updated_at desc, id asc").
		Find(&out).Error
	return out, err
}

// CountChatsForUser returns the number of chats userID participates in.
func CountChatsForUser(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Chat{}).
		Scopes(participantScope(userID)).
		Count(&total).Error
	return total, err
}

// ListChatsPage returns a paginated slice of the user's chats, most recently
// active first. Use CountChatsForUser to obtain the total.
//
// The caller is responsible for computing offset and limit (e.g., (page-1)*pageSize).
func ListChatsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Chat, error) {
	var out []domain.Chat
	err := db.WithContext(ctx).
		Scopes(participantScope(userID)).
		Order("updated_at desc, id asc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// ChatIDsForUser returns the IDs of every chat userID participates in.
func ChatIDsForUser(ctx context.Context, db *gorm.DB, userID string) ([]string, error) {
	var ids []string
	err := db.WithContext(ctx).
		Model(&domain.Chat{}).
		Scopes(participantScope(userID)).
		Pluck("id", &ids).Error
	return ids, err
}

// UpdateChatLastMessage replaces the chat's denormalized last message and
// bumps UpdatedAt. It returns ErrNotFound if the chat does not exist.
func UpdateChatLastMessage(ctx context.Context, db *gorm.DB, chatID string, snap *domain.MessageSnapshot) error {
	c, err := GetChat(ctx, db, chatID)
	if err != nil {
		return err
	}
	c.LastMessage = snap
	c.UpdatedAt = time.Now().UTC()
	return db.WithContext(ctx).
		Model(c).
		Select("last_message", "updated_at").
		Updates(c).Error
}

// DeleteChats removes the chats among ids that userID participates in and
// returns the IDs actually deleted. Messages are not touched; pair with
// DeleteMessagesByChat inside the same transaction.
func DeleteChats(ctx context.Context, db *gorm.DB, userID string, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var owned []string
	if err := db.WithContext(ctx).
		Model(&domain.Chat{}).
		Scopes(participantScope(userID)).
		Where("id IN ?", ids).
		Pluck("id", &owned).Error; err != nil {
		return nil, err
	}
	if len(owned) == 0 {
		return nil, nil
	}
	if err := db.WithContext(ctx).
		Where("id IN ?", owned).
		Delete(&domain.Chat{}).Error; err != nil {
		return nil, err
	}
	return owned, nil
}
