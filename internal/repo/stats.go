// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides aggregate/statistics queries: the admin
// dashboard counters and the small metadata queries used for conditional
// responses (ETag generation) in the HTTP layer.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-messenger-backend/internal/domain"
)

// Stats is the admin dashboard aggregate.
type Stats struct {
	TotalUsers       int64 `json:"totalUsers"`
	TotalChats       int64 `json:"totalChats"`
	TotalMessages    int64 `json:"totalMessages"`
	TotalAdmins      int64 `json:"totalAdmins"`
	BlockedCountries int64 `json:"blockedCountries"`
	OnlineUsers      int64 `json:"onlineUsers"`
}

// LoadStats computes the dashboard counters. Only active admins are counted;
// OnlineUsers reflects the persisted presence flag.
func LoadStats(ctx context.Context, db *gorm.DB) (*Stats, error) {
	var (
		st  Stats
		err error
	)
	if st.TotalUsers, err = CountUsers(ctx, db); err != nil {
		return nil, err
	}
	if err = db.WithContext(ctx).Model(&domain.Chat{}).Count(&st.TotalChats).Error; err != nil {
		return nil, err
	}
	if err = db.WithContext(ctx).Model(&domain.Message{}).Count(&st.TotalMessages).Error; err != nil {
		return nil, err
	}
	if st.TotalAdmins, err = CountActiveAdmins(ctx, db); err != nil {
		return nil, err
	}
	if st.BlockedCountries, err = CountBlockedCountries(ctx, db); err != nil {
		return nil, err
	}
	if st.OnlineUsers, err = CountOnlineUsers(ctx, db); err != nil {
		return nil, err
	}
	return &st, nil
}

// ChatsStats returns aggregate metadata for a user's chats: the total number of
// rows and the maximum UpdatedAt timestamp among those rows.
//
// When the user has no chats, the returned count is 0 and maxUpdatedAt is nil.
func ChatsStats(ctx context.Context, db *gorm.DB, userID string) (count int64, maxUpdatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Chat{}).Scopes(participantScope(userID))

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest updated_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		UpdatedAt time.Time
	}
	if err = db.WithContext(ctx).Model(&domain.Chat{}).Scopes(participantScope(userID)).
		Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}

// MessagesStats returns aggregate metadata for messages within a chat: the
// total number of rows, how many of them are read, and the newest CreatedAt.
// Messages only change by gaining readers, so the read count captures every
// mutation that is not an insert.
func MessagesStats(ctx context.Context, db *gorm.DB, chatID string) (count, read int64, latest *time.Time, err error) {
	base := func() *gorm.DB {
		return db.WithContext(ctx).Model(&domain.Message{}).Where("chat_id = ?", chatID)
	}

	if err = base().Count(&count).Error; err != nil {
		return 0, 0, nil, err
	}
	if count == 0 {
		return 0, 0, nil, nil
	}
	if err = base().Where("status = ?", domain.StatusRead).Count(&read).Error; err != nil {
		return 0, 0, nil, err
	}

	var row struct {
		CreatedAt time.Time
	}
	if err = base().Select("created_at").Order("created_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, 0, nil, err
	}
	return count, read, &row.CreatedAt, nil
}
