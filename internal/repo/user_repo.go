package repo

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-messenger-backend/internal/domain"
)

// CreateUser inserts u, assigning an ID and timestamps when missing. Email and
// username are stored lower-cased.
func CreateUser(ctx context.Context, db *gorm.DB, u *domain.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.Username = strings.ToLower(strings.TrimSpace(u.Username))
	return db.WithContext(ctx).Create(u).Error
}

// GetUser fetches a user by ID, or ErrNotFound.
func GetUser(ctx context.Context, db *gorm.DB, id string) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// SetUserPresence records the user's presence. Going online clears LastSeen;
// going offline stamps it with at. Returns ErrNotFound if the user is unknown.
func SetUserPresence(ctx context.Context, db *gorm.DB, id string, online bool, at time.Time) error {
	var lastSeen *time.Time
	if !online {
		ts := at.UTC()
		lastSeen = &ts
	}
	res := db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"is_online":  online,
			"last_seen":  lastSeen,
			"updated_at": at.UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountUsers returns the number of registered users.
func CountUsers(ctx context.Context, db *gorm.DB) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.User{}).Count(&n).Error
	return n, err
}

// CountOnlineUsers returns the number of users whose persisted presence is online.
func CountOnlineUsers(ctx context.Context, db *gorm.DB) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.User{}).Where("is_online = ?", true).Count(&n).Error
	return n, err
}

// ResetPresence marks every user still flagged online as offline, last seen
// at at. It returns the number of users changed. Nobody can be connected
// before the server accepts connections, so flags left by an unclean stop are
// stale.
func ResetPresence(ctx context.Context, s *Store, at time.Time) (int64, error) {
	var n int64
	err := s.Update(ctx, func(tx *gorm.DB) error {
		res := tx.WithContext(ctx).
			Model(&domain.User{}).
			Where("is_online = ?", true).
			Updates(map[string]any{
				"is_online":  false,
				"last_seen":  at.UTC(),
				"updated_at": at.UTC(),
			})
		n = res.RowsAffected
		return res.Error
	}, Users)
	return n, err
}
