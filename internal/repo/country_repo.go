package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-messenger-backend/internal/domain"
)

// BlockedCountryExists reports whether code is already blocked. Codes are
// compared as stored; callers normalize to upper case.
func BlockedCountryExists(ctx context.Context, db *gorm.DB, code string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.BlockedCountry{}).Where("code = ?", code).Count(&n).Error
	return n > 0, err
}

// CreateBlockedCountry inserts a blocked country entry.
func CreateBlockedCountry(ctx context.Context, db *gorm.DB, code, name, blockedBy string) (*domain.BlockedCountry, error) {
	bc := &domain.BlockedCountry{
		ID:        uuid.NewString(),
		Code:      code,
		Name:      name,
		BlockedAt: time.Now().UTC(),
		BlockedBy: blockedBy,
	}
	if err := db.WithContext(ctx).Create(bc).Error; err != nil {
		return nil, err
	}
	return bc, nil
}

// ListBlockedCountries returns every blocked country in blocking order.
func ListBlockedCountries(ctx context.Context, s *Store) ([]domain.BlockedCountry, error) {
	var out []domain.BlockedCountry
	if err := s.Load(ctx, BlockedCountries, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CountBlockedCountries returns the number of blocked countries.
func CountBlockedCountries(ctx context.Context, db *gorm.DB) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.BlockedCountry{}).Count(&n).Error
	return n, err
}

// DeleteBlockedCountry hard-deletes the entry with the given ID, returning
// ErrNotFound when it does not exist.
func DeleteBlockedCountry(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).Where("id = ?", id).Delete(&domain.BlockedCountry{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
