package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-messenger-backend/internal/domain"
)

// FindActiveAdminByIP returns the active admin registered for exactly ip, or
// ErrNotFound. No prefix or range matching is performed.
func FindActiveAdminByIP(ctx context.Context, db *gorm.DB, ip string) (*domain.Admin, error) {
	var a domain.Admin
	err := db.WithContext(ctx).
		Where("ip = ? AND active = ?", ip, true).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// AdminExistsByIP reports whether any admin record, active or not, uses ip.
func AdminExistsByIP(ctx context.Context, db *gorm.DB, ip string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.Admin{}).Where("ip = ?", ip).Count(&n).Error
	return n > 0, err
}

// CreateAdmin inserts an active admin for ip.
func CreateAdmin(ctx context.Context, db *gorm.DB, ip, name, createdBy string) (*domain.Admin, error) {
	a := &domain.Admin{
		ID:        uuid.NewString(),
		IP:        ip,
		Name:      name,
		Active:    true,
		CreatedAt: time.Now().UTC(),
		CreatedBy: createdBy,
	}
	if err := db.WithContext(ctx).Create(a).Error; err != nil {
		return nil, err
	}
	return a, nil
}

// ListActiveAdmins returns active admins, oldest first.
func ListActiveAdmins(ctx context.Context, db *gorm.DB) ([]domain.Admin, error) {
	var out []domain.Admin
	err := db.WithContext(ctx).
		Where("active = ?", true).
		Order("created_at asc, id asc").
		Find(&out).Error
	return out, err
}

// CountActiveAdmins returns the number of active admins.
func CountActiveAdmins(ctx context.Context, db *gorm.DB) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.Admin{}).Where("active = ?", true).Count(&n).Error
	return n, err
}

// DeactivateAdmin soft-deletes the admin with the given ID. It returns
// ErrNotFound when no active admin has that ID.
func DeactivateAdmin(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).
		Model(&domain.Admin{}).
		Where("id = ? AND active = ?", id, true).
		Update("active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ReactivateAdmin re-enables a soft-deleted admin for ip under a new name.
func ReactivateAdmin(ctx context.Context, db *gorm.DB, ip, name, createdBy string) (*domain.Admin, error) {
	res := db.WithContext(ctx).
		Model(&domain.Admin{}).
		Where("ip = ? AND active = ?", ip, false).
		Updates(map[string]any{"active": true, "name": name, "created_by": createdBy})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return FindActiveAdminByIP(ctx, db, ip)
}
