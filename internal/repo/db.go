// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file contains database bootstrapping helpers for
// SQLite (pure Go driver), schema migrations and first-run seeding.
package repo

import (
	"context"
	"os"
	"path/filepath"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/tbourn/go-messenger-backend/internal/domain"
)

// Options tunes OpenSQLite.
type Options struct {
	// Tracing installs the GORM OpenTelemetry plugin so every query becomes a span.
	Tracing bool
	// Silent disables GORM's own query logger.
	Silent bool
}

// OpenSQLite opens (or creates) a SQLite database and applies PRAGMAs.
func OpenSQLite(path string, opts Options) (*gorm.DB, error) {
	// Fail early if parent directory does not exist (instead of sqlite "out of memory (14)" on Windows).
	if dir := filepath.Dir(path); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
	}

	gcfg := &gorm.Config{}
	if opts.Silent {
		gcfg.Logger = logger.Default.LogMode(logger.Silent)
	}
	// PRAGMAs go in the DSN so every pooled connection gets them, not just the first.
	// SQLite has a single writer per database while the Store locks per
	// collection, so transactions must take the write lock at BEGIN and wait
	// on busy_timeout; a deferred read-then-write fails with SQLITE_BUSY_SNAPSHOT.
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)&_txlock=immediate"
	db, err := gorm.Open(sqlite.Open(dsn), gcfg)
	if err != nil {
		return nil, err
	}

	if opts.Tracing {
		if err := db.Use(tracing.NewPlugin()); err != nil {
			return nil, err
		}
	}

	// Pool
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	return db, nil
}

// AutoMigrate creates or updates every collection table.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.User{},
		&domain.Chat{},
		&domain.Message{},
		&domain.Admin{},
		&domain.BlockedCountry{},
	)
}

// SeedAdmins installs the given addresses as active admins when the admin
// collection is empty. It is a no-op once any admin record exists, including
// deactivated ones.
func SeedAdmins(ctx context.Context, s *Store, ips []string) error {
	if len(ips) == 0 {
		return nil
	}
	return s.Update(ctx, func(tx *gorm.DB) error {
		var existing int64
		if err := tx.WithContext(ctx).Model(&domain.Admin{}).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return nil
		}
		now := time.Now().UTC()
		seed := make([]domain.Admin, 0, len(ips))
		for i, ip := range ips {
			name := "Local Admin"
			if i > 0 {
				name = "Admin " + ip
			}
			seed = append(seed, domain.Admin{
				ID:        uuid.NewString(),
				IP:        ip,
				Name:      name,
				Active:    true,
				CreatedAt: now,
			})
		}
		return tx.WithContext(ctx).Create(&seed).Error
	}, Admins)
}
