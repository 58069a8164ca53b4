// Package services – AdminService
//
// AdminService is the authorization gate and the administration surface:
// network-address admins, dashboard statistics and the blocked-country list
// consulted by the geo-filter.
//
// Admin privilege is granted by exact string match of the client address
// against active admin records. No prefix or CIDR matching is done, and the
// address is only as trustworthy as the proxy chain that reported it.
package services

import (
	"context"
	"errors"
	"net/netip"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/tbourn/go-messenger-backend/internal/domain"
	"github.com/tbourn/go-messenger-backend/internal/repo"
)

// AdminService implements the admin gate and admin operations.
type AdminService struct {
	Store *repo.Store
}

// NewAdminService constructs an AdminService.
func NewAdminService(store *repo.Store) *AdminService {
	return &AdminService{Store: store}
}

// IsAdmin reports whether addr belongs to an active admin. A store failure is
// returned as an error, never as a grant.
func (s *AdminService) IsAdmin(ctx context.Context, addr string) (bool, error) {
	ctx, span := otel.Tracer("services/AdminService").Start(ctx, "IsAdmin",
		trace.WithAttributes(attribute.String("client.ip", addr)))
	defer span.End()

	if addr == "" {
		return false, nil
	}
	_, err := repo.FindActiveAdminByIP(ctx, s.Store.DB, addr)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, repo.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// Stats returns the dashboard counters.
func (s *AdminService) Stats(ctx context.Context) (*repo.Stats, error) {
	return repo.LoadStats(ctx, s.Store.DB)
}

// AddAdmin grants admin privilege to ip. A soft-deleted admin for the same
// address is reactivated.
func (s *AdminService) AddAdmin(ctx context.Context, ip, name, createdBy string) (*domain.Admin, error) {
	ip = strings.TrimSpace(ip)
	name = normalizeName(name)
	if ip == "" || name == "" {
		return nil, ErrInvalidAdmin
	}
	if _, err := netip.ParseAddr(ip); err != nil {
		return nil, ErrInvalidAdmin
	}

	var out *domain.Admin
	err := s.Store.Update(ctx, func(tx *gorm.DB) error {
		if _, err := repo.FindActiveAdminByIP(ctx, tx, ip); err == nil {
			return ErrAdminExists
		} else if !errors.Is(err, repo.ErrNotFound) {
			return err
		}
		exists, err := repo.AdminExistsByIP(ctx, tx, ip)
		if err != nil {
			return err
		}
		if exists {
			out, err = repo.ReactivateAdmin(ctx, tx, ip, name, createdBy)
			return err
		}
		out, err = repo.CreateAdmin(ctx, tx, ip, name, createdBy)
		return err
	}, repo.Admins)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListAdmins returns active admins.
func (s *AdminService) ListAdmins(ctx context.Context) ([]domain.Admin, error) {
	return repo.ListActiveAdmins(ctx, s.Store.DB)
}

// RemoveAdmin soft-deletes an admin.
func (s *AdminService) RemoveAdmin(ctx context.Context, id string) error {
	err := s.Store.Update(ctx, func(tx *gorm.DB) error {
		return repo.DeactivateAdmin(ctx, tx, id)
	}, repo.Admins)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrAdminNotFound
	}
	return err
}

// BlockCountry adds a country to the block list. Codes are stored upper-case.
func (s *AdminService) BlockCountry(ctx context.Context, code, name, blockedBy string) (*domain.BlockedCountry, error) {
	code = normalizeCode(code)
	name = normalizeName(name)
	if !validCountryCode(code) || name == "" {
		return nil, ErrInvalidCountry
	}

	var out *domain.BlockedCountry
	err := s.Store.Update(ctx, func(tx *gorm.DB) error {
		exists, err := repo.BlockedCountryExists(ctx, tx, code)
		if err != nil {
			return err
		}
		if exists {
			return ErrCountryAlreadyBlocked
		}
		out, err = repo.CreateBlockedCountry(ctx, tx, code, name, blockedBy)
		return err
	}, repo.BlockedCountries)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListBlockedCountries returns the block list in blocking order.
func (s *AdminService) ListBlockedCountries(ctx context.Context) ([]domain.BlockedCountry, error) {
	return repo.ListBlockedCountries(ctx, s.Store)
}

// UnblockCountry removes an entry from the block list.
func (s *AdminService) UnblockCountry(ctx context.Context, id string) error {
	err := s.Store.Update(ctx, func(tx *gorm.DB) error {
		return repo.DeleteBlockedCountry(ctx, tx, id)
	}, repo.BlockedCountries)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrCountryNotFound
	}
	return err
}

// IsCountryBlocked reports whether code is on the block list.
func (s *AdminService) IsCountryBlocked(ctx context.Context, code string) (bool, error) {
	code = normalizeCode(code)
	if code == "" {
		return false, nil
	}
	return repo.BlockedCountryExists(ctx, s.Store.DB, code)
}

// normalizeCode upper-cases a country code. A Caser is not safe for
// concurrent use, so one is built per call.
func normalizeCode(code string) string {
	return cases.Upper(language.Und).String(strings.TrimSpace(code))
}

func validCountryCode(code string) bool {
	if len(code) < 2 || len(code) > 3 {
		return false
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// normalizeName trims whitespace and collapses multiple spaces to one.
func normalizeName(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
