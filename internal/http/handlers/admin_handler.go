// Admin HTTP handlers.
//
// All endpoints except /admin/check sit behind middleware.AdminOnly, which
// grants access by exact match of the client address against active admins.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-messenger-backend/internal/domain"
	"github.com/tbourn/go-messenger-backend/internal/http/middleware"
	"github.com/tbourn/go-messenger-backend/internal/repo"
)

// AdminService defines the administration operations consumed by handlers.
type AdminService interface {
	IsAdmin(ctx context.Context, addr string) (bool, error)
	Stats(ctx context.Context) (*repo.Stats, error)
	AddAdmin(ctx context.Context, ip, name, createdBy string) (*domain.Admin, error)
	ListAdmins(ctx context.Context) ([]domain.Admin, error)
	RemoveAdmin(ctx context.Context, id string) error
	BlockCountry(ctx context.Context, code, name, blockedBy string) (*domain.BlockedCountry, error)
	ListBlockedCountries(ctx context.Context) ([]domain.BlockedCountry, error)
	UnblockCountry(ctx context.Context, id string) error
}

// AdminCheckResponse tells a client whether its address is privileged.
type AdminCheckResponse struct {
	IsAdmin bool   `json:"isAdmin"`
	IP      string `json:"ip" example:"203.0.113.7"`
}

// AddAdminRequest registers a new admin address.
type AddAdminRequest struct {
	IP   string `json:"ip" example:"203.0.113.7"`
	Name string `json:"name" example:"Night shift"`
}

// AddAdminResponse wraps the created admin.
type AddAdminResponse struct {
	Success bool          `json:"success"`
	Admin   *domain.Admin `json:"admin"`
}

// BlockCountryRequest adds a country to the block list.
type BlockCountryRequest struct {
	CountryCode string `json:"countryCode" example:"KP"`
	CountryName string `json:"countryName" example:"North Korea"`
}

// BlockCountryResponse wraps the created block-list entry.
type BlockCountryResponse struct {
	Success bool                   `json:"success"`
	Country *domain.BlockedCountry `json:"country"`
}

// AdminCheck godoc
// @ID          adminCheck
// @Summary     Check admin status
// @Description Reports whether the calling address is an active admin.
// @Tags        Admin
// @Produce     json
// @Success     200  {object}  handlers.AdminCheckResponse
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /admin/check [get]
func (h *Handlers) AdminCheck(c *gin.Context) {
	addr := middleware.ClientAddr(c)
	isAdmin, err := h.adminSvc.IsAdmin(c.Request.Context(), addr)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, AdminCheckResponse{IsAdmin: isAdmin, IP: addr})
}

// AdminStats godoc
// @ID          adminStats
// @Summary     Dashboard statistics
// @Tags        Admin
// @Produce     json
// @Success     200  {object}  repo.Stats
// @Failure     403  {object}  handlers.ErrorResponse
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /admin/stats [get]
func (h *Handlers) AdminStats(c *gin.Context) {
	st, err := h.adminSvc.Stats(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, st)
}

// AddAdmin godoc
// @ID          addAdmin
// @Summary     Grant admin privilege to an address
// @Description A previously removed admin for the same address is reactivated.
// @Tags        Admin
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.AddAdminRequest  true  "Admin"
// @Success     201  {object}  handlers.AddAdminResponse
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     403  {object}  handlers.ErrorResponse
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /admin/admins [post]
func (h *Handlers) AddAdmin(c *gin.Context) {
	var req AddAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	a, err := h.adminSvc.AddAdmin(c.Request.Context(), req.IP, req.Name, middleware.ClientAddr(c))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, AddAdminResponse{Success: true, Admin: a})
}

// ListAdmins godoc
// @ID          listAdmins
// @Summary     List active admins
// @Tags        Admin
// @Produce     json
// @Success     200  {array}   domain.Admin
// @Failure     403  {object}  handlers.ErrorResponse
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /admin/admins [get]
func (h *Handlers) ListAdmins(c *gin.Context) {
	list, err := h.adminSvc.ListAdmins(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	if list == nil {
		list = []domain.Admin{}
	}
	ok(c, http.StatusOK, list)
}

// RemoveAdmin godoc
// @ID          removeAdmin
// @Summary     Revoke an admin
// @Description Soft-deletes the admin; the record is kept for audit.
// @Tags        Admin
// @Param       id  path  string  true  "Admin ID"
// @Success     204  {string}  string  "No Content"
// @Failure     403  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /admin/admins/{id} [delete]
func (h *Handlers) RemoveAdmin(c *gin.Context) {
	if err := h.adminSvc.RemoveAdmin(c.Request.Context(), c.Param("id")); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}

// BlockCountry godoc
// @ID          blockCountry
// @Summary     Block a country
// @Tags        Admin
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.BlockCountryRequest  true  "Country"
// @Success     201  {object}  handlers.BlockCountryResponse
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     403  {object}  handlers.ErrorResponse
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /admin/blocked-countries [post]
func (h *Handlers) BlockCountry(c *gin.Context) {
	var req BlockCountryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	bc, err := h.adminSvc.BlockCountry(c.Request.Context(), req.CountryCode, req.CountryName, middleware.ClientAddr(c))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, BlockCountryResponse{Success: true, Country: bc})
}

// ListBlockedCountries godoc
// @ID          listBlockedCountries
// @Summary     List blocked countries
// @Tags        Admin
// @Produce     json
// @Success     200  {array}   domain.BlockedCountry
// @Failure     403  {object}  handlers.ErrorResponse
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /admin/blocked-countries [get]
func (h *Handlers) ListBlockedCountries(c *gin.Context) {
	list, err := h.adminSvc.ListBlockedCountries(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	if list == nil {
		list = []domain.BlockedCountry{}
	}
	ok(c, http.StatusOK, list)
}

// UnblockCountry godoc
// @ID          unblockCountry
// @Summary     Unblock a country
// @Tags        Admin
// @Param       id  path  string  true  "Block-list entry ID"
// @Success     204  {string}  string  "No Content"
// @Failure     403  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /admin/blocked-countries/{id} [delete]
func (h *Handlers) UnblockCountry(c *gin.Context) {
	if err := h.adminSvc.UnblockCountry(c.Request.Context(), c.Param("id")); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}
