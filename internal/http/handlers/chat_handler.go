// Chat HTTP handlers.
//
// This file exposes REST endpoints for chat resources:
//   - GET    /chats       (list, paginated, ETag support)
//   - POST   /chats       (create-or-return the chat with a participant)
//   - DELETE /chats       (delete selected chats and their messages)
//   - DELETE /chats/all   (delete every chat of the caller)
package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-messenger-backend/internal/domain"
	"github.com/tbourn/go-messenger-backend/internal/http/middleware"
	"github.com/tbourn/go-messenger-backend/internal/repo"
	"github.com/tbourn/go-messenger-backend/internal/services"
	"github.com/tbourn/go-messenger-backend/internal/utils"
)

// ChatService defines chat lifecycle operations consumed by HTTP handlers.
type ChatService interface {
	CreateOrGet(ctx context.Context, userID, participantID string) (*domain.Chat, bool, error)
	ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.Chat, int64, error)
	Delete(ctx context.Context, userID string, chatIDs []string) ([]string, error)
	DeleteAll(ctx context.Context, userID string) ([]string, error)
}

// MessageService lists message history.
type MessageService interface {
	ListPage(ctx context.Context, userID, chatID string, page, pageSize int) ([]domain.Message, int64, error)
}

// Handlers groups the REST endpoints. It depends on service interfaces only.
type Handlers struct {
	chatSvc  ChatService
	msgSvc   MessageService
	adminSvc AdminService
}

// New constructs Handlers bound to the given services.
func New(chatSvc ChatService, msgSvc MessageService, adminSvc AdminService) *Handlers {
	return &Handlers{chatSvc: chatSvc, msgSvc: msgSvc, adminSvc: adminSvc}
}

// currentUser returns the authenticated user or writes 401.
func currentUser(c *gin.Context) (string, bool) {
	uid := middleware.UserIDFrom(c)
	if uid == "" {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
		return "", false
	}
	return uid, true
}

// CreateChatRequest is the JSON payload for opening a chat.
type CreateChatRequest struct {
	ParticipantID string `json:"participantId" example:"6f1c2f0e-8d1e-4b8a-9a51-3c1f0e2a7b44"`
}

// DeleteChatsRequest selects chats to delete.
type DeleteChatsRequest struct {
	ChatIDs []string `json:"chatIds"`
}

// DeleteChatsResponse reports which chats were removed.
type DeleteChatsResponse struct {
	Success bool     `json:"success" example:"true"`
	Deleted []string `json:"deleted"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

func newPagination(page, pageSize int, total int64) Pagination {
	pages := utils.TotalPages(total, pageSize)
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: pages,
		HasNext:    page < pages,
	}
}

// ListChatsResponse wraps a page of chats and pagination information.
type ListChatsResponse struct {
	Chats      []domain.Chat `json:"chats"`
	Pagination Pagination    `json:"pagination"`
}

// clampPagination reads page and page_size with a default size of 20 and a
// ceiling of 100.
func clampPagination(c *gin.Context) (page, pageSize int) {
	return utils.PageBounds(c.Query("page"), c.Query("page_size"), 20, 100)
}

// notModified sets etag and reports whether the client already holds it.
func notModified(c *gin.Context, etag string) bool {
	c.Header("ETag", etag)
	if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
		c.Status(http.StatusNotModified)
		return true
	}
	return false
}

// ListChats godoc
// @ID          listChats
// @Summary     List chats (paginated)
// @Description Returns a page of the caller's chats, most recently active first. Supports weak ETag via If-None-Match.
// @Tags        Chats
// @Produce     json
// @Security    BearerAuth
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
// @Param       page           query   int     false "Page number"     minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"  minimum(1) maximum(100) default(20)
// @Success     200  {object} handlers.ListChatsResponse
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     401  {object} handlers.ErrorResponse
// @Failure     429  {object} handlers.RateLimitResponse
// @Failure     500  {object} handlers.ErrorResponse
// @Router      /chats [get]
func (h *Handlers) ListChats(c *gin.Context) {
	uid, okUser := currentUser(c)
	if !okUser {
		return
	}
	ctx := c.Request.Context()
	page, pageSize := clampPagination(c)

	if svc, isConcrete := h.chatSvc.(*services.ChatService); isConcrete && svc.Store != nil {
		if count, maxTS, err := repo.ChatsStats(ctx, svc.Store.DB, uid); err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.UnixNano()
			}
			etag := fmt.Sprintf(`W/"chats:%s:%d:%d:%d:%d"`, uid, count, ts, page, pageSize)
			if notModified(c, etag) {
				return
			}
		}
	}

	items, total, err := h.chatSvc.ListPage(ctx, uid, page, pageSize)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ListChatsResponse{Chats: items, Pagination: newPagination(page, pageSize, total)})
}

// CreateChat godoc
// @ID          createChat
// @Summary     Open a chat with another user
// @Description Returns the existing chat between the caller and participantId, or creates it (201).
// @Tags        Chats
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body  handlers.CreateChatRequest  true  "Counterpart"
// @Success     200  {object}  domain.Chat  "Existing chat"
// @Success     201  {object}  domain.Chat  "Created chat"
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     401  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Participant not found"
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /chats [post]
func (h *Handlers) CreateChat(c *gin.Context) {
	uid, okUser := currentUser(c)
	if !okUser {
		return
	}
	var req CreateChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	chat, created, err := h.chatSvc.CreateOrGet(c.Request.Context(), uid, req.ParticipantID)
	if err != nil {
		failErr(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	ok(c, status, chat)
}

// DeleteChats godoc
// @ID          deleteChats
// @Summary     Delete selected chats
// @Description Deletes the listed chats the caller participates in, with their messages. Other IDs are ignored.
// @Tags        Chats
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body  handlers.DeleteChatsRequest  true  "Chats to delete"
// @Success     200  {object}  handlers.DeleteChatsResponse
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     401  {object}  handlers.ErrorResponse
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /chats [delete]
func (h *Handlers) DeleteChats(c *gin.Context) {
	uid, okUser := currentUser(c)
	if !okUser {
		return
	}
	var req DeleteChatsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	deleted, err := h.chatSvc.Delete(c.Request.Context(), uid, req.ChatIDs)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, DeleteChatsResponse{Success: true, Deleted: deleted})
}

// DeleteAllChats godoc
// @ID          deleteAllChats
// @Summary     Delete all chats
// @Description Deletes every chat the caller participates in, with their messages.
// @Tags        Chats
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object}  handlers.DeleteChatsResponse
// @Failure     401  {object}  handlers.ErrorResponse
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /chats/all [delete]
func (h *Handlers) DeleteAllChats(c *gin.Context) {
	uid, okUser := currentUser(c)
	if !okUser {
		return
	}
	deleted, err := h.chatSvc.DeleteAll(c.Request.Context(), uid)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, DeleteChatsResponse{Success: true, Deleted: deleted})
}
