package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-messenger-backend/internal/domain"
	"github.com/tbourn/go-messenger-backend/internal/repo"
	"github.com/tbourn/go-messenger-backend/internal/services"
	"github.com/tbourn/go-messenger-backend/internal/utils"
)

// ListMessagesResponse contains a page of chat messages and pagination metadata.
type ListMessagesResponse struct {
	Messages   []domain.Message `json:"messages"`
	Pagination Pagination       `json:"pagination"`
}

// messagesETag derives a weak validator from the message count, the number
// read and the newest timestamp, so new messages and read receipts both
// change it. It is only computed for participants; anyone else gets no ETag
// and falls through to the 404 of the service.
func (h *Handlers) messagesETag(c *gin.Context, userID, chatID string, page, pageSize int) string {
	svc, isConcrete := h.msgSvc.(*services.MessageService)
	if !isConcrete || svc.Store == nil {
		return ""
	}
	ctx := c.Request.Context()
	chat, err := repo.GetChat(ctx, svc.Store.DB, chatID)
	if err != nil || !chat.HasParticipant(userID) {
		return ""
	}
	count, read, latest, err := repo.MessagesStats(ctx, svc.Store.DB, chatID)
	if err != nil {
		return ""
	}
	var ts int64
	if latest != nil {
		ts = latest.UnixNano()
	}
	return fmt.Sprintf(`W/"messages:%s:%d:%d:%d:%d:%d"`, chatID, count, read, ts, page, pageSize)
}

// ListMessages godoc
// @ID          listMessages
// @Summary     List messages in a chat
// @Description Returns the chat's messages in chronological order. Only participants may read them; for anyone else the chat does not exist.
// @Tags        Messages
// @Produce     json
// @Security    BearerAuth
// @Param       chatId         path    string  true  "Chat ID"
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
// @Param       page           query   int     false "Page number"     minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"  minimum(1) maximum(200) default(50)
// @Success     200  {object} handlers.ListMessagesResponse
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     400  {object} handlers.ErrorResponse
// @Failure     401  {object} handlers.ErrorResponse
// @Failure     404  {object} handlers.ErrorResponse "Chat not found"
// @Failure     500  {object} handlers.ErrorResponse
// @Router      /messages/{chatId} [get]
func (h *Handlers) ListMessages(c *gin.Context) {
	uid, okUser := currentUser(c)
	if !okUser {
		return
	}
	chatID := strings.TrimSpace(c.Param("chatId"))
	if chatID == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "chat id required")
		return
	}
	page, pageSize := utils.PageBounds(c.Query("page"), c.Query("page_size"), 50, 200)

	if etag := h.messagesETag(c, uid, chatID, page, pageSize); etag != "" && notModified(c, etag) {
		return
	}

	items, total, err := h.msgSvc.ListPage(c.Request.Context(), uid, chatID, page, pageSize)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ListMessagesResponse{Messages: items, Pagination: newPagination(page, pageSize, total)})
}
