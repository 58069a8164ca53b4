package services

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-messenger-backend/internal/domain"
	"github.com/tbourn/go-messenger-backend/internal/repo"
)

// DefaultMessagePageSize is used when a caller asks for a non-positive page
// size.
const DefaultMessagePageSize = 50

// MessageService is the read side of message history. Messages are written
// only by the realtime engine.
type MessageService struct {
	Store *repo.Store
}

// NewMessageService constructs a MessageService.
func NewMessageService(store *repo.Store) *MessageService {
	return &MessageService{Store: store}
}

// ListPage returns one page of a chat's messages in chronological order with
// the chat's total message count. Only participants may read a chat; for
// anyone else it does not exist (ErrChatNotFound).
func (s *MessageService) ListPage(ctx context.Context, userID, chatID string, page, pageSize int) (items []domain.Message, total int64, err error) {
	ctx, span := otel.Tracer("services/MessageService").Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.String("chat.id", chatID),
			attribute.String("user.id", userID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer func() {
		if err != nil && !errors.Is(err, ErrChatNotFound) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "list messages")
		}
		span.End()
	}()

	page = max(page, 1)
	if pageSize <= 0 {
		pageSize = DefaultMessagePageSize
	}

	// Count and page come from one read transaction so they agree.
	err = s.Store.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		chat, err := repo.GetChat(ctx, tx, chatID)
		if errors.Is(err, repo.ErrNotFound) {
			return ErrChatNotFound
		}
		if err != nil {
			return err
		}
		if !chat.HasParticipant(userID) {
			return ErrChatNotFound
		}

		if total, err = repo.CountMessages(tx, chatID); err != nil || total == 0 {
			return err
		}
		items, err = repo.ListMessagesPage(tx, chatID, (page-1)*pageSize, pageSize)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	if items == nil {
		items = []domain.Message{}
	}
	span.SetAttributes(attribute.Int64("messages.total", total), attribute.Int("messages.returned", len(items)))
	return items, total, nil
}
