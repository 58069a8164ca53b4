// Package services – ChatService
//
// This file implements the ChatService, which manages the lifecycle of
// one-to-one chats. Creation is create-or-return: the pair is looked up
// inside the chats lock before inserting, so concurrent requests for the same
// pair converge on a single chat. Deleting chats also deletes their messages
// in the same transaction.
//
// Service-level errors (e.g., ErrChatNotFound) are returned for predictable
// cases so handlers can map them to HTTP results consistently.
package services

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-messenger-backend/internal/domain"
	"github.com/tbourn/go-messenger-backend/internal/repo"
)

// ChatRepo defines the repository contract required by ChatService.
type ChatRepo interface {
	// FindChatByPair returns the chat between a and b in either order.
	FindChatByPair(ctx context.Context, db *gorm.DB, a, b string) (*domain.Chat, error)

	// CreateChat inserts a chat between creator and other.
	CreateChat(ctx context.Context, db *gorm.DB, creator, other string) (*domain.Chat, error)

	// CountChatsForUser returns the total number of chats for pagination.
	CountChatsForUser(ctx context.Context, db *gorm.DB, userID string) (int64, error)

	// ListChatsPage returns a page of the user's chats.
	ListChatsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Chat, error)

	// ChatIDsForUser returns the IDs of all the user's chats.
	ChatIDsForUser(ctx context.Context, db *gorm.DB, userID string) ([]string, error)

	// DeleteChats removes the given chats the user participates in.
	DeleteChats(ctx context.Context, db *gorm.DB, userID string, ids []string) ([]string, error)
}

// ChatService provides chat-level operations: create-or-return, listing and
// deletion.
type ChatService struct {
	// Store serializes writes; Store.DB is used for plain reads.
	Store *repo.Store
	// Repo is the chat repository used by this service.
	Repo ChatRepo
}

// NewChatService constructs a ChatService.
func NewChatService(store *repo.Store, r ChatRepo) *ChatService {
	return &ChatService{Store: store, Repo: r}
}

// CreateOrGet returns the chat between userID and participantID, creating it
// if needed. created reports whether a new chat was inserted.
func (s *ChatService) CreateOrGet(ctx context.Context, userID, participantID string) (chat *domain.Chat, created bool, err error) {
	ctx, span := otel.Tracer("services/ChatService").Start(ctx, "CreateOrGet",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("participant.id", participantID),
		),
	)
	defer span.End()

	participantID = strings.TrimSpace(participantID)
	if participantID == "" || participantID == userID {
		return nil, false, ErrInvalidParticipant
	}
	if _, err := repo.GetUser(ctx, s.Store.DB, participantID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, false, ErrUserNotFound
		}
		return nil, false, err
	}

	err = s.Store.Update(ctx, func(tx *gorm.DB) error {
		c, err := s.Repo.FindChatByPair(ctx, tx, userID, participantID)
		if err == nil {
			chat = c
			return nil
		}
		if !errors.Is(err, repo.ErrNotFound) {
			return err
		}
		c, err = s.Repo.CreateChat(ctx, tx, userID, participantID)
		if err != nil {
			return err
		}
		chat, created = c, true
		return nil
	}, repo.Chats)
	if err != nil {
		return nil, false, err
	}
	return chat, created, nil
}

// ListPage returns a page of chats for a user (paginated).
// It applies defaults for invalid page/pageSize and returns total count.
func (s *ChatService) ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.Chat, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := s.Repo.CountChatsForUser(ctx, s.Store.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Chat{}, 0, nil
	}

	items, err := s.Repo.ListChatsPage(ctx, s.Store.DB, userID, offset, pageSize)
	return items, total, err
}

// Delete removes the selected chats the user participates in, together with
// their messages. IDs of foreign or unknown chats are ignored. It returns the
// IDs actually deleted.
func (s *ChatService) Delete(ctx context.Context, userID string, chatIDs []string) ([]string, error) {
	ctx, span := otel.Tracer("services/ChatService").Start(ctx, "Delete",
		trace.WithAttributes(attribute.Int("chats.requested", len(chatIDs))))
	defer span.End()

	ids := dedupeNonEmpty(chatIDs)
	if len(ids) == 0 {
		return nil, ErrNoChatsSelected
	}
	return s.deleteChats(ctx, userID, func(*gorm.DB) ([]string, error) { return ids, nil })
}

// DeleteAll removes every chat of the user and their messages.
func (s *ChatService) DeleteAll(ctx context.Context, userID string) ([]string, error) {
	ctx, span := otel.Tracer("services/ChatService").Start(ctx, "DeleteAll",
		trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	return s.deleteChats(ctx, userID, func(tx *gorm.DB) ([]string, error) {
		return s.Repo.ChatIDsForUser(ctx, tx, userID)
	})
}

func (s *ChatService) deleteChats(ctx context.Context, userID string, selectIDs func(*gorm.DB) ([]string, error)) ([]string, error) {
	var deleted []string
	err := s.Store.Update(ctx, func(tx *gorm.DB) error {
		ids, err := selectIDs(tx)
		if err != nil {
			return err
		}
		deleted, err = s.Repo.DeleteChats(ctx, tx, userID, ids)
		if err != nil {
			return err
		}
		_, err = repo.DeleteMessagesByChat(tx.WithContext(ctx), deleted)
		return err
	}, repo.Chats, repo.Messages)
	if err != nil {
		return nil, err
	}
	if deleted == nil {
		deleted = []string{}
	}
	return deleted, nil
}

func dedupeNonEmpty(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
