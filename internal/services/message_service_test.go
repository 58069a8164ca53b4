package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/tbourn/go-messenger-backend/internal/domain"
	"github.com/tbourn/go-messenger-backend/internal/repo"
)

func seedConversation(t *testing.T, s *repo.Store, a, b string, n int) *domain.Chat {
	t.Helper()
	chat, err := repo.CreateChat(context.Background(), s.DB, a, b)
	if err != nil {
		t.Fatalf("CreateChat: %v", err)
	}
	for i := 0; i < n; i++ {
		sender := a
		if i%2 == 1 {
			sender = b
		}
		if _, err := repo.CreateMessage(s.DB, chat.ID, sender, fmt.Sprintf("m%d", i), domain.MessageText); err != nil {
			t.Fatalf("CreateMessage: %v", err)
		}
	}
	return chat
}

func TestMessageListPage_UnknownChat(t *testing.T) {
	store := newTestStore(t)
	s := NewMessageService(store)

	_, _, err := s.ListPage(context.Background(), "u", "missing", 1, 10)
	if !errors.Is(err, ErrChatNotFound) {
		t.Fatalf("expected ErrChatNotFound, got %v", err)
	}
}

func TestMessageListPage_NonParticipantSeesNotFound(t *testing.T) {
	store := newTestStore(t)
	a, b, c := mustUser(t, store, "a"), mustUser(t, store, "b"), mustUser(t, store, "c")
	chat := seedConversation(t, store, a, b, 2)
	s := NewMessageService(store)

	if _, _, err := s.ListPage(context.Background(), c, chat.ID, 1, 10); !errors.Is(err, ErrChatNotFound) {
		t.Fatalf("outsider: expected ErrChatNotFound, got %v", err)
	}
}

func TestMessageListPage_DefaultsAndOrder(t *testing.T) {
	store := newTestStore(t)
	a, b := mustUser(t, store, "a"), mustUser(t, store, "b")
	chat := seedConversation(t, store, a, b, 3)
	s := NewMessageService(store)

	items, total, err := s.ListPage(context.Background(), b, chat.ID, 0, 0)
	if err != nil {
		t.Fatalf("ListPage: %v", err)
	}
	if total != 3 || len(items) != 3 {
		t.Fatalf("total=%d len=%d", total, len(items))
	}
	for i, m := range items {
		if want := fmt.Sprintf("m%d", i); m.Content != want {
			t.Fatalf("items[%d] = %q, want %q", i, m.Content, want)
		}
	}
}

func TestMessageListPage_Pagination(t *testing.T) {
	store := newTestStore(t)
	a, b := mustUser(t, store, "a"), mustUser(t, store, "b")
	chat := seedConversation(t, store, a, b, 5)
	s := NewMessageService(store)

	items, total, err := s.ListPage(context.Background(), a, chat.ID, 2, 2)
	if err != nil {
		t.Fatalf("ListPage: %v", err)
	}
	if total != 5 || len(items) != 2 {
		t.Fatalf("total=%d len=%d", total, len(items))
	}
	if items[0].Content != "m2" || items[1].Content != "m3" {
		t.Fatalf("unexpected page: %q, %q", items[0].Content, items[1].Content)
	}
}

func TestMessageListPage_EmptyChat(t *testing.T) {
	store := newTestStore(t)
	a, b := mustUser(t, store, "a"), mustUser(t, store, "b")
	chat := seedConversation(t, store, a, b, 0)
	s := NewMessageService(store)

	items, total, err := s.ListPage(context.Background(), a, chat.ID, 1, 10)
	if err != nil || total != 0 {
		t.Fatalf("ListPage = %d, %v", total, err)
	}
	if items == nil || len(items) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", items)
	}
}
