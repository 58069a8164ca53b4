package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-messenger-backend/internal/domain"
)

// stubChatSvc fails every call with err.
type stubChatSvc struct{ err error }

func (s stubChatSvc) CreateOrGet(context.Context, string, string) (*domain.Chat, bool, error) {
	return nil, false, s.err
}
func (s stubChatSvc) ListPage(context.Context, string, int, int) ([]domain.Chat, int64, error) {
	return nil, 0, s.err
}
func (s stubChatSvc) Delete(context.Context, string, []string) ([]string, error) {
	return nil, s.err
}
func (s stubChatSvc) DeleteAll(context.Context, string) ([]string, error) { return nil, s.err }

func routeChats(e *env) {
	e.r.GET("/chats", e.h.ListChats)
	e.r.POST("/chats", e.h.CreateChat)
	e.r.DELETE("/chats", e.h.DeleteChats)
	e.r.DELETE("/chats/all", e.h.DeleteAllChats)
}

func Test_clampPagination(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/?page=-5&page_size=9999", nil)
	if p, ps := clampPagination(c); p != 1 || ps != 100 {
		t.Fatalf("clamp bounds got p=%d ps=%d", p, ps)
	}

	c, _ = gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	if p, ps := clampPagination(c); p != 1 || ps != 20 {
		t.Fatalf("clamp defaults got p=%d ps=%d", p, ps)
	}
}

func TestChats_RequireUser(t *testing.T) {
	e := newEnv(t)
	routeChats(e)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/chats"},
		{http.MethodPost, "/chats"},
		{http.MethodDelete, "/chats"},
		{http.MethodDelete, "/chats/all"},
	} {
		w := e.do(tc.method, tc.path, "", nil)
		expectError(t, w, http.StatusUnauthorized, ErrCodeUnauthorized)
	}
}

// ---------- CreateChat ----------

func TestCreateChat_CreatesThenReturnsExisting(t *testing.T) {
	e := newEnv(t)
	routeChats(e)
	alice, bob := e.user(t, "alice"), e.user(t, "bob")

	w := e.do(http.MethodPost, "/chats", alice, CreateChatRequest{ParticipantID: bob})
	if w.Code != http.StatusCreated {
		t.Fatalf("create -> %d body=%s", w.Code, w.Body.String())
	}
	first := decode[domain.Chat](t, w)
	if !slices.Contains(first.Participants, alice) || !slices.Contains(first.Participants, bob) {
		t.Fatalf("participants = %v", first.Participants)
	}

	// the counterpart opening the same chat gets the existing one
	w = e.do(http.MethodPost, "/chats", bob, CreateChatRequest{ParticipantID: alice})
	if w.Code != http.StatusOK {
		t.Fatalf("existing -> %d body=%s", w.Code, w.Body.String())
	}
	if again := decode[domain.Chat](t, w); again.ID != first.ID {
		t.Fatalf("got chat %s, want %s", again.ID, first.ID)
	}
}

func TestCreateChat_Errors(t *testing.T) {
	e := newEnv(t)
	routeChats(e)
	alice := e.user(t, "alice")

	w := e.do(http.MethodPost, "/chats", alice, "{bad")
	expectError(t, w, http.StatusBadRequest, ErrCodeBadRequest)

	w = e.do(http.MethodPost, "/chats", alice, CreateChatRequest{ParticipantID: alice})
	expectError(t, w, http.StatusBadRequest, ErrCodeInvalidInput)

	w = e.do(http.MethodPost, "/chats", alice, CreateChatRequest{ParticipantID: "   "})
	expectError(t, w, http.StatusBadRequest, ErrCodeInvalidInput)

	w = e.do(http.MethodPost, "/chats", alice, CreateChatRequest{ParticipantID: "ghost"})
	expectError(t, w, http.StatusNotFound, ErrCodeUserNotFound)
}

func TestCreateChat_InternalErrorIsGeneric(t *testing.T) {
	e := newEnv(t)
	e.h = New(stubChatSvc{err: errors.New("disk on fire")}, nil, nil)
	routeChats(e)

	w := e.do(http.MethodPost, "/chats", "u1", CreateChatRequest{ParticipantID: "u2"})
	expectError(t, w, http.StatusInternalServerError, ErrCodeInternal)
	if er := decode[ErrorResponse](t, w); er.Message != "internal server error" {
		t.Fatalf("leaked message %q", er.Message)
	}
}

// ---------- ListChats ----------

func TestListChats_PageAndETag(t *testing.T) {
	e := newEnv(t)
	routeChats(e)
	alice, bob, carol := e.user(t, "alice"), e.user(t, "bob"), e.user(t, "carol")
	e.chat(t, alice, bob)
	e.chat(t, alice, carol)
	e.chat(t, bob, carol)

	w := e.do(http.MethodGet, "/chats?page=1&page_size=1", alice, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list -> %d body=%s", w.Code, w.Body.String())
	}
	out := decode[ListChatsResponse](t, w)
	if out.Pagination.Total != 2 || out.Pagination.TotalPages != 2 || !out.Pagination.HasNext {
		t.Fatalf("pagination mismatch: %#v", out.Pagination)
	}
	if len(out.Chats) != 1 || !slices.Contains(out.Chats[0].Participants, alice) {
		t.Fatalf("chats = %#v", out.Chats)
	}

	etag := w.Header().Get("ETag")
	if etag == "" {
		t.Fatalf("missing ETag")
	}
	w = e.do(http.MethodGet, "/chats?page=1&page_size=1", alice, nil, "If-None-Match", etag)
	if w.Code != http.StatusNotModified {
		t.Fatalf("etag 304 -> %d", w.Code)
	}

	// another page is a different representation
	w = e.do(http.MethodGet, "/chats?page=2&page_size=1", alice, nil, "If-None-Match", etag)
	if w.Code != http.StatusOK {
		t.Fatalf("page 2 -> %d", w.Code)
	}
}

func TestListChats_EmptyState(t *testing.T) {
	e := newEnv(t)
	routeChats(e)
	loner := e.user(t, "loner")

	w := e.do(http.MethodGet, "/chats", loner, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list -> %d", w.Code)
	}
	out := decode[ListChatsResponse](t, w)
	if out.Chats == nil || len(out.Chats) != 0 || out.Pagination.Total != 0 || out.Pagination.HasNext {
		t.Fatalf("unexpected empty page: %#v", out)
	}
	if w.Header().Get("ETag") == "" {
		t.Fatalf("missing ETag on empty list")
	}
}

func TestListChats_StubServiceSkipsETag(t *testing.T) {
	e := newEnv(t)
	e.h = New(stubChatSvc{err: errors.New("boom")}, nil, nil)
	routeChats(e)

	w := e.do(http.MethodGet, "/chats", "u1", nil)
	expectError(t, w, http.StatusInternalServerError, ErrCodeInternal)
	if w.Header().Get("ETag") != "" {
		t.Fatalf("unexpected ETag from a non-store service")
	}
}

// ---------- DeleteChats / DeleteAllChats ----------

func TestDeleteChats_SelectedOnly(t *testing.T) {
	e := newEnv(t)
	routeChats(e)
	alice, bob, carol := e.user(t, "alice"), e.user(t, "bob"), e.user(t, "carol")
	ab := e.chat(t, alice, bob)
	ac := e.chat(t, alice, carol)
	bc := e.chat(t, bob, carol)

	w := e.do(http.MethodDelete, "/chats", alice, DeleteChatsRequest{ChatIDs: []string{ab.ID, bc.ID, "nope"}})
	if w.Code != http.StatusOK {
		t.Fatalf("delete -> %d body=%s", w.Code, w.Body.String())
	}
	out := decode[DeleteChatsResponse](t, w)
	if !out.Success || len(out.Deleted) != 1 || out.Deleted[0] != ab.ID {
		t.Fatalf("deleted = %#v", out)
	}

	w = e.do(http.MethodGet, "/chats", alice, nil)
	list := decode[ListChatsResponse](t, w)
	if len(list.Chats) != 1 || list.Chats[0].ID != ac.ID {
		t.Fatalf("remaining = %#v", list.Chats)
	}
}

func TestDeleteChats_Validation(t *testing.T) {
	e := newEnv(t)
	routeChats(e)
	alice := e.user(t, "alice")

	w := e.do(http.MethodDelete, "/chats", alice, "{bad")
	expectError(t, w, http.StatusBadRequest, ErrCodeBadRequest)

	w = e.do(http.MethodDelete, "/chats", alice, DeleteChatsRequest{})
	expectError(t, w, http.StatusBadRequest, ErrCodeNoChatsSelected)
}

func TestDeleteAllChats(t *testing.T) {
	e := newEnv(t)
	routeChats(e)
	alice, bob, carol := e.user(t, "alice"), e.user(t, "bob"), e.user(t, "carol")
	e.chat(t, alice, bob)
	e.chat(t, alice, carol)
	bc := e.chat(t, bob, carol)

	w := e.do(http.MethodDelete, "/chats/all", alice, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete all -> %d body=%s", w.Code, w.Body.String())
	}
	if out := decode[DeleteChatsResponse](t, w); len(out.Deleted) != 2 {
		t.Fatalf("deleted = %#v", out)
	}

	// bob keeps the chat alice was not part of
	w = e.do(http.MethodGet, "/chats", bob, nil)
	list := decode[ListChatsResponse](t, w)
	if len(list.Chats) != 1 || list.Chats[0].ID != bc.ID {
		t.Fatalf("bob's chats = %#v", list.Chats)
	}

	// nothing left to delete is still a success
	w = e.do(http.MethodDelete, "/chats/all", alice, nil)
	if out := decode[DeleteChatsResponse](t, w); w.Code != http.StatusOK || out.Deleted == nil || len(out.Deleted) != 0 {
		t.Fatalf("second delete all -> %d %#v", w.Code, out)
	}
}
