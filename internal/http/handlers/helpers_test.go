package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tbourn/go-messenger-backend/internal/domain"
	"github.com/tbourn/go-messenger-backend/internal/repo"
	"github.com/tbourn/go-messenger-backend/internal/services"
)

// testUserHeader lets tests pick the authenticated user without minting JWTs.
const testUserHeader = "X-Test-User"

type gormChatRepo struct{}

func (gormChatRepo) FindChatByPair(ctx context.Context, db *gorm.DB, a, b string) (*domain.Chat, error) {
	return repo.FindChatByPair(ctx, db, a, b)
}
func (gormChatRepo) CreateChat(ctx context.Context, db *gorm.DB, a, b string) (*domain.Chat, error) {
	return repo.CreateChat(ctx, db, a, b)
}
func (gormChatRepo) CountChatsForUser(ctx context.Context, db *gorm.DB, u string) (int64, error) {
	return repo.CountChatsForUser(ctx, db, u)
}
func (gormChatRepo) ListChatsPage(ctx context.Context, db *gorm.DB, u string, o, l int) ([]domain.Chat, error) {
	return repo.ListChatsPage(ctx, db, u, o, l)
}
func (gormChatRepo) ChatIDsForUser(ctx context.Context, db *gorm.DB, u string) ([]string, error) {
	return repo.ChatIDsForUser(ctx, db, u)
}
func (gormChatRepo) DeleteChats(ctx context.Context, db *gorm.DB, u string, ids []string) ([]string, error) {
	return repo.DeleteChats(ctx, db, u, ids)
}

type env struct {
	store *repo.Store
	h     *Handlers
	admin *services.AdminService
	r     *gin.Engine
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "api.db"), repo.Options{Silent: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	store := repo.NewStore(db)
	admin := services.NewAdminService(store)
	h := New(
		services.NewChatService(store, gormChatRepo{}),
		services.NewMessageService(store),
		admin,
	)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("X-Request-ID", "rid-test")
		if uid := c.GetHeader(testUserHeader); uid != "" {
			c.Set("userID", uid)
		}
		c.Next()
	})
	return &env{store: store, h: h, admin: admin, r: r}
}

func (e *env) user(t *testing.T, name string) string {
	t.Helper()
	u := &domain.User{Email: name + "@example.com", Username: name, PasswordHash: "x"}
	if err := repo.CreateUser(context.Background(), e.store.DB, u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return u.ID
}

func (e *env) chat(t *testing.T, a, b string) *domain.Chat {
	t.Helper()
	c, err := repo.CreateChat(context.Background(), e.store.DB, a, b)
	if err != nil {
		t.Fatalf("CreateChat: %v", err)
	}
	return c
}

func (e *env) do(method, path, userID string, body any, hdr ...string) *httptest.ResponseRecorder {
	var rd *bytes.Reader
	switch b := body.(type) {
	case nil:
		rd = bytes.NewReader(nil)
	case string:
		rd = bytes.NewReader([]byte(b))
	default:
		raw, _ := json.Marshal(b)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set(testUserHeader, userID)
	}
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("json: %v body=%s", err, w.Body.String())
	}
	return v
}

func expectError(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if w.Code != status {
		t.Fatalf("status=%d want %d body=%s", w.Code, status, w.Body.String())
	}
	er := decode[ErrorResponse](t, w)
	if er.Code != code {
		t.Fatalf("code=%q want %q", er.Code, code)
	}
	if er.RequestID != "rid-test" {
		t.Fatalf("request_id=%q", er.RequestID)
	}
}
