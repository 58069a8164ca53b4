package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

func TestKeyByUserOrIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = net.JoinHostPort("203.0.113.9", "12345")
	c.Request = req

	if key := KeyByUserOrIP()(c); key != "ip:203.0.113.9" {
		t.Fatalf("expected ip-based key; got %q", key)
	}

	c.Set(userIDKey, "u123")
	if key := KeyByUserOrIP()(c); key != UserKey("u123") {
		t.Fatalf("expected user-based key; got %q", key)
	}
}

func TestNewRateLimiter_BurstCoercionAndReuse(t *testing.T) {
	rl := NewRateLimiter(2.0, 0, nil)
	if rl.burst != 1 || rl.keyFn == nil {
		t.Fatalf("defaults not applied: burst=%d", rl.burst)
	}
	lim := rl.getVisitor("k1")
	if got := rl.getVisitor("k1"); got != lim {
		t.Fatalf("expected the same limiter to be reused")
	}
}

func TestRateLimiter_getVisitorEvictsIdle(t *testing.T) {
	rl := NewRateLimiter(1.0, 1, nil)
	rl.ttl = time.Nanosecond

	rl.mu.Lock()
	rl.visitors["old"] = &visitor{limiter: rate.NewLimiter(1, 1), lastSeen: time.Now().Add(-time.Hour)}
	rl.cleanupN = 4999
	rl.mu.Unlock()

	_ = rl.getVisitor("new")

	rl.mu.Lock()
	_, oldLeft := rl.visitors["old"]
	_, newThere := rl.visitors["new"]
	n := rl.cleanupN
	rl.mu.Unlock()

	if oldLeft || !newThere || n != 0 {
		t.Fatalf("old=%v new=%v cleanupN=%d", oldLeft, newThere, n)
	}
}

func TestRateLimiter_AllowIsPerKey(t *testing.T) {
	rl := NewRateLimiter(0.001, 2, nil)
	if !rl.Allow("user:a") || !rl.Allow("user:a") {
		t.Fatalf("burst should admit two events")
	}
	if rl.Allow("user:a") {
		t.Fatalf("third event should be throttled")
	}
	if !rl.Allow("user:b") {
		t.Fatalf("other keys have their own bucket")
	}
}

func TestRateLimiter_Handler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter(0.001, 1, KeyByUserOrIP())

	r := gin.New()
	r.Use(rl.Handler())
	r.GET("/chats", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/chats", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("first request = %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/chats", nil))
	if w.Code != http.StatusTooManyRequests || w.Header().Get("Retry-After") != "1" {
		t.Fatalf("second request = %d, Retry-After=%q", w.Code, w.Header().Get("Retry-After"))
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body["code"] != "too_many_requests" {
		t.Fatalf("unexpected body %s (%v)", w.Body.String(), err)
	}
}
