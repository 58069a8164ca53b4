package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-messenger-backend/internal/guard"
)

func TestClientAddr_Precedence(t *testing.T) {
	gin.SetMode(gin.TestMode)

	build := func(headers map[string]string) *gin.Context {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = net.JoinHostPort("192.0.2.1", "5555")
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		c.Request = req
		return c
	}

	cases := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"forwarded first entry", map[string]string{"X-Forwarded-For": " 198.51.100.2 , 10.0.0.1", "X-Real-IP": "203.0.113.5"}, "198.51.100.2"},
		{"real ip", map[string]string{"X-Real-IP": "203.0.113.5"}, "203.0.113.5"},
		{"empty forwarded falls through", map[string]string{"X-Forwarded-For": " ,10.0.0.1", "X-Real-IP": "203.0.113.5"}, "203.0.113.5"},
		{"socket", nil, "192.0.2.1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClientAddr(build(tc.headers)); got != tc.want {
				t.Fatalf("ClientAddr = %q, want %q", got, tc.want)
			}
		})
	}
}

func newGuardedRouter(g *guard.Guard) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), AntiAbuse(g, nil))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func hit(r *gin.Engine, addr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Forwarded-For", addr)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAntiAbuse_PassSetsQuotaHeaders(t *testing.T) {
	r := newGuardedRouter(guard.New(guard.Config{PerMinute: 5}))

	w := hit(r, "198.51.100.10")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if w.Header().Get("X-RateLimit-Limit") != "5" || w.Header().Get("X-RateLimit-Remaining") != "4" {
		t.Fatalf("quota headers = %v", w.Header())
	}
	reset, err := time.Parse(time.RFC3339, w.Header().Get("X-RateLimit-Reset"))
	if err != nil || !reset.After(time.Now()) {
		t.Fatalf("reset header %q (%v)", w.Header().Get("X-RateLimit-Reset"), err)
	}
}

func TestAntiAbuse_BurstIsBlocked(t *testing.T) {
	r := newGuardedRouter(guard.New(guard.Config{PerSecond: 2, PerMinute: 100, BlockDuration: time.Minute}))

	for i := 0; i < 2; i++ {
		if w := hit(r, "198.51.100.20"); w.Code != http.StatusOK {
			t.Fatalf("request %d = %d", i+1, w.Code)
		}
	}
	w := hit(r, "198.51.100.20")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("burst = %d", w.Code)
	}
	if w.Header().Get("Retry-After") != "60" {
		t.Fatalf("Retry-After = %q", w.Header().Get("Retry-After"))
	}
	var body struct {
		RequestID  string `json:"request_id"`
		Code       string `json:"code"`
		Message    string `json:"message"`
		RetryAfter int    `json:"retry_after"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("body: %v", err)
	}
	if body.Code != guard.CodeRateLimitExceeded || body.RetryAfter != 60 || body.RequestID == "" || body.Message == "" {
		t.Fatalf("unexpected body %+v", body)
	}

	// while blocked the code and countdown persist
	w = hit(r, "198.51.100.20")
	secs, _ := strconv.Atoi(w.Header().Get("Retry-After"))
	if w.Code != http.StatusTooManyRequests || secs < 1 || secs > 60 {
		t.Fatalf("blocked follow-up = %d, Retry-After=%d", w.Code, secs)
	}

	// other clients are unaffected
	if w := hit(r, "198.51.100.21"); w.Code != http.StatusOK {
		t.Fatalf("independent client = %d", w.Code)
	}
}

func TestAntiAbuse_MinuteCeilingWarns(t *testing.T) {
	r := newGuardedRouter(guard.New(guard.Config{PerSecond: 1000, PerMinute: 3}))

	for i := 0; i < 3; i++ {
		hit(r, "198.51.100.30")
	}
	w := hit(r, "198.51.100.30")
	var body map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if w.Code != http.StatusTooManyRequests || body["code"] != guard.CodeRateLimitMinute {
		t.Fatalf("expected minute warning, got %d %v", w.Code, body)
	}
}
