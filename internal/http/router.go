// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, abuse protection, geo-filtering and authentication.
//
// Route map (API routes are mounted under cfg.APIBasePath):
//
//	GET    /health, /metrics, /swagger/*any
//	GET    /ws                                 JWT
//	GET    {base}/chats                        JWT
//	POST   {base}/chats                        JWT
//	DELETE {base}/chats, {base}/chats/all      JWT
//	GET    {base}/messages/:chatId             JWT
//	GET    {base}/admin/check
//	*      {base}/admin/...                    admin address
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/go-messenger-backend/internal/config"
	"github.com/tbourn/go-messenger-backend/internal/domain"
	"github.com/tbourn/go-messenger-backend/internal/guard"
	"github.com/tbourn/go-messenger-backend/internal/http/handlers"
	"github.com/tbourn/go-messenger-backend/internal/http/middleware"
	"github.com/tbourn/go-messenger-backend/internal/realtime"
	"github.com/tbourn/go-messenger-backend/internal/repo"
	"github.com/tbourn/go-messenger-backend/internal/services"
)

// chatRepoShim adapts the repository free functions to the services.ChatRepo
// interface expected by the ChatService.
type chatRepoShim struct{}

// FindChatByPair proxies repo.FindChatByPair.
func (chatRepoShim) FindChatByPair(ctx context.Context, db *gorm.DB, a, b string) (*domain.Chat, error) {
	return repo.FindChatByPair(ctx, db, a, b)
}

// CreateChat proxies repo.CreateChat.
func (chatRepoShim) CreateChat(ctx context.Context, db *gorm.DB, creator, other string) (*domain.Chat, error) {
	return repo.CreateChat(ctx, db, creator, other)
}

// CountChatsForUser proxies repo.CountChatsForUser (pagination support).
func (chatRepoShim) CountChatsForUser(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	return repo.CountChatsForUser(ctx, db, userID)
}

// ListChatsPage proxies repo.ListChatsPage (pagination support).
func (chatRepoShim) ListChatsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Chat, error) {
	return repo.ListChatsPage(ctx, db, userID, offset, limit)
}

// ChatIDsForUser proxies repo.ChatIDsForUser.
func (chatRepoShim) ChatIDsForUser(ctx context.Context, db *gorm.DB, userID string) ([]string, error) {
	return repo.ChatIDsForUser(ctx, db, userID)
}

// DeleteChats proxies repo.DeleteChats.
func (chatRepoShim) DeleteChats(ctx context.Context, db *gorm.DB, userID string, ids []string) ([]string, error) {
	return repo.DeleteChats(ctx, db, userID, ids)
}

// Deps are the long-lived components the routes are served from.
type Deps struct {
	Store  *repo.Store
	Guard  *guard.Guard
	Engine *realtime.Engine
	// Resolver maps client addresses to countries for the geo-filter; nil
	// disables country resolution.
	Resolver middleware.CountryResolver
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger or RedactingLogger: structured access logs
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. CORS and security headers (so rejections below still carry them)
//  8. Abuse guard: per-address sliding window, warnings and blacklist
//  9. Geo-filter: blocked countries
//
// Authenticated API routes additionally pass a token-bucket limiter keyed by
// user.
func RegisterRoutes(r *gin.Engine, deps Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Access logs
	if cfg.LogRedact {
		r.Use(middleware.RedactingLogger(middleware.RedactOptions{}))
	} else {
		r.Use(middleware.Logger())
	}

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Prometheus metrics
	r.Use(middleware.Metrics())

	// 7) CORS posture and security headers
	r.Use(corsMiddleware(cfg.CORS.AllowedOrigins)...)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Liveness, metrics and docs are served before the guard so health checks and
	// scrapers are never blacklisted.
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← store
	chatSvc := services.NewChatService(deps.Store, chatRepoShim{})
	msgSvc := services.NewMessageService(deps.Store)
	adminSvc := services.NewAdminService(deps.Store)
	h := handlers.New(chatSvc, msgSvc, adminSvc)

	// 8) + 9) Abuse guard and geo-filter for everything below
	protected := r.Group("",
		middleware.AntiAbuse(deps.Guard, middleware.ClientAddr),
		middleware.GeoFilter(deps.Resolver, adminSvc),
	)

	secret := []byte(cfg.JWTSecret)

	// Realtime (never gzip'd: the upgrade hijacks the connection)
	eventLimiter := middleware.NewRateLimiter(cfg.Realtime.EventRPS, cfg.Realtime.EventBurst, nil)
	ws := handlers.NewWSHandler(deps.Engine, eventLimiter, cfg.Realtime.AllowedOrigins)
	protected.GET("/ws", middleware.Authenticate(secret), ws.Serve)

	// Public API
	api := groupWithPrefix(protected, cfg.APIBasePath)
	api.Use(gzip.Gzip(gzip.DefaultCompression))
	{
		rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
		authed := api.Group("", middleware.Authenticate(secret), rl.Handler())

		// Chats
		authed.GET("/chats", h.ListChats)
		authed.POST("/chats", h.CreateChat)
		authed.DELETE("/chats", h.DeleteChats)
		authed.DELETE("/chats/all", h.DeleteAllChats)

		// Messages
		authed.GET("/messages/:chatId", h.ListMessages)

		// Admin
		api.GET("/admin/check", h.AdminCheck)
		admin := api.Group("/admin", middleware.AdminOnly(adminSvc))
		admin.GET("/stats", h.AdminStats)
		admin.GET("/admins", h.ListAdmins)
		admin.POST("/admins", h.AddAdmin)
		admin.DELETE("/admins/:id", h.RemoveAdmin)
		admin.GET("/blocked-countries", h.ListBlockedCountries)
		admin.POST("/blocked-countries", h.BlockCountry)
		admin.DELETE("/blocked-countries/:id", h.UnblockCountry)
	}

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})
}

var (
	corsMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"}
	corsExpose  = []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After", "ETag"}
)

// corsMiddleware allows every origin when none is configured, otherwise only
// the listed ones.
func corsMiddleware(allowedOrigins []string) []gin.HandlerFunc {
	if len(allowedOrigins) == 0 {
		return []gin.HandlerFunc{
			// Force ACAO: * even for requests without an Origin header.
			func(c *gin.Context) {
				c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
				c.Next()
			},
			cors.New(cors.Config{
				AllowAllOrigins:  true,
				AllowMethods:     corsMethods,
				AllowHeaders:     corsHeaders,
				ExposeHeaders:    corsExpose,
				AllowCredentials: false, // must remain false with AllowAllOrigins
				MaxAge:           12 * time.Hour,
			}),
		}
	}

	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}
	return []gin.HandlerFunc{
		func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		},
		cors.New(cors.Config{
			AllowOrigins:     allowedOrigins,
			AllowMethods:     corsMethods,
			AllowHeaders:     corsHeaders,
			ExposeHeaders:    corsExpose,
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}),
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(g *gin.RouterGroup, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return g.Group("")
	}
	return g.Group(prefix)
}
