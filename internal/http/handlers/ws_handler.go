package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/tbourn/go-messenger-backend/internal/http/middleware"
	"github.com/tbourn/go-messenger-backend/internal/realtime"
)

// WSHandler upgrades authenticated requests to the realtime protocol.
type WSHandler struct {
	engine   *realtime.Engine
	throttle realtime.Throttle
	upgrader websocket.Upgrader
}

// NewWSHandler builds the upgrade endpoint. allowedOrigins restricts browser
// origins; an empty list or "*" admits any origin. Requests without an Origin
// header (non-browser clients) are always admitted.
func NewWSHandler(e *realtime.Engine, throttle realtime.Throttle, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		engine:   e,
		throttle: throttle,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 << 10,
			WriteBufferSize: 4 << 10,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		if o != "" {
			set[strings.ToLower(o)] = struct{}{}
		}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(set) == 0 {
			return true
		}
		_, ok := set[strings.ToLower(strings.TrimRight(origin, "/"))]
		return ok
	}
}

// Serve godoc
// @ID          websocket
// @Summary     Realtime channel
// @Description Upgrades to a WebSocket. Frames are JSON envelopes {"event","data"}; the first event must be announce-presence for the authenticated user.
// @Tags        Realtime
// @Security    BearerAuth
// @Param       token  query  string  false  "JWT for browser clients that cannot set headers"
// @Success     101  {string}  string  "Switching Protocols"
// @Failure     401  {object}  handlers.ErrorResponse
// @Failure     429  {object}  handlers.RateLimitResponse
// @Router      /ws [get]
func (h *WSHandler) Serve(c *gin.Context) {
	uid, okUser := currentUser(c)
	if !okUser {
		return
	}
	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// the upgrader has already written the HTTP error
		middleware.LoggerFrom(c).Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	log := middleware.LoggerFrom(c).With().Str("user_id", uid).Logger()
	conn := realtime.NewWSConn(ws, log)
	release, ok := h.engine.Attach(conn)
	if !ok {
		// shutting down
		conn.Close()
		return
	}
	defer release()
	sess := realtime.NewSession(h.engine, conn, uid, h.throttle, log)

	// presence must be persisted even if the request context is gone
	ctx := context.WithoutCancel(c.Request.Context())
	conn.Serve(func(frame []byte) { sess.Handle(ctx, frame) })
	sess.Close(ctx)
}
