package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 64 << 10
	sendBuffer     = 256
)

// WSConn adapts a gorilla WebSocket to Conn. Outbound events are queued on a
// bounded channel and written by a single writer goroutine; inbound frames are
// read on the goroutine that calls Serve.
type WSConn struct {
	id   string
	ws   *websocket.Conn
	log  zerolog.Logger
	send chan Event

	closeOnce sync.Once
	closed    chan struct{}
}

// NewWSConn wraps an upgraded connection.
func NewWSConn(ws *websocket.Conn, log zerolog.Logger) *WSConn {
	id := uuid.NewString()
	return &WSConn{
		id:     id,
		ws:     ws,
		log:    log.With().Str("conn_id", id).Logger(),
		send:   make(chan Event, sendBuffer),
		closed: make(chan struct{}),
	}
}

// ID implements Conn.
func (c *WSConn) ID() string { return c.id }

// Send implements Conn. It never blocks.
func (c *WSConn) Send(ev Event) bool {
	select {
	case <-c.closed:
		return false
	default:
	}
	select {
	case c.send <- ev:
		return true
	default:
		return false
	}
}

// Close implements Conn.
func (c *WSConn) Close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		_ = c.ws.Close()
	})
}

// Serve runs the write pump in the background and the read pump on the
// calling goroutine, passing each text frame to onFrame. It returns when the
// peer goes away or the connection is closed; the connection is closed on
// return.
func (c *WSConn) Serve(onFrame func([]byte)) {
	wsConnections.Inc()
	defer wsConnections.Dec()

	go c.writePump()
	defer c.Close()

	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		mt, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Debug().Err(err).Msg("websocket read ended")
			}
			return
		}
		if mt != websocket.TextMessage {
			continue
		}
		onFrame(data)
	}
}

func (c *WSConn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()
	for {
		select {
		case <-c.closed:
			return
		case ev := <-c.send:
			b, err := json.Marshal(ev)
			if err != nil {
				c.log.Error().Err(err).Str("event", ev.Name).Msg("encode outbound event")
				continue
			}
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
