package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
)

// Throttle limits inbound events per key.
type Throttle interface {
	Allow(key string) bool
}

// Session dispatches the inbound events of one connection on behalf of an
// authenticated user. Handle must be called from a single goroutine.
type Session struct {
	engine   *Engine
	conn     Conn
	userID   string
	throttle Throttle
	log      zerolog.Logger

	announced bool
}

// NewSession binds conn to the authenticated userID. throttle may be nil.
func NewSession(e *Engine, conn Conn, userID string, throttle Throttle, log zerolog.Logger) *Session {
	return &Session{
		engine:   e,
		conn:     conn,
		userID:   userID,
		throttle: throttle,
		log:      log.With().Str("user_id", userID).Str("conn_id", conn.ID()).Logger(),
	}
}

// Handle decodes one frame and runs the matching engine operation. Failures
// are reported back to the connection as error events.
func (s *Session) Handle(ctx context.Context, frame []byte) {
	if s.throttle != nil && !s.throttle.Allow("user:"+s.userID) {
		s.fail(ErrThrottled)
		return
	}

	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		s.fail(fmt.Errorf("%w: malformed frame", ErrInvalidInput))
		return
	}

	switch env.Name {
	case EventAnnouncePresence:
		wsEvents.WithLabelValues(env.Name).Inc()
		var p AnnouncePayload
		if err := decode(env.Data, &p); err != nil {
			s.fail(err)
			return
		}
		if p.UserID != s.userID {
			s.fail(ErrForbidden)
			return
		}
		if err := s.engine.Announce(ctx, s.conn, p.UserID); err != nil {
			s.fail(err)
			return
		}
		s.announced = true

	case EventSendMessage:
		wsEvents.WithLabelValues(env.Name).Inc()
		if !s.announced {
			s.fail(ErrNotAnnounced)
			return
		}
		var in SendMessageInput
		if err := decode(env.Data, &in); err != nil {
			s.fail(err)
			return
		}
		if in.SenderID != s.userID {
			s.fail(ErrForbidden)
			return
		}
		if _, err := s.engine.SendMessage(ctx, in); err != nil {
			s.fail(err)
		}

	case EventMarkRead:
		wsEvents.WithLabelValues(env.Name).Inc()
		if !s.announced {
			s.fail(ErrNotAnnounced)
			return
		}
		var p MarkReadPayload
		if err := decode(env.Data, &p); err != nil {
			s.fail(err)
			return
		}
		if p.ReaderID != s.userID {
			s.fail(ErrForbidden)
			return
		}
		if _, err := s.engine.MarkRead(ctx, p.MessageID, p.ReaderID); err != nil {
			s.fail(err)
		}

	default:
		wsEvents.WithLabelValues("unknown").Inc()
		s.fail(fmt.Errorf("%w: %q", ErrUnknownEvent, env.Name))
	}
}

// Close reports the end of the connection to the engine.
func (s *Session) Close(ctx context.Context) {
	if err := s.engine.Disconnect(ctx, s.conn); err != nil {
		s.log.Error().Err(err).Msg("disconnect")
	}
}

func (s *Session) fail(err error) {
	if isClientError(err) {
		s.log.Debug().Err(err).Msg("event rejected")
	} else {
		s.log.Error().Err(err).Msg("event failed")
	}
	s.engine.deliver(s.conn, errorEvent(err))
}

func decode(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return fmt.Errorf("%w: missing data", ErrInvalidInput)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}
