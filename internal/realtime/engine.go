package realtime

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-messenger-backend/internal/domain"
	"github.com/tbourn/go-messenger-backend/internal/repo"
)

// Options tunes an Engine.
type Options struct {
	// MaxContentRunes caps message content length; 0 disables the check.
	MaxContentRunes int
	Logger          zerolog.Logger
	// Now overrides the clock used for presence timestamps.
	Now func() time.Time
}

// Engine routes realtime events between connections and persists their
// effects through the store.
//
// Each connection goes connected (anonymous) -> announced(userID) ->
// disconnected. Only announced connections receive fan-out. A connection
// superseded by a newer announcement for the same user is closed, and its
// later disconnect is a no-op so the user stays online.
//
// This type is safe for concurrent use.
type Engine struct {
	store *repo.Store
	reg   *Registry
	log   zerolog.Logger
	now   func() time.Time

	maxContentRunes int

	// presenceMu serializes announce/disconnect so the persisted flag and the
	// registry move together.
	presenceMu sync.Mutex

	// live sessions, announced or not; see Attach and Drain
	sessMu   sync.Mutex
	sessions map[Conn]struct{}
	draining bool
	sessWG   sync.WaitGroup
}

// NewEngine wires an engine to store and reg.
func NewEngine(store *repo.Store, reg *Registry, opts Options) *Engine {
	now := opts.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Engine{
		store:           store,
		reg:             reg,
		log:             opts.Logger,
		now:             now,
		maxContentRunes: opts.MaxContentRunes,
		sessions:        make(map[Conn]struct{}),
	}
}

// Attach records conn as a live session. It reports false once Drain has
// started, in which case conn must be closed without being served. Otherwise
// release must be called after the session's Disconnect has returned.
func (e *Engine) Attach(conn Conn) (release func(), ok bool) {
	e.sessMu.Lock()
	defer e.sessMu.Unlock()
	if e.draining {
		return nil, false
	}
	e.sessions[conn] = struct{}{}
	e.sessWG.Add(1)

	var once sync.Once
	return func() {
		once.Do(func() {
			e.sessMu.Lock()
			delete(e.sessions, conn)
			e.sessMu.Unlock()
			e.sessWG.Done()
		})
	}, true
}

// Drain refuses new sessions, closes every live connection and waits until
// each session has released, so offline presence is persisted before the
// store goes away. It returns ctx.Err() if ctx ends first.
func (e *Engine) Drain(ctx context.Context) error {
	e.sessMu.Lock()
	e.draining = true
	live := make([]Conn, 0, len(e.sessions))
	for c := range e.sessions {
		live = append(live, c)
	}
	e.sessMu.Unlock()

	for _, c := range live {
		c.Close()
	}

	done := make(chan struct{})
	go func() {
		e.sessWG.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Registry exposes the engine's connection registry.
func (e *Engine) Registry() *Registry { return e.reg }

func tracer() trace.Tracer { return otel.Tracer("realtime/Engine") }

// Announce marks userID online, binds conn to it and tells every other
// connection. A previous connection of the same user is closed. Announcing
// again on the handle that is already bound changes nothing.
func (e *Engine) Announce(ctx context.Context, conn Conn, userID string) error {
	ctx, span := tracer().Start(ctx, "Announce", trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("%w: userId is required", ErrInvalidInput)
	}

	e.presenceMu.Lock()
	defer e.presenceMu.Unlock()

	if cur, ok := e.reg.UserOf(conn); ok {
		if cur != userID {
			return ErrAlreadyAnnounced
		}
		// already bound to this handle
		return nil
	}

	err := e.store.Update(ctx, func(tx *gorm.DB) error {
		return repo.SetUserPresence(ctx, tx, userID, true, e.now())
	}, repo.Users)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("announce: %w", err)
	}

	if prev := e.reg.Register(userID, conn); prev != nil {
		e.log.Info().Str("user_id", userID).Str("conn_id", prev.ID()).Msg("connection superseded")
		prev.Close()
	}
	e.broadcast(conn, presenceEvent(userID, true))
	return nil
}

// SendMessage validates and stores a message, updates the chat's last message
// and pushes new-message to every participant with a live connection,
// including the sender.
func (e *Engine) SendMessage(ctx context.Context, in SendMessageInput) (*domain.Message, error) {
	ctx, span := tracer().Start(ctx, "SendMessage", trace.WithAttributes(
		attribute.String("chat.id", in.ChatID),
		attribute.String("user.id", in.SenderID),
	))
	defer span.End()

	if in.ChatID == "" || in.SenderID == "" {
		return nil, fmt.Errorf("%w: chatId and senderId are required", ErrInvalidInput)
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, fmt.Errorf("%w: content is empty", ErrInvalidInput)
	}
	if e.maxContentRunes > 0 && utf8.RuneCountInString(in.Content) > e.maxContentRunes {
		return nil, ErrContentTooLong
	}
	typ := in.Type
	if typ == "" {
		typ = domain.MessageText
	}
	if !typ.Valid() {
		return nil, fmt.Errorf("%w: unknown message type %q", ErrInvalidInput, typ)
	}

	var (
		msg  *domain.Message
		chat *domain.Chat
	)
	err := e.store.Update(ctx, func(tx *gorm.DB) error {
		c, err := repo.GetChat(ctx, tx, in.ChatID)
		if errors.Is(err, repo.ErrNotFound) {
			return ErrChatNotFound
		}
		if err != nil {
			return err
		}
		if !c.HasParticipant(in.SenderID) {
			return ErrNotParticipant
		}
		m, err := repo.CreateMessage(tx.WithContext(ctx), c.ID, in.SenderID, in.Content, typ)
		if err != nil {
			return err
		}
		if err := repo.UpdateChatLastMessage(ctx, tx, c.ID, m.Snapshot()); err != nil {
			return err
		}
		msg, chat = m, c
		return nil
	}, repo.Messages, repo.Chats)
	if err != nil {
		if isClientError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("send message: %w", err)
	}

	ev := Event{Name: EventNewMessage, Data: msg}
	for _, uid := range []string{chat.ParticipantLo, chat.ParticipantHi} {
		if c, ok := e.reg.Lookup(uid); ok {
			e.deliver(c, ev)
		}
	}
	return msg, nil
}

// MarkRead records readerID as a reader of messageID. It reports whether the
// reader set changed; marking an already-read message is a no-op with no
// write and no receipt. On change the sender is notified.
func (e *Engine) MarkRead(ctx context.Context, messageID, readerID string) (bool, error) {
	ctx, span := tracer().Start(ctx, "MarkRead", trace.WithAttributes(
		attribute.String("message.id", messageID),
		attribute.String("user.id", readerID),
	))
	defer span.End()

	if messageID == "" || readerID == "" {
		return false, fmt.Errorf("%w: messageId and readerId are required", ErrInvalidInput)
	}

	var (
		changed  bool
		senderID string
	)
	err := e.store.Update(ctx, func(tx *gorm.DB) error {
		m, err := repo.GetMessage(tx.WithContext(ctx), messageID)
		if errors.Is(err, repo.ErrNotFound) {
			return ErrMessageNotFound
		}
		if err != nil {
			return err
		}
		c, err := repo.GetChat(ctx, tx, m.ChatID)
		if errors.Is(err, repo.ErrNotFound) {
			return ErrChatNotFound
		}
		if err != nil {
			return err
		}
		if !c.HasParticipant(readerID) {
			return ErrNotParticipant
		}
		senderID = m.SenderID
		if m.HasReader(readerID) {
			return nil
		}
		m.ReadBy = append(m.ReadBy, readerID)
		m.Status = domain.StatusRead
		if err := repo.SaveMessageReadBy(tx.WithContext(ctx), m); err != nil {
			return err
		}
		changed = true
		return nil
	}, repo.Messages)
	if err != nil {
		if isClientError(err) {
			return false, err
		}
		return false, fmt.Errorf("mark read: %w", err)
	}

	if changed {
		if c, ok := e.reg.Lookup(senderID); ok {
			e.deliver(c, Event{Name: EventReadReceipt, Data: ReadReceiptPayload{MessageID: messageID, ReaderID: readerID}})
		}
	}
	return changed, nil
}

// Disconnect handles the close of conn. Unannounced or superseded handles are
// ignored. Otherwise the user is persisted offline, unregistered and every
// other connection is told once. If the store write fails the registry entry
// is kept so it keeps matching the persisted state.
func (e *Engine) Disconnect(ctx context.Context, conn Conn) error {
	e.presenceMu.Lock()
	defer e.presenceMu.Unlock()

	userID, ok := e.reg.UserOf(conn)
	if !ok {
		return nil
	}

	ctx, span := tracer().Start(ctx, "Disconnect", trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	err := e.store.Update(ctx, func(tx *gorm.DB) error {
		return repo.SetUserPresence(ctx, tx, userID, false, e.now())
	}, repo.Users)
	// A user deleted while connected has nothing to persist.
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		e.log.Error().Err(err).Str("user_id", userID).Str("conn_id", conn.ID()).Msg("persist offline presence failed")
		return fmt.Errorf("disconnect: %w", err)
	}

	if _, removed := e.reg.Unregister(conn); removed {
		e.broadcast(conn, presenceEvent(userID, false))
	}
	return nil
}

// broadcast sends ev to every registered connection except from.
func (e *Engine) broadcast(from Conn, ev Event) {
	for _, c := range e.reg.Peers(from) {
		e.deliver(c, ev)
	}
}

func (e *Engine) deliver(c Conn, ev Event) {
	if c.Send(ev) {
		wsEvents.WithLabelValues(ev.Name).Inc()
		return
	}
	wsDropped.Inc()
	e.log.Debug().Str("conn_id", c.ID()).Str("event", ev.Name).Msg("outbound event dropped")
}
