package guard

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Event records one guard decision.
type Event struct {
	Time       time.Time
	Addr       string
	Outcome    Outcome
	Code       string
	RetryAfter time.Duration
	Count      int // requests in the trailing window, 0 when blacklisted
}

// EventSink receives decision events. Emit is called on the request path and
// must not block.
type EventSink interface {
	Emit(Event)
}

type discardSink struct{}

func (discardSink) Emit(Event) {}

// LogSink writes events to a zerolog logger from a background goroutine.
// Events are queued in a bounded buffer; when the buffer is full new events
// are dropped and counted.
type LogSink struct {
	log     zerolog.Logger
	ch      chan Event
	done    chan struct{}
	once    sync.Once
	dropped atomic.Uint64
}

// NewLogSink starts a sink with room for size pending events.
func NewLogSink(l zerolog.Logger, size int) *LogSink {
	if size <= 0 {
		size = 1024
	}
	s := &LogSink{
		log:  l,
		ch:   make(chan Event, size),
		done: make(chan struct{}),
	}
	go s.loop()
	return s
}

// Emit enqueues e without blocking.
func (s *LogSink) Emit(e Event) {
	select {
	case s.ch <- e:
	default:
		s.dropped.Add(1)
		droppedEvents.Inc()
	}
}

// Dropped returns how many events were discarded because the buffer was full.
func (s *LogSink) Dropped() uint64 { return s.dropped.Load() }

// Close drains pending events and stops the writer. Emit must not be called
// after Close.
func (s *LogSink) Close() {
	s.once.Do(func() {
		close(s.ch)
		<-s.done
	})
}

func (s *LogSink) loop() {
	defer close(s.done)
	for e := range s.ch {
		ev := s.log.Warn()
		if e.Outcome == Pass {
			ev = s.log.Debug()
		}
		ev = ev.
			Time("at", e.Time).
			Str("addr", e.Addr).
			Str("outcome", string(e.Outcome)).
			Int("window_count", e.Count)
		if e.Code != "" {
			ev = ev.Str("code", e.Code).Dur("retry_after", e.RetryAfter)
		}
		ev.Msg("abuse guard decision")
	}
}
