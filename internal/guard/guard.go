// Package guard implements the in-memory abuse guard that sits in front of
// every HTTP and WebSocket request.
//
// For each client address the guard keeps the timestamps of its requests in a
// sliding window, a suspicion record counting per-minute violations, and an
// optional blacklist entry. Check classifies one request as Pass, Warn or
// Block:
//
//   - a blacklisted address is blocked with the code of its entry until the
//     entry expires, and its requests are not recorded;
//   - more than PerSecond requests in the trailing second blacklist the
//     address for BlockDuration (RATE_LIMIT_EXCEEDED);
//   - more than PerMinute requests in the trailing window raise a warning
//     (RATE_LIMIT_MINUTE); the EscalateAfter-th warning within BlockDuration
//     blacklists the address for twice BlockDuration (IP_BLOCKED).
//
// State is process-local and guarded by a single mutex. Sweep (driven by Run)
// bounds memory by evicting idle histories, stale suspicion records and
// expired blacklist entries.
package guard

import (
	"context"
	"math"
	"sync"
	"time"
)

// Outcome classifies a request.
type Outcome string

const (
	Pass  Outcome = "pass"
	Warn  Outcome = "warn"
	Block Outcome = "block"
)

// Reason codes surfaced to clients.
const (
	CodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	CodeRateLimitMinute   = "RATE_LIMIT_MINUTE"
	CodeIPBlocked         = "IP_BLOCKED"
)

// Config holds the guard thresholds.
type Config struct {
	Window        time.Duration // sliding window for the per-minute ceiling
	PerSecond     int           // max requests in the trailing second
	PerMinute     int           // max requests in the trailing Window
	BlockDuration time.Duration // base blacklist duration
	EscalateAfter int           // warnings that trigger an escalated block
	SweepInterval time.Duration // how often Run evicts stale state
}

// DefaultConfig returns the production thresholds.
func DefaultConfig() Config {
	return Config{
		Window:        time.Minute,
		PerSecond:     10,
		PerMinute:     60,
		BlockDuration: 15 * time.Minute,
		EscalateAfter: 3,
		SweepInterval: 5 * time.Minute,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Window <= 0 {
		c.Window = d.Window
	}
	if c.PerSecond <= 0 {
		c.PerSecond = d.PerSecond
	}
	if c.PerMinute <= 0 {
		c.PerMinute = d.PerMinute
	}
	if c.BlockDuration <= 0 {
		c.BlockDuration = d.BlockDuration
	}
	if c.EscalateAfter <= 0 {
		c.EscalateAfter = d.EscalateAfter
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = d.SweepInterval
	}
	return c
}

// Decision is the verdict for a single request. Limit, Remaining and Reset
// are only meaningful for Pass.
type Decision struct {
	Outcome    Outcome
	Code       string
	RetryAfter time.Duration
	Limit      int
	Remaining  int
	Reset      time.Time
}

// Allowed reports whether the request may proceed.
func (d Decision) Allowed() bool { return d.Outcome == Pass }

// RetryAfterSeconds rounds RetryAfter up to whole seconds.
func (d Decision) RetryAfterSeconds() int {
	return int(math.Ceil(d.RetryAfter.Seconds()))
}

type history struct {
	hits  []time.Time
	total int64
	last  time.Time
}

type suspicion struct {
	firstSeen time.Time
	warnings  int
}

type banEntry struct {
	until time.Time
	code  string
}

// Guard tracks request rates per address.
//
// This type is safe for concurrent use.
type Guard struct {
	cfg  Config
	sink EventSink

	mu        sync.Mutex
	histories map[string]*history
	suspects  map[string]*suspicion
	blacklist map[string]banEntry
}

// Option configures a Guard.
type Option func(*Guard)

// WithSink routes decision events to s instead of discarding them.
func WithSink(s EventSink) Option {
	return func(g *Guard) {
		if s != nil {
			g.sink = s
		}
	}
}

// New builds a Guard. Zero fields in cfg fall back to DefaultConfig.
func New(cfg Config, opts ...Option) *Guard {
	g := &Guard{
		cfg:       cfg.withDefaults(),
		sink:      discardSink{},
		histories: make(map[string]*history),
		suspects:  make(map[string]*suspicion),
		blacklist: make(map[string]banEntry),
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Config returns the effective thresholds.
func (g *Guard) Config() Config { return g.cfg }

// Check classifies a request from addr arriving at now.
func (g *Guard) Check(addr string, now time.Time) Decision {
	g.mu.Lock()
	d, count := g.check(addr, now)
	g.mu.Unlock()

	observe(d)
	g.sink.Emit(Event{
		Time:       now,
		Addr:       addr,
		Outcome:    d.Outcome,
		Code:       d.Code,
		RetryAfter: d.RetryAfter,
		Count:      count,
	})
	return d
}

// check must be called with g.mu held. It returns the decision and the number
// of requests recorded in the trailing window.
func (g *Guard) check(addr string, now time.Time) (Decision, int) {
	if ban, ok := g.blacklist[addr]; ok {
		if now.Before(ban.until) {
			return Decision{Outcome: Block, Code: ban.code, RetryAfter: ban.until.Sub(now)}, 0
		}
		delete(g.blacklist, addr)
	}

	h := g.histories[addr]
	if h == nil {
		h = &history{}
		g.histories[addr] = h
	}
	windowStart := now.Add(-g.cfg.Window)
	kept := h.hits[:0]
	for _, ts := range h.hits {
		if ts.After(windowStart) {
			kept = append(kept, ts)
		}
	}
	h.hits = append(kept, now)
	h.total++
	h.last = now

	count := len(h.hits)
	secondStart := now.Add(-time.Second)
	inSecond := 0
	for i := len(h.hits) - 1; i >= 0 && h.hits[i].After(secondStart); i-- {
		inSecond++
	}

	if inSecond > g.cfg.PerSecond {
		g.blacklist[addr] = banEntry{until: now.Add(g.cfg.BlockDuration), code: CodeRateLimitExceeded}
		return Decision{Outcome: Block, Code: CodeRateLimitExceeded, RetryAfter: g.cfg.BlockDuration}, count
	}

	if count > g.cfg.PerMinute {
		s := g.suspects[addr]
		if s == nil || now.Sub(s.firstSeen) > g.cfg.BlockDuration {
			s = &suspicion{firstSeen: now}
			g.suspects[addr] = s
		}
		s.warnings++
		if s.warnings >= g.cfg.EscalateAfter {
			block := 2 * g.cfg.BlockDuration
			g.blacklist[addr] = banEntry{until: now.Add(block), code: CodeIPBlocked}
			delete(g.suspects, addr)
			return Decision{Outcome: Block, Code: CodeIPBlocked, RetryAfter: block}, count
		}
		return Decision{Outcome: Warn, Code: CodeRateLimitMinute, RetryAfter: g.cfg.Window}, count
	}

	remaining := g.cfg.PerMinute - count
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Outcome:   Pass,
		Limit:     g.cfg.PerMinute,
		Remaining: remaining,
		Reset:     now.Add(g.cfg.Window),
	}, count
}

// Sweep evicts histories idle for longer than the window, suspicion records
// older than the base block duration and expired blacklist entries.
func (g *Guard) Sweep(now time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for addr, h := range g.histories {
		if now.Sub(h.last) > g.cfg.Window {
			delete(g.histories, addr)
		}
	}
	for addr, s := range g.suspects {
		if now.Sub(s.firstSeen) > g.cfg.BlockDuration {
			delete(g.suspects, addr)
		}
	}
	for addr, b := range g.blacklist {
		if !now.Before(b.until) {
			delete(g.blacklist, addr)
		}
	}
	trackedAddrs.Set(float64(len(g.histories)))
	blacklistedAddrs.Set(float64(len(g.blacklist)))
}

// Run sweeps every SweepInterval until ctx is done.
func (g *Guard) Run(ctx context.Context) {
	t := time.NewTicker(g.cfg.SweepInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			g.Sweep(now)
		}
	}
}

// Snapshot reports how many addresses are tracked, suspected and blacklisted.
type Snapshot struct {
	Tracked     int `json:"tracked"`
	Suspected   int `json:"suspected"`
	Blacklisted int `json:"blacklisted"`
}

// Snapshot returns current state sizes.
func (g *Guard) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return Snapshot{
		Tracked:     len(g.histories),
		Suspected:   len(g.suspects),
		Blacklisted: len(g.blacklist),
	}
}
