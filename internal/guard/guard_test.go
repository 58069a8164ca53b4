package guard

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

var t0 = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingSink) Emit(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recordingSink) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func TestCheck_PassCarriesQuota(t *testing.T) {
	g := New(DefaultConfig())
	d := g.Check("1.1.1.1", t0)
	if !d.Allowed() || d.Limit != 60 || d.Remaining != 59 {
		t.Fatalf("unexpected first decision: %+v", d)
	}
	if !d.Reset.Equal(t0.Add(time.Minute)) {
		t.Fatalf("reset = %v", d.Reset)
	}
	d = g.Check("1.1.1.1", t0.Add(500*time.Millisecond))
	if d.Remaining != 58 {
		t.Fatalf("remaining should drop per request, got %d", d.Remaining)
	}
	// Other addresses are independent.
	if d := g.Check("2.2.2.2", t0); d.Remaining != 59 {
		t.Fatalf("addresses must not share history: %+v", d)
	}
}

func TestCheck_ElevenInOneSecond_HardBlock(t *testing.T) {
	g := New(DefaultConfig())
	addr := "10.0.0.1"
	for i := 0; i < 10; i++ {
		if d := g.Check(addr, t0.Add(time.Duration(i)*50*time.Millisecond)); !d.Allowed() {
			t.Fatalf("request %d should pass: %+v", i+1, d)
		}
	}
	d := g.Check(addr, t0.Add(600*time.Millisecond))
	if d.Outcome != Block || d.Code != CodeRateLimitExceeded || d.RetryAfterSeconds() != 900 {
		t.Fatalf("11th request: %+v", d)
	}

	// Every request within the block window keeps the hard-block code.
	for _, after := range []time.Duration{time.Second, 5 * time.Minute, 14*time.Minute + 59*time.Second} {
		d := g.Check(addr, t0.Add(600*time.Millisecond+after))
		if d.Outcome != Block || d.Code != CodeRateLimitExceeded {
			t.Fatalf("still blacklisted after %v: %+v", after, d)
		}
		want := 900 - int(after.Seconds())
		if got := d.RetryAfterSeconds(); got != want {
			t.Fatalf("retry-after after %v = %d, want %d", after, got, want)
		}
	}
}

func TestCheck_BlockExpires_AndBlockedRequestsAreNotRecorded(t *testing.T) {
	g := New(DefaultConfig())
	addr := "10.0.0.2"
	for i := 0; i < 11; i++ {
		g.Check(addr, t0.Add(time.Duration(i)*10*time.Millisecond))
	}
	for i := 0; i < 100; i++ {
		g.Check(addr, t0.Add(time.Minute+time.Duration(i)*time.Millisecond))
	}

	d := g.Check(addr, t0.Add(15*time.Minute+time.Second))
	if !d.Allowed() {
		t.Fatalf("block should have expired: %+v", d)
	}
	if d.Remaining != 59 {
		t.Fatalf("history must start fresh after expiry, remaining=%d", d.Remaining)
	}
}

// spaced issues n requests 900ms apart starting at start and returns the last decision.
func spaced(g *Guard, addr string, start time.Time, n int) (Decision, time.Time) {
	var (
		d  Decision
		at time.Time
	)
	for i := 0; i < n; i++ {
		at = start.Add(time.Duration(i) * 900 * time.Millisecond)
		d = g.Check(addr, at)
	}
	return d, at
}

func TestCheck_SixtyOneInAMinute_Warns(t *testing.T) {
	g := New(DefaultConfig())
	d, _ := spaced(g, "10.0.0.3", t0, 60)
	if !d.Allowed() || d.Remaining != 0 {
		t.Fatalf("60th request should pass with no quota left: %+v", d)
	}
	d = g.Check("10.0.0.3", t0.Add(54*time.Second))
	if d.Outcome != Warn || d.Code != CodeRateLimitMinute || d.RetryAfterSeconds() != 60 {
		t.Fatalf("61st request: %+v", d)
	}
}

func TestCheck_ThirdWarningEscalates(t *testing.T) {
	g := New(DefaultConfig())
	addr := "10.0.0.4"
	_, last := spaced(g, addr, t0, 60)

	codes := []string{}
	var d Decision
	for i := 1; i <= 3; i++ {
		d = g.Check(addr, last.Add(time.Duration(i)*200*time.Millisecond))
		codes = append(codes, d.Code)
	}
	if codes[0] != CodeRateLimitMinute || codes[1] != CodeRateLimitMinute {
		t.Fatalf("first two violations should warn, got %v", codes)
	}
	if d.Outcome != Block || d.Code != CodeIPBlocked || d.RetryAfterSeconds() != 1800 {
		t.Fatalf("third violation should escalate: %+v", d)
	}
	if s := g.Snapshot(); s.Suspected != 0 || s.Blacklisted != 1 {
		t.Fatalf("suspicion must be cleared on escalation: %+v", s)
	}

	blockedAt := last.Add(600 * time.Millisecond)
	d = g.Check(addr, blockedAt.Add(20*time.Minute))
	if d.Outcome != Block || d.Code != CodeIPBlocked {
		t.Fatalf("escalated block must outlast the base duration: %+v", d)
	}
	if d := g.Check(addr, blockedAt.Add(30*time.Minute+time.Second)); !d.Allowed() {
		t.Fatalf("escalated block should expire after 30m: %+v", d)
	}
}

func TestCheck_StaleSuspicionRestarts(t *testing.T) {
	g := New(DefaultConfig())
	addr := "10.0.0.5"

	_, last := spaced(g, addr, t0, 60)
	g.Check(addr, last.Add(200*time.Millisecond)) // warning 1
	g.Check(addr, last.Add(400*time.Millisecond)) // warning 2

	// Past the base duration the record restarts, so the next violation is warning 1 again.
	later := t0.Add(20 * time.Minute)
	_, last = spaced(g, addr, later, 60)
	d := g.Check(addr, last.Add(200*time.Millisecond))
	if d.Outcome != Warn {
		t.Fatalf("expected a warning, not an escalation: %+v", d)
	}
}

func TestSweep_EvictsStaleState(t *testing.T) {
	g := New(DefaultConfig())
	g.Check("idle", t0)
	for i := 0; i < 11; i++ {
		g.Check("banned", t0.Add(time.Duration(i)*time.Millisecond))
	}
	_, last := spaced(g, "suspect", t0, 61)

	g.Sweep(t0.Add(30 * time.Second))
	if s := g.Snapshot(); s.Tracked != 3 || s.Blacklisted != 1 || s.Suspected != 1 {
		t.Fatalf("nothing should be evicted yet: %+v", s)
	}

	g.Sweep(last.Add(16 * time.Minute))
	if s := g.Snapshot(); s.Tracked != 0 || s.Blacklisted != 0 || s.Suspected != 0 {
		t.Fatalf("expected everything evicted: %+v", s)
	}
}

func TestCheck_EmitsEveryDecision(t *testing.T) {
	sink := &recordingSink{}
	g := New(DefaultConfig(), WithSink(sink))
	for i := 0; i < 12; i++ {
		g.Check("9.9.9.9", t0.Add(time.Duration(i)*time.Millisecond))
	}
	if sink.len() != 12 {
		t.Fatalf("expected 12 events, got %d", sink.len())
	}
	last := sink.events[11]
	if last.Outcome != Block || last.Code != CodeRateLimitExceeded || last.Addr != "9.9.9.9" {
		t.Fatalf("unexpected last event: %+v", last)
	}
}

func TestCheck_ConcurrentCallersSeeConsistentCounts(t *testing.T) {
	g := New(Config{PerSecond: 1000, PerMinute: 1000})
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g.Check("c", t0)
		}()
	}
	wg.Wait()
	if d := g.Check("c", t0); d.Remaining != 1000-51 {
		t.Fatalf("lost updates under concurrency: remaining=%d", d.Remaining)
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	g := New(Config{SweepInterval: time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		g.Run(ctx)
		close(done)
	}()
	time.Sleep(5 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Run did not return after cancel")
	}
}

func TestLogSink_WritesAndDrains(t *testing.T) {
	var buf bytes.Buffer
	s := NewLogSink(zerolog.New(&buf).Level(zerolog.DebugLevel), 8)
	s.Emit(Event{Time: t0, Addr: "1.2.3.4", Outcome: Block, Code: CodeIPBlocked, RetryAfter: 30 * time.Minute})
	s.Emit(Event{Time: t0, Addr: "1.2.3.4", Outcome: Pass, Count: 1})
	s.Close()

	out := buf.String()
	if strings.Count(out, "abuse guard decision") != 2 {
		t.Fatalf("expected two log lines, got %q", out)
	}
	if !strings.Contains(out, `"code":"IP_BLOCKED"`) || !strings.Contains(out, `"level":"warn"`) {
		t.Fatalf("block event not logged as warning: %q", out)
	}
}

type gateWriter struct{ release chan struct{} }

func (w gateWriter) Write(p []byte) (int, error) {
	<-w.release
	return len(p), nil
}

func TestLogSink_DropsWhenFull(t *testing.T) {
	w := gateWriter{release: make(chan struct{})}
	s := NewLogSink(zerolog.New(w), 1)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			s.Emit(Event{Outcome: Warn, Code: CodeRateLimitMinute})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Emit blocked on a full buffer")
	}
	if s.Dropped() < 98 {
		t.Fatalf("expected at least 98 drops, got %d", s.Dropped())
	}
	close(w.release)
	s.Close()
}
