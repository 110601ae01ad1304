package core

import (
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"pkt.systems/pslog"
	"pkt.systems/traycon/schema"
)

// fakeClock hands out tickers that fire only when the test says so.
type fakeClock struct {
	mu      sync.Mutex
	tickers []*fakeTicker
	now     time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(0, 0)}
}

func (c *fakeClock) NewTicker(d time.Duration) Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	ticker := &fakeTicker{ch: make(chan time.Time, 16)}
	c.tickers = append(c.tickers, ticker)
	return ticker
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Tick fires every ticker once without blocking.
func (c *fakeClock) Tick() {
	c.mu.Lock()
	c.now = c.now.Add(time.Second)
	now := c.now
	tickers := append([]*fakeTicker(nil), c.tickers...)
	c.mu.Unlock()
	for _, ticker := range tickers {
		select {
		case ticker.ch <- now:
		default:
		}
	}
}

type fakeTicker struct {
	ch chan time.Time
}

func (t *fakeTicker) Chan() <-chan time.Time { return t.ch }
func (t *fakeTicker) Stop()                  {}

func testConfig(t *testing.T) schema.ConsoleConfig {
	t.Helper()
	cfg, err := schema.NormalizeConsoleConfig(schema.ConsoleConfig{
		ShutdownTimeout: 200 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("normalize config: %v", err)
	}
	return cfg
}

func TestProducerAppendsOnEachTick(t *testing.T) {
	cfg := testConfig(t)
	clock := newFakeClock()
	tr := newTranscript(cfg.TranscriptCapacity, cfg.LineEnding)
	p := newProducer(tr, cfg, clock, nil)

	appended := make(chan struct{}, 16)
	p.onAppend = func(written, discarded int) { appended <- struct{}{} }

	p.Start()
	for i := 0; i < 3; i++ {
		clock.Tick()
		select {
		case <-appended:
		case <-time.After(time.Second):
			t.Fatalf("append %d did not happen", i)
		}
	}
	p.Stop()
	<-p.Done()

	snap := tr.Snapshot()
	if snap.Appends < 3 {
		t.Fatalf("expected at least 3 appends, got %d", snap.Appends)
	}
	if snap.Text[:9] != "running\r\n" {
		t.Fatalf("unexpected transcript head %q", snap.Text[:9])
	}
}

func TestProducerStopIsNonBlockingAndAcknowledged(t *testing.T) {
	cfg := testConfig(t)
	clock := newFakeClock()
	tr := newTranscript(cfg.TranscriptCapacity, cfg.LineEnding)
	p := newProducer(tr, cfg, clock, nil)

	p.Start()
	if got := p.State(); got != schema.RunRunning {
		t.Fatalf("expected running, got %s", got)
	}

	start := time.Now()
	p.Stop()
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Fatalf("stop blocked for %v", elapsed)
	}

	select {
	case <-p.Done():
	case <-time.After(time.Second):
		t.Fatal("producer never acknowledged stop")
	}
	if got := p.State(); got != schema.RunStopped {
		t.Fatalf("expected stopped, got %s", got)
	}
}

func TestProducerAtMostOneAppendAfterStop(t *testing.T) {
	cfg := testConfig(t)
	clock := newFakeClock()
	tr := newTranscript(cfg.TranscriptCapacity, cfg.LineEnding)
	p := newProducer(tr, cfg, clock, nil)

	appended := make(chan struct{}, 16)
	p.onAppend = func(written, discarded int) { appended <- struct{}{} }

	p.Start()
	clock.Tick()
	select {
	case <-appended:
	case <-time.After(time.Second):
		t.Fatal("first append missing")
	}

	before := tr.Snapshot().Appends
	p.Stop()
	for i := 0; i < 5; i++ {
		clock.Tick()
	}
	<-p.Done()

	if extra := tr.Snapshot().Appends - before; extra > 1 {
		t.Fatalf("expected at most one append after stop, got %d", extra)
	}

	// Once stopped is observed, nothing further is written.
	settled := tr.Snapshot().Appends
	for i := 0; i < 5; i++ {
		clock.Tick()
	}
	if got := tr.Snapshot().Appends; got != settled {
		t.Fatalf("appends after stopped: %d -> %d", settled, got)
	}
}

func TestProducerStopBeforeStart(t *testing.T) {
	cfg := testConfig(t)
	tr := newTranscript(cfg.TranscriptCapacity, cfg.LineEnding)
	p := newProducer(tr, cfg, newFakeClock(), nil)

	p.Stop()
	select {
	case <-p.Done():
	case <-time.After(time.Second):
		t.Fatal("unstarted producer never reported done")
	}
	if got := p.State(); got != schema.RunStopped {
		t.Fatalf("expected stopped, got %s", got)
	}

	// Start after stop must not revive the loop.
	p.Start()
	if got := p.State(); got != schema.RunStopped {
		t.Fatalf("expected stopped after late start, got %s", got)
	}
}

func TestProducerStopTwice(t *testing.T) {
	cfg := testConfig(t)
	tr := newTranscript(cfg.TranscriptCapacity, cfg.LineEnding)
	p := newProducer(tr, cfg, newFakeClock(), nil)
	p.Start()
	p.Stop()
	p.Stop()
	<-p.Done()
}

func TestProducerKeepsTickingWhenTranscriptFull(t *testing.T) {
	cfg := testConfig(t)
	cfg.TranscriptCapacity = 10
	clock := newFakeClock()
	tr := newTranscript(cfg.TranscriptCapacity, cfg.LineEnding)
	p := newProducer(tr, cfg, clock, nil)

	appended := make(chan struct{}, 16)
	p.onAppend = func(written, discarded int) { appended <- struct{}{} }

	p.Start()
	clock.Tick()
	select {
	case <-appended:
	case <-time.After(time.Second):
		t.Fatal("first append missing")
	}

	// Transcript has one free byte left; this append truncates to it.
	clock.Tick()
	select {
	case <-appended:
	case <-time.After(time.Second):
		t.Fatal("truncated append missing")
	}

	// Later appends write nothing, but the loop must keep running.
	for i := 0; i < 3; i++ {
		clock.Tick()
	}
	time.Sleep(20 * time.Millisecond)
	if got := p.State(); got != schema.RunRunning {
		t.Fatalf("expected producer still running, got %s", got)
	}
	snap := tr.Snapshot()
	if snap.Length != 10 {
		t.Fatalf("expected full transcript, got length %d", snap.Length)
	}
	if !snap.Truncated {
		t.Fatal("expected truncation to be recorded")
	}
	p.Stop()
	<-p.Done()
}

func TestProducerLogsTruncation(t *testing.T) {
	cfg := testConfig(t)
	cfg.TranscriptCapacity = 10
	capture := &logCapture{}
	logger := pslog.NewWithOptions(capture, pslog.Options{
		Mode:          pslog.ModeStructured,
		NoColor:       true,
		MinLevel:      pslog.TraceLevel,
		VerboseFields: true,
	})
	clock := newFakeClock()
	tr := newTranscript(cfg.TranscriptCapacity, cfg.LineEnding)
	p := newProducer(tr, cfg, clock, logger)

	appended := make(chan struct{}, 16)
	p.onAppend = func(written, discarded int) { appended <- struct{}{} }

	p.Start()
	for i := 0; i < 2; i++ {
		clock.Tick()
		select {
		case <-appended:
		case <-time.After(time.Second):
			t.Fatalf("append %d did not happen", i)
		}
	}
	p.Stop()
	<-p.Done()

	entry, ok := capture.find("transcript truncated")
	if !ok {
		t.Fatalf("expected truncation log, got %q", capture.Lines())
	}
	if entry["discarded"] != float64(8) {
		t.Fatalf("expected discarded=8, got %+v", entry)
	}
}

type logCapture struct {
	mu  sync.Mutex
	buf []byte
}

func (c *logCapture) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buf = append(c.buf, p...)
	return len(p), nil
}

func (c *logCapture) Lines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return strings.Split(strings.TrimSpace(string(c.buf)), "\n")
}

// find returns the first structured entry whose message matches.
func (c *logCapture) find(message string) (map[string]any, bool) {
	for _, line := range c.Lines() {
		entry := map[string]any{}
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			continue
		}
		msg, _ := entry["message"].(string)
		if msg == "" {
			msg, _ = entry["msg"].(string)
		}
		if msg == message {
			return entry, true
		}
	}
	return nil, false
}
