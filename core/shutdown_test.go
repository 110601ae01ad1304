package core

import (
	"errors"
	"sync"
	"testing"
	"time"

	"pkt.systems/traycon/schema"
)

func TestCoordinatorStopsProducerAndReleases(t *testing.T) {
	cfg := testConfig(t)
	tr := newTranscript(cfg.TranscriptCapacity, cfg.LineEnding)
	p := newProducer(tr, cfg, newFakeClock(), nil)
	p.Start()

	released := 0
	coord := newCoordinator(p, cfg.ShutdownTimeout, nil, func() { released++ })
	if err := coord.Shutdown(); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if got := p.State(); got != schema.RunStopped {
		t.Fatalf("expected stopped producer, got %s", got)
	}
	if released != 1 {
		t.Fatalf("expected 1 release, got %d", released)
	}
}

func TestCoordinatorShutdownIsIdempotent(t *testing.T) {
	cfg := testConfig(t)
	tr := newTranscript(cfg.TranscriptCapacity, cfg.LineEnding)
	p := newProducer(tr, cfg, newFakeClock(), nil)
	p.Start()

	released := 0
	coord := newCoordinator(p, cfg.ShutdownTimeout, nil, func() { released++ })

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			coord.Shutdown()
		}()
	}
	wg.Wait()
	if err := coord.Shutdown(); err != nil {
		t.Fatalf("late shutdown: %v", err)
	}
	if released != 1 {
		t.Fatalf("expected 1 release after repeated shutdowns, got %d", released)
	}
}

func TestCoordinatorTimesOutAndProceeds(t *testing.T) {
	cfg := testConfig(t)
	tr := newTranscript(cfg.TranscriptCapacity, cfg.LineEnding)
	p := newProducer(tr, cfg, newFakeClock(), nil)
	// A producer wedged in running state never acknowledges the stop.
	p.state.Store(int32(schema.RunRunning))

	released := 0
	coord := newCoordinator(p, 20*time.Millisecond, nil, func() { released++ })

	err := coord.Shutdown()
	if !errors.Is(err, schema.ErrShutdownTimeout) {
		t.Fatalf("expected ErrShutdownTimeout, got %v", err)
	}
	if released != 1 {
		t.Fatalf("expected release despite timeout, got %d", released)
	}
	// Repeat calls report the original outcome without waiting again.
	start := time.Now()
	if err := coord.Shutdown(); !errors.Is(err, schema.ErrShutdownTimeout) {
		t.Fatalf("expected cached timeout error, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 10*time.Millisecond {
		t.Fatalf("second shutdown waited %v", elapsed)
	}
}

func TestCoordinatorFinishedChannel(t *testing.T) {
	cfg := testConfig(t)
	tr := newTranscript(cfg.TranscriptCapacity, cfg.LineEnding)
	p := newProducer(tr, cfg, newFakeClock(), nil)
	coord := newCoordinator(p, cfg.ShutdownTimeout, nil)

	select {
	case <-coord.Finished():
		t.Fatal("finished before shutdown")
	default:
	}
	coord.Shutdown()
	select {
	case <-coord.Finished():
	case <-time.After(time.Second):
		t.Fatal("finished never closed")
	}
}
