package core

import (
	"sync"
	"sync/atomic"
	"time"

	"pkt.systems/pslog"
	"pkt.systems/traycon/schema"
)

// producer appends the fixed status line to the transcript on a fixed
// interval until told to stop. Stop never blocks: the loop observes the stop
// flag on its next wake and performs at most one more append before setting
// RunStopped. Append shortfalls are neither retried nor escalated.
type producer struct {
	transcript *transcript
	status     string
	interval   time.Duration
	clock      Clock
	log        pslog.Logger

	state    atomic.Int32
	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}

	// onAppend and onState fire from the producer goroutine after each
	// write and state change. Either may be nil.
	onAppend func(written, discarded int)
	onState  func(schema.RunState)
}

func newProducer(tr *transcript, cfg schema.ConsoleConfig, clock Clock, log pslog.Logger) *producer {
	return &producer{
		transcript: tr,
		status:     cfg.StatusText,
		interval:   cfg.ProducerInterval,
		clock:      clock,
		log:        log,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
}

// State reports the current run state.
func (p *producer) State() schema.RunState {
	return schema.RunState(p.state.Load())
}

// Done is closed once the loop has exited and RunStopped is set.
func (p *producer) Done() <-chan struct{} { return p.doneCh }

// Start launches the loop goroutine. Only the first call from RunCreated
// starts anything.
func (p *producer) Start() {
	if !p.state.CompareAndSwap(int32(schema.RunCreated), int32(schema.RunRunning)) {
		return
	}
	if p.onState != nil {
		p.onState(schema.RunRunning)
	}
	if p.log != nil {
		p.log.Debug("producer start", "interval", p.interval, "status", p.status)
	}
	go p.loop()
}

// Stop requests a cooperative stop and returns immediately. A producer that
// never started goes straight to RunStopped.
func (p *producer) Stop() {
	p.stopOnce.Do(func() {
		if p.state.CompareAndSwap(int32(schema.RunCreated), int32(schema.RunStopped)) {
			close(p.stopCh)
			close(p.doneCh)
			if p.onState != nil {
				p.onState(schema.RunStopped)
			}
			return
		}
		p.state.CompareAndSwap(int32(schema.RunRunning), int32(schema.RunStopping))
		if p.onState != nil {
			p.onState(schema.RunStopping)
		}
		if p.log != nil {
			p.log.Debug("producer stop requested")
		}
		close(p.stopCh)
	})
}

func (p *producer) loop() {
	defer func() {
		p.state.Store(int32(schema.RunStopped))
		if p.onState != nil {
			p.onState(schema.RunStopped)
		}
		if p.log != nil {
			p.log.Debug("producer stopped")
		}
		close(p.doneCh)
	}()

	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.Chan():
			p.appendStatus()
			// Re-check after writing so a stop racing the tick costs at
			// most this one append.
			select {
			case <-p.stopCh:
				return
			default:
			}
		}
	}
}

func (p *producer) appendStatus() {
	written, discarded := p.transcript.Append(p.status + "\n")
	if discarded > 0 && p.log != nil {
		p.log.Trace("transcript truncated", "written", written, "discarded", discarded)
	}
	if p.onAppend != nil && written > 0 {
		p.onAppend(written, discarded)
	}
}
