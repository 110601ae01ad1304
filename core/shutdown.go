package core

import (
	"sync"
	"time"

	"pkt.systems/pslog"
	"pkt.systems/traycon/schema"
)

// coordinator stops the producer and waits, bounded, for its acknowledgment
// before releasing shared resources. Safe to call from any goroutine; only
// the first call does the work and later calls block until it finishes and
// return the same result.
type coordinator struct {
	producer *producer
	timeout  time.Duration
	log      pslog.Logger

	// release hooks run exactly once, after the producer wait, in order.
	release []func()

	once sync.Once
	done chan struct{}
	err  error
}

func newCoordinator(p *producer, timeout time.Duration, log pslog.Logger, release ...func()) *coordinator {
	return &coordinator{
		producer: p,
		timeout:  timeout,
		log:      log,
		release:  release,
		done:     make(chan struct{}),
	}
}

// Shutdown stops the producer and blocks until it acknowledges RunStopped or
// the bound expires. On expiry it reports ErrShutdownTimeout and releases
// resources anyway so the process can still exit.
func (c *coordinator) Shutdown() error {
	c.once.Do(func() {
		defer close(c.done)
		c.producer.Stop()
		select {
		case <-c.producer.Done():
			if c.log != nil {
				c.log.Debug("producer join ok", "state", c.producer.State())
			}
		case <-time.After(c.timeout):
			c.err = schema.ErrShutdownTimeout
			if c.log != nil {
				c.log.Warn("producer join timed out", "timeout", c.timeout, "state", c.producer.State())
			}
		}
		for _, f := range c.release {
			f()
		}
		if c.log != nil {
			c.log.Debug("shutdown complete")
		}
	})
	<-c.done
	return c.err
}

// Finished is closed once the first Shutdown call has completed.
func (c *coordinator) Finished() <-chan struct{} { return c.done }
