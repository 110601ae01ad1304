package core

import (
	"context"
	"sync"
	"sync/atomic"

	"pkt.systems/traycon/schema"
)

// EventSource is the ordered, blocking pull the dispatcher drains. Next
// returns ok false once the source is closed and empty or ctx is done.
type EventSource interface {
	Next(ctx context.Context) (ev schema.ConsoleEvent, ok bool)
}

// Queue is a bounded EventSource fed by Post. It models a platform message
// queue: many writers, one reader, strict arrival order. Post never blocks;
// a full queue drops the event and counts the drop.
type Queue struct {
	mu      sync.RWMutex
	ch      chan schema.ConsoleEvent
	closed  bool
	dropped atomic.Int64
}

// NewQueue constructs a queue holding up to size pending events.
func NewQueue(size int) *Queue {
	if size <= 0 {
		size = schema.DefaultQueueSize
	}
	return &Queue{ch: make(chan schema.ConsoleEvent, size)}
}

// Post enqueues ev. It reports whether the event was accepted; a full queue
// drops the event without error. Posting to a closed queue returns
// ErrQueueClosed.
func (q *Queue) Post(ev schema.ConsoleEvent) (bool, error) {
	if ev == nil {
		return false, schema.ErrInvalidEvent
	}
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return false, schema.ErrQueueClosed
	}
	select {
	case q.ch <- ev:
		return true, nil
	default:
		q.dropped.Add(1)
		return false, nil
	}
}

// Next implements EventSource. Pending events drain even after Close.
func (q *Queue) Next(ctx context.Context) (schema.ConsoleEvent, bool) {
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case ev, ok := <-q.ch:
		return ev, ok
	case <-ctx.Done():
		return nil, false
	}
}

// Close stops intake. Already queued events still drain through Next.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.ch)
}

// Dropped reports how many events a full queue has rejected.
func (q *Queue) Dropped() int { return int(q.dropped.Load()) }
