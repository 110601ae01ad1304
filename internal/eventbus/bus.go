package eventbus

import (
	"context"
	"sync"

	"pkt.systems/pslog"
	"pkt.systems/traycon/schema"
)

// EventType identifies the event payload.
type EventType string

const (
	// EventTranscript signals new transcript bytes.
	EventTranscript EventType = "transcript"
	// EventVisibility signals a tray visibility transition.
	EventVisibility EventType = "visibility"
	// EventGeometry signals a surface geometry change.
	EventGeometry EventType = "geometry"
	// EventRun signals a producer lifecycle transition.
	EventRun EventType = "run"
)

// Event represents a surface-facing notification emitted by the core service.
type Event struct {
	Type       EventType
	Transcript schema.TranscriptEvent
	Visibility schema.VisibilityEvent
	Geometry   schema.GeometryEvent
	Run        schema.RunEvent
}

// Bus fans console notifications out to subscribed surfaces. Publishing never
// blocks; a subscriber that falls behind loses events and re-reads state from
// a snapshot on its next wake.
type Bus struct {
	mu    sync.Mutex
	subs  map[chan Event]struct{}
	log   pslog.Logger
	depth int
}

// New constructs a Bus.
func New(logger pslog.Logger) *Bus {
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &Bus{
		subs:  make(map[chan Event]struct{}),
		log:   logger,
		depth: 256,
	}
}

// Subscribe registers a subscriber and returns a channel + cancel.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	if b == nil {
		return nil, func() {}
	}
	ch := make(chan Event, b.depth)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	count := len(b.subs)
	b.mu.Unlock()
	if b.log != nil {
		b.log.Debug("eventbus subscribe", "subs", count)
	}
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ch)
			b.mu.Unlock()
			close(ch)
			if b.log != nil {
				b.log.Debug("eventbus unsubscribe")
			}
		})
	}
}

// OnTranscript publishes a transcript notification.
func (b *Bus) OnTranscript(event schema.TranscriptEvent) {
	b.publish(Event{Type: EventTranscript, Transcript: event})
}

// OnVisibility publishes a visibility notification.
func (b *Bus) OnVisibility(event schema.VisibilityEvent) {
	b.publish(Event{Type: EventVisibility, Visibility: event})
}

// OnGeometry publishes a geometry notification.
func (b *Bus) OnGeometry(event schema.GeometryEvent) {
	b.publish(Event{Type: EventGeometry, Geometry: event})
}

// OnRun publishes a run state notification.
func (b *Bus) OnRun(event schema.RunEvent) {
	b.publish(Event{Type: EventRun, Run: event})
}

func (b *Bus) publish(event Event) {
	if b == nil {
		return
	}
	b.mu.Lock()
	subs := make([]chan Event, 0, len(b.subs))
	for sub := range b.subs {
		subs = append(subs, sub)
	}
	b.mu.Unlock()
	if len(subs) == 0 {
		return
	}
	dropped := 0
	for _, sub := range subs {
		select {
		case sub <- event:
		default:
			dropped++
		}
	}
	if dropped > 0 && b.log != nil {
		b.log.Trace("eventbus dropped", "type", event.Type, "count", dropped)
	}
}
