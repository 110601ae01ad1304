package httpapi

import (
	"context"
	"sync"
	"time"

	"pkt.systems/pslog"
	"pkt.systems/traycon/schema"
)

// StreamEvent is sent to SSE clients.
type StreamEvent struct {
	Seq        uint64                  `json:"seq,omitempty"`
	Type       string                  `json:"type"`
	Length     int                     `json:"length,omitempty"`
	Discarded  int                     `json:"discarded,omitempty"`
	Visibility schema.TrayVisibility   `json:"visibility,omitempty"`
	Geometry   *schema.SurfaceGeometry `json:"geometry,omitempty"`
	Run        string                  `json:"run,omitempty"`
	Snapshot   *StatusPayload          `json:"snapshot,omitempty"`
	Timestamp  time.Time               `json:"timestamp"`
}

// StatusPayload seeds client state on connect and answers status requests.
type StatusPayload struct {
	Visibility    schema.TrayVisibility  `json:"visibility"`
	Run           string                 `json:"run"`
	Geometry      schema.SurfaceGeometry `json:"geometry"`
	Buffer        BufferPayload          `json:"buffer"`
	DroppedEvents int                    `json:"dropped_events"`
}

// BufferPayload reports transcript usage without the transcript text itself;
// the transcript endpoint serves the content.
type BufferPayload struct {
	Length    int  `json:"length"`
	Capacity  int  `json:"capacity"`
	Discarded int  `json:"discarded"`
	Appends   int  `json:"appends"`
	Truncated bool `json:"truncated"`
}

func statusPayload(snap schema.ConsoleSnapshot) StatusPayload {
	return StatusPayload{
		Visibility: snap.Visibility,
		Run:        snap.Run.String(),
		Geometry:   snap.Geometry,
		Buffer: BufferPayload{
			Length:    snap.Buffer.Length,
			Capacity:  snap.Buffer.Capacity,
			Discarded: snap.Buffer.Discarded,
			Appends:   snap.Buffer.Appends,
			Truncated: snap.Buffer.Truncated,
		},
		DroppedEvents: snap.DroppedEvents,
	}
}

// Hub broadcasts console notifications to SSE subscribers and keeps a short
// history for Last-Event-ID replay.
type Hub struct {
	mu          sync.Mutex
	seq         uint64
	history     []StreamEvent
	subs        map[chan StreamEvent]struct{}
	historySize int
}

// NewHub constructs a hub with the given history size.
func NewHub(historySize int) *Hub {
	if historySize <= 0 {
		historySize = 1000
	}
	return &Hub{
		subs:        make(map[chan StreamEvent]struct{}),
		historySize: historySize,
	}
}

// OnTranscript implements core.EventSink.
func (h *Hub) OnTranscript(event schema.TranscriptEvent) {
	pslog.Ctx(context.Background()).Trace("hub transcript event", "length", event.Length, "discarded", event.Discarded)
	h.publish(StreamEvent{
		Type:      "transcript",
		Length:    event.Length,
		Discarded: event.Discarded,
		Timestamp: time.Now(),
	})
}

// OnVisibility implements core.EventSink.
func (h *Hub) OnVisibility(event schema.VisibilityEvent) {
	pslog.Ctx(context.Background()).Trace("hub visibility event", "visibility", event.Visibility)
	h.publish(StreamEvent{
		Type:       "visibility",
		Visibility: event.Visibility,
		Timestamp:  time.Now(),
	})
}

// OnGeometry implements core.EventSink.
func (h *Hub) OnGeometry(event schema.GeometryEvent) {
	pslog.Ctx(context.Background()).Trace("hub geometry event", "width", event.Geometry.Width, "height", event.Geometry.Height)
	geometry := event.Geometry
	h.publish(StreamEvent{
		Type:      "geometry",
		Geometry:  &geometry,
		Timestamp: time.Now(),
	})
}

// OnRun implements core.EventSink.
func (h *Hub) OnRun(event schema.RunEvent) {
	pslog.Ctx(context.Background()).Trace("hub run event", "run", event.Run)
	h.publish(StreamEvent{
		Type:      "run",
		Run:       event.Run.String(),
		Timestamp: time.Now(),
	})
}

// Subscribe registers a stream subscriber. It returns the live channel, an
// unsubscribe func, the current sequence number, and a history copy.
func (h *Hub) Subscribe() (<-chan StreamEvent, func(), uint64, []StreamEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch := make(chan StreamEvent, 256)
	h.subs[ch] = struct{}{}
	history := append([]StreamEvent(nil), h.history...)
	seq := h.seq
	log := pslog.Ctx(context.Background())
	log.Info("hub subscribe", "subs", len(h.subs), "history", len(history))
	unsub := func() {
		h.mu.Lock()
		delete(h.subs, ch)
		close(ch)
		remaining := len(h.subs)
		h.mu.Unlock()
		log.Info("hub unsubscribe", "subs", remaining)
	}
	return ch, unsub, seq, history
}

// Replay returns events after the provided seq.
func (h *Hub) Replay(after uint64) []StreamEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	events := make([]StreamEvent, 0, len(h.history))
	for _, event := range h.history {
		if event.Seq > after {
			events = append(events, event)
		}
	}
	pslog.Ctx(context.Background()).Debug("hub replay", "after", after, "count", len(events))
	return events
}

func (h *Hub) publish(event StreamEvent) {
	h.mu.Lock()
	h.seq++
	event.Seq = h.seq
	h.history = append(h.history, event)
	if len(h.history) > h.historySize {
		h.history = h.history[len(h.history)-h.historySize:]
	}
	subs := make([]chan StreamEvent, 0, len(h.subs))
	for sub := range h.subs {
		subs = append(subs, sub)
	}
	h.mu.Unlock()

	dropped := 0
	for _, sub := range subs {
		select {
		case sub <- event:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		pslog.Ctx(context.Background()).Warn("hub event dropped", "type", event.Type, "dropped", dropped)
	}
}
