package core

import "pkt.systems/traycon/schema"

// EventSink receives console notifications from the core service. Callbacks
// must not block; slow consumers buffer or drop on their own side.
type EventSink interface {
	OnTranscript(event schema.TranscriptEvent)
	OnVisibility(event schema.VisibilityEvent)
	OnGeometry(event schema.GeometryEvent)
	OnRun(event schema.RunEvent)
}
