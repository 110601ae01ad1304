package traycon

import (
	"pkt.systems/traycon/core"
	"pkt.systems/traycon/schema"
)

type eventFanout struct {
	sinks []core.EventSink
}

func (f eventFanout) OnTranscript(event schema.TranscriptEvent) {
	for _, sink := range f.sinks {
		if sink == nil {
			continue
		}
		sink.OnTranscript(event)
	}
}

func (f eventFanout) OnVisibility(event schema.VisibilityEvent) {
	for _, sink := range f.sinks {
		if sink == nil {
			continue
		}
		sink.OnVisibility(event)
	}
}

func (f eventFanout) OnGeometry(event schema.GeometryEvent) {
	for _, sink := range f.sinks {
		if sink == nil {
			continue
		}
		sink.OnGeometry(event)
	}
}

func (f eventFanout) OnRun(event schema.RunEvent) {
	for _, sink := range f.sinks {
		if sink == nil {
			continue
		}
		sink.OnRun(event)
	}
}
