package schema

// TranscriptEvent signals that the transcript changed. Subscribers re-render
// from a fresh snapshot rather than from the event payload.
type TranscriptEvent struct {
	Length    int
	Discarded int
}

// VisibilityEvent signals a tray visibility transition.
type VisibilityEvent struct {
	Visibility TrayVisibility
}

// GeometryEvent signals a surface geometry change.
type GeometryEvent struct {
	Geometry SurfaceGeometry
}

// RunEvent signals a producer lifecycle transition.
type RunEvent struct {
	Run RunState
}
