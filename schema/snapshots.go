package schema

// BufferSnapshot is an immutable point-in-time copy of the transcript for
// transports and presenters.
type BufferSnapshot struct {
	// Text holds the normalized transcript bytes.
	Text string
	// Length equals len(Text).
	Length int
	// Capacity is the transcript bound in bytes.
	Capacity int
	// Discarded counts bytes dropped by overflow truncation since start.
	Discarded int
	// Appends counts appends that wrote at least one byte.
	Appends int
	// Truncated reports whether any append has been cut short.
	Truncated bool
}

// Full reports whether no further bytes can be appended.
func (s BufferSnapshot) Full() bool { return s.Length >= s.Capacity }

// ConsoleSnapshot is a read-only view of overall console state.
type ConsoleSnapshot struct {
	Buffer     BufferSnapshot
	Visibility TrayVisibility
	Geometry   SurfaceGeometry
	Run        RunState
	// DroppedEvents counts events rejected by a full queue.
	DroppedEvents int
}
