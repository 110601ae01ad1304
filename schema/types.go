package schema

// SessionID identifies an attached console session.
type SessionID string

// RunState tracks the producer lifecycle shared between the producer and the
// shutdown coordinator. It is stored atomically; only the coordinator moves
// it to RunStopping and only the producer moves it to RunStopped.
type RunState int32

const (
	// RunCreated means the producer exists but Start has not been called.
	RunCreated RunState = iota
	// RunRunning means the producer loop is emitting status lines.
	RunRunning
	// RunStopping means a stop was requested and the producer has not yet
	// acknowledged it.
	RunStopping
	// RunStopped means the producer loop has exited. Terminal.
	RunStopped
)

// String reports the lowercase name used in logs and snapshots.
func (s RunState) String() string {
	switch s {
	case RunCreated:
		return "created"
	case RunRunning:
		return "running"
	case RunStopping:
		return "stopping"
	case RunStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// TrayVisibility is the surface visibility state machine. It is owned by the
// dispatcher goroutine; no other goroutine may write it.
type TrayVisibility string

const (
	// VisibilityVisible means the surface is shown.
	VisibilityVisible TrayVisibility = "visible"
	// VisibilityMinimized means the surface is hidden behind the tray
	// affordance.
	VisibilityMinimized TrayVisibility = "minimized_to_tray"
	// VisibilityExiting means shutdown has begun. Terminal.
	VisibilityExiting TrayVisibility = "exiting"
)

// SurfaceGeometry is the last known size of the presenter surface. Geometry
// keeps updating while the surface is hidden so a restore can reuse it.
type SurfaceGeometry struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// DefaultSurfaceGeometry is the initial surface size before any resize event.
var DefaultSurfaceGeometry = SurfaceGeometry{Width: 500, Height: 400}
