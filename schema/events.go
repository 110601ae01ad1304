package schema

// EventKind names a console event variant for logs and wire encodings.
type EventKind string

const (
	// EventResize reports a new surface geometry.
	EventResize EventKind = "resize"
	// EventMinimize requests hiding the surface behind the tray.
	EventMinimize EventKind = "minimize"
	// EventMaximize reports the surface was maximized.
	EventMaximize EventKind = "maximize"
	// EventRestore requests showing the surface again.
	EventRestore EventKind = "restore"
	// EventExit requests an orderly shutdown via the tray menu.
	EventExit EventKind = "exit"
	// EventDestroyed reports the surface was torn down externally.
	EventDestroyed EventKind = "destroyed"
)

// ConsoleEvent is a single external occurrence delivered to the dispatcher.
// Events are dispatched strictly in arrival order on one goroutine.
type ConsoleEvent interface {
	// Kind reports the variant tag.
	Kind() EventKind
}

// Resize carries a new surface geometry.
type Resize struct {
	Width  int
	Height int
}

// Kind implements ConsoleEvent.
func (Resize) Kind() EventKind { return EventResize }

// MinimizeRequested asks the dispatcher to hide the surface behind the tray.
type MinimizeRequested struct{}

// Kind implements ConsoleEvent.
func (MinimizeRequested) Kind() EventKind { return EventMinimize }

// MaximizeRequested reports the surface was maximized by the operator.
type MaximizeRequested struct{}

// Kind implements ConsoleEvent.
func (MaximizeRequested) Kind() EventKind { return EventMaximize }

// RestoreRequested asks the dispatcher to show the surface again, usually
// from a tray activation.
type RestoreRequested struct{}

// Kind implements ConsoleEvent.
func (RestoreRequested) Kind() EventKind { return EventRestore }

// ExitRequested asks the dispatcher to begin shutdown, usually from the tray
// menu.
type ExitRequested struct{}

// Kind implements ConsoleEvent.
func (ExitRequested) Kind() EventKind { return EventExit }

// Destroyed reports the surface was torn down outside the dispatcher, for
// example by a window close or a terminating signal. Handled like
// ExitRequested.
type Destroyed struct{}

// Kind implements ConsoleEvent.
func (Destroyed) Kind() EventKind { return EventDestroyed }

// ParseEventKind maps a wire tag to its kind. Used by the control API.
func ParseEventKind(s string) (EventKind, bool) {
	switch EventKind(s) {
	case EventResize, EventMinimize, EventMaximize, EventRestore, EventExit, EventDestroyed:
		return EventKind(s), true
	default:
		return "", false
	}
}
