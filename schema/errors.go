package schema

import "errors"

var (
	// ErrSurfaceUnavailable indicates the presenter surface or event source
	// failed to initialize. Fatal at startup.
	ErrSurfaceUnavailable = errors.New("surface unavailable")
	// ErrQueueClosed indicates the event queue no longer accepts events.
	ErrQueueClosed = errors.New("event queue closed")
	// ErrServiceStopped indicates the console service has shut down.
	ErrServiceStopped = errors.New("service stopped")
	// ErrShutdownTimeout indicates the producer did not acknowledge a stop
	// within the configured bound.
	ErrShutdownTimeout = errors.New("producer stop timed out")
	// ErrInvalidStatusText indicates the status line contains control bytes.
	ErrInvalidStatusText = errors.New("invalid status text")
	// ErrInvalidLineEnding indicates an unsupported line ending selector.
	ErrInvalidLineEnding = errors.New("invalid line ending")
	// ErrInvalidEvent indicates an unknown event tag in a control request.
	ErrInvalidEvent = errors.New("invalid event")
)
