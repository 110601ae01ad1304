package core

import (
	"context"

	"pkt.systems/traycon/schema"
)

// Service is the transport-agnostic API for the console: one bounded
// transcript, one producer, one dispatcher-owned visibility machine. Run
// drives the dispatcher loop; the request methods are safe from any
// goroutine.
type Service interface {
	// Run starts the producer and drives the event dispatch loop on the
	// calling goroutine until a terminal event arrives or ctx is done.
	// It returns nil on clean shutdown.
	Run(ctx context.Context) error

	GetTranscript(ctx context.Context, req schema.GetTranscriptRequest) (schema.GetTranscriptResponse, error)
	GetStatus(ctx context.Context, req schema.GetStatusRequest) (schema.GetStatusResponse, error)
	PostEvent(ctx context.Context, req schema.PostEventRequest) (schema.PostEventResponse, error)
	AppendLine(ctx context.Context, req schema.AppendLineRequest) (schema.AppendLineResponse, error)
}
