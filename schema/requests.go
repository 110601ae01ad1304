package schema

// Transcript reads.

// GetTranscriptRequest describes a request for the current transcript.
type GetTranscriptRequest struct{}

// GetTranscriptResponse reports a transcript snapshot.
type GetTranscriptResponse struct {
	Buffer BufferSnapshot
}

// GetStatusRequest describes a request for overall console state.
type GetStatusRequest struct{}

// GetStatusResponse reports a console snapshot.
type GetStatusResponse struct {
	Console ConsoleSnapshot
}

// Event injection.

// PostEventRequest describes an event to enqueue for the dispatcher.
type PostEventRequest struct {
	Event ConsoleEvent
}

// PostEventResponse reports whether the event was enqueued.
type PostEventResponse struct {
	Accepted bool
}

// Transcript writes.

// AppendLineRequest describes a line to append to the transcript. A logical
// newline is added when the line does not end with one.
type AppendLineRequest struct {
	Line string
}

// AppendLineResponse reports how many bytes were written and discarded.
type AppendLineResponse struct {
	Written   int
	Discarded int
}
