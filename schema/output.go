package schema

// LineEnding is the byte sequence substituted for each logical newline at
// append time. Normalization happens once, in the transcript, so length
// accounting and rendering agree on the same bytes.
type LineEnding string

const (
	// LineEndingLF keeps bare newlines unchanged.
	LineEndingLF LineEnding = "\n"
	// LineEndingCRLF expands each bare newline to carriage return plus
	// newline. Existing CRLF pairs are left intact.
	LineEndingCRLF LineEnding = "\r\n"
)

// DefaultLineEnding matches terminal-style surfaces.
const DefaultLineEnding = LineEndingCRLF

// MinimizedNotice is appended to the transcript when the surface is hidden
// behind the tray.
const MinimizedNotice = "Minimize button clicked\n"

// MaximizedNotice is appended to the transcript when the surface is
// maximized.
const MaximizedNotice = "Maximize button clicked\n"
