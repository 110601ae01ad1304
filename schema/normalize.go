package schema

import (
	"strings"
	"unicode"
)

// ValidateStatusText ensures the producer status line is printable single-line
// text. The trailing newline is added by the producer, not the config.
func ValidateStatusText(text string) error {
	if text == "" {
		return ErrInvalidStatusText
	}
	if strings.TrimSpace(text) != text {
		return ErrInvalidStatusText
	}
	for _, r := range text {
		if r == '\n' || r == '\r' {
			return ErrInvalidStatusText
		}
		if unicode.IsControl(r) {
			return ErrInvalidStatusText
		}
	}
	return nil
}

// ValidateLineEnding ensures the selector is one of the supported sequences.
func ValidateLineEnding(le LineEnding) error {
	switch le {
	case LineEndingLF, LineEndingCRLF:
		return nil
	default:
		return ErrInvalidLineEnding
	}
}
