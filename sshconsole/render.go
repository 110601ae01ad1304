package sshconsole

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"pkt.systems/traycon/schema"
)

const (
	ansiReset   = "\x1b[0m"
	ansiDim     = "\x1b[2m"
	ansiReverse = "\x1b[7m"
)

const minimizedBanner = "minimized to tray  (r restores the surface)"

// consoleFrame lays out one full terminal frame: a status header, the
// transcript tail that fits the remaining rows, and a key hint footer. The
// view stays pinned to the transcript end, like the original console caret.
func consoleFrame(snap schema.ConsoleSnapshot, width, height int) []string {
	if width <= 0 {
		width = 80
	}
	if height <= 0 {
		height = 24
	}
	if height == 1 {
		return []string{headerLine(snap, width)}
	}

	rows := height - 2
	body := make([]string, 0, rows)
	if snap.Visibility == schema.VisibilityMinimized {
		body = append(body, ansiDim+trimToWidth(minimizedBanner, width)+ansiReset)
	} else {
		body = tailLines(transcriptLines(snap.Buffer.Text, width), rows)
	}
	for len(body) < rows {
		body = append(body, "")
	}

	lines := make([]string, 0, height)
	lines = append(lines, headerLine(snap, width))
	lines = append(lines, body...)
	lines = append(lines, footerLine(width))
	return lines
}

func headerLine(snap schema.ConsoleSnapshot, width int) string {
	status := fmt.Sprintf(" traycon  %s  producer %s  %d/%dB",
		snap.Visibility, snap.Run, snap.Buffer.Length, snap.Buffer.Capacity)
	if snap.Buffer.Truncated {
		status += "  transcript full"
	}
	return ansiReverse + padToWidth(trimToWidth(status, width), width) + ansiReset
}

func footerLine(width int) string {
	hints := " m minimize   r restore   Q exit console   q detach"
	return ansiDim + padToWidth(trimToWidth(hints, width), width) + ansiReset
}

// transcriptLines splits the normalized transcript into display lines and
// hard-wraps anything wider than the window.
func transcriptLines(text string, width int) []string {
	if text == "" {
		return nil
	}
	if width <= 0 {
		width = 80
	}
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	// A trailing newline yields one empty tail entry; drop it so the view
	// ends at the last real line.
	if n := len(raw); n > 0 && raw[n-1] == "" {
		raw = raw[:n-1]
	}
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		lines = append(lines, wrapLine(sanitizeLine(line), width)...)
	}
	return lines
}

func wrapLine(line string, width int) []string {
	if line == "" {
		return []string{""}
	}
	runes := []rune(line)
	if len(runes) <= width {
		return []string{line}
	}
	out := make([]string, 0, (len(runes)+width-1)/width)
	for start := 0; start < len(runes); start += width {
		end := start + width
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
	}
	return out
}

func tailLines(lines []string, n int) []string {
	if n <= 0 {
		return nil
	}
	if len(lines) <= n {
		return append([]string(nil), lines...)
	}
	return append([]string(nil), lines[len(lines)-n:]...)
}

// sanitizeLine strips escape sequences and control bytes so transcript
// content cannot corrupt the frame. Tabs expand to four spaces.
func sanitizeLine(text string) string {
	if text == "" {
		return ""
	}
	var b strings.Builder
	for i := 0; i < len(text); {
		ch := text[i]
		if ch == 0x1b {
			i = skipEscape(text, i+1)
			continue
		}
		r, size := utf8.DecodeRuneInString(text[i:])
		if r == utf8.RuneError && size == 1 {
			i++
			continue
		}
		if r == '\t' {
			b.WriteString("    ")
			i += size
			continue
		}
		if r < 0x20 || r == 0x7f {
			i += size
			continue
		}
		b.WriteRune(r)
		i += size
	}
	return b.String()
}

func skipEscape(text string, i int) int {
	if i >= len(text) {
		return i
	}
	switch text[i] {
	case '[':
		return skipCSI(text, i+1)
	case ']':
		return skipOSC(text, i+1)
	default:
		return i + 1
	}
}

func skipCSI(text string, i int) int {
	for i < len(text) {
		b := text[i]
		if b >= 0x40 && b <= 0x7e {
			return i + 1
		}
		i++
	}
	return i
}

func skipOSC(text string, i int) int {
	for i < len(text) {
		switch text[i] {
		case 0x07:
			return i + 1
		case 0x1b:
			if i+1 < len(text) && text[i+1] == '\\' {
				return i + 2
			}
		}
		i++
	}
	return i
}

func trimToWidth(text string, width int) string {
	if width <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= width {
		return text
	}
	return string(runes[:width])
}

func padToWidth(text string, width int) string {
	if n := utf8.RuneCountInString(text); n < width {
		return text + strings.Repeat(" ", width-n)
	}
	return text
}
