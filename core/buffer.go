package core

import (
	"strings"
	"sync"

	"pkt.systems/traycon/schema"
)

// transcript is the bounded append-only text store shared by the producer
// (writer) and the dispatcher (reader). Append and Snapshot hold the same
// mutex so a snapshot never observes a half-written append. There is no trim
// or delete; once full the transcript silently stops accepting bytes.
type transcript struct {
	mu        sync.Mutex
	buf       []byte
	capacity  int
	ending    string
	discarded int
	appends   int
	truncated bool
}

func newTranscript(capacity int, ending schema.LineEnding) *transcript {
	if capacity <= 0 {
		capacity = schema.DefaultTranscriptCapacity
	}
	if ending == "" {
		ending = schema.DefaultLineEnding
	}
	return &transcript{
		buf:      make([]byte, 0, capacity),
		capacity: capacity,
		ending:   string(ending),
	}
}

// Append normalizes line endings and writes as much of the result as fits in
// the remaining free space, discarding the rest. Existing bytes are never
// touched and the capacity is never exceeded. Overflow is not an error;
// callers inspect the discarded count when they care.
func (t *transcript) Append(text string) (written, discarded int) {
	if text == "" {
		return 0, 0
	}
	norm := normalizeLineEndings(text, t.ending)

	t.mu.Lock()
	defer t.mu.Unlock()
	free := t.capacity - len(t.buf)
	n := len(norm)
	if n > free {
		n = free
	}
	if n > 0 {
		t.buf = append(t.buf, norm[:n]...)
		t.appends++
	}
	if d := len(norm) - n; d > 0 {
		t.discarded += d
		t.truncated = true
		return n, d
	}
	return n, 0
}

// Len reports the current normalized length.
func (t *transcript) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.buf)
}

// Snapshot returns an immutable copy of the current contents. O(length).
func (t *transcript) Snapshot() schema.BufferSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return schema.BufferSnapshot{
		Text:      string(t.buf),
		Length:    len(t.buf),
		Capacity:  t.capacity,
		Discarded: t.discarded,
		Appends:   t.appends,
		Truncated: t.truncated,
	}
}

// normalizeLineEndings expands each bare newline to the configured ending.
// Bytes already part of a CRLF pair pass through unchanged, so normalizing
// twice is a no-op.
func normalizeLineEndings(s, ending string) string {
	if ending == "\n" || !strings.Contains(s, "\n") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + strings.Count(s, "\n"))
	prev := byte(0)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\n' && prev != '\r' {
			b.WriteString(ending)
		} else {
			b.WriteByte(c)
		}
		prev = c
	}
	return b.String()
}
