package sshconsole

import (
	"bufio"
	"io"
	"unicode"
	"unicode/utf8"
)

type keyKind int

const (
	keyRune keyKind = iota
	keyEnter
	keyCtrlC
	keyCtrlD
)

type key struct {
	kind keyKind
	r    rune
}

// readKeys decodes terminal input into keys. Escape sequences (arrows,
// function keys) are consumed and dropped so they never register as plain
// runes.
func readKeys(r io.Reader, out chan<- key) {
	defer close(out)
	br := bufio.NewReader(r)
	lastWasCR := false
	for {
		b, err := br.ReadByte()
		if err != nil {
			return
		}
		if lastWasCR {
			lastWasCR = false
			if b == '\n' {
				continue
			}
		}
		switch b {
		case 0x1b:
			discardEscape(br)
		case '\r':
			out <- key{kind: keyEnter}
			lastWasCR = true
		case '\n':
			out <- key{kind: keyEnter}
		case 0x04:
			out <- key{kind: keyCtrlD}
		case 0x03:
			out <- key{kind: keyCtrlC}
		default:
			if b < 0x20 || b == 0x7f {
				continue
			}
			if b < utf8.RuneSelf {
				out <- key{kind: keyRune, r: rune(b)}
				continue
			}
			_ = br.UnreadByte()
			rn, _, err := br.ReadRune()
			if err != nil {
				return
			}
			out <- key{kind: keyRune, r: rn}
		}
	}
}

func discardEscape(br *bufio.Reader) {
	b, err := br.ReadByte()
	if err != nil {
		return
	}
	switch b {
	case '[':
		for i := 0; i < 9; i++ {
			b, err := br.ReadByte()
			if err != nil {
				return
			}
			if b == '~' || unicode.IsLetter(rune(b)) {
				return
			}
		}
	case 'O':
		_, _ = br.ReadByte()
	}
}
