package unattended

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// maxEscapeTail bounds how much of an unterminated escape sequence is held
// back waiting for the rest of it.
const maxEscapeTail = 256

// normalizer turns raw terminal output into plain text lines. It strips
// escape sequences and maps carriage returns to newlines. An escape sequence
// split across two chunks is held back until it is complete.
type normalizer struct {
	carry string
}

func (n *normalizer) normalize(chunk string) string {
	s := n.carry + chunk
	s, n.carry = splitEscapeTail(s)
	s = ansi.Strip(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// splitEscapeTail separates a trailing, unterminated escape sequence from s.
func splitEscapeTail(s string) (head, tail string) {
	i := strings.LastIndexByte(s, '\x1b')
	if i < 0 || len(s)-i > maxEscapeTail {
		return s, ""
	}
	if escapeComplete(s[i:]) {
		return s, ""
	}
	return s[:i], s[i:]
}

// escapeComplete reports whether seq, which starts with ESC, holds a whole
// escape sequence.
func escapeComplete(seq string) bool {
	if len(seq) < 2 {
		return false
	}
	switch seq[1] {
	case '[':
		// CSI: parameter and intermediate bytes, then a final byte.
		for j := 2; j < len(seq); j++ {
			if seq[j] >= 0x40 && seq[j] <= 0x7e {
				return true
			}
		}
		return false
	case ']', 'P', '_', '^', 'X':
		// OSC, DCS, APC, PM, SOS end with BEL or ST. ST itself starts with
		// ESC, so a terminated string never reaches here as the last ESC.
		return strings.IndexByte(seq[2:], '\a') >= 0
	case '(', ')', '*', '+', '#', '%':
		// Charset designation and friends take one more byte.
		return len(seq) >= 3
	default:
		return true
	}
}
