package toml

import (
	"bytes"
	"unicode/utf8"
)

// Text validation. TOML forbids raw control characters (everything below
// 0x20 except tab, plus DEL), bare carriage returns, UTF-16 surrogate
// code points, and malformed UTF-8 anywhere in a document: keys, string
// contents and comments alike.
//
// The common case is a document that is pure printable ASCII. That is
// detected once up front; afterwards every per-chunk check collapses to
// a newline-presence test.

// scanASCIISafe reports whether data consists only of printable ASCII
// plus tab and newline, so no later chunk can contain an illegal byte.
func scanASCIISafe(data []byte) bool {
	for _, c := range data {
		if (c < 0x20 && c != '\t' && c != '\n') || c >= 0x7f {
			return false
		}
	}
	return true
}

// validateText checks that the chunk starting at absolute offset start
// is legal TOML text. Newlines are only permitted inside multiline
// string bodies.
func (p *parser) validateText(chunk []byte, start int, allowNewline bool, what string) error {
	if p.asciiSafe {
		if !allowNewline {
			if i := bytes.IndexByte(chunk, '\n'); i >= 0 {
				return p.errorfAt(start+i, "newline not allowed in %s", what)
			}
		}
		return nil
	}

	// Cheap scan first; bail to the UTF-8 walk at the first byte that
	// needs it.
	i := 0
	for i < len(chunk) {
		c := chunk[i]
		if c >= 0x20 && c < 0x7f {
			i++
			continue
		}
		switch {
		case c == '\t':
			i++
		case c == '\n':
			if !allowNewline {
				return p.errorfAt(start+i, "newline not allowed in %s", what)
			}
			i++
		case c == '\r':
			return p.errorfAt(start+i, "bare carriage return in %s", what)
		case c < 0x20 || c == 0x7f:
			return p.errorfAt(start+i, "control character U+%04X in %s", c, what)
		default:
			size, err := p.checkRune(chunk[i:], start+i, what)
			if err != nil {
				return err
			}
			i += size
		}
	}
	return nil
}

// checkRune validates one multi-byte UTF-8 sequence at the head of b.
func (p *parser) checkRune(b []byte, off int, what string) (int, error) {
	// The surrogate range U+D800..U+DFFF encodes as ED A0..BF xx; the
	// generic decoder reports it as plain invalid UTF-8, but it deserves
	// its own message.
	if b[0] == 0xed && len(b) > 1 && b[1] >= 0xa0 && b[1] <= 0xbf {
		return 0, p.errorfAt(off, "surrogate code point in %s", what)
	}
	r, size := utf8.DecodeRune(b)
	if r == utf8.RuneError && size <= 1 {
		return 0, p.errorfAt(off, "invalid UTF-8 sequence in %s", what)
	}
	// A replacement character in the input almost always means the text
	// was mangled before reaching the decoder.
	if r == utf8.RuneError {
		return 0, p.errorfAt(off, "Unicode replacement character in %s", what)
	}
	return size, nil
}
