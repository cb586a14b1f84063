package toml

import (
	"strconv"
	"strings"
)

// String parsing for the four TOML string forms. Basic strings decode
// backslash escapes; literal strings take their bytes verbatim. The
// multiline variants drop a single newline after the opening delimiter
// and, for basic strings, fold backslash line continuations.

// parseString dispatches on the opening delimiter at the cursor.
func (p *parser) parseString() (string, error) {
	if p.data[p.pos] == '"' {
		if p.peekString(`"""`) {
			return p.parseMultilineBasicString()
		}
		return p.parseBasicString()
	}
	if p.peekString("'''") {
		return p.parseMultilineLiteralString()
	}
	return p.parseLiteralString()
}

// parseBasicString parses a single-line "..." string with escapes.
func (p *parser) parseBasicString() (string, error) {
	open := p.pos
	p.pos++
	var b strings.Builder
	chunk := p.pos
	for !p.done() {
		switch p.data[p.pos] {
		case '"':
			if err := p.validateText(p.data[chunk:p.pos], chunk, false, "string"); err != nil {
				return "", err
			}
			b.Write(p.data[chunk:p.pos])
			p.pos++
			return b.String(), nil
		case '\\':
			if err := p.validateText(p.data[chunk:p.pos], chunk, false, "string"); err != nil {
				return "", err
			}
			b.Write(p.data[chunk:p.pos])
			p.pos++
			s, err := p.decodeEscape()
			if err != nil {
				return "", err
			}
			b.WriteString(s)
			chunk = p.pos
		case '\n':
			return "", p.errorfAt(open, "unterminated string")
		default:
			p.pos++
		}
	}
	return "", p.errorfAt(open, "unterminated string")
}

// parseLiteralString parses a single-line '...' string verbatim.
func (p *parser) parseLiteralString() (string, error) {
	open := p.pos
	p.pos++
	start := p.pos
	for !p.done() {
		switch p.data[p.pos] {
		case '\'':
			if err := p.validateText(p.data[start:p.pos], start, false, "string"); err != nil {
				return "", err
			}
			s := string(p.data[start:p.pos])
			p.pos++
			return s, nil
		case '\n':
			return "", p.errorfAt(open, "unterminated string")
		default:
			p.pos++
		}
	}
	return "", p.errorfAt(open, "unterminated string")
}

// parseMultilineBasicString parses a """...""" string. Up to two quote
// characters directly before the closing delimiter count as content.
func (p *parser) parseMultilineBasicString() (string, error) {
	open := p.pos
	p.pos += 3
	if !p.done() && p.data[p.pos] == '\n' {
		p.pos++
	}
	var b strings.Builder
	chunk := p.pos
	flush := func() error {
		if err := p.validateText(p.data[chunk:p.pos], chunk, true, "multiline string"); err != nil {
			return err
		}
		b.Write(p.data[chunk:p.pos])
		return nil
	}
	for !p.done() {
		switch p.data[p.pos] {
		case '"':
			q := p.pos
			for q < len(p.data) && p.data[q] == '"' {
				q++
			}
			n := q - p.pos
			if n < 3 {
				p.pos = q
				continue
			}
			if n > 5 {
				return "", p.errorf("too many quotes at end of multiline string")
			}
			if err := flush(); err != nil {
				return "", err
			}
			for i := 0; i < n-3; i++ {
				b.WriteByte('"')
			}
			p.pos = q
			return b.String(), nil
		case '\\':
			if err := flush(); err != nil {
				return "", err
			}
			p.pos++
			if p.lineContinuation() {
				chunk = p.pos
				continue
			}
			s, err := p.decodeEscape()
			if err != nil {
				return "", err
			}
			b.WriteString(s)
			chunk = p.pos
		default:
			p.pos++
		}
	}
	return "", p.errorfAt(open, "unterminated multiline string")
}

// parseMultilineLiteralString parses a '''...''' string verbatim, with
// the same up-to-two-trailing-quotes rule as the basic form.
func (p *parser) parseMultilineLiteralString() (string, error) {
	open := p.pos
	p.pos += 3
	if !p.done() && p.data[p.pos] == '\n' {
		p.pos++
	}
	start := p.pos
	for !p.done() {
		if p.data[p.pos] != '\'' {
			p.pos++
			continue
		}
		q := p.pos
		for q < len(p.data) && p.data[q] == '\'' {
			q++
		}
		n := q - p.pos
		if n < 3 {
			p.pos = q
			continue
		}
		if n > 5 {
			return "", p.errorf("too many quotes at end of multiline string")
		}
		end := p.pos + (n - 3)
		if err := p.validateText(p.data[start:end], start, true, "multiline string"); err != nil {
			return "", err
		}
		p.pos = q
		return string(p.data[start:end]), nil
	}
	return "", p.errorfAt(open, "unterminated multiline string")
}

// lineContinuation consumes a backslash line continuation (cursor is on
// the character after the backslash): optional whitespace, a newline,
// then any run of whitespace and newlines. Reports false without moving
// the cursor when the backslash is a regular escape.
func (p *parser) lineContinuation() bool {
	i := p.pos
	for i < len(p.data) && (p.data[i] == ' ' || p.data[i] == '\t') {
		i++
	}
	if i >= len(p.data) || p.data[i] != '\n' {
		return false
	}
	for i < len(p.data) && (p.data[i] == ' ' || p.data[i] == '\t' || p.data[i] == '\n') {
		i++
	}
	p.pos = i
	return true
}

// decodeEscape decodes one backslash escape; the cursor is on the
// character after the backslash.
func (p *parser) decodeEscape() (string, error) {
	if p.done() {
		return "", p.errorf("unterminated escape sequence")
	}
	c := p.data[p.pos]
	p.pos++
	switch c {
	case 'b':
		return "\b", nil
	case 't':
		return "\t", nil
	case 'n':
		return "\n", nil
	case 'f':
		return "\f", nil
	case 'r':
		return "\r", nil
	case '"':
		return `"`, nil
	case '\\':
		return `\`, nil
	case 'x':
		return p.decodeUnicodeEscape(2)
	case 'u':
		return p.decodeUnicodeEscape(4)
	case 'U':
		return p.decodeUnicodeEscape(8)
	default:
		return "", p.errorfAt(p.pos-1, "invalid escape character %q", c)
	}
}

// decodeUnicodeEscape reads n hex digits and returns the encoded
// Unicode scalar value, rejecting surrogates and out-of-range values.
func (p *parser) decodeUnicodeEscape(n int) (string, error) {
	start := p.pos
	if start+n > len(p.data) {
		return "", p.errorf("unterminated escape sequence")
	}
	for i := 0; i < n; i++ {
		if !isHexDigit(p.data[start+i]) {
			return "", p.errorfAt(start+i, "invalid hex digit in escape sequence")
		}
	}
	v, err := strconv.ParseUint(string(p.data[start:start+n]), 16, 64)
	if err != nil {
		return "", p.errorfAt(start, "invalid escape sequence: %v", err)
	}
	p.pos = start + n
	if v >= 0xD800 && v <= 0xDFFF {
		return "", p.errorfAt(start, "escape sequence encodes surrogate code point U+%04X", v)
	}
	if v > 0x10FFFF {
		return "", p.errorfAt(start, "escape sequence beyond U+10FFFF")
	}
	return string(rune(v)), nil
}
