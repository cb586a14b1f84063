package toml

// Key parsing: bare keys, quoted keys, and dotted sequences. The same
// grammar serves table headers, key/value statements, and inline table
// keys; only the terminator differs and is checked by the caller.

func isBareKeyChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' ||
		c >= '0' && c <= '9' || c == '-' || c == '_'
}

// parseKeySequence parses one or more dot-separated keys with optional
// whitespace around the dots. The cursor stops at the first character
// after the sequence (typically '=' or ']').
func (p *parser) parseKeySequence() ([]string, error) {
	var keys []string
	for {
		p.skipWhitespace()
		key, err := p.parseOneKey()
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
		p.skipWhitespace()
		if p.done() || p.data[p.pos] != '.' {
			return keys, nil
		}
		p.pos++ // consume '.' and continue with the next component
	}
}

// parseOneKey parses a single bare or quoted key at the cursor.
func (p *parser) parseOneKey() (string, error) {
	if p.done() {
		return "", p.errorf("expected a key")
	}
	switch p.data[p.pos] {
	case '"':
		if p.peekString(`"""`) {
			return "", p.errorf("multiline string not allowed as key")
		}
		return p.parseBasicString()
	case '\'':
		if p.peekString("'''") {
			return "", p.errorf("multiline string not allowed as key")
		}
		return p.parseLiteralString()
	}

	start := p.pos
	for !p.done() && isBareKeyChar(p.data[p.pos]) {
		p.pos++
	}
	if p.pos == start {
		return "", p.errorf("expected a key")
	}
	return string(p.data[start:p.pos]), nil
}
