package toml

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
)

// ErrDepthExceeded is reported when an array or inline table nests
// deeper than the configured maximum.
var ErrDepthExceeded = errors.New("maximum nesting depth exceeded")

// ParseError describes the first error encountered while decoding a
// document. Decoding is fail-fast: nothing after the error position is
// examined and no partial tree is returned.
type ParseError struct {
	Line   int // 1-based line of the error
	Offset int // byte offset into the (CRLF-normalized) input
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("toml: line %d (offset %d): %v", e.Line, e.Offset, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// parser holds all mutable state for one decode call. It owns the
// cursor; every sub-parser advances it through methods on this struct.
type parser struct {
	data []byte // input with CRLF normalized to LF
	pos  int    // current position in data

	root       map[string]any
	current    map[string]any // table the active header writes into
	currentKey string         // registry key of current

	asciiSafe bool // whole document is printable ASCII + tab/newline

	maxDepth int
	format   DatetimeFormatter
	expand   bool

	pathTypes  map[string]pathType
	explicit   map[string]bool
	fromHeader map[string]bool
}

func newParser(data []byte, o decodeOptions) *parser {
	data = bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	root := make(map[string]any)
	p := &parser{
		data:       data,
		root:       root,
		current:    root,
		asciiSafe:  scanASCIISafe(data),
		maxDepth:   o.maxDepth,
		format:     o.format,
		expand:     o.expand,
		pathTypes:  make(map[string]pathType),
		explicit:   make(map[string]bool),
		fromHeader: make(map[string]bool),
	}
	// The root path is a table, explicitly open, not header-defined.
	p.pathTypes[""] = typeTable
	p.explicit[""] = true
	return p
}

func (p *parser) errorf(format string, args ...any) error {
	return p.errorfAt(p.pos, format, args...)
}

func (p *parser) errorfAt(off int, format string, args ...any) error {
	return p.wrapAt(off, fmt.Errorf(format, args...))
}

func (p *parser) wrapAt(off int, err error) error {
	if off > len(p.data) {
		off = len(p.data)
	}
	line := 1 + bytes.Count(p.data[:off], []byte{'\n'})
	return &ParseError{Line: line, Offset: off, Err: err}
}

// parse walks top-level statements in a single pass and assembles the
// root table.
func (p *parser) parse() (map[string]any, error) {
	for !p.done() {
		p.skipWhitespace()
		if p.done() {
			break
		}
		switch c := p.data[p.pos]; {
		case c == '\n':
			p.pos++
			continue
		case c == '\r':
			return nil, p.errorf("bare carriage return")
		case c == '#':
			if err := p.skipComment(); err != nil {
				return nil, err
			}
			continue
		case c == '[':
			if err := p.parseHeader(); err != nil {
				return nil, err
			}
		default:
			if err := p.parseKeyValue(); err != nil {
				return nil, err
			}
		}
		if err := p.expectLineEnd(); err != nil {
			return nil, err
		}
	}
	return p.root, nil
}

// parseHeader handles [table] and [[array.of.tables]] headers.
func (p *parser) parseHeader() error {
	p.pos++ // consume '['
	isArray := false
	if !p.done() && p.data[p.pos] == '[' {
		isArray = true
		p.pos++
	}

	keys, err := p.parseKeySequence()
	if err != nil {
		return err
	}
	if p.done() || p.data[p.pos] != ']' {
		return p.errorf("expected ']' to close table header")
	}
	p.pos++
	if isArray {
		if p.done() || p.data[p.pos] != ']' {
			return p.errorf("expected ']]' to close array-of-tables header")
		}
		p.pos++
	}

	return p.resolveHeader(keys, isArray)
}

// parseKeyValue handles one dotted-key/value statement targeting the
// currently open table.
func (p *parser) parseKeyValue() error {
	keys, err := p.parseKeySequence()
	if err != nil {
		return err
	}
	if p.done() || p.data[p.pos] != '=' {
		return p.errorf("expected '=' after key")
	}
	p.pos++
	p.skipWhitespace()

	val, vt, err := p.parseValue()
	if err != nil {
		return err
	}
	return p.resolveAssignment(keys, val, vt)
}

// parseValue parses one value at the cursor and reports the path type
// it commits (scalar, array, or inline table).
func (p *parser) parseValue() (any, pathType, error) {
	if p.done() || p.data[p.pos] == '\n' {
		return nil, 0, p.errorf("expected a value")
	}
	switch p.data[p.pos] {
	case '[', '{':
		return p.parseContainer()
	default:
		v, err := p.parseSimpleValue()
		return v, typeScalar, err
	}
}

// parseSimpleValue parses a string or scalar leaf and applies the
// datetime formatter or expanded-value wrapping.
func (p *parser) parseSimpleValue() (any, error) {
	var v any
	var err error
	switch p.data[p.pos] {
	case '"', '\'':
		v, err = p.parseString()
	default:
		v, err = p.parseScalar()
	}
	if err != nil {
		return nil, err
	}
	return p.finishScalar(v), nil
}

// finishScalar applies per-leaf decode hooks. Expanded-value mode takes
// precedence over the datetime formatter since it exists purely for
// compliance-suite output.
func (p *parser) finishScalar(v any) any {
	if p.expand {
		return expandValue(v)
	}
	if p.format != nil && isDatetime(v) {
		return p.format(v)
	}
	return v
}

// expandValue wraps a scalar leaf as {type, value} using the type names
// of the toml-test compliance suite.
func expandValue(v any) map[string]any {
	var name, str string
	switch val := v.(type) {
	case string:
		name, str = "string", val
	case int64:
		name, str = "integer", strconv.FormatInt(val, 10)
	case float64:
		name, str = "float", formatFloat(val)
	case bool:
		name, str = "bool", strconv.FormatBool(val)
	case OffsetDateTime:
		name, str = "datetime", val.String()
	case LocalDateTime:
		name, str = "datetime-local", val.String()
	case LocalDate:
		name, str = "date-local", val.String()
	case LocalTime:
		name, str = "time-local", val.String()
	default:
		name, str = "unknown", fmt.Sprint(val)
	}
	return map[string]any{"type": name, "value": str}
}

// expectLineEnd requires whitespace, an optional comment, and then a
// newline or end of input after each statement.
func (p *parser) expectLineEnd() error {
	p.skipWhitespace()
	if !p.done() && p.data[p.pos] == '#' {
		if err := p.skipComment(); err != nil {
			return err
		}
	}
	if p.done() {
		return nil
	}
	if p.data[p.pos] == '\n' {
		p.pos++
		return nil
	}
	return p.errorf("expected newline or end of input")
}

// skipComment consumes a comment from '#' to end of line, validating
// its text.
func (p *parser) skipComment() error {
	start := p.pos + 1
	end := start
	for end < len(p.data) && p.data[end] != '\n' {
		end++
	}
	if err := p.validateText(p.data[start:end], start, false, "comment"); err != nil {
		return err
	}
	p.pos = end
	return nil
}

// skipWhitespace consumes spaces and tabs, never newlines.
func (p *parser) skipWhitespace() {
	for !p.done() {
		c := p.data[p.pos]
		if c != ' ' && c != '\t' {
			return
		}
		p.pos++
	}
}

func (p *parser) done() bool {
	return p.pos >= len(p.data)
}

func (p *parser) peekString(s string) bool {
	if p.pos+len(s) > len(p.data) {
		return false
	}
	for i := 0; i < len(s); i++ {
		if p.data[p.pos+i] != s[i] {
			return false
		}
	}
	return true
}
