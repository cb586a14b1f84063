package toml

// Array and inline-table parsing. Nesting is handled with an explicit
// frame stack instead of recursion so that adversarial inputs like a
// million open brackets hit the configured depth ceiling rather than
// the goroutine stack.

type containerMode int

const (
	awaitArrayValue containerMode = iota // at '[' or after ','
	afterArrayValue                      // after a value, before ',' or ']'
	awaitTableKey                        // at '{' or after ','
	awaitTableValue                      // after 'key ='
	afterTableValue                      // after a value, before ',' or '}'
)

type containerFrame struct {
	mode containerMode

	arr []any // array being built

	tbl     map[string]any      // inline table being built
	types   map[string]pathType // local path registry for dotted keys
	pending []string            // dotted key waiting for its value
	needKey bool                // a comma promised another entry
}

// parseContainer parses the array or inline table at the cursor. Arrays
// may span lines and carry comments and a trailing comma; inline tables
// allow none of those and close for good when the '}' is read.
func (p *parser) parseContainer() (any, pathType, error) {
	var stack []*containerFrame

	push := func() error {
		if p.maxDepth > 0 && len(stack) >= p.maxDepth {
			return p.wrapAt(p.pos, ErrDepthExceeded)
		}
		f := &containerFrame{}
		if p.data[p.pos] == '[' {
			f.mode = awaitArrayValue
			f.arr = []any{}
		} else {
			f.mode = awaitTableKey
			f.tbl = make(map[string]any)
			f.types = make(map[string]pathType)
		}
		p.pos++
		stack = append(stack, f)
		return nil
	}

	// complete hands a finished value to the enclosing frame.
	complete := func(v any, vt pathType) error {
		f := stack[len(stack)-1]
		if f.mode == awaitArrayValue {
			f.arr = append(f.arr, v)
			f.mode = afterArrayValue
			return nil
		}
		if err := p.containerAssign(f, v, vt); err != nil {
			return err
		}
		f.mode = afterTableValue
		return nil
	}

	// pop closes the top frame, returning its value to the parent or,
	// for the outermost frame, to the caller via the named results.
	pop := func() (any, pathType, bool, error) {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		var v any
		var vt pathType
		if f.arr != nil {
			v, vt = f.arr, typeArray
		} else {
			v, vt = f.tbl, typeInline
		}
		if len(stack) == 0 {
			return v, vt, true, nil
		}
		return nil, 0, false, complete(v, vt)
	}

	if err := push(); err != nil {
		return nil, 0, err
	}

	for {
		f := stack[len(stack)-1]
		switch f.mode {
		case awaitArrayValue:
			if err := p.skipArrayGaps(); err != nil {
				return nil, 0, err
			}
			if p.done() {
				return nil, 0, p.errorf("unterminated array")
			}
			switch c := p.data[p.pos]; c {
			case ']':
				p.pos++
				if v, vt, isDone, err := pop(); err != nil || isDone {
					return v, vt, err
				}
			case ',':
				return nil, 0, p.errorf("expected a value before ','")
			case '[', '{':
				if err := push(); err != nil {
					return nil, 0, err
				}
			default:
				v, err := p.parseSimpleValue()
				if err != nil {
					return nil, 0, err
				}
				if err := complete(v, typeScalar); err != nil {
					return nil, 0, err
				}
			}

		case afterArrayValue:
			if err := p.skipArrayGaps(); err != nil {
				return nil, 0, err
			}
			if p.done() {
				return nil, 0, p.errorf("unterminated array")
			}
			switch p.data[p.pos] {
			case ',':
				p.pos++
				f.mode = awaitArrayValue
			case ']':
				p.pos++
				if v, vt, isDone, err := pop(); err != nil || isDone {
					return v, vt, err
				}
			default:
				return nil, 0, p.errorf("expected ',' or ']' in array")
			}

		case awaitTableKey:
			p.skipWhitespace()
			if p.done() || p.data[p.pos] == '\n' {
				return nil, 0, p.errorf("unterminated inline table")
			}
			if p.data[p.pos] == '}' {
				if f.needKey {
					return nil, 0, p.errorf("trailing comma not allowed in inline table")
				}
				p.pos++
				if v, vt, isDone, err := pop(); err != nil || isDone {
					return v, vt, err
				}
				continue
			}
			keys, err := p.parseKeySequence()
			if err != nil {
				return nil, 0, err
			}
			if p.done() || p.data[p.pos] != '=' {
				return nil, 0, p.errorf("expected '=' after inline table key")
			}
			p.pos++
			p.skipWhitespace()
			f.pending = keys
			f.mode = awaitTableValue

		case awaitTableValue:
			if p.done() || p.data[p.pos] == '\n' {
				return nil, 0, p.errorf("expected a value in inline table")
			}
			switch p.data[p.pos] {
			case '[', '{':
				if err := push(); err != nil {
					return nil, 0, err
				}
			default:
				v, err := p.parseSimpleValue()
				if err != nil {
					return nil, 0, err
				}
				if err := complete(v, typeScalar); err != nil {
					return nil, 0, err
				}
			}

		case afterTableValue:
			p.skipWhitespace()
			if p.done() || p.data[p.pos] == '\n' {
				return nil, 0, p.errorf("unterminated inline table")
			}
			switch p.data[p.pos] {
			case ',':
				p.pos++
				f.mode = awaitTableKey
				f.needKey = true
			case '}':
				p.pos++
				if v, vt, isDone, err := pop(); err != nil || isDone {
					return v, vt, err
				}
			default:
				return nil, 0, p.errorf("expected ',' or '}' in inline table")
			}
		}
	}
}

// containerAssign writes the frame's pending dotted key into its inline
// table. Intermediate tables created by dotted keys inside the same
// inline table may be shared; everything else is a conflict.
func (p *parser) containerAssign(f *containerFrame, v any, vt pathType) error {
	cur := f.tbl
	reg := ""
	keys := f.pending
	for _, k := range keys[:len(keys)-1] {
		reg = childKey(reg, k)
		if existing, ok := cur[k]; ok {
			if f.types[reg] != typeTable {
				return p.errorf("cannot use %q as a table: it is already a %s", k, f.types[reg])
			}
			cur = existing.(map[string]any)
		} else {
			m := make(map[string]any)
			cur[k] = m
			f.types[reg] = typeTable
			cur = m
		}
	}
	last := keys[len(keys)-1]
	reg = childKey(reg, last)
	if _, ok := cur[last]; ok {
		return p.errorf("key %s already defined in inline table", dottedPath(keys))
	}
	cur[last] = v
	f.types[reg] = vt
	f.pending = nil
	return nil
}

// skipArrayGaps consumes whitespace, newlines, and comments between
// array elements.
func (p *parser) skipArrayGaps() error {
	for !p.done() {
		switch p.data[p.pos] {
		case ' ', '\t', '\n':
			p.pos++
		case '\r':
			return p.errorf("bare carriage return")
		case '#':
			if err := p.skipComment(); err != nil {
				return err
			}
		default:
			return nil
		}
	}
	return nil
}
