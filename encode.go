package toml

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ErrTableLimit is reported when encoding would emit more tables than
// the configured maximum.
var ErrTableLimit = errors.New("maximum table count exceeded")

// DefaultMaxTables is the table ceiling applied unless overridden with
// WithMaxTables.
const DefaultMaxTables = 1_000_000

type encodeOptions struct {
	maxTables int
}

// EncodeOption configures an Encode call.
type EncodeOption func(*encodeOptions)

// WithMaxTables overrides the ceiling on the number of tables one
// Encode call may emit, counting the root, every header table, every
// array-of-tables element, and every inline table. A value of zero or
// less disables the ceiling.
func WithMaxTables(n int) EncodeOption {
	return func(o *encodeOptions) { o.maxTables = n }
}

// Encode renders a decoded-tree value as a TOML document. The root must
// be a map[string]any; nested map[string]any values become [table]
// headers, non-empty []any values whose elements are all tables become
// [[array.of.tables]] headers, and everything else is rendered inline.
//
// Keys are emitted in sorted order with a table's inline entries before
// its sub-tables, so the output is deterministic and re-encoding a
// decoded document is idempotent.
func Encode(root any, opts ...EncodeOption) ([]byte, error) {
	o := encodeOptions{maxTables: DefaultMaxTables}
	for _, opt := range opts {
		opt(&o)
	}
	tbl, ok := root.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("toml: document root must be a table, got %T", root)
	}
	e := &encoder{maxTables: o.maxTables}
	if err := e.encodeDocument(tbl); err != nil {
		return nil, err
	}
	return e.buf.Bytes(), nil
}

type encoder struct {
	buf       bytes.Buffer
	maxTables int
	tables    int
}

func (e *encoder) countTable() error {
	e.tables++
	if e.maxTables > 0 && e.tables > e.maxTables {
		return fmt.Errorf("%w (limit %d)", ErrTableLimit, e.maxTables)
	}
	return nil
}

// encFrame is one table awaiting emission. Array-of-tables elements
// share a path and carry inArray so the header doubles its brackets.
type encFrame struct {
	path    []string
	tbl     map[string]any
	inArray bool
}

// encodeDocument walks the table tree with an explicit stack, emitting
// each table's inline entries and then pushing its sub-tables in
// reverse key order so they pop sorted.
func (e *encoder) encodeDocument(root map[string]any) error {
	stack := []encFrame{{tbl: root}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if err := e.countTable(); err != nil {
			return err
		}

		if f.path != nil {
			if e.buf.Len() > 0 {
				e.buf.WriteByte('\n')
			}
			if f.inArray {
				e.buf.WriteString("[[" + renderPath(f.path) + "]]\n")
			} else {
				e.buf.WriteString("[" + renderPath(f.path) + "]\n")
			}
		}

		var children []encFrame
		for _, k := range sortedKeys(f.tbl) {
			v := f.tbl[k]
			switch val := v.(type) {
			case map[string]any:
				children = append(children, encFrame{path: childPath(f.path, k), tbl: val})
				continue
			case []any:
				if isTableArray(val) {
					p := childPath(f.path, k)
					for _, el := range val {
						children = append(children, encFrame{path: p, tbl: el.(map[string]any), inArray: true})
					}
					continue
				}
			}
			e.buf.WriteString(encodeKey(k) + " = ")
			if err := e.appendInline(v); err != nil {
				return err
			}
			e.buf.WriteByte('\n')
		}

		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
	return nil
}

// inlineTok is one unit of pending inline output: either literal text
// or a value still to be rendered.
type inlineTok struct {
	lit    string
	val    any
	hasVal bool
}

// appendInline renders one inline value (scalar, array, or inline
// table) with an explicit work stack rather than recursion.
func (e *encoder) appendInline(v any) error {
	work := []inlineTok{{val: v, hasVal: true}}
	for len(work) > 0 {
		t := work[len(work)-1]
		work = work[:len(work)-1]
		if !t.hasVal {
			e.buf.WriteString(t.lit)
			continue
		}

		switch val := t.val.(type) {
		case map[string]any:
			if err := e.countTable(); err != nil {
				return err
			}
			e.buf.WriteByte('{')
			work = append(work, inlineTok{lit: "}"})
			keys := sortedKeys(val)
			for i := len(keys) - 1; i >= 0; i-- {
				prefix := encodeKey(keys[i]) + " = "
				if i > 0 {
					prefix = ", " + prefix
				}
				work = append(work, inlineTok{val: val[keys[i]], hasVal: true}, inlineTok{lit: prefix})
			}
		case []any:
			e.buf.WriteByte('[')
			work = append(work, inlineTok{lit: "]"})
			for i := len(val) - 1; i >= 0; i-- {
				work = append(work, inlineTok{val: val[i], hasVal: true})
				if i > 0 {
					work = append(work, inlineTok{lit: ", "})
				}
			}
		default:
			s, err := scalarString(val)
			if err != nil {
				return err
			}
			e.buf.WriteString(s)
		}
	}
	return nil
}

// scalarString renders one leaf value.
func scalarString(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return quoteString(val), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case int:
		return strconv.FormatInt(int64(val), 10), nil
	case float64:
		return formatFloat(val), nil
	case bool:
		return strconv.FormatBool(val), nil
	case LocalDate:
		return val.String(), nil
	case LocalTime:
		return val.String(), nil
	case LocalDateTime:
		return val.String(), nil
	case OffsetDateTime:
		return val.String(), nil
	case time.Time:
		return fromTime(val).String(), nil
	case nil:
		return "", errors.New("toml: cannot encode nil, TOML has no null")
	default:
		return "", fmt.Errorf("toml: cannot encode value of type %T", v)
	}
}

// formatFloat renders a float so that it always reads back as a float:
// the result contains a '.' or an exponent.
func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// quoteString renders a basic string, escaping control characters,
// DEL included, as \uXXXX.
func quoteString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\b':
			b.WriteString(`\b`)
		case '\t':
			b.WriteString(`\t`)
		case '\n':
			b.WriteString(`\n`)
		case '\f':
			b.WriteString(`\f`)
		case '\r':
			b.WriteString(`\r`)
		default:
			if r < 0x20 || r == 0x7F {
				fmt.Fprintf(&b, `\u%04X`, r)
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}

// encodeKey renders a key bare when possible, quoted otherwise.
func encodeKey(k string) string {
	if isBareKeyString(k) {
		return k
	}
	return quoteString(k)
}

func renderPath(path []string) string {
	parts := make([]string, len(path))
	for i, k := range path {
		parts[i] = encodeKey(k)
	}
	return strings.Join(parts, ".")
}

func childPath(path []string, k string) []string {
	p := make([]string, len(path)+1)
	copy(p, path)
	p[len(path)] = k
	return p
}

// isTableArray reports whether val should be rendered as an array of
// tables. An empty array renders inline.
func isTableArray(val []any) bool {
	if len(val) == 0 {
		return false
	}
	for _, el := range val {
		if _, ok := el.(map[string]any); !ok {
			return false
		}
	}
	return true
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Marshal returns the TOML encoding of v.
//
// This function works like json.Marshal, converting a Go value into a
// TOML formatted byte slice. The top-level value must convert to a
// table, so v is typically a struct or a map with string keys.
//
// Struct fields can be customized with `toml` tags. For example:
//
//	// Field appears as 'my_field' in TOML.
//	Field int `toml:"my_field"`
//
//	// Field is dropped when it holds its zero value.
//	Field int `toml:"my_field,omitempty"`
//
//	// Field is ignored.
//	Field int `toml:"-"`
func Marshal(v any) ([]byte, error) {
	tree, err := valueToTree(reflect.ValueOf(v), 0)
	if err != nil {
		return nil, err
	}
	return Encode(tree)
}

// An Encoder writes TOML documents to an output stream.
type Encoder struct {
	w    io.Writer
	opts []EncodeOption
}

// NewEncoder returns a new encoder that writes to w.
func NewEncoder(w io.Writer, opts ...EncodeOption) *Encoder {
	return &Encoder{w: w, opts: opts}
}

// Encode writes the TOML encoding of v to the stream. See the
// documentation for Marshal for details about the conversion of Go
// values to TOML.
func (enc *Encoder) Encode(v any) error {
	tree, err := valueToTree(reflect.ValueOf(v), 0)
	if err != nil {
		return err
	}
	out, err := Encode(tree, enc.opts...)
	if err != nil {
		return err
	}
	_, err = enc.w.Write(out)
	return err
}

// parseStructTag splits a `toml` struct tag into its name and the
// omitempty flag.
func parseStructTag(tag reflect.StructTag) (string, bool) {
	t := tag.Get("toml")
	if t == "" {
		return "", false
	}
	parts := strings.Split(t, ",")
	omit := false
	for _, p := range parts[1:] {
		if p == "omitempty" {
			omit = true
		}
	}
	return parts[0], omit
}

// valueToTree converts a Go value into the decoded-tree representation
// that Encode renders. The depth limit is a safeguard against circular
// data structures, which would otherwise recurse forever.
func valueToTree(v reflect.Value, depth int) (any, error) {
	if depth > 1000 {
		return nil, errors.New("toml: circular or excessively deep data structure")
	}

	// Follow pointers and interfaces to the concrete value. TOML has no
	// null, so a nil along the way is an error.
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil, errors.New("toml: cannot encode nil, TOML has no null")
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return nil, errors.New("toml: cannot encode nil, TOML has no null")
	}

	switch v.Type() {
	case timeType:
		return fromTime(v.Interface().(time.Time)), nil
	case reflect.TypeOf(LocalDate{}), reflect.TypeOf(LocalTime{}),
		reflect.TypeOf(LocalDateTime{}), reflect.TypeOf(OffsetDateTime{}):
		return v.Interface(), nil
	}

	switch v.Kind() {
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("toml: map key type must be a string, not %s", v.Type().Key())
		}
		m := make(map[string]any, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			sub, err := valueToTree(iter.Value(), depth+1)
			if err != nil {
				return nil, err
			}
			m[iter.Key().String()] = sub
		}
		return m, nil

	case reflect.Struct:
		m := make(map[string]any)
		structType := v.Type()
		for i := 0; i < structType.NumField(); i++ {
			field := structType.Field(i)
			if !field.IsExported() {
				continue
			}
			name, omitempty := parseStructTag(field.Tag)
			if name == "-" {
				continue
			}
			if name == "" {
				name = field.Name
			}
			if omitempty && v.Field(i).IsZero() {
				continue
			}
			sub, err := valueToTree(v.Field(i), depth+1)
			if err != nil {
				return nil, fmt.Errorf("error encoding field %s: %w", field.Name, err)
			}
			m[name] = sub
		}
		return m, nil

	case reflect.Slice, reflect.Array:
		arr := make([]any, 0, v.Len())
		for i := 0; i < v.Len(); i++ {
			sub, err := valueToTree(v.Index(i), depth+1)
			if err != nil {
				return nil, err
			}
			arr = append(arr, sub)
		}
		return arr, nil

	case reflect.String:
		return v.String(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := v.Uint()
		if u > math.MaxInt64 {
			return nil, fmt.Errorf("toml: value %d overflows the integer range", u)
		}
		return int64(u), nil
	case reflect.Float32, reflect.Float64:
		return v.Float(), nil
	case reflect.Bool:
		return v.Bool(), nil
	default:
		return nil, fmt.Errorf("toml: unsupported type: %s", v.Type())
	}
}
