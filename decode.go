// Package toml provides functionality for parsing, encoding and
// decoding TOML 1.0 documents.
package toml

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"reflect"
	"time"
)

// DefaultMaxDepth is the nesting ceiling applied to arrays and inline
// tables unless overridden with WithMaxDepth.
const DefaultMaxDepth = 1024

type decodeOptions struct {
	maxDepth int
	format   DatetimeFormatter
	expand   bool
}

// DecodeOption configures a Decode call.
type DecodeOption func(*decodeOptions)

// WithMaxDepth overrides the nesting ceiling for arrays and inline
// tables. A value of zero or less disables the ceiling.
func WithMaxDepth(n int) DecodeOption {
	return func(o *decodeOptions) { o.maxDepth = n }
}

// WithDatetimeFormatter installs a hook that replaces each decoded
// datetime value. The hook receives one of LocalDate, LocalTime,
// LocalDateTime or OffsetDateTime and its result is stored in the tree
// as-is.
func WithDatetimeFormatter(f DatetimeFormatter) DecodeOption {
	return func(o *decodeOptions) { o.format = f }
}

// WithExpandedValues makes Decode wrap every scalar leaf as a
// {"type": ..., "value": ...} table, the shape used by the toml-test
// compliance suite. It takes precedence over any datetime formatter.
func WithExpandedValues() DecodeOption {
	return func(o *decodeOptions) { o.expand = true }
}

// Decode parses a TOML document and returns its root table. Strings
// decode to string, integers to int64, floats to float64, booleans to
// bool, datetimes to the four datetime types in this package, arrays to
// []any and tables to map[string]any.
//
// Decoding is strict and fail-fast: the first syntax, encoding, or
// conflict error aborts the call with a *ParseError carrying the line
// number, and no partial tree is returned.
func Decode(data []byte, opts ...DecodeOption) (map[string]any, error) {
	o := decodeOptions{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(&o)
	}
	return newParser(data, o).parse()
}

// DecodeOrDefault parses a TOML document and returns its root table, or
// def if the document does not parse.
func DecodeOrDefault(data []byte, def any, opts ...DecodeOption) any {
	out, err := Decode(data, opts...)
	if err != nil {
		return def
	}
	return out
}

// Decoder reads and decodes a TOML document from an input stream.
type Decoder struct {
	r    io.Reader
	opts []DecodeOption
}

// NewDecoder returns a new decoder that reads from r.
func NewDecoder(r io.Reader, opts ...DecodeOption) *Decoder {
	return &Decoder{r: r, opts: opts}
}

// Decode reads the TOML document from the input stream and stores the
// result in the pointer v.
func (dec *Decoder) Decode(v any) error {
	data, err := io.ReadAll(dec.r)
	if err != nil {
		return err
	}
	out, err := Decode(data, dec.opts...)
	if err != nil {
		return err
	}
	return setValue(v, out)
}

// Unmarshal parses TOML data and stores the result in the value pointed
// to by v. If v is nil or not a pointer, it returns an error.
//
// Struct fields are matched by name or by a `toml:"name"` tag; a tag
// name of "-" skips the field. Datetime values are assigned directly to
// fields of the package's datetime types, and an offset date-time also
// converts to time.Time.
func Unmarshal(data []byte, v any) error {
	dec := NewDecoder(bytes.NewReader(data))
	return dec.Decode(v)
}

// setValue sets the destination value from the decoded source value.
func setValue(dst, src any) error {
	if dst == nil {
		return errors.New("cannot unmarshal into a nil value")
	}

	val := reflect.ValueOf(dst)
	if val.Kind() != reflect.Ptr {
		return errors.New("destination is not a pointer")
	}
	if val.IsNil() {
		return errors.New("destination pointer is nil")
	}

	return setValueReflect(val.Elem(), src)
}

var timeType = reflect.TypeOf(time.Time{})

// setValueReflect recursively sets values to dst from src using
// reflection.
func setValueReflect(dst reflect.Value, src any) error {
	if src == nil {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}

	s := reflect.ValueOf(src)

	// If the destination is an interface, set it directly.
	if dst.Kind() == reflect.Interface {
		dst.Set(s)
		return nil
	}

	// Assign directly if types are compatible. This covers the four
	// datetime types landing in same-typed fields.
	if s.Type().AssignableTo(dst.Type()) {
		dst.Set(s)
		return nil
	}

	if dst.Type() == timeType {
		odt, ok := src.(OffsetDateTime)
		if !ok {
			return fmt.Errorf("cannot unmarshal %T into time.Time", src)
		}
		dst.Set(reflect.ValueOf(odt.AsTime()))
		return nil
	}

	switch dst.Kind() {
	case reflect.Struct:
		return setStruct(dst, src)
	case reflect.Slice:
		return setSlice(dst, src)
	case reflect.Map:
		return setMap(dst, src)
	case reflect.Ptr:
		return setPtr(dst, src)
	case reflect.String:
		return setString(dst, src)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return setInt(dst, src)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return setUint(dst, src)
	case reflect.Float32, reflect.Float64:
		return setFloat(dst, src)
	case reflect.Bool:
		return setBool(dst, src)
	default:
		return fmt.Errorf("cannot unmarshal %T into %s", src, dst.Type())
	}
}

// setStruct unmarshals a table into a struct.
func setStruct(dst reflect.Value, src any) error {
	srcMap, ok := src.(map[string]any)
	if !ok {
		return fmt.Errorf("cannot unmarshal %T into struct", src)
	}

	structType := dst.Type()
	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		fieldValue := dst.Field(i)

		// Skip unexported fields.
		if !fieldValue.CanSet() {
			continue
		}

		fieldName := getFieldName(field)
		if fieldName == "-" {
			continue
		}

		if srcValue, exists := srcMap[fieldName]; exists {
			if err := setValueReflect(fieldValue, srcValue); err != nil {
				return fmt.Errorf("error setting field %s: %w", field.Name, err)
			}
		}
	}

	return nil
}

// getFieldName returns the field name to use for mapping, checking for
// struct tags.
func getFieldName(field reflect.StructField) string {
	name, _ := parseStructTag(field.Tag)
	if name == "" {
		return field.Name
	}
	return name
}

// setSlice unmarshals an array into a slice.
func setSlice(dst reflect.Value, src any) error {
	srcSlice, ok := src.([]any)
	if !ok {
		return fmt.Errorf("cannot unmarshal %T into slice", src)
	}

	newSlice := reflect.MakeSlice(dst.Type(), len(srcSlice), len(srcSlice))
	for i, srcElem := range srcSlice {
		if err := setValueReflect(newSlice.Index(i), srcElem); err != nil {
			return fmt.Errorf("error setting slice element %d: %w", i, err)
		}
	}

	dst.Set(newSlice)
	return nil
}

// setMap unmarshals a src table into a dest map.
func setMap(dst reflect.Value, src any) error {
	srcMap, ok := src.(map[string]any)
	if !ok {
		return fmt.Errorf("cannot unmarshal %T into map", src)
	}

	mapType := dst.Type()
	if mapType.Key().Kind() != reflect.String {
		return fmt.Errorf("maps with non-string keys are not supported")
	}

	valueType := mapType.Elem()
	newMap := reflect.MakeMap(mapType)
	for key, srcValue := range srcMap {
		valueValue := reflect.New(valueType).Elem()
		if err := setValueReflect(valueValue, srcValue); err != nil {
			return fmt.Errorf("error setting map value for key %s: %w", key, err)
		}
		newMap.SetMapIndex(reflect.ValueOf(key), valueValue)
	}

	dst.Set(newMap)
	return nil
}

// setPtr unmarshals into a pointer.
func setPtr(dst reflect.Value, src any) error {
	newPtr := reflect.New(dst.Type().Elem())
	if err := setValueReflect(newPtr.Elem(), src); err != nil {
		return err
	}
	dst.Set(newPtr)
	return nil
}

func setString(dst reflect.Value, src any) error {
	v, ok := src.(string)
	if !ok {
		return fmt.Errorf("cannot unmarshal %T into string", src)
	}
	dst.SetString(v)
	return nil
}

func setInt(dst reflect.Value, src any) error {
	v, ok := src.(int64)
	if !ok {
		return fmt.Errorf("cannot unmarshal %T into integer", src)
	}
	if dst.OverflowInt(v) {
		return fmt.Errorf("value %d overflows %s", v, dst.Type())
	}
	dst.SetInt(v)
	return nil
}

func setUint(dst reflect.Value, src any) error {
	v, ok := src.(int64)
	if !ok {
		return fmt.Errorf("cannot unmarshal %T into unsigned integer", src)
	}
	if v < 0 {
		return fmt.Errorf("cannot unmarshal negative value %d into unsigned integer", v)
	}
	if dst.OverflowUint(uint64(v)) {
		return fmt.Errorf("value %d overflows %s", v, dst.Type())
	}
	dst.SetUint(uint64(v))
	return nil
}

// setFloat converts numeric types to float. Integers widen; a lossy
// widening of a large int64 is accepted the way the standard library's
// JSON decoder accepts it.
func setFloat(dst reflect.Value, src any) error {
	switch v := src.(type) {
	case int64:
		dst.SetFloat(float64(v))
		return nil
	case float64:
		if dst.OverflowFloat(v) && !math.IsInf(v, 0) {
			return fmt.Errorf("value %g overflows %s", v, dst.Type())
		}
		dst.SetFloat(v)
		return nil
	default:
		return fmt.Errorf("cannot unmarshal %T into float", src)
	}
}

func setBool(dst reflect.Value, src any) error {
	v, ok := src.(bool)
	if !ok {
		return fmt.Errorf("cannot unmarshal %T into bool", src)
	}
	dst.SetBool(v)
	return nil
}
