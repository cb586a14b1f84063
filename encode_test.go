package toml

import (
	"bytes"
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeDoc(t *testing.T) {
	f := func(name string, root any, expected string) {
		t.Helper()
		t.Run(name, func(t *testing.T) {
			t.Helper()
			out, err := Encode(root)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(out) != expected {
				t.Errorf("expected:\n%q\ngot:\n%q", expected, out)
			}
		})
	}

	f("empty_document", map[string]any{}, "")
	f("sorted_keys", map[string]any{"b": int64(1), "a": int64(2)}, "a = 2\nb = 1\n")
	f("scalar_types",
		map[string]any{
			"s": "x",
			"i": int64(-3),
			"f": 0.5,
			"b": true,
		},
		"b = true\nf = 0.5\ni = -3\ns = \"x\"\n")
	f("float_always_reads_back_as_float", map[string]any{"f": float64(100)}, "f = 100.0\n")
	f("special_floats",
		map[string]any{"a": math.Inf(1), "b": math.Inf(-1), "c": math.NaN()},
		"a = inf\nb = -inf\nc = nan\n")
	f("empty_array", map[string]any{"a": []any{}}, "a = []\n")
	f("inline_array", map[string]any{"a": []any{int64(1), "two", 3.5}}, "a = [1, \"two\", 3.5]\n")
	f("mixed_array_renders_inline_tables",
		map[string]any{"a": []any{map[string]any{"x": int64(1)}, int64(2)}},
		"a = [{x = 1}, 2]\n")
	f("nested_inline",
		map[string]any{"a": []any{[]any{int64(1)}, map[string]any{"b": map[string]any{"c": int64(2)}, "a": int64(1)}, []any{}}},
		"a = [[1], {a = 1, b = {c = 2}}, []]\n")
	f("quoted_keys",
		map[string]any{"a b": int64(1), "": int64(2), "dot.ted": int64(3)},
		"\"\" = 2\n\"a b\" = 1\n\"dot.ted\" = 3\n")
	f("string_escapes",
		map[string]any{"s": "a\tb\nc\"d\\e\x01f\x7fg"},
		"s = \"a\\tb\\nc\\\"d\\\\e\\u0001f\\u007Fg\"\n")
	f("datetimes",
		map[string]any{
			"d":  LocalDate{Year: 1979, Month: 5, Day: 27},
			"t":  LocalTime{Hour: 7, Minute: 32, Microsecond: 500000},
			"dt": LocalDateTime{Date: LocalDate{Year: 1979, Month: 5, Day: 27}, Time: LocalTime{Hour: 7, Minute: 32}},
			"o":  OffsetDateTime{Date: LocalDate{Year: 1979, Month: 5, Day: 27}, Time: LocalTime{Minute: 32}, OffsetMinutes: -420},
		},
		"d = 1979-05-27\ndt = 1979-05-27T07:32:00\no = 1979-05-27T00:32:00-07:00\nt = 07:32:00.5\n")
	f("single_table", map[string]any{"t": map[string]any{"k": int64(1)}}, "[t]\nk = 1\n")
	f("scalars_before_tables",
		map[string]any{
			"title":  "example",
			"ports":  []any{int64(8001), int64(8002)},
			"server": map[string]any{"host": "127.0.0.1", "limits": map[string]any{"cpu": 0.5}},
			"accounts": []any{
				map[string]any{"name": "alpha"},
				map[string]any{"name": "beta"},
			},
		},
		`ports = [8001, 8002]
title = "example"

[[accounts]]
name = "alpha"

[[accounts]]
name = "beta"

[server]
host = "127.0.0.1"

[server.limits]
cpu = 0.5
`)
	f("quoted_header_path",
		map[string]any{"a": map[string]any{"b.c": map[string]any{"k": int64(1)}}},
		"[a]\n\n[a.\"b.c\"]\nk = 1\n")
}

func TestEncodeErrors(t *testing.T) {
	f := func(name string, root any) {
		t.Helper()
		t.Run(name, func(t *testing.T) {
			t.Helper()
			if _, err := Encode(root); err == nil {
				t.Error("expected error but got none")
			}
		})
	}

	f("non_table_root", []any{int64(1)})
	f("scalar_root", int64(1))
	f("nil_root", nil)
	f("nil_value", map[string]any{"a": nil})
	f("nil_in_array", map[string]any{"a": []any{nil}})
	f("unsupported_type", map[string]any{"a": make(chan int)})
}

func TestEncodeMaxTables(t *testing.T) {
	deep := map[string]any{"a": map[string]any{"b": map[string]any{"c": int64(1)}}}

	_, err := Encode(deep, WithMaxTables(2))
	if !errors.Is(err, ErrTableLimit) {
		t.Fatalf("expected ErrTableLimit, got %v", err)
	}

	if _, err := Encode(deep, WithMaxTables(3)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Inline tables count toward the ceiling too.
	inline := map[string]any{"a": []any{map[string]any{"x": int64(1)}, int64(2)}}
	_, err = Encode(inline, WithMaxTables(1))
	if !errors.Is(err, ErrTableLimit) {
		t.Fatalf("expected ErrTableLimit, got %v", err)
	}

	if _, err := Encode(deep, WithMaxTables(-1)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRoundTrip(t *testing.T) {
	docs := []string{
		"a = 1\nb = \"two\"\n",
		"[server]\nhost = \"x\"\nports = [1, 2, 3]\n",
		"[[p]]\nn = 1\n\n[[p]]\nn = 2\n",
		"d = 1979-05-27T07:32:00.5-07:00\nt = 07:32:00\n",
		"s = \"esc \\u0001 \\\\ \\\" \\n\"\n",
		"\"weird key\" = {\"another.one\" = [{}, {x = 1}]}\n",
	}

	for _, doc := range docs {
		want, err := Decode([]byte(doc))
		if err != nil {
			t.Fatalf("decode %q: %v", doc, err)
		}
		out, err := Encode(want)
		if err != nil {
			t.Fatalf("encode %q: %v", doc, err)
		}
		got, err := Decode(out)
		if err != nil {
			t.Fatalf("re-decode %q: %v", out, err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("round trip changed the document:\ninput: %q\nwant:  %+v\ngot:   %+v", doc, want, got)
		}

		// Encoding is idempotent: encoding the re-decoded tree yields
		// byte-identical output.
		out2, err := Encode(got)
		if err != nil {
			t.Fatalf("re-encode %q: %v", out, err)
		}
		assert.Equal(t, string(out), string(out2))
	}
}

func TestEncoderWriter(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	if err := enc.Encode(map[string]any{"a": int64(1)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assert.Equal(t, "a = 1\n", buf.String())
}
