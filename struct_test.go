package toml

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type serverConfig struct {
	Title string `toml:"title"`
	Debug bool   `toml:"debug"`

	Server struct {
		Host    string   `toml:"host"`
		Port    int      `toml:"port"`
		Origins []string `toml:"origins"`
	} `toml:"server"`

	Limits map[string]float64 `toml:"limits"`

	Accounts []struct {
		Name    string    `toml:"name"`
		Created time.Time `toml:"created"`
	} `toml:"accounts"`
}

func TestStruct(t *testing.T) {
	doc := `title = "demo"
debug = true

[server]
host = "127.0.0.1"
port = 8080
origins = ["a.example.com", "b.example.com"]

[limits]
cpu = 0.5
memory = 1024.0

[[accounts]]
name = "alpha"
created = 2020-01-01T00:00:00Z

[[accounts]]
name = "beta"
created = 2021-06-15T12:30:00+02:00
`

	var cfg serverConfig
	if err := Unmarshal([]byte(doc), &cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assert.Equal(t, "demo", cfg.Title)
	assert.True(t, cfg.Debug)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"a.example.com", "b.example.com"}, cfg.Server.Origins)
	assert.Equal(t, map[string]float64{"cpu": 0.5, "memory": 1024}, cfg.Limits)

	if assert.Len(t, cfg.Accounts, 2) {
		assert.Equal(t, "alpha", cfg.Accounts[0].Name)
		assert.Equal(t, 2020, cfg.Accounts[0].Created.Year())
		_, offset := cfg.Accounts[1].Created.Zone()
		assert.Equal(t, 2*3600, offset)
	}

	// Marshal back and decode again; the values must survive.
	out, err := Marshal(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var cfg2 serverConfig
	if err := Unmarshal(out, &cfg2); err != nil {
		t.Fatalf("unexpected error: %v\n%s", err, out)
	}
	assert.Equal(t, cfg.Title, cfg2.Title)
	assert.Equal(t, cfg.Server, cfg2.Server)
	assert.Equal(t, cfg.Limits, cfg2.Limits)
	assert.True(t, cfg.Accounts[1].Created.Equal(cfg2.Accounts[1].Created))
}

func TestStructDatetimeFields(t *testing.T) {
	type event struct {
		Day   LocalDate      `toml:"day"`
		At    LocalTime      `toml:"at"`
		Stamp OffsetDateTime `toml:"stamp"`
	}

	var e event
	err := Unmarshal([]byte("day = 1979-05-27\nat = 07:32:00\nstamp = 1979-05-27T07:32:00Z"), &e)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assert.Equal(t, LocalDate{Year: 1979, Month: 5, Day: 27}, e.Day)
	assert.Equal(t, LocalTime{Hour: 7, Minute: 32}, e.At)
	assert.Equal(t, 0, e.Stamp.OffsetMinutes)
}

func TestStructTags(t *testing.T) {
	t.Run("field_renaming", func(t *testing.T) {
		type renamed struct {
			FieldName    string `toml:"custom_name"`
			AnotherField int    `toml:"another_custom"`
		}

		out, err := Marshal(renamed{FieldName: "value1", AnotherField: 42})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		s := string(out)
		assert.Contains(t, s, "custom_name")
		assert.Contains(t, s, "another_custom")
		assert.NotContains(t, s, "FieldName")
		assert.NotContains(t, s, "AnotherField")
	})

	t.Run("omitempty", func(t *testing.T) {
		type withOmit struct {
			Included string `toml:"included"`
			Omitted  string `toml:"omitted,omitempty"`
			Zero     int    `toml:"zero,omitempty"`
			Kept     int    `toml:"kept,omitempty"`
		}

		out, err := Marshal(withOmit{Included: "x", Kept: 7})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		assert.Equal(t, "included = \"x\"\nkept = 7\n", string(out))
	})

	t.Run("skipped_fields", func(t *testing.T) {
		type withSkip struct {
			Public string `toml:"public"`
			Secret string `toml:"-"`
		}

		out, err := Marshal(withSkip{Public: "yes", Secret: "no"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assert.Equal(t, "public = \"yes\"\n", string(out))

		// The tag works on the way in too.
		var v withSkip
		if err := Unmarshal([]byte("public = \"a\"\n\"-\" = \"b\""), &v); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assert.Equal(t, "a", v.Public)
		assert.Empty(t, v.Secret)
	})
}

func TestUnmarshalPointerFields(t *testing.T) {
	type withPtr struct {
		Name *string `toml:"name"`
		Port *int    `toml:"port"`
	}

	var v withPtr
	if err := Unmarshal([]byte("name = \"x\""), &v); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if assert.NotNil(t, v.Name) {
		assert.Equal(t, "x", *v.Name)
	}
	assert.Nil(t, v.Port)
}

func TestUnmarshalTypeMismatch(t *testing.T) {
	f := func(name, input string, dst any) {
		t.Helper()
		t.Run(name, func(t *testing.T) {
			t.Helper()
			if err := Unmarshal([]byte(input), dst); err == nil {
				t.Error("expected error but got none")
			}
		})
	}

	f("string_into_int", "a = \"x\"", &struct {
		A int `toml:"a"`
	}{})
	f("float_into_int", "a = 1.5", &struct {
		A int `toml:"a"`
	}{})
	f("int_overflow", "a = 300", &struct {
		A int8 `toml:"a"`
	}{})
	f("negative_into_uint", "a = -1", &struct {
		A uint `toml:"a"`
	}{})
	f("table_into_string", "[a]", &struct {
		A string `toml:"a"`
	}{})
	f("local_date_into_time", "a = 1979-05-27", &struct {
		A time.Time `toml:"a"`
	}{})
}
