package toml

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDatetimeValidation(t *testing.T) {
	f := func(name string, ok bool, check bool) {
		t.Helper()
		t.Run(name, func(t *testing.T) {
			t.Helper()
			if check != ok {
				t.Errorf("expected valid=%v, got %v", ok, check)
			}
		})
	}

	f("date", true, LocalDate{Year: 1979, Month: 5, Day: 27}.valid())
	f("leap_day", true, LocalDate{Year: 2020, Month: 2, Day: 29}.valid())
	f("non_leap_day", false, LocalDate{Year: 2021, Month: 2, Day: 29}.valid())
	f("century_non_leap", false, LocalDate{Year: 1900, Month: 2, Day: 29}.valid())
	f("quadricentennial_leap", true, LocalDate{Year: 2000, Month: 2, Day: 29}.valid())
	f("month_zero", false, LocalDate{Year: 2021, Month: 0, Day: 1}.valid())
	f("month_thirteen", false, LocalDate{Year: 2021, Month: 13, Day: 1}.valid())
	f("day_zero", false, LocalDate{Year: 2021, Month: 1, Day: 0}.valid())
	f("day_32", false, LocalDate{Year: 2021, Month: 1, Day: 32}.valid())
	f("year_bounds", true, LocalDate{Year: 0, Month: 1, Day: 1}.valid())
	f("year_too_large", false, LocalDate{Year: 10000, Month: 1, Day: 1}.valid())

	f("midnight", true, LocalTime{}.valid())
	f("end_of_day", true, LocalTime{Hour: 23, Minute: 59, Second: 59}.valid())
	f("leap_second", true, LocalTime{Hour: 23, Minute: 59, Second: 60}.valid())
	f("hour_24", false, LocalTime{Hour: 24}.valid())
	f("minute_60", false, LocalTime{Minute: 60}.valid())
	f("second_61", false, LocalTime{Second: 61}.valid())

	f("offset_zero", true, validOffset(0))
	f("offset_max", true, validOffset(1439))
	f("offset_min", true, validOffset(-1439))
	f("offset_beyond_max", false, validOffset(1440))
}

func TestDatetimeStrings(t *testing.T) {
	f := func(name, expected string, v any) {
		t.Helper()
		t.Run(name, func(t *testing.T) {
			t.Helper()
			assert.Equal(t, expected, v.(interface{ String() string }).String())
		})
	}

	date := LocalDate{Year: 1979, Month: 5, Day: 27}
	f("date", "1979-05-27", date)
	f("date_padding", "0007-01-02", LocalDate{Year: 7, Month: 1, Day: 2})
	f("time", "07:32:00", LocalTime{Hour: 7, Minute: 32})
	f("time_fraction_trimmed", "07:32:00.5", LocalTime{Hour: 7, Minute: 32, Microsecond: 500000})
	f("time_fraction_full", "07:32:00.000001", LocalTime{Hour: 7, Minute: 32, Microsecond: 1})
	f("local_datetime", "1979-05-27T07:32:00", LocalDateTime{Date: date, Time: LocalTime{Hour: 7, Minute: 32}})
	f("utc", "1979-05-27T07:32:00Z", OffsetDateTime{Date: date, Time: LocalTime{Hour: 7, Minute: 32}})
	f("positive_offset", "1979-05-27T07:32:00+05:30",
		OffsetDateTime{Date: date, Time: LocalTime{Hour: 7, Minute: 32}, OffsetMinutes: 330})
	f("negative_offset", "1979-05-27T00:32:00-07:00",
		OffsetDateTime{Date: date, Time: LocalTime{Minute: 32}, OffsetMinutes: -420})
}

func TestOffsetDateTimeConversion(t *testing.T) {
	odt := OffsetDateTime{
		Date:          LocalDate{Year: 1979, Month: 5, Day: 27},
		Time:          LocalTime{Hour: 7, Minute: 32, Second: 1, Microsecond: 500000},
		OffsetMinutes: -420,
	}

	ts := odt.AsTime()
	assert.Equal(t, 1979, ts.Year())
	assert.Equal(t, time.May, ts.Month())
	assert.Equal(t, 7, ts.Hour())
	assert.Equal(t, 500000000, ts.Nanosecond())
	_, offset := ts.Zone()
	assert.Equal(t, -420*60, offset)

	// Round trip through time.Time preserves the instant and offset.
	assert.Equal(t, odt, fromTime(ts))

	// A leap second clamps, since time.Time cannot carry second 60.
	leap := OffsetDateTime{
		Date: LocalDate{Year: 1990, Month: 12, Day: 31},
		Time: LocalTime{Hour: 23, Minute: 59, Second: 60},
	}
	assert.Equal(t, 59, leap.AsTime().Second())
}
