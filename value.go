package toml

import (
	"fmt"
	"time"
)

// The four TOML temporal value shapes. All are plain comparable value
// types with no location or timezone database attached; an offset
// date-time carries its UTC offset as a signed minute count.
//
// Decoded documents contain these types directly. A caller that prefers
// time.Time (or any other representation) can install a
// DatetimeFormatter on the decoder.

// LocalDate is a calendar date without a time or offset, e.g. 1979-05-27.
type LocalDate struct {
	Year  int
	Month int
	Day   int
}

// LocalTime is a wall-clock time without a date or offset, e.g. 07:32:00.
// Fractional seconds are stored at microsecond resolution.
type LocalTime struct {
	Hour        int
	Minute      int
	Second      int
	Microsecond int
}

// LocalDateTime is a date and time without a UTC offset.
type LocalDateTime struct {
	Date LocalDate
	Time LocalTime
}

// OffsetDateTime is a date and time with a UTC offset in minutes.
// A Z suffix parses as offset zero.
type OffsetDateTime struct {
	Date          LocalDate
	Time          LocalTime
	OffsetMinutes int
}

// DatetimeFormatter converts a decoded datetime value (one of LocalDate,
// LocalTime, LocalDateTime, OffsetDateTime) into the caller's preferred
// representation before it is inserted into the tree.
type DatetimeFormatter func(v any) any

func isLeapYear(y int) bool {
	return y%4 == 0 && (y%100 != 0 || y%400 == 0)
}

func daysInMonth(year, month int) int {
	switch month {
	case 1, 3, 5, 7, 8, 10, 12:
		return 31
	case 4, 6, 9, 11:
		return 30
	case 2:
		if isLeapYear(year) {
			return 29
		}
		return 28
	}
	return 0
}

func (d LocalDate) valid() bool {
	return d.Year >= 0 && d.Year <= 9999 &&
		d.Month >= 1 && d.Month <= 12 &&
		d.Day >= 1 && d.Day <= daysInMonth(d.Year, d.Month)
}

// valid tolerates second 60 so leap-second timestamps decode; the value
// is carried through without smearing.
func (t LocalTime) valid() bool {
	return t.Hour >= 0 && t.Hour <= 23 &&
		t.Minute >= 0 && t.Minute <= 59 &&
		t.Second >= 0 && t.Second <= 60 &&
		t.Microsecond >= 0 && t.Microsecond <= 999999
}

func validOffset(minutes int) bool {
	return minutes >= -1439 && minutes <= 1439
}

// String renders the date in RFC 3339 full-date form.
func (d LocalDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// String renders the time in RFC 3339 partial-time form, with trailing
// zeros trimmed from the fractional seconds.
func (t LocalTime) String() string {
	s := fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
	if t.Microsecond != 0 {
		frac := fmt.Sprintf("%06d", t.Microsecond)
		for len(frac) > 1 && frac[len(frac)-1] == '0' {
			frac = frac[:len(frac)-1]
		}
		s += "." + frac
	}
	return s
}

func (dt LocalDateTime) String() string {
	return dt.Date.String() + "T" + dt.Time.String()
}

func (odt OffsetDateTime) String() string {
	s := odt.Date.String() + "T" + odt.Time.String()
	if odt.OffsetMinutes == 0 {
		return s + "Z"
	}
	off := odt.OffsetMinutes
	sign := "+"
	if off < 0 {
		sign = "-"
		off = -off
	}
	return s + fmt.Sprintf("%s%02d:%02d", sign, off/60, off%60)
}

// AsTime converts the value to a time.Time in a fixed zone at the
// stored offset. Microseconds become nanoseconds; a leap second (second
// 60) is clamped to 59 since time.Time cannot represent it.
func (odt OffsetDateTime) AsTime() time.Time {
	sec := odt.Time.Second
	if sec > 59 {
		sec = 59
	}
	loc := time.UTC
	if odt.OffsetMinutes != 0 {
		loc = time.FixedZone("", odt.OffsetMinutes*60)
	}
	return time.Date(odt.Date.Year, time.Month(odt.Date.Month), odt.Date.Day,
		odt.Time.Hour, odt.Time.Minute, sec, odt.Time.Microsecond*1000, loc)
}

// fromTime builds an OffsetDateTime from a time.Time, truncating
// sub-microsecond precision.
func fromTime(t time.Time) OffsetDateTime {
	_, offset := t.Zone()
	return OffsetDateTime{
		Date: LocalDate{Year: t.Year(), Month: int(t.Month()), Day: t.Day()},
		Time: LocalTime{
			Hour:        t.Hour(),
			Minute:      t.Minute(),
			Second:      t.Second(),
			Microsecond: t.Nanosecond() / 1000,
		},
		OffsetMinutes: offset / 60,
	}
}

func isDatetime(v any) bool {
	switch v.(type) {
	case LocalDate, LocalTime, LocalDateTime, OffsetDateTime:
		return true
	}
	return false
}
