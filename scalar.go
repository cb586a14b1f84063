package toml

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Scalar parsing: booleans, signed inf/nan, radix-prefixed integers,
// the four datetime shapes, and decimal integers/floats. The cursor is
// first advanced over the maximal run of scalar characters; the run is
// then classified and validated as a whole, which makes the underscore
// and leading-zero rules straightforward to enforce.

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isHexDigit(c byte) bool {
	return isDigit(c) || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F'
}

func isOctalDigit(c byte) bool {
	return c >= '0' && c <= '7'
}

func isBinaryDigit(c byte) bool {
	return c == '0' || c == '1'
}

func isScalarRunChar(c byte) bool {
	return isDigit(c) || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' ||
		c == '_' || c == '-' || c == '+' || c == '.' || c == ':'
}

// scanScalarRun consumes the maximal run of characters that can appear
// in an unquoted scalar literal.
func (p *parser) scanScalarRun() string {
	start := p.pos
	for !p.done() && isScalarRunChar(p.data[p.pos]) {
		p.pos++
	}
	return string(p.data[start:p.pos])
}

// parseScalar parses one unquoted scalar value at the cursor.
func (p *parser) parseScalar() (any, error) {
	start := p.pos
	run := p.scanScalarRun()
	if run == "" {
		return nil, p.errorfAt(start, "invalid scalar")
	}

	switch run {
	case "true":
		return true, nil
	case "false":
		return false, nil
	case "inf", "+inf":
		return math.Inf(1), nil
	case "-inf":
		return math.Inf(-1), nil
	case "nan", "+nan", "-nan":
		// The sign of nan is insignificant; all three decode to the
		// canonical quiet NaN.
		return math.NaN(), nil
	}

	if len(run) > 2 && run[0] == '0' && (run[1] == 'x' || run[1] == 'o' || run[1] == 'b') {
		return p.parseRadixInt(run, start)
	}
	if len(run) >= 3 && isDigit(run[0]) && isDigit(run[1]) && run[2] == ':' {
		return p.parseLocalTimeRun(run, start)
	}
	if len(run) >= 5 && isDigit(run[0]) && isDigit(run[1]) && isDigit(run[2]) && isDigit(run[3]) && run[4] == '-' {
		return p.parseDatetimeRun(run, start)
	}
	return p.parseNumber(run, start)
}

// parseRadixInt parses a 0x/0o/0b integer literal. Signs are not
// permitted on radix integers.
func (p *parser) parseRadixInt(run string, start int) (any, error) {
	var digit func(byte) bool
	var base int
	switch run[1] {
	case 'x':
		digit, base = isHexDigit, 16
	case 'o':
		digit, base = isOctalDigit, 8
	default:
		digit, base = isBinaryDigit, 2
	}
	digits := run[2:]
	if !validDigitGroup(digits, digit) {
		return nil, p.errorfAt(start, "invalid base-%d integer %q", base, run)
	}
	v, err := strconv.ParseInt(strings.ReplaceAll(digits, "_", ""), base, 64)
	if err != nil {
		return nil, p.errorfAt(start, "integer %q out of range", run)
	}
	return v, nil
}

// parseNumber parses a decimal integer or float literal.
func (p *parser) parseNumber(run string, start int) (any, error) {
	body := run
	if body != "" && (body[0] == '+' || body[0] == '-') {
		body = body[1:]
	}
	if body == "" || !isDigit(body[0]) {
		return nil, p.errorfAt(start, "invalid scalar %q", run)
	}

	if strings.ContainsAny(body, ".eE") {
		if err := validateFloatBody(body); err != nil {
			return nil, p.errorfAt(start, "invalid float %q: %v", run, err)
		}
		f, err := strconv.ParseFloat(strings.ReplaceAll(run, "_", ""), 64)
		if err != nil {
			return nil, p.errorfAt(start, "invalid float %q", run)
		}
		return f, nil
	}

	if err := validateIntBody(body); err != nil {
		return nil, p.errorfAt(start, "invalid integer %q: %v", run, err)
	}
	v, err := strconv.ParseInt(strings.ReplaceAll(run, "_", ""), 10, 64)
	if err != nil {
		return nil, p.errorfAt(start, "integer %q out of range", run)
	}
	return v, nil
}

// validDigitGroup reports whether s is a non-empty digit sequence where
// underscores appear only between digits.
func validDigitGroup(s string, digit func(byte) bool) bool {
	if s == "" {
		return false
	}
	prevUnderscore := true // leading underscore is invalid
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == '_':
			if prevUnderscore {
				return false
			}
			prevUnderscore = true
		case digit(s[i]):
			prevUnderscore = false
		default:
			return false
		}
	}
	return !prevUnderscore // trailing underscore is invalid
}

func validateIntBody(s string) error {
	if !validDigitGroup(s, isDigit) {
		return fmt.Errorf("bad digit grouping")
	}
	if len(s) > 1 && s[0] == '0' {
		return fmt.Errorf("leading zeros not allowed")
	}
	return nil
}

func validateFloatBody(s string) error {
	mant := s
	var exp string
	hasExp := false
	if i := strings.IndexAny(s, "eE"); i >= 0 {
		mant, exp, hasExp = s[:i], s[i+1:], true
	}
	intPart := mant
	var frac string
	hasFrac := false
	if j := strings.IndexByte(mant, '.'); j >= 0 {
		intPart, frac, hasFrac = mant[:j], mant[j+1:], true
	}
	if err := validateIntBody(intPart); err != nil {
		return err
	}
	if hasFrac && !validDigitGroup(frac, isDigit) {
		return fmt.Errorf("decimal point must be surrounded by digits")
	}
	if hasExp {
		e := exp
		if e != "" && (e[0] == '+' || e[0] == '-') {
			e = e[1:]
		}
		if !validDigitGroup(e, isDigit) {
			return fmt.Errorf("exponent needs at least one digit")
		}
	}
	return nil
}

// parseDatetimeRun parses a local date, local date-time, or offset
// date-time. A date followed by a space and a time is accepted as the
// RFC 3339 relaxed separator, so the run is extended across the blank.
func (p *parser) parseDatetimeRun(run string, start int) (any, error) {
	if len(run) < 10 {
		return nil, p.errorfAt(start, "invalid date %q", run)
	}
	date, err := parseDateFields(run[:10])
	if err != nil {
		return nil, p.wrapAt(start, err)
	}

	rest := run[10:]
	if rest == "" {
		if p.pos+3 < len(p.data) && p.data[p.pos] == ' ' &&
			isDigit(p.data[p.pos+1]) && isDigit(p.data[p.pos+2]) && p.data[p.pos+3] == ':' {
			p.pos++
			rest = "T" + p.scanScalarRun()
		} else {
			return date, nil
		}
	}
	if rest[0] != 'T' && rest[0] != 't' {
		return nil, p.errorfAt(start, "invalid datetime %q", run)
	}

	t, offset, hasOffset, err := parseTimeFields(rest[1:])
	if err != nil {
		return nil, p.wrapAt(start, err)
	}
	if hasOffset {
		return OffsetDateTime{Date: date, Time: t, OffsetMinutes: offset}, nil
	}
	return LocalDateTime{Date: date, Time: t}, nil
}

// parseLocalTimeRun parses a bare local time.
func (p *parser) parseLocalTimeRun(run string, start int) (any, error) {
	t, _, hasOffset, err := parseTimeFields(run)
	if err != nil {
		return nil, p.wrapAt(start, err)
	}
	if hasOffset {
		return nil, p.errorfAt(start, "offset not allowed on local time %q", run)
	}
	return t, nil
}

// parseDateFields parses a strict yyyy-mm-dd and checks calendar
// validity, including the Gregorian leap-year rule.
func parseDateFields(s string) (LocalDate, error) {
	for i, c := range []byte(s) {
		if i == 4 || i == 7 {
			if c != '-' {
				return LocalDate{}, fmt.Errorf("invalid date %q", s)
			}
		} else if !isDigit(c) {
			return LocalDate{}, fmt.Errorf("invalid date %q", s)
		}
	}
	d := LocalDate{
		Year:  atoi(s[:4]),
		Month: atoi(s[5:7]),
		Day:   atoi(s[8:10]),
	}
	if !d.valid() {
		return LocalDate{}, fmt.Errorf("invalid calendar date %q", s)
	}
	return d, nil
}

// parseTimeFields parses hh:mm:ss with optional fractional seconds and
// optional UTC offset. Fractional seconds are truncated or right-padded
// to microsecond resolution.
func parseTimeFields(s string) (LocalTime, int, bool, error) {
	if len(s) < 8 || !isDigit(s[0]) || !isDigit(s[1]) || s[2] != ':' ||
		!isDigit(s[3]) || !isDigit(s[4]) || s[5] != ':' ||
		!isDigit(s[6]) || !isDigit(s[7]) {
		return LocalTime{}, 0, false, fmt.Errorf("invalid time %q", s)
	}
	t := LocalTime{
		Hour:   atoi(s[0:2]),
		Minute: atoi(s[3:5]),
		Second: atoi(s[6:8]),
	}

	i := 8
	if i < len(s) && s[i] == '.' {
		i++
		fs := i
		for i < len(s) && isDigit(s[i]) {
			i++
		}
		if i == fs {
			return LocalTime{}, 0, false, fmt.Errorf("fractional seconds need at least one digit in %q", s)
		}
		frac := s[fs:i]
		if len(frac) > 6 {
			frac = frac[:6]
		}
		for len(frac) < 6 {
			frac += "0"
		}
		t.Microsecond = atoi(frac)
	}
	if !t.valid() {
		return LocalTime{}, 0, false, fmt.Errorf("invalid clock time %q", s)
	}
	if i >= len(s) {
		return t, 0, false, nil
	}

	switch s[i] {
	case 'Z', 'z':
		if i+1 != len(s) {
			return LocalTime{}, 0, false, fmt.Errorf("trailing characters after offset in %q", s)
		}
		return t, 0, true, nil
	case '+', '-':
		if i+6 != len(s) || !isDigit(s[i+1]) || !isDigit(s[i+2]) || s[i+3] != ':' ||
			!isDigit(s[i+4]) || !isDigit(s[i+5]) {
			return LocalTime{}, 0, false, fmt.Errorf("invalid UTC offset in %q", s)
		}
		oh, om := atoi(s[i+1:i+3]), atoi(s[i+4:i+6])
		if oh > 23 || om > 59 {
			return LocalTime{}, 0, false, fmt.Errorf("UTC offset out of range in %q", s)
		}
		offset := oh*60 + om
		if s[i] == '-' {
			offset = -offset
		}
		return t, offset, true, nil
	default:
		return LocalTime{}, 0, false, fmt.Errorf("invalid time %q", s)
	}
}

// atoi converts a pre-validated all-digit string.
func atoi(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		n = n*10 + int(s[i]-'0')
	}
	return n
}
