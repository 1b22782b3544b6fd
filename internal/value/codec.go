package value

import (
	"encoding/hex"
	"fmt"
	"github.com/Andrei15193/Savannah-sub000/internal/errs"
	"github.com/google/uuid"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	dateTimeLayout   = "2006/01/02 15:04:05"
	dateTimeFraction = 7
)

// Encode returns the canonical text form of v, or nil when v is unset.
//
// Encode panics when Data does not hold the Go type matching Type; that is a programming
// error, not a runtime condition.
func Encode(v Value) *string {
	if v.IsNull() {
		return nil
	}

	var s string
	switch data := v.Data.(type) {
	case string:
		s = requireType(v, String, data)
	case []byte:
		s = requireType(v, Binary, strings.ToUpper(hex.EncodeToString(data)))
	case bool:
		s = requireType(v, Boolean, strconv.FormatBool(data))
	case time.Time:
		s = requireType(v, DateTime, formatDateTime(data))
	case float64:
		s = requireType(v, Double, formatDouble(data))
	case uuid.UUID:
		s = requireType(v, Guid, data.String())
	case int32:
		s = requireType(v, Int32, strconv.FormatInt(int64(data), 10))
	case int64:
		s = requireType(v, Int64, strconv.FormatInt(data, 10))
	default:
		panic(fmt.Sprintf("not supported property type: %T", v.Data))
	}
	return &s
}

func requireType(v Value, want Type, s string) string {
	if v.Type != want {
		panic(fmt.Sprintf("not supported property type: %T tagged as %s", v.Data, v.Type))
	}
	return s
}

// Decode parses the canonical text form of a value of type t. A nil text decodes to an unset
// value. Malformed text is reported as an invalid operation.
func Decode(t Type, text *string) (Value, error) {
	if text == nil {
		return Null(t), nil
	}
	s := *text

	switch t {
	case String:
		return StringValue(s), nil
	case Binary:
		b, err := parseBinary(s)
		if err != nil {
			return Value{}, malformed(t, s, err)
		}
		return BinaryValue(b), nil
	case Boolean:
		b, err := parseBoolean(s)
		if err != nil {
			return Value{}, malformed(t, s, err)
		}
		return BooleanValue(b), nil
	case DateTime:
		d, err := parseDateTime(s)
		if err != nil {
			return Value{}, malformed(t, s, err)
		}
		return DateTimeValue(d), nil
	case Double:
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return Value{}, malformed(t, s, err)
		}
		return DoubleValue(f), nil
	case Guid:
		g, err := uuid.Parse(strings.TrimSpace(s))
		if err != nil {
			return Value{}, malformed(t, s, err)
		}
		return GuidValue(g), nil
	case Int32:
		i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 32)
		if err != nil {
			return Value{}, malformed(t, s, err)
		}
		return Int32Value(int32(i)), nil
	case Int64:
		i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return Value{}, malformed(t, s, err)
		}
		return Int64Value(i), nil
	default:
		panic(fmt.Sprintf("not supported property type: %s", t))
	}
}

func malformed(t Type, s string, err error) error {
	return errs.New(errs.ErrInvalidOperation, "malformed %s value %q: %v", t, s, err)
}

func parseBinary(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return []byte{}, nil
	}
	if len(s)%2 == 1 {
		s = "0" + s
	}
	return hex.DecodeString(s)
}

func parseBoolean(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1":
		return true, nil
	case "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("expected true or false")
}

// formatDateTime writes yyyy/MM/dd HH:mm:ss:fffffffK where K is Z for UTC and the offset
// otherwise.
func formatDateTime(t time.Time) string {
	// the text form only carries whole minute offsets
	if _, offset := t.Zone(); offset%60 != 0 {
		t = t.UTC()
	}

	var b strings.Builder
	b.WriteString(t.Format(dateTimeLayout))
	b.WriteByte(':')
	fraction := strconv.Itoa(t.Nanosecond() / 100)
	b.WriteString(strings.Repeat("0", dateTimeFraction-len(fraction)))
	b.WriteString(fraction)

	if t.Location() == time.UTC {
		b.WriteByte('Z')
		return b.String()
	}

	_, offset := t.Zone()
	sign := byte('+')
	if offset < 0 {
		sign = '-'
		offset = -offset
	}
	b.WriteByte(sign)
	fmt.Fprintf(&b, "%02d:%02d", offset/3600, (offset%3600)/60)
	return b.String()
}

func parseDateTime(s string) (time.Time, error) {
	head := len(dateTimeLayout)
	if len(s) < head+1+dateTimeFraction || s[head] != ':' {
		return time.Time{}, fmt.Errorf("expected %s:fffffff", dateTimeLayout)
	}

	fraction := s[head+1 : head+1+dateTimeFraction]
	ticks, err := strconv.Atoi(fraction)
	if err != nil || ticks < 0 {
		return time.Time{}, fmt.Errorf("invalid fraction %q", fraction)
	}

	loc := time.UTC
	switch zone := s[head+1+dateTimeFraction:]; {
	case zone == "" || zone == "Z":
	case len(zone) == 6 && (zone[0] == '+' || zone[0] == '-') && zone[3] == ':':
		hours, hErr := strconv.Atoi(zone[1:3])
		minutes, mErr := strconv.Atoi(zone[4:6])
		if hErr != nil || mErr != nil {
			return time.Time{}, fmt.Errorf("invalid offset %q", zone)
		}
		offset := hours*3600 + minutes*60
		if zone[0] == '-' {
			offset = -offset
		}
		loc = time.FixedZone("", offset)
	default:
		return time.Time{}, fmt.Errorf("invalid offset %q", zone)
	}

	t, err := time.ParseInLocation(dateTimeLayout, s[:head], loc)
	if err != nil {
		return time.Time{}, err
	}
	return t.Add(time.Duration(ticks) * 100), nil
}

// formatDouble writes the shortest text that parses back to f, switching to exponent
// notation (1E+15, 1E-05) outside [1e-4, 1e15).
func formatDouble(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}

	mantissa, exponent, _ := strings.Cut(strconv.FormatFloat(f, 'e', -1, 64), "e")
	exp, _ := strconv.Atoi(exponent)

	var b strings.Builder
	if strings.HasPrefix(mantissa, "-") {
		b.WriteByte('-')
		mantissa = mantissa[1:]
	}
	digits := strings.Replace(mantissa, ".", "", 1)

	switch {
	case exp < -4 || exp >= 15:
		b.WriteByte(digits[0])
		if len(digits) > 1 {
			b.WriteByte('.')
			b.WriteString(digits[1:])
		}
		b.WriteByte('E')
		if exp < 0 {
			b.WriteByte('-')
			exp = -exp
		} else {
			b.WriteByte('+')
		}
		if exp < 10 {
			b.WriteByte('0')
		}
		b.WriteString(strconv.Itoa(exp))
	case exp < 0:
		b.WriteString("0.")
		b.WriteString(strings.Repeat("0", -exp-1))
		b.WriteString(digits)
	case len(digits) <= exp+1:
		b.WriteString(digits)
		b.WriteString(strings.Repeat("0", exp+1-len(digits)))
	default:
		b.WriteString(digits[:exp+1])
		b.WriteByte('.')
		b.WriteString(digits[exp+1:])
	}
	return b.String()
}
