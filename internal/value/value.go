// Package value implements the tagged runtime values of the glance query language.
//
// Every value carries a Type and may be null without being a Go nil. Null
// propagates through arithmetic and comparison; a predicate is true iff its
// value is non-null.
package value

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// Type is the runtime type tag of a Value.
type Type int

const (
	TypeNull Type = iota // untyped "no value", e.g. a missing attribute
	TypeInt
	TypeReal
	TypeString
	TypeDateTime
)

func (t Type) String() string {
	switch t {
	case TypeInt:
		return "int"
	case TypeReal:
		return "real"
	case TypeString:
		return "string"
	case TypeDateTime:
		return "datetime"
	default:
		return "null"
	}
}

// Value is an immutable runtime value. The zero Value is Missing.
type Value struct {
	typ   Type
	valid bool
	i     int64
	f     float64
	s     string
	t     time.Time
}

var (
	// Missing is the untyped null returned for absent attributes and failed calls.
	Missing = Value{}

	// True is the canonical true value (int 1).
	True = Int(1)

	// False is the canonical false value. Falsity is nullness.
	False = Null(TypeInt)
)

// Int returns a defined integer value.
func Int(i int64) Value { return Value{typ: TypeInt, valid: true, i: i} }

// Real returns a defined real value. NaN is treated as null.
func Real(f float64) Value {
	if math.IsNaN(f) {
		return Null(TypeReal)
	}
	return Value{typ: TypeReal, valid: true, f: f}
}

// String returns a defined string value.
func String(s string) Value { return Value{typ: TypeString, valid: true, s: s} }

// DateTime returns a defined date/time value.
func DateTime(t time.Time) Value { return Value{typ: TypeDateTime, valid: true, t: t} }

// Null returns the null value of type t.
func Null(t Type) Value { return Value{typ: t} }

// Bool maps a Go bool onto the language's boolean convention.
func Bool(b bool) Value {
	if b {
		return True
	}
	return False
}

// Type returns the type tag.
func (v Value) Type() Type { return v.typ }

// IsNull reports whether v holds no value.
func (v Value) IsNull() bool { return !v.valid }

// Truthy reports whether v counts as true in a predicate.
func (v Value) Truthy() bool { return v.valid }

// Int returns the integer payload.
func (v Value) Int() (int64, bool) {
	if !v.valid || v.typ != TypeInt {
		return 0, false
	}
	return v.i, true
}

// Real returns the numeric payload of an int or real value as float64.
func (v Value) Real() (float64, bool) {
	if !v.valid {
		return 0, false
	}
	switch v.typ {
	case TypeInt:
		return float64(v.i), true
	case TypeReal:
		return v.f, true
	}
	return 0, false
}

// Str returns the string payload.
func (v Value) Str() (string, bool) {
	if !v.valid || v.typ != TypeString {
		return "", false
	}
	return v.s, true
}

// Time returns the date/time payload.
func (v Value) Time() (time.Time, bool) {
	if !v.valid || v.typ != TypeDateTime {
		return time.Time{}, false
	}
	return v.t, true
}

// Interface returns the payload as a plain Go value (nil for null), for JSON output.
func (v Value) Interface() interface{} {
	if !v.valid {
		return nil
	}
	switch v.typ {
	case TypeInt:
		return v.i
	case TypeReal:
		return v.f
	case TypeString:
		return v.s
	case TypeDateTime:
		return formatTime(v.t)
	}
	return nil
}

// Text returns the display text of v; null displays as the empty string.
func (v Value) Text() string {
	if !v.valid {
		return ""
	}
	switch v.typ {
	case TypeInt:
		return strconv.FormatInt(v.i, 10)
	case TypeReal:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case TypeString:
		return v.s
	case TypeDateTime:
		return formatTime(v.t)
	}
	return ""
}

// String renders v in query-literal form.
func (v Value) String() string {
	if !v.valid {
		return "null"
	}
	if v.typ == TypeString {
		return strconv.Quote(v.s)
	}
	if v.typ == TypeDateTime {
		return fmt.Sprintf("date(%q)", formatTime(v.t))
	}
	return v.Text()
}

// Key returns a string that is equal for two values iff they group together.
// Ints and integral reals share a key.
func (v Value) Key() string {
	if !v.valid {
		return "\x00"
	}
	switch v.typ {
	case TypeInt:
		return "n" + strconv.FormatInt(v.i, 10)
	case TypeReal:
		if v.f == math.Trunc(v.f) && v.f >= math.MinInt64 && v.f < math.MaxInt64 {
			return "n" + strconv.FormatInt(int64(v.f), 10)
		}
		return "n" + strconv.FormatFloat(v.f, 'g', -1, 64)
	case TypeString:
		return "s" + v.s
	case TypeDateTime:
		return "t" + v.t.UTC().Format(time.RFC3339Nano)
	}
	return "\x00"
}

func formatTime(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 && t.Location() == time.UTC {
		return t.Format(time.DateOnly)
	}
	return t.Format(time.RFC3339)
}
