package value

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// NoConversion is the cost of an argument for which no coercion exists.
// It is finite so costs can still be summed and compared.
const NoConversion = 1 << 20

func conversionCost(from, to Type) int {
	if from == to || from == TypeNull {
		return 0
	}
	switch from {
	case TypeInt:
		switch to {
		case TypeReal:
			return 1
		case TypeString:
			return 2
		}
	case TypeReal:
		switch to {
		case TypeString:
			return 2
		case TypeInt:
			return 4
		}
	case TypeDateTime:
		if to == TypeString {
			return 2
		}
	case TypeString:
		if to == TypeDateTime {
			return 3
		}
	}
	return NoConversion
}

// ConversionCost scores how well actual argument types fit the declared
// parameter types. Identical types cost 0. Callers must filter by arity first.
func ConversionCost(actual, params []Type) int {
	if len(actual) != len(params) {
		panic(fmt.Sprintf("value: conversion cost of %d arguments against %d parameters", len(actual), len(params)))
	}
	total := 0
	for i := range actual {
		total += conversionCost(actual[i], params[i])
	}
	return total
}

// Convertible reports whether every argument has a defined coercion.
func Convertible(actual, params []Type) bool {
	if len(actual) != len(params) {
		return false
	}
	for i := range actual {
		if conversionCost(actual[i], params[i]) >= NoConversion {
			return false
		}
	}
	return true
}

// ConvertTo coerces v to type t. When no coercion is defined, or the
// coercion fails, the result is the null of type t.
func ConvertTo(v Value, t Type) Value {
	if v.typ == t {
		return v
	}
	if t == TypeNull || v.IsNull() {
		return Null(t)
	}
	switch t {
	case TypeInt:
		if v.typ == TypeReal && !math.IsInf(v.f, 0) && v.f >= math.MinInt64 && v.f < math.MaxInt64 {
			return Int(int64(v.f))
		}
	case TypeReal:
		if v.typ == TypeInt {
			return Real(float64(v.i))
		}
	case TypeString:
		return String(v.Text())
	case TypeDateTime:
		if v.typ == TypeString {
			if tm, ok := parseTime(v.s); ok {
				return DateTime(tm)
			}
		}
	}
	return Null(t)
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006:01:02 15:04:05", // EXIF DateTimeOriginal
	time.DateOnly,
}

func parseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Parse infers a value from free text: integers, reals (invariant format),
// date/times, and otherwise strings. Empty text is Missing.
func Parse(text string) Value {
	s := strings.TrimSpace(text)
	if s == "" {
		return Missing
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Int(i)
	}
	if looksNumeric(s) {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return Real(f)
		}
	}
	if t, ok := parseTime(s); ok {
		return DateTime(t)
	}
	return String(text)
}

// looksNumeric rejects the words ParseFloat accepts ("inf", "NaN").
func looksNumeric(s string) bool {
	c := s[0]
	if c == '-' || c == '+' {
		if len(s) == 1 {
			return false
		}
		c = s[1]
	}
	return (c >= '0' && c <= '9') || c == '.'
}
