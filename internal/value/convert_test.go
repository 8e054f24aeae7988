package value

import (
	"math"
	"testing"
	"time"
)

func TestConversionCost(t *testing.T) {
	tests := []struct {
		name   string
		actual []Type
		params []Type
		want   int
	}{
		{"identical", []Type{TypeInt, TypeString}, []Type{TypeInt, TypeString}, 0},
		{"empty", nil, nil, 0},
		{"int to real", []Type{TypeInt}, []Type{TypeReal}, 1},
		{"int to string", []Type{TypeInt}, []Type{TypeString}, 2},
		{"null to anything", []Type{TypeNull, TypeNull}, []Type{TypeDateTime, TypeInt}, 0},
		{"sum", []Type{TypeInt, TypeInt}, []Type{TypeReal, TypeString}, 3},
		{"none", []Type{TypeString}, []Type{TypeInt}, NoConversion},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ConversionCost(tt.actual, tt.params); got != tt.want {
				t.Errorf("ConversionCost = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestConversionCostArityMismatchPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on arity mismatch")
		}
	}()
	ConversionCost([]Type{TypeInt}, nil)
}

func TestConvertible(t *testing.T) {
	tests := []struct {
		name   string
		actual []Type
		params []Type
		want   bool
	}{
		{"identical", []Type{TypeInt}, []Type{TypeInt}, true},
		{"widening", []Type{TypeInt, TypeNull}, []Type{TypeString, TypeDateTime}, true},
		{"no coercion", []Type{TypeInt, TypeString}, []Type{TypeInt, TypeInt}, false},
		{"arity", []Type{TypeInt}, []Type{TypeInt, TypeInt}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Convertible(tt.actual, tt.params); got != tt.want {
				t.Errorf("Convertible = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRealOutsideInt64Range(t *testing.T) {
	twoTo63 := Real(math.Exp2(63))
	if got := ConvertTo(twoTo63, TypeInt); !got.IsNull() {
		t.Errorf("ConvertTo(2^63, int) = %v, want null", got)
	}
	if twoTo63.Key() == Int(math.MinInt64).Key() {
		t.Errorf("2^63 shares its key with MinInt64: %q", twoTo63.Key())
	}
	if got, want := Real(-math.Exp2(63)).Key(), Int(math.MinInt64).Key(); got != want {
		t.Errorf("Key(-2^63) = %q, want %q", got, want)
	}
}

func TestConvertTo(t *testing.T) {
	day := time.Date(2023, 7, 14, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		in   Value
		to   Type
		want Value
	}{
		{"same type", Int(3), TypeInt, Int(3)},
		{"int to real", Int(3), TypeReal, Real(3)},
		{"real to int truncates", Real(3.9), TypeInt, Int(3)},
		{"real to string", Real(2.5), TypeString, String("2.5")},
		{"string to date", String("2023-07-14"), TypeDateTime, DateTime(day)},
		{"exif date", String("2023:07:14 00:00:00"), TypeDateTime, DateTime(day)},
		{"date to string", DateTime(day), TypeString, String("2023-07-14")},
		{"bad date", String("yesterday"), TypeDateTime, Null(TypeDateTime)},
		{"string to int undefined", String("12"), TypeInt, Null(TypeInt)},
		{"null keeps nullness", Missing, TypeString, Null(TypeString)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ConvertTo(tt.in, tt.to)
			if got.Type() != tt.want.Type() || got.IsNull() != tt.want.IsNull() || Compare(got, tt.want) != 0 {
				t.Errorf("ConvertTo(%v, %v) = %v (%v), want %v", tt.in, tt.to, got, got.Type(), tt.want)
			}
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Type
	}{
		{"42", TypeInt},
		{"-7", TypeInt},
		{"3.25", TypeReal},
		{"2024-01-02", TypeDateTime},
		{"2024-01-02T10:00:00Z", TypeDateTime},
		{"NaN", TypeString},
		{"inf", TypeString},
		{"holiday", TypeString},
		{"  ", TypeNull},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Parse(tt.in).Type(); got != tt.want {
				t.Errorf("Parse(%q) type = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
