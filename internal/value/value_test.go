package value

import (
	"testing"
	"time"
)

func TestArithmeticNullPropagation(t *testing.T) {
	tests := []struct {
		name string
		got  Value
		want Type
	}{
		{"add int null", Add(Int(1), Null(TypeInt)), TypeInt},
		{"sub null real", Sub(Missing, Real(2)), TypeNull},
		{"mul real null", Mul(Real(1.5), Null(TypeReal)), TypeReal},
		{"div by zero", Div(Int(4), Int(0)), TypeInt},
		{"real div by zero", Div(Real(4), Int(0)), TypeReal},
		{"negate null", Negate(Null(TypeReal)), TypeReal},
		{"string minus string", Sub(String("a"), String("b")), TypeNull},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.got.IsNull() {
				t.Fatalf("expected null, got %v", tt.got)
			}
			if tt.got.Type() != tt.want {
				t.Errorf("type = %v, want %v", tt.got.Type(), tt.want)
			}
		})
	}
}

func TestArithmetic(t *testing.T) {
	tests := []struct {
		name string
		got  Value
		want Value
	}{
		{"int add", Add(Int(2), Int(3)), Int(5)},
		{"mixed add", Add(Int(2), Real(0.5)), Real(2.5)},
		{"concat", Add(String("ab"), String("cd")), String("abcd")},
		{"int div truncates", Div(Int(7), Int(2)), Int(3)},
		{"real div", Div(Real(7), Int(2)), Real(3.5)},
		{"negate", Negate(Int(4)), Int(-4)},
		{"mul", Mul(Int(3), Int(-2)), Int(-6)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got.IsNull() {
				t.Fatalf("unexpected null result")
			}
			if Compare(tt.got, tt.want) != 0 || tt.got.Type() != tt.want.Type() {
				t.Errorf("got %v (%v), want %v (%v)", tt.got, tt.got.Type(), tt.want, tt.want.Type())
			}
		})
	}
}

func TestDateTimeDifferenceInDays(t *testing.T) {
	a := DateTime(time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC))
	b := DateTime(time.Date(2024, 3, 8, 12, 0, 0, 0, time.UTC))
	got, ok := Sub(a, b).Real()
	if !ok || got != 1.5 {
		t.Fatalf("Sub = %v, %v; want 1.5", got, ok)
	}
}

func TestRelationalOperators(t *testing.T) {
	tests := []struct {
		name string
		got  Value
		want bool
	}{
		{"int less", Less(Int(1), Int(2)), true},
		{"int real equal", Equal(Int(2), Real(2)), true},
		{"string greater", Greater(String("b"), String("a")), true},
		{"string case sensitive", Equal(String("a"), String("A")), false},
		{"not equal", NotEqual(Int(1), Int(2)), true},
		{"less eq", LessEq(Int(2), Int(2)), true},
		{"greater eq", GreaterEq(Real(1.5), Int(2)), false},
		{"null operand", Equal(Missing, Missing), false},
		{"null not equal", NotEqual(Int(1), Null(TypeInt)), false},
		{"incomparable", Equal(Int(1), String("1")), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got.Truthy() != tt.want {
				t.Errorf("got %v, want %v", tt.got.Truthy(), tt.want)
			}
		})
	}
}

func TestCompareNullsFirst(t *testing.T) {
	if Compare(Missing, Int(-100)) >= 0 {
		t.Error("null should sort before defined values")
	}
	if Compare(String(""), Null(TypeString)) <= 0 {
		t.Error("defined value should sort after null")
	}
	if Compare(Null(TypeInt), Missing) != 0 {
		t.Error("nulls of any type should compare equal")
	}
	if Compare(Int(3), String("a")) >= 0 {
		t.Error("incomparable types should order by type tag")
	}
}

func TestNot(t *testing.T) {
	if !Not(Missing).Truthy() {
		t.Error("not null should be true")
	}
	if Not(Int(0)).Truthy() {
		t.Error("not of a defined value should be false")
	}
}

func TestKeyGroupsIntegralNumbers(t *testing.T) {
	if Int(2).Key() != Real(2).Key() {
		t.Error("2 and 2.0 should share a group key")
	}
	if Int(2).Key() == String("2").Key() {
		t.Error("int and string keys must differ")
	}
	if Missing.Key() != Null(TypeString).Key() {
		t.Error("all nulls share a group key")
	}
}
