package value

import (
	"cmp"
	"strings"
)

func isNumeric(t Type) bool { return t == TypeInt || t == TypeReal }

// arithmeticType is the result type of a binary arithmetic operator.
func arithmeticType(a, b Type) Type {
	switch {
	case a == TypeInt && b == TypeInt:
		return TypeInt
	case isNumeric(a) && isNumeric(b):
		return TypeReal
	case a == TypeString && b == TypeString:
		return TypeString
	}
	return TypeNull
}

// Add returns a + b. Strings concatenate.
func Add(a, b Value) Value {
	rt := arithmeticType(a.typ, b.typ)
	if a.IsNull() || b.IsNull() {
		return Null(rt)
	}
	switch rt {
	case TypeInt:
		return Int(a.i + b.i)
	case TypeReal:
		x, _ := a.Real()
		y, _ := b.Real()
		return Real(x + y)
	case TypeString:
		return String(a.s + b.s)
	}
	return Missing
}

// Sub returns a - b. The difference of two date/times is a real number of days.
func Sub(a, b Value) Value {
	if a.typ == TypeDateTime && b.typ == TypeDateTime {
		if a.IsNull() || b.IsNull() {
			return Null(TypeReal)
		}
		return Real(a.t.Sub(b.t).Hours() / 24)
	}
	rt := arithmeticType(a.typ, b.typ)
	if a.IsNull() || b.IsNull() {
		return Null(rt)
	}
	switch rt {
	case TypeInt:
		return Int(a.i - b.i)
	case TypeReal:
		x, _ := a.Real()
		y, _ := b.Real()
		return Real(x - y)
	}
	return Null(rt)
}

// Mul returns a * b.
func Mul(a, b Value) Value {
	rt := arithmeticType(a.typ, b.typ)
	if a.IsNull() || b.IsNull() {
		return Null(rt)
	}
	switch rt {
	case TypeInt:
		return Int(a.i * b.i)
	case TypeReal:
		x, _ := a.Real()
		y, _ := b.Real()
		return Real(x * y)
	}
	return Null(rt)
}

// Div returns a / b. Integer division truncates; division by zero is null.
func Div(a, b Value) Value {
	rt := arithmeticType(a.typ, b.typ)
	if a.IsNull() || b.IsNull() {
		return Null(rt)
	}
	switch rt {
	case TypeInt:
		if b.i == 0 {
			return Null(TypeInt)
		}
		return Int(a.i / b.i)
	case TypeReal:
		x, _ := a.Real()
		y, _ := b.Real()
		if y == 0 {
			return Null(TypeReal)
		}
		return Real(x / y)
	}
	return Null(rt)
}

// Negate returns -v.
func Negate(v Value) Value {
	if v.IsNull() {
		return Null(v.typ)
	}
	switch v.typ {
	case TypeInt:
		return Int(-v.i)
	case TypeReal:
		return Real(-v.f)
	}
	return Null(v.typ)
}

// Not inverts the truth of v.
func Not(v Value) Value {
	return Bool(v.IsNull())
}

// compareDefined orders two non-null values of comparable types.
func compareDefined(a, b Value) (int, bool) {
	switch {
	case a.typ == TypeInt && b.typ == TypeInt:
		return cmp.Compare(a.i, b.i), true
	case isNumeric(a.typ) && isNumeric(b.typ):
		x, _ := a.Real()
		y, _ := b.Real()
		return cmp.Compare(x, y), true
	case a.typ == TypeString && b.typ == TypeString:
		return strings.Compare(a.s, b.s), true
	case a.typ == TypeDateTime && b.typ == TypeDateTime:
		return a.t.Compare(b.t), true
	}
	return 0, false
}

func relational(a, b Value, test func(int) bool) Value {
	if a.IsNull() || b.IsNull() {
		return False
	}
	c, ok := compareDefined(a, b)
	if !ok {
		return False
	}
	return Bool(test(c))
}

// Less returns a < b.
func Less(a, b Value) Value { return relational(a, b, func(c int) bool { return c < 0 }) }

// LessEq returns a <= b.
func LessEq(a, b Value) Value { return relational(a, b, func(c int) bool { return c <= 0 }) }

// Greater returns a > b.
func Greater(a, b Value) Value { return relational(a, b, func(c int) bool { return c > 0 }) }

// GreaterEq returns a >= b.
func GreaterEq(a, b Value) Value { return relational(a, b, func(c int) bool { return c >= 0 }) }

// Equal returns a == b.
func Equal(a, b Value) Value { return relational(a, b, func(c int) bool { return c == 0 }) }

// NotEqual returns a != b. Values of incomparable types are not unequal, they are null.
func NotEqual(a, b Value) Value { return relational(a, b, func(c int) bool { return c != 0 }) }

// Compare is the total order used for sorting: null sorts before every
// defined value, comparable values compare naturally and values of
// incomparable types order by their Type.
func Compare(a, b Value) int {
	an, bn := a.IsNull(), b.IsNull()
	switch {
	case an && bn:
		return 0
	case an:
		return -1
	case bn:
		return 1
	}
	if c, ok := compareDefined(a, b); ok {
		return c
	}
	return cmp.Compare(a.typ, b.typ)
}
