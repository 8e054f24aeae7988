package query

import (
	"strings"

	"github.com/aidanlsb/glance/internal/entity"
	"github.com/aidanlsb/glance/internal/value"
)

// Direction is a sort direction.
type Direction int

const (
	Ascending  Direction = 1
	Descending Direction = -1
)

// SortKey is one component of an ordering.
type SortKey struct {
	Expr      Expression
	Get       Func
	Direction Direction
}

// NewSortKey compiles x as a sort key.
func NewSortKey(x Expression, rt *Runtime, dir Direction) SortKey {
	if dir != Descending {
		dir = Ascending
	}
	return SortKey{Expr: x, Get: x.CompileFunction(rt), Direction: dir}
}

func (k SortKey) String() string {
	if k.Direction == Descending {
		return k.Expr.String() + " desc"
	}
	return k.Expr.String()
}

// Comparer orders entities by a list of keys, falling through to the next
// key on ties. Nulls sort before every defined value.
type Comparer struct {
	keys []SortKey
}

var identity = &Comparer{}

// IdentityComparer returns the comparer with no keys; every pair compares equal.
func IdentityComparer() *Comparer { return identity }

// NewComparer creates a comparer from keys.
func NewComparer(keys ...SortKey) *Comparer {
	if len(keys) == 0 {
		return identity
	}
	return &Comparer{keys: append([]SortKey(nil), keys...)}
}

// Then returns a comparer that consults c and then next.
func (c *Comparer) Then(next *Comparer) *Comparer {
	return NewComparer(append(c.Keys(), next.Keys()...)...)
}

// Keys returns a copy of the keys.
func (c *Comparer) Keys() []SortKey { return append([]SortKey(nil), c.keys...) }

// IsIdentity reports whether the comparer has no keys.
func (c *Comparer) IsIdentity() bool { return len(c.keys) == 0 }

// Compare orders a and b.
func (c *Comparer) Compare(a, b entity.Entity) int {
	for _, k := range c.keys {
		if r := value.Compare(k.Get(a), k.Get(b)); r != 0 {
			return r * int(k.Direction)
		}
	}
	return 0
}

func (c *Comparer) String() string {
	parts := make([]string, len(c.keys))
	for i, k := range c.keys {
		parts[i] = k.String()
	}
	return strings.Join(parts, ", ")
}
