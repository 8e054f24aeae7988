package query

import (
	"iter"

	"github.com/aidanlsb/glance/internal/entity"
)

type setOp int

const (
	setUnion setOp = iota
	setIntersect
	setExcept
)

func (op setOp) String() string {
	switch op {
	case setIntersect:
		return "intersect"
	case setExcept:
		return "except"
	}
	return "union"
}

func (op setOp) level() int {
	if op == setIntersect {
		return levelIntersect
	}
	return levelUnion
}

// UnionOf yields the results of a followed by those of b not already seen.
func UnionOf(a, b Executable) Executable { return &setNode{op: setUnion, left: a, right: b} }

// IntersectOf yields the results of a that b also returns.
func IntersectOf(a, b Executable) Executable { return &setNode{op: setIntersect, left: a, right: b} }

// ExceptOf yields the results of a that b does not return.
func ExceptOf(a, b Executable) Executable { return &setNode{op: setExcept, left: a, right: b} }

// setNode combines two plans by entity identity. Results always come out in
// enumeration order of the operands, so the comparer is the identity.
type setNode struct {
	op          setOp
	left, right Executable
}

func (n *setNode) Execute(opts ExecutionOptions) iter.Seq[entity.Entity] {
	if n.op == setUnion {
		return n.union(opts)
	}
	return func(yield func(entity.Entity) bool) {
		// The right side is materialized only once the first result is pulled.
		right := make(entity.KeySet)
		for e := range n.right.Execute(opts) {
			right.Add(e)
		}
		keep := n.op == setIntersect
		seen := make(entity.KeySet)
		for e := range n.left.Execute(opts) {
			if right.Has(e) == keep && seen.Add(e) && !yield(e) {
				return
			}
		}
	}
}

func (n *setNode) union(opts ExecutionOptions) iter.Seq[entity.Entity] {
	return func(yield func(entity.Entity) bool) {
		seen := make(entity.KeySet)
		for _, side := range []Executable{n.left, n.right} {
			for e := range side.Execute(opts) {
				if seen.Add(e) && !yield(e) {
					return
				}
			}
		}
	}
}

func (n *setNode) Match(e entity.Entity) bool {
	switch n.op {
	case setIntersect:
		return n.left.Match(e) && n.right.Match(e)
	case setExcept:
		return n.left.Match(e) && !n.right.Match(e)
	}
	return n.left.Match(e) || n.right.Match(e)
}

func (n *setNode) Comparer() *Comparer  { return IdentityComparer() }
func (n *setNode) level() int           { return n.op.level() }
func (n *setNode) label() string        { return n.op.String() }
func (n *setNode) inputs() []Executable { return []Executable{n.left, n.right} }

func (n *setNode) String() string {
	return n.operand(n.left, false) + " " + n.op.String() + " " + n.operand(n.right, true)
}

// operand renders a child, wrapping it when precedence or left
// associativity would otherwise regroup it.
func (n *setNode) operand(q Executable, right bool) string {
	l := levelOf(q)
	if l > n.level() || (right && l == n.level()) {
		return subquery(q)
	}
	return q.String()
}
