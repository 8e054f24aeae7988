package query

import (
	"github.com/aidanlsb/glance/internal/entity"
	"github.com/aidanlsb/glance/internal/value"
)

func (c *Constant) CompileFunction(*Runtime) Func {
	v := c.Value
	return func(entity.Entity) value.Value { return v }
}

func (a *AttributeAccess) CompileFunction(*Runtime) Func {
	name := a.Name
	return func(e entity.Entity) value.Value { return e.Attribute(name) }
}

func (f *FunctionCall) CompileFunction(rt *Runtime) Func {
	args := make([]Func, len(f.Args))
	for i, a := range f.Args {
		args[i] = a.CompileFunction(rt)
	}
	name, pos := f.Name, f.pos
	return func(e entity.Entity) value.Value {
		vals := make([]value.Value, len(args))
		for i, arg := range args {
			vals[i] = arg(e)
		}
		return rt.FindAndCall(name, vals, &CallContext{Entity: e, Pos: pos})
	}
}

func (u *Unary) CompileFunction(rt *Runtime) Func {
	operand := u.Operand.CompileFunction(rt)
	if u.Op == OpMinus {
		return func(e entity.Entity) value.Value { return value.Negate(operand(e)) }
	}
	return func(e entity.Entity) value.Value { return value.Not(operand(e)) }
}

var binaryOps = map[BinaryOp]func(a, b value.Value) value.Value{
	OpAdd: value.Add,
	OpSub: value.Sub,
	OpMul: value.Mul,
	OpDiv: value.Div,
	OpLt:  value.Less,
	OpLe:  value.LessEq,
	OpGt:  value.Greater,
	OpGe:  value.GreaterEq,
	OpEq:  value.Equal,
	OpNe:  value.NotEqual,
}

func (b *Binary) CompileFunction(rt *Runtime) Func {
	left := b.Left.CompileFunction(rt)
	right := b.Right.CompileFunction(rt)
	switch b.Op {
	case OpAnd:
		return func(e entity.Entity) value.Value {
			if left(e).IsNull() || right(e).IsNull() {
				return value.False
			}
			return value.True
		}
	case OpOr:
		return func(e entity.Entity) value.Value {
			if !left(e).IsNull() || !right(e).IsNull() {
				return value.True
			}
			return value.False
		}
	}
	op := binaryOps[b.Op]
	return func(e entity.Entity) value.Value { return op(left(e), right(e)) }
}
