// Package query implements the glance query language: the compiler from
// query text to an executable plan, and the lazy execution engine.
package query

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/aidanlsb/glance/internal/value"
)

// Pos is a 1-based source position.
type Pos struct {
	Line   int
	Column int
}

func (p Pos) String() string { return fmt.Sprintf("%d:%d", p.Line, p.Column) }

// Expression is an immutable expression tree node.
type Expression interface {
	Pos() Pos
	Children() []Expression
	// CompileFunction returns a closure evaluating the expression for an entity.
	CompileFunction(rt *Runtime) Func
	// String renders the expression in query syntax.
	String() string
}

// UnaryOp is a prefix operator.
type UnaryOp int

const (
	OpNot UnaryOp = iota
	OpMinus
)

func (op UnaryOp) String() string {
	if op == OpMinus {
		return "-"
	}
	return "not"
}

// BinaryOp is an infix operator.
type BinaryOp int

const (
	OpAnd BinaryOp = iota
	OpOr
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpLt
	OpLe
	OpGt
	OpGe
	OpEq
	OpNe
)

var binaryOpText = [...]string{
	OpAnd: "and",
	OpOr:  "or",
	OpAdd: "+",
	OpSub: "-",
	OpMul: "*",
	OpDiv: "/",
	OpLt:  "<",
	OpLe:  "<=",
	OpGt:  ">",
	OpGe:  ">=",
	OpEq:  "=",
	OpNe:  "!=",
}

func (op BinaryOp) String() string {
	if int(op) < len(binaryOpText) {
		return binaryOpText[op]
	}
	return "?"
}

// Constant is a literal value.
type Constant struct {
	pos   Pos
	Value value.Value
}

// AttributeAccess reads a named attribute of the entity.
type AttributeAccess struct {
	pos  Pos
	Name string
}

// FunctionCall invokes a runtime function. Overloads are resolved per call
// from the argument types.
type FunctionCall struct {
	pos  Pos
	Name string
	Args []Expression
}

// Unary applies a prefix operator.
type Unary struct {
	pos     Pos
	Op      UnaryOp
	Operand Expression
}

// Binary applies an infix operator.
type Binary struct {
	pos         Pos
	Op          BinaryOp
	Left, Right Expression
}

var (
	// TrueExpr is the constant int 1.
	TrueExpr Expression = &Constant{Value: value.True}
	// NullExpr is the constant null.
	NullExpr Expression = &Constant{Value: value.Missing}
)

// NewConstant creates a constant node.
func NewConstant(pos Pos, v value.Value) *Constant { return &Constant{pos: pos, Value: v} }

// NewAttributeAccess creates an attribute access node.
func NewAttributeAccess(pos Pos, name string) *AttributeAccess {
	return &AttributeAccess{pos: pos, Name: name}
}

// NewFunctionCall creates a function call node. args is copied.
func NewFunctionCall(pos Pos, name string, args []Expression) *FunctionCall {
	return &FunctionCall{pos: pos, Name: name, Args: append([]Expression(nil), args...)}
}

// NewUnary creates a unary operator node.
func NewUnary(pos Pos, op UnaryOp, operand Expression) *Unary {
	return &Unary{pos: pos, Op: op, Operand: operand}
}

// NewBinary creates a binary operator node.
func NewBinary(pos Pos, op BinaryOp, left, right Expression) *Binary {
	return &Binary{pos: pos, Op: op, Left: left, Right: right}
}

func (c *Constant) Pos() Pos               { return c.pos }
func (c *Constant) Children() []Expression { return nil }

func (c *Constant) String() string {
	v := c.Value
	switch v.Type() {
	case value.TypeString:
		if s, ok := v.Str(); ok {
			return quoteBounded(s, '"')
		}
	case value.TypeReal:
		if f, ok := v.Real(); ok {
			s := strconv.FormatFloat(f, 'f', -1, 64)
			if !strings.Contains(s, ".") {
				s += ".0"
			}
			return s
		}
	}
	return v.String()
}

func (a *AttributeAccess) Pos() Pos               { return a.pos }
func (a *AttributeAccess) Children() []Expression { return nil }
func (a *AttributeAccess) String() string         { return formatIdent(a.Name) }

func (f *FunctionCall) Pos() Pos               { return f.pos }
func (f *FunctionCall) Children() []Expression { return f.Args }

func (f *FunctionCall) String() string {
	args := make([]string, len(f.Args))
	for i, a := range f.Args {
		args[i] = a.String()
	}
	return formatIdent(f.Name) + "(" + strings.Join(args, ", ") + ")"
}

func (u *Unary) Pos() Pos               { return u.pos }
func (u *Unary) Children() []Expression { return []Expression{u.Operand} }

func (u *Unary) String() string {
	if u.Op == OpNot {
		return "not " + u.Operand.String()
	}
	return "-" + u.Operand.String()
}

func (b *Binary) Pos() Pos               { return b.pos }
func (b *Binary) Children() []Expression { return []Expression{b.Left, b.Right} }

func (b *Binary) String() string {
	return "(" + b.Left.String() + " " + b.Op.String() + " " + b.Right.String() + ")"
}

// quoteBounded renders s between bound characters, doubling embedded bounds.
func quoteBounded(s string, bound rune) string {
	b := string(bound)
	return b + strings.ReplaceAll(s, b, b+b) + b
}

// formatIdent renders a name as a bare identifier when it lexes as one and
// as a backtick identifier otherwise.
func formatIdent(name string) string {
	if name == "" || isKeyword(name) {
		return quoteBounded(name, '`')
	}
	for i, r := range name {
		if !isIdentRune(r, i == 0) {
			return quoteBounded(name, '`')
		}
	}
	return name
}

func isIdentRune(r rune, first bool) bool {
	if r == '_' || unicode.IsLetter(r) {
		return true
	}
	return !first && unicode.IsDigit(r)
}
