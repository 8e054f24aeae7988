package query

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/aidanlsb/glance/internal/value"
)

// bailout aborts a compilation after a syntax or semantic error has been
// reported. It never escapes the compiler.
type bailout struct{}

// parser is a recursive descent parser whose productions build expressions
// and plan nodes directly.
type parser struct {
	lex      *Lexer
	tok      Token
	compiler *Compiler
	rt       *Runtime
	listener ErrorListener

	// View expansion state. parent is nil at the top level.
	parent *parser
	view   string
	ref    Pos
	chain  []string
}

func newParser(c *Compiler, rt *Runtime, listener ErrorListener, text string) *parser {
	return &parser{lex: NewLexer(text), compiler: c, rt: rt, listener: listener}
}

func (p *parser) report(pos Pos, msg string) {
	if p.parent != nil {
		p.parent.report(p.ref, fmt.Sprintf("in view %s at %s: %s", p.view, pos, msg))
		return
	}
	p.listener.OnCompilerError(pos.Line, pos.Column, msg)
}

func (p *parser) fail(pos Pos, format string, args ...any) {
	p.report(pos, fmt.Sprintf(format, args...))
	panic(bailout{})
}

// next advances to the next token. Lexical errors are reported without
// stopping the compilation.
func (p *parser) next() {
	p.tok = p.lex.NextToken()
	if p.tok.Err != "" {
		p.report(p.tok.Pos, p.tok.Err)
	}
}

func (p *parser) expect(tt TokenType, what string) Token {
	if p.tok.Type != tt {
		p.fail(p.tok.Pos, "expected %s, found %s", what, p.tok.Describe())
	}
	tok := p.tok
	p.next()
	return tok
}

func (p *parser) accept(tt TokenType) bool {
	if p.tok.Type != tt {
		return false
	}
	p.next()
	return true
}

// parse parses a complete query.
func (p *parser) parse() Executable {
	p.next()
	q := p.queryExpr()
	if p.tok.Type != TokenEOF {
		p.fail(p.tok.Pos, "unexpected %s after query", p.tok.Describe())
	}
	return q
}

// foldLeft parses operand (op operand)* and combines the operands left to
// right. Every binary priority level goes through it.
func foldLeft[T any](p *parser, operand func() T, ops []TokenType, combine func(op Token, left, right T) T) T {
	operands := []T{operand()}
	var operators []Token
	for slices.Contains(ops, p.tok.Type) {
		operators = append(operators, p.tok)
		p.next()
		operands = append(operands, operand())
	}
	result := operands[0]
	for i, op := range operators {
		result = combine(op, result, operands[i+1])
	}
	return result
}

func combineSets(op Token, left, right Executable) Executable {
	switch op.Type {
	case TokenIntersect:
		return IntersectOf(left, right)
	case TokenExcept:
		return ExceptOf(left, right)
	}
	return UnionOf(left, right)
}

var binaryTokens = map[TokenType]BinaryOp{
	TokenOr:    OpOr,
	TokenAnd:   OpAnd,
	TokenPlus:  OpAdd,
	TokenMinus: OpSub,
	TokenStar:  OpMul,
	TokenSlash: OpDiv,
	TokenLt:    OpLt,
	TokenLe:    OpLe,
	TokenGt:    OpGt,
	TokenGe:    OpGe,
	TokenEq:    OpEq,
	TokenNe:    OpNe,
}

func combineBinary(op Token, left, right Expression) Expression {
	return NewBinary(op.Pos, binaryTokens[op.Type], left, right)
}

// queryExpr := query ((UNION | EXCEPT) query)*
func (p *parser) queryExpr() Executable {
	return foldLeft(p, p.query, []TokenType{TokenUnion, TokenExcept}, combineSets)
}

// query := simpleQuery (INTERSECT simpleQuery)*
func (p *parser) query() Executable {
	return foldLeft(p, p.simpleQuery, []TokenType{TokenIntersect}, combineSets)
}

// simpleQuery := SELECT source [WHERE predicate] [ORDER BY keys] [GROUP BY expr]
func (p *parser) simpleQuery() Executable {
	p.expect(TokenSelect, "select")
	q := p.source()
	if p.accept(TokenWhere) {
		q = Where(q, p.predicate(), p.rt)
	}
	if p.accept(TokenOrder) {
		p.expect(TokenBy, "by after order")
		q = OrderBy(q, p.sortKeys())
	}
	if p.accept(TokenGroup) {
		p.expect(TokenBy, "by after group")
		q = GroupBy(q, p.expr(), p.rt)
	}
	return q
}

// source := STRING | ID | `ID` | '(' queryExpr ')'
func (p *parser) source() Executable {
	tok := p.tok
	switch tok.Type {
	case TokenString:
		p.next()
		return p.pattern(tok)
	case TokenIdent, TokenQuoted:
		p.next()
		return p.expandView(tok.Value, tok.Pos)
	case TokenLParen:
		p.next()
		if p.tok.Type == TokenRParen {
			p.fail(p.tok.Pos, "missing subquery")
		}
		q := p.queryExpr()
		p.expect(TokenRParen, "')' after subquery")
		return q
	}
	p.fail(tok.Pos, "expected a pattern, view name or subquery, found %s", tok.Describe())
	return nil
}

func (p *parser) pattern(tok Token) Executable {
	if p.compiler.Patterns == nil {
		p.fail(tok.Pos, "no pattern source is configured")
	}
	m, err := p.compiler.Patterns.Pattern(tok.Value)
	if err != nil {
		p.fail(tok.Pos, "%v", err)
	}
	return FromPattern(m)
}

// expandView compiles the text of a view in place. A view reached again
// while it is being expanded is a cycle.
func (p *parser) expandView(name string, pos Pos) Executable {
	for i, open := range p.chain {
		if strings.EqualFold(open, name) {
			cycle := append(slices.Clone(p.chain[i:]), name)
			p.fail(pos, "view cycle: %s", strings.Join(cycle, " -> "))
		}
	}
	var text string
	ok := false
	if p.compiler.Views != nil {
		text, ok = p.compiler.Views.View(name)
	}
	if !ok {
		p.fail(pos, "unknown view %s", formatIdent(name))
	}

	child := newParser(p.compiler, p.rt, p.listener, text)
	child.parent = p
	child.view = name
	child.ref = pos
	child.chain = append(slices.Clone(p.chain), name)
	return Named(name, child.parse())
}

// sortKeys := sortKey (',' sortKey)*
func (p *parser) sortKeys() *Comparer {
	return foldLeft(p, p.sortKey, []TokenType{TokenComma}, func(_ Token, left, right *Comparer) *Comparer {
		return left.Then(right)
	})
}

// sortKey := expr [ASC | DESC]
func (p *parser) sortKey() *Comparer {
	x := p.expr()
	dir := Ascending
	if p.accept(TokenDesc) {
		dir = Descending
	} else {
		p.accept(TokenAsc)
	}
	return NewComparer(NewSortKey(x, p.rt, dir))
}

// predicate := conjunction (OR conjunction)*
func (p *parser) predicate() Expression {
	return foldLeft(p, p.conjunction, []TokenType{TokenOr}, combineBinary)
}

// conjunction := literal (AND literal)*
func (p *parser) conjunction() Expression {
	return foldLeft(p, p.literal, []TokenType{TokenAnd}, combineBinary)
}

// literal := [NOT] literal | comparison
func (p *parser) literal() Expression {
	if p.tok.Type == TokenNot {
		pos := p.tok.Pos
		p.next()
		return NewUnary(pos, OpNot, p.literal())
	}
	return p.comparison()
}

var relationalTokens = []TokenType{TokenLt, TokenLe, TokenGt, TokenGe, TokenEq, TokenNe}

// comparison := expr [REL_OP expr]
func (p *parser) comparison() Expression {
	left := p.expr()
	if !slices.Contains(relationalTokens, p.tok.Type) {
		return left
	}
	op := p.tok
	p.next()
	return combineBinary(op, left, p.expr())
}

// expr := term (('+' | '-') term)*
func (p *parser) expr() Expression {
	return foldLeft(p, p.term, []TokenType{TokenPlus, TokenMinus}, combineBinary)
}

// term := factor (('*' | '/') factor)*
func (p *parser) term() Expression {
	return foldLeft(p, p.factor, []TokenType{TokenStar, TokenSlash}, combineBinary)
}

// factor := INT | REAL | STRING | '-' factor | ID ['(' args ')'] | '(' predicate ')'
func (p *parser) factor() Expression {
	tok := p.tok
	switch tok.Type {
	case TokenInt:
		p.next()
		i, err := strconv.ParseInt(tok.Value, 10, 64)
		if err != nil {
			return NewConstant(tok.Pos, value.Missing)
		}
		return NewConstant(tok.Pos, value.Int(i))
	case TokenReal:
		p.next()
		f, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil {
			return NewConstant(tok.Pos, value.Missing)
		}
		return NewConstant(tok.Pos, value.Real(f))
	case TokenString:
		p.next()
		return NewConstant(tok.Pos, value.String(tok.Value))
	case TokenMinus:
		p.next()
		return NewUnary(tok.Pos, OpMinus, p.factor())
	case TokenIdent, TokenQuoted:
		p.next()
		if p.tok.Type == TokenLParen {
			p.next()
			return NewFunctionCall(tok.Pos, tok.Value, p.arguments())
		}
		return NewAttributeAccess(tok.Pos, tok.Value)
	case TokenLParen:
		p.next()
		x := p.predicate()
		p.expect(TokenRParen, "')'")
		return x
	}
	p.fail(tok.Pos, "expected an expression, found %s", tok.Describe())
	return nil
}

// arguments parses a possibly empty argument list up to and including ')'.
func (p *parser) arguments() []Expression {
	var args []Expression
	if p.accept(TokenRParen) {
		return args
	}
	for {
		args = append(args, p.predicate())
		if p.accept(TokenComma) {
			continue
		}
		p.expect(TokenRParen, "',' or ')' in argument list")
		return args
	}
}
