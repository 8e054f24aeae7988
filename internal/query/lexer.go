package query

import (
	"strconv"
	"strings"
	"unicode"
)

// TokenType represents the type of a lexer token.
type TokenType int

const (
	TokenEOF      TokenType = iota
	TokenIdent              // bare identifier
	TokenQuoted             // `backtick identifier`
	TokenString             // "string literal"
	TokenInt                // 42
	TokenReal               // 4.2
	TokenLParen             // (
	TokenRParen             // )
	TokenComma              // ,
	TokenPlus               // +
	TokenMinus              // -
	TokenStar               // *
	TokenSlash              // /
	TokenLt                 // <
	TokenLe                 // <=
	TokenGt                 // >
	TokenGe                 // >=
	TokenEq                 // = or ==
	TokenNe                 // != or <>
	TokenSelect
	TokenWhere
	TokenOrder
	TokenGroup
	TokenBy
	TokenAsc
	TokenDesc
	TokenAnd
	TokenOr
	TokenNot
	TokenUnion
	TokenIntersect
	TokenExcept
	TokenError // unrecognized character
)

var keywords = map[string]TokenType{
	"select":    TokenSelect,
	"where":     TokenWhere,
	"order":     TokenOrder,
	"group":     TokenGroup,
	"by":        TokenBy,
	"asc":       TokenAsc,
	"desc":      TokenDesc,
	"and":       TokenAnd,
	"or":        TokenOr,
	"not":       TokenNot,
	"union":     TokenUnion,
	"intersect": TokenIntersect,
	"except":    TokenExcept,
}

func isKeyword(s string) bool {
	_, ok := keywords[strings.ToLower(s)]
	return ok
}

// Token represents a lexer token.
type Token struct {
	Type TokenType
	// Value is the decoded text: the unescaped content of bounded literals,
	// the digits of numbers, the name of identifiers.
	Value string
	// Text is the source text of the token.
	Text string
	Pos  Pos
	// Err describes a lexical error. The token still carries a best-effort Value.
	Err string
}

// Describe renders the token for error messages.
func (t Token) Describe() string {
	if t.Type == TokenEOF {
		return "end of query"
	}
	return strconv.Quote(t.Text)
}

// Lexer tokenizes query text. Positions are 1-based lines and columns
// counted in runes.
type Lexer struct {
	input []rune
	pos   int
	line  int
	col   int
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input string) *Lexer {
	return &Lexer{input: []rune(input), line: 1, col: 1}
}

// Tokenize returns all tokens of input up to and including EOF.
func Tokenize(input string) []Token {
	l := NewLexer(input)
	var out []Token
	for {
		tok := l.NextToken()
		out = append(out, tok)
		if tok.Type == TokenEOF {
			return out
		}
	}
}

func (l *Lexer) peekAt(off int) rune {
	if l.pos+off < len(l.input) {
		return l.input[l.pos+off]
	}
	return 0
}

func (l *Lexer) advance() rune {
	r := l.input[l.pos]
	l.pos++
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func (l *Lexer) token(tt TokenType, start int, pos Pos) Token {
	text := string(l.input[start:l.pos])
	return Token{Type: tt, Value: text, Text: text, Pos: pos}
}

// NextToken returns the next token from the input.
func (l *Lexer) NextToken() Token {
	l.skipWhitespace()

	pos := Pos{Line: l.line, Column: l.col}
	start := l.pos
	if l.pos >= len(l.input) {
		return Token{Type: TokenEOF, Pos: pos}
	}

	ch := l.advance()
	switch ch {
	case '(':
		return l.token(TokenLParen, start, pos)
	case ')':
		return l.token(TokenRParen, start, pos)
	case ',':
		return l.token(TokenComma, start, pos)
	case '+':
		return l.token(TokenPlus, start, pos)
	case '-':
		return l.token(TokenMinus, start, pos)
	case '*':
		return l.token(TokenStar, start, pos)
	case '/':
		return l.token(TokenSlash, start, pos)
	case '=':
		if l.peekAt(0) == '=' {
			l.advance()
		}
		return l.token(TokenEq, start, pos)
	case '!':
		if l.peekAt(0) == '=' {
			l.advance()
			return l.token(TokenNe, start, pos)
		}
	case '<':
		switch l.peekAt(0) {
		case '=':
			l.advance()
			return l.token(TokenLe, start, pos)
		case '>':
			l.advance()
			return l.token(TokenNe, start, pos)
		}
		return l.token(TokenLt, start, pos)
	case '>':
		if l.peekAt(0) == '=' {
			l.advance()
			return l.token(TokenGe, start, pos)
		}
		return l.token(TokenGt, start, pos)
	case '"':
		return l.scanBounded(TokenString, ch, start, pos)
	case '`':
		return l.scanBounded(TokenQuoted, ch, start, pos)
	default:
		if unicode.IsDigit(ch) {
			return l.scanNumber(start, pos)
		}
		if isIdentRune(ch, true) {
			return l.scanIdent(start, pos)
		}
	}
	return Token{Type: TokenError, Value: string(ch), Text: string(ch), Pos: pos}
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) && unicode.IsSpace(l.input[l.pos]) {
		l.advance()
	}
}

func (l *Lexer) scanIdent(start int, pos Pos) Token {
	for l.pos < len(l.input) && isIdentRune(l.input[l.pos], false) {
		l.advance()
	}
	tok := l.token(TokenIdent, start, pos)
	if kw, ok := keywords[strings.ToLower(tok.Value)]; ok {
		tok.Type = kw
	}
	return tok
}

func (l *Lexer) scanNumber(start int, pos Pos) Token {
	for l.pos < len(l.input) && unicode.IsDigit(l.input[l.pos]) {
		l.advance()
	}
	tt := TokenInt
	if l.peekAt(0) == '.' && unicode.IsDigit(l.peekAt(1)) {
		tt = TokenReal
		l.advance()
		for l.pos < len(l.input) && unicode.IsDigit(l.input[l.pos]) {
			l.advance()
		}
	}
	tok := l.token(tt, start, pos)
	var err error
	if tt == TokenInt {
		_, err = strconv.ParseInt(tok.Value, 10, 64)
	} else {
		_, err = strconv.ParseFloat(tok.Value, 64)
	}
	if err != nil {
		tok.Err = "invalid number " + tok.Value
	}
	return tok
}

// scanBounded scans a literal enclosed in bound characters. The bound is
// escaped inside the literal by doubling it. A literal is unterminated when
// the input or the line ends before the closing bound.
func (l *Lexer) scanBounded(tt TokenType, bound rune, start int, pos Pos) Token {
	var sb strings.Builder
	for {
		if l.pos >= len(l.input) || l.input[l.pos] == '\n' {
			tok := l.token(tt, start, pos)
			tok.Value = strings.TrimSpace(sb.String())
			tok.Err = "unterminated literal " + string(bound) + " " + tok.Value
			return tok
		}
		r := l.advance()
		if r == bound {
			if l.peekAt(0) != bound {
				tok := l.token(tt, start, pos)
				tok.Value = sb.String()
				return tok
			}
			l.advance()
		}
		sb.WriteRune(r)
	}
}

// Unescape decodes a complete bounded literal such as "a""b" or `x`. The
// first character is the bound; a missing closing bound is tolerated and
// reported through the second result.
func Unescape(literal string) (string, bool) {
	runes := []rune(literal)
	if len(runes) == 0 {
		return "", false
	}
	l := &Lexer{input: runes, line: 1, col: 1}
	bound := l.advance()
	tok := l.scanBounded(TokenString, bound, 0, Pos{Line: 1, Column: 1})
	return tok.Value, tok.Err == "" && l.pos == len(runes)
}
