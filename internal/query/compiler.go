package query

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/aidanlsb/glance/internal/pattern"
)

// ViewRepository resolves view names to query text.
type ViewRepository interface {
	View(name string) (text string, ok bool)
}

// ViewMap is an in-memory ViewRepository. Lookups are case-insensitive; an
// exact spelling wins, then the first matching name in sorted order.
type ViewMap map[string]string

// View implements ViewRepository.
func (m ViewMap) View(name string) (string, bool) {
	if text, ok := m[name]; ok {
		return text, true
	}
	for _, k := range m.Names() {
		if strings.EqualFold(k, name) {
			return m[k], true
		}
	}
	return "", false
}

// Names returns the view names in sorted order.
func (m ViewMap) Names() []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Compiler turns query text into executable plans.
type Compiler struct {
	Patterns pattern.Factory
	Views    ViewRepository
	Runtime  *Runtime
	Logger   *slog.Logger
}

// NewCompiler creates a compiler. A nil runtime means DefaultRuntime.
func NewCompiler(patterns pattern.Factory, views ViewRepository, rt *Runtime) *Compiler {
	return &Compiler{Patterns: patterns, Views: views, Runtime: rt}
}

func (c *Compiler) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

func (c *Compiler) runtime() *Runtime {
	if c.Runtime != nil {
		return c.Runtime
	}
	return DefaultRuntime(WithLogger(c.logger()))
}

// Compile compiles text, logging compile errors. It returns nil when the
// query has a syntax or semantic error.
func (c *Compiler) Compile(text string) Executable {
	return c.CompileWithListener(text, LogListener{Logger: c.logger()})
}

// CompileWithListener compiles text, sending every compile error to l. It
// returns nil when compilation stopped at a syntax or semantic error. After
// lexical errors, such as an unterminated literal, compilation carries on
// with a best-effort reading and a plan may still be returned; callers that
// need a clean compile must inspect l as well.
func (c *Compiler) CompileWithListener(text string, l ErrorListener) (q Executable) {
	if l == nil {
		l = LogListener{Logger: c.logger()}
	}
	l.BeforeCompilation()
	defer l.AfterCompilation()
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(bailout); !ok {
				panic(r)
			}
			q = nil
		}
	}()
	return newParser(c, c.runtime(), l, text).parse()
}

// ParseExpression parses a standalone expression such as a result column.
// Any diagnostic, lexical ones included, makes it fail.
func ParseExpression(text string) (Expression, error) {
	var l CollectingListener
	var x Expression
	func() {
		defer func() {
			if r := recover(); r != nil {
				if _, ok := r.(bailout); !ok {
					panic(r)
				}
			}
		}()
		p := newParser(&Compiler{}, nil, &l, text)
		p.next()
		x = p.predicate()
		if p.tok.Type != TokenEOF {
			p.fail(p.tok.Pos, "unexpected %s after expression", p.tok.Describe())
		}
	}()
	if err := l.Err(); err != nil {
		return nil, err
	}
	return x, nil
}

// Parse compiles text and collects its diagnostics. err is a *CompileError
// when no plan could be built; diagnostics from a recovered compilation are
// returned with a non-nil plan.
func (c *Compiler) Parse(text string) (Executable, []Diagnostic, error) {
	var l CollectingListener
	q := c.CompileWithListener(text, Listeners{&l, LogListener{Logger: c.logger()}})
	diags := l.Diagnostics()
	if q == nil {
		return nil, diags, &CompileError{Diagnostics: diags}
	}
	return q, diags, nil
}
