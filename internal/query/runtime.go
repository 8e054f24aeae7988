package query

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/aidanlsb/glance/internal/entity"
	"github.com/aidanlsb/glance/internal/value"
)

// Func evaluates a compiled expression for one entity.
type Func func(e entity.Entity) value.Value

// Predicate is a compiled boolean expression: true iff the value is not null.
type Predicate func(e entity.Entity) bool

// CompilePredicate compiles x and tests its result for nullness.
func CompilePredicate(x Expression, rt *Runtime) Predicate {
	f := x.CompileFunction(rt)
	return func(e entity.Entity) bool { return !f(e).IsNull() }
}

// Body implements a function. Arguments have already been converted to the
// declared parameter types; any of them may be null.
type Body func(args []value.Value, ctx *CallContext) value.Value

// Function is one overload of a named runtime function.
type Function struct {
	Name    string
	Params  []value.Type
	Returns value.Type
	Body    Body
	// Help is a one-line description shown by `glance syntax`.
	Help string
}

// Signature renders the function as name(type, ...) -> type.
func (f *Function) Signature() string {
	return f.Name + formatTypes(f.Params) + " -> " + f.Returns.String()
}

// CallContext carries the entity being evaluated and the call site.
type CallContext struct {
	Entity entity.Entity
	Pos    Pos
	rt     *Runtime
}

// Report sends a runtime error for this call site to the runtime's reporter.
func (c *CallContext) Report(format string, args ...any) {
	if c == nil || c.rt == nil {
		return
	}
	c.rt.report(c.Pos, fmt.Sprintf(format, args...))
}

// ErrorReporter receives errors raised while queries execute. Evaluation
// continues with a null result.
type ErrorReporter interface {
	OnRuntimeError(pos Pos, message string)
}

// ErrorReporterFunc adapts a function to ErrorReporter.
type ErrorReporterFunc func(pos Pos, message string)

func (f ErrorReporterFunc) OnRuntimeError(pos Pos, message string) { f(pos, message) }

// LogReporter logs runtime errors as warnings.
type LogReporter struct {
	Logger *slog.Logger
}

func (r LogReporter) OnRuntimeError(pos Pos, message string) {
	log := r.Logger
	if log == nil {
		log = slog.Default()
	}
	log.Warn("query runtime error", "line", pos.Line, "column", pos.Column, "error", message)
}

// Runtime is the function registry and error sink used by compiled
// expressions. It is read-only after construction and safe for concurrent use.
type Runtime struct {
	functions map[string][]*Function
	reporter  ErrorReporter
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithFunctions registers additional overloads. Registration order breaks
// ties between equally cheap overloads.
func WithFunctions(fns ...Function) Option {
	return func(rt *Runtime) {
		for i := range fns {
			f := fns[i]
			key := strings.ToLower(f.Name)
			rt.functions[key] = append(rt.functions[key], &f)
		}
	}
}

// WithErrorReporter sets where runtime errors go.
func WithErrorReporter(r ErrorReporter) Option {
	return func(rt *Runtime) { rt.reporter = r }
}

// WithLogger reports runtime errors to logger.
func WithLogger(logger *slog.Logger) Option {
	return WithErrorReporter(LogReporter{Logger: logger})
}

// NewRuntime creates a runtime with no functions.
func NewRuntime(opts ...Option) *Runtime {
	rt := &Runtime{functions: make(map[string][]*Function), reporter: LogReporter{}}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// DefaultRuntime creates a runtime with the builtin functions registered
// ahead of any from opts.
func DefaultRuntime(opts ...Option) *Runtime {
	return NewRuntime(append([]Option{WithFunctions(Builtins()...)}, opts...)...)
}

// FindFunction selects the overload of name whose parameters the argument
// types convert to most cheaply. Candidates that need an impossible
// conversion are never chosen; ties go to the first registered.
func (rt *Runtime) FindFunction(name string, argTypes []value.Type) (*Function, bool) {
	var best *Function
	bestCost := value.NoConversion
	for _, f := range rt.functions[strings.ToLower(name)] {
		if !value.Convertible(argTypes, f.Params) {
			continue
		}
		if cost := value.ConversionCost(argTypes, f.Params); cost < bestCost {
			best, bestCost = f, cost
		}
	}
	return best, best != nil
}

// Call converts args to fn's parameter types and invokes it.
// Call panics when len(args) differs from the parameter count.
func (rt *Runtime) Call(fn *Function, args []value.Value, ctx *CallContext) value.Value {
	if len(args) != len(fn.Params) {
		panic(fmt.Sprintf("query: %s called with %d arguments, wants %d", fn.Name, len(args), len(fn.Params)))
	}
	converted := make([]value.Value, len(args))
	for i, a := range args {
		converted[i] = value.ConvertTo(a, fn.Params[i])
	}
	if ctx == nil {
		ctx = &CallContext{}
	}
	ctx.rt = rt
	return fn.Body(converted, ctx)
}

// FindAndCall resolves the overload for args and calls it. An unresolved
// call reports a runtime error and yields null.
func (rt *Runtime) FindAndCall(name string, args []value.Value, ctx *CallContext) value.Value {
	types := make([]value.Type, len(args))
	for i, a := range args {
		types[i] = a.Type()
	}
	fn, ok := rt.FindFunction(name, types)
	if !ok {
		pos := Pos{}
		if ctx != nil {
			pos = ctx.Pos
		}
		rt.report(pos, "unknown function "+name+formatTypes(types))
		return value.Missing
	}
	return rt.Call(fn, args, ctx)
}

// Functions lists every registered overload ordered by name.
func (rt *Runtime) Functions() []*Function {
	var out []*Function
	for _, overloads := range rt.functions {
		out = append(out, overloads...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

func (rt *Runtime) report(pos Pos, message string) {
	if rt.reporter != nil {
		rt.reporter.OnRuntimeError(pos, message)
	}
}

func formatTypes(types []value.Type) string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.String()
	}
	return "(" + strings.Join(names, ", ") + ")"
}
