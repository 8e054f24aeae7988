package query

import (
	"strings"
	"testing"
	"time"

	"github.com/aidanlsb/glance/internal/entity"
	"github.com/aidanlsb/glance/internal/value"
)

type recordedError struct {
	pos Pos
	msg string
}

func recordingRuntime(errs *[]recordedError, opts ...Option) *Runtime {
	opts = append(opts, WithErrorReporter(ErrorReporterFunc(func(pos Pos, msg string) {
		*errs = append(*errs, recordedError{pos, msg})
	})))
	return DefaultRuntime(opts...)
}

func constBody(v value.Value) Body {
	return func([]value.Value, *CallContext) value.Value { return v }
}

func TestCallArityMismatchPanics(t *testing.T) {
	fn := &Function{Name: "pair", Params: []value.Type{value.TypeInt, value.TypeInt}, Returns: value.TypeInt,
		Body: func(args []value.Value, _ *CallContext) value.Value { return args[1] }}
	rt := NewRuntime(WithFunctions(*fn))

	for _, args := range [][]value.Value{
		{value.Int(1)},
		{value.Int(1), value.Int(2), value.Int(3)},
	} {
		func() {
			defer func() {
				r := recover()
				if r == nil {
					t.Fatalf("Call with %d arguments did not panic", len(args))
				}
				if msg, _ := r.(string); !strings.Contains(msg, "pair called with") {
					t.Errorf("panic = %v, want an arity message", r)
				}
			}()
			rt.Call(fn, args, nil)
		}()
	}
}

func TestFindFunctionPrefersCheapestOverload(t *testing.T) {
	rt := NewRuntime(WithFunctions(
		Function{Name: "f", Params: []value.Type{value.TypeString}, Returns: value.TypeString, Body: constBody(value.String("string"))},
		Function{Name: "f", Params: []value.Type{value.TypeReal}, Returns: value.TypeString, Body: constBody(value.String("real"))},
		Function{Name: "f", Params: []value.Type{value.TypeInt}, Returns: value.TypeString, Body: constBody(value.String("int"))},
	))
	tests := []struct {
		arg  value.Type
		want string
	}{
		{value.TypeInt, "int"},
		{value.TypeReal, "real"},
		{value.TypeString, "string"},
		{value.TypeDateTime, "string"},
	}
	for _, tt := range tests {
		fn, ok := rt.FindFunction("F", []value.Type{tt.arg})
		if !ok {
			t.Fatalf("FindFunction(f, %v) found nothing", tt.arg)
		}
		if got, _ := rt.Call(fn, []value.Value{value.Null(tt.arg)}, nil).Str(); got != tt.want {
			t.Errorf("f(%v) chose %q, want %q", tt.arg, got, tt.want)
		}
	}
}

func TestFindFunctionTiesGoToFirstRegistered(t *testing.T) {
	rt := NewRuntime(WithFunctions(
		Function{Name: "g", Params: []value.Type{value.TypeInt}, Returns: value.TypeInt, Body: constBody(value.Int(1))},
		Function{Name: "g", Params: []value.Type{value.TypeString}, Returns: value.TypeInt, Body: constBody(value.Int(2))},
	))
	for i := 0; i < 10; i++ {
		fn, ok := rt.FindFunction("g", []value.Type{value.TypeNull})
		if !ok {
			t.Fatal("no overload found")
		}
		if fn.Params[0] != value.TypeInt {
			t.Fatalf("tie resolved to %v, want the first registered overload", fn.Params[0])
		}
	}
}

func TestFindFunctionRejectsImpossibleConversions(t *testing.T) {
	rt := DefaultRuntime()
	if fn, ok := rt.FindFunction("abs", []value.Type{value.TypeString}); ok {
		t.Errorf("abs(string) resolved to %s", fn.Signature())
	}
	if _, ok := rt.FindFunction("lower", []value.Type{value.TypeString, value.TypeString}); ok {
		t.Error("lower resolved with the wrong arity")
	}
}

func TestFindAndCallReportsUnknownFunction(t *testing.T) {
	var errs []recordedError
	rt := recordingRuntime(&errs)
	pos := Pos{Line: 2, Column: 7}
	got := rt.FindAndCall("nosuch", []value.Value{value.Int(1), value.String("x")}, &CallContext{Pos: pos})
	if !got.IsNull() {
		t.Errorf("result = %v, want null", got)
	}
	if len(errs) != 1 {
		t.Fatalf("reported %d errors, want 1", len(errs))
	}
	if errs[0].pos != pos || !strings.Contains(errs[0].msg, "nosuch(int, string)") {
		t.Errorf("reported %+v", errs[0])
	}
}

func TestBuiltins(t *testing.T) {
	e := entity.New("Photos/Trip/IMG_01.JPG", map[string]value.Value{
		"title": value.String("  Beach Day "),
		"n":     value.Int(-3),
		"r":     value.Real(2.5),
		"taken": value.DateTime(time.Date(2024, 7, 14, 10, 0, 0, 0, time.UTC)),
	}, nil)

	tests := []struct {
		expr string
		want value.Value
	}{
		{`lower(trim(title))`, value.String("beach day")},
		{`upper(name())`, value.String("IMG_01.JPG")},
		{`length(trim(title))`, value.Int(9)},
		{`contains(title, "BEACH")`, value.True},
		{`startswith(path(), "photos/")`, value.True},
		{`endswith(name(), ".png")`, value.False},
		{`matches(name(), "^IMG_[0-9]+")`, value.True},
		{`abs(n)`, value.Int(3)},
		{`abs(r * -1)`, value.Real(2.5)},
		{`round(r)`, value.Real(3)},
		{`floor(r)`, value.Real(2)},
		{`ceil(r)`, value.Real(3)},
		{`min(n, 2)`, value.Int(-3)},
		{`max(r, n)`, value.Real(2.5)},
		{`ifnull(missing, "none")`, value.String("none")},
		{`ifnull(title, "none")`, value.String("  Beach Day ")},
		{`year(taken)`, value.Int(2024)},
		{`month(taken)`, value.Int(7)},
		{`day(date("2024-07-14"))`, value.Int(14)},
		{`ext()`, value.String("jpg")},
		{`dir()`, value.String("Photos/Trip")},
		{`size()`, value.Null(value.TypeInt)},
		{`isdir()`, value.False},
		{`lower(missing)`, value.Null(value.TypeString)},
	}
	c := NewCompiler(nil, nil, DefaultRuntime())
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			x := mustParseExpr(t, tt.expr)
			got := x.CompileFunction(c.Runtime)(e)
			if got.Key() != tt.want.Key() || got.Type() != tt.want.Type() {
				t.Errorf("%s = %v (%v), want %v (%v)", tt.expr, got, got.Type(), tt.want, tt.want.Type())
			}
		})
	}
}

func TestMatchesReportsInvalidPattern(t *testing.T) {
	var errs []recordedError
	rt := recordingRuntime(&errs)
	x := mustParseExpr(t, `matches(name(), "[")`)
	if got := x.CompileFunction(rt)(entity.New("a.jpg", nil, nil)); !got.IsNull() {
		t.Errorf("result = %v, want null", got)
	}
	if len(errs) != 1 || errs[0].pos != (Pos{Line: 1, Column: 1}) {
		t.Errorf("reported %+v, want one error at 1:1", errs)
	}
}

func TestFunctionsListsEveryOverload(t *testing.T) {
	rt := DefaultRuntime()
	fns := rt.Functions()
	if len(fns) != len(Builtins()) {
		t.Fatalf("Functions() = %d overloads, want %d", len(fns), len(Builtins()))
	}
	for i := 1; i < len(fns); i++ {
		if strings.ToLower(fns[i-1].Name) > strings.ToLower(fns[i].Name) {
			t.Errorf("%s listed before %s", fns[i-1].Name, fns[i].Name)
		}
	}
}

func TestDateResolvesRelativeExpressions(t *testing.T) {
	prev := nowFunc
	t.Cleanup(func() { nowFunc = prev })
	nowFunc = func() time.Time { return time.Date(2025, 3, 15, 14, 30, 0, 0, time.UTC) }

	var errs []recordedError
	rt := recordingRuntime(&errs)
	e := entity.New("a.jpg", nil, nil)
	tests := []struct {
		expr string
		want value.Value
	}{
		{`date("yesterday")`, value.DateTime(time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC))},
		{`date("-1m")`, value.DateTime(time.Date(2025, 2, 15, 0, 0, 0, 0, time.UTC))},
		{`date("2024-07-14")`, value.DateTime(time.Date(2024, 7, 14, 0, 0, 0, 0, time.UTC))},
		{`date(missing)`, value.Null(value.TypeDateTime)},
	}
	for _, tt := range tests {
		got := mustParseExpr(t, tt.expr).CompileFunction(rt)(e)
		if got.Key() != tt.want.Key() || got.Type() != tt.want.Type() {
			t.Errorf("%s = %v, want %v", tt.expr, got, tt.want)
		}
	}
	if len(errs) != 0 {
		t.Fatalf("unexpected runtime errors: %+v", errs)
	}

	if got := mustParseExpr(t, `date("soon")`).CompileFunction(rt)(e); !got.IsNull() {
		t.Errorf(`date("soon") = %v, want null`, got)
	}
	if len(errs) != 1 {
		t.Errorf("reported %+v, want one invalid date error", errs)
	}
}
