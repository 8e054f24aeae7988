package query

import (
	"math"
	"path"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/aidanlsb/glance/internal/dates"
	"github.com/aidanlsb/glance/internal/entity"
	"github.com/aidanlsb/glance/internal/value"
)

const (
	tInt    = value.TypeInt
	tReal   = value.TypeReal
	tString = value.TypeString
	tTime   = value.TypeDateTime
)

func params(ts ...value.Type) []value.Type { return ts }

// strict wraps a body so that any null argument yields the null of ret.
func strict(ret value.Type, body Body) Body {
	return func(args []value.Value, ctx *CallContext) value.Value {
		for _, a := range args {
			if a.IsNull() {
				return value.Null(ret)
			}
		}
		return body(args, ctx)
	}
}

func stringFunc(name, help string, fn func(string) string) Function {
	return Function{Name: name, Params: params(tString), Returns: tString, Help: help,
		Body: strict(tString, func(args []value.Value, _ *CallContext) value.Value {
			s, _ := args[0].Str()
			return value.String(fn(s))
		})}
}

func stringTest(name, help string, fn func(s, sub string) bool) Function {
	return Function{Name: name, Params: params(tString, tString), Returns: tInt, Help: help,
		Body: strict(tInt, func(args []value.Value, _ *CallContext) value.Value {
			s, _ := args[0].Str()
			sub, _ := args[1].Str()
			return value.Bool(fn(strings.ToLower(s), strings.ToLower(sub)))
		})}
}

func realFunc(name, help string, fn func(float64) float64) Function {
	return Function{Name: name, Params: params(tReal), Returns: tReal, Help: help,
		Body: strict(tReal, func(args []value.Value, _ *CallContext) value.Value {
			f, _ := args[0].Real()
			return value.Real(fn(f))
		})}
}

func timeField(name, help string, fn func(time.Time) int) Function {
	return Function{Name: name, Params: params(tTime), Returns: tInt, Help: help,
		Body: strict(tInt, func(args []value.Value, _ *CallContext) value.Value {
			t, _ := args[0].Time()
			return value.Int(int64(fn(t)))
		})}
}

func pathFunc(name, help string, fn func(p string) string) Function {
	return Function{Name: name, Returns: tString, Help: help,
		Body: func(_ []value.Value, ctx *CallContext) value.Value {
			if ctx.Entity == nil {
				return value.Null(tString)
			}
			return value.String(fn(ctx.Entity.Path()))
		}}
}

func fileInfo(ctx *CallContext) (entity.FileInfoer, bool) {
	fi, ok := ctx.Entity.(entity.FileInfoer)
	if !ok || fi.Info() == nil {
		return nil, false
	}
	return fi, true
}

// pick returns the overloads of a two-argument function for each of the
// comparable types, in int, real, string, datetime order.
func pick(name, help string, fn func(a, b value.Value) value.Value) []Function {
	var out []Function
	for _, t := range []value.Type{tInt, tReal, tString, tTime} {
		out = append(out, Function{Name: name, Params: params(t, t), Returns: t, Help: help,
			Body: func(args []value.Value, _ *CallContext) value.Value { return fn(args[0], args[1]) }})
	}
	return out
}

var regexpCache sync.Map // string -> *regexp.Regexp

func compileRegexp(pattern string) (*regexp.Regexp, error) {
	if re, ok := regexpCache.Load(pattern); ok {
		return re.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	regexpCache.Store(pattern, re)
	return re, nil
}

var nowFunc = time.Now

// Builtins returns the builtin function overloads in registration order.
func Builtins() []Function {
	fns := []Function{
		stringFunc("lower", "lower-cases a string", strings.ToLower),
		stringFunc("upper", "upper-cases a string", strings.ToUpper),
		stringFunc("trim", "removes surrounding white space", strings.TrimSpace),
		{Name: "length", Params: params(tString), Returns: tInt, Help: "number of characters in a string",
			Body: strict(tInt, func(args []value.Value, _ *CallContext) value.Value {
				s, _ := args[0].Str()
				return value.Int(int64(utf8.RuneCountInString(s)))
			})},
		stringTest("contains", "case-insensitive substring test", strings.Contains),
		stringTest("startswith", "case-insensitive prefix test", strings.HasPrefix),
		stringTest("endswith", "case-insensitive suffix test", strings.HasSuffix),
		{Name: "matches", Params: params(tString, tString), Returns: tInt, Help: "regular expression test (RE2 syntax)",
			Body: strict(tInt, func(args []value.Value, ctx *CallContext) value.Value {
				s, _ := args[0].Str()
				pattern, _ := args[1].Str()
				re, err := compileRegexp(pattern)
				if err != nil {
					ctx.Report("invalid regular expression %q: %v", pattern, err)
					return value.False
				}
				return value.Bool(re.MatchString(s))
			})},

		{Name: "abs", Params: params(tInt), Returns: tInt, Help: "absolute value",
			Body: strict(tInt, func(args []value.Value, _ *CallContext) value.Value {
				i, _ := args[0].Int()
				if i < 0 {
					i = -i
				}
				return value.Int(i)
			})},
		realFunc("abs", "absolute value", math.Abs),
		realFunc("round", "rounds half away from zero", math.Round),
		realFunc("floor", "largest integer not above", math.Floor),
		realFunc("ceil", "smallest integer not below", math.Ceil),
	}

	fns = append(fns, pick("min", "smaller of two values; null if either is null", func(a, b value.Value) value.Value {
		if a.IsNull() || b.IsNull() {
			return value.Null(a.Type())
		}
		if value.Compare(b, a) < 0 {
			return b
		}
		return a
	})...)
	fns = append(fns, pick("max", "larger of two values; null if either is null", func(a, b value.Value) value.Value {
		if a.IsNull() || b.IsNull() {
			return value.Null(a.Type())
		}
		if value.Compare(b, a) > 0 {
			return b
		}
		return a
	})...)
	fns = append(fns, pick("ifnull", "first argument, or the second when the first is null", func(a, b value.Value) value.Value {
		if a.IsNull() {
			return b
		}
		return a
	})...)

	fns = append(fns,
		Function{Name: "date", Params: params(tTime), Returns: tTime, Help: "a date/time unchanged",
			Body: func(args []value.Value, _ *CallContext) value.Value { return args[0] }},
		Function{Name: "date", Params: params(tString), Returns: tTime,
			Help: "parses a date/time, or today, yesterday, tomorrow and offsets such as -7d, +2w, -1m, -1y",
			Body: func(args []value.Value, ctx *CallContext) value.Value {
				s, _ := args[0].Str()
				if t, ok := dates.Resolve(s, nowFunc()); ok {
					return value.DateTime(t)
				}
				v := value.ConvertTo(args[0], tTime)
				if v.IsNull() && !args[0].IsNull() {
					ctx.Report("invalid date %q", s)
				}
				return v
			}},
		timeField("year", "year of a date/time", time.Time.Year),
		timeField("month", "month (1-12) of a date/time", func(t time.Time) int { return int(t.Month()) }),
		timeField("day", "day of the month of a date/time", time.Time.Day),
		Function{Name: "now", Returns: tTime, Help: "current date/time",
			Body: func([]value.Value, *CallContext) value.Value { return value.DateTime(nowFunc()) }},

		pathFunc("path", "library-relative path of the entity", func(p string) string { return p }),
		pathFunc("name", "file name of the entity", path.Base),
		pathFunc("ext", "lower-case extension without the dot", func(p string) string {
			return strings.ToLower(strings.TrimPrefix(path.Ext(p), "."))
		}),
		pathFunc("dir", "directory containing the entity", func(p string) string {
			if d := path.Dir(p); d != "." {
				return d
			}
			return ""
		}),
		Function{Name: "size", Returns: tInt, Help: "file size in bytes; null for directories",
			Body: func(_ []value.Value, ctx *CallContext) value.Value {
				fi, ok := fileInfo(ctx)
				if !ok || fi.Info().IsDir() {
					return value.Null(tInt)
				}
				return value.Int(fi.Info().Size())
			}},
		Function{Name: "modified", Returns: tTime, Help: "last modification time",
			Body: func(_ []value.Value, ctx *CallContext) value.Value {
				fi, ok := fileInfo(ctx)
				if !ok {
					return value.Null(tTime)
				}
				return value.DateTime(fi.Info().ModTime().UTC())
			}},
		Function{Name: "isdir", Returns: tInt, Help: "true for directories",
			Body: func(_ []value.Value, ctx *CallContext) value.Value {
				fi, ok := fileInfo(ctx)
				return value.Bool(ok && fi.Info().IsDir())
			}},
	)
	return fns
}
