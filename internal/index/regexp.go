package index

import (
	"database/sql/driver"
	"fmt"
	"regexp"
	"sync"

	"modernc.org/sqlite"
)

func init() {
	// SQLite invokes the "regexp" function with (pattern, value) for
	// `value REGEXP pattern`.
	sqlite.MustRegisterDeterministicScalarFunction("regexp", 2, regexpFunc)
}

var compiled sync.Map // pattern -> *regexp.Regexp

func regexpFunc(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("regexp expects 2 arguments")
	}

	pattern, ok := driverValueToString(args[0])
	if !ok || pattern == "" {
		return int64(0), nil
	}
	value, ok := driverValueToString(args[1])
	if !ok {
		return int64(0), nil
	}

	var re *regexp.Regexp
	if cached, ok := compiled.Load(pattern); ok {
		re = cached.(*regexp.Regexp)
	} else {
		var err error
		if re, err = regexp.Compile(pattern); err != nil {
			return nil, err
		}
		compiled.Store(pattern, re)
	}

	if re.MatchString(value) {
		return int64(1), nil
	}
	return int64(0), nil
}

func driverValueToString(v driver.Value) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return val, true
	case []byte:
		return string(val), true
	default:
		return fmt.Sprint(val), true
	}
}
