package query

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// ErrorListener observes a compilation. Callbacks may arrive on any
// goroutine and must not block.
type ErrorListener interface {
	BeforeCompilation()
	OnCompilerError(line, column int, message string)
	AfterCompilation()
}

// Diagnostic is one compile error.
type Diagnostic struct {
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Message string `json:"message"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%d:%d: %s", d.Line, d.Column, d.Message)
}

// CompileError reports the diagnostics of a failed compilation.
type CompileError struct {
	Diagnostics []Diagnostic
}

func (e *CompileError) Error() string {
	if len(e.Diagnostics) == 1 {
		return "query error at " + e.Diagnostics[0].String()
	}
	parts := make([]string, len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		parts[i] = d.String()
	}
	return fmt.Sprintf("%d query errors: %s", len(e.Diagnostics), strings.Join(parts, "; "))
}

// CollectingListener records diagnostics. The diagnostics of each
// compilation replace those of the previous one.
type CollectingListener struct {
	mu    sync.Mutex
	diags []Diagnostic
}

func (l *CollectingListener) BeforeCompilation() {
	l.mu.Lock()
	l.diags = nil
	l.mu.Unlock()
}

func (l *CollectingListener) OnCompilerError(line, column int, message string) {
	l.mu.Lock()
	l.diags = append(l.diags, Diagnostic{Line: line, Column: column, Message: message})
	l.mu.Unlock()
}

func (l *CollectingListener) AfterCompilation() {}

// Diagnostics returns a copy of the recorded diagnostics.
func (l *CollectingListener) Diagnostics() []Diagnostic {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Diagnostic(nil), l.diags...)
}

// Err returns a *CompileError when any diagnostic was recorded.
func (l *CollectingListener) Err() error {
	diags := l.Diagnostics()
	if len(diags) == 0 {
		return nil
	}
	return &CompileError{Diagnostics: diags}
}

// LogListener logs compile errors.
type LogListener struct {
	Logger *slog.Logger
}

func (l LogListener) logger() *slog.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return slog.Default()
}

func (l LogListener) BeforeCompilation() { l.logger().Debug("compiling query") }

func (l LogListener) OnCompilerError(line, column int, message string) {
	l.logger().Warn("query compile error", "line", line, "column", column, "error", message)
}

func (l LogListener) AfterCompilation() { l.logger().Debug("query compiled") }

// Listeners fans callbacks out to several listeners.
type Listeners []ErrorListener

func (ls Listeners) BeforeCompilation() {
	for _, l := range ls {
		l.BeforeCompilation()
	}
}

func (ls Listeners) OnCompilerError(line, column int, message string) {
	for _, l := range ls {
		l.OnCompilerError(line, column, message)
	}
}

func (ls Listeners) AfterCompilation() {
	for _, l := range ls {
		l.AfterCompilation()
	}
}
