package cli

import (
	"errors"
	"strings"
	"sync"

	"github.com/aidanlsb/glance/internal/config"
	"github.com/aidanlsb/glance/internal/index"
	"github.com/aidanlsb/glance/internal/pattern"
	"github.com/aidanlsb/glance/internal/query"
)

// session bundles what a command needs to work with one library.
type session struct {
	path     string
	cfg      *config.LibraryConfig
	db       *index.Database
	compiler *query.Compiler
	runtime  *query.Runtime

	mu       sync.Mutex
	warnings []Warning
}

// openSession loads the library config, opens the index and builds a
// compiler over the library's files.
func openSession() (*session, error) {
	libraryPath := getLibraryPath()

	libCfg, err := config.LoadLibraryConfig(libraryPath)
	if err != nil {
		return nil, handleError(ErrConfigInvalid, err, "Fix "+config.LibraryConfigFile+" and retry")
	}

	db, rebuilt, err := index.OpenWithRebuild(libraryPath)
	if err != nil {
		if errors.Is(err, index.ErrIndexLocked) {
			return nil, handleError(ErrDatabaseLocked, err, "Another glance process is rebuilding the index; retry shortly")
		}
		return nil, handleError(ErrDatabaseError, err, "")
	}

	s := &session{path: libraryPath, cfg: libCfg, db: db}
	if rebuilt {
		logger.Warn("index schema was outdated and has been recreated", "path", index.Path(libraryPath))
		s.warn(Warning{Code: WarnIndexRebuilt, Message: "the attribute index was recreated for a new schema version"})
	}

	s.runtime = query.DefaultRuntime(
		query.WithErrorReporter(query.ErrorReporterFunc(func(pos query.Pos, msg string) {
			logger.Debug("query runtime error", "pos", pos.String(), "error", msg)
			s.warn(Warning{Code: WarnRuntimeError, Message: msg, Line: pos.Line, Column: pos.Column})
		})),
	)
	source := pattern.NewSource(libraryPath, db, libCfg.SkipDirectories...)
	source.Logger = logger
	s.compiler = query.NewCompiler(source, libCfg, s.runtime)
	s.compiler.Logger = logger
	return s, nil
}

func (s *session) Close() {
	if err := s.db.Close(); err != nil {
		logger.Warn("failed to close index", "error", err)
	}
}

// warn records a warning once per distinct message.
func (s *session) warn(w Warning) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, have := range s.warnings {
		if have == w {
			return
		}
	}
	s.warnings = append(s.warnings, w)
}

func (s *session) takeWarnings() []Warning {
	s.mu.Lock()
	defer s.mu.Unlock()
	w := s.warnings
	s.warnings = nil
	return w
}

// compile compiles text, turning it into a view reference when it names
// one. The returned warnings are lexical diagnostics of a plan that still
// compiled.
func (s *session) compile(text string) (query.Executable, error) {
	if _, ok := s.cfg.View(text); ok {
		text = "select " + quoteIdent(text)
	}

	var diags query.CollectingListener
	q := s.compiler.CompileWithListener(text, &diags)
	if q == nil {
		return nil, handleErrorWithDetails(ErrQueryInvalid,
			(&query.CompileError{Diagnostics: diags.Diagnostics()}).Error(),
			"Run 'glance syntax' for the query language reference",
			diags.Diagnostics())
	}
	for _, d := range diags.Diagnostics() {
		s.warn(Warning{Code: WarnQuerySyntax, Message: d.Message, Line: d.Line, Column: d.Column})
	}
	logger.Debug("query compiled", "plan", q.String())
	return q, nil
}

// quoteIdent renders a view name so the lexer reads it back as one
// identifier, keywords included.
func quoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}
