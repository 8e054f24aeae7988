package pattern

import (
	"context"
	"io/fs"
	"iter"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aidanlsb/glance/internal/entity"
)

// DataDir is the per-library directory glance keeps its own files in. It is
// never enumerated.
const DataDir = ".glance"

// Matcher is a compiled pattern bound to a library.
type Matcher interface {
	// Entities lazily enumerates matching entities. Enumeration stops when
	// the consumer stops or ctx is done.
	Entities(ctx context.Context) iter.Seq[entity.Entity]
	// Match re-tests a single entity without enumerating.
	Match(e entity.Entity) bool
	// String returns the pattern text as written.
	String() string
}

// Factory compiles pattern text into a Matcher.
type Factory interface {
	Pattern(text string) (Matcher, error)
}

// Source enumerates entities of a library directory.
type Source struct {
	Root   string
	Loader entity.Loader
	// Skip lists directory names (case-insensitive) that are not descended into.
	Skip   []string
	Logger *slog.Logger
}

// NewSource creates a Source rooted at root.
func NewSource(root string, loader entity.Loader, skip ...string) *Source {
	return &Source{Root: root, Loader: loader, Skip: skip}
}

// Pattern implements Factory.
func (s *Source) Pattern(text string) (Matcher, error) {
	p, err := Parse(text)
	if err != nil {
		return nil, err
	}
	return &globMatcher{pattern: p, source: s}, nil
}

func (s *Source) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func (s *Source) loader() entity.Loader {
	if s.Loader != nil {
		return s.Loader
	}
	return entity.Plain
}

func (s *Source) skipped(name string) bool {
	if name == DataDir {
		return true
	}
	for _, skip := range s.Skip {
		if strings.EqualFold(skip, name) {
			return true
		}
	}
	return false
}

type globMatcher struct {
	pattern *Pattern
	source  *Source
}

func (m *globMatcher) String() string { return m.pattern.String() }

func (m *globMatcher) Match(e entity.Entity) bool { return m.pattern.Match(e.Path()) }

func (m *globMatcher) Entities(ctx context.Context) iter.Seq[entity.Entity] {
	return func(yield func(entity.Entity) bool) {
		if ctx == nil {
			ctx = context.Background()
		}
		for _, base := range m.source.resolve(m.pattern.raw[:m.pattern.base]) {
			if !m.walk(ctx, base, yield) {
				return
			}
		}
	}
}

// resolve finds the directories on disk whose path equals segs ignoring
// case. Case-sensitive file systems may hold more than one.
func (s *Source) resolve(segs []string) []string {
	dirs := []string{""}
	for _, seg := range segs {
		want := entity.Key(seg)
		var next []string
		for _, dir := range dirs {
			entries, err := os.ReadDir(filepath.Join(s.Root, filepath.FromSlash(dir)))
			if err != nil {
				continue
			}
			for _, de := range entries {
				if entity.Key(de.Name()) != want {
					continue
				}
				rel := path.Join(dir, de.Name())
				if info, err := os.Stat(filepath.Join(s.Root, filepath.FromSlash(rel))); err == nil && info.IsDir() {
					next = append(next, rel)
				}
			}
		}
		if len(next) == 0 {
			return nil
		}
		dirs = next
	}
	return dirs
}

// walk enumerates the matches below base and reports whether the consumer
// wants more.
func (m *globMatcher) walk(ctx context.Context, base string, yield func(entity.Entity) bool) bool {
	root := m.source.Root
	start := filepath.Join(root, filepath.FromSlash(base))
	maxDepth := m.pattern.MaxDepth()
	log := m.source.logger()
	loader := m.source.loader()
	more := true

	err := filepath.WalkDir(start, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p != start {
				log.Debug("skipping unreadable path", "path", p, "error", err)
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if p == start {
			return nil
		}
		if d.IsDir() && m.source.skipped(d.Name()) {
			return filepath.SkipDir
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		descend := true
		if maxDepth >= 0 {
			below, _ := filepath.Rel(start, p)
			if strings.Count(filepath.ToSlash(below), "/")+1 >= maxDepth {
				descend = false
			}
		}

		if m.pattern.Match(rel) {
			info, infoErr := d.Info()
			if infoErr != nil {
				log.Debug("stat failed", "path", rel, "error", infoErr)
			}
			e, loadErr := loader.Load(rel, info)
			if loadErr != nil {
				log.Warn("loading attributes failed", "path", rel, "error", loadErr)
				e = entity.New(rel, nil, info)
			}
			if !yield(e) {
				more = false
				return filepath.SkipAll
			}
		}

		if d.IsDir() && !descend {
			return filepath.SkipDir
		}
		return nil
	})
	if err != nil {
		log.Debug("pattern walk stopped", "pattern", m.pattern.String(), "error", err)
		return false
	}
	return more
}
