// Package testutil provides reusable test utilities for glance tests.
package testutil

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/aidanlsb/glance/internal/entity"
	"github.com/aidanlsb/glance/internal/value"
)

// TestLibrary represents a temporary library directory for testing.
type TestLibrary struct {
	Path   string
	t      *testing.T
	config string
	files  map[string]string
	dirs   []string
	attrs  map[string]map[string]value.Value
}

// NewTestLibrary creates a new test library builder.
// Call Build() to create the actual directory.
func NewTestLibrary(t *testing.T) *TestLibrary {
	t.Helper()
	return &TestLibrary{
		t:     t,
		files: make(map[string]string),
		attrs: make(map[string]map[string]value.Value),
	}
}

// WithFile adds a file to the library. The path is relative to the root.
func (l *TestLibrary) WithFile(path, content string) *TestLibrary {
	l.files[path] = content
	return l
}

// WithDir adds an (otherwise empty) directory to the library.
func (l *TestLibrary) WithDir(path string) *TestLibrary {
	l.dirs = append(l.dirs, path)
	return l
}

// WithAttributes attaches attributes to a path. Paths that were not added
// with WithDir become empty files.
func (l *TestLibrary) WithAttributes(path string, attrs map[string]value.Value) *TestLibrary {
	key := entity.Key(path)
	if l.attrs[key] == nil {
		l.attrs[key] = make(map[string]value.Value)
	}
	for name, v := range attrs {
		l.attrs[key][name] = v
	}
	if _, ok := l.files[path]; !ok && !l.isDir(path) {
		l.files[path] = ""
	}
	return l
}

// WithConfig sets the glance.yaml content for the library.
func (l *TestLibrary) WithConfig(yaml string) *TestLibrary {
	l.config = yaml
	return l
}

func (l *TestLibrary) isDir(path string) bool {
	for _, d := range l.dirs {
		if entity.Key(d) == entity.Key(path) {
			return true
		}
	}
	return false
}

// Build creates the library directory with all configured files.
func (l *TestLibrary) Build() *TestLibrary {
	l.t.Helper()

	l.Path = l.t.TempDir()

	if l.config != "" {
		l.writeFile("glance.yaml", l.config)
	}
	for _, dir := range l.dirs {
		if err := os.MkdirAll(filepath.Join(l.Path, filepath.FromSlash(dir)), 0755); err != nil {
			l.t.Fatalf("failed to create directory %s: %v", dir, err)
		}
	}
	for path, content := range l.files {
		l.writeFile(path, content)
	}
	return l
}

func (l *TestLibrary) writeFile(relPath, content string) {
	l.t.Helper()
	fullPath := filepath.Join(l.Path, filepath.FromSlash(relPath))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		l.t.Fatalf("failed to create directory for %s: %v", relPath, err)
	}
	if err := os.WriteFile(fullPath, []byte(content), 0644); err != nil {
		l.t.Fatalf("failed to write file %s: %v", fullPath, err)
	}
}

// ReadFile reads a file from the library.
func (l *TestLibrary) ReadFile(relPath string) string {
	l.t.Helper()
	content, err := os.ReadFile(filepath.Join(l.Path, filepath.FromSlash(relPath)))
	if err != nil {
		l.t.Fatalf("failed to read file %s: %v", relPath, err)
	}
	return string(content)
}

// FileExists checks if a file exists in the library.
func (l *TestLibrary) FileExists(relPath string) bool {
	l.t.Helper()
	_, err := os.Stat(filepath.Join(l.Path, filepath.FromSlash(relPath)))
	return err == nil
}

// Loader returns an entity loader serving the configured attributes from memory.
func (l *TestLibrary) Loader() entity.Loader {
	return entity.LoaderFunc(func(path string, info fs.FileInfo) (entity.Entity, error) {
		return entity.New(path, l.attrs[entity.Key(path)], info), nil
	})
}

// Entity builds an in-memory entity for path with its configured attributes.
func (l *TestLibrary) Entity(path string) entity.Entity {
	return entity.New(path, l.attrs[entity.Key(path)], nil)
}

// Attributes returns the configured attributes keyed by library-relative path.
func (l *TestLibrary) Attributes() map[string]map[string]value.Value {
	out := make(map[string]map[string]value.Value, len(l.attrs))
	for key, attrs := range l.attrs {
		out[key] = attrs
	}
	return out
}

// Paths returns the sorted results' paths, for comparing result sets.
func Paths(entities []entity.Entity) []string {
	out := make([]string, len(entities))
	for i, e := range entities {
		out[i] = e.Path()
	}
	sort.Strings(out)
	return out
}

// ScenarioLibrary builds the reference tree used by the query scenarios:
// 19 entities below dir/, six of them carrying attr1.
func ScenarioLibrary(t *testing.T) *TestLibrary {
	t.Helper()
	one := map[string]value.Value{"attr1": value.Int(1)}
	return NewTestLibrary(t).
		WithDir("dir/a").
		WithDir("dir/b").
		WithDir("dir/c").
		WithDir("dir/a/sub").
		WithAttributes("dir/a", map[string]value.Value{"attr2": value.Int(2)}).
		WithAttributes("dir/b", map[string]value.Value{"attr2": value.Int(1)}).
		WithAttributes("dir/a/1.jpg", one).
		WithAttributes("dir/a/2.jpg", map[string]value.Value{"attr1": value.Int(1), "attr2": value.Int(5)}).
		WithAttributes("dir/a/3.jpg", map[string]value.Value{"attr2": value.Int(3)}).
		WithFile("dir/a/4.jpg", "").
		WithAttributes("dir/a/sub/5.jpg", one).
		WithFile("dir/a/sub/6.jpg", "").
		WithAttributes("dir/b/1.jpg", map[string]value.Value{"attr1": value.String("x"), "attr2": value.Int(4)}).
		WithAttributes("dir/b/2.jpg", map[string]value.Value{"attr2": value.Int(7)}).
		WithFile("dir/b/3.jpg", "").
		WithAttributes("dir/c/1.jpg", one).
		WithFile("dir/c/2.jpg", "").
		WithFile("dir/c/3.jpg", "").
		WithAttributes("dir/c/4.jpg", map[string]value.Value{"attr2": value.Int(6)}).
		WithAttributes("dir/readme.txt", map[string]value.Value{"attr1": value.Real(0.5)}).
		WithFile("dir/notes.txt", "").
		Build()
}
