// Package entity models the files and directories a query runs over.
//
// An entity is identified by its library-relative path. Two entities are the
// same iff their normalized paths (see Key) are equal; attributes never take
// part in identity.
package entity

import (
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/aidanlsb/glance/internal/value"
)

// Entity is a file or directory carrying named attributes.
type Entity interface {
	// Path returns the slash-separated path relative to the library root.
	Path() string
	// Attribute returns the named attribute (case-insensitive) or value.Missing.
	Attribute(name string) value.Value
}

// FileInfoer is implemented by entities that know their file-system metadata.
type FileInfoer interface {
	Info() fs.FileInfo
}

// Loader turns a walked path into an entity with its attributes.
type Loader interface {
	Load(path string, info fs.FileInfo) (Entity, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(path string, info fs.FileInfo) (Entity, error)

// Load calls f.
func (f LoaderFunc) Load(path string, info fs.FileInfo) (Entity, error) { return f(path, info) }

// Plain loads entities without attributes.
var Plain Loader = LoaderFunc(func(path string, info fs.FileInfo) (Entity, error) {
	return New(path, nil, info), nil
})

type attribute struct {
	name  string
	value value.Value
}

// File is the concrete Entity used throughout glance.
type File struct {
	path  string
	attrs map[string]attribute
	info  fs.FileInfo
}

// New creates an entity. Null attribute values are dropped; info may be nil.
func New(p string, attrs map[string]value.Value, info fs.FileInfo) *File {
	f := &File{path: CleanPath(p), info: info}
	if len(attrs) > 0 {
		f.attrs = make(map[string]attribute, len(attrs))
		for name, v := range attrs {
			if v.IsNull() {
				continue
			}
			f.attrs[FoldName(name)] = attribute{name: name, value: v}
		}
	}
	return f
}

// Path implements Entity.
func (f *File) Path() string { return f.path }

// Attribute implements Entity.
func (f *File) Attribute(name string) value.Value {
	if a, ok := f.attrs[FoldName(name)]; ok {
		return a.value
	}
	return value.Missing
}

// Info returns the file metadata captured when the entity was loaded, or nil.
func (f *File) Info() fs.FileInfo { return f.info }

// AttributeNames returns the attribute names in their original spelling, sorted.
func (f *File) AttributeNames() []string {
	names := make([]string, 0, len(f.attrs))
	for _, a := range f.attrs {
		names = append(names, a.name)
	}
	sort.Strings(names)
	return names
}

// CleanPath converts p to a cleaned, slash-separated relative form.
func CleanPath(p string) string {
	p = path.Clean(filepath.ToSlash(p))
	p = strings.TrimPrefix(p, "./")
	if p == "." {
		return ""
	}
	return p
}

// FoldName case-folds an attribute or function name.
func FoldName(name string) string {
	return cases.Fold().String(name)
}

// Key returns the normalized identity of a path: cleaned, NFC-normalized and
// case-folded.
func Key(p string) string {
	return cases.Fold().String(norm.NFC.String(CleanPath(p)))
}

// Same reports whether a and b denote the same path.
func Same(a, b Entity) bool {
	return Key(a.Path()) == Key(b.Path())
}

// KeySet is a set of entity identities.
type KeySet map[string]struct{}

// Add inserts e and reports whether it was not yet present.
func (s KeySet) Add(e Entity) bool {
	k := Key(e.Path())
	if _, ok := s[k]; ok {
		return false
	}
	s[k] = struct{}{}
	return true
}

// Has reports whether an entity with e's identity is in the set.
func (s KeySet) Has(e Entity) bool {
	_, ok := s[Key(e.Path())]
	return ok
}
