package pattern

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/aidanlsb/glance/internal/entity"
	"github.com/aidanlsb/glance/internal/testutil"
)

func TestParseErrors(t *testing.T) {
	tests := []string{
		"",
		"   ",
		"/abs/path",
		"dir/../x",
		"dir/a**b",
		"dir/[a",
		".",
	}
	for _, text := range tests {
		t.Run(text, func(t *testing.T) {
			_, err := Parse(text)
			if err == nil {
				t.Fatalf("Parse(%q) succeeded, want error", text)
			}
			if !errors.Is(err, ErrInvalidPattern) {
				t.Errorf("error %v does not wrap ErrInvalidPattern", err)
			}
		})
	}
}

func TestBaseAndDepth(t *testing.T) {
	tests := []struct {
		text  string
		base  string
		depth int
	}{
		{"dir/**", "dir", -1},
		{"dir/a", "dir", 1},
		{"*.jpg", "", 1},
		{"photos/2024/*/*.jpg", "photos/2024", 2},
		{"./dir//a/", "dir", 1},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			p, err := Parse(tt.text)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if p.Base() != tt.base {
				t.Errorf("Base = %q, want %q", p.Base(), tt.base)
			}
			if p.MaxDepth() != tt.depth {
				t.Errorf("MaxDepth = %d, want %d", p.MaxDepth(), tt.depth)
			}
		})
	}
}

func TestMatch(t *testing.T) {
	tests := []struct {
		pattern string
		path    string
		want    bool
	}{
		{"dir/**", "dir/a", true},
		{"dir/**", "dir/a/b/c.jpg", true},
		{"dir/**", "dir", false},
		{"dir/**", "other/a", false},
		{"dir/a", "dir/a", true},
		{"dir/a", "DIR/A", true},
		{"dir/a", "dir/a/b", false},
		{"**/*.jpg", "x/y/z.JPG", true},
		{"**/*.jpg", "z.jpg", true},
		{"dir/*/x.jpg", "dir/a/x.jpg", true},
		{"dir/*/x.jpg", "dir/a/b/x.jpg", false},
		{"dir/**/x.jpg", "dir/x.jpg", true},
		{"dir/[ab]?.txt", "dir/b1.txt", true},
	}
	for _, tt := range tests {
		t.Run(tt.pattern+"~"+tt.path, func(t *testing.T) {
			p, err := Parse(tt.pattern)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if got := p.Match(tt.path); got != tt.want {
				t.Errorf("Match(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func collect(t *testing.T, src *Source, text string) []string {
	t.Helper()
	m, err := src.Pattern(text)
	if err != nil {
		t.Fatalf("Pattern(%q): %v", text, err)
	}
	var out []entity.Entity
	for e := range m.Entities(context.Background()) {
		if !m.Match(e) {
			t.Errorf("enumerated %s but Match is false", e.Path())
		}
		out = append(out, e)
	}
	return testutil.Paths(out)
}

func TestSourceEntities(t *testing.T) {
	lib := testutil.ScenarioLibrary(t)
	src := NewSource(lib.Path, lib.Loader())

	if got := collect(t, src, "dir/**"); len(got) != 19 {
		t.Errorf("dir/** returned %d entities, want 19: %v", len(got), got)
	}

	got := collect(t, src, "dir/*/*.jpg")
	want := []string{
		"dir/a/1.jpg", "dir/a/2.jpg", "dir/a/3.jpg", "dir/a/4.jpg",
		"dir/b/1.jpg", "dir/b/2.jpg", "dir/b/3.jpg",
		"dir/c/1.jpg", "dir/c/2.jpg", "dir/c/3.jpg", "dir/c/4.jpg",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("dir/*/*.jpg mismatch (-want +got):\n%s", diff)
	}

	if got := collect(t, src, "dir/a"); !cmp.Equal(got, []string{"dir/a"}) {
		t.Errorf("literal pattern returned %v", got)
	}
	if got := collect(t, src, "missing/**"); len(got) != 0 {
		t.Errorf("missing base returned %v", got)
	}
}

func TestSourceSkipsDirectories(t *testing.T) {
	lib := testutil.NewTestLibrary(t).
		WithFile("a.jpg", "").
		WithFile(".glance/index.db", "").
		WithFile("Trash/b.jpg", "").
		Build()
	src := NewSource(lib.Path, nil, "trash")

	if diff := cmp.Diff([]string{"a.jpg"}, collect(t, src, "**")); diff != "" {
		t.Errorf("skip mismatch (-want +got):\n%s", diff)
	}
}

func TestSourceStopsEarly(t *testing.T) {
	lib := testutil.ScenarioLibrary(t)
	m, err := NewSource(lib.Path, nil).Pattern("dir/**")
	if err != nil {
		t.Fatal(err)
	}
	n := 0
	for range m.Entities(context.Background()) {
		n++
		if n == 3 {
			break
		}
	}
	if n != 3 {
		t.Errorf("consumed %d entities, want 3", n)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for e := range m.Entities(ctx) {
		t.Errorf("cancelled walk yielded %s", e.Path())
	}
}

func TestSourceLoadsAttributes(t *testing.T) {
	lib := testutil.ScenarioLibrary(t)
	m, err := NewSource(lib.Path, lib.Loader()).Pattern("dir/readme.txt")
	if err != nil {
		t.Fatal(err)
	}
	for e := range m.Entities(context.Background()) {
		if e.Attribute("attr1").IsNull() {
			t.Errorf("%s: attr1 not loaded", e.Path())
		}
		if fi, ok := e.(entity.FileInfoer); !ok || fi.Info() == nil {
			t.Errorf("%s: file info missing", e.Path())
		}
	}
}

func TestSourceIgnoresCaseOfBase(t *testing.T) {
	lib := testutil.NewTestLibrary(t).
		WithFile("dir/Photos/x.jpg", "").
		WithFile("dir/Photos/y.txt", "").
		WithFile("other/z.jpg", "").
		Build()
	src := NewSource(lib.Path, nil)

	tests := []struct {
		pattern string
		want    []string
	}{
		{"DIR/**", []string{"dir/Photos", "dir/Photos/x.jpg", "dir/Photos/y.txt"}},
		{"Dir/photos/*.JPG", []string{"dir/Photos/x.jpg"}},
		{"dir/PHOTOS/y.txt", []string{"dir/Photos/y.txt"}},
		{"DIR/missing/*", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			got := collect(t, src, tt.pattern)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("entities mismatch (-want +got):\n%s", diff)
			}

			m, err := src.Pattern(tt.pattern)
			if err != nil {
				t.Fatal(err)
			}
			for _, p := range []string{"dir/Photos", "dir/Photos/x.jpg", "dir/Photos/y.txt", "other/z.jpg"} {
				listed := slices.Contains(got, p)
				if matched := m.Match(entity.New(p, nil, nil)); matched != listed {
					t.Errorf("Match(%s) = %v, enumerated = %v", p, matched, listed)
				}
			}
		})
	}
}

