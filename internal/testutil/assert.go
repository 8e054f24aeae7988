package testutil

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// AssertFileExists fails the test if the file does not exist.
func (l *TestLibrary) AssertFileExists(relPath string) {
	l.t.Helper()
	if _, err := os.Stat(filepath.Join(l.Path, filepath.FromSlash(relPath))); os.IsNotExist(err) {
		l.t.Errorf("expected file to exist: %s", relPath)
	}
}

// AssertFileNotExists fails the test if the file exists.
func (l *TestLibrary) AssertFileNotExists(relPath string) {
	l.t.Helper()
	if _, err := os.Stat(filepath.Join(l.Path, filepath.FromSlash(relPath))); err == nil {
		l.t.Errorf("expected file to not exist: %s", relPath)
	}
}

// AssertFileContains fails the test if the file does not contain the substring.
func (l *TestLibrary) AssertFileContains(relPath, substr string) {
	l.t.Helper()
	content := l.ReadFile(relPath)
	if !strings.Contains(content, substr) {
		l.t.Errorf("expected file %s to contain %q, got:\n%s", relPath, substr, content)
	}
}

// AssertQueryPaths runs a query and compares the sorted result paths.
func (l *TestLibrary) AssertQueryPaths(query string, want ...string) {
	l.t.Helper()
	result := l.RunCLI("query", query)
	result.MustSucceed(l.t)

	got := result.ResultPaths()
	sort.Strings(got)
	sort.Strings(want)
	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		l.t.Errorf("query %q paths mismatch (-want +got):\n%s", query, diff)
	}
}

// AssertHasWarning checks that the result contains a warning with the given code.
func (r *CLIResult) AssertHasWarning(t *testing.T, code string) {
	t.Helper()
	for _, w := range r.Warnings {
		if w.Code == code {
			return
		}
	}
	t.Errorf("expected warning with code %s, got warnings: %+v", code, r.Warnings)
}

// AssertNoWarnings checks that the result has no warnings.
func (r *CLIResult) AssertNoWarnings(t *testing.T) {
	t.Helper()
	if len(r.Warnings) > 0 {
		t.Errorf("expected no warnings, got: %+v", r.Warnings)
	}
}

// AssertResultCount checks that a query result has the expected count.
func (r *CLIResult) AssertResultCount(t *testing.T, key string, expected int) {
	t.Helper()
	results := r.DataList(key)
	if len(results) != expected {
		t.Errorf("expected %d %s, got %d\nRaw: %s", expected, key, len(results), r.RawJSON)
	}
}
