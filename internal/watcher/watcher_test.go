package watcher

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

type fakeRemover struct {
	removed []string
}

func (f *fakeRemover) Remove(path string) (int, error) {
	f.removed = append(f.removed, path)
	return 1, nil
}

func newTestWatcher(t *testing.T, root string, remover Remover, batches *[]Batch) *Watcher {
	t.Helper()
	cfg := Config{
		Root:          root,
		Skip:          []string{"node_modules"},
		DebounceDelay: 100 * time.Millisecond,
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		OnBatch:       func(b Batch) { *batches = append(*batches, b) },
	}
	if remover != nil {
		cfg.Remover = remover
	}
	w, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return w
}

func TestNewRequiresRootAndCallback(t *testing.T) {
	if _, err := New(Config{OnBatch: func(Batch) {}}); err == nil {
		t.Error("expected an error without a root")
	}
	if _, err := New(Config{Root: t.TempDir()}); err == nil {
		t.Error("expected an error without a callback")
	}
}

func TestProcessPendingDebounces(t *testing.T) {
	root := t.TempDir()
	var batches []Batch
	w := newTestWatcher(t, root, nil, &batches)

	base := time.Now()
	w.pending["b.jpg"] = pendingChange{at: base}
	w.pending["a.jpg"] = pendingChange{at: base.Add(50 * time.Millisecond)}
	w.pending["gone.jpg"] = pendingChange{at: base, removed: true}

	// a.jpg changed too recently: nothing is emitted yet.
	w.processPending(base.Add(120 * time.Millisecond))
	if len(batches) != 0 {
		t.Fatalf("emitted %d batches before the tree was quiet", len(batches))
	}

	w.processPending(base.Add(200 * time.Millisecond))
	want := []Batch{{Changed: []string{"a.jpg", "b.jpg"}, Removed: []string{"gone.jpg"}}}
	if diff := cmp.Diff(want, batches); diff != "" {
		t.Errorf("batches mismatch (-want +got):\n%s", diff)
	}
	if len(w.pending) != 0 {
		t.Errorf("pending not cleared: %v", w.pending)
	}

	w.processPending(base.Add(time.Second))
	if len(batches) != 1 {
		t.Errorf("empty queue emitted a batch")
	}
}

func TestDropRemovedSkipsRecreatedPaths(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "back.jpg"), nil, 0644); err != nil {
		t.Fatal(err)
	}
	var batches []Batch
	remover := &fakeRemover{}
	w := newTestWatcher(t, root, remover, &batches)

	w.dropRemoved([]string{"back.jpg", "gone.jpg"})
	if diff := cmp.Diff([]string{"gone.jpg"}, remover.removed); diff != "" {
		t.Errorf("removed mismatch (-want +got):\n%s", diff)
	}
}

func TestShouldIgnore(t *testing.T) {
	w := newTestWatcher(t, t.TempDir(), nil, new([]Batch))
	tests := map[string]bool{
		"photos/a.jpg":            false,
		".glance/index.db":        true,
		".git/HEAD":               true,
		"web/Node_Modules/x/y.js": true,
		"docs/node_modules.txt":   false,
	}
	for path, want := range tests {
		if got := w.shouldIgnore(path); got != want {
			t.Errorf("shouldIgnore(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestRelative(t *testing.T) {
	root := t.TempDir()
	w := newTestWatcher(t, root, nil, new([]Batch))

	if rel, ok := w.relative(filepath.Join(root, "photos", "a.jpg")); !ok || rel != "photos/a.jpg" {
		t.Errorf("relative = %q, %v", rel, ok)
	}
	if _, ok := w.relative(root); ok {
		t.Error("the root itself is not an entity")
	}
	if _, ok := w.relative(filepath.Dir(root)); ok {
		t.Error("paths outside the root are rejected")
	}
}
