// Package watcher reports changes below a library root in debounced batches.
//
// It backs `glance watch`, which re-runs a query whenever the tree changes.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/aidanlsb/glance/internal/entity"
	"github.com/aidanlsb/glance/internal/pattern"
)

// Remover drops the stored attributes of a path and of every path below it.
type Remover interface {
	Remove(path string) (int, error)
}

// Batch is one debounced set of changes, as library-relative paths.
type Batch struct {
	Changed []string
	Removed []string
}

// Watcher monitors a library directory.
type Watcher struct {
	root    string
	skip    []string
	remover Remover
	logger  *slog.Logger

	debounceDelay time.Duration
	onBatch       func(Batch)

	fsWatcher *fsnotify.Watcher
	pending   map[string]pendingChange
	mu        sync.Mutex
}

type pendingChange struct {
	at      time.Time
	removed bool
}

// Config holds configuration options for the Watcher.
type Config struct {
	Root string
	// Skip lists directory names that are not watched, in addition to the
	// data directory.
	Skip []string
	// Remover, when set, receives the paths of removed entities so their
	// attributes are dropped.
	Remover       Remover
	DebounceDelay time.Duration // Default: 200ms
	Logger        *slog.Logger
	OnBatch       func(Batch)
}

// New creates a new Watcher with the given configuration.
func New(cfg Config) (*Watcher, error) {
	if cfg.Root == "" {
		return nil, fmt.Errorf("library root is required")
	}
	if cfg.OnBatch == nil {
		return nil, fmt.Errorf("batch callback is required")
	}

	debounce := cfg.DebounceDelay
	if debounce == 0 {
		debounce = 200 * time.Millisecond
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Watcher{
		root:          cfg.Root,
		skip:          cfg.Skip,
		remover:       cfg.Remover,
		logger:        logger,
		debounceDelay: debounce,
		onBatch:       cfg.OnBatch,
		pending:       make(map[string]pendingChange),
	}, nil
}

// Start begins watching the library. It blocks until the context is
// cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	var err error
	w.fsWatcher, err = fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer w.fsWatcher.Close()

	if err := w.addWatchRecursive(w.root); err != nil {
		return fmt.Errorf("failed to watch library: %w", err)
	}
	w.logger.Debug("watching library", "path", w.root)

	go w.processDebounced(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	rel, ok := w.relative(event.Name)
	if !ok || w.shouldIgnore(rel) {
		return
	}
	w.logger.Debug("file event", "op", event.Op.String(), "path", rel)

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			w.addWatchRecursive(event.Name)
		}
	}
	// A rename reports the old name; the entity is gone from there but its
	// attributes are kept for `glance prune` to decide.
	w.schedule(rel, event.Has(fsnotify.Remove))
}

func (w *Watcher) schedule(path string, removed bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[path] = pendingChange{at: time.Now(), removed: removed}
}

func (w *Watcher) processDebounced(ctx context.Context) {
	ticker := time.NewTicker(w.debounceDelay / 4)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.processPending(time.Now())
		}
	}
}

// processPending emits one batch once no change arrived for the debounce
// delay.
func (w *Watcher) processPending(now time.Time) {
	w.mu.Lock()
	if len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	for _, c := range w.pending {
		if now.Sub(c.at) < w.debounceDelay {
			w.mu.Unlock()
			return
		}
	}
	var batch Batch
	for path, c := range w.pending {
		if c.removed {
			batch.Removed = append(batch.Removed, path)
		} else {
			batch.Changed = append(batch.Changed, path)
		}
	}
	w.pending = make(map[string]pendingChange)
	w.mu.Unlock()

	sort.Strings(batch.Changed)
	sort.Strings(batch.Removed)
	w.dropRemoved(batch.Removed)
	w.onBatch(batch)
}

func (w *Watcher) dropRemoved(paths []string) {
	if w.remover == nil {
		return
	}
	for _, p := range paths {
		// The path may have been recreated within the debounce window.
		if _, err := os.Lstat(filepath.Join(w.root, filepath.FromSlash(p))); !errors.Is(err, fs.ErrNotExist) {
			continue
		}
		n, err := w.remover.Remove(p)
		if err != nil {
			w.logger.Warn("failed to drop attributes", "path", p, "error", err)
			continue
		}
		if n > 0 {
			w.logger.Info("dropped attributes of removed entity", "path", p, "count", n)
		}
	}
}

func (w *Watcher) addWatchRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && w.shouldIgnoreDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.fsWatcher.Add(path); err != nil {
			w.logger.Debug("failed to watch directory", "path", path, "error", err)
		}
		return nil
	})
}

func (w *Watcher) relative(path string) (string, bool) {
	rel, err := filepath.Rel(w.root, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return entity.CleanPath(filepath.ToSlash(rel)), true
}

func (w *Watcher) shouldIgnore(rel string) bool {
	for _, part := range strings.Split(rel, "/") {
		if w.shouldIgnoreDir(part) {
			return true
		}
	}
	return false
}

func (w *Watcher) shouldIgnoreDir(name string) bool {
	if name == pattern.DataDir || name == ".git" {
		return true
	}
	for _, s := range w.skip {
		if strings.EqualFold(s, name) {
			return true
		}
	}
	return false
}
