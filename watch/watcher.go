// Package watch re-exports models when their files change.
package watch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

// DefaultPatterns select model snapshots anywhere below the root.
var DefaultPatterns = []string{"**/*.{yaml,yml,json}"}

// Config configures the watcher.
type Config struct {
	// Root is the directory to watch.
	Root string

	// Patterns are doublestar globs, relative to Root, selecting the
	// model files to watch.
	Patterns []string

	// Debounce is how long changes are collected before they are emitted.
	Debounce time.Duration

	Logger *slog.Logger
}

// Operation is the kind of change seen on a model file.
type Operation string

const (
	OpCreate Operation = "create"
	OpModify Operation = "modify"
	OpDelete Operation = "delete"
)

// Event reports a settled change to one model file.
type Event struct {
	// Path is the absolute path of the model file.
	Path      string
	Operation Operation
}

// Watcher watches a directory tree for model file changes.
type Watcher struct {
	config  Config
	root    string
	watcher *fsnotify.Watcher
	logger  *slog.Logger

	pendingMu sync.Mutex
	pending   map[string]fsnotify.Op

	hashMu sync.Mutex
	hashes map[string]string

	events   chan Event
	done     chan struct{}
	started  atomic.Bool
	stopOnce sync.Once
}

// NewWatcher creates a watcher. Patterns are validated up front.
func NewWatcher(config Config) (*Watcher, error) {
	if len(config.Patterns) == 0 {
		config.Patterns = DefaultPatterns
	}
	for _, p := range config.Patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, &PatternError{Pattern: p}
		}
	}
	if config.Debounce <= 0 {
		config.Debounce = 500 * time.Millisecond
	}
	if config.Root == "" {
		config.Root = "."
	}
	root, err := filepath.Abs(config.Root)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Watcher{
		config:  config,
		root:    root,
		watcher: fsw,
		logger:  logger,
		pending: make(map[string]fsnotify.Op),
		hashes:  make(map[string]string),
		events:  make(chan Event, 100),
		done:    make(chan struct{}),
	}, nil
}

// PatternError reports an invalid watch pattern.
type PatternError struct {
	Pattern string
}

func (e *PatternError) Error() string {
	return "invalid watch pattern: " + e.Pattern
}

// Events returns the channel of settled changes. It is closed when the
// watcher stops.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Root returns the absolute watched directory.
func (w *Watcher) Root() string {
	return w.root
}

// Start adds watches below the root, records the current content of every
// matching file and begins emitting events.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addWatchesRecursive(w.root); err != nil {
		return err
	}

	w.started.Store(true)
	go w.processEvents(ctx)

	w.logger.Info("File watcher started",
		"root", w.root,
		"patterns", w.config.Patterns,
		"debounce", w.config.Debounce)
	return nil
}

// Stop stops the watcher and closes the event channel.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		err = w.watcher.Close()
		if w.started.Load() {
			<-w.done
			return
		}
		close(w.events)
	})
	return err
}

// Match reports whether path, absolute or relative to the root, selects a
// watched model file.
func (w *Watcher) Match(path string) bool {
	rel := path
	if filepath.IsAbs(path) {
		r, err := filepath.Rel(w.root, path)
		if err != nil || strings.HasPrefix(r, "..") {
			return false
		}
		rel = r
	}
	rel = filepath.ToSlash(rel)
	if strings.HasPrefix(filepath.Base(rel), ".") {
		return false
	}
	for _, p := range w.config.Patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

func skipDir(path string) bool {
	base := filepath.Base(path)
	return base == "vendor" || base == "node_modules" || (strings.HasPrefix(base, ".") && base != ".")
}

func (w *Watcher) addWatchesRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			if w.Match(path) {
				if hash, err := fileHash(path); err == nil {
					w.setHash(path, hash)
				}
			}
			return nil
		}
		if path != root && skipDir(path) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			w.logger.Warn("Failed to watch directory", "path", path, "error", err)
		} else {
			w.logger.Debug("Watching directory", "path", path)
		}
		return nil
	})
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer close(w.done)
	defer close(w.events)

	ticker := time.NewTicker(w.config.Debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFSEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Watcher error", "error", err)

		case <-ticker.C:
			w.flushPending(ctx)
		}
	}
}

func (w *Watcher) handleFSEvent(event fsnotify.Event) {
	path := event.Name

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if !skipDir(path) {
				if err := w.addWatchesRecursive(path); err != nil {
					w.logger.Warn("Failed to watch new directory", "path", path, "error", err)
				}
			}
			return
		}
	}
	if !w.Match(path) {
		return
	}

	w.pendingMu.Lock()
	w.pending[path] |= event.Op
	w.pendingMu.Unlock()

	w.logger.Debug("Model change detected", "path", path, "op", event.Op.String())
}

func (w *Watcher) flushPending(ctx context.Context) {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}
	toProcess := w.pending
	w.pending = make(map[string]fsnotify.Op)
	w.pendingMu.Unlock()

	for path, op := range toProcess {
		if ctx.Err() != nil {
			return
		}

		hash, err := fileHash(path)
		if errors.Is(err, os.ErrNotExist) {
			if w.forget(path) {
				w.sendEvent(Event{Path: path, Operation: OpDelete})
			}
			continue
		}
		if err != nil {
			w.logger.Warn("Failed to read changed model", "path", path, "error", err)
			continue
		}

		old, known := w.hash(path)
		if known && old == hash {
			continue
		}
		w.setHash(path, hash)

		operation := OpModify
		if op.Has(fsnotify.Create) || !known {
			operation = OpCreate
		}
		w.sendEvent(Event{Path: path, Operation: operation})
	}
}

func (w *Watcher) sendEvent(event Event) {
	select {
	case w.events <- event:
		w.logger.Debug("Sent watch event", "path", event.Path, "op", event.Operation)
	default:
		w.logger.Warn("Event channel full, dropping event", "path", event.Path)
	}
}

func (w *Watcher) hash(path string) (string, bool) {
	w.hashMu.Lock()
	defer w.hashMu.Unlock()
	h, ok := w.hashes[path]
	return h, ok
}

func (w *Watcher) setHash(path, hash string) {
	w.hashMu.Lock()
	defer w.hashMu.Unlock()
	w.hashes[path] = hash
}

func (w *Watcher) forget(path string) bool {
	w.hashMu.Lock()
	defer w.hashMu.Unlock()
	_, ok := w.hashes[path]
	delete(w.hashes, path)
	return ok
}

func fileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
