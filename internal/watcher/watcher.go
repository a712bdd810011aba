// Package watcher imports question bank exports dropped into a directory.
//
// It is used by `qbank watch`: every *.json file created or rewritten in the
// drop directory is imported into one subject once writes to it settle.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/quizbank/qbank/internal/importer"
	"github.com/quizbank/qbank/internal/logging"
)

// DefaultDebounce is how long a file must stay unchanged before it is
// imported.
const DefaultDebounce = 500 * time.Millisecond

// Importer imports one file into a subject.
type Importer interface {
	ProcessFile(sourcePath, subject string) (importer.Result, error)
}

// Config holds configuration options for the Watcher.
type Config struct {
	Dir           string
	Subject       string
	Importer      Importer
	DebounceDelay time.Duration
	// ImportExisting imports the *.json files already in Dir on Start.
	ImportExisting bool
	Logger         *slog.Logger
	// OnImport is called after every import attempt.
	OnImport func(path string, res importer.Result, err error)
}

// Watcher monitors a drop directory.
type Watcher struct {
	dir            string
	subject        string
	importer       Importer
	debounceDelay  time.Duration
	importExisting bool
	logger         *slog.Logger
	onImport       func(path string, res importer.Result, err error)

	fsWatcher *fsnotify.Watcher
	pending   map[string]time.Time
	mu        sync.Mutex
}

// New creates a Watcher with the given configuration.
func New(cfg Config) (*Watcher, error) {
	if cfg.Dir == "" {
		return nil, errors.New("watch directory is required")
	}
	if strings.TrimSpace(cfg.Subject) == "" {
		return nil, errors.New("subject is required")
	}
	if cfg.Importer == nil {
		return nil, errors.New("importer is required")
	}
	info, err := os.Stat(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("watch directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch directory: %s is not a directory", cfg.Dir)
	}

	debounce := cfg.DebounceDelay
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	return &Watcher{
		dir:            cfg.Dir,
		subject:        cfg.Subject,
		importer:       cfg.Importer,
		debounceDelay:  debounce,
		importExisting: cfg.ImportExisting,
		logger:         logger.With(slog.String("dir", cfg.Dir), slog.String("subject", cfg.Subject)),
		onImport:       cfg.OnImport,
		pending:        make(map[string]time.Time),
	}, nil
}

// Start watches the directory until ctx is cancelled. Cancellation is the
// normal way to stop and returns nil.
func (w *Watcher) Start(ctx context.Context) error {
	var err error
	w.fsWatcher, err = fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer w.fsWatcher.Close()

	if err := w.fsWatcher.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	w.logger.Debug("watching drop directory")

	if w.importExisting {
		existing, err := ExistingFiles(w.dir)
		if err != nil {
			return err
		}
		for _, path := range existing {
			w.schedule(path, time.Time{})
		}
	}

	go w.processDebounced(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("watch stopped")
			return nil

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", slog.String("error", err.Error()))
		}
	}
}

// ExistingFiles lists the importable files in dir in name order.
func ExistingFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		if !e.IsDir() && IsCandidate(path) {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// IsCandidate reports whether path looks like a finished question bank
// export: a visible *.json file that is not an editor or download temp file.
func IsCandidate(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasPrefix(base, "~") {
		return false
	}
	return strings.EqualFold(filepath.Ext(base), ".json")
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name
	if !IsCandidate(path) {
		return
	}

	switch {
	case event.Op&fsnotify.Write != 0, event.Op&fsnotify.Create != 0:
		w.schedule(path, time.Now())
	case event.Op&fsnotify.Remove != 0, event.Op&fsnotify.Rename != 0:
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
	}
}

// schedule queues path for import; a later event for the same path restarts
// its debounce period.
func (w *Watcher) schedule(path string, at time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[path] = at
}

func (w *Watcher) processDebounced(ctx context.Context) {
	ticker := time.NewTicker(50 * time.Millisecond)
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

// processPending imports the files whose debounce period has elapsed, in
// name order, one at a time.
func (w *Watcher) processPending(now time.Time) {
	w.mu.Lock()
	var ready []string
	for path, scheduledAt := range w.pending {
		if now.Sub(scheduledAt) >= w.debounceDelay {
			ready = append(ready, path)
			delete(w.pending, path)
		}
	}
	w.mu.Unlock()
	sort.Strings(ready)

	for _, path := range ready {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			continue
		}
		res, err := w.importer.ProcessFile(path, w.subject)
		if w.onImport != nil {
			w.onImport(path, res, err)
		}
		switch {
		case err != nil:
			w.logger.Error("import failed", slog.String("file", path), slog.String("error", err.Error()))
		case !res.Success:
			w.logger.Info("import rejected", slog.String("file", path), slog.String("reason", res.Message))
		default:
			w.logger.Info("imported", slog.String("file", path), slog.Int("chapters", len(res.Chapters)))
		}
	}
}
