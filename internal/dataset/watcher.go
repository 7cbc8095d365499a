package dataset

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pmatran/vulnerapp/internal/observability"
)

// defaultRetryInterval is how often missing data directories are looked for.
const defaultRetryInterval = 2 * time.Second

// Watcher reloads the store when one of the CSV exports changes on disk.
type Watcher struct {
	files         Files
	store         *Store
	debounce      time.Duration
	retryInterval time.Duration
	logger        *slog.Logger
	metrics       *observability.Metrics
}

// NewWatcher creates a watcher for the given files.
func NewWatcher(files Files, store *Store, debounce time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Watcher {
	return &Watcher{
		files:         files,
		store:         store,
		debounce:      debounce,
		retryInterval: defaultRetryInterval,
		logger:        logger,
		metrics:       metrics,
	}
}

// Reload loads the exports and installs them. On failure the previous snapshot stays.
func (w *Watcher) Reload() error {
	ds, err := Load(w.files)
	if err != nil {
		w.metrics.DatasetReloads.WithLabelValues("error").Inc()
		return err
	}
	w.store.Replace(ds)
	w.metrics.DatasetReloads.WithLabelValues("success").Inc()
	return nil
}

// Run watches the directories holding the exports until ctx is cancelled.
// Directories are watched rather than files so atomic replace-by-rename is seen.
// A directory that does not exist yet is polled for and, once it appears,
// watched and reloaded from.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer fsw.Close()

	var pending []string
	for _, dir := range w.dirs() {
		added, err := addDir(fsw, dir)
		if err != nil {
			return err
		}
		if !added {
			w.logger.Warn("data directory missing, waiting for it", "dir", dir, "retry", w.retryInterval)
			pending = append(pending, dir)
		}
	}

	watched := make(map[string]bool)
	for _, p := range []string{w.files.Levels, w.files.Flows, w.files.Predictions} {
		watched[filepath.Clean(p)] = true
	}

	w.logger.Info("dataset watcher started", "dirs", w.dirs(), "debounce", w.debounce)

	var (
		timer   *time.Timer
		timerCh <-chan time.Time
		retryCh <-chan time.Time
	)
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(w.debounce)
		} else {
			timer.Reset(w.debounce)
		}
		timerCh = timer.C
	}
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	if len(pending) > 0 {
		ticker := time.NewTicker(w.retryInterval)
		defer ticker.Stop()
		retryCh = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("dataset watcher stopping", "reason", ctx.Err())
			return nil

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !watched[filepath.Clean(ev.Name)] || !relevant(ev.Op) {
				continue
			}
			w.logger.Debug("dataset file changed", "file", ev.Name, "op", ev.Op.String())
			schedule()

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watcher error", "error", err)

		case <-retryCh:
			remaining := pending[:0]
			for _, dir := range pending {
				added, err := addDir(fsw, dir)
				if err != nil {
					return err
				}
				if !added {
					remaining = append(remaining, dir)
					continue
				}
				w.logger.Info("data directory appeared", "dir", dir)
				// Files may have landed before the watch was registered.
				schedule()
			}
			pending = remaining
			if len(pending) == 0 {
				retryCh = nil
			}

		case <-timerCh:
			timerCh = nil
			if err := w.Reload(); err != nil {
				w.logger.Error("dataset reload failed, keeping previous snapshot", "error", err)
				continue
			}
			w.logger.Info("dataset reloaded")
		}
	}
}

// addDir watches dir. It reports false without error when dir does not exist.
func addDir(fsw *fsnotify.Watcher, dir string) (bool, error) {
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err := fsw.Add(dir); err != nil {
		return false, fmt.Errorf("watch %s: %w", dir, err)
	}
	return true, nil
}

func (w *Watcher) dirs() []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range []string{w.files.Levels, w.files.Flows, w.files.Predictions} {
		d := filepath.Dir(filepath.Clean(p))
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	return out
}

func relevant(op fsnotify.Op) bool {
	return op.Has(fsnotify.Write) || op.Has(fsnotify.Create) || op.Has(fsnotify.Rename)
}
