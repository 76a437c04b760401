package sandbox

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const debounceDelay = 300 * time.Millisecond

// Watcher reports changes below the sandbox root, whoever made them.
type Watcher struct {
	root     string
	watcher  *fsnotify.Watcher
	mu       sync.Mutex
	debounce map[string]*time.Timer
	logger   *slog.Logger

	// OnChange, when set, is called once per debounced path.
	OnChange func(path string, op fsnotify.Op)
}

func NewWatcher(root string) *Watcher {
	return &Watcher{root: root, debounce: make(map[string]*time.Timer)}
}

func (w *Watcher) SetLogger(logger *slog.Logger) {
	w.logger = logger
}

// Start blocks until ctx is done or the underlying watcher closes.
func (w *Watcher) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.watcher = watcher
	if err := w.addRecursive(w.root); err != nil {
		_ = watcher.Close()
		return err
	}
	w.logInfo("root_watch_started", "root", w.root)

	for {
		select {
		case <-ctx.Done():
			w.stopTimers()
			_ = w.watcher.Close()
			return ctx.Err()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = w.addRecursive(event.Name)
				}
			}
			if relevant(event) {
				w.schedule(event.Name, event.Op)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logError("root_watch_error", "error", err)
		}
	}
}

func (w *Watcher) addRecursive(dir string) error {
	if _, err := os.Stat(dir); err != nil {
		return err
	}
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			// Entries vanish between listing and watching; skip them.
			return nil
		}
		if d.IsDir() {
			return w.watcher.Add(path)
		}
		return nil
	})
}

func relevant(event fsnotify.Event) bool {
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
		event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
}

func (w *Watcher) schedule(path string, op fsnotify.Op) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if timer, ok := w.debounce[path]; ok {
		timer.Stop()
	}
	w.debounce[path] = time.AfterFunc(debounceDelay, func() {
		w.mu.Lock()
		delete(w.debounce, path)
		w.mu.Unlock()

		rel, err := filepath.Rel(w.root, path)
		if err != nil {
			rel = path
		}
		w.logInfo("external_change", "path", rel, "op", op.String())
		if w.OnChange != nil {
			w.OnChange(path, op)
		}
	})
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, timer := range w.debounce {
		timer.Stop()
		delete(w.debounce, path)
	}
}

func (w *Watcher) logInfo(msg string, args ...any) {
	if w.logger != nil {
		w.logger.Info(msg, args...)
	}
}

func (w *Watcher) logError(msg string, args ...any) {
	if w.logger != nil {
		w.logger.Error(msg, args...)
	}
}
