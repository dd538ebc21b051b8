package frontend

import (
	"context"
	"io/fs"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/rennerdo30/taqyon/internal/logging"
	"github.com/rennerdo30/taqyon/internal/util"
)

// DefaultDebounce collapses the burst of writes a frontend build produces.
const DefaultDebounce = 300 * time.Millisecond

// Watcher reports changes below a local frontend directory so the web view
// can reload after a rebuild.
type Watcher struct {
	dir      string
	debounce time.Duration
	onChange func(path string)

	mu    sync.Mutex
	timer *time.Timer
	last  string
}

// NewWatcher creates a watcher for dir. onChange receives the last changed
// path of each debounced burst.
func NewWatcher(dir string, debounce time.Duration, onChange func(path string)) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		dir:      dir,
		debounce: debounce,
		onChange: onChange,
	}
}

// Run watches until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return util.WrapError(err, "create frontend watcher")
	}
	defer fw.Close()

	if err := w.addTree(fw, w.dir); err != nil {
		return err
	}

	log := logging.WithComponent("frontend")
	log.Info("watching frontend for changes", "dir", w.dir)

	defer w.stopTimer()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				// New build output directories must be watched too.
				if err := w.addTree(fw, event.Name); err != nil {
					log.Debug("could not watch new path", "path", event.Name, "error", err)
				}
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				w.schedule(event.Name)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.Warn("frontend watcher error", "error", err)
		}
	}
}

func (w *Watcher) addTree(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return util.WrapErrorf(err, "watch %s", root)
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if err := fw.Add(path); err != nil {
			return util.WrapErrorf(err, "watch %s", path)
		}
		return nil
	})
}

func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.last = path
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.fire)
}

func (w *Watcher) fire() {
	w.mu.Lock()
	path := w.last
	w.timer = nil
	w.mu.Unlock()

	if w.onChange != nil {
		w.onChange(path)
	}
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}
