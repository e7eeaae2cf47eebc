// Package reconcile watches the JSONL mirror for local changes and wakes a
// dirty-check/auto-import loop, without any network transport. Grounded on
// the teacher's cmd/bd/daemon_watcher.go FileWatcher (fsnotify with a
// polling fallback, debounced trigger), trimmed to a single watched path —
// this process has no git-ref or multi-repo daemon surface to track.
package reconcile

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Notifier receives diagnostics from the watch loop. internal/logging.Logger
// satisfies this.
type Notifier interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

type noopNotifier struct{}

func (noopNotifier) Debugf(string, ...interface{}) {}
func (noopNotifier) Infof(string, ...interface{})  {}
func (noopNotifier) Warnf(string, ...interface{})  {}
func (noopNotifier) Errorf(string, ...interface{}) {}

const pollInterval = 5 * time.Second
const debounce = 500 * time.Millisecond

// Watcher monitors a single JSONL mirror path and calls onChanged (debounced)
// whenever it is created, written, or replaced. It falls back to polling if
// fsnotify can't be set up, the same way the teacher's daemon watcher does.
type Watcher struct {
	path      string
	parentDir string
	notifier  Notifier
	onChanged func(context.Context)

	fsw     *fsnotify.Watcher
	polling bool

	lastModTime time.Time
	lastExists  bool
	lastSize    int64

	cancel context.CancelFunc
	wg     sync.WaitGroup

	timerMu sync.Mutex
	timer   *time.Timer
}

// New builds a watcher for path. onChanged is invoked (debounced) on the
// provided context whenever the file appears to have changed.
func New(path string, notifier Notifier, onChanged func(context.Context)) *Watcher {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	w := &Watcher{
		path:      path,
		parentDir: filepath.Dir(path),
		notifier:  notifier,
		onChanged: onChanged,
	}
	if stat, err := os.Stat(path); err == nil {
		w.lastModTime = stat.ModTime()
		w.lastExists = true
		w.lastSize = stat.Size()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		notifier.Warnf("reconcile: fsnotify unavailable (%v), falling back to polling", err)
		w.polling = true
		return w
	}
	if err := fsw.Add(w.parentDir); err != nil {
		notifier.Warnf("reconcile: failed to watch %s: %v", w.parentDir, err)
	}
	if err := fsw.Add(path); err != nil && !os.IsNotExist(err) {
		_ = fsw.Close()
		notifier.Warnf("reconcile: failed to watch %s (%v), falling back to polling", path, err)
		w.polling = true
		return w
	}
	w.fsw = fsw
	return w
}

// Start runs the watch loop until ctx is canceled. Safe to call once.
func (w *Watcher) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	if w.polling {
		w.startPolling(ctx)
		return
	}

	base := filepath.Base(w.path)
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			select {
			case ev, ok := <-w.fsw.Events:
				if !ok {
					return
				}
				if ev.Name == filepath.Join(w.parentDir, base) && ev.Op&fsnotify.Create != 0 {
					_ = w.fsw.Add(w.path)
					w.trigger(ctx)
					continue
				}
				if ev.Name == w.path && ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Chmod) != 0 {
					w.notifier.Debugf("reconcile: change detected: %s", ev.Name)
					w.trigger(ctx)
					continue
				}
				if ev.Name == w.path && (ev.Op&fsnotify.Remove != 0 || ev.Op&fsnotify.Rename != 0) {
					w.notifier.Infof("reconcile: %s removed/renamed, re-watching", ev.Name)
					_ = w.fsw.Remove(w.path)
					_ = w.fsw.Add(w.path)
				}
			case err, ok := <-w.fsw.Errors:
				if !ok {
					return
				}
				w.notifier.Errorf("reconcile: watcher error: %v", err)
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (w *Watcher) startPolling(ctx context.Context) {
	w.notifier.Infof("reconcile: polling every %v", pollInterval)
	ticker := time.NewTicker(pollInterval)
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				changed := false
				stat, err := os.Stat(w.path)
				switch {
				case err != nil && os.IsNotExist(err):
					if w.lastExists {
						w.lastExists = false
						changed = true
					}
				case err == nil:
					if !w.lastExists || !stat.ModTime().Equal(w.lastModTime) || stat.Size() != w.lastSize {
						w.lastExists = true
						w.lastModTime = stat.ModTime()
						w.lastSize = stat.Size()
						changed = true
					}
				}
				if changed {
					w.trigger(ctx)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

// trigger debounces onChanged so a burst of writes collapses into one call.
func (w *Watcher) trigger(ctx context.Context) {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(debounce, func() { w.onChanged(ctx) })
}

// Close stops the watch loop and releases resources.
func (w *Watcher) Close() error {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
	w.timerMu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timerMu.Unlock()
	if w.fsw != nil {
		return w.fsw.Close()
	}
	return nil
}
