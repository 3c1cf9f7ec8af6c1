package fs

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Yeint-herp/rex/internal/debug"
)

// Watcher follows a single directory (the browser's current one) and reports
// when its contents change, so cached listings can be invalidated. Events are
// debounced so a burst of writes produces one notification.
type Watcher struct {
	watcher    *fsnotify.Watcher
	mu         sync.Mutex
	dir        string        // currently watched directory, "" if none
	notify     chan string   // changed directory paths
	done       chan struct{} // shutdown signal
	debounceMs int
}

// NewWatcher creates a watcher. debounceMs <= 0 selects the default 200ms.
func NewWatcher(debounceMs int) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounceMs <= 0 {
		debounceMs = 200
	}

	dw := &Watcher{
		watcher:    w,
		notify:     make(chan string, 10),
		done:       make(chan struct{}),
		debounceMs: debounceMs,
	}
	go dw.run()
	return dw, nil
}

// run processes filesystem events with debouncing. The notify channel closes
// when the loop exits so consumers ranging over it terminate on Close.
func (dw *Watcher) run() {
	defer close(dw.notify)

	var (
		lastEvent time.Time
		pending   string // directory with an undelivered change, "" if none
	)
	debounce := time.Duration(dw.debounceMs) * time.Millisecond
	ticker := time.NewTicker(debounce)
	defer ticker.Stop()

	for {
		select {
		case <-dw.done:
			return

		case event, ok := <-dw.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) &&
				!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Write) {
				continue
			}

			// fsnotify reports the changed file's full path; the watched
			// directory is its parent, unless the directory itself changed.
			parent := filepath.Dir(event.Name)

			dw.mu.Lock()
			dir := dw.dir
			dw.mu.Unlock()

			if dir != "" && (parent == dir || event.Name == dir) {
				lastEvent = time.Now()
				pending = dir
				debug.Log(debug.FS, "watcher: %s on %s", event.Op, event.Name)
			}

		case err, ok := <-dw.watcher.Errors:
			if !ok {
				return
			}
			debug.Log(debug.FS, "watcher error: %v", err)

		case <-ticker.C:
			if pending == "" || time.Since(lastEvent) < debounce {
				continue
			}
			select {
			case dw.notify <- pending:
				debug.Log(debug.FS, "watcher: change notification for %s", pending)
			default:
				// Channel full, consumer will refresh anyway
			}
			pending = ""
		}
	}
}

// Watch switches the watched directory, replacing any previous one.
func (dw *Watcher) Watch(dir string) error {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	if dw.dir == dir {
		return nil
	}
	if dw.dir != "" {
		// Path may already be gone; nothing to do about a failed remove.
		if err := dw.watcher.Remove(dw.dir); err != nil {
			debug.Log(debug.FS, "watcher: remove %s: %v", dw.dir, err)
		}
		dw.dir = ""
	}
	if err := dw.watcher.Add(dir); err != nil {
		return err
	}
	dw.dir = dir
	debug.Log(debug.FS, "watcher: now watching %s", dir)
	return nil
}

// Notify returns the channel that receives directory change notifications.
// It is closed when the watcher shuts down.
func (dw *Watcher) Notify() <-chan string {
	return dw.notify
}

// Close shuts down the watcher and closes the notify channel.
func (dw *Watcher) Close() error {
	close(dw.done)
	return dw.watcher.Close()
}
