// Package app wires the browser core together: navigation history, the
// search engine, autocomplete, and the pin store behind one facade. This is
// the boundary a presentation layer consumes; nothing in here renders.
package app

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/Yeint-herp/rex/internal/complete"
	"github.com/Yeint-herp/rex/internal/config"
	"github.com/Yeint-herp/rex/internal/debug"
	"github.com/Yeint-herp/rex/internal/fs"
	"github.com/Yeint-herp/rex/internal/nav"
	"github.com/Yeint-herp/rex/internal/search"
	"github.com/Yeint-herp/rex/internal/store"
)

// Browser is the facade over the core engines. Navigation and autocomplete
// calls are expected from a single goroutine (the event loop of whatever
// consumes this); search handles may be drained from anywhere.
type Browser struct {
	nav    *nav.Controller
	engine *search.Engine
	pins   store.PinStore
	cfg    config.Config

	mu      sync.Mutex
	listing map[string][]fs.Entry // cached listings keyed by directory

	watcher *fs.Watcher // nil when inotify (or equivalent) is unavailable
}

// NewBrowser starts a session at startDir. The pin store may be empty; on
// first use it is seeded with the home directory and the filesystem root.
func NewBrowser(startDir string, pins store.PinStore, cfg config.Config) (*Browser, error) {
	home, _ := os.UserHomeDir()
	ctrl, err := nav.NewController(startDir, home)
	if err != nil {
		return nil, err
	}
	ctrl.SetMaxHistory(cfg.History.MaxEntries)

	b := &Browser{
		nav:     ctrl,
		engine:  search.NewEngine(cfg.Search.Workers, cfg.Search.ResultBuffer, cfg.Search.MinFuzzy),
		pins:    pins,
		cfg:     cfg,
		listing: make(map[string][]fs.Entry),
	}

	b.seedPins(home)

	if w, werr := fs.NewWatcher(cfg.Watcher.DebounceMs); werr == nil {
		b.watcher = w
		if err := w.Watch(ctrl.Current().Path); err != nil {
			debug.Log(debug.APP, "watch %s: %v", ctrl.Current().Path, err)
		}
		go b.watchLoop()
	} else {
		debug.Log(debug.APP, "watcher unavailable: %v", werr)
	}

	return b, nil
}

// seedPins gives a fresh store the original defaults: home and the OS root.
func (b *Browser) seedPins(home string) {
	existing, err := b.pins.List()
	if err != nil || len(existing) > 0 {
		return
	}
	root := string(filepath.Separator)
	if home != "" {
		if err := b.pins.Add(store.Pin{Path: home, Label: "Home"}); err != nil {
			debug.Log(debug.APP, "seed pin %s: %v", home, err)
		}
	}
	if err := b.pins.Add(store.Pin{Path: root}); err != nil {
		debug.Log(debug.APP, "seed pin %s: %v", root, err)
	}
}

func (b *Browser) watchLoop() {
	for dir := range b.watcher.Notify() {
		debug.Log(debug.APP, "listing invalidated by watcher: %s", dir)
		b.invalidate(dir)
	}
}

func (b *Browser) invalidate(dir string) {
	b.mu.Lock()
	delete(b.listing, dir)
	b.mu.Unlock()
}

// afterTransition applies the navigation side effects: the prior directory's
// cached listing is dropped and the watcher follows the new location.
func (b *Browser) afterTransition(prev, cur fs.Entry) {
	if prev.Path != cur.Path {
		b.invalidate(prev.Path)
	}
	if b.watcher != nil {
		if err := b.watcher.Watch(cur.Path); err != nil {
			debug.Log(debug.APP, "watch %s: %v", cur.Path, err)
		}
	}
}

// NavigateTo changes the current directory. A search rooted outside the new
// location is cancelled; one rooted at it or above keeps running.
func (b *Browser) NavigateTo(path string) (nav.State, error) {
	prev := b.nav.Current()
	st, err := b.nav.NavigateTo(path)
	if err != nil {
		return st, err
	}
	b.engine.CancelUnrelated(st.Current.Path)
	b.afterTransition(prev, st.Current)
	return st, nil
}

// Back moves one step back in history.
func (b *Browser) Back() (nav.State, error) {
	prev := b.nav.Current()
	st, err := b.nav.Back()
	if err != nil {
		return st, err
	}
	b.afterTransition(prev, st.Current)
	return st, nil
}

// Forward moves one step forward in history.
func (b *Browser) Forward() (nav.State, error) {
	prev := b.nav.Current()
	st, err := b.nav.Forward()
	if err != nil {
		return st, err
	}
	b.afterTransition(prev, st.Current)
	return st, nil
}

// Current returns the current directory entry.
func (b *Browser) Current() fs.Entry {
	return b.nav.Current()
}

// CanBack reports whether Back would succeed.
func (b *Browser) CanBack() bool { return b.nav.CanBack() }

// CanForward reports whether Forward would succeed.
func (b *Browser) CanForward() bool { return b.nav.CanForward() }

// Listing returns the current directory's children, served from cache when
// the directory has not changed since the last read.
func (b *Browser) Listing() ([]fs.Entry, error) {
	dir := b.nav.Current().Path

	b.mu.Lock()
	cached, ok := b.listing[dir]
	b.mu.Unlock()
	if ok {
		return cached, nil
	}

	entries, err := fs.List(dir)
	if err != nil {
		return nil, err
	}
	b.mu.Lock()
	b.listing[dir] = entries
	b.mu.Unlock()
	return entries, nil
}

// Suggest returns ranked completions for partial, drawn from the current
// directory's children and the pin list.
func (b *Browser) Suggest(partial string) ([]complete.Candidate, error) {
	listing, err := b.Listing()
	if err != nil {
		return nil, err
	}
	pins, err := b.pins.List()
	if err != nil {
		return nil, err
	}
	return complete.Suggest(partial, listing, pins, b.cfg.Complete.MaxSuggestions), nil
}

// Search starts a recursive search under the current directory and returns
// its handle. Any prior search is superseded.
func (b *Browser) Search(query string, fuzzy bool) *search.Handle {
	return b.engine.Start(b.nav.Current(), query, fuzzy, b.cfg.Search.MaxResults)
}

// Pin adds path to the pin list.
func (b *Browser) Pin(path, label string) error {
	canon, err := fs.Canonicalize(b.nav.ExpandPath(path))
	if err != nil {
		return err
	}
	return b.pins.Add(store.Pin{Path: canon, Label: label})
}

// Unpin removes path from the pin list.
func (b *Browser) Unpin(path string) error {
	canon, err := fs.Canonicalize(b.nav.ExpandPath(path))
	if err != nil {
		return err
	}
	return b.pins.Remove(canon)
}

// Pins returns the pin list in insertion order.
func (b *Browser) Pins() ([]store.Pin, error) {
	return b.pins.List()
}

// Close releases the watcher. The pin store is owned by the caller.
func (b *Browser) Close() error {
	if b.watcher != nil {
		return b.watcher.Close()
	}
	return nil
}
