// Package search implements the recursive, cancellable, concurrent directory
// search engine. Results stream through a bounded channel; a slow consumer
// throttles traversal instead of losing matches. Cancellation is cooperative
// and generation-based: superseding a search advances the engine's generation
// counter, and every result carries the generation it was computed under so
// results of a superseded search are never surfaced. A search that fills its
// result cap stops itself without being superseded; everything it already
// emitted remains deliverable.
package search

import (
	iofs "io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/Yeint-herp/rex/internal/complete"
	"github.com/Yeint-herp/rex/internal/debug"
	"github.com/Yeint-herp/rex/internal/fs"
)

// Result is one match produced by a search. Score is meaningful only for
// fuzzy searches.
type Result struct {
	Entry fs.Entry
	Gen   int64
	Score float64
}

// Summary aggregates a search's soft errors and progress counters. It is
// complete once the result stream has been exhausted or cancelled.
type Summary struct {
	Matches      int64
	SkippedDirs  int64 // directories skipped due to permission or IO errors
	Cycles       int64 // symlink cycles detected and not re-entered
	ScannedFiles int64
	ScannedDirs  int64
}

// Engine owns the generation counter shared by all searches it starts. Only
// the most recently started search is "current"; starting a new one or
// cancelling advances the counter, which every worker observes.
type Engine struct {
	gen      atomic.Int64
	workers  int
	buffer   int
	minScore float64

	mu     sync.Mutex
	active *Handle
}

// NewEngine creates an engine. workers <= 0 selects NumCPU capped at 8;
// buffer <= 0 selects 64. minScore is the fuzzy emission threshold.
func NewEngine(workers, buffer int, minScore float64) *Engine {
	if workers <= 0 {
		workers = runtime.NumCPU()
		if workers > 8 {
			workers = 8
		}
	}
	if buffer <= 0 {
		buffer = 64
	}
	return &Engine{workers: workers, buffer: buffer, minScore: minScore}
}

// Handle exposes one search's lazy, finite, non-restartable result stream.
type Handle struct {
	engine *Engine
	root   string
	query  string // already lowercased
	fuzzy  bool
	gen    int64
	max    int

	results  chan Result
	stop     chan struct{} // closed when the search stops early (superseded or cap reached)
	stopOnce sync.Once
	done     chan struct{} // closed when all workers have exited
	capped   atomic.Bool   // max-results cap reached; not a supersession

	emitted      atomic.Int64
	skippedDirs  atomic.Int64
	cycles       atomic.Int64
	scannedFiles atomic.Int64
	scannedDirs  atomic.Int64
}

// Start begins a search under a fresh generation, superseding any search
// still running on this engine. maxResults <= 0 means unlimited.
func (e *Engine) Start(root fs.Entry, query string, fuzzy bool, maxResults int) *Handle {
	e.mu.Lock()
	if e.active != nil {
		e.active.halt()
	}
	gen := e.gen.Add(1)
	h := &Handle{
		engine:  e,
		root:    root.Path,
		query:   strings.ToLower(query),
		fuzzy:   fuzzy,
		gen:     gen,
		max:     maxResults,
		results: make(chan Result, e.buffer),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	e.active = h
	e.mu.Unlock()

	debug.Log(debug.SEARCH, "Start: root=%q query=%q fuzzy=%v gen=%d workers=%d",
		root.Path, query, fuzzy, gen, e.workers)

	visited := &visitedSet{seen: make(map[fs.InodeID]struct{})}
	queue := newDirQueue()
	queue.push(root.Path)

	var wg sync.WaitGroup
	for i := 0; i < e.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.worker(queue, visited)
		}()
	}
	go func() {
		wg.Wait()
		close(h.results)
		close(h.done)
		e.mu.Lock()
		if e.active == h {
			e.active = nil
		}
		e.mu.Unlock()
		debug.Log(debug.SEARCH, "gen %d finished: %d matches, %d skipped, %d cycles",
			gen, h.emitted.Load(), h.skippedDirs.Load(), h.cycles.Load())
	}()

	return h
}

// CancelUnrelated cancels the active search unless its root is the new
// current directory or an ancestor of it. Results about a subtree the user
// left are no longer relevant; results about a subtree they are still inside
// keep streaming.
func (e *Engine) CancelUnrelated(newDir string) {
	e.mu.Lock()
	h := e.active
	e.mu.Unlock()
	if h != nil && !fs.IsAncestor(h.root, newDir) {
		debug.Log(debug.SEARCH, "CancelUnrelated: %q left root %q, cancelling gen %d", newDir, h.root, h.gen)
		e.cancelHandle(h)
	}
}

// Generation returns the engine's current generation.
func (e *Engine) Generation() int64 {
	return e.gen.Load()
}

// cancelHandle advances the generation past h (if h is still current) and
// releases any worker blocked on a channel send.
func (e *Engine) cancelHandle(h *Handle) {
	e.mu.Lock()
	if e.gen.Load() == h.gen {
		e.gen.Add(1)
	}
	e.mu.Unlock()
	h.halt()
}

func (h *Handle) halt() {
	h.stopOnce.Do(func() { close(h.stop) })
}

// stale reports whether this search's generation has been superseded. Stale
// results are dropped before reaching the consumer.
func (h *Handle) stale() bool {
	return h.engine.gen.Load() != h.gen
}

// stopped reports whether traversal should end: the search was superseded or
// it filled its result cap. Unlike stale, a capped search's buffered results
// are still valid.
func (h *Handle) stopped() bool {
	return h.capped.Load() || h.stale()
}

// Cancel stops the search. Workers stop at the next directory boundary; the
// result stream ends and Summary becomes available shortly after.
func (h *Handle) Cancel() {
	h.engine.cancelHandle(h)
}

// Next returns the next result, blocking until one is available or the
// stream ends. ok is false once the search is exhausted or cancelled. A
// result from a superseded generation is never returned.
func (h *Handle) Next() (r Result, ok bool) {
	for r := range h.results {
		if h.stale() {
			// Buffered leftovers from a cancelled generation
			continue
		}
		return r, true
	}
	return Result{}, false
}

// Summary blocks until the search has fully stopped, then reports its
// aggregate counts.
func (h *Handle) Summary() Summary {
	<-h.done
	return h.progress()
}

// Progress is a point-in-time snapshot of the counters while the search may
// still be running.
func (h *Handle) Progress() Summary {
	return h.progress()
}

func (h *Handle) progress() Summary {
	return Summary{
		Matches:      h.emitted.Load(),
		SkippedDirs:  h.skippedDirs.Load(),
		Cycles:       h.cycles.Load(),
		ScannedFiles: h.scannedFiles.Load(),
		ScannedDirs:  h.scannedDirs.Load(),
	}
}

// worker pops directories and walks them depth-first, pushing all but one
// subdirectory back for other workers to steal.
func (h *Handle) worker(queue *dirQueue, visited *visitedSet) {
	for {
		dir, ok := queue.pop()
		if !ok {
			return
		}
		for dir != "" {
			subdirs := h.scanDir(dir, visited)
			if len(subdirs) == 0 {
				break
			}
			dir = subdirs[0]
			for _, d := range subdirs[1:] {
				queue.push(d)
			}
		}
		queue.done()
	}
}

// scanDir processes one directory: dedupes it against the visited-inode set,
// matches its entries, and returns the subdirectories to descend into.
// Returning nil ends this worker's local chain (finished, cancelled, or the
// directory was skipped).
func (h *Handle) scanDir(dir string, visited *visitedSet) []string {
	if h.stopped() {
		return nil
	}

	id, ok := fs.Inode(dir)
	if !ok {
		h.skippedDirs.Add(1)
		debug.Log(debug.SEARCH_WALK, "gen %d: cannot stat %q", h.gen, dir)
		return nil
	}
	if !visited.add(id) {
		h.cycles.Add(1)
		debug.Log(debug.SEARCH_WALK, "gen %d: cycle at %q", h.gen, dir)
		return nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		// Soft error: count it and keep going elsewhere
		h.skippedDirs.Add(1)
		debug.Log(debug.SEARCH_WALK, "gen %d: skipping %q: %v", h.gen, dir, err)
		return nil
	}
	h.scannedDirs.Add(1)

	var subdirs []string
	for _, d := range entries {
		if h.stopped() {
			return nil
		}

		full := filepath.Join(dir, d.Name())
		isDir := d.IsDir()
		symlink := d.Type()&iofs.ModeSymlink != 0
		if symlink && !isDir {
			// A symlink to a directory is descended into; the visited set
			// keeps link cycles from recursing forever.
			if info, err := os.Stat(full); err == nil && info.IsDir() {
				isDir = true
			}
		}
		if !isDir {
			h.scannedFiles.Add(1)
		}

		if score, matched := h.match(d.Name()); matched {
			entry := fs.Entry{Path: full, Name: d.Name(), IsDir: isDir, Symlink: symlink}
			if info, err := d.Info(); err == nil {
				entry.Size = info.Size()
				entry.ModTime = info.ModTime()
			}
			if !h.emit(Result{Entry: entry, Gen: h.gen, Score: score}) {
				return nil
			}
		}

		if isDir {
			subdirs = append(subdirs, full)
		}
	}
	return subdirs
}

// match tests an entry base name against the query. Substring mode is
// case-insensitive containment; fuzzy mode reuses the autocomplete scorer
// and drops matches below the engine threshold.
func (h *Handle) match(name string) (score float64, ok bool) {
	if h.fuzzy {
		s, ok := complete.Score(h.query, name)
		if !ok || s < h.engine.minScore {
			return 0, false
		}
		return s, true
	}
	return 0, strings.Contains(strings.ToLower(name), h.query)
}

// emit delivers one result, blocking on consumer backpressure. It returns
// false when the search was superseded or the max-results cap was reached.
// The slot is reserved before sending so concurrent workers cannot push the
// match count past the cap. Reaching the cap halts the workers but does not
// advance the generation: the results already in the channel were legitimately
// emitted and stay deliverable.
func (h *Handle) emit(r Result) bool {
	if h.stopped() {
		return false
	}
	n := h.emitted.Add(1)
	if h.max > 0 && n > int64(h.max) {
		h.emitted.Add(-1)
		h.capped.Store(true)
		return false
	}
	select {
	case h.results <- r:
	case <-h.stop:
		h.emitted.Add(-1)
		return false
	}
	if h.max > 0 && n >= int64(h.max) {
		debug.Log(debug.SEARCH, "gen %d: max results (%d) reached", h.gen, h.max)
		h.capped.Store(true)
		h.halt()
		return false
	}
	return true
}

// visitedSet records the canonical identity of every directory a search has
// entered, scoped to that search.
type visitedSet struct {
	mu   sync.Mutex
	seen map[fs.InodeID]struct{}
}

// add returns false if id was already present.
func (v *visitedSet) add(id fs.InodeID) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, dup := v.seen[id]; dup {
		return false
	}
	v.seen[id] = struct{}{}
	return true
}
