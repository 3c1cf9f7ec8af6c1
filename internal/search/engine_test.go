package search

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/Yeint-herp/rex/internal/fs"
)

func rootEntry(t *testing.T, path string) fs.Entry {
	t.Helper()
	e, err := fs.Stat(path)
	if err != nil {
		t.Fatalf("stat root %s: %v", path, err)
	}
	return e
}

func writeFile(t *testing.T, parts ...string) string {
	t.Helper()
	path := filepath.Join(parts...)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// collect drains a handle with a timeout so a hung search fails the test
// instead of blocking it forever.
func collect(t *testing.T, h *Handle) []Result {
	t.Helper()
	var results []Result
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			r, ok := h.Next()
			if !ok {
				return
			}
			results = append(results, r)
		}
	}()
	select {
	case <-done:
		return results
	case <-time.After(10 * time.Second):
		t.Fatal("search did not terminate")
		return nil
	}
}

func names(results []Result) []string {
	var out []string
	for _, r := range results {
		out = append(out, r.Entry.Name)
	}
	sort.Strings(out)
	return out
}

func TestSubstringSearch(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "notes.txt")
	writeFile(t, root, "deep", "deeper", "MyNotes.md")
	writeFile(t, root, "deep", "other.log")

	e := NewEngine(2, 8, 0)
	h := e.Start(rootEntry(t, root), "notes", false, 0)

	got := names(collect(t, h))
	want := []string{"MyNotes.md", "notes.txt"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}

	s := h.Summary()
	if s.Matches != 2 {
		t.Errorf("summary matches: expected 2, got %d", s.Matches)
	}
	if s.Cycles != 0 {
		t.Errorf("summary cycles: expected 0, got %d", s.Cycles)
	}
}

func TestSearchMatchesDirectoryNames(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "projects", "project-x"), 0o755); err != nil {
		t.Fatal(err)
	}

	e := NewEngine(2, 8, 0)
	h := e.Start(rootEntry(t, root), "project", false, 0)

	got := names(collect(t, h))
	if len(got) != 2 {
		t.Fatalf("expected both directory entries to match, got %v", got)
	}
}

func TestSymlinkCycleTerminates(t *testing.T) {
	// Root /a with /a/b/file1.txt, /a/c/file2.txt and /a/c/d -> /a
	root := t.TempDir()
	a := filepath.Join(root, "a")
	writeFile(t, a, "b", "file1.txt")
	writeFile(t, a, "c", "file2.txt")
	if err := os.Symlink(a, filepath.Join(a, "c", "d")); err != nil {
		t.Skipf("cannot create symlinks: %v", err)
	}

	e := NewEngine(4, 4, 0)
	h := e.Start(rootEntry(t, a), "file", false, 0)

	got := names(collect(t, h))
	want := []string{"file1.txt", "file2.txt"}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("expected exactly %v, got %v", want, got)
	}

	s := h.Summary()
	if s.Cycles != 1 {
		t.Errorf("expected exactly 1 cycle, got %d", s.Cycles)
	}
}

func TestCancelledGenerationNeverObserved(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 40; i++ {
		writeFile(t, root, "d"+string(rune('a'+i%('z'-'a'))), "match"+string(rune('a'+i%('z'-'a')))+".txt")
	}

	// Buffer of 1 so producers stay mostly blocked on backpressure
	e := NewEngine(2, 1, 0)
	h1 := e.Start(rootEntry(t, root), "match", false, 0)

	// Observe at least one live result, then cancel
	if _, ok := h1.Next(); !ok {
		t.Fatal("expected at least one result before cancel")
	}
	h1.Cancel()

	for {
		r, ok := h1.Next()
		if !ok {
			break
		}
		if r.Gen != h1.gen {
			t.Fatalf("result from wrong generation: %d", r.Gen)
		}
		t.Fatalf("observed result %q after cancel", r.Entry.Path)
	}

	// Summary must still settle quickly after cancellation
	done := make(chan Summary, 1)
	go func() { done <- h1.Summary() }()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Summary did not become available after cancel")
	}
}

func TestNewSearchSupersedesOld(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 30; i++ {
		writeFile(t, root, "sub", "file"+string(rune('a'+i%26))+".txt")
	}

	e := NewEngine(2, 1, 0)
	h1 := e.Start(rootEntry(t, root), "file", false, 0)
	h2 := e.Start(rootEntry(t, root), "file", false, 0)

	if h2.gen <= h1.gen {
		t.Fatalf("generations not monotonic: %d then %d", h1.gen, h2.gen)
	}

	// The superseded handle may deliver nothing more
	for {
		r, ok := h1.Next()
		if !ok {
			break
		}
		t.Fatalf("superseded search delivered %q", r.Entry.Path)
	}

	// The new generation still completes normally
	if got := collect(t, h2); len(got) == 0 {
		t.Error("successor search found nothing")
	}
}

func TestMaxResultsCapsEmissions(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 20; i++ {
		writeFile(t, root, "hit"+string(rune('a'+i))+".txt")
	}

	e := NewEngine(2, 64, 0)
	h := e.Start(rootEntry(t, root), "hit", false, 5)

	got := collect(t, h)
	if len(got) != 5 {
		t.Errorf("expected exactly 5 results, got %d", len(got))
	}

	s := h.Summary()
	if s.Matches != 5 {
		t.Errorf("summary matches: expected 5, got %d", s.Matches)
	}
	// The cap is not a supersession; the engine generation stays put
	if e.Generation() != h.gen {
		t.Error("generation advanced by the result cap")
	}
}

func TestMaxResultsDeliveredAfterSummary(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 10; i++ {
		writeFile(t, root, "hit"+string(rune('a'+i))+".txt")
	}

	e := NewEngine(2, 64, 0)
	h := e.Start(rootEntry(t, root), "hit", false, 5)

	// Consumer lags: the search fills its cap and stops before any drain
	s := h.Summary()
	if s.Matches != 5 {
		t.Fatalf("summary matches: expected 5, got %d", s.Matches)
	}

	// Everything the summary counted must still come out of the stream
	var drained int
	for {
		if _, ok := h.Next(); !ok {
			break
		}
		drained++
	}
	if drained != 5 {
		t.Errorf("summary reports 5 matches but consumer drained %d", drained)
	}
}

func TestPermissionErrorsAreSoft(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("running as root, permission checks are bypassed")
	}
	root := t.TempDir()
	writeFile(t, root, "open", "match1.txt")
	writeFile(t, root, "locked", "match2.txt")
	if err := os.Chmod(filepath.Join(root, "locked"), 0o000); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chmod(filepath.Join(root, "locked"), 0o755) })

	e := NewEngine(2, 8, 0)
	h := e.Start(rootEntry(t, root), "match", false, 0)

	got := names(collect(t, h))
	if len(got) != 1 || got[0] != "match1.txt" {
		t.Fatalf("expected the reachable match only, got %v", got)
	}

	s := h.Summary()
	if s.SkippedDirs < 1 {
		t.Errorf("expected at least one skipped directory, got %d", s.SkippedDirs)
	}
}

func TestFuzzySearchScoresAndFilters(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "config.json")
	writeFile(t, root, "sub", "changelog.md")
	writeFile(t, root, "zzz.bin")

	e := NewEngine(2, 8, 0)
	h := e.Start(rootEntry(t, root), "cfg", true, 0)

	results := collect(t, h)
	for _, r := range results {
		if r.Entry.Name == "zzz.bin" {
			t.Errorf("non-subsequence candidate emitted: %q", r.Entry.Name)
		}
	}

	var foundConfig bool
	for _, r := range results {
		if r.Entry.Name == "config.json" {
			foundConfig = true
			if r.Score == 0 {
				t.Error("fuzzy result carries no score")
			}
		}
	}
	if !foundConfig {
		t.Error("expected config.json to match query \"cfg\"")
	}
}

func TestDirQueueDrains(t *testing.T) {
	q := newDirQueue()
	q.push("a")
	q.push("b")

	if d, ok := q.pop(); !ok || d == "" {
		t.Fatal("expected an item")
	}
	q.done()
	if d, ok := q.pop(); !ok || d == "" {
		t.Fatal("expected second item")
	}
	q.done()

	// Queue empty and no pending work: pop must return immediately
	done := make(chan bool, 1)
	go func() {
		_, ok := q.pop()
		done <- ok
	}()
	select {
	case ok := <-done:
		if ok {
			t.Error("pop returned an item from an empty drained queue")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("pop blocked on a drained queue")
	}
}
