package fs

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestWatcher(t *testing.T, debounceMs int) *Watcher {
	t.Helper()
	w, err := NewWatcher(debounceMs)
	if err != nil {
		t.Skipf("filesystem watching unavailable: %v", err)
	}
	return w
}

func TestWatcherCloseUnblocksNotify(t *testing.T) {
	w := newTestWatcher(t, 50)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for range w.Notify() {
		}
	}()

	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Notify consumer still blocked after Close")
	}
}

func TestWatcherReportsDirectoryChange(t *testing.T) {
	w := newTestWatcher(t, 50)
	defer w.Close()

	dir := t.TempDir()
	if err := w.Watch(dir); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "new.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case changed, ok := <-w.Notify():
		if !ok {
			t.Fatal("notify channel closed before delivering a change")
		}
		if changed != dir {
			t.Errorf("expected notification for %q, got %q", dir, changed)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no notification for a created file")
	}
}
