package fs

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func TestListDirectChildrenOnly(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "sub", "nested"), 0o755); err != nil {
		t.Fatal(err)
	}
	for _, f := range []string{"a.txt", "b.txt", filepath.Join("sub", "deep.txt")} {
		if err := os.WriteFile(filepath.Join(root, f), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := List(root)
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	var names []string
	for _, e := range entries {
		names = append(names, e.Name)
	}
	sort.Strings(names)

	want := []string{"a.txt", "b.txt", "sub"}
	if len(names) != len(want) {
		t.Fatalf("expected %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, names)
		}
	}

	for _, e := range entries {
		if e.Name == "sub" && !e.IsDir {
			t.Error("sub should be reported as a directory")
		}
		if e.Name == "a.txt" && e.IsDir {
			t.Error("a.txt should not be a directory")
		}
	}
}

func TestListFailsOnMissingRoot(t *testing.T) {
	gone := filepath.Join(t.TempDir(), "deleted")
	if _, err := List(gone); err == nil {
		t.Error("expected an error listing a nonexistent directory")
	}
}

func TestListFailsOnUnreadableRoot(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("running as root, permission checks are bypassed")
	}
	locked := filepath.Join(t.TempDir(), "locked")
	if err := os.Mkdir(locked, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Chmod(locked, 0o000); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chmod(locked, 0o755) })

	if _, err := List(locked); err == nil {
		t.Error("expected an error listing an unreadable directory")
	}
}

func TestListEmptyDirectory(t *testing.T) {
	entries, err := List(t.TempDir())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no entries, got %d", len(entries))
	}
}

func TestListSymlinkEntries(t *testing.T) {
	root := t.TempDir()
	real := filepath.Join(root, "real")
	if err := os.Mkdir(real, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(real, filepath.Join(root, "link")); err != nil {
		t.Skipf("cannot create symlinks: %v", err)
	}

	entries, err := List(root)
	if err != nil {
		t.Fatal(err)
	}

	var link *Entry
	for i := range entries {
		if entries[i].Name == "link" {
			link = &entries[i]
		}
	}
	if link == nil {
		t.Fatal("symlink entry missing from listing")
	}
	if !link.IsDir {
		t.Error("symlink to directory should list as a directory")
	}
	if !link.Symlink {
		t.Error("symlink flag not set")
	}
}

func TestCanonicalize(t *testing.T) {
	root := t.TempDir()
	canon, err := Canonicalize(root)
	if err != nil {
		t.Fatal(err)
	}

	// Dot segments collapse onto the same canonical path
	messy := filepath.Join(root, ".", "x", "..")
	got, err := Canonicalize(messy)
	if err != nil {
		t.Fatalf("Canonicalize(%q): %v", messy, err)
	}
	if got != canon {
		t.Errorf("expected %q, got %q", canon, got)
	}
}

func TestInodeIdentity(t *testing.T) {
	root := t.TempDir()
	real := filepath.Join(root, "real")
	if err := os.Mkdir(real, 0o755); err != nil {
		t.Fatal(err)
	}

	a, ok := Inode(real)
	if !ok {
		t.Fatal("Inode failed on a real directory")
	}

	link := filepath.Join(root, "link")
	if err := os.Symlink(real, link); err != nil {
		t.Skipf("cannot create symlinks: %v", err)
	}
	b, ok := Inode(link)
	if !ok {
		t.Fatal("Inode failed on a symlink")
	}
	if a != b {
		t.Error("symlink and target should share an inode identity")
	}

	other, ok := Inode(root)
	if !ok {
		t.Fatal("Inode failed on root")
	}
	if other == a {
		t.Error("distinct directories share an inode identity")
	}

	if _, ok := Inode(filepath.Join(root, "missing")); ok {
		t.Error("Inode succeeded on a missing path")
	}
}

func TestIsAncestor(t *testing.T) {
	testCases := []struct {
		ancestor string
		path     string
		expected bool
	}{
		{"/a", "/a", true},
		{"/a", "/a/b", true},
		{"/a", "/a/b/c", true},
		{"/", "/anything", true},
		{"/a", "/ab", false}, // prefix but not a path boundary
		{"/a/b", "/a", false},
		{"/x", "/a/b", false},
	}

	for _, tc := range testCases {
		if got := IsAncestor(tc.ancestor, tc.path); got != tc.expected {
			t.Errorf("IsAncestor(%q, %q): expected %v, got %v", tc.ancestor, tc.path, tc.expected, got)
		}
	}
}

func TestStatSnapshot(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "data.bin")
	if err := os.WriteFile(file, make([]byte, 42), 0o644); err != nil {
		t.Fatal(err)
	}

	e, err := Stat(file)
	if err != nil {
		t.Fatal(err)
	}
	if e.IsDir {
		t.Error("file reported as directory")
	}
	if e.Size != 42 {
		t.Errorf("expected size 42, got %d", e.Size)
	}
	if e.Name != "data.bin" {
		t.Errorf("expected base name data.bin, got %q", e.Name)
	}
	if !filepath.IsAbs(e.Path) {
		t.Errorf("entry path not absolute: %q", e.Path)
	}
}
