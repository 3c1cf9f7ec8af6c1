// Package fs provides the filesystem model for the browser core: immutable
// path entry snapshots, path canonicalization, single-level directory
// listings, and inode identity for cycle detection.
package fs

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Entry is an immutable metadata snapshot of a filesystem node. It is built
// fresh on every directory read or navigation and never mutated in place;
// callers that need current metadata re-stat the path.
type Entry struct {
	Path    string // absolute, canonical
	Name    string // base name
	IsDir   bool
	Size    int64
	ModTime time.Time
	Symlink bool // the on-disk entry itself is a symlink
}

// Canonicalize resolves a path to its absolute, symlink-free, cleaned form.
// History entries and search roots are stored canonicalized so they compare
// by string equality without re-touching the filesystem.
func Canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", err
	}
	return filepath.Clean(resolved), nil
}

// Stat canonicalizes path and builds an Entry for it.
func Stat(path string) (Entry, error) {
	lst, lerr := os.Lstat(path)
	symlink := lerr == nil && lst.Mode()&os.ModeSymlink != 0

	canon, err := Canonicalize(path)
	if err != nil {
		return Entry{}, err
	}
	info, err := os.Stat(canon)
	if err != nil {
		return Entry{}, err
	}
	return Entry{
		Path:    canon,
		Name:    filepath.Base(canon),
		IsDir:   info.IsDir(),
		Size:    info.Size(),
		ModTime: info.ModTime(),
		Symlink: symlink,
	}, nil
}

// IsAncestor reports whether ancestor is path itself or one of its parents.
// Both arguments must already be canonical.
func IsAncestor(ancestor, path string) bool {
	if ancestor == path {
		return true
	}
	sep := string(filepath.Separator)
	if ancestor == sep {
		return strings.HasPrefix(path, sep)
	}
	return strings.HasPrefix(path, ancestor+sep)
}
