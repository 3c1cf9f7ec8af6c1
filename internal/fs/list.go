package fs

import (
	"io"
	iofs "io/fs"
	"os"
	"strings"
	"sync"

	"github.com/charlievieth/fastwalk"

	"github.com/Yeint-herp/rex/internal/debug"
)

// List reads the immediate children of dir and returns them as entries.
// Children that cannot be stat'd (broken symlinks with unreadable targets,
// entries racing a delete) are skipped rather than failing the listing; a
// root that cannot be read at all (deleted or unreadable since navigation)
// is an error, not an empty directory.
func List(dir string) ([]Entry, error) {
	debug.Log(debug.FS, "List: reading %q", dir)

	f, err := os.Open(dir)
	if err != nil {
		return nil, err
	}
	_, rerr := f.Readdirnames(1)
	f.Close()
	if rerr != nil && rerr != io.EOF {
		return nil, rerr
	}

	// fastwalk runs the callback from several goroutines
	var result []Entry
	var mu sync.Mutex

	// Follow symlinks so a link to a directory lists as a directory.
	conf := &fastwalk.Config{
		Follow: true,
	}

	dirLen := len(dir)

	err = fastwalk.Walk(conf, dir, func(fullPath string, d iofs.DirEntry, err error) error {
		if err != nil {
			debug.Log(debug.FS_ENTRY, "List: walk error at %q: %v", fullPath, err)
			return nil // Skip errors, continue walking
		}

		// Skip the root directory itself
		if fullPath == dir {
			return nil
		}

		// Only process direct children: the remainder after the root prefix
		// must not contain a separator.
		relStart := dirLen
		if relStart < len(fullPath) && (fullPath[relStart] == '/' || fullPath[relStart] == '\\') {
			relStart++
		}
		rel := fullPath[relStart:]
		if strings.ContainsAny(rel, "/\\") {
			if d.IsDir() {
				return fastwalk.SkipDir
			}
			return nil
		}

		symlink := d.Type()&iofs.ModeSymlink != 0

		info, err := fastwalk.StatDirEntry(fullPath, d)
		if err != nil {
			// Lstat fallback for broken symlinks
			info, err = os.Lstat(fullPath)
			if err != nil {
				debug.Log(debug.FS_ENTRY, "List: skipping %q: stat error: %v", d.Name(), err)
				return nil
			}
		}

		mu.Lock()
		result = append(result, Entry{
			Path:    fullPath,
			Name:    d.Name(),
			IsDir:   info.IsDir(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
			Symlink: symlink,
		})
		mu.Unlock()

		// Single level only
		if d.IsDir() {
			return fastwalk.SkipDir
		}
		return nil
	})
	if err != nil {
		debug.Log(debug.FS, "List: walk error: %v", err)
		return nil, err
	}

	debug.Log(debug.FS, "List: %d entries in %q", len(result), dir)
	return result, nil
}
