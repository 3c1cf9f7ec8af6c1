//go:build unix

package fs

import "syscall"

// InodeID identifies a filesystem node by device and inode number, following
// symlinks. Two paths reaching the same directory through different links
// share one InodeID, which is what cycle detection keys on.
type InodeID struct {
	Dev uint64
	Ino uint64
}

// Inode returns the identity of the node at path. ok is false when the path
// cannot be stat'd.
func Inode(path string) (id InodeID, ok bool) {
	var st syscall.Stat_t
	if err := syscall.Stat(path, &st); err != nil {
		return InodeID{}, false
	}
	return InodeID{Dev: uint64(st.Dev), Ino: uint64(st.Ino)}, true
}
