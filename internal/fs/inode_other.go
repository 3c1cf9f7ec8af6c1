//go:build !unix

package fs

// InodeID identifies a filesystem node. Without stable inode numbers the
// canonical (symlink-resolved) path serves as the identity.
type InodeID struct {
	path string
}

// Inode returns the identity of the node at path. ok is false when the path
// cannot be resolved.
func Inode(path string) (id InodeID, ok bool) {
	canon, err := Canonicalize(path)
	if err != nil {
		return InodeID{}, false
	}
	return InodeID{path: canon}, true
}
