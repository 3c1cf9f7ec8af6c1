// Package nav owns the browser's current location and its back/forward
// history. Navigation follows browser-history law: going somewhere new
// pushes the old location onto the back stack and clears the forward stack.
package nav

import (
	"errors"
	"fmt"
	iofs "io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/Yeint-herp/rex/internal/debug"
	"github.com/Yeint-herp/rex/internal/fs"
)

// Navigation failures. All are reported synchronously and leave the
// controller state untouched.
var (
	ErrNotFound         = errors.New("path does not exist")
	ErrNotADirectory    = errors.New("not a directory")
	ErrPermissionDenied = errors.New("permission denied")
	ErrNoHistory        = errors.New("no history")
)

// DefaultMaxHistory bounds the back stack; oldest entries fall off.
const DefaultMaxHistory = 100

// State is a snapshot of the controller after an operation. Back holds the
// most recent entry last. Current is never present in either stack.
type State struct {
	Current fs.Entry
	Back    []fs.Entry
	Forward []fs.Entry
}

// Controller serializes all navigation; the caller is expected to invoke it
// from a single goroutine.
type Controller struct {
	current    fs.Entry
	back       []fs.Entry
	forward    []fs.Entry
	maxHistory int
	homePath   string
}

// NewController starts a session at startDir, which must resolve to a
// readable directory. homePath is used for ~ expansion.
func NewController(startDir, homePath string) (*Controller, error) {
	entry, err := Resolve(startDir)
	if err != nil {
		return nil, err
	}
	return &Controller{
		current:    entry,
		maxHistory: DefaultMaxHistory,
		homePath:   homePath,
	}, nil
}

// SetMaxHistory overrides the back stack bound. Values < 1 are ignored.
func (c *Controller) SetMaxHistory(n int) {
	if n >= 1 {
		c.maxHistory = n
	}
}

// Resolve canonicalizes path and verifies it is a readable directory,
// mapping failures onto the navigation error taxonomy.
func Resolve(path string) (fs.Entry, error) {
	entry, err := fs.Stat(path)
	if err != nil {
		switch {
		case errors.Is(err, iofs.ErrNotExist):
			return fs.Entry{}, fmt.Errorf("%s: %w", path, ErrNotFound)
		case errors.Is(err, iofs.ErrPermission):
			return fs.Entry{}, fmt.Errorf("%s: %w", path, ErrPermissionDenied)
		default:
			return fs.Entry{}, err
		}
	}
	if !entry.IsDir {
		return fs.Entry{}, fmt.Errorf("%s: %w", path, ErrNotADirectory)
	}
	// A directory that stats fine but cannot be opened is useless as a
	// current location; surface that now instead of on the first listing.
	f, err := os.Open(entry.Path)
	if err != nil {
		if errors.Is(err, iofs.ErrPermission) {
			return fs.Entry{}, fmt.Errorf("%s: %w", path, ErrPermissionDenied)
		}
		return fs.Entry{}, err
	}
	f.Close()
	return entry, nil
}

// NavigateTo moves to path (after expansion and canonicalization), pushing
// the prior location onto the back stack and clearing the forward stack.
// Navigating to the current directory is a no-op refresh that touches no
// history. On error the state is unchanged.
func (c *Controller) NavigateTo(path string) (State, error) {
	expanded := c.ExpandPath(path)
	entry, err := Resolve(expanded)
	if err != nil {
		debug.Log(debug.NAV, "NavigateTo %q: %v", path, err)
		return c.snapshot(), err
	}

	if entry.Path == c.current.Path {
		debug.Log(debug.NAV, "NavigateTo %q: already here", entry.Path)
		c.current = entry // refreshed metadata snapshot
		return c.snapshot(), nil
	}

	c.back = append(c.back, c.current)
	if len(c.back) > c.maxHistory {
		c.back = c.back[len(c.back)-c.maxHistory:]
	}
	c.forward = c.forward[:0]
	c.current = entry

	debug.Log(debug.NAV, "NavigateTo %q: back=%d", entry.Path, len(c.back))
	return c.snapshot(), nil
}

// Back pops the most recent back entry, pushing the current location onto
// the forward stack. Fails with ErrNoHistory when there is nowhere to go.
func (c *Controller) Back() (State, error) {
	if len(c.back) == 0 {
		return c.snapshot(), fmt.Errorf("back: %w", ErrNoHistory)
	}
	prev := c.back[len(c.back)-1]
	c.back = c.back[:len(c.back)-1]
	c.forward = append(c.forward, c.current)
	c.current = prev

	debug.Log(debug.NAV, "Back -> %q", c.current.Path)
	return c.snapshot(), nil
}

// Forward is the mirror of Back.
func (c *Controller) Forward() (State, error) {
	if len(c.forward) == 0 {
		return c.snapshot(), fmt.Errorf("forward: %w", ErrNoHistory)
	}
	next := c.forward[len(c.forward)-1]
	c.forward = c.forward[:len(c.forward)-1]
	c.back = append(c.back, c.current)
	c.current = next

	debug.Log(debug.NAV, "Forward -> %q", c.current.Path)
	return c.snapshot(), nil
}

// Current returns the current directory entry.
func (c *Controller) Current() fs.Entry {
	return c.current
}

// CanBack reports whether Back would succeed.
func (c *Controller) CanBack() bool { return len(c.back) > 0 }

// CanForward reports whether Forward would succeed.
func (c *Controller) CanForward() bool { return len(c.forward) > 0 }

// ExpandPath expands and normalizes a path string, handling:
// - ~ for home directory
// - Relative paths (../, ./)
// - Absolute paths
// - Empty input (resolves to the current directory)
func (c *Controller) ExpandPath(input string) string {
	input = strings.TrimSpace(input)
	if input == "" {
		return c.current.Path
	}

	// Handle home directory expansion
	if strings.HasPrefix(input, "~") {
		if input == "~" {
			return c.homePath
		}
		if strings.HasPrefix(input, "~/") || strings.HasPrefix(input, "~\\") {
			return filepath.Clean(filepath.Join(c.homePath, input[2:]))
		}
	}

	if filepath.IsAbs(input) {
		return filepath.Clean(input)
	}

	// Relative paths are joined with the current directory
	return filepath.Clean(filepath.Join(c.current.Path, input))
}

// snapshot copies the stacks so callers cannot alias controller state.
func (c *Controller) snapshot() State {
	s := State{Current: c.current}
	if len(c.back) > 0 {
		s.Back = append([]fs.Entry(nil), c.back...)
	}
	if len(c.forward) > 0 {
		s.Forward = append([]fs.Entry(nil), c.forward...)
	}
	return s
}
