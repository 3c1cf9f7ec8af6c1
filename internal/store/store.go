// Package store persists the user's pinned directories.
package store

import "errors"

// Pin is one pinned path. Label is optional display text for the pin.
type Pin struct {
	Path  string
	Label string
}

var (
	ErrAlreadyPinned = errors.New("path already pinned")
	ErrNotPinned     = errors.New("path not pinned")
)

// PinStore is the contract the browser core needs from pin persistence.
// List order is user-significant: pins come back in insertion order.
// Uniqueness is enforced by path equality. Where and how the list is stored
// is the implementation's business.
type PinStore interface {
	// List returns all pins, oldest first.
	List() ([]Pin, error)
	// Add appends a pin. Returns ErrAlreadyPinned if the path is present.
	Add(pin Pin) error
	// Remove deletes the pin for path. Returns ErrNotPinned if absent.
	Remove(path string) error
}
