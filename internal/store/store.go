// Package store defines the backing-store contract the command executor runs
// against: a hierarchical handle tree reached from a single root directory.
//
// The interfaces deliberately expose only primitive operations. There is no
// recursive removal helper, no rename, and no whole-tree copy; every composite
// algorithm (recursive list, copy, move) is built above this package from
// these primitives, mirroring what the underlying storage actually offers.
//
// Handles are valid only for the duration of one command execution and must
// never be retained across calls.
package store

import (
	"errors"
	"time"
)

// Kind tags the result of a single child lookup so callers branch on a value
// instead of probing with error fallbacks.
type Kind int

const (
	KindMissing Kind = iota
	KindFile
	KindDirectory
)

// Sentinel errors: the finite native-failure surface of a backing store.
// The executor maps these onto the wire taxonomy in exactly one place.
var (
	ErrNotFound            = errors.New("entry not found")
	ErrNotAllowed          = errors.New("operation not allowed")
	ErrTypeMismatch        = errors.New("entry is not of the requested kind")
	ErrInvalidModification = errors.New("invalid modification")
	ErrLocked              = errors.New("entry is locked by another consumer")
)

// Dir is a handle to one directory node.
type Dir interface {
	// Lookup reports what kind of entry name denotes, without opening it.
	Lookup(name string) Kind

	// OpenDir opens the named child as a directory, creating it when create
	// is set. Fails with ErrNotFound when absent and create is false, and
	// with ErrTypeMismatch when the name denotes a file.
	OpenDir(name string, create bool) (Dir, error)

	// OpenFile opens the named child as a file, creating it when create is
	// set. Fails with ErrNotFound / ErrTypeMismatch analogously to OpenDir.
	OpenFile(name string, create bool) (File, error)

	// Remove deletes the named child. A non-empty directory requires
	// recursive; otherwise the call fails with ErrInvalidModification.
	Remove(name string, recursive bool) error

	// Entries lists the names of all direct children.
	Entries() ([]string, error)
}

// File is a handle to one file node.
type File interface {
	// ReadAll returns the full content.
	ReadAll() ([]byte, error)

	// ReadAt reads len(p) bytes starting at off. Short reads at end of file
	// return the byte count with io.EOF semantics suppressed.
	ReadAt(p []byte, off int64) (int, error)

	// WriteAll replaces the content. Durability is guaranteed once the call
	// returns: the write stream is closed before WriteAll resolves.
	WriteAll(data []byte) error

	Size() (int64, error)
	ModTime() (time.Time, error)
}

// Store is one target's private storage area.
type Store interface {
	// Root returns the root directory handle.
	Root() (Dir, error)

	// Available probes for support and base accessibility. It never returns
	// an error; a false result carries a human-readable reason.
	Available() (available bool, reason string)

	// Estimate reports usage and quota in bytes, zero-filled when the
	// backing platform omits either figure.
	Estimate() (usage, quota uint64, err error)
}
