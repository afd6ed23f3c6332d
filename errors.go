package ffs

import "errors"

// Package-specific error variables that can be used with errors.Is() for error handling.
var (
	// ErrFlash is returned when the underlying flash medium refuses a read.
	ErrFlash = errors.New("ffs: flash read failed")

	// ErrRange is returned when a read would run past the end of a sector.
	// It never escapes restore: it only ends a sector scan early.
	ErrRange = errors.New("ffs: read past sector end")

	// ErrEmpty signals an erased (all-0xFF) probe word. Like ErrRange, it
	// is an internal scan-termination signal and never surfaces to callers.
	ErrEmpty = errors.New("ffs: erased region")

	// ErrCorrupt covers an invalid sector header, an invalid record magic,
	// a duplicate (oid, seq) pair with differing content, or a failed
	// post-sweep global invariant (no scratch, no root).
	ErrCorrupt = errors.New("ffs: corrupt filesystem")

	// ErrNoMem is returned when an inode or block pool is exhausted.
	ErrNoMem = errors.New("ffs: pool exhausted")

	// ErrInval marks a programmer error: an unknown object type reached a
	// switch that assumes only INODE and BLOCK exist. RestoreFull also
	// returns it when more sectors are accepted than a sectorID can index.
	ErrInval = errors.New("ffs: invalid object type")

	// ErrNotFound reports a missing object. The index lookups themselves
	// (findInode/findBlock) report a miss with a false result, not with
	// this error, and nothing in this package currently returns it.
	ErrNotFound = errors.New("ffs: object not found")
)
