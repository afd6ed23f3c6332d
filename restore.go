package ffs

import (
	"context"
	"errors"
)

// SectorDesc describes one candidate flash sector to the orchestrator: its
// absolute offset and length within the flash address space. The array
// passed to RestoreFull is conceptually terminated by a zero-length entry,
// matching the C original, but callers of this Go API may simply pass a
// slice with no sentinel — both are accepted.
type SectorDesc struct {
	FlashOffset uint32
	FlashLength uint32
}

// sectorRecord is the in-RAM sector table entry: spec 3's
// {flash_offset, flash_length, scan_cursor}.
type sectorRecord struct {
	flashOffset uint32
	flashLength uint32
	scanCursor  uint32
}

// Filesystem is the restore engine's aggregate: every piece of mutable
// state restore touches, grouped into one struct passed explicitly to every
// operation. There are no package-level globals (see DESIGN.md).
type Filesystem struct {
	flash FlashReader
	log   *Logger
	cfg   config

	inodes *inodePool
	blocks *blockPool
	index  *objectIndex

	sectors        []sectorRecord
	numSectors     int
	scratchSectorID sectorID
	root           inodeHandle
	nextID         oid
}

// NewFilesystem constructs a Filesystem bound to a FlashReader. Call
// RestoreFull to scan it.
func NewFilesystem(flash FlashReader, opts ...Option) (*Filesystem, error) {
	fs := &Filesystem{
		flash: flash,
		cfg:   defaultConfig(),
		log:   NewLogger(false),
	}
	for _, opt := range opts {
		if err := opt(fs); err != nil {
			return nil, err
		}
	}
	fs.resetState()
	return fs, nil
}

func (fs *Filesystem) resetState() {
	fs.inodes = newInodePool(fs.cfg.maxInodes)
	fs.blocks = newBlockPool(fs.cfg.maxBlocks)
	fs.index = newObjectIndex()
	fs.sectors = nil
	fs.numSectors = 0
	fs.scratchSectorID = ScratchNone
	fs.root = noInode
	fs.nextID = RootID + 1
}

func (fs *Filesystem) sectorRec(sid sectorID) *sectorRecord {
	return &fs.sectors[sid]
}

// readAt reads len(buf) bytes from sector sid at intra-sector offset o,
// resolving sid to its flash_offset before delegating to the FlashReader.
// Mirrors the original's ffs_flash_read(sector_id, offset, len), which
// resolves the same way through the ffs_sectors table.
func (fs *Filesystem) readAt(sid sectorID, o uint32, buf []byte) error {
	rec := fs.sectorRec(sid)
	if uint64(o)+uint64(len(buf)) > uint64(rec.flashLength) {
		return ErrRange
	}
	return fs.flash.ReadAt(rec.flashOffset+o, buf)
}

// RestoreFull is the top-level entry point: spec 4.8. It classifies every
// descriptor in order, scans each accepted data sector, validates that
// exactly one scratch sector was adopted, sweeps tombstones and
// unresolved dummies, and validates that a root directory is present.
//
// ctx is accepted but not used for cancellation: restore is synchronous
// and single-threaded end to end (spec 5), so there is nothing to select
// on mid-call. It is discarded: neither the logger nor anything else in
// restore reads it, the same way fuseNode.Lookup accepts but doesn't act
// on its ctx.
func (fs *Filesystem) RestoreFull(ctx context.Context, descs []SectorDesc) error {
	_ = ctx

	fs.resetState()

	for _, desc := range descs {
		if desc.FlashLength == 0 {
			break
		}

		isScratch, corrupt, err := classifySector(fs.flash, desc)
		if err != nil {
			fs.resetState()
			return err
		}
		if corrupt {
			fs.log.Debugf("sector at offset %d: corrupt header, dropping", desc.FlashOffset)
			continue
		}
		if isScratch && fs.scratchSectorID != ScratchNone {
			fs.log.Debugf("sector at offset %d: extra scratch sector, dropping", desc.FlashOffset)
			continue
		}

		// Accepted sectors are assigned the next sequential sector id, the
		// same scheme the original uses (ffs_num_sectors - 1 after
		// appending): id order reflects acceptance order, not the
		// descriptor's position in descs, so a dropped sector leaves no
		// gap in fs.sectors.
		if len(fs.sectors) >= int(ScratchNone) {
			return ErrInval
		}
		sid := sectorID(len(fs.sectors))
		fs.sectors = append(fs.sectors, sectorRecord{
			flashOffset: desc.FlashOffset,
			flashLength: desc.FlashLength,
		})
		fs.numSectors++

		if isScratch {
			fs.scratchSectorID = sid
			fs.log.Debugf("sector %d: adopted as scratch", sid)
			continue
		}

		if err := fs.scanSector(sid, desc.FlashLength); err != nil {
			if errors.Is(err, ErrCorrupt) {
				// Data corruption found during reconciliation (e.g. a
				// duplicate seq): fatal, but per spec 4.8 step 7 the
				// reset-to-initial-state only applies to non-CORRUPT
				// failures.
				return err
			}
			fs.resetState()
			return err
		}
	}

	if fs.scratchSectorID == ScratchNone {
		return ErrCorrupt
	}

	if err := fs.sweep(); err != nil {
		return err
	}

	if fs.root == noInode {
		return ErrCorrupt
	}

	return nil
}

// Root returns the handle-free, public view of the root directory. It
// panics if called before a successful RestoreFull.
func (fs *Filesystem) Root() *DirHandle {
	if fs.root == noInode {
		panic("ffs: Root called before a successful RestoreFull")
	}
	return &DirHandle{fs: fs, h: fs.root}
}
