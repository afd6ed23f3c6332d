package ffs

// reconcile dispatches a decoded record to the inode or block reconciler.
func (fs *Filesystem) reconcile(pr *probeResult, sid sectorID, offset uint32) error {
	switch pr.kind {
	case ObjInode:
		return fs.reconcileInode(pr.inode, sid, offset)
	case ObjBlock:
		return fs.reconcileBlock(pr.block, sid, offset)
	default:
		return ErrInval
	}
}

// reconcileInode implements spec 4.6.1: lookup by id, decide whether the
// incoming record replaces what's indexed, and — if it was added or
// replaced — resolve its parent link (creating a dummy directory if the
// parent hasn't been seen yet) and update the root pointer / next_id.
func (fs *Filesystem) reconcileInode(d *diskInode, sid sectorID, offset uint32) error {
	var h inodeHandle
	var shouldAdd bool

	existingH, found := fs.index.findInode(d.id)
	if !found {
		var err error
		h, err = fs.inodes.alloc()
		if err != nil {
			return err
		}
		ino := fs.inodes.get(h)
		ino.parent = noInode
		ino.fromDiskInode(d, sid, offset)
		ino.refcount = 1
		fs.index.insertInode(d.id, h)
		shouldAdd = true
	} else {
		h = existingH
		existing := fs.inodes.get(h)

		shouldReplace, err := inodeShouldReplace(existing, d)
		if err != nil {
			return err
		}
		if shouldReplace {
			if existing.parent != noInode {
				fs.removeChild(h)
			}
			existing.fromDiskInode(d, sid, offset)
		}
		shouldAdd = shouldReplace
	}

	if shouldAdd {
		if d.parentID != NoneID {
			parentH, ok := fs.index.findInode(d.parentID)
			if !ok {
				var err error
				parentH, err = fs.newDummyInode(d.parentID, true)
				if err != nil {
					return err
				}
			}
			fs.addChild(parentH, h)
		}
		if d.id == RootID {
			fs.root = h
		}
	}

	fs.bumpNextID(d.id)
	return nil
}

// inodeShouldReplace implements the should-replace decision table from
// spec 4.6.1: a dummy always loses, a strictly newer seq wins, an equal
// seq is corruption, an older seq is ignored.
func inodeShouldReplace(existing *inode, d *diskInode) (bool, error) {
	if existing.isDummy() {
		return true, nil
	}
	if existing.seq < d.seq {
		return true, nil
	}
	if existing.seq == d.seq {
		return false, ErrCorrupt
	}
	return false, nil
}

// newDummyInode allocates a placeholder inode for a forward reference: an
// oid seen as someone's parent (or a block's owner) before its own real
// record has been scanned. It is resolved in place when the real record
// arrives (the dummy branch of inodeShouldReplace always loses), or swept
// away at the end of restore if no real record ever shows up.
func (fs *Filesystem) newDummyInode(id oid, isDir bool) (inodeHandle, error) {
	h, err := fs.inodes.alloc()
	if err != nil {
		return noInode, err
	}
	ino := fs.inodes.get(h)
	ino.oid = id
	ino.refcount = 1
	ino.parent = noInode
	ino.flags = InodeDummy
	if isDir {
		ino.flags |= InodeDirectory
	}
	fs.index.insertInode(id, h)
	return h, nil
}

// reconcileBlock implements spec 4.6.2.
func (fs *Filesystem) reconcileBlock(d *diskBlock, sid sectorID, offset uint32) error {
	existingH, found := fs.index.findBlock(d.id)
	if !found {
		h, err := fs.blocks.alloc()
		if err != nil {
			return err
		}
		blk := fs.blocks.get(h)
		blk.inode = noInode
		blk.fromDiskBlock(d, sid, offset)
		fs.index.insertBlock(d.id, h)

		ownerH, ok := fs.index.findInode(d.inodeID)
		if !ok {
			var err error
			ownerH, err = fs.newDummyInode(d.inodeID, false)
			if err != nil {
				return err
			}
		}
		fs.attachBlock(ownerH, h)
	} else {
		blk := fs.blocks.get(existingH)
		if blk.seq < d.seq {
			blk.fromDiskBlock(d, sid, offset)
		} else if blk.seq == d.seq {
			return ErrCorrupt
		}
		// blk.seq > d.seq: stale, ignore.
	}

	fs.bumpNextID(d.id)
	return nil
}

// bumpNextID keeps the monotonic id counter ahead of every id seen on disk,
// regardless of whether the record was accepted or stale.
func (fs *Filesystem) bumpNextID(id oid) {
	if id >= fs.nextID {
		fs.nextID = id + 1
	}
}
