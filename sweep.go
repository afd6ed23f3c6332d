package ffs

// sweep implements spec 4.7. It runs once, after every data sector has
// been scanned. Any inode still flagged DUMMY at this point means a
// forward reference that was never resolved by a real record — real
// corruption, not a sector-scan artifact — so sweep aborts the whole
// mount rather than silently discarding it (see DESIGN.md, Open Question
// 1). Otherwise it removes tombstoned inodes, cascades that removal to
// their attached blocks, removes independently-tombstoned or orphaned
// blocks, and recomputes cached_data_len for every surviving file inode.
func (fs *Filesystem) sweep() error {
	dummyFound := false
	fs.index.iterateAll(func(e indexEntry) {
		if e.typ == ObjInode && fs.inodes.get(e.ino).isDummy() {
			dummyFound = true
		}
	})
	if dummyFound {
		return ErrCorrupt
	}

	var deadInodes []indexEntry
	fs.index.iterateAll(func(e indexEntry) {
		if e.typ == ObjInode && fs.inodes.get(e.ino).isDeleted() {
			deadInodes = append(deadInodes, e)
		}
	})

	deadBlocks := make(map[blockHandle]bool)
	for _, e := range deadInodes {
		for _, bh := range fs.inodes.get(e.ino).blocks {
			deadBlocks[bh] = true
		}
	}
	fs.index.iterateAll(func(e indexEntry) {
		if e.typ != ObjBlock {
			return
		}
		blk := fs.blocks.get(e.blk)
		if blk.isDeleted() || blk.inode == noInode {
			deadBlocks[e.blk] = true
		}
	})

	for bh := range deadBlocks {
		id := fs.blocks.get(bh).oid
		fs.detachBlock(bh)
		fs.index.remove(id, ObjBlock)
		fs.blocks.free_(bh)
	}

	for _, e := range deadInodes {
		fs.removeChild(e.ino)
		fs.index.remove(e.oid, ObjInode)
		fs.inodes.free_(e.ino)
	}

	fs.index.iterateAll(func(e indexEntry) {
		if e.typ != ObjInode {
			return
		}
		ino := fs.inodes.get(e.ino)
		if !ino.isDir() {
			ino.cachedDataLen = fs.computeDataLen(e.ino)
		}
	})

	return nil
}
