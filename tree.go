package ffs

// addChild appends child to parent's ordered children list and points
// child.parent at it. parent must be a directory inode.
func (fs *Filesystem) addChild(parentH, childH inodeHandle) {
	parent := fs.inodes.get(parentH)
	child := fs.inodes.get(childH)
	parent.children = append(parent.children, childH)
	child.parent = parentH
}

// removeChild detaches child from its parent's children list, if any.
// Idempotent: a child with no parent is left alone.
func (fs *Filesystem) removeChild(childH inodeHandle) {
	child := fs.inodes.get(childH)
	if child.parent == noInode {
		return
	}
	parent := fs.inodes.get(child.parent)
	for idx, h := range parent.children {
		if h == childH {
			parent.children = append(parent.children[:idx], parent.children[idx+1:]...)
			break
		}
	}
	child.parent = noInode
}

// attachBlock appends a block to a file inode's ordered block list and
// points the block's owning-inode link at it.
func (fs *Filesystem) attachBlock(inoH inodeHandle, blkH blockHandle) {
	ino := fs.inodes.get(inoH)
	blk := fs.blocks.get(blkH)
	ino.blocks = append(ino.blocks, blkH)
	blk.inode = inoH
}

// detachBlock removes a block from its owning inode's block list, if
// attached, and clears the block's owner link.
func (fs *Filesystem) detachBlock(blkH blockHandle) {
	blk := fs.blocks.get(blkH)
	if blk.inode == noInode {
		return
	}
	ino := fs.inodes.get(blk.inode)
	for idx, h := range ino.blocks {
		if h == blkH {
			ino.blocks = append(ino.blocks[:idx], ino.blocks[idx+1:]...)
			break
		}
	}
	blk.inode = noInode
}

// computeDataLen sums the data_len of every block attached to a file inode.
// Directories have no meaningful data length.
func (fs *Filesystem) computeDataLen(inoH inodeHandle) uint32 {
	ino := fs.inodes.get(inoH)
	var total uint32
	for _, bh := range ino.blocks {
		total += fs.blocks.get(bh).dataLen
	}
	return total
}
