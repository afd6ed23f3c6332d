package ffs

// block is the in-RAM representation of a block object: one chunk of a
// file's data. Block payloads are never cached in RAM; restore only tracks
// where on flash the newest copy lives, and reads are served from flash on
// demand (see fsys.go).
type block struct {
	oid          oid
	seq          seq
	sectorID     sectorID
	sectorOffset uint32

	flags        uint8
	inode        inodeHandle // owning file inode, noInode if orphaned
	dataLen      uint32
	checksumKind byte // ChecksumNone unless blockHasCksum is set
}

func (b *block) isDeleted() bool { return b.flags&BlockDeleted != 0 }

// fromDiskBlock overwrites a block's fields from a decoded on-disk record.
// The owning inode link is reconciled separately by the caller since it is
// looked up (and possibly dummy-created) by inode_id.
func (b *block) fromDiskBlock(d *diskBlock, sid sectorID, offset uint32) {
	b.oid = d.id
	b.seq = d.seq
	b.sectorID = sid
	b.sectorOffset = offset
	b.dataLen = uint32(d.dataLen)
	b.flags = d.flags
	if d.flags&blockHasCksum != 0 {
		b.checksumKind = ChecksumCRC32
	} else {
		b.checksumKind = ChecksumNone
	}
}

// onDiskSize is the full size, in bytes, this block's record occupies on
// flash: the fixed header, the data, and an optional trailing checksum.
func (b *block) onDiskSize() uint32 {
	n := uint32(blockFixedSize) + b.dataLen
	if b.flags&blockHasCksum != 0 {
		n += 4
	}
	return n
}
