package ffs

// ObjType distinguishes the two kinds of object that share the index
// keyspace: inodes (files and directories) and blocks (file data chunks).
type ObjType uint8

const (
	ObjInode ObjType = 1
	ObjBlock ObjType = 2
)

func (t ObjType) String() string {
	switch t {
	case ObjInode:
		return "inode"
	case ObjBlock:
		return "block"
	default:
		return "unknown"
	}
}

// oid is the 32-bit object id. NoneID means "no parent" / "no owner".
type oid = uint32

// NoneID is the reserved oid meaning "no parent" (for a root inode's parent)
// or "no owning inode" (transiently, before a block is attached).
const NoneID oid = 0

// RootID is the well-known oid of the filesystem root directory inode.
// Fixed at 1 to match this corpus's inode-numbering convention (inode 1 is
// reserved for the root across every filesystem reader in this codebase),
// rather than mynewt's native FFS_ID_ROOT_DIR == 0 (see DESIGN.md).
const RootID oid = 1

// seq is the per-object version number: larger is newer.
type seq = uint32

// sectorID indexes the in-memory sector table. ScratchNone means "no
// scratch sector has been adopted yet".
type sectorID = uint16

// ScratchNone is the reserved sectorID meaning "scratch not yet assigned".
const ScratchNone sectorID = 0xFFFF

// Inode flag bits.
const (
	InodeDeleted   uint8 = 1 << 0
	InodeDummy     uint8 = 1 << 1
	InodeDirectory uint8 = 1 << 2
)

// Block flag bits. Bit 4 marks that this block's on-disk record carries a
// trailing checksum (see checksum.go); the remaining bits are reserved.
const (
	BlockDeleted  uint8 = 1 << 0
	blockHasCksum uint8 = 1 << 4
)

// Checksum kinds known to the default registry (checksum.go).
const (
	ChecksumNone  byte = 0
	ChecksumCRC32 byte = 1
)

// On-disk magic numbers. These values are this package's own choice, not
// copied from mynewt-core, so images are not bit-exact with a mynewt-core
// reference image (see DESIGN.md).
const (
	sectorMagic uint32 = 0xb98a31e2
	inodeMagic  uint32 = 0x925f8bcd
	blockMagic  uint32 = 0x775b9fb5
	emptyWord   uint32 = 0xffffffff
)

const (
	scratchByteSet   byte = 0xff
	scratchByteUnset byte = 0x00
)

// sectorHeaderSize is sizeof(ffs_disk_sector): magic(4) + is_scratch(1) + pad(3).
const sectorHeaderSize = 8

// inodeFixedSize is the fixed portion of an on-disk inode record, before the
// trailing filename bytes: magic(4) id(4) seq(4) parent_id(4) flags(1)
// filename_len(1).
const inodeFixedSize = 18

// blockFixedSize is the fixed portion of an on-disk block record, before the
// trailing data bytes: magic(4) id(4) seq(4) inode_id(4) data_len(2) flags(1).
const blockFixedSize = 19
