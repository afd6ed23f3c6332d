package ffs

// inode is the in-RAM representation of an inode object: a directory or a
// file. parent, children and blocks are arena handles, never pointers, so
// the sweeper can free objects with a linear pass instead of a graph walk.
type inode struct {
	oid          oid
	seq          seq
	sectorID     sectorID
	sectorOffset uint32

	flags    uint8
	parent   inodeHandle
	refcount uint32
	filename []byte

	children []inodeHandle // only meaningful if flags&InodeDirectory
	blocks   []blockHandle // only meaningful if flags&InodeDirectory == 0

	cachedDataLen uint32
}

func (i *inode) isDir() bool     { return i.flags&InodeDirectory != 0 }
func (i *inode) isDeleted() bool { return i.flags&InodeDeleted != 0 }
func (i *inode) isDummy() bool   { return i.flags&InodeDummy != 0 }
func (i *inode) isRoot() bool    { return i.oid == RootID }

// fromDiskInode overwrites an inode's fields from a decoded on-disk record,
// preserving identity (oid), refcount and arena position. Used both for
// first-sight population and for seq-based replacement.
func (i *inode) fromDiskInode(d *diskInode, sid sectorID, offset uint32) {
	i.oid = d.id
	i.seq = d.seq
	i.sectorID = sid
	i.sectorOffset = offset
	i.flags = d.flags
	i.filename = append([]byte(nil), d.filename...)
	// parent/children/blocks are reconciled by the caller, which knows the
	// previous parent_id and needs to detach before this overwrite and
	// reattach after it.
}
