//go:build fuse

package ffs

import (
	"context"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
)

// fuseNode adapts a restored inode to go-fuse's node API, the FUSE
// counterpart of this package's iofs.FS presentation in fsys.go. It walks
// the same in-RAM children/blocks lists; it never touches the writer/GC
// path, since restore's tree is read-only once mounted.
type fuseNode struct {
	fs.Inode
	zfs *Filesystem
	h   inodeHandle
}

var _ fs.NodeLookuper = (*fuseNode)(nil)
var _ fs.NodeReaddirer = (*fuseNode)(nil)
var _ fs.NodeGetattrer = (*fuseNode)(nil)
var _ fs.NodeOpener = (*fuseNode)(nil)
var _ fs.NodeReader = (*fuseNode)(nil)

// FuseRoot wraps the restored root directory as a go-fuse root node, ready to
// be passed to fs.Mount.
func (zfs *Filesystem) FuseRoot() fs.InodeEmbedder {
	return &fuseNode{zfs: zfs, h: zfs.root}
}

func (n *fuseNode) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	child, ok := n.zfs.lookupChild(n.h, name)
	if !ok {
		return nil, syscall.ENOENT
	}
	ino := n.zfs.inodes.get(child)
	n.fillAttr(ino, &out.Attr)

	mode := uint32(syscall.S_IFREG)
	if ino.isDir() {
		mode = syscall.S_IFDIR
	}
	stable := fs.StableAttr{Mode: mode, Ino: uint64(ino.oid)}
	childNode := &fuseNode{zfs: n.zfs, h: child}
	return n.NewInode(ctx, childNode, stable), 0
}

func (n *fuseNode) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	ino := n.zfs.inodes.get(n.h)
	entries := make([]fuse.DirEntry, 0, len(ino.children))
	for _, ch := range ino.children {
		c := n.zfs.inodes.get(ch)
		mode := uint32(syscall.S_IFREG)
		if c.isDir() {
			mode = syscall.S_IFDIR
		}
		entries = append(entries, fuse.DirEntry{Name: string(c.filename), Ino: uint64(c.oid), Mode: mode})
	}
	return fs.NewListDirStream(entries), 0
}

func (n *fuseNode) Getattr(ctx context.Context, f fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	ino := n.zfs.inodes.get(n.h)
	n.fillAttr(ino, &out.Attr)
	return 0
}

func (n *fuseNode) fillAttr(ino *inode, attr *fuse.Attr) {
	attr.Ino = uint64(ino.oid)
	attr.Size = uint64(ino.cachedDataLen)
	if ino.isDir() {
		attr.Mode = syscall.S_IFDIR | 0o755
	} else {
		attr.Mode = syscall.S_IFREG | 0o644
	}
	attr.Nlink = 1
}

func (n *fuseNode) Open(ctx context.Context, flags uint32) (fs.FileHandle, uint32, syscall.Errno) {
	return nil, fuse.FOPEN_KEEP_CACHE, 0
}

func (n *fuseNode) Read(ctx context.Context, f fs.FileHandle, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	nread, err := n.zfs.readFileAt(n.h, off, dest)
	if err != nil && nread == 0 {
		return nil, syscall.EIO
	}
	return fuse.ReadResultData(dest[:nread]), 0
}
