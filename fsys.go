package ffs

import (
	"errors"
	"io"
	iofs "io/fs"
	"path"
	"sort"
	"strings"
	"time"
)

// Ensure the presentation layer satisfies the standard library interfaces
// it claims to.
var (
	_ iofs.FS          = (*Filesystem)(nil)
	_ iofs.File        = (*FileHandle)(nil)
	_ iofs.ReadDirFile = (*DirHandle)(nil)
	_ iofs.FileInfo    = (*entryInfo)(nil)
	_ iofs.DirEntry    = (*entryInfo)(nil)
)

// errNotMounted is returned by Open before a successful RestoreFull.
var errNotMounted = errors.New("ffs: filesystem not mounted")

// DirHandle is a convenience object presenting a directory inode as an
// iofs.ReadDirFile: instead of re-walking an on-disk directory table, it
// walks the in-RAM ordered children list left behind by restore.
type DirHandle struct {
	fs   *Filesystem
	h    inodeHandle
	name string
}

// FileHandle presents a file inode as an io.ReadSeeker backed by the
// restored block list; data is never cached in RAM and is re-read from
// flash on every call, mirroring this codebase's on-demand block reads.
type FileHandle struct {
	fs   *Filesystem
	h    inodeHandle
	name string
	pos  int64
}

type entryInfo struct {
	fs   *Filesystem
	h    inodeHandle
	name string
}

// Open implements iofs.FS. name is a slash-separated path relative to the
// restored root; "." refers to the root itself.
func (fs *Filesystem) Open(name string) (iofs.File, error) {
	if fs.root == noInode {
		return nil, &iofs.PathError{Op: "open", Path: name, Err: errNotMounted}
	}
	if !iofs.ValidPath(name) {
		return nil, &iofs.PathError{Op: "open", Path: name, Err: iofs.ErrInvalid}
	}

	h, err := fs.resolve(name)
	if err != nil {
		return nil, &iofs.PathError{Op: "open", Path: name, Err: err}
	}

	ino := fs.inodes.get(h)
	if ino.isDir() {
		return &DirHandle{fs: fs, h: h, name: name}, nil
	}
	return &FileHandle{fs: fs, h: h, name: name}, nil
}

func (fs *Filesystem) resolve(name string) (inodeHandle, error) {
	cur := fs.root
	for _, part := range splitPath(name) {
		next, ok := fs.lookupChild(cur, part)
		if !ok {
			return noInode, iofs.ErrNotExist
		}
		cur = next
	}
	return cur, nil
}

func (fs *Filesystem) lookupChild(dir inodeHandle, name string) (inodeHandle, bool) {
	ino := fs.inodes.get(dir)
	for _, ch := range ino.children {
		c := fs.inodes.get(ch)
		if string(c.filename) == name {
			return ch, true
		}
	}
	return noInode, false
}

// (FileHandle)

func (f *FileHandle) Stat() (iofs.FileInfo, error) {
	return &entryInfo{fs: f.fs, h: f.h, name: path.Base(f.name)}, nil
}

func (f *FileHandle) Read(p []byte) (int, error) {
	ino := f.fs.inodes.get(f.h)
	total := int64(ino.cachedDataLen)
	if f.pos >= total {
		return 0, io.EOF
	}
	if int64(len(p)) > total-f.pos {
		p = p[:total-f.pos]
	}

	n, err := f.fs.readFileAt(f.h, f.pos, p)
	f.pos += int64(n)
	return n, err
}

func (f *FileHandle) Seek(offset int64, whence int) (int64, error) {
	ino := f.fs.inodes.get(f.h)
	var base int64
	switch whence {
	case io.SeekStart:
		base = 0
	case io.SeekCurrent:
		base = f.pos
	case io.SeekEnd:
		base = int64(ino.cachedDataLen)
	default:
		return 0, iofs.ErrInvalid
	}
	f.pos = base + offset
	return f.pos, nil
}

func (f *FileHandle) Close() error { return nil }

// (DirHandle)

func (d *DirHandle) Stat() (iofs.FileInfo, error) {
	return &entryInfo{fs: d.fs, h: d.h, name: path.Base(d.name)}, nil
}

func (d *DirHandle) Read([]byte) (int, error) { return 0, iofs.ErrInvalid }
func (d *DirHandle) Close() error             { return nil }

func (d *DirHandle) ReadDir(n int) ([]iofs.DirEntry, error) {
	ino := d.fs.inodes.get(d.h)
	var out []iofs.DirEntry
	for _, ch := range ino.children {
		c := d.fs.inodes.get(ch)
		out = append(out, &entryInfo{fs: d.fs, h: ch, name: string(c.filename)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	if n > 0 && n < len(out) {
		return out[:n], nil
	}
	return out, nil
}

// Children lists the immediate entries of this directory in on-disk order
// (the order their inode records established), without the iofs.ReadDir
// sort. Useful for tests that assert restore's ordering guarantees.
func (d *DirHandle) Children() []string {
	ino := d.fs.inodes.get(d.h)
	names := make([]string, 0, len(ino.children))
	for _, ch := range ino.children {
		names = append(names, string(d.fs.inodes.get(ch).filename))
	}
	return names
}

// (entryInfo)

func (e *entryInfo) Name() string { return e.name }
func (e *entryInfo) Size() int64 {
	ino := e.fs.inodes.get(e.h)
	return int64(ino.cachedDataLen)
}
func (e *entryInfo) Mode() iofs.FileMode {
	ino := e.fs.inodes.get(e.h)
	if ino.isDir() {
		return iofs.ModeDir | 0o755
	}
	return 0o644
}
func (e *entryInfo) ModTime() time.Time         { return time.Time{} }
func (e *entryInfo) IsDir() bool                { return e.fs.inodes.get(e.h).isDir() }
func (e *entryInfo) Sys() any                   { return e.fs.inodes.get(e.h) }
func (e *entryInfo) Type() iofs.FileMode        { return e.Mode().Type() }
func (e *entryInfo) Info() (iofs.FileInfo, error) { return e, nil }

// readFileAt reads up to len(p) bytes of a file inode's data starting at
// off, walking its ordered block list and reading each block's payload
// straight from flash (blocks are never cached in RAM by restore).
func (fs *Filesystem) readFileAt(h inodeHandle, off int64, p []byte) (int, error) {
	ino := fs.inodes.get(h)
	var pos int64
	n := 0
	for _, bh := range ino.blocks {
		blk := fs.blocks.get(bh)
		blkLen := int64(blk.dataLen)
		if off >= pos+blkLen {
			pos += blkLen
			continue
		}
		start := int64(0)
		if off > pos {
			start = off - pos
		}
		want := blkLen - start
		if want > int64(len(p)-n) {
			want = int64(len(p) - n)
		}
		if want <= 0 {
			break
		}

		buf := make([]byte, want)
		dataOffset := blk.sectorOffset + blockFixedSize + uint32(start)
		if err := fs.readAt(blk.sectorID, dataOffset, buf); err != nil {
			return n, err
		}
		if err := fs.verifyBlockChecksum(blk, start == 0 && want == blkLen); err != nil {
			return n, err
		}
		copy(p[n:], buf)
		n += len(buf)
		pos += blkLen
		if n >= len(p) {
			break
		}
	}
	return n, nil
}

// verifyBlockChecksum optionally checks a block's trailing checksum. Only
// done when the whole block is being read in one shot (fullRead), since a
// partial read can't validate a checksum computed over the entire block.
func (fs *Filesystem) verifyBlockChecksum(blk *block, fullRead bool) error {
	if blk.flags&blockHasCksum == 0 || !fullRead {
		return nil
	}
	h := checksumHandler(blk.checksumKind)
	if h.Size == 0 {
		return nil
	}
	data := make([]byte, blk.dataLen)
	if err := fs.readAt(blk.sectorID, blk.sectorOffset+blockFixedSize, data); err != nil {
		return err
	}
	sum := make([]byte, h.Size)
	if err := fs.readAt(blk.sectorID, blk.sectorOffset+blockFixedSize+blk.dataLen, sum); err != nil {
		return err
	}
	if !h.Verify(data, sum) {
		return ErrCorrupt
	}
	return nil
}

func splitPath(name string) []string {
	if name == "" || name == "." {
		return nil
	}
	return strings.Split(name, "/")
}
