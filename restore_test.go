package ffs

import (
	"context"
	"errors"
	"io/fs"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const testSectorSize = 256

func descsFor(sectors [][]byte) []SectorDesc {
	descs := make([]SectorDesc, len(sectors))
	for i, s := range sectors {
		descs[i] = SectorDesc{FlashOffset: uint32(i * len(s)), FlashLength: uint32(len(s))}
	}
	return descs
}

func restoreSectors(t *testing.T, sectors [][]byte) (*Filesystem, error) {
	t.Helper()
	flash := NewMemFlash(sectors)
	zfs, err := NewFilesystem(flash)
	if err != nil {
		t.Fatalf("NewFilesystem: %v", err)
	}
	err = zfs.RestoreFull(context.Background(), descsFor(sectors))
	return zfs, err
}

// S1 Empty media: two data sectors each with valid headers but body all
// 0xFF, plus one scratch sector -> restore fails CORRUPT (no root).
func TestRestoreS1EmptyMedia(t *testing.T) {
	a := newSectorBuilder(false).bytes(testSectorSize)
	b := newSectorBuilder(false).bytes(testSectorSize)
	scratch := newSectorBuilder(true).bytes(testSectorSize)

	_, err := restoreSectors(t, [][]byte{a, b, scratch})
	if !errors.Is(err, ErrCorrupt) {
		t.Fatalf("want ErrCorrupt, got %v", err)
	}
}

// S2 Fresh root only.
func TestRestoreS2FreshRoot(t *testing.T) {
	a := newSectorBuilder(false).inode(RootID, 0, NoneID, InodeDirectory, "").bytes(testSectorSize)
	scratch := newSectorBuilder(true).bytes(testSectorSize)

	zfs, err := restoreSectors(t, [][]byte{a, scratch})
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if zfs.root == noInode {
		t.Fatal("no root set")
	}
	if got := zfs.inodes.get(zfs.root).oid; got != RootID {
		t.Fatalf("root oid = %d, want %d", got, RootID)
	}

	count := 0
	zfs.index.iterateAll(func(indexEntry) { count++ })
	if count != 1 {
		t.Fatalf("index size = %d, want 1", count)
	}
}

// S3 Replacement: a newer record for the same id overwrites the older.
func TestRestoreS3Replacement(t *testing.T) {
	root := newSectorBuilder(false).inode(RootID, 0, NoneID, InodeDirectory, "")
	a := root.inode(7, 0, RootID, 0, "a").bytes(testSectorSize)
	b := newSectorBuilder(false).inode(7, 1, RootID, 0, "b").bytes(testSectorSize)
	scratch := newSectorBuilder(true).bytes(testSectorSize)

	zfs, err := restoreSectors(t, [][]byte{a, b, scratch})
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	h, ok := zfs.index.findInode(7)
	if !ok {
		t.Fatal("inode 7 not found")
	}
	ino := zfs.inodes.get(h)
	if string(ino.filename) != "b" {
		t.Fatalf("filename = %q, want %q", ino.filename, "b")
	}
}

// S4 Forward reference: a block arrives before its owning inode's record.
func TestRestoreS4ForwardReference(t *testing.T) {
	a := newSectorBuilder(false).block(20, 0, 10, 0, []byte("hello")).bytes(testSectorSize)
	b := newSectorBuilder(false).
		inode(RootID, 0, NoneID, InodeDirectory, "").
		inode(10, 0, RootID, 0, "f").
		bytes(testSectorSize)
	scratch := newSectorBuilder(true).bytes(testSectorSize)

	zfs, err := restoreSectors(t, [][]byte{a, b, scratch})
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	h, ok := zfs.index.findInode(10)
	if !ok {
		t.Fatal("inode 10 not found")
	}
	ino := zfs.inodes.get(h)
	if ino.isDummy() {
		t.Fatal("inode 10 still dummy")
	}
	if ino.isDir() {
		t.Fatal("inode 10 should be a file")
	}
	if len(ino.blocks) != 1 {
		t.Fatalf("inode 10 blocks = %d, want 1", len(ino.blocks))
	}
	if ino.cachedDataLen != 5 {
		t.Fatalf("cachedDataLen = %d, want 5", ino.cachedDataLen)
	}
}

// S5 Tombstoned subtree.
func TestRestoreS5TombstonedSubtree(t *testing.T) {
	a := newSectorBuilder(false).
		inode(RootID, 0, NoneID, InodeDirectory, "").
		inode(5, 0, RootID, InodeDirectory, "sub").
		inode(5, 1, NoneID, InodeDeleted, "").
		bytes(testSectorSize)
	scratch := newSectorBuilder(true).bytes(testSectorSize)

	zfs, err := restoreSectors(t, [][]byte{a, scratch})
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if _, ok := zfs.index.findInode(5); ok {
		t.Fatal("inode 5 should have been swept")
	}
	if children := zfs.Root().Children(); len(children) != 0 {
		t.Fatalf("root children = %v, want empty", children)
	}
}

// S6 Duplicate seq: two records for the same id at the same seq disagree.
func TestRestoreS6DuplicateSeq(t *testing.T) {
	a := newSectorBuilder(false).
		inode(RootID, 0, NoneID, InodeDirectory, "").
		inode(8, 3, RootID, 0, "x").
		inode(8, 3, RootID, 0, "y").
		bytes(testSectorSize)
	scratch := newSectorBuilder(true).bytes(testSectorSize)

	_, err := restoreSectors(t, [][]byte{a, scratch})
	if !errors.Is(err, ErrCorrupt) {
		t.Fatalf("want ErrCorrupt, got %v", err)
	}
}

// Property 2 + 3 + 4 + 5 + 6: a richer tree has no tombstones, closed
// parent/child links, consistent block attachment and length, and a
// monotone next id.
func TestRestoreInvariants(t *testing.T) {
	a := newSectorBuilder(false).
		inode(RootID, 0, NoneID, InodeDirectory, "").
		inode(2, 0, RootID, InodeDirectory, "dir").
		inode(3, 0, 2, 0, "file.txt").
		block(100, 0, 3, 0, []byte("abc")).
		block(101, 0, 3, 0, []byte("de")).
		bytes(testSectorSize)
	scratch := newSectorBuilder(true).bytes(testSectorSize)

	zfs, err := restoreSectors(t, [][]byte{a, scratch})
	if err != nil {
		t.Fatalf("restore: %v", err)
	}

	var maxID oid
	zfs.index.iterateAll(func(e indexEntry) {
		if e.typ == ObjInode {
			ino := zfs.inodes.get(e.ino)
			if ino.isDummy() || ino.isDeleted() {
				t.Fatalf("tombstone survived: oid %d", e.oid)
			}
			if !ino.isRoot() {
				if ino.parent == noInode {
					t.Fatalf("inode %d has no parent", e.oid)
				}
				parent := zfs.inodes.get(ino.parent)
				count := 0
				for _, c := range parent.children {
					if c == e.ino {
						count++
					}
				}
				if count != 1 {
					t.Fatalf("inode %d appears %d times in parent's children", e.oid, count)
				}
			}
		}
		if e.typ == ObjBlock {
			blk := zfs.blocks.get(e.blk)
			if blk.isDeleted() {
				t.Fatalf("deleted block %d survived", e.oid)
			}
			if blk.inode == noInode {
				t.Fatalf("orphaned block %d survived", e.oid)
			}
			owner := zfs.inodes.get(blk.inode)
			if owner.isDummy() {
				t.Fatalf("block %d attached to dummy inode", e.oid)
			}
		}
		if e.oid > maxID {
			maxID = e.oid
		}
	})
	if zfs.nextID <= maxID {
		t.Fatalf("nextID %d not greater than max observed id %d", zfs.nextID, maxID)
	}

	fileH, ok := zfs.index.findInode(3)
	if !ok {
		t.Fatal("inode 3 not found")
	}
	fileIno := zfs.inodes.get(fileH)
	if fileIno.cachedDataLen != 5 {
		t.Fatalf("cachedDataLen = %d, want 5", fileIno.cachedDataLen)
	}
}

// Property 7: exactly one scratch sector is adopted; a second is dropped.
func TestRestoreSingleScratch(t *testing.T) {
	a := newSectorBuilder(false).inode(RootID, 0, NoneID, InodeDirectory, "").bytes(testSectorSize)
	scratch1 := newSectorBuilder(true).bytes(testSectorSize)
	scratch2 := newSectorBuilder(true).bytes(testSectorSize)

	zfs, err := restoreSectors(t, [][]byte{a, scratch1, scratch2})
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if zfs.scratchSectorID != 1 {
		t.Fatalf("scratchSectorID = %d, want 1 (first scratch wins)", zfs.scratchSectorID)
	}
}

// Property 10: a corrupted non-scratch sector is dropped, not fatal, and
// objects recoverable from other sectors still come back.
func TestRestoreCorruptionContainment(t *testing.T) {
	good := newSectorBuilder(false).inode(RootID, 0, NoneID, InodeDirectory, "").bytes(testSectorSize)
	corrupt := make([]byte, testSectorSize)
	for i := range corrupt {
		corrupt[i] = 0x42
	}
	scratch := newSectorBuilder(true).bytes(testSectorSize)

	zfs, err := restoreSectors(t, [][]byte{good, corrupt, scratch})
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if zfs.root == noInode {
		t.Fatal("root missing after containment")
	}
}

// Reading a restored file through the iofs.FS presentation returns exactly
// the bytes its blocks were built with, across a block boundary.
func TestFsysReadFile(t *testing.T) {
	a := newSectorBuilder(false).
		inode(RootID, 0, NoneID, InodeDirectory, "").
		inode(9, 0, RootID, 0, "greeting.txt").
		block(200, 0, 9, 0, []byte("hello, ")).
		block(201, 0, 9, 0, []byte("world")).
		bytes(testSectorSize)
	scratch := newSectorBuilder(true).bytes(testSectorSize)

	zfs, err := restoreSectors(t, [][]byte{a, scratch})
	if err != nil {
		t.Fatalf("restore: %v", err)
	}

	data, err := fs.ReadFile(zfs, "greeting.txt")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "hello, world" {
		t.Fatalf("data = %q, want %q", data, "hello, world")
	}
}

// objectSnapshot is a structural, exported-fields-only view of a restored
// inode used to compare two restores with go-cmp while ignoring physical
// placement (sectorID/sectorOffset) per the order-independence property.
type objectSnapshot struct {
	OID      oid
	IsDir    bool
	Name     string
	Children []string
	DataLen  uint32
}

func snapshotTree(zfs *Filesystem) []objectSnapshot {
	var out []objectSnapshot
	zfs.index.iterateAll(func(e indexEntry) {
		if e.typ != ObjInode {
			return
		}
		ino := zfs.inodes.get(e.ino)
		var names []string
		for _, ch := range ino.children {
			names = append(names, string(zfs.inodes.get(ch).filename))
		}
		sort.Strings(names)
		out = append(out, objectSnapshot{
			OID:      e.oid,
			IsDir:    ino.isDir(),
			Name:     string(ino.filename),
			Children: names,
			DataLen:  ino.cachedDataLen,
		})
	})
	sort.Slice(out, func(i, j int) bool { return out[i].OID < out[j].OID })
	return out
}

// Property 8: restoring the same sector set in a different order yields a
// structurally identical tree, ignoring physical placement.
func TestRestoreOrderIndependence(t *testing.T) {
	root := newSectorBuilder(false).inode(RootID, 0, NoneID, InodeDirectory, "").bytes(testSectorSize)
	dir := newSectorBuilder(false).inode(2, 0, RootID, InodeDirectory, "dir").bytes(testSectorSize)
	file := newSectorBuilder(false).
		inode(3, 0, 2, 0, "f").
		block(100, 0, 3, 0, []byte("xy")).
		bytes(testSectorSize)
	scratch := newSectorBuilder(true).bytes(testSectorSize)

	orderA := [][]byte{root, dir, file, scratch}
	orderB := [][]byte{scratch, file, dir, root}

	zfsA, err := restoreSectors(t, orderA)
	if err != nil {
		t.Fatalf("restore order A: %v", err)
	}
	zfsB, err := restoreSectors(t, orderB)
	if err != nil {
		t.Fatalf("restore order B: %v", err)
	}

	if diff := cmp.Diff(snapshotTree(zfsA), snapshotTree(zfsB)); diff != "" {
		t.Fatalf("restore differs across sector order (-A +B):\n%s", diff)
	}
}

// A checksummed block verifies cleanly when read whole and returns its
// original payload.
func TestFsysChecksumVerification(t *testing.T) {
	payload := []byte("checked data")
	a := newSectorBuilder(false).
		inode(RootID, 0, NoneID, InodeDirectory, "").
		inode(11, 0, RootID, 0, "sum.bin").
		blockChecksummed(300, 0, 11, payload).
		bytes(testSectorSize)
	scratch := newSectorBuilder(true).bytes(testSectorSize)

	zfs, err := restoreSectors(t, [][]byte{a, scratch})
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	data, err := fs.ReadFile(zfs, "sum.bin")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != string(payload) {
		t.Fatalf("data = %q, want %q", data, payload)
	}
}
