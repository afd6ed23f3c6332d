package ffs

// objectIndex is an open hash table keyed by oid, covering every live
// in-RAM object (inodes and blocks share one keyspace; callers disambiguate
// by type). Insertion order is preserved within a bucket — not globally —
// which is enough to make iterateAll's visiting order deterministic for a
// fixed bucket count, matching the contract spec'd for this component.
type objectIndex struct {
	buckets [][]indexEntry
}

type indexEntry struct {
	oid  oid
	typ  ObjType
	ino  inodeHandle
	blk  blockHandle
}

const indexBucketCount = 64

func newObjectIndex() *objectIndex {
	return &objectIndex{buckets: make([][]indexEntry, indexBucketCount)}
}

func (x *objectIndex) bucketFor(id oid) int {
	return int(id % indexBucketCount)
}

func (x *objectIndex) insertInode(id oid, h inodeHandle) {
	b := x.bucketFor(id)
	x.buckets[b] = append(x.buckets[b], indexEntry{oid: id, typ: ObjInode, ino: h})
}

func (x *objectIndex) insertBlock(id oid, h blockHandle) {
	b := x.bucketFor(id)
	x.buckets[b] = append(x.buckets[b], indexEntry{oid: id, typ: ObjBlock, blk: h})
}

func (x *objectIndex) findInode(id oid) (inodeHandle, bool) {
	for _, e := range x.buckets[x.bucketFor(id)] {
		if e.oid == id && e.typ == ObjInode {
			return e.ino, true
		}
	}
	return noInode, false
}

func (x *objectIndex) findBlock(id oid) (blockHandle, bool) {
	for _, e := range x.buckets[x.bucketFor(id)] {
		if e.oid == id && e.typ == ObjBlock {
			return e.blk, true
		}
	}
	return noBlock, false
}

func (x *objectIndex) remove(id oid, typ ObjType) {
	b := x.bucketFor(id)
	bucket := x.buckets[b]
	for idx, e := range bucket {
		if e.oid == id && e.typ == typ {
			x.buckets[b] = append(bucket[:idx], bucket[idx+1:]...)
			return
		}
	}
}

// iterateAll visits every entry in bucket order, then insertion order within
// a bucket. visit may be called while the caller plans removals, but must
// not mutate the index itself; sweep collects removals and applies them
// after the whole walk has finished.
func (x *objectIndex) iterateAll(visit func(indexEntry)) {
	for _, bucket := range x.buckets {
		for _, e := range bucket {
			visit(e)
		}
	}
}
