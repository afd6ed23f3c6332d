package ffs

import (
	"encoding/binary"
	"hash/crc32"
)

// sectorBuilder assembles a synthetic sector image byte-by-byte, the way a
// real flash sector would accumulate log records: a header, then a
// sequence of inode/block records in append order.
type sectorBuilder struct {
	buf []byte
}

func newSectorBuilder(isScratch bool) *sectorBuilder {
	b := &sectorBuilder{}
	var hdr [sectorHeaderSize]byte
	binary.LittleEndian.PutUint32(hdr[0:4], sectorMagic)
	if isScratch {
		hdr[4] = scratchByteSet
	} else {
		hdr[4] = scratchByteUnset
	}
	b.buf = append(b.buf, hdr[:]...)
	return b
}

func (b *sectorBuilder) inode(id, sq, parent oid, flags uint8, name string) *sectorBuilder {
	var fixed [inodeFixedSize]byte
	binary.LittleEndian.PutUint32(fixed[0:4], inodeMagic)
	binary.LittleEndian.PutUint32(fixed[4:8], id)
	binary.LittleEndian.PutUint32(fixed[8:12], sq)
	binary.LittleEndian.PutUint32(fixed[12:16], parent)
	fixed[16] = flags
	fixed[17] = uint8(len(name))
	b.buf = append(b.buf, fixed[:]...)
	b.buf = append(b.buf, []byte(name)...)
	return b
}

func (b *sectorBuilder) block(id, sq, inodeID oid, flags uint8, data []byte) *sectorBuilder {
	var fixed [blockFixedSize]byte
	binary.LittleEndian.PutUint32(fixed[0:4], blockMagic)
	binary.LittleEndian.PutUint32(fixed[4:8], id)
	binary.LittleEndian.PutUint32(fixed[8:12], sq)
	binary.LittleEndian.PutUint32(fixed[12:16], inodeID)
	binary.LittleEndian.PutUint16(fixed[16:18], uint16(len(data)))
	fixed[18] = flags
	b.buf = append(b.buf, fixed[:]...)
	b.buf = append(b.buf, data...)
	return b
}

// blockChecksummed appends a block record flagged as carrying a trailing
// CRC32 over its data, the checksum.go registry's only handler besides
// "none".
func (b *sectorBuilder) blockChecksummed(id, sq, inodeID oid, data []byte) *sectorBuilder {
	b.block(id, sq, inodeID, blockHasCksum, data)
	var sum [4]byte
	binary.LittleEndian.PutUint32(sum[:], crc32.ChecksumIEEE(data))
	b.buf = append(b.buf, sum[:]...)
	return b
}

// corruptMagic appends an unrecognized magic at the next record boundary
// (after whatever records were already added), simulating a torn write or
// garbage byte.
func (b *sectorBuilder) corruptMagic() *sectorBuilder {
	var junk [4]byte
	binary.LittleEndian.PutUint32(junk[:], 0xdeadbeef)
	b.buf = append(b.buf, junk[:]...)
	return b
}

// bytes pads the builder's content to sectorSize with erased (0xFF) bytes
// and returns the full sector image. Panics if the content already
// exceeds sectorSize, since that would be a malformed test fixture.
func (b *sectorBuilder) bytes(sectorSize int) []byte {
	if len(b.buf) > sectorSize {
		panic("ffs: fixture sector overflow")
	}
	out := make([]byte, sectorSize)
	for i := range out {
		out[i] = 0xff
	}
	copy(out, b.buf)
	return out
}
