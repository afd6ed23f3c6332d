package ffs

import "encoding/binary"

// diskSectorHeader is the 8-byte header present at offset 0 of every
// sector: magic(4) is_scratch(1) pad(3).
type diskSectorHeader struct {
	isScratch bool
}

// diskInode is a decoded on-disk inode record, packed little-endian:
// magic(4) id(4) seq(4) parent_id(4) flags(1) filename_len(1) filename[...].
type diskInode struct {
	id          oid
	seq         seq
	parentID    oid
	flags       uint8
	filenameLen uint8
	filename    []byte
}

// diskBlock is a decoded on-disk block record, packed little-endian:
// magic(4) id(4) seq(4) inode_id(4) data_len(2) flags(1) data[...].
// The data bytes themselves are never read here: the scanner skips them.
type diskBlock struct {
	id       oid
	seq      seq
	inodeID  oid
	dataLen  uint16
	flags    uint8
}

// decodeSectorHeader validates and decodes the header at the start of a
// sector. Fails with ErrCorrupt if the magic doesn't match or is_scratch
// carries any byte value other than 0x00 / 0xFF.
func decodeSectorHeader(buf []byte) (diskSectorHeader, error) {
	if len(buf) < sectorHeaderSize {
		return diskSectorHeader{}, ErrCorrupt
	}
	magic := binary.LittleEndian.Uint32(buf[0:4])
	if magic != sectorMagic {
		return diskSectorHeader{}, ErrCorrupt
	}
	switch buf[4] {
	case scratchByteSet:
		return diskSectorHeader{isScratch: true}, nil
	case scratchByteUnset:
		return diskSectorHeader{isScratch: false}, nil
	default:
		return diskSectorHeader{}, ErrCorrupt
	}
}

// decodeInodeRecord decodes the fixed header and trailing filename of an
// inode record. buf must start right after the magic and be at least
// inodeFixedSize-4+filenameLen bytes, i.e. the caller has already read the
// filename_len byte's worth of header to know how much to pass in — in
// practice the caller is probeAt below, which handles the two-phase
// read against a FlashReader. maxFilenameLen enforces the mount's
// configured cap (see options.go's MaxFilenameLen); a record claiming a
// longer name is corrupt, not merely rejected.
func decodeInodeRecord(buf []byte, maxFilenameLen int) (*diskInode, error) {
	if len(buf) < inodeFixedSize-4 {
		return nil, ErrCorrupt
	}
	d := &diskInode{
		id:          binary.LittleEndian.Uint32(buf[0:4]),
		seq:         binary.LittleEndian.Uint32(buf[4:8]),
		parentID:    binary.LittleEndian.Uint32(buf[8:12]),
		flags:       buf[12],
		filenameLen: buf[13],
	}
	if int(d.filenameLen) > maxFilenameLen {
		return nil, ErrCorrupt
	}
	rest := buf[14:]
	if len(rest) < int(d.filenameLen) {
		return nil, ErrCorrupt
	}
	d.filename = append([]byte(nil), rest[:d.filenameLen]...)
	return d, nil
}

// decodeBlockRecord decodes the fixed header of a block record. buf must
// start right after the magic and be at least blockFixedSize-4 bytes; the
// trailing data bytes are not included and are never read by the scanner.
// maxBlockDataLen enforces the mount's configured cap (see options.go's
// MaxBlockDataLen); a record claiming more data than that is corrupt.
func decodeBlockRecord(buf []byte, maxBlockDataLen int) (*diskBlock, error) {
	if len(buf) < blockFixedSize-4 {
		return nil, ErrCorrupt
	}
	d := &diskBlock{
		id:      binary.LittleEndian.Uint32(buf[0:4]),
		seq:     binary.LittleEndian.Uint32(buf[4:8]),
		inodeID: binary.LittleEndian.Uint32(buf[8:12]),
		dataLen: binary.LittleEndian.Uint16(buf[12:14]),
		flags:   buf[14],
	}
	if int(d.dataLen) > maxBlockDataLen {
		return nil, ErrCorrupt
	}
	return d, nil
}

// probeResult is what probeAt returns: the decoded record (exactly one of
// inode/block is non-nil) plus its full on-disk size, needed by the scanner
// to advance its cursor.
type probeResult struct {
	kind  ObjType
	inode *diskInode
	block *diskBlock
	size  uint32
}

// probeAt reads the 4-byte magic at (sid, offset) and dispatches to the
// matching decoder. Returns ErrEmpty on an erased word (end of the written
// region) and ErrCorrupt on any other unrecognized magic, including a
// record whose claimed filename/data length exceeds the mount's
// configured caps. Reads go through fs.readAt, which resolves sid to its
// flash_offset in the sector table.
func probeAt(fs *Filesystem, sid sectorID, offset uint32, maxFilenameLen, maxBlockDataLen int) (*probeResult, error) {
	var magicBuf [4]byte
	if err := fs.readAt(sid, offset, magicBuf[:]); err != nil {
		return nil, err
	}
	magic := binary.LittleEndian.Uint32(magicBuf[:])

	switch magic {
	case emptyWord:
		return nil, ErrEmpty

	case inodeMagic:
		fixed := make([]byte, inodeFixedSize-4)
		if err := fs.readAt(sid, offset+4, fixed); err != nil {
			return nil, err
		}
		filenameLen := fixed[13]
		if int(filenameLen) > maxFilenameLen {
			return nil, ErrCorrupt
		}
		full := make([]byte, len(fixed)+int(filenameLen))
		copy(full, fixed)
		if filenameLen > 0 {
			if err := fs.readAt(sid, offset+4+uint32(len(fixed)), full[len(fixed):]); err != nil {
				return nil, err
			}
		}
		d, err := decodeInodeRecord(full, maxFilenameLen)
		if err != nil {
			return nil, err
		}
		return &probeResult{kind: ObjInode, inode: d, size: inodeFixedSize + uint32(filenameLen)}, nil

	case blockMagic:
		fixed := make([]byte, blockFixedSize-4)
		if err := fs.readAt(sid, offset+4, fixed); err != nil {
			return nil, err
		}
		d, err := decodeBlockRecord(fixed, maxBlockDataLen)
		if err != nil {
			return nil, err
		}
		size := uint32(blockFixedSize) + uint32(d.dataLen)
		if d.flags&blockHasCksum != 0 {
			size += 4
		}
		return &probeResult{kind: ObjBlock, block: d, size: size}, nil

	default:
		return nil, ErrCorrupt
	}
}
