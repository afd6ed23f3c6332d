package ffs

import (
	"fmt"
	"os"
)

// FlashReader is the flash HAL this package depends on: a positional read
// at an absolute byte offset in the flash address space into a
// caller-provided buffer. No caching, no write path — restore is
// read-only. Addressing by absolute offset (rather than by a sector id
// private to this package) mirrors spec 4.2's "read the sector header at
// flash_offset" and the original's ffs_flash_read, which itself resolves
// through the same flat device the sector table describes.
type FlashReader interface {
	// ReadAt reads len(buf) bytes starting at absolute offset off. Returns
	// ErrRange if the read runs past the device's end, ErrFlash if the
	// underlying medium refuses it.
	ReadAt(off uint32, buf []byte) error
}

// MemFlash is an in-memory FlashReader, the synthetic-image equivalent of
// the teacher's mockReader: the sectors passed to NewMemFlash are
// concatenated into one flat buffer, addressed the same way a caller's
// SectorDesc.FlashOffset values address them.
type MemFlash struct {
	data []byte
}

// NewMemFlash concatenates sectors into a flat flash image. A SectorDesc
// whose FlashOffset is the running byte offset of sectors[i] within this
// concatenation (what descsFor-style test helpers compute) addresses
// exactly that sector's bytes.
func NewMemFlash(sectors [][]byte) *MemFlash {
	var data []byte
	for _, s := range sectors {
		data = append(data, s...)
	}
	return &MemFlash{data: data}
}

func (m *MemFlash) ReadAt(off uint32, buf []byte) error {
	if uint64(off)+uint64(len(buf)) > uint64(len(m.data)) {
		return ErrRange
	}
	copy(buf, m.data[off:int(off)+len(buf)])
	return nil
}

// FileFlash reads a flat flash image out of a backing *os.File, mirroring
// the teacher's file-backed Open(path). Offsets are absolute within the
// file, matching SectorDesc.FlashOffset values a caller derives from its
// own sector layout.
type FileFlash struct {
	f    *os.File
	size int64
}

// OpenFileFlash opens path and returns a FlashReader over its full
// contents, addressed by absolute byte offset.
func OpenFileFlash(path string) (*FileFlash, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFlash, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %v", ErrFlash, err)
	}
	return &FileFlash{f: f, size: info.Size()}, nil
}

func (ff *FileFlash) Close() error {
	return ff.f.Close()
}

func (ff *FileFlash) ReadAt(off uint32, buf []byte) error {
	if uint64(off)+uint64(len(buf)) > uint64(ff.size) {
		return ErrRange
	}
	_, err := ff.f.ReadAt(buf, int64(off))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFlash, err)
	}
	return nil
}
