package ffs

import "errors"

// classifySector reads the header of the sector described by desc and
// reports whether it is usable and, if so, whether it's the scratch
// sector. A malformed header is reported as corrupt, not as an error: the
// caller silently drops the sector rather than failing the whole mount.
// Reads happen at desc.FlashOffset directly (spec 4.2 step 1: "read the
// sector header at flash_offset"), since a not-yet-accepted sector has no
// entry in the sector table yet.
func classifySector(fr FlashReader, desc SectorDesc) (isScratch, corrupt bool, err error) {
	if desc.FlashLength < sectorHeaderSize {
		return false, true, nil
	}
	var buf [sectorHeaderSize]byte
	readErr := fr.ReadAt(desc.FlashOffset, buf[:])
	if readErr != nil {
		if errors.Is(readErr, ErrRange) || errors.Is(readErr, ErrCorrupt) {
			// header absent: too short to even hold one.
			return false, true, nil
		}
		return false, false, readErr
	}

	hdr, decErr := decodeSectorHeader(buf[:])
	if decErr != nil {
		return false, true, nil
	}
	return hdr.isScratch, false, nil
}
