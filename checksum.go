package ffs

import "hash/crc32"

// ChecksumFunc computes a checksum for some data, returning bytes to embed
// on disk. VerifyFunc checks previously-stored checksum bytes against the
// data they cover.
type ChecksumFunc func(data []byte) []byte
type VerifyFunc func(data, sum []byte) bool

// ChecksumHandler pairs a checksum algorithm's compute and verify sides.
// The registry follows the shape of a pluggable compression-codec registry;
// ffs records carry no compression, so here it selects a per-block
// checksum instead.
type ChecksumHandler struct {
	Size   int // number of trailing bytes this kind appends
	Sum    ChecksumFunc
	Verify VerifyFunc
}

var checksumRegistry = map[byte]*ChecksumHandler{}

func init() {
	RegisterChecksum(ChecksumNone, &ChecksumHandler{
		Size:   0,
		Sum:    func([]byte) []byte { return nil },
		Verify: func([]byte, []byte) bool { return true },
	})
	RegisterChecksum(ChecksumCRC32, &ChecksumHandler{
		Size: 4,
		Sum: func(data []byte) []byte {
			sum := crc32.ChecksumIEEE(data)
			return []byte{byte(sum), byte(sum >> 8), byte(sum >> 16), byte(sum >> 24)}
		},
		Verify: func(data, sum []byte) bool {
			if len(sum) != 4 {
				return false
			}
			want := uint32(sum[0]) | uint32(sum[1])<<8 | uint32(sum[2])<<16 | uint32(sum[3])<<24
			return crc32.ChecksumIEEE(data) == want
		},
	})
}

// RegisterChecksum adds or replaces a checksum kind in the default
// registry. Restore itself never calls Sum: it only verifies trailing
// checksums it finds, via Verify.
func RegisterChecksum(kind byte, h *ChecksumHandler) {
	checksumRegistry[kind] = h
}

func checksumHandler(kind byte) *ChecksumHandler {
	h, ok := checksumRegistry[kind]
	if !ok {
		return checksumRegistry[ChecksumNone]
	}
	return h
}
