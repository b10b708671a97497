package hasher

import (
	"encoding/hex"

	"github.com/cespare/xxhash/v2"
)

// Sum computes the xxHash64 of data as 16 hex chars (64 bits), which
// is collision-safe for practical image counts. Run reports store the
// full sum.
func Sum(data []byte) string {
	h := xxhash.Sum64(data)
	return hex.EncodeToString(uint64ToBytes(h))
}

// Short returns the first 8 hex chars of Sum, used in content-addressed
// output filenames.
func Short(data []byte) string {
	return Sum(data)[:8]
}

func uint64ToBytes(v uint64) []byte {
	b := make([]byte, 8)
	b[0] = byte(v >> 56)
	b[1] = byte(v >> 48)
	b[2] = byte(v >> 40)
	b[3] = byte(v >> 32)
	b[4] = byte(v >> 24)
	b[5] = byte(v >> 16)
	b[6] = byte(v >> 8)
	b[7] = byte(v)
	return b
}
