// Package bitfield reads the 12-bit big-endian fields packed into a
// B-tree node's offset table. Each node stores its key count and its
// per-key byte offsets as consecutive 12-bit values; this package isolates
// the bit-twiddling needed to address them.
package bitfield

import (
	"encoding/binary"
	"fmt"

	"github.com/flatzdev/rtarc/internal/rtarcerr"
)

// At returns the 12-bit field at logical index i within buf: a big-endian
// 16-bit word is read at byte offset (i*12)/8, and the low 12 bits are
// taken directly for odd i or after a 4-bit right shift for even i (since
// two adjacent fields share 3 bytes: even i's field occupies the high 12
// bits of that 3-byte span, odd i's the low 12 bits).
func At(buf []byte, i int) (uint16, error) {
	offset := (i * 12) / 8
	if offset < 0 || offset+2 > len(buf) {
		return 0, fmt.Errorf("bitfield: field %d at byte %d in %d-byte buffer: %w", i, offset, len(buf), rtarcerr.Truncated)
	}

	word := binary.BigEndian.Uint16(buf[offset:])
	if i&1 == 0 {
		word >>= 4
	}
	return word & 0xFFF, nil
}
