// Package varint decodes the archive's self-delimiting, big-endian
// variable-length unsigned integer encoding.
//
// The format is not the usual protobuf-style little-endian continuation-bit
// varint: the first byte's high bits signal how many following bytes
// extend the value, and each extension byte is folded in by shifting the
// accumulator left by 8 bits and subtracting the consumed continuation
// mask. See Decode for the exact algorithm.
package varint

import (
	"fmt"

	"github.com/flatzdev/rtarc/internal/rtarcerr"
)

// maxIterations bounds the decode loop: the encoding can address at most an
// 8-byte payload, so the mask (starting at 0x80 and shifting left by 7 each
// round) exhausts a uint64 well before 9 rounds.
const maxIterations = 9

// Decode reads a varint starting at offset in buf and returns the decoded
// value along with the offset of the first byte past the encoding.
func Decode(buf []byte, offset int) (value uint64, next int, err error) {
	if offset >= len(buf) {
		return 0, offset, fmt.Errorf("varint: decode at %d: %w", offset, rtarcerr.Truncated)
	}

	value = uint64(buf[offset])
	offset++
	mask := uint64(0x80)

	for i := 0; i < maxIterations && value&mask != 0; i++ {
		if offset >= len(buf) {
			return 0, offset, fmt.Errorf("varint: decode truncated after %d bytes: %w", offset, rtarcerr.Truncated)
		}
		value = ((value - mask) << 8) | uint64(buf[offset])
		offset++
		mask <<= 7
	}

	return value, offset, nil
}

// DecodeAndAdvance decodes a varint from *offset, updating *offset in
// place to point past the consumed bytes.
func DecodeAndAdvance(buf []byte, offset *int) (uint64, error) {
	value, next, err := Decode(buf, *offset)
	if err != nil {
		return 0, err
	}
	*offset = next
	return value, nil
}

// Skip advances past a varint without materializing its value, returning
// the offset of the first byte past the encoding.
func Skip(buf []byte, offset int) (int, error) {
	_, next, err := Decode(buf, offset)
	return next, err
}
