package rtflate

import "encoding/binary"

// zMagic is the 8-byte mini-header's marker, always little-endian
// regardless of the enclosing archive's dialect.
const zMagic uint32 = 0xFFF7EEC5

// InflateIfNeeded inspects an 8-byte little-endian mini-header
// {magic, sizeComplement} at the start of buf. When magic matches zMagic
// and outSize+sizeComplement wraps to zero (mod 2^32) — i.e. sizeComplement
// is the two's-complement of the expected output size — the remainder of
// buf is raw-inflated and returned with ok=true. Otherwise buf is returned
// unchanged with ok=false: the caller's data was never Z-compressed.
func InflateIfNeeded(buf []byte, outSize uint64) (data []byte, ok bool, err error) {
	if outSize > 0xFFFFFFFF || len(buf) < 8 {
		return buf, false, nil
	}

	magic := binary.LittleEndian.Uint32(buf[0:4])
	sizeComplement := binary.LittleEndian.Uint32(buf[4:8])

	if magic != zMagic || uint32(outSize)+sizeComplement != 0 {
		return buf, false, nil
	}

	inflated, err := Inflate(buf[8:])
	if err != nil {
		return nil, false, err
	}
	return inflated, true, nil
}
