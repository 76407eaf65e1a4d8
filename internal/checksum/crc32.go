// Package checksum implements the table-driven CRC32 variant (polynomial
// 0x04C11DB7, non-reflected) used both as a standalone digest and as the
// mixing primitive inside the Keyset cipher's block chain. The stdlib
// hash/crc32 package only implements the reflected IEEE variant and cannot
// express this update rule, so the table is built and walked by hand here.
package checksum

// Poly is the generator polynomial this table is built from.
const Poly uint32 = 0x04C11DB7

var table = buildTable()

func buildTable() [256]uint32 {
	var t [256]uint32
	for i := 0; i < 256; i++ {
		crc := uint32(i) << 24
		for bit := 0; bit < 8; bit++ {
			if crc&0x80000000 != 0 {
				crc = (crc << 1) ^ Poly
			} else {
				crc <<= 1
			}
		}
		t[i] = crc
	}
	return t
}

// Update folds data into an in-progress CRC value, non-reflected:
// crc = (crc << 8) ^ table[(crc >> 24) ^ byte].
func Update(crc uint32, data []byte) uint32 {
	for _, b := range data {
		crc = (crc << 8) ^ table[byte(crc>>24)^b]
	}
	return crc
}

// Sum computes the CRC32 of data starting from the given initial value.
func Sum(data []byte, initial uint32) uint32 {
	return Update(initial, data)
}

// SumString is a convenience wrapper for Sum over a string's bytes, used
// to derive cipher key material from a dialect's magic string.
func SumString(s string, initial uint32) uint32 {
	return Update(initial, []byte(s))
}

// Digest computes the standard CRC-32/BZIP2 check value: seed all-ones,
// fold with Update, then complement the result. This is the conventional
// self-check form (e.g. the "123456789" KAT); it is distinct from the
// cipher's internal use of Sum/SumString with a zero initial value and
// no final complement.
func Digest(data []byte) uint32 {
	return ^Update(0xFFFFFFFF, data)
}

// TableEntry exposes one entry of the precomputed CRC32 table. The Keyset
// cipher's block-chain mixing step (shuffleBits) indexes directly into this
// table rather than folding in a byte stream, so it needs entry-level
// access rather than the whole-buffer Update/Sum API.
func TableEntry(idx uint32) uint32 {
	return table[idx&0xFF]
}
