package archive

import (
	"encoding/binary"
	"fmt"

	"github.com/flatzdev/rtarc/internal/rtarcerr"
)

// header holds the dialect-common fields every parsed primary-file header
// exposes, regardless of which dialect produced it.
type header struct {
	seed                   uint32
	compressedIndexSize    uint32
	decompressedIndexSize  uint32
	title                  string // T5/T6 only; empty for T7
	volumes                []t7VolumeEntry
}

// t7VolumeEntry describes one sibling data file listed in a T7 header.
type t7VolumeEntry struct {
	fileName string
	fileSize uint64
}

// decryptHeader applies the Keyset byte cipher (seed 1) followed by the
// 32-bit-block XOR-chain cipher, in place. Header bytes are reinterpreted
// as a native (little-endian) u32 array for the block pass regardless of
// the dialect's on-wire endianness — CryptBlocksWithSwapEndian compensates
// for big-endian-wire dialects by swapping each output word back.
func decryptHeader(buf []byte, d Dialect) error {
	info := dialectTable[d]
	info.keyset.CryptBytes(buf, buf, 1)

	if len(buf)%4 != 0 {
		return fmt.Errorf("archive: header size %d not word-aligned: %w", len(buf), rtarcerr.Truncated)
	}
	words := make([]uint32, len(buf)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(buf[i*4:])
	}

	if info.bigEndianWire {
		info.keyset.CryptBlocksWithSwapEndian(words, words)
	} else {
		info.keyset.CryptBlocks(words, words)
	}

	for i, w := range words {
		binary.LittleEndian.PutUint32(buf[i*4:], w)
	}

	if d == T7 {
		first := binary.LittleEndian.Uint32(buf[0:4])
		binary.LittleEndian.PutUint32(buf[0:4], first^headerXORConstant)
	}
	return nil
}

// parseHeaderT5T6 parses the common T5/T6 header layout: magic, seed,
// compressed/decompressed index sizes, 8 opaque bytes, u64 file size
// (read and discarded — not needed by the read path), 128-byte
// NUL-padded title.
func parseHeaderT5T6(buf []byte) (header, error) {
	order := binary.BigEndian
	magic := order.Uint32(buf[0:4])
	if magic != headerMagic {
		return header{}, rtarcerr.NewBadMagic("header", headerMagic, uint64(magic))
	}

	seed := order.Uint32(buf[4:8])
	compressedSize := order.Uint32(buf[8:12])
	decompressedSize := order.Uint32(buf[12:16])
	// buf[16:24] opaque, buf[24:32] archive file size: both unused by the
	// read path but their positions are preserved since the title field's
	// offset depends on them.
	title := nulTrimmed(buf[32:160])

	return header{
		seed:                  seed,
		compressedIndexSize:   compressedSize,
		decompressedIndexSize: decompressedSize,
		title:                 title,
	}, nil
}

// parseHeaderT7 parses the T7 header: magic, 16 opaque bytes, 0xDC
// reserved bytes, seed, compressed/decompressed index sizes, volume
// count, then that many {fileName[16], fileSize u64 word-swapped}
// entries.
func parseHeaderT7(buf []byte) (header, error) {
	order := binary.LittleEndian
	magic := order.Uint32(buf[0:4])
	if magic != headerMagic {
		return header{}, rtarcerr.NewBadMagic("header", headerMagic, uint64(magic))
	}

	pos := 4 + 16 + 0xDC
	seed := order.Uint32(buf[pos:])
	pos += 4
	compressedSize := order.Uint32(buf[pos:])
	pos += 4
	decompressedSize := order.Uint32(buf[pos:])
	pos += 4
	volumeCount := order.Uint32(buf[pos:])
	pos += 4

	volumes := make([]t7VolumeEntry, 0, volumeCount)
	for i := uint32(0); i < volumeCount; i++ {
		if pos+16+8 > len(buf) {
			return header{}, fmt.Errorf("archive: header volume table entry %d: %w", i, rtarcerr.Truncated)
		}
		name := nulTrimmed(buf[pos : pos+16])
		pos += 16
		size := readU64WordSwapped(buf, pos, order)
		pos += 8
		volumes = append(volumes, t7VolumeEntry{fileName: name, fileSize: size})
	}

	return header{
		seed:                  seed,
		compressedIndexSize:   compressedSize,
		decompressedIndexSize: decompressedSize,
		volumes:               volumes,
	}, nil
}

func parseHeader(buf []byte, d Dialect) (header, error) {
	if d == T7 {
		return parseHeaderT7(buf)
	}
	return parseHeaderT5T6(buf)
}

// extendedHeaderSize is the fixed size of a T7 sibling data file's leading
// extended header; only the first 32 bytes carry fields the reader uses,
// the remainder is reserved padding whose position must still be skipped.
const extendedHeaderSize = 40

// extendedHeaderMagic identifies a T7 sibling data file.
const extendedHeaderMagic = 0x2B26958523AD

type extendedHeader struct {
	sectorSize  uint32
	segmentSize uint32
	fileSize    uint64
	flags       uint32
}

// parseExtendedHeader parses a T7 sibling data file's leading header, not
// encrypted (unlike the primary file's header).
func parseExtendedHeader(buf []byte) (extendedHeader, error) {
	if len(buf) < extendedHeaderSize {
		return extendedHeader{}, fmt.Errorf("archive: extended header: %w", rtarcerr.Truncated)
	}
	order := binary.LittleEndian
	magic := order.Uint64(buf[0:8])
	if magic != extendedHeaderMagic {
		return extendedHeader{}, rtarcerr.NewBadMagic("extended header", extendedHeaderMagic, magic)
	}
	sectorSize := order.Uint32(buf[8:12])
	segmentSize := order.Uint32(buf[12:16])
	fileSize := order.Uint64(buf[16:24])
	flags := order.Uint32(buf[24:28])
	return extendedHeader{
		sectorSize:  sectorSize,
		segmentSize: segmentSize,
		fileSize:    fileSize,
		flags:       flags,
	}, nil
}

// readU64WordSwapped reads a 64-bit value stored as two 32-bit words with
// the high and low halves swapped relative to a plain 64-bit read of the
// given byte order — a quirk of the original tool's cross-platform struct
// packing for the T7 volume table's file sizes.
func readU64WordSwapped(buf []byte, offset int, order binary.ByteOrder) uint64 {
	high := order.Uint32(buf[offset:])
	low := order.Uint32(buf[offset+4:])
	return uint64(high)<<32 | uint64(low)
}

func nulTrimmed(buf []byte) string {
	for i, b := range buf {
		if b == 0 {
			return string(buf[:i])
		}
	}
	return string(buf)
}
