package rtflate

import (
	"encoding/binary"
	"fmt"

	"github.com/flatzdev/rtarc/internal/rtarcerr"
)

const (
	expandMagic     uint32 = 0xFFF7F32F
	expandAlignment        = 0x400

	superHeaderSize   = 32 // magic, decompressedFileSize, fileSize, segmentSize, flags, 3 reserved u32
	segmentHeaderSize = 16 // magic, size, zSize, checkSum
)

// superHeader is the "expand" container's leading 32-byte header. It is
// always little-endian regardless of the enclosing archive's dialect.
type superHeader struct {
	magic                uint32
	decompressedFileSize uint32
	fileSize             uint32
	segmentSize          uint32
	flags                uint32
}

func parseSuperHeader(data []byte) (superHeader, bool) {
	if len(data) < superHeaderSize {
		return superHeader{}, false
	}
	return superHeader{
		magic:                binary.LittleEndian.Uint32(data[0:4]),
		decompressedFileSize: binary.LittleEndian.Uint32(data[4:8]),
		fileSize:             binary.LittleEndian.Uint32(data[8:12]),
		segmentSize:          binary.LittleEndian.Uint32(data[12:16]),
		flags:                binary.LittleEndian.Uint32(data[16:20]),
	}, true
}

// CheckIfExpanded is a pure predicate: true if data looks like a
// well-formed "expand" container (correct magic, a nonzero segment size
// that is a multiple of 0x400, and enough bytes to hold fileSize).
func CheckIfExpanded(data []byte) bool {
	hdr, ok := parseSuperHeader(data)
	if !ok {
		return false
	}
	if hdr.magic != expandMagic {
		return false
	}
	if hdr.segmentSize == 0 || hdr.segmentSize%expandAlignment != 0 {
		return false
	}
	if uint32(len(data)) < hdr.fileSize {
		return false
	}
	return true
}

// segmentHeader is the 16-byte header preceding each segment's raw-deflate
// payload. CheckSum is read but never verified, matching the original
// tool's behavior.
type segmentHeader struct {
	magic    uint32
	size     uint32
	zSize    uint32
	checkSum uint32
}

func parseSegmentHeader(data []byte, offset int) (segmentHeader, error) {
	if offset < 0 || offset+segmentHeaderSize > len(data) {
		return segmentHeader{}, fmt.Errorf("rtflate: segment header at %d: %w", offset, rtarcerr.Truncated)
	}
	b := data[offset:]
	return segmentHeader{
		magic:    binary.LittleEndian.Uint32(b[0:4]),
		size:     binary.LittleEndian.Uint32(b[4:8]),
		zSize:    binary.LittleEndian.Uint32(b[8:12]),
		checkSum: binary.LittleEndian.Uint32(b[12:16]),
	}, nil
}

// Unexpand decompresses a multi-segment "expand" container. Segment 0's
// header sits immediately after the 32-byte super-header (offset 32);
// segment i (i >= 1) sits at offset i*segmentSize from the start of the
// buffer. Each segment contributes zSize bytes of raw-deflate input, whose
// inflated output is appended in order. The concatenated output must equal
// decompressedFileSize exactly, or the container is considered corrupt.
func Unexpand(in []byte) ([]byte, error) {
	if !CheckIfExpanded(in) {
		return nil, fmt.Errorf("rtflate: not an expand container: %w", rtarcerr.DecompressionFailed)
	}

	hdr, _ := parseSuperHeader(in)
	segmentCount := (hdr.fileSize + hdr.segmentSize - 1) / hdr.segmentSize

	out := make([]byte, 0, hdr.decompressedFileSize)

	for i := uint32(0); i < segmentCount; i++ {
		var segOffset int
		if i == 0 {
			segOffset = superHeaderSize
		} else {
			segOffset = int(hdr.segmentSize) * int(i)
		}

		segHdr, err := parseSegmentHeader(in, segOffset)
		if err != nil {
			return nil, err
		}

		dataStart := segOffset + segmentHeaderSize
		dataEnd := dataStart + int(segHdr.zSize)
		if dataEnd > len(in) {
			return nil, fmt.Errorf("rtflate: segment %d payload truncated: %w", i, rtarcerr.Truncated)
		}

		inflated, err := Inflate(in[dataStart:dataEnd])
		if err != nil {
			return nil, err
		}
		out = append(out, inflated...)
	}

	if uint32(len(out)) != hdr.decompressedFileSize {
		return nil, fmt.Errorf("rtflate: expanded size %d != expected %d: %w", len(out), hdr.decompressedFileSize, rtarcerr.DecompressionFailed)
	}

	return out, nil
}
