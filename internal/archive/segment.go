package archive

import (
	"encoding/binary"
	"fmt"

	"github.com/flatzdev/rtarc/internal/rtarcerr"
)

// segmentHeader locates the four B-tree roots within the decrypted,
// inflated index blob: the name tree, the extension tree, the node tree,
// and the root entry-tree offset table (directories reference nested
// entry trees by index into this table).
type segmentHeader struct {
	nameTreeOffset    uint32
	extTreeOffset     uint32
	nodeTreeOffset    uint32
	entryTreeOffsets  []uint32
}

func parseSegmentHeader(buf []byte, order binary.ByteOrder) (segmentHeader, error) {
	const fixedFieldsSize = 4 + 4 + 4 + 4 + 4 // magic, name, ext, node, count
	if len(buf) < fixedFieldsSize {
		return segmentHeader{}, fmt.Errorf("archive: segment header: %w", rtarcerr.Truncated)
	}

	magic := order.Uint32(buf[0:4])
	if magic != segmentMagic {
		return segmentHeader{}, rtarcerr.NewBadMagic("segment header", segmentMagic, uint64(magic))
	}

	nameTreeOffset := order.Uint32(buf[4:8])
	extTreeOffset := order.Uint32(buf[8:12])
	nodeTreeOffset := order.Uint32(buf[12:16])
	entryTreeCount := order.Uint32(buf[16:20])

	pos := 20
	end := pos + int(entryTreeCount)*4
	if end > len(buf) {
		return segmentHeader{}, fmt.Errorf("archive: segment header entry-tree table: %w", rtarcerr.Truncated)
	}
	offsets := make([]uint32, entryTreeCount)
	for i := range offsets {
		offsets[i] = order.Uint32(buf[pos+i*4:])
	}

	return segmentHeader{
		nameTreeOffset:   nameTreeOffset,
		extTreeOffset:    extTreeOffset,
		nodeTreeOffset:   nodeTreeOffset,
		entryTreeOffsets: offsets,
	}, nil
}
