package btree

import (
	"fmt"

	"github.com/flatzdev/rtarc/internal/rtarcerr"
	"github.com/flatzdev/rtarc/internal/varint"
)

// NodeFlagCompressed marks a node's payload as compressed (raw-deflate or
// an "expand" container, distinguished at decompression time).
const NodeFlagCompressed = 0x01

// NodeKey is the key type for the node tree: the (volume, sector, size)
// triple locating a file's payload bytes, keyed and ordered by nodeIndex
// alone.
type NodeKey struct {
	Flags       uint8
	NodeIndex   uint32
	Size1       uint32
	Size2       uint32
	VolumeIndex uint32
	SectorIndex uint32
}

func (k NodeKey) IsCompressed() bool { return k.Flags&NodeFlagCompressed != 0 }

// NodeKeyTraits implements KeyTraits[NodeKey]. hasMultipleVolumes reports
// whether the enclosing archive spans more than one data volume (true
// only for T7), controlling whether a volumeIndex field is present.
type NodeKeyTraits struct {
	HasMultipleVolumes bool
}

func (t NodeKeyTraits) Parse(data []byte) (NodeKey, int, error) {
	if len(data) < 1 {
		return NodeKey{}, 0, fmt.Errorf("btree: node key flags: %w", rtarcerr.Truncated)
	}
	flags := data[0]
	pos := 1

	nodeIndex, n, err := varint.Decode(data, pos)
	if err != nil {
		return NodeKey{}, 0, err
	}
	pos = n

	size1, n, err := varint.Decode(data, pos)
	if err != nil {
		return NodeKey{}, 0, err
	}
	pos = n

	size2 := size1
	if flags&0x0F != 0 {
		size2, n, err = varint.Decode(data, pos)
		if err != nil {
			return NodeKey{}, 0, err
		}
		pos = n
	}

	var volumeIndex uint64
	if t.HasMultipleVolumes {
		volumeIndex, n, err = varint.Decode(data, pos)
		if err != nil {
			return NodeKey{}, 0, err
		}
		pos = n
	}

	sectorIndex, n, err := varint.Decode(data, pos)
	if err != nil {
		return NodeKey{}, 0, err
	}
	pos = n

	return NodeKey{
		Flags:       flags,
		NodeIndex:   uint32(nodeIndex),
		Size1:       uint32(size1),
		Size2:       uint32(size2),
		VolumeIndex: uint32(volumeIndex),
		SectorIndex: uint32(sectorIndex),
	}, pos, nil
}

// Advance skips an internal-node record's key-specific bytes. The
// record's leading high-water varint (nodeIndex, doubling as the
// skeleton's bound) has already been consumed before Advance is called;
// node-tree internal records carry nothing else before the trailing
// child offset, so there is nothing left to skip.
func (NodeKeyTraits) Advance(data []byte) (int, error) {
	return 0, nil
}

func (t NodeKeyTraits) Equal(key NodeKey, data []byte) (int, error) {
	other, _, err := t.Parse(data)
	if err != nil {
		return 0, err
	}
	return compareNodeIndex(key.NodeIndex, other.NodeIndex), nil
}

// Less compares against an internal-node record, which is just
// {nodeIndex varint}{childOffset varint}: nodeIndex doubles as the
// generic skeleton's high-water mark, so it is read here directly.
func (NodeKeyTraits) Less(key NodeKey, data []byte) (int, error) {
	nodeIndex, _, err := varint.Decode(data, 0)
	if err != nil {
		return 0, err
	}
	ret := compareNodeIndex(key.NodeIndex, uint32(nodeIndex))
	if ret != 0 {
		return ret, nil
	}
	return 1, nil
}

func compareNodeIndex(a, b uint32) int {
	if a == b {
		return 0
	}
	if a < b {
		return -1
	}
	return 1
}
