package btree

import (
	"fmt"

	"github.com/flatzdev/rtarc/internal/rtarcerr"
	"github.com/flatzdev/rtarc/internal/varint"
)

// Entry flag bits.
const (
	EntryFlagDirectory = 0x01
	EntryFlagFile      = 0x02
)

// EntryKey is the key type for the entry tree: a directory or file record
// keyed by (nameIndex, extIndex). For directories linkIndex names a nested
// entry tree (0-based into the archive's entry-tree-offset table); for
// files it names a node-tree key.
type EntryKey struct {
	Flags     uint8
	NameIndex uint32
	ExtIndex  uint32
	LinkIndex uint32
}

func (k EntryKey) IsFile() bool      { return k.Flags&EntryFlagFile != 0 }
func (k EntryKey) IsDirectory() bool { return k.Flags&EntryFlagDirectory != 0 }

// EntryKeyTraits implements KeyTraits[EntryKey].
type EntryKeyTraits struct{}

func (EntryKeyTraits) Parse(data []byte) (EntryKey, int, error) {
	if len(data) < 1 {
		return EntryKey{}, 0, fmt.Errorf("btree: entry key flags: %w", rtarcerr.Truncated)
	}
	flags := data[0]
	pos := 1

	nameIndex, n, err := varint.Decode(data, pos)
	if err != nil {
		return EntryKey{}, 0, err
	}
	pos = n

	var extIndex uint64
	if flags&EntryFlagFile != 0 {
		extIndex, n, err = varint.Decode(data, pos)
		if err != nil {
			return EntryKey{}, 0, err
		}
		pos = n
	}

	linkIndex, n, err := varint.Decode(data, pos)
	if err != nil {
		return EntryKey{}, 0, err
	}
	pos = n

	return EntryKey{
		Flags:     flags,
		NameIndex: uint32(nameIndex),
		ExtIndex:  uint32(extIndex),
		LinkIndex: uint32(linkIndex),
	}, pos, nil
}

// Advance skips an internal-node entry record's key-specific bytes. The
// record's leading high-water varint (nameIndex, doubling as the
// subtree's bound) has already been consumed by the tree skeleton before
// calling Advance; internal-node records always carry an extIndex
// regardless of any flag, so only that one varint remains to skip.
func (EntryKeyTraits) Advance(data []byte) (int, error) {
	_, consumed, err := varint.Decode(data, 0)
	return consumed, err
}

func (EntryKeyTraits) Equal(key EntryKey, data []byte) (int, error) {
	other, _, err := EntryKeyTraits{}.Parse(data)
	if err != nil {
		return 0, err
	}
	return compareEntryOrder(key.NameIndex, key.ExtIndex, other.NameIndex, other.ExtIndex), nil
}

// Less compares against an internal-node record, whose layout is
// {nameIndex varint}{extIndex varint}{childOffset varint} — the leading
// nameIndex varint doubles as the generic skeleton's high-water mark, so
// it is read here directly rather than skipped as a distinct field.
func (EntryKeyTraits) Less(key EntryKey, data []byte) (int, error) {
	nameIndex, pos, err := varint.Decode(data, 0)
	if err != nil {
		return 0, err
	}
	extIndex, _, err := varint.Decode(data, pos)
	if err != nil {
		return 0, err
	}
	ret := compareEntryOrder(key.NameIndex, key.ExtIndex, uint32(nameIndex), uint32(extIndex))
	if ret != 0 {
		return ret, nil
	}
	return 1, nil
}

func compareEntryOrder(aName, aExt, bName, bExt uint32) int {
	if aName != bName {
		if aName < bName {
			return -1
		}
		return 1
	}
	if aExt != bExt {
		if aExt < bExt {
			return -1
		}
		return 1
	}
	return 0
}
