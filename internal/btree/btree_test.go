package btree

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// packFields builds a node's 12-bit offset table the same way bitfield.At
// reads it: field i lives in a big-endian 16-bit word at byte (i*12)/8,
// occupying the high 12 bits for even i and the low 12 bits for odd i.
// Adjacent fields share a byte, so bytes are OR-merged rather than
// overwritten.
func packFields(values []uint16) []byte {
	maxLen := 0
	for i := range values {
		off := (i * 12) / 8
		if off+2 > maxLen {
			maxLen = off + 2
		}
	}
	buf := make([]byte, maxLen)
	for i, v := range values {
		off := (i * 12) / 8
		word := v & 0xFFF
		if i&1 == 0 {
			word <<= 4
		}
		buf[off] |= byte(word >> 8)
		buf[off+1] |= byte(word & 0xFF)
	}
	return buf
}

// buildSingleLeafStringTree constructs the smallest possible string tree:
// a root with zero internal levels whose nodeDataOffset points straight at
// one leaf holding the given already-sorted values.
func buildSingleLeafStringTree(t *testing.T, values []string) []byte {
	t.Helper()

	const nodeStart = 6

	var records []byte
	offsets := make([]uint16, len(values))
	for i, v := range values {
		require.Less(t, len(v), 0x80, "test helper only supports short strings")
		offsets[i] = uint16(len(records))
		records = append(records, byte(len(v)))
		records = append(records, v...)
	}

	fieldCount := len(values) + 2 // keyCount, one offset per value, trailing next-leaf offset
	headerLen := len(packFields(make([]uint16, fieldCount)))
	for i := range offsets {
		offsets[i] += uint16(headerLen)
	}

	header := []uint16{uint16(len(values))}
	header = append(header, offsets...)
	header = append(header, 0) // trailing "next leaf" offset: none

	hdrBytes := packFields(header)
	require.Equal(t, headerLen, len(hdrBytes))

	node := append(append([]byte{}, hdrBytes...), records...)

	data := make([]byte, nodeStart)
	binary.BigEndian.PutUint32(data[0:4], nodeStart) // childNodeCount=0, nodeDataOffset=nodeStart
	binary.BigEndian.PutUint16(data[4:6], 1)
	data = append(data, node...)
	return data
}

func TestStringTreeSearchTraverseGetByIndexConsistency(t *testing.T) {
	values := []string{"bar", "foo", "zap"}
	data := buildSingleLeafStringTree(t, values)
	tree := New(data, StringKeyTraits{})

	var seen []string
	count, err := tree.Traverse(func(k StringKey) bool {
		seen = append(seen, string(k.Value))
		return true
	})
	require.NoError(t, err)
	assert.EqualValues(t, len(values), count)
	assert.Equal(t, values, seen)

	for i, v := range values {
		idx, key, err := tree.SearchByKey(StringKey{Value: []byte(v)})
		require.NoError(t, err)
		assert.EqualValues(t, i, idx)
		assert.Equal(t, v, string(key.Value))

		got, err := tree.GetByIndex(uint32(i))
		require.NoError(t, err)
		assert.Equal(t, v, string(got.Value))

		got2, err := tree.SearchByIndex(uint32(i))
		require.NoError(t, err)
		assert.Equal(t, v, string(got2.Value))
	}

	_, _, err = tree.SearchByKey(StringKey{Value: []byte("missing")})
	assert.Error(t, err)
}

func TestEntryKeyParseRoundTrip(t *testing.T) {
	traits := EntryKeyTraits{}

	dir := EntryKey{Flags: EntryFlagDirectory, NameIndex: 5, LinkIndex: 2}
	data := encodeLeafEntry(t, dir)
	got, n, err := traits.Parse(data)
	require.NoError(t, err)
	assert.Equal(t, len(data), n)
	assert.Equal(t, dir.NameIndex, got.NameIndex)
	assert.Equal(t, dir.LinkIndex, got.LinkIndex)
	assert.True(t, got.IsDirectory())
	assert.False(t, got.IsFile())

	file := EntryKey{Flags: EntryFlagFile, NameIndex: 5, ExtIndex: 9, LinkIndex: 42}
	data = encodeLeafEntry(t, file)
	got, n, err = traits.Parse(data)
	require.NoError(t, err)
	assert.Equal(t, len(data), n)
	assert.Equal(t, file.ExtIndex, got.ExtIndex)
	assert.True(t, got.IsFile())

	ret, err := traits.Equal(file, data)
	require.NoError(t, err)
	assert.Equal(t, 0, ret)
}

// encodeLeafEntry encodes a leaf-style entry record: {flags}{nameIndex}
// {extIndex if FILE}{linkIndex}, all varints single-byte for test values.
func encodeLeafEntry(t *testing.T, k EntryKey) []byte {
	t.Helper()
	buf := []byte{k.Flags}
	buf = append(buf, byte(k.NameIndex))
	if k.Flags&EntryFlagFile != 0 {
		buf = append(buf, byte(k.ExtIndex))
	}
	buf = append(buf, byte(k.LinkIndex))
	return buf
}

func TestNodeKeyParseRoundTrip(t *testing.T) {
	traits := NodeKeyTraits{}

	k := NodeKey{Flags: NodeFlagCompressed, NodeIndex: 7, Size1: 100, Size2: 200, SectorIndex: 3}
	// Size2 (200) needs the two-byte varint form 0x80 0xC8; the rest fit in one byte.
	buf := []byte{k.Flags, byte(k.NodeIndex), byte(k.Size1), 0x80, byte(k.Size2), byte(k.SectorIndex)}
	got, n, err := traits.Parse(buf)
	require.NoError(t, err)
	assert.Equal(t, len(buf), n)
	assert.Equal(t, k.NodeIndex, got.NodeIndex)
	assert.Equal(t, k.Size1, got.Size1)
	assert.Equal(t, k.Size2, got.Size2)
	assert.True(t, got.IsCompressed())

	kMulti := NodeKey{Flags: 0, NodeIndex: 1, Size1: 50, VolumeIndex: 2, SectorIndex: 9}
	multiTraits := NodeKeyTraits{HasMultipleVolumes: true}
	buf2 := []byte{kMulti.Flags, byte(kMulti.NodeIndex), byte(kMulti.Size1), byte(kMulti.VolumeIndex), byte(kMulti.SectorIndex)}
	got2, _, err := multiTraits.Parse(buf2)
	require.NoError(t, err)
	assert.Equal(t, kMulti.VolumeIndex, got2.VolumeIndex)
	assert.Equal(t, kMulti.Size1, got2.Size2, "size2 defaults to size1 when flags&0x0F==0")
}
