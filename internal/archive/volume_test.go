package archive

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// packTwelveBitFields mirrors internal/btree's field-packing scheme for
// a node's offset table: field i lives in a big-endian 16-bit word at
// byte (i*12)/8, in the high 12 bits for even i and the low 12 bits for
// odd i.
func packTwelveBitFields(values []uint16) []byte {
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

// buildSingleLeafTree lays out the smallest possible B-tree: a root with
// zero internal levels (childNodeCount 0) whose nodeDataOffset points
// straight at byte 6, where one leaf node holds the given pre-encoded,
// already key-sorted records.
func buildSingleLeafTree(records [][]byte) []byte {
	var body []byte
	offsets := make([]uint16, len(records))
	for i, r := range records {
		offsets[i] = uint16(len(body))
		body = append(body, r...)
	}

	fieldCount := len(records) + 2
	headerLen := len(packTwelveBitFields(make([]uint16, fieldCount)))
	for i := range offsets {
		offsets[i] += uint16(headerLen)
	}

	fields := append([]uint16{uint16(len(records))}, offsets...)
	fields = append(fields, 0) // trailing next-leaf offset: single leaf, unused

	node := append(append([]byte{}, packTwelveBitFields(fields)...), body...)

	out := make([]byte, 6)
	binary.BigEndian.PutUint32(out[0:4], 6) // childNodeCount=0, nodeDataOffset=6
	binary.BigEndian.PutUint16(out[4:6], 1) // one leaf in the chain
	return append(out, node...)
}

// encryptHeaderBytes computes the on-disk encrypted form of a plaintext
// header buffer, i.e. the unique input that decryptHeader inverts back to
// plain. It is the algebraic inverse of decryptHeader's two passes, derived
// directly from their definitions rather than guessed.
//
// decryptHeader's byte cipher (CryptBytes, seed 1) is a pure position-keyed
// XOR stream and therefore its own inverse; that half inverts trivially.
//
// The block pass is the part that needs care. cryptBlocksInternal
// byte-reverses every input word to on-wire form before chaining
// (bits.ReverseBytes32 is its own inverse, and byte reversal commutes with
// XOR since it is just a fixed bit permutation), so for i>=1:
//
//	plainWord[i] = midWord[i] XOR term(midWord[i-1])
//
// where term(y) = ReverseBytes32(shuffleBits(ReverseBytes32(y))) -
// this holds for both CryptBlocks and CryptBlocksWithSwapEndian, and for
// both the LE and BE field-read conventions, because the extra reversals
// each dialect's read path applies cancel out identically on both sides of
// the equation. term is not something this test can reach directly
// (shuffleBits is unexported), but CryptBlocks([y, 0])[1] computes exactly
// term(y): with a zero second input word, the chain's second output is
// 0 XOR term(y). Solving the plainWord equation for midWord[i] given
// midWord[i-1] and the target plainWord[i] is then a single XOR.
func encryptHeaderBytes(plain []byte, d Dialect) []byte {
	info := dialectTable[d]
	order := d.byteOrder()

	n := len(plain) / 4
	fieldValues := make([]uint32, n)
	for i := 0; i < n; i++ {
		fieldValues[i] = order.Uint32(plain[i*4:])
	}
	if d == T7 {
		fieldValues[0] ^= headerXORConstant
	}

	mid := make([]uint32, n)
	mid[0] = fieldValues[0]
	termOut := make([]uint32, 2)
	for i := 1; i < n; i++ {
		info.keyset.CryptBlocks(termOut, []uint32{mid[i-1], 0})
		term := termOut[1]
		mid[i] = fieldValues[i] ^ term
	}

	midBytes := make([]byte, len(plain))
	for i, w := range mid {
		binary.LittleEndian.PutUint32(midBytes[i*4:], w)
	}

	onDisk := make([]byte, len(midBytes))
	info.keyset.CryptBytes(onDisk, midBytes, 1)
	return onDisk
}

// buildSyntheticT5Archive constructs a minimal, fully valid on-disk T5
// archive: a header, a one-entry-tree index with a single file "data.bin"
// in the root directory, and that file's 16-byte payload, and writes it
// to a temp file. It returns the file's path and the plaintext payload.
func buildSyntheticT5Archive(t *testing.T) (path string, payload []byte) {
	t.Helper()
	d := T5
	order := d.byteOrder()

	nameTree := buildSingleLeafTree([][]byte{{0x04, 'd', 'a', 't', 'a'}})
	extTree := buildSingleLeafTree([][]byte{{0x04, '.', 'b', 'i', 'n'}})
	nodeTree := buildSingleLeafTree([][]byte{{0x00, 0x00, 0x10, 0x00}}) // flags, nodeIndex=0, size1=16, sectorIndex=0
	entryTree := buildSingleLeafTree([][]byte{{0x02, 0x00, 0x00, 0x00}}) // FILE flags, nameIndex=0, extIndex=0, linkIndex=0

	const segHdrLen = 4 + 4 + 4 + 4 + 4 + 4 // magic, name, ext, node, count, one entry-tree offset
	nameOff := uint32(segHdrLen)
	extOff := nameOff + uint32(len(nameTree))
	nodeOff := extOff + uint32(len(extTree))
	entryOff := nodeOff + uint32(len(nodeTree))

	segHdr := make([]byte, segHdrLen)
	order.PutUint32(segHdr[0:4], segmentMagic)
	order.PutUint32(segHdr[4:8], nameOff)
	order.PutUint32(segHdr[8:12], extOff)
	order.PutUint32(segHdr[12:16], nodeOff)
	order.PutUint32(segHdr[16:20], 1)
	order.PutUint32(segHdr[20:24], entryOff)

	indexBlob := append(append(append(append(append([]byte{}, segHdr...), nameTree...), extTree...), nodeTree...), entryTree...)

	const headerSeed = 777
	header := make([]byte, dialectTable[d].headerSize)
	order.PutUint32(header[0:4], headerMagic)
	order.PutUint32(header[4:8], headerSeed)
	order.PutUint32(header[8:12], uint32(len(indexBlob)))
	order.PutUint32(header[12:16], uint32(len(indexBlob)))
	copy(header[32:], "TESTARCHIVE")

	onDiskHeader := encryptHeaderBytes(header, d)

	encryptedIndex := make([]byte, len(indexBlob))
	dialectTable[d].keyset.CryptBytes(encryptedIndex, indexBlob, headerSeed)

	payload = []byte("0123456789ABCDEF")
	const nodeSeed = 0
	encryptedPayload := make([]byte, len(payload))
	dialectTable[d].keyset.CryptBytes(encryptedPayload, payload, nodeSeed)

	dataOffset := alignUp(sectorSizeT5T6+uint64(len(indexBlob)), sectorSizeT5T6)

	file := make([]byte, int(dataOffset)+len(encryptedPayload))
	copy(file, onDiskHeader)
	copy(file[sectorSizeT5T6:], encryptedIndex)
	copy(file[dataOffset:], encryptedPayload)

	path = filepath.Join(t.TempDir(), "archive.bin")
	require.NoError(t, os.WriteFile(path, file, 0o644))
	return path, payload
}

func TestEndToEndT5UnpackAll(t *testing.T) {
	path, payload := buildSyntheticT5Archive(t)

	vol, err := Open(path, nil)
	require.NoError(t, err)
	defer vol.Close()
	require.Equal(t, T5, vol.Dialect())

	outDir := t.TempDir()
	require.NoError(t, vol.UnpackAll(outDir))

	got, err := os.ReadFile(filepath.Join(outDir, "data.bin"))
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func TestEndToEndT5GetNodeByPathMatchesUnpackAll(t *testing.T) {
	path, payload := buildSyntheticT5Archive(t)

	vol, err := Open(path, nil)
	require.NoError(t, err)
	defer vol.Close()

	node, err := vol.GetNodeByPath("/data.bin")
	require.NoError(t, err)
	require.EqualValues(t, 0, node.NodeIndex)
	require.EqualValues(t, len(payload), node.Size1)

	outPath := filepath.Join(t.TempDir(), "out.bin")
	require.NoError(t, vol.UnpackNode(node, outPath))

	got, err := os.ReadFile(outPath)
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func TestOpenRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.bin")
	require.NoError(t, os.WriteFile(path, make([]byte, 8192), 0o644))

	_, err := Open(path, nil)
	require.Error(t, err)
}
