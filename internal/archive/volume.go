package archive

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/flatzdev/rtarc/internal/btree"
	"github.com/flatzdev/rtarc/internal/rtarcerr"
	"github.com/flatzdev/rtarc/internal/rtflate"
	"github.com/flatzdev/rtarc/internal/rtlog"
)

// Volume is an opened archive: the decrypted, inflated index blob plus
// the data stream(s) its node payloads live in. The index blob backs
// every key the four trees yield, so a Volume must outlive any key
// obtained from it.
type Volume struct {
	dialect    Dialect
	header     header
	blob       []byte
	nameTree   *btree.Tree[btree.StringKey]
	extTree    *btree.Tree[btree.StringKey]
	nodeTree   *btree.Tree[btree.NodeKey]
	entryTrees []*btree.Tree[btree.EntryKey]
	streams    []*dataStream
	logger     *slog.Logger
}

// Open probes T5, then T6, then T7 against path, returning the Volume of
// the first dialect whose whole load succeeds. logger may be nil, in
// which case a no-op logger is used.
func Open(path string, logger *slog.Logger) (*Volume, error) {
	if logger == nil {
		logger = rtlog.NopLogger()
	}

	var lastErr error
	for _, d := range []Dialect{T5, T6, T7} {
		v, err := load(path, d, logger)
		if err == nil {
			return v, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("archive: open %q: %w (last: %v)", path, rtarcerr.UnsupportedDialect, lastErr)
}

// load opens path as dialect d, running the full header-decrypt,
// index-decrypt-and-inflate, and tree-construction sequence described in
// the volume reader's load procedure. Any opened file handles are closed
// before a non-nil error is returned.
func load(path string, d Dialect, logger *slog.Logger) (*Volume, error) {
	info := dialectTable[d]

	primary, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("archive: open %q: %w", path, rtarcerr.Io)
	}
	closePrimary := true
	defer func() {
		if closePrimary {
			primary.Close()
		}
	}()

	headerBuf := make([]byte, info.headerSize)
	if _, err := primary.ReadAt(headerBuf, 0); err != nil {
		return nil, fmt.Errorf("archive: read %s header: %w", d, rtarcerr.Io)
	}

	if err := decryptHeader(headerBuf, d); err != nil {
		return nil, err
	}
	hdr, err := parseHeader(headerBuf, d)
	if err != nil {
		return nil, err
	}

	var indexOffset uint64
	if d == T7 {
		indexOffset = uint64(info.headerSize)
	} else {
		indexOffset = sectorSizeT5T6
	}

	indexBuf := make([]byte, hdr.compressedIndexSize)
	if _, err := primary.ReadAt(indexBuf, int64(indexOffset)); err != nil {
		return nil, fmt.Errorf("archive: read %s index blob: %w", d, rtarcerr.Io)
	}
	info.keyset.CryptBytes(indexBuf, indexBuf, hdr.seed)

	blob := indexBuf
	if inflated, ok, err := rtflate.InflateIfNeeded(indexBuf, uint64(hdr.decompressedIndexSize)); err != nil {
		return nil, err
	} else if ok {
		blob = inflated
	}

	segHdr, err := parseSegmentHeader(blob, d.byteOrder())
	if err != nil {
		return nil, err
	}

	streams, err := openVolumeStreams(path, d, hdr, primary)
	if err != nil {
		return nil, err
	}
	// Ownership of primary has passed to streams (T5/T6) or is no longer
	// needed (T7, where node payloads live in sibling files only).
	closePrimary = false
	if d == T7 {
		primary.Close()
	}

	hasMultipleVolumes := d == T7
	v := &Volume{
		dialect:  d,
		header:   hdr,
		blob:     blob,
		nameTree: btree.New(blob[segHdr.nameTreeOffset:], btree.StringKeyTraits{}),
		extTree:  btree.New(blob[segHdr.extTreeOffset:], btree.StringKeyTraits{}),
		nodeTree: btree.New(blob[segHdr.nodeTreeOffset:], btree.NodeKeyTraits{HasMultipleVolumes: hasMultipleVolumes}),
		streams:  streams,
		logger:   logger,
	}
	v.entryTrees = make([]*btree.Tree[btree.EntryKey], len(segHdr.entryTreeOffsets))
	for i, off := range segHdr.entryTreeOffsets {
		v.entryTrees[i] = btree.New(blob[off:], btree.EntryKeyTraits{})
	}
	return v, nil
}

// openVolumeStreams builds the per-dialect data stream set: for T5/T6 the
// primary file doubles as the sole data stream, offset past the header
// and index blob; for T7 each listed sibling file is opened and validated
// against its own extended header.
func openVolumeStreams(path string, d Dialect, hdr header, primary *os.File) ([]*dataStream, error) {
	if d != T7 {
		dataOffset := alignUp(sectorSizeT5T6+uint64(hdr.compressedIndexSize), sectorSizeT5T6)
		return []*dataStream{{file: primary, sectorSize: sectorSizeT5T6, dataOffset: dataOffset}}, nil
	}

	base := filepath.Dir(path)
	streams := make([]*dataStream, 0, len(hdr.volumes))
	for i, ve := range hdr.volumes {
		siblingPath := filepath.Join(base, ve.fileName)
		f, err := os.Open(siblingPath)
		if err != nil {
			closeAll(streams)
			return nil, fmt.Errorf("archive: open volume %d (%q): %w", i, siblingPath, rtarcerr.Io)
		}

		extBuf := make([]byte, extendedHeaderSize)
		if _, err := f.ReadAt(extBuf, 0); err != nil {
			f.Close()
			closeAll(streams)
			return nil, fmt.Errorf("archive: read volume %d extended header: %w", i, rtarcerr.Io)
		}
		ext, err := parseExtendedHeader(extBuf)
		if err != nil {
			f.Close()
			closeAll(streams)
			return nil, err
		}

		streams = append(streams, &dataStream{
			file:        f,
			sectorSize:  ext.sectorSize,
			segmentSize: ext.segmentSize,
			dataOffset:  0,
		})
	}
	return streams, nil
}

func closeAll(streams []*dataStream) {
	for _, s := range streams {
		s.Close()
	}
}

// Dialect reports which of the three archive generations this Volume was
// opened as.
func (v *Volume) Dialect() Dialect { return v.dialect }

// Title returns the T5/T6 header's NUL-trimmed title identifier; empty
// for T7, which carries no such field.
func (v *Volume) Title() string { return v.header.title }

// Close releases every data stream this Volume holds open.
func (v *Volume) Close() error {
	var firstErr error
	for _, s := range v.streams {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// GetNodeByPath resolves path to the node key describing its payload,
// walking one entry tree per path token starting at the root entry tree
// (index 0).
func (v *Volume) GetNodeByPath(path string) (btree.NodeKey, error) {
	var zero btree.NodeKey

	norm := normalizePath(v.dialect, path)
	tokens := splitPathTokens(norm)
	if len(tokens) == 0 {
		return zero, fmt.Errorf("archive: empty path: %w", rtarcerr.NotFound)
	}

	treeIndex := uint32(0)
	for i, tok := range tokens {
		name, ext := splitNameExt(tok)

		nameIdx, _, err := v.nameTree.SearchByKey(btree.StringKey{Value: []byte(name)})
		if err != nil {
			return zero, fmt.Errorf("archive: path %q: name %q: %w", path, name, rtarcerr.NotFound)
		}

		var extIdx uint32
		if ext != "" {
			extIdx, _, err = v.extTree.SearchByKey(btree.StringKey{Value: []byte(ext)})
			if err != nil {
				return zero, fmt.Errorf("archive: path %q: extension %q: %w", path, ext, rtarcerr.NotFound)
			}
		}

		if int(treeIndex) >= len(v.entryTrees) {
			return zero, fmt.Errorf("archive: path %q: entry tree %d out of range: %w", path, treeIndex, rtarcerr.NotFound)
		}
		_, entry, err := v.entryTrees[treeIndex].SearchByKey(btree.EntryKey{NameIndex: nameIdx, ExtIndex: extIdx})
		if err != nil {
			return zero, fmt.Errorf("archive: path %q: entry %q: %w", path, tok, rtarcerr.NotFound)
		}

		last := i == len(tokens)-1
		switch {
		case last && entry.IsFile():
			_, nodeKey, err := v.nodeTree.SearchByKey(btree.NodeKey{NodeIndex: entry.LinkIndex})
			if err != nil {
				return zero, fmt.Errorf("archive: path %q: node %d: %w", path, entry.LinkIndex, rtarcerr.NotFound)
			}
			return nodeKey, nil
		case !last && entry.IsDirectory():
			treeIndex = entry.LinkIndex
		default:
			return zero, fmt.Errorf("archive: path %q: %q has unexpected entry kind: %w", path, tok, rtarcerr.NotFound)
		}
	}
	return zero, fmt.Errorf("archive: path %q: %w", path, rtarcerr.NotFound)
}

// UnpackNode reads, decrypts, and decompresses one node's payload, then
// writes it to outPath, creating parent directories as needed. Unexpand
// failure fails the node rather than writing the still-compressed bytes,
// per the chosen resolution of the source's open-question behavior (see
// DESIGN.md).
func (v *Volume) UnpackNode(key btree.NodeKey, outPath string) error {
	if int(key.VolumeIndex) >= len(v.streams) {
		return fmt.Errorf("archive: node %d: volume %d out of range: %w", key.NodeIndex, key.VolumeIndex, rtarcerr.NotFound)
	}
	stream := v.streams[key.VolumeIndex]

	offset := stream.dataOffset + uint64(key.SectorIndex)*uint64(stream.sectorSize)
	buf, err := stream.readAt(offset, key.Size1)
	if err != nil {
		return err
	}

	keyset := dialectTable[v.dialect].keyset
	keyset.CryptBytes(buf, buf, key.NodeIndex)

	if inflated, ok, err := rtflate.InflateIfNeeded(buf, uint64(key.Size2)); err != nil {
		return err
	} else if ok {
		buf = inflated
	}

	if rtflate.CheckIfExpanded(buf) {
		unexpanded, err := rtflate.Unexpand(buf)
		if err != nil {
			return fmt.Errorf("archive: unexpand node %d: %w: %w", key.NodeIndex, rtarcerr.DecompressionFailed, err)
		}
		buf = unexpanded
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("archive: mkdir for %q: %w", outPath, rtarcerr.Io)
	}
	if err := os.WriteFile(outPath, buf, 0o644); err != nil {
		return fmt.Errorf("archive: write %q: %w", outPath, rtarcerr.Io)
	}
	return nil
}

// UnpackAll recursively extracts every file reachable from the root
// entry tree into outDir. A per-entry failure is logged and the walk
// continues; it never aborts the overall traversal.
func (v *Volume) UnpackAll(outDir string) error {
	return v.unpackEntryTree(0, outDir)
}

func (v *Volume) unpackEntryTree(treeIndex uint32, prefix string) error {
	if int(treeIndex) >= len(v.entryTrees) {
		return fmt.Errorf("archive: entry tree %d: %w", treeIndex, rtarcerr.NotFound)
	}
	tree := v.entryTrees[treeIndex]

	_, err := tree.Traverse(func(entry btree.EntryKey) bool {
		name, ext, err := v.resolveEntryName(entry)
		if err != nil {
			v.logger.Error("resolve entry name", "tree", treeIndex, "err", err)
			return true
		}
		outPath := filepath.Join(prefix, name+ext)

		switch {
		case entry.IsDirectory():
			if err := os.MkdirAll(outPath, 0o755); err != nil {
				v.logger.Error("mkdir", "path", outPath, "err", err)
				return true
			}
			if err := v.unpackEntryTree(entry.LinkIndex, outPath); err != nil {
				v.logger.Error("unpack subtree", "path", outPath, "err", err)
			}
		case entry.IsFile():
			_, nodeKey, err := v.nodeTree.SearchByKey(btree.NodeKey{NodeIndex: entry.LinkIndex})
			if err != nil {
				v.logger.Error("node lookup", "path", outPath, "err", err)
				return true
			}
			if err := v.UnpackNode(nodeKey, outPath); err != nil {
				v.logger.Error("unpack node", "path", outPath, "err", err)
			}
		}
		return true
	})
	return err
}

// resolveEntryName looks up an entry's name (and, for files, extension)
// strings by index using GetByIndex — the reverse direction of the
// (nameIndex, extIndex) pair an entry record stores.
func (v *Volume) resolveEntryName(entry btree.EntryKey) (name, ext string, err error) {
	nameKey, err := v.nameTree.GetByIndex(entry.NameIndex)
	if err != nil {
		return "", "", err
	}
	name = string(nameKey.Value)

	if entry.IsFile() {
		extKey, err := v.extTree.GetByIndex(entry.ExtIndex)
		if err != nil {
			return "", "", err
		}
		ext = string(extKey.Value)
	}
	return name, ext, nil
}
