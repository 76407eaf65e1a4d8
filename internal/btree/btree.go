// Package btree implements the shared traversal/search skeleton used by
// all three of the archive's on-disk B-trees (string, entry, node). The
// skeleton is parameterized by a KeyTraits implementation per key type,
// following the generic "key traits record" approach spec'd as a
// replacement for the original C++ tool's CRTP-based design.
//
// All multi-byte fields the skeleton itself reads (the root header word
// and the 12-bit offset fields) are packed big-endian regardless of the
// enclosing archive's dialect: this is a property of the index-blob
// encoding itself, not of the header fields surrounding it, so no byte
// order parameter is threaded through this package.
package btree

import (
	"encoding/binary"
	"fmt"

	"github.com/flatzdev/rtarc/internal/bitfield"
	"github.com/flatzdev/rtarc/internal/bitio"
	"github.com/flatzdev/rtarc/internal/rtarcerr"
	"github.com/flatzdev/rtarc/internal/varint"
)

// InvalidIndex is the sentinel "not found" index returned by SearchByKey.
const InvalidIndex = ^uint32(0)

// KeyTraits supplies the per-key-type operations the generic skeleton
// needs: decoding a full leaf record, skipping an internal record's
// key-specific bytes, and the two comparators used during search.
type KeyTraits[K any] interface {
	// Parse fully decodes a leaf-style key record starting at data,
	// returning the key and the number of bytes consumed.
	Parse(data []byte) (K, int, error)

	// Advance skips the key-type-specific bytes of an internal-node
	// record, picking up immediately after the record's leading
	// high-water varint (which the skeleton itself consumes before
	// calling Advance). Returns the number of bytes consumed.
	Advance(data []byte) (int, error)

	// Equal compares key against a full leaf-style record at data,
	// used both for leaf-level lookups and embedded in Less. Returns
	// -1, 0, or 1.
	Equal(key K, data []byte) (int, error)

	// Less is the internal-node ordering comparator. data points at an
	// *unconsumed* internal-node record, exactly as located by the
	// offset table (the skeleton does not pre-skip anything before
	// calling Less; each key type decides for itself what its internal
	// record layout looks like). Never returns 0 — a tie at an internal
	// slot always resolves to "greater" so the search keeps descending
	// rather than matching prematurely at an internal node.
	Less(key K, data []byte) (int, error)
}

// Tree is a read-only view over one B-tree's packed byte range within the
// decrypted, inflated index blob. The byte slice is borrowed, not copied;
// the Tree and every key it yields must not outlive the index blob.
type Tree[K any] struct {
	data   []byte
	traits KeyTraits[K]
}

// New constructs a Tree over data (already sliced to this tree's root
// offset within the index blob) using the given key traits.
func New[K any](data []byte, traits KeyTraits[K]) *Tree[K] {
	return &Tree[K]{data: data, traits: traits}
}

// rootWord reads the root's packed childNodeCount (top byte) and
// nodeDataOffset (low 24 bits), both big-endian.
func (t *Tree[K]) rootWord() (childCount uint32, nodeDataOffset uint32, err error) {
	b, err := bitio.U8At(t.data, 0)
	if err != nil {
		return 0, 0, err
	}
	w, err := bitio.U32At(t.data, 0, binary.BigEndian)
	if err != nil {
		return 0, 0, err
	}
	return uint32(b), w & 0xFFFFFF, nil
}

// keyCountOf reads a node's key count from its field 0 (low 11 bits).
func keyCountOf(node []byte) (uint32, error) {
	v, err := bitfield.At(node, 0)
	if err != nil {
		return 0, err
	}
	return uint32(v) & 0x7FF, nil
}

// leafChainHeader reads the 6-byte header preceding the leaf-node linked
// list: a 4-byte word (unused by this access path — it duplicates the
// root's childCount/nodeDataOffset word) followed by a big-endian u16
// giving the number of leaf nodes in the chain.
func (t *Tree[K]) leafChainHeader() (leafCount uint16, chainStart []byte, err error) {
	if len(t.data) < 6 {
		return 0, nil, fmt.Errorf("btree: leaf chain header: %w", rtarcerr.Truncated)
	}
	leafCount, err = bitio.U16At(t.data, 4, binary.BigEndian)
	if err != nil {
		return 0, nil, err
	}
	return leafCount, t.data[6:], nil
}

// GetByIndex descends to the leaf containing the i-th key in sort order
// by walking the internal-node levels top-down from the root, then
// parses and returns that key.
func (t *Tree[K]) GetByIndex(index uint32) (K, error) {
	var zero K
	record, err := t.recordAtIndex(index)
	if err != nil {
		return zero, err
	}
	key, _, err := t.traits.Parse(record)
	return key, err
}

func (t *Tree[K]) recordAtIndex(index uint32) ([]byte, error) {
	childCount, nodeDataOffset, err := t.rootWord()
	if err != nil {
		return nil, err
	}

	nodeData := t.data[nodeDataOffset:]
	startKeyIndex := uint32(0)

	for i := childCount; i != 0; i-- {
		keyCount, err := keyCountOf(nodeData)
		if err != nil {
			return nil, err
		}

		found := false
		for j := uint32(0); j < keyCount; j++ {
			off, err := bitfield.At(nodeData, int(j+1))
			if err != nil {
				return nil, err
			}
			record := nodeData[off:]
			nextKeyIndex, consumed, err := varint.Decode(record, 0)
			if err != nil {
				return nil, err
			}
			if index < uint32(nextKeyIndex) {
				after := record[consumed:]
				adv, err := t.traits.Advance(after)
				if err != nil {
					return nil, err
				}
				childOffset, _, err := varint.Decode(after, adv)
				if err != nil {
					return nil, err
				}
				nodeDataOffset = uint32(childOffset)
				found = true
				break
			}
			startKeyIndex = uint32(nextKeyIndex)
		}
		if !found {
			return nil, fmt.Errorf("btree: index %d has no covering subtree: %w", index, rtarcerr.NotFound)
		}
		nodeData = t.data[nodeDataOffset:]
	}

	off, err := bitfield.At(nodeData, int(index-startKeyIndex)+1)
	if err != nil {
		return nil, err
	}
	return nodeData[off:], nil
}

// SearchByIndex is the optimized leaf-adjacent variant: it walks the
// per-root linked list of leaves (each leaf's trailing offset field
// pointing to the next), subtracting each leaf's key count from index
// until index falls within the current leaf, then indexes directly.
func (t *Tree[K]) SearchByIndex(index uint32) (K, error) {
	var zero K
	leafCount, p, err := t.leafChainHeader()
	if err != nil {
		return zero, err
	}

	for i := uint16(0); i < leafCount; i++ {
		high, err := keyCountOf(p)
		if err != nil {
			return zero, err
		}
		nextOff, err := bitfield.At(p, int(high+1))
		if err != nil {
			return zero, err
		}
		if index < high {
			break
		}
		index -= high
		p = p[nextOff:]
	}

	off, err := bitfield.At(p, int(index+1))
	if err != nil {
		return zero, err
	}
	key, _, err := t.traits.Parse(p[off:])
	return key, err
}

// VisitFunc is called once per key in sort order during Traverse; return
// false to stop early.
type VisitFunc[K any] func(K) bool

// Traverse walks the leaf chain in sort order, parsing and yielding every
// key to visit. It returns the number of keys visited even if visit
// stopped the walk early.
func (t *Tree[K]) Traverse(visit VisitFunc[K]) (uint32, error) {
	leafCount, p, err := t.leafChainHeader()
	if err != nil {
		return 0, err
	}

	var visited uint32
	for i := uint16(0); i < leafCount; i++ {
		high, err := keyCountOf(p)
		if err != nil {
			return visited, err
		}
		nextOff, err := bitfield.At(p, int(high+1))
		if err != nil {
			return visited, err
		}

		for j := uint32(0); j < high; j++ {
			off, err := bitfield.At(p, int(j+1))
			if err != nil {
				return visited, err
			}
			key, _, err := t.traits.Parse(p[off:])
			if err != nil {
				return visited, err
			}
			visited++
			if !visit(key) {
				return visited, nil
			}
		}
		p = p[nextOff:]
	}
	return visited, nil
}

// searchResult tracks the binary-search bookkeeping needed to compute the
// final logical key index once a leaf match is found.
type searchResult struct {
	lowerBound, upperBound, index, maxIndex uint32
}

// searchWithComparison performs one node's binary search using cmp,
// returning the matched or next-to-descend-into record. ok is false when
// the search bottoms out with nothing to report (key out of this node's
// range, or a leaf miss).
func (t *Tree[K]) searchWithComparison(result *searchResult, data []byte, count uint32, key K, cmp func(K, []byte) (int, error)) (rec []byte, ok bool, err error) {
	high, err := keyCountOf(data)
	if err != nil {
		return nil, false, err
	}
	low := uint32(0)
	var index uint32
	result.upperBound = high

	for low < high {
		mid := low + (high-low)/2
		index = mid + 1

		off, err := bitfield.At(data, int(index))
		if err != nil {
			return nil, false, err
		}
		sub := data[off:]

		ret, err := cmp(key, sub)
		if err != nil {
			return nil, false, err
		}

		switch {
		case ret == 0:
			result.lowerBound = mid
			result.index = mid
			return sub, true, nil
		case ret > 0:
			low = index
		default:
			high = mid
			index = mid
		}
	}

	result.lowerBound = index
	result.index = InvalidIndex

	if count != 0 && index != result.upperBound {
		off, err := bitfield.At(data, int(index+1))
		if err != nil {
			return nil, false, err
		}
		return data[off:], true, nil
	}
	return nil, false, nil
}

// SearchByKey performs a classic top-down B-tree search for key, returning
// the key's logical index among all stored keys and its fully decoded
// form. It returns rtarcerr.NotFound if key is not present.
func (t *Tree[K]) SearchByKey(key K) (uint32, K, error) {
	var zero K

	count, nodeDataOffset, err := t.rootWord()
	if err != nil {
		return InvalidIndex, zero, err
	}

	data := t.data[nodeDataOffset:]
	var result searchResult
	result.index = InvalidIndex

	notFound := false
	for i := count; i != 0; i-- {
		sub, ok, err := t.searchWithComparison(&result, data, count, key, t.traits.Less)
		if err != nil {
			return InvalidIndex, zero, err
		}
		if !ok {
			notFound = true
			break
		}

		maxIndex, consumed, err := varint.Decode(sub, 0)
		if err != nil {
			return InvalidIndex, zero, err
		}
		result.maxIndex = uint32(maxIndex)

		adv, err := t.traits.Advance(sub[consumed:])
		if err != nil {
			return InvalidIndex, zero, err
		}

		childOffset, _, err := varint.Decode(sub, consumed+adv)
		if err != nil {
			return InvalidIndex, zero, err
		}
		nodeDataOffset = uint32(childOffset)
		data = t.data[nodeDataOffset:]
	}

	var final []byte
	var finalOK bool
	if !notFound {
		final, finalOK, err = t.searchWithComparison(&result, data, 0, key, t.traits.Equal)
		if err != nil {
			return InvalidIndex, zero, err
		}
	}

	if count == 0 {
		result.upperBound = 0
	}

	if notFound || !finalOK {
		return InvalidIndex, zero, fmt.Errorf("btree: key not found: %w", rtarcerr.NotFound)
	}

	idx := result.maxIndex - result.upperBound + result.lowerBound
	parsed, _, err := t.traits.Parse(final)
	if err != nil {
		return InvalidIndex, zero, err
	}
	return idx, parsed, nil
}
