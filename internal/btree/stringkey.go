package btree

import (
	"bytes"
	"fmt"

	"github.com/flatzdev/rtarc/internal/rtarcerr"
	"github.com/flatzdev/rtarc/internal/varint"
)

// StringKey is the key type for the name and extension trees: a
// length-prefixed byte string, compared lexicographically with ties
// broken by length (the shorter string sorts first).
type StringKey struct {
	Value []byte
}

// StringKeyTraits implements KeyTraits[StringKey].
type StringKeyTraits struct{}

func (StringKeyTraits) Parse(data []byte) (StringKey, int, error) {
	length, consumed, err := varint.Decode(data, 0)
	if err != nil {
		return StringKey{}, 0, err
	}
	end := consumed + int(length)
	if end > len(data) {
		return StringKey{}, 0, fmt.Errorf("btree: string key body: %w", rtarcerr.Truncated)
	}
	return StringKey{Value: data[consumed:end]}, end, nil
}

func (StringKeyTraits) Advance(data []byte) (int, error) {
	length, consumed, err := varint.Decode(data, 0)
	if err != nil {
		return 0, err
	}
	end := consumed + int(length)
	if end > len(data) {
		return 0, fmt.Errorf("btree: string key body: %w", rtarcerr.Truncated)
	}
	return end, nil
}

func (StringKeyTraits) Equal(key StringKey, data []byte) (int, error) {
	other, _, err := StringKeyTraits{}.Parse(data)
	if err != nil {
		return 0, err
	}
	return compareBytes(key.Value, other.Value), nil
}

func (t StringKeyTraits) Less(key StringKey, data []byte) (int, error) {
	_, consumed, err := varint.Decode(data, 0)
	if err != nil {
		return 0, err
	}
	ret, err := t.Equal(key, data[consumed:])
	if err != nil {
		return 0, err
	}
	if ret != 0 {
		return ret, nil
	}
	return 1, nil
}

// compareBytes returns -1/0/1 comparing a and b by byte value, breaking
// ties on a common prefix by length (shorter first).
func compareBytes(a, b []byte) int {
	if c := bytes.Compare(a, b); c != 0 {
		if c < 0 {
			return -1
		}
		return 1
	}
	return 0
}
