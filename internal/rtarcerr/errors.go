// Package rtarcerr defines the typed error kinds used across the archive
// read path, so callers can branch on failure class with errors.Is/As
// instead of matching on string content.
package rtarcerr

import "fmt"

// Sentinel error kinds. Wrap these with fmt.Errorf("...: %w", Kind) at the
// call site to attach context; callers compare with errors.Is(err, rtarcerr.Truncated)
// and friends.
var (
	// Io covers any underlying read or open failure.
	Io = fmt.Errorf("rtarc: io error")

	// Truncated means a slice access fell beyond the bounds of the buffer.
	Truncated = fmt.Errorf("rtarc: truncated data")

	// BadKey means a CLI-supplied hex key was the wrong length or held a
	// character that is not a hex digit.
	BadKey = fmt.Errorf("rtarc: bad key")

	// DecompressionFailed covers deflate failures, expand-container
	// corruption, and size mismatches after inflate.
	DecompressionFailed = fmt.Errorf("rtarc: decompression failed")

	// NotFound means a path or index lookup failed to resolve.
	NotFound = fmt.Errorf("rtarc: not found")

	// UnsupportedDialect means no known dialect accepted the header.
	UnsupportedDialect = fmt.Errorf("rtarc: unsupported dialect")
)

// BadMagic reports a magic-number mismatch at a named location: the
// primary header, the index segment header, or a T7 extended header. A
// mismatched expand super-header or Z mini-header is not reported this
// way; the data is just treated as not in that format.
type BadMagic struct {
	Where    string
	Expected uint64
	Actual   uint64
}

func (e *BadMagic) Error() string {
	return fmt.Sprintf("rtarc: bad magic at %s: expected 0x%X, got 0x%X", e.Where, e.Expected, e.Actual)
}

// NewBadMagic constructs a BadMagic error for the given location.
func NewBadMagic(where string, expected, actual uint64) error {
	return &BadMagic{Where: where, Expected: expected, Actual: actual}
}
