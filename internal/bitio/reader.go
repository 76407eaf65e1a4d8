// Package bitio provides typed reads from immutable byte slices, with
// optional endian-swapping of the wire representation. All operations are
// bounds-checked and return rtarcerr.Truncated rather than panicking, since
// every buffer this package touches was decrypted or inflated from
// untrusted archive bytes.
package bitio

import (
	"encoding/binary"
	"fmt"

	"github.com/flatzdev/rtarc/internal/rtarcerr"
)

// checkBounds returns a wrapped rtarcerr.Truncated if reading size bytes
// starting at offset would run past the end of buf.
func checkBounds(buf []byte, offset, size int) error {
	if offset < 0 || size < 0 || offset+size > len(buf) {
		return fmt.Errorf("bitio: read %d bytes at offset %d in %d-byte buffer: %w", size, offset, len(buf), rtarcerr.Truncated)
	}
	return nil
}

// U8At reads a single byte at offset.
func U8At(buf []byte, offset int) (uint8, error) {
	if err := checkBounds(buf, offset, 1); err != nil {
		return 0, err
	}
	return buf[offset], nil
}

// U16At reads a uint16 at offset in the given byte order.
func U16At(buf []byte, offset int, order binary.ByteOrder) (uint16, error) {
	if err := checkBounds(buf, offset, 2); err != nil {
		return 0, err
	}
	return order.Uint16(buf[offset:]), nil
}

// U32At reads a uint32 at offset in the given byte order.
func U32At(buf []byte, offset int, order binary.ByteOrder) (uint32, error) {
	if err := checkBounds(buf, offset, 4); err != nil {
		return 0, err
	}
	return order.Uint32(buf[offset:]), nil
}

// U64At reads a uint64 at offset in the given byte order.
func U64At(buf []byte, offset int, order binary.ByteOrder) (uint64, error) {
	if err := checkBounds(buf, offset, 8); err != nil {
		return 0, err
	}
	return order.Uint64(buf[offset:]), nil
}

// BytesAt copies size bytes starting at offset into a freshly allocated
// slice.
func BytesAt(buf []byte, offset, size int) ([]byte, error) {
	if err := checkBounds(buf, offset, size); err != nil {
		return nil, err
	}
	out := make([]byte, size)
	copy(out, buf[offset:offset+size])
	return out, nil
}

// Cursor is a cursor-advancing reader over a borrowed byte slice. It never
// copies buf; callers must not mutate buf while a Cursor into it is live.
type Cursor struct {
	buf    []byte
	offset int
}

// NewCursor creates a Cursor positioned at the start of buf.
func NewCursor(buf []byte) *Cursor {
	return &Cursor{buf: buf}
}

// Offset returns the cursor's current byte offset.
func (c *Cursor) Offset() int { return c.offset }

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int { return len(c.buf) - c.offset }

// Seek repositions the cursor to an absolute offset.
func (c *Cursor) Seek(offset int) {
	c.offset = offset
}

// Advance skips n bytes without reading them.
func (c *Cursor) Advance(n int) {
	c.offset += n
}

// U8 reads and advances past one byte.
func (c *Cursor) U8() (uint8, error) {
	v, err := U8At(c.buf, c.offset)
	if err != nil {
		return 0, err
	}
	c.offset++
	return v, nil
}

// U16 reads and advances past a uint16 in the given byte order.
func (c *Cursor) U16(order binary.ByteOrder) (uint16, error) {
	v, err := U16At(c.buf, c.offset, order)
	if err != nil {
		return 0, err
	}
	c.offset += 2
	return v, nil
}

// U32 reads and advances past a uint32 in the given byte order.
func (c *Cursor) U32(order binary.ByteOrder) (uint32, error) {
	v, err := U32At(c.buf, c.offset, order)
	if err != nil {
		return 0, err
	}
	c.offset += 4
	return v, nil
}

// U64 reads and advances past a uint64 in the given byte order.
func (c *Cursor) U64(order binary.ByteOrder) (uint64, error) {
	v, err := U64At(c.buf, c.offset, order)
	if err != nil {
		return 0, err
	}
	c.offset += 8
	return v, nil
}

// Bytes reads and advances past n raw bytes, returning a copy.
func (c *Cursor) Bytes(n int) ([]byte, error) {
	v, err := BytesAt(c.buf, c.offset, n)
	if err != nil {
		return nil, err
	}
	c.offset += n
	return v, nil
}
