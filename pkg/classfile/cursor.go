package classfile

import "encoding/binary"

// Cursor reads big-endian primitives from an immutable byte slice. It is
// the only place the decoder touches raw input; every other component
// advances through it.
type Cursor struct {
	data []byte
	pos  int
	base int
}

// NewCursor returns a cursor positioned at the start of data.
func NewCursor(data []byte) *Cursor {
	return &Cursor{data: data}
}

// Position returns the absolute offset of the next byte to be read.
func (c *Cursor) Position() int { return c.base + c.pos }

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int { return len(c.data) - c.pos }

func (c *Cursor) need(n int, what string) error {
	if n < 0 || c.Remaining() < n {
		return decodeErrorf(ErrUnexpectedEndOfInput, c.Position(), "%s: need %d bytes, have %d", what, n, c.Remaining())
	}
	return nil
}

// ReadU1 reads one unsigned byte.
func (c *Cursor) ReadU1() (uint8, error) {
	if err := c.need(1, "u1"); err != nil {
		return 0, err
	}
	v := c.data[c.pos]
	c.pos++
	return v, nil
}

// ReadU2 reads a big-endian unsigned 16-bit value.
func (c *Cursor) ReadU2() (uint16, error) {
	if err := c.need(2, "u2"); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint16(c.data[c.pos:])
	c.pos += 2
	return v, nil
}

// ReadU4 reads a big-endian unsigned 32-bit value.
func (c *Cursor) ReadU4() (uint32, error) {
	if err := c.need(4, "u4"); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(c.data[c.pos:])
	c.pos += 4
	return v, nil
}

// ReadExact returns the next n bytes. The returned slice aliases the input
// and has its capacity clipped, so appending to it never writes into the
// source.
func (c *Cursor) ReadExact(n int) ([]byte, error) {
	if err := c.need(n, "bytes"); err != nil {
		return nil, err
	}
	b := c.data[c.pos : c.pos+n : c.pos+n]
	c.pos += n
	return b, nil
}

// ReadSub consumes the next n bytes and returns a cursor over them. The
// child reports absolute offsets.
func (c *Cursor) ReadSub(n int) (*Cursor, error) {
	start := c.Position()
	b, err := c.ReadExact(n)
	if err != nil {
		return nil, err
	}
	return &Cursor{data: b, base: start}, nil
}
