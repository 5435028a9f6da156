package classfile

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCursorReads(t *testing.T) {
	c := NewCursor([]byte{0xFF, 0xFF, 0xFE, 0x80, 0x00, 0x00, 0x01, 0xAA, 0xBB})

	u1, err := c.ReadU1()
	require.NoError(t, err)
	require.Equal(t, uint8(0xFF), u1)

	// 2-byte reads are unsigned: 0xFFFE is 65534, never -2.
	u2, err := c.ReadU2()
	require.NoError(t, err)
	require.Equal(t, uint16(65534), u2)

	u4, err := c.ReadU4()
	require.NoError(t, err)
	require.Equal(t, uint32(0x80000001), u4)
	require.Equal(t, 7, c.Position())

	b, err := c.ReadExact(2)
	require.NoError(t, err)
	require.Equal(t, []byte{0xAA, 0xBB}, b)
	require.Equal(t, 0, c.Remaining())
}

func TestCursorShortReadLeavesPosition(t *testing.T) {
	tests := []struct {
		name string
		skip int
		read func(*Cursor) error
	}{
		{"u1", 3, func(c *Cursor) error { _, err := c.ReadU1(); return err }},
		{"u2", 2, func(c *Cursor) error { _, err := c.ReadU2(); return err }},
		{"u4", 2, func(c *Cursor) error { _, err := c.ReadU4(); return err }},
		{"exact", 2, func(c *Cursor) error { _, err := c.ReadExact(5); return err }},
		{"negative", 2, func(c *Cursor) error { _, err := c.ReadExact(-1); return err }},
		{"sub", 2, func(c *Cursor) error { _, err := c.ReadSub(3); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCursor([]byte{1, 2, 3})
			_, err := c.ReadExact(tt.skip)
			require.NoError(t, err)

			err = tt.read(c)
			require.ErrorIs(t, err, ErrUnexpectedEndOfInput)
			var de *DecodeError
			require.True(t, errors.As(err, &de))
			require.Equal(t, tt.skip, de.Offset)
			require.Equal(t, tt.skip, c.Position())
			require.Equal(t, 3-tt.skip, c.Remaining())
		})
	}
}

func TestCursorReadSub(t *testing.T) {
	c := NewCursor([]byte{9, 9, 1, 2, 3, 4, 7})
	_, err := c.ReadU2()
	require.NoError(t, err)

	sub, err := c.ReadSub(4)
	require.NoError(t, err)
	require.Equal(t, 6, c.Position())
	require.Equal(t, 2, sub.Position())

	v, err := sub.ReadU2()
	require.NoError(t, err)
	require.Equal(t, uint16(0x0102), v)
	require.Equal(t, 4, sub.Position())

	_, err = sub.ReadU4()
	var de *DecodeError
	require.True(t, errors.As(err, &de))
	require.Equal(t, 4, de.Offset)
}

func TestCursorReadExactIsClipped(t *testing.T) {
	data := []byte{1, 2, 3, 4}
	c := NewCursor(data)
	b, err := c.ReadExact(2)
	require.NoError(t, err)
	require.Equal(t, 2, cap(b))

	grown := append(b, 0xEE)
	require.Equal(t, []byte{1, 2, 0xEE}, grown)
	require.Equal(t, []byte{1, 2, 3, 4}, data)
}
