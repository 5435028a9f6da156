package classfile

import (
	"errors"
	"testing"

	"github.com/daimatz/javium/pkg/classfile/classfiletest"
	"github.com/stretchr/testify/require"
)

func TestDecodeModifiedUTF8(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want string
	}{
		{"empty", nil, ""},
		{"ascii", []byte("java/lang/Object"), "java/lang/Object"},
		{"encoded NUL", []byte{'a', 0xC0, 0x80, 'b'}, "a\x00b"},
		{"two-byte", []byte{'c', 'a', 'f', 0xC3, 0xA9}, "café"},
		{"three-byte", []byte{0xE4, 0xB8, 0xAD}, "中"},
		{"surrogate pair", []byte{0xED, 0xA0, 0xBD, 0xED, 0xB8, 0x80}, "😀"},
		{"lone high surrogate", []byte{0xED, 0xA0, 0xBD, 'x'}, "�x"},
		{"lone low surrogate", []byte{'x', 0xED, 0xB8, 0x80}, "x�"},
		{"trailing high surrogate", []byte{0xED, 0xA0, 0xBD}, "�"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeModifiedUTF8(tt.in, 0)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeModifiedUTF8RoundTrip(t *testing.T) {
	for _, s := range []string{"", "Hello", "a\x00b", "ünïcödé", "日本語", "𝄞 music", "mixed 😀 text é"} {
		got, err := decodeModifiedUTF8(classfiletest.EncodeModifiedUTF8(s), 0)
		require.NoError(t, err)
		require.Equal(t, s, got)
	}
}

func TestDecodeModifiedUTF8Malformed(t *testing.T) {
	tests := []struct {
		name   string
		in     []byte
		offset int
	}{
		{"raw NUL", []byte{'a', 0x00}, 101},
		{"four-byte lead", []byte{0xF0, 0x9F, 0x98, 0x80}, 100},
		{"bare continuation", []byte{'a', 'b', 0x80}, 102},
		{"truncated two-byte", []byte{'a', 0xC3}, 101},
		{"bad continuation", []byte{0xE4, 0x41, 0xAD}, 100},
		{"truncated three-byte", []byte{0xE4, 0xB8}, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeModifiedUTF8(tt.in, 100)
			require.ErrorIs(t, err, ErrMalformedUtf8)
			var de *DecodeError
			require.True(t, errors.As(err, &de))
			require.Equal(t, tt.offset, de.Offset)
		})
	}
}
