package classfile

import (
	"errors"
	"fmt"
)

// Decode failures. Match them with errors.Is; the concrete error carries
// the byte offset.
var (
	ErrUnexpectedEndOfInput = errors.New("unexpected end of input")
	ErrBadMagic             = errors.New("bad magic number")
	ErrUnknownConstantTag   = errors.New("unknown constant pool tag")
	ErrIndexOutOfRange      = errors.New("constant pool index out of range")
	ErrUnsupportedNesting   = errors.New("attribute nesting too deep")
	ErrMalformedUtf8        = errors.New("malformed modified UTF-8")
	ErrMalformedAttribute   = errors.New("malformed attribute")
	ErrMalformedPool        = errors.New("malformed constant pool")
	ErrConstantKind         = errors.New("unexpected constant pool entry kind")
)

// DecodeError reports a structural problem at a byte offset of the input.
type DecodeError struct {
	Err     error
	Offset  int
	Context string
}

func (e *DecodeError) Error() string {
	if e.Context == "" {
		return fmt.Sprintf("%v at offset %d", e.Err, e.Offset)
	}
	return fmt.Sprintf("%v at offset %d: %s", e.Err, e.Offset, e.Context)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func decodeErrorf(err error, offset int, format string, args ...any) *DecodeError {
	return &DecodeError{Err: err, Offset: offset, Context: fmt.Sprintf(format, args...)}
}

// UnknownConstantTagError is returned when the pool contains a tag byte
// with no known layout. The rest of the stream cannot be realigned.
type UnknownConstantTagError struct {
	Tag    uint8
	Offset int
}

func (e *UnknownConstantTagError) Error() string {
	return fmt.Sprintf("unknown constant pool tag %d at offset %d", e.Tag, e.Offset)
}

func (e *UnknownConstantTagError) Unwrap() error { return ErrUnknownConstantTag }

// IndexError is returned by the resolver for references that do not name
// a usable pool entry. Resolution runs after decoding, on the tree, so it
// carries the index and pool size instead of a byte offset.
type IndexError struct {
	Index  uint16
	Size   int
	Reason string
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("constant pool index %d (pool size %d): %s", e.Index, e.Size, e.Reason)
}

func (e *IndexError) Unwrap() error { return ErrIndexOutOfRange }

// KindError is returned by the typed lookups when the entry at an index is
// not of the requested variant.
type KindError struct {
	Index uint16
	Want  ConstantTag
	Got   ConstantTag
}

func (e *KindError) Error() string {
	return fmt.Sprintf("constant pool index %d is %s, want %s", e.Index, e.Got, e.Want)
}

func (e *KindError) Unwrap() error { return ErrConstantKind }
