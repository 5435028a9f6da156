// Package classfiletest assembles class file bytes for tests.
package classfiletest

import (
	"encoding/binary"
	"math"
	"unicode/utf16"
)

// Writer appends big-endian values to a byte slice.
type Writer struct {
	buf []byte
}

func (w *Writer) U1(v uint8) *Writer {
	w.buf = append(w.buf, v)
	return w
}

func (w *Writer) U2(v uint16) *Writer {
	w.buf = binary.BigEndian.AppendUint16(w.buf, v)
	return w
}

func (w *Writer) U4(v uint32) *Writer {
	w.buf = binary.BigEndian.AppendUint32(w.buf, v)
	return w
}

func (w *Writer) Raw(b ...byte) *Writer {
	w.buf = append(w.buf, b...)
	return w
}

func (w *Writer) Bytes() []byte { return w.buf }

// Attribute is an attribute table entry. Length overrides the declared
// length when non-nil, for building corrupt input.
type Attribute struct {
	Name   uint16
	Data   []byte
	Length *uint32
}

// Member is a field_info or method_info.
type Member struct {
	Access     uint16
	Name       uint16
	Descriptor uint16
	Attributes []Attribute
}

// Class builds a class file. Pool helpers return the index of the entry
// they add.
type Class struct {
	Minor, Major uint16
	Access       uint16
	This, Super  uint16
	Interfaces   []uint16
	Fields       []Member
	Methods      []Member
	Attributes   []Attribute

	pool  Writer
	slots int
	utf8  map[string]uint16
}

// New returns a Class with version 52.0 and an empty pool.
func New() *Class {
	return &Class{Major: 52, Access: 0x0021, utf8: make(map[string]uint16)}
}

// Raw appends a pool entry with an arbitrary tag and payload and returns
// its index. width is the number of slots it occupies.
func (c *Class) Raw(tag uint8, width int, payload ...byte) uint16 {
	c.pool.U1(tag).Raw(payload...)
	idx := uint16(c.slots + 1)
	c.slots += width
	return idx
}

// Slots returns the number of pool slots added so far.
func (c *Class) Slots() int { return c.slots }

func u2(v uint16) []byte { return binary.BigEndian.AppendUint16(nil, v) }

// Utf8 adds (or reuses) a Utf8 entry holding s in modified UTF-8.
func (c *Class) Utf8(s string) uint16 {
	if idx, ok := c.utf8[s]; ok {
		return idx
	}
	enc := EncodeModifiedUTF8(s)
	idx := c.Raw(1, 1, append(u2(uint16(len(enc))), enc...)...)
	c.utf8[s] = idx
	return idx
}

// RawUtf8 adds a Utf8 entry with the exact bytes given.
func (c *Class) RawUtf8(b []byte) uint16 {
	return c.Raw(1, 1, append(u2(uint16(len(b))), b...)...)
}

func (c *Class) Integer(v int32) uint16 {
	return c.Raw(3, 1, binary.BigEndian.AppendUint32(nil, uint32(v))...)
}

func (c *Class) Float(v float32) uint16 {
	return c.Raw(4, 1, binary.BigEndian.AppendUint32(nil, math.Float32bits(v))...)
}

func (c *Class) Long(v int64) uint16 {
	return c.Raw(5, 2, binary.BigEndian.AppendUint64(nil, uint64(v))...)
}

func (c *Class) Double(v float64) uint16 {
	return c.Raw(6, 2, binary.BigEndian.AppendUint64(nil, math.Float64bits(v))...)
}

func (c *Class) ClassRef(name string) uint16 {
	n := c.Utf8(name)
	return c.Raw(7, 1, u2(n)...)
}

func (c *Class) StringConst(s string) uint16 {
	n := c.Utf8(s)
	return c.Raw(8, 1, u2(n)...)
}

func (c *Class) NameAndType(name, desc string) uint16 {
	n, d := c.Utf8(name), c.Utf8(desc)
	return c.Raw(12, 1, append(u2(n), u2(d)...)...)
}

func (c *Class) memberRef(tag uint8, class, name, desc string) uint16 {
	cl := c.ClassRef(class)
	nat := c.NameAndType(name, desc)
	return c.Raw(tag, 1, append(u2(cl), u2(nat)...)...)
}

func (c *Class) Fieldref(class, name, desc string) uint16 {
	return c.memberRef(9, class, name, desc)
}

func (c *Class) Methodref(class, name, desc string) uint16 {
	return c.memberRef(10, class, name, desc)
}

func (c *Class) InterfaceMethodref(class, name, desc string) uint16 {
	return c.memberRef(11, class, name, desc)
}

func (c *Class) MethodHandle(kind uint8, ref uint16) uint16 {
	return c.Raw(15, 1, append([]byte{kind}, u2(ref)...)...)
}

func (c *Class) MethodType(desc string) uint16 {
	d := c.Utf8(desc)
	return c.Raw(16, 1, u2(d)...)
}

func (c *Class) InvokeDynamic(bsm uint16, name, desc string) uint16 {
	nat := c.NameAndType(name, desc)
	return c.Raw(18, 1, append(u2(bsm), u2(nat)...)...)
}

// AddMethod adds a method and returns it for further tweaking.
func (c *Class) AddMethod(access uint16, name, desc string, attrs ...Attribute) *Member {
	c.Methods = append(c.Methods, Member{Access: access, Name: c.Utf8(name), Descriptor: c.Utf8(desc), Attributes: attrs})
	return &c.Methods[len(c.Methods)-1]
}

// AddField adds a field.
func (c *Class) AddField(access uint16, name, desc string, attrs ...Attribute) *Member {
	c.Fields = append(c.Fields, Member{Access: access, Name: c.Utf8(name), Descriptor: c.Utf8(desc), Attributes: attrs})
	return &c.Fields[len(c.Fields)-1]
}

// Attr builds an attribute whose name is added to the pool.
func (c *Class) Attr(name string, data []byte) Attribute {
	return Attribute{Name: c.Utf8(name), Data: data}
}

// Bytes serialises the class file.
func (c *Class) Bytes() []byte {
	w := &Writer{}
	w.U4(0xCAFEBABE).U2(c.Minor).U2(c.Major)
	w.U2(uint16(c.slots + 1)).Raw(c.pool.Bytes()...)
	w.U2(c.Access).U2(c.This).U2(c.Super)
	w.U2(uint16(len(c.Interfaces)))
	for _, i := range c.Interfaces {
		w.U2(i)
	}
	writeMembers(w, c.Fields)
	writeMembers(w, c.Methods)
	w.Raw(Attributes(c.Attributes...)...)
	return w.Bytes()
}

func writeMembers(w *Writer, ms []Member) {
	w.U2(uint16(len(ms)))
	for _, m := range ms {
		w.U2(m.Access).U2(m.Name).U2(m.Descriptor)
		w.Raw(Attributes(m.Attributes...)...)
	}
}

// Attributes encodes a u2-counted attribute table.
func Attributes(attrs ...Attribute) []byte {
	w := &Writer{}
	w.U2(uint16(len(attrs)))
	for _, a := range attrs {
		length := uint32(len(a.Data))
		if a.Length != nil {
			length = *a.Length
		}
		w.U2(a.Name).U4(length).Raw(a.Data...)
	}
	return w.Bytes()
}

// Handler is an exception_table entry.
type Handler struct {
	StartPC, EndPC, HandlerPC, CatchType uint16
}

// Code encodes a Code attribute payload.
func Code(maxStack, maxLocals uint16, code []byte, handlers []Handler, attrs ...Attribute) []byte {
	w := &Writer{}
	w.U2(maxStack).U2(maxLocals).U4(uint32(len(code))).Raw(code...)
	w.U2(uint16(len(handlers)))
	for _, h := range handlers {
		w.U2(h.StartPC).U2(h.EndPC).U2(h.HandlerPC).U2(h.CatchType)
	}
	w.Raw(Attributes(attrs...)...)
	return w.Bytes()
}

// EncodeModifiedUTF8 encodes s the way class files store Utf8 constants.
func EncodeModifiedUTF8(s string) []byte {
	var out []byte
	for _, r := range s {
		if r >= 0x10000 {
			hi, lo := utf16.EncodeRune(r)
			out = appendUnit(out, hi)
			out = appendUnit(out, lo)
			continue
		}
		out = appendUnit(out, r)
	}
	return out
}

func appendUnit(out []byte, r rune) []byte {
	switch {
	case r != 0 && r < 0x80:
		return append(out, byte(r))
	case r < 0x800:
		return append(out, 0xC0|byte(r>>6), 0x80|byte(r&0x3F))
	default:
		return append(out, 0xE0|byte(r>>12), 0x80|byte(r>>6&0x3F), 0x80|byte(r&0x3F))
	}
}

// Minimal returns a class with a single Utf8 "A" entry and no members:
// the smallest input the decoder accepts.
func Minimal() []byte {
	c := New()
	c.Major = 45
	c.Access = 0
	c.Utf8("A")
	return c.Bytes()
}
