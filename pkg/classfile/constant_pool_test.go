package classfile

import (
	"errors"
	"testing"

	"github.com/daimatz/javium/pkg/classfile/classfiletest"
	"github.com/stretchr/testify/require"
)

// poolStart is the offset of the first pool tag: magic, two versions and
// the pool count.
const poolStart = 10

func TestConstantPoolVariants(t *testing.T) {
	c := classfiletest.New()
	utf := c.Utf8("hello")
	i := c.Integer(-7)
	f := c.Float(1.5)
	l := c.Long(-2)
	d := c.Double(2.25)
	s := c.StringConst("hello")
	fr := c.Fieldref("p/A", "x", "I")
	mr := c.Methodref("p/A", "m", "()V")
	imr := c.InterfaceMethodref("p/I", "n", "()V")
	mh := c.MethodHandle(uint8(RefInvokeStatic), mr)
	mt := c.MethodType("()V")
	indy := c.InvokeDynamic(0, "run", "()Ljava/lang/Runnable;")

	cf, err := Parse(c.Bytes())
	require.NoError(t, err)
	cp := cf.ConstantPool
	require.Equal(t, c.Slots(), cp.Len())

	resolve := func(idx uint16) ConstantPoolEntry {
		t.Helper()
		e, err := cp.Resolve(idx)
		require.NoError(t, err)
		return e
	}

	require.Equal(t, &ConstantUtf8{Value: "hello"}, resolve(utf))
	require.Equal(t, &ConstantInteger{Value: -7}, resolve(i))
	require.Equal(t, &ConstantFloat{Value: 1.5}, resolve(f))
	require.Equal(t, &ConstantLong{Value: -2}, resolve(l))
	require.Equal(t, &ConstantDouble{Value: 2.25}, resolve(d))
	require.Equal(t, &ConstantString{StringIndex: utf}, resolve(s))
	require.Equal(t, TagFieldref, resolve(fr).Tag())
	require.Equal(t, TagMethodref, resolve(mr).Tag())
	require.Equal(t, TagInterfaceMethodref, resolve(imr).Tag())
	require.Equal(t, &ConstantMethodHandle{ReferenceKind: RefInvokeStatic, ReferenceIndex: mr}, resolve(mh))
	require.Equal(t, TagMethodType, resolve(mt).Tag())

	dyn, ok := resolve(indy).(*ConstantInvokeDynamic)
	require.True(t, ok)
	require.Equal(t, uint16(0), dyn.BootstrapMethodAttrIndex)
	name, desc, err := cp.NameAndType(dyn.NameAndTypeIndex)
	require.NoError(t, err)
	require.Equal(t, "run", name)
	require.Equal(t, "()Ljava/lang/Runnable;", desc)

	ref, err := cp.ResolveMethodref(mr)
	require.NoError(t, err)
	require.Equal(t, MemberRef{ClassName: "p/A", Name: "m", Descriptor: "()V"}, *ref)

	str, err := cp.StringValue(s)
	require.NoError(t, err)
	require.Equal(t, "hello", str)
}

func TestConstantPoolDoubleSlots(t *testing.T) {
	c := classfiletest.New()
	l := c.Long(1<<40 | 5)
	d := c.Double(-0.5)
	after := c.Utf8("after")

	cf, err := Parse(c.Bytes())
	require.NoError(t, err)
	cp := cf.ConstantPool

	require.Equal(t, 5, cp.Len())
	require.Equal(t, uint16(1), l)
	require.Equal(t, uint16(3), d)
	require.Equal(t, uint16(5), after)

	for _, idx := range []uint16{l, d} {
		require.IsType(t, &ConstantUnusable{}, cp[idx], "slot after index %d", idx)
		_, err := cp.Resolve(idx + 1)
		require.ErrorIs(t, err, ErrIndexOutOfRange)
	}

	s, err := cp.Utf8(after)
	require.NoError(t, err)
	require.Equal(t, "after", s)
}

func TestConstantPoolLongHalves(t *testing.T) {
	c := classfiletest.New()
	idx := c.Raw(uint8(TagLong), 2, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x02)
	neg := c.Raw(uint8(TagLong), 2, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFE)

	cf, err := Parse(c.Bytes())
	require.NoError(t, err)
	e, err := cf.ConstantPool.Resolve(idx)
	require.NoError(t, err)
	require.Equal(t, int64(1<<32|2), e.(*ConstantLong).Value)

	e, err = cf.ConstantPool.Resolve(neg)
	require.NoError(t, err)
	require.Equal(t, int64(-2), e.(*ConstantLong).Value)
}

func TestConstantPoolLongWithoutSecondSlot(t *testing.T) {
	c := classfiletest.New()
	c.Raw(uint8(TagDouble), 1, 0, 0, 0, 0, 0, 0, 0, 0)

	cf, err := Parse(c.Bytes())
	require.Nil(t, cf)
	require.ErrorIs(t, err, ErrMalformedPool)
}

func TestConstantPoolUnknownTag(t *testing.T) {
	for _, tag := range []uint8{0, 2, 13, 14, 21, 99, 255} {
		c := classfiletest.New()
		c.Utf8("A") // tag, u2 length, 1 byte
		c.Raw(tag, 1, 0, 0, 0, 0)

		cf, err := Parse(c.Bytes())
		require.Nil(t, cf)
		require.ErrorIs(t, err, ErrUnknownConstantTag)

		var te *UnknownConstantTagError
		require.True(t, errors.As(err, &te))
		require.Equal(t, tag, te.Tag)
		require.Equal(t, poolStart+4, te.Offset)
	}
}

func TestConstantPoolForwardReferences(t *testing.T) {
	c := classfiletest.New()
	fr := c.Raw(uint8(TagFieldref), 1, 0, 2, 0, 4)
	c.Raw(uint8(TagClass), 1, 0, 3)
	c.Utf8("p/A")
	c.Raw(uint8(TagNameAndType), 1, 0, 5, 0, 6)
	c.Utf8("x")
	c.Utf8("I")

	cf, err := Parse(c.Bytes())
	require.NoError(t, err)

	ref, err := cf.ConstantPool.ResolveFieldref(fr)
	require.NoError(t, err)
	require.Equal(t, "p/A.x:I", ref.String())
}

func TestConstantPoolDanglingReferencesDecode(t *testing.T) {
	c := classfiletest.New()
	cls := c.Raw(uint8(TagClass), 1, 0x01, 0x00) // index 256 does not exist
	self := c.Raw(uint8(TagString), 1, 0, 2)     // points at itself

	cf, err := Parse(c.Bytes())
	require.NoError(t, err)

	_, err = cf.ConstantPool.ClassName(cls)
	require.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = cf.ConstantPool.StringValue(self)
	require.ErrorIs(t, err, ErrConstantKind)
}

func TestConstantPoolMalformedUtf8(t *testing.T) {
	c := classfiletest.New()
	c.RawUtf8([]byte{'o', 'k', 0xFF})

	_, err := Parse(c.Bytes())
	require.ErrorIs(t, err, ErrMalformedUtf8)
	var de *DecodeError
	require.True(t, errors.As(err, &de))
	require.Equal(t, poolStart+3+2, de.Offset)
}

func TestConstantPoolEmpty(t *testing.T) {
	cf, err := Parse(classfiletest.New().Bytes())
	require.NoError(t, err)
	require.Equal(t, 0, cf.ConstantPool.Len())
}
