package classfile

import (
	"math"
)

// ConstantPoolEntry is implemented by every constant pool variant. The set
// is closed: consumers switch over the concrete types below.
type ConstantPoolEntry interface {
	Tag() ConstantTag
	constantEntry()
}

type ConstantUtf8 struct {
	Value string
}

type ConstantInteger struct {
	Value int32
}

type ConstantFloat struct {
	Value float32
}

type ConstantLong struct {
	Value int64
}

type ConstantDouble struct {
	Value float64
}

type ConstantClass struct {
	NameIndex uint16
}

type ConstantString struct {
	StringIndex uint16
}

type ConstantFieldref struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

type ConstantMethodref struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

type ConstantInterfaceMethodref struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

type ConstantNameAndType struct {
	NameIndex       uint16
	DescriptorIndex uint16
}

type ConstantMethodHandle struct {
	ReferenceKind  MethodHandleKind
	ReferenceIndex uint16
}

type ConstantMethodType struct {
	DescriptorIndex uint16
}

// ConstantDynamic is a dynamically computed constant (condy).
type ConstantDynamic struct {
	BootstrapMethodAttrIndex uint16
	NameAndTypeIndex         uint16
}

type ConstantInvokeDynamic struct {
	BootstrapMethodAttrIndex uint16
	NameAndTypeIndex         uint16
}

type ConstantModule struct {
	NameIndex uint16
}

type ConstantPackage struct {
	NameIndex uint16
}

// ConstantUnusable occupies the slot after a Long or Double. It is never a
// valid reference target.
type ConstantUnusable struct{}

func (*ConstantUtf8) Tag() ConstantTag               { return TagUtf8 }
func (*ConstantInteger) Tag() ConstantTag            { return TagInteger }
func (*ConstantFloat) Tag() ConstantTag              { return TagFloat }
func (*ConstantLong) Tag() ConstantTag               { return TagLong }
func (*ConstantDouble) Tag() ConstantTag             { return TagDouble }
func (*ConstantClass) Tag() ConstantTag              { return TagClass }
func (*ConstantString) Tag() ConstantTag             { return TagString }
func (*ConstantFieldref) Tag() ConstantTag           { return TagFieldref }
func (*ConstantMethodref) Tag() ConstantTag          { return TagMethodref }
func (*ConstantInterfaceMethodref) Tag() ConstantTag { return TagInterfaceMethodref }
func (*ConstantNameAndType) Tag() ConstantTag        { return TagNameAndType }
func (*ConstantMethodHandle) Tag() ConstantTag       { return TagMethodHandle }
func (*ConstantMethodType) Tag() ConstantTag         { return TagMethodType }
func (*ConstantDynamic) Tag() ConstantTag            { return TagDynamic }
func (*ConstantInvokeDynamic) Tag() ConstantTag      { return TagInvokeDynamic }
func (*ConstantModule) Tag() ConstantTag             { return TagModule }
func (*ConstantPackage) Tag() ConstantTag            { return TagPackage }
func (*ConstantUnusable) Tag() ConstantTag           { return TagUnusable }

func (*ConstantUtf8) constantEntry()               {}
func (*ConstantInteger) constantEntry()            {}
func (*ConstantFloat) constantEntry()              {}
func (*ConstantLong) constantEntry()               {}
func (*ConstantDouble) constantEntry()             {}
func (*ConstantClass) constantEntry()              {}
func (*ConstantString) constantEntry()             {}
func (*ConstantFieldref) constantEntry()           {}
func (*ConstantMethodref) constantEntry()          {}
func (*ConstantInterfaceMethodref) constantEntry() {}
func (*ConstantNameAndType) constantEntry()        {}
func (*ConstantMethodHandle) constantEntry()       {}
func (*ConstantMethodType) constantEntry()         {}
func (*ConstantDynamic) constantEntry()            {}
func (*ConstantInvokeDynamic) constantEntry()      {}
func (*ConstantModule) constantEntry()             {}
func (*ConstantPackage) constantEntry()            {}
func (*ConstantUnusable) constantEntry()           {}

// ConstantPool holds the decoded pool by slot: slot i is pool index i+1.
// Long and Double entries are followed by a *ConstantUnusable slot.
type ConstantPool []ConstantPoolEntry

// Len returns the number of slots, which is constant_pool_count-1.
func (cp ConstantPool) Len() int { return len(cp) }

// parseConstantPool reads entries until count-1 slots are filled.
// References between entries are stored as-is; forward references are
// legal and are only checked by Resolve.
func parseConstantPool(c *Cursor, count uint16) (ConstantPool, error) {
	if count == 0 {
		return ConstantPool{}, nil
	}
	slots := int(count) - 1
	pool := make(ConstantPool, 0, slots)

	for len(pool) < slots {
		index := len(pool) + 1
		tagOffset := c.Position()
		tag, err := c.ReadU1()
		if err != nil {
			return nil, err
		}

		entry, err := parseConstant(c, ConstantTag(tag), tagOffset)
		if err != nil {
			return nil, err
		}
		pool = append(pool, entry)

		if t := entry.Tag(); t == TagLong || t == TagDouble {
			if len(pool) >= slots {
				return nil, decodeErrorf(ErrMalformedPool, tagOffset, "%s at index %d has no room for its second slot", t, index)
			}
			pool = append(pool, &ConstantUnusable{})
		}
	}
	return pool, nil
}

func parseConstant(c *Cursor, tag ConstantTag, tagOffset int) (ConstantPoolEntry, error) {
	switch tag {
	case TagUtf8:
		length, err := c.ReadU2()
		if err != nil {
			return nil, err
		}
		start := c.Position()
		raw, err := c.ReadExact(int(length))
		if err != nil {
			return nil, err
		}
		s, err := decodeModifiedUTF8(raw, start)
		if err != nil {
			return nil, err
		}
		return &ConstantUtf8{Value: s}, nil

	case TagInteger:
		v, err := c.ReadU4()
		if err != nil {
			return nil, err
		}
		return &ConstantInteger{Value: int32(v)}, nil

	case TagFloat:
		v, err := c.ReadU4()
		if err != nil {
			return nil, err
		}
		return &ConstantFloat{Value: math.Float32frombits(v)}, nil

	case TagLong, TagDouble:
		high, err := c.ReadU4()
		if err != nil {
			return nil, err
		}
		low, err := c.ReadU4()
		if err != nil {
			return nil, err
		}
		bits := uint64(high)<<32 | uint64(low)
		if tag == TagLong {
			return &ConstantLong{Value: int64(bits)}, nil
		}
		return &ConstantDouble{Value: math.Float64frombits(bits)}, nil

	case TagClass:
		idx, err := c.ReadU2()
		if err != nil {
			return nil, err
		}
		return &ConstantClass{NameIndex: idx}, nil

	case TagString:
		idx, err := c.ReadU2()
		if err != nil {
			return nil, err
		}
		return &ConstantString{StringIndex: idx}, nil

	case TagFieldref, TagMethodref, TagInterfaceMethodref:
		classIndex, natIndex, err := readIndexPair(c)
		if err != nil {
			return nil, err
		}
		switch tag {
		case TagFieldref:
			return &ConstantFieldref{ClassIndex: classIndex, NameAndTypeIndex: natIndex}, nil
		case TagMethodref:
			return &ConstantMethodref{ClassIndex: classIndex, NameAndTypeIndex: natIndex}, nil
		default:
			return &ConstantInterfaceMethodref{ClassIndex: classIndex, NameAndTypeIndex: natIndex}, nil
		}

	case TagNameAndType:
		nameIndex, descIndex, err := readIndexPair(c)
		if err != nil {
			return nil, err
		}
		return &ConstantNameAndType{NameIndex: nameIndex, DescriptorIndex: descIndex}, nil

	case TagMethodHandle:
		kind, err := c.ReadU1()
		if err != nil {
			return nil, err
		}
		ref, err := c.ReadU2()
		if err != nil {
			return nil, err
		}
		return &ConstantMethodHandle{ReferenceKind: MethodHandleKind(kind), ReferenceIndex: ref}, nil

	case TagMethodType:
		idx, err := c.ReadU2()
		if err != nil {
			return nil, err
		}
		return &ConstantMethodType{DescriptorIndex: idx}, nil

	case TagDynamic, TagInvokeDynamic:
		bsm, natIndex, err := readIndexPair(c)
		if err != nil {
			return nil, err
		}
		if tag == TagDynamic {
			return &ConstantDynamic{BootstrapMethodAttrIndex: bsm, NameAndTypeIndex: natIndex}, nil
		}
		return &ConstantInvokeDynamic{BootstrapMethodAttrIndex: bsm, NameAndTypeIndex: natIndex}, nil

	case TagModule, TagPackage:
		idx, err := c.ReadU2()
		if err != nil {
			return nil, err
		}
		if tag == TagModule {
			return &ConstantModule{NameIndex: idx}, nil
		}
		return &ConstantPackage{NameIndex: idx}, nil

	default:
		return nil, &UnknownConstantTagError{Tag: uint8(tag), Offset: tagOffset}
	}
}

// readIndexPair reads two consecutive u2 indices. Both are length-checked
// up front so a short read consumes nothing.
func readIndexPair(c *Cursor) (uint16, uint16, error) {
	if err := c.need(4, "index pair"); err != nil {
		return 0, 0, err
	}
	a, _ := c.ReadU2()
	b, _ := c.ReadU2()
	return a, b, nil
}
