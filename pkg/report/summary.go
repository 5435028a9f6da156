package report

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/daimatz/javium/pkg/classfile"
)

// Summary is the machine-readable view of a class file. Every reference
// is resolved to text; ones that do not resolve read "#n<invalid>".
type Summary struct {
	Name         string      `cbor:"1,keyasint"`
	SuperName    string      `cbor:"2,keyasint,omitempty"`
	Interfaces   []string    `cbor:"3,keyasint,omitempty"`
	MinorVersion uint16      `cbor:"4,keyasint"`
	MajorVersion uint16      `cbor:"5,keyasint"`
	AccessFlags  []string    `cbor:"6,keyasint,omitempty"`
	SourceFile   string      `cbor:"7,keyasint,omitempty"`
	Constants    []Constant  `cbor:"8,keyasint,omitempty"`
	Fields       []Member    `cbor:"9,keyasint,omitempty"`
	Methods      []Member    `cbor:"10,keyasint,omitempty"`
	Attributes   []Attribute `cbor:"11,keyasint,omitempty"`
}

// Constant is one usable constant pool slot.
type Constant struct {
	Index uint16 `cbor:"1,keyasint"`
	Tag   string `cbor:"2,keyasint"`
	Value string `cbor:"3,keyasint,omitempty"`
}

type Member struct {
	Name        string      `cbor:"1,keyasint"`
	Descriptor  string      `cbor:"2,keyasint"`
	AccessFlags []string    `cbor:"3,keyasint,omitempty"`
	Attributes  []Attribute `cbor:"4,keyasint,omitempty"`
}

// Attribute records an attribute's name and size. Children holds nested
// tables (Code attributes, Record components).
type Attribute struct {
	Name     string      `cbor:"1,keyasint"`
	Length   uint32      `cbor:"2,keyasint"`
	Opaque   bool        `cbor:"3,keyasint,omitempty"`
	Children []Attribute `cbor:"4,keyasint,omitempty"`
}

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("report: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// MarshalCBOR serializes s to canonical CBOR.
func MarshalCBOR(s *Summary) ([]byte, error) {
	return cborEncMode.Marshal(s)
}

// UnmarshalSummary deserializes a Summary from CBOR bytes.
func UnmarshalSummary(data []byte) (*Summary, error) {
	var s Summary
	if err := cbor.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("report: unmarshal summary: %w", err)
	}
	return &s, nil
}

// Summarize builds the Summary of cf. It never fails: dangling references
// are recorded as "#n<invalid>".
func Summarize(cf *classfile.ClassFile) *Summary {
	cp := cf.ConstantPool
	s := &Summary{
		Name:         classAt(cp, cf.ThisClass),
		MinorVersion: cf.MinorVersion,
		MajorVersion: cf.MajorVersion,
		AccessFlags:  cf.AccessFlags.Strings(classfile.ClassFlags),
		SourceFile:   sourceFile(cf),
		Attributes:   summarizeAttributes(cf.Attributes),
	}
	if cf.SuperClass != 0 {
		s.SuperName = classAt(cp, cf.SuperClass)
	}
	for _, idx := range cf.Interfaces {
		s.Interfaces = append(s.Interfaces, classAt(cp, idx))
	}
	for i, e := range cp {
		if _, ok := e.(*classfile.ConstantUnusable); ok || e == nil {
			continue
		}
		idx := uint16(i + 1)
		s.Constants = append(s.Constants, Constant{Index: idx, Tag: e.Tag().String(), Value: entryValue(cp, idx)})
	}
	for i := range cf.Fields {
		s.Fields = append(s.Fields, summarizeMember(cp, &cf.Fields[i].MemberInfo, classfile.FieldFlags))
	}
	for i := range cf.Methods {
		s.Methods = append(s.Methods, summarizeMember(cp, &cf.Methods[i].MemberInfo, classfile.MethodFlags))
	}
	return s
}

func summarizeMember(cp classfile.ConstantPool, m *classfile.MemberInfo, ctx classfile.FlagContext) Member {
	return Member{
		Name:        utf8At(cp, m.NameIndex),
		Descriptor:  utf8At(cp, m.DescriptorIndex),
		AccessFlags: m.AccessFlags.Strings(ctx),
		Attributes:  summarizeAttributes(m.Attributes),
	}
}

func summarizeAttributes(attrs []classfile.AttributeInfo) []Attribute {
	if len(attrs) == 0 {
		return nil
	}
	out := make([]Attribute, len(attrs))
	for i := range attrs {
		a := &attrs[i]
		out[i] = Attribute{Name: attributeName(a), Length: a.Length}
		switch b := a.Body.(type) {
		case *classfile.OpaqueAttribute:
			out[i].Opaque = true
		case *classfile.CodeAttribute:
			out[i].Children = summarizeAttributes(b.Attributes)
		case *classfile.RecordAttribute:
			for _, rc := range b.Components {
				out[i].Children = append(out[i].Children, summarizeAttributes(rc.Attributes)...)
			}
		}
	}
	return out
}
