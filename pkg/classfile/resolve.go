package classfile

import "fmt"

// Resolver turns 1-based pool references into entries. It is the only
// place references are validated.
type Resolver interface {
	Resolve(ref uint16) (ConstantPoolEntry, error)
}

var _ Resolver = ConstantPool(nil)

// Resolve returns the entry at pool index ref.
func (cp ConstantPool) Resolve(ref uint16) (ConstantPoolEntry, error) {
	if ref == 0 {
		return nil, &IndexError{Index: ref, Size: len(cp), Reason: "index 0 is reserved"}
	}
	if int(ref) > len(cp) {
		return nil, &IndexError{Index: ref, Size: len(cp), Reason: "beyond end of pool"}
	}
	entry := cp[ref-1]
	if _, ok := entry.(*ConstantUnusable); ok || entry == nil {
		return nil, &IndexError{Index: ref, Size: len(cp), Reason: "second slot of a Long or Double"}
	}
	return entry, nil
}

func resolveAs[T ConstantPoolEntry](cp ConstantPool, ref uint16, want ConstantTag) (T, error) {
	var zero T
	entry, err := cp.Resolve(ref)
	if err != nil {
		return zero, err
	}
	v, ok := entry.(T)
	if !ok {
		return zero, &KindError{Index: ref, Want: want, Got: entry.Tag()}
	}
	return v, nil
}

// Utf8 returns the string of the Utf8 entry at index.
func (cp ConstantPool) Utf8(index uint16) (string, error) {
	e, err := resolveAs[*ConstantUtf8](cp, index, TagUtf8)
	if err != nil {
		return "", err
	}
	return e.Value, nil
}

// ClassName returns the internal name referenced by a Class entry.
func (cp ConstantPool) ClassName(classIndex uint16) (string, error) {
	class, err := resolveAs[*ConstantClass](cp, classIndex, TagClass)
	if err != nil {
		return "", err
	}
	return cp.Utf8(class.NameIndex)
}

// StringValue returns the text referenced by a String entry.
func (cp ConstantPool) StringValue(index uint16) (string, error) {
	s, err := resolveAs[*ConstantString](cp, index, TagString)
	if err != nil {
		return "", err
	}
	return cp.Utf8(s.StringIndex)
}

// NameAndType resolves a NameAndType entry to its name and descriptor.
func (cp ConstantPool) NameAndType(index uint16) (name, descriptor string, err error) {
	nat, err := resolveAs[*ConstantNameAndType](cp, index, TagNameAndType)
	if err != nil {
		return "", "", err
	}
	if name, err = cp.Utf8(nat.NameIndex); err != nil {
		return "", "", fmt.Errorf("resolving name: %w", err)
	}
	if descriptor, err = cp.Utf8(nat.DescriptorIndex); err != nil {
		return "", "", fmt.Errorf("resolving descriptor: %w", err)
	}
	return name, descriptor, nil
}

// MemberRef is a resolved Fieldref, Methodref or InterfaceMethodref.
type MemberRef struct {
	ClassName  string
	Name       string
	Descriptor string
}

func (r MemberRef) String() string {
	return r.ClassName + "." + r.Name + ":" + r.Descriptor
}

func (cp ConstantPool) memberRef(kind string, classIndex, natIndex uint16) (*MemberRef, error) {
	className, err := cp.ClassName(classIndex)
	if err != nil {
		return nil, fmt.Errorf("resolving %s class: %w", kind, err)
	}
	name, desc, err := cp.NameAndType(natIndex)
	if err != nil {
		return nil, fmt.Errorf("resolving %s name and type: %w", kind, err)
	}
	return &MemberRef{ClassName: className, Name: name, Descriptor: desc}, nil
}

// ResolveFieldref resolves a CONSTANT_Fieldref entry.
func (cp ConstantPool) ResolveFieldref(index uint16) (*MemberRef, error) {
	ref, err := resolveAs[*ConstantFieldref](cp, index, TagFieldref)
	if err != nil {
		return nil, err
	}
	return cp.memberRef("Fieldref", ref.ClassIndex, ref.NameAndTypeIndex)
}

// ResolveMethodref resolves a CONSTANT_Methodref entry.
func (cp ConstantPool) ResolveMethodref(index uint16) (*MemberRef, error) {
	ref, err := resolveAs[*ConstantMethodref](cp, index, TagMethodref)
	if err != nil {
		return nil, err
	}
	return cp.memberRef("Methodref", ref.ClassIndex, ref.NameAndTypeIndex)
}

// ResolveInterfaceMethodref resolves a CONSTANT_InterfaceMethodref entry.
func (cp ConstantPool) ResolveInterfaceMethodref(index uint16) (*MemberRef, error) {
	ref, err := resolveAs[*ConstantInterfaceMethodref](cp, index, TagInterfaceMethodref)
	if err != nil {
		return nil, err
	}
	return cp.memberRef("InterfaceMethodref", ref.ClassIndex, ref.NameAndTypeIndex)
}

// lookupUtf8 is the lenient lookup used while decoding attribute names: it
// never fails, it just reports whether index named a Utf8 entry.
func (cp ConstantPool) lookupUtf8(index uint16) (string, bool) {
	if index == 0 || int(index) > len(cp) {
		return "", false
	}
	e, ok := cp[index-1].(*ConstantUtf8)
	if !ok {
		return "", false
	}
	return e.Value, true
}
