package classfile

// ClassFile represents a decoded .class file. It is built once by Decode
// and not modified afterwards.
type ClassFile struct {
	Magic        uint32
	MinorVersion uint16
	MajorVersion uint16
	ConstantPool ConstantPool
	AccessFlags  AccessFlags
	ThisClass    uint16
	SuperClass   uint16
	Interfaces   []uint16
	Fields       []FieldInfo
	Methods      []MethodInfo
	Attributes   []AttributeInfo
}

// MemberInfo is the shared shape of field_info and method_info.
type MemberInfo struct {
	AccessFlags     AccessFlags
	NameIndex       uint16
	DescriptorIndex uint16
	Attributes      []AttributeInfo
}

// FieldInfo represents a field in a class file.
type FieldInfo struct {
	MemberInfo
}

// MethodInfo represents a method in a class file.
type MethodInfo struct {
	MemberInfo
}

// Name resolves the member name.
func (m *MemberInfo) Name(cp ConstantPool) (string, error) {
	return cp.Utf8(m.NameIndex)
}

// Descriptor resolves the member descriptor.
func (m *MemberInfo) Descriptor(cp ConstantPool) (string, error) {
	return cp.Utf8(m.DescriptorIndex)
}

// Attribute returns the first attribute named name, or nil.
func (m *MemberInfo) Attribute(name string) *AttributeInfo {
	return FindAttribute(m.Attributes, name)
}

// Code returns the method's Code attribute, or nil for abstract and
// native methods.
func (m *MethodInfo) Code() *CodeAttribute {
	for i := range m.Attributes {
		if code, ok := m.Attributes[i].Body.(*CodeAttribute); ok {
			return code
		}
	}
	return nil
}

// ConstantValue returns the field's ConstantValue attribute, or nil.
func (f *FieldInfo) ConstantValue() *ConstantValueAttribute {
	for i := range f.Attributes {
		if cv, ok := f.Attributes[i].Body.(*ConstantValueAttribute); ok {
			return cv
		}
	}
	return nil
}

// ClassName returns the fully qualified name of this class.
func (cf *ClassFile) ClassName() (string, error) {
	return cf.ConstantPool.ClassName(cf.ThisClass)
}

// SuperClassName returns the name of the super class.
// Returns "" if this is java/lang/Object (SuperClass == 0).
func (cf *ClassFile) SuperClassName() (string, error) {
	if cf.SuperClass == 0 {
		return "", nil
	}
	return cf.ConstantPool.ClassName(cf.SuperClass)
}

// InterfaceNames resolves the direct superinterfaces in declaration order.
func (cf *ClassFile) InterfaceNames() ([]string, error) {
	names := make([]string, len(cf.Interfaces))
	for i, idx := range cf.Interfaces {
		name, err := cf.ConstantPool.ClassName(idx)
		if err != nil {
			return nil, err
		}
		names[i] = name
	}
	return names, nil
}

// SourceFile returns the SourceFile attribute value, or "" if absent.
func (cf *ClassFile) SourceFile() (string, error) {
	for i := range cf.Attributes {
		if sf, ok := cf.Attributes[i].Body.(*SourceFileAttribute); ok {
			return cf.ConstantPool.Utf8(sf.SourceFileIndex)
		}
	}
	return "", nil
}

// BootstrapMethods returns the class BootstrapMethods table, or nil.
func (cf *ClassFile) BootstrapMethods() []BootstrapMethod {
	for i := range cf.Attributes {
		if bm, ok := cf.Attributes[i].Body.(*BootstrapMethodsAttribute); ok {
			return bm.Methods
		}
	}
	return nil
}

// FindMethod finds a method by name and descriptor.
func (cf *ClassFile) FindMethod(name, descriptor string) *MethodInfo {
	for i := range cf.Methods {
		m := &cf.Methods[i]
		if cf.memberMatches(&m.MemberInfo, name, descriptor) {
			return m
		}
	}
	return nil
}

// FindMethodByName finds a method by name only (first match).
func (cf *ClassFile) FindMethodByName(name string) *MethodInfo {
	return cf.FindMethod(name, "")
}

// FindField finds a field by name, and by descriptor when it is non-empty.
func (cf *ClassFile) FindField(name, descriptor string) *FieldInfo {
	for i := range cf.Fields {
		f := &cf.Fields[i]
		if cf.memberMatches(&f.MemberInfo, name, descriptor) {
			return f
		}
	}
	return nil
}

func (cf *ClassFile) memberMatches(m *MemberInfo, name, descriptor string) bool {
	n, err := m.Name(cf.ConstantPool)
	if err != nil || n != name {
		return false
	}
	if descriptor == "" {
		return true
	}
	d, err := m.Descriptor(cf.ConstantPool)
	return err == nil && d == descriptor
}
