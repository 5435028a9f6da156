package classfile

import "fmt"

// Attribute names with a built-in parser.
const (
	AttrConstantValue                        = "ConstantValue"
	AttrCode                                 = "Code"
	AttrStackMapTable                        = "StackMapTable"
	AttrExceptions                           = "Exceptions"
	AttrInnerClasses                         = "InnerClasses"
	AttrEnclosingMethod                      = "EnclosingMethod"
	AttrSynthetic                            = "Synthetic"
	AttrSignature                            = "Signature"
	AttrSourceFile                           = "SourceFile"
	AttrSourceDebugExtension                 = "SourceDebugExtension"
	AttrLineNumberTable                      = "LineNumberTable"
	AttrLocalVariableTable                   = "LocalVariableTable"
	AttrLocalVariableTypeTable               = "LocalVariableTypeTable"
	AttrDeprecated                           = "Deprecated"
	AttrRuntimeVisibleAnnotations            = "RuntimeVisibleAnnotations"
	AttrRuntimeInvisibleAnnotations          = "RuntimeInvisibleAnnotations"
	AttrRuntimeVisibleParameterAnnotations   = "RuntimeVisibleParameterAnnotations"
	AttrRuntimeInvisibleParameterAnnotations = "RuntimeInvisibleParameterAnnotations"
	AttrAnnotationDefault                    = "AnnotationDefault"
	AttrBootstrapMethods                     = "BootstrapMethods"
	AttrMethodParameters                     = "MethodParameters"
	AttrNestHost                             = "NestHost"
	AttrNestMembers                          = "NestMembers"
	AttrPermittedSubclasses                  = "PermittedSubclasses"
	AttrRecord                               = "Record"
)

// StackMapTable is intentionally absent: its frames are only meaningful to
// a verifier, so it stays opaque.
var builtinAttributes = map[string]AttributeParser{
	AttrConstantValue:                        parseConstantValue,
	AttrCode:                                 parseCode,
	AttrExceptions:                           parseExceptions,
	AttrInnerClasses:                         parseInnerClasses,
	AttrEnclosingMethod:                      parseEnclosingMethod,
	AttrSynthetic:                            parseMarker(func() AttributeBody { return &SyntheticAttribute{} }),
	AttrDeprecated:                           parseMarker(func() AttributeBody { return &DeprecatedAttribute{} }),
	AttrSignature:                            parseSignature,
	AttrSourceFile:                           parseSourceFile,
	AttrSourceDebugExtension:                 parseSourceDebugExtension,
	AttrLineNumberTable:                      parseLineNumberTable,
	AttrLocalVariableTable:                   parseLocalVariables(false),
	AttrLocalVariableTypeTable:               parseLocalVariables(true),
	AttrRuntimeVisibleAnnotations:            parseAnnotations(true),
	AttrRuntimeInvisibleAnnotations:          parseAnnotations(false),
	AttrRuntimeVisibleParameterAnnotations:   parseParameterAnnotations(true),
	AttrRuntimeInvisibleParameterAnnotations: parseParameterAnnotations(false),
	AttrAnnotationDefault:                    parseAnnotationDefault,
	AttrBootstrapMethods:                     parseBootstrapMethods,
	AttrMethodParameters:                     parseMethodParameters,
	AttrNestHost:                             parseNestHost,
	AttrNestMembers:                          parseClassList(func(c []uint16) AttributeBody { return &NestMembersAttribute{Classes: c} }),
	AttrPermittedSubclasses:                  parseClassList(func(c []uint16) AttributeBody { return &PermittedSubclassesAttribute{Classes: c} }),
	AttrRecord:                               parseRecord,
}

type ConstantValueAttribute struct {
	ValueIndex uint16
}

// ExceptionTableEntry is one handler of a Code attribute. CatchType 0
// catches everything.
type ExceptionTableEntry struct {
	StartPC   uint16
	EndPC     uint16
	HandlerPC uint16
	CatchType uint16
}

// CodeAttribute represents the Code attribute of a method.
type CodeAttribute struct {
	MaxStack       uint16
	MaxLocals      uint16
	Code           []byte
	ExceptionTable []ExceptionTableEntry
	Attributes     []AttributeInfo
}

type ExceptionsAttribute struct {
	ExceptionIndexes []uint16
}

type InnerClass struct {
	InnerClassInfoIndex   uint16
	OuterClassInfoIndex   uint16
	InnerNameIndex        uint16
	InnerClassAccessFlags AccessFlags
}

type InnerClassesAttribute struct {
	Classes []InnerClass
}

type EnclosingMethodAttribute struct {
	ClassIndex  uint16
	MethodIndex uint16 // 0 when not enclosed by a method
}

type SyntheticAttribute struct{}

type DeprecatedAttribute struct{}

type SignatureAttribute struct {
	SignatureIndex uint16
}

type SourceFileAttribute struct {
	SourceFileIndex uint16
}

type SourceDebugExtensionAttribute struct {
	DebugExtension string
}

type LineNumber struct {
	StartPC    uint16
	LineNumber uint16
}

type LineNumberTableAttribute struct {
	Entries []LineNumber
}

// LocalVariable serves both LocalVariableTable and LocalVariableTypeTable;
// DescriptorIndex holds the signature index for the latter.
type LocalVariable struct {
	StartPC         uint16
	Length          uint16
	NameIndex       uint16
	DescriptorIndex uint16
	Index           uint16
}

type LocalVariableTableAttribute struct {
	Entries []LocalVariable
}

type LocalVariableTypeTableAttribute struct {
	Entries []LocalVariable
}

type BootstrapMethod struct {
	MethodRef          uint16
	BootstrapArguments []uint16
}

type BootstrapMethodsAttribute struct {
	Methods []BootstrapMethod
}

type MethodParameter struct {
	NameIndex   uint16 // 0 for an unnamed parameter
	AccessFlags AccessFlags
}

type MethodParametersAttribute struct {
	Parameters []MethodParameter
}

type NestHostAttribute struct {
	HostClassIndex uint16
}

type NestMembersAttribute struct {
	Classes []uint16
}

type PermittedSubclassesAttribute struct {
	Classes []uint16
}

type RecordComponent struct {
	NameIndex       uint16
	DescriptorIndex uint16
	Attributes      []AttributeInfo
}

type RecordAttribute struct {
	Components []RecordComponent
}

func (*ConstantValueAttribute) attributeBody()          {}
func (*CodeAttribute) attributeBody()                   {}
func (*ExceptionsAttribute) attributeBody()             {}
func (*InnerClassesAttribute) attributeBody()           {}
func (*EnclosingMethodAttribute) attributeBody()        {}
func (*SyntheticAttribute) attributeBody()              {}
func (*DeprecatedAttribute) attributeBody()             {}
func (*SignatureAttribute) attributeBody()              {}
func (*SourceFileAttribute) attributeBody()             {}
func (*SourceDebugExtensionAttribute) attributeBody()   {}
func (*LineNumberTableAttribute) attributeBody()        {}
func (*LocalVariableTableAttribute) attributeBody()     {}
func (*LocalVariableTypeTableAttribute) attributeBody() {}
func (*BootstrapMethodsAttribute) attributeBody()       {}
func (*MethodParametersAttribute) attributeBody()       {}
func (*NestHostAttribute) attributeBody()               {}
func (*NestMembersAttribute) attributeBody()            {}
func (*PermittedSubclassesAttribute) attributeBody()    {}
func (*RecordAttribute) attributeBody()                 {}

func parseConstantValue(_ *AttributeContext, c *Cursor) (AttributeBody, error) {
	idx, err := c.ReadU2()
	if err != nil {
		return nil, err
	}
	return &ConstantValueAttribute{ValueIndex: idx}, nil
}

func parseCode(ctx *AttributeContext, c *Cursor) (AttributeBody, error) {
	code := &CodeAttribute{}
	var err error
	if code.MaxStack, err = c.ReadU2(); err != nil {
		return nil, fmt.Errorf("reading max_stack: %w", err)
	}
	if code.MaxLocals, err = c.ReadU2(); err != nil {
		return nil, fmt.Errorf("reading max_locals: %w", err)
	}
	codeLength, err := c.ReadU4()
	if err != nil {
		return nil, fmt.Errorf("reading code_length: %w", err)
	}
	if code.Code, err = c.ReadExact(int(codeLength)); err != nil {
		return nil, fmt.Errorf("reading code: %w", err)
	}

	exTableLen, err := c.ReadU2()
	if err != nil {
		return nil, fmt.Errorf("reading exception_table_length: %w", err)
	}
	code.ExceptionTable = make([]ExceptionTableEntry, exTableLen)
	for i := range code.ExceptionTable {
		e := &code.ExceptionTable[i]
		if e.StartPC, err = c.ReadU2(); err != nil {
			return nil, fmt.Errorf("reading exception %d: %w", i, err)
		}
		if e.EndPC, err = c.ReadU2(); err != nil {
			return nil, fmt.Errorf("reading exception %d: %w", i, err)
		}
		if e.HandlerPC, err = c.ReadU2(); err != nil {
			return nil, fmt.Errorf("reading exception %d: %w", i, err)
		}
		if e.CatchType, err = c.ReadU2(); err != nil {
			return nil, fmt.Errorf("reading exception %d: %w", i, err)
		}
	}

	if code.Attributes, err = ctx.ReadAttributes(c); err != nil {
		return nil, fmt.Errorf("Code attributes: %w", err)
	}
	return code, nil
}

// readU2List reads a u2 count followed by that many u2 values.
func readU2List(c *Cursor) ([]uint16, error) {
	n, err := c.ReadU2()
	if err != nil {
		return nil, err
	}
	out := make([]uint16, n)
	for i := range out {
		if out[i], err = c.ReadU2(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func parseExceptions(_ *AttributeContext, c *Cursor) (AttributeBody, error) {
	idx, err := readU2List(c)
	if err != nil {
		return nil, err
	}
	return &ExceptionsAttribute{ExceptionIndexes: idx}, nil
}

func parseInnerClasses(_ *AttributeContext, c *Cursor) (AttributeBody, error) {
	n, err := c.ReadU2()
	if err != nil {
		return nil, err
	}
	attr := &InnerClassesAttribute{Classes: make([]InnerClass, n)}
	for i := range attr.Classes {
		ic := &attr.Classes[i]
		if ic.InnerClassInfoIndex, err = c.ReadU2(); err != nil {
			return nil, err
		}
		if ic.OuterClassInfoIndex, err = c.ReadU2(); err != nil {
			return nil, err
		}
		if ic.InnerNameIndex, err = c.ReadU2(); err != nil {
			return nil, err
		}
		flags, err := c.ReadU2()
		if err != nil {
			return nil, err
		}
		ic.InnerClassAccessFlags = AccessFlags(flags)
	}
	return attr, nil
}

func parseEnclosingMethod(_ *AttributeContext, c *Cursor) (AttributeBody, error) {
	classIndex, methodIndex, err := readIndexPair(c)
	if err != nil {
		return nil, err
	}
	return &EnclosingMethodAttribute{ClassIndex: classIndex, MethodIndex: methodIndex}, nil
}

func parseMarker(mk func() AttributeBody) AttributeParser {
	return func(_ *AttributeContext, _ *Cursor) (AttributeBody, error) {
		return mk(), nil
	}
}

func parseSignature(_ *AttributeContext, c *Cursor) (AttributeBody, error) {
	idx, err := c.ReadU2()
	if err != nil {
		return nil, err
	}
	return &SignatureAttribute{SignatureIndex: idx}, nil
}

func parseSourceFile(_ *AttributeContext, c *Cursor) (AttributeBody, error) {
	idx, err := c.ReadU2()
	if err != nil {
		return nil, err
	}
	return &SourceFileAttribute{SourceFileIndex: idx}, nil
}

func parseSourceDebugExtension(_ *AttributeContext, c *Cursor) (AttributeBody, error) {
	start := c.Position()
	raw, err := c.ReadExact(c.Remaining())
	if err != nil {
		return nil, err
	}
	s, err := decodeModifiedUTF8(raw, start)
	if err != nil {
		return nil, err
	}
	return &SourceDebugExtensionAttribute{DebugExtension: s}, nil
}

func parseLineNumberTable(_ *AttributeContext, c *Cursor) (AttributeBody, error) {
	n, err := c.ReadU2()
	if err != nil {
		return nil, err
	}
	attr := &LineNumberTableAttribute{Entries: make([]LineNumber, n)}
	for i := range attr.Entries {
		start, line, err := readIndexPair(c)
		if err != nil {
			return nil, err
		}
		attr.Entries[i] = LineNumber{StartPC: start, LineNumber: line}
	}
	return attr, nil
}

func parseLocalVariables(typed bool) AttributeParser {
	return func(_ *AttributeContext, c *Cursor) (AttributeBody, error) {
		n, err := c.ReadU2()
		if err != nil {
			return nil, err
		}
		entries := make([]LocalVariable, n)
		for i := range entries {
			lv := &entries[i]
			for _, dst := range []*uint16{&lv.StartPC, &lv.Length, &lv.NameIndex, &lv.DescriptorIndex, &lv.Index} {
				if *dst, err = c.ReadU2(); err != nil {
					return nil, err
				}
			}
		}
		if typed {
			return &LocalVariableTypeTableAttribute{Entries: entries}, nil
		}
		return &LocalVariableTableAttribute{Entries: entries}, nil
	}
}

func parseBootstrapMethods(_ *AttributeContext, c *Cursor) (AttributeBody, error) {
	n, err := c.ReadU2()
	if err != nil {
		return nil, err
	}
	attr := &BootstrapMethodsAttribute{Methods: make([]BootstrapMethod, n)}
	for i := range attr.Methods {
		ref, err := c.ReadU2()
		if err != nil {
			return nil, fmt.Errorf("bootstrap method %d: %w", i, err)
		}
		args, err := readU2List(c)
		if err != nil {
			return nil, fmt.Errorf("bootstrap method %d arguments: %w", i, err)
		}
		attr.Methods[i] = BootstrapMethod{MethodRef: ref, BootstrapArguments: args}
	}
	return attr, nil
}

func parseMethodParameters(_ *AttributeContext, c *Cursor) (AttributeBody, error) {
	n, err := c.ReadU1()
	if err != nil {
		return nil, err
	}
	attr := &MethodParametersAttribute{Parameters: make([]MethodParameter, n)}
	for i := range attr.Parameters {
		name, flags, err := readIndexPair(c)
		if err != nil {
			return nil, err
		}
		attr.Parameters[i] = MethodParameter{NameIndex: name, AccessFlags: AccessFlags(flags)}
	}
	return attr, nil
}

func parseNestHost(_ *AttributeContext, c *Cursor) (AttributeBody, error) {
	idx, err := c.ReadU2()
	if err != nil {
		return nil, err
	}
	return &NestHostAttribute{HostClassIndex: idx}, nil
}

func parseClassList(mk func([]uint16) AttributeBody) AttributeParser {
	return func(_ *AttributeContext, c *Cursor) (AttributeBody, error) {
		classes, err := readU2List(c)
		if err != nil {
			return nil, err
		}
		return mk(classes), nil
	}
}

func parseRecord(ctx *AttributeContext, c *Cursor) (AttributeBody, error) {
	n, err := c.ReadU2()
	if err != nil {
		return nil, err
	}
	attr := &RecordAttribute{Components: make([]RecordComponent, n)}
	for i := range attr.Components {
		rc := &attr.Components[i]
		if rc.NameIndex, rc.DescriptorIndex, err = readIndexPair(c); err != nil {
			return nil, fmt.Errorf("record component %d: %w", i, err)
		}
		if rc.Attributes, err = ctx.ReadAttributes(c); err != nil {
			return nil, fmt.Errorf("record component %d: %w", i, err)
		}
	}
	return attr, nil
}
