package report

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/daimatz/javium/pkg/classfile"
)

// invalid renders a reference that does not resolve to the expected kind.
func invalid(idx uint16) string { return fmt.Sprintf("#%d<invalid>", idx) }

func utf8At(cp classfile.ConstantPool, idx uint16) string {
	s, err := cp.Utf8(idx)
	if err != nil {
		return invalid(idx)
	}
	return s
}

func classAt(cp classfile.ConstantPool, idx uint16) string {
	s, err := cp.ClassName(idx)
	if err != nil {
		return invalid(idx)
	}
	return s
}

func nameAndTypeAt(cp classfile.ConstantPool, idx uint16) string {
	name, desc, err := cp.NameAndType(idx)
	if err != nil {
		return invalid(idx)
	}
	return name + ":" + desc
}

// memberAt renders a Fieldref, Methodref or InterfaceMethodref as C.n:d.
func memberAt(cp classfile.ConstantPool, idx uint16) string {
	e, err := cp.Resolve(idx)
	if err != nil {
		return invalid(idx)
	}
	var ref *classfile.MemberRef
	switch e.(type) {
	case *classfile.ConstantFieldref:
		ref, err = cp.ResolveFieldref(idx)
	case *classfile.ConstantMethodref:
		ref, err = cp.ResolveMethodref(idx)
	case *classfile.ConstantInterfaceMethodref:
		ref, err = cp.ResolveInterfaceMethodref(idx)
	default:
		return invalid(idx)
	}
	if err != nil {
		return invalid(idx)
	}
	return ref.String()
}

// printable escapes control and non-graphic characters so pool strings
// cannot corrupt terminal output.
func printable(s string) string {
	if strings.IndexFunc(s, func(r rune) bool { return !unicode.IsGraphic(r) }) < 0 {
		return s
	}
	q := strconv.QuoteToGraphic(s)
	return q[1 : len(q)-1]
}

func formatFloat(v float64, bits int) string {
	return strconv.FormatFloat(v, 'g', -1, bits)
}

// literal renders a loadable constant the way it would appear in source.
func literal(cp classfile.ConstantPool, idx uint16) string {
	e, err := cp.Resolve(idx)
	if err != nil {
		return invalid(idx)
	}
	switch e := e.(type) {
	case *classfile.ConstantInteger:
		return strconv.FormatInt(int64(e.Value), 10)
	case *classfile.ConstantLong:
		return strconv.FormatInt(e.Value, 10) + "l"
	case *classfile.ConstantFloat:
		return formatFloat(float64(e.Value), 32) + "f"
	case *classfile.ConstantDouble:
		return formatFloat(e.Value, 64) + "d"
	case *classfile.ConstantUtf8:
		return strconv.Quote(e.Value)
	case *classfile.ConstantString:
		s, err := cp.StringValue(idx)
		if err != nil {
			return invalid(idx)
		}
		return strconv.Quote(s)
	}
	return entryValue(cp, idx)
}

// entryArgs renders the raw operands of a pool entry, javap style.
func entryArgs(e classfile.ConstantPoolEntry) string {
	switch e := e.(type) {
	case *classfile.ConstantUtf8:
		return printable(e.Value)
	case *classfile.ConstantInteger:
		return strconv.FormatInt(int64(e.Value), 10)
	case *classfile.ConstantFloat:
		return formatFloat(float64(e.Value), 32) + "f"
	case *classfile.ConstantLong:
		return strconv.FormatInt(e.Value, 10) + "l"
	case *classfile.ConstantDouble:
		return formatFloat(e.Value, 64) + "d"
	case *classfile.ConstantClass:
		return fmt.Sprintf("#%d", e.NameIndex)
	case *classfile.ConstantString:
		return fmt.Sprintf("#%d", e.StringIndex)
	case *classfile.ConstantFieldref:
		return fmt.Sprintf("#%d.#%d", e.ClassIndex, e.NameAndTypeIndex)
	case *classfile.ConstantMethodref:
		return fmt.Sprintf("#%d.#%d", e.ClassIndex, e.NameAndTypeIndex)
	case *classfile.ConstantInterfaceMethodref:
		return fmt.Sprintf("#%d.#%d", e.ClassIndex, e.NameAndTypeIndex)
	case *classfile.ConstantNameAndType:
		return fmt.Sprintf("#%d:#%d", e.NameIndex, e.DescriptorIndex)
	case *classfile.ConstantMethodHandle:
		return fmt.Sprintf("%d:#%d", e.ReferenceKind, e.ReferenceIndex)
	case *classfile.ConstantMethodType:
		return fmt.Sprintf("#%d", e.DescriptorIndex)
	case *classfile.ConstantDynamic:
		return fmt.Sprintf("#%d:#%d", e.BootstrapMethodAttrIndex, e.NameAndTypeIndex)
	case *classfile.ConstantInvokeDynamic:
		return fmt.Sprintf("#%d:#%d", e.BootstrapMethodAttrIndex, e.NameAndTypeIndex)
	case *classfile.ConstantModule:
		return fmt.Sprintf("#%d", e.NameIndex)
	case *classfile.ConstantPackage:
		return fmt.Sprintf("#%d", e.NameIndex)
	case *classfile.ConstantUnusable:
		return ""
	}
	return "?"
}

// entryValue follows the references of entry idx and renders what they
// name. Scalars render as themselves.
func entryValue(cp classfile.ConstantPool, idx uint16) string {
	e, err := cp.Resolve(idx)
	if err != nil {
		return invalid(idx)
	}
	switch e := e.(type) {
	case *classfile.ConstantUtf8:
		return printable(e.Value)
	case *classfile.ConstantInteger, *classfile.ConstantFloat,
		*classfile.ConstantLong, *classfile.ConstantDouble:
		return entryArgs(e)
	case *classfile.ConstantClass:
		return printable(utf8At(cp, e.NameIndex))
	case *classfile.ConstantString:
		return printable(utf8At(cp, e.StringIndex))
	case *classfile.ConstantFieldref, *classfile.ConstantMethodref, *classfile.ConstantInterfaceMethodref:
		return printable(memberAt(cp, idx))
	case *classfile.ConstantNameAndType:
		return printable(nameAndTypeAt(cp, idx))
	case *classfile.ConstantMethodHandle:
		return e.ReferenceKind.String() + " " + printable(memberAt(cp, e.ReferenceIndex))
	case *classfile.ConstantMethodType:
		return printable(utf8At(cp, e.DescriptorIndex))
	case *classfile.ConstantDynamic:
		return fmt.Sprintf("#%d:%s", e.BootstrapMethodAttrIndex, printable(nameAndTypeAt(cp, e.NameAndTypeIndex)))
	case *classfile.ConstantInvokeDynamic:
		return fmt.Sprintf("#%d:%s", e.BootstrapMethodAttrIndex, printable(nameAndTypeAt(cp, e.NameAndTypeIndex)))
	case *classfile.ConstantModule:
		return printable(utf8At(cp, e.NameIndex))
	case *classfile.ConstantPackage:
		return printable(utf8At(cp, e.NameIndex))
	}
	return ""
}

// hasReferences reports whether e points at other pool entries, which is
// when the text report adds a resolved comment.
func hasReferences(e classfile.ConstantPoolEntry) bool {
	switch e.(type) {
	case *classfile.ConstantUtf8, *classfile.ConstantInteger, *classfile.ConstantFloat,
		*classfile.ConstantLong, *classfile.ConstantDouble, *classfile.ConstantUnusable:
		return false
	}
	return true
}

func elementValueText(cp classfile.ConstantPool, v classfile.ElementValue) string {
	switch v.Tag {
	case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z':
		return literal(cp, v.ConstValueIndex)
	case 's':
		s, err := cp.Utf8(v.ConstValueIndex)
		if err != nil {
			return invalid(v.ConstValueIndex)
		}
		return strconv.Quote(s)
	case 'e':
		return utf8At(cp, v.EnumTypeNameIndex) + "." + utf8At(cp, v.EnumConstNameIndex)
	case 'c':
		return utf8At(cp, v.ClassInfoIndex) + ".class"
	case '@':
		if v.Annotation == nil {
			return "@?"
		}
		return annotationText(cp, *v.Annotation)
	case '[':
		parts := make([]string, len(v.Values))
		for i, ev := range v.Values {
			parts[i] = elementValueText(cp, ev)
		}
		return "[" + strings.Join(parts, ",") + "]"
	}
	return fmt.Sprintf("<tag %q>", v.Tag)
}

func annotationText(cp classfile.ConstantPool, a classfile.Annotation) string {
	parts := make([]string, len(a.Elements))
	for i, p := range a.Elements {
		parts[i] = utf8At(cp, p.NameIndex) + "=" + elementValueText(cp, p.Value)
	}
	return utf8At(cp, a.TypeIndex) + "(" + strings.Join(parts, ",") + ")"
}

// attributeName is the attribute's resolved name, or its index when the
// name did not resolve.
func attributeName(a *classfile.AttributeInfo) string {
	if a.Name == "" {
		return invalid(a.NameIndex)
	}
	return a.Name
}
