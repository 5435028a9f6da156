// Package report renders decoded class files for people (WriteText) and
// for tools (Summarize, MarshalCBOR).
package report

import (
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/daimatz/javium/pkg/bytecode"
	"github.com/daimatz/javium/pkg/classfile"
)

var (
	headerColor  = color.New(color.Bold)
	nameColor    = color.New(color.FgGreen)
	tagColor     = color.New(color.FgCyan)
	commentColor = color.New(color.FgHiBlack)
	invalidColor = color.New(color.FgRed)
)

// TextOptions controls WriteText.
type TextOptions struct {
	// Verbose adds the constant pool, bytecode and opaque payloads.
	Verbose bool
}

type textWriter struct {
	w    io.Writer
	cp   classfile.ConstantPool
	opts TextOptions
	err  error
}

func (t *textWriter) line(indent int, format string, args ...any) {
	if t.err != nil {
		return
	}
	_, t.err = fmt.Fprintf(t.w, "%s%s\n", strings.Repeat(" ", indent), fmt.Sprintf(format, args...))
}

// ref renders "#idx" with a resolved comment, or "#idx<invalid>" in red.
func ref(idx uint16, resolved string) string {
	if strings.HasSuffix(resolved, "<invalid>") {
		return invalidColor.Sprint(resolved)
	}
	return fmt.Sprintf("#%d %s", idx, commentColor.Sprint("// "+resolved))
}

func classKind(f classfile.AccessFlags) string {
	switch {
	case f.IsAnnotation():
		return "@interface"
	case f.IsInterface():
		return "interface"
	case f.IsEnum():
		return "enum"
	case f&classfile.AccModule != 0:
		return "module"
	}
	return "class"
}

// WriteText writes a javap -v style listing of cf. References that do not
// resolve are shown as #n<invalid> and never abort the listing.
func WriteText(w io.Writer, cf *classfile.ClassFile, opts TextOptions) error {
	t := &textWriter{w: w, cp: cf.ConstantPool, opts: opts}
	cp := cf.ConstantPool

	t.line(0, "%s %s", headerColor.Sprint(classKind(cf.AccessFlags)), nameColor.Sprint(printable(classAt(cp, cf.ThisClass))))
	if sf := sourceFile(cf); sf != "" {
		t.line(2, "Compiled from %q", sf)
	}
	t.line(2, "minor version: %d", cf.MinorVersion)
	t.line(2, "major version: %d", cf.MajorVersion)
	t.line(2, "flags: %s", cf.AccessFlags.Format(classfile.ClassFlags))
	t.line(2, "this_class: %s", ref(cf.ThisClass, classAt(cp, cf.ThisClass)))
	if cf.SuperClass == 0 {
		t.line(2, "super_class: #0")
	} else {
		t.line(2, "super_class: %s", ref(cf.SuperClass, classAt(cp, cf.SuperClass)))
	}
	t.line(2, "interfaces: %d, fields: %d, methods: %d, attributes: %d",
		len(cf.Interfaces), len(cf.Fields), len(cf.Methods), len(cf.Attributes))
	for _, idx := range cf.Interfaces {
		t.line(4, "implements %s", printable(classAt(cp, idx)))
	}

	if opts.Verbose {
		t.constantPool()
	}

	t.line(0, "{")
	for i := range cf.Fields {
		t.member(&cf.Fields[i].MemberInfo, classfile.FieldFlags)
	}
	for i := range cf.Methods {
		t.member(&cf.Methods[i].MemberInfo, classfile.MethodFlags)
	}
	t.line(0, "}")
	t.attributes(0, cf.Attributes)
	return t.err
}

func sourceFile(cf *classfile.ClassFile) string {
	for i := range cf.Attributes {
		if sf, ok := cf.Attributes[i].Body.(*classfile.SourceFileAttribute); ok {
			return utf8At(cf.ConstantPool, sf.SourceFileIndex)
		}
	}
	return ""
}

func (t *textWriter) constantPool() {
	t.line(0, "%s", headerColor.Sprint("Constant pool:"))
	for i, e := range t.cp {
		if _, ok := e.(*classfile.ConstantUnusable); ok || e == nil {
			continue
		}
		idx := uint16(i + 1)
		text := fmt.Sprintf("%5s = %s %-15s", fmt.Sprintf("#%d", idx), tagColor.Sprintf("%-18s", e.Tag()), entryArgs(e))
		if hasReferences(e) {
			v := entryValue(t.cp, idx)
			if strings.Contains(v, "<invalid>") {
				text += " " + invalidColor.Sprint("// "+v)
			} else {
				text += " " + commentColor.Sprint("// "+v)
			}
		}
		t.line(0, "%s", strings.TrimRight(text, " "))
	}
}

func (t *textWriter) member(m *classfile.MemberInfo, ctx classfile.FlagContext) {
	name := printable(utf8At(t.cp, m.NameIndex))
	desc := printable(utf8At(t.cp, m.DescriptorIndex))
	t.line(2, "%s;", nameColor.Sprint(name))
	t.line(4, "descriptor: %s", desc)
	t.line(4, "flags: %s", m.AccessFlags.Format(ctx))
	t.attributes(4, m.Attributes)
	t.line(0, "")
}

func (t *textWriter) attributes(indent int, attrs []classfile.AttributeInfo) {
	for i := range attrs {
		t.attribute(indent, &attrs[i])
	}
}

func (t *textWriter) attribute(indent int, a *classfile.AttributeInfo) {
	cp := t.cp
	name := headerColor.Sprint(attributeName(a) + ":")

	switch b := a.Body.(type) {
	case *classfile.CodeAttribute:
		t.line(indent, "%s", name)
		t.line(indent+2, "stack=%d, locals=%d, code_length=%d", b.MaxStack, b.MaxLocals, len(b.Code))
		if t.opts.Verbose {
			t.bytecode(indent+4, b.Code)
		}
		if len(b.ExceptionTable) > 0 {
			t.line(indent+2, "Exception table:")
			t.line(indent+4, "%5s %5s %6s   %s", "from", "to", "target", "type")
			for _, e := range b.ExceptionTable {
				typ := "any"
				if e.CatchType != 0 {
					typ = "Class " + printable(classAt(cp, e.CatchType))
				}
				t.line(indent+4, "%5d %5d %6d   %s", e.StartPC, e.EndPC, e.HandlerPC, typ)
			}
		}
		t.attributes(indent+2, b.Attributes)

	case *classfile.ConstantValueAttribute:
		t.line(indent, "%s %s", name, literal(cp, b.ValueIndex))

	case *classfile.SourceFileAttribute:
		t.line(indent, "%s %q", name, utf8At(cp, b.SourceFileIndex))

	case *classfile.SignatureAttribute:
		t.line(indent, "%s %s", name, ref(b.SignatureIndex, printable(utf8At(cp, b.SignatureIndex))))

	case *classfile.DeprecatedAttribute, *classfile.SyntheticAttribute:
		t.line(indent, "%s true", name)

	case *classfile.LineNumberTableAttribute:
		t.line(indent, "%s", name)
		for _, ln := range b.Entries {
			t.line(indent+2, "line %d: %d", ln.LineNumber, ln.StartPC)
		}

	case *classfile.LocalVariableTableAttribute:
		t.line(indent, "%s", name)
		t.localVariables(indent+2, b.Entries)

	case *classfile.LocalVariableTypeTableAttribute:
		t.line(indent, "%s", name)
		t.localVariables(indent+2, b.Entries)

	case *classfile.ExceptionsAttribute:
		t.line(indent, "%s", name)
		names := make([]string, len(b.ExceptionIndexes))
		for i, idx := range b.ExceptionIndexes {
			names[i] = printable(classAt(cp, idx))
		}
		t.line(indent+2, "throws %s", strings.Join(names, ", "))

	case *classfile.InnerClassesAttribute:
		t.line(indent, "%s", name)
		for _, ic := range b.Classes {
			inner := printable(classAt(cp, ic.InnerClassInfoIndex))
			line := fmt.Sprintf("%s %s", ic.InnerClassAccessFlags.Format(classfile.ClassFlags), inner)
			if ic.InnerNameIndex != 0 {
				line += " = " + printable(utf8At(cp, ic.InnerNameIndex))
			}
			if ic.OuterClassInfoIndex != 0 {
				line += " of " + printable(classAt(cp, ic.OuterClassInfoIndex))
			}
			t.line(indent+2, "%s", line)
		}

	case *classfile.EnclosingMethodAttribute:
		method := ""
		if b.MethodIndex != 0 {
			method = "." + printable(nameAndTypeAt(cp, b.MethodIndex))
		}
		t.line(indent, "%s %s%s", name, printable(classAt(cp, b.ClassIndex)), method)

	case *classfile.SourceDebugExtensionAttribute:
		t.line(indent, "%s", name)
		for _, l := range strings.Split(strings.TrimRight(b.DebugExtension, "\n"), "\n") {
			t.line(indent+2, "%s", printable(l))
		}

	case *classfile.AnnotationsAttribute:
		t.line(indent, "%s", name)
		for i, ann := range b.Annotations {
			t.line(indent+2, "%d: %s", i, printable(annotationText(cp, ann)))
		}

	case *classfile.ParameterAnnotationsAttribute:
		t.line(indent, "%s", name)
		for p, anns := range b.Parameters {
			t.line(indent+2, "parameter %d:", p)
			for i, ann := range anns {
				t.line(indent+4, "%d: %s", i, printable(annotationText(cp, ann)))
			}
		}

	case *classfile.AnnotationDefaultAttribute:
		t.line(indent, "%s", name)
		t.line(indent+2, "default_value: %s", printable(elementValueText(cp, b.Value)))

	case *classfile.BootstrapMethodsAttribute:
		t.line(indent, "%s", name)
		for i, bm := range b.Methods {
			t.line(indent+2, "%d: #%d %s", i, bm.MethodRef, entryValue(cp, bm.MethodRef))
			if len(bm.BootstrapArguments) > 0 {
				t.line(indent+4, "Method arguments:")
				for _, arg := range bm.BootstrapArguments {
					t.line(indent+6, "#%d %s", arg, entryValue(cp, arg))
				}
			}
		}

	case *classfile.MethodParametersAttribute:
		t.line(indent, "%s", name)
		for _, p := range b.Parameters {
			pname := "<no name>"
			if p.NameIndex != 0 {
				pname = printable(utf8At(cp, p.NameIndex))
			}
			t.line(indent+2, "%-20s 0x%04x", pname, uint16(p.AccessFlags))
		}

	case *classfile.NestHostAttribute:
		t.line(indent, "%s class %s", name, printable(classAt(cp, b.HostClassIndex)))

	case *classfile.NestMembersAttribute:
		t.line(indent, "%s", name)
		t.classList(indent+2, b.Classes)

	case *classfile.PermittedSubclassesAttribute:
		t.line(indent, "%s", name)
		t.classList(indent+2, b.Classes)

	case *classfile.RecordAttribute:
		t.line(indent, "%s", name)
		for _, rc := range b.Components {
			t.line(indent+2, "%s:%s", printable(utf8At(cp, rc.NameIndex)), printable(utf8At(cp, rc.DescriptorIndex)))
			t.attributes(indent+4, rc.Attributes)
		}

	default:
		// Opaque payloads and bodies from custom parsers.
		t.line(indent, "%s length = 0x%X", name, a.Length)
		if t.opts.Verbose {
			t.hexDump(indent+2, a.Data)
		}
	}
}

func (t *textWriter) localVariables(indent int, entries []classfile.LocalVariable) {
	t.line(indent, "%5s %6s %4s %-10s %s", "Start", "Length", "Slot", "Name", "Signature")
	for _, lv := range entries {
		t.line(indent, "%5d %6d %4d %-10s %s", lv.StartPC, lv.Length, lv.Index,
			printable(utf8At(t.cp, lv.NameIndex)), printable(utf8At(t.cp, lv.DescriptorIndex)))
	}
}

func (t *textWriter) classList(indent int, classes []uint16) {
	for _, idx := range classes {
		t.line(indent, "%s", printable(classAt(t.cp, idx)))
	}
}

func (t *textWriter) hexDump(indent int, data []byte) {
	for off := 0; off < len(data); off += 16 {
		end := min(off+16, len(data))
		t.line(indent, "%04x: %s", off, hex.EncodeToString(data[off:end]))
	}
}

// bytecode lists the instructions of code. Code that does not decode is
// listed up to the failure and then dumped as hex.
func (t *textWriter) bytecode(indent int, code []byte) {
	ins, err := bytecode.Decode(code)
	for i := range ins {
		t.instruction(indent, &ins[i])
	}
	if err != nil {
		t.line(indent, "%s", invalidColor.Sprint(err.Error()))
		t.hexDump(indent, code)
	}
}

func (t *textWriter) instruction(indent int, in *bytecode.Instruction) {
	mnemonic := in.Opcode.String()
	if in.Wide {
		mnemonic += "_w"
	}
	var operands, comment string
	switch {
	case in.Switch != nil:
		t.switchTable(indent, in)
		return
	case in.HasPoolIndex():
		operands = fmt.Sprintf("#%d", in.Index)
		switch in.Opcode {
		case bytecode.OpInvokeinterface, bytecode.OpMultianewarray:
			operands += fmt.Sprintf(",  %d", in.Count)
		case bytecode.OpInvokedynamic:
			operands += ",  0"
		}
		comment = operandComment(t.cp, in.Index)
	case in.Opcode == bytecode.OpIinc:
		operands = fmt.Sprintf("%d, %d", in.Index, in.Const)
	case in.Opcode == bytecode.OpBipush, in.Opcode == bytecode.OpSipush:
		operands = strconv.Itoa(int(in.Const))
	case in.Opcode == bytecode.OpNewarray:
		operands = bytecode.ArrayType(in.Count)
		if operands == "" {
			operands = invalidColor.Sprintf("%d", in.Count)
		}
	case isBranch(in.Opcode):
		operands = strconv.Itoa(in.Target)
	case in.Length > 1:
		operands = strconv.Itoa(int(in.Index))
	}

	switch {
	case comment != "":
		t.line(indent, "%4d: %-13s %-18s %s", in.PC, mnemonic, operands, comment)
	case operands != "":
		t.line(indent, "%4d: %-13s %s", in.PC, mnemonic, operands)
	default:
		t.line(indent, "%4d: %s", in.PC, mnemonic)
	}
}

func isBranch(op bytecode.Opcode) bool {
	switch {
	case op >= bytecode.OpIfeq && op <= bytecode.OpJsr,
		op == bytecode.OpIfnull, op == bytecode.OpIfnonnull,
		op == bytecode.OpGotoW, op == bytecode.OpJsrW:
		return true
	}
	return false
}

func (t *textWriter) switchTable(indent int, in *bytecode.Instruction) {
	sw := in.Switch
	if in.Opcode == bytecode.OpTableswitch {
		low, high := int32(0), int32(-1)
		if len(sw.Keys) > 0 {
			low, high = sw.Keys[0], sw.Keys[len(sw.Keys)-1]
		}
		t.line(indent, "%4d: %-13s { // %d to %d", in.PC, in.Opcode, low, high)
	} else {
		t.line(indent, "%4d: %-13s { // %d", in.PC, in.Opcode, len(sw.Keys))
	}
	for i, k := range sw.Keys {
		t.line(indent, "%24d: %d", k, sw.Targets[i])
	}
	t.line(indent, "%24s: %d", "default", sw.Default)
	t.line(indent, "%6s}", "")
}

// operandComment renders a pool operand the way javap comments it:
// "// Method java/io/PrintStream.println:(Ljava/lang/String;)V".
func operandComment(cp classfile.ConstantPool, idx uint16) string {
	e, err := cp.Resolve(idx)
	if err != nil {
		return invalidColor.Sprint(invalid(idx))
	}
	var kind string
	switch e.(type) {
	case *classfile.ConstantFieldref:
		kind = "Field"
	case *classfile.ConstantMethodref:
		kind = "Method"
	case *classfile.ConstantInterfaceMethodref:
		kind = "InterfaceMethod"
	case *classfile.ConstantClass:
		kind = "class"
	case *classfile.ConstantString:
		kind = "String"
	case *classfile.ConstantInteger:
		kind = "int"
	case *classfile.ConstantFloat:
		kind = "float"
	case *classfile.ConstantLong:
		kind = "long"
	case *classfile.ConstantDouble:
		kind = "double"
	default:
		kind = e.Tag().String()
	}
	return commentColor.Sprintf("// %s %s", kind, entryValue(cp, idx))
}
