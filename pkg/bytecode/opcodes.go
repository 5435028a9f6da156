package bytecode

import "fmt"

// Opcode is a JVM instruction opcode.
type Opcode uint8

// Opcodes
const (
	OpNop             Opcode = 0x00
	OpAconstNull      Opcode = 0x01
	OpIconstM1        Opcode = 0x02
	OpIconst0         Opcode = 0x03
	OpIconst1         Opcode = 0x04
	OpIconst2         Opcode = 0x05
	OpIconst3         Opcode = 0x06
	OpIconst4         Opcode = 0x07
	OpIconst5         Opcode = 0x08
	OpLconst0         Opcode = 0x09
	OpLconst1         Opcode = 0x0A
	OpFconst0         Opcode = 0x0B
	OpFconst1         Opcode = 0x0C
	OpFconst2         Opcode = 0x0D
	OpDconst0         Opcode = 0x0E
	OpDconst1         Opcode = 0x0F
	OpBipush          Opcode = 0x10
	OpSipush          Opcode = 0x11
	OpLdc             Opcode = 0x12
	OpLdcW            Opcode = 0x13
	OpLdc2W           Opcode = 0x14
	OpIload           Opcode = 0x15
	OpLload           Opcode = 0x16
	OpFload           Opcode = 0x17
	OpDload           Opcode = 0x18
	OpAload           Opcode = 0x19
	OpIload0          Opcode = 0x1A
	OpIload1          Opcode = 0x1B
	OpIload2          Opcode = 0x1C
	OpIload3          Opcode = 0x1D
	OpLload0          Opcode = 0x1E
	OpLload1          Opcode = 0x1F
	OpLload2          Opcode = 0x20
	OpLload3          Opcode = 0x21
	OpFload0          Opcode = 0x22
	OpFload1          Opcode = 0x23
	OpFload2          Opcode = 0x24
	OpFload3          Opcode = 0x25
	OpDload0          Opcode = 0x26
	OpDload1          Opcode = 0x27
	OpDload2          Opcode = 0x28
	OpDload3          Opcode = 0x29
	OpAload0          Opcode = 0x2A
	OpAload1          Opcode = 0x2B
	OpAload2          Opcode = 0x2C
	OpAload3          Opcode = 0x2D
	OpIaload          Opcode = 0x2E
	OpLaload          Opcode = 0x2F
	OpFaload          Opcode = 0x30
	OpDaload          Opcode = 0x31
	OpAaload          Opcode = 0x32
	OpBaload          Opcode = 0x33
	OpCaload          Opcode = 0x34
	OpSaload          Opcode = 0x35
	OpIstore          Opcode = 0x36
	OpLstore          Opcode = 0x37
	OpFstore          Opcode = 0x38
	OpDstore          Opcode = 0x39
	OpAstore          Opcode = 0x3A
	OpIstore0         Opcode = 0x3B
	OpIstore1         Opcode = 0x3C
	OpIstore2         Opcode = 0x3D
	OpIstore3         Opcode = 0x3E
	OpLstore0         Opcode = 0x3F
	OpLstore1         Opcode = 0x40
	OpLstore2         Opcode = 0x41
	OpLstore3         Opcode = 0x42
	OpFstore0         Opcode = 0x43
	OpFstore1         Opcode = 0x44
	OpFstore2         Opcode = 0x45
	OpFstore3         Opcode = 0x46
	OpDstore0         Opcode = 0x47
	OpDstore1         Opcode = 0x48
	OpDstore2         Opcode = 0x49
	OpDstore3         Opcode = 0x4A
	OpAstore0         Opcode = 0x4B
	OpAstore1         Opcode = 0x4C
	OpAstore2         Opcode = 0x4D
	OpAstore3         Opcode = 0x4E
	OpIastore         Opcode = 0x4F
	OpLastore         Opcode = 0x50
	OpFastore         Opcode = 0x51
	OpDastore         Opcode = 0x52
	OpAastore         Opcode = 0x53
	OpBastore         Opcode = 0x54
	OpCastore         Opcode = 0x55
	OpSastore         Opcode = 0x56
	OpPop             Opcode = 0x57
	OpPop2            Opcode = 0x58
	OpDup             Opcode = 0x59
	OpDupX1           Opcode = 0x5A
	OpDupX2           Opcode = 0x5B
	OpDup2            Opcode = 0x5C
	OpDup2X1          Opcode = 0x5D
	OpDup2X2          Opcode = 0x5E
	OpSwap            Opcode = 0x5F
	OpIadd            Opcode = 0x60
	OpLadd            Opcode = 0x61
	OpFadd            Opcode = 0x62
	OpDadd            Opcode = 0x63
	OpIsub            Opcode = 0x64
	OpLsub            Opcode = 0x65
	OpFsub            Opcode = 0x66
	OpDsub            Opcode = 0x67
	OpImul            Opcode = 0x68
	OpLmul            Opcode = 0x69
	OpFmul            Opcode = 0x6A
	OpDmul            Opcode = 0x6B
	OpIdiv            Opcode = 0x6C
	OpLdiv            Opcode = 0x6D
	OpFdiv            Opcode = 0x6E
	OpDdiv            Opcode = 0x6F
	OpIrem            Opcode = 0x70
	OpLrem            Opcode = 0x71
	OpFrem            Opcode = 0x72
	OpDrem            Opcode = 0x73
	OpIneg            Opcode = 0x74
	OpLneg            Opcode = 0x75
	OpFneg            Opcode = 0x76
	OpDneg            Opcode = 0x77
	OpIshl            Opcode = 0x78
	OpLshl            Opcode = 0x79
	OpIshr            Opcode = 0x7A
	OpLshr            Opcode = 0x7B
	OpIushr           Opcode = 0x7C
	OpLushr           Opcode = 0x7D
	OpIand            Opcode = 0x7E
	OpLand            Opcode = 0x7F
	OpIor             Opcode = 0x80
	OpLor             Opcode = 0x81
	OpIxor            Opcode = 0x82
	OpLxor            Opcode = 0x83
	OpIinc            Opcode = 0x84
	OpI2l             Opcode = 0x85
	OpI2f             Opcode = 0x86
	OpI2d             Opcode = 0x87
	OpL2i             Opcode = 0x88
	OpL2f             Opcode = 0x89
	OpL2d             Opcode = 0x8A
	OpF2i             Opcode = 0x8B
	OpF2l             Opcode = 0x8C
	OpF2d             Opcode = 0x8D
	OpD2i             Opcode = 0x8E
	OpD2l             Opcode = 0x8F
	OpD2f             Opcode = 0x90
	OpI2b             Opcode = 0x91
	OpI2c             Opcode = 0x92
	OpI2s             Opcode = 0x93
	OpLcmp            Opcode = 0x94
	OpFcmpl           Opcode = 0x95
	OpFcmpg           Opcode = 0x96
	OpDcmpl           Opcode = 0x97
	OpDcmpg           Opcode = 0x98
	OpIfeq            Opcode = 0x99
	OpIfne            Opcode = 0x9A
	OpIflt            Opcode = 0x9B
	OpIfge            Opcode = 0x9C
	OpIfgt            Opcode = 0x9D
	OpIfle            Opcode = 0x9E
	OpIfIcmpeq        Opcode = 0x9F
	OpIfIcmpne        Opcode = 0xA0
	OpIfIcmplt        Opcode = 0xA1
	OpIfIcmpge        Opcode = 0xA2
	OpIfIcmpgt        Opcode = 0xA3
	OpIfIcmple        Opcode = 0xA4
	OpIfAcmpeq        Opcode = 0xA5
	OpIfAcmpne        Opcode = 0xA6
	OpGoto            Opcode = 0xA7
	OpJsr             Opcode = 0xA8
	OpRet             Opcode = 0xA9
	OpTableswitch     Opcode = 0xAA
	OpLookupswitch    Opcode = 0xAB
	OpIreturn         Opcode = 0xAC
	OpLreturn         Opcode = 0xAD
	OpFreturn         Opcode = 0xAE
	OpDreturn         Opcode = 0xAF
	OpAreturn         Opcode = 0xB0
	OpReturn          Opcode = 0xB1
	OpGetstatic       Opcode = 0xB2
	OpPutstatic       Opcode = 0xB3
	OpGetfield        Opcode = 0xB4
	OpPutfield        Opcode = 0xB5
	OpInvokevirtual   Opcode = 0xB6
	OpInvokespecial   Opcode = 0xB7
	OpInvokestatic    Opcode = 0xB8
	OpInvokeinterface Opcode = 0xB9
	OpInvokedynamic   Opcode = 0xBA
	OpNew             Opcode = 0xBB
	OpNewarray        Opcode = 0xBC
	OpAnewarray       Opcode = 0xBD
	OpArraylength     Opcode = 0xBE
	OpAthrow          Opcode = 0xBF
	OpCheckcast       Opcode = 0xC0
	OpInstanceof      Opcode = 0xC1
	OpMonitorenter    Opcode = 0xC2
	OpMonitorexit     Opcode = 0xC3
	OpWide            Opcode = 0xC4
	OpMultianewarray  Opcode = 0xC5
	OpIfnull          Opcode = 0xC6
	OpIfnonnull       Opcode = 0xC7
	OpGotoW           Opcode = 0xC8
	OpJsrW            Opcode = 0xC9
	OpBreakpoint      Opcode = 0xCA
	OpImpdep1         Opcode = 0xFE
	OpImpdep2         Opcode = 0xFF
)

type operandKind uint8

const (
	kindNone operandKind = iota
	kindLocal      // u1 local variable index
	kindByte       // s1 immediate
	kindShort      // s2 immediate
	kindPool1      // u1 constant pool index
	kindPool       // u2 constant pool index
	kindIinc       // u1 index, s1 delta
	kindBranch     // s2 offset
	kindBranchWide // s4 offset
	kindTableSwitch
	kindLookupSwitch
	kindInterface      // u2 index, u1 count, u1 zero
	kindDynamic        // u2 index, u2 zero
	kindNewArray       // u1 array type
	kindMultiANewArray // u2 index, u1 dimensions
	kindWide
)

type opcodeInfo struct {
	name string
	kind operandKind
}

var opcodes = [256]opcodeInfo{
	OpNop:             {"nop", kindNone},
	OpAconstNull:      {"aconst_null", kindNone},
	OpIconstM1:        {"iconst_m1", kindNone},
	OpIconst0:         {"iconst_0", kindNone},
	OpIconst1:         {"iconst_1", kindNone},
	OpIconst2:         {"iconst_2", kindNone},
	OpIconst3:         {"iconst_3", kindNone},
	OpIconst4:         {"iconst_4", kindNone},
	OpIconst5:         {"iconst_5", kindNone},
	OpLconst0:         {"lconst_0", kindNone},
	OpLconst1:         {"lconst_1", kindNone},
	OpFconst0:         {"fconst_0", kindNone},
	OpFconst1:         {"fconst_1", kindNone},
	OpFconst2:         {"fconst_2", kindNone},
	OpDconst0:         {"dconst_0", kindNone},
	OpDconst1:         {"dconst_1", kindNone},
	OpBipush:          {"bipush", kindByte},
	OpSipush:          {"sipush", kindShort},
	OpLdc:             {"ldc", kindPool1},
	OpLdcW:            {"ldc_w", kindPool},
	OpLdc2W:           {"ldc2_w", kindPool},
	OpIload:           {"iload", kindLocal},
	OpLload:           {"lload", kindLocal},
	OpFload:           {"fload", kindLocal},
	OpDload:           {"dload", kindLocal},
	OpAload:           {"aload", kindLocal},
	OpIload0:          {"iload_0", kindNone},
	OpIload1:          {"iload_1", kindNone},
	OpIload2:          {"iload_2", kindNone},
	OpIload3:          {"iload_3", kindNone},
	OpLload0:          {"lload_0", kindNone},
	OpLload1:          {"lload_1", kindNone},
	OpLload2:          {"lload_2", kindNone},
	OpLload3:          {"lload_3", kindNone},
	OpFload0:          {"fload_0", kindNone},
	OpFload1:          {"fload_1", kindNone},
	OpFload2:          {"fload_2", kindNone},
	OpFload3:          {"fload_3", kindNone},
	OpDload0:          {"dload_0", kindNone},
	OpDload1:          {"dload_1", kindNone},
	OpDload2:          {"dload_2", kindNone},
	OpDload3:          {"dload_3", kindNone},
	OpAload0:          {"aload_0", kindNone},
	OpAload1:          {"aload_1", kindNone},
	OpAload2:          {"aload_2", kindNone},
	OpAload3:          {"aload_3", kindNone},
	OpIaload:          {"iaload", kindNone},
	OpLaload:          {"laload", kindNone},
	OpFaload:          {"faload", kindNone},
	OpDaload:          {"daload", kindNone},
	OpAaload:          {"aaload", kindNone},
	OpBaload:          {"baload", kindNone},
	OpCaload:          {"caload", kindNone},
	OpSaload:          {"saload", kindNone},
	OpIstore:          {"istore", kindLocal},
	OpLstore:          {"lstore", kindLocal},
	OpFstore:          {"fstore", kindLocal},
	OpDstore:          {"dstore", kindLocal},
	OpAstore:          {"astore", kindLocal},
	OpIstore0:         {"istore_0", kindNone},
	OpIstore1:         {"istore_1", kindNone},
	OpIstore2:         {"istore_2", kindNone},
	OpIstore3:         {"istore_3", kindNone},
	OpLstore0:         {"lstore_0", kindNone},
	OpLstore1:         {"lstore_1", kindNone},
	OpLstore2:         {"lstore_2", kindNone},
	OpLstore3:         {"lstore_3", kindNone},
	OpFstore0:         {"fstore_0", kindNone},
	OpFstore1:         {"fstore_1", kindNone},
	OpFstore2:         {"fstore_2", kindNone},
	OpFstore3:         {"fstore_3", kindNone},
	OpDstore0:         {"dstore_0", kindNone},
	OpDstore1:         {"dstore_1", kindNone},
	OpDstore2:         {"dstore_2", kindNone},
	OpDstore3:         {"dstore_3", kindNone},
	OpAstore0:         {"astore_0", kindNone},
	OpAstore1:         {"astore_1", kindNone},
	OpAstore2:         {"astore_2", kindNone},
	OpAstore3:         {"astore_3", kindNone},
	OpIastore:         {"iastore", kindNone},
	OpLastore:         {"lastore", kindNone},
	OpFastore:         {"fastore", kindNone},
	OpDastore:         {"dastore", kindNone},
	OpAastore:         {"aastore", kindNone},
	OpBastore:         {"bastore", kindNone},
	OpCastore:         {"castore", kindNone},
	OpSastore:         {"sastore", kindNone},
	OpPop:             {"pop", kindNone},
	OpPop2:            {"pop2", kindNone},
	OpDup:             {"dup", kindNone},
	OpDupX1:           {"dup_x1", kindNone},
	OpDupX2:           {"dup_x2", kindNone},
	OpDup2:            {"dup2", kindNone},
	OpDup2X1:          {"dup2_x1", kindNone},
	OpDup2X2:          {"dup2_x2", kindNone},
	OpSwap:            {"swap", kindNone},
	OpIadd:            {"iadd", kindNone},
	OpLadd:            {"ladd", kindNone},
	OpFadd:            {"fadd", kindNone},
	OpDadd:            {"dadd", kindNone},
	OpIsub:            {"isub", kindNone},
	OpLsub:            {"lsub", kindNone},
	OpFsub:            {"fsub", kindNone},
	OpDsub:            {"dsub", kindNone},
	OpImul:            {"imul", kindNone},
	OpLmul:            {"lmul", kindNone},
	OpFmul:            {"fmul", kindNone},
	OpDmul:            {"dmul", kindNone},
	OpIdiv:            {"idiv", kindNone},
	OpLdiv:            {"ldiv", kindNone},
	OpFdiv:            {"fdiv", kindNone},
	OpDdiv:            {"ddiv", kindNone},
	OpIrem:            {"irem", kindNone},
	OpLrem:            {"lrem", kindNone},
	OpFrem:            {"frem", kindNone},
	OpDrem:            {"drem", kindNone},
	OpIneg:            {"ineg", kindNone},
	OpLneg:            {"lneg", kindNone},
	OpFneg:            {"fneg", kindNone},
	OpDneg:            {"dneg", kindNone},
	OpIshl:            {"ishl", kindNone},
	OpLshl:            {"lshl", kindNone},
	OpIshr:            {"ishr", kindNone},
	OpLshr:            {"lshr", kindNone},
	OpIushr:           {"iushr", kindNone},
	OpLushr:           {"lushr", kindNone},
	OpIand:            {"iand", kindNone},
	OpLand:            {"land", kindNone},
	OpIor:             {"ior", kindNone},
	OpLor:             {"lor", kindNone},
	OpIxor:            {"ixor", kindNone},
	OpLxor:            {"lxor", kindNone},
	OpIinc:            {"iinc", kindIinc},
	OpI2l:             {"i2l", kindNone},
	OpI2f:             {"i2f", kindNone},
	OpI2d:             {"i2d", kindNone},
	OpL2i:             {"l2i", kindNone},
	OpL2f:             {"l2f", kindNone},
	OpL2d:             {"l2d", kindNone},
	OpF2i:             {"f2i", kindNone},
	OpF2l:             {"f2l", kindNone},
	OpF2d:             {"f2d", kindNone},
	OpD2i:             {"d2i", kindNone},
	OpD2l:             {"d2l", kindNone},
	OpD2f:             {"d2f", kindNone},
	OpI2b:             {"i2b", kindNone},
	OpI2c:             {"i2c", kindNone},
	OpI2s:             {"i2s", kindNone},
	OpLcmp:            {"lcmp", kindNone},
	OpFcmpl:           {"fcmpl", kindNone},
	OpFcmpg:           {"fcmpg", kindNone},
	OpDcmpl:           {"dcmpl", kindNone},
	OpDcmpg:           {"dcmpg", kindNone},
	OpIfeq:            {"ifeq", kindBranch},
	OpIfne:            {"ifne", kindBranch},
	OpIflt:            {"iflt", kindBranch},
	OpIfge:            {"ifge", kindBranch},
	OpIfgt:            {"ifgt", kindBranch},
	OpIfle:            {"ifle", kindBranch},
	OpIfIcmpeq:        {"if_icmpeq", kindBranch},
	OpIfIcmpne:        {"if_icmpne", kindBranch},
	OpIfIcmplt:        {"if_icmplt", kindBranch},
	OpIfIcmpge:        {"if_icmpge", kindBranch},
	OpIfIcmpgt:        {"if_icmpgt", kindBranch},
	OpIfIcmple:        {"if_icmple", kindBranch},
	OpIfAcmpeq:        {"if_acmpeq", kindBranch},
	OpIfAcmpne:        {"if_acmpne", kindBranch},
	OpGoto:            {"goto", kindBranch},
	OpJsr:             {"jsr", kindBranch},
	OpRet:             {"ret", kindLocal},
	OpTableswitch:     {"tableswitch", kindTableSwitch},
	OpLookupswitch:    {"lookupswitch", kindLookupSwitch},
	OpIreturn:         {"ireturn", kindNone},
	OpLreturn:         {"lreturn", kindNone},
	OpFreturn:         {"freturn", kindNone},
	OpDreturn:         {"dreturn", kindNone},
	OpAreturn:         {"areturn", kindNone},
	OpReturn:          {"return", kindNone},
	OpGetstatic:       {"getstatic", kindPool},
	OpPutstatic:       {"putstatic", kindPool},
	OpGetfield:        {"getfield", kindPool},
	OpPutfield:        {"putfield", kindPool},
	OpInvokevirtual:   {"invokevirtual", kindPool},
	OpInvokespecial:   {"invokespecial", kindPool},
	OpInvokestatic:    {"invokestatic", kindPool},
	OpInvokeinterface: {"invokeinterface", kindInterface},
	OpInvokedynamic:   {"invokedynamic", kindDynamic},
	OpNew:             {"new", kindPool},
	OpNewarray:        {"newarray", kindNewArray},
	OpAnewarray:       {"anewarray", kindPool},
	OpArraylength:     {"arraylength", kindNone},
	OpAthrow:          {"athrow", kindNone},
	OpCheckcast:       {"checkcast", kindPool},
	OpInstanceof:      {"instanceof", kindPool},
	OpMonitorenter:    {"monitorenter", kindNone},
	OpMonitorexit:     {"monitorexit", kindNone},
	OpWide:            {"wide", kindWide},
	OpMultianewarray:  {"multianewarray", kindMultiANewArray},
	OpIfnull:          {"ifnull", kindBranch},
	OpIfnonnull:       {"ifnonnull", kindBranch},
	OpGotoW:           {"goto_w", kindBranchWide},
	OpJsrW:            {"jsr_w", kindBranchWide},
	OpBreakpoint:      {"breakpoint", kindNone},
	OpImpdep1:         {"impdep1", kindNone},
	OpImpdep2:         {"impdep2", kindNone},
}

// String returns the mnemonic, or "opcode_0xNN" for reserved values.
func (o Opcode) String() string {
	if n := opcodes[o].name; n != "" {
		return n
	}
	return fmt.Sprintf("opcode_0x%02x", uint8(o))
}

// Valid reports whether o is an assigned opcode.
func (o Opcode) Valid() bool { return opcodes[o].name != "" }
