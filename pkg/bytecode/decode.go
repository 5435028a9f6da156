// Package bytecode decodes the instruction stream of a Code attribute.
// It reads instructions; it does not verify or execute them.
package bytecode

import (
	"errors"
	"fmt"
)

var (
	ErrTruncated     = errors.New("truncated instruction")
	ErrUnknownOpcode = errors.New("unknown opcode")
	ErrBadSwitch     = errors.New("malformed switch")
	ErrBadWide       = errors.New("wide applied to invalid opcode")
)

// Instruction is one decoded instruction. Which operand fields are set
// depends on the opcode.
type Instruction struct {
	PC     int
	Opcode Opcode
	Length int

	// Wide is set when the instruction was prefixed by wide. Opcode is the
	// modified instruction.
	Wide bool
	// Index is a constant pool index or a local variable index.
	Index uint16
	// Const is the bipush/sipush immediate or the iinc delta.
	Const int32
	// Count is the invokeinterface count, the multianewarray dimensions or
	// the newarray element type.
	Count uint8
	// Target is the absolute branch target.
	Target int
	Switch *Switch
}

// Switch holds the operands of tableswitch and lookupswitch. For
// tableswitch Keys runs from Low to High.
type Switch struct {
	Default int
	Keys    []int32
	Targets []int
}

// HasPoolIndex reports whether Index refers to the constant pool.
func (in *Instruction) HasPoolIndex() bool {
	switch opcodes[in.Opcode].kind {
	case kindPool1, kindPool, kindInterface, kindDynamic, kindMultiANewArray:
		return true
	}
	return false
}

// Array element types of newarray.
var arrayTypes = map[uint8]string{
	4: "boolean", 5: "char", 6: "float", 7: "double",
	8: "byte", 9: "short", 10: "int", 11: "long",
}

// ArrayType names the newarray element type, or "" if unknown.
func ArrayType(t uint8) string { return arrayTypes[t] }

type reader struct {
	code []byte
	pc   int
	err  error
}

func (r *reader) need(n int) bool {
	if r.err != nil {
		return false
	}
	if r.pc+n > len(r.code) {
		r.err = ErrTruncated
		return false
	}
	return true
}

func (r *reader) u1() uint8 {
	if !r.need(1) {
		return 0
	}
	v := r.code[r.pc]
	r.pc++
	return v
}

func (r *reader) s1() int8 { return int8(r.u1()) }

func (r *reader) u2() uint16 {
	if !r.need(2) {
		return 0
	}
	v := uint16(r.code[r.pc])<<8 | uint16(r.code[r.pc+1])
	r.pc += 2
	return v
}

func (r *reader) s2() int16 { return int16(r.u2()) }

func (r *reader) s4() int32 {
	if !r.need(4) {
		return 0
	}
	v := uint32(r.code[r.pc])<<24 | uint32(r.code[r.pc+1])<<16 | uint32(r.code[r.pc+2])<<8 | uint32(r.code[r.pc+3])
	r.pc += 4
	return int32(v)
}

// Decode decodes every instruction in code. Switch padding is measured
// from the start of code, which must therefore be a whole Code array.
func Decode(code []byte) ([]Instruction, error) {
	var out []Instruction
	r := &reader{code: code}
	for r.pc < len(code) {
		in, err := decodeOne(r)
		if err != nil {
			return out, fmt.Errorf("bytecode: pc %d: %w", in.PC, err)
		}
		out = append(out, in)
	}
	return out, nil
}

func decodeOne(r *reader) (Instruction, error) {
	in := Instruction{PC: r.pc}
	op := Opcode(r.u1())
	in.Opcode = op
	if !op.Valid() {
		return in, fmt.Errorf("%w 0x%02x", ErrUnknownOpcode, uint8(op))
	}

	switch opcodes[op].kind {
	case kindNone:
	case kindLocal:
		in.Index = uint16(r.u1())
	case kindByte:
		in.Const = int32(r.s1())
	case kindShort:
		in.Const = int32(r.s2())
	case kindPool1:
		in.Index = uint16(r.u1())
	case kindPool:
		in.Index = r.u2()
	case kindIinc:
		in.Index = uint16(r.u1())
		in.Const = int32(r.s1())
	case kindBranch:
		in.Target = in.PC + int(r.s2())
	case kindBranchWide:
		in.Target = in.PC + int(r.s4())
	case kindTableSwitch:
		if err := tableSwitch(r, &in); err != nil {
			return in, err
		}
	case kindLookupSwitch:
		if err := lookupSwitch(r, &in); err != nil {
			return in, err
		}
	case kindInterface:
		in.Index = r.u2()
		in.Count = r.u1()
		r.u1()
	case kindDynamic:
		in.Index = r.u2()
		r.u2()
	case kindNewArray:
		in.Count = r.u1()
	case kindMultiANewArray:
		in.Index = r.u2()
		in.Count = r.u1()
	case kindWide:
		in.Wide = true
		in.Opcode = Opcode(r.u1())
		switch opcodes[in.Opcode].kind {
		case kindLocal:
			in.Index = r.u2()
		case kindIinc:
			in.Index = r.u2()
			in.Const = int32(r.s2())
		default:
			if r.err == nil {
				return in, fmt.Errorf("%w %s", ErrBadWide, in.Opcode)
			}
		}
	}
	if r.err != nil {
		return in, r.err
	}
	in.Length = r.pc - in.PC
	return in, nil
}

// align skips the 0-3 padding bytes that follow a switch opcode.
func align(r *reader) {
	for r.pc%4 != 0 && r.err == nil {
		r.u1()
	}
}

func tableSwitch(r *reader, in *Instruction) error {
	align(r)
	def := r.s4()
	low := r.s4()
	high := r.s4()
	if r.err != nil {
		return r.err
	}
	if high < low {
		return fmt.Errorf("%w: tableswitch low %d > high %d", ErrBadSwitch, low, high)
	}
	n := int64(high) - int64(low) + 1
	if n*4 > int64(len(r.code)-r.pc) {
		return ErrTruncated
	}
	sw := &Switch{Default: in.PC + int(def)}
	for i := int64(0); i < n; i++ {
		sw.Keys = append(sw.Keys, low+int32(i))
		sw.Targets = append(sw.Targets, in.PC+int(r.s4()))
	}
	in.Switch = sw
	return r.err
}

func lookupSwitch(r *reader, in *Instruction) error {
	align(r)
	def := r.s4()
	npairs := r.s4()
	if r.err != nil {
		return r.err
	}
	if npairs < 0 {
		return fmt.Errorf("%w: lookupswitch npairs %d", ErrBadSwitch, npairs)
	}
	if int64(npairs)*8 > int64(len(r.code)-r.pc) {
		return ErrTruncated
	}
	sw := &Switch{Default: in.PC + int(def)}
	for i := int32(0); i < npairs; i++ {
		sw.Keys = append(sw.Keys, r.s4())
		sw.Targets = append(sw.Targets, in.PC+int(r.s4()))
	}
	in.Switch = sw
	return r.err
}
