package cpu

import (
	"fmt"
)

// Mode is an addressing mode.
type Mode int

//go:generate go tool stringer -linecomment -type=Mode
const (
	MODE_NONE      = Mode(0) // none
	MODE_IMMEDIATE = Mode(1) // imm
	MODE_DIRECT    = Mode(2) // dir
	MODE_RELATIVE  = Mode(3) // rel
	MODE_INDEX_X   = Mode(4) // ind,x
)

// CodeOp is an instruction operation.
type CodeOp int

//go:generate go tool stringer -linecomment -type=CodeOp
const (
	OP_HALT = CodeOp(0) // halt
	OP_LDA  = CodeOp(1) // ldaa
	OP_ADD  = CodeOp(2) // adda
)

// Instruction is a decoded opcode byte.
type Instruction struct {
	Code     uint8  // Opcode byte.
	Op       CodeOp // Operation.
	Mode     Mode   // Addressing mode.
	Operands int    // Operand bytes following the opcode.
}

// String returns the instruction name and addressing mode.
func (ins Instruction) String() string {
	if ins.Mode == MODE_NONE {
		return ins.Op.String()
	}
	return fmt.Sprintf("%v.%v", ins.Op, ins.Mode)
}

// opcodeTable is ordered so that Encode prefers the first entry.
var opcodeTable = []Instruction{
	{0x86, OP_LDA, MODE_IMMEDIATE, 1},
	{0x96, OP_LDA, MODE_DIRECT, 1},
	{0x8B, OP_ADD, MODE_IMMEDIATE, 1},
	{0x9B, OP_ADD, MODE_DIRECT, 1},
	{0x3E, OP_HALT, MODE_NONE, 0}, // WAI
	{0x00, OP_HALT, MODE_NONE, 0}, // TEST
}

var decodeTable = func() (table [256]*Instruction) {
	for n := range opcodeTable {
		ins := &opcodeTable[n]
		table[ins.Code] = ins
	}
	return
}()

// Decode maps an opcode byte to its instruction.
func Decode(code uint8) (ins Instruction, ok bool) {
	entry := decodeTable[code]
	if entry == nil {
		return
	}

	return *entry, true
}

// Encode returns the opcode byte for an operation and addressing mode.
func Encode(op CodeOp, mode Mode) (code uint8, ok bool) {
	for _, ins := range opcodeTable {
		if ins.Op == op && ins.Mode == mode {
			return ins.Code, true
		}
	}

	return
}
