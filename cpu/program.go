package cpu

import (
	"iter"
)

// Link is a forward reference to a label, patched after assembly.
type Link struct {
	Offset int    // Byte offset of the big-endian word in the opcode.
	Label  string // Label to resolve.
}

// Opcode represents a line of assembled code with its source location and generated bytes.
type Opcode struct {
	LineNo int
	Addr   int
	Words  []string
	Bytes  []uint8
	Links  []Link
}

type Program struct {
	Opcodes []Opcode
}

type Debug struct {
	*Opcode
	Index int
}

// Debug finds the opcode that generated the byte at addr.
func (prog *Program) Debug(addr uint16) (dbg Debug) {
	for n, op := range prog.Opcodes {
		if int(addr) >= op.Addr && int(addr) < op.Addr+len(op.Bytes) {
			dbg = Debug{
				Opcode: &prog.Opcodes[n],
				Index:  int(addr) - op.Addr,
			}
			break
		}
	}

	return
}

// Binary returns the program image, to be loaded at ORIGIN.
func (prog *Program) Binary() (bins []uint8) {
	for _, data := range prog.Bytes() {
		bins = append(bins, data)
	}

	return
}

// Image returns the program image.
func (prog *Program) Image() ([]uint8, error) {
	return prog.Binary(), nil
}

// Bytes iterates over the address and value of every assembled byte.
func (prog *Program) Bytes() iter.Seq2[uint16, uint8] {
	return func(yield func(addr uint16, data uint8) bool) {
		for _, op := range prog.Opcodes {
			addr := uint16(op.Addr)
			for n, data := range op.Bytes {
				if !yield(addr+uint16(n), data) {
					return
				}
			}
		}
	}
}
