package cpu

import (
	"errors"
	"fmt"
	"iter"
	"log"
	"maps"
)

var _cpu_defines = map[string]string{
	"ORIGIN":      fmt.Sprintf("0x%x", ORIGIN),
	"MEMORY_SIZE": fmt.Sprintf("0x%x", MEMORY_SIZE),
	"FLAG_C":      fmt.Sprintf("0x%02x", FLAG_C),
	"FLAG_V":      fmt.Sprintf("0x%02x", FLAG_V),
	"FLAG_Z":      fmt.Sprintf("0x%02x", FLAG_Z),
	"FLAG_N":      fmt.Sprintf("0x%02x", FLAG_N),
	"FLAG_I":      fmt.Sprintf("0x%02x", FLAG_I),
	"FLAG_H":      fmt.Sprintf("0x%02x", FLAG_H),
	"FLAG_X":      fmt.Sprintf("0x%02x", FLAG_X),
	"FLAG_S":      fmt.Sprintf("0x%02x", FLAG_S),
}

// Cpu is the simulation context for the 68HC11-style core.
type Cpu struct {
	Verbose bool // Set to enable verbose logging.

	A      uint8  // Accumulator.
	X      uint16 // Index register.
	Status uint8  // Condition code register.
	Pc     uint16 // Program counter.

	Ticks int // Instructions executed since reset.

	memory Memory
}

// NewCpu creates a new CPU with all state zeroed.
func NewCpu() (cpu *Cpu) {
	cpu = &Cpu{}

	return
}

// Defines for the cpu
func (cpu *Cpu) Defines() iter.Seq2[string, string] {
	return maps.All(_cpu_defines)
}

// String returns the current CPU state as a string.
func (cpu *Cpu) String() (text string) {
	regs := []string{"pc", "a", "x", "ccr", "ticks"}
	for _, reg := range regs {
		var strval string
		switch reg {
		case "pc":
			strval = fmt.Sprintf("%04X", cpu.Pc)
		case "a":
			strval = fmt.Sprintf("%02X", cpu.A)
		case "x":
			strval = fmt.Sprintf("%04X", cpu.X)
		case "ccr":
			strval = fmt.Sprintf("%02X %v", cpu.Status, flagString(cpu.Status))
		case "ticks":
			strval = fmt.Sprintf("%d", cpu.Ticks)
		}
		text += fmt.Sprintf("% 5s: %v\n", reg, strval)
	}

	return
}

// Read returns the memory byte at addr.
func (cpu *Cpu) Read(addr uint16) uint8 {
	return cpu.memory.Read(addr)
}

// Read16 returns the big-endian memory word at addr.
func (cpu *Cpu) Read16(addr uint16) uint16 {
	return cpu.memory.Read16(addr)
}

// Write stores a byte into memory.
func (cpu *Cpu) Write(addr uint16, value uint8) {
	cpu.memory.Write(addr, value)
}

// Clear zeroes all of memory.
func (cpu *Cpu) Clear() {
	cpu.memory.Reset()
}

// Load copies a program into memory at ORIGIN, and sets the PC to ORIGIN.
func (cpu *Cpu) Load(program []byte) (err error) {
	if len(program) > MEMORY_SIZE-ORIGIN {
		err = ErrProgramSize
		return
	}

	copy(cpu.memory[ORIGIN:], program)
	cpu.Pc = ORIGIN

	if cpu.Verbose {
		log.Printf("cpu: loaded %d bytes at 0x%04x", len(program), ORIGIN)
	}

	return
}

// Reset the CPU state.
// - Clears the accumulator and condition codes.
// - Zeros the tick counter.
// - Sets the PC to ORIGIN.
// Memory and the index register are preserved.
func (cpu *Cpu) Reset() {
	if cpu.Verbose {
		log.Printf("cpu: reset")
	}

	cpu.A = 0
	cpu.Status = 0
	cpu.Ticks = 0
	cpu.Pc = ORIGIN
}

// LoadAndRun loads the program, and runs until halted.
func (cpu *Cpu) LoadAndRun(program []byte) (err error) {
	err = cpu.Load(program)
	if err != nil {
		return
	}

	return cpu.Run()
}

// Run executes instructions until a halt opcode, or an error.
func (cpu *Cpu) Run() (err error) {
	for {
		err = cpu.Tick()
		if errors.Is(err, ErrHalt) {
			return nil
		}
		if err != nil {
			return
		}
	}
}

// Tick executes a single instruction.
// Returns ErrHalt after executing a halt opcode.
func (cpu *Cpu) Tick() (err error) {
	ip := cpu.Pc

	code := cpu.memory.Read(cpu.Pc)
	cpu.Pc++

	ins, ok := Decode(code)
	if !ok {
		err = ErrOpcodeUnknown(code)
		return
	}

	if cpu.Verbose {
		log.Printf("%04x: %v", ip, ins)
	}

	err = cpu.Execute(ins)
	if err != nil {
		return
	}

	cpu.Ticks++

	if ins.Op == OP_HALT {
		err = ErrHalt
	}

	return
}

// Execute executes a single decoded instruction. The PC must point
// to the first operand byte.
func (cpu *Cpu) Execute(ins Instruction) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("%v: %w", ins, err)
		}
	}()

	switch ins.Op {
	case OP_HALT:
		return
	case OP_LDA:
		err = cpu.lda(ins.Mode)
	case OP_ADD:
		err = cpu.add(ins.Mode)
	default:
		err = ErrOpcodeUnknown(ins.Code)
	}
	if err != nil {
		return
	}

	// Step past the operand. Indexed mode has already consumed
	// its extra byte in OperandAddress.
	if ins.Mode != MODE_NONE {
		cpu.Pc++
	}

	return
}

// OperandAddress resolves the effective address for an addressing mode,
// based on the operand at the PC.
func (cpu *Cpu) OperandAddress(mode Mode) (addr uint16, err error) {
	switch mode {
	case MODE_IMMEDIATE:
		addr = cpu.Pc
	case MODE_DIRECT:
		addr = uint16(cpu.memory.Read(cpu.Pc))
	case MODE_RELATIVE:
		addr = cpu.Pc + uint16(cpu.memory.Read(cpu.Pc))
	case MODE_INDEX_X:
		offset := cpu.memory.Read16(cpu.Pc)
		cpu.Pc++
		addr = cpu.X + offset
	default:
		err = fmt.Errorf("%w: %v", ErrAddressingInvalid, mode)
	}

	return
}

// lda loads the accumulator from memory.
func (cpu *Cpu) lda(mode Mode) (err error) {
	addr, err := cpu.OperandAddress(mode)
	if err != nil {
		return
	}

	value := cpu.memory.Read(addr)

	cpu.A = value
	cpu.updateZeroNegative(value)
	cpu.setFlag(FLAG_V, false)

	return
}

// add adds a memory operand to the accumulator.
func (cpu *Cpu) add(mode Mode) (err error) {
	addr, err := cpu.OperandAddress(mode)
	if err != nil {
		return
	}

	operand := cpu.memory.Read(addr)
	result := cpu.A + operand

	cpu.setFlag(FLAG_C, Carry(cpu.A, operand, result))
	cpu.setFlag(FLAG_V, Overflow(cpu.A, operand, result))
	cpu.updateZeroNegative(result)
	cpu.A = result

	return
}
