// Package cpu implements the instruction core and assembler for a minimal
// 68HC11-style microcontroller.
//
// The CPU consists of an 8-bit accumulator (A), a 16-bit index register (X),
// a program counter (PC), an 8-bit condition code register, and a flat 64KiB
// memory. Only the LDAA and ADDA instructions, in immediate and direct
// addressing modes, are decoded; the halt opcodes return control to the caller.
//
// The assembler accepts Motorola-style source with labels, equates, macros,
// and compile-time expression evaluation.
package cpu
