// Package io provides program image sources for the 68HC11 emulator.
// It includes a memory-mapped binary file (Rom) and a sequential byte
// stream (Tape) that also carries the instruction trace output.
package io

// Source defines the interface for anything that supplies a program image
// to be loaded at the CPU origin.
type Source interface {
	// Image returns the program bytes.
	Image() ([]byte, error)
}
