package cpu

const (
	MEMORY_SIZE = 0x10000 // Full 16-bit address space.
	ORIGIN      = 0xE000  // Program load address.
)

// Memory is the flat byte-addressable store of the CPU.
// Indexing by uint16 keeps every access inside the buffer.
type Memory [MEMORY_SIZE]uint8

// Read returns the byte at addr.
func (mem *Memory) Read(addr uint16) uint8 {
	return mem[addr]
}

// Read16 returns the big-endian word at addr. The low byte is read
// from addr+1, wrapping to 0x0000 after 0xFFFF.
func (mem *Memory) Read16(addr uint16) uint16 {
	hi := uint16(mem.Read(addr))
	lo := uint16(mem.Read(addr + 1))
	return (hi << 8) | lo
}

// Write stores value at addr.
func (mem *Memory) Write(addr uint16, value uint8) {
	mem[addr] = value
}

// Reset clears the memory.
func (mem *Memory) Reset() {
	clear(mem[:])
}
