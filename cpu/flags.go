package cpu

// 68HC11 condition code register bits.
const (
	FLAG_NONE = uint8(0x00) // No flags set
	FLAG_C    = uint8(0x01) // Carry out of bit 7
	FLAG_V    = uint8(0x02) // Signed overflow
	FLAG_Z    = uint8(0x04) // Result is zero
	FLAG_N    = uint8(0x08) // Result is negative
	FLAG_I    = uint8(0x10) // I interrupt mask
	FLAG_H    = uint8(0x20) // Half carry from bit 3
	FLAG_X    = uint8(0x40) // XIRQ interrupt mask
	FLAG_S    = uint8(0x80) // Stop disable
)

// flagNames is ordered from bit 7 down to bit 0.
const flagNames = "SXHINZVC"

// Carry reports the carry out of bit 7 for r = a + m.
//
//	C = A7 & M7 | M7 & !R7 | !R7 & A7
func Carry(a, m, r uint8) bool {
	return ((a&m)|(m&^r)|(^r&a))&0x80 != 0
}

// Overflow reports two's complement overflow for r = a + m.
//
//	V = A7 & M7 & !R7 | !A7 & !M7 & R7
func Overflow(a, m, r uint8) bool {
	return ((m&a&^r)|(^m&^a&r))&0x80 != 0
}

// setFlag sets or clears the flag bits in mask.
func (cpu *Cpu) setFlag(mask uint8, on bool) {
	if on {
		cpu.Status |= mask
	} else {
		cpu.Status &^= mask
	}
}

// Flag returns true if all bits in mask are set.
func (cpu *Cpu) Flag(mask uint8) bool {
	return cpu.Status&mask == mask
}

// updateZeroNegative recomputes Z and N from a result byte.
func (cpu *Cpu) updateZeroNegative(result uint8) {
	cpu.setFlag(FLAG_Z, result == 0)
	cpu.setFlag(FLAG_N, result&0x80 != 0)
}

// flagString renders the status register as letters, '-' for clear bits.
func flagString(status uint8) string {
	out := []byte(flagNames)
	for n := range out {
		if status&(0x80>>n) == 0 {
			out[n] = '-'
		}
	}
	return string(out)
}
