package cpu

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgram(t *testing.T) {
	assert := assert.New(t)

	program := []string{
		"ldaa #$A0",
		"; comment",
		"adda #$C7",
		"wai",
	}

	asm := &Assembler{}
	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal([]uint8{0x86, 0xa0, 0x8b, 0xc7, 0x3e}, prog.Binary())

	image, err := prog.Image()
	assert.NoError(err)
	assert.Equal(prog.Binary(), image)

	dbg := prog.Debug(0xe003)
	assert.NotNil(dbg.Opcode)
	assert.Equal(3, dbg.LineNo)
	assert.Equal(1, dbg.Index)

	dbg = prog.Debug(0xe005)
	assert.Nil(dbg.Opcode)

	var addrs []uint16
	for addr := range prog.Bytes() {
		addrs = append(addrs, addr)
		if addr == 0xe002 {
			break
		}
	}
	assert.Equal([]uint16{0xe000, 0xe001, 0xe002}, addrs)

	cpu := NewCpu()
	assert.NoError(cpu.LoadAndRun(image))
	assert.Equal(uint8(0x67), cpu.A)
	assert.Equal(FLAG_C|FLAG_V, cpu.Status)
}

func TestProgramEmpty(t *testing.T) {
	assert := assert.New(t)

	prog := &Program{}
	assert.Empty(prog.Binary())
	assert.Nil(prog.Debug(ORIGIN).Opcode)
}
