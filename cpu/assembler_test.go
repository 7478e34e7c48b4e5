package cpu

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssembler(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	prog, err := asm.Parse(strings.NewReader(""))
	assert.NoError(err)
	assert.Equal(0, len(prog.Opcodes))

	assert.Equal("0", asm.Equate["LINENO"])
	assert.Equal("0xe000", asm.Equate["ORIGIN"])
	assert.Equal("0x01", asm.Equate["FLAG_C"])
	assert.Equal("0x08", asm.Equate["FLAG_N"])
}

func opEqual(t *testing.T, expected, opcodes []Opcode) {
	assert := assert.New(t)

	assert.Equal(len(expected), len(opcodes))
	if len(expected) == len(opcodes) {
		for n := range len(expected) {
			assert.Equal(expected[n], opcodes[n])
		}
	}
}

func TestAssemblerInstructions(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	program := []string{
		"ldaa #$FE    ; load",
		"\tADDA #245",
		"lda $20",
		"add %00100001",
		"ldaa #-1",
		"adda #'Z'",
		"test",
		"wai",
	}

	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)
	if err != nil {
		t.Fatal(err)
		return
	}

	expected := []Opcode{
		{1, 0xe000, []string{"ldaa", "#$FE"}, []uint8{0x86, 0xfe}, nil},
		{2, 0xe002, []string{"ADDA", "#245"}, []uint8{0x8b, 0xf5}, nil},
		{3, 0xe004, []string{"lda", "$20"}, []uint8{0x96, 0x20}, nil},
		{4, 0xe006, []string{"add", "%00100001"}, []uint8{0x9b, 0x21}, nil},
		{5, 0xe008, []string{"ldaa", "#-1"}, []uint8{0x86, 0xff}, nil},
		{6, 0xe00a, []string{"adda", "#90"}, []uint8{0x8b, 0x5a}, nil},
		{7, 0xe00c, []string{"test"}, []uint8{0x00}, nil},
		{8, 0xe00d, []string{"wai"}, []uint8{0x3e}, nil},
	}

	opEqual(t, expected, prog.Opcodes)
}

func TestAssemblerData(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	program := []string{
		"start: .byte 1,2 3",
		"fcb $ff",
		".word start,next",
		"fdb -2",
		"next: wai",
	}

	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)
	if err != nil {
		t.Fatal(err)
		return
	}

	expected := []Opcode{
		{1, 0xe000, []string{".byte", "1,2", "3"}, []uint8{1, 2, 3}, nil},
		{2, 0xe003, []string{"fcb", "$ff"}, []uint8{0xff}, nil},
		{3, 0xe004, []string{".word", "start,next"}, []uint8{0xe0, 0x00, 0xe0, 0x0a}, []Link{{2, "next"}}},
		{4, 0xe008, []string{"fdb", "-2"}, []uint8{0xff, 0xfe}, nil},
		{5, 0xe00a, []string{"wai"}, []uint8{0x3e}, nil},
	}

	opEqual(t, expected, prog.Opcodes)

	assert.Equal(0xe000, asm.Label["start"])
	assert.Equal(0xe00a, asm.Label["next"])
}

func TestAssemblerEqu(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	asm.Predefine("SCRATCH", "$40")

	program := []string{
		".equ TEN 10",
		"ldaa #TEN",
		"adda SCRATCH",
		".equ TWENTY $(TEN * 2)",
		"adda #$(TWENTY + LINENO)",
		"adda #$(FLAG_N | FLAG_V)",
	}

	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)
	if err != nil {
		t.Fatal(err)
		return
	}

	expected := []Opcode{
		{2, 0xe000, []string{"ldaa", "#10"}, []uint8{0x86, 10}, nil},
		{3, 0xe002, []string{"adda", "$40"}, []uint8{0x9b, 0x40}, nil},
		{5, 0xe004, []string{"adda", "#25"}, []uint8{0x8b, 25}, nil},
		{6, 0xe006, []string{"adda", "#10"}, []uint8{0x8b, 0x0a}, nil},
	}

	opEqual(t, expected, prog.Opcodes)
}

func TestAssemblerMacro(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	program := []string{
		".macro SUM2 a b",
		"@here: ldaa #a",
		"adda #b",
		".endm",
		"SUM2 1 2",
		"SUM2 3 $(1 + 3)",
		"wai",
	}

	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(err)
	if err != nil {
		t.Fatal(err)
		return
	}

	expected := []Opcode{
		{2, 0xe000, []string{"ldaa", "#1"}, []uint8{0x86, 1}, nil},
		{3, 0xe002, []string{"adda", "#2"}, []uint8{0x8b, 2}, nil},
		{2, 0xe004, []string{"ldaa", "#3"}, []uint8{0x86, 3}, nil},
		{3, 0xe006, []string{"adda", "#4"}, []uint8{0x8b, 4}, nil},
		{7, 0xe008, []string{"wai"}, []uint8{0x3e}, nil},
	}

	opEqual(t, expected, prog.Opcodes)

	// Macro local labels are unique per expansion.
	assert.Equal(0xe000, asm.Label["SUM2_1_here"])
	assert.Equal(0xe004, asm.Label["SUM2_2_here"])
	_, ok := asm.Equate["a"]
	assert.False(ok)
}

func TestAssemblerErrors(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name    string
		program []string
		lineno  int
		err     error
	}){
		{"invalid", []string{"wai", "jmp $20"}, 2, ErrInstructionInvalid},
		{"missing", []string{"ldaa"}, 1, ErrOpcodeValueMissing},
		{"extra", []string{"ldaa #1 #2"}, 1, ErrOpcodeExtraArgs},
		{"extra_halt", []string{"wai 1"}, 1, ErrOpcodeExtraArgs},
		{"immediate_range", []string{"ldaa #256"}, 1, ErrOperandRange},
		{"immediate_negative", []string{"ldaa #-129"}, 1, ErrOperandRange},
		{"direct_range", []string{"adda $100"}, 1, ErrOperandRange},
		{"direct_negative", []string{"adda -1"}, 1, ErrOperandRange},
		{"label_wide", []string{"here: ldaa #here"}, 1, ErrOperandRange},
		{"word_range", []string{".word $10000"}, 1, ErrOperandRange},
		{"data_missing", []string{".byte"}, 1, ErrOpcodeValueMissing},
		{"equ_syntax", []string{".equ A"}, 1, ErrEquateSyntax},
		{"equ_duplicate", []string{".equ A 1", ".equ A 2"}, 2, ErrEquateDuplicate},
		{"label_duplicate", []string{"a: wai", "a: wai"}, 2, ErrLabelDuplicate},
		{"label_missing", []string{"ldaa #nowhere"}, 1, ErrLabelMissing("nowhere")},
		{"link_missing", []string{"wai", ".word nowhere", "wai"}, 2, ErrLabelMissing("nowhere")},
		{"byte_forward", []string{".byte later", "later: wai"}, 1, ErrLabelMissing("later")},
		{"number", []string{"ldaa #$XY"}, 1, ErrParseNumber("$XY")},
		{"expression", []string{"ldaa #$(\"str\")"}, 1, ErrParseExpression("\"str\"")},
		{"macro_lonely", []string{".macro M", "wai"}, 2, ErrMacroLonely},
		{"macro_endm", []string{".endm"}, 1, ErrMacroLonelyEndm},
		{"macro_nesting", []string{".macro M", ".macro N"}, 2, ErrMacroNesting},
		{"macro_duplicate", []string{".macro M", ".endm", ".macro M"}, 3, ErrMacroDuplicate},
		{"macro_args", []string{".macro M a", "ldaa #a", ".endm", "M"}, 4, ErrMacroSyntax},
	}

	for _, entry := range table {
		asm := &Assembler{}
		_, err := asm.Parse(strings.NewReader(strings.Join(entry.program, "\n")))
		assert.Error(err, entry.name)

		var syntax *ErrSyntax
		assert.True(errors.As(err, &syntax), entry.name)
		if syntax != nil {
			assert.Equal(entry.lineno, syntax.LineNo, entry.name)
		}
		assert.ErrorIs(err, entry.err, entry.name)
	}
}

func TestAssemblerMacroError(t *testing.T) {
	assert := assert.New(t)

	program := []string{
		".macro LOAD v",
		"ldaa #v",
		".endm",
		"LOAD 1",
		"LOAD 300",
	}

	asm := &Assembler{}
	_, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.ErrorIs(err, ErrOperandRange)

	var macro *ErrMacro
	assert.True(errors.As(err, &macro))
	if macro != nil {
		assert.Equal("LOAD", macro.Macro)
		assert.Equal(2, macro.Line)
	}
}

func TestAssemblerReuse(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	_, err := asm.Parse(strings.NewReader("a: ldaa #1\n.equ X 1"))
	assert.NoError(err)

	prog, err := asm.Parse(strings.NewReader("a: ldaa #2\n.equ X 2"))
	assert.NoError(err)
	assert.Equal([]uint8{0x86, 2}, prog.Binary())
	assert.Equal("2", asm.Equate["X"])
}
