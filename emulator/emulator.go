// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"errors"
	"fmt"
	"iter"
	"log"
	"maps"

	"github.com/ezrec/hc11/cpu"
	"github.com/ezrec/hc11/internal"
	"github.com/ezrec/hc11/io"
)

const (
	STEP_LIMIT = 1 << 20 // Default instruction budget for Run.
)

var _emulator_defines = map[string]string{
	"STEP_LIMIT": fmt.Sprintf("%v", STEP_LIMIT),
}

// Emulator state. CPU + program image + trace output.
type Emulator struct {
	Verbose  bool         // If set, enables verbose logging.
	*cpu.Cpu              // Reference to the CPU simulation.
	Program  *cpu.Program // Reference to the currently running program listing.

	Source io.Source // Image source; the Program is used when nil.
	Trace  io.Tape   // Instruction trace output.

	StepLimit int // Maximum instructions per Run; 0 is unlimited.
}

// NewEmulator creates a new emulator.
func NewEmulator() (emu *Emulator) {
	emu = &Emulator{
		Cpu:       cpu.NewCpu(),
		Program:   &cpu.Program{},
		StepLimit: STEP_LIMIT,
	}

	return
}

// Defines returns an iterator over all of the defines
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return internal.IterSeq2Concat(maps.All(_emulator_defines),
		emu.Cpu.Defines(),
	)
}

// Close the emulator
func (emu *Emulator) Close() (err error) {
	closer, ok := emu.Source.(interface{ Close() error })
	if ok {
		err = closer.Close()
	}

	return
}

// Reset clears memory, loads the program image, and resets the CPU.
// Memory pokes for a run must be made after Reset.
func (emu *Emulator) Reset() (err error) {
	emu.Cpu.Verbose = emu.Verbose

	var source io.Source = &cpu.Program{}
	if emu.Program != nil {
		source = emu.Program
	}
	if emu.Source != nil {
		source = emu.Source
	}

	image, err := source.Image()
	if err != nil {
		return
	}

	emu.Cpu.Clear()
	emu.Cpu.Reset()

	err = emu.Cpu.Load(image)
	if err != nil {
		return
	}

	if emu.Verbose {
		log.Printf("emulator: reset, %d byte image", len(image))
	}

	return
}

// Ticks returns the total instructions executed since a reset.
func (emu *Emulator) Ticks() int {
	return emu.Cpu.Ticks
}

// LineNo returns the current line number for the executing opcode.
func (emu *Emulator) LineNo() int {
	if emu.Program == nil {
		return 0
	}

	dbg := emu.Program.Debug(emu.Cpu.Pc)
	if dbg.Opcode == nil {
		return 0
	}

	return dbg.LineNo
}

// Tick performs a single instruction of the emulator.
func (emu *Emulator) Tick() (done bool, err error) {
	// Set CPU verbosity
	emu.Cpu.Verbose = emu.Verbose

	pc := emu.Cpu.Pc
	lineno := emu.LineNo()
	defer func() {
		if err != nil {
			err = &ErrRuntime{LineNo: lineno, Pc: pc, Err: err}
		}
	}()

	err = emu.Cpu.Tick()
	if errors.Is(err, cpu.ErrHalt) {
		err = nil
		done = true
	}
	if err != nil {
		return
	}

	err = emu.Trace.Trace("%04X: %02X  a=%02X ccr=%02X", pc, emu.Cpu.Read(pc), emu.Cpu.A, emu.Cpu.Status)

	return
}

// Run ticks the emulator until halted, an error, or the step limit.
func (emu *Emulator) Run() (err error) {
	for steps := 0; emu.StepLimit == 0 || steps < emu.StepLimit; steps++ {
		var done bool
		done, err = emu.Tick()
		if err != nil || done {
			return
		}
	}

	err = &ErrRuntime{LineNo: emu.LineNo(), Pc: emu.Cpu.Pc, Err: ErrStepLimit}

	return
}
