// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/retroenv/retrogolib/buildinfo"

	"github.com/ezrec/hc11/cpu"
	"github.com/ezrec/hc11/emulator"
	"github.com/ezrec/hc11/io"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

func main() {
	var compile string
	var binary string
	var input string
	var hex bool
	var save string
	var steps int
	var trace bool
	var verbose bool
	var quiet bool

	flag.StringVar(&compile, "c", "", ".s file to assemble")
	flag.StringVar(&binary, "b", "", ".bin image to run")
	flag.StringVar(&input, "i", "", "Tape image input, '-' for stdin")
	flag.BoolVar(&hex, "x", false, "Tape image input is hex text")
	flag.StringVar(&save, "s", "", "Save assembled image to file, do not execute")
	flag.IntVar(&steps, "n", emulator.STEP_LIMIT, "Instruction limit, 0 for none")
	flag.BoolVar(&trace, "t", false, "Trace each instruction")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")
	flag.BoolVar(&quiet, "q", false, "Quiet mode")

	flag.Parse()

	if flag.NArg() != 0 {
		log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
	}

	if !quiet {
		fmt.Printf("hc11 %s\n", buildinfo.Version(version, commit, date))
	}

	emu := emulator.NewEmulator()
	emu.Verbose = verbose
	emu.StepLimit = steps
	defer emu.Close()

	// Assemble a new instruction stream.
	if len(compile) != 0 {
		inf, err := os.Open(compile)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
		defer inf.Close()

		asm := &cpu.Assembler{Verbose: verbose}
		for key, value := range emu.Defines() {
			asm.Predefine(key, value)
		}
		emu.Program, err = asm.Parse(inf)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
	}

	if len(save) != 0 {
		err := os.WriteFile(save, emu.Program.Binary(), 0o644)
		if err != nil {
			log.Fatalf("%v: %v", save, err)
		}
		return
	}

	switch {
	case len(binary) != 0:
		rom, err := io.OpenRom(binary)
		if err != nil {
			log.Fatalf("%v: %v", binary, err)
		}
		rom.Verbose = verbose
		emu.Source = rom
	case input == "-":
		emu.Source = &io.Tape{Input: os.Stdin, Hex: hex}
	case len(input) != 0:
		inf, err := os.Open(input)
		if err != nil {
			log.Fatalf("%v: %v", input, err)
		}
		defer inf.Close()
		emu.Source = &io.Tape{Input: inf, Hex: hex}
	}

	if trace {
		emu.Trace.Output = os.Stdout
	}

	err := emu.Reset()
	if err != nil {
		log.Fatal(err)
	}

	err = emu.Run()
	if !quiet {
		fmt.Print(emu.Cpu.String())
	}
	if err != nil {
		log.Fatal(err)
	}
}
