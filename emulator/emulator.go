// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package emulator joins the processor with its console tape and drives
// execution of a loaded program image.
package emulator

import (
	"errors"
	"io"

	"github.com/ezrec/synacor/cpu"
	vmio "github.com/ezrec/synacor/io"
)

// Emulator state. CPU + console tape.
type Emulator struct {
	*cpu.Cpu              // Reference to the CPU simulation.
	Program  *cpu.Program // Listing of the loaded program, if assembled.

	Tape vmio.Tape // Console IO channel.
}

// NewEmulator creates a new emulator.
func NewEmulator() (emu *Emulator) {
	emu = &Emulator{
		Cpu: cpu.NewCpu(),
	}

	emu.Cpu.SetChannel(&emu.Tape)

	return
}

// Load a memory image.
func (emu *Emulator) Load(image []uint16) (err error) {
	emu.Program = nil

	return emu.Cpu.Load(image)
}

// LoadImage reads a little-endian program image and loads it.
func (emu *Emulator) LoadImage(input io.Reader) (err error) {
	image, err := ReadImage(input)
	if err != nil {
		return
	}

	return emu.Load(image)
}

// LoadProgram loads an assembled program, keeping its listing for
// error reports.
func (emu *Emulator) LoadProgram(prog *cpu.Program) (err error) {
	err = emu.Cpu.Load(prog.Binary())
	if err != nil {
		return
	}

	emu.Program = prog

	return
}

// Reset the execution state. Memory is preserved.
func (emu *Emulator) Reset() {
	emu.Cpu.Reset()
}

// Ticks returns the total ticks since a reset.
func (emu *Emulator) Ticks() int {
	return emu.Cpu.Ticks
}

// Ip returns current instruction pointer.
func (emu *Emulator) Ip() int {
	return int(emu.Cpu.Ip)
}

// LineNo returns the source line number for the current instruction,
// or 0 when there is no listing.
func (emu *Emulator) LineNo() int {
	if emu.Program == nil {
		return 0
	}

	dbg := emu.Program.Debug(emu.Cpu.Ip)
	if dbg.Statement == nil {
		return 0
	}

	return dbg.LineNo
}

// Tick performs a single tick of the emulator.
// done is set when the program terminates gracefully.
func (emu *Emulator) Tick() (done bool, err error) {
	ip := emu.Cpu.Ip
	lineno := emu.LineNo()

	err = emu.Cpu.Tick()
	if errors.Is(err, cpu.ErrHalt) {
		err = nil
		done = true
		return
	}
	if err != nil {
		err = &ErrRuntime{Ip: ip, LineNo: lineno, Err: err}
	}

	return
}

// Run ticks the emulator until the program terminates or faults.
func (emu *Emulator) Run() (err error) {
	for done := false; !done; {
		done, err = emu.Tick()
		if err != nil {
			return
		}
	}

	return
}
