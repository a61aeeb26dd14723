// Copyright (C) 2021  Antonio Lassandro

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.

package machine

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/lassandro/gocpu16/pkg/isa"
)

// New validates cfg and returns a machine in the reset condition with its
// ROM loaded.
func New(cfg Config) (*Machine, error) {
	mc := &Machine{
		Tracer:          cfg.Tracer,
		Debugger:        cfg.Debugger,
		Logger:          cfg.Logger,
		CycleLimit:      cfg.CycleLimit,
		Permissive:      cfg.Permissive,
		ArithmeticShift: cfg.ArithmeticShift,
	}

	if cfg.ROM == nil {
		return nil, &ConfigError{"rom", fmt.Errorf("no ROM image")}
	}

	if err := mc.LoadROM(cfg.ROM); err != nil {
		return nil, err
	}

	if err := mc.SetRegisters(cfg.InitialRegisters); err != nil {
		return nil, err
	}

	return mc, nil
}

// Reset zeroes registers, RAM, the program counter and the equality flag.
// ROM is left alone.
func (st *State) Reset() {
	for i := range st.Registers {
		st.Registers[i] = 0x0000
	}

	for i := range st.RAM {
		st.RAM[i] = 0x0000
	}

	st.Program = 0
	st.Equal = false
	st.Cycles = 0
	st.Halted = false
}

func (mc *Machine) Reset() {
	mc.state.Reset()
}

// LoadROM replaces the whole instruction memory. Cells past len(words) are
// zeroed.
func (mc *Machine) LoadROM(words []uint16) error {
	if len(words) > ROM_SIZE {
		return &ConfigError{"rom", ErrROMTooLarge}
	}

	var rom [ROM_SIZE]uint16
	copy(rom[:], words)
	mc.state.ROM = rom

	return nil
}

// SetRegisters loads values into REG0 onwards and zeroes the rest.
func (mc *Machine) SetRegisters(values []uint16) error {
	if len(values) > REGISTER_COUNT {
		return &ConfigError{"registers", ErrTooManyRegisters}
	}

	var regs [REGISTER_COUNT]uint16
	copy(regs[:], values)
	mc.state.Registers = regs

	return nil
}

func (mc *Machine) ReadReg(i int) (uint16, error) {
	if i < 0 || i >= REGISTER_COUNT {
		return 0, &RegisterError{i}
	}

	return mc.state.Registers[i], nil
}

func (mc *Machine) WriteReg(i int, value uint16) error {
	if i < 0 || i >= REGISTER_COUNT {
		return &RegisterError{i}
	}

	mc.state.Registers[i] = value
	return nil
}

func (mc *Machine) ReadRAM(addr int) (uint16, error) {
	if addr < 0 || addr >= RAM_SIZE {
		return 0, &AddressError{REGION_RAM, addr}
	}

	return mc.state.RAM[addr], nil
}

func (mc *Machine) WriteRAM(addr int, value uint16) error {
	if addr < 0 || addr >= RAM_SIZE {
		return &AddressError{REGION_RAM, addr}
	}

	mc.state.RAM[addr] = value
	return nil
}

func (mc *Machine) ReadROM(addr int) (uint16, error) {
	if addr < 0 || addr >= ROM_SIZE {
		return 0, &AddressError{REGION_ROM, addr}
	}

	return mc.state.ROM[addr], nil
}

func (mc *Machine) Program() uint16 {
	return mc.state.Program
}

// SetProgram moves the program counter. A halted machine becomes runnable
// again.
func (mc *Machine) SetProgram(pc uint16) error {
	if int(pc) >= ROM_SIZE {
		return &AddressError{REGION_ROM, int(pc)}
	}

	mc.state.Program = pc
	mc.state.Halted = false
	return nil
}

func (mc *Machine) Equal() bool {
	return mc.state.Equal
}

func (mc *Machine) SetEqual(equal bool) {
	mc.state.Equal = equal
}

func (mc *Machine) Cycles() uint64 {
	return mc.state.Cycles
}

func (mc *Machine) Halted() bool {
	return mc.state.Halted
}

func (mc *Machine) Snapshot() State {
	return mc.state
}

func (mc *Machine) fail(pc, word uint16, err error) error {
	cerr := &CycleError{
		Program: pc,
		Word:    word,
		Cycle:   mc.state.Cycles,
		Err:     err,
	}

	if mc.Logger != nil {
		mc.Logger.WithFields(logrus.Fields{
			"pc":    pc,
			"ir":    fmt.Sprintf("%#04x", word),
			"cycle": cerr.Cycle,
		}).Error(err)
	}

	return cerr
}

// Step runs one fetch-decode-execute cycle. All reads happen before any
// write, so a failing cycle leaves the machine exactly as it found it.
func (mc *Machine) Step() (halted bool, err error) {
	st := &mc.state

	if st.Halted {
		return true, ErrHalted
	}

	if int(st.Program) >= ROM_SIZE {
		return false, mc.fail(st.Program, 0, &AddressError{REGION_ROM, int(st.Program)})
	}

	instruction := st.ROM[st.Program]

	if mc.CycleLimit > 0 && st.Cycles >= mc.CycleLimit {
		return false, mc.fail(st.Program, instruction, ErrCycleLimit)
	}

	if mc.Tracer != nil {
		var rec TraceRecord
		rec.Program = st.Program
		rec.Word = instruction
		copy(rec.Registers[:], st.Registers[:TRACE_REGISTERS])
		mc.Tracer.Trace(rec)
	}

	inst := isa.Decode(instruction)

	if mc.Logger != nil {
		mc.Logger.WithFields(logrus.Fields{
			"pc": st.Program,
			"ir": fmt.Sprintf("%#04x", instruction),
			"op": inst.Op,
		}).Debug("cycle")
	}

	program := st.Program + 1
	regs := st.Registers
	equal := st.Equal

	var (
		storeValue uint16
		storeAddr  = -1
		loadAddr   = -1
	)

	a := inst.A
	b := inst.B

	switch inst.Op {
	case isa.OP_MOV:
		regs[a] = regs[b]

	case isa.OP_ADD:
		regs[a] = regs[a] + regs[b]

	case isa.OP_SUB:
		regs[a] = regs[a] - regs[b]

	case isa.OP_AND:
		regs[a] = regs[a] & regs[b]

	case isa.OP_OR:
		regs[a] = regs[a] | regs[b]

	case isa.OP_SL:
		regs[a] = regs[a] << 1

	// Always zero-fill, whatever the sign of the operand.
	case isa.OP_SR:
		regs[a] = regs[a] >> 1

	// Bit 15 survives the shift and bit 14 is cleared, unless the strict
	// arithmetic form was asked for.
	case isa.OP_SRA:
		if mc.ArithmeticShift {
			regs[a] = uint16(int16(regs[a]) >> 1)
		} else {
			regs[a] = (regs[a] & 0x8000) | (regs[a] >> 1)
		}

	case isa.OP_LDL:
		regs[a] = (regs[a] & 0xFF00) | uint16(inst.Imm)

	case isa.OP_LDH:
		regs[a] = uint16(inst.Imm)<<8 | (regs[a] & 0x00FF)

	case isa.OP_CMP:
		equal = regs[a] == regs[b]

	case isa.OP_JE:
		if equal {
			program = uint16(inst.Imm)
		}

	case isa.OP_JMP:
		program = uint16(inst.Imm)

	case isa.OP_LD:
		loadAddr = int(inst.Imm)
		regs[a] = st.RAM[loadAddr]

	case isa.OP_ST:
		storeAddr = int(inst.Imm)
		storeValue = regs[a]

	case isa.OP_HLT:

	default:
		if !mc.Permissive {
			return false, mc.fail(st.Program, instruction, ErrInvalidOpcode)
		}
	}

	st.Registers = regs
	st.Equal = equal
	st.Program = program
	st.Cycles++

	if storeAddr >= 0 {
		st.RAM[storeAddr] = storeValue
	}

	if inst.Op == isa.OP_HLT {
		st.Halted = true
	}

	if mc.Debugger != nil {
		if loadAddr >= 0 {
			mc.Debugger.Read(uint16(loadAddr), mc)
		}

		if storeAddr >= 0 {
			mc.Debugger.Write(uint16(storeAddr), mc)
		}

		mc.Debugger.Step(mc)
	}

	return st.Halted, nil
}

// Run steps the machine until HLT or the first error.
func (mc *Machine) Run() error {
	for {
		halted, err := mc.Step()

		if err != nil {
			return err
		}

		if halted {
			return nil
		}
	}
}
