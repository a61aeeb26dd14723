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
	"github.com/sirupsen/logrus"
)

type Region uint

// State is a copy of everything the machine owns. Machine.Snapshot hands
// these out; modifying one has no effect on the machine.
type State struct {
	Registers [REGISTER_COUNT]uint16
	ROM       [ROM_SIZE]uint16
	RAM       [RAM_SIZE]uint16
	Program   uint16
	Equal     bool
	Cycles    uint64
	Halted    bool
}

// TraceRecord is emitted once per cycle, after fetch and before any state
// changes.
type TraceRecord struct {
	Program   uint16
	Word      uint16
	Registers [TRACE_REGISTERS]uint16
}

type Tracer interface {
	Trace(rec TraceRecord)
}

type TracerFunc func(rec TraceRecord)

func (fn TracerFunc) Trace(rec TraceRecord) {
	fn(rec)
}

// MachineDebugger hooks are called after a cycle has committed. Read and
// Write report RAM accesses made by LD and ST.
type MachineDebugger interface {
	Step(mc *Machine)
	Read(addr uint16, mc *Machine)
	Write(addr uint16, mc *Machine)
}

type Config struct {
	// Up to ROM_SIZE instruction words; required.
	ROM []uint16

	// Zero means no limit.
	CycleLimit uint64

	// Up to REGISTER_COUNT values for REG0 onwards; the rest start at zero.
	InitialRegisters []uint16

	// Treat opcodes 16..31 as a no-op instead of failing the run.
	Permissive bool

	// Replicate the sign bit across the vacated bit on SRA, instead of only
	// preserving bit 15.
	ArithmeticShift bool

	Tracer   Tracer
	Debugger MachineDebugger
	Logger   logrus.FieldLogger
}

type Machine struct {
	Tracer   Tracer
	Debugger MachineDebugger
	Logger   logrus.FieldLogger

	CycleLimit      uint64
	Permissive      bool
	ArithmeticShift bool

	state State
}
