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

package machine_test

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/lassandro/gocpu16/pkg/isa"
	"github.com/lassandro/gocpu16/pkg/machine"
	"github.com/lassandro/gocpu16/pkg/program"
)

func newMachine(t *testing.T, cfg machine.Config) *machine.Machine {
	t.Helper()

	mc, err := machine.New(cfg)

	if err != nil {
		t.Fatal(err)
	}

	return mc
}

func TestFlagIsolation(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for op := isa.Opcode(0); op < isa.OPCODE_COUNT; op++ {
		if op == isa.OP_CMP {
			continue
		}

		for _, equal := range []bool{false, true} {
			for i := 0; i < 32; i++ {
				word := uint16(op)<<11 | uint16(rng.Intn(1<<11))

				var regs [8]uint16
				for r := range regs {
					regs[r] = uint16(rng.Intn(1 << 16))
				}

				rom := make([]uint16, machine.ROM_SIZE)
				rom[0] = isa.Cmp(isa.REG0, isa.REG1)
				rom[1] = word

				if equal {
					regs[1] = regs[0]
				} else if regs[1] == regs[0] {
					regs[1]++
				}

				mc := newMachine(t, machine.Config{ROM: rom, InitialRegisters: regs[:]})

				if _, err := mc.Step(); err != nil {
					t.Fatal(err)
				}

				if _, err := mc.Step(); err != nil {
					t.Fatal(err)
				}

				if have := mc.Equal(); have != equal {
					t.Fatalf(
						"Equality flag changed by %s"+
							"\nwant:%v\nhave:%v",
						isa.Disassemble(word),
						equal,
						have,
					)
				}
			}
		}
	}
}

func TestROMImmutable(t *testing.T) {
	mc := newMachine(t, machine.Config{ROM: program.SumOneToTen()})
	before := mc.Snapshot().ROM

	if err := mc.Run(); err != nil {
		t.Fatal(err)
	}

	if after := mc.Snapshot().ROM; after != before {
		t.Error("ROM changed during run")
	}
}

func TestLinearProgram(t *testing.T) {
	rom := []uint16{
		isa.Ldl(isa.REG0, 3),
		isa.Mov(isa.REG1, isa.REG0),
		isa.Add(isa.REG1, isa.REG0),
		isa.Sl(isa.REG1),
		isa.St(isa.REG1, 9),
		isa.Ld(isa.REG2, 9),
		isa.Cmp(isa.REG1, isa.REG2),
		isa.Sra(isa.REG2),
		isa.Hlt(),
	}

	mc := newMachine(t, machine.Config{ROM: rom})

	for want := uint16(1); ; want++ {
		halted, err := mc.Step()

		if err != nil {
			t.Fatal(err)
		}

		if have := mc.Program(); have != want {
			t.Fatalf("Program counter mismatch\nwant:%d\nhave:%d", want, have)
		}

		if halted {
			break
		}
	}

	if have, _ := mc.ReadReg(2); have != 6 {
		t.Errorf("REG2 mismatch\nwant:6\nhave:%d", have)
	}
}

func TestTraceEndsWithHalt(t *testing.T) {
	var records []machine.TraceRecord

	mc := newMachine(t, machine.Config{
		ROM: program.SumOneToTen(),
		Tracer: machine.TracerFunc(func(rec machine.TraceRecord) {
			records = append(records, rec)
		}),
	})

	if err := mc.Run(); err != nil {
		t.Fatal(err)
	}

	if len(records) != 68 {
		t.Fatalf("Trace length mismatch\nwant:68\nhave:%d", len(records))
	}

	last := records[len(records)-1]

	if op := isa.OpcodeOf(last.Word); op != isa.OP_HLT {
		t.Errorf("Final trace opcode\nwant:HLT\nhave:%s", op)
	}

	if last.Program != 14 || last.Registers != [4]uint16{55, 1, 10, 10} {
		t.Errorf("Final trace record\nwant:{14 0x7800 [55 1 10 10]}\nhave:%v", last)
	}
}

func TestTraceBeforeExecute(t *testing.T) {
	var mc *machine.Machine

	tracer := machine.TracerFunc(func(rec machine.TraceRecord) {
		state := mc.Snapshot()

		if rec.Program != state.Program {
			t.Errorf("Trace PC\nwant:%d\nhave:%d", state.Program, rec.Program)
		}

		for i, value := range rec.Registers {
			if value != state.Registers[i] {
				t.Errorf("Trace REG%d\nwant:%d\nhave:%d", i, state.Registers[i], value)
			}
		}
	})

	mc = newMachine(t, machine.Config{
		ROM: []uint16{
			isa.Ldl(isa.REG1, 7),
			isa.Mov(isa.REG0, isa.REG1),
			isa.Hlt(),
		},
		Tracer: tracer,
	})

	if err := mc.Run(); err != nil {
		t.Fatal(err)
	}
}

func TestShiftInverse(t *testing.T) {
	mc := newMachine(t, machine.Config{
		ROM: []uint16{isa.Sl(isa.REG0), isa.Sr(isa.REG0)},
	})

	for x := 0; x < 1<<16; x++ {
		if x&0x8001 != 0 {
			continue
		}

		mc.Reset()
		mc.WriteReg(0, uint16(x))

		for i := 0; i < 2; i++ {
			if _, err := mc.Step(); err != nil {
				t.Fatal(err)
			}
		}

		if have, _ := mc.ReadReg(0); have != uint16(x) {
			t.Fatalf("SR(SL(%#04x))\nwant:%#04x\nhave:%#04x", x, x, have)
		}
	}
}

func TestLoadImmediateComposition(t *testing.T) {
	rng := rand.New(rand.NewSource(2))

	for i := 0; i < 512; i++ {
		h := uint16(rng.Intn(1 << 16))
		l := uint16(rng.Intn(1 << 16))
		initial := uint16(rng.Intn(1 << 16))

		mc := newMachine(t, machine.Config{
			ROM:              []uint16{isa.Ldh(isa.REG5, h), isa.Ldl(isa.REG5, l)},
			InitialRegisters: []uint16{5: initial},
		})

		for i := 0; i < 2; i++ {
			if _, err := mc.Step(); err != nil {
				t.Fatal(err)
			}
		}

		want := (h&0xFF)<<8 | (l & 0xFF)

		if have, _ := mc.ReadReg(5); have != want {
			t.Fatalf(
				"LDH %#02x; LDL %#02x over %#04x\nwant:%#04x\nhave:%#04x",
				h,
				l,
				initial,
				want,
				have,
			)
		}
	}
}

func TestInvalidOpcode(t *testing.T) {
	rom := []uint16{isa.Ldl(isa.REG0, 1), 0b10000_001_001_00000, isa.Hlt()}

	mc := newMachine(t, machine.Config{ROM: rom})

	err := mc.Run()

	var cerr *machine.CycleError
	if !errors.As(err, &cerr) {
		t.Fatalf("Run error\nwant:*machine.CycleError\nhave:%v", err)
	}

	if !errors.Is(err, machine.ErrInvalidOpcode) {
		t.Errorf("Run error\nwant:%v\nhave:%v", machine.ErrInvalidOpcode, err)
	}

	if cerr.Program != 1 || cerr.Word != rom[1] || cerr.Cycle != 1 {
		t.Errorf(
			"Cycle error\nwant:pc 1, ir %#04x, cycle 1\nhave:pc %d, ir %#04x, cycle %d",
			rom[1],
			cerr.Program,
			cerr.Word,
			cerr.Cycle,
		)
	}

	if mc.Program() != 1 || mc.Cycles() != 1 || mc.Halted() {
		t.Errorf(
			"Failed cycle committed\nwant:pc 1, 1 cycle\nhave:pc %d, %d cycles",
			mc.Program(),
			mc.Cycles(),
		)
	}
}

func TestInvalidOpcodePermissive(t *testing.T) {
	rom := []uint16{isa.Ldl(isa.REG0, 1), 0xFFFF, isa.Hlt()}

	mc := newMachine(t, machine.Config{ROM: rom, Permissive: true})

	if err := mc.Run(); err != nil {
		t.Fatal(err)
	}

	state := mc.Snapshot()

	if state.Program != 3 || state.Registers[0] != 1 || state.Registers[7] != 0 {
		t.Errorf("Permissive run\nwant:pc 3, REG0 1\nhave:pc %d, REG0 %d", state.Program, state.Registers[0])
	}
}

func TestCycleLimit(t *testing.T) {
	var traced int

	mc := newMachine(t, machine.Config{
		ROM:        []uint16{isa.Jmp(0)},
		CycleLimit: 10,
		Tracer: machine.TracerFunc(func(machine.TraceRecord) {
			traced++
		}),
	})

	err := mc.Run()

	if !errors.Is(err, machine.ErrCycleLimit) {
		t.Fatalf("Run error\nwant:%v\nhave:%v", machine.ErrCycleLimit, err)
	}

	if mc.Cycles() != 10 || traced != 10 {
		t.Errorf("Cycles\nwant:10 run, 10 traced\nhave:%d run, %d traced", mc.Cycles(), traced)
	}
}

func TestProgramOverrun(t *testing.T) {
	mc := newMachine(t, machine.Config{ROM: []uint16{}})

	for i := 0; i < machine.ROM_SIZE; i++ {
		if _, err := mc.Step(); err != nil {
			t.Fatal(err)
		}
	}

	_, err := mc.Step()

	var aerr *machine.AddressError
	if !errors.As(err, &aerr) || aerr.Region != machine.REGION_ROM || aerr.Addr != 256 {
		t.Fatalf("Step error\nwant:ROM[256] address error\nhave:%v", err)
	}

	if !errors.Is(err, machine.ErrInvalidAddress) {
		t.Errorf("Step error\nwant:%v\nhave:%v", machine.ErrInvalidAddress, err)
	}
}

func TestHaltedStep(t *testing.T) {
	mc := newMachine(t, machine.Config{ROM: []uint16{isa.Hlt()}})

	if halted, err := mc.Step(); err != nil || !halted {
		t.Fatalf("Step\nwant:halted\nhave:%v (%v)", halted, err)
	}

	if _, err := mc.Step(); !errors.Is(err, machine.ErrHalted) {
		t.Errorf("Step after HLT\nwant:%v\nhave:%v", machine.ErrHalted, err)
	}

	if err := mc.SetProgram(0); err != nil {
		t.Fatal(err)
	}

	if halted, err := mc.Step(); err != nil || !halted {
		t.Errorf("Step after SetProgram\nwant:halted\nhave:%v (%v)", halted, err)
	}
}

func TestConfigErrors(t *testing.T) {
	tests := []struct {
		Name string
		Cfg  machine.Config
		Want error
	}{
		{"ROM Missing", machine.Config{}, nil},
		{"ROM Too Large", machine.Config{ROM: make([]uint16, 257)}, machine.ErrROMTooLarge},
		{
			"Too Many Registers",
			machine.Config{ROM: []uint16{}, InitialRegisters: make([]uint16, 9)},
			machine.ErrTooManyRegisters,
		},
	}

	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			_, err := machine.New(test.Cfg)

			var cerr *machine.ConfigError
			if !errors.As(err, &cerr) {
				t.Fatalf("New error\nwant:*machine.ConfigError\nhave:%v", err)
			}

			if test.Want != nil && !errors.Is(err, test.Want) {
				t.Errorf("New error\nwant:%v\nhave:%v", test.Want, err)
			}
		})
	}

	if _, err := machine.New(machine.Config{ROM: make([]uint16, 256), InitialRegisters: make([]uint16, 8)}); err != nil {
		t.Errorf("New with full ROM and registers\nwant:nil\nhave:%v", err)
	}
}

func TestAccessorBounds(t *testing.T) {
	mc := newMachine(t, machine.Config{ROM: []uint16{isa.Hlt()}})

	if _, err := mc.ReadReg(8); !errors.Is(err, machine.ErrInvalidRegister) {
		t.Errorf("ReadReg(8)\nwant:%v\nhave:%v", machine.ErrInvalidRegister, err)
	}

	if err := mc.WriteReg(-1, 0); !errors.Is(err, machine.ErrInvalidRegister) {
		t.Errorf("WriteReg(-1)\nwant:%v\nhave:%v", machine.ErrInvalidRegister, err)
	}

	if _, err := mc.ReadRAM(256); !errors.Is(err, machine.ErrInvalidAddress) {
		t.Errorf("ReadRAM(256)\nwant:%v\nhave:%v", machine.ErrInvalidAddress, err)
	}

	if err := mc.WriteRAM(-1, 0); !errors.Is(err, machine.ErrInvalidAddress) {
		t.Errorf("WriteRAM(-1)\nwant:%v\nhave:%v", machine.ErrInvalidAddress, err)
	}

	if _, err := mc.ReadROM(256); !errors.Is(err, machine.ErrInvalidAddress) {
		t.Errorf("ReadROM(256)\nwant:%v\nhave:%v", machine.ErrInvalidAddress, err)
	}

	if err := mc.SetProgram(256); !errors.Is(err, machine.ErrInvalidAddress) {
		t.Errorf("SetProgram(256)\nwant:%v\nhave:%v", machine.ErrInvalidAddress, err)
	}

	if err := mc.WriteRAM(255, 0xBEEF); err != nil {
		t.Fatal(err)
	}

	if have, err := mc.ReadRAM(255); err != nil || have != 0xBEEF {
		t.Errorf("ReadRAM(255)\nwant:0xbeef\nhave:%#04x (%v)", have, err)
	}

	if have, err := mc.ReadROM(0); err != nil || have != isa.Hlt() {
		t.Errorf("ReadROM(0)\nwant:%#04x\nhave:%#04x (%v)", isa.Hlt(), have, err)
	}
}

func TestReset(t *testing.T) {
	mc := newMachine(t, machine.Config{ROM: program.SumOneToTen()})

	if err := mc.Run(); err != nil {
		t.Fatal(err)
	}

	mc.Reset()
	state := mc.Snapshot()

	if state.Registers != [8]uint16{} || state.RAM != [256]uint16{} {
		t.Error("Reset left registers or RAM populated")
	}

	if state.Program != 0 || state.Equal || state.Halted || state.Cycles != 0 {
		t.Errorf("Reset state\nwant:pc 0, flag clear\nhave:%+v", state.Program)
	}

	if state.ROM[14] != isa.Hlt() {
		t.Error("Reset cleared ROM")
	}

	if err := mc.Run(); err != nil {
		t.Fatal(err)
	}

	if have, _ := mc.ReadRAM(64); have != 55 {
		t.Errorf("Second run\nwant:55\nhave:%d", have)
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	mc := newMachine(t, machine.Config{ROM: []uint16{isa.Hlt()}})

	state := mc.Snapshot()
	state.Registers[0] = 0xFFFF
	state.RAM[0] = 0xFFFF
	state.ROM[0] = 0

	if have, _ := mc.ReadReg(0); have != 0 {
		t.Error("Snapshot shares registers with the machine")
	}

	if have, _ := mc.ReadRAM(0); have != 0 {
		t.Error("Snapshot shares RAM with the machine")
	}

	if have, _ := mc.ReadROM(0); have != isa.Hlt() {
		t.Error("Snapshot shares ROM with the machine")
	}
}

type recordingDebugger struct {
	steps  int
	reads  []uint16
	writes []uint16
}

func (dbg *recordingDebugger) Step(mc *machine.Machine) {
	dbg.steps++
}

func (dbg *recordingDebugger) Read(addr uint16, mc *machine.Machine) {
	dbg.reads = append(dbg.reads, addr)
}

func (dbg *recordingDebugger) Write(addr uint16, mc *machine.Machine) {
	if have, _ := mc.ReadRAM(int(addr)); have != 42 {
		panic("write hook ran before the store committed")
	}

	dbg.writes = append(dbg.writes, addr)
}

func TestDebuggerHooks(t *testing.T) {
	var dbg recordingDebugger

	mc := newMachine(t, machine.Config{
		ROM: []uint16{
			isa.Ldl(isa.REG0, 42),
			isa.St(isa.REG0, 100),
			isa.Ld(isa.REG1, 100),
			isa.Hlt(),
		},
		Debugger: &dbg,
	})

	if err := mc.Run(); err != nil {
		t.Fatal(err)
	}

	if dbg.steps != 4 {
		t.Errorf("Debugger steps\nwant:4\nhave:%d", dbg.steps)
	}

	if len(dbg.reads) != 1 || dbg.reads[0] != 100 {
		t.Errorf("Debugger reads\nwant:[100]\nhave:%v", dbg.reads)
	}

	if len(dbg.writes) != 1 || dbg.writes[0] != 100 {
		t.Errorf("Debugger writes\nwant:[100]\nhave:%v", dbg.writes)
	}
}

func TestLogging(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	mc := newMachine(t, machine.Config{
		ROM:    []uint16{isa.Ldl(isa.REG0, 1), 0xF800},
		Logger: logger,
	})

	if err := mc.Run(); err == nil {
		t.Fatal("Run should fail on opcode 31")
	}

	entries := hook.AllEntries()

	if len(entries) != 3 {
		t.Fatalf("Log entries\nwant:3\nhave:%d", len(entries))
	}

	if entries[0].Level != logrus.DebugLevel || entries[0].Data["op"] != isa.OP_LDL {
		t.Errorf("First entry\nwant:debug cycle LDL\nhave:%v %v", entries[0].Level, entries[0].Data)
	}

	last := hook.LastEntry()

	if last.Level != logrus.ErrorLevel || last.Data["pc"] != uint16(1) {
		t.Errorf("Last entry\nwant:error at pc 1\nhave:%v %v", last.Level, last.Data)
	}
}
