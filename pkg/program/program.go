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

// Package program holds the example programs bundled with the emulator.
package program

import (
	"github.com/lassandro/gocpu16/pkg/isa"
	"github.com/lassandro/gocpu16/pkg/machine"
)

// SUM_RESULT is the RAM cell SumOneToTen stores its running total in.
const SUM_RESULT = machine.OUTPUT_PORT

// SumOneToTen adds 1 through 10. There is no increment instruction, so REG2
// counts by adding the constant 1 held in REG1.
//
//	REG0 running total, stored to RAM[64] on every pass
//	REG1 constant 1
//	REG2 counter, 1..10
//	REG3 constant 10
func SumOneToTen() []uint16 {
	return []uint16{
		0:  isa.Ldh(isa.REG0, 0),
		1:  isa.Ldl(isa.REG0, 0),
		2:  isa.Ldh(isa.REG1, 0),
		3:  isa.Ldl(isa.REG1, 1),
		4:  isa.Ldh(isa.REG2, 0),
		5:  isa.Ldl(isa.REG2, 0),
		6:  isa.Ldh(isa.REG3, 0),
		7:  isa.Ldl(isa.REG3, 10),
		8:  isa.Add(isa.REG2, isa.REG1), // loop
		9:  isa.Add(isa.REG0, isa.REG2),
		10: isa.St(isa.REG0, SUM_RESULT),
		11: isa.Cmp(isa.REG2, isa.REG3),
		12: isa.Je(14),
		13: isa.Jmp(8),
		14: isa.Hlt(),
	}
}

// Load writes SumOneToTen into the machine's ROM.
func Load(mc *machine.Machine) error {
	return mc.LoadROM(SumOneToTen())
}
