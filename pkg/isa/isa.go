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

// Package isa describes the sixteen-opcode instruction set: the opcode and
// register variants, the packing of operands into 16-bit instruction words
// and the inverse extraction of those operands.
//
// Instruction word layout (bit 15 is most significant):
//
//	[15:11] opcode
//	[10:8]  regA
//	[7:5]   regB
//	[7:0]   imm8 / addr8 (shares the low byte with regB)
package isa

import (
	"fmt"
	"strings"
)

type Opcode uint8
type Reg uint8
type Format uint8

const (
	OP_MOV Opcode = iota
	OP_ADD
	OP_SUB
	OP_AND
	OP_OR
	OP_SL
	OP_SR
	OP_SRA
	OP_LDL
	OP_LDH
	OP_CMP
	OP_JE
	OP_JMP
	OP_LD
	OP_ST
	OP_HLT
)

const (
	REG0 Reg = iota
	REG1
	REG2
	REG3
	REG4
	REG5
	REG6
	REG7
)

// Operand forms. Every opcode uses exactly one.
const (
	FORMAT_NONE Format = iota // HLT
	FORMAT_RR                 // regA, regB
	FORMAT_R                  // regA
	FORMAT_RI                 // regA, imm8
	FORMAT_A                  // addr8
	FORMAT_RA                 // regA, addr8
)

const (
	OPCODE_COUNT   = 16
	REGISTER_COUNT = 8

	OPCODE_MASK uint16 = 0x1F
	REG_MASK    uint16 = 0x07
	BYTE_MASK   uint16 = 0xFF
)

var opcodeNames = [OPCODE_COUNT]string{
	OP_MOV: "MOV",
	OP_ADD: "ADD",
	OP_SUB: "SUB",
	OP_AND: "AND",
	OP_OR:  "OR",
	OP_SL:  "SL",
	OP_SR:  "SR",
	OP_SRA: "SRA",
	OP_LDL: "LDL",
	OP_LDH: "LDH",
	OP_CMP: "CMP",
	OP_JE:  "JE",
	OP_JMP: "JMP",
	OP_LD:  "LD",
	OP_ST:  "ST",
	OP_HLT: "HLT",
}

var opcodeFormats = [OPCODE_COUNT]Format{
	OP_MOV: FORMAT_RR,
	OP_ADD: FORMAT_RR,
	OP_SUB: FORMAT_RR,
	OP_AND: FORMAT_RR,
	OP_OR:  FORMAT_RR,
	OP_SL:  FORMAT_R,
	OP_SR:  FORMAT_R,
	OP_SRA: FORMAT_R,
	OP_LDL: FORMAT_RI,
	OP_LDH: FORMAT_RI,
	OP_CMP: FORMAT_RR,
	OP_JE:  FORMAT_A,
	OP_JMP: FORMAT_A,
	OP_LD:  FORMAT_RA,
	OP_ST:  FORMAT_RA,
	OP_HLT: FORMAT_NONE,
}

// Valid reports whether op is one of the sixteen defined opcodes. The
// opcode field is five bits wide, so values 16..31 can still appear in
// hand-crafted words.
func (op Opcode) Valid() bool {
	return op < OPCODE_COUNT
}

func (op Opcode) String() string {
	if !op.Valid() {
		return fmt.Sprintf("OP%d", uint8(op))
	}

	return opcodeNames[op]
}

// Format returns the operand form of op. Invalid opcodes report
// FORMAT_NONE.
func (op Opcode) Format() Format {
	if !op.Valid() {
		return FORMAT_NONE
	}

	return opcodeFormats[op]
}

// Operands returns the number of assembler operands the form takes.
func (f Format) Operands() int {
	switch f {
	case FORMAT_RR, FORMAT_RI, FORMAT_RA:
		return 2
	case FORMAT_R, FORMAT_A:
		return 1
	}

	return 0
}

func (r Reg) Valid() bool {
	return r < REGISTER_COUNT
}

func (r Reg) String() string {
	return fmt.Sprintf("REG%d", uint8(r))
}

// ParseOpcode looks up a mnemonic, ignoring case.
func ParseOpcode(name string) (Opcode, bool) {
	for op, opname := range opcodeNames {
		if strings.EqualFold(name, opname) {
			return Opcode(op), true
		}
	}

	return 0, false
}

// ParseReg accepts both the long (REG3) and short (R3) register spellings.
func ParseReg(name string) (Reg, bool) {
	upper := strings.ToUpper(name)

	var digits string
	if strings.HasPrefix(upper, "REG") {
		digits = upper[3:]
	} else if strings.HasPrefix(upper, "R") {
		digits = upper[1:]
	}

	if len(digits) != 1 || digits[0] < '0' || digits[0] > '7' {
		return 0, false
	}

	return Reg(digits[0] - '0'), true
}
