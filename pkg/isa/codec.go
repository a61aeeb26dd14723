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

package isa

import (
	"fmt"
)

// Instruction is the decoded form of an instruction word. Only the fields
// used by the opcode's format are populated; the rest stay zero.
type Instruction struct {
	Op  Opcode
	A   Reg
	B   Reg
	Imm uint8
}

func pack(op Opcode, ra Reg, low uint16) uint16 {
	return (uint16(op)&OPCODE_MASK)<<11 | (uint16(ra)&REG_MASK)<<8 | low
}

func encodeRR(op Opcode, ra, rb Reg) uint16 {
	return pack(op, ra, (uint16(rb)&REG_MASK)<<5)
}

func encodeRI(op Opcode, ra Reg, imm uint16) uint16 {
	return pack(op, ra, imm&BYTE_MASK)
}

// MOV  |00000    |regA |regB |00000      | regA = regB
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func Mov(ra, rb Reg) uint16 { return encodeRR(OP_MOV, ra, rb) }
func Add(ra, rb Reg) uint16 { return encodeRR(OP_ADD, ra, rb) }
func Sub(ra, rb Reg) uint16 { return encodeRR(OP_SUB, ra, rb) }
func And(ra, rb Reg) uint16 { return encodeRR(OP_AND, ra, rb) }
func Or(ra, rb Reg) uint16  { return encodeRR(OP_OR, ra, rb) }
func Cmp(ra, rb Reg) uint16 { return encodeRR(OP_CMP, ra, rb) }

// SL   |00101    |regA |00000000        | regA <<= 1
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func Sl(ra Reg) uint16  { return pack(OP_SL, ra, 0) }
func Sr(ra Reg) uint16  { return pack(OP_SR, ra, 0) }
func Sra(ra Reg) uint16 { return pack(OP_SRA, ra, 0) }

// LDL  |01000    |regA |imm8            | low byte of regA = imm8
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func Ldl(ra Reg, imm uint16) uint16 { return encodeRI(OP_LDL, ra, imm) }
func Ldh(ra Reg, imm uint16) uint16 { return encodeRI(OP_LDH, ra, imm) }

// JE   |01011    |000  |addr8           | pc = addr8 if equal
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func Je(addr uint16) uint16  { return encodeRI(OP_JE, 0, addr) }
func Jmp(addr uint16) uint16 { return encodeRI(OP_JMP, 0, addr) }

// LD   |01101    |regA |addr8           | regA = ram[addr8]
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func Ld(ra Reg, addr uint16) uint16 { return encodeRI(OP_LD, ra, addr) }
func St(ra Reg, addr uint16) uint16 { return encodeRI(OP_ST, ra, addr) }

// HLT  |01111    |00000000000           |
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func Hlt() uint16 { return pack(OP_HLT, 0, 0) }

func OpcodeOf(word uint16) Opcode { return Opcode((word >> 11) & OPCODE_MASK) }
func RegA(word uint16) Reg        { return Reg((word >> 8) & REG_MASK) }
func RegB(word uint16) Reg        { return Reg((word >> 5) & REG_MASK) }
func Imm(word uint16) uint8       { return uint8(word & BYTE_MASK) }
func Addr(word uint16) uint8      { return uint8(word & BYTE_MASK) }

// Encode packs inst according to its opcode's format. Fields the format does
// not use are ignored; an invalid opcode is packed with every field so that
// Decode can reproduce it.
func Encode(inst Instruction) uint16 {
	if !inst.Op.Valid() {
		return pack(inst.Op, inst.A, uint16(inst.Imm))
	}

	switch inst.Op.Format() {
	case FORMAT_RR:
		return encodeRR(inst.Op, inst.A, inst.B)
	case FORMAT_R:
		return pack(inst.Op, inst.A, 0)
	case FORMAT_RI, FORMAT_RA:
		return encodeRI(inst.Op, inst.A, uint16(inst.Imm))
	case FORMAT_A:
		return encodeRI(inst.Op, 0, uint16(inst.Imm))
	}

	return pack(inst.Op, 0, 0)
}

// Decode extracts the fields of word that its opcode uses. Words carrying an
// invalid opcode keep regA, regB and the low byte as raw fields.
func Decode(word uint16) Instruction {
	inst := Instruction{Op: OpcodeOf(word)}

	if !inst.Op.Valid() {
		inst.A = RegA(word)
		inst.B = RegB(word)
		inst.Imm = Imm(word)
		return inst
	}

	switch inst.Op.Format() {
	case FORMAT_RR:
		inst.A = RegA(word)
		inst.B = RegB(word)
	case FORMAT_R:
		inst.A = RegA(word)
	case FORMAT_RI, FORMAT_RA:
		inst.A = RegA(word)
		inst.Imm = Imm(word)
	case FORMAT_A:
		inst.Imm = Addr(word)
	}

	return inst
}

func (inst Instruction) Word() uint16 {
	return Encode(inst)
}

func (inst Instruction) String() string {
	if !inst.Op.Valid() {
		return fmt.Sprintf(".FILL %#04x", Encode(inst))
	}

	switch inst.Op.Format() {
	case FORMAT_RR:
		return fmt.Sprintf("%s %s, %s", inst.Op, inst.A, inst.B)
	case FORMAT_R:
		return fmt.Sprintf("%s %s", inst.Op, inst.A)
	case FORMAT_RI, FORMAT_RA:
		return fmt.Sprintf("%s %s, %d", inst.Op, inst.A, inst.Imm)
	case FORMAT_A:
		return fmt.Sprintf("%s %d", inst.Op, inst.Imm)
	}

	return inst.Op.String()
}

// Disassemble renders word as assembler source. Bits a format ignores are
// not shown, so Disassemble is not injective over arbitrary words.
func Disassemble(word uint16) string {
	return Decode(word).String()
}
