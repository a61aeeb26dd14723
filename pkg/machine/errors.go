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
	"errors"
	"fmt"
)

var (
	ErrInvalidRegister  = errors.New("invalid register index")
	ErrInvalidAddress   = errors.New("invalid memory address")
	ErrInvalidOpcode    = errors.New("invalid opcode")
	ErrCycleLimit       = errors.New("cycle limit exceeded")
	ErrROMTooLarge      = errors.New("ROM image exceeds 256 words")
	ErrTooManyRegisters = errors.New("more than 8 initial register values")
	ErrHalted           = errors.New("machine is halted")
)

func (r Region) String() string {
	switch r {
	case REGION_REGISTERS:
		return "register"
	case REGION_ROM:
		return "ROM"
	case REGION_RAM:
		return "RAM"
	}

	return "<invalid>"
}

type RegisterError struct {
	Index int
}

func (err *RegisterError) Error() string {
	return fmt.Sprintf("register %d: %v", err.Index, ErrInvalidRegister)
}

func (err *RegisterError) Unwrap() error {
	return ErrInvalidRegister
}

type AddressError struct {
	Region Region
	Addr   int
}

func (err *AddressError) Error() string {
	return fmt.Sprintf("%s[%d]: %v", err.Region, err.Addr, ErrInvalidAddress)
}

func (err *AddressError) Unwrap() error {
	return ErrInvalidAddress
}

type ConfigError struct {
	Field string
	Err   error
}

func (err *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %v", err.Field, err.Err)
}

func (err *ConfigError) Unwrap() error {
	return err.Err
}

// CycleError aborts a run. Program and Word identify the instruction that
// failed; Cycle counts the cycles committed before it.
type CycleError struct {
	Program uint16
	Word    uint16
	Cycle   uint64
	Err     error
}

func (err *CycleError) Error() string {
	return fmt.Sprintf(
		"pc %d (ir %#04x, cycle %d): %v",
		err.Program,
		err.Word,
		err.Cycle,
		err.Err,
	)
}

func (err *CycleError) Unwrap() error {
	return err.Err
}
