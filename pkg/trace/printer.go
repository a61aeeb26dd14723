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

// Package trace collects, prints, stores and compares the per-cycle records
// a machine emits.
package trace

import (
	"fmt"
	"io"

	"github.com/lassandro/gocpu16/pkg/isa"
	"github.com/lassandro/gocpu16/pkg/machine"
)

const (
	ANSI_DIM   = "\x1b[2m"
	ANSI_RESET = "\x1b[0m"
)

type flusher interface {
	Flush() error
}

// Printer writes one fixed-width line per cycle: pc in decimal, the
// instruction word in hex, then REG0..REG3 as signed decimals. A buffered
// writer is flushed after every line, so a run that is killed still leaves
// whole records behind.
type Printer struct {
	// Append the disassembled instruction to each line.
	Disasm bool

	// Dim the disassembly column with ANSI escapes.
	Color bool

	out io.Writer
	err error
}

func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

func (p *Printer) Trace(rec machine.TraceRecord) {
	if p.err != nil {
		return
	}

	_, p.err = fmt.Fprintf(
		p.out,
		" %5d  %5x  %5d  %5d  %5d  %5d",
		rec.Program,
		rec.Word,
		int16(rec.Registers[0]),
		int16(rec.Registers[1]),
		int16(rec.Registers[2]),
		int16(rec.Registers[3]),
	)

	if p.err == nil && p.Disasm {
		if p.Color {
			_, p.err = fmt.Fprintf(p.out, "  %s%s%s", ANSI_DIM, isa.Disassemble(rec.Word), ANSI_RESET)
		} else {
			_, p.err = fmt.Fprintf(p.out, "  %s", isa.Disassemble(rec.Word))
		}
	}

	if p.err == nil {
		_, p.err = io.WriteString(p.out, "\n")
	}

	if f, ok := p.out.(flusher); ok && p.err == nil {
		p.err = f.Flush()
	}
}

// Flush flushes the underlying writer when it buffers, and reports the first
// write error seen.
func (p *Printer) Flush() error {
	if f, ok := p.out.(flusher); ok && p.err == nil {
		p.err = f.Flush()
	}

	return p.err
}

func (p *Printer) Err() error {
	return p.err
}

// Tee fans each record out to every tracer in order.
type Tee []machine.Tracer

func (t Tee) Trace(rec machine.TraceRecord) {
	for _, tracer := range t {
		tracer.Trace(rec)
	}
}
