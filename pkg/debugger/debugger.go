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

package debugger

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/lassandro/gocpu16/pkg/isa"
	"github.com/lassandro/gocpu16/pkg/machine"
)

func (t WatchpointType) String() string {
	switch t {
	case ReadWatch:
		return "read"
	case WriteWatch:
		return "write"
	case ReadWriteWatch:
		return "readwrite"
	}

	return "<invalid>"
}

func ParseWatchpointType(s string) (WatchpointType, bool) {
	switch s {
	case "r", "read":
		return ReadWatch, true
	case "w", "write":
		return WriteWatch, true
	case "rw", "rwrite", "readwrite":
		return ReadWriteWatch, true
	}

	return 0, false
}

// Interrupt asks for a break after the current cycle. It is the only method
// safe to call from another goroutine, such as a signal handler.
func (dbg *Debugger) Interrupt() {
	dbg.interrupted.Store(true)
}

func (dbg *Debugger) Step(mc *machine.Machine) {
	if dbg.HandleBreak == nil {
		return
	}

	if dbg.interrupted.Swap(false) {
		dbg.Break = true
	}

	if dbg.Break {
		dbg.HandleBreak(dbg, mc)
		return
	}

	for _, breakpoint := range dbg.Breakpoints {
		if mc.Program() == breakpoint.Addr {
			dbg.HandleBreak(dbg, mc)
			break
		}
	}
}

func (dbg *Debugger) Read(addr uint16, mc *machine.Machine) {
	if dbg.HandleRead == nil {
		return
	}

	for _, watchpoint := range dbg.Watchpoints {
		if watchpoint.Type == WriteWatch {
			continue
		}

		if addr == watchpoint.Addr {
			dbg.HandleRead(addr, dbg, mc)
			break
		}
	}
}

func (dbg *Debugger) Write(addr uint16, mc *machine.Machine) {
	if dbg.HandleWrite == nil {
		return
	}

	for _, watchpoint := range dbg.Watchpoints {
		if watchpoint.Type == ReadWatch {
			continue
		}

		if addr == watchpoint.Addr {
			dbg.HandleWrite(addr, dbg, mc)
			break
		}
	}
}

// AddBreakpoint reports false when addr already has one.
func (dbg *Debugger) AddBreakpoint(addr uint16) bool {
	for _, breakpoint := range dbg.Breakpoints {
		if breakpoint.Addr == addr {
			return false
		}
	}

	dbg.Breakpoints = append(dbg.Breakpoints, Breakpoint{addr})
	return true
}

// RemoveBreakpoint drops breakpoint i. The last breakpoint takes its slot.
func (dbg *Debugger) RemoveBreakpoint(i int) error {
	if i < 0 || i >= len(dbg.Breakpoints) {
		return fmt.Errorf("Invalid breakpoint number %d", i)
	}

	dbg.Breakpoints[i] = dbg.Breakpoints[len(dbg.Breakpoints)-1]
	dbg.Breakpoints = dbg.Breakpoints[:len(dbg.Breakpoints)-1]
	return nil
}

// AddWatchpoint reports false when the same watchpoint already exists.
func (dbg *Debugger) AddWatchpoint(addr uint16, wtype WatchpointType) bool {
	for _, watchpoint := range dbg.Watchpoints {
		if watchpoint.Addr == addr && watchpoint.Type == wtype {
			return false
		}
	}

	dbg.Watchpoints = append(dbg.Watchpoints, Watchpoint{addr, wtype})
	return true
}

func (dbg *Debugger) RemoveWatchpoint(i int) error {
	if i < 0 || i >= len(dbg.Watchpoints) {
		return fmt.Errorf("Invalid watchpoint number %d", i)
	}

	dbg.Watchpoints[i] = dbg.Watchpoints[len(dbg.Watchpoints)-1]
	dbg.Watchpoints = dbg.Watchpoints[:len(dbg.Watchpoints)-1]
	return nil
}

// LookupLabel finds the address of a label in the symbol table.
func (dbg *Debugger) LookupLabel(name string) (uint16, bool) {
	if dbg.SymTable == nil {
		return 0, false
	}

	for addr, label := range dbg.SymTable.Labels {
		if label == name {
			return addr, true
		}
	}

	return 0, false
}

// Labels returns the labelled addresses in ascending order.
func (dbg *Debugger) Labels() []uint16 {
	if dbg.SymTable == nil {
		return nil
	}

	keys := make([]uint16, 0, len(dbg.SymTable.Labels))
	for addr := range dbg.SymTable.Labels {
		keys = append(keys, addr)
	}

	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func (dbg *Debugger) out() io.Writer {
	if dbg.Out == nil {
		return os.Stdout
	}

	return dbg.Out
}

func (dbg *Debugger) bold(s string) string {
	if !dbg.Color {
		return s
	}

	return "\033[1m" + s + "\033[0m"
}

func (dbg *Debugger) dim(s string) string {
	if !dbg.Color {
		return s
	}

	return "\033[1;30m" + s + "\033[0m"
}

func (dbg *Debugger) PrintSource(addr uint16, count uint16) {
	out := dbg.out()

	if dbg.Source == nil {
		fmt.Fprintln(out, "No source file loaded")
		return
	}

	if dbg.SymTable == nil {
		fmt.Fprintln(out, "No symbol table loaded")
		return
	}

	offset, exists := dbg.SymTable.Symbols[addr]

	if !exists {
		fmt.Fprintf(out, "No instruction found at %#04x\n", addr)
		return
	}

	if _, err := dbg.Source.Seek(offset, io.SeekStart); err != nil {
		fmt.Fprintln(out, err)
		return
	}

	// Lines that produced a word, keyed by where they start
	lines := make(map[int64]uint16, len(dbg.SymTable.Symbols))
	for lineaddr, linebyte := range dbg.SymTable.Symbols {
		if prev, seen := lines[linebyte]; !seen || lineaddr < prev {
			lines[linebyte] = lineaddr
		}
	}

	scanner := bufio.NewScanner(dbg.Source)
	scanner.Split(bufio.ScanLines)

	for i := uint16(0); i < count; i++ {
		if !scanner.Scan() {
			break
		}

		line := scanner.Text()

		if lineaddr, found := lines[offset]; found {
			fmt.Fprintf(out, "%s ", dbg.bold(fmt.Sprintf("[%#04x]", lineaddr)))
		} else {
			fmt.Fprintf(out, "%s ", dbg.dim("~~~~~~"))
		}

		fmt.Fprintln(out, line)

		offset += int64(len(line) + 1)
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintln(out, err)
	}
}

// PrintMem dumps count RAM words starting at addr, stopping at the end of
// RAM.
func (dbg *Debugger) PrintMem(state *machine.State, addr, count uint16) {
	out := dbg.out()

	columns := dbg.Columns
	if columns <= 0 {
		columns = 4
	}

	end := int(addr) + int(count)
	if end > machine.RAM_SIZE {
		end = machine.RAM_SIZE
	}

	for i := int(addr); i < end; i++ {
		if i == int(addr) {
			fmt.Fprintf(out, "%s ", dbg.bold(fmt.Sprintf("[%#04x]", i)))
		} else if (i-int(addr))%columns == 0 {
			fmt.Fprintln(out)
			fmt.Fprintf(out, "%s ", dbg.bold(fmt.Sprintf("[%#04x]", i)))
		}

		result := state.RAM[i]

		if result == 0 {
			fmt.Fprintf(out, "%s ", dbg.dim(fmt.Sprintf("%#04x", result)))
		} else {
			fmt.Fprintf(out, "%#04x ", result)
		}
	}

	fmt.Fprintln(out)
}

// PrintROM lists count instructions from addr with their disassembly. The
// next instruction to run is marked.
func (dbg *Debugger) PrintROM(state *machine.State, addr, count uint16) {
	out := dbg.out()

	end := int(addr) + int(count)
	if end > machine.ROM_SIZE {
		end = machine.ROM_SIZE
	}

	for i := int(addr); i < end; i++ {
		marker := " "
		if i == int(state.Program) {
			marker = ">"
		}

		word := state.ROM[i]

		fmt.Fprintf(
			out,
			"%s %s %04x  %s",
			marker,
			dbg.bold(fmt.Sprintf("[%#04x]", i)),
			word,
			isa.Disassemble(word),
		)

		if dbg.SymTable != nil {
			if label, exists := dbg.SymTable.Labels[uint16(i)]; exists {
				fmt.Fprintf(out, " %s", dbg.dim("("+label+")"))
			}
		}

		fmt.Fprintln(out)
	}
}

func (dbg *Debugger) PrintRegisters(state *machine.State) {
	out := dbg.out()

	for i, register := range state.Registers {
		fmt.Fprintf(out, "%s %#04x\t", dbg.bold(fmt.Sprintf("%s:", isa.Reg(i))), register)
		if i == (len(state.Registers)-1)/2 {
			fmt.Fprintln(out)
		}
	}

	fmt.Fprintln(out)

	equal := 0
	if state.Equal {
		equal = 1
	}

	fmt.Fprintf(
		out,
		"%s %#04x\t%s %d\t%s %d\n",
		dbg.bold("PC:"),
		state.Program,
		dbg.bold("EQ:"),
		equal,
		dbg.bold("CYCLES:"),
		state.Cycles,
	)
}
