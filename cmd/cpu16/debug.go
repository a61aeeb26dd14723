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

package main

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/lassandro/gocpu16/pkg/debugger"
	"github.com/lassandro/gocpu16/pkg/encoding"
	"github.com/lassandro/gocpu16/pkg/isa"
	"github.com/lassandro/gocpu16/pkg/machine"
)

var lastcmd []string

var stdin = bufio.NewScanner(os.Stdin)

// parseAddr accepts a hex address, a decimal address or a label.
func parseAddr(dbg *debugger.Debugger, s string) (uint16, error) {
	if addr, ok := dbg.LookupLabel(s); ok {
		return addr, nil
	}

	value, err := encoding.DecodeLiteral(s)

	if err != nil {
		return 0, err
	}

	if value < 0 || value > math.MaxUint8 {
		return 0, fmt.Errorf("Address %s out of range", s)
	}

	return uint16(value), nil
}

func parseWord(s string) (uint16, error) {
	words, err := encoding.DecodeWords(s)

	if err != nil {
		return 0, err
	}

	if len(words) != 1 {
		return 0, fmt.Errorf("Expected one value, have %d", len(words))
	}

	return words[0], nil
}

func listFormat(count int) string {
	digits := math.Floor(math.Log10(float64(count + 1)))
	return fmt.Sprintf("#%%0%dd: %%#04x %%s\n", int64(digits)+1)
}

func debugBreak(dbg *debugger.Debugger, args []string) {
	if len(args) == 0 {
		args = append(args, "l")
	}

	cmd := args[0]
	args = args[1:]

	switch cmd {
	case "a", "add":
		const usage = "break add [0x##|label]"

		if len(args) != 1 {
			logger.Println(usage)
			return
		}

		addr, err := parseAddr(dbg, args[0])

		if err != nil {
			logger.Println(err)
			return
		}

		if dbg.AddBreakpoint(addr) {
			fmt.Printf("Breakpoint added [%#04x]\n", addr)
		}

	case "l", "ls", "list":
		const usage = "break list"

		if len(args) != 0 {
			logger.Println(usage)
			return
		}

		fmtstring := listFormat(len(dbg.Breakpoints))

		for i, breakpoint := range dbg.Breakpoints {
			label := ""
			if dbg.SymTable != nil {
				label = dbg.SymTable.Labels[breakpoint.Addr]
			}

			fmt.Printf(fmtstring, i, breakpoint.Addr, label)
		}

	case "r", "rm", "remove":
		const usage = "break remove [#]"

		if len(args) != 1 {
			logger.Println(usage)
			return
		}

		i, err := strconv.Atoi(args[0])

		if err != nil {
			logger.Println(err)
			return
		}

		if err := dbg.RemoveBreakpoint(i); err != nil {
			logger.Println(err)
			return
		}

		fmt.Printf("Breakpoint removed [%d]\n", i)

	case "clear":
		dbg.Breakpoints = nil
		fmt.Println("Breakpoints reset")

	default:
		logger.Printf("break: '%s' is not a valid command", cmd)
	}
}

func debugWatch(dbg *debugger.Debugger, args []string) {
	const usage = "watch [add|list|rm|clear]"

	if len(args) == 0 {
		logger.Println(usage)
		return
	}

	cmd := args[0]
	args = args[1:]

	switch cmd {
	case "a", "add":
		const usage = "watch add [0x##|label] [read|write|readwrite]"

		if len(args) != 2 {
			logger.Println(usage)
			return
		}

		addr, err := parseAddr(dbg, args[0])

		if err != nil {
			logger.Println(err)
			return
		}

		wtype, ok := debugger.ParseWatchpointType(args[1])

		if !ok {
			logger.Println(usage)
			return
		}

		if dbg.AddWatchpoint(addr, wtype) {
			fmt.Printf("Watchpoint added [%#04x] (%s)\n", addr, wtype)
		}

	case "l", "ls", "list":
		const usage = "watch list"

		if len(args) != 0 {
			logger.Println(usage)
			return
		}

		fmtstring := listFormat(len(dbg.Watchpoints))

		for i, watchpoint := range dbg.Watchpoints {
			fmt.Printf(fmtstring, i, watchpoint.Addr, watchpoint.Type)
		}

	case "r", "rm", "remove":
		const usage = "watch rm [#]"

		if len(args) != 1 {
			logger.Println(usage)
			return
		}

		i, err := strconv.Atoi(args[0])

		if err != nil {
			logger.Println(err)
			return
		}

		if err := dbg.RemoveWatchpoint(i); err != nil {
			logger.Println(err)
			return
		}

		fmt.Printf("Watchpoint removed [%d]\n", i)

	case "clear":
		dbg.Watchpoints = nil
		fmt.Println("Watchpoints reset")

	default:
		logger.Printf("watch: '%s' is not a valid command", cmd)
	}
}

func debugReg(dbg *debugger.Debugger, mc *machine.Machine, args []string) {
	const usage = "register [REG#|PC|EQ] [value]"

	if len(args) == 0 {
		state := mc.Snapshot()
		dbg.PrintRegisters(&state)
		return
	}

	if len(args) != 2 {
		logger.Println(usage)
		return
	}

	value, err := parseWord(args[1])

	if err != nil {
		logger.Println(err)
		return
	}

	name := strings.ToUpper(args[0])

	if reg, ok := isa.ParseReg(name); ok {
		if err := mc.WriteReg(int(reg), value); err != nil {
			logger.Println(err)
			return
		}
	} else if name == "PC" {
		if err := mc.SetProgram(value); err != nil {
			logger.Println(err)
			return
		}
	} else if name == "EQ" {
		mc.SetEqual(value != 0)
	} else {
		logger.Println("Invalid register")
		return
	}

	fmt.Printf("%s: %#04x\n", name, value)
}

// Both arguments are optional: an address (or label) and a count. A lone
// decimal count applies to the current PC.
func parseRange(dbg *debugger.Debugger, args []string, addr, count uint16) (uint16, uint16, bool) {
	if len(args) > 2 {
		return 0, 0, false
	}

	if len(args) == 1 && !strings.ContainsAny(args[0], "xX") {
		if _, isLabel := dbg.LookupLabel(args[0]); !isLabel {
			value, err := strconv.ParseUint(args[0], 10, 16)

			if err != nil {
				logger.Println(err)
				return 0, 0, false
			}

			return addr, uint16(value), true
		}
	}

	if len(args) > 0 {
		var err error

		if addr, err = parseAddr(dbg, args[0]); err != nil {
			logger.Println(err)
			return 0, 0, false
		}
	}

	if len(args) > 1 {
		value, err := strconv.ParseUint(args[1], 10, 16)

		if err != nil {
			logger.Println(err)
			return 0, 0, false
		}

		count = uint16(value)
	}

	return addr, count, true
}

func debugSource(dbg *debugger.Debugger, mc *machine.Machine, args []string) {
	const usage = "source [0x##|label] [#]"

	if dbg.SymTable == nil {
		fmt.Println("No symbol table loaded")
		return
	}

	addr, count, ok := parseRange(dbg, args, mc.Program(), 3)

	if !ok {
		logger.Println(usage)
		return
	}

	dbg.PrintSource(addr, count)
}

func debugROM(dbg *debugger.Debugger, mc *machine.Machine, args []string) {
	const usage = "rom [0x##|label] [#]"

	addr, count, ok := parseRange(dbg, args, mc.Program(), 8)

	if !ok {
		logger.Println(usage)
		return
	}

	state := mc.Snapshot()
	dbg.PrintROM(&state, addr, count)
}

func debugLabels(dbg *debugger.Debugger, args []string) {
	const usage = "labels"

	if len(args) > 0 {
		fmt.Println(usage)
		return
	}

	if dbg.SymTable == nil {
		fmt.Println("No symbol table loaded")
		return
	}

	for _, addr := range dbg.Labels() {
		fmt.Printf("[%#04x] %s\n", addr, dbg.SymTable.Labels[addr])
	}
}

func debugJump(dbg *debugger.Debugger, mc *machine.Machine, args []string) {
	const usage = "jump [0x##|label]"

	if len(args) != 1 {
		fmt.Println(usage)
		return
	}

	addr, err := parseAddr(dbg, args[0])

	if err != nil {
		logger.Println(err)
		return
	}

	if err := mc.SetProgram(addr); err != nil {
		logger.Println(err)
		return
	}

	fmt.Printf("PC: %#04x\n", addr)
}

func debugMemory(dbg *debugger.Debugger, mc *machine.Machine, args []string) {
	const usage = "memory [0x##|#] [#]"

	addr, count, ok := parseRange(dbg, args, machine.OUTPUT_PORT, 1)

	if !ok {
		logger.Println(usage)
		return
	}

	state := mc.Snapshot()
	dbg.PrintMem(&state, addr, count)
}

func debugSet(dbg *debugger.Debugger, mc *machine.Machine, args []string) {
	const usage = "set [0x##|label] [value]"

	if len(args) != 2 {
		logger.Println(usage)
		return
	}

	addr, err := parseAddr(dbg, args[0])

	if err != nil {
		logger.Println(err)
		return
	}

	value, err := parseWord(args[1])

	if err != nil {
		logger.Println(err)
		return
	}

	if err := mc.WriteRAM(int(addr), value); err != nil {
		logger.Println(err)
		return
	}

	state := mc.Snapshot()
	dbg.PrintMem(&state, addr, 1)
}

func debugREPL(dbg *debugger.Debugger, mc *machine.Machine) {
	for {
		fmt.Print("(dbg) ")

		if !stdin.Scan() {
			fmt.Println()
			shouldexit = true
			return
		}

		args := strings.Fields(stdin.Text())

		if len(args) == 0 {
			if len(lastcmd) == 0 {
				continue
			}
			args = lastcmd
		} else {
			lastcmd = make([]string, len(args))
			copy(lastcmd, args)
		}

		cmd := args[0]
		args = args[1:]

		switch cmd {
		case "b", "bp", "break", "breakpoint":
			debugBreak(dbg, args)

		case "w", "wp", "watch", "watchpoint":
			debugWatch(dbg, args)

		case "r", "reg", "register", "registers":
			debugReg(dbg, mc, args)

		case "s", "src", "source":
			debugSource(dbg, mc, args)

		case "rom", "disasm":
			debugROM(dbg, mc, args)

		case "l", "label", "labels":
			debugLabels(dbg, args)

		case "j", "jmp", "jump":
			debugJump(dbg, mc, args)

		case "m", "mem", "memory":
			debugMemory(dbg, mc, args)

		case "set":
			debugSet(dbg, mc, args)

		case "c", "continue":
			dbg.Break = false
			return

		case "n", "next":
			dbg.Break = true
			return

		case "q", "quit", "exit":
			shouldexit = true
			return

		case "clear":
			fmt.Print("\033[H\033[2J")

		case "reset":
			mc.Reset()
			fmt.Println("Machine reset")

		default:
			fmt.Printf("error: '%s' is not a valid command\n", cmd)
		}
	}
}

func handleBreak(dbg *debugger.Debugger, mc *machine.Machine) {
	if mc.Halted() {
		fmt.Println("Program halted")
	} else if !dbg.Break {
		fmt.Println()
		fmt.Println("Program stopped")
		dbg.PrintSource(mc.Program(), 8)
	}

	debugREPL(dbg, mc)
}

func handleRead(addr uint16, dbg *debugger.Debugger, mc *machine.Machine) {
	fmt.Println()
	fmt.Println("Program stopped (read)")
	state := mc.Snapshot()
	dbg.PrintMem(&state, addr, 1)
	debugREPL(dbg, mc)
}

func handleWrite(addr uint16, dbg *debugger.Debugger, mc *machine.Machine) {
	fmt.Println()
	fmt.Println("Program stopped (write)")
	state := mc.Snapshot()
	dbg.PrintMem(&state, addr, 1)
	debugREPL(dbg, mc)
}
