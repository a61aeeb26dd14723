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
	"context"
	"encoding/gob"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/k0kubun/pp/v3"
	"github.com/sirupsen/logrus"

	"github.com/lassandro/gocpu16/pkg/assembler"
	"github.com/lassandro/gocpu16/pkg/clilog"
	"github.com/lassandro/gocpu16/pkg/debugger"
	"github.com/lassandro/gocpu16/pkg/encoding"
	"github.com/lassandro/gocpu16/pkg/machine"
	"github.com/lassandro/gocpu16/pkg/program"
	"github.com/lassandro/gocpu16/pkg/trace"
)

var helpvar bool
var debugvar bool
var verbosevar bool
var quietvar bool
var disasmvar bool
var dumpvar bool
var permissivevar bool
var strictvar bool
var limitvar uint64
var regsvar string
var traceoutvar string
var expectvar string

var shouldexit bool

var logger = clilog.New("")

const usage = "cpu16 [flags] [filename.bin|filename.asm]"

const SYMTABLE_EXT = ".cpu16db"

func init() {
	exe, _ := os.Executable()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&clilog.PrefixFormatter{Prefix: filepath.Base(exe)})
}

func init() {
	flag.BoolVar(&helpvar, "help", false, "Displays command usage")
	flag.BoolVar(&debugvar, "debug", false, "Runs the machine in a debug CLI")
	flag.BoolVar(&verbosevar, "v", false, "Logs every cycle to stderr")
	flag.BoolVar(&quietvar, "quiet", false, "Suppresses the per-cycle trace")
	flag.BoolVar(
		&disasmvar, "disasm", false,
		"Appends the disassembled instruction to each trace line",
	)
	flag.BoolVar(&dumpvar, "dump", false, "Dumps the final machine state")
	flag.BoolVar(
		&permissivevar, "permissive", false,
		"Treats undefined opcodes as no-ops instead of stopping the machine",
	)
	flag.BoolVar(
		&strictvar, "strict-sra", false,
		"Makes SRA a sign-extending shift instead of preserving bit 15 only",
	)
	flag.Uint64Var(
		&limitvar, "limit", 0,
		"Stops the machine after this many cycles (0 for no limit)",
	)
	flag.StringVar(
		&regsvar, "regs", "",
		"Comma separated initial values for REG0 onwards",
	)
	flag.StringVar(
		&traceoutvar, "trace-out", "",
		"Writes the trace to a .csv or .json file",
	)
	flag.StringVar(
		&expectvar, "expect", "",
		"Compares the trace against a .csv, .json or .parquet golden trace",
	)
}

// loadROM reads the program named on the command line. Assembly sources are
// assembled in place; anything else is a big-endian ROM image.
func loadROM(args []string, dbg *debugger.Debugger) ([]uint16, error) {
	if len(args) == 0 {
		return program.SumOneToTen(), nil
	}

	file, err := os.Open(args[0])

	if err != nil {
		return nil, err
	}

	defer file.Close()

	if strings.EqualFold(filepath.Ext(args[0]), ".asm") {
		var symtable *assembler.SymTable

		if dbg != nil {
			symtable = assembler.NewSymTable(args[0])
		}

		rom, errs := assembler.Assemble(file, symtable)

		if len(errs) > 0 {
			for _, err := range errs[1:] {
				logger.Println(err)
			}

			return nil, errs[0]
		}

		if dbg != nil {
			dbg.SymTable = symtable
		}

		return rom, nil
	}

	rom, err := encoding.ReadImage(file, machine.ROM_SIZE)

	if err != nil {
		return nil, fmt.Errorf("%s: %w", args[0], err)
	}

	if dbg != nil {
		loadSymTable(args[0], dbg)
	}

	return rom, nil
}

func loadSymTable(binary string, dbg *debugger.Debugger) {
	filename := strings.TrimSuffix(binary, filepath.Ext(binary)) + SYMTABLE_EXT

	file, err := os.Open(filename)

	if err != nil {
		logger.WithError(err).Println("Error loading symbol file")
		return
	}

	defer file.Close()

	var symtable assembler.SymTable

	if err := gob.NewDecoder(file).Decode(&symtable); err != nil {
		logger.WithError(err).Println("Error loading symbol file")
		return
	}

	dbg.SymTable = &symtable
}

type summary struct {
	Registers [machine.REGISTER_COUNT]int16
	Program   uint16
	Equal     bool
	Cycles    uint64
	Halted    bool
	RAM       map[uint16]int16
}

func dumpState(out io.Writer, state *machine.State) {
	s := summary{
		Program: state.Program,
		Equal:   state.Equal,
		Cycles:  state.Cycles,
		Halted:  state.Halted,
		RAM:     make(map[uint16]int16),
	}

	for i, value := range state.Registers {
		s.Registers[i] = int16(value)
	}

	for addr, value := range state.RAM {
		if value != 0 {
			s.RAM[uint16(addr)] = int16(value)
		}
	}

	pp.Default.SetColoringEnabled(isTerminal(os.Stdout))
	pp.Fprintln(out, s)
}

func cpu16() int {
	if helpvar {
		fmt.Println(usage)
		flag.PrintDefaults()
		return 0
	}

	args := flag.Args()

	if len(args) > 1 {
		logger.Println(usage)
		return 1
	}

	if verbosevar {
		logger.SetLevel(logrus.DebugLevel)
	}

	regs, err := encoding.DecodeWords(regsvar)

	if err != nil {
		logger.WithError(err).Println("Invalid -regs value")
		return 1
	}

	var dbg *debugger.Debugger

	if debugvar {
		dbg = &debugger.Debugger{
			HandleBreak: handleBreak,
			HandleRead:  handleRead,
			HandleWrite: handleWrite,
			Color:       isTerminal(os.Stdout),
			Columns:     memColumns(termWidth(os.Stdout)),
		}
	}

	rom, err := loadROM(args, dbg)

	if err != nil {
		logger.Println(err)
		return 1
	}

	if dbg != nil && dbg.SymTable != nil && dbg.SymTable.Source != "" {
		if file, err := os.Open(dbg.SymTable.Source); err == nil {
			dbg.Source = file
			defer file.Close()
		} else {
			logger.WithError(err).Println("Error loading source file")
		}
	}

	stdout := bufio.NewWriter(os.Stdout)
	defer stdout.Flush()

	var tracers trace.Tee
	var printer *trace.Printer
	var recorder *trace.Recorder

	if !quietvar {
		printer = trace.NewPrinter(stdout)
		printer.Disasm = disasmvar
		printer.Color = isTerminal(os.Stdout)
		tracers = append(tracers, printer)
	}

	if traceoutvar != "" || expectvar != "" {
		recorder = new(trace.Recorder)
		tracers = append(tracers, recorder)
	}

	cfg := machine.Config{
		ROM:              rom,
		CycleLimit:       limitvar,
		InitialRegisters: regs,
		Permissive:       permissivevar,
		ArithmeticShift:  strictvar,
		Tracer:           tracers,
	}

	if verbosevar {
		cfg.Logger = logger
	}

	if dbg != nil {
		cfg.Debugger = dbg
	}

	mc, err := machine.New(cfg)

	if err != nil {
		logger.Println(err)
		return 1
	}

	if dbg != nil {
		// Debug output goes straight to the terminal
		if printer != nil {
			printer.Disasm = true
		}

		stdout.Flush()
		dbg.Out = os.Stdout

		c := make(chan os.Signal, 1)
		defer close(c)

		signal.Notify(c, os.Interrupt)
		defer signal.Stop(c)

		go func() {
			for range c {
				fmt.Println()
				dbg.Interrupt()
			}
		}()

		debugREPL(dbg, mc)
	}

	var runErr error

	for !shouldexit {
		halted, err := mc.Step()

		if err != nil {
			runErr = err
			break
		}

		if halted {
			break
		}
	}

	if printer != nil {
		if err := printer.Flush(); err != nil {
			logger.Println(err)
			return 1
		}
	}

	if runErr != nil {
		logger.Println(runErr)
		return 1
	}

	if shouldexit {
		return 0
	}

	output, _ := mc.ReadRAM(int(machine.OUTPUT_PORT))
	fmt.Fprintf(stdout, "ram[%d] = %d\n", machine.OUTPUT_PORT, int16(output))

	if dumpvar {
		state := mc.Snapshot()
		dumpState(stdout, &state)
	}

	ctx := context.Background()

	if traceoutvar != "" {
		if err := trace.ExportFile(ctx, traceoutvar, recorder.Records()); err != nil {
			logger.WithError(err).Println("Error writing trace")
			return 1
		}
	}

	if expectvar != "" {
		want, err := trace.LoadFile(ctx, expectvar)

		if err != nil {
			logger.WithError(err).Println("Error loading golden trace")
			return 1
		}

		if err := trace.Diff(want, recorder.Records()); err != nil {
			logger.Println(err)
			return 1
		}
	}

	return 0
}

func main() {
	flag.Parse()
	os.Exit(cpu16())
}
