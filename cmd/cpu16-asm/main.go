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
	"bytes"
	"encoding/gob"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/k0kubun/pp/v3"
	"golang.org/x/term"

	"github.com/lassandro/gocpu16/pkg/assembler"
	"github.com/lassandro/gocpu16/pkg/clilog"
	"github.com/lassandro/gocpu16/pkg/encoding"
)

var helpvar bool
var debugvar bool
var verbosevar bool
var outvar string

var logger = clilog.New("")

const usage = "cpu16-asm [-debug] [-v] [-out outfile] filename"

const SYMTABLE_EXT = ".cpu16db"

func init() {
	flag.BoolVar(&helpvar, "help", false, "Displays command usage")
	flag.BoolVar(
		&debugvar, "debug", false,
		"Specifies whether to generate debugging information as a symbol "+
			"table. The table will use the output filename with extension "+
			"'"+SYMTABLE_EXT+"'",
	)
	flag.BoolVar(
		&verbosevar, "v", false,
		"Prints the symbol table after a successful assembly",
	)
	flag.StringVar(
		&outvar, "out", "",
		"Specifies a precise name for the output file, "+
			"overriding the default means of determining it",
	)
}

// isPipe reports whether f is something other than a terminal. A file that
// cannot be inspected is treated as a terminal.
func isPipe(f *os.File) bool {
	stat, err := f.Stat()

	if err != nil {
		return false
	}

	return stat.Mode()&os.ModeCharDevice == 0
}

func setPrefix(name string) {
	logger.SetFormatter(&clilog.PrefixFormatter{
		Prefix: name,
		Bold:   term.IsTerminal(int(os.Stderr.Fd())),
	})
}

func printErrors(input io.ReadSeeker, errs []error) {
	for _, err := range errs {
		tokenErr, ok := err.(assembler.TokenError)

		if !ok || input == nil {
			logger.Println(err)
			continue
		}

		cursor := tokenErr.GetPosition()

		if _, err := input.Seek(cursor.LineByte, io.SeekStart); err != nil {
			logger.Println(err)
			continue
		}

		line, _ := bufio.NewReader(input).ReadString('\n')
		line = strings.TrimRight(line, "\r\n")

		size := int(cursor.Size)
		if size < 1 {
			size = 1
		}

		underlinefmt := fmt.Sprintf(
			"%% %ds%s",
			int(cursor.Byte-cursor.LineByte)+1,
			strings.Repeat("~", size-1),
		)

		logger.Printf(
			"%s\n%s\n\033[31m%s\033[0m",
			err,
			line,
			fmt.Sprintf(underlinefmt, "^"),
		)
	}
}

func writeSymTable(symtable *assembler.SymTable) error {
	filename := strings.TrimSuffix(outvar, filepath.Ext(outvar)) + SYMTABLE_EXT

	file, err := os.Create(filename)

	if err != nil {
		return fmt.Errorf("Error creating symbol table: %w", err)
	}

	defer file.Close()

	if err := gob.NewEncoder(file).Encode(symtable); err != nil {
		return fmt.Errorf("Error writing symbol table: %w", err)
	}

	return nil
}

func cpu16_asm() int {
	if helpvar {
		fmt.Println(usage)
		flag.PrintDefaults()
		return 0
	}

	args := flag.Args()

	var infile string
	var input io.Reader
	var seeker io.ReadSeeker

	if len(args) == 0 && isPipe(os.Stdin) {
		// Stdin may be a pipe, so errors are reported without source lines.
		input = os.Stdin
		setPrefix("<stdin>")

		if outvar == "" {
			outvar = "out.bin"
		}
	} else {
		if len(args) != 1 {
			logger.Println(usage)
			return 1
		}

		file, err := os.Open(args[0])

		if err != nil {
			logger.Println(err)
			return 1
		}

		defer file.Close()

		filename := filepath.Base(file.Name())

		if stat, err := file.Stat(); err != nil {
			logger.Println(err)
			return 1
		} else if stat.IsDir() {
			logger.Printf("%s is not a valid assembly file", filename)
			return 1
		}

		input = file
		seeker = file
		infile = file.Name()
		setPrefix(filename)

		if outvar == "" {
			outvar = strings.TrimSuffix(filename, filepath.Ext(filename)) + ".bin"
		}
	}

	var symtable *assembler.SymTable

	if debugvar || verbosevar {
		source := ""

		if infile != "" {
			var err error
			if source, err = filepath.Abs(infile); err != nil {
				logger.Println(err)
				source = ""
			}
		}

		symtable = assembler.NewSymTable(source)
	}

	result, errs := assembler.Assemble(input, symtable)

	if len(errs) > 0 {
		printErrors(seeker, errs)
		return 1
	}

	buffer := new(bytes.Buffer)

	if err := encoding.WriteImage(buffer, result); err != nil {
		logger.WithError(err).Println("Error writing output file")
		return 1
	}

	if err := os.WriteFile(outvar, buffer.Bytes(), 0666); err != nil {
		logger.WithError(err).Println("Error writing output file")
		return 1
	}

	if debugvar {
		if err := writeSymTable(symtable); err != nil {
			logger.Println(err)
			return 1
		}
	}

	if verbosevar {
		pp.Default.SetColoringEnabled(term.IsTerminal(int(os.Stdout.Fd())))
		pp.Println(symtable)
	}

	return 0
}

func main() {
	flag.Parse()
	os.Exit(cpu16_asm())
}
