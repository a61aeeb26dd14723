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
	"os"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

const defaultTermWidth = 80

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func termWidth(f *os.File) int {
	ws, err := unix.IoctlGetWinsize(int(f.Fd()), unix.TIOCGWINSZ)

	if err != nil || ws.Col == 0 {
		return defaultTermWidth
	}

	return int(ws.Col)
}

// memColumns fits as many "0x0000 " cells after a "[0x00] " row header as
// the terminal allows, in powers of two between 4 and 16.
func memColumns(width int) int {
	const cell = 7

	columns := 4
	for columns < 16 && cell*(2*columns+1) <= width {
		columns *= 2
	}

	return columns
}
