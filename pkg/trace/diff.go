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

package trace

import (
	"fmt"

	"github.com/lassandro/gocpu16/pkg/isa"
	"github.com/lassandro/gocpu16/pkg/machine"
)

// MismatchError reports the first cycle at which two traces part ways. One
// of Want and Have is nil when a trace ran out first.
type MismatchError struct {
	Cycle int
	Want  *machine.TraceRecord
	Have  *machine.TraceRecord
}

func formatRecord(rec *machine.TraceRecord) string {
	if rec == nil {
		return "<end of trace>"
	}

	return fmt.Sprintf(
		"pc %d ir %#04x (%s) regs %v",
		rec.Program,
		rec.Word,
		isa.Disassemble(rec.Word),
		rec.Registers,
	)
}

func (err *MismatchError) Error() string {
	return fmt.Sprintf(
		"trace mismatch at cycle %d\n\twant:%s\n\thave:%s",
		err.Cycle,
		formatRecord(err.Want),
		formatRecord(err.Have),
	)
}

// Diff compares two traces record by record and returns a *MismatchError
// for the first difference, or nil when they are identical.
func Diff(want, have []machine.TraceRecord) error {
	for i := 0; i < len(want) || i < len(have); i++ {
		var w, h *machine.TraceRecord

		if i < len(want) {
			w = &want[i]
		}

		if i < len(have) {
			h = &have[i]
		}

		if w == nil || h == nil || *w != *h {
			return &MismatchError{i, w, h}
		}
	}

	return nil
}
