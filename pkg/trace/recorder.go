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
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	dataframe "github.com/rocketlaunchr/dataframe-go"

	"github.com/lassandro/gocpu16/pkg/machine"
)

// Column names of a trace frame, in order.
const (
	COLUMN_PC = "pc"
	COLUMN_IR = "ir"
	COLUMN_R0 = "r0"
	COLUMN_R1 = "r1"
	COLUMN_R2 = "r2"
	COLUMN_R3 = "r3"
)

var columns = [...]string{
	COLUMN_PC,
	COLUMN_IR,
	COLUMN_R0,
	COLUMN_R1,
	COLUMN_R2,
	COLUMN_R3,
}

// Recorder keeps every record it is handed.
type Recorder struct {
	records []machine.TraceRecord
}

func (r *Recorder) Trace(rec machine.TraceRecord) {
	r.records = append(r.records, rec)
}

func (r *Recorder) Records() []machine.TraceRecord {
	return r.records
}

func (r *Recorder) Len() int {
	return len(r.records)
}

// Reset drops every record. Slices returned by Records before the reset
// keep their contents.
func (r *Recorder) Reset() {
	r.records = nil
}

func (r *Recorder) Frame() *dataframe.DataFrame {
	return Frame(r.records)
}

func fields(rec *machine.TraceRecord) [len(columns)]uint16 {
	return [len(columns)]uint16{
		rec.Program,
		rec.Word,
		rec.Registers[0],
		rec.Registers[1],
		rec.Registers[2],
		rec.Registers[3],
	}
}

// Frame lays records out as one int64 column per field. Registers are
// stored as unsigned word values.
func Frame(records []machine.TraceRecord) *dataframe.DataFrame {
	values := make([][]interface{}, len(columns))

	for i := range values {
		values[i] = make([]interface{}, 0, len(records))
	}

	for i := range records {
		for col, value := range fields(&records[i]) {
			values[col] = append(values[col], int64(value))
		}
	}

	series := make([]dataframe.Series, 0, len(columns))

	for col, name := range columns {
		series = append(series, dataframe.NewSeriesInt64(name, nil, values[col]...))
	}

	return dataframe.NewDataFrame(series...)
}

func toWord(value interface{}) (uint16, error) {
	var n int64

	switch v := value.(type) {
	case int64:
		n = v
	case int:
		n = int64(v)
	case int32:
		n = int64(v)
	case float64:
		if v != float64(int64(v)) {
			return 0, fmt.Errorf("%v is not a whole number", v)
		}

		n = int64(v)
	case json.Number:
		parsed, err := v.Int64()

		if err != nil {
			return 0, err
		}

		n = parsed
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(v), 0, 64)

		if err != nil {
			return 0, err
		}

		n = parsed
	case nil:
		return 0, fmt.Errorf("missing value")
	default:
		return 0, fmt.Errorf("unsupported value type %T", value)
	}

	// Signed register values are accepted as their two's complement word
	if n < -(1<<15) || n > 0xFFFF {
		return 0, fmt.Errorf("%d does not fit in 16 bits", n)
	}

	return uint16(n), nil
}

// FromFrame reads records back out of a frame with the columns Frame
// produces. Column names match without regard to case or order; extra
// columns are ignored.
func FromFrame(df *dataframe.DataFrame) ([]machine.TraceRecord, error) {
	var found [len(columns)]dataframe.Series

	for _, s := range df.Series {
		for col, name := range columns {
			if strings.EqualFold(strings.TrimSpace(s.Name()), name) {
				found[col] = s
			}
		}
	}

	rows := -1

	for col, s := range found {
		if s == nil {
			return nil, fmt.Errorf("trace frame has no %q column", columns[col])
		}

		if rows < 0 {
			rows = s.NRows()
		} else if s.NRows() != rows {
			return nil, fmt.Errorf("trace frame column %q has %d rows, want %d", columns[col], s.NRows(), rows)
		}
	}

	records := make([]machine.TraceRecord, rows)

	for row := range records {
		var words [len(columns)]uint16

		for col, s := range found {
			word, err := toWord(s.Value(row))

			if err != nil {
				return nil, fmt.Errorf("row %d column %q: %w", row, columns[col], err)
			}

			words[col] = word
		}

		records[row] = machine.TraceRecord{
			Program:   words[0],
			Word:      words[1],
			Registers: [machine.TRACE_REGISTERS]uint16{words[2], words[3], words[4], words[5]},
		}
	}

	return records, nil
}
