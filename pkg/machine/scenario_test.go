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

package machine_test

import (
	"bytes"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"golang.org/x/tools/txtar"

	"github.com/lassandro/gocpu16/pkg/assembler"
	"github.com/lassandro/gocpu16/pkg/encoding"
	"github.com/lassandro/gocpu16/pkg/machine"
)

type scenario struct {
	Config machine.Config
	Source []byte
	Want   []string
}

func loadScenario(t *testing.T, path string) *scenario {
	t.Helper()

	archive, err := txtar.ParseFile(path)

	if err != nil {
		t.Fatal(err)
	}

	var sc scenario

	for _, file := range archive.Files {
		switch file.Name {
		case "config":
			for _, line := range strings.Split(string(file.Data), "\n") {
				fields := strings.Fields(line)

				if len(fields) == 0 {
					continue
				}

				switch fields[0] {
				case "permissive":
					sc.Config.Permissive = true
				case "strict-sra":
					sc.Config.ArithmeticShift = true
				case "limit":
					limit, err := strconv.ParseUint(fields[1], 10, 64)

					if err != nil {
						t.Fatal(err)
					}

					sc.Config.CycleLimit = limit
				default:
					t.Fatalf("Unknown config line %q", line)
				}
			}

		case "program.asm":
			sc.Source = file.Data

		case "want":
			for _, line := range strings.Split(string(file.Data), "\n") {
				if strings.TrimSpace(line) != "" {
					sc.Want = append(sc.Want, line)
				}
			}
		}
	}

	if sc.Source == nil {
		t.Fatal("Scenario has no program.asm section")
	}

	rom, errs := assembler.Assemble(bytes.NewReader(sc.Source), nil)

	if len(errs) > 0 {
		t.Fatal(errs[0])
	}

	sc.Config.ROM = rom

	return &sc
}

func checkScenario(t *testing.T, sc *scenario, state machine.State, runErr error) {
	t.Helper()

	var wantErr string

	for _, line := range sc.Want {
		fields := strings.Fields(line)
		key := fields[0]

		if key == "ERROR" {
			wantErr = strings.Join(fields[1:], " ")
			continue
		}

		value, err := encoding.DecodeLiteral(fields[1])

		if err != nil {
			t.Fatalf("Bad expectation %q: %v", line, err)
		}

		var have int64

		switch {
		case strings.HasPrefix(key, "REG"):
			i, _ := strconv.Atoi(key[3:])
			have = int64(state.Registers[i])
		case strings.HasPrefix(key, "RAM"):
			addr, _ := strconv.Atoi(key[3:])
			have = int64(state.RAM[addr])
		case key == "EQUAL":
			if state.Equal {
				have = 1
			}
		case key == "PC":
			have = int64(state.Program)
		case key == "CYCLES":
			have = int64(state.Cycles)
		default:
			t.Fatalf("Unknown expectation %q", line)
		}

		if have != int64(value) {
			t.Errorf("%s mismatch\nwant:%d\nhave:%d", key, value, have)
		}
	}

	if wantErr == "" && runErr != nil {
		t.Fatalf("Run failed: %v", runErr)
	} else if wantErr != "" {
		if runErr == nil || !strings.Contains(runErr.Error(), wantErr) {
			t.Fatalf("Run error\nwant:%s\nhave:%v", wantErr, runErr)
		}
	}
}

func TestScenarios(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "*.txtar"))

	if err != nil {
		t.Fatal(err)
	}

	if len(files) == 0 {
		t.Fatal("No scenarios found")
	}

	for _, path := range files {
		name := strings.TrimSuffix(filepath.Base(path), ".txtar")

		t.Run(name, func(t *testing.T) {
			sc := loadScenario(t, path)

			mc, err := machine.New(sc.Config)

			if err != nil {
				t.Fatal(err)
			}

			runErr := mc.Run()

			checkScenario(t, sc, mc.Snapshot(), runErr)
		})
	}
}
