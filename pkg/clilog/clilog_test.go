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

package clilog

import (
	"bytes"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestPrefixFormatter(t *testing.T) {
	type testCase struct {
		Name      string
		Formatter PrefixFormatter
		Fields    logrus.Fields
		Message   string
		Expected  string
	}

	testCases := []testCase{
		{
			Name:      "Plain",
			Formatter: PrefixFormatter{Prefix: "cpu16"},
			Message:   "hello",
			Expected:  "cpu16: hello\n",
		},
		{
			Name:      "No Prefix",
			Formatter: PrefixFormatter{},
			Message:   "hello",
			Expected:  "hello\n",
		},
		{
			Name:      "Bold",
			Formatter: PrefixFormatter{Prefix: "sum.asm", Bold: true},
			Message:   "oops",
			Expected:  "\033[1msum.asm:\033[0m oops\n",
		},
		{
			Name:      "Sorted Fields",
			Formatter: PrefixFormatter{Prefix: "cpu16"},
			Fields:    logrus.Fields{"pc": 3, "cycle": 7},
			Message:   "step",
			Expected:  "cpu16: step cycle=7 pc=3\n",
		},
		{
			Name:      "Error Field",
			Formatter: PrefixFormatter{Prefix: "cpu16"},
			Fields:    logrus.Fields{logrus.ErrorKey: errors.New("bad")},
			Message:   "failed",
			Expected:  "cpu16: failed error=bad\n",
		},
	}

	for _, test := range testCases {
		t.Run(test.Name, func(t *testing.T) {
			entry := logrus.NewEntry(logrus.New()).WithFields(test.Fields)
			entry.Message = test.Message

			result, err := test.Formatter.Format(entry)

			if err != nil {
				t.Fatalf("Unexpected error: %s", err)
			}

			if string(result) != test.Expected {
				t.Errorf("Output mismatch\nwant: %q\nhave: %q", test.Expected, result)
			}
		})
	}
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer

	logger := New("cpu16-asm")
	logger.SetOutput(&buf)
	logger.Println("ready")
	logger.Debug("hidden")

	if buf.String() != "cpu16-asm: ready\n" {
		t.Errorf("Output mismatch\nwant: %q\nhave: %q", "cpu16-asm: ready\n", buf.String())
	}
}
