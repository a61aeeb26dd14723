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

// Package clilog formats logrus entries the way the command line tools
// print their diagnostics.
package clilog

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
)

const (
	ANSI_BOLD  = "\033[1m"
	ANSI_RESET = "\033[0m"
)

// PrefixFormatter writes "prefix: message key=value ..." lines with no level
// or timestamp. Fields are sorted by key.
type PrefixFormatter struct {
	Prefix string
	Bold   bool
}

func (f *PrefixFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var buf bytes.Buffer

	if f.Prefix != "" {
		if f.Bold {
			buf.WriteString(ANSI_BOLD + f.Prefix + ":" + ANSI_RESET + " ")
		} else {
			buf.WriteString(f.Prefix + ": ")
		}
	}

	buf.WriteString(entry.Message)

	keys := make([]string, 0, len(entry.Data))
	for key := range entry.Data {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	for _, key := range keys {
		fmt.Fprintf(&buf, " %s=%v", key, entry.Data[key])
	}

	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// New returns a logger writing to stderr through a PrefixFormatter.
func New(prefix string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&PrefixFormatter{Prefix: prefix})
	return logger
}
