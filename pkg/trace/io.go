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
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	dataframe "github.com/rocketlaunchr/dataframe-go"
	"github.com/rocketlaunchr/dataframe-go/exports"
	"github.com/rocketlaunchr/dataframe-go/imports"
	"github.com/xitongsys/parquet-go-source/local"

	"github.com/lassandro/gocpu16/pkg/machine"
)

type Format uint

const (
	FORMAT_INVALID Format = iota
	FORMAT_CSV
	FORMAT_JSON
	FORMAT_PARQUET
)

var (
	ErrUnknownFormat = errors.New("unknown trace format")
	ErrEmptyTrace    = errors.New("empty trace file")
)

func (f Format) String() string {
	switch f {
	case FORMAT_CSV:
		return "csv"
	case FORMAT_JSON:
		return "json"
	case FORMAT_PARQUET:
		return "parquet"
	}

	return "<invalid>"
}

// FormatFromPath picks a format from a file extension. JSON traces are one
// object per line, so .jsonl is accepted as well.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FORMAT_CSV
	case ".json", ".jsonl":
		return FORMAT_JSON
	case ".parquet":
		return FORMAT_PARQUET
	}

	return FORMAT_INVALID
}

// Export writes records as CSV with a header row, or as JSON lines.
func Export(ctx context.Context, w io.Writer, records []machine.TraceRecord, format Format) error {
	df := Frame(records)

	switch format {
	case FORMAT_CSV:
		return exports.ExportToCSV(ctx, w, df)
	case FORMAT_JSON:
		return exports.ExportToJSON(ctx, w, df)
	}

	return fmt.Errorf("export %s: %w", format, ErrUnknownFormat)
}

// ExportFile creates path and exports records in the format its extension
// names.
func ExportFile(ctx context.Context, path string, records []machine.TraceRecord) error {
	format := FormatFromPath(path)

	if format != FORMAT_CSV && format != FORMAT_JSON {
		return fmt.Errorf("%s: %w", path, ErrUnknownFormat)
	}

	file, err := os.Create(path)

	if err != nil {
		return err
	}

	if err := Export(ctx, file, records, format); err != nil {
		file.Close()
		return err
	}

	return file.Close()
}

func fromFrame(df *dataframe.DataFrame, err error) ([]machine.TraceRecord, error) {
	if err != nil {
		return nil, err
	}

	if df == nil || len(df.Series) == 0 {
		return nil, ErrEmptyTrace
	}

	return FromFrame(df)
}

func LoadCSV(ctx context.Context, r io.ReadSeeker) ([]machine.TraceRecord, error) {
	return fromFrame(imports.LoadFromCSV(ctx, r, imports.CSVLoadOptions{
		InferDataTypes: true,
	}))
}

func LoadJSON(ctx context.Context, r io.ReadSeeker) ([]machine.TraceRecord, error) {
	return fromFrame(imports.LoadFromJSON(ctx, r))
}

func LoadParquet(ctx context.Context, path string) ([]machine.TraceRecord, error) {
	fr, err := local.NewLocalFileReader(path)

	if err != nil {
		return nil, err
	}

	defer fr.Close()

	return fromFrame(imports.LoadFromParquet(ctx, fr))
}

// LoadFile reads a golden trace in the format its extension names.
func LoadFile(ctx context.Context, path string) ([]machine.TraceRecord, error) {
	format := FormatFromPath(path)

	if format == FORMAT_PARQUET {
		return LoadParquet(ctx, path)
	} else if format == FORMAT_INVALID {
		return nil, fmt.Errorf("%s: %w", path, ErrUnknownFormat)
	}

	file, err := os.Open(path)

	if err != nil {
		return nil, err
	}

	defer file.Close()

	if format == FORMAT_CSV {
		return LoadCSV(ctx, file)
	}

	return LoadJSON(ctx, file)
}
