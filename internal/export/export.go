// Package export writes cleaned tables to CSV files or an Excel workbook.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"resale/pkg/records"
)

// Format selects the output file type.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatNone Format = "none"
)

// ParseFormat accepts "csv", "xlsx" and "none" in any case. Empty is csv.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatCSV, nil
	case FormatCSV, FormatXLSX, FormatNone:
		return f, nil
	default:
		return "", fmt.Errorf("export: unknown format %q", s)
	}
}

// Part is one named table of a dataset's output ("cleaned", "categorical",
// "numerical").
type Part struct {
	Name  string
	Table *records.Table
}

// WriteCSV writes t with a header row. Nulls are empty cells, dates use
// records.DateLayout.
func WriteCSV(w io.Writer, t *records.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Names()); err != nil {
		return err
	}

	rec := make([]string, len(t.Columns()))
	for r := 0; r < t.Len(); r++ {
		for c, v := range t.RowValues(r) {
			rec[c] = v.String()
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes one sheet per part. Numbers and booleans are stored as
// typed cells; dates and text as strings.
func WriteXLSX(w io.Writer, parts ...Part) error {
	if len(parts) == 0 {
		return fmt.Errorf("export: no sheets to write")
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	for i, p := range parts {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), p.Name); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(p.Name); err != nil {
			return err
		}
		if err := writeSheet(f, p.Name, p.Table); err != nil {
			return fmt.Errorf("sheet %s: %w", p.Name, err)
		}
	}

	_, err := f.WriteTo(w)
	return err
}

func writeSheet(f *excelize.File, sheet string, t *records.Table) error {
	header := make([]any, 0, len(t.Columns()))
	for _, n := range t.Names() {
		header = append(header, n)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	row := make([]any, len(header))
	for r := 0; r < t.Len(); r++ {
		for c, v := range t.RowValues(r) {
			row[c] = cellValue(v)
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func cellValue(v records.Value) any {
	switch v.Kind() {
	case records.KindNull:
		return nil
	case records.KindInt, records.KindFloat, records.KindBool:
		return v.Any()
	default:
		return v.String()
	}
}

// Files writes a dataset's parts under dir and returns the written paths.
//
//   - csv:  <dir>/<dataset>_<part>.csv per part
//   - xlsx: <dir>/<dataset>.xlsx with one sheet per part
//   - none: nothing
//
// dir is created when missing.
func Files(dir, dataset string, format Format, parts ...Part) ([]string, error) {
	if format == FormatNone || len(parts) == 0 {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	switch format {
	case FormatXLSX:
		path := filepath.Join(dir, dataset+".xlsx")
		if err := writeFile(path, func(w io.Writer) error { return WriteXLSX(w, parts...) }); err != nil {
			return nil, err
		}
		return []string{path}, nil

	case FormatCSV:
		paths := make([]string, 0, len(parts))
		for _, p := range parts {
			path := filepath.Join(dir, dataset+"_"+p.Name+".csv")
			t := p.Table
			if err := writeFile(path, func(w io.Writer) error { return WriteCSV(w, t) }); err != nil {
				return paths, err
			}
			paths = append(paths, path)
		}
		return paths, nil

	default:
		return nil, fmt.Errorf("export: unknown format %q", format)
	}
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if err := write(f); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
