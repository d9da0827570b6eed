// Package csv loads delimited resale files into a typed records.Table.
package csv

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"resale/internal/probe"
	"resale/internal/transformer"
	"resale/pkg/records"
)

// Options controls how a file is read.
type Options struct {
	// Comma is the field delimiter; zero means ','.
	Comma rune
	// NoHeader treats the first record as data and names columns col_1..n.
	NoHeader bool
	// TrimSpace trims leading/trailing whitespace from every cell.
	TrimSpace bool
	// LazyQuotes is passed through to encoding/csv.
	LazyQuotes bool
	// HeaderMap renames raw header cells; unmapped headers are normalized
	// with probe.NormalizeFieldName.
	HeaderMap map[string]string
}

// ReadTable reads every record of src, infers one kind per column and
// returns the typed table. Empty cells are null.
//
// Malformed records are reported to onErr (when non-nil) with their 1-based
// line number and skipped. A header that cannot be read is an error. ctx is
// checked while reading so huge files can be abandoned.
func ReadTable(ctx context.Context, src io.Reader, opt Options, onErr func(line int, err error)) (*records.Table, error) {
	// A UTF-8 or UTF-16 BOM selects the decoder; no BOM means UTF-8.
	r := transform.NewReader(src, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	cr := csv.NewReader(r)
	cr.Comma = ','
	if opt.Comma != 0 {
		cr.Comma = opt.Comma
	}
	cr.LazyQuotes = opt.LazyQuotes
	cr.FieldsPerRecord = -1

	var line int
	readRec := func() ([]string, error) {
		line++
		return cr.Read()
	}

	var names []string
	var raw [][]string

	if !opt.NoHeader {
		hdr, err := readRec()
		if err != nil {
			if onErr != nil {
				onErr(line, fmt.Errorf("read header: %w", err))
			}
			return nil, fmt.Errorf("read header: %w", err)
		}
		names = headerNames(hdr, opt.HeaderMap)
	}

	for {
		if line%1024 == 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
		}

		rec, err := readRec()
		if err == io.EOF {
			break
		}
		if err != nil {
			if onErr != nil {
				onErr(line, fmt.Errorf("csv read: %w", err))
			}
			continue
		}

		if opt.TrimSpace {
			for i, v := range rec {
				if transformer.HasEdgeSpace(v) {
					rec[i] = strings.TrimSpace(v)
				}
			}
		}
		if names == nil {
			names = make([]string, len(rec))
			for i := range names {
				names[i] = "col_" + strconv.Itoa(i+1)
			}
		}
		raw = append(raw, rec)
	}

	return buildTable(names, raw)
}

func headerNames(hdr []string, hm map[string]string) []string {
	names := make([]string, len(hdr))
	used := make(map[string]int, len(hdr))
	for i, h := range hdr {
		h = strings.TrimSpace(h)
		if mapped, ok := hm[h]; ok {
			h = mapped
		} else {
			h = probe.NormalizeFieldName(h)
		}
		if h == "" {
			h = "col_" + strconv.Itoa(i+1)
		}
		if n := used[h]; n > 0 {
			used[h] = n + 1
			h = h + "_" + strconv.Itoa(n+1)
		} else {
			used[h] = 1
		}
		names[i] = h
	}
	return names
}

func buildTable(names []string, raw [][]string) (*records.Table, error) {
	kinds := probe.InferKinds(raw, len(names))

	cols := make([]records.Column, len(names))
	for i, n := range names {
		cols[i] = records.Column{Name: n, Kind: kinds[i]}
	}
	t, err := records.NewTable(cols...)
	if err != nil {
		return nil, err
	}

	vals := make([]records.Value, len(names))
	for _, rec := range raw {
		for i := range names {
			if i >= len(rec) {
				vals[i] = records.Null()
				continue
			}
			vals[i], _ = probe.Coerce(kinds[i], rec[i])
		}
		if err := t.AppendRow(vals...); err != nil {
			return nil, err
		}
	}
	return t, nil
}
