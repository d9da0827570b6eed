// Package resale implements the cleaning rules for the flat resale dataset:
// duplicate removal with a missing-value report, month parsing, flat model
// normalization, remaining-lease imputation and standardization, storey range
// splitting, the per-building max storey, and the derived flat age.
//
// Every rule takes a *records.Table and returns a new one; inputs are never
// modified. Nothing in this package performs I/O. Diagnostics go to the
// injected *slog.Logger and are also returned as values.
package resale

import (
	"log/slog"

	"resale/internal/transformer"
	"resale/pkg/records"
)

// DatasetReport is what CleanDataset observed.
type DatasetReport struct {
	Dataset    string
	Rows       int // rows before dedupe
	Duplicates int
	Remaining  int // rows after dedupe
	Missing    []transformer.ColumnCount
}

// TotalMissing sums the per-column missing counts.
func (r DatasetReport) TotalMissing() int {
	n := 0
	for _, m := range r.Missing {
		n += m.Count
	}
	return n
}

// CleanDataset drops exact-duplicate rows (keeping the first) and counts
// missing values per column on the result. The report is logged and
// returned; it never influences the returned table.
func CleanDataset(t *records.Table, name string, logger *slog.Logger) (*records.Table, DatasetReport) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("dataset", name))
	logger.Info("cleaning dataset", slog.Int("rows", t.Len()))

	out, dups := transformer.DropDuplicates(t)
	logger.Info("duplicates removed", slog.Int("duplicates", dups))

	rep := DatasetReport{
		Dataset:    name,
		Rows:       t.Len(),
		Duplicates: dups,
		Remaining:  out.Len(),
		Missing:    transformer.CountMissing(out),
	}
	for _, m := range rep.Missing {
		logger.Info("missing values", slog.String("column", m.Column), slog.Int("count", m.Count))
	}
	return out, rep
}
