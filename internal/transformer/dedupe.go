package transformer

import (
	"crypto/sha256"

	"resale/pkg/records"
)

// ColumnCount pairs a column name with a count.
type ColumnCount struct {
	Column string
	Count  int
}

// DropDuplicates removes rows equal in every column to an earlier row. The
// first occurrence is kept and row order is preserved. It returns the new
// table and the number of rows dropped.
func DropDuplicates(t *records.Table) (*records.Table, int) {
	seen := make(map[[sha256.Size]byte]struct{}, t.Len())
	dropped := 0
	out := t.Filter(func(r int) bool {
		fp := Fingerprint(t.RowValues(r))
		if _, dup := seen[fp]; dup {
			dropped++
			return false
		}
		seen[fp] = struct{}{}
		return true
	})
	return out, dropped
}

// CountMissing returns, per column in table order, how many values are null.
func CountMissing(t *records.Table) []ColumnCount {
	cols := t.Columns()
	out := make([]ColumnCount, len(cols))
	for i, c := range cols {
		out[i].Column = c.Name
	}
	for r := 0; r < t.Len(); r++ {
		for i, v := range t.RowValues(r) {
			if v.IsNull() {
				out[i].Count++
			}
		}
	}
	return out
}
