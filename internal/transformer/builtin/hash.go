// Package builtin contains simple, reusable table transforms used around the
// cleaning rules.
package builtin

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"resale/internal/transformer"
	"resale/pkg/records"
)

// Hash computes a deterministic SHA-256 hash over every column of a row and
// writes it into a target text column.
//
// Sinks use it as a stable, always-non-null dedupe key: reloading the same
// cleaned file does not insert the same flat transaction twice, even though
// many natural-key columns (remaining_lease, max_storey) can be null.
//
// Columns are hashed in table order with transformer.AppendCanonical, so
// null differs from empty text, int 4 differs from float 4, and no text
// value can shift into its neighbour. Output is lowercase hex (length 64).
type Hash struct {
	// TargetField is where the computed hash is stored. An existing column
	// of that name is excluded from the hash and overwritten.
	TargetField string
}

// Apply returns a copy of in with TargetField filled.
func (h Hash) Apply(in *records.Table) *records.Table {
	if h.TargetField == "" {
		return in
	}

	out := in.Clone()
	target := out.WithColumn(h.TargetField, records.KindText)

	idx := make([]int, 0, len(out.Columns()))
	for i, n := range out.Names() {
		if n != h.TargetField {
			idx = append(idx, i)
		}
	}

	var b strings.Builder
	for r := 0; r < out.Len(); r++ {
		b.Reset()
		// Heuristic: reduce reallocs for common short-ish fields.
		b.Grow(len(idx) * 20)
		for _, c := range idx {
			transformer.AppendCanonical(&b, out.At(r, c))
		}
		sum := sha256.Sum256([]byte(b.String()))
		out.Set(r, target, records.Text(hex.EncodeToString(sum[:])))
	}
	return out
}
