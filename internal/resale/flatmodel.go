package resale

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"resale/pkg/records"
)

// CleanFlatModel trims and upper-cases the flat_model column so that
// "Improved", "IMPROVED " and "improved" collapse to one label. Null and
// non-text values pass through unchanged.
func CleanFlatModel(t *records.Table) (*records.Table, error) {
	col, err := requireColumn(t, "clean flat model", "flat_model")
	if err != nil {
		return nil, err
	}

	upper := cases.Upper(language.Und)
	out := t.Clone()
	for r := 0; r < out.Len(); r++ {
		s, ok := out.At(r, col).Text()
		if !ok {
			continue
		}
		out.Set(r, col, records.Text(upper.String(strings.TrimSpace(s))))
	}
	return out, nil
}
