package resale

import (
	"fmt"
	"time"

	"resale/pkg/records"
)

// MonthLayout is the transaction month format of the raw files.
const MonthLayout = "2006-01"

// ConvertMonth parses a "YYYY-MM" text column into dates on the first day of
// the month. An empty column name means "month".
//
// Parsing is strict: the first malformed value aborts with a *ParseError and
// no table is returned. Nulls stay null; values that are already dates are
// kept, so the rule can be applied twice.
func ConvertMonth(t *records.Table, column string) (*records.Table, error) {
	if column == "" {
		column = "month"
	}
	col, err := requireColumn(t, "convert month", column)
	if err != nil {
		return nil, err
	}

	out := t.Clone()
	for r := 0; r < out.Len(); r++ {
		v := out.At(r, col)
		switch v.Kind() {
		case records.KindNull, records.KindDate:
			continue
		case records.KindText:
			s, _ := v.Text()
			d, err := time.Parse(MonthLayout, s)
			if err != nil {
				return nil, &ParseError{Column: column, Row: r, Value: s, Err: err}
			}
			out.Set(r, col, records.Date(d))
		default:
			return nil, &ParseError{
				Column: column,
				Row:    r,
				Value:  v.String(),
				Err:    fmt.Errorf("%w: %s", ErrColumnKind, v.Kind()),
			}
		}
	}
	out.SetKind(col, records.KindDate)
	return out, nil
}
