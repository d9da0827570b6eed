package resale

import (
	"strconv"
	"strings"

	"resale/internal/transformer"
	"resale/pkg/records"
)

// BuildingKey identifies one block: rows sharing these values are the same
// physical building.
var BuildingKey = []string{"town", "block", "street_name"}

// SplitCategoricalNumerical partitions the columns by declared kind: text
// columns go to categorical; int, float and date columns go to numerical.
// Columns of any other kind (bool, null) appear in neither. Both tables keep
// every row in order.
func SplitCategoricalNumerical(t *records.Table) (categorical, numerical *records.Table) {
	var cat, num []string
	for _, c := range t.Columns() {
		switch c.Kind {
		case records.KindText:
			cat = append(cat, c.Name)
		case records.KindInt, records.KindFloat, records.KindDate:
			num = append(num, c.Name)
		}
	}
	// Names come from t itself, so Select cannot fail.
	categorical, _ = t.Select(cat...)
	numerical, _ = t.Select(num...)
	return categorical, numerical
}

// ParseStoreyRange splits an "L TO U" storey band into its bounds. Each
// side is parsed on its own; a side that is absent or not a number is null.
// Text with more than one " TO " yields two nulls.
func ParseStoreyRange(v records.Value) (lower, upper records.Value) {
	s, ok := v.Text()
	if !ok {
		return records.Null(), records.Null()
	}
	parts := strings.Split(s, " TO ")
	switch len(parts) {
	case 1:
		return parseNumber(parts[0]), records.Null()
	case 2:
		return parseNumber(parts[0]), parseNumber(parts[1])
	default:
		return records.Null(), records.Null()
	}
}

func parseNumber(s string) records.Value {
	s = strings.TrimSpace(s)
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return records.Int(i)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return records.Float(f)
	}
	return records.Null()
}

// SplitStoreyRange adds lower_storey and upper_storey from storey_range.
func SplitStoreyRange(t *records.Table) (*records.Table, error) {
	src, err := requireColumn(t, "split storey range", "storey_range")
	if err != nil {
		return nil, err
	}

	out := t.Clone()
	lo := out.WithColumn("lower_storey", records.KindInt)
	hi := out.WithColumn("upper_storey", records.KindInt)
	for r := 0; r < out.Len(); r++ {
		l, u := ParseStoreyRange(out.At(r, src))
		out.Set(r, lo, l)
		out.Set(r, hi, u)
	}
	settleNumericKind(out, lo)
	settleNumericKind(out, hi)
	return out, nil
}

// settleNumericKind declares col int when every value is int, float
// otherwise, and widens int cells of a float column so values match the
// declared kind.
func settleNumericKind(t *records.Table, col int) {
	kind := records.InferKind(t.ColumnValues(col), records.KindInt)
	t.SetKind(col, kind)
	if kind != records.KindFloat {
		return
	}
	for r := 0; r < t.Len(); r++ {
		if i, ok := t.At(r, col).Int(); ok {
			t.Set(r, col, records.Float(float64(i)))
		}
	}
}

// AddMaxStorey adds max_storey: the highest upper_storey seen for the
// row's building (BuildingKey), broadcast to every row of that building.
// Null storeys are ignored; a building with none gets null.
func AddMaxStorey(t *records.Table) (*records.Table, error) {
	for _, c := range append(append([]string(nil), BuildingKey...), "upper_storey") {
		if _, err := requireColumn(t, "add max storey", c); err != nil {
			return nil, err
		}
	}
	return transformer.GroupMax(t, BuildingKey, "upper_storey", "max_storey")
}
