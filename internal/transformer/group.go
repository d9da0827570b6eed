package transformer

import (
	"fmt"
	"strings"

	"resale/pkg/records"
)

// GroupMax writes into target, for every row, the maximum of the numeric
// column value across all rows sharing the same key values.
//
// Null values do not take part in the maximum; a group with no numeric value
// gets null. Rows with a null key component belong to no group and get null.
// The target is int when every contributing value is int, float otherwise.
func GroupMax(t *records.Table, keys []string, value, target string) (*records.Table, error) {
	keyIdx := make([]int, len(keys))
	for i, k := range keys {
		keyIdx[i] = t.Index(k)
		if keyIdx[i] < 0 {
			return nil, fmt.Errorf("group max: unknown key column %q", k)
		}
	}
	valIdx := t.Index(value)
	if valIdx < 0 {
		return nil, fmt.Errorf("group max: unknown value column %q", value)
	}

	type agg struct {
		max   records.Value
		isSet bool
	}

	groups := make(map[string]*agg)
	rowKeys := make([]string, t.Len())

	var b strings.Builder
	for r := 0; r < t.Len(); r++ {
		b.Reset()
		nullKey := false
		for _, k := range keyIdx {
			v := t.At(r, k)
			if v.IsNull() {
				nullKey = true
				break
			}
			AppendCanonical(&b, v)
		}
		if nullKey {
			continue
		}
		key := b.String()
		rowKeys[r] = key

		g := groups[key]
		if g == nil {
			g = &agg{}
			groups[key] = g
		}
		v := t.At(r, valIdx)
		n, ok := v.Number()
		if !ok {
			continue
		}
		if !g.isSet {
			g.max, g.isSet = v, true
			continue
		}
		cur, _ := g.max.Number()
		if n > cur {
			g.max = v
		}
	}

	out := t.Clone()
	allInt := true
	for _, g := range groups {
		if g.isSet && g.max.Kind() != records.KindInt {
			allInt = false
		}
	}
	kind := records.KindFloat
	if allInt {
		kind = records.KindInt
	}
	col := out.WithColumn(target, kind)

	for r := 0; r < out.Len(); r++ {
		g := groups[rowKeys[r]]
		if rowKeys[r] == "" || g == nil || !g.isSet {
			out.Set(r, col, records.Null())
			continue
		}
		if kind == records.KindFloat {
			n, _ := g.max.Number()
			out.Set(r, col, records.Float(n))
			continue
		}
		out.Set(r, col, g.max)
	}
	return out, nil
}
