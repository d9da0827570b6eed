// Package probe infers column kinds from raw delimited text and coerces raw
// cells into records values.
//
// Inference is best-effort and never fails: a column that fits no narrower
// kind is text. Month strings ("2017-01") deliberately stay text; turning
// them into dates is a cleaning rule, not a loading concern.
package probe

import (
	"strconv"
	"strings"
	"time"

	"resale/pkg/records"
)

var dateLayouts = []string{
	"2006-01-02",
	"02.01.2006",
}

// InferKinds returns one kind per column. Empty cells are ignored; a column
// with no non-empty cell is text. Preference order: int, bool, date, float,
// text.
func InferKinds(rows [][]string, ncols int) []records.Kind {
	out := make([]records.Kind, ncols)

	for col := 0; col < ncols; col++ {
		var seen bool
		allInt := true
		allFloat := true
		allBool := true
		allDate := true

		for _, r := range rows {
			if col >= len(r) {
				continue
			}
			v := strings.TrimSpace(r[col])
			if v == "" {
				continue
			}
			seen = true

			if allInt {
				if _, err := strconv.ParseInt(v, 10, 64); err != nil {
					allInt = false
				}
			}
			if allFloat {
				if _, err := strconv.ParseFloat(v, 64); err != nil {
					allFloat = false
				}
			}
			if allBool {
				if _, ok := parseBoolLoose(v); !ok {
					allBool = false
				}
			}
			if allDate {
				if _, ok := parseDateLoose(v); !ok {
					allDate = false
				}
			}
			if !allInt && !allFloat && !allBool && !allDate {
				break
			}
		}

		switch {
		case !seen:
			out[col] = records.KindText
		case allInt:
			out[col] = records.KindInt
		case allBool:
			out[col] = records.KindBool
		case allDate:
			out[col] = records.KindDate
		case allFloat:
			out[col] = records.KindFloat
		default:
			out[col] = records.KindText
		}
	}

	return out
}

// Coerce converts a raw cell to kind. An empty or whitespace-only cell is
// null, as InferKinds treats it. A cell that does not fit kind is kept as
// text and ok is false.
func Coerce(kind records.Kind, s string) (v records.Value, ok bool) {
	t := strings.TrimSpace(s)
	if t == "" {
		return records.Null(), true
	}
	switch kind {
	case records.KindInt:
		if i, err := strconv.ParseInt(t, 10, 64); err == nil {
			return records.Int(i), true
		}
	case records.KindFloat:
		if f, err := strconv.ParseFloat(t, 64); err == nil {
			return records.Float(f), true
		}
	case records.KindBool:
		if b, ok := parseBoolLoose(t); ok {
			return records.Bool(b), true
		}
	case records.KindDate:
		if d, ok := parseDateLoose(t); ok {
			return records.Date(d), true
		}
	case records.KindText:
		return records.Text(s), true
	}
	return records.Text(s), false
}

func parseBoolLoose(s string) (bool, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "t", "true", "yes", "y":
		return true, true
	case "f", "false", "no", "n":
		return false, true
	default:
		return false, false
	}
}

func parseDateLoose(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, lay := range dateLayouts {
		if t, err := time.Parse(lay, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// NormalizeFieldName turns a raw header into a snake_case column name:
// lower case, separators folded to one underscore, other symbols dropped.
func NormalizeFieldName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(s))

	lastUnderscore := false
	for _, r := range s {
		if r == ' ' || r == '-' || r == '.' || r == '/' || r == '\\' || r == ':' || r == ';' {
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
			continue
		}

		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
			lastUnderscore = (r == '_')
			continue
		}
	}

	return strings.Trim(b.String(), "_")
}
