package probe

import (
	"testing"
	"time"

	"resale/pkg/records"
)

// TestParseBoolLoose verifies permissive boolean parsing.
//
// "1"/"0" are not booleans here: numeric flags must infer as int.
func TestParseBoolLoose(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		in    string
		ok    bool
		value bool
	}{
		{"true literal", "true", true, true},
		{"false literal", "false", true, false},
		{"numeric is not bool", "1", false, false},
		{"yes", "yes", true, true},
		{"no", "no", true, false},
		{"upper case", "TRUE", true, true},
		{"with spaces", "  false  ", true, false},
		{"invalid", "maybe", false, false},
		{"empty", "", false, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := parseBoolLoose(tt.in)
			if ok != tt.ok || got != tt.value {
				t.Fatalf("parseBoolLoose(%q) = (%v,%v), want (%v,%v)", tt.in, got, ok, tt.value, tt.ok)
			}
		})
	}
}

func TestParseDateLoose(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		ok   bool
		want time.Time
	}{
		{"2017-01-15", true, time.Date(2017, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"15.01.2017", true, time.Date(2017, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"2017-01", false, time.Time{}},
		{"garbage", false, time.Time{}},
	}
	for _, tt := range tests {
		got, ok := parseDateLoose(tt.in)
		if ok != tt.ok || !got.Equal(tt.want) {
			t.Fatalf("parseDateLoose(%q) = (%v,%v), want (%v,%v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

// TestInferKinds runs inference over a slice shaped like the resale files.
func TestInferKinds(t *testing.T) {
	t.Parallel()

	rows := [][]string{
		{"2017-01", "ANG MO KIO", "406", "10 TO 12", "44.0", "1979", "61 years 04 months", "232000", ""},
		{"2017-01", "ANG MO KIO", "108", "01 TO 03", "67", "1978", "60 years 07 months", "250000", "yes"},
		{"2017-01", "BEDOK", "10A", "04 TO 06", "", "1980", "62 years", "262000", "no"},
		{"2017-02", "BEDOK", "216", "07 TO 09", "83", "", "", "265000", ""},
	}
	got := InferKinds(rows, 10)
	want := []records.Kind{
		records.KindText,  // month stays text
		records.KindText,  // town
		records.KindText,  // block mixes digits and letters
		records.KindText,  // storey_range
		records.KindFloat, // floor_area_sqm
		records.KindInt,   // lease_commence_date
		records.KindText,  // remaining_lease
		records.KindInt,   // resale_price
		records.KindBool,  // flag
		records.KindText,  // column beyond every row
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("col %d: got %v want %v", i, got[i], want[i])
		}
	}
}

func TestCoerce(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		kind records.Kind
		in   string
		want records.Value
		ok   bool
	}{
		{"empty_is_null", records.KindInt, "", records.Null(), true},
		{"blank_int_is_null", records.KindInt, "   ", records.Null(), true},
		{"blank_float_is_null", records.KindFloat, "\t", records.Null(), true},
		{"blank_date_is_null", records.KindDate, " ", records.Null(), true},
		{"blank_text_is_null", records.KindText, "  ", records.Null(), true},
		{"int", records.KindInt, " 1979 ", records.Int(1979), true},
		{"float", records.KindFloat, "44.0", records.Float(44), true},
		{"bool", records.KindBool, "yes", records.Bool(true), true},
		{"text_kept_verbatim", records.KindText, " Improved ", records.Text(" Improved "), true},
		{"misfit_falls_back", records.KindInt, "10A", records.Text("10A"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Coerce(tt.kind, tt.in)
			if ok != tt.ok || !got.Equal(tt.want) {
				t.Fatalf("Coerce(%v,%q) = (%v,%v), want (%v,%v)", tt.kind, tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestNormalizeFieldName(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"Remaining Lease":   "remaining_lease",
		"  street_name ":    "street_name",
		"floor-area (sqm)":  "floor_area_sqm",
		"resale.price/SGD":  "resale_price_sgd",
		"":                  "",
		"__lease  commence": "lease_commence",
	}
	for in, want := range tests {
		if got := NormalizeFieldName(in); got != want {
			t.Fatalf("NormalizeFieldName(%q) = %q, want %q", in, got, want)
		}
	}
}
