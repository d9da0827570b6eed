package resale

import (
	"fmt"
	"math"
	"regexp"
	"strconv"

	"resale/pkg/records"
)

const (
	// LeaseYears is the tenure of every flat.
	LeaseYears = 99.0

	remainingLease = "remaining_lease"
)

var (
	leaseYearsMonths = regexp.MustCompile(`^(\d+) years (\d+) months`)
	leaseYearsOnly   = regexp.MustCompile(`^(\d+) years`)
)

// round1 rounds to one decimal. Ties on the exact binary value go to even,
// so 10.25 becomes 10.2.
func round1(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	f, _ := strconv.ParseFloat(strconv.FormatFloat(x, 'f', 1, 64), 64)
	return f
}

// ImputeRemainingLease derives remaining_lease for files that predate the
// column:
//
//	remaining_lease = round1(99 - (year - lease_commence_date) - month/12)
//
// where year and month come from the date column monthColumn ("" means
// "month"), which must already be parsed by ConvertMonth. The result is NOT
// capped: inconsistent inputs may give values above 99 or below 0. Rows with
// a null month or commence year get null.
func ImputeRemainingLease(t *records.Table, monthColumn string) (*records.Table, error) {
	if monthColumn == "" {
		monthColumn = "month"
	}
	mcol, err := requireColumn(t, "impute remaining lease", monthColumn)
	if err != nil {
		return nil, err
	}
	if c, _ := t.Column(monthColumn); c.Kind != records.KindDate {
		return nil, fmt.Errorf("impute remaining lease: %w: %s is %s, want date", ErrColumnKind, monthColumn, c.Kind)
	}
	ccol, err := requireColumn(t, "impute remaining lease", "lease_commence_date")
	if err != nil {
		return nil, err
	}

	out := t.Clone()
	target := out.WithColumn(remainingLease, records.KindFloat)
	for r := 0; r < out.Len(); r++ {
		d, ok := out.At(r, mcol).Date()
		commence, ok2 := out.At(r, ccol).Number()
		if !ok || !ok2 {
			out.Set(r, target, records.Null())
			continue
		}
		elapsed := float64(d.Year()) - commence
		fraction := float64(d.Month()) / 12
		out.Set(r, target, records.Float(round1(LeaseYears-elapsed-fraction)))
	}
	return out, nil
}

// StandardizeLease converts one remaining_lease value to years, rounded to
// one decimal and capped at 99:
//
//  1. int or float: the number itself
//  2. "N years M months": N + M/12
//  3. "N years": N
//  4. anything else: null
//
// Patterns match at the start of the text. Applying it to its own output
// returns the same value.
func StandardizeLease(v records.Value) records.Value {
	if n, ok := v.Number(); ok {
		return capLease(n)
	}
	s, ok := v.Text()
	if !ok {
		return records.Null()
	}
	if m := leaseYearsMonths.FindStringSubmatch(s); m != nil {
		years, _ := strconv.ParseFloat(m[1], 64)
		months, _ := strconv.ParseFloat(m[2], 64)
		return capLease(years + months/12)
	}
	if m := leaseYearsOnly.FindStringSubmatch(s); m != nil {
		years, _ := strconv.ParseFloat(m[1], 64)
		return capLease(years)
	}
	return records.Null()
}

func capLease(x float64) records.Value {
	if math.IsNaN(x) {
		return records.Null()
	}
	return records.Float(math.Min(round1(x), LeaseYears))
}

// StandardizeRemainingLease applies StandardizeLease to every value of the
// remaining_lease column. Unparseable values become null; the rule never
// fails on content.
func StandardizeRemainingLease(t *records.Table) (*records.Table, error) {
	col, err := requireColumn(t, "standardize remaining lease", remainingLease)
	if err != nil {
		return nil, err
	}
	out := t.Clone()
	for r := 0; r < out.Len(); r++ {
		out.Set(r, col, StandardizeLease(out.At(r, col)))
	}
	out.SetKind(col, records.KindFloat)
	return out, nil
}

// AgeOfFlat returns 99 - remaining_lease, clamped at zero. A row without a
// numeric remaining_lease has no age.
func AgeOfFlat(row records.Row) records.Value {
	lease, ok := row[remainingLease].Number()
	if !ok {
		return records.Null()
	}
	return records.Float(math.Max(LeaseYears-lease, 0))
}
