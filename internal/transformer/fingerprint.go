// Package transformer holds the table-level building blocks the cleaning
// rules are made of: row fingerprints, duplicate removal, missing-value
// counts and grouped aggregates. Everything here works on *records.Table and
// never mutates its input.
package transformer

import (
	"crypto/sha256"
	"strconv"
	"strings"
	"time"

	"resale/pkg/records"
)

// Fingerprint returns the SHA-256 of the canonical form of a row. Two rows
// have the same fingerprint exactly when every value is Equal (up to hash
// collisions).
func Fingerprint(vals []records.Value) [sha256.Size]byte {
	var b strings.Builder
	b.Grow(len(vals) * 16)
	for _, v := range vals {
		AppendCanonical(&b, v)
	}
	return sha256.Sum256([]byte(b.String()))
}

// AppendCanonical appends a stable, kind-tagged, self-delimiting
// representation of v: the kind byte, the payload length in decimal, ':'
// and the payload. Concatenating the encodings of a row is injective, so no
// field separator is needed and text may contain any byte.
//
// Payloads:
//   - null has an empty payload, so null differs from empty text by kind
//   - the kind byte keeps Int(1) and Float(1) apart
//   - floats use the shortest 'g' form; dates are RFC3339Nano in UTC
func AppendCanonical(b *strings.Builder, v records.Value) {
	var payload string
	switch v.Kind() {
	case records.KindText:
		payload, _ = v.Text()

	case records.KindInt:
		i, _ := v.Int()
		payload = strconv.FormatInt(i, 10)

	case records.KindFloat:
		f, _ := v.Float()
		payload = strconv.FormatFloat(f, 'g', -1, 64)

	case records.KindBool:
		x, _ := v.Bool()
		payload = strconv.FormatBool(x)

	case records.KindDate:
		t, _ := v.Date()
		if !t.IsZero() {
			t = t.UTC()
		}
		payload = t.Format(time.RFC3339Nano)
	}

	b.WriteByte(byte('0' + v.Kind()))
	b.WriteString(strconv.Itoa(len(payload)))
	b.WriteByte(':')
	b.WriteString(payload)
}

// HasEdgeSpace reports whether s starts or ends with a space or tab. It is
// the cheap check done before paying for strings.TrimSpace.
func HasEdgeSpace(s string) bool {
	if s == "" {
		return false
	}
	return s[0] == ' ' || s[len(s)-1] == ' ' || s[0] == '\t' || s[len(s)-1] == '\t'
}
