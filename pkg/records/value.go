// Package records defines the in-memory table shared by the loader, the
// cleaning rules, and the sinks.
//
// A value is a closed tagged union (Kind + payload). Code that branches on
// the type of a cell switches on Kind; it never type-asserts on interface{}.
package records

import (
	"strconv"
	"time"
)

// Kind is the semantic type of a value or a column.
type Kind uint8

const (
	KindNull Kind = iota
	KindText
	KindInt
	KindFloat
	KindBool
	KindDate
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindText:
		return "text"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindDate:
		return "date"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// IsNumeric reports whether k is int or float.
func (k Kind) IsNumeric() bool { return k == KindInt || k == KindFloat }

// DateLayout is the canonical text form of a date value.
const DateLayout = "2006-01-02"

// Value is one cell. The zero Value is null.
type Value struct {
	kind Kind
	s    string
	i    int64
	f    float64
	t    time.Time
}

func Null() Value            { return Value{} }
func Text(s string) Value    { return Value{kind: KindText, s: s} }
func Int(i int64) Value      { return Value{kind: KindInt, i: i} }
func Float(f float64) Value  { return Value{kind: KindFloat, f: f} }
func Date(t time.Time) Value { return Value{kind: KindDate, t: t} }

func Bool(b bool) Value {
	v := Value{kind: KindBool}
	if b {
		v.i = 1
	}
	return v
}

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) Text() (string, bool) {
	return v.s, v.kind == KindText
}

func (v Value) Int() (int64, bool) {
	return v.i, v.kind == KindInt
}

func (v Value) Float() (float64, bool) {
	return v.f, v.kind == KindFloat
}

func (v Value) Bool() (bool, bool) {
	return v.i == 1, v.kind == KindBool
}

func (v Value) Date() (time.Time, bool) {
	return v.t, v.kind == KindDate
}

// Number returns int and float values as float64.
func (v Value) Number() (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(v.i), true
	case KindFloat:
		return v.f, true
	default:
		return 0, false
	}
}

// Equal reports whether a and b have the same kind and payload.
// Null equals null, matching how duplicate rows are detected.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindText:
		return v.s == o.s
	case KindInt, KindBool:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f || (v.f != v.f && o.f != o.f)
	case KindDate:
		return v.t.Equal(o.t)
	default:
		return false
	}
}

// String renders the value for text outputs. Null renders as "".
func (v Value) String() string {
	switch v.kind {
	case KindText:
		return v.s
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.i == 1)
	case KindDate:
		return v.t.Format(DateLayout)
	default:
		return ""
	}
}

// Any returns the payload as a database/sql compatible value (nil for null).
func (v Value) Any() any {
	switch v.kind {
	case KindText:
		return v.s
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindBool:
		return v.i == 1
	case KindDate:
		return v.t
	default:
		return nil
	}
}

// InferKind classifies a column from its values.
//
//   - all values of one kind -> that kind
//   - int mixed with float -> float
//   - any other mix -> text
//   - no non-null values -> fallback
func InferKind(values []Value, fallback Kind) Kind {
	k := KindNull
	for _, v := range values {
		switch {
		case v.kind == KindNull || v.kind == k:
		case k == KindNull:
			k = v.kind
		case k.IsNumeric() && v.kind.IsNumeric():
			k = KindFloat
		default:
			return KindText
		}
	}
	if k == KindNull {
		return fallback
	}
	return k
}
