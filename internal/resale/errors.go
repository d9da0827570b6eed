package resale

import (
	"errors"
	"fmt"

	"resale/pkg/records"
)

var (
	// ErrMissingColumn is returned when a rule's input column is absent.
	ErrMissingColumn = errors.New("missing column")

	// ErrColumnKind is returned when a rule's input column has the wrong kind.
	ErrColumnKind = errors.New("unexpected column kind")
)

// ParseError reports the first value ConvertMonth could not parse.
type ParseError struct {
	Column string
	Row    int
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("column %s row %d: %q is not YYYY-MM: %v", e.Column, e.Row, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func requireColumn(t *records.Table, op, name string) (int, error) {
	i := t.Index(name)
	if i < 0 {
		return -1, fmt.Errorf("%s: %w %q", op, ErrMissingColumn, name)
	}
	return i, nil
}
