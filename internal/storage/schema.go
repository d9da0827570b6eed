package storage

import (
	"strings"

	"resale/internal/probe"
	"resale/pkg/records"
)

// ColumnType is a backend-neutral column type. Each backend maps it to its
// own DDL.
type ColumnType string

const (
	TypeText   ColumnType = "text"
	TypeBigInt ColumnType = "bigint"
	TypeDouble ColumnType = "double"
	TypeBool   ColumnType = "bool"
	TypeDate   ColumnType = "date"
	// TypeHash is a fixed 64-char hex digest, short enough to carry a UNIQUE
	// constraint on every backend.
	TypeHash ColumnType = "hash"
)

// ColumnSpec describes one destination column.
type ColumnSpec struct {
	Name     string
	Type     ColumnType
	Nullable bool
}

// TableSpec describes a destination table.
type TableSpec struct {
	// Name may be schema-qualified ("staging.resale").
	Name    string
	Columns []ColumnSpec
	// Unique is an optional UNIQUE constraint over these columns.
	Unique []string
}

// ColumnTypeFor maps a records kind to a column type. Null (a column that
// never held a value) maps to text.
func ColumnTypeFor(k records.Kind) ColumnType {
	switch k {
	case records.KindInt:
		return TypeBigInt
	case records.KindFloat:
		return TypeDouble
	case records.KindBool:
		return TypeBool
	case records.KindDate:
		return TypeDate
	default:
		return TypeText
	}
}

// SpecFor derives a TableSpec from t. Unique columns are NOT NULL; every
// other column is nullable.
func SpecFor(name string, t *records.Table, unique ...string) TableSpec {
	isUnique := make(map[string]bool, len(unique))
	for _, u := range unique {
		isUnique[u] = true
	}

	spec := TableSpec{Name: name, Unique: unique}
	for _, c := range t.Columns() {
		spec.Columns = append(spec.Columns, ColumnSpec{
			Name:     c.Name,
			Type:     ColumnTypeFor(c.Kind),
			Nullable: !isUnique[c.Name],
		})
	}
	return spec
}

// TableName builds a destination table name from an optional prefix and a
// dataset name, e.g. ("hdb_", "Resale 2017 onwards") -> "hdb_resale_2017_onwards".
// A prefix ending in "." is kept as a schema qualifier.
func TableName(prefix, dataset string) string {
	name := probe.NormalizeFieldName(dataset)
	if name == "" {
		name = "dataset"
	}
	if strings.HasSuffix(prefix, ".") {
		return prefix + name
	}
	return probe.NormalizeFieldName(prefix + name)
}
