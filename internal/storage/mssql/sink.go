// Package mssql is the Microsoft SQL Server storage backend (database/sql
// with the go-mssqldb "sqlserver" driver).
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/microsoft/go-mssqldb"

	"resale/internal/storage"
)

// maxParams stays under SQL Server's 2100 parameters per request.
const maxParams = 2000

func init() {
	storage.Register("mssql", New)
}

// Sink implements storage.Sink for SQL Server.
//
// SQL Server has no ON CONFLICT; dedupe loads use INSERT ... SELECT ...
// WHERE NOT EXISTS. That statement does not collapse repeats inside its own
// VALUES list, so each batch is first reduced to one row per dedupe key.
type Sink struct {
	db execer
}

// execer is the slice of *sql.DB / *sql.Tx the sink needs.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// New opens cfg.DSN with the "sqlserver" driver and checks connectivity.
func New(ctx context.Context, cfg storage.Config) (storage.Sink, error) {
	db, err := sql.Open("sqlserver", cfg.DSN)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(8)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Sink{db: db}, nil
}

// Close releases the connection pool.
func (s *Sink) Close() {
	if c, ok := s.db.(interface{ Close() error }); ok {
		_ = c.Close()
	}
}

// EnsureTable implements storage.Sink.
func (s *Sink) EnsureTable(ctx context.Context, spec storage.TableSpec) error {
	ddl, err := buildCreateSQL(spec)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create table %s: %w", spec.Name, err)
	}
	return nil
}

// InsertRows implements storage.Sink. Statements are chunked under the
// parameter limit; each chunk commits on its own.
func (s *Sink) InsertRows(ctx context.Context, table string, columns []string, rows [][]any, dedupeColumns []string) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if len(columns) == 0 {
		return 0, fmt.Errorf("mssql: insert into %s without columns", table)
	}

	if len(dedupeColumns) > 0 {
		var err error
		rows, err = dedupeRowsByColumns(rows, columns, dedupeColumns)
		if err != nil {
			return 0, err
		}
	}

	per := max(1, maxParams/len(columns))
	var total int64
	for start := 0; start < len(rows); start += per {
		end := min(start+per, len(rows))

		var q string
		var args []any
		if len(dedupeColumns) > 0 {
			q, args = buildInsertNotExistsSQL(table, columns, rows[start:end], dedupeColumns)
		} else {
			q, args = buildBulkInsertSQL(table, columns, rows[start:end])
		}

		res, err := s.db.ExecContext(ctx, q, args...)
		if err != nil {
			return total, err
		}
		n, _ := res.RowsAffected()
		total += n
	}
	return total, nil
}

// dedupeRowsByColumns keeps the first row for every distinct key over
// dedupeColumns, preserving order.
func dedupeRowsByColumns(rows [][]any, columns, dedupeColumns []string) ([][]any, error) {
	pos := make([]int, len(dedupeColumns))
	for i, dc := range dedupeColumns {
		p, ok := indexOfColumn(columns, dc)
		if !ok {
			return nil, fmt.Errorf("mssql: dedupe column %q not present in columns", dc)
		}
		pos[i] = p
	}

	seen := make(map[string]struct{}, len(rows))
	out := make([][]any, 0, len(rows))
	var b strings.Builder
	for _, r := range rows {
		b.Reset()
		for _, p := range pos {
			fmt.Fprintf(&b, "%T:%v\x1f", r[p], r[p])
		}
		k := b.String()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out, nil
}

func indexOfColumn(columns []string, name string) (int, bool) {
	for i, c := range columns {
		if c == name {
			return i, true
		}
	}
	return -1, false
}

func columnType(t storage.ColumnType) (string, error) {
	switch t {
	case storage.TypeText:
		return "NVARCHAR(MAX)", nil
	case storage.TypeHash:
		return "CHAR(64)", nil
	case storage.TypeBigInt:
		return "BIGINT", nil
	case storage.TypeDouble:
		return "FLOAT", nil
	case storage.TypeBool:
		return "BIT", nil
	case storage.TypeDate:
		return "DATE", nil
	default:
		return "", fmt.Errorf("mssql: unsupported column type %q", t)
	}
}

// buildCreateSQL builds an OBJECT_ID-guarded CREATE TABLE, since SQL Server
// has no CREATE TABLE IF NOT EXISTS.
func buildCreateSQL(spec storage.TableSpec) (string, error) {
	name := strings.TrimSpace(spec.Name)
	if name == "" {
		return "", fmt.Errorf("table name is empty")
	}
	if len(spec.Columns) == 0 {
		return "", fmt.Errorf("table %s has no columns", spec.Name)
	}

	defs := make([]string, 0, len(spec.Columns)+1)
	for _, c := range spec.Columns {
		typ, err := columnType(c.Type)
		if err != nil {
			return "", err
		}
		def := mssqlIdent(c.Name) + " " + typ
		if c.Nullable {
			def += " NULL"
		} else {
			def += " NOT NULL"
		}
		defs = append(defs, def)
	}
	if len(spec.Unique) > 0 {
		cols := make([]string, len(spec.Unique))
		for i, u := range spec.Unique {
			cols[i] = mssqlIdent(u)
		}
		cname := "uq_" + strings.ReplaceAll(name, ".", "_") + "_" + strings.Join(spec.Unique, "_")
		defs = append(defs, "CONSTRAINT "+mssqlIdent(cname)+" UNIQUE ("+strings.Join(cols, ", ")+")")
	}

	return fmt.Sprintf(
		"IF OBJECT_ID(N'%s', N'U') IS NULL BEGIN CREATE TABLE %s (%s); END;",
		strings.ReplaceAll(mssqlTableIdent(name), "'", "''"),
		mssqlTableIdent(name),
		strings.Join(defs, ", "),
	), nil
}

func writeValues(b *strings.Builder, columns []string, rows [][]any) []any {
	args := make([]any, 0, len(rows)*len(columns))
	p := 1
	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for j := range columns {
			if j > 0 {
				b.WriteString(", ")
			}
			b.WriteString("@p")
			b.WriteString(strconv.Itoa(p))
			args = append(args, row[j])
			p++
		}
		b.WriteByte(')')
	}
	return args
}

func identList(prefix string, columns []string) string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = prefix + mssqlIdent(c)
	}
	return strings.Join(out, ", ")
}

// buildBulkInsertSQL builds one INSERT ... VALUES statement for all rows.
func buildBulkInsertSQL(table string, columns []string, rows [][]any) (string, []any) {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(mssqlTableIdent(table))
	b.WriteString(" (")
	b.WriteString(identList("", columns))
	b.WriteString(") VALUES ")
	args := writeValues(&b, columns, rows)
	return b.String(), args
}

// buildInsertNotExistsSQL materializes rows as derived table v and inserts
// those with no existing match on dedupeColumns.
func buildInsertNotExistsSQL(table string, columns []string, rows [][]any, dedupeColumns []string) (string, []any) {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(mssqlTableIdent(table))
	b.WriteString(" (")
	b.WriteString(identList("", columns))
	b.WriteString(") SELECT ")
	b.WriteString(identList("v.", columns))
	b.WriteString(" FROM (VALUES ")
	args := writeValues(&b, columns, rows)
	b.WriteString(") AS v(")
	b.WriteString(identList("", columns))
	b.WriteString(") WHERE NOT EXISTS (SELECT 1 FROM ")
	b.WriteString(mssqlTableIdent(table))
	b.WriteString(" t WHERE ")
	for i, dc := range dedupeColumns {
		if i > 0 {
			b.WriteString(" AND ")
		}
		b.WriteString("t." + mssqlIdent(dc) + " = v." + mssqlIdent(dc))
	}
	b.WriteByte(')')
	return b.String(), args
}

// mssqlIdent bracket-quotes an identifier, escaping ']' as ']]'.
func mssqlIdent(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

// mssqlTableIdent quotes each part: "dbo.resale" -> [dbo].[resale].
func mssqlTableIdent(name string) string {
	parts := strings.Split(name, ".")
	for i := range parts {
		parts[i] = mssqlIdent(strings.TrimSpace(parts[i]))
	}
	return strings.Join(parts, ".")
}
