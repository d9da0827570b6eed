// Package postgres is the PostgreSQL storage backend (pgx/v5 pool).
package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"resale/internal/storage"
)

// maxParams is the wire protocol's bind parameter limit.
const maxParams = 65535

func init() {
	storage.Register("postgres", New)
}

// Sink implements storage.Sink for Postgres.
type Sink struct {
	pool *pgxpool.Pool
}

// New opens a pool for cfg.DSN and checks connectivity.
func New(ctx context.Context, cfg storage.Config) (storage.Sink, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Sink{pool: pool}, nil
}

// Close closes the pool.
func (s *Sink) Close() { s.pool.Close() }

// EnsureTable implements storage.Sink. A schema-qualified name also gets
// CREATE SCHEMA IF NOT EXISTS.
func (s *Sink) EnsureTable(ctx context.Context, spec storage.TableSpec) error {
	schemaSQL, tableSQL, err := buildCreateSQL(spec)
	if err != nil {
		return err
	}
	if schemaSQL != "" {
		if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
			return fmt.Errorf("create schema for %s: %w", spec.Name, err)
		}
	}
	if _, err := s.pool.Exec(ctx, tableSQL); err != nil {
		return fmt.Errorf("create table %s: %w", spec.Name, err)
	}
	return nil
}

// InsertRows implements storage.Sink.
//
// Without dedupe columns rows are streamed with COPY. With dedupe columns
// the load becomes INSERT ... ON CONFLICT (...) DO NOTHING, chunked under
// the bind parameter limit, all in one transaction.
func (s *Sink) InsertRows(ctx context.Context, table string, columns []string, rows [][]any, dedupeColumns []string) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if len(columns) == 0 {
		return 0, fmt.Errorf("postgres: insert into %s without columns", table)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var total int64
	if len(dedupeColumns) == 0 {
		total, err = tx.CopyFrom(ctx, tableIdentifier(table), columns, pgx.CopyFromRows(rows))
		if err != nil {
			return 0, err
		}
	} else {
		per := maxParams / len(columns)
		for start := 0; start < len(rows); start += per {
			end := min(start+per, len(rows))
			q, args := buildInsertSQL(table, columns, rows[start:end], dedupeColumns)
			tag, err := tx.Exec(ctx, q, args...)
			if err != nil {
				return 0, err
			}
			total += tag.RowsAffected()
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return total, nil
}

func tableIdentifier(name string) pgx.Identifier {
	parts := strings.Split(strings.TrimSpace(name), ".")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return pgx.Identifier(parts)
}

func pgIdent(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

func joinIdents(cols []string) string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = pgIdent(c)
	}
	return strings.Join(out, ", ")
}

func columnType(t storage.ColumnType) (string, error) {
	switch t {
	case storage.TypeText:
		return "TEXT", nil
	case storage.TypeHash:
		return "CHAR(64)", nil
	case storage.TypeBigInt:
		return "BIGINT", nil
	case storage.TypeDouble:
		return "DOUBLE PRECISION", nil
	case storage.TypeBool:
		return "BOOLEAN", nil
	case storage.TypeDate:
		return "DATE", nil
	default:
		return "", fmt.Errorf("postgres: unsupported column type %q", t)
	}
}

func buildCreateSQL(spec storage.TableSpec) (schemaSQL, tableSQL string, err error) {
	if strings.TrimSpace(spec.Name) == "" {
		return "", "", fmt.Errorf("table name is empty")
	}
	if len(spec.Columns) == 0 {
		return "", "", fmt.Errorf("table %s has no columns", spec.Name)
	}

	ident := tableIdentifier(spec.Name)
	if len(ident) == 2 {
		schemaSQL = "CREATE SCHEMA IF NOT EXISTS " + pgIdent(ident[0])
	}

	defs := make([]string, 0, len(spec.Columns)+1)
	for _, c := range spec.Columns {
		typ, err := columnType(c.Type)
		if err != nil {
			return "", "", err
		}
		def := pgIdent(c.Name) + " " + typ
		if !c.Nullable {
			def += " NOT NULL"
		}
		defs = append(defs, def)
	}
	if len(spec.Unique) > 0 {
		defs = append(defs, "UNIQUE ("+joinIdents(spec.Unique)+")")
	}

	tableSQL = "CREATE TABLE IF NOT EXISTS " + ident.Sanitize() + " (\n  " +
		strings.Join(defs, ",\n  ") + "\n)"
	return schemaSQL, tableSQL, nil
}

// buildInsertSQL builds one multi-row INSERT with $n placeholders and an
// ON CONFLICT DO NOTHING clause when dedupeColumns is set.
func buildInsertSQL(table string, columns []string, rows [][]any, dedupeColumns []string) (string, []any) {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(tableIdentifier(table).Sanitize())
	b.WriteString(" (")
	b.WriteString(joinIdents(columns))
	b.WriteString(") VALUES ")

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
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(p))
			args = append(args, row[j])
			p++
		}
		b.WriteByte(')')
	}

	if len(dedupeColumns) > 0 {
		b.WriteString(" ON CONFLICT (")
		b.WriteString(joinIdents(dedupeColumns))
		b.WriteString(") DO NOTHING")
	}
	return b.String(), args
}
