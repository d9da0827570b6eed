// Package storage defines the database sink contract for cleaned tables and
// the registry that maps a configured kind ("sqlite", "postgres", "mssql")
// to a backend.
//
// Backends register themselves from init(); import internal/storage/all to
// link every backend in.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Config selects and configures a backend.
type Config struct {
	Kind string
	DSN  string
}

// Sink is a backend-agnostic destination for cleaned tables.
//
// Each backend implements idempotent loads its own way (Postgres ON CONFLICT,
// SQLite OR IGNORE, SQL Server NOT EXISTS) so reloading the same file does
// not duplicate rows.
type Sink interface {
	// Close releases connections. Call once.
	Close()

	// EnsureTable creates the table when it does not exist. An existing table
	// is left untouched.
	EnsureTable(ctx context.Context, spec TableSpec) error

	// InsertRows inserts rows (one []any per row, ordered like columns).
	// When dedupeColumns is non-empty, rows whose dedupe key already exists
	// are skipped, including repeats inside rows. Returns rows inserted.
	InsertRows(ctx context.Context, table string, columns []string, rows [][]any, dedupeColumns []string) (int64, error)
}

// Factory opens a Sink for cfg.
type Factory func(ctx context.Context, cfg Config) (Sink, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register makes a backend available under kind.
//
// Panics if kind is empty, f is nil, or kind is already registered.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()

	if kind == "" {
		panic("storage: Register called with empty kind")
	}
	if f == nil {
		panic("storage: Register called with nil factory")
	}
	if _, exists := factories[kind]; exists {
		panic(fmt.Sprintf("storage: factory already registered for kind=%q", kind))
	}
	factories[kind] = f
}

// New opens a Sink with the backend registered for cfg.Kind.
func New(ctx context.Context, cfg Config) (Sink, error) {
	if cfg.Kind == "" {
		return nil, fmt.Errorf("storage: missing kind")
	}

	mu.RLock()
	f := factories[cfg.Kind]
	mu.RUnlock()

	if f == nil {
		return nil, fmt.Errorf("storage: unsupported kind=%s (registered: %v)", cfg.Kind, Kinds())
	}
	return f(ctx, cfg)
}

// Kinds lists registered backend kinds, sorted.
func Kinds() []string {
	mu.RLock()
	defer mu.RUnlock()

	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
