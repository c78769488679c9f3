// Package warehouse contains storage-agnostic contracts for the star-schema
// warehouse: the Repository interface every backend implements, a factory
// registry keyed by storage kind, and the table definitions shared by all
// backends.
//
// Backends register themselves in init (see the sibling sqlite, postgres,
// mysql, and mssql packages); importing warehouse/all for side effects makes
// every built-in backend available.
package warehouse

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"retaildw/internal/warehouse/ddl"
)

// Config selects and configures a warehouse backend.
type Config struct {
	// Kind selects the backend: "sqlite", "postgres", "mysql", or "mssql".
	Kind string

	// DSN is the backend connection string; for sqlite, a file path works.
	DSN string

	// BatchSize bounds rows per INSERT flush. Defaults to 500 when <= 0.
	BatchSize int
}

// DefaultBatchSize is applied when Config.BatchSize is unset.
const DefaultBatchSize = 500

// Table pairs a table definition with the rows to load, aligned to the
// definition's column order. Values are restricted to int64 and string;
// the pipeline renders decimals, timestamps, and flags before load.
type Table struct {
	Def  ddl.TableDef
	Rows [][]any
}

// RowFunc receives one result row during Query. Returning an error stops the
// iteration and is propagated to the caller.
type RowFunc func(columns []string, values []any) error

// Repository is a warehouse backend.
type Repository interface {
	// Replace atomically replaces the warehouse contents with the given
	// tables, in order (dimensions first, facts last): after Replace returns
	// nil all tables are fully written; after an error the previously loaded
	// contents are untouched.
	Replace(ctx context.Context, tables []Table) error

	// Query runs a read-only statement and streams result rows to fn.
	Query(ctx context.Context, query string, fn RowFunc) error

	// Close releases the underlying connection(s).
	Close()
}

// Factory constructs a Repository for one storage kind.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	regMu     sync.RWMutex
	factories = map[string]Factory{}
)

// Register registers (or replaces) the factory for the given storage kind.
// It is typically called from backend packages' init functions.
func Register(kind string, f Factory) {
	regMu.Lock()
	defer regMu.Unlock()
	factories[kind] = f
}

// New opens a Repository for cfg.Kind. The caller owns the returned
// repository and must Close it.
func New(ctx context.Context, cfg Config) (Repository, error) {
	regMu.RLock()
	f, ok := factories[cfg.Kind]
	regMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown warehouse kind %q (registered: %v)", cfg.Kind, Kinds())
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	return f(ctx, cfg)
}

// Kinds returns the registered storage kinds, sorted.
func Kinds() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// SplitBatches cuts rows into batches of at most size rows. Backends use it
// to bound statement and memory size during Replace.
func SplitBatches(rows [][]any, size int) [][][]any {
	if size <= 0 {
		size = DefaultBatchSize
	}
	var out [][][]any
	for len(rows) > size {
		out = append(out, rows[:size])
		rows = rows[size:]
	}
	if len(rows) > 0 {
		out = append(out, rows)
	}
	return out
}
