// Package sqlite implements the default, embedded warehouse backend using
// database/sql and the pure-Go modernc driver. The whole Replace runs inside
// a single transaction; SQLite DDL is transactional, so a failed load leaves
// the previously committed tables untouched.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // driver: "sqlite"

	"retaildw/internal/warehouse"
	"retaildw/internal/warehouse/ddl"
)

// Dialect maps logical column kinds to SQLite affinities.
var Dialect = ddl.Dialect{
	MapType: func(kind string) string {
		switch strings.ToLower(strings.TrimSpace(kind)) {
		case "int", "integer", "bigint":
			return "INTEGER"
		case "bool", "boolean":
			return "INTEGER" // 0/1
		case "numeric", "decimal":
			return "NUMERIC"
		case "float", "double", "real":
			return "REAL"
		default:
			return "TEXT"
		}
	},
	QuoteIdent: ddl.QuoteDouble,
}

// Repository is a SQLite-backed implementation of warehouse.Repository.
type Repository struct {
	db        *sql.DB
	batchSize int
}

// New opens a SQLite connection using the provided DSN and returns a
// Repository. The DSN is passed directly to database/sql; a bare file path
// works, as does "file:retail.db?cache=shared".
func New(ctx context.Context, cfg warehouse.Config) (*Repository, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("sqlite: DSN must not be empty")
	}

	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: enable foreign keys: %w", err)
	}

	return &Repository{db: db, batchSize: cfg.BatchSize}, nil
}

// Replace rebuilds all tables inside one transaction: drop (reverse order, so
// the fact table goes before the dimensions it references), create, insert.
func (r *Repository) Replace(ctx context.Context, tables []warehouse.Table) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin tx: %w", err)
	}
	defer tx.Rollback()

	for i := len(tables) - 1; i >= 0; i-- {
		drop := "DROP TABLE IF EXISTS " + Dialect.QuoteIdent(tables[i].Def.Name)
		if _, err := tx.ExecContext(ctx, drop); err != nil {
			return fmt.Errorf("sqlite: drop %s: %w", tables[i].Def.Name, err)
		}
	}

	for _, t := range tables {
		create, err := ddl.BuildCreateTableSQL(Dialect, t.Def)
		if err != nil {
			return fmt.Errorf("sqlite: ddl %s: %w", t.Def.Name, err)
		}
		if _, err := tx.ExecContext(ctx, create); err != nil {
			return fmt.Errorf("sqlite: create %s: %w", t.Def.Name, err)
		}
		if err := r.insertAll(ctx, tx, t); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}

func (r *Repository) insertAll(ctx context.Context, tx *sql.Tx, t warehouse.Table) error {
	if len(t.Rows) == 0 {
		return nil
	}
	insert := ddl.BuildInsertSQL(Dialect, t.Def, func(int) string { return "?" })
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return fmt.Errorf("sqlite: prepare insert %s: %w", t.Def.Name, err)
	}
	defer stmt.Close()

	for _, batch := range warehouse.SplitBatches(t.Rows, r.batchSize) {
		for _, row := range batch {
			if len(row) != len(t.Def.Columns) {
				return fmt.Errorf("sqlite: %s: row length %d != %d columns",
					t.Def.Name, len(row), len(t.Def.Columns))
			}
			if _, err := stmt.ExecContext(ctx, row...); err != nil {
				return fmt.Errorf("sqlite: insert %s: %w", t.Def.Name, err)
			}
		}
	}
	return nil
}

// Query runs a read-only statement and streams rows to fn.
func (r *Repository) Query(ctx context.Context, query string, fn warehouse.RowFunc) error {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("sqlite: query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("sqlite: columns: %w", err)
	}
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return fmt.Errorf("sqlite: scan: %w", err)
		}
		if err := fn(cols, vals); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Close releases the underlying connection pool.
func (r *Repository) Close() { r.db.Close() }

var _ warehouse.Repository = (*Repository)(nil)

func init() {
	warehouse.Register("sqlite", func(ctx context.Context, cfg warehouse.Config) (warehouse.Repository, error) {
		return New(ctx, cfg)
	})
}
