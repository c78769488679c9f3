// Package postgres implements a Postgres warehouse backend using pgx v5.
// Postgres DDL is transactional, so Replace runs drop + create + batched
// inserts inside a single transaction; rows are flushed with pgx batches to
// keep round trips low.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"retaildw/internal/warehouse"
	"retaildw/internal/warehouse/ddl"
)

// Dialect maps logical column kinds to Postgres types. Flags are SMALLINT so
// that SUM(is_return) works the same on every backend.
var Dialect = ddl.Dialect{
	MapType: func(kind string) string {
		switch strings.ToLower(strings.TrimSpace(kind)) {
		case "int", "integer", "bigint":
			return "BIGINT"
		case "bool", "boolean":
			return "SMALLINT"
		case "numeric", "decimal":
			return "NUMERIC(20,4)"
		case "float", "double", "real":
			return "DOUBLE PRECISION"
		default:
			return "TEXT"
		}
	},
	QuoteIdent: ddl.QuoteDouble,
}

// Repository is a Postgres-backed implementation of warehouse.Repository.
type Repository struct {
	pool      *pgxpool.Pool
	batchSize int
}

// New opens a pgx pool for the DSN and verifies connectivity.
func New(ctx context.Context, cfg warehouse.Config) (*Repository, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres: pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return &Repository{pool: pool, batchSize: cfg.BatchSize}, nil
}

// Replace rebuilds all tables inside one transaction.
func (r *Repository) Replace(ctx context.Context, tables []warehouse.Table) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for i := len(tables) - 1; i >= 0; i-- {
		drop := "DROP TABLE IF EXISTS " + Dialect.QuoteIdent(tables[i].Def.Name)
		if _, err := tx.Exec(ctx, drop); err != nil {
			return fmt.Errorf("postgres: drop %s: %w", tables[i].Def.Name, err)
		}
	}

	for _, t := range tables {
		create, err := ddl.BuildCreateTableSQL(Dialect, t.Def)
		if err != nil {
			return fmt.Errorf("postgres: ddl %s: %w", t.Def.Name, err)
		}
		if _, err := tx.Exec(ctx, create); err != nil {
			return fmt.Errorf("postgres: create %s: %w", t.Def.Name, err)
		}
		if err := r.insertAll(ctx, tx, t); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

func (r *Repository) insertAll(ctx context.Context, tx pgx.Tx, t warehouse.Table) error {
	if len(t.Rows) == 0 {
		return nil
	}
	insert := ddl.BuildInsertSQL(Dialect, t.Def, func(i int) string {
		return fmt.Sprintf("$%d", i)
	})

	for _, rows := range warehouse.SplitBatches(t.Rows, r.batchSize) {
		b := &pgx.Batch{}
		for _, row := range rows {
			if len(row) != len(t.Def.Columns) {
				return fmt.Errorf("postgres: %s: row length %d != %d columns",
					t.Def.Name, len(row), len(t.Def.Columns))
			}
			b.Queue(insert, row...)
		}
		if err := tx.SendBatch(ctx, b).Close(); err != nil {
			return fmt.Errorf("postgres: insert %s: %w", t.Def.Name, err)
		}
	}
	return nil
}

// Query runs a read-only statement and streams rows to fn.
func (r *Repository) Query(ctx context.Context, query string, fn warehouse.RowFunc) error {
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return fmt.Errorf("postgres: query: %w", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = f.Name
	}
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return fmt.Errorf("postgres: scan: %w", err)
		}
		if err := fn(cols, vals); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Close releases the pool.
func (r *Repository) Close() { r.pool.Close() }

var _ warehouse.Repository = (*Repository)(nil)

func init() {
	warehouse.Register("postgres", func(ctx context.Context, cfg warehouse.Config) (warehouse.Repository, error) {
		return New(ctx, cfg)
	})
}
