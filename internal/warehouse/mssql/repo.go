// Package mssql implements a SQL Server warehouse backend using database/sql
// and go-mssqldb. SQL Server DDL is transactional, so Replace runs drop +
// create + batched inserts inside a single transaction, like the SQLite and
// Postgres backends.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/microsoft/go-mssqldb" // driver: "sqlserver"
	"github.com/microsoft/go-mssqldb/msdsn"

	"retaildw/internal/warehouse"
	"retaildw/internal/warehouse/ddl"
)

// Dialect maps logical column kinds to SQL Server types.
var Dialect = ddl.Dialect{
	MapType: func(kind string) string {
		switch strings.ToLower(strings.TrimSpace(kind)) {
		case "int", "integer", "bigint":
			return "BIGINT"
		case "bool", "boolean":
			return "SMALLINT"
		case "numeric", "decimal":
			return "DECIMAL(20,4)"
		case "float", "double", "real":
			return "FLOAT"
		default:
			return "NVARCHAR(255)"
		}
	},
	QuoteIdent: func(id string) string {
		return "[" + strings.ReplaceAll(id, "]", "]]") + "]"
	},
}

// Repository is a SQL Server-backed implementation of warehouse.Repository.
type Repository struct {
	db        *sql.DB
	batchSize int
}

// New validates the DSN, opens a connection pool, and verifies connectivity.
func New(ctx context.Context, cfg warehouse.Config) (*Repository, error) {
	// Validate DSN early to fail fast on obvious mistakes.
	if _, err := msdsn.Parse(cfg.DSN); err != nil {
		return nil, fmt.Errorf("mssql: dsn: %w", err)
	}
	db, err := sql.Open("sqlserver", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("mssql: open: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("mssql: ping: %w", err)
	}
	return &Repository{db: db, batchSize: cfg.BatchSize}, nil
}

// Replace rebuilds all tables inside one transaction.
func (r *Repository) Replace(ctx context.Context, tables []warehouse.Table) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("mssql: begin tx: %w", err)
	}
	defer tx.Rollback()

	for i := len(tables) - 1; i >= 0; i-- {
		name := tables[i].Def.Name
		drop := fmt.Sprintf(
			"IF OBJECT_ID(N'%s', N'U') IS NOT NULL DROP TABLE %s",
			name, Dialect.QuoteIdent(name),
		)
		if _, err := tx.ExecContext(ctx, drop); err != nil {
			return fmt.Errorf("mssql: drop %s: %w", name, err)
		}
	}

	for _, t := range tables {
		create, err := ddl.BuildCreateTableSQL(Dialect, t.Def)
		if err != nil {
			return fmt.Errorf("mssql: ddl %s: %w", t.Def.Name, err)
		}
		if _, err := tx.ExecContext(ctx, create); err != nil {
			return fmt.Errorf("mssql: create %s: %w", t.Def.Name, err)
		}
		if err := r.insertAll(ctx, tx, t); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("mssql: commit: %w", err)
	}
	return nil
}

func (r *Repository) insertAll(ctx context.Context, tx *sql.Tx, t warehouse.Table) error {
	if len(t.Rows) == 0 {
		return nil
	}
	insert := ddl.BuildInsertSQL(Dialect, t.Def, func(i int) string {
		return fmt.Sprintf("@p%d", i)
	})
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return fmt.Errorf("mssql: prepare insert %s: %w", t.Def.Name, err)
	}
	defer stmt.Close()

	for _, batch := range warehouse.SplitBatches(t.Rows, r.batchSize) {
		for _, row := range batch {
			if len(row) != len(t.Def.Columns) {
				return fmt.Errorf("mssql: %s: row length %d != %d columns",
					t.Def.Name, len(row), len(t.Def.Columns))
			}
			if _, err := stmt.ExecContext(ctx, row...); err != nil {
				return fmt.Errorf("mssql: insert %s: %w", t.Def.Name, err)
			}
		}
	}
	return nil
}

// Query runs a read-only statement and streams rows to fn.
func (r *Repository) Query(ctx context.Context, query string, fn warehouse.RowFunc) error {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("mssql: query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("mssql: columns: %w", err)
	}
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return fmt.Errorf("mssql: scan: %w", err)
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
	warehouse.Register("mssql", func(ctx context.Context, cfg warehouse.Config) (warehouse.Repository, error) {
		return New(ctx, cfg)
	})
}
