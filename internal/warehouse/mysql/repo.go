// Package mysql implements a MySQL warehouse backend using database/sql and
// go-sql-driver. MySQL DDL is not transactional, so Replace stages every
// table under a __stage suffix, loads the staged rows inside a transaction,
// and then swaps staged to live with a single multi-table RENAME TABLE,
// which MySQL guarantees to be atomic. A failed load therefore never touches
// the live tables.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql" // driver: "mysql"

	"retaildw/internal/warehouse"
	"retaildw/internal/warehouse/ddl"
)

const (
	stageSuffix = "__stage"
	oldSuffix   = "__old"
)

// Dialect maps logical column kinds to MySQL types. Text columns are
// VARCHAR(255) so the dimension natural keys stay uniquely indexable.
var Dialect = ddl.Dialect{
	MapType: func(kind string) string {
		switch strings.ToLower(strings.TrimSpace(kind)) {
		case "int", "integer", "bigint":
			return "BIGINT"
		case "bool", "boolean":
			return "TINYINT"
		case "numeric", "decimal":
			return "DECIMAL(20,4)"
		case "float", "double", "real":
			return "DOUBLE"
		default:
			return "VARCHAR(255)"
		}
	},
	QuoteIdent: func(id string) string {
		return "`" + strings.ReplaceAll(id, "`", "``") + "`"
	},
}

// Repository is a MySQL-backed implementation of warehouse.Repository.
type Repository struct {
	db        *sql.DB
	batchSize int
}

// New opens a MySQL connection pool for the DSN and verifies connectivity.
func New(ctx context.Context, cfg warehouse.Config) (*Repository, error) {
	db, err := sql.Open("mysql", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("mysql: open: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("mysql: ping: %w", err)
	}
	return &Repository{db: db, batchSize: cfg.BatchSize}, nil
}

// Replace stages, loads, and swaps the warehouse tables.
func (r *Repository) Replace(ctx context.Context, tables []warehouse.Table) error {
	if err := r.dropLeftovers(ctx, tables); err != nil {
		return err
	}

	// Create and fill the staged copies. FKs point at the staged dimension
	// names; RENAME TABLE rewrites them to the live names during the swap.
	for _, t := range tables {
		staged := stagedDef(t.Def)
		create, err := ddl.BuildCreateTableSQL(Dialect, staged)
		if err != nil {
			return fmt.Errorf("mysql: ddl %s: %w", staged.Name, err)
		}
		if _, err := r.db.ExecContext(ctx, create); err != nil {
			return fmt.Errorf("mysql: create %s: %w", staged.Name, err)
		}
	}
	if err := r.loadStaged(ctx, tables); err != nil {
		return err
	}

	if err := r.swap(ctx, tables); err != nil {
		return err
	}
	r.dropOld(ctx, tables)
	return nil
}

// dropLeftovers removes staged/old tables from an earlier failed run, facts
// first so foreign keys never dangle.
func (r *Repository) dropLeftovers(ctx context.Context, tables []warehouse.Table) error {
	for i := len(tables) - 1; i >= 0; i-- {
		for _, suffix := range []string{stageSuffix, oldSuffix} {
			drop := "DROP TABLE IF EXISTS " + Dialect.QuoteIdent(tables[i].Def.Name+suffix)
			if _, err := r.db.ExecContext(ctx, drop); err != nil {
				return fmt.Errorf("mysql: drop leftover: %w", err)
			}
		}
	}
	return nil
}

// loadStaged inserts all rows into the staged tables inside one transaction.
func (r *Repository) loadStaged(ctx context.Context, tables []warehouse.Table) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("mysql: begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, t := range tables {
		if len(t.Rows) == 0 {
			continue
		}
		staged := stagedDef(t.Def)
		insert := ddl.BuildInsertSQL(Dialect, staged, func(int) string { return "?" })
		stmt, err := tx.PrepareContext(ctx, insert)
		if err != nil {
			return fmt.Errorf("mysql: prepare insert %s: %w", staged.Name, err)
		}
		for _, batch := range warehouse.SplitBatches(t.Rows, r.batchSize) {
			for _, row := range batch {
				if len(row) != len(t.Def.Columns) {
					stmt.Close()
					return fmt.Errorf("mysql: %s: row length %d != %d columns",
						t.Def.Name, len(row), len(t.Def.Columns))
				}
				if _, err := stmt.ExecContext(ctx, row...); err != nil {
					stmt.Close()
					return fmt.Errorf("mysql: insert %s: %w", staged.Name, err)
				}
			}
		}
		stmt.Close()
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("mysql: commit staged load: %w", err)
	}
	return nil
}

// swap renames staged tables to live (and live to __old when present) in one
// atomic RENAME TABLE statement.
func (r *Repository) swap(ctx context.Context, tables []warehouse.Table) error {
	live, err := r.existing(ctx, tables)
	if err != nil {
		return err
	}

	var pairs []string
	for _, t := range tables {
		name := t.Def.Name
		if live[name] {
			pairs = append(pairs, fmt.Sprintf("%s TO %s",
				Dialect.QuoteIdent(name), Dialect.QuoteIdent(name+oldSuffix)))
		}
		pairs = append(pairs, fmt.Sprintf("%s TO %s",
			Dialect.QuoteIdent(name+stageSuffix), Dialect.QuoteIdent(name)))
	}
	rename := "RENAME TABLE " + strings.Join(pairs, ", ")
	if _, err := r.db.ExecContext(ctx, rename); err != nil {
		return fmt.Errorf("mysql: swap: %w", err)
	}
	return nil
}

// existing reports which live warehouse tables are already present.
func (r *Repository) existing(ctx context.Context, tables []warehouse.Table) (map[string]bool, error) {
	names := make([]string, 0, len(tables))
	args := make([]any, 0, len(tables))
	for _, t := range tables {
		names = append(names, "?")
		args = append(args, t.Def.Name)
	}
	query := fmt.Sprintf(
		"SELECT table_name FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name IN (%s)",
		strings.Join(names, ","),
	)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("mysql: list tables: %w", err)
	}
	defer rows.Close()

	out := map[string]bool{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("mysql: scan table name: %w", err)
		}
		out[name] = true
	}
	return out, rows.Err()
}

// dropOld removes the displaced previous generation. Failures only leak
// __old tables, which the next run's dropLeftovers clears; the swap already
// committed, so they are not reported as errors.
func (r *Repository) dropOld(ctx context.Context, tables []warehouse.Table) {
	for i := len(tables) - 1; i >= 0; i-- {
		drop := "DROP TABLE IF EXISTS " + Dialect.QuoteIdent(tables[i].Def.Name+oldSuffix)
		_, _ = r.db.ExecContext(ctx, drop)
	}
}

// stagedDef rewrites a table definition (and its FK targets) to the staged
// names.
func stagedDef(def ddl.TableDef) ddl.TableDef {
	out := def
	out.Name = def.Name + stageSuffix
	out.ForeignKeys = make([]ddl.ForeignKey, len(def.ForeignKeys))
	for i, fk := range def.ForeignKeys {
		fk.RefTable += stageSuffix
		out.ForeignKeys[i] = fk
	}
	return out
}

// Query runs a read-only statement and streams rows to fn.
func (r *Repository) Query(ctx context.Context, query string, fn warehouse.RowFunc) error {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("mysql: query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("mysql: columns: %w", err)
	}
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return fmt.Errorf("mysql: scan: %w", err)
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
	warehouse.Register("mysql", func(ctx context.Context, cfg warehouse.Config) (warehouse.Repository, error) {
		return New(ctx, cfg)
	})
}
