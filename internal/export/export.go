// Package export writes each warehouse table to a CSV file so the dashboard
// tool can ingest the star schema without a live database connection.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"retaildw/internal/warehouse"
	"retaildw/internal/warehouse/ddl"
)

// Tables writes one "<dir>/<table>.csv" per warehouse table, header row
// first, ordered by surrogate key so repeated exports of the same warehouse
// are byte-identical. Tables are exported concurrently; the warehouse is
// already committed and only read here.
func Tables(ctx context.Context, repo warehouse.Repository, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("export: mkdir %s: %w", dir, err)
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, def := range warehouse.StarDefs() {
		def := def
		g.Go(func() error {
			return exportTable(ctx, repo, dir, def)
		})
	}
	return g.Wait()
}

func exportTable(ctx context.Context, repo warehouse.Repository, dir string, def ddl.TableDef) error {
	path := filepath.Join(dir, def.Name+".csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	cols := def.ColumnNames()
	if err := w.Write(cols); err != nil {
		return fmt.Errorf("export %s: header: %w", def.Name, err)
	}

	query := fmt.Sprintf(
		"SELECT %s FROM %s ORDER BY %s",
		strings.Join(cols, ", "), def.Name, cols[0],
	)
	record := make([]string, len(cols))
	err = repo.Query(ctx, query, func(_ []string, values []any) error {
		for i, v := range values {
			record[i] = renderCSV(v)
		}
		return w.Write(record)
	})
	if err != nil {
		return fmt.Errorf("export %s: %w", def.Name, err)
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("export %s: flush: %w", def.Name, err)
	}
	return f.Close()
}

// renderCSV converts a driver value into its CSV cell form.
func renderCSV(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		if t {
			return "1"
		}
		return "0"
	case time.Time:
		return t.Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprint(t)
	}
}
