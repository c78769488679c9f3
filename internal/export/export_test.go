package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"retaildw/internal/warehouse"
)

// fakeRepo serves canned rows per table, keyed by the table name embedded in
// the query. It implements warehouse.Repository for read paths only.
type fakeRepo struct {
	rows map[string][][]any
	err  error
}

func (f *fakeRepo) Replace(context.Context, []warehouse.Table) error { return nil }
func (f *fakeRepo) Close()                                           {}

func (f *fakeRepo) Query(ctx context.Context, query string, fn warehouse.RowFunc) error {
	if f.err != nil {
		return f.err
	}
	for table, rows := range f.rows {
		if !strings.Contains(query, " FROM "+table+" ") && !strings.HasSuffix(query, " FROM "+table) {
			continue
		}
		for _, row := range rows {
			if err := fn(nil, row); err != nil {
				return err
			}
		}
		return nil
	}
	return nil
}

/*
TestTables verifies the export contract:

  - one CSV per warehouse table, named <table>.csv,
  - the header row lists the table's columns in definition order,
  - values are rendered per type (int64 plain, bool as 0/1, nil empty).
*/
func TestTables(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{rows: map[string][][]any{
		warehouse.TableDimCountry: {
			{int64(1), "United Kingdom"},
			{int64(2), "France"},
		},
		warehouse.TableFactSales: {
			{int64(1), "536365", "2009-12-01 07:45:00", int64(1), int64(1), int64(1), int64(1), int64(6), "2.55", "15.30", int64(0)},
		},
	}}

	dir := t.TempDir()
	if err := Tables(context.Background(), repo, dir); err != nil {
		t.Fatalf("Tables: %v", err)
	}

	for _, name := range warehouse.TableNames {
		if _, err := os.Stat(filepath.Join(dir, name+".csv")); err != nil {
			t.Errorf("missing export for %s: %v", name, err)
		}
	}

	countries := readCSV(t, filepath.Join(dir, warehouse.TableDimCountry+".csv"))
	if len(countries) != 3 {
		t.Fatalf("dim_country lines = %d, want header + 2", len(countries))
	}
	if got := strings.Join(countries[0], ","); got != "country_key,country" {
		t.Errorf("dim_country header = %q", got)
	}
	if got := strings.Join(countries[1], ","); got != "1,United Kingdom" {
		t.Errorf("dim_country row = %q", got)
	}

	facts := readCSV(t, filepath.Join(dir, warehouse.TableFactSales+".csv"))
	if facts[1][8] != "2.55" {
		t.Errorf("unit_price cell = %q", facts[1][8])
	}
}

// TestTables_QueryError verifies a failing read aborts the export.
func TestTables_QueryError(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{err: fmt.Errorf("connection lost")}
	if err := Tables(context.Background(), repo, t.TempDir()); err == nil {
		t.Fatal("Tables succeeded despite query errors")
	}
}

// TestRenderCSV pins the per-type cell rendering.
func TestRenderCSV(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"text", "text"},
		{[]byte("bytes"), "bytes"},
		{int64(-15), "-15"},
		{3.14, "3.14"},
		{true, "1"},
		{false, "0"},
	}
	for _, tc := range tests {
		if got := renderCSV(tc.in); got != tc.want {
			t.Errorf("renderCSV(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return rows
}
