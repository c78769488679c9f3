package warehouse

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"retaildw/internal/model"
)

// TestSplitBatches covers batch partitioning, including the ragged tail and
// degenerate sizes.
func TestSplitBatches(t *testing.T) {
	t.Parallel()

	mkRows := func(n int) [][]any {
		rows := make([][]any, n)
		for i := range rows {
			rows[i] = []any{int64(i)}
		}
		return rows
	}

	tests := []struct {
		name      string
		rows      int
		size      int
		wantSizes []int
	}{
		{name: "exact_multiple", rows: 6, size: 3, wantSizes: []int{3, 3}},
		{name: "ragged_tail", rows: 7, size: 3, wantSizes: []int{3, 3, 1}},
		{name: "single_batch", rows: 2, size: 10, wantSizes: []int{2}},
		{name: "empty_input", rows: 0, size: 3, wantSizes: nil},
		{name: "zero_size_uses_default", rows: 3, size: 0, wantSizes: []int{3}},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			batches := SplitBatches(mkRows(tc.rows), tc.size)
			if len(batches) != len(tc.wantSizes) {
				t.Fatalf("batches = %d, want %d", len(batches), len(tc.wantSizes))
			}
			total := 0
			for i, b := range batches {
				if len(b) != tc.wantSizes[i] {
					t.Errorf("batch %d size = %d, want %d", i, len(b), tc.wantSizes[i])
				}
				total += len(b)
			}
			if total != tc.rows {
				t.Errorf("rows across batches = %d, want %d", total, tc.rows)
			}
		})
	}
}

// TestRegisterNew verifies factory registration and kind lookup.
func TestRegisterNew(t *testing.T) {
	called := false
	Register("test-kind", func(ctx context.Context, cfg Config) (Repository, error) {
		called = true
		if cfg.DSN != "test-dsn" {
			t.Errorf("factory DSN = %q", cfg.DSN)
		}
		return nil, nil
	})

	if _, err := New(context.Background(), Config{Kind: "test-kind", DSN: "test-dsn"}); err != nil {
		t.Fatalf("New: %v", err)
	}
	if !called {
		t.Error("factory was not invoked")
	}

	if _, err := New(context.Background(), Config{Kind: "no-such-kind"}); err == nil {
		t.Fatal("New accepted an unregistered kind")
	}

	found := false
	for _, k := range Kinds() {
		if k == "test-kind" {
			found = true
		}
	}
	if !found {
		t.Errorf("Kinds() = %v, missing test-kind", Kinds())
	}
}

/*
TestStarTables verifies the value rendering contract: every cell is an int64
or a string, decimals come out as plain fixed-point strings, timestamps use
the warehouse layout, and the return flag maps to 0/1.
*/
func TestStarTables(t *testing.T) {
	t.Parallel()

	s := model.Star{
		Dates: []model.DimDate{{
			Key: 1, FullDate: "2009-12-01", Year: 2009, Month: 12,
			MonthName: "Dec", Quarter: 4, Day: 1, Weekday: 2,
		}},
		Products:  []model.DimProduct{{Key: 1, StockCode: "85123A", Description: "HOLDER"}},
		Customers: []model.DimCustomer{{Key: 1, CustomerID: model.GuestCustomerID}},
		Countries: []model.DimCountry{{Key: 1, Country: "United Kingdom"}},
		Facts: []model.FactRow{{
			LineID:    1,
			InvoiceNo: "C536379",
			InvoiceAt: time.Date(2009, 12, 1, 9, 41, 0, 0, time.UTC),
			DateKey:   1, CustomerKey: 1, ProductKey: 1, CountryKey: 1,
			Quantity:  -3,
			UnitPrice: decimal.RequireFromString("5.00"),
			NetAmount: decimal.RequireFromString("-15.00"),
			IsReturn:  true,
		}},
	}

	tables := StarTables(s)
	if len(tables) != len(TableNames) {
		t.Fatalf("tables = %d, want %d", len(tables), len(TableNames))
	}
	for i, tbl := range tables {
		if tbl.Def.Name != TableNames[i] {
			t.Errorf("table %d = %q, want %q (load order)", i, tbl.Def.Name, TableNames[i])
		}
		for r, row := range tbl.Rows {
			if len(row) != len(tbl.Def.Columns) {
				t.Fatalf("%s row %d: %d values for %d columns", tbl.Def.Name, r, len(row), len(tbl.Def.Columns))
			}
			for c, v := range row {
				switch v.(type) {
				case int64, string:
				default:
					t.Errorf("%s row %d col %d: unexpected type %T", tbl.Def.Name, r, c, v)
				}
			}
		}
	}

	factRow := tables[4].Rows[0]
	if got := factRow[2]; got != "2009-12-01 09:41:00" {
		t.Errorf("invoice_datetime = %v", got)
	}
	if got := factRow[9]; got != "-15.0000" {
		t.Errorf("net_amount = %v, want -15.0000", got)
	}
	if got := factRow[8]; got != "5.0000" {
		t.Errorf("unit_price = %v, want 5.0000", got)
	}
	if got := factRow[10]; got != int64(1) {
		t.Errorf("is_return = %v, want 1", got)
	}
}

// TestStarDefs verifies the definitions expose the load order used by
// Replace and the exporters.
func TestStarDefs(t *testing.T) {
	t.Parallel()

	defs := StarDefs()
	for i, def := range defs {
		if def.Name != TableNames[i] {
			t.Errorf("def %d = %q, want %q", i, def.Name, TableNames[i])
		}
	}
	// fact_sales must come last so its foreign keys resolve during load.
	if defs[len(defs)-1].Name != TableFactSales {
		t.Errorf("last table = %q, want %q", defs[len(defs)-1].Name, TableFactSales)
	}
}
