package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	_ "retaildw/internal/warehouse/all"

	"retaildw/internal/config"
	"retaildw/internal/warehouse"
)

// sampleCSV is a small but representative input: a normal basket, a guest
// checkout, a cancellation, a zero-quantity adjustment, a duplicate line,
// and a short (malformed) line.
const sampleCSV = `Invoice,StockCode,Description,Quantity,InvoiceDate,Price,Customer ID,Country
536365,85123A,WHITE HANGING HEART T-LIGHT HOLDER,6,2009-12-01 07:45:00,2.55,17850,United Kingdom
536365,71053,WHITE METAL LANTERN,6,2009-12-01 07:45:00,3.39,17850,United Kingdom
536370,22728,ALARM CLOCK BAKELIKE PINK,24,2009-12-01 08:45:00,3.75,,France
C536379,85123A,WHITE HANGING HEART T-LIGHT HOLDER,-3,2009-12-01 09:41:00,5.00,17850,United Kingdom
536380,21730,GLASS STAR FROSTED T-LIGHT HOLDER,0,2009-12-01 09:41:00,4.25,17850,United Kingdom
536365,85123A,WHITE HANGING HEART T-LIGHT HOLDER,6,2009-12-01 07:45:00,2.55,17850,United Kingdom
536381,22139,RETROSPOT TEA SET
`

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.csv")
	if err := os.WriteFile(path, []byte(sampleCSV), 0o644); err != nil {
		t.Fatalf("write sample: %v", err)
	}
	return path
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Source.Path = writeSample(t)
	cfg.Source.Encoding = "utf-8"
	cfg.Warehouse.DSN = filepath.Join(t.TempDir(), "retail.db")
	return cfg
}

/*
TestRun drives the full path against a temp SQLite warehouse and checks the
accounting end to end:

  - 7 data rows read, of which the short line is skipped at extract.
  - 1 zero-quantity row filtered, 1 duplicate dropped, leaving 4 facts.
  - The cancellation is the only return; net sales reflect its negative
    amount (6×2.55 + 6×3.39 + 24×3.75 − 3×5.00 = 110.64).
*/
func TestRun(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	res, err := Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.Read != 7 {
		t.Errorf("Read = %d, want 7", res.Read)
	}
	if res.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", res.Skipped)
	}
	if res.Rejected.Filter != 1 {
		t.Errorf("Rejected.Filter = %d, want 1 (zero quantity)", res.Rejected.Filter)
	}
	if res.Rejected.DeDup != 1 {
		t.Errorf("Rejected.DeDup = %d, want 1 (duplicate line)", res.Rejected.DeDup)
	}
	if res.Loaded != 4 {
		t.Errorf("Loaded = %d, want 4", res.Loaded)
	}
	if res.Summary.FactRows != 4 {
		t.Errorf("Summary.FactRows = %d, want 4", res.Summary.FactRows)
	}
	if res.Summary.Returns != 1 {
		t.Errorf("Summary.Returns = %d, want 1", res.Summary.Returns)
	}
	if got := res.Summary.NetSales.StringFixed(2); got != "110.64" {
		t.Errorf("Summary.NetSales = %s, want 110.64", got)
	}
	if res.RunID == "" {
		t.Error("RunID is empty")
	}
}

// TestRun_GuestCustomer verifies a blank customer id ends up as a single
// GUEST dimension row the facts reference.
func TestRun_GuestCustomer(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	if _, err := Run(context.Background(), cfg); err != nil {
		t.Fatalf("Run: %v", err)
	}

	repo, err := warehouse.New(context.Background(), warehouse.Config{
		Kind: cfg.Warehouse.Kind,
		DSN:  cfg.Warehouse.DSN,
	})
	if err != nil {
		t.Fatalf("reopen warehouse: %v", err)
	}
	defer repo.Close()

	var guests, guestFacts int64
	err = repo.Query(context.Background(),
		"SELECT COUNT(*) FROM dim_customer WHERE customer_id = 'GUEST'",
		func(_ []string, vals []any) error {
			guests = vals[0].(int64)
			return nil
		})
	if err != nil {
		t.Fatalf("guest query: %v", err)
	}
	err = repo.Query(context.Background(), `
		SELECT COUNT(*) FROM fact_sales f
		JOIN dim_customer c ON c.customer_key = f.customer_key
		WHERE c.customer_id = 'GUEST'`,
		func(_ []string, vals []any) error {
			guestFacts = vals[0].(int64)
			return nil
		})
	if err != nil {
		t.Fatalf("guest fact query: %v", err)
	}

	if guests != 1 {
		t.Errorf("GUEST rows = %d, want 1", guests)
	}
	if guestFacts != 1 {
		t.Errorf("facts for GUEST = %d, want 1", guestFacts)
	}
}

// TestRun_Export verifies the optional export step produces one CSV per
// warehouse table.
func TestRun_Export(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.Export.Enabled = true
	cfg.Export.Dir = filepath.Join(t.TempDir(), "exports")

	if _, err := Run(context.Background(), cfg); err != nil {
		t.Fatalf("Run: %v", err)
	}

	for _, name := range warehouse.TableNames {
		path := filepath.Join(cfg.Export.Dir, name+".csv")
		info, err := os.Stat(path)
		if err != nil {
			t.Errorf("missing export %s: %v", path, err)
			continue
		}
		if info.Size() == 0 {
			t.Errorf("export %s is empty", path)
		}
	}
}

// TestRun_MissingInput verifies a bad input path fails before any warehouse
// work happens.
func TestRun_MissingInput(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.Source.Path = filepath.Join(t.TempDir(), "no-such-file.csv")

	if _, err := Run(context.Background(), cfg); err == nil {
		t.Fatal("Run succeeded with a missing input file")
	}
}
