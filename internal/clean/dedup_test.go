package clean

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"retaildw/internal/model"
	"retaildw/internal/records"
)

// coerced builds a record in post-Coerce shape (typed values).
func coerced(invoice, stockCode string, qty int64, at time.Time, price string) records.Record {
	return records.Record{
		model.FieldInvoice:     invoice,
		model.FieldStockCode:   stockCode,
		model.FieldDescription: "WHITE HANGING HEART T-LIGHT HOLDER",
		model.FieldQuantity:    qty,
		model.FieldInvoiceDate: at,
		model.FieldUnitPrice:   decimal.RequireFromString(price),
		model.FieldCustomerID:  "17850",
		model.FieldCountry:     "United Kingdom",
	}
}

/*
TestDeDupApply covers both identity policies:

  - exact: the whole row is the identity; any differing field keeps the row.
  - invoice-line: invoice + stock_code + quantity + invoice_date is the
    identity; unit price and text differences collapse.
  - The first occurrence always wins; order is preserved.
*/
func TestDeDupApply(t *testing.T) {
	t.Parallel()

	at := time.Date(2009, 12, 1, 7, 45, 0, 0, time.UTC)
	later := at.Add(2 * time.Hour)

	tests := []struct {
		name     string
		policy   string
		in       []records.Record
		wantKept int
	}{
		{
			name:   "exact_removes_identical",
			policy: PolicyExact,
			in: []records.Record{
				coerced("536365", "85123A", 6, at, "2.55"),
				coerced("536365", "85123A", 6, at, "2.55"),
				coerced("536365", "85123A", 6, at, "2.55"),
			},
			wantKept: 1,
		},
		{
			name:   "exact_keeps_price_variants",
			policy: PolicyExact,
			in: []records.Record{
				coerced("536365", "85123A", 6, at, "2.55"),
				coerced("536365", "85123A", 6, at, "2.95"),
			},
			wantKept: 2,
		},
		{
			name:   "exact_keeps_reorder_at_other_time",
			policy: PolicyExact,
			in: []records.Record{
				coerced("536365", "85123A", 6, at, "2.55"),
				coerced("536365", "85123A", 6, later, "2.55"),
			},
			wantKept: 2,
		},
		{
			name:   "invoice_line_collapses_price_variants",
			policy: PolicyInvoiceLine,
			in: []records.Record{
				coerced("536365", "85123A", 6, at, "2.55"),
				coerced("536365", "85123A", 6, at, "2.95"),
			},
			wantKept: 1,
		},
		{
			name:   "invoice_line_keeps_other_quantity",
			policy: PolicyInvoiceLine,
			in: []records.Record{
				coerced("536365", "85123A", 6, at, "2.55"),
				coerced("536365", "85123A", 12, at, "2.55"),
			},
			wantKept: 2,
		},
		{
			name:   "empty_policy_defaults_to_exact",
			policy: "",
			in: []records.Record{
				coerced("536365", "85123A", 6, at, "2.55"),
				coerced("536365", "85123A", 6, at, "2.55"),
			},
			wantKept: 1,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var rejected int
			dd := DeDup{Policy: tc.policy, Reject: func(RejectedRow) { rejected++ }}

			out := dd.Apply(tc.in)
			if len(out) != tc.wantKept {
				t.Fatalf("kept %d records, want %d", len(out), tc.wantKept)
			}
			if want := len(tc.in) - tc.wantKept; rejected != want {
				t.Errorf("rejected %d records, want %d", rejected, want)
			}
			// First occurrence wins: the survivor must be the original map.
			if len(out) > 0 && !sameRecord(out[0], tc.in[0]) {
				t.Error("first record did not survive as-is")
			}
		})
	}
}

// sameRecord reports map identity via a sentinel write.
func sameRecord(a, b records.Record) bool {
	a["__probe"] = struct{}{}
	_, ok := b["__probe"]
	delete(a, "__probe")
	return ok
}

// TestDeDup_SeparatorSafety guards the field-joining scheme: values that
// would collide under naive concatenation must hash differently.
func TestDeDup_SeparatorSafety(t *testing.T) {
	t.Parallel()

	at := time.Date(2009, 12, 1, 7, 45, 0, 0, time.UTC)
	a := coerced("5363", "6585123A", 6, at, "2.55")
	b := coerced("53636", "585123A", 6, at, "2.55")

	out := DeDup{}.Apply([]records.Record{a, b})
	if len(out) != 2 {
		t.Fatalf("kept %d records, want 2 (separator collision)", len(out))
	}
}
