// Package clean implements the cleaning stage as a chain of reusable
// transformers over records. Each transformer drops records it cannot repair
// and reports them through an optional Reject sink; a malformed row is never
// fatal to the run.
//
// Stage order matters: Require → Coerce → Filter → DeDup. DeDup assumes the
// values it keys on have already been coerced so that identical rows render
// identically.
package clean

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"retaildw/internal/model"
	"retaildw/internal/records"
)

// RejectedRow describes one dropped record.
type RejectedRow struct {
	Raw    records.Record
	Reason string
	Stage  string
}

// RejectFn receives dropped records. Sinks must be cheap; they run on the
// hot path.
type RejectFn func(RejectedRow)

// Require drops records that are missing any of the listed fields (absent,
// nil, or empty string).
type Require struct {
	Fields []string
	Reject RejectFn
}

// Apply filters the input, keeping only records with all required fields.
func (t Require) Apply(in []records.Record) []records.Record {
	out := make([]records.Record, 0, len(in))
	for _, rec := range in {
		missing := ""
		for _, f := range t.Fields {
			if !rec.Has(f) {
				missing = f
				break
			}
		}
		if missing != "" {
			if t.Reject != nil {
				t.Reject(RejectedRow{Raw: rec, Reason: "missing " + missing, Stage: "require"})
			}
			continue
		}
		out = append(out, rec)
	}
	return out
}

// DefaultDateLayouts are tried in order when coercing invoice_date. The first
// two cover the Online Retail II exports; RFC 3339 covers re-exported data.
var DefaultDateLayouts = []string{
	"2006-01-02 15:04:05",
	"1/2/2006 15:04",
	time.RFC3339,
}

// Coerce parses the raw string fields of each record into typed values:
// quantity → int64, unit_price → decimal, invoice_date → time.Time. It also
// trims the text fields and normalizes customer_id (float artifacts such as
// "12345.0" become "12345"; a missing id becomes the GUEST sentinel).
//
// A record that fails any parse is dropped and reported, per the row-level
// failure policy.
type Coerce struct {
	// DateLayouts overrides DefaultDateLayouts when non-empty.
	DateLayouts []string
	Reject      RejectFn
}

// Apply coerces each record in place and returns the surviving records.
func (t Coerce) Apply(in []records.Record) []records.Record {
	layouts := t.DateLayouts
	if len(layouts) == 0 {
		layouts = DefaultDateLayouts
	}

	out := make([]records.Record, 0, len(in))
	for _, rec := range in {
		if reason := coerceRecord(rec, layouts); reason != "" {
			if t.Reject != nil {
				t.Reject(RejectedRow{Raw: rec, Reason: reason, Stage: "coerce"})
			}
			continue
		}
		out = append(out, rec)
	}
	return out
}

func coerceRecord(rec records.Record, layouts []string) (reason string) {
	for _, f := range []string{model.FieldInvoice, model.FieldStockCode, model.FieldDescription, model.FieldCountry} {
		rec[f] = strings.TrimSpace(rec.String(f))
	}

	qty, err := strconv.ParseInt(strings.TrimSpace(rec.String(model.FieldQuantity)), 10, 64)
	if err != nil {
		return fmt.Sprintf("quantity %q not an integer", rec.String(model.FieldQuantity))
	}
	rec[model.FieldQuantity] = qty

	price, err := decimal.NewFromString(strings.TrimSpace(rec.String(model.FieldUnitPrice)))
	if err != nil {
		return fmt.Sprintf("unit_price %q not numeric", rec.String(model.FieldUnitPrice))
	}
	rec[model.FieldUnitPrice] = price

	raw := strings.TrimSpace(rec.String(model.FieldInvoiceDate))
	var ts time.Time
	parsed := false
	for _, layout := range layouts {
		if t, err := time.Parse(layout, raw); err == nil {
			ts = t
			parsed = true
			break
		}
	}
	if !parsed {
		return fmt.Sprintf("invoice_date %q unparseable", raw)
	}
	rec[model.FieldInvoiceDate] = ts

	rec[model.FieldCustomerID] = NormalizeCustomerID(rec.String(model.FieldCustomerID))
	return ""
}

// NormalizeCustomerID cleans a raw customer id. Empty values map to the GUEST
// sentinel; float export artifacts ("12345.0") are reduced to their integer
// form; anything else is kept verbatim after trimming.
func NormalizeCustomerID(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return model.GuestCustomerID
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return s
}

// Filter drops rows that are valid but meaningless for the warehouse:
// zero quantity and non-positive unit price. Returns (negative quantities)
// pass through. Filter must run after Coerce.
type Filter struct {
	Reject RejectFn
}

// Apply keeps records with quantity != 0 and unit_price > 0.
func (t Filter) Apply(in []records.Record) []records.Record {
	out := make([]records.Record, 0, len(in))
	for _, rec := range in {
		qty, _ := rec[model.FieldQuantity].(int64)
		price, ok := rec[model.FieldUnitPrice].(decimal.Decimal)
		switch {
		case qty == 0:
			if t.Reject != nil {
				t.Reject(RejectedRow{Raw: rec, Reason: "zero quantity", Stage: "filter"})
			}
		case !ok || !price.IsPositive():
			if t.Reject != nil {
				t.Reject(RejectedRow{Raw: rec, Reason: "non-positive unit_price", Stage: "filter"})
			}
		default:
			out = append(out, rec)
		}
	}
	return out
}

// Lines converts fully cleaned records into typed lines. It fails on a record
// carrying an unexpected value type, which would indicate a bug in the chain
// rather than bad input.
func Lines(in []records.Record) ([]model.Line, error) {
	out := make([]model.Line, 0, len(in))
	for i, rec := range in {
		qty, ok := rec[model.FieldQuantity].(int64)
		if !ok {
			return nil, fmt.Errorf("record %d: quantity not coerced", i)
		}
		price, ok := rec[model.FieldUnitPrice].(decimal.Decimal)
		if !ok {
			return nil, fmt.Errorf("record %d: unit_price not coerced", i)
		}
		ts, ok := rec[model.FieldInvoiceDate].(time.Time)
		if !ok {
			return nil, fmt.Errorf("record %d: invoice_date not coerced", i)
		}
		out = append(out, model.Line{
			Invoice:     rec.String(model.FieldInvoice),
			StockCode:   rec.String(model.FieldStockCode),
			Description: rec.String(model.FieldDescription),
			Quantity:    qty,
			UnitPrice:   price,
			InvoiceAt:   ts,
			CustomerID:  rec.String(model.FieldCustomerID),
			Country:     rec.String(model.FieldCountry),
		})
	}
	return out, nil
}
