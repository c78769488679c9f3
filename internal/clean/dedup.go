package clean

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/zeebo/xxh3"

	"retaildw/internal/model"
	"retaildw/internal/records"
)

// Dedup policies. "exact" treats the whole row as the identity: two raw rows
// that clean to the same values are considered the same physical line, so a
// legitimately repeated order survives only if anything at all differs
// (usually the timestamp). "invoice-line" keys on invoice + stock_code +
// quantity + invoice_date, collapsing re-stated lines within one invoice.
const (
	PolicyExact       = "exact"
	PolicyInvoiceLine = "invoice-line"
)

// invoiceLineKeys are the fields hashed under PolicyInvoiceLine.
var invoiceLineKeys = []string{
	model.FieldInvoice,
	model.FieldStockCode,
	model.FieldQuantity,
	model.FieldInvoiceDate,
}

// DeDup removes duplicate records, keeping the first occurrence. Keys are
// xxh3 hashes over the rendered field values, so memory stays flat even for
// wide inputs. DeDup must run after Coerce so identical rows render
// identically.
type DeDup struct {
	// Policy selects the identity: PolicyExact (default) or PolicyInvoiceLine.
	Policy string
	Reject RejectFn
}

// Apply returns the input with duplicates removed, preserving order.
func (t DeDup) Apply(in []records.Record) []records.Record {
	if len(in) == 0 {
		return in
	}

	keys := model.Fields
	if strings.EqualFold(strings.TrimSpace(t.Policy), PolicyInvoiceLine) {
		keys = invoiceLineKeys
	}

	seen := make(map[uint64]struct{}, len(in))
	out := make([]records.Record, 0, len(in))
	for _, rec := range in {
		h := hashRecord(rec, keys)
		if _, dup := seen[h]; dup {
			if t.Reject != nil {
				t.Reject(RejectedRow{Raw: rec, Reason: "duplicate row", Stage: "dedup"})
			}
			continue
		}
		seen[h] = struct{}{}
		out = append(out, rec)
	}
	return out
}

// hashRecord renders the keyed fields into a stable byte string and hashes it.
func hashRecord(rec records.Record, keys []string) uint64 {
	var b strings.Builder
	for _, k := range keys {
		if b.Len() > 0 {
			b.WriteByte('\x1f') // unlikely separator
		}
		b.WriteString(renderValue(rec[k]))
	}
	return xxh3.HashString(b.String())
}

// renderValue produces a stable string form per coerced type.
func renderValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "\x00"
	case string:
		return t
	case int64:
		return fmt.Sprintf("%d", t)
	case time.Time:
		return t.Format(time.RFC3339Nano)
	case decimal.Decimal:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}
