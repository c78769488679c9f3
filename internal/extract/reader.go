// Package extract implements a streaming CSV reader for the raw retail
// transactions file. It avoids whole-file buffering, strips a UTF-8 BOM,
// tolerates ragged rows (soft-fail with counters), and can decode legacy
// ISO-8859-1 input, which the Online Retail exports commonly use.
package extract

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"retaildw/internal/model"
	"retaildw/internal/records"
)

// Options configures the reader behavior. All fields are optional; sensible
// defaults are applied when a field is zero.
type Options struct {
	// Comma specifies the field delimiter. When zero, ',' is used.
	Comma rune

	// TrimSpace trims leading/trailing spaces from each field value.
	TrimSpace bool

	// Encoding selects the input byte encoding. Supported values:
	// "" / "utf-8" (passthrough) and "iso-8859-1" / "latin-1".
	Encoding string

	// HeaderMap maps source header names to canonical field names. When nil,
	// DefaultHeaderMap is used. Header matching is case- and space-insensitive.
	HeaderMap map[string]string
}

// Stats reports what the reader saw: total data rows read, and rows skipped
// because they were too short to carry the mapped columns.
type Stats struct {
	Read    int
	Skipped int
}

// Reader parses the raw transactions CSV according to Options. It is safe to
// reuse across inputs, but Reader itself is not concurrency-safe.
type Reader struct{ opt Options }

// NewReader constructs a Reader with the provided Options.
func NewReader(opt Options) *Reader { return &Reader{opt: opt} }

// utf8BOM is stripped from the first header cell if present.
const utf8BOM = "\ufeff"

// DefaultHeaderMap maps the Online Retail II header names to canonical field
// names. Keys are compared after lowercasing and removing spaces, so both
// "Customer ID" and "CustomerID" match.
var DefaultHeaderMap = map[string]string{
	"invoice":     model.FieldInvoice,
	"invoiceno":   model.FieldInvoice,
	"stockcode":   model.FieldStockCode,
	"description": model.FieldDescription,
	"quantity":    model.FieldQuantity,
	"invoicedate": model.FieldInvoiceDate,
	"price":       model.FieldUnitPrice,
	"unitprice":   model.FieldUnitPrice,
	"customerid":  model.FieldCustomerID,
	"country":     model.FieldCountry,
}

// Parse reads the entire CSV stream and returns one Record per data row,
// keyed by canonical field names. Rows narrower than the highest mapped
// column index are skipped and counted, not fatal.
//
// The first row must be a header; a column that maps to no canonical field is
// ignored. Parse fails when a required canonical column is absent from the
// header entirely, since no row could ever be cleaned without it.
func (p *Reader) Parse(r io.Reader) ([]records.Record, Stats, error) {
	var stats Stats

	in, err := p.decoded(r)
	if err != nil {
		return nil, stats, err
	}

	cr := csv.NewReader(in)
	if p.opt.Comma != 0 {
		cr.Comma = p.opt.Comma
	}
	cr.FieldsPerRecord = -1 // enforce widths ourselves, soft-fail
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return nil, stats, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}

	idx, err := p.headerIndex(header)
	if err != nil {
		return nil, stats, err
	}

	var out []records.Record
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("csv read: %w", err)
		}
		stats.Read++

		rec := make(records.Record, len(idx))
		short := false
		for field, i := range idx {
			if i >= len(row) {
				short = true
				break
			}
			v := row[i]
			if p.opt.TrimSpace {
				v = strings.TrimSpace(v)
			}
			rec[field] = v
		}
		if short {
			stats.Skipped++
			continue
		}
		out = append(out, rec)
	}
	return out, stats, nil
}

// decoded wraps r with a charset decoder when a legacy encoding is requested.
func (p *Reader) decoded(r io.Reader) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(p.opt.Encoding)) {
	case "", "utf-8", "utf8":
		return r, nil
	case "iso-8859-1", "latin-1", "latin1":
		return transform.NewReader(r, charmap.ISO8859_1.NewDecoder()), nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", p.opt.Encoding)
	}
}

// headerIndex maps canonical field names to their column index in the header.
func (p *Reader) headerIndex(header []string) (map[string]int, error) {
	hm := p.opt.HeaderMap
	if hm == nil {
		hm = DefaultHeaderMap
	}

	idx := make(map[string]int, len(model.Fields))
	for i, raw := range header {
		key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(raw), " ", ""))
		if canonical, ok := hm[key]; ok && canonical != "" {
			if _, dup := idx[canonical]; !dup {
				idx[canonical] = i
			}
		}
	}

	for _, f := range model.Fields {
		if _, ok := idx[f]; !ok {
			return nil, fmt.Errorf("missing column %q in header %v", f, header)
		}
	}
	return idx, nil
}
