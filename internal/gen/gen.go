// Package gen produces synthetic transactions CSVs in the shape of the
// Online Retail II export, for trying the pipeline without the real dataset.
// The output deliberately includes the dataset's warts: blank customer IDs,
// cancellation invoices with negative quantities, zero-quantity noise rows,
// and outright duplicate lines.
package gen

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/brianvoe/gofakeit/v7"
)

// Options controls generation. Zero values get sensible defaults.
type Options struct {
	// Rows is the number of data rows to emit. Defaults to 1000.
	Rows int

	// Seed makes generation reproducible. When zero, a time-derived seed
	// is used.
	Seed uint64

	// DirtyRate is the fraction of rows produced dirty: blank customer ID,
	// zero quantity, or a duplicate of the previous row. Defaults to 0.05.
	DirtyRate float64

	// ReturnRate is the fraction of rows emitted as cancellation lines
	// (invoice prefixed with C, negative quantity). Defaults to 0.02.
	ReturnRate float64
}

// header matches the Online Retail II column names.
var header = []string{
	"Invoice", "StockCode", "Description", "Quantity",
	"InvoiceDate", "Price", "Customer ID", "Country",
}

const invoiceDateLayout = "2006-01-02 15:04:05"

// Generator emits synthetic transaction rows.
type Generator struct {
	opt   Options
	faker *gofakeit.Faker
}

// New constructs a Generator. Defaults are applied here so callers can pass
// a partially filled Options.
func New(opt Options) *Generator {
	if opt.Rows <= 0 {
		opt.Rows = 1000
	}
	if opt.Seed == 0 {
		opt.Seed = uint64(time.Now().UnixNano())
	}
	if opt.DirtyRate <= 0 {
		opt.DirtyRate = 0.05
	}
	if opt.ReturnRate <= 0 {
		opt.ReturnRate = 0.02
	}
	return &Generator{opt: opt, faker: gofakeit.New(opt.Seed)}
}

// WriteCSV writes the header and opt.Rows data rows to w.
func (g *Generator) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("gen: write header: %w", err)
	}

	// A pool of products and customers keeps the dimensions realistically
	// small relative to the fact count.
	products := g.productPool(1 + g.opt.Rows/20)
	customers := g.customerPool(1 + g.opt.Rows/50)

	var prev []string
	invoiceNo := 536365
	at := time.Date(2026, time.January, 5, 8, 0, 0, 0, time.UTC)
	for i := 0; i < g.opt.Rows; i++ {
		// Several lines share an invoice, like a real basket.
		if g.faker.Float64Range(0, 1) < 0.4 {
			invoiceNo++
			at = at.Add(time.Duration(g.faker.IntRange(1, 90)) * time.Minute)
		}

		row := g.row(invoiceNo, at, products, customers)
		if g.faker.Float64Range(0, 1) < g.opt.DirtyRate {
			row = g.dirty(row, prev)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("gen: write row: %w", err)
		}
		prev = row
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("gen: flush: %w", err)
	}
	return nil
}

type product struct {
	stockCode   string
	description string
	price       float64
}

func (g *Generator) productPool(n int) []product {
	pool := make([]product, n)
	for i := range pool {
		pool[i] = product{
			stockCode:   fmt.Sprintf("%05d", g.faker.IntRange(10000, 99999)),
			description: g.faker.ProductName(),
			price:       g.faker.Price(0.25, 95),
		}
	}
	return pool
}

func (g *Generator) customerPool(n int) []string {
	pool := make([]string, n)
	for i := range pool {
		pool[i] = strconv.Itoa(g.faker.IntRange(12000, 18999))
	}
	return pool
}

func (g *Generator) row(invoiceNo int, at time.Time, products []product, customers []string) []string {
	p := products[g.faker.IntRange(0, len(products)-1)]
	customer := customers[g.faker.IntRange(0, len(customers)-1)]
	country := g.faker.Country()

	invoice := strconv.Itoa(invoiceNo)
	qty := g.faker.IntRange(1, 48)
	if g.faker.Float64Range(0, 1) < g.opt.ReturnRate {
		invoice = "C" + invoice
		qty = -qty
	}

	return []string{
		invoice,
		p.stockCode,
		p.description,
		strconv.Itoa(qty),
		at.Format(invoiceDateLayout),
		strconv.FormatFloat(p.price, 'f', 2, 64),
		customer,
		country,
	}
}

// dirty corrupts a row the way the real export is corrupted.
func (g *Generator) dirty(row, prev []string) []string {
	switch g.faker.IntRange(0, 2) {
	case 0:
		row[6] = "" // guest checkout, no customer ID
	case 1:
		row[3] = "0" // stock adjustment noise
	case 2:
		if prev != nil {
			dup := make([]string, len(prev))
			copy(dup, prev)
			return dup
		}
	}
	return row
}
