// Package model holds the typed data model shared by the pipeline stages:
// the cleaned transaction line and the star-schema rows derived from it.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Canonical field names used for records between extract and clean. They
// match the warehouse column names where one exists.
const (
	FieldInvoice     = "invoice"
	FieldStockCode   = "stock_code"
	FieldDescription = "description"
	FieldQuantity    = "quantity"
	FieldInvoiceDate = "invoice_date"
	FieldUnitPrice   = "unit_price"
	FieldCustomerID  = "customer_id"
	FieldCountry     = "country"
)

// Fields lists the canonical field names in source column order.
var Fields = []string{
	FieldInvoice,
	FieldStockCode,
	FieldDescription,
	FieldQuantity,
	FieldInvoiceDate,
	FieldUnitPrice,
	FieldCustomerID,
	FieldCountry,
}

// GuestCustomerID is the sentinel customer identifier that all rows with a
// missing customer id collapse to. The warehouse ends up with exactly one
// dim_customer row for it.
const GuestCustomerID = "GUEST"

// Line is one cleaned order line. It only exists between the cleaning stage
// and the star build; the warehouse stores the derived star rows instead.
type Line struct {
	Invoice     string
	StockCode   string
	Description string
	Quantity    int64
	UnitPrice   decimal.Decimal
	InvoiceAt   time.Time
	CustomerID  string // GuestCustomerID when the source value was missing
	Country     string
}

// NetAmount returns quantity × unit price. Negative for returns.
func (l Line) NetAmount() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(l.Quantity))
}

// IsReturn reports whether the line is a return (negative quantity).
func (l Line) IsReturn() bool { return l.Quantity < 0 }

// DimDate is one row of dim_date; FullDate ("2006-01-02") is the natural key.
type DimDate struct {
	Key       int64
	FullDate  string
	Year      int
	Month     int
	MonthName string
	Quarter   int
	Day       int
	Weekday   int // 0 = Sunday, matching time.Weekday
}

// DimProduct is one row of dim_product. The natural key is the pair
// (StockCode, Description): the source data reuses stock codes with amended
// descriptions, and each variant is kept as its own product row.
type DimProduct struct {
	Key         int64
	StockCode   string
	Description string
}

// DimCustomer is one row of dim_customer; CustomerID is the natural key.
type DimCustomer struct {
	Key        int64
	CustomerID string
}

// DimCountry is one row of dim_country; Country is the natural key.
type DimCountry struct {
	Key     int64
	Country string
}

// FactRow is one row of fact_sales: one cleaned order line joined to its four
// dimension surrogate keys plus the measures.
type FactRow struct {
	LineID      int64
	InvoiceNo   string
	InvoiceAt   time.Time
	DateKey     int64
	CustomerKey int64
	ProductKey  int64
	CountryKey  int64
	Quantity    int64
	UnitPrice   decimal.Decimal
	NetAmount   decimal.Decimal
	IsReturn    bool
}

// Star is the fully built warehouse content for one run.
type Star struct {
	Dates     []DimDate
	Products  []DimProduct
	Customers []DimCustomer
	Countries []DimCountry
	Facts     []FactRow
}
