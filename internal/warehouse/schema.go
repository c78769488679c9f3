package warehouse

import (
	"retaildw/internal/model"
	"retaildw/internal/warehouse/ddl"
)

// Warehouse table names. TableNames lists them in load order: dimensions
// first so fact_sales foreign keys always resolve.
const (
	TableDimDate     = "dim_date"
	TableDimProduct  = "dim_product"
	TableDimCustomer = "dim_customer"
	TableDimCountry  = "dim_country"
	TableFactSales   = "fact_sales"
)

// TableNames lists all warehouse tables in load order.
var TableNames = []string{
	TableDimDate,
	TableDimProduct,
	TableDimCustomer,
	TableDimCountry,
	TableFactSales,
}

// timestampLayout is how invoice timestamps are rendered for storage. Text
// storage keeps the value portable across every backend and sorts correctly.
const timestampLayout = "2006-01-02 15:04:05"

// moneyScale matches the DECIMAL(20,4) money columns; decimal.String trims
// trailing zeros, so fixed-point rendering keeps the declared scale.
const moneyScale = 4

// StarDefs returns the five table definitions in load order, without rows.
// Readers (export, reporting) use it to know column names and order.
func StarDefs() []ddl.TableDef {
	return []ddl.TableDef{
		dimDateDef(),
		dimProductDef(),
		dimCustomerDef(),
		dimCountryDef(),
		factSalesDef(),
	}
}

// StarTables converts a built Star into the five loadable tables, in load
// order. All values are rendered down to int64 and string so backends can
// bind them without type-specific conversions: decimals as fixed-point
// strings, timestamps via timestampLayout, flags as 0/1.
func StarTables(s model.Star) []Table {
	dimDate := Table{Def: dimDateDef(), Rows: make([][]any, 0, len(s.Dates))}
	for _, d := range s.Dates {
		dimDate.Rows = append(dimDate.Rows, []any{
			d.Key, d.FullDate, int64(d.Year), int64(d.Month), d.MonthName,
			int64(d.Quarter), int64(d.Day), int64(d.Weekday),
		})
	}

	dimProduct := Table{Def: dimProductDef(), Rows: make([][]any, 0, len(s.Products))}
	for _, p := range s.Products {
		dimProduct.Rows = append(dimProduct.Rows, []any{p.Key, p.StockCode, p.Description})
	}

	dimCustomer := Table{Def: dimCustomerDef(), Rows: make([][]any, 0, len(s.Customers))}
	for _, c := range s.Customers {
		dimCustomer.Rows = append(dimCustomer.Rows, []any{c.Key, c.CustomerID})
	}

	dimCountry := Table{Def: dimCountryDef(), Rows: make([][]any, 0, len(s.Countries))}
	for _, c := range s.Countries {
		dimCountry.Rows = append(dimCountry.Rows, []any{c.Key, c.Country})
	}

	fact := Table{Def: factSalesDef(), Rows: make([][]any, 0, len(s.Facts))}
	for _, f := range s.Facts {
		isReturn := int64(0)
		if f.IsReturn {
			isReturn = 1
		}
		fact.Rows = append(fact.Rows, []any{
			f.LineID, f.InvoiceNo, f.InvoiceAt.Format(timestampLayout),
			f.DateKey, f.CustomerKey, f.ProductKey, f.CountryKey,
			f.Quantity, f.UnitPrice.StringFixed(moneyScale), f.NetAmount.StringFixed(moneyScale), isReturn,
		})
	}

	return []Table{dimDate, dimProduct, dimCustomer, dimCountry, fact}
}

func dimDateDef() ddl.TableDef {
	return ddl.TableDef{
		Name: TableDimDate,
		Columns: []ddl.ColumnDef{
			{Name: "date_key", Kind: "int", PrimaryKey: true},
			{Name: "full_date", Kind: "text"},
			{Name: "year", Kind: "int"},
			{Name: "month", Kind: "int"},
			{Name: "month_name", Kind: "text"},
			{Name: "quarter", Kind: "int"},
			{Name: "day", Kind: "int"},
			{Name: "weekday", Kind: "int"},
		},
		Uniques: [][]string{{"full_date"}},
	}
}

func dimProductDef() ddl.TableDef {
	return ddl.TableDef{
		Name: TableDimProduct,
		Columns: []ddl.ColumnDef{
			{Name: "product_key", Kind: "int", PrimaryKey: true},
			{Name: "stock_code", Kind: "text"},
			{Name: "description", Kind: "text"},
		},
		Uniques: [][]string{{"stock_code", "description"}},
	}
}

func dimCustomerDef() ddl.TableDef {
	return ddl.TableDef{
		Name: TableDimCustomer,
		Columns: []ddl.ColumnDef{
			{Name: "customer_key", Kind: "int", PrimaryKey: true},
			{Name: "customer_id", Kind: "text"},
		},
		Uniques: [][]string{{"customer_id"}},
	}
}

func dimCountryDef() ddl.TableDef {
	return ddl.TableDef{
		Name: TableDimCountry,
		Columns: []ddl.ColumnDef{
			{Name: "country_key", Kind: "int", PrimaryKey: true},
			{Name: "country", Kind: "text"},
		},
		Uniques: [][]string{{"country"}},
	}
}

func factSalesDef() ddl.TableDef {
	return ddl.TableDef{
		Name: TableFactSales,
		Columns: []ddl.ColumnDef{
			{Name: "line_id", Kind: "int", PrimaryKey: true},
			{Name: "invoice_no", Kind: "text"},
			{Name: "invoice_datetime", Kind: "text"},
			{Name: "date_key", Kind: "int"},
			{Name: "customer_key", Kind: "int"},
			{Name: "product_key", Kind: "int"},
			{Name: "country_key", Kind: "int"},
			{Name: "quantity", Kind: "int"},
			{Name: "unit_price", Kind: "numeric"},
			{Name: "net_amount", Kind: "numeric"},
			{Name: "is_return", Kind: "bool"},
		},
		ForeignKeys: []ddl.ForeignKey{
			{Column: "date_key", RefTable: TableDimDate, RefColumn: "date_key"},
			{Column: "customer_key", RefTable: TableDimCustomer, RefColumn: "customer_key"},
			{Column: "product_key", RefTable: TableDimProduct, RefColumn: "product_key"},
			{Column: "country_key", RefTable: TableDimCountry, RefColumn: "country_key"},
		},
	}
}
