// Package star derives the star-schema tables from cleaned transaction
// lines: four dimension tables keyed by surrogate integers, and one fact
// table referencing them.
//
// Surrogate keys are assigned in first-seen order starting at 1. The values
// carry no meaning; callers must rely only on referential correctness, never
// on specific key values.
package star

import (
	"fmt"
	"sort"

	"retaildw/internal/model"
)

// ErrUnknownDimension is wrapped by Build when a fact row cannot resolve one
// of its dimension keys. Dimensions are derived from the same cleaned lines,
// so a miss indicates a pipeline bug, not bad input; the run must abort.
var ErrUnknownDimension = fmt.Errorf("fact line references unknown dimension row")

// dateKeyLayout is the natural key form of dim_date.
const dateKeyLayout = "2006-01-02"

// Build derives all five tables from the cleaned lines in a single pass per
// table. It is deterministic: identical input yields an identical Star.
func Build(lines []model.Line) (model.Star, error) {
	var s model.Star

	dates := buildDates(lines)
	products := buildProducts(lines)
	customers := buildCustomers(lines)
	countries := buildCountries(lines)

	facts, err := buildFacts(lines, dates, products, customers, countries)
	if err != nil {
		return model.Star{}, err
	}

	for _, d := range dates {
		s.Dates = append(s.Dates, *d)
	}
	for _, p := range products {
		s.Products = append(s.Products, *p)
	}
	for _, c := range customers {
		s.Customers = append(s.Customers, *c)
	}
	for _, c := range countries {
		s.Countries = append(s.Countries, *c)
	}
	s.Facts = facts

	sortStar(&s)
	return s, nil
}

func buildDates(lines []model.Line) map[string]*model.DimDate {
	out := make(map[string]*model.DimDate)
	var next int64
	for _, l := range lines {
		k := l.InvoiceAt.Format(dateKeyLayout)
		if _, ok := out[k]; ok {
			continue
		}
		next++
		out[k] = &model.DimDate{
			Key:       next,
			FullDate:  k,
			Year:      l.InvoiceAt.Year(),
			Month:     int(l.InvoiceAt.Month()),
			MonthName: l.InvoiceAt.Format("Jan"),
			Quarter:   (int(l.InvoiceAt.Month())-1)/3 + 1,
			Day:       l.InvoiceAt.Day(),
			Weekday:   int(l.InvoiceAt.Weekday()),
		}
	}
	return out
}

// productKey builds the composite natural key for dim_product.
func productKey(stockCode, description string) string {
	return stockCode + "\x1f" + description
}

func buildProducts(lines []model.Line) map[string]*model.DimProduct {
	out := make(map[string]*model.DimProduct)
	var next int64
	for _, l := range lines {
		k := productKey(l.StockCode, l.Description)
		if _, ok := out[k]; ok {
			continue
		}
		next++
		out[k] = &model.DimProduct{Key: next, StockCode: l.StockCode, Description: l.Description}
	}
	return out
}

func buildCustomers(lines []model.Line) map[string]*model.DimCustomer {
	out := make(map[string]*model.DimCustomer)
	var next int64
	for _, l := range lines {
		// The cleaning stage already collapsed missing ids to the GUEST
		// sentinel, so at most one sentinel row appears here.
		if _, ok := out[l.CustomerID]; ok {
			continue
		}
		next++
		out[l.CustomerID] = &model.DimCustomer{Key: next, CustomerID: l.CustomerID}
	}
	return out
}

func buildCountries(lines []model.Line) map[string]*model.DimCountry {
	out := make(map[string]*model.DimCountry)
	var next int64
	for _, l := range lines {
		if _, ok := out[l.Country]; ok {
			continue
		}
		next++
		out[l.Country] = &model.DimCountry{Key: next, Country: l.Country}
	}
	return out
}

func buildFacts(
	lines []model.Line,
	dates map[string]*model.DimDate,
	products map[string]*model.DimProduct,
	customers map[string]*model.DimCustomer,
	countries map[string]*model.DimCountry,
) ([]model.FactRow, error) {
	facts := make([]model.FactRow, 0, len(lines))
	for i, l := range lines {
		d, ok := dates[l.InvoiceAt.Format(dateKeyLayout)]
		if !ok {
			return nil, lookupErr(i, "dim_date", l.InvoiceAt.Format(dateKeyLayout))
		}
		p, ok := products[productKey(l.StockCode, l.Description)]
		if !ok {
			return nil, lookupErr(i, "dim_product", l.StockCode)
		}
		c, ok := customers[l.CustomerID]
		if !ok {
			return nil, lookupErr(i, "dim_customer", l.CustomerID)
		}
		n, ok := countries[l.Country]
		if !ok {
			return nil, lookupErr(i, "dim_country", l.Country)
		}

		facts = append(facts, model.FactRow{
			LineID:      int64(i + 1),
			InvoiceNo:   l.Invoice,
			InvoiceAt:   l.InvoiceAt,
			DateKey:     d.Key,
			CustomerKey: c.Key,
			ProductKey:  p.Key,
			CountryKey:  n.Key,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			NetAmount:   l.NetAmount(),
			IsReturn:    l.IsReturn(),
		})
	}
	return facts, nil
}

func lookupErr(line int, table, key string) error {
	return fmt.Errorf("line %d: %s lookup for %q: %w", line+1, table, key, ErrUnknownDimension)
}

// sortStar orders dimension slices by surrogate key so the Star is stable
// regardless of map iteration order.
func sortStar(s *model.Star) {
	sort.Slice(s.Dates, func(i, j int) bool { return s.Dates[i].Key < s.Dates[j].Key })
	sort.Slice(s.Products, func(i, j int) bool { return s.Products[i].Key < s.Products[j].Key })
	sort.Slice(s.Customers, func(i, j int) bool { return s.Customers[i].Key < s.Customers[j].Key })
	sort.Slice(s.Countries, func(i, j int) bool { return s.Countries[i].Key < s.Countries[j].Key })
}
