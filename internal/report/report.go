// Package report computes the post-load business summary straight from the
// warehouse, so the numbers the pipeline logs are the same ones any SQL
// client (or the dashboard tool) would see.
package report

import (
	"context"
	"database/sql/driver"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"retaildw/internal/warehouse"
)

// Summary is the aggregate view of fact_sales after a load.
type Summary struct {
	FactRows int64
	Returns  int64
	NetSales decimal.Decimal
}

// ReturnRate is count(returns) / count(all rows), 0 for an empty warehouse.
func (s Summary) ReturnRate() float64 {
	if s.FactRows == 0 {
		return 0
	}
	return float64(s.Returns) / float64(s.FactRows)
}

// summaryQuery works unchanged on every supported backend: is_return is
// stored as a small integer everywhere, so SUM counts returns directly.
const summaryQuery = `SELECT COUNT(*), COALESCE(SUM(is_return), 0), COALESCE(SUM(net_amount), 0) FROM ` + warehouse.TableFactSales

// Load queries the warehouse for the fact-table summary.
func Load(ctx context.Context, repo warehouse.Repository) (Summary, error) {
	var (
		s    Summary
		seen bool
	)
	err := repo.Query(ctx, summaryQuery, func(_ []string, values []any) error {
		if len(values) != 3 {
			return fmt.Errorf("report: summary returned %d columns, want 3", len(values))
		}
		rows, err := toInt64(values[0])
		if err != nil {
			return fmt.Errorf("report: fact rows: %w", err)
		}
		returns, err := toInt64(values[1])
		if err != nil {
			return fmt.Errorf("report: returns: %w", err)
		}
		net, err := toDecimal(values[2])
		if err != nil {
			return fmt.Errorf("report: net sales: %w", err)
		}
		s = Summary{FactRows: rows, Returns: returns, NetSales: net}
		seen = true
		return nil
	})
	if err != nil {
		return Summary{}, err
	}
	if !seen {
		return Summary{}, fmt.Errorf("report: summary query returned no rows")
	}
	return s, nil
}

// toInt64 normalizes the integer shapes the different drivers return.
func toInt64(v any) (int64, error) {
	switch t := v.(type) {
	case int64:
		return t, nil
	case int32:
		return int64(t), nil
	case int:
		return int64(t), nil
	case float64:
		return int64(t), nil
	case []byte:
		return strconv.ParseInt(string(t), 10, 64)
	case string:
		return strconv.ParseInt(t, 10, 64)
	default:
		return 0, fmt.Errorf("unexpected integer type %T", v)
	}
}

// toDecimal normalizes the numeric shapes the different drivers return.
// Driver-specific wrapper types (e.g., pgx numerics) are unwrapped through
// driver.Valuer before conversion.
func toDecimal(v any) (decimal.Decimal, error) {
	switch t := v.(type) {
	case decimal.Decimal:
		return t, nil
	case int64:
		return decimal.NewFromInt(t), nil
	case float64:
		return decimal.NewFromFloat(t), nil
	case []byte:
		return decimal.NewFromString(string(t))
	case string:
		return decimal.NewFromString(t)
	case driver.Valuer:
		inner, err := t.Value()
		if err != nil {
			return decimal.Decimal{}, err
		}
		return toDecimal(inner)
	default:
		return decimal.Decimal{}, fmt.Errorf("unexpected numeric type %T", v)
	}
}
