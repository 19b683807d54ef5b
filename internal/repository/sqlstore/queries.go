package sqlstore

import (
	"context"
	"time"

	"github.com/andresuchdata/ecsync/internal/domain"
)

const (
	salesTotalQuery     = `SELECT COALESCE(SUM(amount), 0) FROM sales WHERE date BETWEEN ? AND ?`
	orderCountQuery     = `SELECT COUNT(*) FROM sales WHERE date BETWEEN ? AND ?`
	dailySalesQuery     = `SELECT CAST(date AS TEXT) AS date, SUM(amount) AS total FROM sales WHERE date BETWEEN ? AND ? GROUP BY date ORDER BY date`
	itemCountQuery      = `SELECT COUNT(*) FROM inventory`
	lowStockCountQuery  = `SELECT COUNT(*) FROM inventory WHERE stock <= reorder_level`
	profitTotalQuery    = `SELECT COALESCE(SUM(profit), 0) FROM profit WHERE date BETWEEN ? AND ?`
	stockRatioMeanQuery = `
		SELECT COALESCE(AVG(CASE WHEN stock >= capacity THEN 1.0 ELSE stock * 1.0 / capacity END), 0)
		FROM inventory
		WHERE capacity > 0`
)

// SalesTotal sums sales amounts in [start, end].
func (s *Store) SalesTotal(ctx context.Context, start, end time.Time) (int64, error) {
	return s.scalarInt(ctx, "sales total", salesTotalQuery, day(start), day(end))
}

// OrderCount counts sales rows in [start, end]; one row is one order.
func (s *Store) OrderCount(ctx context.Context, start, end time.Time) (int64, error) {
	return s.scalarInt(ctx, "order count", orderCountQuery, day(start), day(end))
}

// DailySales returns per-day sales totals in ascending date order. Days
// without sales are absent.
func (s *Store) DailySales(ctx context.Context, start, end time.Time) ([]domain.DailyTotal, error) {
	rows := make([]domain.DailyTotal, 0)
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(dailySalesQuery), day(start), day(end)); err != nil {
		return nil, unavailable("daily sales", err)
	}
	return rows, nil
}

// InventoryCounts returns the total item count and the count of items at or
// below their reorder level.
func (s *Store) InventoryCounts(ctx context.Context) (total, low int64, err error) {
	if total, err = s.scalarInt(ctx, "item count", itemCountQuery); err != nil {
		return 0, 0, err
	}
	if low, err = s.scalarInt(ctx, "low stock count", lowStockCountQuery); err != nil {
		return 0, 0, err
	}
	return total, low, nil
}

// StockRatio is the mean of min(stock/capacity, 1) over items with a known
// capacity, or 0 when no item has one.
func (s *Store) StockRatio(ctx context.Context) (float64, error) {
	var ratio float64
	if err := s.db.GetContext(ctx, &ratio, stockRatioMeanQuery); err != nil {
		return 0, unavailable("stock ratio", err)
	}
	return ratio, nil
}

// ProfitTotal sums profit in [start, end].
func (s *Store) ProfitTotal(ctx context.Context, start, end time.Time) (int64, error) {
	return s.scalarInt(ctx, "profit total", profitTotalQuery, day(start), day(end))
}

// FetchWindow runs every aggregate needed for the report of today.
func (s *Store) FetchWindow(ctx context.Context, today time.Time, windowDays int) (domain.WindowAggregates, error) {
	start, end := domain.Window(today, windowDays)
	agg := domain.WindowAggregates{Start: start, End: end}

	var err error
	if agg.TodaySales, err = s.SalesTotal(ctx, end, end); err != nil {
		return agg, err
	}
	if agg.WindowSales, err = s.SalesTotal(ctx, start, end); err != nil {
		return agg, err
	}
	if agg.OrderCount, err = s.OrderCount(ctx, start, end); err != nil {
		return agg, err
	}
	if agg.DailySales, err = s.DailySales(ctx, start, end); err != nil {
		return agg, err
	}
	if agg.TotalItems, agg.LowStockItems, err = s.InventoryCounts(ctx); err != nil {
		return agg, err
	}
	if agg.StockRatio, err = s.StockRatio(ctx); err != nil {
		return agg, err
	}
	if agg.TodayProfit, err = s.ProfitTotal(ctx, end, end); err != nil {
		return agg, err
	}
	if agg.WindowProfit, err = s.ProfitTotal(ctx, start, end); err != nil {
		return agg, err
	}
	return agg, nil
}

func (s *Store) scalarInt(ctx context.Context, op, query string, args ...interface{}) (int64, error) {
	var v int64
	if err := s.db.GetContext(ctx, &v, s.db.Rebind(query), args...); err != nil {
		return 0, unavailable(op, err)
	}
	return v, nil
}

func day(t time.Time) string {
	return t.Format(domain.DateLayout)
}
