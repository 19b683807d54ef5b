package domain

import "time"

// DateLayout is the calendar-day format used by the store, the artifact and every sink.
const DateLayout = "2006-01-02"

// SalesRecord is a single order. Amounts are whole currency units.
type SalesRecord struct {
	Date   string `json:"date" db:"date"`
	Amount int64  `json:"amount" db:"amount"`
}

// InventoryRecord is the current stock snapshot of one item.
// Capacity 0 means unknown and the item is left out of the stock ratio.
type InventoryRecord struct {
	ItemID       string `json:"item_id" db:"item_id"`
	Stock        int64  `json:"stock" db:"stock"`
	ReorderLevel int64  `json:"reorder_level" db:"reorder_level"`
	Capacity     int64  `json:"capacity" db:"capacity"`
}

// ProfitRecord is a signed profit entry for a day.
type ProfitRecord struct {
	Date   string `json:"date" db:"date"`
	Profit int64  `json:"profit" db:"profit"`
}

// DailyTotal is one row of the grouped per-day sales query.
type DailyTotal struct {
	Date  string `json:"date" db:"date"`
	Total int64  `json:"total" db:"total"`
}

// WindowAggregates holds the raw scalar and grouped results of the store
// queries for one trailing window.
type WindowAggregates struct {
	Start time.Time
	End   time.Time

	TodaySales  int64
	WindowSales int64
	OrderCount  int64
	DailySales  []DailyTotal

	TotalItems    int64
	LowStockItems int64
	// StockRatio is the mean stock/capacity fraction over items with capacity > 0.
	StockRatio float64

	TodayProfit  int64
	WindowProfit int64
}

// Day truncates t to midnight in its own location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Window returns the inclusive trailing window of the given length ending at today.
func Window(today time.Time, days int) (start, end time.Time) {
	if days < 1 {
		days = 1
	}
	end = Day(today)
	start = end.AddDate(0, 0, -(days - 1))
	return start, end
}

// ParseDate parses a YYYY-MM-DD calendar day in the given location.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(DateLayout, s, loc)
}
