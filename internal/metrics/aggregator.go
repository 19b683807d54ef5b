// Package metrics turns raw window aggregates into the dashboard report.
package metrics

import (
	"fmt"
	"math"
	"time"

	"github.com/andresuchdata/ecsync/internal/domain"
	"github.com/shopspring/decimal"
)

// AvgOrderPolicy fixes how the average order value is reduced to a whole amount.
type AvgOrderPolicy int

const (
	// Truncate drops the fractional part (3500/3 = 1166).
	Truncate AvgOrderPolicy = iota
	// Round rounds half away from zero (3500/3 = 1167).
	Round
)

const (
	stockRatioDecimals = 1
	profitRateDecimals = 3
	growthDecimals     = 2
)

var hundred = decimal.NewFromInt(100)

// ParseAvgOrderPolicy maps a configuration value to a policy.
func ParseAvgOrderPolicy(s string) (AvgOrderPolicy, error) {
	switch s {
	case "", "truncate":
		return Truncate, nil
	case "round":
		return Round, nil
	default:
		return Truncate, fmt.Errorf("unknown average order policy %q", s)
	}
}

// Aggregator builds reports. It performs no I/O.
type Aggregator struct {
	policy AvgOrderPolicy
}

func NewAggregator(policy AvgOrderPolicy) *Aggregator {
	return &Aggregator{policy: policy}
}

// Build derives the report for today from agg. It fails only with
// domain.ErrInvalidAggregateInput.
func (a *Aggregator) Build(today time.Time, agg domain.WindowAggregates, generatedAt time.Time) (*domain.Report, error) {
	if err := validate(today, agg); err != nil {
		return nil, err
	}

	series := make(map[string]int64, len(agg.DailySales))
	for _, d := range agg.DailySales {
		series[d.Date] = d.Total
	}

	r := &domain.Report{
		Period: domain.Period{
			Today:       domain.Day(today).Format(domain.DateLayout),
			WindowStart: agg.Start.Format(domain.DateLayout),
			WindowEnd:   agg.End.Format(domain.DateLayout),
		},
		Sales: domain.SalesSummary{
			TodayTotal:    agg.TodaySales,
			WindowTotal:   agg.WindowSales,
			OrderCount:    agg.OrderCount,
			AvgOrderValue: a.avgOrderValue(agg.WindowSales, agg.OrderCount),
			DailySeries:   series,
		},
		Inventory: domain.InventorySummary{
			StockRatioPct:  stockRatioPct(agg.StockRatio),
			LowStockCount:  agg.LowStockItems,
			TotalItemCount: agg.TotalItems,
		},
		Profit: domain.ProfitSummary{
			TodayTotal:  agg.TodayProfit,
			WindowTotal: agg.WindowProfit,
			ProfitRate:  profitRate(agg.WindowProfit, agg.WindowSales),
		},
		GeneratedAt: generatedAt,
		Growth:      growth(agg),
	}
	return r, nil
}

func (a *Aggregator) avgOrderValue(total, orders int64) int64 {
	if orders <= 0 {
		return 0
	}
	avg := decimal.NewFromInt(total).Div(decimal.NewFromInt(orders))
	if a.policy == Round {
		return avg.Round(0).IntPart()
	}
	return avg.Truncate(0).IntPart()
}

func stockRatioPct(ratio float64) float64 {
	pct, _ := decimal.NewFromFloat(ratio).Mul(hundred).Round(stockRatioDecimals).Float64()
	return math.Min(100, math.Max(0, pct))
}

func profitRate(profit, sales int64) float64 {
	if sales == 0 {
		return 0
	}
	rate, _ := decimal.NewFromInt(profit).Div(decimal.NewFromInt(sales)).Round(profitRateDecimals).Float64()
	return rate
}

// growth compares today's sales with the window's daily average. validate
// guarantees the window spans at least one day.
func growth(agg domain.WindowAggregates) *domain.GrowthMetrics {
	days := int64(agg.End.Sub(agg.Start).Hours()/24+0.5) + 1

	avg := decimal.NewFromInt(agg.WindowSales).Div(decimal.NewFromInt(days))
	weekly, _ := avg.Round(0).Float64()
	if avg.IsZero() {
		return &domain.GrowthMetrics{DailyGrowthRate: 0, WeeklyAverage: weekly}
	}

	rate, _ := decimal.NewFromInt(agg.TodaySales).Sub(avg).Div(avg).Mul(hundred).Round(growthDecimals).Float64()
	return &domain.GrowthMetrics{DailyGrowthRate: rate, WeeklyAverage: weekly}
}

func validate(today time.Time, agg domain.WindowAggregates) error {
	invalid := func(format string, args ...interface{}) error {
		return fmt.Errorf("%w: %s", domain.ErrInvalidAggregateInput, fmt.Sprintf(format, args...))
	}

	if !agg.End.Equal(domain.Day(today)) {
		return invalid("window end %s is not today %s", agg.End.Format(domain.DateLayout), domain.Day(today).Format(domain.DateLayout))
	}
	if agg.Start.After(agg.End) {
		return invalid("window start %s after end", agg.Start.Format(domain.DateLayout))
	}
	if agg.OrderCount < 0 || agg.TotalItems < 0 || agg.LowStockItems < 0 {
		return invalid("negative count (orders=%d items=%d low=%d)", agg.OrderCount, agg.TotalItems, agg.LowStockItems)
	}
	if agg.LowStockItems > agg.TotalItems {
		return invalid("low stock count %d exceeds item count %d", agg.LowStockItems, agg.TotalItems)
	}
	if agg.TodaySales < 0 || agg.WindowSales < 0 {
		return invalid("negative sales total")
	}
	if agg.TodaySales > agg.WindowSales {
		return invalid("today's sales %d exceed window sales %d", agg.TodaySales, agg.WindowSales)
	}
	if agg.OrderCount == 0 && agg.WindowSales != 0 {
		return invalid("window sales %d without orders", agg.WindowSales)
	}
	if math.IsNaN(agg.StockRatio) || math.IsInf(agg.StockRatio, 0) || agg.StockRatio < 0 || agg.StockRatio > 1 {
		return invalid("stock ratio %v outside [0, 1]", agg.StockRatio)
	}

	from, to := agg.Start.Format(domain.DateLayout), agg.End.Format(domain.DateLayout)
	var sum int64
	prev := ""
	for _, d := range agg.DailySales {
		if d.Total < 0 {
			return invalid("negative daily total on %s", d.Date)
		}
		if d.Date < from || d.Date > to {
			return invalid("daily total %s outside window", d.Date)
		}
		if d.Date <= prev {
			return invalid("daily totals not strictly ascending at %s", d.Date)
		}
		prev = d.Date
		sum += d.Total
	}
	if sum != agg.WindowSales {
		return invalid("daily totals sum %d != window sales %d", sum, agg.WindowSales)
	}
	return nil
}
