// Package demo serves a fixed in-memory data set with the same aggregate
// semantics as the relational store.
package demo

import (
	"context"
	"sort"
	"time"

	"github.com/andresuchdata/ecsync/internal/domain"
)

// Provider answers window queries from in-memory records.
type Provider struct {
	sales     []domain.SalesRecord
	inventory []domain.InventoryRecord
	profit    []domain.ProfitRecord
}

// New builds a provider over the given records.
func New(sales []domain.SalesRecord, inventory []domain.InventoryRecord, profit []domain.ProfitRecord) *Provider {
	return &Provider{sales: sales, inventory: inventory, profit: profit}
}

// NewSeeded returns a provider with 30 days of deterministic demo records
// ending at anchor.
func NewSeeded(anchor time.Time) *Provider {
	sales, inventory, profit := SeedRecords(anchor)
	return New(sales, inventory, profit)
}

// SeedRecords generates the demo data set. Amounts follow a fixed weekly
// pattern so repeated runs over the same anchor produce the same report.
func SeedRecords(anchor time.Time) ([]domain.SalesRecord, []domain.InventoryRecord, []domain.ProfitRecord) {
	base := domain.Day(anchor)
	weekly := []int64{142000, 128000, 151000, 163000, 171000, 158000, 137000}

	var sales []domain.SalesRecord
	var profit []domain.ProfitRecord
	for i := 0; i < 30; i++ {
		d := base.AddDate(0, 0, -i).Format(domain.DateLayout)
		dayTotal := weekly[i%len(weekly)]
		orders := 10 + int64(i%4)
		per := dayTotal / orders
		for o := int64(0); o < orders; o++ {
			amount := per
			if o == orders-1 {
				amount = dayTotal - per*(orders-1)
			}
			sales = append(sales, domain.SalesRecord{Date: d, Amount: amount})
		}
		profit = append(profit, domain.ProfitRecord{Date: d, Profit: dayTotal * 28 / 100})
	}

	inventory := []domain.InventoryRecord{
		{ItemID: "SKU-001", Stock: 120, ReorderLevel: 30, Capacity: 150},
		{ItemID: "SKU-002", Stock: 45, ReorderLevel: 50, Capacity: 100},
		{ItemID: "SKU-003", Stock: 300, ReorderLevel: 60, Capacity: 300},
		{ItemID: "SKU-004", Stock: 8, ReorderLevel: 10, Capacity: 80},
		{ItemID: "SKU-005", Stock: 64, ReorderLevel: 20, Capacity: 0},
	}
	return sales, inventory, profit
}

// FetchWindow computes the window aggregates for today.
func (p *Provider) FetchWindow(ctx context.Context, today time.Time, windowDays int) (domain.WindowAggregates, error) {
	start, end := domain.Window(today, windowDays)
	agg := domain.WindowAggregates{Start: start, End: end}
	if err := ctx.Err(); err != nil {
		return agg, err
	}

	from, to, on := start.Format(domain.DateLayout), end.Format(domain.DateLayout), end.Format(domain.DateLayout)

	daily := make(map[string]int64)
	for _, s := range p.sales {
		if s.Date < from || s.Date > to {
			continue
		}
		agg.WindowSales += s.Amount
		agg.OrderCount++
		daily[s.Date] += s.Amount
		if s.Date == on {
			agg.TodaySales += s.Amount
		}
	}

	agg.DailySales = make([]domain.DailyTotal, 0, len(daily))
	for d, total := range daily {
		agg.DailySales = append(agg.DailySales, domain.DailyTotal{Date: d, Total: total})
	}
	sort.Slice(agg.DailySales, func(i, j int) bool { return agg.DailySales[i].Date < agg.DailySales[j].Date })

	var ratioSum float64
	var ratioN int
	for _, item := range p.inventory {
		agg.TotalItems++
		if item.Stock <= item.ReorderLevel {
			agg.LowStockItems++
		}
		if item.Capacity > 0 {
			r := float64(item.Stock) / float64(item.Capacity)
			if r > 1 {
				r = 1
			}
			ratioSum += r
			ratioN++
		}
	}
	if ratioN > 0 {
		agg.StockRatio = ratioSum / float64(ratioN)
	}

	for _, pr := range p.profit {
		if pr.Date < from || pr.Date > to {
			continue
		}
		agg.WindowProfit += pr.Profit
		if pr.Date == on {
			agg.TodayProfit += pr.Profit
		}
	}

	return agg, nil
}

// Close is a no-op.
func (p *Provider) Close() error { return nil }
