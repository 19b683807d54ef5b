package domain

import "time"

// Period describes the window a report covers.
type Period struct {
	Today       string `json:"today"`
	WindowStart string `json:"window_start"`
	WindowEnd   string `json:"window_end"`
}

// SalesSummary is the sales block of the dashboard report.
type SalesSummary struct {
	TodayTotal    int64            `json:"today_total"`
	WindowTotal   int64            `json:"window_total"`
	OrderCount    int64            `json:"order_count"`
	AvgOrderValue int64            `json:"avg_order_value"`
	DailySeries   map[string]int64 `json:"daily_series"` // only days with sales; keys sort chronologically
}

// InventorySummary is the inventory block of the dashboard report.
type InventorySummary struct {
	StockRatioPct  float64 `json:"stock_ratio_pct"`
	LowStockCount  int64   `json:"low_stock_count"`
	TotalItemCount int64   `json:"total_item_count"`
}

// ProfitSummary is the profit block of the dashboard report.
type ProfitSummary struct {
	TodayTotal  int64   `json:"today_total"`
	WindowTotal int64   `json:"window_total"`
	ProfitRate  float64 `json:"profit_rate"`
}

// GrowthMetrics compares today's sales against the window's daily average.
type GrowthMetrics struct {
	DailyGrowthRate float64 `json:"daily_growth_rate"`
	WeeklyAverage   float64 `json:"weekly_average"`
}

// Report is the aggregated snapshot for one day. It is built once per
// invocation and never mutated afterwards.
type Report struct {
	Period      Period           `json:"period"`
	Sales       SalesSummary     `json:"sales"`
	Inventory   InventorySummary `json:"inventory"`
	Profit      ProfitSummary    `json:"profit"`
	Growth      *GrowthMetrics   `json:"growth,omitempty"`
	GeneratedAt time.Time        `json:"generated_at"`
}

// Insight is a single AI recommendation attached to a publication.
type Insight struct {
	Priority string `json:"priority"`
	Action   string `json:"action"`
	Detail   string `json:"detail,omitempty"`
}

// IntegrationStatus records which upstream integrations are configured.
type IntegrationStatus struct {
	Amazon  bool `json:"amazon"`
	Rakuten bool `json:"rakuten"`
	AI      bool `json:"ai"`
}

// Publication is what sinks receive: one report for one date plus
// information gathered alongside it.
type Publication struct {
	Report       *Report
	Insights     []Insight
	Integrations IntegrationStatus
}

// HighPriorityInsights counts insights marked high priority.
func (p *Publication) HighPriorityInsights() int {
	n := 0
	for _, in := range p.Insights {
		if in.Priority == PriorityHigh {
			n++
		}
	}
	return n
}
