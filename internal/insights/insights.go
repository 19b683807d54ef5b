// Package insights asks a language model for short recommendations on a
// finished report. Results are advisory and never block a sync.
package insights

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/andresuchdata/ecsync/internal/domain"
)

// MaxInsights caps how many recommendations are kept per report.
const MaxInsights = 5

// Generator produces recommendations for a report.
type Generator interface {
	Enabled() bool
	Generate(ctx context.Context, r *domain.Report) ([]domain.Insight, error)
}

// Disabled is used when no model is configured.
type Disabled struct{}

func (Disabled) Enabled() bool { return false }

func (Disabled) Generate(ctx context.Context, r *domain.Report) ([]domain.Insight, error) {
	return nil, nil
}

// BuildPrompt renders the report figures the model reasons about.
func BuildPrompt(r *domain.Report) string {
	var b strings.Builder
	b.WriteString("You are an e-commerce operations analyst for a shop selling on Amazon and Rakuten.\n")
	b.WriteString("Based on the figures below, suggest at most 5 concrete actions.\n\n")
	fmt.Fprintf(&b, "Date: %s (window %s to %s)\n", r.Period.Today, r.Period.WindowStart, r.Period.WindowEnd)
	fmt.Fprintf(&b, "Sales today: %d JPY, window: %d JPY, orders: %d, average order: %d JPY\n",
		r.Sales.TodayTotal, r.Sales.WindowTotal, r.Sales.OrderCount, r.Sales.AvgOrderValue)
	fmt.Fprintf(&b, "Stock sufficiency: %.1f%%, items needing restock: %d of %d\n",
		r.Inventory.StockRatioPct, r.Inventory.LowStockCount, r.Inventory.TotalItemCount)
	fmt.Fprintf(&b, "Profit today: %d JPY, window: %d JPY, profit rate: %.3f\n",
		r.Profit.TodayTotal, r.Profit.WindowTotal, r.Profit.ProfitRate)
	if r.Growth != nil {
		fmt.Fprintf(&b, "Growth vs window daily average: %.2f%% (average %.0f JPY)\n",
			r.Growth.DailyGrowthRate, r.Growth.WeeklyAverage)
	}
	b.WriteString("\nAnswer with one action per line and nothing else, formatted as:\n")
	b.WriteString("priority|action|detail\n")
	b.WriteString("where priority is high, medium or low.\n")
	return b.String()
}

// Parse extracts insights from a model answer. Lines that do not follow
// the priority|action|detail format are ignored.
func Parse(text string) []domain.Insight {
	var out []domain.Insight
	sc := bufio.NewScanner(strings.NewReader(text))
	for sc.Scan() && len(out) < MaxInsights {
		line := strings.TrimSpace(sc.Text())
		line = strings.TrimLeft(line, "-*• ")
		parts := strings.SplitN(line, "|", 3)
		if len(parts) < 2 {
			continue
		}
		priority, ok := domain.ParsePriority(parts[0])
		if !ok {
			continue
		}
		action := strings.TrimSpace(parts[1])
		if action == "" {
			continue
		}
		in := domain.Insight{Priority: priority, Action: action}
		if len(parts) == 3 {
			in.Detail = strings.TrimSpace(parts[2])
		}
		out = append(out, in)
	}
	return out
}
