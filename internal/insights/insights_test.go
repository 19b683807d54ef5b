package insights

import (
	"context"
	"errors"
	"testing"

	"github.com/andresuchdata/ecsync/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	text := `Here are my suggestions:
high|Restock fast movers|Two items are at or below reorder level
- medium | Review ad spend | Growth is below the weekly average
LOW|Bundle slow items
urgent|Unknown priority|ignored
high||empty action is ignored
just a sentence
高|価格戦略見直し|楽天の転換率が低い`

	got := Parse(text)
	require.Len(t, got, 4)
	assert.Equal(t, domain.Insight{Priority: domain.PriorityHigh, Action: "Restock fast movers", Detail: "Two items are at or below reorder level"}, got[0])
	assert.Equal(t, domain.Insight{Priority: domain.PriorityMedium, Action: "Review ad spend", Detail: "Growth is below the weekly average"}, got[1])
	assert.Equal(t, domain.Insight{Priority: domain.PriorityLow, Action: "Bundle slow items"}, got[2])
	assert.Equal(t, domain.PriorityHigh, got[3].Priority)
	assert.Equal(t, "価格戦略見直し", got[3].Action)
}

func TestParse_Cap(t *testing.T) {
	text := ""
	for i := 0; i < 8; i++ {
		text += "low|action|detail\n"
	}
	assert.Len(t, Parse(text), MaxInsights)
	assert.Empty(t, Parse(""))
}

func TestBuildPrompt(t *testing.T) {
	r := &domain.Report{
		Period:    domain.Period{Today: "2025-06-11", WindowStart: "2025-06-05", WindowEnd: "2025-06-11"},
		Sales:     domain.SalesSummary{TodayTotal: 2000, WindowTotal: 3500, OrderCount: 3, AvgOrderValue: 1166},
		Inventory: domain.InventorySummary{StockRatioPct: 91, LowStockCount: 1, TotalItemCount: 4},
		Growth:    &domain.GrowthMetrics{DailyGrowthRate: 12.5, WeeklyAverage: 500},
	}

	prompt := BuildPrompt(r)
	assert.Contains(t, prompt, "Date: 2025-06-11 (window 2025-06-05 to 2025-06-11)")
	assert.Contains(t, prompt, "average order: 1166 JPY")
	assert.Contains(t, prompt, "Stock sufficiency: 91.0%")
	assert.Contains(t, prompt, "Growth vs window daily average: 12.50%")
	assert.Contains(t, prompt, "priority|action|detail")
}

type stubModel struct {
	text   string
	err    error
	prompt string
}

func (s *stubModel) GenerateText(ctx context.Context, prompt string) (string, error) {
	s.prompt = prompt
	return s.text, s.err
}

func TestGemini_Generate(t *testing.T) {
	m := &stubModel{text: "high|Restock|now\nlow|Wait|later"}
	g := newGeminiWithModel(m)

	got, err := g.Generate(context.Background(), &domain.Report{Period: domain.Period{Today: "2025-06-11"}})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Contains(t, m.prompt, "2025-06-11")
	assert.True(t, g.Enabled())
	assert.NoError(t, g.Close())

	_, err = newGeminiWithModel(&stubModel{err: errors.New("quota exceeded")}).Generate(context.Background(), &domain.Report{})
	assert.EqualError(t, err, "quota exceeded")
}

func TestDisabled(t *testing.T) {
	var g Generator = Disabled{}
	assert.False(t, g.Enabled())
	got, err := g.Generate(context.Background(), &domain.Report{})
	assert.NoError(t, err)
	assert.Empty(t, got)
}
