package notion

import (
	"github.com/andresuchdata/ecsync/internal/domain"
	"github.com/shopspring/decimal"
)

// SchemaVersion identifies the property layout below. Changing a property
// name or unit is a breaking change for the workspace database.
const SchemaVersion = 1

const (
	PropDate          = "日付"
	PropTodaySales    = "総売上"
	PropWindowSales   = "週間売上"
	PropOrderCount    = "注文数"
	PropAvgOrder      = "平均注文額"
	PropTodayProfit   = "今日の利益"
	PropWindowProfit  = "週間利益"
	PropLowStock      = "要補充商品"
	PropTotalItems    = "総商品数"
	PropInsights      = "AI提案数"
	PropHighPriority  = "高優先度提案"
	PropStockRatio    = "在庫充足率"
	PropProfitRate    = "利益率"
	PropGrowthRate    = "成長率"
	PropStatus        = "ステータス"
	PropEngine        = "自動化エンジン"
	PropAmazon        = "Amazon API"
	PropRakuten       = "楽天API"
	PropAI            = "AI分析"
	engineRunning     = "稼働中"
	integrationOK     = "正常"
	integrationAbsent = "未設定"
)

var hundred = decimal.NewFromInt(100)

type parent struct {
	DatabaseID string `json:"database_id"`
}

// PageRequest is the body of a page-creation call.
type PageRequest struct {
	Parent     parent              `json:"parent"`
	Properties map[string]Property `json:"properties"`
}

// Property is one typed page property. Exactly one field is set.
type Property struct {
	Date   *DateValue   `json:"date,omitempty"`
	Number *float64     `json:"number,omitempty"`
	Select *SelectValue `json:"select,omitempty"`
}

type DateValue struct {
	Start string `json:"start"`
}

type SelectValue struct {
	Name string `json:"name"`
}

func number(v float64) Property {
	return Property{Number: &v}
}

func integer(v int64) Property {
	return number(float64(v))
}

func selectOf(name string) Property {
	return Property{Select: &SelectValue{Name: name}}
}

// fraction converts a 0-100 display percentage into the 0-1 value the
// workspace stores for percent-formatted number properties.
func fraction(pct float64) float64 {
	f, _ := decimal.NewFromFloat(pct).Div(hundred).Float64()
	return f
}

func integration(ok bool) Property {
	if ok {
		return selectOf(integrationOK)
	}
	return selectOf(integrationAbsent)
}

// BuildPageRequest maps a publication onto the workspace property schema.
func BuildPageRequest(databaseID string, pub *domain.Publication) PageRequest {
	r := pub.Report

	growth := 0.0
	if r.Growth != nil {
		growth = fraction(r.Growth.DailyGrowthRate)
	}

	props := map[string]Property{
		PropDate:         {Date: &DateValue{Start: r.Period.Today}},
		PropTodaySales:   integer(r.Sales.TodayTotal),
		PropWindowSales:  integer(r.Sales.WindowTotal),
		PropOrderCount:   integer(r.Sales.OrderCount),
		PropAvgOrder:     integer(r.Sales.AvgOrderValue),
		PropTodayProfit:  integer(r.Profit.TodayTotal),
		PropWindowProfit: integer(r.Profit.WindowTotal),
		PropLowStock:     integer(r.Inventory.LowStockCount),
		PropTotalItems:   integer(r.Inventory.TotalItemCount),
		PropInsights:     integer(int64(len(pub.Insights))),
		PropHighPriority: integer(int64(pub.HighPriorityInsights())),
		PropStockRatio:   number(fraction(r.Inventory.StockRatioPct)),
		PropProfitRate:   number(r.Profit.ProfitRate),
		PropGrowthRate:   number(growth),
		PropStatus:       selectOf(domain.HealthLabel(domain.Health(r))),
		PropEngine:       selectOf(engineRunning),
		PropAmazon:       integration(pub.Integrations.Amazon),
		PropRakuten:      integration(pub.Integrations.Rakuten),
		PropAI:           integration(pub.Integrations.AI),
	}

	return PageRequest{
		Parent:     parent{DatabaseID: databaseID},
		Properties: props,
	}
}
