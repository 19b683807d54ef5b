package domain

import "strings"

const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

var priorityAliases = map[string]string{
	"high":   PriorityHigh,
	"高":      PriorityHigh,
	"medium": PriorityMedium,
	"mid":    PriorityMedium,
	"中":      PriorityMedium,
	"low":    PriorityLow,
	"低":      PriorityLow,
}

// ParsePriority normalises a priority label (case-insensitive).
func ParsePriority(label string) (string, bool) {
	p, ok := priorityAliases[strings.ToLower(strings.TrimSpace(label))]
	return p, ok
}

// HealthStatus is the overall state tag pushed to the workspace.
type HealthStatus int

const (
	HealthNormal HealthStatus = iota
	HealthWarning
	HealthCritical
)

var healthLabels = map[HealthStatus]string{
	HealthNormal:   "正常稼働",
	HealthWarning:  "要注意",
	HealthCritical: "異常",
}

// HealthLabel returns the workspace select option for a health status.
func HealthLabel(s HealthStatus) string {
	if label, ok := healthLabels[s]; ok {
		return label
	}
	return healthLabels[HealthNormal]
}

// Health derives the state tag from a report: a loss over the window is
// critical, any item at or below its reorder level is a warning.
func Health(r *Report) HealthStatus {
	switch {
	case r.Profit.WindowTotal < 0:
		return HealthCritical
	case r.Inventory.LowStockCount > 0:
		return HealthWarning
	default:
		return HealthNormal
	}
}
