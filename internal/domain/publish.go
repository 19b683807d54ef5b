package domain

import "time"

// PublishStatus is the outcome of one publish attempt to one sink.
type PublishStatus string

const (
	PublishSucceeded PublishStatus = "succeeded"
	PublishSkipped   PublishStatus = "skipped"
	PublishFailed    PublishStatus = "failed"
)

const (
	ReasonMissingConfig = "missing_config"
	ReasonTimeout       = "timeout"
)

// PublishResult records what happened for a single sink.
type PublishResult struct {
	Sink     string        `json:"sink"`
	Status   PublishStatus `json:"status"`
	Reason   string        `json:"reason,omitempty"`
	Duration time.Duration `json:"duration"`
}

// PublishSummary aggregates the per-sink results of one publish call.
type PublishSummary struct {
	Results []PublishResult `json:"results"`
}

func (s PublishSummary) count(status PublishStatus) int {
	n := 0
	for _, r := range s.Results {
		if r.Status == status {
			n++
		}
	}
	return n
}

func (s PublishSummary) Succeeded() int { return s.count(PublishSucceeded) }
func (s PublishSummary) Skipped() int   { return s.count(PublishSkipped) }
func (s PublishSummary) Failed() int    { return s.count(PublishFailed) }

// AllFailed reports whether at least one sink was attempted and none succeeded.
// A run where every sink was skipped is not a failure.
func (s PublishSummary) AllFailed() bool {
	return s.Failed() > 0 && s.Succeeded() == 0
}
