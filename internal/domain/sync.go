package domain

import "time"

// Component names used in per-step status lines.
const (
	StepStoreRead   = "store read"
	StepReportBuilt = "report built"
	StepFileWritten = "file written"
	StepInsights    = "insights"
)

// StepStatus is the outcome of one step of the sync chain.
type StepStatus string

const (
	StepOK      StepStatus = "ok"
	StepFailed  StepStatus = "failed"
	StepSkipped StepStatus = "skipped"
)

// StepResult is one line of the per-component status output.
type StepResult struct {
	Component string     `json:"component"`
	Status    StepStatus `json:"status"`
	Detail    string     `json:"detail,omitempty"`
}

// SyncOutcome describes a single aggregate + persist + publish run for one date.
type SyncOutcome struct {
	Date         string         `json:"date"`
	ArtifactPath string         `json:"artifact_path,omitempty"`
	Steps        []StepResult   `json:"steps"`
	Report       *Report        `json:"-"`
	Published    PublishSummary `json:"published"`
	// Err is the fatal error of the run: store, aggregator or persist failure.
	Err error `json:"-"`
}

// Succeeded reports whether the run counts as a success for exit codes and
// the batch driver: no fatal error, and not every attempted sink failed.
func (o SyncOutcome) Succeeded() bool {
	return o.Err == nil && !o.Published.AllFailed()
}

// DateState is the batch driver's per-date state.
type DateState string

const (
	StatePending   DateState = "PENDING"
	StateRunning   DateState = "RUNNING"
	StateSucceeded DateState = "SUCCEEDED"
	StateFailed    DateState = "FAILED"
)

// DateRun tracks one date of a batch.
type DateRun struct {
	Date     string        `json:"date"`
	State    DateState     `json:"state"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// BatchResult is the terminal output of a historical batch.
type BatchResult struct {
	RunID     string    `json:"run_id"`
	Requested int       `json:"requested"`
	Dates     []DateRun `json:"dates"`
	Cancelled bool      `json:"cancelled"`
}

// Succeeded counts dates that reached SUCCEEDED.
func (b BatchResult) Succeeded() int {
	n := 0
	for _, d := range b.Dates {
		if d.State == StateSucceeded {
			n++
		}
	}
	return n
}

// Failed reports the batch exit condition: dates were requested and none succeeded.
func (b BatchResult) Failed() bool {
	return b.Requested > 0 && b.Succeeded() == 0
}
