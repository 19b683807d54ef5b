package pipeline

import (
	"context"
	"time"

	"github.com/andresuchdata/ecsync/internal/domain"
	"github.com/andresuchdata/ecsync/internal/report"
)

// ArtifactWriter persists a report at a path.
type ArtifactWriter interface {
	Write(path string, r *domain.Report) error
}

// Publisher delivers one publication to every sink.
type Publisher interface {
	Publish(ctx context.Context, pub *domain.Publication) domain.PublishSummary
}

// Config holds the settings of the sync chain.
type Config struct {
	WindowDays int
	Paths      report.Paths
	// Integrations is copied into every publication.
	Integrations domain.IntegrationStatus
	// Location is the time zone calendar days are computed in.
	Location *time.Location
	// InsightsTimeout bounds the recommendation request of one date.
	InsightsTimeout time.Duration
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		WindowDays: 7,
		Paths: report.Paths{
			Artifact: "dashboard/data.json",
			History:  "dashboard/history",
		},
		Location:        time.Local,
		InsightsTimeout: 30 * time.Second,
	}
}

// BatchConfig controls the historical batch driver.
type BatchConfig struct {
	// Pace is the pause between two dates. Tests use zero.
	Pace time.Duration
}
