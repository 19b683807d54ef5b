package pipeline

import (
	"context"
	"time"

	"github.com/andresuchdata/ecsync/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// DateSyncer is what the batch driver runs for every date.
type DateSyncer interface {
	SyncDate(ctx context.Context, date time.Time) domain.SyncOutcome
}

// BatchDriver replays the sync chain for a run of past dates, one at a
// time, pausing between dates so external APIs are not flooded.
type BatchDriver struct {
	syncer DateSyncer
	cfg    BatchConfig
	today  func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewBatchDriver creates a driver. today returns the first date of the
// batch; the driver then walks backwards one day at a time.
func NewBatchDriver(syncer DateSyncer, cfg BatchConfig, today func() time.Time) *BatchDriver {
	if today == nil {
		today = time.Now
	}
	return &BatchDriver{
		syncer: syncer,
		cfg:    cfg,
		today:  today,
		sleep:  sleepContext,
	}
}

// Run syncs days dates ending today. A failed date is recorded and the
// driver moves on. Cancelling ctx stops the loop between dates; dates not
// reached stay PENDING.
func (b *BatchDriver) Run(ctx context.Context, days int) domain.BatchResult {
	if days < 0 {
		days = 0
	}
	result := domain.BatchResult{
		RunID:     uuid.NewString(),
		Requested: days,
		Dates:     make([]domain.DateRun, days),
	}
	logger := log.With().Str("run_id", result.RunID).Logger()

	start := domain.Day(b.today())
	dates := make([]time.Time, days)
	for i := range dates {
		dates[i] = start.AddDate(0, 0, -i)
		result.Dates[i] = domain.DateRun{Date: dates[i].Format(domain.DateLayout), State: domain.StatePending}
	}

	logger.Info().Int("days", days).Dur("pace", b.cfg.Pace).Msg("batch started")

	for i, date := range dates {
		if i > 0 && b.cfg.Pace > 0 {
			if err := b.sleep(ctx, b.cfg.Pace); err != nil {
				result.Cancelled = true
				break
			}
		}
		if ctx.Err() != nil {
			result.Cancelled = true
			break
		}

		run := &result.Dates[i]
		run.State = domain.StateRunning
		began := time.Now()

		// A date that has started runs to completion even if ctx is cancelled.
		outcome := b.syncer.SyncDate(context.WithoutCancel(ctx), date)

		run.Duration = time.Since(began)
		if outcome.Succeeded() {
			run.State = domain.StateSucceeded
			logger.Info().Str("date", run.Date).Msg("date succeeded")
		} else {
			run.State = domain.StateFailed
			if outcome.Err != nil {
				run.Error = outcome.Err.Error()
			} else {
				run.Error = "all sinks failed"
			}
			logger.Warn().Str("date", run.Date).Str("error", run.Error).Msg("date failed")
		}
	}

	logger.Info().
		Int("succeeded", result.Succeeded()).
		Int("requested", result.Requested).
		Bool("cancelled", result.Cancelled).
		Msg("batch finished")
	return result
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
