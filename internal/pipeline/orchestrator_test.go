package pipeline

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/andresuchdata/ecsync/internal/domain"
	"github.com/andresuchdata/ecsync/internal/metrics"
	"github.com/andresuchdata/ecsync/internal/report"
	"github.com/andresuchdata/ecsync/internal/sink"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchDriver_OneFailureDoesNotAbort(t *testing.T) {
	opener := newTrackingOpener()
	// The third date counting back from today.
	opener.failFor["2025-06-09"] = fmt.Errorf("%w: database is locked", domain.ErrStoreUnavailable)

	s, cfg := newTestSyncer(t, opener, nil)
	result := NewBatchDriver(s, BatchConfig{}, clock).Run(context.Background(), 5)

	require.Len(t, result.Dates, 5)
	assert.Equal(t, 4, result.Succeeded())
	assert.Equal(t, 5, result.Requested)
	assert.False(t, result.Failed())
	assert.False(t, result.Cancelled)
	assert.NotEmpty(t, result.RunID)

	wantDates := []string{"2025-06-11", "2025-06-10", "2025-06-09", "2025-06-08", "2025-06-07"}
	for i, d := range result.Dates {
		assert.Equal(t, wantDates[i], d.Date)
	}
	assert.Equal(t, domain.StateFailed, result.Dates[2].State)
	assert.Contains(t, result.Dates[2].Error, "store unavailable")

	assert.Equal(t, 5, opener.opened)
	assert.Equal(t, 5, opener.closed)

	latest, err := report.Read(cfg.Paths.Artifact)
	require.NoError(t, err)
	assert.Equal(t, "2025-06-11", latest.Period.Today)

	dates, err := cfg.Paths.HistoryDates()
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-06-10", "2025-06-08", "2025-06-07"}, dates)
}

type scriptedSyncer struct {
	calls  []string
	onCall func(i int)
	fail   map[int]bool
}

func (s *scriptedSyncer) SyncDate(ctx context.Context, date time.Time) domain.SyncOutcome {
	i := len(s.calls)
	s.calls = append(s.calls, date.Format(domain.DateLayout))
	if s.onCall != nil {
		s.onCall(i)
	}
	out := domain.SyncOutcome{Date: date.Format(domain.DateLayout)}
	if s.fail[i] {
		out.Err = domain.ErrStoreUnavailable
	}
	return out
}

func TestBatchDriver_Pacing(t *testing.T) {
	syncer := &scriptedSyncer{}
	d := NewBatchDriver(syncer, BatchConfig{Pace: time.Second}, clock)

	var slept []time.Duration
	d.sleep = func(ctx context.Context, dur time.Duration) error {
		slept = append(slept, dur)
		return nil
	}

	result := d.Run(context.Background(), 3)
	assert.Equal(t, 3, result.Succeeded())
	assert.Equal(t, []time.Duration{time.Second, time.Second}, slept)
}

func TestBatchDriver_CancelBetweenIterations(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	syncer := &scriptedSyncer{onCall: func(i int) {
		if i == 1 {
			cancel()
		}
	}}
	result := NewBatchDriver(syncer, BatchConfig{}, clock).Run(ctx, 5)

	assert.True(t, result.Cancelled)
	assert.Len(t, syncer.calls, 2)
	assert.Equal(t, 2, result.Succeeded())
	assert.Equal(t, domain.StatePending, result.Dates[2].State)
	assert.Equal(t, domain.StatePending, result.Dates[4].State)
}

func TestBatchDriver_CancelDuringPause(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	syncer := &scriptedSyncer{onCall: func(i int) { cancel() }}

	start := time.Now()
	result := NewBatchDriver(syncer, BatchConfig{Pace: time.Hour}, clock).Run(ctx, 3)

	assert.Less(t, time.Since(start), 10*time.Second)
	assert.True(t, result.Cancelled)
	assert.Equal(t, 1, result.Succeeded())
}

func TestBatchDriver_AllFailed(t *testing.T) {
	syncer := &scriptedSyncer{fail: map[int]bool{0: true, 1: true}}
	result := NewBatchDriver(syncer, BatchConfig{}, clock).Run(context.Background(), 2)

	assert.Equal(t, 0, result.Succeeded())
	assert.True(t, result.Failed())
}

func TestBatchDriver_ZeroDays(t *testing.T) {
	result := NewBatchDriver(&scriptedSyncer{}, BatchConfig{}, clock).Run(context.Background(), 0)
	assert.Empty(t, result.Dates)
	assert.False(t, result.Failed())
}

func TestBatchDriver_SinkFailureMarksDateFailed(t *testing.T) {
	cfg := testConfig(t.TempDir())
	pub := sink.NewPublisher(sink.Options{}, &recordingSink{name: "down", configured: true, err: fmt.Errorf("status 503: unavailable")})
	s := NewSyncer(cfg, newTrackingOpener(), metrics.NewAggregator(metrics.Truncate), report.NewWriter(), pub, WithClock(clock))

	result := NewBatchDriver(s, BatchConfig{}, clock).Run(context.Background(), 2)
	assert.Equal(t, 0, result.Succeeded())
	assert.Equal(t, "all sinks failed", result.Dates[0].Error)
}
