package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/andresuchdata/ecsync/internal/domain"
	"github.com/andresuchdata/ecsync/internal/metrics"
	"github.com/andresuchdata/ecsync/internal/report"
	"github.com/andresuchdata/ecsync/internal/repository"
	"github.com/andresuchdata/ecsync/internal/repository/demo"
	"github.com/andresuchdata/ecsync/internal/sink"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 6, 11, 9, 30, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

// trackingOpener hands out demo providers, fails on selected dates and
// records whether every opened provider was closed.
type trackingOpener struct {
	mu      sync.Mutex
	opened  int
	closed  int
	failFor map[string]error
	inner   *demo.Provider
}

func newTrackingOpener() *trackingOpener {
	return &trackingOpener{failFor: map[string]error{}, inner: demo.NewSeeded(fixedNow)}
}

func (o *trackingOpener) Name() string { return "tracking" }

func (o *trackingOpener) Open(ctx context.Context) (repository.DataProvider, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.opened++
	return &trackedProvider{o: o}, nil
}

type trackedProvider struct {
	o *trackingOpener
}

func (p *trackedProvider) FetchWindow(ctx context.Context, today time.Time, windowDays int) (domain.WindowAggregates, error) {
	if err, ok := p.o.failFor[today.Format(domain.DateLayout)]; ok {
		return domain.WindowAggregates{}, err
	}
	return p.o.inner.FetchWindow(ctx, today, windowDays)
}

func (p *trackedProvider) Close() error {
	p.o.mu.Lock()
	defer p.o.mu.Unlock()
	p.o.closed++
	return nil
}

type failingWriter struct{}

func (failingWriter) Write(path string, r *domain.Report) error {
	return fmt.Errorf("%w: disk full", domain.ErrPersistFailure)
}

type recordingSink struct {
	name       string
	configured bool
	err        error
	mu         sync.Mutex
	published  []*domain.Publication
}

func (s *recordingSink) Name() string     { return s.name }
func (s *recordingSink) Configured() bool { return s.configured }

func (s *recordingSink) Publish(ctx context.Context, pub *domain.Publication) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.published = append(s.published, pub)
	return s.err
}

type stubInsights struct {
	list []domain.Insight
	err  error
}

func (s stubInsights) Enabled() bool { return true }

func (s stubInsights) Generate(ctx context.Context, r *domain.Report) ([]domain.Insight, error) {
	return s.list, s.err
}

func testConfig(dir string) Config {
	cfg := DefaultConfig()
	cfg.Paths = report.Paths{
		Artifact: filepath.Join(dir, "dashboard", "data.json"),
		History:  filepath.Join(dir, "dashboard", "history"),
	}
	cfg.Location = time.UTC
	return cfg
}

func newTestSyncer(t *testing.T, opener repository.Opener, writer ArtifactWriter, sinks ...sink.Sink) (*Syncer, Config) {
	cfg := testConfig(t.TempDir())
	if writer == nil {
		writer = report.NewWriter()
	}
	pub := sink.NewPublisher(sink.Options{Timeout: time.Second}, sinks...)
	return NewSyncer(cfg, opener, metrics.NewAggregator(metrics.Truncate), writer, pub, WithClock(clock)), cfg
}

func stepStatus(out domain.SyncOutcome, component string) domain.StepStatus {
	for _, s := range out.Steps {
		if s.Component == component {
			return s.Status
		}
	}
	return ""
}

func TestSyncDate_Today(t *testing.T) {
	opener := newTrackingOpener()
	rec := &recordingSink{name: "rec", configured: true}
	s, cfg := newTestSyncer(t, opener, nil, rec, &recordingSink{name: "absent"})

	out := s.SyncDate(context.Background(), fixedNow)

	require.NoError(t, out.Err)
	assert.True(t, out.Succeeded())
	assert.Equal(t, "2025-06-11", out.Date)
	assert.Equal(t, cfg.Paths.Artifact, out.ArtifactPath)
	assert.Equal(t, domain.StepOK, stepStatus(out, domain.StepStoreRead))
	assert.Equal(t, domain.StepOK, stepStatus(out, domain.StepReportBuilt))
	assert.Equal(t, domain.StepOK, stepStatus(out, domain.StepFileWritten))
	assert.Equal(t, domain.StepSkipped, stepStatus(out, domain.StepInsights))

	written, err := report.Read(cfg.Paths.Artifact)
	require.NoError(t, err)
	assert.Equal(t, int64(1_050_000), written.Sales.WindowTotal)
	assert.Equal(t, fixedNow, written.GeneratedAt)

	require.Len(t, rec.published, 1)
	assert.Same(t, out.Report, rec.published[0].Report)
	assert.Equal(t, 1, out.Published.Succeeded())
	assert.Equal(t, 1, out.Published.Skipped())

	assert.Equal(t, 1, opener.opened)
	assert.Equal(t, 1, opener.closed)
}

func TestSyncDate_PastDateGoesToHistory(t *testing.T) {
	s, cfg := newTestSyncer(t, newTrackingOpener(), nil)

	out := s.SyncDate(context.Background(), fixedNow.AddDate(0, 0, -3))

	require.NoError(t, out.Err)
	assert.Equal(t, cfg.Paths.HistoryPath("2025-06-08"), out.ArtifactPath)
	_, err := os.Stat(cfg.Paths.Artifact)
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.Equal(t, "2025-06-08", out.Report.Period.Today)
}

func TestSyncDate_StoreUnavailableStopsChainAndCloses(t *testing.T) {
	opener := newTrackingOpener()
	opener.failFor["2025-06-11"] = fmt.Errorf("%w: no such table: sales", domain.ErrStoreUnavailable)
	rec := &recordingSink{name: "rec", configured: true}
	s, cfg := newTestSyncer(t, opener, nil, rec)

	out := s.SyncDate(context.Background(), fixedNow)

	assert.ErrorIs(t, out.Err, domain.ErrStoreUnavailable)
	assert.False(t, out.Succeeded())
	assert.Equal(t, domain.StepFailed, stepStatus(out, domain.StepStoreRead))
	assert.Empty(t, rec.published)
	assert.Equal(t, 1, opener.closed)

	_, err := os.Stat(cfg.Paths.Artifact)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

type errOpener struct{ err error }

func (o errOpener) Name() string { return "broken" }
func (o errOpener) Open(ctx context.Context) (repository.DataProvider, error) {
	return nil, o.err
}

func TestSyncDate_OpenFailure(t *testing.T) {
	s, _ := newTestSyncer(t, errOpener{err: fmt.Errorf("%w: missing file", domain.ErrStoreUnavailable)}, nil)

	out := s.SyncDate(context.Background(), fixedNow)
	assert.ErrorIs(t, out.Err, domain.ErrStoreUnavailable)
	assert.Nil(t, out.Report)
}

func TestSyncDate_PersistFailureStillPublishes(t *testing.T) {
	rec := &recordingSink{name: "rec", configured: true}
	s, _ := newTestSyncer(t, newTrackingOpener(), failingWriter{}, rec)

	out := s.SyncDate(context.Background(), fixedNow)

	assert.ErrorIs(t, out.Err, domain.ErrPersistFailure)
	assert.False(t, out.Succeeded())
	assert.Equal(t, domain.StepFailed, stepStatus(out, domain.StepFileWritten))
	require.Len(t, rec.published, 1)
	assert.Equal(t, 1, out.Published.Succeeded())
}

func TestSyncDate_AllSinksFailed(t *testing.T) {
	s, _ := newTestSyncer(t, newTrackingOpener(), nil,
		&recordingSink{name: "a", configured: true, err: errors.New("status 401: unauthorized")},
		&recordingSink{name: "b"},
	)

	out := s.SyncDate(context.Background(), fixedNow)
	assert.NoError(t, out.Err)
	assert.True(t, out.Published.AllFailed())
	assert.False(t, out.Succeeded())
}

func TestSyncDate_AllSinksSkippedSucceeds(t *testing.T) {
	s, _ := newTestSyncer(t, newTrackingOpener(), nil, &recordingSink{name: "a"}, &recordingSink{name: "b"})

	out := s.SyncDate(context.Background(), fixedNow)
	assert.True(t, out.Succeeded())
	assert.Equal(t, 2, out.Published.Skipped())
}

func TestSyncDate_Insights(t *testing.T) {
	rec := &recordingSink{name: "rec", configured: true}
	cfg := testConfig(t.TempDir())
	cfg.Integrations = domain.IntegrationStatus{Amazon: true}
	pub := sink.NewPublisher(sink.Options{}, rec)

	list := []domain.Insight{{Priority: domain.PriorityHigh, Action: "restock"}}
	s := NewSyncer(cfg, newTrackingOpener(), metrics.NewAggregator(metrics.Round), report.NewWriter(), pub,
		WithClock(clock), WithInsights(stubInsights{list: list}))

	out := s.SyncDate(context.Background(), fixedNow)
	require.NoError(t, out.Err)
	assert.Equal(t, domain.StepOK, stepStatus(out, domain.StepInsights))
	require.Len(t, rec.published, 1)
	assert.Equal(t, list, rec.published[0].Insights)
	assert.Equal(t, domain.IntegrationStatus{Amazon: true, AI: true}, rec.published[0].Integrations)

	failing := NewSyncer(cfg, newTrackingOpener(), metrics.NewAggregator(metrics.Round), report.NewWriter(), pub,
		WithClock(clock), WithInsights(stubInsights{err: errors.New("quota")}))
	out = failing.SyncDate(context.Background(), fixedNow)
	assert.True(t, out.Succeeded())
	assert.Equal(t, domain.StepSkipped, stepStatus(out, domain.StepInsights))
}

// stalledInsights never answers until its context ends.
type stalledInsights struct{}

func (stalledInsights) Enabled() bool { return true }

func (stalledInsights) Generate(ctx context.Context, r *domain.Report) ([]domain.Insight, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestSyncDate_StalledInsightsTimeOutAndStillPublish(t *testing.T) {
	rec := &recordingSink{name: "rec", configured: true}
	cfg := testConfig(t.TempDir())
	cfg.InsightsTimeout = 50 * time.Millisecond
	pub := sink.NewPublisher(sink.Options{Timeout: 50 * time.Millisecond}, rec)
	s := NewSyncer(cfg, newTrackingOpener(), metrics.NewAggregator(metrics.Truncate), report.NewWriter(), pub,
		WithClock(clock), WithInsights(stalledInsights{}))

	done := make(chan domain.SyncOutcome, 1)
	go func() { done <- s.SyncDate(context.WithoutCancel(context.Background()), fixedNow) }()

	var out domain.SyncOutcome
	select {
	case out = <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("SyncDate blocked on insight generation")
	}

	require.NoError(t, out.Err)
	assert.True(t, out.Succeeded())
	for _, step := range out.Steps {
		if step.Component == domain.StepInsights {
			assert.Equal(t, domain.StepSkipped, step.Status)
			assert.Equal(t, domain.ReasonTimeout, step.Detail)
		}
	}
	require.Len(t, rec.published, 1)
	assert.Empty(t, rec.published[0].Insights)
	assert.Equal(t, 1, out.Published.Succeeded())
}
