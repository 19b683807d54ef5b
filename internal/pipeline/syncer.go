package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/andresuchdata/ecsync/internal/domain"
	"github.com/andresuchdata/ecsync/internal/insights"
	"github.com/andresuchdata/ecsync/internal/metrics"
	"github.com/andresuchdata/ecsync/internal/repository"
	"github.com/rs/zerolog/log"
)

// Syncer runs the aggregate, persist and publish chain for one date.
type Syncer struct {
	cfg        Config
	opener     repository.Opener
	aggregator *metrics.Aggregator
	writer     ArtifactWriter
	publisher  Publisher
	insights   insights.Generator
	now        func() time.Time
}

// Option customises a Syncer.
type Option func(*Syncer)

// WithInsights attaches a recommendation generator.
func WithInsights(g insights.Generator) Option {
	return func(s *Syncer) {
		if g != nil {
			s.insights = g
		}
	}
}

// WithClock replaces time.Now, used for generated_at and "today".
func WithClock(now func() time.Time) Option {
	return func(s *Syncer) {
		if now != nil {
			s.now = now
		}
	}
}

func NewSyncer(cfg Config, opener repository.Opener, aggregator *metrics.Aggregator, writer ArtifactWriter, publisher Publisher, opts ...Option) *Syncer {
	if cfg.WindowDays < 1 {
		cfg.WindowDays = DefaultConfig().WindowDays
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.InsightsTimeout <= 0 {
		cfg.InsightsTimeout = DefaultConfig().InsightsTimeout
	}
	s := &Syncer{
		cfg:        cfg,
		opener:     opener,
		aggregator: aggregator,
		writer:     writer,
		publisher:  publisher,
		insights:   insights.Disabled{},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Today is the current calendar day in the configured location.
func (s *Syncer) Today() time.Time {
	return domain.Day(s.now().In(s.cfg.Location))
}

// SyncDate builds the report whose window ends at date, writes it and
// publishes it. Store and aggregator failures stop the chain; a persist
// failure is recorded but publishing still happens.
func (s *Syncer) SyncDate(ctx context.Context, date time.Time) domain.SyncOutcome {
	day := domain.Day(date.In(s.cfg.Location))
	out := domain.SyncOutcome{Date: day.Format(domain.DateLayout)}
	logger := log.With().Str("date", out.Date).Logger()

	agg, err := s.fetch(ctx, day)
	if err != nil {
		out.Err = err
		out.Steps = append(out.Steps, failed(domain.StepStoreRead, err))
		logger.Error().Err(err).Str("source", s.opener.Name()).Msg("store read failed")
		return out
	}
	out.Steps = append(out.Steps, ok(domain.StepStoreRead, fmt.Sprintf("%s, %d orders", s.opener.Name(), agg.OrderCount)))

	r, err := s.aggregator.Build(day, agg, s.now().UTC())
	if err != nil {
		out.Err = err
		out.Steps = append(out.Steps, failed(domain.StepReportBuilt, err))
		logger.Error().Err(err).Msg("report build failed")
		return out
	}
	out.Report = r
	out.Steps = append(out.Steps, ok(domain.StepReportBuilt, fmt.Sprintf("window %s..%s", r.Period.WindowStart, r.Period.WindowEnd)))

	out.ArtifactPath = s.cfg.Paths.For(out.Date, s.Today().Format(domain.DateLayout))
	if err := s.writer.Write(out.ArtifactPath, r); err != nil {
		out.Err = err
		out.Steps = append(out.Steps, failed(domain.StepFileWritten, err))
		logger.Error().Err(err).Str("path", out.ArtifactPath).Msg("artifact write failed")
	} else {
		out.Steps = append(out.Steps, ok(domain.StepFileWritten, out.ArtifactPath))
	}

	pub := &domain.Publication{
		Report:       r,
		Insights:     s.generateInsights(ctx, r, &out),
		Integrations: s.cfg.Integrations,
	}
	pub.Integrations.AI = s.insights.Enabled()

	out.Published = s.publisher.Publish(ctx, pub)
	logger.Info().
		Int("succeeded", out.Published.Succeeded()).
		Int("skipped", out.Published.Skipped()).
		Int("failed", out.Published.Failed()).
		Msg("sync finished")

	return out
}

// fetch opens the provider for this call only and always releases it.
func (s *Syncer) fetch(ctx context.Context, day time.Time) (agg domain.WindowAggregates, err error) {
	provider, err := s.opener.Open(ctx)
	if err != nil {
		return agg, err
	}
	defer func() {
		if cerr := provider.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("closing data provider")
		}
	}()
	return provider.FetchWindow(ctx, day, s.cfg.WindowDays)
}

func (s *Syncer) generateInsights(ctx context.Context, r *domain.Report, out *domain.SyncOutcome) []domain.Insight {
	if !s.insights.Enabled() {
		out.Steps = append(out.Steps, domain.StepResult{Component: domain.StepInsights, Status: domain.StepSkipped, Detail: domain.ReasonMissingConfig})
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.InsightsTimeout)
	defer cancel()

	list, err := s.insights.Generate(ctx, r)
	if err != nil {
		detail := err.Error()
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			detail = domain.ReasonTimeout
		}
		log.Warn().Err(err).Str("date", out.Date).Dur("timeout", s.cfg.InsightsTimeout).Msg("insight generation failed")
		out.Steps = append(out.Steps, domain.StepResult{Component: domain.StepInsights, Status: domain.StepSkipped, Detail: detail})
		return nil
	}
	out.Steps = append(out.Steps, ok(domain.StepInsights, fmt.Sprintf("%d suggestions", len(list))))
	return list
}

func ok(component, detail string) domain.StepResult {
	return domain.StepResult{Component: component, Status: domain.StepOK, Detail: detail}
}

func failed(component string, err error) domain.StepResult {
	return domain.StepResult{Component: component, Status: domain.StepFailed, Detail: err.Error()}
}
