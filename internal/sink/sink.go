// Package sink fans a publication out to the configured external
// destinations. Publishing never returns an error to the caller: every
// outcome is reported as a domain.PublishResult.
package sink

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/andresuchdata/ecsync/internal/domain"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Sink is one external destination for a publication.
type Sink interface {
	Name() string
	// Configured reports whether the credentials the sink needs are present.
	Configured() bool
	Publish(ctx context.Context, pub *domain.Publication) error
}

// Options controls how a Publisher drives its sinks.
type Options struct {
	// Timeout bounds each sink call. Zero means no per-sink limit.
	Timeout time.Duration
	// Parallel publishes to every sink concurrently, at most Limit at once.
	Parallel bool
	Limit    int
}

// Publisher publishes to a fixed list of sinks.
type Publisher struct {
	sinks []Sink
	opts  Options
	now   func() time.Time
}

func NewPublisher(opts Options, sinks ...Sink) *Publisher {
	return &Publisher{sinks: sinks, opts: opts, now: time.Now}
}

// Sinks returns the sinks in publish order.
func (p *Publisher) Sinks() []Sink {
	return p.sinks
}

// Publish sends pub to every sink and returns one result per sink, in the
// order the sinks were registered. A failing sink never prevents the
// others from being attempted.
func (p *Publisher) Publish(ctx context.Context, pub *domain.Publication) domain.PublishSummary {
	results := make([]domain.PublishResult, len(p.sinks))

	if !p.opts.Parallel || len(p.sinks) < 2 {
		for i, s := range p.sinks {
			results[i] = p.publishOne(ctx, s, pub)
		}
		return domain.PublishSummary{Results: results}
	}

	// publishOne never fails, so the group is only used for bounded fan-out.
	g := new(errgroup.Group)
	if p.opts.Limit > 0 {
		g.SetLimit(p.opts.Limit)
	}
	for i, s := range p.sinks {
		i, s := i, s
		g.Go(func() error {
			results[i] = p.publishOne(ctx, s, pub)
			return nil
		})
	}
	_ = g.Wait()

	return domain.PublishSummary{Results: results}
}

func (p *Publisher) publishOne(ctx context.Context, s Sink, pub *domain.Publication) domain.PublishResult {
	res := domain.PublishResult{Sink: s.Name()}
	logger := log.With().Str("sink", s.Name()).Logger()

	if !s.Configured() {
		res.Status = domain.PublishSkipped
		res.Reason = domain.ReasonMissingConfig
		logger.Debug().Msg("sink not configured, skipping")
		return res
	}

	callCtx := ctx
	if p.opts.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, p.opts.Timeout)
		defer cancel()
	}

	start := p.now()
	err := safePublish(callCtx, s, pub)
	res.Duration = p.now().Sub(start)

	switch {
	case err == nil:
		res.Status = domain.PublishSucceeded
		logger.Info().Dur("duration", res.Duration).Msg("published")
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded):
		res.Status = domain.PublishFailed
		res.Reason = domain.ReasonTimeout
		logger.Error().Err(err).Dur("timeout", p.opts.Timeout).Msg("publish timed out")
	default:
		res.Status = domain.PublishFailed
		res.Reason = err.Error()
		logger.Error().Err(err).Msg("publish failed")
	}
	return res
}

// safePublish converts a panicking sink into an ordinary failure.
func safePublish(ctx context.Context, s Sink, pub *domain.Publication) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sink panicked: %v", r)
		}
	}()
	return s.Publish(ctx, pub)
}
