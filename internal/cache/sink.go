package cache

import (
	"context"

	"github.com/andresuchdata/ecsync/internal/domain"
)

// Sink publishes reports into a ReportCache so the dashboard server can
// answer without touching the filesystem.
type Sink struct {
	cache ReportCache
	today func() string
}

func NewSink(cache ReportCache, today func() string) *Sink {
	return &Sink{cache: cache, today: today}
}

func (s *Sink) Name() string { return "redis_cache" }

func (s *Sink) Configured() bool {
	return s.cache != nil && !IsNoop(s.cache)
}

func (s *Sink) Publish(ctx context.Context, pub *domain.Publication) error {
	latest := s.today == nil || s.today() == pub.Report.Period.Today
	return s.cache.Set(ctx, pub.Report, latest)
}
