package service

import (
	"context"
	"errors"
	"sort"

	"github.com/andresuchdata/ecsync/internal/cache"
	"github.com/andresuchdata/ecsync/internal/domain"
	"github.com/andresuchdata/ecsync/internal/report"
	"github.com/rs/zerolog/log"
)

// ErrReportNotFound is returned when neither the cache nor the artifact
// files hold the requested report.
var ErrReportNotFound = report.ErrNotFound

// Archive is a remote copy of published reports consulted when a report
// is missing locally.
type Archive interface {
	Latest(ctx context.Context) (*domain.Report, error)
	ByDate(ctx context.Context, date string) (*domain.Report, error)
	Dates(ctx context.Context) ([]string, error)
}

// DashboardService serves built reports, from the cache when possible, then
// from the artifact files, then from the archive.
type DashboardService struct {
	paths   report.Paths
	cache   cache.ReportCache
	archive Archive
}

func NewDashboardService(paths report.Paths, cacheImpl cache.ReportCache) *DashboardService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopReportCache()
	}
	return &DashboardService{paths: paths, cache: cacheImpl}
}

// WithArchive sets the fallback used for reports missing on disk.
func (s *DashboardService) WithArchive(a Archive) *DashboardService {
	s.archive = a
	return s
}

// Latest returns the most recent report for the current day.
func (s *DashboardService) Latest(ctx context.Context) (*domain.Report, error) {
	if r, ok, err := s.cache.GetLatest(ctx); err == nil && ok {
		return r, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("dashboard: cache get latest failed")
	}

	r, err := report.Read(s.paths.Artifact)
	if errors.Is(err, report.ErrNotFound) && s.archive != nil {
		r, err = s.archive.Latest(ctx)
	}
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, r, true); err != nil {
		log.Warn().Err(err).Msg("dashboard: cache set latest failed")
	}
	return r, nil
}

// ByDate returns the report built for date (YYYY-MM-DD).
func (s *DashboardService) ByDate(ctx context.Context, date string) (*domain.Report, error) {
	if r, ok, err := s.cache.GetByDate(ctx, date); err == nil && ok {
		return r, nil
	} else if err != nil {
		log.Warn().Err(err).Str("date", date).Msg("dashboard: cache get by date failed")
	}

	r, err := s.paths.Lookup(date)
	if errors.Is(err, report.ErrNotFound) && s.archive != nil {
		r, err = s.archive.ByDate(ctx, date)
	}
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, r, false); err != nil {
		log.Warn().Err(err).Str("date", date).Msg("dashboard: cache set by date failed")
	}
	return r, nil
}

// AvailableDates lists every date with a stored report, newest first.
// Archive listing failures only log; local dates are still returned.
func (s *DashboardService) AvailableDates(ctx context.Context) ([]string, error) {
	dates, err := s.paths.HistoryDates()
	if err != nil {
		return nil, err
	}

	latest, err := report.Read(s.paths.Artifact)
	if err != nil && !errors.Is(err, report.ErrNotFound) {
		return nil, err
	}
	if latest != nil {
		dates = append(dates, latest.Period.Today)
	}

	if s.archive != nil {
		remote, err := s.archive.Dates(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("dashboard: archive listing failed")
		}
		dates = append(dates, remote...)
	}

	seen := make(map[string]struct{}, len(dates))
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(out)))
	return out, nil
}
