package storage

import (
	"context"
	"path"

	"github.com/andresuchdata/ecsync/internal/domain"
	"github.com/andresuchdata/ecsync/internal/report"
)

const latestObject = "latest.json"

// ReportSink uploads each report as <prefix>/<date>.json and refreshes
// <prefix>/latest.json when the report is for the current day.
type ReportSink struct {
	store  ObjectStorage
	prefix string
	today  func() string
}

// NewReportSink wraps store. A nil store yields an unconfigured sink.
func NewReportSink(store ObjectStorage, prefix string, today func() string) *ReportSink {
	return &ReportSink{store: store, prefix: prefix, today: today}
}

func (s *ReportSink) Name() string { return "object_storage" }

func (s *ReportSink) Configured() bool { return s.store != nil }

func (s *ReportSink) Publish(ctx context.Context, pub *domain.Publication) error {
	data, err := report.Encode(pub.Report)
	if err != nil {
		return err
	}

	date := pub.Report.Period.Today
	if err := s.store.PutObject(ctx, s.key(date+".json"), data, "application/json"); err != nil {
		return err
	}
	if s.today == nil || s.today() == date {
		return s.store.PutObject(ctx, s.key(latestObject), data, "application/json")
	}
	return nil
}

func (s *ReportSink) key(name string) string {
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}
