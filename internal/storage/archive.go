package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/andresuchdata/ecsync/internal/domain"
	"github.com/andresuchdata/ecsync/internal/report"
)

// ReportArchive reads back what ReportSink uploaded. Missing objects are
// reported as report.ErrNotFound so callers treat the archive like the
// local artifact files.
type ReportArchive struct {
	store  ObjectStorage
	prefix string
}

// NewReportArchive returns nil when store is nil.
func NewReportArchive(store ObjectStorage, prefix string) *ReportArchive {
	if store == nil {
		return nil
	}
	return &ReportArchive{store: store, prefix: prefix}
}

// Latest returns the report stored under latest.json.
func (a *ReportArchive) Latest(ctx context.Context) (*domain.Report, error) {
	return a.get(ctx, latestObject)
}

// ByDate returns the report stored for date.
func (a *ReportArchive) ByDate(ctx context.Context, date string) (*domain.Report, error) {
	return a.get(ctx, date+".json")
}

// Dates lists the archived report dates, newest first.
func (a *ReportArchive) Dates(ctx context.Context) ([]string, error) {
	listPrefix := ""
	if a.prefix != "" {
		listPrefix = a.prefix + "/"
	}
	objects, err := a.store.ListObjects(ctx, listPrefix)
	if err != nil {
		return nil, err
	}

	var dates []string
	for _, o := range objects {
		name := strings.TrimPrefix(o.Key, listPrefix)
		if strings.Contains(name, "/") || !strings.HasSuffix(name, ".json") {
			continue
		}
		date := strings.TrimSuffix(name, ".json")
		if _, err := domain.ParseDate(date, nil); err != nil {
			continue
		}
		dates = append(dates, date)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	return dates, nil
}

func (a *ReportArchive) get(ctx context.Context, name string) (*domain.Report, error) {
	key := name
	if a.prefix != "" {
		key = path.Join(a.prefix, name)
	}
	data, err := a.store.GetObject(ctx, key)
	if errors.Is(err, ErrObjectNotFound) {
		return nil, report.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	r, err := report.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return r, nil
}
