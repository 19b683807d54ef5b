package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/andresuchdata/ecsync/internal/domain"
)

// ErrNotFound is returned when no artifact exists for the requested date.
var ErrNotFound = errors.New("report not found")

// Paths resolves where the artifact for a given date lives. The current
// day is written to Artifact; earlier days go to History/<date>.json.
type Paths struct {
	Artifact string
	History  string
}

// For returns the artifact path for date, given the current day.
func (p Paths) For(date, today string) string {
	if date == today || p.History == "" {
		return p.Artifact
	}
	return p.HistoryPath(date)
}

// HistoryPath is the per-date history file.
func (p Paths) HistoryPath(date string) string {
	return filepath.Join(p.History, date+".json")
}

// Read loads a report artifact from path.
func Read(path string) (*domain.Report, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	r, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return r, nil
}

// Decode parses an encoded report.
func Decode(data []byte) (*domain.Report, error) {
	var r domain.Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Lookup finds the report for date. The well-known artifact is consulted
// first when it covers that date, then the history directory.
func (p Paths) Lookup(date string) (*domain.Report, error) {
	if r, err := Read(p.Artifact); err == nil && r.Period.Today == date {
		return r, nil
	} else if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if p.History == "" {
		return nil, ErrNotFound
	}
	return Read(p.HistoryPath(date))
}

// HistoryDates lists the dates with a history file, newest first.
func (p Paths) HistoryDates() ([]string, error) {
	if p.History == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(p.History)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", p.History, err)
	}

	var dates []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
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
