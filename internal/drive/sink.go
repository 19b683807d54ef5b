package drive

import (
	"context"

	"github.com/andresuchdata/ecsync/internal/domain"
	"github.com/andresuchdata/ecsync/internal/report"
)

const jsonMimeType = "application/json"

// Files is the subset of Drive operations the sink uses.
type Files interface {
	FindFile(ctx context.Context, folderID, name string) (*File, bool, error)
	CreateFile(ctx context.Context, folderID, name, mimeType string, data []byte) (*File, error)
	UpdateFile(ctx context.Context, fileID string, data []byte) error
}

// Sink keeps one <date>.json file per report in a Drive folder. Publishing
// the same date again overwrites that file instead of adding another.
type Sink struct {
	files    Files
	folderID string
}

// NewSink builds the sink. A nil files value yields an unconfigured sink.
func NewSink(files Files, folderID string) *Sink {
	return &Sink{files: files, folderID: folderID}
}

func (s *Sink) Name() string { return "google_drive" }

func (s *Sink) Configured() bool {
	return s.files != nil && s.folderID != ""
}

func (s *Sink) Publish(ctx context.Context, pub *domain.Publication) error {
	data, err := report.Encode(pub.Report)
	if err != nil {
		return err
	}

	name := pub.Report.Period.Today + ".json"
	existing, found, err := s.files.FindFile(ctx, s.folderID, name)
	if err != nil {
		return err
	}
	if found {
		return s.files.UpdateFile(ctx, existing.ID, data)
	}
	_, err = s.files.CreateFile(ctx, s.folderID, name, jsonMimeType, data)
	return err
}
