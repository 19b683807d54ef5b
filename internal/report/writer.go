// Package report persists dashboard reports as JSON artifacts.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/andresuchdata/ecsync/internal/domain"
)

// Encode renders r the way it is stored on disk: two-space indented JSON
// with a trailing newline. Map keys are emitted in sorted order, which for
// YYYY-MM-DD keys is chronological.
func Encode(r *domain.Report) ([]byte, error) {
	out := *r
	if out.Sales.DailySeries == nil {
		out.Sales.DailySeries = map[string]int64{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(&out); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Writer writes report artifacts. The file at a path is replaced
// atomically, so readers see either the previous or the new document.
type Writer struct{}

func NewWriter() *Writer {
	return &Writer{}
}

// Write serializes r to path, creating parent directories as needed.
// Every failure wraps domain.ErrPersistFailure.
func (w *Writer) Write(path string, r *domain.Report) error {
	if r == nil {
		return fmt.Errorf("%w: nil report", domain.ErrPersistFailure)
	}

	data, err := Encode(r)
	if err != nil {
		return fmt.Errorf("%w: encode: %w", domain.ErrPersistFailure, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: create %s: %w", domain.ErrPersistFailure, dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: temp file: %w", domain.ErrPersistFailure, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: write %s: %w", domain.ErrPersistFailure, tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: sync %s: %w", domain.ErrPersistFailure, tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", domain.ErrPersistFailure, tmpName, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("%w: chmod %s: %w", domain.ErrPersistFailure, tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("%w: rename to %s: %w", domain.ErrPersistFailure, path, err)
	}
	return nil
}
