// Package drive uploads report artifacts to a Google Drive folder.
package drive

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

type Service struct {
	srv *drive.Service
}

// NewService authenticates with a service-account key. The account must
// have write access to the target folder.
func NewService(ctx context.Context, credentialsJSON string) (*Service, error) {
	config, err := google.JWTConfigFromJSON(
		[]byte(credentialsJSON),
		drive.DriveFileScope,
	)
	if err != nil {
		return nil, fmt.Errorf("unable to parse drive credentials: %w", err)
	}

	srv, err := drive.NewService(ctx, option.WithHTTPClient(config.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve Drive client: %w", err)
	}

	return &Service{srv: srv}, nil
}

type File struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// FindFile returns the first non-trashed file with the given name in folderID.
func (s *Service) FindFile(ctx context.Context, folderID, name string) (*File, bool, error) {
	result, err := s.srv.Files.List().
		Context(ctx).
		Q(fmt.Sprintf("'%s' in parents and name='%s' and trashed=false", escapeQuery(folderID), escapeQuery(name))).
		Fields("files(id, name)").
		PageSize(1).
		Do()
	if err != nil {
		return nil, false, fmt.Errorf("unable to search files: %w", err)
	}
	if len(result.Files) == 0 {
		return nil, false, nil
	}
	f := result.Files[0]
	return &File{ID: f.Id, Name: f.Name}, true, nil
}

// CreateFile uploads a new file into folderID.
func (s *Service) CreateFile(ctx context.Context, folderID, name, mimeType string, data []byte) (*File, error) {
	meta := &drive.File{Name: name, Parents: []string{folderID}, MimeType: mimeType}
	f, err := s.srv.Files.Create(meta).
		Context(ctx).
		Media(bytes.NewReader(data)).
		Fields("id, name").
		Do()
	if err != nil {
		return nil, fmt.Errorf("unable to create file %s: %w", name, err)
	}
	return &File{ID: f.Id, Name: f.Name}, nil
}

// UpdateFile replaces the content of an existing file.
func (s *Service) UpdateFile(ctx context.Context, fileID string, data []byte) error {
	_, err := s.srv.Files.Update(fileID, &drive.File{}).
		Context(ctx).
		Media(bytes.NewReader(data)).
		Do()
	if err != nil {
		return fmt.Errorf("unable to update file %s: %w", fileID, err)
	}
	return nil
}

// escapeQuery quotes a value for use inside a Drive query string literal.
func escapeQuery(v string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(v)
}
