// Package googledrive implements adapter.FolderService on the Drive v3 API.
package googledrive

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/techlab-live/zoho-drive-bridge/internal/adapter"
)

const (
	folderMIMEType = "application/vnd.google-apps.folder"

	// folderLinkBase builds a shareable link when the API response omits
	// webViewLink.
	folderLinkBase = "https://drive.google.com/drive/folders/"

	createdByProperty = "zoho-drive-bridge"

	folderFields = "id, name, webViewLink, createdTime, properties"
)

// FolderService creates deal folders under a fixed parent folder in Google
// Drive.
type FolderService struct {
	service        *drive.Service
	parentFolderID string
}

// NewFolderService creates a FolderService. client must be an authenticated
// http.Client (see NewServiceAccountClient).
func NewFolderService(ctx context.Context, client *http.Client, parentFolderID string) (*FolderService, error) {
	srv, err := drive.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Drive client: %v", err)
	}
	return &FolderService{service: srv, parentFolderID: parentFolderID}, nil
}

// CreateFolder creates a folder named after the deal, with the CRM context
// recorded in the folder description and properties.
func (s *FolderService) CreateFolder(ctx context.Context, name string, meta adapter.FolderMetadata) (*adapter.Folder, error) {
	sanitized := adapter.SanitizeFolderName(name)

	f := &drive.File{
		Name:        sanitized,
		MimeType:    folderMIMEType,
		Parents:     []string{s.parentFolderID},
		Description: fmt.Sprintf("Folder created for Zoho CRM deal: %s (ID: %s)", name, meta.DealID),
		Properties: map[string]string{
			"dealName":  name,
			"dealId":    meta.DealID,
			"stage":     meta.Stage,
			"amount":    meta.Amount,
			"createdBy": createdByProperty,
			"createdAt": time.Now().UTC().Format(time.RFC3339),
		},
	}

	res, err := s.service.Files.Create(f).
		Fields(folderFields).
		Context(ctx).
		Do()
	if err != nil {
		return nil, &adapter.CreationError{Name: sanitized, Err: err}
	}

	return toFolder(res), nil
}

// GetFolder retrieves a folder by id.
func (s *FolderService) GetFolder(ctx context.Context, folderID string) (*adapter.Folder, error) {
	res, err := s.service.Files.Get(folderID).
		Fields(folderFields).
		Context(ctx).
		Do()
	if err != nil {
		if isNotFound(err) {
			return nil, adapter.ErrNotFound
		}
		return nil, fmt.Errorf("unable to get folder: %v", err)
	}
	return toFolder(res), nil
}

// ListFolders lists the most recently created deal folders under the parent.
func (s *FolderService) ListFolders(ctx context.Context, max int64) ([]adapter.Folder, error) {
	q := fmt.Sprintf("'%s' in parents and mimeType = '%s' and trashed = false", s.parentFolderID, folderMIMEType)

	res, err := s.service.Files.List().
		Q(q).
		OrderBy("createdTime desc").
		PageSize(max).
		Fields(googleapi.Field("files(" + folderFields + ")")).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("unable to list folders: %v", err)
	}

	folders := make([]adapter.Folder, 0, len(res.Files))
	for _, f := range res.Files {
		folders = append(folders, *toFolder(f))
	}
	return folders, nil
}

func toFolder(f *drive.File) *adapter.Folder {
	link := f.WebViewLink
	if link == "" {
		link = folderLinkBase + f.Id
	}
	createdTime, _ := time.Parse(time.RFC3339, f.CreatedTime)
	return &adapter.Folder{
		ID:          f.Id,
		Name:        f.Name,
		Link:        link,
		CreatedTime: createdTime,
	}
}

func isNotFound(err error) bool {
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return gErr.Code == 404
	}
	return false
}
