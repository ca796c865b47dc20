// Package adapter defines the cloud-storage interface for deal folders.
package adapter

import (
	"context"
	"time"
)

// FolderMetadata is the CRM context attached to a folder at creation time.
type FolderMetadata struct {
	DealName string
	DealID   string
	Stage    string
	Amount   string
}

// Folder is a created deal folder.
type Folder struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Link        string    `json:"link"`
	CreatedTime time.Time `json:"createdTime"`
}

// FolderService creates and inspects deal folders in a storage backend.
// Swapping implementations (Google Drive, in-memory) must not change the
// webhook pipeline.
//
// CreateFolder is not idempotent: calling it twice for the same deal creates
// two folders. Callers ensure at-most-once invocation per deal.
type FolderService interface {
	// CreateFolder creates a folder under the configured parent, sanitizing
	// the name and attaching metadata.
	CreateFolder(ctx context.Context, name string, meta FolderMetadata) (*Folder, error)

	// GetFolder retrieves a folder by its provider-assigned id.
	GetFolder(ctx context.Context, folderID string) (*Folder, error)

	// ListFolders lists the most recently created folders under the parent.
	ListFolders(ctx context.Context, max int64) ([]Folder, error)
}
