// Package memory implements adapter.FolderService in process memory. It
// backs DEV_MODE runs and tests; nothing survives a restart.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/techlab-live/zoho-drive-bridge/internal/adapter"
)

const folderLinkBase = "https://drive.google.com/drive/folders/"

// FolderService stores folders in a map keyed by generated id.
type FolderService struct {
	mu      sync.Mutex
	folders map[string]entry
}

type entry struct {
	folder adapter.Folder
	meta   adapter.FolderMetadata
}

// NewFolderService creates an empty in-memory folder store.
func NewFolderService() *FolderService {
	return &FolderService{folders: make(map[string]entry)}
}

// CreateFolder stores a folder with a generated id and returns it.
func (s *FolderService) CreateFolder(_ context.Context, name string, meta adapter.FolderMetadata) (*adapter.Folder, error) {
	id := uuid.New().String()
	folder := adapter.Folder{
		ID:          id,
		Name:        adapter.SanitizeFolderName(name),
		Link:        folderLinkBase + id,
		CreatedTime: time.Now().UTC(),
	}

	s.mu.Lock()
	s.folders[id] = entry{folder: folder, meta: meta}
	s.mu.Unlock()

	return &folder, nil
}

// GetFolder retrieves a stored folder by id.
func (s *FolderService) GetFolder(_ context.Context, folderID string) (*adapter.Folder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.folders[folderID]
	if !ok {
		return nil, adapter.ErrNotFound
	}
	folder := e.folder
	return &folder, nil
}

// ListFolders returns stored folders, newest first.
func (s *FolderService) ListFolders(_ context.Context, max int64) ([]adapter.Folder, error) {
	s.mu.Lock()
	folders := make([]adapter.Folder, 0, len(s.folders))
	for _, e := range s.folders {
		folders = append(folders, e.folder)
	}
	s.mu.Unlock()

	sort.Slice(folders, func(i, j int) bool {
		return folders[i].CreatedTime.After(folders[j].CreatedTime)
	})
	if max > 0 && int64(len(folders)) > max {
		folders = folders[:max]
	}
	return folders, nil
}

// Metadata returns the metadata recorded for a folder, for tests.
func (s *FolderService) Metadata(folderID string) (adapter.FolderMetadata, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.folders[folderID]
	return e.meta, ok
}
