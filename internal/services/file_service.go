package services

import (
	"context"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/markdave123-py/Botforge/internal/core"
	"github.com/markdave123-py/Botforge/internal/models"
)

// Extensions the training pipeline knows how to load.
var supportedUploadExts = map[string]struct{}{
	".csv": {}, ".md": {}, ".pdf": {}, ".txt": {},
}

// FileService handles uploads into object storage and the catalog rows that
// file-type training sources point at.
type FileService struct {
	catalog  core.CatalogStore
	storage  core.ObjectClient
	bucket   string
	provider string
}

func NewFileService(catalog core.CatalogStore, storage core.ObjectClient, bucket, provider string) *FileService {
	return &FileService{catalog: catalog, storage: storage, bucket: bucket, provider: provider}
}

// Upload stores the file and records it in the catalog. The returned File's
// ID is what a file-type training source carries as its source_value.
func (s *FileService) Upload(ctx context.Context, organizationID, botID, filename, contentType string, data io.Reader) (*models.File, error) {
	if botID == "" {
		return nil, core.NewError(core.KindValidation, "bot_id is required")
	}
	if strings.TrimSpace(filename) == "" {
		return nil, core.NewError(core.KindValidation, "filename is required")
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := supportedUploadExts[ext]; !ok {
		return nil, core.NewError(core.KindContent,
			"Unsupported file type: "+ext+". Supported: .csv .md .pdf .txt")
	}

	fileID := uuid.NewString()
	key := s.objectKey(organizationID, botID, fileID, filename)

	if _, err := s.storage.UploadFile(ctx, s.bucket, key, data, contentType); err != nil {
		return nil, core.WrapError(core.KindTransient, "Failed to store the uploaded file. Please retry.", err)
	}

	file := &models.File{
		ID:               fileID,
		OrganizationID:   organizationID,
		BotID:            botID,
		Provider:         s.provider,
		Bucket:           s.bucket,
		Path:             key,
		OriginalFilename: filename,
		Status:           "uploaded",
		CreatedAt:        time.Now().UTC(),
	}
	if err := s.catalog.CreateFile(ctx, file); err != nil {
		return nil, err
	}
	return file, nil
}

// SignedURL returns a time-limited download URL for a stored file, scoped to
// the caller's organization and bot.
func (s *FileService) SignedURL(ctx context.Context, organizationID, botID, fileID string, ttl time.Duration) (string, error) {
	file, err := s.catalog.GetFile(ctx, fileID)
	if err != nil {
		return "", err
	}
	if file == nil || file.OrganizationID != organizationID || file.BotID != botID {
		return "", core.NewError(core.KindValidation, "File not found")
	}
	return s.storage.PresignURL(ctx, file.Bucket, file.Path, ttl)
}

// objectKey creates a consistent storage key layout.
func (s *FileService) objectKey(organizationID, botID, fileID, filename string) string {
	filename = strings.TrimSpace(filename)
	filename = strings.ReplaceAll(filename, " ", "_")
	return path.Join("orgs", organizationID, "bots", botID, "files", fileID, filename)
}
