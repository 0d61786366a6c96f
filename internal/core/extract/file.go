package extract

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/markdave123-py/Botforge/internal/core"
	"github.com/markdave123-py/Botforge/internal/models"
	"github.com/markdave123-py/Botforge/internal/pkg/logger"
)

// minFileContent is the acceptance threshold for cleaned file text. Lower
// than the URL bar since files are user-provided.
const minFileContent = 50

// FileExtractor resolves the File record behind a file-type source, verifies
// the object in storage, downloads it, and parses it with a format-specific
// loader.
type FileExtractor struct {
	catalog core.CatalogStore
	storage core.ObjectClient
	log     *logger.Logger
}

func NewFileExtractor(catalog core.CatalogStore, storage core.ObjectClient, log *logger.Logger) *FileExtractor {
	return &FileExtractor{
		catalog: catalog,
		storage: storage,
		log:     log.With("component", "FileExtractor"),
	}
}

func (e *FileExtractor) Extract(ctx context.Context, source *models.TrainingSource) (string, error) {
	if source.SourceValue == "" {
		return "", core.NewError(core.KindContent, "Missing file information for this training source.")
	}

	file, err := e.catalog.GetFile(ctx, source.SourceValue)
	if err != nil {
		return "", core.WrapError(core.KindTransient, "Unable to locate the uploaded file for this training source.", err)
	}
	if file == nil || file.Bucket == "" || file.Path == "" {
		return "", core.NewError(core.KindContent, "Uploaded file metadata is incomplete.")
	}

	exists, err := e.storage.ObjectExists(ctx, file.Bucket, file.Path)
	if err != nil {
		// The check itself failed: retryable, the object may well be there.
		return "", core.WrapError(core.KindTransient, "Unable to verify the file in storage right now. Please retry.", err)
	}
	if !exists {
		return "", core.NewError(core.KindContent, "File upload was not completed. Please re-upload and try again.")
	}

	tmpDir, err := os.MkdirTemp("", "botforge-source-*")
	if err != nil {
		return "", core.WrapError(core.KindTransient, "Failed to prepare a working directory", err)
	}
	defer os.RemoveAll(tmpDir)

	suffix := filepath.Ext(file.Path)
	tmpPath := filepath.Join(tmpDir, "source"+suffix)

	if err := e.storage.DownloadToFile(ctx, file.Bucket, file.Path, tmpPath); err != nil {
		e.log.Error("failed to download file from storage",
			"source_id", source.ID, "bucket", file.Bucket, "path", file.Path, "error", err)
		return "", core.WrapError(core.KindTransient, "Failed to download the uploaded file", err)
	}

	fragments, err := loadByExtension(tmpPath)
	if err != nil {
		return "", err
	}

	cleaned := CleanText(strings.Join(fragments, "\n\n"))
	if utf8.RuneCountInString(cleaned) < minFileContent {
		e.log.Error("file content too short after loading/cleaning",
			"source_id", source.ID, "content_length", utf8.RuneCountInString(cleaned))
		return "", core.NewError(core.KindContent, "File content too short after loading the data from file")
	}
	return cleaned, nil
}
