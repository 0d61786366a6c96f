package extract

import (
	"context"
	"fmt"

	"github.com/markdave123-py/Botforge/internal/core"
	"github.com/markdave123-py/Botforge/internal/models"
	"github.com/markdave123-py/Botforge/internal/pkg/logger"
)

// Extractor dispatches a training source to its type-specific extraction
// path and returns a single cleaned text blob.
type Extractor struct {
	url  *URLExtractor
	file *FileExtractor
}

func NewExtractor(catalog core.CatalogStore, storage core.ObjectClient, log *logger.Logger) *Extractor {
	return &Extractor{
		url:  NewURLExtractor(log),
		file: NewFileExtractor(catalog, storage, log),
	}
}

func (e *Extractor) Extract(ctx context.Context, source *models.TrainingSource) (string, error) {
	switch source.Type {
	case models.SourceTypeURL:
		return e.url.Extract(ctx, source.SourceValue)
	case models.SourceTypeFile:
		return e.file.Extract(ctx, source)
	default:
		return "", core.NewError(core.KindContent, fmt.Sprintf("Unknown source type: %s", source.Type))
	}
}

var _ core.SourceExtractor = (*Extractor)(nil)
