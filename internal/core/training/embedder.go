package training

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/markdave123-py/Botforge/internal/core"
	"github.com/markdave123-py/Botforge/internal/models"
	"github.com/markdave123-py/Botforge/internal/pkg/logger"
)

// Embedder creates vectors for a source's documents. Documents that already
// carry a live embedding are skipped, which makes the step idempotent under
// double invocation; the insert+activate for the remainder is all-or-nothing.
type Embedder struct {
	content  core.ContentStore
	provider core.EmbeddingProvider
	log      *logger.Logger
}

func NewEmbedder(content core.ContentStore, provider core.EmbeddingProvider, log *logger.Logger) *Embedder {
	return &Embedder{
		content:  content,
		provider: provider,
		log:      log.With("component", "Embedder"),
	}
}

func (e *Embedder) EmbedDocuments(ctx context.Context, sourceID string, docs []models.Document) error {
	ids := make([]string, len(docs))
	for i := range docs {
		ids[i] = docs[i].ID
	}

	existing, err := e.content.EmbeddedDocumentIDs(ctx, ids)
	if err != nil {
		return core.WrapError(core.KindTransient, "Failed to create embeddings. Please retry.", err)
	}

	pending := docs[:0:0]
	for i := range docs {
		if _, ok := existing[docs[i].ID]; !ok {
			pending = append(pending, docs[i])
		}
	}
	if len(pending) == 0 {
		e.log.Info("no new documents to embed", "source_id", sourceID)
		return nil
	}

	texts := make([]string, len(pending))
	for i := range pending {
		texts[i] = pending[i].Content
	}

	vectors, err := e.provider.EmbedTexts(ctx, texts)
	if err != nil {
		return core.WrapError(core.KindTransient, "Failed to create embeddings. Please retry.", err)
	}
	if len(vectors) != len(pending) {
		return core.WrapError(core.KindTransient, "Failed to create embeddings. Please retry.",
			fmt.Errorf("embed size mismatch: got %d want %d", len(vectors), len(pending)))
	}

	now := time.Now().UTC()
	embeddings := make([]models.Embedding, len(pending))
	for i := range pending {
		embeddings[i] = models.Embedding{
			ID:         uuid.NewString(),
			DocumentID: pending[i].ID,
			Vector:     vectors[i],
			CreatedAt:  now,
		}
	}

	if err := e.content.InsertEmbeddingsActivate(ctx, embeddings); err != nil {
		return core.WrapError(core.KindTransient, "Failed to create embeddings. Please retry.", err)
	}

	e.log.Info("embeddings created", "source_id", sourceID, "count", len(embeddings))
	return nil
}
