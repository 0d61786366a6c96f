package training

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
	"github.com/tmc/langchaingo/textsplitter"

	"github.com/markdave123-py/Botforge/internal/core"
	"github.com/markdave123-py/Botforge/internal/models"
)

// Chunker splits cleaned source text into overlapping character-bounded
// segments and shapes them into inactive Document rows tagged with the
// chunking configuration and the fixed embedding (model, version, provider)
// triple.
type Chunker struct {
	cfg      core.ChunkConfig
	model    string
	version  string
	provider string
	encoding *tiktoken.Tiktoken
}

func NewChunker(cfg core.ChunkConfig, model, version, provider string) (*Chunker, error) {
	if cfg.ChunkSize <= 0 {
		cfg = core.DefaultChunkConfig()
	}
	// cl100k_base is close enough for bookkeeping across providers; the
	// token counts are informational, not used for splitting. The bundled
	// offline loader keeps vocabulary loading off the network.
	tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, err
	}
	return &Chunker{
		cfg:      cfg,
		model:    model,
		version:  version,
		provider: provider,
		encoding: enc,
	}, nil
}

// Chunk splits the cleaned text and returns one inactive Document per chunk.
func (c *Chunker) Chunk(source *models.TrainingSource, cleaned string) ([]models.Document, error) {
	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(c.cfg.ChunkSize),
		textsplitter.WithChunkOverlap(c.cfg.ChunkOverlap),
	)
	chunks, err := splitter.SplitText(cleaned)
	if err != nil {
		return nil, core.WrapError(core.KindContent, "Failed to split source text into chunks", err)
	}

	now := time.Now().UTC()
	docs := make([]models.Document, 0, len(chunks))
	for i, chunk := range chunks {
		docs = append(docs, models.Document{
			ID:                uuid.NewString(),
			OrganizationID:    source.OrganizationID,
			BotID:             source.BotID,
			SourceID:          source.ID,
			ChunkIndex:        i,
			Content:           chunk,
			ChunkSize:         c.cfg.ChunkSize,
			ChunkOverlap:      c.cfg.ChunkOverlap,
			TokenCount:        c.CountTokens(chunk),
			EmbeddingModel:    c.model,
			EmbeddingVersion:  c.version,
			EmbeddingProvider: c.provider,
			IsActive:          false,
			CreatedAt:         now,
		})
	}
	return docs, nil
}

func (c *Chunker) CountTokens(text string) int {
	return len(c.encoding.Encode(text, nil, nil))
}
