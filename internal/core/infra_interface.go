package core

import (
	"context"
	"io"
	"time"

	"github.com/markdave123-py/Botforge/internal/models"
)

// ContentStore is the persistence boundary for chunks, vectors and jobs.
// It abstracts Postgres/pgvector so higher layers never depend on a specific DB.
type ContentStore interface {
	CreateTrainingJob(ctx context.Context, job *models.TrainingJob) error
	GetTrainingJob(ctx context.Context, id string) (*models.TrainingJob, error)
	GetTrainingJobScoped(ctx context.Context, id, organizationID, botID string) (*models.TrainingJob, error)
	HasActiveJob(ctx context.Context, botID string) (bool, error)
	MarkJobProcessing(ctx context.Context, id string, startedAt time.Time) error
	FinishJob(ctx context.Context, id, status, errorMessage string, completedAt time.Time) error

	// InsertDocuments persists all chunks for a source in one transaction.
	InsertDocuments(ctx context.Context, docs []models.Document) error
	ListInactiveDocumentsBySource(ctx context.Context, sourceID string) ([]models.Document, error)

	// EmbeddedDocumentIDs returns the subset of ids that already have a live
	// embedding. The embedder skips those.
	EmbeddedDocumentIDs(ctx context.Context, documentIDs []string) (map[string]struct{}, error)
	// InsertEmbeddingsActivate inserts one embedding per document and flips
	// is_active on the document, all in one transaction.
	InsertEmbeddingsActivate(ctx context.Context, embeddings []models.Embedding) error

	// PurgeSourceData hard-deletes the source's embeddings and documents and
	// marks the job cleanup_completed, all in one transaction. Returns the
	// number of documents and embeddings removed.
	PurgeSourceData(ctx context.Context, sourceID, jobID string, completedAt time.Time) (documents, embeddings int, err error)

	Close() error
}

// CatalogStore is the persistence boundary for bots, sources and files.
type CatalogStore interface {
	GetBot(ctx context.Context, botID, organizationID string) (*models.Bot, error)

	ListSources(ctx context.Context, ids []string, botID, organizationID string) ([]models.TrainingSource, error)
	UpdateSourceStatus(ctx context.Context, id, status, errorMessage string) error
	MarkSourcesQueued(ctx context.Context, ids []string) error

	// ClaimSourceForPurge locks the source row (FOR UPDATE), matching on
	// status = 'deleted' plus org/bot scoping, and transitions it to
	// 'purging' before returning. A nil source with nil error means no row
	// matched: already claimed, already purged, or never marked for deletion.
	ClaimSourceForPurge(ctx context.Context, id, organizationID, botID string) (*models.TrainingSource, error)

	CreateFile(ctx context.Context, file *models.File) error
	GetFile(ctx context.Context, id string) (*models.File, error)
	DeleteFile(ctx context.Context, id string) error

	Close() error
}

// ObjectClient defines interactions with S3-compatible object storage
// (AWS S3 or Cloudflare R2 behind a custom endpoint).
type ObjectClient interface {
	UploadFile(ctx context.Context, bucket, key string, data io.Reader, contentType string) (url string, err error)
	DeleteFile(ctx context.Context, bucket, key string) error
	DownloadToFile(ctx context.Context, bucket, key, destPath string) error
	ObjectExists(ctx context.Context, bucket, key string) (bool, error)
	PresignURL(ctx context.Context, bucket, key string, ttl time.Duration) (string, error)
}

// EmbeddingProvider is the external embedding service: order-preserving,
// one vector per input text, a single error for the whole batch.
type EmbeddingProvider interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Queue publishes durable work items consumed by the worker pool.
type Queue interface {
	PublishTrain(ctx context.Context, msg TrainMessage) error
	PublishPurge(ctx context.Context, msg PurgeMessage) error
}

// SourceExtractor turns a raw source into cleaned plain text. Implementations
// dispatch on the source type rather than callers comparing strings.
type SourceExtractor interface {
	Extract(ctx context.Context, source *models.TrainingSource) (string, error)
}
