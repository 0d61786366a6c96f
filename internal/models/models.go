package models

import (
	"time"
)

// TrainingSource statuses. A source is created by the intake flow and walked
// through the training lifecycle by the worker; the purge lifecycle is
// independent and starts from the "deleted" UI intent.
const (
	SourceStatusCreated        = "created"
	SourceStatusPending        = "pending"
	SourceStatusQueued         = "queued_for_training"
	SourceStatusTraining       = "training"
	SourceStatusTrained        = "trained"
	SourceStatusTrainingFailed = "training_failed"
	SourceStatusDeleted        = "deleted"
	SourceStatusPurging        = "purging"
	SourceStatusPurged         = "purged"
	SourceStatusPurgeFailed    = "purge_failed"
)

// TrainingJob statuses.
const (
	JobStatusQueued           = "queued"
	JobStatusProcessing       = "processing"
	JobStatusCompleted        = "completed"
	JobStatusPartial          = "partially_completed"
	JobStatusFailed           = "failed"
	JobStatusCleanupCompleted = "cleanup_completed"
)

// Job kinds. Deletion requests reuse the TrainingJob record for tracking;
// the kind keeps the one-active-job-per-bot guard scoped to training.
const (
	JobKindTrain = "train"
	JobKindPurge = "purge"
)

// Source types.
const (
	SourceTypeURL  = "url"
	SourceTypeFile = "file"
)

// TrainingSource is a unit of raw content (URL or uploaded file) registered
// for training. Lives in the catalog store; owned by its bot.
type TrainingSource struct {
	ID             string    `db:"id" json:"id"`
	OrganizationID string    `db:"organization_id" json:"organization_id"`
	BotID          string    `db:"bot_id" json:"bot_id"`
	Type           string    `db:"type" json:"type"`                 // "url" or "file"
	SourceValue    string    `db:"source_value" json:"source_value"` // URL string, or File id for file sources
	Status         string    `db:"status" json:"status"`
	ErrorMessage   string    `db:"error_message" json:"error_message,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// TrainingJob tracks one batch training or deletion request for a bot.
// At most one job per bot may sit in queued/processing at a time.
type TrainingJob struct {
	ID             string     `db:"id" json:"id"`
	OrganizationID string     `db:"organization_id" json:"organization_id"`
	BotID          string     `db:"bot_id" json:"bot_id"`
	Kind           string     `db:"kind" json:"kind"` // "train" or "purge"
	Status         string     `db:"status" json:"status"`
	ErrorMessage   string     `db:"error_message" json:"error_message,omitempty"`
	StartedAt      *time.Time `db:"started_at" json:"started_at,omitempty"`
	CompletedAt    *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}

// Document is one retrieval chunk of a source's extracted text. Created
// inactive by the chunker; activated once its embedding exists.
// (source_id, chunk_index, embedding_model, embedding_version) is unique.
type Document struct {
	ID                string     `db:"id" json:"id"`
	OrganizationID    string     `db:"organization_id" json:"organization_id"`
	BotID             string     `db:"bot_id" json:"bot_id"`
	SourceID          string     `db:"source_id" json:"source_id"`
	ChunkIndex        int        `db:"chunk_index" json:"chunk_index"`
	Content           string     `db:"content" json:"content"`
	ChunkSize         int        `db:"chunk_size" json:"chunk_size"`
	ChunkOverlap      int        `db:"chunk_overlap" json:"chunk_overlap"`
	TokenCount        int        `db:"token_count" json:"token_count"`
	EmbeddingModel    string     `db:"embedding_model" json:"embedding_model"`
	EmbeddingVersion  string     `db:"embedding_version" json:"embedding_version"`
	EmbeddingProvider string     `db:"embedding_provider" json:"embedding_provider"`
	IsActive          bool       `db:"is_active" json:"is_active"`
	DeletedAt         *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
}

// Embedding is the vector for one document. At most one live embedding per
// document; cascades when the document is purged.
type Embedding struct {
	ID         string     `db:"id" json:"id"`
	DocumentID string     `db:"document_id" json:"document_id"`
	Vector     []float32  `db:"embedding" json:"-"` // pgvector column
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	DeletedAt  *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}

// File is an uploaded object referenced by file-type training sources.
type File struct {
	ID               string    `db:"id" json:"id"`
	OrganizationID   string    `db:"organization_id" json:"organization_id"`
	BotID            string    `db:"bot_id" json:"bot_id"`
	Provider         string    `db:"provider" json:"provider"` // "r2" or "s3"
	Bucket           string    `db:"bucket" json:"bucket"`
	Path             string    `db:"path" json:"path"`
	OriginalFilename string    `db:"original_filename" json:"original_filename"`
	Status           string    `db:"status" json:"status"` // uploaded | incomplete
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// Bot is the owner of sources and jobs. Bots are managed upstream; the
// pipeline only checks ownership.
type Bot struct {
	ID             string    `db:"id" json:"id"`
	OrganizationID string    `db:"organization_id" json:"organization_id"`
	Name           string    `db:"name" json:"name"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// SourceEligibleForTraining reports whether a source may be included in a new
// training job.
func SourceEligibleForTraining(status string) bool {
	return status == SourceStatusCreated || status == SourceStatusPending
}

// JobStatusTerminal reports whether a job status is terminal.
func JobStatusTerminal(status string) bool {
	switch status {
	case JobStatusCompleted, JobStatusPartial, JobStatusFailed, JobStatusCleanupCompleted:
		return true
	}
	return false
}
