package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/markdave123-py/Botforge/internal/core"
	"github.com/markdave123-py/Botforge/internal/models"
)

// ContentStore is the pgx-backed store for training jobs, documents and
// embeddings.
type ContentStore struct {
	db *sql.DB
}

func NewContentStore(ctx context.Context, databaseURL string) (core.ContentStore, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open content db: %w", err)
	}

	// Pool settings sized for one worker handling one message at a time.
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping content db: %w", err)
	}

	if err := EnsureBootstrapped(ctx, db, contentSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap content db: %w", err)
	}

	return &ContentStore{db: db}, nil
}

func (s *ContentStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *ContentStore) CreateTrainingJob(ctx context.Context, job *models.TrainingJob) error {
	if job == nil {
		return errors.New("nil job")
	}
	const q = `
		INSERT INTO training_jobs (id, organization_id, bot_id, kind, status, error_message, created_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), COALESCE($7, now()))
	`
	_, err := s.db.ExecContext(ctx, q,
		job.ID, job.OrganizationID, job.BotID, job.Kind, job.Status, job.ErrorMessage, job.CreatedAt)
	if isUniqueViolation(err) {
		// The partial unique index on (bot_id) backs up the service-layer
		// active-job check against concurrent dispatches.
		return core.WrapError(core.KindConflict,
			"A training job is already running for this bot. Please wait for it to finish.", err)
	}
	return err
}

// isUniqueViolation reports whether err is a Postgres 23505.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (s *ContentStore) GetTrainingJob(ctx context.Context, id string) (*models.TrainingJob, error) {
	const q = `
		SELECT id, organization_id, bot_id, kind, status, COALESCE(error_message, ''), started_at, completed_at, created_at
		FROM training_jobs WHERE id = $1
	`
	return s.scanJob(s.db.QueryRowContext(ctx, q, id))
}

func (s *ContentStore) GetTrainingJobScoped(ctx context.Context, id, organizationID, botID string) (*models.TrainingJob, error) {
	const q = `
		SELECT id, organization_id, bot_id, kind, status, COALESCE(error_message, ''), started_at, completed_at, created_at
		FROM training_jobs
		WHERE id = $1 AND organization_id = $2 AND bot_id = $3
	`
	return s.scanJob(s.db.QueryRowContext(ctx, q, id, organizationID, botID))
}

func (s *ContentStore) scanJob(row *sql.Row) (*models.TrainingJob, error) {
	var j models.TrainingJob
	err := row.Scan(
		&j.ID, &j.OrganizationID, &j.BotID, &j.Kind, &j.Status, &j.ErrorMessage,
		&j.StartedAt, &j.CompletedAt, &j.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &j, nil
}

func (s *ContentStore) HasActiveJob(ctx context.Context, botID string) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1 FROM training_jobs
			WHERE bot_id = $1 AND kind = 'train' AND status IN ('queued', 'processing')
		)
	`
	var exists bool
	if err := s.db.QueryRowContext(ctx, q, botID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (s *ContentStore) MarkJobProcessing(ctx context.Context, id string, startedAt time.Time) error {
	const q = `
		UPDATE training_jobs
		SET status = 'processing', started_at = $2
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, q, id, startedAt)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("training job not found: %s", id)
	}
	return nil
}

func (s *ContentStore) FinishJob(ctx context.Context, id, status, errorMessage string, completedAt time.Time) error {
	const q = `
		UPDATE training_jobs
		SET status = $2, error_message = NULLIF($3, ''), completed_at = $4
		WHERE id = $1
	`
	_, err := s.db.ExecContext(ctx, q, id, status, errorMessage, completedAt)
	return err
}

// InsertDocuments persists all chunks for a source in a single transaction;
// a failure leaves no partial rows.
func (s *ContentStore) InsertDocuments(ctx context.Context, docs []models.Document) error {
	if len(docs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}

	const q = `
		INSERT INTO documents
			(id, organization_id, bot_id, source_id, chunk_index, content,
			 chunk_size, chunk_overlap, token_count,
			 embedding_model, embedding_version, embedding_provider,
			 is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, COALESCE($14, now()))
		ON CONFLICT (source_id, chunk_index, embedding_model, embedding_version) DO NOTHING
	`
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for i := range docs {
		d := &docs[i]
		if _, err := stmt.ExecContext(ctx,
			d.ID, d.OrganizationID, d.BotID, d.SourceID, d.ChunkIndex, d.Content,
			d.ChunkSize, d.ChunkOverlap, d.TokenCount,
			d.EmbeddingModel, d.EmbeddingVersion, d.EmbeddingProvider,
			d.IsActive, d.CreatedAt,
		); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (s *ContentStore) ListInactiveDocumentsBySource(ctx context.Context, sourceID string) ([]models.Document, error) {
	const q = `
		SELECT id, organization_id, bot_id, source_id, chunk_index, content,
		       chunk_size, chunk_overlap, token_count,
		       embedding_model, embedding_version, embedding_provider,
		       is_active, created_at
		FROM documents
		WHERE source_id = $1 AND is_active = false AND deleted_at IS NULL
		ORDER BY chunk_index ASC
	`
	rows, err := s.db.QueryContext(ctx, q, sourceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Document
	for rows.Next() {
		var d models.Document
		if err := rows.Scan(
			&d.ID, &d.OrganizationID, &d.BotID, &d.SourceID, &d.ChunkIndex, &d.Content,
			&d.ChunkSize, &d.ChunkOverlap, &d.TokenCount,
			&d.EmbeddingModel, &d.EmbeddingVersion, &d.EmbeddingProvider,
			&d.IsActive, &d.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *ContentStore) EmbeddedDocumentIDs(ctx context.Context, documentIDs []string) (map[string]struct{}, error) {
	if len(documentIDs) == 0 {
		return map[string]struct{}{}, nil
	}
	const q = `
		SELECT document_id FROM embeddings
		WHERE document_id = ANY($1) AND deleted_at IS NULL
	`
	rows, err := s.db.QueryContext(ctx, q, documentIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = struct{}{}
	}
	return out, rows.Err()
}

// InsertEmbeddingsActivate writes one embedding per document and flips the
// document active, all-or-nothing.
func (s *ContentStore) InsertEmbeddingsActivate(ctx context.Context, embeddings []models.Embedding) error {
	if len(embeddings) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}

	const insertQ = `
		INSERT INTO embeddings (id, document_id, embedding, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`
	const activateQ = `
		UPDATE documents SET is_active = true WHERE id = $1
	`
	for i := range embeddings {
		e := &embeddings[i]
		vec := pgvector.NewVector(e.Vector)
		if _, err := tx.ExecContext(ctx, insertQ, e.ID, e.DocumentID, vec, e.CreatedAt); err != nil {
			_ = tx.Rollback()
			return err
		}
		if _, err := tx.ExecContext(ctx, activateQ, e.DocumentID); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// PurgeSourceData hard-deletes the source's embeddings then documents and
// marks the job cleanup_completed, in one transaction.
func (s *ContentStore) PurgeSourceData(ctx context.Context, sourceID, jobID string, completedAt time.Time) (int, int, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return 0, 0, err
	}

	const deleteEmbeddingsQ = `
		DELETE FROM embeddings
		WHERE document_id IN (SELECT id FROM documents WHERE source_id = $1)
	`
	res, err := tx.ExecContext(ctx, deleteEmbeddingsQ, sourceID)
	if err != nil {
		_ = tx.Rollback()
		return 0, 0, err
	}
	embeddingsDeleted, _ := res.RowsAffected()

	const deleteDocumentsQ = `DELETE FROM documents WHERE source_id = $1`
	res, err = tx.ExecContext(ctx, deleteDocumentsQ, sourceID)
	if err != nil {
		_ = tx.Rollback()
		return 0, 0, err
	}
	documentsDeleted, _ := res.RowsAffected()

	const finishJobQ = `
		UPDATE training_jobs
		SET status = 'cleanup_completed', completed_at = $2
		WHERE id = $1
	`
	if _, err := tx.ExecContext(ctx, finishJobQ, jobID, completedAt); err != nil {
		_ = tx.Rollback()
		return 0, 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, err
	}
	return int(documentsDeleted), int(embeddingsDeleted), nil
}
