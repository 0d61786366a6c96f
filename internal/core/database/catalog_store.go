package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/markdave123-py/Botforge/internal/core"
	"github.com/markdave123-py/Botforge/internal/models"
)

// CatalogStore is the pgx-backed store for bots, training sources and files.
type CatalogStore struct {
	db *sql.DB
}

func NewCatalogStore(ctx context.Context, databaseURL string) (core.CatalogStore, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("CATALOG_DATABASE_URL is empty")
	}

	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open catalog db: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping catalog db: %w", err)
	}

	if err := EnsureBootstrapped(ctx, db, catalogSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap catalog db: %w", err)
	}

	return &CatalogStore{db: db}, nil
}

func (s *CatalogStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *CatalogStore) GetBot(ctx context.Context, botID, organizationID string) (*models.Bot, error) {
	const q = `
		SELECT id, organization_id, name, created_at
		FROM bots WHERE id = $1 AND organization_id = $2
	`
	var b models.Bot
	err := s.db.QueryRowContext(ctx, q, botID, organizationID).Scan(
		&b.ID, &b.OrganizationID, &b.Name, &b.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *CatalogStore) ListSources(ctx context.Context, ids []string, botID, organizationID string) ([]models.TrainingSource, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	const q = `
		SELECT id, organization_id, bot_id, type, source_value, status,
		       COALESCE(error_message, ''), created_at, updated_at
		FROM training_sources
		WHERE id = ANY($1) AND bot_id = $2 AND organization_id = $3
	`
	rows, err := s.db.QueryContext(ctx, q, ids, botID, organizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.TrainingSource
	for rows.Next() {
		var ts models.TrainingSource
		if err := rows.Scan(
			&ts.ID, &ts.OrganizationID, &ts.BotID, &ts.Type, &ts.SourceValue,
			&ts.Status, &ts.ErrorMessage, &ts.CreatedAt, &ts.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, ts)
	}
	return out, rows.Err()
}

func (s *CatalogStore) UpdateSourceStatus(ctx context.Context, id, status, errorMessage string) error {
	const q = `
		UPDATE training_sources
		SET status = $2, error_message = NULLIF($3, ''), updated_at = now()
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, q, id, status, errorMessage)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("training source not found: %s", id)
	}
	return nil
}

func (s *CatalogStore) MarkSourcesQueued(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	const q = `
		UPDATE training_sources
		SET status = 'queued_for_training', updated_at = now()
		WHERE id = ANY($1)
	`
	_, err := s.db.ExecContext(ctx, q, ids)
	return err
}

// ClaimSourceForPurge takes a row lock on the source matching the deletion
// intent and flips it to purging in the same transaction. Concurrent purge
// attempts on the same source serialize on the lock; the loser sees no
// matching row and gets (nil, nil).
func (s *CatalogStore) ClaimSourceForPurge(ctx context.Context, id, organizationID, botID string) (*models.TrainingSource, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, err
	}

	const selectQ = `
		SELECT id, organization_id, bot_id, type, source_value, status,
		       COALESCE(error_message, ''), created_at, updated_at
		FROM training_sources
		WHERE id = $1 AND status = 'deleted' AND organization_id = $2 AND bot_id = $3
		FOR UPDATE
	`
	var ts models.TrainingSource
	err = tx.QueryRowContext(ctx, selectQ, id, organizationID, botID).Scan(
		&ts.ID, &ts.OrganizationID, &ts.BotID, &ts.Type, &ts.SourceValue,
		&ts.Status, &ts.ErrorMessage, &ts.CreatedAt, &ts.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		_ = tx.Rollback()
		return nil, nil
	}
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}

	const claimQ = `
		UPDATE training_sources SET status = 'purging', updated_at = now() WHERE id = $1
	`
	if _, err := tx.ExecContext(ctx, claimQ, id); err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	ts.Status = models.SourceStatusPurging
	return &ts, nil
}

func (s *CatalogStore) CreateFile(ctx context.Context, file *models.File) error {
	if file == nil {
		return errors.New("nil file")
	}
	const q = `
		INSERT INTO files (id, organization_id, bot_id, provider, bucket, path, original_filename, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, COALESCE($9, now()))
	`
	_, err := s.db.ExecContext(ctx, q,
		file.ID, file.OrganizationID, file.BotID, file.Provider, file.Bucket,
		file.Path, file.OriginalFilename, file.Status, file.CreatedAt)
	return err
}

func (s *CatalogStore) GetFile(ctx context.Context, id string) (*models.File, error) {
	const q = `
		SELECT id, organization_id, bot_id, provider, bucket, path, original_filename, status, created_at
		FROM files WHERE id = $1
	`
	var f models.File
	err := s.db.QueryRowContext(ctx, q, id).Scan(
		&f.ID, &f.OrganizationID, &f.BotID, &f.Provider, &f.Bucket,
		&f.Path, &f.OriginalFilename, &f.Status, &f.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *CatalogStore) DeleteFile(ctx context.Context, id string) error {
	const q = `DELETE FROM files WHERE id = $1`
	_, err := s.db.ExecContext(ctx, q, id)
	return err
}
