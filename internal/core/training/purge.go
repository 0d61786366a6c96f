package training

import (
	"context"
	"fmt"
	"time"

	"github.com/markdave123-py/Botforge/internal/core"
	"github.com/markdave123-py/Botforge/internal/models"
	"github.com/markdave123-py/Botforge/internal/pkg/logger"
)

// Purger removes a source's derived data (embeddings, chunks) and its
// original storage object. The claim makes concurrent purge attempts on the
// same source mutually exclusive; a duplicate delivery is a no-op.
type Purger struct {
	content core.ContentStore
	catalog core.CatalogStore
	storage core.ObjectClient
	log     *logger.Logger
}

func NewPurger(content core.ContentStore, catalog core.CatalogStore, storage core.ObjectClient, log *logger.Logger) *Purger {
	return &Purger{
		content: content,
		catalog: catalog,
		storage: storage,
		log:     log.With("component", "PurgeWorkflow"),
	}
}

// ProcessPurge handles one purge message.
func (p *Purger) ProcessPurge(ctx context.Context, msg core.PurgeMessage) error {
	job, err := p.content.GetTrainingJobScoped(ctx, msg.JobID, msg.OrganizationID, msg.BotID)
	if err != nil {
		return core.WrapError(core.KindTransient, "Failed to load purge job", err)
	}
	if job == nil {
		return core.NewError(core.KindFatal, fmt.Sprintf("job not found for id: %s", msg.JobID))
	}

	source, err := p.catalog.ClaimSourceForPurge(ctx, msg.SourceID, msg.OrganizationID, msg.BotID)
	if err != nil {
		return core.WrapError(core.KindTransient, "Failed to claim source for purge", err)
	}
	if source == nil {
		p.log.Info("source already claimed or not eligible for deletion", "source_id", msg.SourceID)
		return nil
	}
	p.log.Info("source claimed for purge", "source_id", source.ID)

	if err := p.purgeClaimed(ctx, msg, source); err != nil {
		if uerr := p.catalog.UpdateSourceStatus(ctx, source.ID, models.SourceStatusPurgeFailed, core.MessageOf(err)); uerr != nil {
			p.log.Error("failed to mark source purge_failed", "source_id", source.ID, "error", uerr)
		}
		// Surface the failure so the queue's retry/poison handling can act.
		return err
	}

	return nil
}

func (p *Purger) purgeClaimed(ctx context.Context, msg core.PurgeMessage, source *models.TrainingSource) error {
	documents, embeddings, err := p.content.PurgeSourceData(ctx, source.ID, msg.JobID, time.Now().UTC())
	if err != nil {
		return core.WrapError(core.KindTransient, "Failed to delete training data", err)
	}
	p.log.Info("derived data deleted",
		"source_id", source.ID, "deleted_documents", documents, "deleted_embeddings", embeddings)

	if source.Type == models.SourceTypeFile {
		if err := p.purgeFile(ctx, source); err != nil {
			return err
		}
	}

	if err := p.catalog.UpdateSourceStatus(ctx, source.ID, models.SourceStatusPurged, ""); err != nil {
		return core.WrapError(core.KindTransient, "Failed to mark source purged", err)
	}
	p.log.Info("source purged", "source_id", source.ID)
	return nil
}

// purgeFile deletes the storage object and, only if that succeeds, the File
// row. A storage failure keeps the File row around for a later retry without
// failing the source purge.
func (p *Purger) purgeFile(ctx context.Context, source *models.TrainingSource) error {
	file, err := p.catalog.GetFile(ctx, source.SourceValue)
	if err != nil {
		return core.WrapError(core.KindTransient, "Failed to load file record", err)
	}
	if file == nil {
		return core.NewError(core.KindFatal, fmt.Sprintf("file record not found for id: %s", source.SourceValue))
	}
	if file.Bucket == "" || file.Path == "" {
		return core.NewError(core.KindFatal, fmt.Sprintf("file record missing bucket or path: %s", file.ID))
	}

	if err := p.storage.DeleteFile(ctx, file.Bucket, file.Path); err != nil {
		p.log.Warn("storage delete failed; file metadata retained for retry",
			"file_id", file.ID, "bucket", file.Bucket, "path", file.Path, "error", err)
		return nil
	}
	p.log.Info("file deleted from storage", "file_id", file.ID, "bucket", file.Bucket, "path", file.Path)

	if err := p.catalog.DeleteFile(ctx, file.ID); err != nil {
		p.log.Warn("file metadata delete failed; retained for retry", "file_id", file.ID, "error", err)
		return nil
	}
	p.log.Info("file record deleted", "file_id", file.ID)
	return nil
}
