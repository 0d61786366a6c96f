package training

import (
	"context"
	"fmt"
	"time"

	"github.com/markdave123-py/Botforge/internal/core"
	"github.com/markdave123-py/Botforge/internal/models"
	"github.com/markdave123-py/Botforge/internal/pkg/logger"
)

// Executor drives one training job: per source it extracts, chunks and
// embeds, updating the source status as it goes, then aggregates the
// per-source outcomes into a job status. A failing source never aborts its
// siblings.
type Executor struct {
	content   core.ContentStore
	catalog   core.CatalogStore
	extractor core.SourceExtractor
	chunker   *Chunker
	embedder  *Embedder
	log       *logger.Logger
}

func NewExecutor(
	content core.ContentStore,
	catalog core.CatalogStore,
	extractor core.SourceExtractor,
	chunker *Chunker,
	embedder *Embedder,
	log *logger.Logger,
) *Executor {
	return &Executor{
		content:   content,
		catalog:   catalog,
		extractor: extractor,
		chunker:   chunker,
		embedder:  embedder,
		log:       log.With("component", "JobExecutor"),
	}
}

// ProcessTrainingJob handles one train message end to end.
func (e *Executor) ProcessTrainingJob(ctx context.Context, msg core.TrainMessage) error {
	job, err := e.content.GetTrainingJob(ctx, msg.JobID)
	if err != nil {
		return core.WrapError(core.KindTransient, "Failed to load training job", err)
	}
	if job == nil {
		return core.NewError(core.KindFatal, fmt.Sprintf("training job not found: %s", msg.JobID))
	}
	if models.JobStatusTerminal(job.Status) {
		e.log.Info("skipping already-finished job", "job_id", job.ID, "status", job.Status)
		return nil
	}

	if err := e.content.MarkJobProcessing(ctx, job.ID, time.Now().UTC()); err != nil {
		return e.failJob(ctx, job.ID, core.WrapError(core.KindTransient, "Failed to mark job processing", err))
	}

	// Re-scope by bot and organization; never trust the message blindly.
	sources, err := e.catalog.ListSources(ctx, msg.SourceIDs, msg.BotID, msg.OrganizationID)
	if err != nil {
		return e.failJob(ctx, job.ID, core.WrapError(core.KindTransient, "Failed to load training sources", err))
	}

	var anySuccessful, anyFailed bool
	for i := range sources {
		source := &sources[i]
		e.log.Info("processing training source", "job_id", job.ID, "source_id", source.ID, "type", source.Type)

		if err := e.processSource(ctx, source); err != nil {
			anyFailed = true
			e.log.Error("failed to process training source",
				"job_id", job.ID, "source_id", source.ID, "kind", core.KindOf(err), "error", err)
			if uerr := e.catalog.UpdateSourceStatus(ctx, source.ID, models.SourceStatusTrainingFailed, core.MessageOf(err)); uerr != nil {
				e.log.Error("failed to record source failure", "source_id", source.ID, "error", uerr)
			}
			continue
		}

		if err := e.catalog.UpdateSourceStatus(ctx, source.ID, models.SourceStatusTrained, ""); err != nil {
			return e.failJob(ctx, job.ID, core.WrapError(core.KindTransient, "Failed to mark source trained", err))
		}
		anySuccessful = true
	}

	status := aggregateJobStatus(anySuccessful, anyFailed)
	if err := e.content.FinishJob(ctx, job.ID, status, "", time.Now().UTC()); err != nil {
		return core.WrapError(core.KindTransient, "Failed to finish training job", err)
	}

	e.log.Info("training job finished", "job_id", job.ID, "status", status)
	return nil
}

// processSource runs extract → chunk → embed for one source.
func (e *Executor) processSource(ctx context.Context, source *models.TrainingSource) error {
	if err := e.catalog.UpdateSourceStatus(ctx, source.ID, models.SourceStatusTraining, ""); err != nil {
		return core.WrapError(core.KindTransient, "Failed to mark source training", err)
	}

	cleaned, err := e.extractor.Extract(ctx, source)
	if err != nil {
		return err
	}

	docs, err := e.chunker.Chunk(source, cleaned)
	if err != nil {
		return err
	}

	if err := e.content.InsertDocuments(ctx, docs); err != nil {
		return core.WrapError(core.KindTransient, "Failed to save training data. Please retry.", err)
	}
	e.log.Info("document chunks persisted", "source_id", source.ID, "chunk_count", len(docs))

	// Re-read the inactive set so a redelivered message embeds exactly the
	// documents that still need vectors.
	pending, err := e.content.ListInactiveDocumentsBySource(ctx, source.ID)
	if err != nil {
		return core.WrapError(core.KindTransient, "Failed to load documents for embedding", err)
	}

	return e.embedder.EmbedDocuments(ctx, source.ID, pending)
}

// failJob force-fails the job record and passes the original error through.
func (e *Executor) failJob(ctx context.Context, jobID string, cause error) error {
	if err := e.content.FinishJob(ctx, jobID, models.JobStatusFailed, core.MessageOf(cause), time.Now().UTC()); err != nil {
		// The job row is unreachable: it stays in processing until external
		// reconciliation picks it up.
		e.log.Error("failed to force job failed", "job_id", jobID, "error", err)
	}
	return cause
}

func aggregateJobStatus(anySuccessful, anyFailed bool) string {
	switch {
	case anySuccessful && !anyFailed:
		return models.JobStatusCompleted
	case anySuccessful && anyFailed:
		return models.JobStatusPartial
	default:
		return models.JobStatusFailed
	}
}
