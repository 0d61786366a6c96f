package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/markdave123-py/Botforge/internal/core"
	"github.com/markdave123-py/Botforge/internal/models"
	"github.com/markdave123-py/Botforge/internal/pkg/logger"
)

// Dispatcher validates training and deletion requests and turns them into
// queued jobs. All heavy lifting happens in the worker; the dispatcher only
// guards invariants and enqueues.
type Dispatcher struct {
	content core.ContentStore
	catalog core.CatalogStore
	queue   core.Queue
	log     *logger.Logger
}

func NewDispatcher(content core.ContentStore, catalog core.CatalogStore, queue core.Queue, log *logger.Logger) *Dispatcher {
	return &Dispatcher{content: content, catalog: catalog, queue: queue, log: log}
}

// QueueTraining creates a training job for the given sources and publishes it.
// At most one training job per bot may be queued or processing; a second
// request is rejected with a conflict.
func (d *Dispatcher) QueueTraining(ctx context.Context, organizationID, botID string, sourceIDs []string) (*models.TrainingJob, error) {
	if botID == "" {
		return nil, core.NewError(core.KindValidation, "bot_id is required")
	}
	if len(sourceIDs) == 0 {
		return nil, core.NewError(core.KindValidation, "at least one source_id is required")
	}

	bot, err := d.catalog.GetBot(ctx, botID, organizationID)
	if err != nil {
		return nil, err
	}
	if bot == nil {
		return nil, core.NewError(core.KindValidation, "Bot not found")
	}

	sources, err := d.catalog.ListSources(ctx, sourceIDs, botID, organizationID)
	if err != nil {
		return nil, err
	}
	if len(sources) != len(sourceIDs) {
		return nil, core.NewError(core.KindValidation, "one or more sources not found for this bot")
	}
	for _, src := range sources {
		if !models.SourceEligibleForTraining(src.Status) {
			return nil, core.NewError(core.KindValidation,
				fmt.Sprintf("source %s is not trainable in status %q", src.ID, src.Status))
		}
	}

	active, err := d.content.HasActiveJob(ctx, botID)
	if err != nil {
		return nil, err
	}
	if active {
		return nil, core.NewError(core.KindConflict,
			"A training job is already running for this bot. Please wait for it to finish.")
	}

	job := &models.TrainingJob{
		ID:             uuid.NewString(),
		OrganizationID: organizationID,
		BotID:          botID,
		Kind:           models.JobKindTrain,
		Status:         models.JobStatusQueued,
		CreatedAt:      time.Now().UTC(),
	}
	if err := d.content.CreateTrainingJob(ctx, job); err != nil {
		return nil, err
	}

	msg := core.TrainMessage{
		JobID:          job.ID,
		BotID:          botID,
		OrganizationID: organizationID,
		SourceIDs:      sourceIDs,
	}
	if err := d.queue.PublishTrain(ctx, msg); err != nil {
		// The job row exists but no worker will ever see it; fail it so the
		// bot is not locked out of training.
		if ferr := d.content.FinishJob(ctx, job.ID, models.JobStatusFailed,
			"Failed to enqueue training job. Please retry.", time.Now().UTC()); ferr != nil {
			d.log.Error("compensating job failure after enqueue error", "job_id", job.ID, "error", ferr)
		}
		return nil, core.WrapError(core.KindTransient, "Failed to enqueue training job. Please retry.", err)
	}

	if err := d.catalog.MarkSourcesQueued(ctx, sourceIDs); err != nil {
		// Non-fatal: the worker moves each source to "training" regardless.
		d.log.Warn("marking sources queued failed", "job_id", job.ID, "error", err)
	}

	d.log.Info("training job queued", "job_id", job.ID, "bot_id", botID, "sources", len(sourceIDs))
	return job, nil
}

// QueueDeletion creates a purge job for a source already marked "deleted" and
// publishes it. Purge jobs are not subject to the one-active-job guard.
func (d *Dispatcher) QueueDeletion(ctx context.Context, organizationID, botID, sourceID string) (*models.TrainingJob, error) {
	if botID == "" || sourceID == "" {
		return nil, core.NewError(core.KindValidation, "bot_id and source_id are required")
	}

	sources, err := d.catalog.ListSources(ctx, []string{sourceID}, botID, organizationID)
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		return nil, core.NewError(core.KindValidation, "Source not found for this bot")
	}
	if sources[0].Status != models.SourceStatusDeleted {
		return nil, core.NewError(core.KindValidation,
			fmt.Sprintf("source %s must be marked deleted before purging (status %q)", sourceID, sources[0].Status))
	}

	job := &models.TrainingJob{
		ID:             uuid.NewString(),
		OrganizationID: organizationID,
		BotID:          botID,
		Kind:           models.JobKindPurge,
		Status:         models.JobStatusQueued,
		CreatedAt:      time.Now().UTC(),
	}
	if err := d.content.CreateTrainingJob(ctx, job); err != nil {
		return nil, err
	}

	msg := core.PurgeMessage{
		JobID:          job.ID,
		SourceID:       sourceID,
		OrganizationID: organizationID,
		BotID:          botID,
	}
	if err := d.queue.PublishPurge(ctx, msg); err != nil {
		if ferr := d.content.FinishJob(ctx, job.ID, models.JobStatusFailed,
			"Failed to enqueue deletion job. Please retry.", time.Now().UTC()); ferr != nil {
			d.log.Error("compensating job failure after enqueue error", "job_id", job.ID, "error", ferr)
		}
		return nil, core.WrapError(core.KindTransient, "Failed to enqueue deletion job. Please retry.", err)
	}

	d.log.Info("purge job queued", "job_id", job.ID, "source_id", sourceID)
	return job, nil
}

// JobStatus returns the job scoped to the caller's organization and bot, or
// nil when no such job exists.
func (d *Dispatcher) JobStatus(ctx context.Context, jobID, organizationID, botID string) (*models.TrainingJob, error) {
	if jobID == "" {
		return nil, core.NewError(core.KindValidation, "job_id is required")
	}
	return d.content.GetTrainingJobScoped(ctx, jobID, organizationID, botID)
}
