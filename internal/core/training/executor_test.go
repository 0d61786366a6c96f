package training

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/Botforge/internal/core"
	"github.com/markdave123-py/Botforge/internal/models"
	"github.com/markdave123-py/Botforge/internal/pkg/logger"
)

const (
	testOrg = "org-1"
	testBot = "bot-1"
)

func newTestExecutor(t *testing.T, content *fakeContent, catalog *fakeCatalog, ext core.SourceExtractor) *Executor {
	t.Helper()
	chunker, err := NewChunker(core.DefaultChunkConfig(), "text-embedding-004", "v1.0.0", "gemini")
	require.NoError(t, err)
	embedder := NewEmbedder(content, &fakeProvider{}, logger.NewNop())
	return NewExecutor(content, catalog, ext, chunker, embedder, logger.NewNop())
}

func seedJob(content *fakeContent) *models.TrainingJob {
	job := &models.TrainingJob{
		ID:             uuid.NewString(),
		OrganizationID: testOrg,
		BotID:          testBot,
		Kind:           models.JobKindTrain,
		Status:         models.JobStatusQueued,
		CreatedAt:      time.Now().UTC(),
	}
	_ = content.CreateTrainingJob(context.Background(), job)
	return job
}

func seedSource(catalog *fakeCatalog, id string) {
	catalog.sources[id] = &models.TrainingSource{
		ID:             id,
		OrganizationID: testOrg,
		BotID:          testBot,
		Type:           models.SourceTypeURL,
		SourceValue:    "https://example.com/" + id,
		Status:         models.SourceStatusQueued,
	}
}

func TestProcessTrainingJobAllSourcesSucceed(t *testing.T) {
	content := newFakeContent()
	catalog := newFakeCatalog()
	job := seedJob(content)
	seedSource(catalog, "src-a")
	seedSource(catalog, "src-b")

	ext := &fakeExtractor{fn: func(*models.TrainingSource) (string, error) {
		return strings.Repeat("Useful knowledge about the product. ", 50), nil
	}}
	exec := newTestExecutor(t, content, catalog, ext)

	msg := core.TrainMessage{JobID: job.ID, BotID: testBot, OrganizationID: testOrg, SourceIDs: []string{"src-a", "src-b"}}
	require.NoError(t, exec.ProcessTrainingJob(context.Background(), msg))

	got, _ := content.GetTrainingJob(context.Background(), job.ID)
	assert.Equal(t, models.JobStatusCompleted, got.Status)
	assert.NotNil(t, got.StartedAt)
	assert.NotNil(t, got.CompletedAt)

	for _, id := range []string{"src-a", "src-b"} {
		assert.Equal(t, models.SourceStatusTrained, catalog.sources[id].Status)
		assert.Contains(t, catalog.statusHistory[id], models.SourceStatusTraining)
		assert.NotEmpty(t, content.docs[id], "chunks should be persisted for %s", id)
		for _, d := range content.docs[id] {
			assert.True(t, d.IsActive, "documents must be activated once embedded")
		}
	}
	assert.NotEmpty(t, content.inserted)
}

func TestProcessTrainingJobMixedOutcomesIsPartial(t *testing.T) {
	content := newFakeContent()
	catalog := newFakeCatalog()
	job := seedJob(content)
	seedSource(catalog, "src-good")
	seedSource(catalog, "src-bad")

	ext := &fakeExtractor{fn: func(s *models.TrainingSource) (string, error) {
		if s.ID == "src-bad" {
			return "", core.NewError(core.KindContent, "Page content too short after fallback extraction/cleaning")
		}
		return strings.Repeat("Retrievable answer content. ", 60), nil
	}}
	exec := newTestExecutor(t, content, catalog, ext)

	msg := core.TrainMessage{JobID: job.ID, BotID: testBot, OrganizationID: testOrg, SourceIDs: []string{"src-good", "src-bad"}}
	require.NoError(t, exec.ProcessTrainingJob(context.Background(), msg))

	got, _ := content.GetTrainingJob(context.Background(), job.ID)
	assert.Equal(t, models.JobStatusPartial, got.Status)

	assert.Equal(t, models.SourceStatusTrained, catalog.sources["src-good"].Status)
	assert.Equal(t, models.SourceStatusTrainingFailed, catalog.sources["src-bad"].Status)
	assert.Equal(t, "Page content too short after fallback extraction/cleaning", catalog.sources["src-bad"].ErrorMessage)
}

func TestProcessTrainingJobAllSourcesFail(t *testing.T) {
	content := newFakeContent()
	catalog := newFakeCatalog()
	job := seedJob(content)
	seedSource(catalog, "src-a")
	seedSource(catalog, "src-b")

	ext := &fakeExtractor{fn: func(*models.TrainingSource) (string, error) {
		return "", errors.New("connection refused")
	}}
	exec := newTestExecutor(t, content, catalog, ext)

	msg := core.TrainMessage{JobID: job.ID, BotID: testBot, OrganizationID: testOrg, SourceIDs: []string{"src-a", "src-b"}}
	require.NoError(t, exec.ProcessTrainingJob(context.Background(), msg))

	got, _ := content.GetTrainingJob(context.Background(), job.ID)
	assert.Equal(t, models.JobStatusFailed, got.Status)
	for _, id := range []string{"src-a", "src-b"} {
		assert.Equal(t, models.SourceStatusTrainingFailed, catalog.sources[id].Status)
	}
}

func TestProcessTrainingJobUnknownJobIsFatal(t *testing.T) {
	content := newFakeContent()
	catalog := newFakeCatalog()
	exec := newTestExecutor(t, content, catalog, &fakeExtractor{fn: func(*models.TrainingSource) (string, error) {
		return "", nil
	}})

	msg := core.TrainMessage{JobID: uuid.NewString(), BotID: testBot, OrganizationID: testOrg, SourceIDs: []string{"x"}}
	err := exec.ProcessTrainingJob(context.Background(), msg)
	require.Error(t, err)
	assert.Equal(t, core.KindFatal, core.KindOf(err))
}

func TestProcessTrainingJobRedeliveredFinishedJobIsNoop(t *testing.T) {
	content := newFakeContent()
	catalog := newFakeCatalog()
	job := seedJob(content)
	content.jobs[job.ID].Status = models.JobStatusCompleted
	seedSource(catalog, "src-a")

	ext := &fakeExtractor{fn: func(*models.TrainingSource) (string, error) {
		return strings.Repeat("Should never be extracted. ", 40), nil
	}}
	exec := newTestExecutor(t, content, catalog, ext)

	msg := core.TrainMessage{JobID: job.ID, BotID: testBot, OrganizationID: testOrg, SourceIDs: []string{"src-a"}}
	require.NoError(t, exec.ProcessTrainingJob(context.Background(), msg))

	assert.Equal(t, models.JobStatusCompleted, content.jobs[job.ID].Status)
	assert.Equal(t, models.SourceStatusQueued, catalog.sources["src-a"].Status)
	assert.Empty(t, content.docs["src-a"])
}

func TestProcessTrainingJobSkipsSourcesOutsideScope(t *testing.T) {
	content := newFakeContent()
	catalog := newFakeCatalog()
	job := seedJob(content)
	seedSource(catalog, "src-mine")
	// A source owned by another bot must not be processed even if its id is
	// in the message.
	catalog.sources["src-other"] = &models.TrainingSource{
		ID:             "src-other",
		OrganizationID: testOrg,
		BotID:          "someone-elses-bot",
		Type:           models.SourceTypeURL,
		Status:         models.SourceStatusQueued,
	}

	ext := &fakeExtractor{fn: func(*models.TrainingSource) (string, error) {
		return strings.Repeat("In-scope content only. ", 40), nil
	}}
	exec := newTestExecutor(t, content, catalog, ext)

	msg := core.TrainMessage{JobID: job.ID, BotID: testBot, OrganizationID: testOrg, SourceIDs: []string{"src-mine", "src-other"}}
	require.NoError(t, exec.ProcessTrainingJob(context.Background(), msg))

	assert.Equal(t, models.SourceStatusQueued, catalog.sources["src-other"].Status)
	assert.Empty(t, content.docs["src-other"])
	assert.Equal(t, models.SourceStatusTrained, catalog.sources["src-mine"].Status)
}

func TestAggregateJobStatus(t *testing.T) {
	assert.Equal(t, models.JobStatusCompleted, aggregateJobStatus(true, false))
	assert.Equal(t, models.JobStatusPartial, aggregateJobStatus(true, true))
	assert.Equal(t, models.JobStatusFailed, aggregateJobStatus(false, true))
	assert.Equal(t, models.JobStatusFailed, aggregateJobStatus(false, false))
}
