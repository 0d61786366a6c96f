package services

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/markdave123-py/Botforge/internal/core"
	"github.com/markdave123-py/Botforge/internal/models"
)

type fakeContent struct {
	jobs      map[string]*models.TrainingJob
	createErr error
	activeErr error
}

func newFakeContent() *fakeContent {
	return &fakeContent{jobs: map[string]*models.TrainingJob{}}
}

func (f *fakeContent) CreateTrainingJob(_ context.Context, job *models.TrainingJob) error {
	if f.createErr != nil {
		return f.createErr
	}
	cp := *job
	f.jobs[job.ID] = &cp
	return nil
}

func (f *fakeContent) GetTrainingJob(_ context.Context, id string) (*models.TrainingJob, error) {
	j, ok := f.jobs[id]
	if !ok {
		return nil, nil
	}
	cp := *j
	return &cp, nil
}

func (f *fakeContent) GetTrainingJobScoped(ctx context.Context, id, orgID, botID string) (*models.TrainingJob, error) {
	j, err := f.GetTrainingJob(ctx, id)
	if err != nil || j == nil {
		return nil, err
	}
	if j.OrganizationID != orgID || j.BotID != botID {
		return nil, nil
	}
	return j, nil
}

func (f *fakeContent) HasActiveJob(_ context.Context, botID string) (bool, error) {
	if f.activeErr != nil {
		return false, f.activeErr
	}
	for _, j := range f.jobs {
		if j.BotID == botID && j.Kind == models.JobKindTrain &&
			(j.Status == models.JobStatusQueued || j.Status == models.JobStatusProcessing) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeContent) MarkJobProcessing(_ context.Context, id string, startedAt time.Time) error {
	j, ok := f.jobs[id]
	if !ok {
		return errors.New("job not found")
	}
	j.Status = models.JobStatusProcessing
	j.StartedAt = &startedAt
	return nil
}

func (f *fakeContent) FinishJob(_ context.Context, id, status, errorMessage string, completedAt time.Time) error {
	j, ok := f.jobs[id]
	if !ok {
		return errors.New("job not found")
	}
	j.Status = status
	j.ErrorMessage = errorMessage
	j.CompletedAt = &completedAt
	return nil
}

func (f *fakeContent) InsertDocuments(context.Context, []models.Document) error { return nil }
func (f *fakeContent) ListInactiveDocumentsBySource(context.Context, string) ([]models.Document, error) {
	return nil, nil
}
func (f *fakeContent) EmbeddedDocumentIDs(context.Context, []string) (map[string]struct{}, error) {
	return nil, nil
}
func (f *fakeContent) InsertEmbeddingsActivate(context.Context, []models.Embedding) error { return nil }
func (f *fakeContent) PurgeSourceData(context.Context, string, string, time.Time) (int, int, error) {
	return 0, 0, nil
}
func (f *fakeContent) Close() error { return nil }

type fakeCatalog struct {
	bots    map[string]*models.Bot
	sources map[string]*models.TrainingSource
	files   map[string]*models.File

	queuedIDs []string
	queuedErr error
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		bots:    map[string]*models.Bot{},
		sources: map[string]*models.TrainingSource{},
		files:   map[string]*models.File{},
	}
}

func (f *fakeCatalog) GetBot(_ context.Context, botID, orgID string) (*models.Bot, error) {
	b, ok := f.bots[botID]
	if !ok || b.OrganizationID != orgID {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (f *fakeCatalog) ListSources(_ context.Context, ids []string, botID, orgID string) ([]models.TrainingSource, error) {
	var out []models.TrainingSource
	for _, id := range ids {
		if s, ok := f.sources[id]; ok && s.BotID == botID && s.OrganizationID == orgID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeCatalog) UpdateSourceStatus(_ context.Context, id, status, errorMessage string) error {
	if s, ok := f.sources[id]; ok {
		s.Status = status
		s.ErrorMessage = errorMessage
	}
	return nil
}

func (f *fakeCatalog) MarkSourcesQueued(_ context.Context, ids []string) error {
	if f.queuedErr != nil {
		return f.queuedErr
	}
	for _, id := range ids {
		if s, ok := f.sources[id]; ok {
			s.Status = models.SourceStatusQueued
		}
	}
	f.queuedIDs = append(f.queuedIDs, ids...)
	return nil
}

func (f *fakeCatalog) ClaimSourceForPurge(context.Context, string, string, string) (*models.TrainingSource, error) {
	return nil, nil
}

func (f *fakeCatalog) CreateFile(_ context.Context, file *models.File) error {
	cp := *file
	f.files[file.ID] = &cp
	return nil
}

func (f *fakeCatalog) GetFile(_ context.Context, id string) (*models.File, error) {
	fl, ok := f.files[id]
	if !ok {
		return nil, nil
	}
	cp := *fl
	return &cp, nil
}

func (f *fakeCatalog) DeleteFile(_ context.Context, id string) error {
	delete(f.files, id)
	return nil
}

func (f *fakeCatalog) Close() error { return nil }

type fakeQueue struct {
	trains   []core.TrainMessage
	purges   []core.PurgeMessage
	trainErr error
	purgeErr error
}

func (f *fakeQueue) PublishTrain(_ context.Context, msg core.TrainMessage) error {
	if f.trainErr != nil {
		return f.trainErr
	}
	f.trains = append(f.trains, msg)
	return nil
}

func (f *fakeQueue) PublishPurge(_ context.Context, msg core.PurgeMessage) error {
	if f.purgeErr != nil {
		return f.purgeErr
	}
	f.purges = append(f.purges, msg)
	return nil
}

type fakeStorage struct {
	uploads   []string
	uploadErr error
}

func (f *fakeStorage) UploadFile(_ context.Context, _, key string, _ io.Reader, _ string) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	f.uploads = append(f.uploads, key)
	return "https://storage.example/" + key, nil
}

func (f *fakeStorage) DeleteFile(context.Context, string, string) error             { return nil }
func (f *fakeStorage) DownloadToFile(context.Context, string, string, string) error { return nil }
func (f *fakeStorage) ObjectExists(context.Context, string, string) (bool, error)   { return true, nil }
func (f *fakeStorage) PresignURL(_ context.Context, bucket, key string, _ time.Duration) (string, error) {
	return "https://storage.example/presigned/" + bucket + "/" + key, nil
}

var (
	_ core.ContentStore = (*fakeContent)(nil)
	_ core.CatalogStore = (*fakeCatalog)(nil)
	_ core.Queue        = (*fakeQueue)(nil)
	_ core.ObjectClient = (*fakeStorage)(nil)
)
