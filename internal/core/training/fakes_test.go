package training

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/markdave123-py/Botforge/internal/core"
	"github.com/markdave123-py/Botforge/internal/models"
)

// fakeContent is an in-memory ContentStore.
type fakeContent struct {
	mu sync.Mutex

	jobs     map[string]*models.TrainingJob
	docs     map[string][]models.Document // keyed by source id
	embedded map[string]struct{}          // document ids with a live embedding

	inserted      []models.Embedding
	purgedSources []string
	purgedDocs    int
	purgedEmbs    int

	insertDocsErr error
	embeddedErr   error
	insertEmbErr  error
	purgeErr      error
	finishErr     error
	markErr       error
}

func newFakeContent() *fakeContent {
	return &fakeContent{
		jobs:     map[string]*models.TrainingJob{},
		docs:     map[string][]models.Document{},
		embedded: map[string]struct{}{},
	}
}

func (f *fakeContent) CreateTrainingJob(_ context.Context, job *models.TrainingJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *job
	f.jobs[job.ID] = &cp
	return nil
}

func (f *fakeContent) GetTrainingJob(_ context.Context, id string) (*models.TrainingJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
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
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, j := range f.jobs {
		if j.BotID == botID && j.Kind == models.JobKindTrain &&
			(j.Status == models.JobStatusQueued || j.Status == models.JobStatusProcessing) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeContent) MarkJobProcessing(_ context.Context, id string, startedAt time.Time) error {
	if f.markErr != nil {
		return f.markErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.jobs[id]
	if !ok {
		return errors.New("job not found")
	}
	j.Status = models.JobStatusProcessing
	j.StartedAt = &startedAt
	return nil
}

func (f *fakeContent) FinishJob(_ context.Context, id, status, errorMessage string, completedAt time.Time) error {
	if f.finishErr != nil {
		return f.finishErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.jobs[id]
	if !ok {
		return errors.New("job not found")
	}
	j.Status = status
	j.ErrorMessage = errorMessage
	j.CompletedAt = &completedAt
	return nil
}

func (f *fakeContent) InsertDocuments(_ context.Context, docs []models.Document) error {
	if f.insertDocsErr != nil {
		return f.insertDocsErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range docs {
		f.docs[d.SourceID] = append(f.docs[d.SourceID], d)
	}
	return nil
}

func (f *fakeContent) ListInactiveDocumentsBySource(_ context.Context, sourceID string) ([]models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Document
	for _, d := range f.docs[sourceID] {
		if !d.IsActive {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeContent) EmbeddedDocumentIDs(_ context.Context, ids []string) (map[string]struct{}, error) {
	if f.embeddedErr != nil {
		return nil, f.embeddedErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]struct{}{}
	for _, id := range ids {
		if _, ok := f.embedded[id]; ok {
			out[id] = struct{}{}
		}
	}
	return out, nil
}

func (f *fakeContent) InsertEmbeddingsActivate(_ context.Context, embeddings []models.Embedding) error {
	if f.insertEmbErr != nil {
		return f.insertEmbErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserted = append(f.inserted, embeddings...)
	for _, e := range embeddings {
		f.embedded[e.DocumentID] = struct{}{}
		for src, docs := range f.docs {
			for i := range docs {
				if docs[i].ID == e.DocumentID {
					f.docs[src][i].IsActive = true
				}
			}
		}
	}
	return nil
}

func (f *fakeContent) PurgeSourceData(_ context.Context, sourceID, jobID string, completedAt time.Time) (int, int, error) {
	if f.purgeErr != nil {
		return 0, 0, f.purgeErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	docs := f.docs[sourceID]
	embs := 0
	for _, d := range docs {
		if _, ok := f.embedded[d.ID]; ok {
			embs++
			delete(f.embedded, d.ID)
		}
	}
	delete(f.docs, sourceID)
	f.purgedSources = append(f.purgedSources, sourceID)
	f.purgedDocs += len(docs)
	f.purgedEmbs += embs
	if j, ok := f.jobs[jobID]; ok {
		j.Status = models.JobStatusCleanupCompleted
		j.CompletedAt = &completedAt
	}
	return len(docs), embs, nil
}

func (f *fakeContent) Close() error { return nil }

// fakeCatalog is an in-memory CatalogStore recording status transitions.
type fakeCatalog struct {
	mu sync.Mutex

	bots    map[string]*models.Bot
	sources map[string]*models.TrainingSource
	files   map[string]*models.File

	statusHistory map[string][]string // per source id
	queuedIDs     []string
	deletedFiles  []string

	updateErr error
	claimErr  error
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		bots:          map[string]*models.Bot{},
		sources:       map[string]*models.TrainingSource{},
		files:         map[string]*models.File{},
		statusHistory: map[string][]string{},
	}
}

func (f *fakeCatalog) GetBot(_ context.Context, botID, orgID string) (*models.Bot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bots[botID]
	if !ok || b.OrganizationID != orgID {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (f *fakeCatalog) ListSources(_ context.Context, ids []string, botID, orgID string) ([]models.TrainingSource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.TrainingSource
	for _, id := range ids {
		s, ok := f.sources[id]
		if ok && s.BotID == botID && s.OrganizationID == orgID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeCatalog) UpdateSourceStatus(_ context.Context, id, status, errorMessage string) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sources[id]
	if !ok {
		return errors.New("source not found")
	}
	s.Status = status
	s.ErrorMessage = errorMessage
	f.statusHistory[id] = append(f.statusHistory[id], status)
	return nil
}

func (f *fakeCatalog) MarkSourcesQueued(_ context.Context, ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		if s, ok := f.sources[id]; ok {
			s.Status = models.SourceStatusQueued
		}
	}
	f.queuedIDs = append(f.queuedIDs, ids...)
	return nil
}

func (f *fakeCatalog) ClaimSourceForPurge(_ context.Context, id, orgID, botID string) (*models.TrainingSource, error) {
	if f.claimErr != nil {
		return nil, f.claimErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sources[id]
	if !ok || s.OrganizationID != orgID || s.BotID != botID || s.Status != models.SourceStatusDeleted {
		return nil, nil
	}
	s.Status = models.SourceStatusPurging
	f.statusHistory[id] = append(f.statusHistory[id], models.SourceStatusPurging)
	cp := *s
	return &cp, nil
}

func (f *fakeCatalog) CreateFile(_ context.Context, file *models.File) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *file
	f.files[file.ID] = &cp
	return nil
}

func (f *fakeCatalog) GetFile(_ context.Context, id string) (*models.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fl, ok := f.files[id]
	if !ok {
		return nil, nil
	}
	cp := *fl
	return &cp, nil
}

func (f *fakeCatalog) DeleteFile(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.files, id)
	f.deletedFiles = append(f.deletedFiles, id)
	return nil
}

func (f *fakeCatalog) Close() error { return nil }

// fakeStorage records deletions and can be made to fail them.
type fakeStorage struct {
	mu        sync.Mutex
	deleted   []string
	deleteErr error
}

func (f *fakeStorage) UploadFile(_ context.Context, _, key string, _ io.Reader, _ string) (string, error) {
	return "https://storage.example/" + key, nil
}

func (f *fakeStorage) DeleteFile(_ context.Context, _, key string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeStorage) DownloadToFile(context.Context, string, string, string) error { return nil }
func (f *fakeStorage) ObjectExists(context.Context, string, string) (bool, error)   { return true, nil }
func (f *fakeStorage) PresignURL(context.Context, string, string, time.Duration) (string, error) {
	return "https://storage.example/presigned", nil
}

// fakeProvider returns a fixed-dimension vector per text.
type fakeProvider struct {
	err      error
	mismatch bool
	calls    int
	batches  [][]string
}

func (f *fakeProvider) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	f.batches = append(f.batches, texts)
	if f.err != nil {
		return nil, f.err
	}
	n := len(texts)
	if f.mismatch {
		n--
	}
	out := make([][]float32, n)
	for i := range out {
		out[i] = []float32{0.1, 0.2, 0.3}
	}
	return out, nil
}

// fakeExtractor dispatches on a per-source function.
type fakeExtractor struct {
	fn func(source *models.TrainingSource) (string, error)
}

func (f *fakeExtractor) Extract(_ context.Context, source *models.TrainingSource) (string, error) {
	return f.fn(source)
}

var (
	_ core.ContentStore      = (*fakeContent)(nil)
	_ core.CatalogStore      = (*fakeCatalog)(nil)
	_ core.ObjectClient      = (*fakeStorage)(nil)
	_ core.EmbeddingProvider = (*fakeProvider)(nil)
	_ core.SourceExtractor   = (*fakeExtractor)(nil)
)
