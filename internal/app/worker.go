package app

import (
	"context"
	"encoding/json"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/markdave123-py/Botforge/internal/config"
	"github.com/markdave123-py/Botforge/internal/core"
	db "github.com/markdave123-py/Botforge/internal/core/database"
	"github.com/markdave123-py/Botforge/internal/core/extract"
	"github.com/markdave123-py/Botforge/internal/core/llm"
	objectclient "github.com/markdave123-py/Botforge/internal/core/object-client"
	"github.com/markdave123-py/Botforge/internal/core/queue"
	"github.com/markdave123-py/Botforge/internal/core/training"
	"github.com/markdave123-py/Botforge/internal/pkg/logger"
)

// blpopWait bounds each blocking pop so workers notice cancellation.
const blpopWait = 5 * time.Second

// Worker holds the background process dependencies: the same stores and
// storage as the API plus the embedding provider and the pipeline itself.
type Worker struct {
	content  core.ContentStore
	catalog  core.CatalogStore
	storage  core.ObjectClient
	queue    *queue.RedisQueue
	executor *training.Executor
	purger   *training.Purger
	log      *logger.Logger
	workers  int
}

func NewWorker(ctx context.Context, cfg *config.Config) (*Worker, error) {
	log, err := logger.New(cfg.Env)
	if err != nil {
		return nil, err
	}

	initCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	content, err := db.NewContentStore(initCtx, cfg.ContentDatabaseURL)
	if err != nil {
		return nil, err
	}
	catalog, err := db.NewCatalogStore(initCtx, cfg.CatalogDatabaseURL)
	if err != nil {
		_ = content.Close()
		return nil, err
	}
	storage, err := objectclient.NewS3Client(initCtx, cfg)
	if err != nil {
		_ = content.Close()
		_ = catalog.Close()
		return nil, err
	}
	q, err := queue.NewRedisQueue(initCtx, cfg.RedisURL)
	if err != nil {
		_ = content.Close()
		_ = catalog.Close()
		return nil, err
	}

	embedder, err := llm.NewGeminiEmbedder(initCtx, cfg.AIAPIKey, cfg.EmbedModel)
	if err != nil {
		_ = content.Close()
		_ = catalog.Close()
		_ = q.Close()
		return nil, err
	}

	chunker, err := training.NewChunker(
		core.ChunkConfig{ChunkSize: cfg.ChunkSize, ChunkOverlap: cfg.ChunkOverlap},
		cfg.EmbedModel, cfg.EmbedVersion, cfg.EmbedProvider,
	)
	if err != nil {
		_ = content.Close()
		_ = catalog.Close()
		_ = q.Close()
		return nil, err
	}

	extractor := extract.NewExtractor(catalog, storage, log)
	docEmbedder := training.NewEmbedder(content, embedder, log)
	executor := training.NewExecutor(content, catalog, extractor, chunker, docEmbedder, log)
	purger := training.NewPurger(content, catalog, storage, log)

	return &Worker{
		content:  content,
		catalog:  catalog,
		storage:  storage,
		queue:    q,
		executor: executor,
		purger:   purger,
		log:      log,
		workers:  cfg.Workers,
	}, nil
}

// Run blocks, consuming messages until ctx is cancelled. Each worker
// goroutine pops from both lists and dispatches on the list the message came
// from. A failed message is logged and dropped; redelivery is the queue's
// concern, not the worker's.
func (w *Worker) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < w.workers; i++ {
		id := i
		g.Go(func() error {
			log := w.log.With("worker", id)
			log.Info("worker started")
			for {
				select {
				case <-gctx.Done():
					return nil
				default:
				}

				key, payload, err := w.queue.Next(gctx, blpopWait)
				if err != nil {
					if gctx.Err() != nil {
						return nil
					}
					log.Error("queue pop failed", "error", err)
					time.Sleep(time.Second)
					continue
				}
				if payload == nil {
					continue
				}

				if err := w.handle(gctx, key, payload); err != nil {
					log.Error("message processing failed", "list", key, "error", err)
				}
			}
		})
	}
	return g.Wait()
}

func (w *Worker) handle(ctx context.Context, key string, payload []byte) error {
	switch key {
	case queue.TrainKey:
		var msg core.TrainMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			return err
		}
		return w.executor.ProcessTrainingJob(ctx, msg)
	case queue.PurgeKey:
		var msg core.PurgeMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			return err
		}
		return w.purger.ProcessPurge(ctx, msg)
	default:
		w.log.Warn("message on unknown list", "list", key)
		return nil
	}
}

func (w *Worker) Close() {
	if w.queue != nil {
		_ = w.queue.Close()
	}
	if w.catalog != nil {
		_ = w.catalog.Close()
	}
	if w.content != nil {
		_ = w.content.Close()
	}
	if w.log != nil {
		w.log.Sync()
	}
}
