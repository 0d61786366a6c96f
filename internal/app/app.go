package app

import (
	"context"
	"time"

	"github.com/markdave123-py/Botforge/internal/config"
	"github.com/markdave123-py/Botforge/internal/core"
	db "github.com/markdave123-py/Botforge/internal/core/database"
	objectclient "github.com/markdave123-py/Botforge/internal/core/object-client"
	"github.com/markdave123-py/Botforge/internal/core/queue"
	"github.com/markdave123-py/Botforge/internal/pkg/logger"
	"github.com/markdave123-py/Botforge/internal/services"
)

// App holds the API process dependencies: both stores, object storage, the
// job queue and the HTTP server built on top of them.
type App struct {
	Content core.ContentStore
	Catalog core.CatalogStore
	Storage core.ObjectClient
	Queue   *queue.RedisQueue
	Log     *logger.Logger
	Server  *Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
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
	log.Info("databases initialized and bootstrapped")

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

	dispatcher := services.NewDispatcher(content, catalog, q, log)
	files := services.NewFileService(catalog, storage, cfg.BucketName, cfg.StorageProvider())

	server := NewServer(cfg, dispatcher, files, log)

	return &App{
		Content: content,
		Catalog: catalog,
		Storage: storage,
		Queue:   q,
		Log:     log,
		Server:  server,
	}, nil
}

func (a *App) Close() {
	if a.Queue != nil {
		_ = a.Queue.Close()
	}
	if a.Catalog != nil {
		_ = a.Catalog.Close()
	}
	if a.Content != nil {
		_ = a.Content.Close()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
