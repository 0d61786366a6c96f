package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/markdave123-py/Botforge/internal/api/handlers"
	appMiddleware "github.com/markdave123-py/Botforge/internal/api/middlewares"
	"github.com/markdave123-py/Botforge/internal/config"
	"github.com/markdave123-py/Botforge/internal/pkg/logger"
	"github.com/markdave123-py/Botforge/internal/services"
)

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
	log        *logger.Logger
}

// NewServer builds and wires all routes.
func NewServer(cfg *config.Config, dispatcher *services.Dispatcher, files *services.FileService, log *logger.Logger) *Server {
	trainingHandler := handlers.NewTrainingHandler(dispatcher)
	fileHandler := handlers.NewFileHandler(files)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(api chi.Router) {
		api.Group(func(protected chi.Router) {
			protected.Use(appMiddleware.JWTMiddleware)

			protected.Post("/bots/{bot_id}/train", trainingHandler.QueueTraining)
			protected.Delete("/bots/{bot_id}/sources/{source_id}", trainingHandler.QueueDeletion)
			protected.Get("/bots/{bot_id}/jobs/{job_id}", trainingHandler.JobStatus)

			protected.Post("/bots/{bot_id}/files", fileHandler.UploadFile)
			protected.Get("/bots/{bot_id}/files/{file_id}/url", fileHandler.SignedURL)
		})
	})

	httpSrv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	return &Server{httpServer: httpSrv, log: log}
}

// Start runs the HTTP server until it is shut down.
func (s *Server) Start() error {
	s.log.Info("http server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down http server")
	return s.httpServer.Shutdown(ctx)
}
