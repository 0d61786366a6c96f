package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/markdave123-py/Botforge/internal/app"
	"github.com/markdave123-py/Botforge/internal/config"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		<-c
		cancel()
	}()

	cfg := config.LoadConfig()
	worker, err := app.NewWorker(ctx, cfg)
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}
	defer worker.Close()

	if err := worker.Run(ctx); err != nil {
		log.Fatalf("worker error: %v", err)
	}
	log.Println("worker stopped")
}
