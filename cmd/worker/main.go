package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/emreakar/regsearch/internal/bootstrap"
	"github.com/emreakar/regsearch/internal/config"
)

// runTimeout bounds one full container pass. A run walks every blob
// sequentially, so the ceiling is generous.
const runTimeout = 4 * time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.NewWorker(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: app.Metrics.Handler(),
	}
	go func() {
		app.Log.Info("worker metrics listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("worker metrics server error: %v", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	app.Log.Info("worker subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeRunRequested(ctx, func(handlerCtx context.Context, offset int) error {
		runCtx, cancel := context.WithTimeout(handlerCtx, runTimeout)
		defer cancel()
		return app.Runner.Run(runCtx, offset)
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}
}
