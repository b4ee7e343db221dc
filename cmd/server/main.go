package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"ocrbridge/internal/assistant/openai"
	"ocrbridge/internal/config"
	"ocrbridge/internal/extractor/azure"
	"ocrbridge/internal/fetcher"
	"ocrbridge/internal/handler"
	"ocrbridge/internal/logger"
	"ocrbridge/internal/port"
	"ocrbridge/internal/router"
	"ocrbridge/internal/service"
	s3storage "ocrbridge/internal/storage/s3"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logg := logger.New(cfg.Log)
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize storage
	var storage port.ObjectStorage
	if cfg.S3.Enabled {
		storage, err = s3storage.NewS3Client(ctx, &cfg.S3)
		if err != nil {
			return fmt.Errorf("failed to initialize S3 client: %w", err)
		}
	}

	// Initialize vendor clients
	imageFetcher := fetcher.NewFetcher(&cfg.Fetch, storage, logg)
	extractor := azure.NewExtractor(&cfg.Extractor, logg)
	assistant := openai.NewClient(&cfg.Assistant, logg)

	// Initialize services
	processSvc := service.NewProcessService(imageFetcher, extractor, assistant, service.StatusPollerConfig{
		Interval: cfg.Assistant.PollInterval,
		MaxWait:  cfg.Assistant.MaxWait,
	}, logg)

	// Initialize handlers
	processH := handler.NewProcessHandler(processSvc, logg)
	healthH := handler.NewHealthHandler()

	// Setup router
	r := router.Setup(cfg, logg, processH, healthH)

	srv := &http.Server{
		Addr:              cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info().Str("addr", srv.Addr).Str("environment", cfg.Server.Environment).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logg.Info().Msg("shutting down, waiting for in-flight requests...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	logg.Info().Msg("shutdown complete")
	return nil
}
