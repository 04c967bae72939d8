package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"quizbank/internal/category"
	"quizbank/internal/config"
	"quizbank/internal/email/noop"
	"quizbank/internal/email/ses"
	"quizbank/internal/handler"
	"quizbank/internal/logger"
	"quizbank/internal/port"
	"quizbank/internal/repository/postgres"
	"quizbank/internal/router"
	"quizbank/internal/service"
	s3storage "quizbank/internal/storage/s3"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	zlog := logger.New(cfg.Log)
	defer func() { _ = zlog.Sync() }()

	mapping, err := category.LoadMapping(cfg.Ingest.CategoriesFile)
	if err != nil {
		return fmt.Errorf("failed to load category mapping: %w", err)
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Initialize repositories
	questionRepo := postgres.NewQuestionRepo(db)
	runRepo := postgres.NewIngestionRunRepo(db)

	// Initialize storage (optional: only needed for bucket sources and upload archives)
	var storage port.ObjectStorage
	if cfg.S3.Bucket != "" {
		storage, err = s3storage.NewS3Client(&cfg.S3)
		if err != nil {
			return fmt.Errorf("failed to initialize S3 client: %w", err)
		}
	}

	notifier, err := newNotifier(cfg, zlog)
	if err != nil {
		return err
	}

	// Initialize services
	ingestionSvc := service.NewIngestionService(questionRepo, runRepo, storage, notifier, mapping, &cfg.Ingest, &cfg.S3, zlog)
	statsSvc := service.NewStatsService(questionRepo)

	// Initialize handlers
	ingestionH := handler.NewIngestionHandler(ingestionSvc, cfg.Server.MaxUploadSize, zlog)
	statsH := handler.NewStatsHandler(statsSvc, zlog)
	healthH := handler.NewHealthHandler(db)

	// Setup router
	r := router.Setup(zlog, cfg.Server.AllowedOrigins, ingestionH, statsH, healthH)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		zlog.Info("server starting", zap.String("addr", cfg.Server.Port), zap.String("environment", cfg.Server.Environment))
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

	zlog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

func newNotifier(cfg *config.Config, zlog *zap.Logger) (port.SummaryNotifier, error) {
	if cfg.Email.Provider != "ses" {
		return noop.NewNoopNotifier(zlog), nil
	}
	n, err := ses.NewSESNotifier(cfg.Email.Region, cfg.Email.FromAddress, cfg.Email.FromName, cfg.Email.Recipients)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SES notifier: %w", err)
	}
	return n, nil
}
