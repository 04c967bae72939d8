// Command ingest parses question bank files and loads them into the
// questions table in batches.
// Usage: go run ./cmd/ingest -dir banks [-categories categories.yaml] [-dry-run]
//
//	go run ./cmd/ingest -bucket my-banks -prefix banks/ -report run.xlsx
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"quizbank/internal/category"
	"quizbank/internal/config"
	"quizbank/internal/domain"
	"quizbank/internal/email/noop"
	"quizbank/internal/email/ses"
	"quizbank/internal/logger"
	"quizbank/internal/port"
	"quizbank/internal/report"
	"quizbank/internal/repository/postgres"
	"quizbank/internal/service"
	s3storage "quizbank/internal/storage/s3"
)

type options struct {
	dir           string
	bucket        string
	prefix        string
	categories    string
	batchSize     int
	concurrency   int
	lenient       bool
	dryRun        bool
	reportPath    string
	normalizedOut string
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	opts, explicit := parseFlags(cfg, os.Args[1:])
	cfg.Ingest.BatchSize = opts.batchSize
	cfg.Ingest.Concurrency = opts.concurrency
	cfg.Ingest.Lenient = opts.lenient
	if opts.batchSize < 1 {
		return fmt.Errorf("-batch-size must be positive, got %d", opts.batchSize)
	}

	zlog := logger.New(cfg.Log)
	defer func() { _ = zlog.Sync() }()

	mapping, err := category.LoadMapping(opts.categories)
	if err != nil {
		// A missing default mapping file is fine: categories fall back to file stems.
		if !errors.Is(err, fs.ErrNotExist) || explicit["categories"] {
			return fmt.Errorf("loading category mapping: %w", err)
		}
		zlog.Warn("category mapping not found, using file names as categories", zap.String("path", opts.categories))
	}

	var (
		questionRepo port.QuestionRepository
		runRepo      port.IngestionRunRepository
	)
	if !opts.dryRun {
		db, err := postgres.NewDB(&cfg.DB)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer func() { _ = db.Close() }()
		questionRepo = postgres.NewQuestionRepo(db)
		runRepo = postgres.NewIngestionRunRepo(db)
	}

	var storage port.ObjectStorage
	if opts.bucket != "" || cfg.S3.Bucket != "" {
		storage, err = s3storage.NewS3Client(&cfg.S3)
		if err != nil {
			return fmt.Errorf("initializing S3 client: %w", err)
		}
	}

	var notifier port.SummaryNotifier = noop.NewNoopNotifier(zlog)
	if cfg.Email.Provider == "ses" && !opts.dryRun {
		notifier, err = ses.NewSESNotifier(cfg.Email.Region, cfg.Email.FromAddress, cfg.Email.FromName, cfg.Email.Recipients)
		if err != nil {
			return fmt.Errorf("initializing SES notifier: %w", err)
		}
	}

	svc := service.NewIngestionService(questionRepo, runRepo, storage, notifier, mapping, &cfg.Ingest, &cfg.S3, zlog)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return ingest(ctx, svc, opts, os.Stdout, zlog)
}

// ingest runs one ingestion, prints its summary and writes the requested
// outputs. A run that did not complete cleanly is reported as an error after
// the outputs are written so the process exits non-zero.
func ingest(ctx context.Context, svc service.IngestionService, opts options, w io.Writer, zlog *zap.Logger) error {
	result, err := svc.Ingest(ctx, service.IngestRequest{
		Dir:         opts.dir,
		Bucket:      opts.bucket,
		Prefix:      opts.prefix,
		Trigger:     domain.TriggerCLI,
		DryRun:      opts.dryRun,
		KeepRecords: opts.reportPath != "" || opts.normalizedOut != "",
	})
	if err != nil {
		return err
	}

	printSummary(w, result)

	if opts.reportPath != "" {
		if err := report.WriteFile(opts.reportPath, result.Records, result.Summary.Rejections); err != nil {
			return err
		}
		zlog.Info("report written", zap.String("path", opts.reportPath))
	}
	if opts.normalizedOut != "" {
		n, err := writeNormalized(opts.normalizedOut, result.Records)
		if err != nil {
			return err
		}
		zlog.Info("normalized banks written", zap.String("dir", opts.normalizedOut), zap.Int("files", n))
	}
	return runError(result)
}

// parseFlags reads command-line flags, defaulting to the loaded config. The
// returned set names the flags given explicitly.
func parseFlags(cfg *config.Config, args []string) (options, map[string]bool) {
	var opts options
	fsFlags := flag.NewFlagSet("ingest", flag.ExitOnError)
	fsFlags.StringVar(&opts.dir, "dir", cfg.Ingest.SourceDir, "directory of question bank files")
	fsFlags.StringVar(&opts.bucket, "bucket", "", "S3 bucket to read question bank files from (overrides -dir)")
	fsFlags.StringVar(&opts.prefix, "prefix", cfg.S3.Prefix, "S3 key prefix used with -bucket")
	fsFlags.StringVar(&opts.categories, "categories", cfg.Ingest.CategoriesFile, "YAML file mapping file names to categories")
	fsFlags.IntVar(&opts.batchSize, "batch-size", cfg.Ingest.BatchSize, "records per insert batch")
	fsFlags.IntVar(&opts.concurrency, "concurrency", cfg.Ingest.Concurrency, "files processed in parallel")
	fsFlags.BoolVar(&opts.lenient, "lenient", cfg.Ingest.Lenient, "accept lowercase letters, [] and x as the correct mark")
	fsFlags.BoolVar(&opts.dryRun, "dry-run", false, "parse and report without writing to the database")
	fsFlags.StringVar(&opts.reportPath, "report", "", "write an .xlsx or .csv report to this path")
	fsFlags.StringVar(&opts.normalizedOut, "normalized-out", "", "write accepted questions as canonical bank files into this directory")
	_ = fsFlags.Parse(args)

	explicit := map[string]bool{}
	fsFlags.Visit(func(f *flag.Flag) { explicit[f.Name] = true })
	if opts.concurrency < 1 {
		opts.concurrency = 1
	}
	return opts, explicit
}
