package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"quizbank/internal/category"
	"quizbank/internal/config"
	"quizbank/internal/domain"
	"quizbank/internal/loader"
	"quizbank/internal/port"
	"quizbank/internal/questionbank"
)

// IngestRequest selects the question bank files of one run. Bucket takes
// precedence over Dir; with neither set the configured source dir is used.
type IngestRequest struct {
	Dir     string
	Bucket  string
	Prefix  string
	Trigger domain.RunTrigger
	// DryRun parses and reports without writing questions.
	DryRun bool
	// KeepRecords returns the accepted records in the result.
	KeepRecords bool
}

// UploadIngestInput is the DTO for ingesting a single uploaded bank file.
type UploadIngestInput struct {
	FileName string
	Category string
	Body     io.Reader
	DryRun   bool
}

// IngestResult is the outcome of one ingestion run.
type IngestResult struct {
	Run     *domain.IngestionRun
	Summary *domain.RunSummary
	Records []domain.QuestionRecord
}

// IngestionService defines the question bank ingestion contract.
type IngestionService interface {
	Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error)
	IngestUpload(ctx context.Context, input UploadIngestInput) (*IngestResult, error)
	GetRun(ctx context.Context, id uuid.UUID) (*domain.IngestionRun, error)
	ListRuns(ctx context.Context, offset, limit int) ([]domain.IngestionRun, int, error)
}

type ingestionService struct {
	questionRepo port.QuestionRepository
	runRepo      port.IngestionRunRepository
	storage      port.ObjectStorage
	notifier     port.SummaryNotifier
	mapping      *category.Mapping
	cfg          *config.IngestConfig
	s3Cfg        *config.S3Config
	log          *zap.Logger
}

// NewIngestionService creates a new IngestionService implementation.
// storage may be nil when no S3 bucket is configured; runRepo may be nil for
// dry runs that should not touch the database.
func NewIngestionService(
	questionRepo port.QuestionRepository,
	runRepo port.IngestionRunRepository,
	storage port.ObjectStorage,
	notifier port.SummaryNotifier,
	mapping *category.Mapping,
	cfg *config.IngestConfig,
	s3Cfg *config.S3Config,
	log *zap.Logger,
) IngestionService {
	return &ingestionService{
		questionRepo: questionRepo,
		runRepo:      runRepo,
		storage:      storage,
		notifier:     notifier,
		mapping:      mapping,
		cfg:          cfg,
		s3Cfg:        s3Cfg,
		log:          log.Named("ingestion"),
	}
}

// bankSource is one input file. category overrides the mapping when set.
type bankSource struct {
	name     string
	category string
	open     func(ctx context.Context) (io.ReadCloser, error)
}

type runOptions struct {
	trigger     domain.RunTrigger
	dryRun      bool
	keepRecords bool
}

func (s *ingestionService) Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error) {
	sources, err := s.listSources(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		return nil, domain.ErrNoInputFiles
	}

	trigger := req.Trigger
	if trigger == "" {
		trigger = domain.TriggerCLI
	}
	return s.execute(ctx, sources, runOptions{
		trigger:     trigger,
		dryRun:      req.DryRun,
		keepRecords: req.KeepRecords,
	}), nil
}

func (s *ingestionService) IngestUpload(ctx context.Context, input UploadIngestInput) (*IngestResult, error) {
	name := path.Base(strings.ReplaceAll(input.FileName, "\\", "/"))
	if !domain.AllowedExtensions[strings.ToLower(path.Ext(name))] {
		return nil, domain.ErrUnsupportedFileType
	}

	data, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}

	if s.cfg.ArchiveUploads && s.storage != nil && s.s3Cfg.Bucket != "" {
		key := path.Join(s.s3Cfg.Prefix, "uploads", time.Now().UTC().Format("2006/01/02"), uuid.NewString()+"_"+name)
		s.log.Info("archiving uploaded bank", zap.String("file", name), zap.String("key", key))
		_, err := s.storage.Upload(ctx, port.UploadInput{
			Bucket:      s.s3Cfg.Bucket,
			Key:         key,
			Body:        bytes.NewReader(data),
			ContentType: "text/plain; charset=utf-8",
		})
		if err != nil {
			s.log.Error("archive upload failed", zap.String("file", name), zap.Error(err))
			return nil, domain.ErrUploadFailed
		}
	}

	src := bankSource{
		name:     name,
		category: strings.TrimSpace(input.Category),
		open: func(context.Context) (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
	return s.execute(ctx, []bankSource{src}, runOptions{
		trigger: domain.TriggerUpload,
		dryRun:  input.DryRun,
	}), nil
}

func (s *ingestionService) GetRun(ctx context.Context, id uuid.UUID) (*domain.IngestionRun, error) {
	return s.runRepo.GetByID(ctx, id)
}

func (s *ingestionService) ListRuns(ctx context.Context, offset, limit int) ([]domain.IngestionRun, int, error) {
	return s.runRepo.List(ctx, offset, limit)
}

func (s *ingestionService) listSources(ctx context.Context, req IngestRequest) ([]bankSource, error) {
	if req.Bucket != "" {
		return s.listBucket(ctx, req.Bucket, req.Prefix)
	}
	dir := req.Dir
	if dir == "" {
		dir = s.cfg.SourceDir
	}
	if dir == "" {
		return nil, domain.ErrSourceNotConfigured
	}
	return listDir(dir)
}

func (s *ingestionService) listBucket(ctx context.Context, bucket, prefix string) ([]bankSource, error) {
	if s.storage == nil {
		return nil, domain.ErrSourceNotConfigured
	}
	objects, err := s.storage.List(ctx, bucket, prefix)
	if err != nil {
		return nil, fmt.Errorf("listing s3://%s/%s: %w", bucket, prefix, err)
	}

	var sources []bankSource
	for _, obj := range objects {
		if !domain.AllowedExtensions[strings.ToLower(path.Ext(obj.Key))] {
			continue
		}
		key := obj.Key
		sources = append(sources, bankSource{
			name: key,
			open: func(ctx context.Context) (io.ReadCloser, error) {
				data, err := s.storage.Download(ctx, bucket, key)
				if err != nil {
					return nil, err
				}
				return io.NopCloser(bytes.NewReader(data)), nil
			},
		})
	}
	return sources, nil
}

func listDir(dir string) ([]bankSource, error) {
	var sources []bankSource
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !domain.AllowedExtensions[strings.ToLower(filepath.Ext(p))] {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil || rel == "." {
			rel = filepath.Base(p)
		}
		full := p
		sources = append(sources, bankSource{
			name: filepath.ToSlash(rel),
			open: func(context.Context) (io.ReadCloser, error) {
				return os.Open(full)
			},
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	return sources, nil
}

// fileOutcome is what one worker produced for one source file.
type fileOutcome struct {
	category string
	result   *questionbank.Result
	load     loader.Summary
	err      error
}

func (s *ingestionService) execute(ctx context.Context, sources []bankSource, opts runOptions) *IngestResult {
	started := time.Now().UTC()
	summary := &domain.RunSummary{
		Files:       len(sources),
		PerCategory: map[string]int{},
	}
	var records []domain.QuestionRecord

	concurrency := s.cfg.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	s.log.Info("ingestion started",
		zap.String("trigger", string(opts.trigger)),
		zap.Int("files", len(sources)),
		zap.Int("concurrency", concurrency),
		zap.Bool("dry_run", opts.dryRun),
	)

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, concurrency)
	)
	for i := range sources {
		src := sources[i]
		sem <- struct{}{} // acquire
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }() // release

			out := s.processFile(ctx, src, opts.dryRun)

			mu.Lock()
			defer mu.Unlock()
			merge(summary, src.name, out)
			if opts.keepRecords && out.result != nil {
				records = append(records, out.result.Records...)
			}
		}()
	}
	wg.Wait()

	sortSummary(summary)
	sort.SliceStable(records, func(i, j int) bool { return records[i].SourceFile < records[j].SourceFile })

	finished := time.Now().UTC()
	run := &domain.IngestionRun{
		ID:         uuid.New(),
		Trigger:    opts.trigger,
		Status:     runStatus(summary, opts.dryRun),
		DryRun:     opts.dryRun,
		Accepted:   summary.Accepted,
		Inserted:   summary.Inserted,
		Failed:     summary.Failed,
		Dropped:    summary.Dropped,
		StartedAt:  started,
		FinishedAt: &finished,
	}

	s.log.Info("ingestion finished",
		zap.String("run_id", run.ID.String()),
		zap.String("status", string(run.Status)),
		zap.Int("parsed", summary.Parsed),
		zap.Int("accepted", summary.Accepted),
		zap.Int("dropped", summary.Dropped),
		zap.Int("inserted", summary.Inserted),
		zap.Int("failed", summary.Failed),
		zap.Int("files_skipped", summary.FilesSkipped),
		zap.Duration("elapsed", finished.Sub(started)),
	)

	s.persistRun(ctx, run, summary)
	if s.notifier != nil {
		if err := s.notifier.NotifyRunSummary(ctx, run, summary); err != nil {
			s.log.Warn("run summary notification failed", zap.String("run_id", run.ID.String()), zap.Error(err))
		}
	}

	return &IngestResult{Run: run, Summary: summary, Records: records}
}

func (s *ingestionService) processFile(ctx context.Context, src bankSource, dryRun bool) fileOutcome {
	cat := src.category
	if cat == "" {
		cat = s.mapping.Resolve(src.name)
	}
	out := fileOutcome{category: cat}

	rc, err := src.open(ctx)
	if err != nil {
		s.log.Warn("skipping unreadable file", zap.String("file", src.name), zap.Error(err))
		out.err = err
		return out
	}
	defer rc.Close()

	res, err := questionbank.Parse(rc, cat, src.name, questionbank.Options{
		OmittedMarker: s.cfg.OmittedMarker,
		Lenient:       s.cfg.Lenient,
	})
	if err != nil {
		s.log.Warn("skipping unreadable file", zap.String("file", src.name), zap.Error(err))
		out.err = err
		return out
	}
	out.result = res

	s.log.Debug("parsed bank file",
		zap.String("file", src.name),
		zap.String("category", cat),
		zap.Int("lines", res.Stats.Lines),
		zap.Int("accepted", res.Stats.Accepted),
		zap.Int("dropped", res.Stats.Dropped),
		zap.Int("multiple_correct", res.Stats.MultipleCorrect),
	)

	if dryRun || len(res.Records) == 0 {
		return out
	}

	out.load = loader.Load(ctx, res.Records, loader.Options{
		BatchSize:  s.cfg.BatchSize,
		Pause:      s.cfg.Pause,
		SourceFile: src.name,
	}, s.questionRepo.CreateBatch)

	for _, e := range out.load.Errors {
		s.log.Error("batch insert failed",
			zap.String("file", src.name),
			zap.Int("batch", e.Index),
			zap.Int("offset", e.Offset),
			zap.Int("size", e.Size),
			zap.String("error", e.Message),
		)
	}
	return out
}

func merge(summary *domain.RunSummary, name string, out fileOutcome) {
	if out.err != nil {
		summary.FilesSkipped++
		summary.FileErrors = append(summary.FileErrors, domain.FileError{SourceFile: name, Message: out.err.Error()})
		return
	}
	st := out.result.Stats
	summary.Parsed += st.Parsed
	summary.Accepted += st.Accepted
	summary.Dropped += st.Dropped
	summary.PerCategory[out.category] += st.Accepted
	summary.Rejections = append(summary.Rejections, out.result.Rejections...)

	summary.Submitted += out.load.Submitted
	summary.Inserted += out.load.Inserted
	summary.Failed += out.load.Failed
	summary.BatchErrors = append(summary.BatchErrors, out.load.Errors...)
}

// sortSummary orders per-file lists by source file. Entries of one file keep
// their relative order.
func sortSummary(summary *domain.RunSummary) {
	sort.SliceStable(summary.Rejections, func(i, j int) bool {
		return summary.Rejections[i].SourceFile < summary.Rejections[j].SourceFile
	})
	sort.SliceStable(summary.BatchErrors, func(i, j int) bool {
		return summary.BatchErrors[i].SourceFile < summary.BatchErrors[j].SourceFile
	})
	sort.SliceStable(summary.FileErrors, func(i, j int) bool {
		return summary.FileErrors[i].SourceFile < summary.FileErrors[j].SourceFile
	})
}

func runStatus(summary *domain.RunSummary, dryRun bool) domain.RunStatus {
	switch {
	case summary.FilesSkipped == summary.Files:
		return domain.RunStatusFailed
	case !dryRun && summary.Submitted > 0 && summary.Inserted == 0:
		return domain.RunStatusFailed
	case summary.Failed > 0 || summary.FilesSkipped > 0:
		return domain.RunStatusPartial
	default:
		return domain.RunStatusCompleted
	}
}

func (s *ingestionService) persistRun(ctx context.Context, run *domain.IngestionRun, summary *domain.RunSummary) {
	if s.runRepo == nil {
		return
	}
	data, err := json.Marshal(summary)
	if err != nil {
		s.log.Error("encoding run summary", zap.Error(err))
		return
	}
	run.Summary = data
	// The run is recorded even when the caller's context was cancelled.
	if ctx.Err() != nil {
		ctx = context.WithoutCancel(ctx)
	}
	if err := s.runRepo.Create(ctx, run); err != nil {
		s.log.Error("persisting ingestion run", zap.String("run_id", run.ID.String()), zap.Error(err))
	}
}
