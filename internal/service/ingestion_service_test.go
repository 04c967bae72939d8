package service_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"quizbank/internal/category"
	"quizbank/internal/config"
	"quizbank/internal/domain"
	"quizbank/internal/port"
	"quizbank/internal/service"
	"quizbank/mocks"
)

const linuxBank = `1) Which command lists files?
A [*] ls
B [ ] cd
2) Which command prints the working directory?
A [ ] whoami
B [ ] cd
3) Which command changes
directory?
A [ ] ls
B [*] cd
`

const networkBank = `/* networking basics */
1) Which layer routes packets?
A [ ] Transport
B [*] Network
C [ ] Session
`

type ingestFixture struct {
	questionRepo *mocks.MockQuestionRepo
	runRepo      *mocks.MockIngestionRunRepo
	storage      *mocks.MockObjectStorage
	notifier     *mocks.MockSummaryNotifier
	ingestCfg    config.IngestConfig
	s3Cfg        config.S3Config
}

func newIngestFixture() *ingestFixture {
	return &ingestFixture{
		questionRepo: new(mocks.MockQuestionRepo),
		runRepo:      new(mocks.MockIngestionRunRepo),
		storage:      new(mocks.MockObjectStorage),
		notifier:     new(mocks.MockSummaryNotifier),
		ingestCfg: config.IngestConfig{
			BatchSize:   50,
			Concurrency: 1,
		},
		s3Cfg: config.S3Config{Bucket: "banks-bucket", Prefix: "banks/"},
	}
}

func (f *ingestFixture) service(t *testing.T) service.IngestionService {
	t.Helper()
	mapping, err := category.ParseMapping([]byte(`
default: general
files:
  - pattern: "linux*.txt"
    category: linux
`))
	require.NoError(t, err)
	return service.NewIngestionService(f.questionRepo, f.runRepo, f.storage, f.notifier, mapping, &f.ingestCfg, &f.s3Cfg, zap.NewNop())
}

func (f *ingestFixture) expectRunRecorded() {
	f.runRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.IngestionRun")).Return(nil)
	f.notifier.On("NotifyRunSummary", mock.Anything, mock.AnythingOfType("*domain.IngestionRun"), mock.AnythingOfType("*domain.RunSummary")).Return(nil)
}

func batchOf(n int) interface{} {
	return mock.MatchedBy(func(b []domain.QuestionRecord) bool { return len(b) == n })
}

func writeBanks(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	}
	return dir
}

func TestIngestionService_Ingest_Directory(t *testing.T) {
	f := newIngestFixture()
	svc := f.service(t)
	dir := writeBanks(t, map[string]string{
		"linux.txt":       linuxBank,
		"net/network.txt": networkBank,
		"cover.png":       "not a bank",
	})

	f.questionRepo.On("CreateBatch", mock.Anything, batchOf(2)).Return(2, nil).Once()
	f.questionRepo.On("CreateBatch", mock.Anything, batchOf(1)).Return(1, nil).Once()
	f.expectRunRecorded()

	result, err := svc.Ingest(context.Background(), service.IngestRequest{Dir: dir})
	require.NoError(t, err)

	s := result.Summary
	assert.Equal(t, 2, s.Files)
	assert.Equal(t, 0, s.FilesSkipped)
	assert.Equal(t, 4, s.Parsed)
	assert.Equal(t, 3, s.Accepted)
	assert.Equal(t, 1, s.Dropped)
	assert.Equal(t, 3, s.Inserted)
	assert.Equal(t, 0, s.Failed)
	assert.Equal(t, map[string]int{"linux": 2, "general": 1}, s.PerCategory)

	require.Len(t, s.Rejections, 1)
	assert.Equal(t, "linux.txt", s.Rejections[0].SourceFile)
	assert.Equal(t, domain.RejectNoCorrectAnswer, s.Rejections[0].Reason)

	assert.Equal(t, domain.RunStatusCompleted, result.Run.Status)
	assert.Equal(t, domain.TriggerCLI, result.Run.Trigger)
	assert.NotEmpty(t, result.Run.Summary)
	assert.Nil(t, result.Records)

	f.questionRepo.AssertExpectations(t)
	f.runRepo.AssertExpectations(t)
	f.notifier.AssertExpectations(t)
}

func TestIngestionService_Ingest_RecordsCarryCategoryAndSource(t *testing.T) {
	f := newIngestFixture()
	svc := f.service(t)
	dir := writeBanks(t, map[string]string{"linux.txt": linuxBank})

	var stored []domain.QuestionRecord
	f.questionRepo.On("CreateBatch", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			stored = append(stored, args.Get(1).([]domain.QuestionRecord)...)
		}).
		Return(2, nil)
	f.expectRunRecorded()

	_, err := svc.Ingest(context.Background(), service.IngestRequest{Dir: dir})
	require.NoError(t, err)

	require.Len(t, stored, 2)
	assert.Equal(t, "Which command lists files?", stored[0].QuestionText)
	assert.Equal(t, "Which command changes directory?", stored[1].QuestionText)
	assert.Equal(t, "cd", stored[1].CorrectAnswer)
	for _, r := range stored {
		assert.Equal(t, "linux", r.Category)
		assert.Equal(t, "linux.txt", r.SourceFile)
	}
}

func TestIngestionService_Ingest_BatchFailureIsPartial(t *testing.T) {
	f := newIngestFixture()
	f.ingestCfg.BatchSize = 1
	svc := f.service(t)
	dir := writeBanks(t, map[string]string{"linux.txt": linuxBank})

	f.questionRepo.On("CreateBatch", mock.Anything, mock.Anything).Return(0, errors.New("connection reset")).Once()
	f.questionRepo.On("CreateBatch", mock.Anything, mock.Anything).Return(1, nil).Once()
	f.expectRunRecorded()

	result, err := svc.Ingest(context.Background(), service.IngestRequest{Dir: dir})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Summary.Submitted)
	assert.Equal(t, 1, result.Summary.Inserted)
	assert.Equal(t, 1, result.Summary.Failed)
	require.Len(t, result.Summary.BatchErrors, 1)
	assert.Equal(t, "linux.txt", result.Summary.BatchErrors[0].SourceFile)
	assert.Equal(t, 0, result.Summary.BatchErrors[0].Index)
	assert.Equal(t, "connection reset", result.Summary.BatchErrors[0].Message)
	assert.Equal(t, domain.RunStatusPartial, result.Run.Status)
}

func TestIngestionService_Ingest_AllBatchesFail(t *testing.T) {
	f := newIngestFixture()
	svc := f.service(t)
	dir := writeBanks(t, map[string]string{"linux.txt": linuxBank})

	f.questionRepo.On("CreateBatch", mock.Anything, mock.Anything).Return(0, errors.New("db down"))
	f.expectRunRecorded()

	result, err := svc.Ingest(context.Background(), service.IngestRequest{Dir: dir})
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusFailed, result.Run.Status)
	assert.Equal(t, 2, result.Summary.Failed)
}

func TestIngestionService_Ingest_DryRun(t *testing.T) {
	f := newIngestFixture()
	svc := f.service(t)
	dir := writeBanks(t, map[string]string{"linux.txt": linuxBank, "network.txt": networkBank})
	f.expectRunRecorded()

	result, err := svc.Ingest(context.Background(), service.IngestRequest{Dir: dir, DryRun: true, KeepRecords: true})
	require.NoError(t, err)

	assert.True(t, result.Run.DryRun)
	assert.Equal(t, 3, result.Summary.Accepted)
	assert.Equal(t, 0, result.Summary.Submitted)
	assert.Equal(t, domain.RunStatusCompleted, result.Run.Status)
	require.Len(t, result.Records, 3)
	assert.Equal(t, "linux.txt", result.Records[0].SourceFile)
	assert.Equal(t, "network.txt", result.Records[2].SourceFile)
	f.questionRepo.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything)
}

func TestIngestionService_Ingest_ConcurrentFilesMergeDeterministically(t *testing.T) {
	f := newIngestFixture()
	f.ingestCfg.Concurrency = 4
	svc := f.service(t)
	files := map[string]string{}
	for _, name := range []string{"a.txt", "b.txt", "c.txt", "d.txt", "e.txt"} {
		files[name] = linuxBank
	}
	dir := writeBanks(t, files)

	f.questionRepo.On("CreateBatch", mock.Anything, mock.Anything).Return(2, nil)
	f.expectRunRecorded()

	result, err := svc.Ingest(context.Background(), service.IngestRequest{Dir: dir, KeepRecords: true})
	require.NoError(t, err)

	assert.Equal(t, 10, result.Summary.Inserted)
	assert.Equal(t, 10, result.Summary.PerCategory["general"])
	require.Len(t, result.Summary.Rejections, 5)
	for i, name := range []string{"a.txt", "b.txt", "c.txt", "d.txt", "e.txt"} {
		assert.Equal(t, name, result.Summary.Rejections[i].SourceFile)
		assert.Equal(t, name, result.Records[2*i].SourceFile)
		assert.Equal(t, "Which command lists files?", result.Records[2*i].QuestionText)
	}
}

func TestIngestionService_Ingest_NoFiles(t *testing.T) {
	f := newIngestFixture()
	svc := f.service(t)
	dir := writeBanks(t, map[string]string{"cover.png": "x"})

	_, err := svc.Ingest(context.Background(), service.IngestRequest{Dir: dir})
	assert.ErrorIs(t, err, domain.ErrNoInputFiles)
	f.runRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestIngestionService_Ingest_MissingDirectory(t *testing.T) {
	f := newIngestFixture()
	svc := f.service(t)

	_, err := svc.Ingest(context.Background(), service.IngestRequest{Dir: filepath.Join(t.TempDir(), "missing")})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestIngestionService_Ingest_Bucket(t *testing.T) {
	f := newIngestFixture()
	svc := f.service(t)

	f.storage.On("List", mock.Anything, "banks-bucket", "banks/").Return([]port.ObjectInfo{
		{Key: "banks/linux-101.txt", Size: 120},
		{Key: "banks/broken.txt", Size: 10},
		{Key: "banks/logo.png", Size: 999},
	}, nil)
	f.storage.On("Download", mock.Anything, "banks-bucket", "banks/linux-101.txt").Return([]byte(linuxBank), nil)
	f.storage.On("Download", mock.Anything, "banks-bucket", "banks/broken.txt").Return(nil, errors.New("access denied"))
	f.questionRepo.On("CreateBatch", mock.Anything, batchOf(2)).Return(2, nil)
	f.expectRunRecorded()

	result, err := svc.Ingest(context.Background(), service.IngestRequest{Bucket: "banks-bucket", Prefix: "banks/"})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Summary.Files)
	assert.Equal(t, 1, result.Summary.FilesSkipped)
	require.Len(t, result.Summary.FileErrors, 1)
	assert.Equal(t, "banks/broken.txt", result.Summary.FileErrors[0].SourceFile)
	assert.Equal(t, "access denied", result.Summary.FileErrors[0].Message)
	assert.Equal(t, 2, result.Summary.PerCategory["linux"])
	assert.Equal(t, domain.RunStatusPartial, result.Run.Status)
	f.storage.AssertNotCalled(t, "Download", mock.Anything, "banks-bucket", "banks/logo.png")
}

func TestIngestionService_Ingest_BucketWithoutStorage(t *testing.T) {
	f := newIngestFixture()
	mapping := &category.Mapping{Default: "general"}
	svc := service.NewIngestionService(f.questionRepo, f.runRepo, nil, f.notifier, mapping, &f.ingestCfg, &f.s3Cfg, zap.NewNop())

	_, err := svc.Ingest(context.Background(), service.IngestRequest{Bucket: "banks-bucket"})
	assert.ErrorIs(t, err, domain.ErrSourceNotConfigured)
}

func TestIngestionService_Ingest_NotifierFailureIsNotFatal(t *testing.T) {
	f := newIngestFixture()
	svc := f.service(t)
	dir := writeBanks(t, map[string]string{"network.txt": networkBank})

	f.questionRepo.On("CreateBatch", mock.Anything, batchOf(1)).Return(1, nil)
	f.runRepo.On("Create", mock.Anything, mock.Anything).Return(errors.New("insert failed"))
	f.notifier.On("NotifyRunSummary", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("ses throttled"))

	result, err := svc.Ingest(context.Background(), service.IngestRequest{Dir: dir})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Summary.Inserted)
}

func TestIngestionService_IngestUpload(t *testing.T) {
	f := newIngestFixture()
	f.ingestCfg.ArchiveUploads = true
	svc := f.service(t)

	f.storage.On("Upload", mock.Anything, mock.MatchedBy(func(in port.UploadInput) bool {
		return in.Bucket == "banks-bucket" &&
			strings.HasPrefix(in.Key, "banks/uploads/") &&
			strings.HasSuffix(in.Key, "_network.txt")
	})).Return(&port.UploadOutput{Location: "s3://banks-bucket/x"}, nil)
	f.questionRepo.On("CreateBatch", mock.Anything, batchOf(1)).Return(1, nil)
	f.expectRunRecorded()

	result, err := svc.IngestUpload(context.Background(), service.UploadIngestInput{
		FileName: "network.txt",
		Category: "networking",
		Body:     strings.NewReader(networkBank),
	})
	require.NoError(t, err)

	assert.Equal(t, domain.TriggerUpload, result.Run.Trigger)
	assert.Equal(t, map[string]int{"networking": 1}, result.Summary.PerCategory)
	f.storage.AssertExpectations(t)
}

func TestIngestionService_IngestUpload_MappedCategory(t *testing.T) {
	f := newIngestFixture()
	svc := f.service(t)

	f.questionRepo.On("CreateBatch", mock.Anything, batchOf(2)).Return(2, nil)
	f.expectRunRecorded()

	result, err := svc.IngestUpload(context.Background(), service.UploadIngestInput{
		FileName: `C:\exports\linux-2.txt`,
		Body:     strings.NewReader(linuxBank),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Summary.PerCategory["linux"])
	f.storage.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
}

func TestIngestionService_IngestUpload_UnsupportedType(t *testing.T) {
	f := newIngestFixture()
	svc := f.service(t)

	_, err := svc.IngestUpload(context.Background(), service.UploadIngestInput{
		FileName: "bank.pdf",
		Body:     strings.NewReader("%PDF"),
	})
	assert.ErrorIs(t, err, domain.ErrUnsupportedFileType)
}

func TestIngestionService_IngestUpload_ArchiveFailure(t *testing.T) {
	f := newIngestFixture()
	f.ingestCfg.ArchiveUploads = true
	svc := f.service(t)

	f.storage.On("Upload", mock.Anything, mock.Anything).Return(nil, errors.New("s3 unavailable"))

	_, err := svc.IngestUpload(context.Background(), service.UploadIngestInput{
		FileName: "network.txt",
		Body:     strings.NewReader(networkBank),
	})
	assert.ErrorIs(t, err, domain.ErrUploadFailed)
	f.questionRepo.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything)
}

func TestIngestionService_GetRunAndList(t *testing.T) {
	f := newIngestFixture()
	svc := f.service(t)

	run := &domain.IngestionRun{Status: domain.RunStatusCompleted}
	f.runRepo.On("GetByID", mock.Anything, run.ID).Return(run, nil)
	f.runRepo.On("List", mock.Anything, 0, 20).Return([]domain.IngestionRun{*run}, 1, nil)

	got, err := svc.GetRun(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, run, got)

	runs, total, err := svc.ListRuns(context.Background(), 0, 20)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, runs, 1)
}
