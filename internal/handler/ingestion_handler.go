package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"quizbank/internal/domain"
	"quizbank/internal/report"
	"quizbank/internal/service"
)

// IngestionHandler handles question bank ingestion endpoints.
type IngestionHandler struct {
	ingestionService service.IngestionService
	maxUploadBytes   int64
	log              *zap.Logger
}

// NewIngestionHandler creates a new IngestionHandler. maxUploadMB limits the
// size of uploaded bank files.
func NewIngestionHandler(ingestionService service.IngestionService, maxUploadMB int64, log *zap.Logger) *IngestionHandler {
	return &IngestionHandler{
		ingestionService: ingestionService,
		maxUploadBytes:   maxUploadMB * 1024 * 1024,
		log:              log,
	}
}

// multipartSlack leaves room for multipart headers and form fields on top of
// the file size limit.
const multipartSlack = 64 * 1024

// ingestionResponse is returned by endpoints that run an ingestion.
type ingestionResponse struct {
	Run     *domain.IngestionRun `json:"run"`
	Summary *domain.RunSummary   `json:"summary"`
}

// ScanRequest is the body of POST /api/v1/ingestions/scan. An empty bucket
// scans the configured source directory.
type ScanRequest struct {
	Bucket string `json:"bucket"`
	Prefix string `json:"prefix"`
	DryRun bool   `json:"dry_run"`
}

// Upload handles POST /api/v1/ingestions
// Multipart form: file (required), category (optional), dry_run (optional).
func (h *IngestionHandler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+multipartSlack)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			HandleError(c, h.log, domain.ErrFileTooLarge)
			return
		}
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "file field is required")
		return
	}
	defer func() { _ = file.Close() }()

	if header.Size > h.maxUploadBytes {
		HandleError(c, h.log, domain.ErrFileTooLarge)
		return
	}

	dryRun, _ := strconv.ParseBool(c.DefaultPostForm("dry_run", "false"))

	result, err := h.ingestionService.IngestUpload(c.Request.Context(), service.UploadIngestInput{
		FileName: header.Filename,
		Category: c.PostForm("category"),
		Body:     file,
		DryRun:   dryRun,
	})
	if err != nil {
		HandleError(c, h.log, err)
		return
	}

	RespondCreated(c, ingestionResponse{Run: result.Run, Summary: result.Summary})
}

// Scan handles POST /api/v1/ingestions/scan
func (h *IngestionHandler) Scan(c *gin.Context) {
	var req ScanRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
			return
		}
	}

	result, err := h.ingestionService.Ingest(c.Request.Context(), service.IngestRequest{
		Bucket:  req.Bucket,
		Prefix:  req.Prefix,
		Trigger: domain.TriggerAPI,
		DryRun:  req.DryRun,
	})
	if err != nil {
		HandleError(c, h.log, err)
		return
	}

	RespondCreated(c, ingestionResponse{Run: result.Run, Summary: result.Summary})
}

// List handles GET /api/v1/ingestions
func (h *IngestionHandler) List(c *gin.Context) {
	offset, limit := parsePagination(c)

	runs, total, err := h.ingestionService.ListRuns(c.Request.Context(), offset, limit)
	if err != nil {
		HandleError(c, h.log, err)
		return
	}

	RespondPaginated(c, runs, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// GetByID handles GET /api/v1/ingestions/:id
func (h *IngestionHandler) GetByID(c *gin.Context) {
	run, ok := h.loadRun(c)
	if !ok {
		return
	}

	RespondOK(c, run)
}

// ExportRejections handles GET /api/v1/ingestions/:id/rejections
// It streams the dropped question blocks of the run as CSV.
func (h *IngestionHandler) ExportRejections(c *gin.Context) {
	run, ok := h.loadRun(c)
	if !ok {
		return
	}

	var summary domain.RunSummary
	if len(run.Summary) > 0 {
		if err := json.Unmarshal(run.Summary, &summary); err != nil {
			HandleError(c, h.log, fmt.Errorf("decoding run summary: %w", err))
			return
		}
	}

	filename := report.BuildFilename("rejections_"+run.ID.String(), "csv")
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Status(http.StatusOK)

	_, _ = c.Writer.Write(report.BOM)
	w := report.NewWriter(c.Writer)
	if err := w.WriteRejections(summary.Rejections); err != nil {
		h.log.Error("writing rejections csv", zap.String("run_id", run.ID.String()), zap.Error(err))
		return
	}
	w.Flush()
	if err := w.Error(); err != nil {
		h.log.Error("flushing rejections csv", zap.String("run_id", run.ID.String()), zap.Error(err))
	}
}

func (h *IngestionHandler) loadRun(c *gin.Context) (*domain.IngestionRun, bool) {
	runID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid ingestion run ID")
		return nil, false
	}

	run, err := h.ingestionService.GetRun(c.Request.Context(), runID)
	if err != nil {
		HandleError(c, h.log, err)
		return nil, false
	}
	return run, true
}
