package noop

import (
	"context"

	"go.uber.org/zap"

	"quizbank/internal/domain"
	"quizbank/internal/port"
)

type noopNotifier struct {
	log *zap.Logger
}

// NewNoopNotifier creates a SummaryNotifier that only logs the run summary.
func NewNoopNotifier(log *zap.Logger) port.SummaryNotifier {
	return &noopNotifier{log: log}
}

func (n *noopNotifier) NotifyRunSummary(_ context.Context, run *domain.IngestionRun, summary *domain.RunSummary) error {
	n.log.Info("[NOOP EMAIL] ingestion run summary",
		zap.String("run_id", run.ID.String()),
		zap.String("status", string(run.Status)),
		zap.Int("files", summary.Files),
		zap.Int("accepted", summary.Accepted),
		zap.Int("dropped", summary.Dropped),
		zap.Int("inserted", summary.Inserted),
		zap.Int("failed", summary.Failed),
	)
	return nil
}
