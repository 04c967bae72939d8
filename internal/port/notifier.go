package port

import (
	"context"

	"quizbank/internal/domain"
)

// SummaryNotifier delivers the summary of a finished ingestion run to operators.
type SummaryNotifier interface {
	NotifyRunSummary(ctx context.Context, run *domain.IngestionRun, summary *domain.RunSummary) error
}
