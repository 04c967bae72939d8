package port

import (
	"context"

	"github.com/google/uuid"

	"quizbank/internal/domain"
)

// IngestionRunRepository persists the history of ingestion runs.
type IngestionRunRepository interface {
	Create(ctx context.Context, run *domain.IngestionRun) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.IngestionRun, error)
	List(ctx context.Context, offset, limit int) ([]domain.IngestionRun, int, error)
}
