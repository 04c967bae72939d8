package port

import (
	"context"

	"quizbank/internal/domain"
)

// QuestionRepository defines the contract for question storage.
type QuestionRepository interface {
	// CreateBatch inserts the batch and returns the number of rows inserted.
	// Records are independent rows; no ordering or dedup is enforced.
	CreateBatch(ctx context.Context, batch []domain.QuestionRecord) (int, error)
	CountByCategory(ctx context.Context) ([]domain.CategoryCount, error)
	ListSources(ctx context.Context, offset, limit int) ([]domain.SourceCategory, error)
	// UpdateCategoryBySource moves the questions of sourceFile from one
	// category to another and returns the number of rows changed.
	UpdateCategoryBySource(ctx context.Context, sourceFile, from, to string) (int, error)
}
