package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"quizbank/internal/domain"
	"quizbank/internal/port"
)

const (
	questionColumns = 7
	// maxBindParams is the PostgreSQL limit on bind parameters per statement.
	maxBindParams = 65535
)

type questionRepo struct {
	db *sqlx.DB
}

// NewQuestionRepo creates a new PostgreSQL-backed QuestionRepository.
func NewQuestionRepo(db *sqlx.DB) port.QuestionRepository {
	return &questionRepo{db: db}
}

func (r *questionRepo) CreateBatch(ctx context.Context, batch []domain.QuestionRecord) (int, error) {
	if len(batch) == 0 {
		return 0, nil
	}
	if len(batch)*questionColumns > maxBindParams {
		return 0, fmt.Errorf("questionRepo.CreateBatch: batch of %d exceeds bind parameter limit", len(batch))
	}

	query, args := buildQuestionInsert(batch, time.Now().UTC())
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("questionRepo.CreateBatch: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return len(batch), nil
	}
	return int(rows), nil
}

func (r *questionRepo) CountByCategory(ctx context.Context) ([]domain.CategoryCount, error) {
	var counts []domain.CategoryCount
	err := r.db.SelectContext(ctx, &counts,
		`SELECT category, COUNT(*) AS count FROM questions GROUP BY category ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("questionRepo.CountByCategory: %w", err)
	}
	return counts, nil
}

func (r *questionRepo) ListSources(ctx context.Context, offset, limit int) ([]domain.SourceCategory, error) {
	var sources []domain.SourceCategory
	err := r.db.SelectContext(ctx, &sources,
		`SELECT source_file, category, COUNT(*) AS count FROM questions
		 GROUP BY source_file, category
		 ORDER BY source_file, category
		 LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("questionRepo.ListSources: %w", err)
	}
	return sources, nil
}

func (r *questionRepo) UpdateCategoryBySource(ctx context.Context, sourceFile, from, to string) (int, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE questions SET category = $1 WHERE source_file = $2 AND category = $3`,
		to, sourceFile, from)
	if err != nil {
		return 0, fmt.Errorf("questionRepo.UpdateCategoryBySource: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("questionRepo.UpdateCategoryBySource: %w", err)
	}
	return int(rows), nil
}

// buildQuestionInsert renders one multi-row INSERT for the batch. Records
// without an ID get a fresh one; all rows share createdAt.
func buildQuestionInsert(batch []domain.QuestionRecord, createdAt time.Time) (string, []interface{}) {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*questionColumns)

	for i := range batch {
		q := &batch[i]
		id := q.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		base := i * questionColumns
		valueStrings = append(valueStrings, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7))
		valueArgs = append(valueArgs, id, q.QuestionText, q.Answers, q.CorrectAnswer, q.Category, q.SourceFile, createdAt)
	}

	query := fmt.Sprintf(
		`INSERT INTO questions (id, question_text, answers, correct_answer, category, source_file, created_at) VALUES %s`,
		strings.Join(valueStrings, ", "))
	return query, valueArgs
}
