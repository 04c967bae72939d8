package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"quizbank/internal/domain"
	"quizbank/internal/port"
)

type ingestionRunRepo struct {
	db *sqlx.DB
}

// NewIngestionRunRepo creates a new PostgreSQL-backed IngestionRunRepository.
func NewIngestionRunRepo(db *sqlx.DB) port.IngestionRunRepository {
	return &ingestionRunRepo{db: db}
}

func (r *ingestionRunRepo) Create(ctx context.Context, run *domain.IngestionRun) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	query := `INSERT INTO ingestion_runs
		(id, trigger, status, dry_run, accepted, inserted, failed, dropped, summary, started_at, finished_at)
		VALUES (:id, :trigger, :status, :dry_run, :accepted, :inserted, :failed, :dropped, :summary, :started_at, :finished_at)`
	if _, err := r.db.NamedExecContext(ctx, query, run); err != nil {
		return fmt.Errorf("ingestionRunRepo.Create: %w", err)
	}
	return nil
}

func (r *ingestionRunRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.IngestionRun, error) {
	var run domain.IngestionRun
	err := r.db.GetContext(ctx, &run, "SELECT * FROM ingestion_runs WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("ingestionRunRepo.GetByID: %w", err)
	}
	return &run, nil
}

func (r *ingestionRunRepo) List(ctx context.Context, offset, limit int) ([]domain.IngestionRun, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM ingestion_runs"); err != nil {
		return nil, 0, fmt.Errorf("ingestionRunRepo.List count: %w", err)
	}

	var runs []domain.IngestionRun
	err := r.db.SelectContext(ctx, &runs,
		"SELECT * FROM ingestion_runs ORDER BY started_at DESC LIMIT $1 OFFSET $2", limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("ingestionRunRepo.List: %w", err)
	}
	return runs, total, nil
}
