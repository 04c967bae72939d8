package service

import (
	"context"

	"quizbank/internal/domain"
	"quizbank/internal/port"
)

// StatsService provides aggregate question statistics.
type StatsService interface {
	CategoryCounts(ctx context.Context) ([]domain.CategoryCount, error)
}

type statsService struct {
	questionRepo port.QuestionRepository
}

// NewStatsService creates a new StatsService implementation.
func NewStatsService(questionRepo port.QuestionRepository) StatsService {
	return &statsService{questionRepo: questionRepo}
}

func (s *statsService) CategoryCounts(ctx context.Context) ([]domain.CategoryCount, error) {
	counts, err := s.questionRepo.CountByCategory(ctx)
	if err != nil {
		return nil, err
	}
	if counts == nil {
		counts = []domain.CategoryCount{}
	}
	return counts, nil
}
