package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"quizbank/internal/domain"
)

// MockQuestionRepo is a mock implementation of port.QuestionRepository.
type MockQuestionRepo struct {
	mock.Mock
}

func (m *MockQuestionRepo) CreateBatch(ctx context.Context, batch []domain.QuestionRecord) (int, error) {
	args := m.Called(ctx, batch)
	return args.Int(0), args.Error(1)
}

func (m *MockQuestionRepo) CountByCategory(ctx context.Context) ([]domain.CategoryCount, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CategoryCount), args.Error(1)
}

func (m *MockQuestionRepo) ListSources(ctx context.Context, offset, limit int) ([]domain.SourceCategory, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SourceCategory), args.Error(1)
}

func (m *MockQuestionRepo) UpdateCategoryBySource(ctx context.Context, sourceFile, from, to string) (int, error) {
	args := m.Called(ctx, sourceFile, from, to)
	return args.Int(0), args.Error(1)
}
