package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"quizbank/internal/domain"
)

// MockIngestionRunRepo is a mock implementation of port.IngestionRunRepository.
type MockIngestionRunRepo struct {
	mock.Mock
}

func (m *MockIngestionRunRepo) Create(ctx context.Context, run *domain.IngestionRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockIngestionRunRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.IngestionRun, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.IngestionRun), args.Error(1)
}

func (m *MockIngestionRunRepo) List(ctx context.Context, offset, limit int) ([]domain.IngestionRun, int, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.IngestionRun), args.Int(1), args.Error(2)
}
