package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"quizbank/internal/domain"
)

// MockSummaryNotifier is a mock implementation of port.SummaryNotifier.
type MockSummaryNotifier struct {
	mock.Mock
}

func (m *MockSummaryNotifier) NotifyRunSummary(ctx context.Context, run *domain.IngestionRun, summary *domain.RunSummary) error {
	args := m.Called(ctx, run, summary)
	return args.Error(0)
}
