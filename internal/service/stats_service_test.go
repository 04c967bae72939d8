package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"quizbank/internal/domain"
	"quizbank/internal/service"
	"quizbank/mocks"
)

func TestStatsService_CategoryCounts(t *testing.T) {
	repo := new(mocks.MockQuestionRepo)
	svc := service.NewStatsService(repo)

	counts := []domain.CategoryCount{{Category: "linux", Count: 120}, {Category: "networking", Count: 40}}
	repo.On("CountByCategory", mock.Anything).Return(counts, nil)

	got, err := svc.CategoryCounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, counts, got)
}

func TestStatsService_CategoryCounts_EmptyIsNotNil(t *testing.T) {
	repo := new(mocks.MockQuestionRepo)
	svc := service.NewStatsService(repo)

	repo.On("CountByCategory", mock.Anything).Return(nil, nil)

	got, err := svc.CategoryCounts(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestStatsService_CategoryCounts_RepoError(t *testing.T) {
	repo := new(mocks.MockQuestionRepo)
	svc := service.NewStatsService(repo)

	repo.On("CountByCategory", mock.Anything).Return(nil, errors.New("db down"))

	_, err := svc.CategoryCounts(context.Background())
	assert.Error(t, err)
}
