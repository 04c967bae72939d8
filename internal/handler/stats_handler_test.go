package handler_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"quizbank/internal/domain"
	"quizbank/internal/handler"
	"quizbank/mocks"
)

func newStatsHandler() (*handler.StatsHandler, *mocks.MockStatsService) {
	mockSvc := new(mocks.MockStatsService)
	h := handler.NewStatsHandler(mockSvc, zap.NewNop())
	return h, mockSvc
}

func TestStatsHandler_Categories(t *testing.T) {
	h, mockSvc := newStatsHandler()

	counts := []domain.CategoryCount{{Category: "linux", Count: 120}, {Category: "networking", Count: 40}}
	mockSvc.On("CategoryCounts", mock.Anything).Return(counts, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/categories", http.NoBody)

	h.Categories(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Success bool                   `json:"success"`
		Data    []domain.CategoryCount `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, counts, resp.Data)
	mockSvc.AssertExpectations(t)
}

func TestStatsHandler_Categories_Error(t *testing.T) {
	h, mockSvc := newStatsHandler()

	mockSvc.On("CategoryCounts", mock.Anything).Return(nil, errors.New("db down"))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/categories", http.NoBody)

	h.Categories(c)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
