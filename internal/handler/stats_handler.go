package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"quizbank/internal/service"
)

// StatsHandler handles question statistics endpoints.
type StatsHandler struct {
	statsService service.StatsService
	log          *zap.Logger
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(statsService service.StatsService, log *zap.Logger) *StatsHandler {
	return &StatsHandler{statsService: statsService, log: log}
}

// Categories handles GET /api/v1/categories
func (h *StatsHandler) Categories(c *gin.Context) {
	counts, err := h.statsService.CategoryCounts(c.Request.Context())
	if err != nil {
		HandleError(c, h.log, err)
		return
	}

	RespondOK(c, counts)
}
