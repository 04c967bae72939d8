package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"quizbank/internal/handler"
	"quizbank/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	log *zap.Logger,
	allowedOrigins []string,
	ingestionH *handler.IngestionHandler,
	statsH *handler.StatsHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log))
	r.Use(middleware.CORS(allowedOrigins))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	v1 := r.Group("/api/v1")

	ingestions := v1.Group("/ingestions")
	ingestions.POST("", ingestionH.Upload)
	ingestions.POST("/scan", ingestionH.Scan)
	ingestions.GET("", ingestionH.List)
	ingestions.GET("/:id", ingestionH.GetByID)
	ingestions.GET("/:id/rejections", ingestionH.ExportRejections)

	v1.GET("/categories", statsH.Categories)

	return r
}
