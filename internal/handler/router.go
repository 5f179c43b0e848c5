package handler

import (
	"github.com/media-vault/video-archive-go/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Routes bundles the handlers the API mounts.
type Routes struct {
	Submissions *SubmissionHandler
	Videos      *VideoHandler
	Files       *FileHandler
	WS          *WSHandler
	Health      *HealthHandler
}

// NewRouter builds the gin engine with all API routes.
func NewRouter(r Routes, logger *zap.Logger) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(logger))

	engine.GET("/health", r.Health.LivenessProbe)
	engine.GET("/health/ready", r.Health.ReadinessProbe)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := engine.Group("/api/v1")
	{
		api.POST("/schedules", r.Submissions.CreateSchedule)
		api.GET("/schedules", r.Submissions.ListSchedules)
		api.POST("/collections", r.Submissions.CreateCollection)
		api.GET("/collections", r.Submissions.ListCollections)
		api.GET("/videos", r.Videos.List)
		api.GET("/files/:id", r.Files.Get)
	}

	engine.GET("/ws", r.WS.Subscribe)

	return engine
}
