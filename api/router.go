package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/clip-relay-go/api/handlers"
	"github.com/yourusername/clip-relay-go/api/middleware"
	"github.com/yourusername/clip-relay-go/internal/app"
	"github.com/yourusername/clip-relay-go/internal/domain"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// SetupRouter sets up the HTTP router
func SetupRouter(
	orchestrator *app.Orchestrator,
	repo domain.UserLinkRepository,
	log *zap.Logger,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))

	healthHandler := handlers.NewHealthHandler(orchestrator, Version)
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	v1 := router.Group("/api/v1")
	{
		relayHandler := handlers.NewRelayHandler(orchestrator, repo, log)
		v1.GET("/downloads", relayHandler.ListDownloads)
		v1.GET("/stats", relayHandler.GetStats)
		v1.POST("/instagram", relayHandler.RelayInstagram)
	}

	return router
}
