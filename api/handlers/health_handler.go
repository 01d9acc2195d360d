package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/clip-relay-go/internal/app"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	orchestrator *app.Orchestrator
	version      string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(orchestrator *app.Orchestrator, version string) *HealthHandler {
	return &HealthHandler{
		orchestrator: orchestrator,
		version:      version,
	}
}

// HealthResponse represents a health check response
type HealthResponse struct {
	Status     string `json:"status"`
	Version    string `json:"version"`
	ActiveJobs int    `json:"active_jobs"`
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:     "ok",
		Version:    h.version,
		ActiveJobs: h.orchestrator.ActiveJobs(),
	})
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
