package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/clip-relay-go/internal/app"
	"github.com/yourusername/clip-relay-go/internal/domain"
)

// RelayHandler serves download history, stats, and the direct relay
// endpoint used by external integrations.
type RelayHandler struct {
	orchestrator *app.Orchestrator
	repo         domain.UserLinkRepository
	logger       *zap.Logger
}

// NewRelayHandler creates a new relay handler
func NewRelayHandler(orchestrator *app.Orchestrator, repo domain.UserLinkRepository, logger *zap.Logger) *RelayHandler {
	return &RelayHandler{
		orchestrator: orchestrator,
		repo:         repo,
		logger:       logger,
	}
}

// ListDownloads handles GET /api/v1/downloads
func (h *RelayHandler) ListDownloads(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 500 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 500"})
			return
		}
		limit = parsed
	}

	records, err := h.repo.RecentDownloads(limit)
	if err != nil {
		h.logger.Error("Failed to list downloads", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list downloads"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"downloads": records,
		"count":     len(records),
	})
}

// GetStats handles GET /api/v1/stats
func (h *RelayHandler) GetStats(c *gin.Context) {
	stats, err := h.repo.Stats()
	if err != nil {
		h.logger.Error("Failed to compute stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// RelayRequest is the payload for POST /api/v1/instagram: deliver an
// already-resolved media URL to a chat.
type RelayRequest struct {
	UserID   int64  `json:"user_id" binding:"required"`
	VideoURL string `json:"video_url" binding:"required,url"`
	Caption  string `json:"caption"`
}

// RelayInstagram handles POST /api/v1/instagram. The delivery runs
// asynchronously; the endpoint acknowledges acceptance, not completion.
func (h *RelayHandler) RelayInstagram(c *gin.Context) {
	var req RelayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id and a valid video_url are required"})
		return
	}

	// Detached from the request context: the delivery outlives the HTTP
	// exchange and is bounded by the pipeline timeout instead.
	go func() {
		if err := h.orchestrator.DeliverDirect(context.Background(), req.UserID, req.VideoURL, req.Caption); err != nil {
			h.logger.Error("Relay delivery failed",
				zap.Int64("user_id", req.UserID),
				zap.Error(err))
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}
