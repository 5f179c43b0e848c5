package handler

import (
	"net/http"

	"github.com/media-vault/video-archive-go/internal/db/models"
	"github.com/media-vault/video-archive-go/internal/db/repository"
	"github.com/media-vault/video-archive-go/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// VideoHandler serves the archived-video catalog.
type VideoHandler struct {
	videos repository.VideoRepository
}

// NewVideoHandler creates a new VideoHandler instance.
func NewVideoHandler(videos repository.VideoRepository) *VideoHandler {
	return &VideoHandler{videos: videos}
}

// List returns archived videos, newest first, filtered by an optional
// title term.
func (h *VideoHandler) List(c *gin.Context) {
	term := c.Query("term")

	results, err := h.videos.Search(c.Request.Context(), term)
	if err != nil {
		logger.Log.Error("video search failed", zap.String("term", term), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	if results == nil {
		results = []*models.VideoWithSize{}
	}
	c.JSON(http.StatusOK, results)
}
