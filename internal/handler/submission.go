// Package handler provides HTTP request handlers for the archive API.
package handler

import (
	"net/http"

	"github.com/media-vault/video-archive-go/internal/db/repository"
	"github.com/media-vault/video-archive-go/internal/service"
	"github.com/media-vault/video-archive-go/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SubmissionRequest is the body for scheduling and tracking endpoints.
type SubmissionRequest struct {
	URL string `json:"url" binding:"required"`
}

// SubmissionHandler handles URL intake and queue listing.
type SubmissionHandler struct {
	svc         *service.SubmissionService
	archivals   repository.ScheduledArchivalRepository
	collections repository.TrackedCollectionRepository
}

// NewSubmissionHandler creates a new SubmissionHandler instance.
func NewSubmissionHandler(
	svc *service.SubmissionService,
	archivals repository.ScheduledArchivalRepository,
	collections repository.TrackedCollectionRepository,
) *SubmissionHandler {
	return &SubmissionHandler{
		svc:         svc,
		archivals:   archivals,
		collections: collections,
	}
}

// CreateSchedule queues a single video for archival.
func (h *SubmissionHandler) CreateSchedule(c *gin.Context) {
	var req SubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	outcome, err := h.svc.ScheduleVideo(c.Request.Context(), req.URL)
	if err != nil {
		logger.Log.Error("schedule submission failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	h.respond(c, req.URL, outcome, "url is not an archivable video")
}

// ListSchedules returns every pending archival.
func (h *SubmissionHandler) ListSchedules(c *gin.Context) {
	items, err := h.archivals.List(c.Request.Context())
	if err != nil {
		logger.Log.Error("list schedules failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, items)
}

// CreateCollection puts a channel or playlist under tracking.
func (h *SubmissionHandler) CreateCollection(c *gin.Context) {
	var req SubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	outcome, err := h.svc.TrackCollection(c.Request.Context(), req.URL)
	if err != nil {
		logger.Log.Error("collection submission failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	h.respond(c, req.URL, outcome, "url is not a trackable collection")
}

// ListCollections returns every tracked collection.
func (h *SubmissionHandler) ListCollections(c *gin.Context) {
	items, err := h.collections.List(c.Request.Context())
	if err != nil {
		logger.Log.Error("list collections failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, items)
}

func (h *SubmissionHandler) respond(c *gin.Context, url string, outcome service.Outcome, rejectMsg string) {
	switch outcome {
	case service.Accepted:
		c.JSON(http.StatusCreated, gin.H{"status": outcome.String(), "url": url})
	case service.Duplicate:
		c.JSON(http.StatusOK, gin.H{"status": outcome.String(), "url": url})
	default:
		c.JSON(http.StatusBadRequest, gin.H{
			"status": outcome.String(),
			"error":  rejectMsg,
		})
	}
}
