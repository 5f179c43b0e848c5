package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/media-vault/video-archive-go/internal/db"
	"github.com/media-vault/video-archive-go/internal/db/repository"
	"github.com/media-vault/video-archive-go/internal/storage"
	"github.com/media-vault/video-archive-go/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FileHandler serves stored blobs. Backends with direct URLs get a
// redirect; otherwise the blob is streamed as an attachment.
type FileHandler struct {
	files       repository.FileRepository
	store       storage.BlobStore
	cacheMaxAge int
}

// NewFileHandler creates a new FileHandler instance.
func NewFileHandler(files repository.FileRepository, store storage.BlobStore, cacheMaxAge int) *FileHandler {
	return &FileHandler{
		files:       files,
		store:       store,
		cacheMaxAge: cacheMaxAge,
	}
}

// Get serves one file by id.
func (h *FileHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file id"})
		return
	}

	file, err := h.files.GetByID(c.Request.Context(), id)
	if db.IsNotFound(err) {
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		return
	}
	if err != nil {
		logger.Log.Error("file lookup failed", zap.String("id", id.String()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	key := file.BlobKey()

	url, err := h.store.SignedURL(c.Request.Context(), key)
	if err == nil {
		c.Redirect(http.StatusFound, url)
		return
	}
	if !errors.Is(err, storage.ErrNoDirectURL) {
		logger.Log.Error("signing blob url failed", zap.String("key", key), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	r, size, err := h.store.Open(c.Request.Context(), key)
	if errors.Is(err, storage.ErrBlobNotFound) {
		// The row exists but the blob is gone, most likely mid-archival.
		c.JSON(http.StatusNotFound, gin.H{"error": "file content not available"})
		return
	}
	if err != nil {
		logger.Log.Error("opening blob failed", zap.String("key", key), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	defer r.Close()

	c.Header("Cache-Control", fmt.Sprintf("private, max-age=%d", h.cacheMaxAge))
	disposition := fmt.Sprintf("attachment; filename=%q", file.FileName+"."+file.FileExtension)
	c.DataFromReader(http.StatusOK, size, "application/octet-stream", r, map[string]string{
		"Content-Disposition": disposition,
	})
}
