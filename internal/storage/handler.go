package storage

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	maxFilenameLength = 255
	defaultUploadTTL  = 15 * time.Minute
	downloadTTL       = 1 * time.Hour
)

// image types only; posts carry no other attachments
var allowedContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

type UploadURLRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
}

type UploadURLResponse struct {
	UploadURL string `json:"upload_url"`
	FileKey   string `json:"file_key"`
	ExpiresAt int64  `json:"expires_at"`
}

type DownloadURLRequest struct {
	FileKey string `json:"file_key" binding:"required"`
}

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler { return &Handler{svc: svc} }

// POST /files/upload-url
func (h *Handler) GenerateUploadURL(c *gin.Context) {
	userID := c.GetHeader("X-User-ID")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req UploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	if len(req.Filename) > maxFilenameLength || strings.ContainsAny(req.Filename, "/\\") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid filename"})
		return
	}
	if !allowedContentTypes[req.ContentType] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported content type"})
		return
	}

	// key is namespaced per user so uploads can never collide or overwrite
	key := fmt.Sprintf("uploads/%s/%s%s", userID, uuid.New().String(), filepath.Ext(req.Filename))

	url, err := h.svc.PresignUpload(c.Request.Context(), key, req.ContentType, defaultUploadTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate upload URL"})
		return
	}

	c.JSON(http.StatusOK, UploadURLResponse{
		UploadURL: url,
		FileKey:   key,
		ExpiresAt: time.Now().Add(defaultUploadTTL).Unix(),
	})
}

// POST /files/download-url
func (h *Handler) GenerateDownloadURL(c *gin.Context) {
	var req DownloadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	url, err := h.svc.PresignDownload(c.Request.Context(), req.FileKey, downloadTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate download URL"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"download_url": url})
}

// DELETE /files/:key
func (h *Handler) DeleteFile(c *gin.Context) {
	userID := c.GetHeader("X-User-ID")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	// mounted as a wildcard route, gin keeps the leading slash
	key := strings.TrimPrefix(c.Param("key"), "/")
	// only the owner's namespace is deletable
	if !strings.HasPrefix(key, "uploads/"+userID+"/") {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	if err := h.svc.Delete(c.Request.Context(), key); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete file"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}
