package handler

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/hUstbit37/ipms-search-sub001/middleware"
	"github.com/hUstbit37/ipms-search-sub001/pkg/logger"
	"github.com/hUstbit37/ipms-search-sub001/service"
)

const maxAttachmentSize = 20 << 20

// allowedAttachments maps accepted extensions to their content type
var allowedAttachments = map[string]string{
	".pdf":  "application/pdf",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
}

// AttachmentHandler uploads files for the attachments step. The returned
// handle is what the client puts into the step's files list.
type AttachmentHandler struct {
	storage service.FileStorage
}

func NewAttachmentHandler(storage service.FileStorage) *AttachmentHandler {
	return &AttachmentHandler{storage: storage}
}

// Upload handles a multipart attachment upload
func (h *AttachmentHandler) Upload(c *gin.Context) {
	ctx := logger.With(c.Request.Context(), logger.EntityIDKey, c.Param("id"))
	ctx = logger.With(ctx, logger.TenantKey, middleware.GetTenant(c))

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return
	}
	defer file.Close()

	if header.Size > maxAttachmentSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File is too large"})
		return
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	expected, ok := allowedAttachments[ext]
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only PDF, DOCX, PNG and JPEG files are allowed"})
		return
	}

	// Sniff the content when the client claims something else
	contentType := header.Header.Get("Content-Type")
	if contentType != "" && contentType != "application/octet-stream" && contentType != expected {
		buffer := make([]byte, 512)
		n, err := file.Read(buffer)
		if err != nil && err != io.EOF {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file"})
			return
		}
		if _, err := file.Seek(0, io.SeekStart); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file"})
			return
		}

		detected := http.DetectContentType(buffer[:n])
		if detected != expected && detected != "application/octet-stream" && !strings.HasPrefix(detected, "application/zip") {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid file type"})
			return
		}
	}

	handle, err := h.storage.Upload(ctx, c.Param("id"), header.Filename, file, header.Size, expected)
	if err != nil {
		logger.Error(ctx, "failed to upload attachment", "filename", header.Filename, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload file"})
		return
	}

	logger.Info(ctx, "attachment uploaded", "file_id", handle.ID, "size", handle.Size)
	c.JSON(http.StatusOK, handle)
}

// Remove deletes an uploaded attachment. Only objects under the caller's
// tenant and the license in the path can be removed.
func (h *AttachmentHandler) Remove(c *gin.Context) {
	ctx := logger.With(c.Request.Context(), logger.EntityIDKey, c.Param("id"))

	objectName := c.Query("object_name")
	prefix := service.ObjectName(middleware.GetTenant(c), c.Param("id"), "", "")
	if objectName == "" || !strings.HasPrefix(objectName, prefix) || strings.Contains(objectName, "..") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid object name"})
		return
	}

	if err := h.storage.Delete(ctx, objectName); err != nil {
		logger.Error(ctx, "failed to delete attachment", "object_name", objectName, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete file"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Attachment deleted"})
}
