// Package handler provides HTTP and WebSocket handlers for the CodeHub API.
package handler

import (
	"fmt"
	"net/http"

	"github.com/cespare/xxhash/v2"
	"github.com/gin-gonic/gin"

	"github.com/CageChen/codehub/internal/pathutil"
	"github.com/CageChen/codehub/internal/store"
)

// FileHandler serves stored file bytes directly
type FileHandler struct {
	store store.ContentStore
}

// NewFileHandler creates a new file handler
func NewFileHandler(st store.ContentStore) *FileHandler {
	return &FileHandler{store: st}
}

// GetRaw returns the stored bytes of a file. Missing files answer with the
// template for their language, like the editor does. Responses carry a
// content hash ETag so unchanged files are not re-sent.
func (h *FileHandler) GetRaw(c *gin.Context) {
	p := pathutil.Clean(c.Param("path"))
	if p == pathutil.Root {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path is required"})
		return
	}

	data, err := h.store.Read(c.Request.Context(), p)
	if err != nil {
		writeError(c, err)
		return
	}

	etag := fmt.Sprintf(`"%016x"`, xxhash.Sum64(data))
	c.Header("ETag", etag)
	c.Header("Cache-Control", "no-cache")
	if st, err := h.store.Stat(c.Request.Context(), p); err == nil && !st.LastModifiedAt.IsZero() {
		c.Header("Last-Modified", st.LastModifiedAt.UTC().Format(http.TimeFormat))
	}
	if match := c.GetHeader("If-None-Match"); match == etag {
		c.Status(http.StatusNotModified)
		return
	}

	c.Header("X-Language", pathutil.LanguageForFilename(pathutil.Base(p)).ID)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", data)
}
