package handler

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/camaral-bot/internal/bot/biz"
	"github.com/kart-io/camaral-bot/internal/bot/store"
)

// apiKeyPrefixLen is the number of API key characters accepted as credential.
const apiKeyPrefixLen = 20

// DocumentIndexer rebuilds the knowledge base from the source document.
type DocumentIndexer interface {
	IndexFile(ctx context.Context, path string) (*biz.IndexResult, error)
	Stats(ctx context.Context) (store.Stats, error)
}

// IndexConfig configures IndexHandler.
type IndexConfig struct {
	// DocumentPath is the knowledge document indexed on POST.
	DocumentPath string
	// APIKey is the provider key; its first 20 characters authorize a request.
	APIKey string
	// Token is an alternative credential accepted verbatim.
	Token string
}

// IndexHandler serves the document index endpoint.
type IndexHandler struct {
	indexer DocumentIndexer
	config  IndexConfig
}

// NewIndexHandler creates a new IndexHandler.
func NewIndexHandler(indexer DocumentIndexer, config IndexConfig) *IndexHandler {
	return &IndexHandler{indexer: indexer, config: config}
}

// Index re-indexes the knowledge document.
func (h *IndexHandler) Index(c *gin.Context) {
	if !h.authorized(c.GetHeader("Authorization")) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	result, err := h.indexer.IndexFile(c.Request.Context(), h.config.DocumentPath)
	if err != nil {
		logger.Errorw("Indexing failed", "path", h.config.DocumentPath, "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to index document",
			"details": err.Error(),
		})
		return
	}

	logger.Infow("Document indexed", "chunks", result.Chunks, "vectorCount", result.VectorCount)
	c.JSON(http.StatusOK, gin.H{
		"ok":          true,
		"message":     "Document indexed successfully",
		"chunks":      result.Chunks,
		"vectorCount": result.VectorCount,
	})
}

// Ready reports the number of indexed vectors.
func (h *IndexHandler) Ready(c *gin.Context) {
	stats, err := h.indexer.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":          true,
		"status":      "Index endpoint ready",
		"vectorCount": stats.VectorCount,
	})
}

func (h *IndexHandler) authorized(header string) bool {
	if header == "" {
		return false
	}
	if h.config.Token != "" {
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if subtle.ConstantTimeCompare([]byte(token), []byte(h.config.Token)) == 1 {
			return true
		}
	}
	prefix := h.config.APIKey
	if len(prefix) > apiKeyPrefixLen {
		prefix = prefix[:apiKeyPrefixLen]
	}
	return prefix != "" && strings.Contains(header, prefix)
}
