package httpapi

import (
	"errors"
	"io"
	"net/http"

	"voice-platform/internal/auth"
	"voice-platform/internal/knowledge"
	"voice-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

// uploadMaxBytes caps knowledge uploads at 5 MiB of text.
const uploadMaxBytes = 5 << 20

// UploadDocument ingests a plain-text document into the knowledge base. The
// request is multipart form data with a "file" part plus optional "title" and
// "category" fields.
func (h Handlers) UploadDocument(c *gin.Context) {
	workspaceID, ok := h.workspace(c)
	if !ok {
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "no file uploaded"})
		return
	}
	if fileHeader.Size > uploadMaxBytes {
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unreadable file"})
		return
	}
	defer f.Close()
	content, err := io.ReadAll(io.LimitReader(f, uploadMaxBytes))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unreadable file"})
		return
	}

	userID, _ := auth.UserID(c.Request.Context())
	doc, err := h.Knowledge.Upload(c.Request.Context(), knowledge.UploadRequest{
		WorkspaceID: workspaceID,
		Title:       c.PostForm("title"),
		Category:    c.PostForm("category"),
		FileName:    fileHeader.Filename,
		Content:     string(content),
		CreatedBy:   userID,
	})
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if h.Audit != nil {
		if err := h.Audit.LogDocumentUploaded(c.Request.Context(), workspaceID, h.actor(c), doc.ID); err != nil {
			logger.FromGin(c).Warn("audit append failed", "err", err)
		}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "id": doc.ID, "status": doc.Status})
}

func (h Handlers) ListDocuments(c *gin.Context) {
	workspaceID, ok := h.workspace(c)
	if !ok {
		return
	}
	docs, err := h.Knowledge.List(c.Request.Context(), workspaceID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "listing documents failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": docs})
}

func (h Handlers) DeleteDocument(c *gin.Context) {
	workspaceID, ok := h.workspace(c)
	if !ok {
		return
	}
	err := h.Knowledge.Delete(c.Request.Context(), workspaceID, c.Param("document_id"))
	if err != nil {
		if errors.Is(err, knowledge.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "document not found"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "deleting document failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type searchKnowledgeRequest struct {
	Query string `json:"query"`
}

// SearchKnowledge runs a semantic query against the workspace knowledge base.
func (h Handlers) SearchKnowledge(c *gin.Context) {
	workspaceID, ok := h.workspace(c)
	if !ok {
		return
	}
	var req searchKnowledgeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Query == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "query required"})
		return
	}
	matches, err := h.Knowledge.Query(c.Request.Context(), workspaceID, req.Query)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"matches": matches})
}
