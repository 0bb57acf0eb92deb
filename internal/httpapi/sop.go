package httpapi

import (
	"errors"
	"net/http"

	"voice-platform/internal/auth"
	"voice-platform/internal/sop"
	"voice-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

type generateSOPRequest struct {
	Title       string `json:"title"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

// GenerateSOP produces a structured SOP from a description and stores it.
func (h Handlers) GenerateSOP(c *gin.Context) {
	workspaceID, ok := h.workspace(c)
	if !ok {
		return
	}
	var req generateSOPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.Description == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "description is required"})
		return
	}
	userID, _ := auth.UserID(c.Request.Context())
	rec, err := h.SOPs.Generate(c.Request.Context(), sop.GenerateRequest{
		WorkspaceID: workspaceID,
		Title:       req.Title,
		Category:    req.Category,
		Description: req.Description,
		CreatedBy:   userID,
	})
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to generate SOP"})
		return
	}
	if h.Audit != nil {
		if err := h.Audit.LogSOPGenerated(c.Request.Context(), workspaceID, h.actor(c), rec.ID); err != nil {
			logger.FromGin(c).Warn("audit append failed", "err", err)
		}
	}
	c.JSON(http.StatusOK, rec)
}

func (h Handlers) ListSOPs(c *gin.Context) {
	workspaceID, ok := h.workspace(c)
	if !ok {
		return
	}
	rows, err := h.SOPs.List(c.Request.Context(), workspaceID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "listing SOPs failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sops": rows})
}

func (h Handlers) GetSOP(c *gin.Context) {
	workspaceID, ok := h.workspace(c)
	if !ok {
		return
	}
	rec, err := h.SOPs.Get(c.Request.Context(), workspaceID, c.Param("sop_id"))
	if err != nil {
		if errors.Is(err, sop.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "sop not found"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "sop lookup failed"})
		return
	}
	c.JSON(http.StatusOK, rec)
}
