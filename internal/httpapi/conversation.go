package httpapi

import (
	"net/http"

	"voice-platform/internal/ai"

	"github.com/gin-gonic/gin"
)

type converseRequest struct {
	Message    string `json:"message"`
	Voice      string `json:"voice"`
	Identified bool   `json:"identified"`
}

// Converse runs one dashboard conversation turn: knowledge retrieval, chat
// completion and speech synthesis.
func (h Handlers) Converse(c *gin.Context) {
	workspaceID, ok := h.workspace(c)
	if !ok {
		return
	}
	if h.Responder == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "conversational AI is not configured"})
		return
	}
	var req converseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	resp, err := h.Responder.Converse(c.Request.Context(), ai.ConverseRequest{
		WorkspaceID: workspaceID,
		Message:     req.Message,
		Voice:       req.Voice,
		Identified:  req.Identified,
	})
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to process voice request"})
		return
	}
	c.JSON(http.StatusOK, resp)
}
