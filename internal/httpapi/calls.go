package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"voice-platform/internal/calls"
	"voice-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

// ListCalls returns the workspace's calls, newest first. ?limit caps the page.
func (h Handlers) ListCalls(c *gin.Context) {
	workspaceID, ok := h.workspace(c)
	if !ok {
		return
	}
	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}
	rows, err := h.Calls.List(c.Request.Context(), workspaceID, limit)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "listing calls failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"calls": rows})
}

type createCallRequest struct {
	CallerPhone string `json:"caller_phone"`
	CallerName  string `json:"caller_name"`
}

// CreateCall records a manual call entry from the dashboard (e.g. a test
// call or one logged by an operator). Webhook-driven calls never pass
// through here.
func (h Handlers) CreateCall(c *gin.Context) {
	workspaceID, ok := h.workspace(c)
	if !ok {
		return
	}
	var req createCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.CallerPhone == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "caller_phone is required"})
		return
	}
	call, err := h.Calls.Create(c.Request.Context(), calls.CreateCallRequest{
		WorkspaceID: workspaceID,
		CallerPhone: req.CallerPhone,
		CallerName:  req.CallerName,
	})
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "creating call failed"})
		return
	}
	c.JSON(http.StatusCreated, call)
}

func (h Handlers) GetCall(c *gin.Context) {
	workspaceID, ok := h.workspace(c)
	if !ok {
		return
	}
	call, err := h.Calls.Get(c.Request.Context(), workspaceID, c.Param("call_id"))
	if err != nil {
		if errors.Is(err, calls.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "call not found"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "call lookup failed"})
		return
	}
	c.JSON(http.StatusOK, call)
}

// EndCall force-completes an active call from the dashboard.
// RBAC: owner or agent.
func (h Handlers) EndCall(c *gin.Context) {
	workspaceID, ok := h.workspace(c)
	if !ok {
		return
	}
	callID := c.Param("call_id")
	call, err := h.Calls.EndByOperator(c.Request.Context(), workspaceID, callID)
	if err != nil {
		if errors.Is(err, calls.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "no active call to end"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "ending call failed"})
		return
	}
	if h.CallSlots != nil {
		if err := h.CallSlots.Release(c.Request.Context(), workspaceID); err != nil {
			logger.FromGin(c).Warn("call slot release failed", "workspace_id", workspaceID, "err", err)
		}
	}
	if h.Audit != nil {
		if err := h.Audit.LogCallEnded(c.Request.Context(), workspaceID, h.actor(c), callID); err != nil {
			logger.FromGin(c).Warn("audit append failed", "err", err)
		}
	}
	c.JSON(http.StatusOK, call)
}
